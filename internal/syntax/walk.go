package syntax

// Visitor is called for each node during Walk.
// If it returns false, the children of the node are not visited.
type Visitor func(node Node) bool

// Walk traverses an AST in depth-first source order.
// If visitor returns false, children are not visited.
func Walk(node Node, v Visitor) {
	if node == nil || !v(node) {
		return
	}

	switch n := node.(type) {
	case *File:
		for _, d := range n.Items {
			Walk(d, v)
		}

	// Items
	case *FuncDecl:
		walkAttrs(n.Attrs, v)
		Walk(n.Name, v)
		walkGenerics(n.Generics, v)
		for _, p := range n.Params {
			Walk(p, v)
		}
		if n.Result != nil {
			Walk(n.Result, v)
		}
		for _, w := range n.Where {
			Walk(w, v)
		}
		if n.Body != nil {
			Walk(n.Body, v)
		}

	case *Param:
		Walk(n.Name, v)
		if n.Type != nil {
			Walk(n.Type, v)
		}

	case *GenericParam:
		Walk(n.Name, v)
		walkTypes(n.Bounds, v)

	case *WherePred:
		Walk(n.Type, v)
		walkTypes(n.Bounds, v)

	case *StructDecl:
		walkAttrs(n.Attrs, v)
		Walk(n.Name, v)
		walkGenerics(n.Generics, v)
		for _, f := range n.Fields {
			Walk(f, v)
		}

	case *FieldDecl:
		Walk(n.Name, v)
		Walk(n.Type, v)

	case *EnumDecl:
		walkAttrs(n.Attrs, v)
		Walk(n.Name, v)
		walkGenerics(n.Generics, v)
		for _, vr := range n.Variants {
			Walk(vr, v)
		}

	case *Variant:
		Walk(n.Name, v)
		walkTypes(n.Tuple, v)
		for _, f := range n.Fields {
			Walk(f, v)
		}

	case *TraitDecl:
		walkAttrs(n.Attrs, v)
		Walk(n.Name, v)
		walkGenerics(n.Generics, v)
		for _, m := range n.Methods {
			Walk(m, v)
		}

	case *ImplDecl:
		walkAttrs(n.Attrs, v)
		walkGenerics(n.Generics, v)
		if n.Trait != nil {
			Walk(n.Trait, v)
		}
		Walk(n.Type, v)
		for _, m := range n.Methods {
			Walk(m, v)
		}

	case *UseDecl:
		for _, s := range n.Path {
			Walk(s, v)
		}
		if n.Alias != nil {
			Walk(n.Alias, v)
		}

	case *ConstDecl:
		walkAttrs(n.Attrs, v)
		Walk(n.Name, v)
		if n.Type != nil {
			Walk(n.Type, v)
		}
		Walk(n.Value, v)

	case *TypeAliasDecl:
		Walk(n.Name, v)
		walkGenerics(n.Generics, v)
		Walk(n.Type, v)

	// Types
	case *NamedType:
		walkTypes(n.Args, v)
		for _, a := range n.Assoc {
			Walk(a, v)
		}

	case *AssocType:
		Walk(n.Type, v)

	case *RefType:
		Walk(n.Elem, v)

	case *TupleType:
		walkTypes(n.Elems, v)

	case *ArrayType:
		Walk(n.Elem, v)
		if n.Len != nil {
			Walk(n.Len, v)
		}

	case *FuncType:
		walkTypes(n.Params, v)
		if n.Result != nil {
			Walk(n.Result, v)
		}

	// Statements
	case *BlockStmt:
		for _, s := range n.Stmts {
			Walk(s, v)
		}

	case *LetStmt:
		Walk(n.Pat, v)
		if n.Type != nil {
			Walk(n.Type, v)
		}
		if n.Value != nil {
			Walk(n.Value, v)
		}

	case *AssignStmt:
		Walk(n.Lhs, v)
		Walk(n.Rhs, v)

	case *ExprStmt:
		Walk(n.X, v)

	case *ReturnStmt:
		if n.Result != nil {
			Walk(n.Result, v)
		}

	case *IfStmt:
		Walk(n.Cond, v)
		Walk(n.Then, v)
		if n.Else != nil {
			Walk(n.Else, v)
		}

	case *WhileStmt:
		Walk(n.Cond, v)
		Walk(n.Body, v)

	case *LoopStmt:
		Walk(n.Body, v)

	case *ForStmt:
		Walk(n.Pat, v)
		Walk(n.Iter, v)
		Walk(n.Body, v)

	// Expressions
	case *InterpString:
		walkExprs(n.Parts, v)

	case *Operation:
		Walk(n.X, v)
		if n.Y != nil {
			Walk(n.Y, v)
		}

	case *CallExpr:
		Walk(n.Fun, v)
		walkExprs(n.Args, v)

	case *MethodCallExpr:
		Walk(n.X, v)
		walkExprs(n.Args, v)

	case *FieldExpr:
		Walk(n.X, v)

	case *IndexExpr:
		Walk(n.X, v)
		Walk(n.Index, v)

	case *Ternary:
		Walk(n.Cond, v)
		Walk(n.Then, v)
		if n.Else != nil {
			Walk(n.Else, v)
		}

	case *ClosureExpr:
		for _, p := range n.Params {
			Walk(p, v)
		}
		Walk(n.Body, v)

	case *BlockExpr:
		Walk(n.Block, v)

	case *MatchExpr:
		Walk(n.X, v)
		for _, a := range n.Arms {
			Walk(a, v)
		}

	case *MatchArm:
		Walk(n.Pat, v)
		if n.Guard != nil {
			Walk(n.Guard, v)
		}
		Walk(n.Body, v)

	case *StructLit:
		Walk(n.Type, v)
		for _, f := range n.Fields {
			Walk(f, v)
		}
		if n.Base != nil {
			Walk(n.Base, v)
		}

	case *FieldInit:
		Walk(n.Value, v)

	case *ArrayLit:
		walkExprs(n.Elems, v)

	case *TupleLit:
		walkExprs(n.Elems, v)

	case *RangeExpr:
		if n.Lo != nil {
			Walk(n.Lo, v)
		}
		if n.Hi != nil {
			Walk(n.Hi, v)
		}

	case *CastExpr:
		Walk(n.X, v)
		Walk(n.Type, v)

	case *TryExpr:
		Walk(n.X, v)

	case *AwaitExpr:
		Walk(n.X, v)

	case *MacroCall:
		walkExprs(n.Args, v)

	case *PathExpr:
		walkTypes(n.TypeArgs, v)

	case *ParenExpr:
		Walk(n.X, v)

	// Patterns
	case *IdentPat:
		Walk(n.Name, v)

	case *LitPat:
		if n.Lit != nil {
			Walk(n.Lit, v)
		}

	case *TuplePat:
		walkPats(n.Elems, v)

	case *VariantPat:
		walkPats(n.Elems, v)
		for _, f := range n.Fields {
			Walk(f, v)
		}

	case *FieldPat:
		if n.Pat != nil {
			Walk(n.Pat, v)
		}

	case *OrPat:
		walkPats(n.Alts, v)

	case *RefPat:
		Walk(n.Pat, v)

	case *RangePat:
		Walk(n.Lo, v)
		Walk(n.Hi, v)

	case *Name, *BasicLit, *Attribute, *WildcardPat, *InferType,
		*BranchStmt, *EmptyStmt, *BadStmt, *BadExpr, *BadDecl:
		// leaves
	}
}

func walkAttrs(list []*Attribute, v Visitor) {
	for _, a := range list {
		Walk(a, v)
	}
}

func walkGenerics(list []*GenericParam, v Visitor) {
	for _, g := range list {
		Walk(g, v)
	}
}

func walkTypes(list []Type, v Visitor) {
	for _, t := range list {
		Walk(t, v)
	}
}

func walkExprs(list []Expr, v Visitor) {
	for _, x := range list {
		Walk(x, v)
	}
}

func walkPats(list []Pattern, v Visitor) {
	for _, p := range list {
		Walk(p, v)
	}
}

// Inspect calls f for every node in source order.
func Inspect(node Node, f func(Node)) {
	Walk(node, func(n Node) bool {
		f(n)
		return true
	})
}
