package diag

var builtinEntries = []*Entry{
	{
		Code:        UnknownName,
		Title:       "Variable not found",
		Explanation: "The compiler cannot find a variable with this name in the current scope. This usually means the variable hasn't been declared yet, or it's out of scope.",
		Causes: []string{
			"Typo in the variable name",
			"Variable not declared before use",
			"Variable is out of scope (declared in a different block)",
		},
		Solutions: []string{
			"Check the spelling of the variable name",
			"Declare the variable before using it: let x = 42",
			"Make sure the variable is in scope",
		},
		Example: &Example{
			Bad:         "println!(\"{}\", total)  // 'total' not declared",
			Good:        "let total = 100\nprintln!(\"{}\", total)",
			Explanation: "Declared the variable before using it",
		},
		NativeCodes: []string{"E0425"},
		Related:     []string{UnknownFunction, UnknownType},
		Severity:    "error",
		Category:    "Type Errors",
	},
	{
		Code:        UnknownFunction,
		Title:       "Function not found",
		Explanation: "The compiler cannot find a function with this name. This might be because the function hasn't been defined, or the module containing it hasn't been imported.",
		Causes: []string{
			"Typo in the function name",
			"Function not defined",
			"Module not imported",
		},
		Solutions: []string{
			"Check the spelling of the function name",
			"Define the function before calling it",
			"Import the module: use std::collections::HashMap",
		},
		Example: &Example{
			Bad:         "proces_data(items)  // Typo: 'proces' instead of 'process'",
			Good:        "process_data(items)",
			Explanation: "Fixed the typo in the function name",
		},
		NativeCodes: []string{"E0425"},
		Related:     []string{UnknownName, UnknownModule},
		Severity:    "error",
		Category:    "Type Errors",
	},
	{
		Code:        TypeMismatch,
		Title:       "Type mismatch",
		Explanation: "The compiler expected one type but found another. In Windjammer, types must match exactly. You may need to convert between types explicitly.",
		Causes: []string{
			"Passing wrong type to function",
			"Assigning wrong type to variable",
			"Returning wrong type from function",
		},
		Solutions: []string{
			"Use .parse() to convert string to number: \"42\".parse()",
			"Use .to_string() to convert number to string: 42.to_string()",
			"Check the function signature for expected types",
		},
		Example: &Example{
			Bad:         "let x: int = \"42\"  // String, not int",
			Good:        "let x: int = \"42\".parse()  // Convert to int",
			Explanation: "Used .parse() to convert string to integer",
		},
		NativeCodes: []string{"E0308", "E0277"},
		Severity:    "error",
		Category:    "Type Errors",
	},
	{
		Code:        ImmutableAssign,
		Title:       "Cannot modify immutable variable",
		Explanation: "Variables in Windjammer are immutable by default. To modify a variable, you must declare it as mutable using 'let mut'.",
		Causes: []string{
			"Trying to modify an immutable variable",
			"Forgot 'mut' keyword",
		},
		Solutions: []string{
			"Declare the variable as mutable: let mut x = 42",
			"Create a new variable instead of modifying the existing one",
		},
		Example: &Example{
			Bad:         "let x = 10\nx = 20  // Error: x is immutable",
			Good:        "let mut x = 10\nx = 20  // Works!",
			Explanation: "Added 'mut' keyword to make variable mutable",
		},
		NativeCodes: []string{"E0384", "E0596"},
		Severity:    "error",
		Category:    "Ownership Errors",
	},
	{
		Code:        UnknownType,
		Title:       "Type not found",
		Explanation: "The compiler cannot find a type with this name. This might be a typo, or the type might be defined in a module that hasn't been imported.",
		Causes: []string{
			"Typo in the type name",
			"Type not defined",
			"Module not imported",
		},
		Solutions: []string{
			"Check the spelling of the type name",
			"Define the type (struct, enum, etc.)",
			"Import the module containing the type",
		},
		Example: &Example{
			Bad:  "let map: HashMapp<string, int> = HashMap::new()  // Typo",
			Good: "let map: HashMap<string, int> = HashMap::new()",
		},
		NativeCodes: []string{"E0412"},
		Severity:    "error",
		Category:    "Type Errors",
	},
	{
		Code:        UnknownModule,
		Title:       "Module not found",
		Explanation: "The compiler cannot find a module with this name. Check that the module exists and is in the correct location.",
		Causes: []string{
			"Typo in the module name",
			"Module file doesn't exist",
			"Module not in the correct directory",
		},
		Solutions: []string{
			"Check the spelling of the module name",
			"Create the module file",
			"Check the module is in the correct location",
		},
		Example: &Example{
			Bad:  "use std::colections::HashMap  // Typo",
			Good: "use std::collections::HashMap",
		},
		NativeCodes: []string{"E0433", "E0432"},
		Severity:    "error",
		Category:    "Module Errors",
	},
	{
		Code:        MovedValue,
		Title:       "Value was moved",
		Explanation: "This value was moved to another location and can no longer be used here. In Windjammer, most values can only be used once unless they implement Copy. However, the auto-clone system should handle most cases automatically.",
		Causes: []string{
			"Value passed to function that takes ownership",
			"Value assigned to another variable",
			"Auto-clone system couldn't insert clone automatically",
		},
		Solutions: []string{
			"Use a reference (&) instead: process(&data)",
			"Clone explicitly: process(data.clone())",
			"Restructure code to avoid multiple uses",
		},
		Example: &Example{
			Bad:         "let data = vec![1, 2, 3]\nconsume(data)\nprintln!(\"{}\", data.len())",
			Good:        "let data = vec![1, 2, 3]\nconsume(data.clone())  // Explicit clone\nprintln!(\"{}\", data.len())",
			Explanation: "Usually handled automatically; clone explicitly when it is not",
		},
		NativeCodes: []string{"E0382"},
		Severity:    "error",
		Category:    "Ownership Errors",
	},
	{
		Code:        BorrowConflict,
		Title:       "Cannot borrow as mutable",
		Explanation: "You're trying to borrow a value as mutable, but it's already borrowed as immutable, or vice versa. Windjammer enforces Rust's borrowing rules to ensure memory safety.",
		Causes: []string{
			"Multiple mutable borrows",
			"Mutable borrow while immutable borrow exists",
		},
		Solutions: []string{
			"Ensure borrows don't overlap in scope",
			"Use only one mutable borrow at a time",
			"Restructure code to avoid conflicting borrows",
		},
		Example: &Example{
			Bad:  "let mut x = 5\nswap(&x, &mut x)  // Error: already borrowed",
			Good: "let mut x = 5\nlet y = x\nswap(&y, &mut x)",
		},
		NativeCodes: []string{"E0502", "E0503", "E0499"},
		Severity:    "error",
		Category:    "Ownership Errors",
	},
	{
		Code:        MissingField,
		Title:       "Missing field in struct",
		Explanation: "When creating a struct, you must provide values for all fields.",
		Causes: []string{
			"Forgot to initialize a field",
			"Typo in field name",
		},
		Solutions: []string{
			"Add the missing field",
			"Check field names match struct definition",
		},
		Example: &Example{
			Bad:  "let user = User {\n    name: \"Alice\"\n}",
			Good: "let user = User {\n    name: \"Alice\",\n    age: 30\n}",
		},
		NativeCodes: []string{"E0063"},
		Severity:    "error",
		Category:    "Type Errors",
	},
	{
		Code:        NonExhaustiveMatch,
		Title:       "Pattern match not exhaustive",
		Explanation: "Your match expression doesn't cover all possible cases. Windjammer requires all patterns to be handled for safety.",
		Causes: []string{
			"Missing match arms",
			"Forgot wildcard pattern",
		},
		Solutions: []string{
			"Add missing match arms",
			"Add a wildcard pattern: _ => ...",
		},
		Example: &Example{
			Bad:  "match value {\n    Some(x) => println!(\"{}\", x)\n}",
			Good: "match value {\n    Some(x) => println!(\"{}\", x),\n    None => println!(\"No value\")\n}",
		},
		NativeCodes: []string{"E0004"},
		Severity:    "error",
		Category:    "Type Errors",
	},
	{
		Code:        UnexpectedToken,
		Title:       "Unexpected token",
		Explanation: "The parser found a token that cannot appear at this point in the program. Parsing resumes at the next statement or item so that later errors are still reported.",
		Causes: []string{
			"Missing operator or separator between two expressions",
			"A statement where an item was expected",
			"A keyword used as a name",
		},
		Solutions: []string{
			"Check the syntax near the reported position",
			"Add the missing comma, operator or closing delimiter",
		},
		Example: &Example{
			Bad:  "fn add(a b) { a + b }",
			Good: "fn add(a, b) { a + b }",
		},
		NativeCodes: []string{},
		Severity:    "error",
		Category:    "Syntax Errors",
	},
	{
		Code:        UnclosedDelimiter,
		Title:       "Unclosed delimiter",
		Explanation: "An opening parenthesis, bracket or brace has no matching closing delimiter before the end of the file.",
		Causes: []string{
			"Missing closing brace at the end of a function",
			"Mismatched nesting of brackets",
		},
		Solutions: []string{
			"Add the matching closing delimiter",
			"Check that nested blocks are closed in the right order",
		},
		Example: &Example{
			Bad:  "fn main() {\n    println!(\"hi\")",
			Good: "fn main() {\n    println!(\"hi\")\n}",
		},
		NativeCodes: []string{},
		Severity:    "error",
		Category:    "Syntax Errors",
	},
	{
		Code:        UnterminatedLit,
		Title:       "Unterminated literal",
		Explanation: "A string literal, character literal or block comment is not closed before the end of the file or line.",
		Causes: []string{
			"Missing closing quote",
			"Missing */ at the end of a block comment",
		},
		Solutions: []string{
			"Add the closing quote or comment terminator",
		},
		Example: &Example{
			Bad:  "let s = \"hello",
			Good: "let s = \"hello\"",
		},
		NativeCodes: []string{"E0765", "E0758"},
		Severity:    "error",
		Category:    "Syntax Errors",
	},
	{
		Code:        IllegalChar,
		Title:       "Illegal character",
		Explanation: "The source contains a character that is not part of the language, or an escape sequence that is not recognised.",
		Causes: []string{
			"A stray symbol pasted into the source",
			"An unknown escape such as \\q in a string literal",
		},
		Solutions: []string{
			"Remove the character or replace it with a valid one",
			"Use one of the escapes \\n \\t \\r \\\\ \\\" \\' \\0 \\$ or \\u{...}",
		},
		Example: &Example{
			Bad:  "let x = 1 ` 2",
			Good: "let x = 1 + 2",
		},
		NativeCodes: []string{},
		Severity:    "error",
		Category:    "Syntax Errors",
	},
	{
		Code:        InvalidNumber,
		Title:       "Invalid numeric literal",
		Explanation: "A number literal is malformed: it has an empty exponent, digits outside its base, or a base prefix with no digits.",
		Causes: []string{
			"Exponent without digits, as in 1e+",
			"Digit outside the base, as in 0b102",
		},
		Solutions: []string{
			"Write the literal with digits valid for its base",
		},
		Example: &Example{
			Bad:  "let x = 0x",
			Good: "let x = 0x1F",
		},
		NativeCodes: []string{},
		Severity:    "error",
		Category:    "Syntax Errors",
	},
	{
		Code:        InternalError,
		Title:       "Internal compiler error",
		Explanation: "The compiler violated one of its own invariants. The program may be valid; this is a bug in the compiler.",
		Causes: []string{
			"An optimization pass produced a program that no longer resolves",
			"Code generation reached a construct with no translation",
		},
		Solutions: []string{
			"Report the bug with the input program",
			"Retry with fewer optimizations enabled",
		},
		NativeCodes: []string{},
		Severity:    "error",
		Category:    "Internal Errors",
	},
	{
		Code:        AmbiguousMethod,
		Title:       "Ambiguous method resolution",
		Explanation: "A method called on a generic value is provided by more than one trait, so the compiler cannot infer which bound to add.",
		Causes: []string{
			"Two user traits declare a method with the same name",
		},
		Solutions: []string{
			"Add an explicit bound to the type parameter: fn f<T: Trait>(x: T)",
		},
		Example: &Example{
			Bad:  "trait A { fn go(&self) }\ntrait B { fn go(&self) }\nfn run(x) { x.go() }",
			Good: "fn run<T: A>(x: T) { x.go() }",
		},
		NativeCodes: []string{"E0034"},
		Related:     []string{TypeMismatch},
		Severity:    "error",
		Category:    "Trait Errors",
	},
	{
		Code:        Redeclared,
		Title:       "Name defined more than once",
		Explanation: "Two items in the same module, or two parameters of the same function, share a name. Every item name must be unique within its scope.",
		Causes: []string{
			"A function or type was copied and not renamed",
			"A use import brings in a name that is also defined locally",
		},
		Solutions: []string{
			"Rename one of the definitions",
			"Import the name under an alias: use std::json as js",
		},
		Example: &Example{
			Bad:  "fn area() {}\nfn area() {}",
			Good: "fn area() {}\nfn perimeter() {}",
		},
		NativeCodes: []string{"E0428", "E0415"},
		Severity:    "error",
		Category:    "Module Errors",
	},
}
