// Package opt implements the optimizer: a fixed, ordered pipeline of
// AST-to-AST passes run over a private copy of the program.
//
// Every pass is idempotent and refinement preserving, so the pipeline
// is iterated until no pass changes the tree, up to a small cap.
package opt

import (
	"github.com/windjammer-lang/wj/internal/analysis"
	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/resolve"
	"github.com/windjammer-lang/wj/internal/syntax"
)

// Unit is the program being optimized together with the analysis tables
// computed for its current form. Passes that change the tree cause the
// tables to be recomputed on next use.
type Unit struct {
	File *syntax.File
	Conf *resolve.Config
	Cfg  Config

	// Bag receives the diagnostics reported by passes.
	Bag *diag.Bag

	// Interned lists the interned string literals by id.
	Interned []string

	info     *resolve.Info
	res      *analysis.Result
	reported map[syntax.Pos]bool
	err      error // set by a pass that failed
}

// NewUnit returns a unit holding a deep copy of file.
func NewUnit(file *syntax.File, conf *resolve.Config, cfg Config, bag *diag.Bag) *Unit {
	if bag == nil {
		bag = diag.NewBag()
	}
	return &Unit{
		File:     syntax.Clone(file),
		Conf:     conf,
		Cfg:      cfg,
		Bag:      bag,
		reported: make(map[syntax.Pos]bool),
	}
}

// Info returns the resolution of the current tree.
func (u *Unit) Info() *resolve.Info {
	if u.info == nil {
		u.info = resolve.Resolve(u.File, u.Conf, diag.NewBag())
	}
	return u.info
}

// Analysis returns the ownership analysis of the current tree.
func (u *Unit) Analysis() *analysis.Result {
	if u.res == nil {
		u.res = analysis.Analyze(u.File, u.Info(), nil)
	}
	return u.res
}

func (u *Unit) invalidate() {
	u.info, u.res = nil, nil
}

// verify re-resolves the tree and fails if any identifier no longer
// resolves.
func (u *Unit) verify() error {
	bag := diag.NewBag()
	info := resolve.Resolve(u.File, u.Conf, bag)
	if len(info.Unresolved) > 0 {
		n := info.Unresolved[0]
		return diag.Internalf("opt", "%s: identifier %s no longer resolves", n.Pos(), n.Value)
	}
	if bag.Has(diag.Redeclared) {
		d := bag.WithCode(diag.Redeclared)[0]
		return diag.Internalf("opt", "%s: %s", d.Pos(), d.Message)
	}
	// The analysis refers to the objects of the old resolution.
	u.info, u.res = info, nil
	return nil
}

// report adds d to the unit's bag unless a diagnostic was already
// reported at the same position by an earlier iteration.
func (u *Unit) report(code string, at syntax.Node, format string, args ...interface{}) *diag.Diagnostic {
	if u.reported[at.Pos()] {
		return nil
	}
	u.reported[at.Pos()] = true
	return u.Bag.Errorf(code, at.Span(), format, args...)
}

// Passes returns the pipeline in order.
func Passes() []Pass {
	return []Pass{
		{Name: "intern", Fn: internStrings},
		{Name: "fold", Fn: foldConstants},
		{Name: "dce", Fn: eliminateDeadCode},
		{Name: "shake", Fn: shakeTree},
		{Name: "inline", Fn: flagInline},
		{Name: "hoist", Fn: hoistInvariants},
		{Name: "escape", Fn: markEscapes},
		{Name: "simd", Fn: hintSIMD},
		{Name: "clone", Fn: insertClones},
		{Name: "borrow", Fn: collapseBorrows},
		{Name: "exhaust", Fn: checkExhaustive},
		{Name: "lower", Fn: lowerPatterns},
		{Name: "rethoist", Fn: hoistReturns},
		{Name: "minify", Fn: minifyLocals},
		{Name: "verify", Fn: verifyResolution},
	}
}

// Optimize runs the pipeline over a copy of file until no pass changes
// the tree or cfg.MaxIterations is reached. The input tree is not
// modified. Stats are summed per pass across iterations.
func Optimize(file *syntax.File, conf *resolve.Config, cfg Config, bag *diag.Bag) (*Unit, []PassStats, error) {
	u := NewUnit(file, conf, cfg, bag)
	max := cfg.MaxIterations
	if max <= 0 {
		max = DefaultMaxIterations
	}
	log := cfg.logger()

	passes := Passes()
	total := make([]PassStats, len(passes))
	for i, p := range passes {
		total[i].Name = p.Name
	}
	for iter := 1; iter <= max; iter++ {
		stats, err := Run(u, passes, cfg)
		changed := 0
		for i, s := range stats {
			total[i].ChangedNodes += s.ChangedNodes
			total[i].Elapsed += s.Elapsed
			changed += s.ChangedNodes
			log.Debug("pass", "iteration", iter, "name", s.Name, "changed", s.ChangedNodes, "elapsed", s.Elapsed)
		}
		if err != nil {
			return u, total, err
		}
		if changed == 0 {
			break
		}
	}
	return u, total, nil
}

// verifyResolution is the last pass: every identifier must still
// resolve. Failures are reported by Optimize as internal errors.
func verifyResolution(u *Unit) int {
	u.err = u.verify()
	return 0
}
