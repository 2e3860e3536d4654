package detect

import (
	"fuzzysat/internal/ast"
	"fuzzysat/internal/astinfo"
)

// Env carries the state the involved-inputs analysis reads: symbol
// resolution, the univocally-defined set, constant evaluation for ITE
// conditions, and the process-wide record cache.
type Env struct {
	Res       Resolver
	IsUD      func(index int) bool
	ConstEval ConstEval
	Cache     *astinfo.Cache
}

func (e *Env) isUD(index int) bool {
	if e.IsUD == nil {
		return false
	}
	return e.IsUD(index)
}

func (e *Env) groupUD(g astinfo.Group) bool {
	for i := 0; i < g.Len(); i++ {
		if e.isUD(g.Index(i)) {
			return true
		}
	}
	return false
}

// Collect computes (or retrieves) the astinfo record for n: input
// indices and groups split by univocal definedness, ITE-embedded
// input-to-state patterns, and the shape counters. Results are memoised
// in the env cache; the cache is invalidated elsewhere whenever the UD
// set grows, which keeps the split coherent.
func Collect(n *ast.Node, env *Env) *astinfo.Record {
	if env.Cache != nil {
		if r, ok := env.Cache.Get(n.Hash()); ok {
			return r
		}
	}

	r := astinfo.NewRecord()
	r.QuerySize = 1

	switch n.Kind {
	case ast.SYM:
		if n.Sym >= env.Res.NumInputs() {
			if a := env.Res.Assignment(n.Sym); a != nil {
				r.Merge(Collect(a, env))
			}
		} else {
			r.AddIndex(n.Sym, env.isUD(n.Sym))
		}

	case ast.CONST:
		// nothing to record

	case ast.BVOR, ast.BVAND, ast.EXTRACT, ast.BVADD, ast.CONCAT:
		if g, approx, ok := Group(n, env.Res); ok {
			r.AddGroup(g, env.groupUD(g))
			for _, ix := range g.Indices() {
				r.AddIndex(ix, env.isUD(ix))
			}
			if approx {
				r.ApproxGroups++
			}
			r.LinearOps++
			break // grouped view covers the whole subtree
		}
		r.LinearOps++
		if n.Kind == ast.EXTRACT {
			r.ExtractOps++
		}
		collectChildren(n, env, r)

	case ast.BVSHL, ast.BVLSHR, ast.BVASHR,
		ast.BVUDIV, ast.BVSDIV, ast.BVUREM, ast.BVSREM:
		r.ExtractOps++
		r.NonlinearOps++
		collectChildren(n, env, r)

	case ast.BVMUL:
		r.NonlinearOps++
		collectChildren(n, env, r)

	case ast.ITE:
		if env.ConstEval != nil {
			if its, ok := InputToState(n.Args[0], env.Res, env.ConstEval); ok {
				r.InputToStateITE = append(r.InputToStateITE,
					astinfo.ITSPattern{Group: its.Group, Val: its.Value})
			}
		}
		collectChildren(n, env, r)

	default:
		switch n.Kind {
		case ast.BVSUB, ast.BVNOT, ast.BVNEG, ast.ZEXT, ast.SEXT,
			ast.NOT, ast.AND, ast.OR:
			r.LinearOps++
		default:
			if ast.IsCmp(n.Kind) {
				r.LinearOps++
			}
		}
		collectChildren(n, env, r)
	}

	if env.Cache != nil {
		env.Cache.Put(n.Hash(), r)
	}
	return r
}

func collectChildren(n *ast.Node, env *Env, r *astinfo.Record) {
	for _, a := range n.Args {
		r.Merge(Collect(a, env))
	}
}

// Constants scrapes the comparison constants of a formula: every
// literal that appears as a direct operand of a comparison, anywhere in
// the tree. The input-to-state-extended phase replays these through
// every group a branch condition touches.
func Constants(n *ast.Node) []uint64 {
	var out []uint64
	seen := make(map[uint64]struct{})
	var walk func(n *ast.Node)
	walk = func(n *ast.Node) {
		if ast.IsCmp(n.Kind) {
			for _, a := range n.Args {
				if a.Kind == ast.CONST && a.Size > 1 {
					if _, dup := seen[a.Val]; !dup {
						seen[a.Val] = struct{}{}
						out = append(out, a.Val)
					}
				}
			}
		}
		for _, a := range n.Args {
			walk(a)
		}
	}
	walk(n)
	return out
}
