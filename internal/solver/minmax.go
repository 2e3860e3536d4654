package solver

import (
	"fuzzysat/internal/ast"
	"fuzzysat/internal/gradient"
)

// Maximize searches for an assignment satisfying pi that maximises the
// expression, returning the achieved value and its witness proof.
func (ctx *Context) Maximize(pi, expr *ast.Node) (uint64, []byte) {
	return ctx.optimise(pi, expr, true)
}

// Minimize is the dual of Maximize.
func (ctx *Context) Minimize(pi, expr *ast.Node) (uint64, []byte) {
	return ctx.optimise(pi, expr, false)
}

// optimise runs descent over the expression's groups. Maximisation
// minimises the complemented value, which is monotone in the original
// and avoids the wrap at zero of plain negation.
func (ctx *Context) optimise(pi, expr *ast.Node, max bool) (uint64, []byte) {
	ctx.resetQuery()
	ctx.timer.Start(ctx.queryTimeout)

	copy(scratch.tmpInput, ctx.seed().Values)
	info := ctx.queryInfo(expr)
	dims, ok := gdDims(info, ctx)
	if !ok {
		v := ctx.evalExprHere(expr)
		return v, ctx.proofBytes(scratch.tmpInput[:ctx.maxSlot])
	}

	point := make([]uint64, len(dims))
	widths := make([]uint32, len(dims))
	for i, g := range dims {
		widths[i] = g.Bits()
		point[i] = g.ValueLE(scratch.tmpInput)
	}

	objective := func(pt []uint64) (uint64, error) {
		ctx.evalCount++
		if ctx.evalCount&16 != 0 && ctx.timer.Expired() {
			return 0, gradient.ErrTimeout
		}
		for i, g := range dims {
			g.SetLE(scratch.tmpInput, pt[i])
		}
		sizes := ctx.seed().Sizes
		ctx.refreshAssignments(scratch.tmpInput[:ctx.maxSlot], sizes)
		ctx.stats.Evaluations++
		if pi != nil {
			ok, _ := ctx.eval(pi, scratch.tmpInput[:ctx.maxSlot], sizes)
			if ok == 0 {
				return ^uint64(0), nil // off the path: worst possible
			}
		}
		v, _ := ctx.eval(expr, scratch.tmpInput[:ctx.maxSlot], sizes)
		if max {
			return ^v, nil
		}
		return v, nil
	}

	if ctx.cfg.UseGreedyMamin {
		greedyDescend(point, widths, objective)
	} else {
		gradient.Minimize(point, widths, objective)
	}

	for i, g := range dims {
		g.SetLE(scratch.tmpInput, point[i])
	}
	achieved := ctx.evalExprHere(expr)
	return achieved, ctx.proofBytes(scratch.tmpInput[:ctx.maxSlot])
}

func (ctx *Context) evalExprHere(expr *ast.Node) uint64 {
	sizes := ctx.seed().Sizes
	ctx.refreshAssignments(scratch.tmpInput[:ctx.maxSlot], sizes)
	v, _ := ctx.eval(expr, scratch.tmpInput[:ctx.maxSlot], sizes)
	return v
}

// greedyDescend is the alternative optimiser behind USE_GREEDY_MAMIN:
// per-dimension probing of the extremes and a short +/- walk, repeated
// until a full sweep stops improving.
func greedyDescend(pt []uint64, widths []uint32, f gradient.Objective) {
	best, err := f(pt)
	if err != nil {
		return
	}
	trial := make([]uint64, len(pt))
	for {
		improved := false
		for i := range pt {
			m := unitMask(widths[i])
			candidates := []uint64{0, m}
			for k := uint64(1); k <= 16; k <<= 1 {
				candidates = append(candidates, (pt[i]+k)&m, (pt[i]-k)&m)
			}
			for _, v := range candidates {
				copy(trial, pt)
				trial[i] = v
				got, err := f(trial)
				if err != nil {
					return
				}
				if got < best {
					best = got
					copy(pt, trial)
					improved = true
				}
			}
		}
		if !improved {
			return
		}
	}
}
