package solver

import (
	"fuzzysat/internal/ast"
	"fuzzysat/internal/detect"
)

// NotifyConstraint folds one path-condition clause into the context's
// cross-query state: the univocally-defined set, the conflict map, and
// the range store. Idempotent per AST hash.
func (ctx *Context) NotifyConstraint(c *ast.Node) {
	if ctx.cfg.SkipNotify {
		return
	}
	if _, seen := ctx.processed[c.Hash()]; seen {
		return
	}
	ctx.processed[c.Hash()] = struct{}{}
	ctx.harvestConstants(c)
	ctx.notify(c)
}

// harvestConstants remembers the comparison constants of a formula for
// the input-to-state-extended phase.
func (ctx *Context) harvestConstants(c *ast.Node) {
	for _, v := range detect.Constants(c) {
		if _, dup := ctx.earlySeen[v]; dup {
			continue
		}
		ctx.earlySeen[v] = struct{}{}
		ctx.earlyConstants = append(ctx.earlyConstants, v)
	}
}

func (ctx *Context) notify(c *ast.Node) {
	if c.Kind == ast.AND {
		for _, clause := range c.Args {
			ctx.notify(clause)
		}
		return
	}

	if ctx.markUnivocallyDefined(c) {
		ctx.rstore.UpdateConstraint(c, ctx)
		return
	}

	// Atomic clause: remember which bytes it touches so the multigoal
	// coordinator can find it when a later mutation breaks it.
	info := detect.Collect(c, ctx.detectEnv())
	for ix := range info.Indexes {
		ctx.conflicts[ix] = append(ctx.conflicts[ix], c)
	}
	for ix := range info.IndexesUD {
		ctx.conflicts[ix] = append(ctx.conflicts[ix], c)
	}

	ctx.rstore.UpdateConstraint(c, ctx)
}

// markUnivocallyDefined recognises eq(input_group, expr) where the
// group is exact and the other side is input-free: those bytes are
// pinned by the path condition and leave the mutation sets. Discovering
// one invalidates the info cache, whose records bake in the UD split.
func (ctx *Context) markUnivocallyDefined(c *ast.Node) bool {
	if c.Kind != ast.EQ {
		return false
	}
	lhs, rhs := c.Args[0], c.Args[1]
	for swap := 0; swap < 2; swap++ {
		if swap == 1 {
			lhs, rhs = rhs, lhs
		}
		g, approx, ok := detect.Group(lhs, ctx)
		if !ok || approx {
			continue
		}
		if touchesInputs(rhs, ctx) {
			continue
		}
		grew := false
		for _, ix := range g.Indices() {
			if _, dup := ctx.ud[ix]; !dup {
				ctx.ud[ix] = struct{}{}
				grew = true
			}
		}
		// pin the seed to the defined value so every later query starts
		// on the path the equality describes
		if v, ok := ctx.constEval(rhs); ok {
			g.SetLE(ctx.seed().Values, v)
		}
		if grew {
			log.Debugf("univocally defined: %s", g)
			ctx.cache.Invalidate()
		}
		return true
	}
	return false
}
