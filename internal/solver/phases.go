package solver

import (
	"fuzzysat/internal/ast"
	"fuzzysat/internal/astinfo"
	"fuzzysat/internal/detect"
)

type phaseResult int

const (
	// inconclusive: this strategy had nothing to offer; try the next.
	inconclusive phaseResult = iota
	// phaseSat: both B and the path condition hold; proof captured.
	phaseSat
	// phaseUnsat: the phase exhausted B's whole reachable space. The
	// cascade stops but the call still reports unknown to the caller.
	phaseUnsat
	// phaseTimeout: the query deadline passed; unwind.
	phaseTimeout
)

// solveBranch runs the cascade against one branch condition. The
// scratch input must hold the current baseline on entry; phases that
// fail restore it.
func (ctx *Context) solveBranch(pi, b *ast.Node, info *astinfo.Record) phaseResult {
	cfg := ctx.cfg
	phases := []struct {
		name string
		skip bool
		run  func(pi, b *ast.Node, info *astinfo.Record) phaseResult
	}{
		{"reuse", cfg.SkipReuse, ctx.phaseReuse},
		{"input-to-state", cfg.SkipInputToState, ctx.phaseInputToState},
		{"simple-math", cfg.SkipSimpleMath, ctx.phaseSimpleMath},
		{"range-brute-force", cfg.SkipRangeBruteForce || ctx.aggressive, ctx.phaseRangeBruteForce},
		{"range-brute-force-opt", cfg.SkipRangeBruteForceOpt, ctx.phaseRangeBruteForceOpt},
		{"input-to-state-ext", cfg.SkipInputToStateExt, ctx.phaseInputToStateExt},
		{"brute-force-1", cfg.SkipBruteForce, ctx.phaseSingleByteBruteForce},
		{"gradient-descent", cfg.SkipGradientDescend, ctx.phaseGradientDescent},
		{"afl-deterministic", cfg.SkipDeterministic, ctx.phaseAflDeterministic},
		{"afl-havoc", cfg.SkipHavoc, ctx.phaseHavoc},
	}

	for _, p := range phases {
		if p.skip {
			continue
		}
		res := p.run(pi, b, info)
		switch res {
		case phaseSat:
			log.Debugf("phase %s: sat", p.name)
			return phaseSat
		case phaseUnsat:
			log.Debugf("phase %s: local unsat, stopping cascade", p.name)
			return phaseUnsat
		case phaseTimeout:
			log.Debugf("phase %s: timeout", p.name)
			return phaseTimeout
		}
	}
	return inconclusive
}

// queryInfo computes the analysis record for b, honoring the multigoal
// blacklist and the aggressive-optimistic UD re-merge.
func (ctx *Context) queryInfo(b *ast.Node) *astinfo.Record {
	info := detect.Collect(b, ctx.detectEnv())
	if len(ctx.blacklist) == 0 && !ctx.aggressive {
		return info
	}
	info = info.Clone()
	if ctx.aggressive {
		for ix := range info.IndexesUD {
			info.Indexes[ix] = struct{}{}
		}
		for g := range info.IndexGroupsUD {
			info.IndexGroups[g] = struct{}{}
		}
	}
	for ix := range ctx.blacklist {
		delete(info.Indexes, ix)
	}
	for g := range info.IndexGroups {
		for _, ix := range g.Indices() {
			if _, frozen := ctx.blacklist[ix]; frozen {
				delete(info.IndexGroups, g)
				break
			}
		}
	}
	return info
}

// mutable reports whether a byte may be touched by mutation phases.
func (ctx *Context) mutable(index int) bool {
	if _, frozen := ctx.blacklist[index]; frozen {
		return false
	}
	if ctx.aggressive {
		return true
	}
	return !ctx.isUD(index)
}

// groupMutable requires every byte of the group to be mutable.
func (ctx *Context) groupMutable(g astinfo.Group) bool {
	for i := 0; i < g.Len(); i++ {
		if !ctx.mutable(g.Index(i)) {
			return false
		}
	}
	return true
}

// validGroup runs the range-store check unless the aggressive rerun
// disabled it.
func (ctx *Context) validGroup(g astinfo.Group) bool {
	if ctx.aggressive {
		return true
	}
	return ctx.rstore.ValidEval(g, scratch.tmpInput)
}

func (ctx *Context) validIndex(index int) bool {
	if ctx.aggressive {
		return true
	}
	return ctx.rstore.ValidEvalIndex(index, scratch.tmpInput)
}

// saveScratch snapshots the current candidate so a failing phase can
// put it back.
func (ctx *Context) saveScratch() []uint64 {
	return append([]uint64(nil), scratch.tmpInput[:ctx.maxSlot]...)
}

func (ctx *Context) restoreScratch(saved []uint64) {
	copy(scratch.tmpInput, saved)
}
