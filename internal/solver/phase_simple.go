package solver

import (
	"fuzzysat/internal/ast"
	"fuzzysat/internal/astinfo"
	"fuzzysat/internal/detect"
	"fuzzysat/internal/interval"
	"fuzzysat/internal/ranges"
)

// phaseReuse replays every auxiliary test case as a candidate. The
// seed itself was already tried by the sat-in-seed early exit.
func (ctx *Context) phaseReuse(pi, b *ast.Node, _ *astinfo.Record) phaseResult {
	if len(ctx.testcases) < 2 {
		return inconclusive
	}
	saved := ctx.saveScratch()
	for _, tc := range ctx.testcases[1:] {
		copy(scratch.tmpInput, tc.Values)
		switch ctx.checkInput(pi, b) {
		case checkSat:
			return phaseSat
		case checkTimeout:
			ctx.restoreScratch(saved)
			return phaseTimeout
		}
	}
	ctx.restoreScratch(saved)
	return inconclusive
}

// phaseInputToState writes the comparison constant straight into the
// backing group, little-endian.
func (ctx *Context) phaseInputToState(pi, b *ast.Node, _ *astinfo.Record) phaseResult {
	its, ok := detect.InputToState(b, ctx, ctx.constEval)
	if !ok || !ctx.groupMutable(its.Group) {
		return inconclusive
	}

	saved := ctx.saveScratch()
	its.Group.SetLE(scratch.tmpInput, its.Value)
	if !ctx.validGroup(its.Group) {
		ctx.restoreScratch(saved)
		return inconclusive
	}
	switch ctx.checkInput(pi, b) {
	case checkSat:
		return phaseSat
	case checkTimeout:
		ctx.restoreScratch(saved)
		return phaseTimeout
	}
	ctx.restoreScratch(saved)
	return inconclusive
}

// enumerateInterval walks candidate values of a group's interval. When
// the interval is wider than the brute-force cap only the endpoints are
// tried, and exhaustion then proves nothing.
func (ctx *Context) enumerateInterval(pi, b *ast.Node, g astinfo.Group, w interval.Wrapped, limit uint64) (phaseResult, bool) {
	if w.IsEmpty() {
		return inconclusive, true
	}
	saved := ctx.saveScratch()
	full := w.Range() <= limit

	try := func(v uint64) phaseResult {
		g.SetLE(scratch.tmpInput, v)
		if !ctx.validGroup(g) {
			ctx.restoreScratch(saved)
			return inconclusive
		}
		res := ctx.checkInput(pi, b)
		if res == checkSat {
			return phaseSat
		}
		ctx.restoreScratch(saved)
		if res == checkTimeout {
			return phaseTimeout
		}
		return inconclusive
	}

	if full {
		it := w.Values()
		for {
			v, more := it.Next()
			if !more {
				break
			}
			if res := try(v); res != inconclusive {
				return res, full
			}
		}
		return inconclusive, true
	}
	for _, v := range []uint64{w.Min, w.Max} {
		if res := try(v); res != inconclusive {
			return res, false
		}
	}
	return inconclusive, false
}

// phaseSimpleMath extracts an interval from B itself and enumerates it.
// A fully-enumerated interval with no hit is a local unsat: the
// interval covers every model B admits through that group.
func (ctx *Context) phaseSimpleMath(pi, b *ast.Node, _ *astinfo.Record) phaseResult {
	g, w, ok := ranges.Extract(b, ctx)
	if !ok || !ctx.groupMutable(g) {
		return inconclusive
	}
	res, full := ctx.enumerateInterval(pi, b, g, w, RangeMaxWidthBruteForce)
	if res == inconclusive && full {
		return phaseUnsat
	}
	return res
}

// phaseRangeBruteForce enumerates the accumulated interval when B
// touches exactly one group with a known range.
func (ctx *Context) phaseRangeBruteForce(pi, b *ast.Node, info *astinfo.Record) phaseResult {
	var g astinfo.Group
	var w interval.Wrapped
	found := 0
	for cand := range info.IndexGroups {
		if iv, ok := ctx.rstore.GroupInterval(cand); ok {
			g, w = cand, iv
			found++
		}
	}
	if found != 1 || !ctx.groupMutable(g) {
		return inconclusive
	}
	res, full := ctx.enumerateInterval(pi, b, g, w, RangeMaxWidthBruteForce)
	if res == inconclusive && full {
		return phaseUnsat
	}
	return res
}

// phaseRangeBruteForceOpt tries a slice of every known interval among
// the touched groups. Never declares unsat: coverage is partial by
// construction.
func (ctx *Context) phaseRangeBruteForceOpt(pi, b *ast.Node, info *astinfo.Record) phaseResult {
	const perGroup = RangeMaxWidthBruteForce / 4
	for _, g := range info.SortedGroups() {
		w, ok := ctx.rstore.GroupInterval(g)
		if !ok || !ctx.groupMutable(g) {
			continue
		}
		saved := ctx.saveScratch()
		it := w.Values()
		for n := uint64(0); n < perGroup; n++ {
			v, more := it.Next()
			if !more {
				break
			}
			g.SetLE(scratch.tmpInput, v)
			if !ctx.validGroup(g) {
				ctx.restoreScratch(saved)
				continue
			}
			switch ctx.checkInput(pi, b) {
			case checkSat:
				return phaseSat
			case checkTimeout:
				ctx.restoreScratch(saved)
				return phaseTimeout
			}
			ctx.restoreScratch(saved)
		}
	}
	return inconclusive
}

// phaseInputToStateExt replays every early constant through every
// touched group, in both endiannesses, plus the constants harvested
// from ITE conditions.
func (ctx *Context) phaseInputToStateExt(pi, b *ast.Node, info *astinfo.Record) phaseResult {
	groups := info.SortedGroups()
	saved := ctx.saveScratch()

	tryValue := func(g astinfo.Group, v uint64, be bool) phaseResult {
		if !ctx.groupMutable(g) {
			return inconclusive
		}
		if be {
			g.SetBE(scratch.tmpInput, v)
		} else {
			g.SetLE(scratch.tmpInput, v)
		}
		if !ctx.validGroup(g) {
			ctx.restoreScratch(saved)
			return inconclusive
		}
		res := ctx.checkInput(pi, b)
		if res == checkSat {
			return phaseSat
		}
		ctx.restoreScratch(saved)
		if res == checkTimeout {
			return phaseTimeout
		}
		return inconclusive
	}

	for _, v := range ctx.earlyConstants {
		for _, g := range groups {
			if res := tryValue(g, v, false); res != inconclusive {
				return res
			}
			if res := tryValue(g, v, true); res != inconclusive {
				return res
			}
		}
	}

	for _, pat := range info.InputToStateITE {
		if res := tryValue(pat.Group, pat.Val, false); res != inconclusive {
			return res
		}
		if res := tryValue(pat.Group, pat.Val, true); res != inconclusive {
			return res
		}
	}
	return inconclusive
}

// phaseSingleByteBruteForce exhausts the 256 values of a lone input
// byte. Exhaustion without a hit proves B has no model over that byte.
func (ctx *Context) phaseSingleByteBruteForce(pi, b *ast.Node, info *astinfo.Record) phaseResult {
	if len(info.Indexes) != 1 {
		return inconclusive
	}
	var index int
	for ix := range info.Indexes {
		index = ix
	}
	if !ctx.mutable(index) {
		return inconclusive
	}

	saved := ctx.saveScratch()
	for v := uint64(0); v < 256; v++ {
		scratch.tmpInput[index] = v
		if !ctx.validIndex(index) {
			ctx.restoreScratch(saved)
			continue
		}
		switch ctx.checkInput(pi, b) {
		case checkSat:
			return phaseSat
		case checkTimeout:
			ctx.restoreScratch(saved)
			return phaseTimeout
		}
		ctx.restoreScratch(saved)
	}
	return phaseUnsat
}
