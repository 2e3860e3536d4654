package solver

import (
	"fuzzysat/internal/ast"
	"fuzzysat/internal/astinfo"
)

// FindAllAction is the callback's verdict after each reported value.
type FindAllAction int

const (
	// FindAllContinue keeps enumerating and reporting.
	FindAllContinue FindAllAction = iota
	// FindAllStop ends the enumeration immediately.
	FindAllStop
	// FindAllLast keeps evaluating for coverage but stops reporting.
	FindAllLast
)

// FindAllCallback receives each distinct value of the expression (with
// a witness proof satisfying the path condition).
type FindAllCallback func(proof []byte, value uint64) FindAllAction

// FindAllValues enumerates distinct values the expression takes under
// the path condition, by interval walking, single-byte exhaustion, and
// greedy neighbourhood exploration around the seed.
func (ctx *Context) FindAllValues(expr, pi *ast.Node, cb FindAllCallback) {
	ctx.resetQuery()
	ctx.timer.Start(ctx.queryTimeout)
	copy(scratch.tmpInput, ctx.seed().Values)

	info := ctx.queryInfo(expr)
	seen := make(map[uint64]struct{})
	reporting := true
	stopped := false

	report := func() {
		if stopped {
			return
		}
		sizes := ctx.seed().Sizes
		ctx.refreshAssignments(scratch.tmpInput[:ctx.maxSlot], sizes)
		ctx.stats.Evaluations++
		if pi != nil {
			ok, _ := ctx.eval(pi, scratch.tmpInput[:ctx.maxSlot], sizes)
			if ok == 0 {
				return
			}
		}
		v, _ := ctx.eval(expr, scratch.tmpInput[:ctx.maxSlot], sizes)
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		if !reporting {
			return
		}
		switch cb(ctx.proofBytes(scratch.tmpInput[:ctx.maxSlot]), v) {
		case FindAllStop:
			stopped = true
		case FindAllLast:
			reporting = false
		}
	}

	saved := ctx.saveScratch()
	for _, g := range info.SortedGroups() {
		if stopped {
			break
		}
		if !ctx.groupMutable(g) {
			continue
		}
		ctx.exploreGroup(g, report, saved)
	}

	// loose bytes outside any group still get the single-byte walk
	covered := make(map[int]struct{})
	for g := range info.IndexGroups {
		for _, ix := range g.Indices() {
			covered[ix] = struct{}{}
		}
	}
	for _, ix := range info.SortedIndexes() {
		if stopped {
			break
		}
		if _, inGroup := covered[ix]; inGroup || !ctx.mutable(ix) {
			continue
		}
		for v := uint64(0); v < 256 && !stopped; v++ {
			scratch.tmpInput[ix] = v
			report()
		}
		ctx.restoreScratch(saved)
	}
}

// exploreGroup picks the candidate set for one group: its accumulated
// interval when small, exhaustion for single bytes, otherwise a greedy
// neighbourhood of the seed value plus the two extremes.
func (ctx *Context) exploreGroup(g astinfo.Group, report func(), saved []uint64) {
	const greedySteps = 5

	if w, ok := ctx.rstore.GroupInterval(g); ok && w.Range() <= 256 {
		it := w.Values()
		for {
			v, more := it.Next()
			if !more {
				break
			}
			g.SetLE(scratch.tmpInput, v)
			report()
		}
		ctx.restoreScratch(saved)
		return
	}

	if g.Len() == 1 {
		for v := uint64(0); v < 256; v++ {
			g.SetLE(scratch.tmpInput, v)
			report()
		}
		ctx.restoreScratch(saved)
		return
	}

	mask := unitMask(g.Bits())
	base := g.ValueLE(scratch.tmpInput)
	for k := uint64(1); k <= greedySteps; k++ {
		g.SetLE(scratch.tmpInput, (base+k)&mask)
		report()
		g.SetLE(scratch.tmpInput, (base-k)&mask)
		report()
	}
	ctx.restoreScratch(saved)

	// per-byte wiggle inside the group
	for i := 0; i < g.Len(); i++ {
		ix := g.Index(i)
		byteBase := scratch.tmpInput[ix]
		for k := uint64(1); k <= greedySteps; k++ {
			scratch.tmpInput[ix] = (byteBase + k) & 0xff
			report()
			scratch.tmpInput[ix] = (byteBase - k) & 0xff
			report()
		}
		ctx.restoreScratch(saved)
	}

	// the two extremes
	g.SetLE(scratch.tmpInput, 0)
	report()
	g.SetLE(scratch.tmpInput, mask)
	report()
	ctx.restoreScratch(saved)
}
