package solver

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"fuzzysat/internal/ast"
)

type checkResult int

const (
	// checkFalse: the branch condition is false at this point (or the
	// point was already evaluated and skipped).
	checkFalse checkResult = iota
	// checkOnlyB: B holds but the path condition does not; the point
	// was recorded as an optimistic candidate.
	checkOnlyB
	// checkSat: both B and the path condition hold; proof captured.
	checkSat
	// checkTimeout: the query deadline passed.
	checkTimeout
)

// checkInput submits the current scratch input to the evaluator: B
// first, and the path condition only when B held. The deadline is
// polled with the historical `++i & 16` pattern, so it is consulted in
// asymmetric bursts of sixteen.
func (ctx *Context) checkInput(pi, b *ast.Node) checkResult {
	ctx.evalCount++
	if ctx.evalCount&16 != 0 && ctx.timer.Expired() {
		return checkTimeout
	}

	if ctx.cfg.CheckUnnecessaryEval {
		d := digestInput(scratch.tmpInput[:ctx.maxSlot])
		if _, seen := ctx.digests[d]; seen {
			ctx.stats.SkippedEvals++
			return checkFalse
		}
		ctx.digests[d] = struct{}{}
	}

	sizes := ctx.seed().Sizes
	ctx.refreshAssignments(scratch.tmpInput[:ctx.maxSlot], sizes)

	vB, depth := ctx.eval(b, scratch.tmpInput[:ctx.maxSlot], sizes)
	ctx.stats.Evaluations++
	if vB == 0 {
		return checkFalse
	}

	ctx.sawBranchSat = true
	ctx.lastBInput = append(ctx.lastBInput[:0], scratch.tmpInput[:ctx.maxSlot]...)
	ctx.recordOptimistic(depth)

	if pi != nil {
		vPi, _ := ctx.eval(pi, scratch.tmpInput[:ctx.maxSlot], sizes)
		ctx.stats.Evaluations++
		if vPi == 0 {
			return checkOnlyB
		}
	}

	ctx.proof = append(ctx.proof[:0], scratch.tmpInput[:ctx.maxSlot]...)
	return checkSat
}

// recordOptimistic keeps the best assignment that satisfied B. More
// satisfied clauses win; among equals, the evaluator's depth signal
// breaks ties toward the shallower witness.
func (ctx *Context) recordOptimistic(depth uint32) {
	better := !ctx.opt.found ||
		ctx.curNumSat > ctx.opt.numSat ||
		(ctx.curNumSat == ctx.opt.numSat && depth < ctx.opt.depth)
	if !better {
		return
	}
	ctx.opt.found = true
	ctx.opt.numSat = ctx.curNumSat
	ctx.opt.depth = depth
	ctx.opt.input = append(ctx.opt.input[:0], scratch.tmpInput[:ctx.maxSlot]...)
	copy(scratch.tmpOptInput, scratch.tmpInput[:ctx.maxSlot])
}

func digestInput(buf []uint64) uint64 {
	d := xxhash.New()
	var b [8]byte
	for _, v := range buf {
		binary.LittleEndian.PutUint64(b[:], v)
		d.Write(b[:])
	}
	return d.Sum64()
}
