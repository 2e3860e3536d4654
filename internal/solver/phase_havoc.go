package solver

import (
	"fuzzysat/internal/ast"
	"fuzzysat/internal/astinfo"
)

// havocPool is the mutation repertoire; entries are picked uniformly
// per stack slot.
const (
	havocBitFlip = iota
	havocByteSet
	havocByteAdd
	havocByteInteresting
	havocGroupSet
	havocGroupAdd
	havocGroupInteresting
	havocOps
)

// phaseHavoc applies stacks of random mutations, AFL-style. The
// iteration budget scales with how many bytes the branch condition
// touches; each iteration draws a stack of 2^(1..8) mutations and pays
// one evaluation.
func (ctx *Context) phaseHavoc(pi, b *ast.Node, info *astinfo.Record) phaseResult {
	indexes := ctx.havocIndexes(info)
	if len(indexes) == 0 {
		return inconclusive
	}
	var groups []astinfo.Group
	for _, g := range info.SortedGroups() {
		if g.Len() > 1 && ctx.groupMutable(g) {
			groups = append(groups, g)
		}
	}

	score := len(info.Indexes) * HavocC
	saved := ctx.saveScratch()

	for iter := 0; iter < score; iter++ {
		stack := 1 << (1 + ctx.rng.Intn(HavocStackPow2+1))
		touched := make(map[int]struct{})
		for s := 0; s < stack; s++ {
			op := ctx.rng.Intn(havocOps)
			if len(groups) == 0 && op >= havocGroupSet {
				op = ctx.rng.Intn(havocGroupSet)
			}
			switch op {
			case havocBitFlip:
				ix := indexes[ctx.rng.Intn(len(indexes))]
				scratch.tmpInput[ix] ^= 1 << uint(ctx.rng.Intn(8))
				touched[ix] = struct{}{}
			case havocByteSet:
				ix := indexes[ctx.rng.Intn(len(indexes))]
				scratch.tmpInput[ix] = uint64(ctx.rng.Intn(256))
				touched[ix] = struct{}{}
			case havocByteAdd:
				ix := indexes[ctx.rng.Intn(len(indexes))]
				delta := uint64(1 + ctx.rng.Intn(35))
				if ctx.rng.Intn(2) == 0 {
					delta = -delta
				}
				scratch.tmpInput[ix] = (scratch.tmpInput[ix] + delta) & 0xff
				touched[ix] = struct{}{}
			case havocByteInteresting:
				ix := indexes[ctx.rng.Intn(len(indexes))]
				scratch.tmpInput[ix] = interesting8[ctx.rng.Intn(len(interesting8))] & 0xff
				touched[ix] = struct{}{}
			case havocGroupSet, havocGroupAdd, havocGroupInteresting:
				g := groups[ctx.rng.Intn(len(groups))]
				mask := unitMask(g.Bits())
				var v uint64
				switch op {
				case havocGroupSet:
					v = ctx.rng.Uint64() & mask
				case havocGroupAdd:
					delta := uint64(1 + ctx.rng.Intn(35))
					if ctx.rng.Intn(2) == 0 {
						delta = -delta
					}
					v = (g.ValueLE(scratch.tmpInput) + delta) & mask
				default:
					v = interestingFor(g.Bits(), ctx.rng) & mask
				}
				if ctx.rng.Intn(2) == 0 {
					g.SetLE(scratch.tmpInput, v)
				} else {
					g.SetBE(scratch.tmpInput, v)
				}
				for _, ix := range g.Indices() {
					touched[ix] = struct{}{}
				}
			}
		}

		valid := true
		for ix := range touched {
			if !ctx.validIndex(ix) {
				valid = false
				break
			}
		}
		if valid {
			switch ctx.checkInput(pi, b) {
			case checkSat:
				return phaseSat
			case checkTimeout:
				ctx.restoreScratch(saved)
				return phaseTimeout
			}
		}
		ctx.restoreScratch(saved)
	}
	return inconclusive
}

// havocIndexes returns the mutable byte pool; the whole-input policy
// widens it past the bytes B touches.
func (ctx *Context) havocIndexes(info *astinfo.Record) []int {
	var out []int
	if ctx.cfg.Havoc == HavocWholeInput {
		for ix := 0; ix < ctx.inputs; ix++ {
			if ctx.mutable(ix) {
				out = append(out, ix)
			}
		}
		return out
	}
	for _, ix := range info.SortedIndexes() {
		if ctx.mutable(ix) {
			out = append(out, ix)
		}
	}
	return out
}

func interestingFor(bits uint32, rng *Rng) uint64 {
	switch bits {
	case 16:
		return interesting16[rng.Intn(len(interesting16))]
	case 32:
		return interesting32[rng.Intn(len(interesting32))]
	case 64:
		return interesting64[rng.Intn(len(interesting64))]
	default:
		return interesting8[rng.Intn(len(interesting8))]
	}
}
