package solver

import (
	"fuzzysat/internal/ast"
	"fuzzysat/internal/astinfo"
)

// Interesting-value tables, the classic deterministic dictionary.
var (
	interesting8 = []uint64{
		0x80, 0xff, 0, 1, 16, 32, 64, 100, 127,
	}
	interesting16 = []uint64{
		0x8000, 0xff7f, 128, 255, 256, 512, 1000, 1024, 4096, 32767,
	}
	interesting32 = []uint64{
		0x80000000, 0xfa0000fa, 0xffff7fff, 32768, 65535, 65536, 100663045, 2147483647,
	}
	interesting64 = []uint64{
		0x8000000000000000, 0xffffffff7fffffff, 4294967295, 4294967296,
		9223372036854775807,
	}
)

// detUnits lists the mutation units of the deterministic phase: the
// detected groups under the grouped policy, bare bytes otherwise.
// Bytes not covered by any group are walked either way.
func (ctx *Context) detUnits(info *astinfo.Record) []astinfo.Group {
	var units []astinfo.Group
	covered := make(map[int]struct{})
	if ctx.cfg.Det == DetGrouped {
		for _, g := range info.SortedGroups() {
			if !ctx.groupMutable(g) {
				continue
			}
			switch g.Len() {
			case 1, 2, 4, 8:
				units = append(units, g)
				for _, ix := range g.Indices() {
					covered[ix] = struct{}{}
				}
			}
		}
	}
	for _, ix := range info.SortedIndexes() {
		if _, inGroup := covered[ix]; !inGroup && ctx.mutable(ix) {
			units = append(units, astinfo.NewGroup(ix))
		}
	}
	return units
}

// tryUnit writes one candidate value into a unit (little- or
// big-endian), validates it against the range store, and evaluates.
func (ctx *Context) tryUnit(pi, b *ast.Node, g astinfo.Group, v uint64, be bool, saved []uint64) phaseResult {
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

// phaseAflDeterministic applies the walking-bit, flip, arithmetic and
// interesting-value dictionaries to every unit.
func (ctx *Context) phaseAflDeterministic(pi, b *ast.Node, info *astinfo.Record) phaseResult {
	cfg := ctx.cfg
	saved := ctx.saveScratch()

	for _, g := range ctx.detUnits(info) {
		bits := g.Bits()
		mask := unitMask(bits)
		base := g.ValueLE(scratch.tmpInput)

		// walking bit flips
		walks := []struct {
			skip bool
			span uint32
		}{
			{cfg.SkipSingleWalkingBit, 1},
			{cfg.SkipTwoWalkingBit, 2},
			{cfg.SkipFourWalkingBit, 4},
		}
		for _, wk := range walks {
			if wk.skip {
				continue
			}
			for pos := uint32(0); pos+wk.span <= bits; pos++ {
				flip := (unitMask(wk.span)) << pos
				if res := ctx.tryUnit(pi, b, g, base^flip, false, saved); res != inconclusive {
					return res
				}
			}
		}

		// byte and word flips
		if !cfg.SkipByteFlip {
			for by := uint32(0); by < bits/8; by++ {
				if res := ctx.tryUnit(pi, b, g, base^(0xff<<(by*8)), false, saved); res != inconclusive {
					return res
				}
			}
		}
		flips := []struct {
			skip bool
			span uint32
		}{
			{cfg.SkipFlipShort, 16},
			{cfg.SkipFlipInt, 32},
			{cfg.SkipFlipLong, 64},
		}
		for _, fl := range flips {
			if fl.skip || bits < fl.span {
				continue
			}
			for pos := uint32(0); pos+fl.span <= bits; pos += 8 {
				if res := ctx.tryUnit(pi, b, g, base^(unitMask(fl.span)<<pos), false, saved); res != inconclusive {
					return res
				}
			}
		}

		// +/- k arithmetic, both endiannesses
		ariths := []struct {
			skip bool
			span uint32
		}{
			{cfg.SkipArith8, 8},
			{cfg.SkipArith16, 16},
			{cfg.SkipArith32, 32},
			{cfg.SkipArith64, 64},
		}
		for _, ar := range ariths {
			if ar.skip || bits != ar.span {
				continue
			}
			beBase := g.ValueBE(scratch.tmpInput)
			for k := uint64(1); k < 35; k++ {
				for _, v := range []uint64{base + k, base - k} {
					if res := ctx.tryUnit(pi, b, g, v&mask, false, saved); res != inconclusive {
						return res
					}
				}
				if bits > 8 {
					for _, v := range []uint64{beBase + k, beBase - k} {
						if res := ctx.tryUnit(pi, b, g, v&mask, true, saved); res != inconclusive {
							return res
						}
					}
				}
			}
		}

		// interesting values; note the int64 table reuses the int32
		// guard, faithfully
		ints := []struct {
			skip bool
			span uint32
			vals []uint64
		}{
			{cfg.SkipInt8, 8, interesting8},
			{cfg.SkipInt16, 16, interesting16},
			{cfg.SkipInt32, 32, interesting32},
			{cfg.SkipInt32, 64, interesting64},
		}
		for _, in := range ints {
			if in.skip || bits != in.span {
				continue
			}
			for _, v := range in.vals {
				if res := ctx.tryUnit(pi, b, g, v&mask, false, saved); res != inconclusive {
					return res
				}
				if bits > 8 {
					if res := ctx.tryUnit(pi, b, g, v&mask, true, saved); res != inconclusive {
						return res
					}
				}
			}
		}
	}
	return inconclusive
}

func unitMask(bits uint32) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (1 << bits) - 1
}
