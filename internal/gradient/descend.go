// Package gradient implements the numeric descent loop the solver's
// gradient phase and the min/max services drive. The objective is a
// black box from machine-word vectors to u64; the loop estimates
// per-dimension slopes by finite differences and line-searches along
// improving directions with doubling steps.
package gradient

import "errors"

// ErrTimeout is returned by objectives that ran out of budget; the
// descent propagates it unchanged.
var ErrTimeout = errors.New("gradient: objective timed out")

// Objective evaluates the function being minimised at a point. A zero
// result means the underlying predicate is satisfied.
type Objective func(point []uint64) (uint64, error)

// Result classifies how a descent ended.
type Result int

const (
	// LocalMinimum: no single-dimension move improves the objective.
	LocalMinimum Result = iota
	// FoundZero: the objective reached 0, the satisfying case.
	FoundZero
	// Exhausted: the epoch budget ran out while still improving.
	Exhausted
)

// maxEpochs bounds full sweeps over the dimensions; descents that keep
// improving past this are making progress too slowly to be worth it.
const maxEpochs = 100

func dimMask(width uint32) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (1 << width) - 1
}

// Minimize descends from pt, mutating it toward lower objective values.
// widths gives the modular width of each dimension. On return pt holds
// the best point found; the best value is returned alongside the
// classification. A timeout error from the objective aborts with the
// best point so far kept in pt.
func Minimize(pt []uint64, widths []uint32, f Objective) (Result, uint64, error) {
	if len(pt) != len(widths) {
		panic("gradient: point and width vectors disagree")
	}
	best, err := f(pt)
	if err != nil {
		return LocalMinimum, 0, err
	}
	if best == 0 {
		return FoundZero, 0, nil
	}

	trial := make([]uint64, len(pt))
	for epoch := 0; epoch < maxEpochs; epoch++ {
		improved := false
		for i := range pt {
			m := dimMask(widths[i])
			for _, dir := range [2]uint64{1, ^uint64(0)} { // +1 and -1
				copy(trial, pt)
				trial[i] = (pt[i] + dir) & m
				v, err := f(trial)
				if err != nil {
					return LocalMinimum, best, err
				}
				if v >= best {
					continue
				}
				// Improving direction: line search with doubling steps.
				best = v
				copy(pt, trial)
				improved = true
				if best == 0 {
					return FoundZero, 0, nil
				}
				step := uint64(2)
				for {
					copy(trial, pt)
					trial[i] = (trial[i] + dir*step) & m
					v, err = f(trial)
					if err != nil {
						return LocalMinimum, best, err
					}
					if v >= best {
						break
					}
					best = v
					copy(pt, trial)
					if best == 0 {
						return FoundZero, 0, nil
					}
					step <<= 1
					if step == 0 {
						break
					}
				}
				break // next dimension; the following epoch re-estimates from here
			}
		}
		if !improved {
			return LocalMinimum, best, nil
		}
	}
	return Exhausted, best, nil
}
