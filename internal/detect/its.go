package detect

import (
	"fuzzysat/internal/ast"
	"fuzzysat/internal/astinfo"
)

// ITS is an input-to-state classification of a comparison: one side is
// exactly a (non-approximated) input group, the other a constant known
// at solve time. Value is already adjusted to the satisfying side of
// strict comparisons, so writing it into the group makes the comparison
// hold.
type ITS struct {
	Group astinfo.Group
	Value uint64
	Op    ast.Kind
}

// ConstEval resolves the value of an input-free expression under the
// current assignment; ok is false when the expression touches inputs.
type ConstEval func(n *ast.Node) (val uint64, ok bool)

// InputToState classifies n. It strips one leading not, unwraps one
// level of or/and when all but one operand is input-free, and matches
// cmp(group, const) in either operand order.
func InputToState(n *ast.Node, r Resolver, ce ConstEval) (ITS, bool) {
	op := n
	negated := false
	if op.Kind == ast.NOT {
		op = op.Args[0]
		negated = true
	}

	if op.Kind == ast.OR || op.Kind == ast.AND {
		var live *ast.Node
		for _, a := range op.Args {
			if _, inputFree := ce(a); inputFree {
				continue
			}
			if live != nil {
				return ITS{}, false
			}
			live = a
		}
		if live == nil {
			return ITS{}, false
		}
		op = live
		if op.Kind == ast.NOT {
			op = op.Args[0]
			negated = !negated
		}
	}

	if !ast.IsCmp(op.Kind) {
		return ITS{}, false
	}
	kind := op.Kind
	if negated {
		kind = ast.NegateCmp(kind)
	}

	lhs, rhs := op.Args[0], op.Args[1]
	g, approx, ok := Group(lhs, r)
	if !ok || approx {
		if g, approx, ok = Group(rhs, r); !ok || approx {
			return ITS{}, false
		}
		lhs, rhs = rhs, lhs
		kind = ast.SwapCmp(kind)
	}

	c, ok := ce(rhs)
	if !ok {
		return ITS{}, false
	}
	width := g.Bits()
	if rhs.Size > width && !fitsWidth(c, width) {
		return ITS{}, false
	}

	val, ok := adjustToSat(c, kind, width)
	if !ok {
		return ITS{}, false
	}
	return ITS{Group: g, Value: val, Op: kind}, true
}

func fitsWidth(c uint64, width uint32) bool {
	if width >= 64 {
		return true
	}
	return c>>width == 0
}

// adjustToSat nudges the constant onto the satisfying side of the
// comparison: strict orders step by one, disequality steps off the
// point, non-strict orders and equality inject the constant as is.
func adjustToSat(c uint64, op ast.Kind, width uint32) (uint64, bool) {
	m := uint64(1)<<width - 1
	if width >= 64 {
		m = ^uint64(0)
	}
	c &= m
	smin := uint64(1) << (width - 1)
	smax := smin - 1

	switch op {
	case ast.EQ, ast.ULE, ast.UGE, ast.SLE, ast.SGE:
		return c, true
	case ast.NE:
		return (c + 1) & m, true
	case ast.ULT:
		if c == 0 {
			return 0, false
		}
		return c - 1, true
	case ast.UGT:
		if c == m {
			return 0, false
		}
		return c + 1, true
	case ast.SLT:
		if c == smin {
			return 0, false
		}
		return (c - 1) & m, true
	case ast.SGT:
		if c == smax {
			return 0, false
		}
		return (c + 1) & m, true
	}
	return 0, false
}
