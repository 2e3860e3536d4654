// Package detect contains the pure AST walkers of the solver: index
// group recognition, input-to-state classification, and the involved
// inputs analysis that populates astinfo records.
package detect

import (
	"math/bits"

	"fuzzysat/internal/ast"
	"fuzzysat/internal/astinfo"
)

// Resolver lets detection dereference assignment symbols: indices at or
// above NumInputs refer to assignment ASTs rather than raw input bytes.
type Resolver interface {
	NumInputs() int
	Assignment(index int) *ast.Node
}

// Group tries to recognise n as a contiguous multi-byte view of the
// symbolic input. approx is set when the view does not fall exactly on
// byte boundaries; such groups are still mutated but excluded from
// strict input-to-state handling.
func Group(n *ast.Node, r Resolver) (g astinfo.Group, approx bool, ok bool) {
	switch n.Kind {
	case ast.SYM:
		if n.Sym >= r.NumInputs() {
			a := r.Assignment(n.Sym)
			if a == nil {
				return astinfo.Group{}, false, false
			}
			return Group(a, r)
		}
		return astinfo.NewGroup(n.Sym), false, true

	case ast.CONCAT:
		return concatGroup(n, r)

	case ast.EXTRACT:
		return extractGroup(n, r)

	case ast.BVAND:
		return maskGroup(n, r)

	case ast.BVOR, ast.BVADD:
		return shiftedByteGroup(n, r)
	}
	return astinfo.Group{}, false, false
}

// concatGroup joins the sub-groups of a concat chain, most significant
// first. Constants at the ends of the chain are dropped with the approx
// flag; a constant between two input children rejects the whole group.
func concatGroup(n *ast.Node, r Resolver) (astinfo.Group, bool, bool) {
	leaves := flattenConcat(n, nil)

	firstInput, lastInput := -1, -1
	for i, leaf := range leaves {
		if leaf.Kind != ast.CONST {
			if firstInput < 0 {
				firstInput = i
			}
			lastInput = i
		}
	}
	if firstInput < 0 {
		return astinfo.Group{}, false, false
	}

	approx := firstInput > 0 || lastInput < len(leaves)-1
	var indices []int
	for i := firstInput; i <= lastInput; i++ {
		leaf := leaves[i]
		if leaf.Kind == ast.CONST {
			return astinfo.Group{}, false, false
		}
		sub, subApprox, ok := Group(leaf, r)
		if !ok {
			return astinfo.Group{}, false, false
		}
		approx = approx || subApprox
		indices = append(indices, sub.Indices()...)
		if len(indices) > astinfo.MaxGroupSize {
			return astinfo.Group{}, false, false
		}
	}
	return astinfo.NewGroup(indices...), approx, true
}

func flattenConcat(n *ast.Node, out []*ast.Node) []*ast.Node {
	if n.Kind != ast.CONCAT {
		return append(out, n)
	}
	out = flattenConcat(n.Args[0], out)
	return flattenConcat(n.Args[1], out)
}

// extractGroup maps bit bounds to the child group's byte range. The
// approx flag mirrors the historical condition `lig % 8 != 0 ||
// hig + 1 % 8 != 0`, which the precedence of % turns into "the high bit
// is not bit 7"; it therefore fires on nearly every extract.
func extractGroup(n *ast.Node, r Resolver) (astinfo.Group, bool, bool) {
	child, childApprox, ok := Group(n.Args[0], r)
	if !ok {
		return astinfo.Group{}, false, false
	}
	loByte := int(n.Low) / 8
	hiByte := int(n.High) / 8
	if hiByte >= child.Len() {
		return astinfo.Group{}, false, false
	}
	approx := childApprox || int(n.Low)%8 != 0 || n.High != 7

	// Byte k of the value (k=0 least significant) is the group's
	// (len-1-k)-th listed index.
	var indices []int
	for b := hiByte; b >= loByte; b-- {
		indices = append(indices, child.Index(child.Len()-1-b))
	}
	return astinfo.NewGroup(indices...), approx, true
}

// maskGroup recognises bvand with a constant mask as a byte-range
// selection over the child group.
func maskGroup(n *ast.Node, r Resolver) (astinfo.Group, bool, bool) {
	var expr, maskNode *ast.Node
	switch {
	case n.Args[1].Kind == ast.CONST:
		expr, maskNode = n.Args[0], n.Args[1]
	case n.Args[0].Kind == ast.CONST:
		expr, maskNode = n.Args[1], n.Args[0]
	default:
		return astinfo.Group{}, false, false
	}
	mask := maskNode.Val
	if mask == 0 {
		return astinfo.Group{}, false, false
	}

	child, childApprox, ok := Group(expr, r)
	if !ok {
		return astinfo.Group{}, false, false
	}

	rsb := bits.TrailingZeros64(mask)
	lsb := 63 - bits.LeadingZeros64(mask)
	loByte := rsb / 8
	hiByte := lsb / 8
	if hiByte >= child.Len() {
		return astinfo.Group{}, false, false
	}

	span := uint64(0)
	if lsb == 63 {
		span = ^uint64(0) << rsb
	} else {
		span = (uint64(1)<<(lsb+1) - 1) &^ (uint64(1)<<rsb - 1)
	}
	approx := childApprox || rsb%8 != 0 || (lsb+1)%8 != 0 || mask != span

	var indices []int
	for b := hiByte; b >= loByte; b-- {
		indices = append(indices, child.Index(child.Len()-1-b))
	}
	return astinfo.NewGroup(indices...), approx, true
}

// shiftedByteGroup assembles a group from `bvor`/`bvadd` chains of
// single bytes shifted to byte positions, the pattern compilers emit
// for little-endian loads. Overlapping or missing positions reject.
func shiftedByteGroup(n *ast.Node, r Resolver) (astinfo.Group, bool, bool) {
	terms := flattenChain(n, n.Kind, nil)
	byPos := make(map[int]int) // byte position -> input index
	maxPos := -1
	approx := false

	for _, term := range terms {
		shift := uint64(0)
		inner := term
		if inner.Kind == ast.BVSHL && inner.Args[1].Kind == ast.CONST {
			shift = inner.Args[1].Val
			inner = inner.Args[0]
		}
		if shift%8 != 0 {
			return astinfo.Group{}, false, false
		}
		if inner.Kind == ast.ZEXT {
			inner = inner.Args[0]
		}
		sub, subApprox, ok := Group(inner, r)
		if !ok || sub.Len() != 1 {
			return astinfo.Group{}, false, false
		}
		approx = approx || subApprox
		pos := int(shift) / 8
		if _, dup := byPos[pos]; dup {
			return astinfo.Group{}, false, false
		}
		byPos[pos] = sub.Index(0)
		if pos > maxPos {
			maxPos = pos
		}
	}
	if maxPos < 0 || maxPos+1 > astinfo.MaxGroupSize || len(byPos) != maxPos+1 {
		return astinfo.Group{}, false, false
	}

	indices := make([]int, 0, maxPos+1)
	for pos := maxPos; pos >= 0; pos-- {
		indices = append(indices, byPos[pos])
	}
	return astinfo.NewGroup(indices...), approx, true
}

func flattenChain(n *ast.Node, k ast.Kind, out []*ast.Node) []*ast.Node {
	if n.Kind != k {
		return append(out, n)
	}
	for _, a := range n.Args {
		out = flattenChain(a, k, out)
	}
	return out
}
