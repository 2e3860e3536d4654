// Package ranges accumulates per-group wrapped intervals from the
// atomic constraints seen so far, and answers the valid-eval check the
// mutation phases run before spending an evaluation.
package ranges

import (
	"github.com/tliron/commonlog"

	"fuzzysat/internal/ast"
	"fuzzysat/internal/astinfo"
	"fuzzysat/internal/detect"
	"fuzzysat/internal/interval"
)

var log = commonlog.GetLogger("fuzzy.ranges")

// Store maps groups to their accumulated interval, with a byte-index
// side table so single-byte mutations can find every affected group.
type Store struct {
	byGroup map[astinfo.Group]interval.Wrapped
	byIndex map[int][]astinfo.Group
}

func NewStore() *Store {
	return &Store{
		byGroup: make(map[astinfo.Group]interval.Wrapped),
		byIndex: make(map[int][]astinfo.Group),
	}
}

// UpdateConstraint folds an atomic comparison into the store. It
// recognises `cmp(group_expr, const)` where group_expr is a pure group
// optionally wrapped in add/sub-constant and negation, in either
// operand order and under a leading not. Returns true when a group
// interval was created or tightened.
func (s *Store) UpdateConstraint(n *ast.Node, r detect.Resolver) bool {
	g, w, ok := Extract(n, r)
	if !ok || w.IsEmpty() {
		return false
	}

	if prev, seen := s.byGroup[g]; seen {
		next := prev.Intersect(w)
		if next.IsEmpty() {
			log.Debugf("constraint empties interval of %s; keeping previous", g)
			return false
		}
		s.byGroup[g] = next
		return true
	}
	s.byGroup[g] = w
	for _, ix := range g.Indices() {
		s.byIndex[ix] = append(s.byIndex[ix], g)
	}
	return true
}

// Extract recognises `cmp(group_expr, const)` — group_expr a pure
// group under optional add/sub-constant, negation, and zero-extension,
// the comparison possibly under a leading not and in either operand
// order — and returns the group with its solution interval widened (or
// narrowed) to the group's width.
func Extract(n *ast.Node, r detect.Resolver) (astinfo.Group, interval.Wrapped, bool) {
	op := n
	negated := false
	for op.Kind == ast.NOT {
		op = op.Args[0]
		negated = !negated
	}
	if !ast.IsCmp(op.Kind) {
		return astinfo.Group{}, interval.Wrapped{}, false
	}
	kind := op.Kind
	if negated {
		kind = ast.NegateCmp(kind)
	}
	if kind == ast.NE {
		// a disequality prunes one point; not worth an interval
		return astinfo.Group{}, interval.Wrapped{}, false
	}

	lhs, rhs := op.Args[0], op.Args[1]
	if rhs.Kind != ast.CONST {
		if lhs.Kind != ast.CONST {
			return astinfo.Group{}, interval.Wrapped{}, false
		}
		lhs, rhs = rhs, lhs
		kind = ast.SwapCmp(kind)
	}
	c := rhs.Val
	cmpSize := lhs.Size

	g, addC, subC, inverted, ok := peelGroupExpr(lhs, r)
	if !ok {
		return astinfo.Group{}, interval.Wrapped{}, false
	}

	w := interval.FromCmp(c, kind, cmpSize)
	w = w.SubK(addC).AddK(subC)
	if inverted {
		w = w.Invert()
	}

	bits := g.Bits()
	switch {
	case w.Size < bits:
		w = w.WidenTo(bits)
	case w.Size > bits:
		w = narrowTo(w, bits)
	}
	return g, w, true
}

// peelGroupExpr strips add/sub constants, negation, and zero-extension
// off an expression until a pure (non-approximated) group remains.
func peelGroupExpr(n *ast.Node, r detect.Resolver) (g astinfo.Group, addC, subC uint64, inverted, ok bool) {
	for {
		switch n.Kind {
		case ast.BVADD:
			if n.Args[1].Kind == ast.CONST {
				addC += n.Args[1].Val
				n = n.Args[0]
				continue
			}
			if n.Args[0].Kind == ast.CONST {
				addC += n.Args[0].Val
				n = n.Args[1]
				continue
			}
		case ast.BVSUB:
			if n.Args[1].Kind == ast.CONST {
				subC += n.Args[1].Val
				n = n.Args[0]
				continue
			}
		case ast.BVNEG:
			inverted = !inverted
			n = n.Args[0]
			continue
		case ast.ZEXT:
			n = n.Args[0]
			continue
		}
		break
	}
	g, approx, found := detect.Group(n, r)
	if !found || approx {
		return astinfo.Group{}, 0, 0, false, false
	}
	return g, addC, subC, inverted, true
}

// narrowTo reinterprets a wide interval at a smaller group width,
// keeping only the part representable in that width.
func narrowTo(w interval.Wrapped, bits uint32) interval.Wrapped {
	domain := interval.Wrapped{Min: 0, Max: 1<<bits - 1, Size: w.Size}
	clipped := w.Intersect(domain)
	if clipped.IsEmpty() {
		return interval.Empty(bits)
	}
	out := interval.Wrapped{Min: clipped.Min, Max: clipped.Max, Size: bits, Signed: clipped.Signed}
	return out
}

// GroupInterval returns the stored interval for g, if any.
func (s *Store) GroupInterval(g astinfo.Group) (interval.Wrapped, bool) {
	w, ok := s.byGroup[g]
	return w, ok
}

// GroupsAt returns the known groups containing the byte index.
func (s *Store) GroupsAt(index int) []astinfo.Group {
	return s.byIndex[index]
}

// ValidEval reports whether, under the candidate bytes, every stored
// interval referenced by any byte of g still contains its group's
// value. Mutation phases call this before paying for an evaluation.
func (s *Store) ValidEval(g astinfo.Group, buf []uint64) bool {
	for _, ix := range g.Indices() {
		if !s.ValidEvalIndex(ix, buf) {
			return false
		}
	}
	return true
}

// ValidEvalIndex is ValidEval for a single mutated byte.
func (s *Store) ValidEvalIndex(index int, buf []uint64) bool {
	for _, g := range s.byIndex[index] {
		w := s.byGroup[g]
		if !w.Contains(g.ValueLE(buf)) {
			return false
		}
	}
	return true
}

// Len returns the number of tracked groups.
func (s *Store) Len() int { return len(s.byGroup) }
