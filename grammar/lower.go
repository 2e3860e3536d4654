package grammar

import (
	"fmt"
	"strconv"
	"strings"

	"fuzzysat/internal/ast"
)

// Lower converts the parsed query into solver inputs: the seed bytes,
// the assumed path constraints, and the branch condition.
func (q *Query) Lower() (seed []byte, assumes []*ast.Node, solve *ast.Node, err error) {
	seed = make([]byte, q.Input)
	if q.Seed != nil {
		if seed, err = parseSeed(*q.Seed, q.Input); err != nil {
			return nil, nil, nil, err
		}
	}
	for _, a := range q.Assumes {
		n, err := LowerExpr(a, q.Input)
		if err != nil {
			return nil, nil, nil, err
		}
		assumes = append(assumes, n)
	}
	solve, err = LowerExpr(q.Solve, q.Input)
	if err != nil {
		return nil, nil, nil, err
	}
	return seed, assumes, solve, nil
}

func parseSeed(quoted string, want int) ([]byte, error) {
	body := strings.Trim(quoted, `"`)
	fields := strings.Fields(body)
	if len(fields) != want {
		return nil, fmt.Errorf("seed has %d bytes, input declares %d", len(fields), want)
	}
	out := make([]byte, want)
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("bad seed byte %q: %w", f, err)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// LowerExpr builds the AST of one s-expression. Input atoms bN must
// fall inside the declared input length.
func LowerExpr(e *SExpr, inputs int) (*ast.Node, error) {
	return lower(e, 64, inputs)
}

// lower recurses with a width hint used to size bare integer literals.
func lower(e *SExpr, hint uint32, inputs int) (*ast.Node, error) {
	switch {
	case e.Atom != nil:
		return lowerAtom(*e.Atom, inputs)
	case e.Num != nil:
		v, err := strconv.ParseUint(*e.Num, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("bad integer %q: %w", *e.Num, err)
		}
		return ast.NewConst(v, hint), nil
	case e.List != nil:
		return lowerList(e.List, inputs)
	}
	return nil, fmt.Errorf("empty expression")
}

func lowerAtom(name string, inputs int) (*ast.Node, error) {
	switch name {
	case "true":
		return ast.NewBool(true), nil
	case "false":
		return ast.NewBool(false), nil
	}
	if strings.HasPrefix(name, "b") {
		idx, err := strconv.Atoi(name[1:])
		if err == nil {
			if idx >= inputs {
				return nil, fmt.Errorf("input byte %s outside declared length %d", name, inputs)
			}
			return ast.NewSym(idx, 8), nil
		}
	}
	return nil, fmt.Errorf("unknown atom %q", name)
}

// isLiteral reports whether the subexpression is a bare number, whose
// width must be borrowed from its sibling.
func isLiteral(e *SExpr) bool { return e.Num != nil }

func lowerList(l *List, inputs int) (*ast.Node, error) {
	kind, known := ast.KindByName(l.Op)
	if !known {
		return nil, fmt.Errorf("unknown operator %q", l.Op)
	}

	switch kind {
	case ast.NOT, ast.BVNOT, ast.BVNEG:
		if len(l.Args) != 1 {
			return nil, fmt.Errorf("%s takes one operand", l.Op)
		}
		a, err := lower(l.Args[0], 64, inputs)
		if err != nil {
			return nil, err
		}
		switch kind {
		case ast.NOT:
			return ast.NewNot(a), nil
		case ast.BVNOT:
			return ast.NewBvNot(a), nil
		default:
			return ast.NewNeg(a), nil
		}

	case ast.AND, ast.OR:
		args := make([]*ast.Node, 0, len(l.Args))
		for _, raw := range l.Args {
			a, err := lower(raw, 64, inputs)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		if kind == ast.AND {
			return ast.NewAnd(args...), nil
		}
		return ast.NewOr(args...), nil

	case ast.CONCAT:
		if len(l.Args) < 2 {
			return nil, fmt.Errorf("concat takes at least two operands")
		}
		out, err := lower(l.Args[0], 8, inputs)
		if err != nil {
			return nil, err
		}
		for _, raw := range l.Args[1:] {
			next, err := lower(raw, 8, inputs)
			if err != nil {
				return nil, err
			}
			out = ast.NewConcat(out, next)
		}
		return out, nil

	case ast.EXTRACT:
		if len(l.Args) != 3 {
			return nil, fmt.Errorf("extract takes high, low, expr")
		}
		high, err := lowerInt(l.Args[0])
		if err != nil {
			return nil, err
		}
		low, err := lowerInt(l.Args[1])
		if err != nil {
			return nil, err
		}
		child, err := lower(l.Args[2], 64, inputs)
		if err != nil {
			return nil, err
		}
		return ast.NewExtract(uint32(high), uint32(low), child), nil

	case ast.ZEXT, ast.SEXT:
		if len(l.Args) != 2 {
			return nil, fmt.Errorf("%s takes size, expr", l.Op)
		}
		size, err := lowerInt(l.Args[0])
		if err != nil {
			return nil, err
		}
		child, err := lower(l.Args[1], 64, inputs)
		if err != nil {
			return nil, err
		}
		if kind == ast.ZEXT {
			return ast.NewZExt(child, uint32(size)), nil
		}
		return ast.NewSExt(child, uint32(size)), nil

	case ast.ITE:
		if len(l.Args) != 3 {
			return nil, fmt.Errorf("ite takes cond, then, else")
		}
		cond, err := lower(l.Args[0], 64, inputs)
		if err != nil {
			return nil, err
		}
		then, els, err := lowerPair(l.Args[1], l.Args[2], inputs)
		if err != nil {
			return nil, err
		}
		return ast.NewIte(cond, then, els), nil
	}

	// binary comparisons and arithmetic share operand sizing: a bare
	// literal borrows the width of its sibling
	if len(l.Args) != 2 {
		return nil, fmt.Errorf("%s takes two operands", l.Op)
	}
	a, b, err := lowerPair(l.Args[0], l.Args[1], inputs)
	if err != nil {
		return nil, err
	}
	if ast.IsCmp(kind) {
		return ast.NewCmp(kind, a, b), nil
	}
	return ast.NewBin(kind, a, b), nil
}

// lowerPair sizes two sibling operands together.
func lowerPair(rawA, rawB *SExpr, inputs int) (*ast.Node, *ast.Node, error) {
	switch {
	case isLiteral(rawA) && !isLiteral(rawB):
		b, err := lower(rawB, 64, inputs)
		if err != nil {
			return nil, nil, err
		}
		a, err := lower(rawA, b.Size, inputs)
		return a, b, err
	case !isLiteral(rawA) && isLiteral(rawB):
		a, err := lower(rawA, 64, inputs)
		if err != nil {
			return nil, nil, err
		}
		b, err := lower(rawB, a.Size, inputs)
		return a, b, err
	default:
		a, err := lower(rawA, 64, inputs)
		if err != nil {
			return nil, nil, err
		}
		b, err := lower(rawB, a.Size, inputs)
		return a, b, err
	}
}

func lowerInt(e *SExpr) (uint64, error) {
	if e.Num == nil {
		return 0, fmt.Errorf("expected an integer literal")
	}
	return strconv.ParseUint(*e.Num, 0, 64)
}
