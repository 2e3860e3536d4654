// Package conceval is a concrete evaluator for bitvector ASTs: the
// reference implementation of the evaluator contract the solver is
// parameterised over. Bitvectors evaluate to their unsigned 64-bit
// truncation, booleans to 0/1.
package conceval

import (
	"fmt"

	"fuzzysat/internal/ast"
)

func width(size uint32) uint64 {
	if size >= 64 {
		return ^uint64(0)
	}
	return (1 << size) - 1
}

func signExt(v uint64, from uint32) int64 {
	return int64(v<<(64-from)) >> (64 - from)
}

// Eval computes the concrete value of n under the given per-symbol
// values. The returned depth is the height of the evaluated expression,
// usable as a complexity tie-breaker between proofs.
func Eval(n *ast.Node, values []uint64) (uint64, uint32) {
	v, d := eval(n, values)
	return v, d
}

func eval(n *ast.Node, values []uint64) (uint64, uint32) {
	switch n.Kind {
	case ast.SYM:
		if n.Sym >= len(values) {
			panic(fmt.Sprintf("conceval: symbol b%d outside the %d-value assignment", n.Sym, len(values)))
		}
		return values[n.Sym] & width(n.Size), 1
	case ast.CONST:
		return n.Val & width(n.Size), 1
	}

	args := make([]uint64, len(n.Args))
	var depth uint32
	for i, a := range n.Args {
		v, d := eval(a, values)
		args[i] = v
		if d > depth {
			depth = d
		}
	}
	depth++

	m := width(n.Size)
	cw := uint32(64)
	if len(n.Args) > 0 {
		cw = n.Args[0].Size
	}

	switch n.Kind {
	case ast.NOT:
		return 1 - (args[0] & 1), depth
	case ast.AND:
		for _, a := range args {
			if a == 0 {
				return 0, depth
			}
		}
		return 1, depth
	case ast.OR:
		for _, a := range args {
			if a != 0 {
				return 1, depth
			}
		}
		return 0, depth

	case ast.EQ:
		return b2u(args[0] == args[1]), depth
	case ast.NE:
		return b2u(args[0] != args[1]), depth
	case ast.ULT:
		return b2u(args[0] < args[1]), depth
	case ast.ULE:
		return b2u(args[0] <= args[1]), depth
	case ast.UGT:
		return b2u(args[0] > args[1]), depth
	case ast.UGE:
		return b2u(args[0] >= args[1]), depth
	case ast.SLT:
		return b2u(signExt(args[0], cw) < signExt(args[1], cw)), depth
	case ast.SLE:
		return b2u(signExt(args[0], cw) <= signExt(args[1], cw)), depth
	case ast.SGT:
		return b2u(signExt(args[0], cw) > signExt(args[1], cw)), depth
	case ast.SGE:
		return b2u(signExt(args[0], cw) >= signExt(args[1], cw)), depth

	case ast.CONCAT:
		return (args[0]<<n.Args[1].Size | args[1]) & m, depth
	case ast.EXTRACT:
		return (args[0] >> n.Low) & m, depth
	case ast.ZEXT:
		return args[0] & m, depth
	case ast.SEXT:
		return uint64(signExt(args[0], cw)) & m, depth
	case ast.ITE:
		if args[0] != 0 {
			return args[1] & m, depth
		}
		return args[2] & m, depth

	case ast.BVNOT:
		return ^args[0] & m, depth
	case ast.BVNEG:
		return -args[0] & m, depth
	case ast.BVAND:
		return args[0] & args[1] & m, depth
	case ast.BVOR:
		return (args[0] | args[1]) & m, depth
	case ast.BVXOR:
		return (args[0] ^ args[1]) & m, depth
	case ast.BVADD:
		return (args[0] + args[1]) & m, depth
	case ast.BVSUB:
		return (args[0] - args[1]) & m, depth
	case ast.BVMUL:
		return (args[0] * args[1]) & m, depth
	case ast.BVUDIV:
		// SMT-LIB total division: x / 0 is all ones.
		if args[1] == 0 {
			return m, depth
		}
		return (args[0] / args[1]) & m, depth
	case ast.BVSDIV:
		if args[1] == 0 {
			if signExt(args[0], cw) < 0 {
				return 1, depth
			}
			return m, depth
		}
		return uint64(signExt(args[0], cw)/signExt(args[1], cw)) & m, depth
	case ast.BVUREM:
		if args[1] == 0 {
			return args[0] & m, depth
		}
		return (args[0] % args[1]) & m, depth
	case ast.BVSREM:
		if args[1] == 0 {
			return args[0] & m, depth
		}
		return uint64(signExt(args[0], cw)%signExt(args[1], cw)) & m, depth
	case ast.BVSHL:
		if args[1] >= uint64(n.Size) {
			return 0, depth
		}
		return (args[0] << args[1]) & m, depth
	case ast.BVLSHR:
		if args[1] >= uint64(n.Size) {
			return 0, depth
		}
		return (args[0] & width(cw)) >> args[1] & m, depth
	case ast.BVASHR:
		s := signExt(args[0], cw)
		if args[1] >= uint64(n.Size) {
			if s < 0 {
				return m, depth
			}
			return 0, depth
		}
		return uint64(s>>args[1]) & m, depth
	}
	panic(fmt.Sprintf("conceval: cannot evaluate kind %s", n.Kind))
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
