package ast

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Node is one vertex of a bitvector expression DAG. Nodes are immutable
// after construction; the solver shares them freely and keys caches on
// their structural hash.
type Node struct {
	Kind Kind
	Size uint32 // width in bits; 1 for boolean-valued nodes
	Sym  int    // input index, SYM only
	Val  uint64 // literal value, CONST only
	Args []*Node

	// Extract bounds (bit indices, inclusive), EXTRACT only.
	High uint32
	Low  uint32

	hash uint64
}

// NewSym builds an input-symbol leaf of the given width. Input bytes are
// 8 bits wide; assignment symbols may be wider.
func NewSym(index int, size uint32) *Node {
	return &Node{Kind: SYM, Sym: index, Size: size}
}

// NewConst builds a literal node. The value is truncated to size bits.
func NewConst(val uint64, size uint32) *Node {
	if size < 64 {
		val &= (1 << size) - 1
	}
	return &Node{Kind: CONST, Val: val, Size: size}
}

// NewBool wraps a boolean constant as a width-1 literal.
func NewBool(b bool) *Node {
	v := uint64(0)
	if b {
		v = 1
	}
	return &Node{Kind: CONST, Val: v, Size: 1}
}

// NewCmp builds a comparison node over two operands of equal width.
func NewCmp(k Kind, a, b *Node) *Node {
	if !IsCmp(k) {
		panic(fmt.Sprintf("ast: NewCmp called with non-comparison kind %s", k))
	}
	return &Node{Kind: k, Size: 1, Args: []*Node{a, b}}
}

// NewBin builds a binary bitvector operation; the result width follows
// the left operand.
func NewBin(k Kind, a, b *Node) *Node {
	return &Node{Kind: k, Size: a.Size, Args: []*Node{a, b}}
}

// NewNot negates a boolean node.
func NewNot(a *Node) *Node {
	return &Node{Kind: NOT, Size: 1, Args: []*Node{a}}
}

// NewAnd and NewOr build n-ary boolean connectives.
func NewAnd(args ...*Node) *Node {
	return &Node{Kind: AND, Size: 1, Args: args}
}

func NewOr(args ...*Node) *Node {
	return &Node{Kind: OR, Size: 1, Args: args}
}

// NewConcat joins a (high bits) and b (low bits).
func NewConcat(a, b *Node) *Node {
	return &Node{Kind: CONCAT, Size: a.Size + b.Size, Args: []*Node{a, b}}
}

// NewExtract selects bits [low, high] of the child.
func NewExtract(high, low uint32, child *Node) *Node {
	if high < low || high >= child.Size {
		panic(fmt.Sprintf("ast: extract [%d:%d] out of range for width %d", high, low, child.Size))
	}
	return &Node{Kind: EXTRACT, Size: high - low + 1, High: high, Low: low, Args: []*Node{child}}
}

// NewZExt zero-extends the child to size bits.
func NewZExt(child *Node, size uint32) *Node {
	if size < child.Size {
		panic(fmt.Sprintf("ast: zext to %d narrower than child width %d", size, child.Size))
	}
	return &Node{Kind: ZEXT, Size: size, Args: []*Node{child}}
}

// NewSExt sign-extends the child to size bits.
func NewSExt(child *Node, size uint32) *Node {
	if size < child.Size {
		panic(fmt.Sprintf("ast: sext to %d narrower than child width %d", size, child.Size))
	}
	return &Node{Kind: SEXT, Size: size, Args: []*Node{child}}
}

// NewIte builds an if-then-else over two bitvectors of equal width.
func NewIte(cond, then, els *Node) *Node {
	return &Node{Kind: ITE, Size: then.Size, Args: []*Node{cond, then, els}}
}

// NewNeg builds the two's-complement negation of the child.
func NewNeg(a *Node) *Node {
	return &Node{Kind: BVNEG, Size: a.Size, Args: []*Node{a}}
}

// NewBvNot builds the bitwise complement of the child.
func NewBvNot(a *Node) *Node {
	return &Node{Kind: BVNOT, Size: a.Size, Args: []*Node{a}}
}

// NewSub builds a - b.
func NewSub(a, b *Node) *Node {
	return NewBin(BVSUB, a, b)
}

// Hash returns the structural hash of the node, computing and memoising
// it on first use. Two structurally equal DAGs hash equal; the converse
// is assumed by the caches, as in any structural-hashing scheme.
func (n *Node) Hash() uint64 {
	if n.hash != 0 {
		return n.hash
	}
	d := xxhash.New()
	n.feed(d)
	h := d.Sum64()
	if h == 0 {
		h = 1 // keep 0 free as the "not yet computed" sentinel
	}
	n.hash = h
	return h
}

func (n *Node) feed(d *xxhash.Digest) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(n.Kind)|uint64(n.Size)<<32)
	d.Write(buf[:])
	switch n.Kind {
	case SYM:
		binary.LittleEndian.PutUint64(buf[:], uint64(n.Sym))
		d.Write(buf[:])
	case CONST:
		binary.LittleEndian.PutUint64(buf[:], n.Val)
		d.Write(buf[:])
	case EXTRACT:
		binary.LittleEndian.PutUint64(buf[:], uint64(n.High)<<32|uint64(n.Low))
		d.Write(buf[:])
	}
	for _, a := range n.Args {
		binary.LittleEndian.PutUint64(buf[:], a.Hash())
		d.Write(buf[:])
	}
}

// IsConst reports whether n is a literal.
func (n *Node) IsConst() bool { return n.Kind == CONST }

// IsInput reports whether n is an input-symbol leaf.
func (n *Node) IsInput() bool { return n.Kind == SYM }
