package astinfo

import "sort"

// ITSPattern records an input-to-state equality harvested from an ITE
// condition: injecting Val into Group makes the condition's comparison
// hold. Val carries the low 64 bits of the constant.
type ITSPattern struct {
	Group Group
	Val   uint64
}

// Record is the memoised analysis of one sub-expression. The UD fields
// hold indices and groups that are univocally defined by the path
// condition; they are excluded from mutation but merged back for the
// aggressive-optimistic rerun.
type Record struct {
	Indexes       map[int]struct{}
	IndexGroups   map[Group]struct{}
	IndexesUD     map[int]struct{}
	IndexGroupsUD map[Group]struct{}

	InputToStateITE []ITSPattern

	LinearOps    int
	NonlinearOps int
	ExtractOps   int
	ApproxGroups int
	QuerySize    int
}

// NewRecord returns an empty record with all sets allocated.
func NewRecord() *Record {
	return &Record{
		Indexes:       make(map[int]struct{}),
		IndexGroups:   make(map[Group]struct{}),
		IndexesUD:     make(map[int]struct{}),
		IndexGroupsUD: make(map[Group]struct{}),
	}
}

// AddIndex files a byte index on the mutable or UD side.
func (r *Record) AddIndex(index int, ud bool) {
	if ud {
		r.IndexesUD[index] = struct{}{}
	} else {
		r.Indexes[index] = struct{}{}
	}
}

// AddGroup files a group on the mutable or UD side.
func (r *Record) AddGroup(g Group, ud bool) {
	if ud {
		r.IndexGroupsUD[g] = struct{}{}
	} else {
		r.IndexGroups[g] = struct{}{}
	}
}

// Merge unions the other record into r, summing the counters.
func (r *Record) Merge(o *Record) {
	for ix := range o.Indexes {
		r.Indexes[ix] = struct{}{}
	}
	for g := range o.IndexGroups {
		r.IndexGroups[g] = struct{}{}
	}
	for ix := range o.IndexesUD {
		r.IndexesUD[ix] = struct{}{}
	}
	for g := range o.IndexGroupsUD {
		r.IndexGroupsUD[g] = struct{}{}
	}
	r.InputToStateITE = append(r.InputToStateITE, o.InputToStateITE...)
	r.LinearOps += o.LinearOps
	r.NonlinearOps += o.NonlinearOps
	r.ExtractOps += o.ExtractOps
	r.ApproxGroups += o.ApproxGroups
	r.QuerySize += o.QuerySize
}

// Clone deep-copies the record so callers can subtract blacklisted bytes
// without disturbing the cached entry.
func (r *Record) Clone() *Record {
	c := NewRecord()
	c.Merge(r)
	c.QuerySize = r.QuerySize
	c.LinearOps = r.LinearOps
	c.NonlinearOps = r.NonlinearOps
	c.ExtractOps = r.ExtractOps
	c.ApproxGroups = r.ApproxGroups
	return c
}

// SortedIndexes returns the mutable byte indices in ascending order.
func (r *Record) SortedIndexes() []int {
	out := make([]int, 0, len(r.Indexes))
	for ix := range r.Indexes {
		out = append(out, ix)
	}
	sortInts(out)
	return out
}

// SortedGroups returns the mutable groups in a deterministic order.
func (r *Record) SortedGroups() []Group {
	out := make([]Group, 0, len(r.IndexGroups))
	for g := range r.IndexGroups {
		out = append(out, g)
	}
	sortGroups(out)
	return out
}

func sortInts(xs []int) {
	sort.Ints(xs)
}

func sortGroups(gs []Group) {
	sort.Slice(gs, func(i, j int) bool {
		a, b := gs[i], gs[j]
		if a.n != b.n {
			return a.n < b.n
		}
		for k := 0; k < int(a.n); k++ {
			if a.idx[k] != b.idx[k] {
				return a.idx[k] < b.idx[k]
			}
		}
		return false
	})
}
