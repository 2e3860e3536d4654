package interval

// ValueIter enumerates the values of a wrapped interval in arc order,
// from Min through the wrap point to Max. It is finite and
// non-restartable; build a fresh one to enumerate again.
type ValueIter struct {
	next      uint64
	remaining uint64
	size      uint32
}

// Values returns an iterator over the interval's contents. It yields
// exactly Range() values.
func (w Wrapped) Values() *ValueIter {
	if w.empty {
		return &ValueIter{size: w.Size}
	}
	return &ValueIter{next: w.Min, remaining: w.Range(), size: w.Size}
}

// Next yields the next contained value; the second result is false once
// the interval is exhausted.
func (it *ValueIter) Next() (uint64, bool) {
	if it.remaining == 0 {
		return 0, false
	}
	v := it.next
	it.next = (it.next + 1) & mask(it.size)
	it.remaining--
	return v, true
}
