package ratelimit

import "sort"

// ring is a growable ring buffer of ascending int64 timestamps (UnixNano).
// It is a specialization of the teacher corpus's catrate package's generic
// ringBuffer[E constraints.Ordered] down to the one element type this
// package ever needs, which lets it drop the golang.org/x/exp/constraints
// dependency entirely.
type ring struct {
	s    []int64
	r, w uint
}

func newRing(size int) *ring {
	if size <= 0 || size&(size-1) != 0 {
		panic(`ratelimit: ring size must be a power of 2`)
	}
	return &ring{s: make([]int64, size)}
}

func (x *ring) mask(val uint) uint { return val & (uint(len(x.s)) - 1) }

func (x *ring) bounds() (i1, l1, l2 int) {
	if x.r == x.w {
		return
	}
	i1 = int(x.mask(x.r))
	l1 = int(x.mask(x.w))
	if l1 <= i1 {
		l2 = l1
		l1 = len(x.s)
	}
	return
}

func (x *ring) Len() int { return int(x.w - x.r) }

func (x *ring) Get(i int) int64 {
	if i < 0 || i >= x.Len() {
		panic(`ratelimit: ring: index out of range`)
	}
	return x.s[x.mask(x.r+uint(i))]
}

func (x *ring) RemoveBefore(index int) {
	if index < 0 || index > x.Len() {
		panic(`ratelimit: ring: remove before: index out of range`)
	}
	x.r += uint(index)
}

func (x *ring) Search(value int64) int {
	return sort.Search(x.Len(), func(i int) bool {
		return x.Get(i) >= value
	})
}

// Append inserts value, which callers guarantee is >= every previously
// inserted value (events arrive in non-decreasing timestamp order), growing
// the backing array when full.
func (x *ring) Append(value int64) {
	if x.Len() == len(x.s) {
		s := make([]int64, uint(len(x.s))<<1)
		i1, l1, l2 := x.bounds()
		n := copy(s, x.s[i1:l1])
		n += copy(s[n:], x.s[:l2])
		x.r = 0
		x.w = uint(n)
		x.s = s
	}
	x.s[x.mask(x.w)] = value
	x.w++
}
