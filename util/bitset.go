package util

import (
	"math/bits"
)

const (
	bit     uint64 = 1
	allBits uint64 = 0xFFFFFFFFFFFFFFFF
)

//IntSet is a bitset over non-negative integers, used to deduplicate read
//identities while resolving overlap blocks
type IntSet struct {
	vs    []uint64
	start uint
	end   uint
	count uint
}

func NewIntSet() *IntSet {
	set := IntSet{make([]uint64, 0, 50), 1, 0, 0}
	return &set
}

func (set *IntSet) Contains(x uint) bool {
	index := x >> 6
	if index < set.start || index > set.end {
		return false
	}
	subIndex := x & 0x3F
	return (set.vs[index] & (bit << subIndex)) != 0
}

func (set *IntSet) Add(x uint) {
	index := x >> 6
	subIndex := x & 0x3F
	b := bit << subIndex
	for int(index) >= len(set.vs) {
		set.vs = append(set.vs, 0)
	}
	old := set.vs[index]
	if (old & b) != 0 { //already exists
		return
	}
	set.vs[index] = old | b
	if index < set.start || set.start > set.end {
		set.start = index
	}
	if index > set.end {
		set.end = index
	}
	set.count++
}

func (set *IntSet) IsEmpty() bool {
	return set.start > set.end
}

func (set *IntSet) Clear() {
	for set.start <= set.end {
		set.vs[set.start] = 0
		set.start++
	}
	set.end = 0
	set.start = uint(len(set.vs)) + 1
	set.count = 0
}

func (set *IntSet) Size() uint {
	return set.count
}

func (set *IntSet) getFirstID() (bool, uint) {
	if set.IsEmpty() {
		return false, 0
	}
	v := set.vs[set.start]
	return true, set.start*64 + uint(bits.TrailingZeros64(v))
}

func (set *IntSet) getNextID(x uint) (bool, uint) {
	x++
	index := x >> 6
	if index > set.end {
		return false, 0
	}
	subIndex := uint(0)
	if index < set.start {
		index = set.start
	} else {
		subIndex = x & 0x3F
		filter := allBits << subIndex
		if (filter & set.vs[index]) == 0 {
			index++
			subIndex = 0
		}
	}
	for index <= set.end && set.vs[index] == 0 {
		index++
	}
	if index > set.end {
		return false, 0
	}
	v := set.vs[index] >> subIndex
	zs := uint(bits.TrailingZeros64(v))
	return true, index*64 + subIndex + zs
}

func (set *IntSet) AsInts() []int {
	ids := make([]int, 0, set.count)
	for ok, id := set.getFirstID(); ok; ok, id = set.getNextID(id) {
		ids = append(ids, int(id))
	}
	return ids
}
