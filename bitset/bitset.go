package bitset

import "math/bits"

func NewBitSet(len uint64) BitSet {
	words := (len + 63) / 64
	bits := make([]uint64, words)
	return bits
}

type BitSet []uint64

func (b BitSet) IsSet(index uint64) bool {
	wordPosition := index / 64
	bitPosition := index % 64
	mask := uint64(1) << bitPosition

	return (b[wordPosition] & mask) != 0
}

func (b BitSet) Set(index uint64) {
	wordPosition := index / 64
	bitPosition := index % 64
	mask := uint64(1) << bitPosition

	b[wordPosition] |= mask
}

func (b BitSet) Clear() {
	for i := range b {
		b[i] = 0
	}
}

// Count returns the number of set bits.
func (b BitSet) Count() uint64 {
	var count uint64
	for _, word := range b {
		count += uint64(bits.OnesCount64(word))
	}
	return count
}
