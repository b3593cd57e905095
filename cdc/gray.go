// Package cdc models the transfer of pointer values between clock domains.
// Values cross through a fixed number of synchronizer stages, arrive in order,
// and are never observed half-updated.
package cdc

// BinaryToGray converts a binary number to its reflected gray code.
func BinaryToGray(v uint64) uint64 {
	return v ^ (v >> 1)
}

// GrayToBinary converts a reflected gray code back to a binary number.
func GrayToBinary(g uint64) uint64 {
	b := g
	for shift := uint(1); shift < 64; shift <<= 1 {
		b ^= b >> shift
	}

	return b
}

// GrayDistance returns the number of bits that differ between two gray codes.
// Consecutive values of a counter that wraps at a power of two always have a
// distance of one.
func GrayDistance(a, b uint64) int {
	x := a ^ b
	n := 0

	for x != 0 {
		x &= x - 1
		n++
	}

	return n
}
