package cdc

import "log"

// GraySync carries a wrapping counter into another clock domain as a gray
// code. The counter is masked to a power-of-two range, and the source register
// moves by one count per cycle, so the value entering the synchronizer changes
// by exactly one bit at a time, including across the wrap. A counter that
// jumps by several counts is stepped through every value in between.
type GraySync struct {
	mask   uint64
	target uint64
	count  uint64
	source uint64
	stages []uint64
}

// NewGraySync creates a GraySync for counters in [0, modulus) with the given
// number of synchronizer stages. The modulus must be a power of two.
func NewGraySync(modulus uint64, numStage int) *GraySync {
	if modulus == 0 || modulus&(modulus-1) != 0 {
		log.Panicf("gray sync modulus %d is not a power of two", modulus)
	}

	if numStage < 0 {
		log.Panicf("invalid number of stages %d", numStage)
	}

	return &GraySync{
		mask:   modulus - 1,
		stages: make([]uint64, numStage),
	}
}

// Set updates the counter in the source domain. Without stages, the value is
// visible at once.
func (s *GraySync) Set(count uint64) {
	s.target = count & s.mask

	if len(s.stages) == 0 {
		s.count = s.target
		s.source = BinaryToGray(s.count)
	}
}

// Reset forces both domains to the given counter value.
func (s *GraySync) Reset(count uint64) {
	s.target = count & s.mask
	s.count = s.target
	s.source = BinaryToGray(s.count)

	for i := range s.stages {
		s.stages[i] = s.source
	}
}

// Tick steps the source register one count towards the counter and shifts the
// synchronizer chain by one cycle.
func (s *GraySync) Tick() (madeProgress bool) {
	if len(s.stages) == 0 {
		return false
	}

	if s.count != s.target {
		s.count = (s.count + 1) & s.mask
		s.source = BinaryToGray(s.count)
		madeProgress = true
	}

	for i := len(s.stages) - 1; i > 0; i-- {
		if s.stages[i] != s.stages[i-1] {
			madeProgress = true
		}

		s.stages[i] = s.stages[i-1]
	}

	if s.stages[0] != s.source {
		madeProgress = true
	}

	s.stages[0] = s.source

	return madeProgress
}

// Value returns the counter as seen in the destination domain.
func (s *GraySync) Value() uint64 {
	if len(s.stages) == 0 {
		return GrayToBinary(s.source)
	}

	return GrayToBinary(s.stages[len(s.stages)-1])
}

// Settled returns true if the destination observes the latest counter value.
func (s *GraySync) Settled() bool {
	if len(s.stages) == 0 {
		return true
	}

	return s.count == s.target && s.stages[len(s.stages)-1] == s.source
}
