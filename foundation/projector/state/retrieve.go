package state

import (
	"sync/atomic"

	"github.com/blockcast/blockcast/foundation/projector/blocks"
)

// RetrieveMempoolBlocks returns the block summaries of the published
// projection.
func (s *State) RetrieveMempoolBlocks() []blocks.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]blocks.Block, len(s.mempoolBlocks))
	for i, block := range s.mempoolBlocks {
		summaries[i] = block.Summary()
	}

	return summaries
}

// RetrieveMempoolBlocksWithTransactions returns a copy of the published
// projection including the transaction payloads.
func (s *State) RetrieveMempoolBlocksWithTransactions() []blocks.BlockWithTransactions {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cpy := make([]blocks.BlockWithTransactions, len(s.mempoolBlocks))
	copy(cpy, s.mempoolBlocks)

	return cpy
}

// RetrieveMempoolBlockDeltas returns a copy of the deltas between the two
// most recent projections.
func (s *State) RetrieveMempoolBlockDeltas() []blocks.Delta {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cpy := make([]blocks.Delta, len(s.mempoolBlockDeltas))
	copy(cpy, s.mempoolBlockDeltas)

	return cpy
}

// RetrieveStaleDrops returns the number of worker results dropped so far
// because the transaction vanished from the live mempool.
func (s *State) RetrieveStaleDrops() int64 {
	return atomic.LoadInt64(&s.staleDrops)
}

// =============================================================================

// RecommendedFees carries the fee advice derived from the current
// projection.
type RecommendedFees struct {
	FastestFee  float64 `json:"fastestFee"`
	HalfHourFee float64 `json:"halfHourFee"`
	HourFee     float64 `json:"hourFee"`
	MinimumFee  float64 `json:"minimumFee"`
}

// minimumFeeFloor is the rate recommended when the projection is empty.
const minimumFeeFloor = 1.0

// RetrieveRecommendedFees derives fee advice from the published
// projection: the first three projected blocks provide the fast, half
// hour and hour targets.
func (s *State) RetrieveRecommendedFees() RecommendedFees {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fees := RecommendedFees{
		FastestFee:  s.blockRate(0),
		HalfHourFee: s.blockRate(1),
		HourFee:     s.blockRate(2),
		MinimumFee:  minimumFeeFloor,
	}

	// Keep the advice monotone. A sparse far block can show a higher
	// median than a near one.
	if fees.HourFee > fees.HalfHourFee {
		fees.HalfHourFee = fees.HourFee
	}
	if fees.HalfHourFee > fees.FastestFee {
		fees.FastestFee = fees.HalfHourFee
	}

	return fees
}

// blockRate returns the recommended rate of the projected block at the
// specified index, clamping past the end of the projection and to the
// minimum fee floor.
func (s *State) blockRate(i int) float64 {
	if len(s.mempoolBlocks) == 0 {
		return minimumFeeFloor
	}
	if i >= len(s.mempoolBlocks) {
		i = len(s.mempoolBlocks) - 1
	}

	block := s.mempoolBlocks[i]

	// Prefer the configured percentile when the fee range carries it.
	rate := block.MedianFee
	for pi, p := range s.percentiles {
		if p == s.recommendedPercentile && pi < len(block.FeeRange) {
			rate = block.FeeRange[pi]
			break
		}
	}

	if rate < minimumFeeFloor {
		return minimumFeeFloor
	}
	return rate
}
