// Package state is the core API for the block projection engine. It owns
// the published projection snapshot, runs the synchronous fast path, and
// drives the background template worker.
package state

import (
	"errors"
	"sync"

	"github.com/blockcast/blockcast/foundation/projector/blocks"
	"github.com/blockcast/blockcast/foundation/projector/template"
)

// EventHandler defines a function that is called when events occur in the
// processing of projections.
type EventHandler func(v string, args ...any)

// =============================================================================

// Config represents the configuration required to start the projection
// engine.
type Config struct {
	BlockWeightUnits         int64
	MempoolBlocksAmount      int
	FeePercentiles           []int
	RecommendedFeePercentile int
	EvHandler                EventHandler
}

// State manages the projection snapshot and the template worker.
type State struct {
	weightUnits           int64
	maxBlocks             int
	percentiles           []int
	recommendedPercentile int
	evHandler             EventHandler

	mu                 sync.RWMutex
	mempoolBlocks      []blocks.BlockWithTransactions
	mempoolBlockDeltas []blocks.Delta

	// wmu serializes access to the template worker. The protocol is one
	// outstanding request per worker.
	wmu        sync.Mutex
	worker     *template.Worker
	staleDrops int64
}

// New constructs a new projection engine for use.
func New(cfg Config) (*State, error) {
	if cfg.BlockWeightUnits <= 0 {
		return nil, errors.New("block weight units must be positive")
	}
	if cfg.MempoolBlocksAmount <= 0 {
		return nil, errors.New("mempool blocks amount must be positive")
	}

	percentiles := cfg.FeePercentiles
	if len(percentiles) == 0 {
		percentiles = []int{10, 25, 50, 75, 90}
	}

	recommended := cfg.RecommendedFeePercentile
	if recommended == 0 {
		recommended = 50
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	state := State{
		weightUnits:           cfg.BlockWeightUnits,
		maxBlocks:             cfg.MempoolBlocksAmount,
		percentiles:           percentiles,
		recommendedPercentile: recommended,
		evHandler:             ev,
		mempoolBlocks:         []blocks.BlockWithTransactions{},
		mempoolBlockDeltas:    []blocks.Delta{},
	}

	return &state, nil
}

// Shutdown cleanly brings the projection engine down.
func (s *State) Shutdown() {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	s.wmu.Lock()
	defer s.wmu.Unlock()

	if s.worker != nil {
		s.worker.Shutdown()
		s.worker = nil
	}
}

// =============================================================================

// publish atomically replaces the snapshot with the new projection and
// the deltas against the previous one.
func (s *State) publish(projection []blocks.BlockWithTransactions) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mempoolBlockDeltas = blocks.ComputeDeltas(s.mempoolBlocks, projection)
	s.mempoolBlocks = projection
}
