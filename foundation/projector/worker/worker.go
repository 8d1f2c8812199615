// Package worker implements the upstream sync loop for the projection
// engine: it polls the node's mempool, applies the diff to the pool and
// drives a new projection.
package worker

import (
	"sync"
	"time"

	"github.com/blockcast/blockcast/foundation/events"
	"github.com/blockcast/blockcast/foundation/projector/mempool"
	"github.com/blockcast/blockcast/foundation/projector/state"
)

// Config represents the configuration required to start the worker.
type Config struct {
	State        *state.State
	Pool         *mempool.Pool
	Evts         *events.Events
	NodeURL      string
	PollInterval time.Duration
	UseTemplates bool
	EvHandler    state.EventHandler
}

// Worker manages the sync workflow of the projection engine.
type Worker struct {
	state        *state.State
	pool         *mempool.Pool
	evts         *events.Events
	nodeURL      string
	useTemplates bool
	wg           sync.WaitGroup
	ticker       *time.Ticker
	shut         chan struct{}
	rebuild      chan bool
	evHandler    state.EventHandler
	synced       bool
}

// Run creates a worker and starts the sync goroutine.
func Run(cfg Config) *Worker {
	w := Worker{
		state:        cfg.State,
		pool:         cfg.Pool,
		evts:         cfg.Evts,
		nodeURL:      cfg.NodeURL,
		useTemplates: cfg.UseTemplates,
		ticker:       time.NewTicker(cfg.PollInterval),
		shut:         make(chan struct{}),
		rebuild:      make(chan bool, 1),
		evHandler:    cfg.EvHandler,
	}

	// We don't want to return until we know the G is up and running.
	hasStarted := make(chan bool)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		hasStarted <- true
		w.syncOperations()
	}()

	<-hasStarted

	return &w
}

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.ticker.Stop()
	close(w.shut)
	w.wg.Wait()
}

// SignalRebuild requests a full template rebuild on the next cycle. If a
// signal is already pending, just return since a rebuild will happen.
func (w *Worker) SignalRebuild() {
	select {
	case w.rebuild <- true:
	default:
	}
	w.evHandler("worker: SignalRebuild: rebuild signaled")
}

// =============================================================================

// syncOperations runs the polling loop until shutdown.
func (w *Worker) syncOperations() {
	w.evHandler("worker: syncOperations: G started")
	defer w.evHandler("worker: syncOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runSyncOperation()
			}
		case <-w.rebuild:
			if !w.isShutdown() {
				w.runRebuildOperation()
			}
		case <-w.shut:
			w.evHandler("worker: syncOperations: received shut signal")
			return
		}
	}
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
