// Package private maintains the group of handlers for private operator
// access: projector status and forced rebuilds.
package private

import (
	"context"
	"net/http"

	"github.com/blockcast/blockcast/foundation/events"
	"github.com/blockcast/blockcast/foundation/projector/mempool"
	"github.com/blockcast/blockcast/foundation/projector/state"
	"github.com/blockcast/blockcast/foundation/projector/worker"
	"github.com/blockcast/blockcast/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of private endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	State  *state.State
	Pool   *mempool.Pool
	Worker *worker.Worker
	Evts   *events.Events
}

// Status returns the current operational counters of the projector.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		PoolSize        int   `json:"poolSize"`
		ProjectedBlocks int   `json:"projectedBlocks"`
		Subscribers     int   `json:"subscribers"`
		StaleDrops      int64 `json:"staleDrops"`
	}{
		PoolSize:        h.Pool.Count(),
		ProjectedBlocks: len(h.State.RetrieveMempoolBlocks()),
		Subscribers:     h.Evts.Count(),
		StaleDrops:      h.State.RetrieveStaleDrops(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Rebuild signals the worker to run a full template rebuild.
func (h Handlers) Rebuild(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.Worker.SignalRebuild()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "rebuild signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
