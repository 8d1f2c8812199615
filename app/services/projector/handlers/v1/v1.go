// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/blockcast/blockcast/app/services/projector/handlers/v1/private"
	"github.com/blockcast/blockcast/app/services/projector/handlers/v1/public"
	"github.com/blockcast/blockcast/foundation/events"
	"github.com/blockcast/blockcast/foundation/projector/mempool"
	"github.com/blockcast/blockcast/foundation/projector/state"
	"github.com/blockcast/blockcast/foundation/projector/worker"
	"github.com/blockcast/blockcast/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log    *zap.SugaredLogger
	State  *state.State
	Pool   *mempool.Pool
	Worker *worker.Worker
	Evts   *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Pool:  cfg.Pool,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/fees/mempool-blocks", pbl.MempoolBlocks)
	app.Handle(http.MethodGet, version, "/fees/mempool-blocks/full", pbl.MempoolBlocksFull)
	app.Handle(http.MethodGet, version, "/fees/mempool-blocks/deltas", pbl.MempoolBlockDeltas)
	app.Handle(http.MethodGet, version, "/fees/recommended", pbl.RecommendedFees)
	app.Handle(http.MethodGet, version, "/tx/position/:txid", pbl.TxPosition)
	app.Handle(http.MethodGet, version, "/events", pbl.Events)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:    cfg.Log,
		State:  cfg.State,
		Pool:   cfg.Pool,
		Worker: cfg.Worker,
		Evts:   cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodPost, version, "/node/rebuild", prv.Rebuild)
}
