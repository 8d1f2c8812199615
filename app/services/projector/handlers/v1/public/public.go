// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"time"

	v1 "github.com/blockcast/blockcast/business/web/v1"
	"github.com/blockcast/blockcast/foundation/events"
	"github.com/blockcast/blockcast/foundation/projector/mempool"
	"github.com/blockcast/blockcast/foundation/projector/state"
	"github.com/blockcast/blockcast/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	Pool  *mempool.Pool
	WS    websocket.Upgrader
	Evts  *events.Events
}

// MempoolBlocks returns the summaries of the projected blocks.
func (h Handlers) MempoolBlocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveMempoolBlocks(), http.StatusOK)
}

// MempoolBlocksFull returns the projected blocks including the stripped
// transaction payloads.
func (h Handlers) MempoolBlocksFull(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveMempoolBlocksWithTransactions(), http.StatusOK)
}

// MempoolBlockDeltas returns the deltas between the two most recent
// projections.
func (h Handlers) MempoolBlockDeltas(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveMempoolBlockDeltas(), http.StatusOK)
}

// RecommendedFees returns the fee advice derived from the current
// projection.
func (h Handlers) RecommendedFees(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveRecommendedFees(), http.StatusOK)
}

// TxPosition returns the projected position and CPFP relatives of a
// single mempool transaction.
func (h Handlers) TxPosition(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txID, err := mempool.ToTxID(web.Param(r, "txid"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	tx, exists := h.Pool.Retrieve(txID)
	if !exists {
		return v1.NewRequestError(fmt.Errorf("transaction %s not in mempool", txID), http.StatusNotFound)
	}

	resp := txPosition{
		TxID:                 tx.TxID,
		Position:             tx.Position,
		EffectiveFeePerVsize: tx.EffectiveFeePerVsize,
		Ancestors:            tx.Ancestors,
		Descendants:          tx.Descendants,
		BestDescendant:       tx.BestDescendant,
		CPFPChecked:          tx.CPFPChecked,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Events handles a web socket to provide projection update events to a
// client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}
