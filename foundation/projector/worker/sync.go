package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/blockcast/blockcast/foundation/projector/mempool"
)

// syncTimeout bounds the projection run of one sync or rebuild cycle. The
// upstream fetch runs before that deadline is set and is not bounded by it.
const syncTimeout = 30 * time.Second

// upstreamTx is the verbose mempool entry shape served by the node.
type upstreamTx struct {
	Fee     int64    `json:"fee"`
	Weight  int64    `json:"weight"`
	Size    int64    `json:"size"`
	Depends []string `json:"depends"`
}

// runSyncOperation fetches the upstream mempool, applies the diff to the
// pool and drives a new projection.
func (w *Worker) runSyncOperation() {
	w.evHandler("worker: runSyncOperation: SYNC: started")
	defer w.evHandler("worker: runSyncOperation: SYNC: completed")

	upstream, err := w.queryUpstreamMempool()
	if err != nil {
		w.evHandler("worker: runSyncOperation: SYNC: ERROR: %s", err)
		return
	}

	added, removed := w.applyDiff(upstream)

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	live := w.pool.Copy()

	switch {
	case !w.useTemplates:
		w.state.UpdateMempoolBlocks(live, true)

	case !w.synced:
		if _, err := w.state.MakeBlockTemplates(ctx, live, true); err != nil {
			w.evHandler("worker: runSyncOperation: SYNC: makeBlockTemplates: ERROR: %s", err)
			return
		}
		w.synced = true

	default:
		if err := w.state.UpdateBlockTemplates(ctx, live, added, removed, true); err != nil {
			w.evHandler("worker: runSyncOperation: SYNC: updateBlockTemplates: ERROR: %s", err)
			return
		}
	}

	w.publishNotice(len(added), len(removed))
}

// runRebuildOperation forces a full template rebuild regardless of the
// incremental state.
func (w *Worker) runRebuildOperation() {
	w.evHandler("worker: runRebuildOperation: REBUILD: started")
	defer w.evHandler("worker: runRebuildOperation: REBUILD: completed")

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	if w.useTemplates {
		if _, err := w.state.MakeBlockTemplates(ctx, w.pool.Copy(), true); err != nil {
			w.evHandler("worker: runRebuildOperation: REBUILD: ERROR: %s", err)
			return
		}
		w.synced = true
	} else {
		w.state.UpdateMempoolBlocks(w.pool.Copy(), true)
	}

	w.publishNotice(0, 0)
}

// =============================================================================

// queryUpstreamMempool retrieves the verbose mempool from the node.
func (w *Worker) queryUpstreamMempool() (map[string]upstreamTx, error) {
	url := fmt.Sprintf("%s/api/mempool/verbose", w.nodeURL)

	var client http.Client
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream mempool query returned status %d", resp.StatusCode)
	}

	upstream := make(map[string]upstreamTx)
	if err := json.NewDecoder(resp.Body).Decode(&upstream); err != nil {
		return nil, fmt.Errorf("decoding upstream mempool: %w", err)
	}

	return upstream, nil
}

// applyDiff reconciles the pool with the upstream view and returns the
// transactions that were added and the txids that were removed.
func (w *Worker) applyDiff(upstream map[string]upstreamTx) ([]*mempool.Tx, []mempool.TxID) {
	var added []*mempool.Tx
	var removed []mempool.TxID

	seen := make(map[mempool.TxID]bool, len(upstream))

	for hex, utx := range upstream {
		txID, err := mempool.ToTxID(hex)
		if err != nil {
			w.evHandler("worker: applyDiff: WARNING: %s", err)
			continue
		}
		seen[txID] = true

		if _, exists := w.pool.Retrieve(txID); exists {
			continue
		}

		vin := make([]mempool.TxID, 0, len(utx.Depends))
		for _, dep := range utx.Depends {
			depID, err := mempool.ToTxID(dep)
			if err != nil {
				w.evHandler("worker: applyDiff: WARNING: %s", err)
				continue
			}
			vin = append(vin, depID)
		}

		tx := mempool.Tx{
			TxID:   txID,
			Fee:    utx.Fee,
			Weight: utx.Weight,
			Size:   utx.Size,
			Vin:    vin,
		}

		w.pool.Upsert(&tx)
		added = append(added, &tx)
	}

	for txID := range w.pool.Copy() {
		if !seen[txID] {
			w.pool.Delete(txID)
			removed = append(removed, txID)
		}
	}

	if len(added) > 0 || len(removed) > 0 {
		w.evHandler("worker: applyDiff: added[%d] removed[%d] pool[%d]", len(added), len(removed), w.pool.Count())
	}

	return added, removed
}

// publishNotice pushes a projection update notice to every websocket
// subscriber.
func (w *Worker) publishNotice(added int, removed int) {
	if w.evts == nil {
		return
	}

	notice := struct {
		Type    string `json:"type"`
		Blocks  int    `json:"blocks"`
		Added   int    `json:"added"`
		Removed int    `json:"removed"`
	}{
		Type:    "projection-update",
		Blocks:  len(w.state.RetrieveMempoolBlocks()),
		Added:   added,
		Removed: removed,
	}

	data, err := json.Marshal(notice)
	if err != nil {
		w.evHandler("worker: publishNotice: ERROR: %s", err)
		return
	}

	w.evts.Send(string(data))
}
