package state

import (
	"context"
	"sync/atomic"

	"github.com/blockcast/blockcast/foundation/projector/blocks"
	"github.com/blockcast/blockcast/foundation/projector/mempool"
	"github.com/blockcast/blockcast/foundation/projector/template"
)

// MakeBlockTemplates performs a full rebuild of the block templates on the
// background worker. On worker failure the handle is dropped, the last
// published snapshot is returned unchanged and the next call re-spawns a
// fresh worker.
func (s *State) MakeBlockTemplates(ctx context.Context, mp map[mempool.TxID]*mempool.Tx, saveResults bool) ([]blocks.BlockWithTransactions, error) {
	stripped := make(map[mempool.TxID]*mempool.ThreadTx, len(mp))
	for txID, tx := range mp {
		if !tx.DeleteAfter.IsZero() {
			continue
		}
		stripped[txID] = tx.Thread()
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	if s.worker == nil {
		s.evHandler("state: makeBlockTemplates: spawning template worker")
		s.worker = template.StartWorker(s.weightUnits, s.maxBlocks)
	}

	msg := template.Message{
		Type:    template.TypeSet,
		Mempool: stripped,
	}

	result, err := s.worker.Send(ctx, msg)
	if err != nil {
		s.dropWorker("makeBlockTemplates", err)
		return s.RetrieveMempoolBlocksWithTransactions(), err
	}

	return s.processBlockTemplates(mp, result, saveResults), nil
}

// UpdateBlockTemplates applies an incremental mempool diff to the
// background worker. Without a live worker handle the call delegates to a
// full rebuild.
func (s *State) UpdateBlockTemplates(ctx context.Context, mp map[mempool.TxID]*mempool.Tx, added []*mempool.Tx, removed []mempool.TxID, saveResults bool) error {
	s.wmu.Lock()

	if s.worker == nil {
		s.wmu.Unlock()

		s.evHandler("state: updateBlockTemplates: no worker handle: full rebuild")
		_, err := s.MakeBlockTemplates(ctx, mp, saveResults)
		return err
	}
	defer s.wmu.Unlock()

	addedStripped := make([]*mempool.ThreadTx, 0, len(added))
	for _, tx := range added {
		if !tx.DeleteAfter.IsZero() {
			continue
		}
		addedStripped = append(addedStripped, tx.Thread())
	}

	msg := template.Message{
		Type:    template.TypeUpdate,
		Added:   addedStripped,
		Removed: removed,
	}

	result, err := s.worker.Send(ctx, msg)
	if err != nil {
		s.dropWorker("updateBlockTemplates", err)
		return err
	}

	s.processBlockTemplates(mp, result, saveResults)
	return nil
}

// dropWorker terminates and forgets the worker handle after a failure.
// The next template call re-spawns a fresh worker and issues a full set.
func (s *State) dropWorker(caller string, err error) {
	s.evHandler("state: %s: ERROR: dropping template worker: %s", caller, err)

	if s.worker != nil {
		s.worker.Shutdown()
		s.worker = nil
	}
}

// =============================================================================

// processBlockTemplates filters the worker result against the live
// mempool, applies the CPFP enrichment to the live transactions and
// builds the final block summaries.
func (s *State) processBlockTemplates(mp map[mempool.TxID]*mempool.Tx, result template.Result, saveResults bool) []blocks.BlockWithTransactions {
	var stale int64

	projection := make([]blocks.BlockWithTransactions, 0, len(result.Blocks))

	for b, blockTxs := range result.Blocks {
		var runningVsize float64
		live := make([]*mempool.Tx, 0, len(blockTxs))

		for _, rtx := range blockTxs {

			// The worker reply races the live mempool. Drop whatever
			// vanished in the meantime.
			tx, exists := mp[rtx.TxID]
			if !exists {
				stale++
				continue
			}

			tx.Position = &mempool.BlockPosition{
				Block: b,
				Vsize: runningVsize + tx.Vsize()/2,
			}
			runningVsize += tx.Vsize()

			if rtx.EffectiveFeePerVsize != nil {
				tx.EffectiveFeePerVsize = *rtx.EffectiveFeePerVsize
			}

			if rtx.CPFPRoot != nil {
				if cluster, exists := result.Clusters[*rtx.CPFPRoot]; exists {
					s.applyCluster(tx, cluster, mp)
				}
			}

			tx.CPFPChecked = rtx.CPFPChecked

			live = append(live, tx)
		}

		projection = append(projection, blocks.Build(live, s.weightUnits, s.percentiles))
	}

	if stale > 0 {
		atomic.AddInt64(&s.staleDrops, stale)
		s.evHandler("state: processBlockTemplates: WARNING: dropped stale transactions[%d]", stale)
	}

	s.evHandler("state: processBlockTemplates: blocks[%d] clusters[%d]", len(projection), len(result.Clusters))

	if saveResults {
		s.publish(projection)
	}

	return projection
}

// applyCluster populates the ancestor and descendant lists of the
// transaction from its cluster membership. Members before the transaction
// in the cluster order are ancestors, members after it are descendants.
func (s *State) applyCluster(tx *mempool.Tx, cluster []mempool.TxID, mp map[mempool.TxID]*mempool.Tx) {
	ancestors := []mempool.Relative{}
	descendants := []mempool.Relative{}

	pastPivot := false
	for _, memberID := range cluster {
		if memberID == tx.TxID {
			pastPivot = true
			continue
		}

		member, exists := mp[memberID]
		if !exists {
			s.evHandler("state: applyCluster: WARNING: cluster member missing from mempool: %s", memberID)
			continue
		}

		rel := mempool.Relative{
			TxID:   member.TxID,
			Fee:    member.Fee,
			Weight: member.Weight,
		}

		if pastPivot {
			descendants = append(descendants, rel)
			continue
		}
		ancestors = append(ancestors, rel)
	}

	tx.Ancestors = ancestors
	tx.Descendants = descendants
	tx.BestDescendant = nil
}
