package blocks

import (
	"github.com/blockcast/blockcast/foundation/projector/mempool"
)

// ComputeDeltas diffs the previous projection against the new one block
// by block. The result has one delta per block index of the longer
// projection. A transaction that moved between blocks shows up as removed
// at its old index and added at its new index.
func ComputeDeltas(prevBlocks []BlockWithTransactions, newBlocks []BlockWithTransactions) []Delta {
	n := len(prevBlocks)
	if len(newBlocks) > n {
		n = len(newBlocks)
	}

	deltas := make([]Delta, 0, n)

	for i := 0; i < n; i++ {
		delta := Delta{
			Added:   []mempool.StrippedTx{},
			Removed: []mempool.TxID{},
			Changed: []RateChange{},
		}

		switch {
		case i >= len(prevBlocks):
			delta.Added = append(delta.Added, newBlocks[i].Transactions...)

		case i >= len(newBlocks):
			for _, tx := range prevBlocks[i].Transactions {
				delta.Removed = append(delta.Removed, tx.TxID)
			}

		default:
			prevRates := make(map[mempool.TxID]float64, len(prevBlocks[i].Transactions))
			for _, tx := range prevBlocks[i].Transactions {
				prevRates[tx.TxID] = tx.Rate
			}

			newIDs := make(map[mempool.TxID]bool, len(newBlocks[i].Transactions))
			for _, tx := range newBlocks[i].Transactions {
				newIDs[tx.TxID] = true
			}

			for _, tx := range prevBlocks[i].Transactions {
				if !newIDs[tx.TxID] {
					delta.Removed = append(delta.Removed, tx.TxID)
				}
			}

			for _, tx := range newBlocks[i].Transactions {
				prevRate, exists := prevRates[tx.TxID]
				switch {
				case !exists:
					delta.Added = append(delta.Added, tx)
				case prevRate != tx.Rate:
					delta.Changed = append(delta.Changed, RateChange{TxID: tx.TxID, Rate: tx.Rate})
				}
			}
		}

		deltas = append(deltas, delta)
	}

	return deltas
}
