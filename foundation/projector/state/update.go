package state

import (
	"github.com/blockcast/blockcast/foundation/projector/blocks"
	"github.com/blockcast/blockcast/foundation/projector/mempool"
)

// UpdateMempoolBlocks runs the synchronous fast path: resolve CPFP
// relatives over the live transactions, sort by effective fee rate and
// pack into projected blocks. With saveResults the snapshot is replaced
// atomically.
func (s *State) UpdateMempoolBlocks(mp map[mempool.TxID]*mempool.Tx, saveResults bool) []blocks.BlockWithTransactions {
	txs := make([]*mempool.Tx, 0, len(mp))
	for _, tx := range mp {
		if !tx.DeleteAfter.IsZero() {
			continue
		}
		txs = append(txs, tx)
	}

	mempool.SortByFeeRate(txs)

	// Resolving relatives deep into the mempool buys nothing: past the
	// projected horizon the effective rate cannot move a transaction
	// into a block.
	weightLimit := s.weightUnits * int64(s.maxBlocks)

	var processedWeight int64
	for _, tx := range txs {
		processedWeight += tx.Weight

		switch {
		case processedWeight <= weightLimit:
			if !tx.CPFPChecked {
				mempool.SetRelativesAndGetCPFPInfo(tx, mp)
			}
		default:
			tx.EffectiveFeePerVsize = tx.FeePerVsize()
			tx.CPFPChecked = false
		}
	}

	mempool.SortByEffectiveFeeRate(txs)

	projection := blocks.Pack(txs, s.weightUnits, s.maxBlocks, s.percentiles)

	s.evHandler("state: updateMempoolBlocks: txs[%d] blocks[%d]", len(txs), len(projection))

	if saveResults {
		s.publish(projection)
	}

	return projection
}
