package blocks

import (
	"github.com/blockcast/blockcast/foundation/projector/mempool"
)

// relaxedCapFactor loosens the block weight cap for the stripped subset
// retained for client delivery.
const relaxedCapFactor = 1.2

// Pack distributes the transactions over projected blocks in the order
// given. The input must already be sorted by effective fee rate. Every
// block respects the weight cap except the last permitted block which
// absorbs the remainder of the mempool.
func Pack(txs []*mempool.Tx, weightUnits int64, maxBlocks int, percentiles []int) []BlockWithTransactions {
	mempoolBlocks := make([]BlockWithTransactions, 0, maxBlocks)

	var blockWeight int64
	var blockVsize float64
	var accum []*mempool.Tx

	for _, tx := range txs {
		if blockWeight+tx.Weight <= weightUnits || len(mempoolBlocks) == maxBlocks-1 {
			tx.Position = &mempool.BlockPosition{
				Block: len(mempoolBlocks),
				Vsize: blockVsize + tx.Vsize()/2,
			}
			blockWeight += tx.Weight
			blockVsize += tx.Vsize()
			accum = append(accum, tx)
			continue
		}

		mempoolBlocks = append(mempoolBlocks, Build(accum, weightUnits, percentiles))

		tx.Position = &mempool.BlockPosition{
			Block: len(mempoolBlocks),
			Vsize: tx.Vsize() / 2,
		}
		blockWeight = tx.Weight
		blockVsize = tx.Vsize()
		accum = []*mempool.Tx{tx}
	}

	if len(accum) > 0 {
		mempoolBlocks = append(mempoolBlocks, Build(accum, weightUnits, percentiles))
	}

	return mempoolBlocks
}

// Build constructs the block summary for the accumulated
// transactions. All transactions feed the totals and the fee statistics.
// The stripped subset for client delivery is capped at a relaxed weight
// limit; the check runs against the running weight with the current
// transaction already counted.
func Build(txs []*mempool.Tx, weightUnits int64, percentiles []int) BlockWithTransactions {
	var blockSize int64
	var blockWeight int64
	var totalFees int64

	txIDs := make([]mempool.TxID, len(txs))
	for i, tx := range txs {
		blockSize += tx.Size
		blockWeight += tx.Weight
		totalFees += tx.Fee
		txIDs[i] = tx.TxID
	}

	stats := mempool.CalcEffectiveFeeStatistics(txs, percentiles)

	relaxedCap := int64(relaxedCapFactor * float64(weightUnits))
	var totalWeight int64
	stripped := make([]mempool.StrippedTx, 0, len(txs))
	for _, tx := range txs {
		totalWeight += tx.Weight
		if totalWeight <= relaxedCap {
			stripped = append(stripped, tx.Strip())
		}
	}

	return BlockWithTransactions{
		Block: Block{
			BlockSize:  blockSize,
			BlockVSize: float64(blockWeight) / 4,
			NTx:        len(txs),
			TotalFees:  totalFees,
			MedianFee:  stats.MedianFee,
			FeeRange:   stats.FeeRange,
		},
		TransactionIDs: txIDs,
		Transactions:   stripped,
	}
}
