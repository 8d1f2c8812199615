// Package blocks implements weight bounded packing of mempool
// transactions into projected blocks and the delta computation between
// successive projections.
package blocks

import (
	"github.com/blockcast/blockcast/foundation/projector/mempool"
)

// Block summarizes one projected block.
type Block struct {
	BlockSize  int64     `json:"blockSize"`
	BlockVSize float64   `json:"blockVSize"`
	NTx        int       `json:"nTx"`
	TotalFees  int64     `json:"totalFees"`
	MedianFee  float64   `json:"medianFee"`
	FeeRange   []float64 `json:"feeRange"`
}

// BlockWithTransactions is a projected block summary together with the
// packed txids and the stripped subset retained for client delivery.
type BlockWithTransactions struct {
	Block
	TransactionIDs []mempool.TxID       `json:"transactionIds"`
	Transactions   []mempool.StrippedTx `json:"transactions"`
}

// Summary returns the block summary without the transaction payload.
func (b BlockWithTransactions) Summary() Block {
	return b.Block
}

// =============================================================================

// RateChange records a fee rate change of a transaction that stayed in
// the same projected block between two snapshots.
type RateChange struct {
	TxID mempool.TxID `json:"txid"`
	Rate float64      `json:"rate"`
}

// Delta carries the per block difference between two successive
// projections.
type Delta struct {
	Added   []mempool.StrippedTx `json:"added"`
	Removed []mempool.TxID       `json:"removed"`
	Changed []RateChange         `json:"changed"`
}
