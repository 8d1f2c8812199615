// Package mempool provides the transaction model and pool support for the
// block projection engine.
package mempool

import (
	"fmt"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// TxID represents a transaction id as a lowercase hex string.
type TxID string

// ToTxID converts the specified hex string to a TxID and validates the
// format of the id.
func ToTxID(hex string) (TxID, error) {
	hex = strings.ToLower(hex)

	if len(hex) != chainhash.MaxHashStringSize {
		return "", fmt.Errorf("txid %q is not properly formatted", hex)
	}
	if _, err := chainhash.NewHashFromStr(hex); err != nil {
		return "", fmt.Errorf("txid %q is not properly formatted: %w", hex, err)
	}

	return TxID(hex), nil
}

// =============================================================================

// Relative summarizes an unconfirmed ancestor or descendant inside a
// CPFP cluster.
type Relative struct {
	TxID   TxID  `json:"txid"`
	Fee    int64 `json:"fee"`
	Weight int64 `json:"weight"`
}

// BlockPosition is the mid-point vsize offset of a transaction within its
// assigned projected block.
type BlockPosition struct {
	Block int     `json:"block"`
	Vsize float64 `json:"vsize"`
}

// =============================================================================

// Tx is a mempool resident transaction with the projection fields the
// engine maintains.
type Tx struct {
	TxID   TxID   `json:"txid"`
	Fee    int64  `json:"fee"`
	Weight int64  `json:"weight"`
	Size   int64  `json:"size"`
	Vin    []TxID `json:"vin"`

	EffectiveFeePerVsize float64        `json:"effectiveFeePerVsize"`
	Ancestors            []Relative     `json:"ancestors,omitempty"`
	Descendants          []Relative     `json:"descendants,omitempty"`
	BestDescendant       *Relative      `json:"bestDescendant,omitempty"`
	CPFPChecked          bool           `json:"cpfpChecked"`
	Position             *BlockPosition `json:"position,omitempty"`

	// DeleteAfter is a tombstone set by the ingestion layer. A non-zero
	// value excludes the transaction from projection inputs.
	DeleteAfter time.Time `json:"-"`
}

// Vsize returns the virtual size of the transaction in vbytes.
func (tx *Tx) Vsize() float64 {
	return float64(tx.Weight) / 4
}

// FeePerVsize returns the fee rate of the transaction on its own, without
// any CPFP lifting applied.
func (tx *Tx) FeePerVsize() float64 {
	if tx.Weight == 0 {
		return 0
	}
	return float64(tx.Fee) / tx.Vsize()
}

// Rate returns the fee rate used for client delivery. The effective rate
// wins once the resolver or the template builder produced one.
func (tx *Tx) Rate() float64 {
	if tx.EffectiveFeePerVsize != 0 {
		return tx.EffectiveFeePerVsize
	}
	return tx.FeePerVsize()
}

// Strip returns the compact client facing form of the transaction.
func (tx *Tx) Strip() StrippedTx {
	return StrippedTx{
		TxID:  tx.TxID,
		Fee:   tx.Fee,
		Vsize: tx.Vsize(),
		Rate:  tx.Rate(),
	}
}

// Thread returns the stripped record exchanged with the template builder.
func (tx *Tx) Thread() *ThreadTx {
	vin := make([]TxID, len(tx.Vin))
	copy(vin, tx.Vin)

	return &ThreadTx{
		TxID:                 tx.TxID,
		Fee:                  tx.Fee,
		Weight:               tx.Weight,
		FeePerVsize:          tx.FeePerVsize(),
		EffectiveFeePerVsize: tx.EffectiveFeePerVsize,
		Vin:                  vin,
	}
}

// =============================================================================

// ThreadTx is the compact record the template builder works with. The
// builder never shares memory with the pool, so these values are always
// sent by value.
type ThreadTx struct {
	TxID                 TxID    `json:"txid"`
	Fee                  int64   `json:"fee"`
	Weight               int64   `json:"weight"`
	FeePerVsize          float64 `json:"feePerVsize"`
	EffectiveFeePerVsize float64 `json:"effectiveFeePerVsize"`
	Vin                  []TxID  `json:"vin"`
}

// Vsize returns the virtual size of the transaction in vbytes.
func (tx *ThreadTx) Vsize() float64 {
	return float64(tx.Weight) / 4
}

// =============================================================================

// StrippedTx is the compact public form of a transaction delivered
// to clients.
type StrippedTx struct {
	TxID  TxID    `json:"txid"`
	Fee   int64   `json:"fee"`
	Vsize float64 `json:"vsize"`
	Rate  float64 `json:"rate"`
}
