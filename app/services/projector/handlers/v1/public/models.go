package public

import (
	"github.com/blockcast/blockcast/foundation/projector/mempool"
)

// txPosition is the response shape for a single transaction lookup.
type txPosition struct {
	TxID                 mempool.TxID           `json:"txid"`
	Position             *mempool.BlockPosition `json:"position,omitempty"`
	EffectiveFeePerVsize float64                `json:"effectiveFeePerVsize"`
	Ancestors            []mempool.Relative     `json:"ancestors,omitempty"`
	Descendants          []mempool.Relative     `json:"descendants,omitempty"`
	BestDescendant       *mempool.Relative      `json:"bestDescendant,omitempty"`
	CPFPChecked          bool                   `json:"cpfpChecked"`
}
