package mempool

import "sort"

// FeeStats carries the fee statistics of a projected block.
type FeeStats struct {
	MedianFee float64
	FeeRange  []float64
}

// CalcEffectiveFeeStatistics computes the median fee and the percentile
// fee range over the effective fee rates of the specified transactions.
// The percentiles are expressed as integers in the range [0,100].
func CalcEffectiveFeeStatistics(txs []*Tx, percentiles []int) FeeStats {
	if len(txs) == 0 {
		return FeeStats{FeeRange: []float64{}}
	}

	rates := make([]float64, len(txs))
	for i, tx := range txs {
		rates[i] = tx.Rate()
	}
	sort.Float64s(rates)

	feeRange := make([]float64, len(percentiles))
	for i, p := range percentiles {
		feeRange[i] = percentile(rates, p)
	}

	return FeeStats{
		MedianFee: percentile(rates, 50),
		FeeRange:  feeRange,
	}
}

// percentile returns the value at the specified percentile of the sorted
// rates using the nearest rank on the closed index range. This keeps the
// statistics deterministic regardless of platform rounding.
func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}

	idx := (p*(len(sorted)-1) + 50) / 100
	return sorted[idx]
}
