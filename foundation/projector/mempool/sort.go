package mempool

import "sort"

// SortByFeeRate sorts the transactions by their own fee rate in descending
// order. Ties break on txid ascending so the order is deterministic.
func SortByFeeRate(txs []*Tx) {
	sort.Sort(byFeeRate(txs))
}

// SortByEffectiveFeeRate sorts the transactions by their effective fee
// rate in descending order. Ties break on txid ascending so the order is
// deterministic.
func SortByEffectiveFeeRate(txs []*Tx) {
	sort.Sort(byEffectiveFeeRate(txs))
}

// =============================================================================

// byFeeRate provides sorting support by the transaction's own fee rate.
type byFeeRate []*Tx

// Len returns the number of transactions in the list.
func (bf byFeeRate) Len() int {
	return len(bf)
}

// Less helps to sort the list by fee rate in descending order with the
// txid tie break. The tie break is a correctness property: without it,
// delta noise appears between otherwise identical snapshots.
func (bf byFeeRate) Less(i, j int) bool {
	ri := bf[i].FeePerVsize()
	rj := bf[j].FeePerVsize()
	if ri != rj {
		return ri > rj
	}
	return bf[i].TxID < bf[j].TxID
}

// Swap moves transactions in the order of the fee rate value.
func (bf byFeeRate) Swap(i, j int) {
	bf[i], bf[j] = bf[j], bf[i]
}

// =============================================================================

// byEffectiveFeeRate provides sorting support by the effective fee rate
// after CPFP resolution.
type byEffectiveFeeRate []*Tx

// Len returns the number of transactions in the list.
func (be byEffectiveFeeRate) Len() int {
	return len(be)
}

// Less helps to sort the list by effective fee rate in descending order
// with the txid tie break.
func (be byEffectiveFeeRate) Less(i, j int) bool {
	if be[i].EffectiveFeePerVsize != be[j].EffectiveFeePerVsize {
		return be[i].EffectiveFeePerVsize > be[j].EffectiveFeePerVsize
	}
	return be[i].TxID < be[j].TxID
}

// Swap moves transactions in the order of the effective fee rate value.
func (be byEffectiveFeeRate) Swap(i, j int) {
	be[i], be[j] = be[j], be[i]
}
