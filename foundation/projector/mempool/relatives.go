package mempool

// SetRelativesAndGetCPFPInfo walks the unconfirmed ancestors of the
// specified transaction and applies the CPFP accounting: the ancestor list
// is populated, each ancestor learns about its best fee paying descendant,
// and the transaction's effective fee rate becomes the package rate over
// the ancestor closure including the transaction itself and its best
// descendant. Missing ancestors are confirmed or unknown and are skipped.
func SetRelativesAndGetCPFPInfo(tx *Tx, mp map[TxID]*Tx) {
	parents := findAllParents(tx, mp, make(map[TxID]bool))

	totalFees := tx.Fee
	totalWeight := tx.Weight

	ancestors := make([]Relative, 0, len(parents))
	for _, parent := range parents {
		totalFees += parent.Fee
		totalWeight += parent.Weight
		ancestors = append(ancestors, Relative{
			TxID:   parent.TxID,
			Fee:    parent.Fee,
			Weight: parent.Weight,
		})
	}
	tx.Ancestors = ancestors

	// A descendant paying for this transaction lifts the rate the same
	// way the transaction lifts its own ancestors.
	if tx.BestDescendant != nil {
		totalFees += tx.BestDescendant.Fee
		totalWeight += tx.BestDescendant.Weight
	}

	if totalWeight > 0 {
		if totalFees < 0 {
			totalFees = 0
		}
		tx.EffectiveFeePerVsize = float64(totalFees) / (float64(totalWeight) / 4)
	}

	tx.CPFPChecked = true
}

// findAllParents returns every ancestor of the transaction reachable
// through unconfirmed inputs. While walking, each parent learns about the
// best descendant seen so far. The seen map refuses to revisit a
// transaction so pathological input cannot recurse forever.
func findAllParents(tx *Tx, mp map[TxID]*Tx, seen map[TxID]bool) []*Tx {
	var parents []*Tx

	for _, vin := range tx.Vin {
		if seen[vin] {
			continue
		}

		parent, exists := mp[vin]
		if !exists {
			continue
		}
		seen[vin] = true

		// Let the parent know about the chain of transactions paying
		// for it when that chain beats the transaction on its own.
		switch {
		case tx.BestDescendant != nil && rate(tx.BestDescendant.Fee, tx.BestDescendant.Weight) > tx.FeePerVsize():
			if parent.BestDescendant == nil || parent.BestDescendant.Fee < tx.Fee+tx.BestDescendant.Fee {
				parent.BestDescendant = &Relative{
					TxID:   tx.TxID,
					Fee:    tx.Fee + tx.BestDescendant.Fee,
					Weight: tx.Weight + tx.BestDescendant.Weight,
				}
			}

		case tx.FeePerVsize() > parent.FeePerVsize():
			if parent.BestDescendant == nil || parent.BestDescendant.Fee < tx.Fee {
				parent.BestDescendant = &Relative{
					TxID:   tx.TxID,
					Fee:    tx.Fee,
					Weight: tx.Weight,
				}
			}
		}

		parents = append(parents, parent)
		parents = append(parents, findAllParents(parent, mp, seen)...)
	}

	return parents
}

// rate computes a fee rate in sats per vbyte.
func rate(fee int64, weight int64) float64 {
	if weight == 0 {
		return 0
	}
	return float64(fee) / (float64(weight) / 4)
}
