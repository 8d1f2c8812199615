package mempool_test

import (
	"testing"
	"time"

	"github.com/blockcast/blockcast/foundation/projector/mempool"
)

func TestPoolCRUD(t *testing.T) {
	t.Log("Given the need to validate the pool api.")
	{
		t.Logf("\tTest 0:\tWhen handling a set of transactions.")
		{
			mp := mempool.NewPool()

			txs := []*mempool.Tx{
				{TxID: txid("a"), Fee: 1000, Weight: 400},
				{TxID: txid("b"), Fee: 2000, Weight: 800},
				{TxID: txid("c"), Fee: 3000, Weight: 1200},
			}

			for _, tx := range txs {
				mp.Upsert(tx)
			}

			if mp.Count() != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould be able to add new transactions: %d", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould be able to add new transactions.", success)

			if _, exists := mp.Retrieve(txid("b")); !exists {
				t.Fatalf("\t%s\tTest 0:\tShould be able to retrieve a transaction.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to retrieve a transaction.", success)

			mp.Delete(txid("b"))
			if mp.Count() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould be able to remove a transaction: %d", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould be able to remove a transaction.", success)

			mp.Truncate()
			if mp.Count() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould be able to truncate the pool: %d", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould be able to truncate the pool.", success)
		}

		t.Logf("\tTest 1:\tWhen transactions carry a tombstone.")
		{
			mp := mempool.NewPool()

			mp.Upsert(&mempool.Tx{TxID: txid("a"), Fee: 1000, Weight: 400})
			mp.Upsert(&mempool.Tx{TxID: txid("b"), Fee: 2000, Weight: 800, DeleteAfter: time.Now()})

			live := mp.Copy()
			if len(live) != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould filter tombstoned transactions from Copy: %d", failed, len(live))
			}
			t.Logf("\t%s\tTest 1:\tShould filter tombstoned transactions from Copy.", success)

			stripped := mp.CopyStripped()
			if len(stripped) != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould filter tombstoned transactions from CopyStripped: %d", failed, len(stripped))
			}
			t.Logf("\t%s\tTest 1:\tShould filter tombstoned transactions from CopyStripped.", success)

			if stripped[txid("a")].FeePerVsize != 10 {
				t.Fatalf("\t%s\tTest 1:\tShould carry the fee rate on the stripped record: %v", failed, stripped[txid("a")].FeePerVsize)
			}
			t.Logf("\t%s\tTest 1:\tShould carry the fee rate on the stripped record.", success)
		}
	}
}

func TestSortDeterminism(t *testing.T) {
	t.Log("Given the need for a deterministic packing order.")
	{
		t.Logf("\tTest 0:\tWhen transactions share the same fee rate.")
		{
			txs := []*mempool.Tx{
				{TxID: txid("c"), Fee: 1000, Weight: 400},
				{TxID: txid("a"), Fee: 1000, Weight: 400},
				{TxID: txid("b"), Fee: 2000, Weight: 400},
			}

			mempool.SortByFeeRate(txs)

			order := []mempool.TxID{txid("b"), txid("a"), txid("c")}
			for i, tx := range txs {
				if tx.TxID != order[i] {
					t.Fatalf("\t%s\tTest 0:\tShould sort by rate desc with txid tie break: got %s at %d", failed, tx.TxID[:8], i)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould sort by rate desc with txid tie break.", success)

			for _, tx := range txs {
				tx.EffectiveFeePerVsize = tx.FeePerVsize()
			}
			mempool.SortByEffectiveFeeRate(txs)

			for i, tx := range txs {
				if tx.TxID != order[i] {
					t.Fatalf("\t%s\tTest 0:\tShould sort effective rates the same way: got %s at %d", failed, tx.TxID[:8], i)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould sort effective rates the same way.", success)
		}
	}
}

func TestFeeStatistics(t *testing.T) {
	t.Log("Given the need to compute the fee statistics of a block.")
	{
		t.Logf("\tTest 0:\tWhen handling a spread of fee rates.")
		{
			txs := make([]*mempool.Tx, 0, 5)
			for i, fee := range []int64{100, 200, 300, 400, 500} {
				tx := mempool.Tx{TxID: txid(string(rune('a' + i))), Fee: fee, Weight: 400}
				tx.EffectiveFeePerVsize = tx.FeePerVsize()
				txs = append(txs, &tx)
			}

			stats := mempool.CalcEffectiveFeeStatistics(txs, []int{0, 50, 100})

			if stats.MedianFee != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould compute the median fee of 3: %v", failed, stats.MedianFee)
			}
			t.Logf("\t%s\tTest 0:\tShould compute the median fee of 3.", success)

			want := []float64{1, 3, 5}
			for i, rate := range stats.FeeRange {
				if rate != want[i] {
					t.Fatalf("\t%s\tTest 0:\tShould compute the fee range %v: %v", failed, want, stats.FeeRange)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould compute the fee range %v.", success, want)
		}

		t.Logf("\tTest 1:\tWhen the block is empty.")
		{
			stats := mempool.CalcEffectiveFeeStatistics(nil, []int{10, 50, 90})

			if stats.MedianFee != 0 || len(stats.FeeRange) != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould return zero statistics: %+v", failed, stats)
			}
			t.Logf("\t%s\tTest 1:\tShould return zero statistics.", success)
		}
	}
}

func TestToTxID(t *testing.T) {
	t.Log("Given the need to validate txid formatting.")
	{
		t.Logf("\tTest 0:\tWhen handling well and badly formed ids.")
		{
			hex := "4A5E1E4BAAB89F3A32518A88C31BC87F618F76673E2CC77AB2127B7AFDEDA33B"

			id, err := mempool.ToTxID(hex)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept a 64 character hex id: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould accept a 64 character hex id.", success)

			if id != mempool.TxID("4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b") {
				t.Fatalf("\t%s\tTest 0:\tShould lowercase the id: %s", failed, id)
			}
			t.Logf("\t%s\tTest 0:\tShould lowercase the id.", success)

			if _, err := mempool.ToTxID("abc123"); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject a short id.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a short id.", success)

			if _, err := mempool.ToTxID(string(txid("z"))); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject a non hex id.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a non hex id.", success)
		}
	}
}
