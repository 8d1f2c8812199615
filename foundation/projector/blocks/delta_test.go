package blocks_test

import (
	"testing"

	"github.com/blockcast/blockcast/foundation/projector/blocks"
	"github.com/blockcast/blockcast/foundation/projector/mempool"
)

// projectionOf packs the transactions into a projection for delta tests.
func projectionOf(txs ...*mempool.Tx) []blocks.BlockWithTransactions {
	return blocks.Pack(txs, 4_000_000, 8, percentiles)
}

func TestDeltaIdempotence(t *testing.T) {
	t.Log("Given the need for empty deltas between identical projections.")
	{
		t.Logf("\tTest 0:\tWhen diffing a projection against itself.")
		{
			projection := projectionOf(
				tran("a", 4000, 400, 100),
				tran("b", 3000, 400, 100),
			)

			deltas := blocks.ComputeDeltas(projection, projection)

			if len(deltas) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould produce one delta: %d", failed, len(deltas))
			}
			t.Logf("\t%s\tTest 0:\tShould produce one delta.", success)

			d := deltas[0]
			if len(d.Added) != 0 || len(d.Removed) != 0 || len(d.Changed) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould produce an all empty delta: %+v", failed, d)
			}
			t.Logf("\t%s\tTest 0:\tShould produce an all empty delta.", success)
		}
	}
}

func TestDeltaRateChange(t *testing.T) {
	t.Log("Given the need to report rate changes in place.")
	{
		t.Logf("\tTest 0:\tWhen a transaction's rate moves between snapshots.")
		{
			prevTx := tran("a", 2000, 1600, 400)
			prev := projectionOf(prevTx)

			newTx := tran("a", 2000, 1600, 400)
			newTx.EffectiveFeePerVsize = 7
			next := projectionOf(newTx)

			deltas := blocks.ComputeDeltas(prev, next)

			d := deltas[0]
			if len(d.Added) != 0 || len(d.Removed) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould not add or remove anything: %+v", failed, d)
			}
			t.Logf("\t%s\tTest 0:\tShould not add or remove anything.", success)

			if len(d.Changed) != 1 || d.Changed[0].TxID != txid("a") || d.Changed[0].Rate != 7 {
				t.Fatalf("\t%s\tTest 0:\tShould report the changed rate of 7: %+v", failed, d.Changed)
			}
			t.Logf("\t%s\tTest 0:\tShould report the changed rate of 7.", success)
		}
	}
}

func TestDeltaBlockCountChanges(t *testing.T) {
	t.Log("Given the need to diff projections of different lengths.")
	{
		t.Logf("\tTest 0:\tWhen a block only exists in the new projection.")
		{
			next := projectionOf(tran("a", 4000, 400, 100))

			deltas := blocks.ComputeDeltas(nil, next)

			if len(deltas) != 1 || len(deltas[0].Added) != 1 || deltas[0].Added[0].TxID != txid("a") {
				t.Fatalf("\t%s\tTest 0:\tShould add the whole new block: %+v", failed, deltas)
			}
			t.Logf("\t%s\tTest 0:\tShould add the whole new block.", success)
		}

		t.Logf("\tTest 1:\tWhen a block only exists in the previous projection.")
		{
			prev := projectionOf(tran("a", 4000, 400, 100))

			deltas := blocks.ComputeDeltas(prev, nil)

			if len(deltas) != 1 || len(deltas[0].Removed) != 1 || deltas[0].Removed[0] != txid("a") {
				t.Fatalf("\t%s\tTest 1:\tShould remove every txid of the old block: %+v", failed, deltas)
			}
			t.Logf("\t%s\tTest 1:\tShould remove every txid of the old block.", success)
		}
	}
}

func TestDeltaSoundness(t *testing.T) {
	t.Log("Given the need for deltas that replay into the new projection.")
	{
		t.Logf("\tTest 0:\tWhen transactions churn inside a block.")
		{
			prev := projectionOf(
				tran("a", 4000, 400, 100),
				tran("b", 3000, 400, 100),
				tran("c", 2000, 400, 100),
			)

			next := projectionOf(
				tran("a", 4000, 400, 100),
				tran("d", 3500, 400, 100),
			)

			deltas := blocks.ComputeDeltas(prev, next)
			d := deltas[0]

			// Replay the delta on top of the previous block.
			result := make(map[mempool.TxID]bool)
			for _, tx := range prev[0].Transactions {
				result[tx.TxID] = true
			}
			for _, id := range d.Removed {
				delete(result, id)
			}
			for _, tx := range d.Added {
				result[tx.TxID] = true
			}

			if len(result) != len(next[0].Transactions) {
				t.Fatalf("\t%s\tTest 0:\tShould replay to the new transaction set: %d", failed, len(result))
			}
			for _, tx := range next[0].Transactions {
				if !result[tx.TxID] {
					t.Fatalf("\t%s\tTest 0:\tShould replay to include %s.", failed, tx.TxID[:8])
				}
			}
			t.Logf("\t%s\tTest 0:\tShould replay to the new transaction set.", success)
		}
	}
}
