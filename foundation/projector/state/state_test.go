package state_test

import (
	"context"
	"strings"
	"testing"

	"github.com/blockcast/blockcast/foundation/projector/mempool"
	"github.com/blockcast/blockcast/foundation/projector/state"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// txid builds a deterministic 64 character identifier for tests.
func txid(c string) mempool.TxID {
	return mempool.TxID(strings.Repeat(c, 64))
}

// newState constructs an engine with the default test configuration.
func newState(t *testing.T) *state.State {
	s, err := state.New(state.Config{
		BlockWeightUnits:    4_000_000,
		MempoolBlocksAmount: 8,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %s", failed, err)
	}
	return s
}

func TestFastPath(t *testing.T) {
	t.Log("Given the need to project blocks on the synchronous fast path.")
	{
		t.Logf("\tTest 0:\tWhen handling a single transaction mempool.")
		{
			s := newState(t)

			tx := mempool.Tx{TxID: txid("a"), Fee: 1000, Weight: 400, Size: 100}
			mp := map[mempool.TxID]*mempool.Tx{tx.TxID: &tx}

			projection := s.UpdateMempoolBlocks(mp, true)

			if len(projection) != 1 || projection[0].NTx != 1 || projection[0].TotalFees != 1000 {
				t.Fatalf("\t%s\tTest 0:\tShould project one block with the transaction: %+v", failed, projection)
			}
			t.Logf("\t%s\tTest 0:\tShould project one block with the transaction.", success)

			if tx.Position == nil || tx.Position.Block != 0 || tx.Position.Vsize != 50 {
				t.Fatalf("\t%s\tTest 0:\tShould assign the position {0 50}: %+v", failed, tx.Position)
			}
			t.Logf("\t%s\tTest 0:\tShould assign the position {0 50}.", success)

			if len(s.RetrieveMempoolBlocks()) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould publish the snapshot.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould publish the snapshot.", success)

			deltas := s.RetrieveMempoolBlockDeltas()
			if len(deltas) != 1 || len(deltas[0].Added) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould publish the delta against the empty snapshot: %+v", failed, deltas)
			}
			t.Logf("\t%s\tTest 0:\tShould publish the delta against the empty snapshot.", success)
		}

		t.Logf("\tTest 1:\tWhen a child pays for its parent.")
		{
			s := newState(t)

			parent := mempool.Tx{TxID: txid("1"), Fee: 0, Weight: 400, Size: 100}
			child := mempool.Tx{TxID: txid("2"), Fee: 2000, Weight: 400, Size: 100, Vin: []mempool.TxID{parent.TxID}}
			mp := map[mempool.TxID]*mempool.Tx{
				parent.TxID: &parent,
				child.TxID:  &child,
			}

			projection := s.UpdateMempoolBlocks(mp, true)

			if parent.EffectiveFeePerVsize != 10 || child.EffectiveFeePerVsize != 10 {
				t.Fatalf("\t%s\tTest 1:\tShould lift both transactions to 10: %v %v", failed, parent.EffectiveFeePerVsize, child.EffectiveFeePerVsize)
			}
			t.Logf("\t%s\tTest 1:\tShould lift both transactions to 10.", success)

			if len(projection) != 1 || projection[0].NTx != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould pack both in block zero: %+v", failed, projection)
			}
			t.Logf("\t%s\tTest 1:\tShould pack both in block zero.", success)
		}

		t.Logf("\tTest 2:\tWhen the mempool is empty.")
		{
			s := newState(t)

			projection := s.UpdateMempoolBlocks(map[mempool.TxID]*mempool.Tx{}, true)
			if len(projection) != 0 {
				t.Fatalf("\t%s\tTest 2:\tShould project no blocks: %d", failed, len(projection))
			}
			t.Logf("\t%s\tTest 2:\tShould project no blocks.", success)
		}
	}
}

func TestBlockTemplates(t *testing.T) {
	t.Log("Given the need to project blocks with the template worker.")
	{
		t.Logf("\tTest 0:\tWhen running a full rebuild with a CPFP pair.")
		{
			s := newState(t)
			defer s.Shutdown()

			parent := mempool.Tx{TxID: txid("1"), Fee: 0, Weight: 400, Size: 100}
			child := mempool.Tx{TxID: txid("2"), Fee: 2000, Weight: 400, Size: 100, Vin: []mempool.TxID{parent.TxID}}
			mp := map[mempool.TxID]*mempool.Tx{
				parent.TxID: &parent,
				child.TxID:  &child,
			}

			projection, err := s.MakeBlockTemplates(context.Background(), mp, true)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould rebuild without error: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould rebuild without error.", success)

			if len(projection) != 1 || projection[0].NTx != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould pack both in block zero: %+v", failed, projection)
			}
			t.Logf("\t%s\tTest 0:\tShould pack both in block zero.", success)

			if parent.EffectiveFeePerVsize != 10 || child.EffectiveFeePerVsize != 10 {
				t.Fatalf("\t%s\tTest 0:\tShould lift both transactions to 10: %v %v", failed, parent.EffectiveFeePerVsize, child.EffectiveFeePerVsize)
			}
			t.Logf("\t%s\tTest 0:\tShould lift both transactions to 10.", success)

			if len(child.Ancestors) != 1 || child.Ancestors[0].TxID != parent.TxID {
				t.Fatalf("\t%s\tTest 0:\tShould enrich the child with its ancestor: %+v", failed, child.Ancestors)
			}
			t.Logf("\t%s\tTest 0:\tShould enrich the child with its ancestor.", success)

			if len(parent.Descendants) != 1 || parent.Descendants[0].TxID != child.TxID {
				t.Fatalf("\t%s\tTest 0:\tShould enrich the parent with its descendant: %+v", failed, parent.Descendants)
			}
			t.Logf("\t%s\tTest 0:\tShould enrich the parent with its descendant.", success)

			if parent.Position == nil || parent.Position.Vsize != 50 || child.Position == nil || child.Position.Vsize != 150 {
				t.Fatalf("\t%s\tTest 0:\tShould assign mid point positions: %+v %+v", failed, parent.Position, child.Position)
			}
			t.Logf("\t%s\tTest 0:\tShould assign mid point positions.", success)
		}

		t.Logf("\tTest 1:\tWhen the worker reply races the live mempool.")
		{
			s := newState(t)
			defer s.Shutdown()

			a := mempool.Tx{TxID: txid("a"), Fee: 4000, Weight: 400, Size: 100}
			b := mempool.Tx{TxID: txid("b"), Fee: 3000, Weight: 400, Size: 100}
			mp := map[mempool.TxID]*mempool.Tx{
				a.TxID: &a,
				b.TxID: &b,
			}

			if _, err := s.MakeBlockTemplates(context.Background(), mp, true); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould rebuild without error: %s", failed, err)
			}

			// The worker mirror still holds b, the live view no longer does.
			live := map[mempool.TxID]*mempool.Tx{a.TxID: &a}
			if err := s.UpdateBlockTemplates(context.Background(), live, nil, nil, true); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould update without error: %s", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould update without error.", success)

			projection := s.RetrieveMempoolBlocksWithTransactions()
			if len(projection) != 1 || projection[0].NTx != 1 || projection[0].TransactionIDs[0] != a.TxID {
				t.Fatalf("\t%s\tTest 1:\tShould filter the stale transaction: %+v", failed, projection)
			}
			t.Logf("\t%s\tTest 1:\tShould filter the stale transaction.", success)

			if s.RetrieveStaleDrops() != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould count one stale drop: %d", failed, s.RetrieveStaleDrops())
			}
			t.Logf("\t%s\tTest 1:\tShould count one stale drop.", success)
		}

		t.Logf("\tTest 2:\tWhen the worker request fails.")
		{
			s := newState(t)
			defer s.Shutdown()

			tx := mempool.Tx{TxID: txid("c"), Fee: 1000, Weight: 400, Size: 100}
			mp := map[mempool.TxID]*mempool.Tx{tx.TxID: &tx}

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := s.MakeBlockTemplates(ctx, mp, true); err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould report the failed request.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould report the failed request.", success)

			// The dropped handle forces the next update into a full rebuild.
			if err := s.UpdateBlockTemplates(context.Background(), mp, nil, nil, true); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould recover with a full rebuild: %s", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould recover with a full rebuild.", success)

			projection := s.RetrieveMempoolBlocksWithTransactions()
			if len(projection) != 1 || projection[0].NTx != 1 {
				t.Fatalf("\t%s\tTest 2:\tShould publish the rebuilt snapshot: %+v", failed, projection)
			}
			t.Logf("\t%s\tTest 2:\tShould publish the rebuilt snapshot.", success)
		}

		t.Logf("\tTest 3:\tWhen the mempool is empty.")
		{
			s := newState(t)
			defer s.Shutdown()

			projection, err := s.MakeBlockTemplates(context.Background(), map[mempool.TxID]*mempool.Tx{}, true)
			if err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould rebuild without error: %s", failed, err)
			}
			if len(projection) != 0 {
				t.Fatalf("\t%s\tTest 3:\tShould project no blocks: %d", failed, len(projection))
			}
			t.Logf("\t%s\tTest 3:\tShould project no blocks.", success)
		}
	}
}

func TestRecommendedFees(t *testing.T) {
	t.Log("Given the need to derive fee advice from the projection.")
	{
		t.Logf("\tTest 0:\tWhen the projection is empty.")
		{
			s := newState(t)

			fees := s.RetrieveRecommendedFees()
			if fees.FastestFee != 1 || fees.HalfHourFee != 1 || fees.HourFee != 1 || fees.MinimumFee != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould fall back to the floor: %+v", failed, fees)
			}
			t.Logf("\t%s\tTest 0:\tShould fall back to the floor.", success)
		}

		t.Logf("\tTest 1:\tWhen one block is projected.")
		{
			s := newState(t)

			tx := mempool.Tx{TxID: txid("a"), Fee: 1000, Weight: 400, Size: 100}
			s.UpdateMempoolBlocks(map[mempool.TxID]*mempool.Tx{tx.TxID: &tx}, true)

			fees := s.RetrieveRecommendedFees()
			if fees.FastestFee != 10 || fees.HalfHourFee != 10 || fees.HourFee != 10 {
				t.Fatalf("\t%s\tTest 1:\tShould recommend the block rate of 10: %+v", failed, fees)
			}
			t.Logf("\t%s\tTest 1:\tShould recommend the block rate of 10.", success)
		}
	}
}
