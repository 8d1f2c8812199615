// Package template implements the block template builder. The builder owns
// a mirror of the mempool and produces projected blocks with a proper
// cluster aware selection: transactions are chosen by ancestor package rate
// so a high fee child pulls its cheap ancestors into the same block.
package template

import (
	"sort"

	"github.com/blockcast/blockcast/foundation/projector/mempool"
	"github.com/google/btree"
)

// ResultTx is one selected transaction inside a projected block.
type ResultTx struct {
	TxID                 mempool.TxID
	EffectiveFeePerVsize *float64
	CPFPRoot             *mempool.TxID
	CPFPChecked          bool
}

// Result is the reply produced for every message sent to the builder.
type Result struct {
	Blocks   [][]ResultTx
	Clusters map[mempool.TxID][]mempool.TxID
}

// =============================================================================

// entry is a mirror resident transaction together with its relations.
type entry struct {
	tx        *mempool.ThreadTx
	parents   map[mempool.TxID]bool
	children  map[mempool.TxID]bool
	ancestors map[mempool.TxID]bool
	score     float64
	selected  bool
}

// candidate is the btree item ordering the selection queue. The tree's
// maximum is the entry with the highest ancestor score, ties resolving to
// the smallest txid.
type candidate struct {
	txID  mempool.TxID
	score float64
}

// Less implements the btree ordering for candidates.
func (c candidate) Less(than btree.Item) bool {
	t := than.(candidate)
	if c.score != t.score {
		return c.score < t.score
	}
	return c.txID > t.txID
}

// =============================================================================

// Builder maintains the mempool mirror between messages and performs the
// cluster aware block selection.
type Builder struct {
	weightUnits int64
	maxBlocks   int
	mirror      map[mempool.TxID]*entry
}

// NewBuilder constructs a builder for the specified block constraints.
func NewBuilder(weightUnits int64, maxBlocks int) *Builder {
	return &Builder{
		weightUnits: weightUnits,
		maxBlocks:   maxBlocks,
		mirror:      make(map[mempool.TxID]*entry),
	}
}

// SetMempool replaces the builder's entire view of the mempool and
// produces a fresh projection.
func (b *Builder) SetMempool(mp map[mempool.TxID]*mempool.ThreadTx) Result {
	b.mirror = make(map[mempool.TxID]*entry, len(mp))
	for txID, tx := range mp {
		b.mirror[txID] = &entry{tx: tx}
	}

	return b.build()
}

// UpdateMempool applies an incremental diff to the builder's view and
// produces a fresh projection.
func (b *Builder) UpdateMempool(added []*mempool.ThreadTx, removed []mempool.TxID) Result {
	for _, tx := range added {
		b.mirror[tx.TxID] = &entry{tx: tx}
	}
	for _, txID := range removed {
		delete(b.mirror, txID)
	}

	return b.build()
}

// =============================================================================

// build runs the full selection over the current mirror.
func (b *Builder) build() Result {
	b.relate()

	tree := btree.New(32)
	for txID, e := range b.mirror {
		e.selected = false
		e.score = b.packageRate(e)
		tree.ReplaceOrInsert(candidate{txID: txID, score: e.score})
	}

	result := Result{
		Blocks:   [][]ResultTx{},
		Clusters: make(map[mempool.TxID][]mempool.TxID),
	}

	var block []ResultTx
	var blockWeight int64

	for tree.Len() > 0 {
		item := tree.DeleteMax().(candidate)
		e := b.mirror[item.txID]

		// Entries swept in earlier as package ancestors still hold a
		// queue position; skip them here.
		if e == nil || e.selected {
			continue
		}

		members, pkgWeight := b.packageMembers(e)
		rate := e.score

		// Close the current block when the package does not fit,
		// unless this is the last permitted block which absorbs the
		// remainder of the mempool.
		if len(block) > 0 && blockWeight+pkgWeight > b.weightUnits && len(result.Blocks) < b.maxBlocks-1 {
			result.Blocks = append(result.Blocks, block)
			block = nil
			blockWeight = 0
		}

		var root *mempool.TxID
		if len(members) > 1 {
			rootID := e.tx.TxID
			root = &rootID

			cluster := make([]mempool.TxID, len(members))
			for i, m := range members {
				cluster[i] = m.tx.TxID
			}
			result.Clusters[rootID] = cluster
		}

		for _, m := range members {
			m.selected = true
			eff := rate
			block = append(block, ResultTx{
				TxID:                 m.tx.TxID,
				EffectiveFeePerVsize: &eff,
				CPFPRoot:             root,
				CPFPChecked:          true,
			})
		}
		blockWeight += pkgWeight

		// Selecting the package shrinks the pending ancestor set of
		// every remaining descendant, so their scores move.
		b.rescoreDescendants(tree, members)
	}

	if len(block) > 0 {
		result.Blocks = append(result.Blocks, block)
	}

	return result
}

// relate recomputes the parent, child and ancestor closures of every
// mirror entry.
func (b *Builder) relate() {
	for _, e := range b.mirror {
		e.parents = make(map[mempool.TxID]bool)
		e.children = make(map[mempool.TxID]bool)
		e.ancestors = nil
	}

	for txID, e := range b.mirror {
		for _, vin := range e.tx.Vin {
			parent, exists := b.mirror[vin]
			if !exists {
				continue
			}
			e.parents[vin] = true
			parent.children[txID] = true
		}
	}

	for _, e := range b.mirror {
		b.closure(e, make(map[mempool.TxID]bool))
	}
}

// closure fills the transitive ancestor set of the entry. The visiting map
// refuses to revisit entries so pathological input cannot recurse forever.
func (b *Builder) closure(e *entry, visiting map[mempool.TxID]bool) map[mempool.TxID]bool {
	if e.ancestors != nil {
		return e.ancestors
	}
	if visiting[e.tx.TxID] {
		return map[mempool.TxID]bool{}
	}
	visiting[e.tx.TxID] = true

	ancestors := make(map[mempool.TxID]bool)
	for parentID := range e.parents {
		ancestors[parentID] = true
		for ancID := range b.closure(b.mirror[parentID], visiting) {
			ancestors[ancID] = true
		}
	}

	e.ancestors = ancestors
	return ancestors
}

// packageRate computes the fee rate of the entry's package: the entry
// itself plus every ancestor not yet selected.
func (b *Builder) packageRate(e *entry) float64 {
	totalFees := e.tx.Fee
	totalWeight := e.tx.Weight

	for ancID := range e.ancestors {
		anc := b.mirror[ancID]
		if anc == nil || anc.selected {
			continue
		}
		totalFees += anc.tx.Fee
		totalWeight += anc.tx.Weight
	}

	if totalWeight == 0 {
		return 0
	}
	if totalFees < 0 {
		totalFees = 0
	}
	return float64(totalFees) / (float64(totalWeight) / 4)
}

// packageMembers returns the unselected ancestors of the entry in
// topological order followed by the entry itself, along with the total
// weight of the returned members.
func (b *Builder) packageMembers(e *entry) ([]*entry, int64) {
	pending := make(map[mempool.TxID]bool)
	for ancID := range e.ancestors {
		if anc := b.mirror[ancID]; anc != nil && !anc.selected {
			pending[ancID] = true
		}
	}

	members := make([]*entry, 0, len(pending)+1)
	weight := e.tx.Weight

	// Kahn's algorithm over the pending ancestor subgraph. Ready entries
	// release in txid order so the emission is deterministic.
	indegree := make(map[mempool.TxID]int, len(pending))
	for txID := range pending {
		n := 0
		for parentID := range b.mirror[txID].parents {
			if pending[parentID] {
				n++
			}
		}
		indegree[txID] = n
	}

	var ready []mempool.TxID
	for txID, n := range indegree {
		if n == 0 {
			ready = append(ready, txID)
		}
	}

	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })

		txID := ready[0]
		ready = ready[1:]

		anc := b.mirror[txID]
		members = append(members, anc)
		weight += anc.tx.Weight

		for childID := range anc.children {
			if _, pendingChild := indegree[childID]; !pendingChild {
				continue
			}
			indegree[childID]--
			if indegree[childID] == 0 {
				ready = append(ready, childID)
			}
		}
		delete(indegree, txID)
	}

	members = append(members, e)
	return members, weight
}

// rescoreDescendants refreshes the queue position of every remaining
// descendant of the just selected members.
func (b *Builder) rescoreDescendants(tree *btree.BTree, members []*entry) {
	seen := make(map[mempool.TxID]bool)

	var walk func(e *entry)
	walk = func(e *entry) {
		for childID := range e.children {
			if seen[childID] {
				continue
			}
			seen[childID] = true

			child := b.mirror[childID]
			if child == nil {
				continue
			}
			if !child.selected {
				tree.Delete(candidate{txID: childID, score: child.score})
				child.score = b.packageRate(child)
				tree.ReplaceOrInsert(candidate{txID: childID, score: child.score})
			}
			walk(child)
		}
	}

	for _, m := range members {
		walk(m)
	}
}
