package mempool

import (
	"sync"
)

// Pool represents a cache of unconfirmed transactions keyed by txid. The
// projection engine reads the pool and mutates the projection fields of
// individual transactions, so the pool hands out shared references on
// purpose.
type Pool struct {
	pool map[TxID]*Tx
	mu   sync.RWMutex
}

// NewPool constructs a new pool for use.
func NewPool() *Pool {
	return &Pool{
		pool: make(map[TxID]*Tx),
	}
}

// Count returns the current number of transactions in the pool.
func (mp *Pool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds or replaces a transaction in the pool.
func (mp *Pool) Upsert(tx *Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool[tx.TxID] = tx

	return len(mp.pool)
}

// Delete removes a transaction from the pool.
func (mp *Pool) Delete(txID TxID) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	delete(mp.pool, txID)
}

// Truncate clears all the transactions from the pool.
func (mp *Pool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[TxID]*Tx)
}

// Retrieve returns the transaction with the specified txid.
func (mp *Pool) Retrieve(txID TxID) (*Tx, bool) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	tx, exists := mp.pool[txID]
	return tx, exists
}

// Copy returns the set of live transactions keyed by txid. Transactions
// bearing a tombstone are filtered out. The map is a copy, the transaction
// values are shared.
func (mp *Pool) Copy() map[TxID]*Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	cpy := make(map[TxID]*Tx, len(mp.pool))
	for txID, tx := range mp.pool {
		if !tx.DeleteAfter.IsZero() {
			continue
		}
		cpy[txID] = tx
	}

	return cpy
}

// CopyStripped returns the live transactions in the stripped form used for
// template builder submission.
func (mp *Pool) CopyStripped() map[TxID]*ThreadTx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	cpy := make(map[TxID]*ThreadTx, len(mp.pool))
	for txID, tx := range mp.pool {
		if !tx.DeleteAfter.IsZero() {
			continue
		}
		cpy[txID] = tx.Thread()
	}

	return cpy
}
