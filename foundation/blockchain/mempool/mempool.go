// Package mempool maintains the pool of transactions waiting to be mined
// into a block.
package mempool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/forkline/blockchain/foundation/blockchain/database"
)

// Mempool represents a cache of transactions organized by account:nonce.
type Mempool struct {
	mu   sync.RWMutex
	pool map[string]database.BlockTx
}

// New constructs a new mempool for managing pending transactions.
func New() *Mempool {
	return &Mempool{
		pool: make(map[string]database.BlockTx),
	}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds or replaces a transaction in the mempool.
func (mp *Mempool) Upsert(tx database.BlockTx) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key, err := mapKey(tx)
	if err != nil {
		return 0, err
	}

	mp.pool[key] = tx

	return len(mp.pool), nil
}

// Delete removes a transaction from the mempool.
func (mp *Mempool) Delete(tx database.BlockTx) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key, err := mapKey(tx)
	if err != nil {
		return err
	}

	delete(mp.pool, key)

	return nil
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]database.BlockTx)
}

// PickBest returns at most the specified number of transactions, ordered by
// the best tip. Pass a negative number to copy the entire pool.
func (mp *Mempool) PickBest(howMany int) []database.BlockTx {
	var trans []database.BlockTx

	mp.mu.RLock()
	{
		if howMany < 0 || howMany > len(mp.pool) {
			howMany = len(mp.pool)
		}

		trans = make([]database.BlockTx, 0, len(mp.pool))
		for _, tx := range mp.pool {
			trans = append(trans, tx)
		}
	}
	mp.mu.RUnlock()

	sort.Slice(trans, func(i, j int) bool {
		return trans[i].Tip > trans[j].Tip
	})

	return trans[:howMany]
}

// =============================================================================

// mapKey is used to generate the map key.
func mapKey(tx database.BlockTx) (string, error) {
	account, err := tx.FromAccount()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s:%d", account, tx.Nonce), nil
}
