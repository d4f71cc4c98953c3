// Package database handles all the lower level support for maintaining the
// blockchain in storage and the container types the consensus core operates
// on: the chain, the pending forks, and the orphan set.
package database

import (
	"fmt"
	"sort"
	"sync"
)

// Storage interface represents the behavior required to be implemented by
// any package providing support for storing and reading the blockchain.
type Storage interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by
// any package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// BlockData represents what can be serialized to disk.
type BlockData struct {
	Hash   string      `json:"hash"`
	Header BlockHeader `json:"header"`
	Trans  []BlockTx   `json:"trans"`
}

// NewBlockData constructs block data from a block.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Hash:   block.Hash(),
		Header: block.Header,
		Trans:  block.Trans,
	}
}

// ToBlock converts a storage block into a database block.
func ToBlock(blockData BlockData) Block {
	return Block{
		Header: blockData.Header,
		Trans:  blockData.Trans,
	}
}

// =============================================================================

// Database manages block persistence for the node. The chain itself is owned
// by the state actor, the database only mirrors it to storage.
type Database struct {
	mu        sync.Mutex
	storage   Storage
	evHandler func(v string, args ...any)
}

// New constructs a database value for block persistence.
func New(storage Storage, evHandler func(v string, args ...any)) *Database {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Database{
		storage:   storage,
		evHandler: ev,
	}
}

// Close closes the underlying storage.
func (db *Database) Close() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.storage.Close()
}

// Load reads the persisted chain from storage. If storage is empty, the
// specified genesis block starts the chain and is written through.
func (db *Database) Load(genesisBlock Block) (Chain, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var chain Chain

	iter := db.storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		chain = append(chain, ToBlock(blockData))
	}

	if len(chain) == 0 {
		if err := db.storage.Write(NewBlockData(genesisBlock)); err != nil {
			return nil, err
		}
		return NewChain(genesisBlock), nil
	}

	if err := chain.Validate(); err != nil {
		return nil, fmt.Errorf("stored chain is corrupt: %w", err)
	}

	return chain, nil
}

// Commit mirrors a chain transition to storage. A pure extension writes just
// the new blocks; anything else (a fork promotion or a wholesale chain
// replacement) resets storage and rewrites the new chain.
func (db *Database) Commit(oldChain Chain, newChain Chain) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if extends(oldChain, newChain) {
		for _, block := range newChain[len(oldChain):] {
			if err := db.storage.Write(NewBlockData(block)); err != nil {
				return err
			}
		}
		return nil
	}

	db.evHandler("database: Commit: chain rewritten: blocks[%d]", len(newChain))

	if err := db.storage.Reset(); err != nil {
		return err
	}

	for _, block := range newChain {
		if err := db.storage.Write(NewBlockData(block)); err != nil {
			return err
		}
	}

	return nil
}

// Merge saves the specified blocks into the chain by way of the storage
// layer. Blocks that extend the tip in block number order are written
// through, the merged chain is returned. No validation is performed beyond
// what the storage write itself enforces.
func (db *Database) Merge(chain Chain, blocks []Block) (Chain, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	ordered := make([]Block, len(blocks))
	copy(ordered, blocks)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Header.Number < ordered[j].Header.Number
	})

	merged := chain
	for _, block := range ordered {
		if block.Header.ParentHash != merged.Tip().Hash() {
			continue
		}

		if err := db.storage.Write(NewBlockData(block)); err != nil {
			return chain, err
		}
		merged = merged.Extend(block)
	}

	return merged, nil
}

// =============================================================================

// extends reports whether newChain is oldChain plus zero or more blocks.
func extends(oldChain Chain, newChain Chain) bool {
	if len(newChain) < len(oldChain) {
		return false
	}

	if len(oldChain) == 0 {
		return true
	}

	return newChain[len(oldChain)-1].Hash() == oldChain.Tip().Hash()
}
