// Package leveldb implements the ability to read and write blocks to a
// leveldb key/value store, keyed by block number.
package leveldb

import (
	"encoding/binary"
	"encoding/json"
	"errors"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/forkline/blockchain/foundation/blockchain/database"
)

// LevelDB represents the serialization implementation for reading and
// storing blocks inside a leveldb database. This implements the
// database.Storage interface.
type LevelDB struct {
	db *leveldb.DB
}

// New constructs a LevelDB value for use, opening or creating the database
// at the specified path.
func New(dbPath string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		return nil, err
	}

	return &LevelDB{db: db}, nil
}

// Close releases the underlying leveldb handle.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

// Write takes the specified block and stores it under its block number.
func (l *LevelDB) Write(blockData database.BlockData) error {
	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	return l.db.Put(blockKey(blockData.Header.Number), data, nil)
}

// GetBlock searches the store to locate and return the contents of the
// specified block by number.
func (l *LevelDB) GetBlock(num uint64) (database.BlockData, error) {
	data, err := l.db.Get(blockKey(num), nil)
	if err != nil {
		return database.BlockData{}, err
	}

	var blockData database.BlockData
	if err := json.Unmarshal(data, &blockData); err != nil {
		return database.BlockData{}, err
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks starting
// with the genesis block. The big-endian key encoding keeps leveldb's
// natural key order equal to block number order.
func (l *LevelDB) ForEach() database.Iterator {
	return &iterator{storage: l}
}

// Reset deletes every block from the store.
func (l *LevelDB) Reset() error {
	iter := l.db.NewIterator(nil, nil)
	defer iter.Release()

	for iter.Next() {
		if err := l.db.Delete(iter.Key(), nil); err != nil {
			return err
		}
	}

	return iter.Error()
}

// blockKey encodes a block number as a fixed width big-endian key.
func blockKey(num uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, num)

	return key
}

// =============================================================================

// iterator represents the iteration implementation for walking through
// and reading blocks in the store. This implements the database.Iterator
// interface.
type iterator struct {
	storage *LevelDB // Access to the LevelDB storage API.
	current uint64   // Current block number being iterated over.
	eoc     bool     // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from the store.
func (it *iterator) Next() (database.BlockData, error) {
	if it.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	blockData, err := it.storage.GetBlock(it.current)
	if err != nil {
		it.eoc = true
		return database.BlockData{}, nil
	}

	it.current++

	return blockData, nil
}

// Done returns the end of chain value.
func (it *iterator) Done() bool {
	return it.eoc
}
