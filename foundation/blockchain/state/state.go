// Package state implements the blockchain actor that exclusively owns the
// chain, the pending forks, and the orphan set. Every read and write is
// serialized through a single mailbox goroutine, so no message ever observes
// a partially updated triple.
package state

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/forkline/blockchain/foundation/blockchain/database"
	"github.com/forkline/blockchain/foundation/blockchain/genesis"
	"github.com/forkline/blockchain/foundation/blockchain/mempool"
	"github.com/forkline/blockchain/foundation/blockchain/peer"
)

// mailboxBuffer is the number of notifications that can be pending against
// the actor before senders start blocking. Ordering is FIFO either way.
const mailboxBuffer = 128

// seenCacheSize bounds the caches used to keep the node from gossiping the
// same block or transaction at its peers twice.
const seenCacheSize = 1024

// =============================================================================

// EventHandler defines a function that is called when events occur in the
// processing of blocks and transactions.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing support for mining and transaction sharing. This is
// the node controller the actor instructs, fire-and-forget.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
	SignalShareTx(blockTx database.BlockTx)
}

// =============================================================================

// Config represents the configuration required to start the blockchain
// node state.
type Config struct {
	BeneficiaryID database.AccountID
	Host          string
	Genesis       genesis.Genesis
	Storage       database.Storage
	KnownPeers    *peer.PeerSet
	EvHandler     EventHandler
}

// State manages the blockchain node state.
type State struct {
	beneficiaryID database.AccountID
	host          string
	evHandler     EventHandler

	genesis    genesis.Genesis
	db         *database.Database
	mempool    *mempool.Mempool
	knownPeers *peer.PeerSet

	// The triple below is owned by the mailbox goroutine. Nothing outside
	// the run loop may touch it.
	chain   database.Chain
	forks   database.Forks
	orphans database.OrphanSet

	mailbox chan any
	shut    chan struct{}
	wg      sync.WaitGroup

	seenBlocks *lru.Cache
	seenTxs    *lru.Cache

	// Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.
	Worker Worker
}

// New constructs a new blockchain state and starts the mailbox goroutine.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Access the persistence layer and load the chain, starting from the
	// genesis block on first run.
	db := database.New(cfg.Storage, ev)
	chain, err := db.Load(database.GenesisBlock(cfg.Genesis))
	if err != nil {
		return nil, err
	}

	seenBlocks, err := lru.New(seenCacheSize)
	if err != nil {
		return nil, err
	}

	seenTxs, err := lru.New(seenCacheSize)
	if err != nil {
		return nil, err
	}

	state := State{
		beneficiaryID: cfg.BeneficiaryID,
		host:          cfg.Host,
		evHandler:     ev,

		genesis:    cfg.Genesis,
		db:         db,
		mempool:    mempool.New(),
		knownPeers: cfg.KnownPeers,

		chain:   chain,
		forks:   nil,
		orphans: database.NewOrphanSet(),

		mailbox: make(chan any, mailboxBuffer),
		shut:    make(chan struct{}),

		seenBlocks: seenBlocks,
		seenTxs:    seenTxs,
	}

	// Start the mailbox goroutine that owns the state triple.
	state.wg.Add(1)
	go func() {
		defer state.wg.Done()
		state.run()
	}()

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Make sure the database is properly closed.
	defer s.db.Close()

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	// Terminate the mailbox goroutine.
	close(s.shut)
	s.wg.Wait()

	return nil
}
