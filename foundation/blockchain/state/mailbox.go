package state

import (
	"github.com/forkline/blockchain/foundation/blockchain/consensus"
	"github.com/forkline/blockchain/foundation/blockchain/database"
	"github.com/forkline/blockchain/foundation/blockchain/peer"
)

// The messages multiplexed through the actor's mailbox. Synchronous
// operations carry a reply channel; notifications do not.

type getBlocksMsg struct {
	topHash   string
	requester peer.Peer
}

type invMsg struct {
	blocks []database.Block
}

type newBlockMsg struct {
	block database.Block
}

type newTxMsg struct {
	tx database.BlockTx
}

type topBlockMsg struct {
	reply chan database.Block
}

type chainMsg struct {
	reply chan database.Chain
}

type setChainMsg struct {
	chain database.Chain
	reply chan error
}

type pendingMsg struct {
	reply chan pending
}

// pending is the snapshot of the non-canonical state used by the
// synchronous inspection operations.
type pending struct {
	forks   database.Forks
	orphans database.OrphanSet
}

// =============================================================================

// run is the mailbox loop. It is the only goroutine that ever reads or
// writes the chain, forks and orphans, processing one message to completion
// before starting the next.
func (s *State) run() {
	s.evHandler("state: mailbox: G started")
	defer s.evHandler("state: mailbox: G completed")

	for {
		select {
		case msg := <-s.mailbox:
			s.dispatch(msg)

		case <-s.shut:
			s.evHandler("state: mailbox: received shut signal")
			return
		}
	}
}

// dispatch routes a single mailbox message. An unrecognized message is an
// explicit, recoverable error: it is logged and dropped, the actor keeps
// processing.
func (s *State) dispatch(msg any) {
	switch msg := msg.(type) {
	case getBlocksMsg:
		s.handleGetBlocks(msg)
	case invMsg:
		s.handleInv(msg)
	case newBlockMsg:
		s.handleNewBlockFound(msg)
	case newTxMsg:
		s.handleNewTransaction(msg)
	case topBlockMsg:
		msg.reply <- s.chain.Tip()
	case chainMsg:
		msg.reply <- s.chain
	case setChainMsg:
		msg.reply <- s.handleSetChain(msg)
	case pendingMsg:
		msg.reply <- pending{forks: s.forks, orphans: s.orphans}
	default:
		s.evHandler("state: mailbox: ERROR: unknown message %T ignored", msg)
	}
}

// =============================================================================

// handleGetBlocks locates the chain block matching the requested top hash
// and sends every block strictly above its height to the requester. When
// the hash is unknown the entire chain is sent instead.
func (s *State) handleGetBlocks(msg getBlocksMsg) {
	s.evHandler("state: getblocks: topHash[%s] requester[%s]", msg.topHash, msg.requester.Host)

	var blocks []database.Block

	if blk, found := s.chain.Lookup(msg.topHash); found {
		blocks = s.chain.Above(blk.Header.Number)
	} else {
		blocks = make([]database.Block, s.chain.Length())
		copy(blocks, s.chain)
	}

	// The inventory response is fire-and-forget: the actor moves on to the
	// next message without waiting on the requester.
	go func() {
		if err := s.NetSendInv(msg.requester, blocks); err != nil {
			s.evHandler("state: getblocks: sendInv: %s: ERROR: %s", msg.requester.Host, err)
		}
	}()
}

// handleInv persists the given blocks into the chain store and replaces the
// chain reference with the store's result. Forks and orphans are untouched.
func (s *State) handleInv(msg invMsg) {
	s.evHandler("state: inv: blocks[%d]", len(msg.blocks))

	merged, err := s.db.Merge(s.chain, msg.blocks)
	if err != nil {
		s.evHandler("state: inv: merge: ERROR: %s", err)
		return
	}

	s.chain = merged
}

// handleNewBlockFound runs the resolution engine over the incoming block
// and then, unconditionally, instructs the node controller: start mining
// when the chain grew, stop mining when it did not.
func (s *State) handleNewBlockFound(msg newBlockMsg) {
	s.evHandler("state: newBlockFound: blk[%s] prevBlk[%s]", msg.block.Hash(), msg.block.Header.ParentHash)

	lengthBefore := s.chain.Length()

	result := consensus.Resolve(msg.block, s.chain, s.forks, s.orphans)

	if err := s.db.Commit(s.chain, result.Chain); err != nil {
		s.evHandler("state: newBlockFound: commit: ERROR: %s", err)
	}

	s.chain = result.Chain
	s.forks = result.Forks
	s.orphans = result.Orphans

	// This comparison and instruction happen on every call, even when the
	// chain did not actually grow.
	if s.Worker != nil {
		switch {
		case s.chain.Length() > lengthBefore:
			s.evHandler("state: newBlockFound: chain[%d -> %d]: signal start mining", lengthBefore, s.chain.Length())
			s.Worker.SignalStartMining()
		default:
			s.evHandler("state: newBlockFound: chain[%d -> %d]: signal stop mining", lengthBefore, s.chain.Length())
			s.Worker.SignalCancelMining()
		}
	}
}

// handleNewTransaction forwards the transaction to the mempool and asks the
// node controller to share it with the network. The actor itself performs
// no validation.
func (s *State) handleNewTransaction(msg newTxMsg) {
	s.evHandler("state: newTransaction: tx[%s]", msg.tx)

	if _, err := s.mempool.Upsert(msg.tx); err != nil {
		s.evHandler("state: newTransaction: mempool: ERROR: %s", err)
		return
	}

	if s.Worker != nil {
		s.Worker.SignalShareTx(msg.tx)
	}
}

// handleSetChain replaces the chain wholesale. Forks and orphans are
// preserved, not cleared. Intended for test and recovery use.
func (s *State) handleSetChain(msg setChainMsg) error {
	if err := msg.chain.Validate(); err != nil {
		return err
	}

	if err := s.db.Commit(s.chain, msg.chain); err != nil {
		return err
	}

	s.chain = msg.chain

	return nil
}
