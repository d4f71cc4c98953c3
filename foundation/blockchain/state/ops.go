package state

import (
	"github.com/forkline/blockchain/foundation/blockchain/database"
	"github.com/forkline/blockchain/foundation/blockchain/peer"
)

// The operations below are the only way in or out of the actor. The
// notifications return as soon as the message is queued; the queries block
// until the mailbox goroutine replies.

// GetBlocks asks the actor to send the requester every block above the one
// identified by topHash. The reply travels over the network, not through
// this call.
func (s *State) GetBlocks(topHash string, requester peer.Peer) {
	s.mailbox <- getBlocksMsg{topHash: topHash, requester: requester}
}

// Inv delivers a batch of peer blocks for merging into the chain.
func (s *State) Inv(blocks []database.Block) {
	s.mailbox <- invMsg{blocks: blocks}
}

// NewBlockFound delivers a freshly mined or gossiped block to the
// resolution engine.
func (s *State) NewBlockFound(block database.Block) {
	s.mailbox <- newBlockMsg{block: block}
}

// NewTransaction delivers a transaction for mempool admission and sharing.
func (s *State) NewTransaction(tx database.BlockTx) {
	s.mailbox <- newTxMsg{tx: tx}
}

// =============================================================================

// TopBlock returns the current tip of the canonical chain.
func (s *State) TopBlock() database.Block {
	reply := make(chan database.Block)
	s.mailbox <- topBlockMsg{reply: reply}
	return <-reply
}

// Chain returns the canonical chain as the actor currently holds it. The
// returned slice is never mutated by the actor afterwards.
func (s *State) Chain() database.Chain {
	reply := make(chan database.Chain)
	s.mailbox <- chainMsg{reply: reply}
	return <-reply
}

// SetChain replaces the canonical chain wholesale after validating it. The
// pending forks and orphans survive the swap.
func (s *State) SetChain(chain database.Chain) error {
	reply := make(chan error)
	s.mailbox <- setChainMsg{chain: chain, reply: reply}
	return <-reply
}

// PendingForks returns a snapshot of the fork set.
func (s *State) PendingForks() database.Forks {
	reply := make(chan pending)
	s.mailbox <- pendingMsg{reply: reply}
	return (<-reply).forks
}

// OrphanBlocks returns the orphaned blocks in arrival order.
func (s *State) OrphanBlocks() []database.Block {
	reply := make(chan pending)
	s.mailbox <- pendingMsg{reply: reply}
	return (<-reply).orphans.Blocks()
}
