package state

import (
	"context"
	"errors"

	"github.com/forkline/blockchain/foundation/blockchain/database"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are not enough transactions in the mempool.
var ErrNoTransactions = errors.New("not enough transactions in mempool")

// MineNewBlock performs the proof of work over the best transactions in the
// mempool and, on success, hands the solved block to the actor like any
// other found block. The actor, not this function, updates the chain.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	defer s.evHandler("state: MineNewBlock: MINING: completed")

	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	if s.mempool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	trans := s.mempool.PickBest(int(s.genesis.TransPerBlock))

	s.evHandler("state: MineNewBlock: MINING: perform POW")

	block, err := database.POW(ctx, database.POWArgs{
		BeneficiaryID: s.beneficiaryID,
		Difficulty:    s.genesis.Difficulty,
		PrevBlock:     s.TopBlock(),
		Trans:         trans,
		EvHandler:     s.evHandler,
	})
	if err != nil {
		return database.Block{}, err
	}

	// Another node could have already won this round.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: deliver block to the state")

	s.NewBlockFound(block)

	for _, tx := range trans {
		s.mempool.Delete(tx)
	}

	return block, nil
}
