package consensus_test

import (
	"testing"
	"time"

	"github.com/forkline/blockchain/foundation/blockchain/consensus"
	"github.com/forkline/blockchain/foundation/blockchain/database"
	"github.com/forkline/blockchain/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

// newBlock builds a structurally valid block on top of the specified parent.
// Difficulty zero keeps the hash puzzle trivially solved so no mining is
// needed. The nonce keeps sibling blocks distinct.
func newBlock(parent database.Block, nonce uint64) database.Block {
	return database.Block{
		Header: database.BlockHeader{
			ParentHash: parent.Hash(),
			Number:     parent.Header.Number + 1,
			Difficulty: 0,
			Nonce:      nonce,
			TimeStamp:  uint64(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()),
			TransRoot:  database.TransHash(nil),
		},
	}
}

func newGenesis() database.Block {
	return database.GenesisBlock(genesis.Genesis{
		Date:    time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID: 1,
	})
}

// =============================================================================

func Test_AppendAtTop(t *testing.T) {
	t.Log("Given the need to absorb a block whose parent is the chain tip.")
	{
		genesisBlock := newGenesis()
		chain := database.NewChain(genesisBlock)
		block := newBlock(genesisBlock, 1)

		t.Logf("\tTest 0:\tWhen resolving a block on top of the genesis block.")
		{
			res := consensus.Resolve(block, chain, nil, database.NewOrphanSet())

			if res.Chain.Length() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould have a chain of length 2: got %d", failed, res.Chain.Length())
			}
			t.Logf("\t%s\tTest 0:\tShould have a chain of length 2.", success)

			if res.Chain.Tip().Hash() != block.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould have the new block at the tip.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould have the new block at the tip.", success)

			if len(res.Forks) != 0 || res.Orphans.Count() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould have no forks and no orphans.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould have no forks and no orphans.", success)
		}
	}
}

func Test_InvalidBlockIgnored(t *testing.T) {
	t.Log("Given the need to ignore blocks that fail validation.")
	{
		genesisBlock := newGenesis()
		chain := database.NewChain(genesisBlock)

		block := newBlock(genesisBlock, 1)
		block.Header.TransRoot = "0xdeadbeef"

		t.Logf("\tTest 0:\tWhen resolving a block with a bad transaction root.")
		{
			res := consensus.Resolve(block, chain, nil, database.NewOrphanSet())

			if res.Chain.Length() != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould leave the chain untouched: got length %d", failed, res.Chain.Length())
			}
			t.Logf("\t%s\tTest 0:\tShould leave the chain untouched.", success)

			if len(res.Forks) != 0 || res.Orphans.Count() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould leave the forks and orphans untouched.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould leave the forks and orphans untouched.", success)
		}

		block = newBlock(genesisBlock, 1)
		block.Header.Number = 0

		t.Logf("\tTest 1:\tWhen resolving a block claiming to be the genesis block.")
		{
			res := consensus.Resolve(block, chain, nil, database.NewOrphanSet())

			if res.Chain.Length() != 1 || len(res.Forks) != 0 || res.Orphans.Count() != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould leave everything untouched.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould leave everything untouched.", success)
		}
	}
}

func Test_ForksOpenAndHold(t *testing.T) {
	t.Log("Given the need to hold competing branches without resolving them.")
	{
		genesisBlock := newGenesis()
		b1 := newBlock(genesisBlock, 1)
		chain := database.NewChain(genesisBlock).Extend(b1)

		// Two competitors sharing the current tip as their parent.
		f1 := newBlock(b1, 10)
		f2 := newBlock(b1, 20)

		t.Logf("\tTest 0:\tWhen two blocks share the current tip as their parent.")
		{
			res := consensus.Resolve(f1, chain, nil, database.NewOrphanSet())

			if res.Chain.Length() != 3 || res.Chain.Tip().Hash() != f1.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould absorb the first competitor at the tip.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould absorb the first competitor at the tip.", success)

			res = consensus.Resolve(f2, res.Chain, res.Forks, res.Orphans)

			if len(res.Forks) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould now hold two forks: got %d", failed, len(res.Forks))
			}
			t.Logf("\t%s\tTest 0:\tShould now hold two forks.", success)

			if len(res.Forks[0]) != 1 || len(res.Forks[1]) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould hold both forks at length 1.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould hold both forks at length 1.", success)

			if res.Chain.Length() != 2 || res.Chain.Tip().Hash() != b1.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould put the chain back at the branch point on the tie: got length %d", failed, res.Chain.Length())
			}
			t.Logf("\t%s\tTest 0:\tShould put the chain back at the branch point on the tie.", success)
		}
	}
}

func Test_ShorterBranchLoses(t *testing.T) {
	t.Log("Given the need to reject a rival branch shorter than the chain's own.")
	{
		genesisBlock := newGenesis()
		b1 := newBlock(genesisBlock, 1)
		b2 := newBlock(b1, 2)
		b3 := newBlock(b2, 3)

		chain := database.NewChain(genesisBlock).Extend(b1).Extend(b2).Extend(b3)

		// A single rival branching two blocks below the tip.
		r1 := newBlock(b1, 10)

		t.Logf("\tTest 0:\tWhen a rival branches deep below the tip.")
		{
			res := consensus.Resolve(r1, chain, nil, database.NewOrphanSet())

			if res.Chain.Length() != 4 || res.Chain.Tip().Hash() != b3.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould keep the longer branch canonical: got length %d", failed, res.Chain.Length())
			}
			t.Logf("\t%s\tTest 0:\tShould keep the longer branch canonical.", success)

			if len(res.Forks) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould resolve the contest immediately: got %d forks", failed, len(res.Forks))
			}
			t.Logf("\t%s\tTest 0:\tShould resolve the contest immediately.", success)

			if err := res.Chain.Validate(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould keep a hash linked chain: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould keep a hash linked chain.", success)
		}
	}
}

func Test_StrictlyLongestPromotes(t *testing.T) {
	t.Log("Given the need to promote the fork that takes a strict lead.")
	{
		genesisBlock := newGenesis()
		b1 := newBlock(genesisBlock, 1)
		chain := database.NewChain(genesisBlock).Extend(b1)

		// Two equal forks above b1, opened by competing siblings of the tip.
		f1 := newBlock(b1, 10)
		f2 := newBlock(b1, 20)

		res := consensus.Resolve(f1, chain, nil, database.NewOrphanSet())
		res = consensus.Resolve(f2, res.Chain, res.Forks, res.Orphans)

		t.Logf("\tTest 0:\tWhen one of two equal forks grows by a block.")
		{
			f3 := newBlock(f2, 21)
			res = consensus.Resolve(f3, res.Chain, res.Forks, res.Orphans)

			if res.Chain.Length() != 4 {
				t.Fatalf("\t%s\tTest 0:\tShould reorganize to the longer branch: got length %d", failed, res.Chain.Length())
			}
			t.Logf("\t%s\tTest 0:\tShould reorganize to the longer branch.", success)

			if res.Chain.Tip().Hash() != f3.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould have the fork tip as the chain tip.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould have the fork tip as the chain tip.", success)

			if !res.Chain.Contains(f2.Hash()) || res.Chain.Contains(f1.Hash()) {
				t.Fatalf("\t%s\tTest 0:\tShould contain the winner's blocks and drop the loser's.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould contain the winner's blocks and drop the loser's.", success)

			if len(res.Forks) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould discard every pending fork: got %d", failed, len(res.Forks))
			}
			t.Logf("\t%s\tTest 0:\tShould discard every pending fork.", success)

			if err := res.Chain.Validate(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould produce a hash linked chain: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould produce a hash linked chain.", success)
		}
	}
}

func Test_OrphanAbsorption(t *testing.T) {
	t.Log("Given the need to hold and later absorb blocks with unknown parents.")
	{
		genesisBlock := newGenesis()
		chain := database.NewChain(genesisBlock)

		b1 := newBlock(genesisBlock, 1)
		o1 := newBlock(b1, 2)
		o2 := newBlock(o1, 3)

		t.Logf("\tTest 0:\tWhen blocks arrive before their parents.")
		{
			res := consensus.Resolve(o1, chain, nil, database.NewOrphanSet())

			if res.Orphans.Count() != 1 || !res.Orphans.Contains(o1.Hash()) {
				t.Fatalf("\t%s\tTest 0:\tShould hold the block as an orphan.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould hold the block as an orphan.", success)

			res = consensus.Resolve(o2, res.Chain, res.Forks, res.Orphans)

			if res.Orphans.Count() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould hold the grandchild as an orphan too.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould hold the grandchild as an orphan too.", success)

			// The missing parent arrives. The first generation orphan moves
			// with it, the second generation waits for the next event.
			res = consensus.Resolve(b1, res.Chain, res.Forks, res.Orphans)

			if res.Chain.Length() != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould absorb the parent and one orphan generation: got length %d", failed, res.Chain.Length())
			}
			t.Logf("\t%s\tTest 0:\tShould absorb the parent and one orphan generation.", success)

			if !res.Orphans.Contains(o2.Hash()) || res.Orphans.Count() != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould keep the second generation orphaned.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould keep the second generation orphaned.", success)

			// The second generation resolves on a further triggering event,
			// here the peer re-delivering the block whose parent is now the
			// tip. The copy held in the orphan set drains with it.
			res = consensus.Resolve(o2, res.Chain, res.Forks, res.Orphans)

			if res.Chain.Length() != 4 {
				t.Fatalf("\t%s\tTest 0:\tShould absorb the next generation on the next event: got length %d", failed, res.Chain.Length())
			}
			t.Logf("\t%s\tTest 0:\tShould absorb the next generation on the next event.", success)

			if res.Orphans.Count() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould have drained the orphan set.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould have drained the orphan set.", success)
		}
	}
}

func Test_ResolveIsPure(t *testing.T) {
	t.Log("Given the need for resolution to never mutate its inputs.")
	{
		genesisBlock := newGenesis()
		b1 := newBlock(genesisBlock, 1)
		chain := database.NewChain(genesisBlock).Extend(b1)

		f1 := newBlock(genesisBlock, 10)
		forks := database.Forks{database.NewFork(f1)}

		orphans := database.NewOrphanSet()
		stray := newBlock(f1, 99)
		orphans.Add(stray)

		t.Logf("\tTest 0:\tWhen resolving the same block twice against the same inputs.")
		{
			block := newBlock(b1, 2)

			res1 := consensus.Resolve(block, chain, forks, orphans)
			res2 := consensus.Resolve(block, chain, forks, orphans)

			if chain.Length() != 2 || len(forks) != 1 || len(forks[0]) != 1 || orphans.Count() != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould leave the inputs untouched.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould leave the inputs untouched.", success)

			if res1.Chain.Tip().Hash() != res2.Chain.Tip().Hash() || res1.Chain.Length() != res2.Chain.Length() {
				t.Fatalf("\t%s\tTest 0:\tShould produce the same result both times.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould produce the same result both times.", success)
		}
	}
}

func Test_RedeliveryIgnored(t *testing.T) {
	t.Log("Given the need to drop blocks the node has already absorbed.")
	{
		genesisBlock := newGenesis()
		b1 := newBlock(genesisBlock, 1)
		chain := database.NewChain(genesisBlock).Extend(b1)

		t.Logf("\tTest 0:\tWhen a chain block is delivered again.")
		{
			res := consensus.Resolve(b1, chain, nil, database.NewOrphanSet())

			if res.Chain.Length() != 2 || len(res.Forks) != 0 || res.Orphans.Count() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould leave everything untouched.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould leave everything untouched.", success)
		}
	}
}

func Test_Classify(t *testing.T) {
	t.Log("Given the need to classify where an incoming block lands.")
	{
		genesisBlock := newGenesis()
		b1 := newBlock(genesisBlock, 1)
		b2 := newBlock(b1, 2)
		chain := database.NewChain(genesisBlock).Extend(b1).Extend(b2)

		f1 := newBlock(b1, 10)
		forks := database.Forks{database.NewFork(f1)}

		tt := []struct {
			name  string
			block database.Block
			kind  consensus.PlacementKind
		}{
			{"top", newBlock(b2, 3), consensus.AtTop},
			{"fork", newBlock(b1, 20), consensus.WithFork},
			{"infork", newBlock(f1, 11), consensus.InFork},
			{"orphan", newBlock(newBlock(b2, 77), 78), consensus.Orphaned},
		}

		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s block.", testID, tst.name)
			{
				placement := consensus.Classify(tst.block, chain, forks)
				if placement.Kind != tst.kind {
					t.Fatalf("\t%s\tTest %d:\tShould classify as %s: got %s", failed, testID, tst.kind, placement.Kind)
				}
				t.Logf("\t%s\tTest %d:\tShould classify as %s.", success, testID, tst.kind)
			}
		}
	}
}
