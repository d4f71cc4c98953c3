package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/forkline/blockchain/foundation/blockchain/database"
	"github.com/forkline/blockchain/foundation/blockchain/genesis"
	"github.com/forkline/blockchain/foundation/blockchain/storage/disk"
	"github.com/forkline/blockchain/foundation/blockchain/storage/memory"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func newTestGenesis() genesis.Genesis {
	return genesis.Genesis{
		Date:          time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:       1,
		TransPerBlock: 10,
		Difficulty:    0,
		MiningReward:  700,
	}
}

// newBlock builds a structurally valid block on top of the specified parent.
// Difficulty zero keeps the hash puzzle trivially solved.
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

// =============================================================================

func Test_ChainOperations(t *testing.T) {
	t.Log("Given the need to operate over the canonical chain value.")
	{
		genesisBlock := database.GenesisBlock(newTestGenesis())
		b1 := newBlock(genesisBlock, 1)
		b2 := newBlock(b1, 2)

		chain := database.NewChain(genesisBlock)

		t.Logf("\tTest 0:\tWhen extending and inspecting the chain.")
		{
			chain2 := chain.Extend(b1).Extend(b2)

			if chain.Length() != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould not mutate the original chain.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not mutate the original chain.", success)

			if chain2.Tip().Hash() != b2.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould have the last block at the tip.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould have the last block at the tip.", success)

			if !chain2.Contains(b1.Hash()) || chain2.Contains("0xnothere") {
				t.Fatalf("\t%s\tTest 0:\tShould report containment correctly.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould report containment correctly.", success)

			above := chain2.Above(0)
			if len(above) != 2 || above[0].Hash() != b1.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould return the blocks above a height in order.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould return the blocks above a height in order.", success)

			prefix, found := chain2.UpTo(b1.Hash())
			if !found || prefix.Length() != 2 || prefix.Tip().Hash() != b1.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould cut the prefix through a given block.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould cut the prefix through a given block.", success)

			if err := chain2.Validate(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould validate a hash linked chain: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould validate a hash linked chain.", success)

			broken := database.Chain{genesisBlock, b2}
			if err := broken.Validate(); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject a chain with a broken link.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a chain with a broken link.", success)
		}
	}
}

func Test_ForkOperations(t *testing.T) {
	t.Log("Given the need to operate over pending forks.")
	{
		genesisBlock := database.GenesisBlock(newTestGenesis())
		b1 := newBlock(genesisBlock, 1)

		f1 := newBlock(genesisBlock, 10)
		f2 := newBlock(f1, 11)

		t.Logf("\tTest 0:\tWhen growing and measuring forks.")
		{
			fork := database.NewFork(f1)

			if fork.BranchParent() != genesisBlock.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould branch from the fork's first parent.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould branch from the fork's first parent.", success)

			fork2 := fork.Extend(f2)
			if len(fork) != 1 || fork2.Tip().Hash() != f2.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould extend without mutating the original.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould extend without mutating the original.", success)

			forks := database.Forks{fork2, database.NewFork(newBlock(b1, 20))}

			if forks.AllEqualLength() {
				t.Fatalf("\t%s\tTest 0:\tShould see the fork lengths differ.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould see the fork lengths differ.", success)

			longest, unique := forks.StrictlyLongest()
			if !unique || longest != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould find the strictly longest fork.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould find the strictly longest fork.", success)

			if i := forks.IndexContaining(f2.Hash()); i != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould locate a block inside a fork.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould locate a block inside a fork.", success)
		}

		t.Logf("\tTest 1:\tWhen fork lengths tie.")
		{
			forks := database.Forks{database.NewFork(f1), database.NewFork(newBlock(genesisBlock, 30))}

			if !forks.AllEqualLength() {
				t.Fatalf("\t%s\tTest 1:\tShould see equal length forks.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould see equal length forks.", success)

			if _, unique := forks.StrictlyLongest(); unique {
				t.Fatalf("\t%s\tTest 1:\tShould find no strictly longest fork.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould find no strictly longest fork.", success)
		}
	}
}

func Test_OrphanSet(t *testing.T) {
	t.Log("Given the need to hold blocks with unknown parents.")
	{
		genesisBlock := database.GenesisBlock(newTestGenesis())
		o1 := newBlock(genesisBlock, 1)
		o2 := newBlock(o1, 2)

		t.Logf("\tTest 0:\tWhen adding, cloning and removing orphans.")
		{
			orphans := database.NewOrphanSet()
			orphans.Add(o1)
			orphans.Add(o2)
			orphans.Add(o1)

			if orphans.Count() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould dedupe on add: got %d", failed, orphans.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould dedupe on add.", success)

			blocks := orphans.Blocks()
			if blocks[0].Hash() != o1.Hash() || blocks[1].Hash() != o2.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould keep insertion order.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould keep insertion order.", success)

			clone := orphans.Clone()
			clone.Remove(o1.Hash())

			if clone.Count() != 1 || orphans.Count() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould remove from the clone only.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould remove from the clone only.", success)

			if !orphans.Contains(o1.Hash()) || clone.Contains(o1.Hash()) {
				t.Fatalf("\t%s\tTest 0:\tShould report containment correctly.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould report containment correctly.", success)
		}
	}
}

func Test_StorageRoundTrip(t *testing.T) {
	type table struct {
		name    string
		storage func(t *testing.T) database.Storage
	}

	tt := []table{
		{
			name: "memory",
			storage: func(t *testing.T) database.Storage {
				strg, err := memory.New()
				if err != nil {
					t.Fatal(err)
				}
				return strg
			},
		},
		{
			name: "disk",
			storage: func(t *testing.T) database.Storage {
				strg, err := disk.New(t.TempDir())
				if err != nil {
					t.Fatal(err)
				}
				return strg
			},
		},
	}

	t.Log("Given the need to persist and reload the chain.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen using the %s storage.", testID, tst.name)
			{
				f := func(t *testing.T) {
					strg := tst.storage(t)
					defer strg.Close()

					genesisBlock := database.GenesisBlock(newTestGenesis())

					db := database.New(strg, nil)

					chain, err := db.Load(genesisBlock)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to load an empty store: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to load an empty store.", success, testID)

					if chain.Length() != 1 {
						t.Fatalf("\t%s\tTest %d:\tShould seed the store with the genesis block.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould seed the store with the genesis block.", success, testID)

					b1 := newBlock(genesisBlock, 1)
					b2 := newBlock(b1, 2)
					newChain := chain.Extend(b1).Extend(b2)

					if err := db.Commit(chain, newChain); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to commit an extension: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to commit an extension.", success, testID)

					reloaded, err := db.Load(genesisBlock)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to reload the chain: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to reload the chain.", success, testID)

					if reloaded.Length() != 3 || reloaded.Tip().Hash() != b2.Hash() {
						t.Fatalf("\t%s\tTest %d:\tShould get the same chain back.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get the same chain back.", success, testID)

					// A reorganization rewrites the store wholesale.
					c1 := newBlock(genesisBlock, 50)
					c2 := newBlock(c1, 51)
					c3 := newBlock(c2, 52)
					reorg := database.NewChain(genesisBlock).Extend(c1).Extend(c2).Extend(c3)

					if err := db.Commit(reloaded, reorg); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to commit a reorganization: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to commit a reorganization.", success, testID)

					reloaded, err = db.Load(genesisBlock)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to reload after the rewrite: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to reload after the rewrite.", success, testID)

					if reloaded.Length() != 4 || reloaded.Tip().Hash() != c3.Hash() {
						t.Fatalf("\t%s\tTest %d:\tShould get the rewritten chain back.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get the rewritten chain back.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_Merge(t *testing.T) {
	t.Log("Given the need to merge peer blocks into the chain store.")
	{
		strg, err := memory.New()
		if err != nil {
			t.Fatal(err)
		}
		defer strg.Close()

		db := database.New(strg, nil)

		genesisBlock := database.GenesisBlock(newTestGenesis())
		chain, err := db.Load(genesisBlock)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the store: %v", failed, err)
		}

		b1 := newBlock(genesisBlock, 1)
		b2 := newBlock(b1, 2)
		stray := newBlock(newBlock(b2, 77), 78)

		t.Logf("\tTest 0:\tWhen merging out of order blocks with a stray.")
		{
			merged, err := db.Merge(chain, []database.Block{b2, stray, b1})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to merge: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to merge.", success)

			if merged.Length() != 3 || merged.Tip().Hash() != b2.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould absorb the blocks that extend the tip in order.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould absorb the blocks that extend the tip in order.", success)

			if merged.Contains(stray.Hash()) {
				t.Fatalf("\t%s\tTest 0:\tShould skip blocks that never connect.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould skip blocks that never connect.", success)
		}
	}
}

func Test_POW(t *testing.T) {
	t.Log("Given the need to mine a block that satisfies the difficulty.")
	{
		genesisBlock := database.GenesisBlock(newTestGenesis())

		t.Logf("\tTest 0:\tWhen performing the work at difficulty one.")
		{
			block, err := database.POW(context.Background(), database.POWArgs{
				BeneficiaryID: "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32",
				Difficulty:    1,
				PrevBlock:     genesisBlock,
				Trans:         nil,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to mine a block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to mine a block.", success)

			if err := block.Validate(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould produce a valid block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould produce a valid block.", success)

			if block.Header.ParentHash != genesisBlock.Hash() || block.Header.Number != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould build on the previous block.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould build on the previous block.", success)
		}

		t.Logf("\tTest 1:\tWhen the work is cancelled.")
		{
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := database.POW(ctx, database.POWArgs{
				Difficulty: 16,
				PrevBlock:  genesisBlock,
			}); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould stop the work on cancellation.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould stop the work on cancellation.", success)
		}

		t.Logf("\tTest 2:\tWhen validating at a difficulty deeper than the zero run.")
		{
			block := newBlock(genesisBlock, 1)
			block.Header.Difficulty = 20

			if err := block.Validate(); err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould reject the unsolved hash.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould reject the unsolved hash.", success)
		}
	}
}
