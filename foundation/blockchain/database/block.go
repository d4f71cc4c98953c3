package database

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/forkline/blockchain/foundation/blockchain/genesis"
	"github.com/forkline/blockchain/foundation/blockchain/merkle"
	"github.com/forkline/blockchain/foundation/blockchain/signature"
)

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	ParentHash    string    `json:"parent_hash"` // Hash of the previous block in the chain.
	Number        uint64    `json:"number"`      // Block number in the chain.
	Difficulty    uint16    `json:"difficulty"`  // Number of 0's needed to solve the hash solution.
	Nonce         uint64    `json:"nonce"`       // Value identified to solve the hash solution.
	TimeStamp     uint64    `json:"timestamp"`   // Time the block was mined.
	BeneficiaryID AccountID `json:"beneficiary"` // The account receiving fees and tips.
	TransRoot     string    `json:"trans_root"`  // Hash over the transactions in this block.
}

// Block represents a group of transactions bundled together.
type Block struct {
	Header BlockHeader `json:"header"`
	Trans  []BlockTx   `json:"trans"`
}

// GenesisBlock constructs the first block of the chain from the
// genesis file.
func GenesisBlock(gen genesis.Genesis) Block {
	return Block{
		Header: BlockHeader{
			ParentHash: signature.ZeroHash,
			Number:     0,
			Difficulty: gen.Difficulty,
			TimeStamp:  uint64(gen.Date.UTC().Unix()),
			TransRoot:  TransHash(nil),
		},
	}
}

// Hash returns the unique hash for the Block. The identity is a double hash
// of just the header so the chain can be cryptographically audited with
// block headers alone.
func (b Block) Hash() string {
	return signature.Hash(b.Header)
}

// TransHash produces the merkle root over the set of transactions that is
// recorded in the block header. An empty body commits to a fixed hash since
// the tree needs at least one leaf.
func TransHash(trans []BlockTx) string {
	if len(trans) == 0 {
		return signature.Hash([]string{})
	}

	tree, err := merkle.NewTree(trans)
	if err != nil {
		return signature.ZeroHash
	}

	return tree.RootHex()
}

// Validate checks a block is structurally correct and the work was
// performed. Linkage against the chain is the resolver's concern, a block
// with an unknown parent may still be a valid orphan.
func (b Block) Validate() error {
	if b.Header.Number == 0 {
		return errors.New("genesis block can't be submitted")
	}

	if b.Header.ParentHash == "" {
		return errors.New("parent hash missing")
	}

	if b.Header.TransRoot != TransHash(b.Trans) {
		return errors.New("transaction root doesn't match transactions")
	}

	if !isHashSolved(b.Header.Difficulty, b.Hash()) {
		return fmt.Errorf("%s invalid block hash", b.Hash())
	}

	return nil
}

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	BeneficiaryID AccountID
	Difficulty    uint16
	PrevBlock     Block
	Trans         []BlockTx
	EvHandler     func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	if args.EvHandler == nil {
		args.EvHandler = func(v string, args ...any) {}
	}

	// Construct the block to be mined.
	nb := Block{
		Header: BlockHeader{
			ParentHash:    args.PrevBlock.Hash(),
			Number:        args.PrevBlock.Header.Number + 1,
			Difficulty:    args.Difficulty,
			Nonce:         0, // Will be identified by the POW algorithm.
			TimeStamp:     uint64(time.Now().UTC().Unix()),
			BeneficiaryID: args.BeneficiaryID,
			TransRoot:     TransHash(args.Trans),
		},
		Trans: args.Trans,
	}

	// Perform the proof of work mining operation.
	if err := nb.performPOW(ctx, args.EvHandler); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, ev func(v string, args ...any)) error {
	ev("database: PerformPOW: MINING: started")
	defer ev("database: PerformPOW: MINING: completed")

	// Choose a random starting point for the nonce. After this, the nonce
	// will be incremented by 1 until a solution is found.
	nBig, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return ctx.Err()
	}
	b.Header.Nonce = nBig.Uint64()

	// Loop until we or another node finds a solution for the next block.
	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: PerformPOW: MINING: attempts[%d]", attempts)
		}

		// Did we timeout trying to solve the problem.
		if ctx.Err() != nil {
			ev("database: PerformPOW: MINING: CANCELLED")
			return ctx.Err()
		}

		// Hash the block and check if we have solved the puzzle.
		hash := b.Hash()
		if !isHashSolved(b.Header.Difficulty, hash) {
			b.Header.Nonce++
			continue
		}

		ev("database: PerformPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", b.Header.ParentHash, hash)
		ev("database: PerformPOW: MINING: attempts[%d]", attempts)

		return nil
	}
}

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty uint16, hash string) bool {
	const match = "0x00000000000000000"

	if len(hash) != 66 {
		return false
	}

	// A difficulty past the number of zeros in match still has to be
	// satisfiable, compare as many zeros as match carries.
	prefix := int(difficulty) + 2
	if prefix > len(match) {
		prefix = len(match)
	}

	return hash[:prefix] == match[:prefix]
}
