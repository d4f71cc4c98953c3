package database

import (
	"fmt"
)

// Chain represents the canonical sequence of blocks, genesis first, the tip
// last. A chain is never empty and every block's parent hash matches the
// hash of the block before it.
type Chain []Block

// NewChain constructs a chain from its genesis block.
func NewChain(genesisBlock Block) Chain {
	return Chain{genesisBlock}
}

// Tip returns the most recently accepted block of the chain.
func (c Chain) Tip() Block {
	return c[len(c)-1]
}

// Length returns the number of blocks in the chain.
func (c Chain) Length() int {
	return len(c)
}

// Lookup searches the chain for the block with the specified hash.
func (c Chain) Lookup(hash string) (Block, bool) {
	for _, blk := range c {
		if blk.Hash() == hash {
			return blk, true
		}
	}

	return Block{}, false
}

// Contains reports whether a block with the specified hash is in the chain.
func (c Chain) Contains(hash string) bool {
	_, found := c.Lookup(hash)
	return found
}

// Above returns the blocks strictly above the specified block number.
func (c Chain) Above(number uint64) []Block {
	var blocks []Block
	for _, blk := range c {
		if blk.Header.Number > number {
			blocks = append(blocks, blk)
		}
	}

	return blocks
}

// Extend returns a new chain with the specified block appended at the tip.
// The receiver is not mutated.
func (c Chain) Extend(block Block) Chain {
	chain := make(Chain, len(c), len(c)+1)
	copy(chain, c)

	return append(chain, block)
}

// UpTo returns the prefix of the chain through the block with the specified
// hash inclusive. The bool reports whether the hash was found.
func (c Chain) UpTo(hash string) (Chain, bool) {
	for i, blk := range c {
		if blk.Hash() == hash {
			chain := make(Chain, i+1)
			copy(chain, c[:i+1])
			return chain, true
		}
	}

	return nil, false
}

// Validate audits the chain is not empty and is internally hash linked.
func (c Chain) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("chain is missing its genesis block")
	}

	for i := 1; i < len(c); i++ {
		if c[i].Header.ParentHash != c[i-1].Hash() {
			return fmt.Errorf("chain link broken at block [%d]", c[i].Header.Number)
		}
	}

	return nil
}
