package database

// OrphanSet holds blocks whose parent is not yet known in the chain or any
// fork. Insertion order is preserved so consolidation passes are
// deterministic.
type OrphanSet struct {
	order  []string
	blocks map[string]Block
}

// NewOrphanSet constructs an empty orphan set.
func NewOrphanSet() OrphanSet {
	return OrphanSet{
		blocks: make(map[string]Block),
	}
}

// Add places the block in the set. Adding the same block twice is a no-op.
func (os *OrphanSet) Add(block Block) {
	hash := block.Hash()
	if _, exists := os.blocks[hash]; exists {
		return
	}

	os.order = append(os.order, hash)
	os.blocks[hash] = block
}

// Remove takes the block with the specified hash out of the set.
func (os *OrphanSet) Remove(hash string) {
	if _, exists := os.blocks[hash]; !exists {
		return
	}

	delete(os.blocks, hash)
	for i, h := range os.order {
		if h == hash {
			os.order = append(os.order[:i], os.order[i+1:]...)
			break
		}
	}
}

// Contains reports whether a block with the specified hash is in the set.
func (os OrphanSet) Contains(hash string) bool {
	_, exists := os.blocks[hash]
	return exists
}

// Count returns the number of orphan blocks being held.
func (os OrphanSet) Count() int {
	return len(os.order)
}

// Blocks returns the orphan blocks in insertion order.
func (os OrphanSet) Blocks() []Block {
	blocks := make([]Block, 0, len(os.order))
	for _, hash := range os.order {
		blocks = append(blocks, os.blocks[hash])
	}

	return blocks
}

// Clone returns a deep copy of the set.
func (os OrphanSet) Clone() OrphanSet {
	clone := OrphanSet{
		order:  make([]string, len(os.order)),
		blocks: make(map[string]Block, len(os.blocks)),
	}

	copy(clone.order, os.order)
	for hash, block := range os.blocks {
		clone.blocks[hash] = block
	}

	return clone
}
