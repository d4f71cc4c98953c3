package database

// Fork represents a candidate branch diverging from the canonical chain. Only
// the divergent suffix is stored, oldest block first; the first block's
// parent hash identifies the branch point on the chain.
type Fork []Block

// NewFork constructs a fork from its first divergent block.
func NewFork(block Block) Fork {
	return Fork{block}
}

// BranchParent returns the hash of the chain block this fork diverges from.
func (f Fork) BranchParent() string {
	return f[0].Header.ParentHash
}

// Tip returns the most recently accepted block of the fork.
func (f Fork) Tip() Block {
	return f[len(f)-1]
}

// Contains reports whether a block with the specified hash is in the fork.
func (f Fork) Contains(hash string) bool {
	for _, blk := range f {
		if blk.Hash() == hash {
			return true
		}
	}

	return false
}

// Extend returns a new fork with the specified block appended at the tip.
// The receiver is not mutated.
func (f Fork) Extend(block Block) Fork {
	fork := make(Fork, len(f), len(f)+1)
	copy(fork, f)

	return append(fork, block)
}

// =============================================================================

// Forks represents the set of candidate branches currently pending against
// the canonical chain.
type Forks []Fork

// Clone returns a copy of the fork set. The individual forks are shared
// since they are only ever replaced, never mutated.
func (fs Forks) Clone() Forks {
	if fs == nil {
		return nil
	}

	forks := make(Forks, len(fs))
	copy(forks, fs)

	return forks
}

// IndexContaining returns the index of the first fork containing a block
// with the specified hash, or -1 if no fork does.
func (fs Forks) IndexContaining(hash string) int {
	for i, f := range fs {
		if f.Contains(hash) {
			return i
		}
	}

	return -1
}

// AllEqualLength reports whether every fork in the set has the same length.
// An empty or single fork set is considered all equal.
func (fs Forks) AllEqualLength() bool {
	for i := 1; i < len(fs); i++ {
		if len(fs[i]) != len(fs[0]) {
			return false
		}
	}

	return true
}

// StrictlyLongest returns the index of the fork that is strictly longer than
// every other fork. The bool reports whether such a fork exists.
func (fs Forks) StrictlyLongest() (int, bool) {
	if len(fs) == 0 {
		return -1, false
	}

	longest := 0
	unique := true
	for i := 1; i < len(fs); i++ {
		switch {
		case len(fs[i]) > len(fs[longest]):
			longest = i
			unique = true
		case len(fs[i]) == len(fs[longest]):
			unique = false
		}
	}

	return longest, unique
}
