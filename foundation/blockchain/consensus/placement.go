package consensus

import (
	"fmt"

	"github.com/forkline/blockchain/foundation/blockchain/database"
)

// PlacementKind enumerates where an incoming block lands relative to the
// current chain and fork set.
type PlacementKind int

// The set of possible placements for an incoming block.
const (
	AtTop    PlacementKind = iota // Parent is the chain tip.
	WithFork                      // Parent is a chain block that is not the tip.
	InFork                        // Parent is a block inside an existing fork.
	Orphaned                      // Parent is not known anywhere.
)

// String implements the fmt.Stringer interface.
func (pk PlacementKind) String() string {
	switch pk {
	case AtTop:
		return "at-top"
	case WithFork:
		return "with-fork"
	case InFork:
		return "in-fork"
	case Orphaned:
		return "orphaned"
	}

	return fmt.Sprintf("unknown(%d)", int(pk))
}

// Placement is the tagged result of classifying an incoming block. Fork is
// only meaningful when Kind is InFork.
type Placement struct {
	Kind PlacementKind
	Fork int
}

// Classify determines where the incoming block lands by way of its parent
// hash. It is a total function: every block receives a placement.
func Classify(block database.Block, chain database.Chain, forks database.Forks) Placement {
	parentHash := block.Header.ParentHash

	if parentHash == chain.Tip().Hash() {
		return Placement{Kind: AtTop}
	}

	if chain.Contains(parentHash) {
		return Placement{Kind: WithFork}
	}

	if i := forks.IndexContaining(parentHash); i != -1 {
		return Placement{Kind: InFork, Fork: i}
	}

	return Placement{Kind: Orphaned}
}
