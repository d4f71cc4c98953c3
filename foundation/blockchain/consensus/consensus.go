// Package consensus implements the resolution engine for the blockchain.
// Resolve is a pure function that decides how an incoming block changes the
// canonical chain, the pending forks, and the orphan set, following a
// longest-valid-chain rule with deferred resolution on ties.
package consensus

import (
	"github.com/forkline/blockchain/foundation/blockchain/database"
)

// Result represents the state triple produced by resolving a block.
type Result struct {
	Chain   database.Chain
	Forks   database.Forks
	Orphans database.OrphanSet
}

// Resolve classifies the incoming block against the current chain, forks and
// orphans and produces the updated triple. The inputs are never mutated and
// the same inputs always produce the same result. A block that fails
// validation is silently ignored, the inputs are returned unchanged.
func Resolve(block database.Block, chain database.Chain, forks database.Forks, orphans database.OrphanSet) Result {
	unchanged := Result{Chain: chain, Forks: forks, Orphans: orphans}

	if err := block.Validate(); err != nil {
		return unchanged
	}

	// A block already absorbed somewhere is a re-delivery, drop it.
	if chain.Contains(block.Hash()) || forks.IndexContaining(block.Hash()) != -1 {
		return unchanged
	}

	placement := Classify(block, chain, forks)

	switch placement.Kind {
	case AtTop:

		// The block extends the canonical chain. Absorb it and give waiting
		// orphans one chance to follow it in.
		newChain := chain.Extend(block)
		newChain, newOrphans := consolidateChain(newChain, orphans)

		return Result{Chain: newChain, Forks: forks.Clone(), Orphans: newOrphans}

	case WithFork:

		// The block branches below the tip. The chain blocks above the
		// branch point lose canonical status and are demoted into a fork
		// of their own, so the old tip's branch and the newcomer compete
		// under the same longest-wins rule. Orphans then get a chance to
		// extend any fork they connect to before the rule is applied.
		parent, _ := chain.Lookup(block.Header.ParentHash)
		suffix := database.Fork(chain.Above(parent.Header.Number))
		newChain, _ := chain.UpTo(block.Header.ParentHash)

		newForks := append(forks.Clone(), suffix, database.NewFork(block))
		newForks, newOrphans := consolidateForks(newForks, orphans)

		newChain, newForks, _ = promote(newChain, newForks)

		return Result{Chain: newChain, Forks: newForks, Orphans: newOrphans}

	case InFork:

		// The block extends a pending fork. Same dance as above, but when a
		// fork wins the chain changed, so orphans get a pass against the
		// new chain as well.
		newForks := forks.Clone()
		newForks[placement.Fork] = newForks[placement.Fork].Extend(block)
		newForks, newOrphans := consolidateForks(newForks, orphans)

		newChain, newForks, promoted := promote(chain, newForks)
		if promoted {
			newChain, newOrphans = consolidateChain(newChain, newOrphans)
		}

		return Result{Chain: newChain, Forks: newForks, Orphans: newOrphans}

	case Orphaned:

		// Nobody knows the parent yet. Hold the block until it shows up.
		newOrphans := orphans.Clone()
		newOrphans.Add(block)

		return Result{Chain: chain, Forks: forks.Clone(), Orphans: newOrphans}
	}

	return unchanged
}

// =============================================================================

// consolidateChain runs a single consolidation pass of the orphan set
// against the chain. An orphan is moved into the chain when its parent is
// the chain tip as of the start of the pass. An orphan whose parent is
// itself a newly moved orphan stays put: chains of orphans resolve one
// generation per triggering event. This single pass (not a fixed point) is
// deliberate, observable behavior.
func consolidateChain(chain database.Chain, orphans database.OrphanSet) (database.Chain, database.OrphanSet) {
	startTip := chain.Tip().Hash()

	newChain := chain
	remaining := database.NewOrphanSet()

	for _, blk := range orphans.Blocks() {

		// An orphan that made it into the chain by another road is done.
		if newChain.Contains(blk.Hash()) {
			continue
		}

		if blk.Header.ParentHash == startTip && newChain.Tip().Hash() == startTip {
			newChain = newChain.Extend(blk)
			continue
		}

		remaining.Add(blk)
	}

	return newChain, remaining
}

// consolidateForks runs a single consolidation pass of the orphan set
// against every fork independently, in fork order. The same one generation
// per pass rule applies as for the chain.
func consolidateForks(forks database.Forks, orphans database.OrphanSet) (database.Forks, database.OrphanSet) {
	newForks := forks.Clone()
	remaining := orphans

	for i := range newForks {
		startTip := newForks[i].Tip().Hash()

		next := database.NewOrphanSet()
		for _, blk := range remaining.Blocks() {
			if newForks[i].Contains(blk.Hash()) {
				continue
			}

			if blk.Header.ParentHash == startTip && newForks[i].Tip().Hash() == startTip {
				newForks[i] = newForks[i].Extend(blk)
				continue
			}

			next.Add(blk)
		}

		remaining = next
	}

	return newForks, remaining
}

// promote applies the longest-wins rule. When the forks are not all of equal
// length and exactly one fork is strictly longer than every other, the chain
// becomes the shared prefix up to that fork's branch point plus the fork's
// blocks, and every fork is discarded. Forks of identical length are never
// chosen between, resolution stays deferred until one pulls ahead.
func promote(chain database.Chain, forks database.Forks) (database.Chain, database.Forks, bool) {
	if forks.AllEqualLength() {
		return chain, forks, false
	}

	longest, unique := forks.StrictlyLongest()
	if !unique {
		return chain, forks, false
	}

	winner := forks[longest]
	prefix, found := chain.UpTo(winner.BranchParent())
	if !found {

		// The branch point is gone from the chain. The fork can never be
		// grafted on, leave everything pending.
		return chain, forks, false
	}

	newChain := append(prefix, winner...)

	return newChain, nil, true
}
