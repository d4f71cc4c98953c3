// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.
// This code has been cleaned up, refactored, and turned into generics.

// Package merkle provides a merkle tree over the transactions in a block so
// the block header can commit to its body with a single root hash.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable[T any] interface {
	Hash() ([]byte, error)
	Equals(other T) bool
}

// =============================================================================

// Tree represents a merkle tree over data of some type T that exhibits the
// behavior defined by the Hashable constraint.
type Tree[T Hashable[T]] struct {
	Root       *Node[T]
	Leafs      []*Node[T]
	MerkleRoot []byte
}

// NewTree constructs a merkle tree over the specified values. At least one
// value is required, an empty body has no tree.
func NewTree[T Hashable[T]](values []T) (*Tree[T], error) {
	var t Tree[T]

	if err := t.Generate(values); err != nil {
		return nil, err
	}

	return &t, nil
}

// Generate constructs the leafs and intermediate nodes of the tree from the
// specified values. Any previously generated state is replaced.
func (t *Tree[T]) Generate(values []T) error {
	if len(values) == 0 {
		return errors.New("cannot construct tree with no content")
	}

	var leafs []*Node[T]
	for _, value := range values {
		hash, err := value.Hash()
		if err != nil {
			return err
		}

		leafs = append(leafs, &Node[T]{
			Hash:  hash,
			Value: value,
			leaf:  true,
		})
	}

	// An odd leaf count gets the last leaf duplicated so every node
	// has two children.
	if len(leafs)%2 == 1 {
		duplicate := &Node[T]{
			Hash:  leafs[len(leafs)-1].Hash,
			Value: leafs[len(leafs)-1].Value,
			leaf:  true,
			dup:   true,
		}
		leafs = append(leafs, duplicate)
	}

	root, err := buildIntermediate(leafs)
	if err != nil {
		return err
	}

	t.Root = root
	t.Leafs = leafs
	t.MerkleRoot = root.Hash

	return nil
}

// Proof returns the sibling hashes and the concatenation order needed to
// prove the specified value is committed to by the root. Order 0 means the
// proof hash concatenates first, order 1 second.
func (t *Tree[T]) Proof(data T) ([][]byte, []int64, error) {
	for _, node := range t.Leafs {
		if !node.Value.Equals(data) {
			continue
		}

		var proof [][]byte
		var order []int64
		parent := node.Parent

		for parent != nil {
			if bytes.Equal(parent.Left.Hash, node.Hash) {
				proof = append(proof, parent.Right.Hash)
				order = append(order, 1)
			} else {
				proof = append(proof, parent.Left.Hash)
				order = append(order, 0)
			}
			node = parent
			parent = parent.Parent
		}

		return proof, order, nil
	}

	return nil, nil, errors.New("unable to find data in tree")
}

// Verify recomputes the hashes at every level of the tree and checks the
// result matches the stored root.
func (t *Tree[T]) Verify() error {
	root, err := t.Root.verify()
	if err != nil {
		return err
	}

	if !bytes.Equal(t.MerkleRoot, root) {
		return errors.New("root hash invalid")
	}

	return nil
}

// VerifyData checks the specified value is in the tree and that the hashes
// along its path to the root are consistent.
func (t *Tree[T]) VerifyData(data T) error {
	for _, node := range t.Leafs {
		if !node.Value.Equals(data) {
			continue
		}

		parent := node.Parent
		for parent != nil {
			leftBytes, err := parent.Left.CalculateHash()
			if err != nil {
				return err
			}

			rightBytes, err := parent.Right.CalculateHash()
			if err != nil {
				return err
			}

			sum := sha256.Sum256(append(leftBytes, rightBytes...))
			if !bytes.Equal(sum[:], parent.Hash) {
				return errors.New("path to root is not consistent with the root hash")
			}

			parent = parent.Parent
		}

		return nil
	}

	return errors.New("unable to find data in tree")
}

// Values returns the unique values stored in the tree, without the padding
// duplicate.
func (t *Tree[T]) Values() []T {
	var values []T
	for _, node := range t.Leafs {
		if node.dup {
			continue
		}
		values = append(values, node.Value)
	}

	return values
}

// RootHex returns the merkle root as a hex encoded string.
func (t *Tree[T]) RootHex() string {
	return hexutil.Encode(t.MerkleRoot)
}

// =============================================================================

// Node represents a leaf, intermediate node, or the root of the tree.
type Node[T Hashable[T]] struct {
	Parent *Node[T]
	Left   *Node[T]
	Right  *Node[T]
	Hash   []byte
	Value  T
	leaf   bool
	dup    bool
}

// verify walks down to the leaves, recomputing the hash at each level, and
// returns the resulting hash for this node.
func (n *Node[T]) verify() ([]byte, error) {
	if n.leaf {
		return n.Value.Hash()
	}

	leftBytes, err := n.Left.verify()
	if err != nil {
		return nil, err
	}

	rightBytes, err := n.Right.verify()
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(append(leftBytes, rightBytes...))
	return sum[:], nil
}

// CalculateHash returns the hash of the node from its children, or the
// value's own hash for a leaf.
func (n *Node[T]) CalculateHash() ([]byte, error) {
	if n.leaf {
		return n.Value.Hash()
	}

	sum := sha256.Sum256(append(n.Left.Hash, n.Right.Hash...))
	return sum[:], nil
}

// =============================================================================

// buildIntermediate pairs up the nodes of one level, hashes each pair into a
// parent node, and recurses until a single root remains.
func buildIntermediate[T Hashable[T]](nl []*Node[T]) (*Node[T], error) {
	var nodes []*Node[T]

	for i := 0; i < len(nl); i += 2 {
		left, right := i, i+1
		if i+1 == len(nl) {
			right = i
		}

		sum := sha256.Sum256(append(nl[left].Hash, nl[right].Hash...))

		n := Node[T]{
			Left:  nl[left],
			Right: nl[right],
			Hash:  sum[:],
		}

		nodes = append(nodes, &n)
		nl[left].Parent = &n
		nl[right].Parent = &n

		if len(nl) == 2 {
			return &n, nil
		}
	}

	return buildIntermediate(nodes)
}
