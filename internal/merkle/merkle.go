// Package merkle builds batch commitment trees and inclusion proofs.
//
// Leaves are 64-char hex SHA-256 digests. Parents are computed by hashing the
// concatenation of the two child hex strings, and an odd level duplicates its
// last hash to pair with itself. Both rules are part of the external contract:
// an independent verifier must reproduce the exact same roots and proofs.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
)

// Side records where a proof sibling sits relative to the running hash.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// ProofStep is one level of an inclusion proof.
type ProofStep struct {
	Hash string `json:"hash"`
	Side Side   `json:"side"`
}

// HashData returns the hex SHA-256 digest of a string.
func HashData(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// BuildRoot reduces a batch of leaf hashes to a single root.
// An empty batch yields the empty sentinel root; a singleton batch's root is
// the leaf itself.
func BuildRoot(leaves []string) string {
	if len(leaves) == 0 {
		return ""
	}
	level := append([]string(nil), leaves...)
	for len(level) > 1 {
		level = nextLevel(level)
	}
	return level[0]
}

// GenerateProof returns the sibling path for target within leaves, or
// found=false when the target is not part of the batch. A singleton batch
// needs no proof.
func GenerateProof(leaves []string, target string) (proof []ProofStep, found bool) {
	index := -1
	for i, leaf := range leaves {
		if leaf == target {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, false
	}
	if len(leaves) == 1 {
		return []ProofStep{}, true
	}

	proof = []ProofStep{}
	level := append([]string(nil), leaves...)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		if index%2 == 0 {
			proof = append(proof, ProofStep{Hash: level[index+1], Side: SideRight})
		} else {
			proof = append(proof, ProofStep{Hash: level[index-1], Side: SideLeft})
		}
		level = nextLevel(level)
		index /= 2
	}
	return proof, true
}

// VerifyProof folds the proof back up to a root and compares it to the
// expected root.
func VerifyProof(target, root string, proof []ProofStep) bool {
	current := target
	for _, step := range proof {
		if step.Side == SideLeft {
			current = HashData(step.Hash + current)
		} else {
			current = HashData(current + step.Hash)
		}
	}
	return current == root
}

// nextLevel pairs adjacent hashes, duplicating the last one when the level
// has an odd count.
func nextLevel(level []string) []string {
	if len(level)%2 == 1 {
		level = append(level, level[len(level)-1])
	}
	next := make([]string, 0, len(level)/2)
	for i := 0; i < len(level); i += 2 {
		next = append(next, HashData(level[i]+level[i+1]))
	}
	return next
}
