package sale

import (
	"bytes"

	"github.com/MixinNetwork/mixin/crypto"
)

// AllowlistLeaf derives the tree leaf for an address.
func AllowlistLeaf(addr string) crypto.Hash {
	return crypto.NewHash([]byte(addr))
}

// VerifyMembership recomputes the merkle path from the caller's leaf through
// the proof siblings and compares the result to the commitment. It is a pure
// predicate, a malformed or empty proof just yields false.
func VerifyMembership(addr string, proof []crypto.Hash, commitment crypto.Hash) bool {
	if !commitment.HasValue() {
		return false
	}
	node := AllowlistLeaf(addr)
	for _, sibling := range proof {
		node = combineHashes(node, sibling)
	}
	return node == commitment
}

func combineHashes(a, b crypto.Hash) crypto.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	buf := append(a[:], b[:]...)
	return crypto.NewHash(buf)
}

// Allowlist builds the commitment and membership proofs over a fixed set of
// addresses, with the same sorted-pair convention VerifyMembership checks.
type Allowlist struct {
	leaves map[string]int
	layers [][]crypto.Hash
}

func BuildAllowlist(addrs []string) *Allowlist {
	al := &Allowlist{
		leaves: make(map[string]int),
	}
	var layer []crypto.Hash
	for _, addr := range addrs {
		if _, found := al.leaves[addr]; found {
			continue
		}
		al.leaves[addr] = len(layer)
		layer = append(layer, AllowlistLeaf(addr))
	}
	al.layers = append(al.layers, layer)
	for len(layer) > 1 {
		next := make([]crypto.Hash, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			if i+1 < len(layer) {
				next = append(next, combineHashes(layer[i], layer[i+1]))
			} else {
				next = append(next, layer[i])
			}
		}
		al.layers = append(al.layers, next)
		layer = next
	}
	return al
}

func (al *Allowlist) Commitment() crypto.Hash {
	top := al.layers[len(al.layers)-1]
	if len(top) != 1 {
		return crypto.Hash{}
	}
	return top[0]
}

// Proof returns the sibling path for addr, or nil for a stranger.
func (al *Allowlist) Proof(addr string) []crypto.Hash {
	i, found := al.leaves[addr]
	if !found {
		return nil
	}
	var proof []crypto.Hash
	for _, layer := range al.layers[:len(al.layers)-1] {
		sibling := i ^ 1
		if sibling < len(layer) {
			proof = append(proof, layer[sibling])
		}
		i = i / 2
	}
	return proof
}
