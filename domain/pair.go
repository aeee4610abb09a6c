package domain

import "strings"

// PairKey identifies the direction-agnostic conversation between two
// participants. pair(alice, bob) and pair(bob, alice) are the same key,
// so both sides of a direct exchange share a single history log.
type PairKey string

func NewPairKey(user, peer string) PairKey {
	if peer < user {
		user, peer = peer, user
	}
	return PairKey(user + "|" + peer)
}

// Users returns the two participants of the pair.
func (p PairKey) Users() (string, string) {
	left, right, _ := strings.Cut(string(p), "|")
	return left, right
}

// Append is one write-through job for the persistence queue.
type Append struct {
	Pair    PairKey
	Message Message
}
