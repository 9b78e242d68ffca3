package signer

import (
	"bytes"
	"sort"

	"github.com/gagliardetto/solana-go"
)

// Set holds the public keys whose signatures were verified for a transaction.
type Set map[solana.PublicKey]struct{}

// NewSet builds a signer set from the provided keys.
func NewSet(keys ...solana.PublicKey) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Contains reports whether key signed the transaction.
func (s Set) Contains(key solana.PublicKey) bool {
	_, ok := s[key]
	return ok
}

// Keys returns the signers in byte order so callers get a stable iteration.
func (s Set) Keys() []solana.PublicKey {
	keys := make([]solana.PublicKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}
