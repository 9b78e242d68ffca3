// Package pda derives the program addresses the vault uses as capability handles.
//
// Every address is recomputed from its seeds on each call. Nothing is cached,
// so two calls with the same inputs always agree and a caller-supplied
// address can be checked against the derivation instead of being trusted.
package pda

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	// VaultSeed tags the native-currency vault of an owner.
	VaultSeed = "vault"
	// TokenOwnerSeed tags the authority that signs outbound token transfers.
	TokenOwnerSeed = "token_account_owner_pda"
	// TokenVaultSeed tags the custody token account of an (asset, owner) pair.
	TokenVaultSeed = "token_vault"
)

// ErrMismatch is returned when a supplied address differs from the derived one.
var ErrMismatch = errors.New("address does not match derivation")

// Address is a program derived address together with the seeds and bump that produce it.
type Address struct {
	Key   solana.PublicKey
	Bump  uint8
	Seeds [][]byte
}

// SignerSeeds returns the seeds with the bump appended, the form a program
// presents when it acts as the authority behind this address.
func (a Address) SignerSeeds() [][]byte {
	seeds := make([][]byte, 0, len(a.Seeds)+1)
	seeds = append(seeds, a.Seeds...)
	return append(seeds, []byte{a.Bump})
}

// Find derives the first off-curve address for seeds under programID.
func Find(programID solana.PublicKey, seeds ...[]byte) (Address, error) {
	key, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return Address{}, fmt.Errorf("find program address: %w", err)
	}
	return Address{Key: key, Bump: bump, Seeds: seeds}, nil
}

// UserVault derives the native vault address of owner.
func UserVault(programID, owner solana.PublicKey) (Address, error) {
	return Find(programID, []byte(VaultSeed), owner.Bytes())
}

// TokenAccountOwner derives the token authority address of owner.
func TokenAccountOwner(programID, owner solana.PublicKey) (Address, error) {
	return Find(programID, []byte(TokenOwnerSeed), owner.Bytes())
}

// TokenVault derives the custody token account of owner for mint.
func TokenVault(programID, mint, owner solana.PublicKey) (Address, error) {
	return Find(programID, []byte(TokenVaultSeed), mint.Bytes(), owner.Bytes())
}

// Verify compares a supplied address with the derived one byte for byte.
func Verify(expected Address, supplied solana.PublicKey) error {
	if !expected.Key.Equals(supplied) {
		return fmt.Errorf("%w: expected %s, got %s", ErrMismatch, expected.Key, supplied)
	}
	return nil
}
