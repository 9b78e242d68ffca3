package vault

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/congo-pay/congo_vault/internal/ledger"
	"github.com/congo-pay/congo_vault/internal/pda"
	"github.com/congo-pay/congo_vault/internal/system"
)

// Service answers read-only questions about vault state.
type Service struct {
	store     ledger.Store
	programID solana.PublicKey
}

// NewService constructs a read service for vaults of programID.
func NewService(store ledger.Store, programID solana.PublicKey) *Service {
	return &Service{store: store, programID: programID}
}

// NativeVault describes the native vault of an owner.
type NativeVault struct {
	Owner      solana.PublicKey
	Address    solana.PublicKey
	Bump       uint8
	Registered bool
	Lamports   uint64
	Reserve    uint64
}

// Available is the part of the vault balance that can be withdrawn.
func (v NativeVault) Available() uint64 {
	if v.Lamports <= v.Reserve {
		return 0
	}
	return v.Lamports - v.Reserve
}

// TokenVaultState describes the token vault of an owner for one mint.
type TokenVaultState struct {
	Owner      solana.PublicKey
	Mint       solana.PublicKey
	Address    solana.PublicKey
	Authority  solana.PublicKey
	Registered bool
	Amount     uint64
	Decimals   uint8
}

// Vault derives the native vault of owner and reads its balance.
func (s *Service) Vault(ctx context.Context, owner solana.PublicKey) (NativeVault, error) {
	addr, err := pda.UserVault(s.programID, owner)
	if err != nil {
		return NativeVault{}, err
	}
	out := NativeVault{Owner: owner, Address: addr.Key, Bump: addr.Bump, Reserve: system.MinimumBalance(VaultSpace)}

	err = s.store.View(ctx, func(tx ledger.Tx) error {
		acc, err := tx.Account(ctx, addr.Key)
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		out.Registered = acc.Owner.Equals(s.programID)
		out.Lamports = acc.Lamports
		return nil
	})
	return out, err
}

// TokenVault derives the token vault of owner for mint and reads its balance.
func (s *Service) TokenVault(ctx context.Context, owner, mint solana.PublicKey) (TokenVaultState, error) {
	authority, err := pda.TokenAccountOwner(s.programID, owner)
	if err != nil {
		return TokenVaultState{}, err
	}
	addr, err := pda.TokenVault(s.programID, mint, owner)
	if err != nil {
		return TokenVaultState{}, err
	}
	out := TokenVaultState{Owner: owner, Mint: mint, Address: addr.Key, Authority: authority.Key}

	err = s.store.View(ctx, func(tx ledger.Tx) error {
		m, err := tx.Mint(ctx, mint)
		if err != nil {
			return err
		}
		out.Decimals = m.Decimals

		acc, err := tx.TokenAccount(ctx, addr.Key)
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		out.Registered = true
		out.Amount = acc.Amount
		return nil
	})
	return out, err
}

// Account reads a host ledger account.
func (s *Service) Account(ctx context.Context, address solana.PublicKey) (ledger.Account, error) {
	var acc ledger.Account
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		var err error
		acc, err = tx.Account(ctx, address)
		return err
	})
	return acc, err
}

// TokenAccount reads a token account together with its mint.
func (s *Service) TokenAccount(ctx context.Context, address solana.PublicKey) (ledger.TokenAccount, ledger.Mint, error) {
	var (
		acc  ledger.TokenAccount
		mint ledger.Mint
	)
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		var err error
		if acc, err = tx.TokenAccount(ctx, address); err != nil {
			return err
		}
		mint, err = tx.Mint(ctx, acc.Mint)
		return err
	})
	return acc, mint, err
}
