// Package faucet funds accounts and issues test tokens for operators.
package faucet

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/congo-pay/congo_vault/internal/ledger"
	"github.com/congo-pay/congo_vault/internal/signer"
	"github.com/congo-pay/congo_vault/internal/system"
	"github.com/congo-pay/congo_vault/internal/token"
)

// MaxAirdrop caps a single airdrop at 5 SOL.
const MaxAirdrop = 5_000_000_000

var (
	// ErrAirdropLimit is returned for airdrops above MaxAirdrop.
	ErrAirdropLimit = errors.New("airdrop exceeds limit")
	// ErrInvalidAmount is returned for zero amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrMintNotOwned is returned when minting on a mint the faucet does not control.
	ErrMintNotOwned = errors.New("mint authority is not the faucet")
)

// Service issues lamports and tokens. The operator key pays rent for every
// account it creates and is the authority of the mints it creates.
type Service struct {
	store    ledger.Store
	system   *system.Program
	tokens   *token.Program
	operator solana.PublicKey
}

// NewService constructs a faucet acting as operator.
func NewService(store ledger.Store, sys *system.Program, tokens *token.Program, operator solana.PublicKey) *Service {
	return &Service{store: store, system: sys, tokens: tokens, operator: operator}
}

// Operator returns the operator key.
func (s *Service) Operator() solana.PublicKey {
	return s.operator
}

// Airdrop credits lamports to address and returns the new balance.
func (s *Service) Airdrop(ctx context.Context, address solana.PublicKey, lamports uint64) (uint64, error) {
	if lamports == 0 {
		return 0, ErrInvalidAmount
	}
	if lamports > MaxAirdrop {
		return 0, fmt.Errorf("%w: %d > %d", ErrAirdropLimit, lamports, uint64(MaxAirdrop))
	}

	var balance uint64
	err := s.store.Update(ctx, func(tx ledger.Tx) error {
		var err error
		balance, err = s.system.Airdrop(ctx, tx, address, lamports)
		return err
	})
	return balance, err
}

// MintResult describes a created mint.
type MintResult struct {
	Mint          solana.PublicKey
	Decimals      uint8
	MintAuthority solana.PublicKey
}

// CreateMint creates a mint controlled by the operator.
func (s *Service) CreateMint(ctx context.Context, decimals uint8) (MintResult, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return MintResult{}, fmt.Errorf("generate mint key: %w", err)
	}
	mint := key.PublicKey()

	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		if err := s.ensureRent(ctx, tx, token.MintSpace); err != nil {
			return err
		}
		return s.tokens.CreateMint(ctx, tx, s.signers(), s.operator, mint, decimals, s.operator)
	})
	if err != nil {
		return MintResult{}, err
	}
	return MintResult{Mint: mint, Decimals: decimals, MintAuthority: s.operator}, nil
}

// CreateTokenAccount returns the associated token account of owner for mint,
// creating it when absent.
func (s *Service) CreateTokenAccount(ctx context.Context, mint, owner solana.PublicKey) (solana.PublicKey, error) {
	var address solana.PublicKey
	err := s.store.Update(ctx, func(tx ledger.Tx) error {
		var err error
		address, err = s.associated(ctx, tx, mint, owner)
		return err
	})
	return address, err
}

// MintToResult reports the destination of a mint-to.
type MintToResult struct {
	TokenAccount solana.PublicKey
	Amount       uint64
	Decimals     uint8
}

// MintTo issues amount raw units of mint into the associated account of owner.
func (s *Service) MintTo(ctx context.Context, mint, owner solana.PublicKey, amount uint64) (MintToResult, error) {
	if amount == 0 {
		return MintToResult{}, ErrInvalidAmount
	}

	var out MintToResult
	err := s.store.Update(ctx, func(tx ledger.Tx) error {
		m, err := tx.Mint(ctx, mint)
		if err != nil {
			return fmt.Errorf("mint %s: %w", mint, err)
		}
		if !m.MintAuthority.Equals(s.operator) {
			return fmt.Errorf("%w: %s", ErrMintNotOwned, mint)
		}
		address, err := s.associated(ctx, tx, mint, owner)
		if err != nil {
			return err
		}
		if err := s.tokens.MintTo(ctx, tx, mint, address, amount, token.SignerAuthority{Signers: s.signers()}); err != nil {
			return err
		}
		acc, err := tx.TokenAccount(ctx, address)
		if err != nil {
			return err
		}
		out = MintToResult{TokenAccount: address, Amount: acc.Amount, Decimals: m.Decimals}
		return nil
	})
	return out, err
}

// Decimals returns the decimals of mint.
func (s *Service) Decimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	var decimals uint8
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		m, err := tx.Mint(ctx, mint)
		decimals = m.Decimals
		return err
	})
	return decimals, err
}

func (s *Service) associated(ctx context.Context, tx ledger.Tx, mint, owner solana.PublicKey) (solana.PublicKey, error) {
	address, err := token.AssociatedAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if _, err := tx.TokenAccount(ctx, address); err == nil {
		return address, nil
	}
	if err := s.ensureRent(ctx, tx, token.AccountSpace); err != nil {
		return solana.PublicKey{}, err
	}
	return s.tokens.CreateAssociatedAccount(ctx, tx, s.signers(), s.operator, owner, mint)
}

// ensureRent tops the operator up so it can pay for an account of space bytes.
func (s *Service) ensureRent(ctx context.Context, tx ledger.Tx, space uint64) error {
	need := system.MinimumBalance(space)
	acc, err := tx.Account(ctx, s.operator)
	if err != nil && !errors.Is(err, ledger.ErrAccountNotFound) {
		return err
	}
	if system.Spendable(acc) >= need {
		return nil
	}
	_, err = s.system.Airdrop(ctx, tx, s.operator, need+system.MinimumBalance(0))
	return err
}

func (s *Service) signers() signer.Set {
	return signer.NewSet(s.operator)
}
