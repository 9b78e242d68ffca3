// Package token moves fungible token units between token accounts.
//
// Transfers are authorised either by the transaction signers or by a program
// presenting the seeds of a program derived address. The program case never
// involves a private key: the proof is valid only when the seeds hash to the
// source account's authority under the claimed program id.
package token

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/congo_vault/internal/ledger"
	"github.com/congo-pay/congo_vault/internal/signer"
	"github.com/congo-pay/congo_vault/internal/system"
)

const (
	// AccountSpace is the size of the standard token-account layout.
	AccountSpace = 165
	// MintSpace is the size of the standard mint layout.
	MintSpace = 82
)

var (
	ErrInsufficientFunds  = errors.New("token: insufficient funds")
	ErrMintMismatch       = errors.New("token: account not associated with this mint")
	ErrOwnerMismatch      = errors.New("token: owner does not match")
	ErrAccountFrozen      = errors.New("token: account is frozen")
	ErrUninitialized      = errors.New("token: account is not initialized")
	ErrAlreadyInitialized = errors.New("token: account already in use")
	ErrInvalidAccount     = errors.New("token: invalid account data for token program")
	ErrOverflow           = errors.New("token: operation overflowed")
)

// Authority proves the right to move funds out of an account owned by owner.
type Authority interface {
	Authorize(owner solana.PublicKey) error
}

// SignerAuthority authorises accounts whose owner signed the transaction.
type SignerAuthority struct {
	Signers signer.Set
}

// Authorize implements Authority.
func (a SignerAuthority) Authorize(owner solana.PublicKey) error {
	if !a.Signers.Contains(owner) {
		return fmt.Errorf("%w: %s did not sign", ErrOwnerMismatch, owner)
	}
	return nil
}

// ProgramAuthority authorises accounts owned by a program derived address.
// Seeds must include the bump.
type ProgramAuthority struct {
	ProgramID solana.PublicKey
	Seeds     [][]byte
}

// Authorize implements Authority.
func (a ProgramAuthority) Authorize(owner solana.PublicKey) error {
	key, err := solana.CreateProgramAddress(a.Seeds, a.ProgramID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOwnerMismatch, err)
	}
	if !key.Equals(owner) {
		return fmt.Errorf("%w: seeds resolve to %s, authority is %s", ErrOwnerMismatch, key, owner)
	}
	return nil
}

// Program implements the token ledger.
type Program struct {
	system *system.Program
}

// NewProgram builds the token program. Account allocation is delegated to sys.
func NewProgram(sys *system.Program) *Program {
	return &Program{system: sys}
}

// CreateMint allocates and initialises a mint at address.
func (p *Program) CreateMint(ctx context.Context, tx ledger.Tx, signers signer.Set, payer, address solana.PublicKey, decimals uint8, mintAuthority solana.PublicKey) error {
	if err := p.system.CreateAccount(ctx, tx, signers, payer, address, MintSpace, solana.TokenProgramID); err != nil {
		return err
	}
	return tx.PutMint(ctx, ledger.Mint{
		Address:       address,
		Decimals:      decimals,
		MintAuthority: mintAuthority,
	})
}

// InitializeAccount binds an allocated token-program account to mint and authority.
func (p *Program) InitializeAccount(ctx context.Context, tx ledger.Tx, address, mint, authority solana.PublicKey) error {
	acc, err := tx.Account(ctx, address)
	if err != nil {
		return err
	}
	if !acc.Owner.Equals(solana.TokenProgramID) || acc.Space < AccountSpace {
		return fmt.Errorf("%w: %s", ErrInvalidAccount, address)
	}
	if _, err := tx.TokenAccount(ctx, address); err == nil {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, address)
	} else if !errors.Is(err, ledger.ErrAccountNotFound) {
		return err
	}
	if _, err := tx.Mint(ctx, mint); err != nil {
		return fmt.Errorf("mint %s: %w", mint, err)
	}
	return tx.PutTokenAccount(ctx, ledger.TokenAccount{
		Address:   address,
		Mint:      mint,
		Authority: authority,
		State:     ledger.TokenAccountInitialized,
	})
}

// CreateAssociatedAccount returns the associated token account of owner for
// mint, creating it when it does not exist yet.
func (p *Program) CreateAssociatedAccount(ctx context.Context, tx ledger.Tx, signers signer.Set, payer, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	address, err := AssociatedAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	existing, err := tx.TokenAccount(ctx, address)
	if err == nil {
		if !existing.Mint.Equals(mint) || !existing.Authority.Equals(owner) {
			return solana.PublicKey{}, fmt.Errorf("%w: %s", ErrInvalidAccount, address)
		}
		return address, nil
	}
	if !errors.Is(err, ledger.ErrAccountNotFound) {
		return solana.PublicKey{}, err
	}
	if err := p.system.CreateAccount(ctx, tx, signers, payer, address, AccountSpace, solana.TokenProgramID); err != nil {
		return solana.PublicKey{}, err
	}
	if err := p.InitializeAccount(ctx, tx, address, mint, owner); err != nil {
		return solana.PublicKey{}, err
	}
	return address, nil
}

// MintTo issues amount new units of mint into destination.
func (p *Program) MintTo(ctx context.Context, tx ledger.Tx, mint, destination solana.PublicKey, amount uint64, auth Authority) error {
	m, err := tx.Mint(ctx, mint)
	if err != nil {
		return fmt.Errorf("mint %s: %w", mint, err)
	}
	if err := auth.Authorize(m.MintAuthority); err != nil {
		return err
	}
	dst, err := initialized(ctx, tx, destination)
	if err != nil {
		return err
	}
	if !dst.Mint.Equals(mint) {
		return ErrMintMismatch
	}
	if m.Supply > math.MaxUint64-amount || dst.Amount > math.MaxUint64-amount {
		return ErrOverflow
	}
	m.Supply += amount
	dst.Amount += amount

	if err := tx.PutMint(ctx, m); err != nil {
		return err
	}
	return tx.PutTokenAccount(ctx, dst)
}

// Transfer moves amount units from one token account to another of the same mint.
func (p *Program) Transfer(ctx context.Context, tx ledger.Tx, from, to solana.PublicKey, amount uint64, auth Authority) error {
	src, err := initialized(ctx, tx, from)
	if err != nil {
		return err
	}
	dst, err := initialized(ctx, tx, to)
	if err != nil {
		return err
	}
	if !src.Mint.Equals(dst.Mint) {
		return ErrMintMismatch
	}
	if err := auth.Authorize(src.Authority); err != nil {
		return err
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: %s holds %d, requested %d", ErrInsufficientFunds, from, src.Amount, amount)
	}
	if from.Equals(to) {
		return nil
	}
	if dst.Amount > math.MaxUint64-amount {
		return ErrOverflow
	}
	src.Amount -= amount
	dst.Amount += amount

	if err := tx.PutTokenAccount(ctx, src); err != nil {
		return err
	}
	return tx.PutTokenAccount(ctx, dst)
}

// AssociatedAddress derives the canonical user-held token account of owner for mint.
func AssociatedAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	address, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive associated token address: %w", err)
	}
	return address, nil
}

// UIAmount converts raw token units into a decimal using the mint's decimals.
func UIAmount(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals))
}

// RawAmount converts a UI amount into raw units. Amounts with more fractional
// digits than decimals, negative amounts and amounts above the uint64 range
// are rejected.
func RawAmount(ui decimal.Decimal, decimals uint8) (uint64, error) {
	if ui.IsNegative() {
		return 0, fmt.Errorf("amount %s is negative", ui)
	}
	raw := ui.Shift(int32(decimals))
	if !raw.Equal(raw.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimals", ui, decimals)
	}
	n := raw.BigInt()
	if !n.IsUint64() {
		return 0, fmt.Errorf("%w: %s", ErrOverflow, ui)
	}
	return n.Uint64(), nil
}

func initialized(ctx context.Context, tx ledger.Tx, address solana.PublicKey) (ledger.TokenAccount, error) {
	acc, err := tx.TokenAccount(ctx, address)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return ledger.TokenAccount{}, fmt.Errorf("%w: %s", ErrUninitialized, address)
		}
		return ledger.TokenAccount{}, err
	}
	switch acc.State {
	case ledger.TokenAccountInitialized:
		return acc, nil
	case ledger.TokenAccountFrozen:
		return ledger.TokenAccount{}, fmt.Errorf("%w: %s", ErrAccountFrozen, address)
	default:
		return ledger.TokenAccount{}, fmt.Errorf("%w: %s", ErrUninitialized, address)
	}
}
