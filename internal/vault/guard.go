package vault

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"

	"github.com/congo-pay/congo_vault/internal/ledger"
	"github.com/congo-pay/congo_vault/internal/pda"
	"github.com/congo-pay/congo_vault/internal/system"
	"github.com/congo-pay/congo_vault/internal/token"
)

// requireAddress rejects a supplied account that is not the derived one.
func requireAddress(name string, expected pda.Address, supplied solana.PublicKey) error {
	if err := pda.Verify(expected, supplied); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidAccount, name, err)
	}
	return nil
}

func requireProgram(name string, expected, supplied solana.PublicKey) error {
	if !expected.Equals(supplied) {
		return fmt.Errorf("%w: %s must be %s, got %s", ErrInvalidAccount, name, expected, supplied)
	}
	return nil
}

// requireSigned rejects an instruction whose signer account did not sign. It
// runs before any address is derived from that account.
func requireSigned(ic *InvokeContext, key solana.PublicKey) error {
	if !ic.Signers.Contains(key) {
		return fmt.Errorf("%w: %s", ErrMissingSignature, key)
	}
	return nil
}

// requireSigner checks that owner signed and that no signature comes from a
// key the instruction does not reference.
func requireSigner(ic *InvokeContext, owner solana.PublicKey, accounts Accounts) error {
	if err := requireSigned(ic, owner); err != nil {
		return err
	}
	for _, key := range ic.Signers.Keys() {
		if !accounts.references(key) {
			return fmt.Errorf("%w: %s", ErrUnknownSigner, key)
		}
	}
	return nil
}

func requirePositive(amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	return nil
}

// requireSpendable checks that balance covers amount while keeping reserve.
func requireSpendable(name string, balance, reserve, amount uint64) error {
	if balance < reserve || balance-reserve < amount {
		return fmt.Errorf("%w: %s holds %d with reserve %d, requested %d", ErrInsufficientFunds, name, balance, reserve, amount)
	}
	return nil
}

func checkedAdd(balance, amount uint64) (uint64, error) {
	if balance > math.MaxUint64-amount {
		return 0, fmt.Errorf("%w: balance overflow", ErrInvalidAccount)
	}
	return balance + amount, nil
}

// programAccount loads an account that must exist and be owned by owner.
func programAccount(ctx context.Context, tx ledger.Tx, name string, address, owner solana.PublicKey) (ledger.Account, error) {
	acc, err := tx.Account(ctx, address)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return ledger.Account{}, fmt.Errorf("%w: %s %s is not initialized", ErrInvalidAccount, name, address)
		}
		return ledger.Account{}, err
	}
	if !acc.Owner.Equals(owner) {
		return ledger.Account{}, fmt.Errorf("%w: %s is owned by %s", ErrInvalidAccount, name, acc.Owner)
	}
	return acc, nil
}

// boundTokenAccount loads a token account and checks its mint and authority.
func boundTokenAccount(ctx context.Context, tx ledger.Tx, name string, address, mint, authority solana.PublicKey) (ledger.TokenAccount, error) {
	acc, err := tx.TokenAccount(ctx, address)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return ledger.TokenAccount{}, fmt.Errorf("%w: %s %s is not a token account", ErrInvalidAccount, name, address)
		}
		return ledger.TokenAccount{}, err
	}
	if !acc.Mint.Equals(mint) {
		return ledger.TokenAccount{}, fmt.Errorf("%w: %s holds mint %s, expected %s", ErrInvalidAccount, name, acc.Mint, mint)
	}
	if !acc.Authority.Equals(authority) {
		return ledger.TokenAccount{}, fmt.Errorf("%w: %s authority is %s, expected %s", ErrInvalidAccount, name, acc.Authority, authority)
	}
	if acc.State != ledger.TokenAccountInitialized {
		return ledger.TokenAccount{}, fmt.Errorf("%w: %s is not usable", ErrInvalidAccount, name)
	}
	return acc, nil
}

// collaboratorError translates failures of the system and token programs.
func collaboratorError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, system.ErrInsufficientFunds), errors.Is(err, token.ErrInsufficientFunds):
		return fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
	case errors.Is(err, system.ErrMissingSigner), errors.Is(err, token.ErrOwnerMismatch):
		return fmt.Errorf("%w: %v", ErrMissingSignature, err)
	case errors.Is(err, ledger.ErrAccountExists), errors.Is(err, token.ErrAlreadyInitialized):
		return fmt.Errorf("%w: %v", ErrAlreadyRegistered, err)
	case errors.Is(err, system.ErrNotSystemOwned),
		errors.Is(err, system.ErrOverflow),
		errors.Is(err, token.ErrMintMismatch),
		errors.Is(err, token.ErrAccountFrozen),
		errors.Is(err, token.ErrUninitialized),
		errors.Is(err, token.ErrInvalidAccount),
		errors.Is(err, token.ErrOverflow),
		errors.Is(err, ledger.ErrAmountOverflow):
		return fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	default:
		return err
	}
}
