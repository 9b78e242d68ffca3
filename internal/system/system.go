// Package system creates and funds host ledger accounts.
package system

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"

	"github.com/congo-pay/congo_vault/internal/ledger"
	"github.com/congo-pay/congo_vault/internal/signer"
)

const (
	accountStorageOverhead = 128
	lamportsPerByteYear    = 3480
	exemptionThreshold     = 2
)

var (
	// ErrInsufficientFunds occurs when the source account cannot cover a
	// transfer and still keep its own rent-exempt reserve.
	ErrInsufficientFunds = errors.New("insufficient lamports")

	// ErrMissingSigner indicates the funding account did not sign the transaction.
	ErrMissingSigner = errors.New("funding account did not sign")

	// ErrNotSystemOwned is returned when lamports are debited from an account
	// owned by another program.
	ErrNotSystemOwned = errors.New("source account is not owned by the system program")

	// ErrOverflow is returned when a credit would exceed the balance range.
	ErrOverflow = errors.New("lamport balance overflow")
)

// MinimumBalance returns the rent-exempt minimum for an account holding space bytes.
func MinimumBalance(space uint64) uint64 {
	return (accountStorageOverhead + space) * lamportsPerByteYear * exemptionThreshold
}

// Program implements account creation and lamport transfers.
type Program struct{}

// NewProgram builds the system program.
func NewProgram() *Program {
	return &Program{}
}

// CreateAccount allocates space bytes at address for owner, funded by payer
// with the rent-exempt minimum.
func (p *Program) CreateAccount(ctx context.Context, tx ledger.Tx, signers signer.Set, payer, address solana.PublicKey, space uint64, owner solana.PublicKey) error {
	if !signers.Contains(payer) {
		return fmt.Errorf("%w: %s", ErrMissingSigner, payer)
	}
	if _, err := tx.Account(ctx, address); err == nil {
		return fmt.Errorf("%w: %s", ledger.ErrAccountExists, address)
	} else if !errors.Is(err, ledger.ErrAccountNotFound) {
		return err
	}

	rent := MinimumBalance(space)
	from, err := p.debit(ctx, tx, payer, rent)
	if err != nil {
		return err
	}
	if err := tx.PutAccount(ctx, from); err != nil {
		return err
	}
	return tx.CreateAccount(ctx, ledger.Account{
		Address:  address,
		Owner:    owner,
		Lamports: rent,
		Space:    space,
	})
}

// Transfer moves lamports between accounts. The source must sign and be system owned.
func (p *Program) Transfer(ctx context.Context, tx ledger.Tx, signers signer.Set, from, to solana.PublicKey, lamports uint64) error {
	if !signers.Contains(from) {
		return fmt.Errorf("%w: %s", ErrMissingSigner, from)
	}
	if from.Equals(to) {
		return nil
	}

	src, err := p.debit(ctx, tx, from, lamports)
	if err != nil {
		return err
	}
	dst, err := accountOrEmpty(ctx, tx, to)
	if err != nil {
		return err
	}
	if dst.Lamports > math.MaxUint64-lamports {
		return ErrOverflow
	}
	dst.Lamports += lamports

	if err := tx.PutAccount(ctx, src); err != nil {
		return err
	}
	return tx.PutAccount(ctx, dst)
}

// Airdrop credits lamports to an address, creating a system account when absent.
// It backs the operator faucet and has no on-ledger source.
func (p *Program) Airdrop(ctx context.Context, tx ledger.Tx, to solana.PublicKey, lamports uint64) (uint64, error) {
	dst, err := accountOrEmpty(ctx, tx, to)
	if err != nil {
		return 0, err
	}
	if dst.Lamports > math.MaxUint64-lamports {
		return 0, ErrOverflow
	}
	dst.Lamports += lamports
	if err := tx.PutAccount(ctx, dst); err != nil {
		return 0, err
	}
	return dst.Lamports, nil
}

// debit returns the source account with lamports removed, keeping its reserve.
func (p *Program) debit(ctx context.Context, tx ledger.Tx, from solana.PublicKey, lamports uint64) (ledger.Account, error) {
	src, err := tx.Account(ctx, from)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return ledger.Account{}, fmt.Errorf("%w: %s has no balance", ErrInsufficientFunds, from)
		}
		return ledger.Account{}, err
	}
	if !src.Owner.Equals(solana.SystemProgramID) {
		return ledger.Account{}, fmt.Errorf("%w: %s", ErrNotSystemOwned, from)
	}
	if Spendable(src) < lamports {
		return ledger.Account{}, fmt.Errorf("%w: %s needs %d, spendable %d", ErrInsufficientFunds, from, lamports, Spendable(src))
	}
	src.Lamports -= lamports
	return src, nil
}

// Spendable is the part of the balance above the account's rent-exempt reserve.
func Spendable(acc ledger.Account) uint64 {
	reserve := MinimumBalance(acc.Space)
	if acc.Lamports <= reserve {
		return 0
	}
	return acc.Lamports - reserve
}

func accountOrEmpty(ctx context.Context, tx ledger.Tx, address solana.PublicKey) (ledger.Account, error) {
	acc, err := tx.Account(ctx, address)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return ledger.Account{Address: address, Owner: solana.SystemProgramID}, nil
	}
	return acc, err
}
