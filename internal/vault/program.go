// Package vault implements the custody program: per-owner native vaults and
// per-(owner, mint) token vaults guarded by derived-address, signer and
// solvency checks.
//
// Execute runs a single instruction against an open ledger transaction. Every
// check runs before the first write, and the caller's store transaction
// discards whatever was written when Execute returns an error.
package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/congo-pay/congo_vault/internal/ledger"
	"github.com/congo-pay/congo_vault/internal/signer"
	"github.com/congo-pay/congo_vault/internal/token"
)

// DefaultProgramID is the address the vault program is deployed under.
var DefaultProgramID = solana.MustPublicKeyFromBase58("7JyjS3abUPSoXoV4au3skH1sd8GA9YBQzy5UakmGziGd")

// SystemProgram creates accounts and moves native balances on behalf of signers.
type SystemProgram interface {
	CreateAccount(ctx context.Context, tx ledger.Tx, signers signer.Set, payer, address solana.PublicKey, space uint64, owner solana.PublicKey) error
	Transfer(ctx context.Context, tx ledger.Tx, signers signer.Set, from, to solana.PublicKey, lamports uint64) error
}

// TokenProgram binds token accounts and moves token units under an authority proof.
type TokenProgram interface {
	InitializeAccount(ctx context.Context, tx ledger.Tx, address, mint, authority solana.PublicKey) error
	Transfer(ctx context.Context, tx ledger.Tx, from, to solana.PublicKey, amount uint64, auth token.Authority) error
}

// Program is the vault program.
type Program struct {
	id     solana.PublicKey
	system SystemProgram
	token  TokenProgram
}

// NewProgram builds the vault program deployed under id.
func NewProgram(id solana.PublicKey, sys SystemProgram, tok TokenProgram) *Program {
	return &Program{id: id, system: sys, token: tok}
}

// ID returns the program id.
func (p *Program) ID() solana.PublicKey {
	return p.id
}

// InvokeContext carries the state of one instruction invocation.
type InvokeContext struct {
	Tx      ledger.Tx
	Signers signer.Set
	logs    []string
}

// NewInvokeContext prepares an invocation over tx with the verified signers.
func NewInvokeContext(tx ledger.Tx, signers signer.Set) *InvokeContext {
	return &InvokeContext{Tx: tx, Signers: signers}
}

// Log appends a program log line.
func (ic *InvokeContext) Log(format string, args ...any) {
	ic.logs = append(ic.logs, "Program log: "+fmt.Sprintf(format, args...))
}

// Logs returns the log lines emitted so far.
func (ic *InvokeContext) Logs() []string {
	return append([]string(nil), ic.logs...)
}

// Execute runs ix. Program failures are returned as *InstructionError; any
// other error comes from the ledger backend.
func (p *Program) Execute(ctx context.Context, ic *InvokeContext, ix Instruction) error {
	ic.Log("Instruction: %s", displayName(ix.Name))

	var err error
	switch ix.Name {
	case InstructionRegister:
		err = p.register(ctx, ic, ix.Accounts)
	case InstructionDeposit:
		err = p.deposit(ctx, ic, ix.Accounts, ix.Amount)
	case InstructionWithdraw:
		err = p.withdraw(ctx, ic, ix.Accounts, ix.Amount)
	case InstructionRegisterToken:
		err = p.registerToken(ctx, ic, ix.Accounts)
	case InstructionDepositToken:
		err = p.depositToken(ctx, ic, ix.Accounts, ix.Amount)
	case InstructionWithdrawToken:
		err = p.withdrawToken(ctx, ic, ix.Accounts, ix.Amount)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownInstruction, ix.Name)
	}
	if err == nil {
		return nil
	}

	if ie := AsInstructionError(err); ie != nil {
		ic.Log("AnchorError: %s (%d): %s", ie.Kind, ie.Code, ie.Message)
		return ie
	}
	return err
}

func displayName(name string) string {
	switch name {
	case InstructionRegister:
		return "Register"
	case InstructionDeposit:
		return "Deposit"
	case InstructionWithdraw:
		return "Withdraw"
	case InstructionRegisterToken:
		return "RegisterToken"
	case InstructionDepositToken:
		return "DepositToken"
	case InstructionWithdrawToken:
		return "WithdrawToken"
	}
	return name
}

// accountExists reports whether address holds an account.
func accountExists(ctx context.Context, tx ledger.Tx, address solana.PublicKey) (bool, error) {
	_, err := tx.Account(ctx, address)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ledger.ErrAccountNotFound):
		return false, nil
	default:
		return false, err
	}
}
