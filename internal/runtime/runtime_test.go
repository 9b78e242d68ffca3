package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/congo_vault/internal/ledger"
	"github.com/congo-pay/congo_vault/internal/logging"
	"github.com/congo-pay/congo_vault/internal/notification"
	"github.com/congo-pay/congo_vault/internal/pda"
	"github.com/congo-pay/congo_vault/internal/system"
	"github.com/congo-pay/congo_vault/internal/token"
	"github.com/congo-pay/congo_vault/internal/vault"
)

const lamportsPerSol = uint64(1_000_000_000)

type env struct {
	ctx      context.Context
	store    ledger.Store
	runtime  *Runtime
	recorder *notification.Recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	sys := system.NewProgram()
	store := ledger.NewInMemory()
	recorder := &notification.Recorder{}
	program := vault.NewProgram(vault.DefaultProgramID, sys, token.NewProgram(sys))
	rt := New(store, program, recorder, logging.Discard(), 4)
	t.Cleanup(rt.Close)
	return &env{ctx: context.Background(), store: store, runtime: rt, recorder: recorder}
}

func (e *env) newOwner(t *testing.T) solana.PrivateKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	ledger.SeedAccount(e.store, ledger.Account{Address: key.PublicKey(), Owner: solana.SystemProgramID, Lamports: 10 * lamportsPerSol})
	return key
}

func nativeIx(t *testing.T, name string, owner solana.PublicKey, amount uint64) vault.Instruction {
	t.Helper()
	addr, err := pda.UserVault(vault.DefaultProgramID, owner)
	require.NoError(t, err)
	return vault.Instruction{
		Name:   name,
		Amount: amount,
		Accounts: vault.Accounts{
			Signer:           owner,
			UserVaultAccount: addr.Key,
			SystemProgram:    solana.SystemProgramID,
		},
	}
}

func signed(t *testing.T, ix vault.Instruction, keys ...solana.PrivateKey) *Transaction {
	t.Helper()
	tx := NewTransaction(ix)
	require.NoError(t, tx.Sign(keys...))
	return tx
}

func TestSubmitNativeRoundTrip(t *testing.T) {
	e := newEnv(t)
	owner := e.newOwner(t)
	vaultAddr := nativeIx(t, vault.InstructionRegister, owner.PublicKey(), 0).Accounts.UserVaultAccount

	receipt, err := e.runtime.Submit(e.ctx, signed(t, nativeIx(t, vault.InstructionRegister, owner.PublicKey(), 0), owner))
	require.NoError(t, err)
	assert.Contains(t, receipt.Logs, "Program log: User registered with vault")
	prior := ledger.Lamports(e.store, vaultAddr)

	_, err = e.runtime.Submit(e.ctx, signed(t, nativeIx(t, vault.InstructionDeposit, owner.PublicKey(), 100_000_000), owner))
	require.NoError(t, err)
	assert.Equal(t, prior+100_000_000, ledger.Lamports(e.store, vaultAddr))

	_, err = e.runtime.Submit(e.ctx, signed(t, nativeIx(t, vault.InstructionWithdraw, owner.PublicKey(), 100_000_000), owner))
	require.NoError(t, err)
	assert.Equal(t, prior, ledger.Lamports(e.store, vaultAddr))

	kinds := make([]string, 0, 3)
	for _, m := range e.recorder.Messages() {
		kinds = append(kinds, m.Kind)
	}
	assert.Equal(t, []string{
		notification.KindVaultRegistered,
		notification.KindVaultDeposit,
		notification.KindVaultWithdrawal,
	}, kinds)
}

func TestSubmitRejectsTamperedInstruction(t *testing.T) {
	e := newEnv(t)
	owner := e.newOwner(t)
	_, err := e.runtime.Submit(e.ctx, signed(t, nativeIx(t, vault.InstructionRegister, owner.PublicKey(), 0), owner))
	require.NoError(t, err)
	before := ledger.Lamports(e.store, owner.PublicKey())

	tx := signed(t, nativeIx(t, vault.InstructionDeposit, owner.PublicKey(), 1_000), owner)
	tx.Instruction.Amount = 5_000_000

	_, err = e.runtime.Submit(e.ctx, tx)
	assert.True(t, errors.Is(err, ErrSignatureVerification), "got %v", err)
	assert.Equal(t, before, ledger.Lamports(e.store, owner.PublicKey()))
}

func TestSubmitRejectsUnsigned(t *testing.T) {
	e := newEnv(t)
	owner := e.newOwner(t)

	_, err := e.runtime.Submit(e.ctx, NewTransaction(nativeIx(t, vault.InstructionRegister, owner.PublicKey(), 0)))
	assert.True(t, errors.Is(err, ErrNoSignatures), "got %v", err)
}

func TestSubmitRejectsReplay(t *testing.T) {
	e := newEnv(t)
	owner := e.newOwner(t)
	_, err := e.runtime.Submit(e.ctx, signed(t, nativeIx(t, vault.InstructionRegister, owner.PublicKey(), 0), owner))
	require.NoError(t, err)

	tx := signed(t, nativeIx(t, vault.InstructionDeposit, owner.PublicKey(), 1_000), owner)
	_, err = e.runtime.Submit(e.ctx, tx)
	require.NoError(t, err)
	balance := ledger.Lamports(e.store, owner.PublicKey())

	_, err = e.runtime.Submit(e.ctx, tx)
	assert.True(t, errors.Is(err, ErrDuplicateTransaction), "got %v", err)
	assert.Equal(t, balance, ledger.Lamports(e.store, owner.PublicKey()))
}

func TestSubmitRejectsReplayAfterRestart(t *testing.T) {
	e := newEnv(t)
	owner := e.newOwner(t)
	_, err := e.runtime.Submit(e.ctx, signed(t, nativeIx(t, vault.InstructionRegister, owner.PublicKey(), 0), owner))
	require.NoError(t, err)

	tx := signed(t, nativeIx(t, vault.InstructionDeposit, owner.PublicKey(), 100_000_000), owner)
	_, err = e.runtime.Submit(e.ctx, tx)
	require.NoError(t, err)
	vaultAddr := tx.Instruction.Accounts.UserVaultAccount
	before := ledger.Lamports(e.store, vaultAddr)

	sys := system.NewProgram()
	restarted := New(e.store, vault.NewProgram(vault.DefaultProgramID, sys, token.NewProgram(sys)), nil, logging.Discard(), 1)
	t.Cleanup(restarted.Close)

	_, err = restarted.Submit(e.ctx, tx)
	assert.True(t, errors.Is(err, ErrDuplicateTransaction), "got %v", err)
	assert.Equal(t, before, ledger.Lamports(e.store, vaultAddr))
}

func TestFailedTransactionCanBeResubmitted(t *testing.T) {
	e := newEnv(t)
	owner := e.newOwner(t)

	deposit := signed(t, nativeIx(t, vault.InstructionDeposit, owner.PublicKey(), 1_000), owner)
	receipt, err := e.runtime.Submit(e.ctx, deposit)
	require.True(t, errors.Is(err, vault.ErrInvalidAccount), "got %v", err)
	assert.NotEmpty(t, receipt.Logs)

	_, err = e.runtime.Submit(e.ctx, signed(t, nativeIx(t, vault.InstructionRegister, owner.PublicKey(), 0), owner))
	require.NoError(t, err)

	_, err = e.runtime.Submit(e.ctx, deposit)
	assert.NoError(t, err)
}

func TestSubmitSignedByStranger(t *testing.T) {
	e := newEnv(t)
	owner := e.newOwner(t)
	stranger := e.newOwner(t)
	_, err := e.runtime.Submit(e.ctx, signed(t, nativeIx(t, vault.InstructionRegister, owner.PublicKey(), 0), owner))
	require.NoError(t, err)
	before := ledger.Lamports(e.store, owner.PublicKey())

	_, err = e.runtime.Submit(e.ctx, signed(t, nativeIx(t, vault.InstructionDeposit, owner.PublicKey(), 1_000), stranger))
	assert.True(t, errors.Is(err, vault.ErrUnauthorized), "got %v", err)

	_, err = e.runtime.Submit(e.ctx, signed(t, nativeIx(t, vault.InstructionWithdraw, owner.PublicKey(), 1_000), owner, stranger))
	assert.True(t, errors.Is(err, vault.ErrUnknownSigner), "got %v", err)
	assert.Equal(t, before, ledger.Lamports(e.store, owner.PublicKey()))
}

func TestSubmitBatchKeepsOrder(t *testing.T) {
	e := newEnv(t)
	owners := []solana.PrivateKey{e.newOwner(t), e.newOwner(t), e.newOwner(t)}

	txs := make([]*Transaction, 0, len(owners)+1)
	for _, o := range owners {
		txs = append(txs, signed(t, nativeIx(t, vault.InstructionRegister, o.PublicKey(), 0), o))
	}
	stranger := e.newOwner(t)
	txs = append(txs, signed(t, nativeIx(t, vault.InstructionRegister, owners[0].PublicKey(), 0), stranger))

	results := e.runtime.SubmitBatch(e.ctx, txs)
	require.Len(t, results, 4)
	for i := range owners {
		require.NoError(t, results[i].Err)
		assert.Equal(t, txs[i].Signature(), results[i].Receipt.Signature)
		addr := nativeIx(t, vault.InstructionRegister, owners[i].PublicKey(), 0).Accounts.UserVaultAccount
		assert.Equal(t, system.MinimumBalance(vault.VaultSpace), ledger.Lamports(e.store, addr))
	}
	assert.True(t, errors.Is(results[3].Err, vault.ErrUnauthorized), "got %v", results[3].Err)
}
