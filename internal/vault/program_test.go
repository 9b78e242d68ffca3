package vault

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/congo_vault/internal/ledger"
	"github.com/congo-pay/congo_vault/internal/pda"
	"github.com/congo-pay/congo_vault/internal/signer"
	"github.com/congo-pay/congo_vault/internal/system"
	"github.com/congo-pay/congo_vault/internal/token"
)

const (
	lamportsPerSol = uint64(1_000_000_000)
	oneToken       = uint64(1_000_000_000)
	vaultRent      = uint64(946_560)
)

type harness struct {
	ctx     context.Context
	store   ledger.Store
	tokens  *token.Program
	program *Program
	owner   solana.PublicKey
}

func newKey(t *testing.T) solana.PublicKey {
	t.Helper()
	pk, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return pk.PublicKey()
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	sys := system.NewProgram()
	tok := token.NewProgram(sys)
	h := &harness{
		ctx:     context.Background(),
		store:   ledger.NewInMemory(),
		tokens:  tok,
		program: NewProgram(DefaultProgramID, sys, tok),
		owner:   newKey(t),
	}
	h.fund(h.owner, 10*lamportsPerSol)
	return h
}

func (h *harness) fund(address solana.PublicKey, lamports uint64) {
	ledger.SeedAccount(h.store, ledger.Account{Address: address, Owner: solana.SystemProgramID, Lamports: lamports})
}

// run executes ix signed by signers and returns the program logs.
func (h *harness) run(ix Instruction, signers ...solana.PublicKey) ([]string, error) {
	var logs []string
	err := h.store.Update(h.ctx, func(tx ledger.Tx) error {
		ic := NewInvokeContext(tx, signer.NewSet(signers...))
		defer func() { logs = ic.Logs() }()
		return h.program.Execute(h.ctx, ic, ix)
	})
	return logs, err
}

func (h *harness) nativeAccounts(t *testing.T, owner solana.PublicKey) Accounts {
	t.Helper()
	vault, err := pda.UserVault(DefaultProgramID, owner)
	require.NoError(t, err)
	return Accounts{Signer: owner, UserVaultAccount: vault.Key, SystemProgram: solana.SystemProgramID}
}

func (h *harness) vaultAddress(t *testing.T) solana.PublicKey {
	return h.nativeAccounts(t, h.owner).UserVaultAccount
}

func (h *harness) register(t *testing.T) {
	t.Helper()
	_, err := h.run(Instruction{Name: InstructionRegister, Accounts: h.nativeAccounts(t, h.owner)}, h.owner)
	require.NoError(t, err)
}

func TestRegisterCreatesVault(t *testing.T) {
	h := newHarness(t)

	logs, err := h.run(Instruction{Name: InstructionRegister, Accounts: h.nativeAccounts(t, h.owner)}, h.owner)
	require.NoError(t, err)
	assert.Contains(t, logs, "Program log: User registered with vault")

	assert.Equal(t, vaultRent, ledger.Lamports(h.store, h.vaultAddress(t)))
	assert.Equal(t, 10*lamportsPerSol-vaultRent, ledger.Lamports(h.store, h.owner))

	v, err := NewService(h.store, DefaultProgramID).Vault(h.ctx, h.owner)
	require.NoError(t, err)
	assert.True(t, v.Registered)
	assert.Zero(t, v.Available())
}

func TestRegisterTwiceFails(t *testing.T) {
	h := newHarness(t)
	h.register(t)

	_, err := h.run(Instruction{Name: InstructionRegister, Accounts: h.nativeAccounts(t, h.owner)}, h.owner)
	require.True(t, errors.Is(err, ErrAlreadyRegistered), "got %v", err)

	ie := AsInstructionError(err)
	require.NotNil(t, ie)
	assert.Equal(t, KindAlreadyRegistered, ie.Kind)
	assert.Equal(t, uint32(0), ie.Code)

	assert.Equal(t, vaultRent, ledger.Lamports(h.store, h.vaultAddress(t)))
	assert.Equal(t, 10*lamportsPerSol-vaultRent, ledger.Lamports(h.store, h.owner))
}

func TestDepositWithdrawRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	accounts := h.nativeAccounts(t, h.owner)
	before := ledger.Lamports(h.store, h.vaultAddress(t))
	ownerBefore := ledger.Lamports(h.store, h.owner)

	_, err := h.run(Instruction{Name: InstructionDeposit, Amount: 100_000_000, Accounts: accounts}, h.owner)
	require.NoError(t, err)
	assert.Equal(t, before+100_000_000, ledger.Lamports(h.store, h.vaultAddress(t)))
	assert.Equal(t, ownerBefore-100_000_000, ledger.Lamports(h.store, h.owner))

	_, err = h.run(Instruction{Name: InstructionWithdraw, Amount: 100_000_000, Accounts: accounts}, h.owner)
	require.NoError(t, err)
	assert.Equal(t, before, ledger.Lamports(h.store, h.vaultAddress(t)))
	assert.Equal(t, ownerBefore, ledger.Lamports(h.store, h.owner))
}

func TestWithdrawMoreThanBalance(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	accounts := h.nativeAccounts(t, h.owner)

	_, err := h.run(Instruction{Name: InstructionDeposit, Amount: 5_000, Accounts: accounts}, h.owner)
	require.NoError(t, err)

	_, err = h.run(Instruction{Name: InstructionWithdraw, Amount: 5_001, Accounts: accounts}, h.owner)
	require.True(t, errors.Is(err, ErrInsufficientFunds), "got %v", err)
	assert.Equal(t, uint32(6000), AsInstructionError(err).Code)
	assert.Equal(t, vaultRent+5_000, ledger.Lamports(h.store, h.vaultAddress(t)))
}

func TestDepositBeyondSpendableBalance(t *testing.T) {
	h := newHarness(t)
	h.register(t)

	_, err := h.run(Instruction{Name: InstructionDeposit, Amount: 10 * lamportsPerSol, Accounts: h.nativeAccounts(t, h.owner)}, h.owner)
	require.True(t, errors.Is(err, ErrInsufficientFunds), "got %v", err)
	assert.Equal(t, vaultRent, ledger.Lamports(h.store, h.vaultAddress(t)))
	assert.Equal(t, 10*lamportsPerSol-vaultRent, ledger.Lamports(h.store, h.owner))
}

func TestDepositRequiresRegisteredVault(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(Instruction{Name: InstructionDeposit, Amount: 1_000, Accounts: h.nativeAccounts(t, h.owner)}, h.owner)
	assert.True(t, errors.Is(err, ErrInvalidAccount), "got %v", err)
	assert.Equal(t, 10*lamportsPerSol, ledger.Lamports(h.store, h.owner))
}

func TestZeroAmountRejected(t *testing.T) {
	h := newHarness(t)
	h.register(t)

	for _, name := range []string{InstructionDeposit, InstructionWithdraw} {
		_, err := h.run(Instruction{Name: name, Accounts: h.nativeAccounts(t, h.owner)}, h.owner)
		assert.True(t, errors.Is(err, ErrInvalidAmount), "%s: got %v", name, err)
	}
}

func TestNativeSignerChecks(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	attacker := newKey(t)
	h.fund(attacker, lamportsPerSol)

	_, err := h.run(Instruction{Name: InstructionDeposit, Amount: 100_000_000, Accounts: h.nativeAccounts(t, h.owner)}, h.owner)
	require.NoError(t, err)
	vaultBefore := ledger.Lamports(h.store, h.vaultAddress(t))
	ownerBefore := ledger.Lamports(h.store, h.owner)

	tests := []struct {
		name     string
		accounts Accounts
		signers  []solana.PublicKey
		want     error
	}{
		{"owner did not sign", h.nativeAccounts(t, h.owner), []solana.PublicKey{attacker}, ErrMissingSignature},
		{"extra signer", h.nativeAccounts(t, h.owner), []solana.PublicKey{h.owner, attacker}, ErrUnknownSigner},
		{"signer account did not sign", Accounts{
			Signer:           attacker,
			UserVaultAccount: h.vaultAddress(t),
			SystemProgram:    solana.SystemProgramID,
		}, []solana.PublicKey{h.owner}, ErrMissingSignature},
		{"vault of another owner", Accounts{
			Signer:           attacker,
			UserVaultAccount: h.vaultAddress(t),
			SystemProgram:    solana.SystemProgramID,
		}, []solana.PublicKey{attacker}, ErrInvalidAccount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, name := range []string{InstructionDeposit, InstructionWithdraw} {
				_, err := h.run(Instruction{Name: name, Amount: 1_000, Accounts: tt.accounts}, tt.signers...)
				assert.True(t, errors.Is(err, tt.want), "%s: got %v", name, err)
			}
			assert.Equal(t, vaultBefore, ledger.Lamports(h.store, h.vaultAddress(t)))
			assert.Equal(t, ownerBefore, ledger.Lamports(h.store, h.owner))
		})
	}
}

func TestSignerFailuresShareOneMessage(t *testing.T) {
	missing := AsInstructionError(ErrMissingSignature)
	unknown := AsInstructionError(ErrUnknownSigner)
	require.NotNil(t, missing)
	require.NotNil(t, unknown)
	assert.Equal(t, missing.Error(), unknown.Error())
	assert.Equal(t, uint32(3010), missing.Code)
}

func TestRejectsWrongSystemProgram(t *testing.T) {
	h := newHarness(t)
	accounts := h.nativeAccounts(t, h.owner)
	accounts.SystemProgram = solana.TokenProgramID

	_, err := h.run(Instruction{Name: InstructionRegister, Accounts: accounts}, h.owner)
	assert.True(t, errors.Is(err, ErrInvalidAccount), "got %v", err)
	assert.Zero(t, ledger.Lamports(h.store, h.vaultAddress(t)))
}

func TestUnknownInstruction(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(Instruction{Name: "close", Accounts: h.nativeAccounts(t, h.owner)}, h.owner)
	require.True(t, errors.Is(err, ErrUnknownInstruction), "got %v", err)
	assert.Equal(t, KindUnknownInstruction, AsInstructionError(err).Kind)
}

func TestStorageOverflowIsInvalidAccount(t *testing.T) {
	err := collaboratorError(fmt.Errorf("%w: %d", ledger.ErrAmountOverflow, uint64(1)<<63))
	require.True(t, errors.Is(err, ErrInvalidAccount), "got %v", err)

	ie := AsInstructionError(err)
	require.NotNil(t, ie)
	assert.Equal(t, KindInvalidAccount, ie.Kind)
	assert.Equal(t, uint32(2006), ie.Code)
}
