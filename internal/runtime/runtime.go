// Package runtime verifies signed vault transactions and executes them
// atomically against the host ledger.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alitto/pond/v2"
	"github.com/gagliardetto/solana-go"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/congo-pay/congo_vault/internal/ledger"
	"github.com/congo-pay/congo_vault/internal/notification"
	"github.com/congo-pay/congo_vault/internal/vault"
)

// ErrDuplicateTransaction is returned when a signature was already processed successfully.
var ErrDuplicateTransaction = errors.New("transaction already processed")

// Receipt reports a processed transaction.
type Receipt struct {
	Signature solana.Signature
	Logs      []string
}

// Runtime executes transactions one instruction at a time, each inside its
// own store transaction.
type Runtime struct {
	store     ledger.Store
	program   *vault.Program
	notifier  notification.Notifier
	logger    *slog.Logger
	// processed short-circuits signatures seen by this process; the store's
	// signature record is authoritative.
	processed *xsync.Map[solana.Signature, struct{}]
	pool      pond.Pool
}

// New creates a runtime. concurrency bounds SubmitBatch workers.
func New(store ledger.Store, program *vault.Program, notifier notification.Notifier, logger *slog.Logger, concurrency int) *Runtime {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runtime{
		store:     store,
		program:   program,
		notifier:  notifier,
		logger:    logger,
		processed: xsync.NewMap[solana.Signature, struct{}](),
		pool:      pond.NewPool(concurrency),
	}
}

// Close waits for running batch work and releases the worker pool.
func (r *Runtime) Close() {
	r.pool.StopAndWait()
}

// Submit verifies tx and executes its instruction. Nothing is written when an
// error is returned; the receipt still carries the program logs.
func (r *Runtime) Submit(ctx context.Context, tx *Transaction) (Receipt, error) {
	signers, err := tx.Verify()
	if err != nil {
		return Receipt{}, err
	}

	sig := tx.Signature()
	if _, loaded := r.processed.LoadOrStore(sig, struct{}{}); loaded {
		return Receipt{Signature: sig}, fmt.Errorf("%w: %s", ErrDuplicateTransaction, sig)
	}

	var ic *vault.InvokeContext
	err = r.store.Update(ctx, func(ltx ledger.Tx) error {
		if err := ltx.RecordSignature(ctx, sig); err != nil {
			if errors.Is(err, ledger.ErrSignatureProcessed) {
				return fmt.Errorf("%w: %s", ErrDuplicateTransaction, sig)
			}
			return err
		}
		ic = vault.NewInvokeContext(ltx, signers)
		return r.program.Execute(ctx, ic, tx.Instruction)
	})
	receipt := Receipt{Signature: sig}
	if ic != nil {
		receipt.Logs = ic.Logs()
	}

	ix := tx.Instruction
	if errors.Is(err, ErrDuplicateTransaction) {
		// Committed by another runtime over the same store.
		return receipt, err
	}
	if err != nil {
		// Failed transactions leave no trace, so the same signature may be retried.
		r.processed.Delete(sig)
		attrs := []any{"signature", sig.String(), "instruction", ix.Name, "error", err}
		if ie := vault.AsInstructionError(err); ie != nil {
			attrs = append(attrs, "kind", ie.Kind, "code", ie.Code)
		}
		r.logger.WarnContext(ctx, "transaction failed", attrs...)
		return receipt, err
	}

	r.logger.InfoContext(ctx, "transaction processed",
		"signature", sig.String(),
		"instruction", ix.Name,
		"signer", ix.Accounts.Signer.String(),
		"amount", ix.Amount,
	)
	if r.notifier != nil {
		if err := r.notifier.Send(ctx, eventFor(ix, sig)); err != nil {
			r.logger.WarnContext(ctx, "notification failed", "signature", sig.String(), "error", err)
		}
	}
	return receipt, nil
}

func eventFor(ix vault.Instruction, sig solana.Signature) notification.Message {
	msg := notification.Message{
		Owner:     ix.Accounts.Signer.String(),
		Amount:    ix.Amount,
		Signature: sig.String(),
	}
	switch ix.Name {
	case vault.InstructionRegister, vault.InstructionRegisterToken:
		msg.Kind = notification.KindVaultRegistered
	case vault.InstructionDeposit, vault.InstructionDepositToken:
		msg.Kind = notification.KindVaultDeposit
	case vault.InstructionWithdraw, vault.InstructionWithdrawToken:
		msg.Kind = notification.KindVaultWithdrawal
	}
	switch ix.Name {
	case vault.InstructionRegisterToken, vault.InstructionDepositToken, vault.InstructionWithdrawToken:
		msg.Mint = ix.Accounts.Mint.String()
	}
	return msg
}
