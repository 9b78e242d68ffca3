package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/congo-pay/congo_vault/internal/ledger"
	"github.com/congo-pay/congo_vault/internal/pda"
	"github.com/congo-pay/congo_vault/internal/system"
)

// VaultSpace is the data reservation of a native vault account.
const VaultSpace = 8

// nativeVault checks that the signer account signed and that the supplied
// vault is the one derived for it.
func (p *Program) nativeVault(ic *InvokeContext, accounts Accounts) (pda.Address, error) {
	if err := requireSigned(ic, accounts.Signer); err != nil {
		return pda.Address{}, err
	}
	if err := requireProgram("system_program", solana.SystemProgramID, accounts.SystemProgram); err != nil {
		return pda.Address{}, err
	}
	vault, err := pda.UserVault(p.id, accounts.Signer)
	if err != nil {
		return pda.Address{}, err
	}
	if err := requireAddress("user_vault_account", vault, accounts.UserVaultAccount); err != nil {
		return pda.Address{}, err
	}
	return vault, nil
}

func (p *Program) register(ctx context.Context, ic *InvokeContext, accounts Accounts) error {
	vault, err := p.nativeVault(ic, accounts)
	if err != nil {
		return err
	}
	if err := requireSigner(ic, accounts.Signer, accounts); err != nil {
		return err
	}

	exists, err := accountExists(ctx, ic.Tx, vault.Key)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: vault %s", ErrAlreadyRegistered, vault.Key)
	}

	if err := p.system.CreateAccount(ctx, ic.Tx, ic.Signers, accounts.Signer, vault.Key, VaultSpace, p.id); err != nil {
		return collaboratorError(err)
	}
	ic.Log("User registered with vault")
	return nil
}

func (p *Program) deposit(ctx context.Context, ic *InvokeContext, accounts Accounts, amount uint64) error {
	vault, err := p.nativeVault(ic, accounts)
	if err != nil {
		return err
	}
	if err := requireSigner(ic, accounts.Signer, accounts); err != nil {
		return err
	}
	if err := requirePositive(amount); err != nil {
		return err
	}
	if _, err := programAccount(ctx, ic.Tx, "user_vault_account", vault.Key, p.id); err != nil {
		return err
	}

	owner, err := ic.Tx.Account(ctx, accounts.Signer)
	if err != nil && !errors.Is(err, ledger.ErrAccountNotFound) {
		return err
	}
	if err := requireSpendable("signer", owner.Lamports, system.MinimumBalance(owner.Space), amount); err != nil {
		return err
	}

	if err := p.system.Transfer(ctx, ic.Tx, ic.Signers, accounts.Signer, vault.Key, amount); err != nil {
		return collaboratorError(err)
	}
	return nil
}

// withdraw debits the program-owned vault directly; the system program only
// moves lamports out of system-owned accounts.
func (p *Program) withdraw(ctx context.Context, ic *InvokeContext, accounts Accounts, amount uint64) error {
	vault, err := p.nativeVault(ic, accounts)
	if err != nil {
		return err
	}
	if err := requireSigner(ic, accounts.Signer, accounts); err != nil {
		return err
	}
	if err := requirePositive(amount); err != nil {
		return err
	}

	src, err := programAccount(ctx, ic.Tx, "user_vault_account", vault.Key, p.id)
	if err != nil {
		return err
	}
	if err := requireSpendable("user_vault_account", src.Lamports, system.MinimumBalance(src.Space), amount); err != nil {
		return err
	}
	dst, err := ic.Tx.Account(ctx, accounts.Signer)
	if err != nil {
		return fmt.Errorf("%w: signer: %v", ErrInvalidAccount, err)
	}
	credited, err := checkedAdd(dst.Lamports, amount)
	if err != nil {
		return err
	}

	src.Lamports -= amount
	dst.Lamports = credited
	if err := ic.Tx.PutAccount(ctx, src); err != nil {
		return collaboratorError(err)
	}
	return collaboratorError(ic.Tx.PutAccount(ctx, dst))
}
