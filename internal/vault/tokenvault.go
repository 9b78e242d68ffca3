package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/congo-pay/congo_vault/internal/ledger"
	"github.com/congo-pay/congo_vault/internal/pda"
	"github.com/congo-pay/congo_vault/internal/token"
)

// OwnerPdaSpace is the data reservation of the token authority account.
const OwnerPdaSpace = 8

type tokenVaultAddresses struct {
	owner pda.Address
	vault pda.Address
}

func (p *Program) tokenVault(ic *InvokeContext, accounts Accounts) (tokenVaultAddresses, error) {
	if err := requireSigned(ic, accounts.Signer); err != nil {
		return tokenVaultAddresses{}, err
	}
	if err := requireProgram("system_program", solana.SystemProgramID, accounts.SystemProgram); err != nil {
		return tokenVaultAddresses{}, err
	}
	if err := requireProgram("token_program", solana.TokenProgramID, accounts.TokenProgram); err != nil {
		return tokenVaultAddresses{}, err
	}

	owner, err := pda.TokenAccountOwner(p.id, accounts.Signer)
	if err != nil {
		return tokenVaultAddresses{}, err
	}
	if err := requireAddress("token_account_owner_pda", owner, accounts.TokenAccountOwnerPda); err != nil {
		return tokenVaultAddresses{}, err
	}
	vault, err := pda.TokenVault(p.id, accounts.Mint, accounts.Signer)
	if err != nil {
		return tokenVaultAddresses{}, err
	}
	if err := requireAddress("vault_token_account", vault, accounts.VaultTokenAccount); err != nil {
		return tokenVaultAddresses{}, err
	}
	return tokenVaultAddresses{owner: owner, vault: vault}, nil
}

func (p *Program) requireMint(ctx context.Context, tx ledger.Tx, mint solana.PublicKey) error {
	if _, err := tx.Mint(ctx, mint); err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return fmt.Errorf("%w: mint %s does not exist", ErrInvalidAccount, mint)
		}
		return err
	}
	return nil
}

func (p *Program) registerToken(ctx context.Context, ic *InvokeContext, accounts Accounts) error {
	addrs, err := p.tokenVault(ic, accounts)
	if err != nil {
		return err
	}
	if err := requireSigner(ic, accounts.Signer, accounts); err != nil {
		return err
	}
	if err := p.requireMint(ctx, ic.Tx, accounts.Mint); err != nil {
		return err
	}
	if _, err := boundTokenAccount(ctx, ic.Tx, "sender_token_account", accounts.SenderTokenAccount, accounts.Mint, accounts.Signer); err != nil {
		return err
	}

	exists, err := accountExists(ctx, ic.Tx, addrs.vault.Key)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: token vault %s", ErrAlreadyRegistered, addrs.vault.Key)
	}

	ownerExists, err := accountExists(ctx, ic.Tx, addrs.owner.Key)
	if err != nil {
		return err
	}
	if !ownerExists {
		if err := p.system.CreateAccount(ctx, ic.Tx, ic.Signers, accounts.Signer, addrs.owner.Key, OwnerPdaSpace, p.id); err != nil {
			return collaboratorError(err)
		}
	}
	if err := p.system.CreateAccount(ctx, ic.Tx, ic.Signers, accounts.Signer, addrs.vault.Key, token.AccountSpace, solana.TokenProgramID); err != nil {
		return collaboratorError(err)
	}
	if err := p.token.InitializeAccount(ctx, ic.Tx, addrs.vault.Key, accounts.Mint, addrs.owner.Key); err != nil {
		return collaboratorError(err)
	}
	ic.Log("Token vault registered for mint %s", accounts.Mint)
	return nil
}

// tokenTransferAccounts runs the checks shared by deposit_token and withdraw_token
// and returns the sender and vault token accounts.
func (p *Program) tokenTransferAccounts(ctx context.Context, ic *InvokeContext, accounts Accounts, amount uint64) (tokenVaultAddresses, ledger.TokenAccount, ledger.TokenAccount, error) {
	var sender, vault ledger.TokenAccount

	addrs, err := p.tokenVault(ic, accounts)
	if err != nil {
		return addrs, sender, vault, err
	}
	if err := requireSigner(ic, accounts.Signer, accounts); err != nil {
		return addrs, sender, vault, err
	}
	if err := requirePositive(amount); err != nil {
		return addrs, sender, vault, err
	}
	if err := p.requireMint(ctx, ic.Tx, accounts.Mint); err != nil {
		return addrs, sender, vault, err
	}

	vault, err = boundTokenAccount(ctx, ic.Tx, "vault_token_account", addrs.vault.Key, accounts.Mint, addrs.owner.Key)
	if err != nil {
		return addrs, sender, vault, err
	}
	sender, err = boundTokenAccount(ctx, ic.Tx, "sender_token_account", accounts.SenderTokenAccount, accounts.Mint, accounts.Signer)
	if err != nil {
		return addrs, sender, vault, err
	}
	return addrs, sender, vault, nil
}

func (p *Program) depositToken(ctx context.Context, ic *InvokeContext, accounts Accounts, amount uint64) error {
	addrs, sender, _, err := p.tokenTransferAccounts(ctx, ic, accounts, amount)
	if err != nil {
		return err
	}
	if err := requireSpendable("sender_token_account", sender.Amount, 0, amount); err != nil {
		return err
	}

	auth := token.SignerAuthority{Signers: ic.Signers}
	if err := p.token.Transfer(ctx, ic.Tx, sender.Address, addrs.vault.Key, amount, auth); err != nil {
		return collaboratorError(err)
	}
	return nil
}

func (p *Program) withdrawToken(ctx context.Context, ic *InvokeContext, accounts Accounts, amount uint64) error {
	addrs, sender, vault, err := p.tokenTransferAccounts(ctx, ic, accounts, amount)
	if err != nil {
		return err
	}
	if err := requireSpendable("vault_token_account", vault.Amount, 0, amount); err != nil {
		return err
	}

	// The owner PDA has no key; it authorises the transfer with its seeds.
	auth := token.ProgramAuthority{ProgramID: p.id, Seeds: addrs.owner.SignerSeeds()}
	if err := p.token.Transfer(ctx, ic.Tx, addrs.vault.Key, sender.Address, amount, auth); err != nil {
		return collaboratorError(err)
	}
	return nil
}
