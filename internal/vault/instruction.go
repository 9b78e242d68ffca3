package vault

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Instruction names.
const (
	InstructionRegister      = "register"
	InstructionDeposit       = "deposit"
	InstructionWithdraw      = "withdraw"
	InstructionRegisterToken = "register_token"
	InstructionDepositToken  = "deposit_token"
	InstructionWithdrawToken = "withdraw_token"
)

var instructionNames = []string{
	InstructionRegister,
	InstructionDeposit,
	InstructionWithdraw,
	InstructionRegisterToken,
	InstructionDepositToken,
	InstructionWithdrawToken,
}

// Accounts lists every account an instruction may reference. Unused fields stay zero.
type Accounts struct {
	Signer               solana.PublicKey `json:"signer"`
	UserVaultAccount     solana.PublicKey `json:"user_vault_account"`
	TokenAccountOwnerPda solana.PublicKey `json:"token_account_owner_pda"`
	VaultTokenAccount    solana.PublicKey `json:"vault_token_account"`
	SenderTokenAccount   solana.PublicKey `json:"sender_token_account"`
	Mint                 solana.PublicKey `json:"mint"`
	SystemProgram        solana.PublicKey `json:"system_program"`
	TokenProgram         solana.PublicKey `json:"token_program"`
}

func (a Accounts) list() [8]solana.PublicKey {
	return [8]solana.PublicKey{
		a.Signer,
		a.UserVaultAccount,
		a.TokenAccountOwnerPda,
		a.VaultTokenAccount,
		a.SenderTokenAccount,
		a.Mint,
		a.SystemProgram,
		a.TokenProgram,
	}
}

// references reports whether key appears among the accounts.
func (a Accounts) references(key solana.PublicKey) bool {
	for _, k := range a.list() {
		if k.Equals(key) {
			return true
		}
	}
	return false
}

// Instruction is a single vault call.
type Instruction struct {
	Name     string   `json:"name"`
	Amount   uint64   `json:"amount,omitempty"`
	Accounts Accounts `json:"accounts"`
}

func takesAmount(name string) bool {
	switch name {
	case InstructionDeposit, InstructionWithdraw, InstructionDepositToken, InstructionWithdrawToken:
		return true
	}
	return false
}

// Discriminator returns the 8-byte prefix identifying name in instruction data.
func Discriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// Data encodes the instruction as discriminator followed by Borsh arguments.
func (ix Instruction) Data() ([]byte, error) {
	if !known(ix.Name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInstruction, ix.Name)
	}
	d := Discriminator(ix.Name)
	buf := bytes.NewBuffer(d[:])
	if takesAmount(ix.Name) {
		if err := bin.NewBorshEncoder(buf).Encode(ix.Amount); err != nil {
			return nil, fmt.Errorf("encode amount: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// DecodeInstruction rebuilds an instruction from its data and accounts.
func DecodeInstruction(data []byte, accounts Accounts) (Instruction, error) {
	if len(data) < 8 {
		return Instruction{}, fmt.Errorf("%w: data too short", ErrUnknownInstruction)
	}
	var d [8]byte
	copy(d[:], data[:8])
	for _, name := range instructionNames {
		if Discriminator(name) != d {
			continue
		}
		ix := Instruction{Name: name, Accounts: accounts}
		if takesAmount(name) {
			if err := bin.NewBorshDecoder(data[8:]).Decode(&ix.Amount); err != nil {
				return Instruction{}, fmt.Errorf("%w: decode amount: %v", ErrUnknownInstruction, err)
			}
		}
		return ix, nil
	}
	return Instruction{}, fmt.Errorf("%w: discriminator %x", ErrUnknownInstruction, d)
}

// Message is the byte string covered by transaction signatures.
func (ix Instruction) Message(nonce [16]byte) ([]byte, error) {
	data, err := ix.Data()
	if err != nil {
		return nil, err
	}
	msg := struct {
		Data     []byte
		Accounts [8]solana.PublicKey
		Nonce    [16]byte
	}{data, ix.Accounts.list(), nonce}

	var buf bytes.Buffer
	if err := bin.NewBorshEncoder(&buf).Encode(msg); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return buf.Bytes(), nil
}

func known(name string) bool {
	for _, n := range instructionNames {
		if n == name {
			return true
		}
	}
	return false
}
