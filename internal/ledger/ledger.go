package ledger

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrAccountNotFound occurs when no account is stored at the requested address.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountExists indicates an account is already stored at the address
	// a caller tried to create.
	ErrAccountExists = errors.New("account already exists")

	// ErrAmountOverflow is returned when a balance cannot be represented by the backend.
	ErrAmountOverflow = errors.New("amount exceeds storable range")

	// ErrSignatureProcessed is returned when a transaction signature was
	// already committed.
	ErrSignatureProcessed = errors.New("signature already processed")

	// ErrReadOnly is returned when a write is attempted inside View.
	ErrReadOnly = errors.New("read-only transaction")
)

// TokenAccountState mirrors the state flag of the standard token-account layout.
type TokenAccountState uint8

const (
	TokenAccountUninitialized TokenAccountState = iota
	TokenAccountInitialized
	TokenAccountFrozen
)

// Account is a host ledger account. Lamports is the account's own native balance.
type Account struct {
	Address  solana.PublicKey
	Owner    solana.PublicKey
	Lamports uint64
	Space    uint64
}

// TokenAccount holds token units of a single mint on behalf of Authority.
type TokenAccount struct {
	Address   solana.PublicKey
	Mint      solana.PublicKey
	Authority solana.PublicKey
	Amount    uint64
	State     TokenAccountState
}

// Mint describes a fungible asset.
type Mint struct {
	Address       solana.PublicKey
	Decimals      uint8
	Supply        uint64
	MintAuthority solana.PublicKey
}

// Tx is the view of ledger state available while a store transaction is open.
type Tx interface {
	Account(ctx context.Context, address solana.PublicKey) (Account, error)
	CreateAccount(ctx context.Context, account Account) error
	PutAccount(ctx context.Context, account Account) error
	TokenAccount(ctx context.Context, address solana.PublicKey) (TokenAccount, error)
	PutTokenAccount(ctx context.Context, account TokenAccount) error
	Mint(ctx context.Context, address solana.PublicKey) (Mint, error)
	PutMint(ctx context.Context, mint Mint) error
	// RecordSignature marks sig as processed. It commits or rolls back with the
	// rest of the transaction.
	RecordSignature(ctx context.Context, sig solana.Signature) error
}

// Store defines the contract implemented by ledger backends (e.g. Postgres).
//
// Update applies every write made through the Tx only when fn returns nil;
// otherwise none of them become visible.
type Store interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
}
