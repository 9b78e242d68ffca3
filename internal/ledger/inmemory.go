package ledger

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
)

type inMemoryStore struct {
	mu            sync.RWMutex
	accounts      map[solana.PublicKey]Account
	tokenAccounts map[solana.PublicKey]TokenAccount
	mints         map[solana.PublicKey]Mint
	signatures    map[solana.Signature]struct{}
}

// NewInMemory creates a concurrency-safe in-memory store useful for unit tests.
func NewInMemory() Store {
	return &inMemoryStore{
		accounts:      make(map[solana.PublicKey]Account),
		tokenAccounts: make(map[solana.PublicKey]TokenAccount),
		mints:         make(map[solana.PublicKey]Mint),
		signatures:    make(map[solana.Signature]struct{}),
	}
}

func (s *inMemoryStore) View(_ context.Context, fn func(tx Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memTx{store: s, readOnly: true})
}

func (s *inMemoryStore) Update(_ context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		store:         s,
		accounts:      make(map[solana.PublicKey]Account),
		tokenAccounts: make(map[solana.PublicKey]TokenAccount),
		mints:         make(map[solana.PublicKey]Mint),
		signatures:    make(map[solana.Signature]struct{}),
	}
	if err := fn(tx); err != nil {
		return err
	}

	for k, v := range tx.accounts {
		s.accounts[k] = v
	}
	for k, v := range tx.tokenAccounts {
		s.tokenAccounts[k] = v
	}
	for k, v := range tx.mints {
		s.mints[k] = v
	}
	for k := range tx.signatures {
		s.signatures[k] = struct{}{}
	}
	return nil
}

// memTx buffers writes until the surrounding Update returns successfully.
type memTx struct {
	store         *inMemoryStore
	readOnly      bool
	accounts      map[solana.PublicKey]Account
	tokenAccounts map[solana.PublicKey]TokenAccount
	mints         map[solana.PublicKey]Mint
	signatures    map[solana.Signature]struct{}
}

func (t *memTx) Account(_ context.Context, address solana.PublicKey) (Account, error) {
	if acc, ok := t.accounts[address]; ok {
		return acc, nil
	}
	acc, ok := t.store.accounts[address]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acc, nil
}

func (t *memTx) CreateAccount(ctx context.Context, account Account) error {
	if _, err := t.Account(ctx, account.Address); err == nil {
		return ErrAccountExists
	}
	return t.PutAccount(ctx, account)
}

func (t *memTx) PutAccount(_ context.Context, account Account) error {
	if t.readOnly {
		return ErrReadOnly
	}
	t.accounts[account.Address] = account
	return nil
}

func (t *memTx) TokenAccount(_ context.Context, address solana.PublicKey) (TokenAccount, error) {
	if acc, ok := t.tokenAccounts[address]; ok {
		return acc, nil
	}
	acc, ok := t.store.tokenAccounts[address]
	if !ok {
		return TokenAccount{}, ErrAccountNotFound
	}
	return acc, nil
}

func (t *memTx) PutTokenAccount(_ context.Context, account TokenAccount) error {
	if t.readOnly {
		return ErrReadOnly
	}
	t.tokenAccounts[account.Address] = account
	return nil
}

func (t *memTx) Mint(_ context.Context, address solana.PublicKey) (Mint, error) {
	if m, ok := t.mints[address]; ok {
		return m, nil
	}
	m, ok := t.store.mints[address]
	if !ok {
		return Mint{}, ErrAccountNotFound
	}
	return m, nil
}

func (t *memTx) PutMint(_ context.Context, mint Mint) error {
	if t.readOnly {
		return ErrReadOnly
	}
	t.mints[mint.Address] = mint
	return nil
}

func (t *memTx) RecordSignature(_ context.Context, sig solana.Signature) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if _, ok := t.signatures[sig]; ok {
		return ErrSignatureProcessed
	}
	if _, ok := t.store.signatures[sig]; ok {
		return ErrSignatureProcessed
	}
	t.signatures[sig] = struct{}{}
	return nil
}
