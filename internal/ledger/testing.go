package ledger

import "github.com/gagliardetto/solana-go"

// SeedAccount is a test helper that writes an account directly into the in-memory store.
func SeedAccount(s Store, account Account) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.accounts[account.Address] = account
	}
}

// SeedTokenAccount is a test helper that writes a token account directly into the in-memory store.
func SeedTokenAccount(s Store, account TokenAccount) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.tokenAccounts[account.Address] = account
	}
}

// Lamports returns the stored native balance or zero when the account is absent.
func Lamports(s Store, address solana.PublicKey) uint64 {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.RLock()
		defer mem.mu.RUnlock()
		return mem.accounts[address].Lamports
	}
	return 0
}

// TokenAmount returns the stored token balance or zero when the account is absent.
func TokenAmount(s Store, address solana.PublicKey) uint64 {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.RLock()
		defer mem.mu.RUnlock()
		return mem.tokenAccounts[address].Amount
	}
	return 0
}
