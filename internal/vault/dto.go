package vault

import "github.com/shopspring/decimal"

// VaultResponse is the API representation of a native vault.
type VaultResponse struct {
	Owner      string `json:"owner"`
	Address    string `json:"address"`
	Bump       uint8  `json:"bump"`
	Registered bool   `json:"registered"`
	Lamports   uint64 `json:"lamports"`
	Reserve    uint64 `json:"reserve_lamports"`
	Available  uint64 `json:"available_lamports"`
}

// TokenVaultResponse is the API representation of a token vault.
type TokenVaultResponse struct {
	Owner      string          `json:"owner"`
	Mint       string          `json:"mint"`
	Address    string          `json:"address"`
	Authority  string          `json:"authority"`
	Registered bool            `json:"registered"`
	Amount     uint64          `json:"amount"`
	UIAmount   decimal.Decimal `json:"ui_amount"`
}

// AccountResponse is the API representation of a host ledger account.
type AccountResponse struct {
	Address  string `json:"address"`
	Owner    string `json:"owner"`
	Lamports uint64 `json:"lamports"`
	Space    uint64 `json:"space"`
}

// TokenAccountResponse is the API representation of a token account.
type TokenAccountResponse struct {
	Address   string          `json:"address"`
	Mint      string          `json:"mint"`
	Authority string          `json:"authority"`
	Amount    uint64          `json:"amount"`
	Decimals  uint8           `json:"decimals"`
	UIAmount  decimal.Decimal `json:"ui_amount"`
	State     string          `json:"state"`
}
