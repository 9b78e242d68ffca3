package faucet

import "github.com/shopspring/decimal"

// AirdropRequest credits lamports to an address.
type AirdropRequest struct {
	Address  string `json:"address"`
	Lamports uint64 `json:"lamports"`
}

// AirdropResponse reports the balance after an airdrop.
type AirdropResponse struct {
	Address  string `json:"address"`
	Lamports uint64 `json:"lamports"`
	Balance  uint64 `json:"balance"`
}

// CreateMintRequest creates a mint with the given decimals.
type CreateMintRequest struct {
	Decimals uint8 `json:"decimals"`
}

// CreateMintResponse describes the created mint.
type CreateMintResponse struct {
	Mint          string `json:"mint"`
	Decimals      uint8  `json:"decimals"`
	MintAuthority string `json:"mint_authority"`
}

// CreateTokenAccountRequest opens the associated token account of an owner.
type CreateTokenAccountRequest struct {
	Owner string `json:"owner"`
}

// TokenAccountResponse identifies an associated token account.
type TokenAccountResponse struct {
	Owner        string `json:"owner"`
	Mint         string `json:"mint"`
	TokenAccount string `json:"token_account"`
}

// MintToRequest issues tokens to an owner. Amount is expressed in UI units.
type MintToRequest struct {
	Owner  string          `json:"owner"`
	Amount decimal.Decimal `json:"amount"`
}

// MintToResponse reports the destination balance after minting.
type MintToResponse struct {
	TokenAccount string          `json:"token_account"`
	Amount       uint64          `json:"amount"`
	UIAmount     decimal.Decimal `json:"ui_amount"`
}
