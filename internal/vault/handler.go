package vault

import (
	"errors"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/congo_vault/internal/ledger"
	"github.com/congo-pay/congo_vault/internal/token"
)

// Handler exposes read endpoints for vaults and ledger accounts.
type Handler struct {
	service *Service
}

// NewHandler constructs a vault handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetVault returns the native vault of an owner, or its token vault when ?mint= is set.
func (h *Handler) GetVault(c *fiber.Ctx) error {
	owner, err := solana.PublicKeyFromBase58(c.Params("owner"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid owner address")
	}

	if raw := c.Query("mint"); raw != "" {
		mint, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid mint address")
		}
		v, err := h.service.TokenVault(c.UserContext(), owner, mint)
		if err != nil {
			return lookupError(err)
		}
		return c.JSON(TokenVaultResponse{
			Owner:      v.Owner.String(),
			Mint:       v.Mint.String(),
			Address:    v.Address.String(),
			Authority:  v.Authority.String(),
			Registered: v.Registered,
			Amount:     v.Amount,
			UIAmount:   token.UIAmount(v.Amount, v.Decimals),
		})
	}

	v, err := h.service.Vault(c.UserContext(), owner)
	if err != nil {
		return lookupError(err)
	}
	return c.JSON(VaultResponse{
		Owner:      v.Owner.String(),
		Address:    v.Address.String(),
		Bump:       v.Bump,
		Registered: v.Registered,
		Lamports:   v.Lamports,
		Reserve:    v.Reserve,
		Available:  v.Available(),
	})
}

// GetAccount returns a host ledger account.
func (h *Handler) GetAccount(c *fiber.Ctx) error {
	address, err := solana.PublicKeyFromBase58(c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid address")
	}
	acc, err := h.service.Account(c.UserContext(), address)
	if err != nil {
		return lookupError(err)
	}
	return c.JSON(AccountResponse{
		Address:  acc.Address.String(),
		Owner:    acc.Owner.String(),
		Lamports: acc.Lamports,
		Space:    acc.Space,
	})
}

// GetTokenAccount returns a token account with its UI amount.
func (h *Handler) GetTokenAccount(c *fiber.Ctx) error {
	address, err := solana.PublicKeyFromBase58(c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid address")
	}
	acc, mint, err := h.service.TokenAccount(c.UserContext(), address)
	if err != nil {
		return lookupError(err)
	}
	return c.JSON(TokenAccountResponse{
		Address:   acc.Address.String(),
		Mint:      acc.Mint.String(),
		Authority: acc.Authority.String(),
		Amount:    acc.Amount,
		Decimals:  mint.Decimals,
		UIAmount:  token.UIAmount(acc.Amount, mint.Decimals),
		State:     stateName(acc.State),
	})
}

func lookupError(err error) error {
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	return fiber.NewError(http.StatusInternalServerError, err.Error())
}

func stateName(s ledger.TokenAccountState) string {
	switch s {
	case ledger.TokenAccountInitialized:
		return "initialized"
	case ledger.TokenAccountFrozen:
		return "frozen"
	default:
		return "uninitialized"
	}
}
