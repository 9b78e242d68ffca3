package faucet

import (
	"errors"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/congo_vault/internal/ledger"
	"github.com/congo-pay/congo_vault/internal/token"
)

// Handler exposes operator endpoints for funding accounts and issuing tokens.
type Handler struct {
	service *Service
}

// NewHandler constructs a faucet handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Airdrop credits lamports to an address.
func (h *Handler) Airdrop(c *fiber.Ctx) error {
	var req AirdropRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	address, err := solana.PublicKeyFromBase58(req.Address)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid address")
	}

	balance, err := h.service.Airdrop(c.UserContext(), address, req.Lamports)
	if err != nil {
		return faucetError(err)
	}
	return c.Status(http.StatusOK).JSON(AirdropResponse{Address: address.String(), Lamports: req.Lamports, Balance: balance})
}

// CreateMint creates a mint controlled by the faucet operator.
func (h *Handler) CreateMint(c *fiber.Ctx) error {
	var req CreateMintRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	result, err := h.service.CreateMint(c.UserContext(), req.Decimals)
	if err != nil {
		return faucetError(err)
	}
	return c.Status(http.StatusCreated).JSON(CreateMintResponse{
		Mint:          result.Mint.String(),
		Decimals:      result.Decimals,
		MintAuthority: result.MintAuthority.String(),
	})
}

// CreateTokenAccount opens the associated token account of an owner.
func (h *Handler) CreateTokenAccount(c *fiber.Ctx) error {
	mint, err := solana.PublicKeyFromBase58(c.Params("mint"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid mint")
	}
	var req CreateTokenAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	owner, err := solana.PublicKeyFromBase58(req.Owner)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid owner")
	}

	address, err := h.service.CreateTokenAccount(c.UserContext(), mint, owner)
	if err != nil {
		return faucetError(err)
	}
	return c.Status(http.StatusCreated).JSON(TokenAccountResponse{
		Owner:        owner.String(),
		Mint:         mint.String(),
		TokenAccount: address.String(),
	})
}

// MintTo issues tokens to the associated account of an owner.
func (h *Handler) MintTo(c *fiber.Ctx) error {
	mint, err := solana.PublicKeyFromBase58(c.Params("mint"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid mint")
	}
	var req MintToRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	owner, err := solana.PublicKeyFromBase58(req.Owner)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid owner")
	}

	decimals, err := h.service.Decimals(c.UserContext(), mint)
	if err != nil {
		return faucetError(err)
	}
	raw, err := token.RawAmount(req.Amount, decimals)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.MintTo(c.UserContext(), mint, owner, raw)
	if err != nil {
		return faucetError(err)
	}
	return c.Status(http.StatusOK).JSON(MintToResponse{
		TokenAccount: result.TokenAccount.String(),
		Amount:       result.Amount,
		UIAmount:     token.UIAmount(result.Amount, result.Decimals),
	})
}

func faucetError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrAirdropLimit):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrMintNotOwned):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ledger.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, token.ErrOverflow), errors.Is(err, ledger.ErrAmountOverflow):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
