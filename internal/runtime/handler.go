package runtime

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/congo_vault/internal/vault"
)

const maxBatchSize = 64

// Handler exposes transaction submission endpoints.
type Handler struct {
	runtime *Runtime
}

// NewHandler constructs a transaction handler.
func NewHandler(rt *Runtime) *Handler {
	return &Handler{runtime: rt}
}

// Submit processes one signed transaction.
func (h *Handler) Submit(c *fiber.Ctx) error {
	var req TransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	tx, err := req.Transaction()
	if err != nil {
		status, body := classify(err)
		return c.Status(status).JSON(body)
	}

	receipt, err := h.runtime.Submit(c.UserContext(), tx)
	if err != nil {
		status, body := classify(err)
		return c.Status(status).JSON(ReceiptResponse{
			Signature: receipt.Signature.String(),
			Logs:      nonNil(receipt.Logs),
			Error:     &body,
		})
	}
	return c.Status(http.StatusOK).JSON(toResponse(receipt, nil))
}

// SubmitBatch processes up to maxBatchSize independent transactions.
func (h *Handler) SubmitBatch(c *fiber.Ctx) error {
	var req BatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if len(req.Transactions) == 0 {
		return fiber.NewError(http.StatusBadRequest, "transactions must not be empty")
	}
	if len(req.Transactions) > maxBatchSize {
		return fiber.NewError(http.StatusRequestEntityTooLarge, "too many transactions in batch")
	}

	resp := BatchResponse{Results: make([]ReceiptResponse, len(req.Transactions))}
	txs := make([]*Transaction, 0, len(req.Transactions))
	index := make([]int, 0, len(req.Transactions))
	for i, r := range req.Transactions {
		tx, err := r.Transaction()
		if err != nil {
			_, body := classify(err)
			resp.Results[i] = ReceiptResponse{Logs: []string{}, Error: &body}
			continue
		}
		txs = append(txs, tx)
		index = append(index, i)
	}

	for j, result := range h.runtime.SubmitBatch(c.UserContext(), txs) {
		resp.Results[index[j]] = toResponse(result.Receipt, result.Err)
	}
	return c.Status(http.StatusOK).JSON(resp)
}

func toResponse(receipt Receipt, err error) ReceiptResponse {
	out := ReceiptResponse{Signature: receipt.Signature.String(), Logs: nonNil(receipt.Logs)}
	if err != nil {
		_, body := classify(err)
		out.Error = &body
	}
	return out
}

// classify maps a submission failure to an HTTP status and error body.
func classify(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, ErrNoSignatures), errors.Is(err, ErrSignatureVerification), errors.Is(err, ErrDuplicateSigner):
		return http.StatusUnauthorized, ErrorResponse{Kind: "SignatureVerification", Message: err.Error()}
	case errors.Is(err, ErrDuplicateTransaction):
		return http.StatusConflict, ErrorResponse{Kind: "DuplicateTransaction", Message: err.Error()}
	}

	ie := vault.AsInstructionError(err)
	if ie == nil {
		return http.StatusInternalServerError, ErrorResponse{Kind: "Internal", Message: err.Error()}
	}
	body := ErrorResponse{Code: ie.Code, Kind: ie.Kind, Message: ie.Message}
	switch ie.Kind {
	case vault.KindUnauthorized:
		return http.StatusForbidden, body
	case vault.KindAlreadyRegistered:
		return http.StatusConflict, body
	case vault.KindInsufficientFunds:
		return http.StatusUnprocessableEntity, body
	default:
		return http.StatusBadRequest, body
	}
}

func nonNil(logs []string) []string {
	if logs == nil {
		return []string{}
	}
	return logs
}
