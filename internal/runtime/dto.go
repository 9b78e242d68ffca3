package runtime

import (
	"github.com/google/uuid"

	"github.com/congo-pay/congo_vault/internal/vault"
)

// TransactionRequest is a signed transaction as submitted over HTTP. When
// Data is set it takes precedence over Instruction.Name and Instruction.Amount.
type TransactionRequest struct {
	Instruction vault.Instruction `json:"instruction"`
	Data        []byte            `json:"data,omitempty"`
	Nonce       uuid.UUID         `json:"nonce"`
	Signatures  []SignaturePair   `json:"signatures"`
}

// Transaction converts the request into a runtime transaction.
func (r TransactionRequest) Transaction() (*Transaction, error) {
	ix := r.Instruction
	if len(r.Data) > 0 {
		decoded, err := vault.DecodeInstruction(r.Data, r.Instruction.Accounts)
		if err != nil {
			return nil, err
		}
		ix = decoded
	}
	return &Transaction{Instruction: ix, Nonce: r.Nonce, Signatures: r.Signatures}, nil
}

// BatchRequest submits several transactions at once.
type BatchRequest struct {
	Transactions []TransactionRequest `json:"transactions"`
}

// ReceiptResponse reports a processed transaction.
type ReceiptResponse struct {
	Signature string         `json:"signature"`
	Logs      []string       `json:"logs"`
	Error     *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse describes a rejected transaction.
type ErrorResponse struct {
	Code    uint32 `json:"code,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// BatchResponse keeps results in request order.
type BatchResponse struct {
	Results []ReceiptResponse `json:"results"`
}
