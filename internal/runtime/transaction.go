package runtime

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/congo-pay/congo_vault/internal/signer"
	"github.com/congo-pay/congo_vault/internal/vault"
)

var (
	// ErrNoSignatures is returned for transactions that carry no signature at all.
	ErrNoSignatures = errors.New("transaction has no signatures")

	// ErrSignatureVerification indicates a signature does not match its public key and message.
	ErrSignatureVerification = errors.New("signature verification failed")

	// ErrDuplicateSigner is returned when one key signs the same transaction twice.
	ErrDuplicateSigner = errors.New("duplicate signer")
)

// SignaturePair is an ed25519 signature over the transaction message.
type SignaturePair struct {
	PublicKey solana.PublicKey `json:"public_key"`
	Signature solana.Signature `json:"signature"`
}

// Transaction wraps one vault instruction with the signatures authorising it.
// The nonce makes otherwise identical instructions produce distinct signatures.
type Transaction struct {
	Instruction vault.Instruction `json:"instruction"`
	Nonce       uuid.UUID         `json:"nonce"`
	Signatures  []SignaturePair   `json:"signatures"`
}

// NewTransaction wraps ix with a fresh nonce.
func NewTransaction(ix vault.Instruction) *Transaction {
	return &Transaction{Instruction: ix, Nonce: uuid.New()}
}

// Message returns the bytes every signature must cover.
func (t *Transaction) Message() ([]byte, error) {
	return t.Instruction.Message([16]byte(t.Nonce))
}

// Sign appends a signature for each key.
func (t *Transaction) Sign(keys ...solana.PrivateKey) error {
	msg, err := t.Message()
	if err != nil {
		return err
	}
	for _, key := range keys {
		sig, err := key.Sign(msg)
		if err != nil {
			return fmt.Errorf("sign with %s: %w", key.PublicKey(), err)
		}
		t.Signatures = append(t.Signatures, SignaturePair{PublicKey: key.PublicKey(), Signature: sig})
	}
	return nil
}

// Signature identifies the transaction: its first signature.
func (t *Transaction) Signature() solana.Signature {
	if len(t.Signatures) == 0 {
		return solana.Signature{}
	}
	return t.Signatures[0].Signature
}

// Verify checks every signature and returns the verified signers.
func (t *Transaction) Verify() (signer.Set, error) {
	if len(t.Signatures) == 0 {
		return nil, ErrNoSignatures
	}
	msg, err := t.Message()
	if err != nil {
		return nil, err
	}

	signers := make(signer.Set, len(t.Signatures))
	for _, pair := range t.Signatures {
		if signers.Contains(pair.PublicKey) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSigner, pair.PublicKey)
		}
		if !pair.Signature.Verify(pair.PublicKey, msg) {
			return nil, fmt.Errorf("%w: %s", ErrSignatureVerification, pair.PublicKey)
		}
		signers[pair.PublicKey] = struct{}{}
	}
	return signers, nil
}
