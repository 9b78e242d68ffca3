package vault

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRegistered indicates the derived account of a registration already exists.
	ErrAlreadyRegistered = errors.New("already registered")

	// ErrInvalidAccount indicates a supplied account differs from what the program derives
	// or expects: address, mint binding, authority or owning program.
	ErrInvalidAccount = errors.New("invalid account")

	// ErrUnauthorized groups every signer failure. Callers match on it; the
	// two variants below only differ in logs.
	ErrUnauthorized = errors.New("unauthorized signer")

	// ErrMissingSignature indicates the owner of the accounts did not sign.
	ErrMissingSignature = fmt.Errorf("%w: missing signature", ErrUnauthorized)

	// ErrUnknownSigner indicates a signature from a key the instruction does not reference.
	ErrUnknownSigner = fmt.Errorf("%w: unknown signer", ErrUnauthorized)

	// ErrInsufficientFunds occurs when the source cannot cover the amount and its reserve.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount is returned for zero amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrUnknownInstruction is returned when the instruction name or data is not recognised.
	ErrUnknownInstruction = errors.New("unknown instruction")
)

// Error kinds reported to callers.
const (
	KindAlreadyRegistered  = "AlreadyRegistered"
	KindInvalidAccount     = "InvalidAccount"
	KindUnauthorized       = "Unauthorized"
	KindInsufficientFunds  = "InsufficientFunds"
	KindInvalidAmount      = "InvalidAmount"
	KindUnknownInstruction = "UnknownInstruction"
)

// InstructionError is the caller-facing form of a failed instruction.
type InstructionError struct {
	Code    uint32
	Kind    string
	Message string
	Err     error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("custom program error: 0x%x: %s", e.Code, e.Message)
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}

var instructionErrors = []struct {
	target  error
	code    uint32
	kind    string
	message string
}{
	{ErrAlreadyRegistered, 0x0, KindAlreadyRegistered, "account already in use"},
	{ErrInvalidAccount, 2006, KindInvalidAccount, "a seeds or binding constraint was violated"},
	{ErrUnauthorized, 3010, KindUnauthorized, "signature verification failed"},
	{ErrInsufficientFunds, 6000, KindInsufficientFunds, "Insufficient Funds"},
	{ErrInvalidAmount, 6001, KindInvalidAmount, "Amount must be greater than zero"},
	{ErrUnknownInstruction, 101, KindUnknownInstruction, "fallback functions are not supported"},
}

// AsInstructionError classifies err. It returns nil when err is not a program
// error, e.g. a storage failure.
func AsInstructionError(err error) *InstructionError {
	if err == nil {
		return nil
	}
	var ie *InstructionError
	if errors.As(err, &ie) {
		return ie
	}
	for _, c := range instructionErrors {
		if errors.Is(err, c.target) {
			return &InstructionError{Code: c.code, Kind: c.kind, Message: c.message, Err: err}
		}
	}
	return nil
}
