package notification

import (
	"context"
	"log/slog"
	"sync"
)

const (
	// KindVaultRegistered is sent when an owner registers a native or token vault.
	KindVaultRegistered = "vault_registered"
	// KindVaultDeposit is sent after funds move into a vault.
	KindVaultDeposit = "vault_deposit"
	// KindVaultWithdrawal is sent after funds move out of a vault.
	KindVaultWithdrawal = "vault_withdrawal"
)

// Message describes a vault event for an owner.
type Message struct {
	Kind      string
	Owner     string
	Mint      string
	Amount    uint64
	Signature string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	attrs := []any{"kind", message.Kind, "owner", message.Owner, "signature", message.Signature}
	if message.Mint != "" {
		attrs = append(attrs, "mint", message.Mint)
	}
	if message.Amount > 0 {
		attrs = append(attrs, "amount", message.Amount)
	}
	n.logger.InfoContext(ctx, "notification", attrs...)
	return nil
}

// Recorder keeps every message in memory. Tests use it to assert on events.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Send implements Notifier.
func (r *Recorder) Send(_ context.Context, message Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}
