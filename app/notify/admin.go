package notify

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// AdminNotifier pushes operator-facing warnings to the admin chat. It is
// best effort: failures are logged and swallowed, and a limiter drops
// excess messages instead of queueing them, so a run with many failing
// feeds cannot flood the admin channel or stall the pipeline.
type AdminNotifier struct {
	transport Transport
	chatID    string
	limiter   *rate.Limiter
}

func NewAdminNotifier(transport Transport, chatID string) *AdminNotifier {
	return &AdminNotifier{
		transport: transport,
		chatID:    chatID,
		limiter:   rate.NewLimiter(rate.Every(3*time.Second), 5),
	}
}

// Notify sends one admin message. A nil notifier, missing transport or
// empty chat is a no-op, so callers never branch on whether an admin
// channel is configured.
func (a *AdminNotifier) Notify(ctx context.Context, text string) {
	if a == nil || a.transport == nil || a.chatID == "" {
		return
	}

	if !a.limiter.Allow() {
		slog.Warn("Admin notification dropped by rate limit", "text", text)
		return
	}

	if err := a.transport.SendMessage(ctx, a.chatID, "⚠️ "+text); err != nil {
		slog.Warn("Admin notification failed", "error", err)
	}
}
