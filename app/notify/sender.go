package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newsmon/app/cfg"
	"newsmon/app/feed"
)

// Transport sends one message to a resolved chat address.
type Transport interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// ChannelResolver maps an item's channel reference to a concrete chat
// address.
type ChannelResolver interface {
	Resolve(ref string) (string, error)
}

// Stats reports what one delivery pass did beyond the delivered items
// themselves.
type Stats struct {
	Excluded int
	Retries  int
}

// Sender is the delivery engine. It resolves each item's channel, groups
// items by concrete chat and sends them in order, retrying rate-limited
// sends with backoff. The first fatal failure aborts the remaining sends
// for the whole run: delivery succeeds or fails as a unit so the snapshot
// commit decision stays simple.
type Sender struct {
	transport   Transport
	resolver    ChannelResolver
	admin       *AdminNotifier
	maxRetries  int
	pause       time.Duration
	backoffBase time.Duration
	sleep       func(time.Duration)
}

func NewSender(transport Transport, resolver ChannelResolver, admin *AdminNotifier, c *cfg.Cfg) *Sender {
	return &Sender{
		transport:   transport,
		resolver:    resolver,
		admin:       admin,
		maxRetries:  c.MaxRetries,
		pause:       c.Pause,
		backoffBase: c.BackoffBase,
		sleep:       time.Sleep,
	}
}

// Run delivers every selected item and returns the ones the transport
// accepted. Items whose channel cannot be resolved are excluded and
// admin-notified, not fatal; they are absent from the returned slice so
// the commit step will not mark them delivered. On a fatal send failure
// the items delivered so far are still returned, but the run counts as
// failed and the caller must not commit them.
func (s *Sender) Run(ctx context.Context, items []feed.SelectedItem) ([]feed.SelectedItem, Stats, error) {
	var stats Stats

	var order []string
	groups := make(map[string][]feed.SelectedItem)
	for _, item := range items {
		address, err := s.resolver.Resolve(item.ChannelRef)
		if err != nil {
			stats.Excluded++
			unresolved := &Error{Kind: KindUnresolved, Message: err.Error()}
			slog.Warn("Channel resolution failed, skipping item",
				"channel", item.ChannelRef, "title", item.Title, "error", unresolved)
			s.admin.Notify(ctx, fmt.Sprintf("Cannot resolve channel '%s' for item '%s'", item.ChannelRef, item.Title))
			continue
		}

		if _, ok := groups[address]; !ok {
			order = append(order, address)
		}
		groups[address] = append(groups[address], item)
	}

	delivered := make([]feed.SelectedItem, 0, len(items))
	for _, address := range order {
		for _, item := range groups[address] {
			retries, err := s.send(ctx, address, item)
			stats.Retries += retries
			if err != nil {
				return delivered, stats, err
			}

			delivered = append(delivered, item)
			slog.Info("Item delivered", "chat", address, "title", item.Title)
			s.sleep(s.pause)
		}
	}

	return delivered, stats, nil
}

// send attempts one item with bounded retry. Only rate limits are retried:
// the hint from the response is honored exactly when present, otherwise the
// baseline delay doubles with each retry. Exhausting the retry budget, or
// any non-rate-limit failure, is fatal.
func (s *Sender) send(ctx context.Context, address string, item feed.SelectedItem) (int, error) {
	text := MessageText(item.Item)

	for attempt := 0; ; attempt++ {
		err := s.transport.SendMessage(ctx, address, text)
		if err == nil {
			return attempt, nil
		}

		var notifyErr *Error
		if !errors.As(err, &notifyErr) || notifyErr.Kind != KindRateLimited {
			return attempt, fmt.Errorf("failed to send '%s' to %s: %w", item.Title, address, err)
		}

		if attempt >= s.maxRetries {
			return attempt, fmt.Errorf("failed to send '%s' to %s after %d retries: %w", item.Title, address, s.maxRetries, err)
		}

		delay := notifyErr.RetryAfter
		if delay <= 0 {
			delay = s.backoffBase << attempt
		}

		slog.Warn("Rate limited, backing off",
			"chat", address, "delay", delay, "retry", attempt+1, "max_retries", s.maxRetries)
		s.sleep(delay)
	}
}

// MessageText renders the fixed notification template for one item. The
// date line stays empty when the item has no publish date.
func MessageText(item feed.Item) string {
	date := ""
	if item.Published != nil {
		date = item.Published.Format("2006-01-02")
	}
	return fmt.Sprintf("📰 %s / %s\n%s\n\n%s", item.FeedTitle, item.Title, date, item.Link)
}
