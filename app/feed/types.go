package feed

import (
	"time"

	"newsmon/app/config"
)

// Pipeline types

type Item struct {
	FeedURL   string
	FeedTitle string
	Title     string
	Link      string
	GUID      string     // feed-native identifier, may be empty
	Published *time.Time // UTC; nil means "treat as always recent" and sorts first
	Summary   string

	// Delivery metadata attached from the owning topic
	ChannelRef string
	Rules      *config.Rules
}

// SelectedItem is an item chosen for delivery this run, tagged with its
// resolved fingerprint.
type SelectedItem struct {
	Item
	Fingerprint string
}

// FetchError records a feed that could not be fetched or parsed. Fetch
// failures never abort a run; they are reported to the admin channel and
// the remaining feeds proceed.
type FetchError struct {
	FeedURL string
	Err     error
}

func (e *FetchError) Error() string {
	return "failed to fetch " + e.FeedURL + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
