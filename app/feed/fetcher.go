package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/text/unicode/norm"

	"newsmon/app/config"
)

type Fetcher struct {
	client    *http.Client
	parser    *gofeed.Parser
	userAgent string
}

func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	return &Fetcher{
		client:    client,
		parser:    gofeed.NewParser(),
		userAgent: userAgent,
	}
}

// Run fetches every subscribed feed and returns the normalized items in
// subscription order, plus one FetchError per feed that failed. A feed URL
// shared by several topics is fetched once; its items are attached per
// topic with that topic's channel and rules.
func (f *Fetcher) Run(ctx context.Context, subs []config.Subscription) ([]Item, []FetchError) {
	feeds := make(map[string]*gofeed.Feed)
	failed := make(map[string]bool)

	var items []Item
	var errs []FetchError

	for _, sub := range subs {
		parsed, ok := feeds[sub.FeedURL]
		if !ok {
			if failed[sub.FeedURL] {
				continue
			}

			var err error
			parsed, err = f.fetch(ctx, sub.FeedURL)
			if err != nil {
				failed[sub.FeedURL] = true
				errs = append(errs, FetchError{FeedURL: sub.FeedURL, Err: err})
				slog.Warn("Feed fetch failed", "feed", sub.FeedURL, "error", err)
				continue
			}
			feeds[sub.FeedURL] = parsed
		}

		normalized := f.normalize(parsed, sub)
		items = append(items, normalized...)
		slog.Debug("Feed fetched", "feed", sub.FeedURL, "topic", sub.Topic, "items", len(normalized))
	}

	return items, errs
}

func (f *Fetcher) fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	return parsed, nil
}

func (f *Fetcher) normalize(parsed *gofeed.Feed, sub config.Subscription) []Item {
	feedTitle := normalizeText(parsed.Title)

	items := make([]Item, 0, len(parsed.Items))
	for _, raw := range parsed.Items {
		if raw == nil {
			continue
		}

		item := Item{
			FeedURL:    sub.FeedURL,
			FeedTitle:  feedTitle,
			Title:      normalizeText(raw.Title),
			Link:       strings.TrimSpace(raw.Link),
			GUID:       strings.TrimSpace(raw.GUID),
			Summary:    normalizeText(raw.Description),
			ChannelRef: sub.ChannelRef,
			Rules:      sub.Rules,
		}

		if item.Title == "" || item.Link == "" {
			continue
		}

		if raw.PublishedParsed != nil {
			published := raw.PublishedParsed.UTC()
			item.Published = &published
		}

		items = append(items, item)
	}

	return items
}

// normalizeText trims whitespace and applies NFC normalization. Feeds mix
// composed and decomposed Unicode forms; cross-run deduplication compares
// persisted titles byte-wise, so equal-looking titles must be equal bytes.
func normalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// DefaultHTTPClient returns the client used for feed and page fetches.
func DefaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
	}
}
