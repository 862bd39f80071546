package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	readability "codeberg.org/readeck/go-readability"
	"github.com/PuerkitoBio/goquery"
)

const summaryMaxLength = 280

// SummaryFiller fetches the linked page of items that arrived without a
// summary and fills in a short plain-text excerpt. Extraction is best
// effort: any failure leaves the summary empty and never fails the run.
type SummaryFiller struct {
	client    *http.Client
	userAgent string
}

func NewSummaryFiller(client *http.Client, userAgent string) *SummaryFiller {
	return &SummaryFiller{client: client, userAgent: userAgent}
}

func (s *SummaryFiller) Run(ctx context.Context, items []Item) []Item {
	for i := range items {
		if items[i].Summary != "" || items[i].Link == "" {
			continue
		}

		excerpt, err := s.extract(ctx, items[i].Link)
		if err != nil {
			slog.Debug("Summary extraction failed", "link", items[i].Link, "error", err)
			continue
		}
		items[i].Summary = excerpt
	}
	return items
}

func (s *SummaryFiller) extract(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, resp.Request.URL)
	if err != nil {
		return "", err
	}
	if article.Content == "" {
		return "", fmt.Errorf("no content extracted")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return "", err
	}
	return excerptOf(doc.Text()), nil
}

// excerptOf collapses whitespace and truncates to summaryMaxLength runes.
func excerptOf(text string) string {
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) <= summaryMaxLength {
		return text
	}
	return strings.TrimSpace(string(runes[:summaryMaxLength])) + "..."
}
