package feed

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"newsmon/app/state"
)

type Selector struct{}

func NewSelector() *Selector {
	return &Selector{}
}

// Run produces the bounded, deduplicated delivery set for one run. Items
// are grouped by feed in the order feeds first appear in the input; each
// group is scanned oldest-first. An item is skipped when its title is
// already in the snapshot for its feed, or when its fingerprint was already
// selected earlier in this run. Scanning stops outright once the result
// reaches maxItems, so a feed appearing earlier in the input can consume
// the entire cap and starve later feeds. Callers needing fairness must
// pre-interleave items.
//
// The snapshot is only consulted, never mutated; delivered titles are
// recorded by the commit step after delivery succeeds.
func (s *Selector) Run(items []Item, snap *state.Snapshot, maxItems int) []SelectedItem {
	if maxItems <= 0 {
		return nil
	}

	var order []string
	groups := make(map[string][]Item)
	for _, item := range items {
		if _, ok := groups[item.FeedURL]; !ok {
			order = append(order, item.FeedURL)
		}
		groups[item.FeedURL] = append(groups[item.FeedURL], item)
	}

	seen := make(map[string]bool)
	selected := make([]SelectedItem, 0, maxItems)

	for _, feedURL := range order {
		group := groups[feedURL]
		sortByPublished(group)

		for _, item := range group {
			if snap.Contains(item.FeedURL, item.Title) {
				continue
			}

			fingerprint := Fingerprint(item)
			if seen[fingerprint] {
				continue
			}

			selected = append(selected, SelectedItem{Item: item, Fingerprint: fingerprint})
			seen[fingerprint] = true

			if len(selected) >= maxItems {
				return selected
			}
		}
	}

	return selected
}

// sortByPublished orders a feed group ascending by publish time. Items
// without a publish date sort first. The sort is stable so equal times keep
// their feed order.
func sortByPublished(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		pi, pj := items[i].Published, items[j].Published
		if pi == nil {
			return pj != nil
		}
		if pj == nil {
			return false
		}
		return pi.Before(*pj)
	})
}

// Fingerprint derives the stable dedup key for an item: the feed-native id
// when present, else the link, else the title/link pair.
func Fingerprint(item Item) string {
	raw := cmp.Or(item.GUID, item.Link, item.Title+"|"+item.Link)

	hash := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(hash[:])
}
