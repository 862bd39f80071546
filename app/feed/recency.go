package feed

import (
	"time"
)

// FilterRecent drops items published before the age horizon. The boundary
// is inclusive: an item published exactly maxAgeDays ago is kept. Items
// without a publish date are kept, since a missing date cannot prove
// staleness.
func FilterRecent(items []Item, maxAgeDays int, now time.Time) []Item {
	cutoff := now.UTC().Add(-time.Duration(maxAgeDays) * 24 * time.Hour)

	recent := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Published == nil || !item.Published.Before(cutoff) {
			recent = append(recent, item)
		}
	}
	return recent
}
