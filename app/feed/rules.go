package feed

import (
	"strings"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run applies each item's attached allow/deny keyword rules and returns the
// items that pass. An item passes when its lowercased title and summary
// match at least one allow keyword (or the allow list is empty) and no deny
// keyword. Deny wins when both match. Items without rules pass unchanged.
func (f *Filterer) Run(items []Item) []Item {
	passed := make([]Item, 0, len(items))
	for _, item := range items {
		if f.passes(item) {
			passed = append(passed, item)
		}
	}
	return passed
}

func (f *Filterer) passes(item Item) bool {
	rules := item.Rules
	if rules == nil {
		return true
	}

	text := strings.ToLower(item.Title + " " + item.Summary)

	for _, keyword := range rules.Deny {
		if keyword != "" && strings.Contains(text, strings.ToLower(keyword)) {
			return false
		}
	}

	if len(rules.Allow) == 0 {
		return true
	}
	for _, keyword := range rules.Allow {
		if keyword != "" && strings.Contains(text, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
