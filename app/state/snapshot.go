package state

// Snapshot is the persisted record of previously delivered item titles per
// feed. Titles are kept in insertion order so retention trimming can drop
// the oldest entries; membership checks go through an index. The selection
// engine only reads it; the commit step records deliveries through Add
// after the delivery phase fully succeeds.
type Snapshot struct {
	feeds   map[string][]string
	index   map[string]map[string]struct{}
	changed bool
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		feeds: make(map[string][]string),
		index: make(map[string]map[string]struct{}),
	}
}

// SnapshotFromMap builds a snapshot from a stored mapping. Duplicate titles
// within a feed are collapsed.
func SnapshotFromMap(feeds map[string][]string) *Snapshot {
	snap := NewSnapshot()
	for feedURL, titles := range feeds {
		for _, title := range titles {
			snap.add(feedURL, title)
		}
	}
	snap.changed = false
	return snap
}

func (s *Snapshot) Contains(feedURL, title string) bool {
	titles, ok := s.index[feedURL]
	if !ok {
		return false
	}
	_, ok = titles[title]
	return ok
}

// Add records a delivered title. The union is idempotent: adding a title
// already present changes nothing and does not mark the snapshot dirty.
func (s *Snapshot) Add(feedURL, title string) bool {
	if s.Contains(feedURL, title) {
		return false
	}
	s.add(feedURL, title)
	s.changed = true
	return true
}

func (s *Snapshot) add(feedURL, title string) {
	if s.Contains(feedURL, title) {
		return
	}
	s.feeds[feedURL] = append(s.feeds[feedURL], title)
	if s.index[feedURL] == nil {
		s.index[feedURL] = make(map[string]struct{})
	}
	s.index[feedURL][title] = struct{}{}
}

// Trim keeps only the newest max titles per feed. Zero or negative max
// leaves the snapshot untouched. Trimming marks the snapshot changed so the
// shrunken state is written back.
func (s *Snapshot) Trim(max int) {
	if max <= 0 {
		return
	}
	for feedURL, titles := range s.feeds {
		if len(titles) <= max {
			continue
		}
		dropped := titles[:len(titles)-max]
		s.feeds[feedURL] = titles[len(titles)-max:]
		for _, title := range dropped {
			delete(s.index[feedURL], title)
		}
		s.changed = true
	}
}

// Changed reports whether the snapshot differs from the state it was
// loaded with.
func (s *Snapshot) Changed() bool {
	return s.changed
}

// Map returns the underlying mapping for serialization by stores.
func (s *Snapshot) Map() map[string][]string {
	return s.feeds
}

func (s *Snapshot) FeedCount() int {
	return len(s.feeds)
}

func (s *Snapshot) TitleCount() int {
	count := 0
	for _, titles := range s.feeds {
		count += len(titles)
	}
	return count
}
