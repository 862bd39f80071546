package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) *Cache {
	t.Helper()

	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "topics.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return NewCache(path)
}

func TestLoadValidConfig(t *testing.T) {
	content := `
channels:
  world: "-1001234567890"

topics:
  world-news:
    channel: world
    feeds:
      - https://example.com/rss
      - https://example.org/feed.xml
    rules:
      allow:
        - go
        - linux
      deny:
        - sponsored
  tech:
    channel: "@technews"
    feeds:
      - https://example.net/atom
`

	cache := writeConfig(t, content)
	config, err := cache.Load()
	if err != nil {
		t.Fatal(err)
	}

	if config.TopicCount() != 2 {
		t.Errorf("Expected 2 topics, got %d", config.TopicCount())
	}
	if config.FeedCount() != 3 {
		t.Errorf("Expected 3 feeds, got %d", config.FeedCount())
	}

	world, ok := config.Topics["world-news"]
	if !ok {
		t.Fatal("Expected topic 'world-news' to be present")
	}
	if world.Channel != "world" {
		t.Errorf("Expected channel 'world', got '%s'", world.Channel)
	}
	if len(world.Feeds) != 2 {
		t.Errorf("Expected 2 feeds, got %d", len(world.Feeds))
	}
	if world.Rules == nil {
		t.Fatal("Expected rules to be present")
	}
	if len(world.Rules.Allow) != 2 || len(world.Rules.Deny) != 1 {
		t.Errorf("Expected 2 allow and 1 deny keywords, got %d and %d",
			len(world.Rules.Allow), len(world.Rules.Deny))
	}

	if config.Channels["world"] != "-1001234567890" {
		t.Errorf("Expected channel address '-1001234567890', got '%s'", config.Channels["world"])
	}

	// Cache should now serve the loaded config
	if cache.Get() != config {
		t.Error("Expected cache to return the loaded config")
	}
}

func TestLoadMissingFile(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "absent.yml"))
	if _, err := cache.Load(); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	cache := writeConfig(t, "topics: [not: valid: yaml")
	if _, err := cache.Load(); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoadNoTopics(t *testing.T) {
	cache := writeConfig(t, "channels:\n  world: \"-100\"\n")
	_, err := cache.Load()
	if err == nil {
		t.Fatal("Expected error for config without topics")
	}
	if !strings.Contains(err.Error(), "at least one topic") {
		t.Errorf("Expected topic requirement error, got: %v", err)
	}
}

func TestLoadTopicWithoutFeeds(t *testing.T) {
	content := `
topics:
  empty:
    channel: "@somewhere"
`
	cache := writeConfig(t, content)
	_, err := cache.Load()
	if err == nil {
		t.Fatal("Expected error for topic without feeds")
	}
	if !strings.Contains(err.Error(), "has no feeds") {
		t.Errorf("Expected no-feeds error, got: %v", err)
	}
}

func TestLoadInvalidFeedURL(t *testing.T) {
	content := `
topics:
  broken:
    channel: "@somewhere"
    feeds:
      - not-a-url
`
	cache := writeConfig(t, content)
	if _, err := cache.Load(); err == nil {
		t.Error("Expected error for invalid feed URL")
	}
}

func TestSubscriptionsOrder(t *testing.T) {
	content := `
topics:
  zulu:
    channel: "@z"
    feeds:
      - https://example.com/z1
  alpha:
    channel: "@a"
    feeds:
      - https://example.com/a1
      - https://example.com/a2
`
	cache := writeConfig(t, content)
	config, err := cache.Load()
	if err != nil {
		t.Fatal(err)
	}

	subs := config.Subscriptions()
	if len(subs) != 3 {
		t.Fatalf("Expected 3 subscriptions, got %d", len(subs))
	}

	// Topics are flattened in name order, feeds in file order
	expected := []string{"https://example.com/a1", "https://example.com/a2", "https://example.com/z1"}
	for i, sub := range subs {
		if sub.FeedURL != expected[i] {
			t.Errorf("Expected feed %s at position %d, got %s", expected[i], i, sub.FeedURL)
		}
	}

	if subs[0].Topic != "alpha" || subs[0].ChannelRef != "@a" {
		t.Errorf("Expected alpha/@a first, got %s/%s", subs[0].Topic, subs[0].ChannelRef)
	}
}

func TestHasAddresses(t *testing.T) {
	cases := []struct {
		desc   string
		config Config
		want   bool
	}{
		{"channels map entry", Config{Channels: map[string]string{"main": "@main"}}, true},
		{"empty channels map value", Config{Channels: map[string]string{"main": ""}}, false},
		{"literal topic channel", Config{Topics: map[string]Topic{"news": {Channel: "-1001234567890"}}}, true},
		{"symbolic refs only", Config{Topics: map[string]Topic{"news": {Channel: "ghost"}}}, false},
		{"empty config", Config{}, false},
	}

	for _, c := range cases {
		if got := c.config.HasAddresses(); got != c.want {
			t.Errorf("%s: expected HasAddresses %v, got %v", c.desc, c.want, got)
		}
	}
}
