package config

import "sort"

// Topics file types

type Config struct {
	// Channels maps symbolic channel names to concrete chat addresses.
	Channels map[string]string `yaml:"channels"`
	Topics   map[string]Topic  `yaml:"topics"`
}

type Topic struct {
	Channel string   `yaml:"channel"`
	Feeds   []string `yaml:"feeds"`
	Rules   *Rules   `yaml:"rules"`
}

// Rules carries a topic's allow/deny keyword lists. An item passes when it
// matches at least one allow keyword (or the list is empty) and no deny
// keyword. Deny wins when both match.
type Rules struct {
	Allow []string `yaml:"allow"`
	Deny  []string `yaml:"deny"`
}

// Subscription is one (topic, feed) pair flattened out of the topics file,
// carrying the delivery metadata attached to every item fetched from it.
type Subscription struct {
	Topic      string
	FeedURL    string
	ChannelRef string
	Rules      *Rules
}

// Subscriptions flattens the topics into one entry per (topic, feed) pair.
// Topics are visited in name order so the feed ordering, and with it the
// selection engine's first-seen feed order, is stable across runs.
func (c *Config) Subscriptions() []Subscription {
	names := make([]string, 0, len(c.Topics))
	for name := range c.Topics {
		names = append(names, name)
	}
	sort.Strings(names)

	subs := make([]Subscription, 0, len(names))
	for _, name := range names {
		topic := c.Topics[name]
		for _, feedURL := range topic.Feeds {
			subs = append(subs, Subscription{
				Topic:      name,
				FeedURL:    feedURL,
				ChannelRef: topic.Channel,
				Rules:      topic.Rules,
			})
		}
	}
	return subs
}

// HasAddresses reports whether the file supplies any concrete chat address,
// in the channels map or as a literal topic channel. Without one, and
// without a process-level default channel, no item can resolve.
func (c *Config) HasAddresses() bool {
	for _, address := range c.Channels {
		if address != "" {
			return true
		}
	}
	for _, topic := range c.Topics {
		if isLiteralAddress(topic.Channel) {
			return true
		}
	}
	return false
}

func (c *Config) TopicCount() int {
	return len(c.Topics)
}

func (c *Config) FeedCount() int {
	count := 0
	for _, topic := range c.Topics {
		count += len(topic.Feeds)
	}
	return count
}
