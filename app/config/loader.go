package config

import (
	"fmt"
	"net/url"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Cache holds the active topics configuration behind a read lock so a
// reload can swap in a revalidated config between runs.
type Cache struct {
	path   string
	mu     sync.RWMutex
	config *Config
}

func NewCache(path string) *Cache {
	return &Cache{path: path}
}

// Load reads, parses and validates the topics file and makes it the active
// configuration.
func (c *Cache) Load() (*Config, error) {
	config, err := c.parse()
	if err != nil {
		return nil, err
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", c.path, err)
	}

	c.mu.Lock()
	c.config = config
	c.mu.Unlock()

	return config, nil
}

// Get returns the active configuration. It is nil until the first
// successful Load.
func (c *Cache) Get() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *Cache) Path() string {
	return c.path
}

func (c *Cache) parse() (*Config, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &config, nil
}

func validate(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	if len(config.Topics) == 0 {
		return fmt.Errorf("at least one topic is required")
	}

	for name, topic := range config.Topics {
		if len(topic.Feeds) == 0 {
			return fmt.Errorf("topic '%s' has no feeds", name)
		}

		for _, feedURL := range topic.Feeds {
			parsed, err := url.Parse(feedURL)
			if err != nil || parsed.Scheme == "" || parsed.Host == "" {
				return fmt.Errorf("topic '%s' has invalid feed URL '%s'", name, feedURL)
			}
		}
	}

	return nil
}
