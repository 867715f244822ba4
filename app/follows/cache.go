package follows

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Cache holds the follow list loaded from the YAML file. Mutations are
// written back to the file so the list survives restarts and can be
// edited by hand between runs.
type Cache struct {
	path   string
	config *Config
	mu     sync.RWMutex
}

func NewCache(path string) *Cache {
	return &Cache{
		path:   path,
		config: &Config{},
	}
}

func (c *Cache) Run() error {
	if _, err := os.Stat(c.path); os.IsNotExist(err) {
		slog.Debug("Follows file not found, starting empty", "path", c.path)
		c.applyDefaults()
		return nil
	}

	config, err := c.parseConfig()
	if err != nil {
		return fmt.Errorf("error loading %s: %w", c.path, err)
	}

	if err := c.validateConfig(config); err != nil {
		return fmt.Errorf("invalid config %s: %w", c.path, err)
	}

	c.mu.Lock()
	c.config = config
	c.mu.Unlock()

	slog.Debug("Follows loaded", "path", c.path, "count", len(config.Follows),
		"refresh_interval", config.Settings.RefreshInterval)

	return nil
}

func (c *Cache) GetEntries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, len(c.config.Follows))
	copy(entries, c.config.Follows)
	return entries
}

func (c *Cache) GetURLs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	urls := make([]string, 0, len(c.config.Follows))
	for _, entry := range c.config.Follows {
		urls = append(urls, entry.URL)
	}
	return urls
}

func (c *Cache) GetSettings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.Settings
}

func (c *Cache) GetCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.config.Follows)
}

func (c *Cache) IsFollowed(rawURL string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, entry := range c.config.Follows {
		if entry.URL == rawURL {
			return true
		}
	}
	return false
}

// Add appends a follow and persists the list. Adding an already
// followed URL is a no-op.
func (c *Cache) Add(rawURL, name string) error {
	if err := validateFollowURL(rawURL); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.config.Follows {
		if entry.URL == rawURL {
			return nil
		}
	}

	c.config.Follows = append(c.config.Follows, Entry{URL: rawURL, Name: name})
	return c.persist()
}

// Remove drops a follow and persists the list. Removing an unknown URL
// is a no-op.
func (c *Cache) Remove(rawURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, entry := range c.config.Follows {
		if entry.URL == rawURL {
			c.config.Follows = append(c.config.Follows[:i], c.config.Follows[i+1:]...)
			return c.persist()
		}
	}
	return nil
}

func (c *Cache) persist() error {
	data, err := yaml.Marshal(c.config)
	if err != nil {
		return fmt.Errorf("failed to marshal follows: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write follows file: %w", err)
	}
	return nil
}

func (c *Cache) parseConfig() (*Config, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applySettingsDefaults(&config.Settings)

	return &config, nil
}

func (c *Cache) validateConfig(config *Config) error {
	for i, entry := range config.Follows {
		if err := validateFollowURL(entry.URL); err != nil {
			return fmt.Errorf("follow at index %d: %w", i, err)
		}
	}

	nonNegativeFields := map[string]int{
		"refresh interval":  config.Settings.RefreshInterval,
		"fetch concurrency": config.Settings.FetchConcurrency,
		"max items":         config.Settings.MaxItems,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	return nil
}

func (c *Cache) applyDefaults() {
	c.mu.Lock()
	defer c.mu.Unlock()
	applySettingsDefaults(&c.config.Settings)
}

func applySettingsDefaults(settings *Settings) {
	if settings.RefreshInterval == 0 {
		settings.RefreshInterval = 300
	}
	if settings.FetchConcurrency == 0 {
		settings.FetchConcurrency = 8
	}
	if settings.MaxItems == 0 {
		settings.MaxItems = 100
	}
}

func validateFollowURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("follow URL is required")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid follow URL %q: %w", rawURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("follow URL must be absolute http(s): %q", rawURL)
	}
	return nil
}
