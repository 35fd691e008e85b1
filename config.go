package pubcontent

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eringen/pubcontent/content"
)

// Store backends.
const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
)

// SiteConfig holds all configuration for a pubcontent site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name, also the feed title (default "Blog")
	URL         string `yaml:"url"`         // Canonical base URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Feed description
	Language    string `yaml:"language"`    // Feed language tag (default "en-US")

	Addr     string `yaml:"addr"`      // Listen address (default ":3000")
	Env      string `yaml:"env"`       // local, dev, prod (default "local")
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	ContentDir     string        `yaml:"content_dir"`     // Content root for the fs backend (default "content")
	Backend        string        `yaml:"backend"`         // fs or sqlite (default "fs")
	IndexPath      string        `yaml:"index_path"`      // SQLite index path (default "data/content.db")
	ReloadInterval time.Duration `yaml:"reload_interval"` // fs snapshot lifetime; 0 loads once
	SchemaPath     string        `yaml:"schema_path"`     // Optional JSON schema for document metadata

	FeedPath     string   `yaml:"feed_path"`     // Feed route (default "/rss.xml")
	FeedSections []string `yaml:"feed_sections"` // Publishable path markers (default posts, snippets)

	CacheTTL       time.Duration `yaml:"cache_ttl"`        // Response cache TTL (default 5min, negative disables)
	CacheSize      int           `yaml:"cache_size"`       // Response cache entries (default 256)
	PreviewDrafts  bool          `yaml:"preview_drafts"`   // Serve drafts from the document lookup route
	DefaultPerPage int           `yaml:"default_per_page"` // Listing page size (default 10)
	MaxPerPage     int           `yaml:"max_per_page"`     // Listing page size cap (default 100)

	RateLimit float64 `yaml:"rate_limit"` // Requests per second per client; 0 disables
	RateBurst int     `yaml:"rate_burst"` // Burst size (default 2x rate)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Language == "" {
		c.Language = "en-US"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.Env == "" {
		c.Env = "local"
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	if c.Backend == "" {
		c.Backend = BackendFS
	}
	if c.IndexPath == "" {
		c.IndexPath = "data/content.db"
	}
	if c.FeedPath == "" {
		c.FeedPath = "/rss.xml"
	}
	if len(c.FeedSections) == 0 {
		c.FeedSections = []string{"posts", "snippets"}
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 256
	}
	if c.DefaultPerPage <= 0 {
		c.DefaultPerPage = 10
	}
	if c.MaxPerPage <= 0 {
		c.MaxPerPage = 100
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		c.RateBurst = int(2*c.RateLimit) + 1
	}
}

// Validate checks the configuration for correctness.
func (c *SiteConfig) Validate() error {
	switch c.Backend {
	case BackendFS, BackendSQLite:
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", BackendFS, BackendSQLite, c.Backend)
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("url must be absolute, got %q", c.URL)
	}
	if !strings.HasPrefix(c.FeedPath, "/") {
		return fmt.Errorf("feed_path must start with /, got %q", c.FeedPath)
	}
	if c.DefaultPerPage > c.MaxPerPage {
		return fmt.Errorf("default_per_page (%d) exceeds max_per_page (%d)", c.DefaultPerPage, c.MaxPerPage)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %v", c.RateLimit)
	}
	return nil
}

// FeedURL returns the absolute URL of the feed.
func (c *SiteConfig) FeedURL() string {
	return strings.TrimRight(c.URL, "/") + c.FeedPath
}

// LoadConfig reads a YAML configuration file, expanding ${VAR} and
// ${VAR:-default} references from the environment, and applies defaults.
// An empty path yields the defaults.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return SiteConfig{}, fmt.Errorf("pubcontent: read config %s: %w", path, err)
		}
		data = expandEnvVars(data)
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return SiteConfig{}, fmt.Errorf("pubcontent: parse config: %w", err)
		}
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return SiteConfig{}, fmt.Errorf("pubcontent: invalid config: %w", err)
	}
	return cfg, nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

// Option configures additional App behavior.
type Option func(*App)

// WithStore serves content from store instead of the configured backend.
func WithStore(store content.Store) Option {
	return func(a *App) {
		a.store = store
	}
}

// WithLogger sets the application logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}
