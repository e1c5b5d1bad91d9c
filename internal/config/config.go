// Package config loads wikisearch configuration.
//
// Values are layered in order of increasing precedence: built-in defaults,
// the user config file, the project config file (or --config), WIKISEARCH_*
// environment variables, and finally command flags applied by the caller.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/copetopi/wikisearch/internal/errors"
	"github.com/copetopi/wikisearch/internal/logging"
	"github.com/copetopi/wikisearch/pkg/version"
)

const (
	// DefaultBaseURL is the REST API root of the HTW Berlin wiki.
	DefaultBaseURL = "https://wiki.htw-berlin.de/confluence/rest/api"
	// DefaultViewURL is prefixed to a page id to build a browsable link.
	DefaultViewURL = "https://wiki.htw-berlin.de/confluence/pages/viewpage.action?pageId="
	// DefaultIndexPath is the index location relative to the working directory.
	DefaultIndexPath = "wiki_index"
)

// Config represents the complete wikisearch configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Source  SourceConfig  `yaml:"source" json:"source"`
	Index   IndexConfig   `yaml:"index" json:"index"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SourceConfig describes the wiki REST API and how politely to crawl it.
type SourceConfig struct {
	// BaseURL is the REST API root, e.g. https://host/confluence/rest/api.
	BaseURL string `yaml:"base_url" json:"base_url"`
	// ViewURL is the page link prefix; the page id is appended verbatim.
	ViewURL string `yaml:"view_url" json:"view_url"`
	// SpaceLimit is the limit parameter of the single space listing request.
	SpaceLimit int `yaml:"space_limit" json:"space_limit"`
	// PageLimit is the page size used for offset pagination.
	PageLimit int `yaml:"page_limit" json:"page_limit"`
	// MaxPagesPerSpace stops a runaway pagination. 0 = unlimited.
	MaxPagesPerSpace int `yaml:"max_pages_per_space" json:"max_pages_per_space"`
	// RequestTimeout bounds every HTTP request (Go duration string).
	RequestTimeout string `yaml:"request_timeout" json:"request_timeout"`
	// RequestsPerSecond throttles requests. 0 = unlimited.
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	UserAgent         string  `yaml:"user_agent" json:"user_agent"`
}

// IndexConfig configures the on-disk index.
type IndexConfig struct {
	Path string `yaml:"path" json:"path"`
	// StripMarkup reduces storage-format bodies to plain text before indexing.
	StripMarkup bool `yaml:"strip_markup" json:"strip_markup"`
}

// SearchConfig configures query behaviour.
type SearchConfig struct {
	MaxResults int `yaml:"max_results" json:"max_results"`
	// ExpandStems also matches query stems as prefixes of indexed stems.
	ExpandStems bool `yaml:"expand_stems" json:"expand_stems"`
}

// LoggingConfig configures the default stderr logger.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// NewConfig returns a configuration populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Source: SourceConfig{
			BaseURL:           DefaultBaseURL,
			ViewURL:           DefaultViewURL,
			SpaceLimit:        100,
			PageLimit:         50,
			MaxPagesPerSpace:  0,
			RequestTimeout:    "30s",
			RequestsPerSecond: 0,
			UserAgent:         version.UserAgent(),
		},
		Index: IndexConfig{
			Path:        DefaultIndexPath,
			StripMarkup: true,
		},
		Search: SearchConfig{
			MaxResults:  10,
			ExpandStems: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/wikisearch/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/wikisearch/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wikisearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "wikisearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "wikisearch", "config.yaml")
}

// Load loads configuration for the project in dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/wikisearch/config.yaml)
//  3. Project config (.wikisearch.yaml or .wikisearch.yml in dir)
//  4. Environment variables (WIKISEARCH_*)
func Load(dir string) (*Config, error) {
	return load(func(cfg *Config) error {
		for _, name := range []string{".wikisearch.yaml", ".wikisearch.yml"} {
			path := filepath.Join(dir, name)
			if fileExists(path) {
				return cfg.loadYAML(path)
			}
		}
		return nil
	})
}

// LoadFile is Load with an explicit project config file, as given by --config.
// A missing file is an error.
func LoadFile(path string) (*Config, error) {
	return load(func(cfg *Config) error {
		if !fileExists(path) {
			return apperrors.New(apperrors.ErrCodeConfigNotFound,
				fmt.Sprintf("config file %s does not exist", path), nil).
				WithDetail("path", path)
		}
		return cfg.loadYAML(path)
	})
}

func load(project func(*Config) error) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, err
		}
	}

	if err := project(cfg); err != nil {
		return nil, err
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadYAML overlays the keys present in the file onto c.
// Keys absent from the file keep their current value, so an explicit
// "strip_markup: false" is honoured while an omitted key is not reset.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.ConfigError(fmt.Sprintf("failed to read config file %s", path), err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return apperrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithDetail("path", path)
	}

	return nil
}

// applyEnvOverrides applies WIKISEARCH_* environment variables.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("WIKISEARCH_BASE_URL"); v != "" {
		c.Source.BaseURL = v
	}
	if v := os.Getenv("WIKISEARCH_VIEW_URL"); v != "" {
		c.Source.ViewURL = v
	}
	if v := os.Getenv("WIKISEARCH_INDEX_PATH"); v != "" {
		c.Index.Path = v
	}
	if v := os.Getenv("WIKISEARCH_REQUEST_TIMEOUT"); v != "" {
		c.Source.RequestTimeout = v
	}
	if v := os.Getenv("WIKISEARCH_REQUESTS_PER_SECOND"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return apperrors.ConfigError("WIKISEARCH_REQUESTS_PER_SECOND must be a number", err)
		}
		c.Source.RequestsPerSecond = rps
	}
	if v := os.Getenv("WIKISEARCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("WIKISEARCH_STRIP_MARKUP"); v != "" {
		strip, err := strconv.ParseBool(v)
		if err != nil {
			return apperrors.ConfigError("WIKISEARCH_STRIP_MARKUP must be a boolean", err)
		}
		c.Index.StripMarkup = strip
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if err := validateURL("source.base_url", c.Source.BaseURL); err != nil {
		return err
	}
	if err := validateURL("source.view_url", c.Source.ViewURL); err != nil {
		return err
	}

	if c.Source.SpaceLimit <= 0 {
		return invalid("source.space_limit must be positive, got %d", c.Source.SpaceLimit)
	}
	if c.Source.PageLimit <= 0 {
		return invalid("source.page_limit must be positive, got %d", c.Source.PageLimit)
	}
	if c.Source.MaxPagesPerSpace < 0 {
		return invalid("source.max_pages_per_space must be non-negative, got %d", c.Source.MaxPagesPerSpace)
	}
	if d, err := time.ParseDuration(c.Source.RequestTimeout); err != nil || d <= 0 {
		return invalid("source.request_timeout must be a positive duration, got %q", c.Source.RequestTimeout)
	}
	if c.Source.RequestsPerSecond < 0 {
		return invalid("source.requests_per_second must be non-negative, got %g", c.Source.RequestsPerSecond)
	}

	if strings.TrimSpace(c.Index.Path) == "" {
		return invalid("index.path must not be empty")
	}
	if c.Search.MaxResults <= 0 {
		return invalid("search.max_results must be positive, got %d", c.Search.MaxResults)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return invalid("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// RequestTimeoutDuration returns the parsed request timeout.
// Falls back to 30s for values Validate would reject.
func (c *Config) RequestTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Source.RequestTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// PageURL returns the browsable link for a page id.
func (c *Config) PageURL(pageID string) string {
	return c.Source.ViewURL + pageID
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return invalid("%s must be an absolute http(s) URL, got %q", field, raw)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return apperrors.ConfigError(fmt.Sprintf(format, args...), nil).
		WithSuggestion("Check .wikisearch.yaml and WIKISEARCH_* environment variables")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
