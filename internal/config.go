package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/comicshelf/internal/ingest"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Library  LibraryConfig     `yaml:"library"`
	Ingest   IngestConfig      `yaml:"ingest"`
	Resolver ResolverConfig    `yaml:"resolver"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Library.Validate(); err != nil {
		return err
	}
	if err := c.Ingest.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// LibraryConfig holds the directories the library works in: ScanDir is
// where the scanner drops files, StoreDir is where finished zips go.
type LibraryConfig struct {
	ScanDir         string `yaml:"scan_dir"`
	StoreDir        string `yaml:"store_dir"`
	CacheDB         string `yaml:"cache_db"` // empty disables the ISBN lookup cache
	SaveIntervalSec int    `yaml:"save_interval_sec"`
}

// SaveInterval returns the snapshot persistence interval.
func (c *LibraryConfig) SaveInterval() time.Duration {
	return time.Duration(c.SaveIntervalSec) * time.Second
}

// Validate validates the library configuration.
func (c *LibraryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ScanDir, validation.Required),
		validation.Field(&c.StoreDir, validation.Required),
		validation.Field(&c.SaveIntervalSec, validation.Min(1)),
	)
}

// IngestConfig selects and tunes the filesystem ingestion strategy.
type IngestConfig struct {
	Mode            string `yaml:"mode"` // "push" or "poll"
	DebounceMS      int    `yaml:"debounce_ms"`
	PollIntervalSec int    `yaml:"poll_interval_sec"`
}

// Pipeline returns the ingest pipeline configuration.
func (c *IngestConfig) Pipeline() ingest.Config {
	return ingest.Config{
		Mode:         ingest.Mode(c.Mode),
		Debounce:     time.Duration(c.DebounceMS) * time.Millisecond,
		PollInterval: time.Duration(c.PollIntervalSec) * time.Second,
	}
}

// Validate validates the ingest configuration.
func (c *IngestConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.In(string(ingest.ModePush), string(ingest.ModePoll))),
		validation.Field(&c.DebounceMS, validation.Min(0)),
		validation.Field(&c.PollIntervalSec, validation.Min(0)),
	)
}

// ResolverConfig holds the OCR binary and bibliographic source endpoints.
// Empty fields fall back to the resolver's built-in defaults.
type ResolverConfig struct {
	TesseractPath      string `yaml:"tesseract_path"`
	AmazonSearchURL    string `yaml:"amazon_search_url"`
	YodobashiSearchURL string `yaml:"yodobashi_search_url"`
	GoogleBooksURL     string `yaml:"google_books_url"`
	TimeoutSec         int    `yaml:"timeout_sec"`
}

// Timeout returns the per-request resolver timeout.
func (c *ResolverConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Library: LibraryConfig{
			ScanDir:         "./scans",
			StoreDir:        "./store",
			CacheDB:         "./comicshelf.db",
			SaveIntervalSec: 30,
		},
		Ingest: IngestConfig{
			Mode:            string(ingest.ModePush),
			DebounceMS:      200,
			PollIntervalSec: 5,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
