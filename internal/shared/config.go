package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
)

const appName = "dzx"

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Engine      EngineConfig      `toml:"engine"`
	Source      SourceConfig      `toml:"source"`
	Destination DestinationConfig `toml:"destination"`
	Database    DatabaseConfig    `toml:"database"`
	Log         LogConfig         `toml:"log"`
}

// EngineConfig holds the reconciliation knobs passed explicitly to the planner and executor.
type EngineConfig struct {
	MinConfidence int  `toml:"min_confidence"`
	Commit        bool `toml:"commit"`
	PageSize      int  `toml:"page_size"`
	Workers       int  `toml:"workers"`

	// Directory receiving one <plan id>.ids file per imported playlist. Empty disables it.
	IDsDir string `toml:"ids_dir"`
}

// SourceConfig contains source catalog settings.
type SourceConfig struct {
	Deezer DeezerConfig `toml:"deezer"`
}

// DeezerConfig contains Deezer public API settings.
type DeezerConfig struct {
	BaseURL   string  `toml:"base_url"`
	UserID    string  `toml:"user_id"`
	RateLimit float64 `toml:"rate_limit"` // Requests per second
}

// DestinationConfig selects and configures the destination catalog.
type DestinationConfig struct {
	Service string        `toml:"service"` // spotify or youtube
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// SpotifyConfig contains Spotify API credentials.
//
// Tokens come from `dzx setup spotify` or are pasted in. The client refreshes them afterwards.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	RedirectURL  string    `toml:"redirect_url"`
	AccessToken  string    `toml:"access_token"`
	RefreshToken string    `toml:"refresh_token"`
	TokenExpiry  time.Time `toml:"token_expiry,omitempty"`
	RateLimit    float64   `toml:"rate_limit"`
}

// Map returns the credentials in the shape accepted by the catalog constructors.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_url":  s.RedirectURL,
		"access_token":  s.AccessToken,
		"refresh_token": s.RefreshToken,
	}
}

// Token returns the stored token, or nil when none has been saved.
func (s SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" && s.RefreshToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		Expiry:       s.TokenExpiry,
		TokenType:    "Bearer",
	}
}

// Update stores a refreshed token.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: nil token", ErrInvalidArgument)
	}
	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	s.TokenExpiry = token.Expiry
	return nil
}

// YouTubeConfig contains YouTube Music proxy settings.
type YouTubeConfig struct {
	ProxyURL  string  `toml:"proxy_url"`
	AuthFile  string  `toml:"auth_file"`
	RateLimit float64 `toml:"rate_limit"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"` // Optional audit file; progress lines are appended here too
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyDefaults()
	return &config
}

// DefaultConfigPath returns the XDG config location for dzx.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

// DefaultDatabasePath returns the XDG data location of the plan database.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.DataHome, appName, "dzx.db")
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath()
	}
	if c.Engine.PageSize <= 0 {
		c.Engine.PageSize = 50
	}
	if c.Engine.Workers <= 0 {
		c.Engine.Workers = 1
	}
	if c.Destination.Service == "" {
		c.Destination.Service = "spotify"
	}
}

// Validate checks value ranges that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Engine.MinConfidence < 0 || c.Engine.MinConfidence > 100 {
		return fmt.Errorf("%w: min_confidence must be within 0..100, got %d", ErrInvalidConfig, c.Engine.MinConfidence)
	}
	switch c.Destination.Service {
	case "spotify", "youtube":
	default:
		return fmt.Errorf("%w: unknown destination service %q", ErrInvalidConfig, c.Destination.Service)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path, replacing the previous file.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
