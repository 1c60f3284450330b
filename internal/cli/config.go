package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/orgtree/pkg/layout"
)

// configFileName is the TOML config file searched for in the working
// directory and the XDG config directory.
const configFileName = "orgtree.toml"

// Config is the on-disk CLI configuration. Every field has a working
// default, so an absent config file is fine.
type Config struct {
	Layout   LayoutConfig   `toml:"layout"`
	Server   ServerConfig   `toml:"server"`
	Cache    CacheConfig    `toml:"cache"`
	Analysis AnalysisConfig `toml:"analysis"`
}

// LayoutConfig overrides the layout spacing constants.
type LayoutConfig struct {
	HSpacing  float64 `toml:"h_spacing"`
	VSpacing  float64 `toml:"v_spacing"`
	TopMargin float64 `toml:"top_margin"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// CacheConfig selects and configures the artifact cache backend.
type CacheConfig struct {
	Backend       string `toml:"backend"` // file (default), redis, none
	Dir           string `toml:"dir"`     // file backend directory, XDG default when empty
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// AnalysisConfig configures the external text-generation service. The
// API key can also come from the ORGTREE_API_KEY environment variable,
// which takes precedence over the file.
type AnalysisConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Cache:  CacheConfig{Backend: "file"},
	}
}

// LoadConfig reads the TOML config. An explicit path must exist; with an
// empty path the file is searched in the working directory and then the
// XDG config directory, and absence falls back to defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = findConfig()
		if path == "" {
			applyEnv(&cfg)
			return cfg, nil
		}
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

func findConfig() string {
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	path := filepath.Join(dir, appName, configFileName)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func applyEnv(cfg *Config) {
	if key := os.Getenv("ORGTREE_API_KEY"); key != "" {
		cfg.Analysis.APIKey = key
	}
}

// LayoutSettings converts the config section to a layout configuration,
// leaving zero fields to be filled by the layout package defaults.
func (c Config) LayoutSettings() layout.Config {
	return layout.Config{
		HSpacing:  c.Layout.HSpacing,
		VSpacing:  c.Layout.VSpacing,
		TopMargin: c.Layout.TopMargin,
	}
}
