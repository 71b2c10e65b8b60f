package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that take precedence over the YAML file.
const (
	EnvConfig   = "EVENTCAL_CONFIG"
	EnvDataFile = "EVENTCAL_DATA_FILE"
	EnvListen   = "EVENTCAL_LISTEN"
	EnvLogLevel = "EVENTCAL_LOG_LEVEL"
)

const (
	DefaultPath     = "./config.yaml"
	DefaultDataFile = "events_data.json"

	BackendJSON = "json"
	BackendBolt = "bolt"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address of the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone dates and clock times are read in
	// (e.g. "America/New_York").
	Timezone string `yaml:"timezone" json:"timezone"`

	// DataFile is the backing file of the event store.
	DataFile string `yaml:"data_file" json:"data_file"`

	// Backend selects the store implementation:
	//   - "json" (default): a plain JSON array
	//   - "bolt": a bbolt database holding the same array
	Backend string `yaml:"backend" json:"backend"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// BackupCron is a cron-style schedule string (e.g. "0 3 * * *") for CSV
	// snapshots taken while serving. Empty disables backups.
	BackupCron string `yaml:"backup_cron" json:"backup_cron"`

	// BackupDir receives the snapshots.
	BackupDir string `yaml:"backup_dir" json:"backup_dir"`

	// BackupKeep is how many snapshots are retained.
	BackupKeep int `yaml:"backup_keep" json:"backup_keep"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:     "127.0.0.1:8080",
		Timezone:   "Local",
		DataFile:   DefaultDataFile,
		Backend:    BackendJSON,
		LogLevel:   "info",
		BackupCron: "",
		BackupDir:  "backups",
		BackupKeep: 14,
		BasicAuth:  nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.DataFile == "" {
		c.DataFile = def.DataFile
	}
	switch strings.ToLower(c.Backend) {
	case BackendJSON, BackendBolt:
		c.Backend = strings.ToLower(c.Backend)
	default:
		// Unknown value; fall back to the plain file.
		c.Backend = BackendJSON
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.BackupDir == "" {
		c.BackupDir = def.BackupDir
	}
	if c.BackupKeep <= 0 {
		c.BackupKeep = def.BackupKeep
	}
	if c.BasicAuth != nil && c.BasicAuth.Username == "" && c.BasicAuth.Password == "" {
		c.BasicAuth = nil
	}
}

// Location resolves Timezone. "Local" and unknown zones yield time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// LoadEnv reads a .env file from the working directory, if any. Variables
// already set in the environment win.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// ResolvePath picks the config file: an explicit flag value, then
// EVENTCAL_CONFIG, then DefaultPath.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return DefaultPath
}

// ApplyEnv overrides file values with the EVENTCAL_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvDataFile); v != "" {
		c.DataFile = v
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.Listen = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
//
// Environment overrides are applied in both cases but never written back.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			saveErr := Save(path, cfg)
			cfg.ApplyEnv()
			// Even if save fails, return cfg with error so caller can decide.
			return cfg, saveErr
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ApplyEnv()
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".eventcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
