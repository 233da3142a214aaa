// Package config reads the inplace configuration from
// '${INPLACE_HOME}/config.yaml', falling back to '~/.config/inplace'.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the config file inside the home directory.
const FileName = "config.yaml"

// Config is the configuration data as present in a config file.
type Config struct {
	Server Server `yaml:"server"`
	Client Client `yaml:"client"`
	Log    Log    `yaml:"log"`
}

// Server configures the demo backend.
type Server struct {
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
}

// Client configures how updates are sent.
type Client struct {
	BaseURL string `yaml:"base-url,omitempty"`
	// Method is PUT or PATCH.
	Method string `yaml:"method"`
	// Timeout is a duration as understood by time.ParseDuration.
	Timeout string `yaml:"timeout"`
	// History is the sqlite DSN field events are recorded to. Empty keeps
	// them in memory for the life of one command.
	History string `yaml:"history,omitempty"`
}

// Log configures the logger.
type Log struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Server: Server{Port: 8080, Database: "file:inplace.db?_pragma=busy_timeout(5000)"},
		Client: Client{Method: http.MethodPut, Timeout: "10s"},
		Log:    Log{Level: "info"},
	}
}

// Home returns the directory holding the config file.
func Home(getenv func(string) string) string {
	if home := getenv("INPLACE_HOME"); home != "" {
		return strings.TrimRight(home, "/")
	}
	return filepath.Join(getenv("HOME"), ".config", "inplace")
}

// Parse reads yamlData over the defaults. Keys missing from the data keep
// their default values.
func Parse(yamlData []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(yamlData, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Load reads the config file in dir. A missing file yields the defaults.
func Load(dir string) (Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// FromEnv loads the config from the home directory and applies the PORT,
// DATABASE_URL, INPLACE_TIMEOUT and INPLACE_HISTORY overrides.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg, err := Load(Home(getenv))
	if err != nil {
		return Config{}, err
	}
	if p := getenv("PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT %q: %w", p, err)
		}
		cfg.Server.Port = port
	}
	if dsn := getenv("DATABASE_URL"); dsn != "" {
		cfg.Server.Database = dsn
	}
	if t := getenv("INPLACE_TIMEOUT"); t != "" {
		cfg.Client.Timeout = t
	}
	if h := getenv("INPLACE_HISTORY"); h != "" {
		cfg.Client.History = h
	}
	return cfg, cfg.Validate()
}

// Validate checks the values a file or the environment may get wrong.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch strings.ToUpper(c.Client.Method) {
	case http.MethodPut, http.MethodPatch:
	default:
		errs = append(errs, fmt.Errorf("client.method must be PUT or PATCH, got %q", c.Client.Method))
	}
	if _, err := c.Timeout(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Timeout returns the parsed client timeout.
func (c Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Client.Timeout)
	if err != nil {
		return 0, fmt.Errorf("client.timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("client.timeout must be positive, got %s", d)
	}
	return d, nil
}

// Level returns the parsed log level.
func (c Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}
