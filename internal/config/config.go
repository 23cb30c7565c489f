// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the pieces configuration file: logging, the trigger
// server, trigger state storage, piece connections, and trigger instances.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

// Config is the root configuration.
type Config struct {
	Log      LogConfig              `yaml:"log"`
	Server   ServerConfig           `yaml:"server"`
	State    StateConfig            `yaml:"state"`
	Pieces   map[string]PieceConfig `yaml:"pieces"`
	Triggers []TriggerConfig        `yaml:"triggers"`
}

// LogConfig configures logging. Environment variables take precedence.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
}

// ServerConfig configures the trigger server started by `pieces serve`.
type ServerConfig struct {
	// Listen is the HTTP listen address (default: :8080)
	Listen string `yaml:"listen"`

	// PublicURL is the externally reachable base URL used to build webhook
	// callback URLs (e.g., https://hooks.example.com)
	PublicURL string `yaml:"public_url"`

	// ShutdownTimeout bounds graceful shutdown (default: 15s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Metrics exposes /metrics when true
	Metrics bool `yaml:"metrics"`
}

// StateConfig configures trigger state storage.
type StateConfig struct {
	// Backend is sqlite (default), redis, or memory
	Backend string `yaml:"backend"`

	// Path is the SQLite key-value store file
	Path string `yaml:"path"`

	// PollPath is the SQLite file holding polling watermarks
	PollPath string `yaml:"poll_path"`

	// RedisURL is a redis:// connection URL
	RedisURL string `yaml:"redis_url"`

	// Prefix is prepended to every Redis key
	Prefix string `yaml:"prefix"`
}

// PieceConfig is one piece connection.
type PieceConfig struct {
	Auth AuthConfig `yaml:"auth"`

	// BaseURL overrides the vendor API base URL
	BaseURL string `yaml:"base_url"`

	// Timeout bounds each request (default: 30s)
	Timeout time.Duration `yaml:"timeout"`

	// RateLimit caps request rate as <count>/<unit> (e.g., 10/second)
	RateLimit string `yaml:"rate_limit"`

	// Extra holds non-secret settings (e.g., ariba realm)
	Extra map[string]string `yaml:"extra"`
}

// AuthConfig is the credential of a piece connection. Secret fields accept
// ${VAR} references and keyring:<account> values.
type AuthConfig struct {
	// Type overrides the piece's default auth type
	Type string `yaml:"type"`

	Token    string `yaml:"token"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Key is the api key for api_key and api_key_query auth
	Key        string `yaml:"key"`
	Header     string `yaml:"header"`
	QueryParam string `yaml:"query_param"`

	Flow         string   `yaml:"flow"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	TokenURL     string   `yaml:"token_url"`
	AccessToken  string   `yaml:"access_token"`
	RefreshToken string   `yaml:"refresh_token"`
	Scopes       []string `yaml:"scopes"`
}

// IsZero reports whether no credential is configured.
func (a AuthConfig) IsZero() bool {
	return a.Type == "" && a.Token == "" && a.Username == "" && a.Password == "" &&
		a.Key == "" && a.ClientID == "" && a.AccessToken == "" && a.RefreshToken == ""
}

// TriggerConfig is one enabled trigger instance.
type TriggerConfig struct {
	// ID uniquely identifies the instance; it keys state and the webhook route
	ID string `yaml:"id"`

	Piece   string `yaml:"piece"`
	Trigger string `yaml:"trigger"`

	Inputs map[string]interface{} `yaml:"inputs"`

	// Schedule is a cron spec for polling triggers (default: @every 5m)
	Schedule string `yaml:"schedule"`

	// Filter is an expression evaluated against each event
	Filter string `yaml:"filter"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration at path. An empty path uses the default
// location, which may be absent. .env files in the working directory and
// next to the config file are loaded into the environment first; variables
// already set are not overridden.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = ConfigPath(); err != nil {
			return nil, &pieceserrors.ConfigError{Key: "config_file", Reason: "cannot locate config directory", Cause: err}
		}
	}
	path = expandHome(path)

	loadDotEnv(".env", filepath.Join(filepath.Dir(path), ".env"))

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.parse(data); err != nil {
			return nil, &pieceserrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", path),
				Cause:  err,
			}
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, &pieceserrors.ConfigError{
			Key:    "config_file",
			Reason: fmt.Sprintf("failed to read %s", path),
			Cause:  err,
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes configuration from YAML bytes, expanding ${VAR} references
// and applying defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := cfg.parse(data); err != nil {
		return nil, &pieceserrors.ConfigError{Key: "config_file", Reason: "invalid configuration", Cause: err}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) parse(data []byte) error {
	expanded, err := ExpandEnv(data)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnv replaces ${VAR} references with environment values. Unset
// variables are an error listing every missing name.
func ExpandEnv(data []byte) ([]byte, error) {
	var missing []string
	out := envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		name := string(envRef.FindSubmatch(m)[1])
		v, ok := os.LookupEnv(name)
		if !ok {
			missing = append(missing, name)
		}
		return []byte(v)
	})
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("undefined environment variables: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.State.Backend == "" {
		c.State.Backend = "sqlite"
	}
	if c.State.Path == "" {
		c.State.Path = filepath.Join(DataDir(), "state.db")
	}
	if c.State.PollPath == "" {
		c.State.PollPath = filepath.Join(DataDir(), "poll-state.db")
	}
	if c.State.Prefix == "" {
		c.State.Prefix = "pieces:"
	}
	if c.Pieces == nil {
		c.Pieces = make(map[string]PieceConfig)
	}
	for name, pc := range c.Pieces {
		if pc.Timeout == 0 {
			pc.Timeout = 30 * time.Second
			c.Pieces[name] = pc
		}
	}
}

// Validate checks the configuration for structural errors.
func (c *Config) Validate() error {
	switch c.State.Backend {
	case "sqlite", "memory":
	case "redis":
		if c.State.RedisURL == "" {
			return &pieceserrors.ConfigError{Key: "state.redis_url", Reason: "required when state.backend is redis"}
		}
	default:
		return &pieceserrors.ConfigError{
			Key:    "state.backend",
			Reason: fmt.Sprintf("unknown backend %q (must be sqlite, redis, or memory)", c.State.Backend),
		}
	}

	for _, name := range c.PieceNames() {
		pc := c.Pieces[name]
		if pc.RateLimit != "" {
			if _, err := ParseRateLimit(pc.RateLimit); err != nil {
				return &pieceserrors.ConfigError{Key: "pieces." + name + ".rate_limit", Reason: err.Error()}
			}
		}
		if pc.Timeout < 0 {
			return &pieceserrors.ConfigError{Key: "pieces." + name + ".timeout", Reason: "must be non-negative"}
		}
	}

	seen := make(map[string]bool)
	for i, t := range c.Triggers {
		key := fmt.Sprintf("triggers[%d]", i)
		if t.ID == "" {
			return &pieceserrors.ConfigError{Key: key + ".id", Reason: "trigger id is required"}
		}
		if seen[t.ID] {
			return &pieceserrors.ConfigError{Key: key + ".id", Reason: fmt.Sprintf("duplicate trigger id %q", t.ID)}
		}
		seen[t.ID] = true
		if t.Piece == "" || t.Trigger == "" {
			return &pieceserrors.ConfigError{Key: key, Reason: "piece and trigger are required"}
		}
	}
	return nil
}

// PieceNames returns the configured piece names in sorted order.
func (c *Config) PieceNames() []string {
	names := make([]string, 0, len(c.Pieces))
	for name := range c.Pieces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Trigger returns the trigger instance with the given id.
func (c *Config) Trigger(id string) (TriggerConfig, error) {
	for _, t := range c.Triggers {
		if t.ID == id {
			return t, nil
		}
	}
	return TriggerConfig{}, &pieceserrors.NotFoundError{Resource: "trigger", ID: id}
}

// ParseRateLimit converts "<count>/<unit>" into requests per second.
func ParseRateLimit(rateLimit string) (float64, error) {
	count, unit, ok := strings.Cut(rateLimit, "/")
	if !ok {
		return 0, fmt.Errorf("invalid rate_limit format %q, expected <count>/<unit> (e.g., 10/second, 100/minute)", rateLimit)
	}

	n, err := strconv.Atoi(count)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid rate_limit count %q, must be a positive integer", count)
	}

	per := map[string]time.Duration{
		"second": time.Second,
		"minute": time.Minute,
		"hour":   time.Hour,
		"day":    24 * time.Hour,
	}[unit]
	if per == 0 {
		return 0, fmt.Errorf("invalid rate_limit unit %q, must be one of: second, minute, hour, day", unit)
	}
	return float64(n) / per.Seconds(), nil
}
