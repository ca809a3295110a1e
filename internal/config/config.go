// Package config loads the yaml configuration of the client (~/.tada/config.yaml)
// and the backend (todod.yaml). Missing files mean defaults; environment
// variables override both.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
}

type Client struct {
	Server         string        `yaml:"server"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Theme          string        `yaml:"theme"`
	LogFile        string        `yaml:"log_file"` // empty discards client logs
	LogLevel       string        `yaml:"log_level"`
	Refresh        RetryConfig   `yaml:"refresh"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // memory | json | sqlite | badger
	Path   string `yaml:"path"`
}

type User struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	PasswordHash string `yaml:"password_hash"` // bcrypt, see `todod hash-password`
}

type Server struct {
	Addr      string        `yaml:"addr"`
	Store     StoreConfig   `yaml:"store"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	LogLevel  string        `yaml:"log_level"`
	Users     []User        `yaml:"users"`
}

func DefaultClient() Client {
	return Client{
		Server:         "http://localhost:8080",
		RequestTimeout: 10 * time.Second,
		Theme:          "classic",
		LogLevel:       "info",
		Refresh: RetryConfig{
			MaxAttempts:     4,
			InitialInterval: 250 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
	}
}

func DefaultServer() Server {
	return Server{
		Addr:     "localhost:8080",
		Store:    StoreConfig{Driver: "memory"},
		TokenTTL: 72 * time.Hour,
		LogLevel: "info",
	}
}

// DefaultClientPath is ~/.tada/config.yaml.
func DefaultClientPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".tada", "config.yaml"), nil
}

// LoadClient reads path, or the default path when empty.
func LoadClient(path string) (Client, error) {
	cfg := DefaultClient()
	if path == "" {
		p, err := DefaultClientPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	if err := readYAML(path, &cfg); err != nil {
		return cfg, err
	}
	if v := os.Getenv("TADA_SERVER"); v != "" {
		cfg.Server = v
	}
	if v := os.Getenv("TADA_LOG"); v != "" {
		cfg.LogFile = v
	}
	cfg.Server = strings.TrimRight(cfg.Server, "/")
	return cfg, nil
}

// LoadServer reads path; an empty path means defaults plus environment.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()
	if path != "" {
		if err := readYAML(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if v := os.Getenv("TODOD_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("TODOD_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("TODOD_STORE"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("TODOD_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	return cfg, cfg.Validate()
}

func (s Server) Validate() error {
	var errs []error
	if len(s.JWTSecret) < 16 {
		errs = append(errs, errors.New("jwt_secret must be at least 16 characters"))
	}
	if s.TokenTTL <= 0 {
		errs = append(errs, errors.New("token_ttl must be positive"))
	}
	switch s.Store.Driver {
	case "memory", "json", "sqlite", "badger":
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", s.Store.Driver))
	}
	seen := map[string]bool{}
	for i, u := range s.Users {
		if u.ID == "" || u.Name == "" || u.PasswordHash == "" {
			errs = append(errs, fmt.Errorf("users[%d]: id, name and password_hash are required", i))
		}
		if seen[u.Name] {
			errs = append(errs, fmt.Errorf("users[%d]: duplicate name %q", i, u.Name))
		}
		seen[u.Name] = true
	}
	return errors.Join(errs...)
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read the config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
