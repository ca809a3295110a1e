package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const credFileName = "credentials.json"

// EnvToken overrides the credentials file when set.
const EnvToken = "TADA_TOKEN"

// Source says where a token was found.
type Source string

const (
	SourceEnv  Source = "env"
	SourceFile Source = "file"
)

// Credentials is the saved token plus what is known about it.
type Credentials struct {
	Token     string     `json:"token"`
	Source    Source     `json:"-"`
	SavedAt   time.Time  `json:"saved_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Dir is where the client keeps its state (~/.tada).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".tada"), nil
}

func credPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, credFileName), nil
}

// Load returns nil, nil when nobody is logged in. EnvToken wins over the file.
func Load() (*Credentials, error) {
	if env := strings.TrimSpace(os.Getenv(EnvToken)); env != "" {
		return &Credentials{Token: trimScheme(env), Source: SourceEnv}, nil
	}

	p, err := credPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", p, err)
	}
	c.Token = trimScheme(c.Token)
	c.Source = SourceFile
	if c.Token == "" {
		return nil, nil
	}
	return &c, nil
}

// Save writes the token to the credentials file. A nil expires is filled
// from the token's exp claim when it has one.
func Save(token string, expires *time.Time) error {
	token = trimScheme(strings.TrimSpace(token))
	if token == "" {
		return errors.New("empty token")
	}
	if expires == nil {
		if s, err := ParseSession(token); err == nil && !s.ExpiresAt.IsZero() {
			expires = &s.ExpiresAt
		}
	}
	b, err := json.MarshalIndent(Credentials{
		Token:     token,
		SavedAt:   time.Now().UTC(),
		ExpiresAt: expires,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	p, err := credPath()
	if err != nil {
		return err
	}
	return writePrivate(p, b)
}

// writePrivate replaces path with an owner-only file. Readers see the old
// contents or the new ones, never a partial write.
func writePrivate(path string, b []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := f.Chmod(0o600); err != nil {
		f.Close()
		return fmt.Errorf("write credentials: %w", err)
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Forget removes the credentials file. It is not an error if there is none.
func Forget() error {
	p, err := credPath()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// trimScheme drops a leading "Bearer " in any case.
func trimScheme(s string) string {
	const scheme = "bearer "
	if len(s) >= len(scheme) && strings.EqualFold(s[:len(scheme)], scheme) {
		return strings.TrimSpace(s[len(scheme):])
	}
	return s
}
