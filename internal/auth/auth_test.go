package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, name string, exp time.Time) string {
	t.Helper()
	c := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-" + name,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvToken, "")
	return home
}

func TestTokenFileRoundTrip(t *testing.T) {
	home := isolateHome(t)
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signed(t, "alice", exp)

	require.NoError(t, Save("Bearer "+token, nil))

	info, err := os.Stat(filepath.Join(home, ".tada", credFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	ti, err := Load()
	require.NoError(t, err)
	require.NotNil(t, ti)
	assert.Equal(t, token, ti.Token)
	assert.Equal(t, SourceFile, ti.Source)
	require.NotNil(t, ti.ExpiresAt)
	assert.True(t, exp.Equal(*ti.ExpiresAt))

	require.NoError(t, Forget())
	ti, err = Load()
	require.NoError(t, err)
	assert.Nil(t, ti)
	assert.NoError(t, Forget(), "deleting twice is fine")
}

func TestSaveRejectsEmpty(t *testing.T) {
	isolateHome(t)
	assert.Error(t, Save("  ", nil))
}

func TestSaveReplacesAtomically(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".tada")
	require.NoError(t, Save("first", nil))
	require.NoError(t, os.Chmod(filepath.Join(dir, credFileName), 0o644))

	require.NoError(t, Save("BEARER second", nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
	assert.Equal(t, credFileName, entries[0].Name())

	info, err := os.Stat(filepath.Join(dir, credFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "second", c.Token)
	assert.Nil(t, c.ExpiresAt, "opaque tokens carry no expiry")
}

func TestLoadIgnoresBlankFile(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".tada")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, credFileName), []byte(`{"token":""}`), 0o600))

	c, err := Load()
	require.NoError(t, err)
	assert.Nil(t, c)

	require.NoError(t, os.WriteFile(filepath.Join(dir, credFileName), []byte("{"), 0o600))
	_, err = Load()
	assert.Error(t, err)
}

func TestTrimScheme(t *testing.T) {
	assert.Equal(t, "abc", trimScheme("Bearer abc"))
	assert.Equal(t, "abc", trimScheme("bEaReR   abc"))
	assert.Equal(t, "Bearerabc", trimScheme("Bearerabc"))
	assert.Equal(t, "bear", trimScheme("bear"))
}

func TestEnvOverridesFile(t *testing.T) {
	isolateHome(t)
	require.NoError(t, Save(signed(t, "alice", time.Now().Add(time.Hour)), nil))
	t.Setenv(EnvToken, "bearer from-env")

	ti, err := Load()
	require.NoError(t, err)
	assert.Equal(t, SourceEnv, ti.Source)
	assert.Equal(t, "from-env", ti.Token)
}

func TestCurrentSession(t *testing.T) {
	isolateHome(t)
	now := time.Now()

	assert.False(t, CurrentSession(now).Authenticated)

	require.NoError(t, Save(signed(t, "alice", now.Add(time.Hour)), nil))
	s := CurrentSession(now)
	assert.True(t, s.Authenticated)
	assert.Equal(t, "alice", s.Display())
	assert.Equal(t, "u-alice", s.UserID)

	assert.False(t, CurrentSession(now.Add(2*time.Hour)).Authenticated, "expired")
}

func TestCurrentSessionOpaqueToken(t *testing.T) {
	isolateHome(t)
	t.Setenv(EnvToken, "not-a-jwt")
	assert.False(t, CurrentSession(time.Now()).Authenticated)
}
