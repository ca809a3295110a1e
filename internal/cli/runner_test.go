package cli

import (
	"bytes"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/controller"
	"github.com/Makepad-fr/tada/internal/server"
	"github.com/Makepad-fr/tada/internal/store/memstore"
)

func init() { gin.SetMode(gin.TestMode) }

type result struct {
	code     int
	out, err string
}

type harness struct {
	t    *testing.T
	home string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	srv := server.New(server.Options{
		Store:    memstore.New(),
		Users:    []config.User{{ID: "u-alice", Name: "alice", PasswordHash: string(hash)}},
		Secret:   []byte("0123456789abcdef0123"),
		TokenTTL: time.Hour,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(auth.EnvToken, "")
	t.Setenv("TADA_SERVER", ts.URL)
	t.Setenv("TADA_LOG", "")
	return &harness{t: t, home: home}
}

func (h *harness) run(stdin string, args ...string) result {
	h.t.Helper()
	var out, errOut bytes.Buffer
	code := Run(args, Options{In: strings.NewReader(stdin), Out: &out, Err: &errOut})
	return result{code: code, out: out.String(), err: errOut.String()}
}

func (h *harness) login() {
	h.t.Helper()
	r := h.run("secret\n", "auth", "login", "-u", "alice")
	require.Equal(h.t, 0, r.code, r.err)
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 2, h.run("").code)
	r := h.run("", "bogus")
	assert.Equal(t, 2, r.code)
	assert.Contains(t, r.err, "unknown subcommand: bogus")
	assert.Equal(t, 2, h.run("", "add").code)
	assert.Equal(t, 2, h.run("", "done").code)
	assert.Equal(t, 2, h.run("", "ls", "--nope").code)
	assert.Equal(t, 0, h.run("", "--help").code)
}

func TestCommandsRequireLogin(t *testing.T) {
	h := newHarness(t)
	for _, args := range [][]string{{"ls", "--plain"}, {"add", "milk"}, {"done", "1"}, {"clear"}} {
		r := h.run("", args...)
		assert.Equal(t, 2, r.code, args)
		assert.Contains(t, r.err, "not logged in", args)
	}
	r := h.run("", "auth", "status")
	assert.Equal(t, 0, r.code)
	assert.Contains(t, r.out, "not logged in")
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)

	r := h.run("wrong\n", "auth", "login", "-u", "alice")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.err, "bad credentials")

	r = h.run("alice\nsecret\n", "auth", "login")
	require.Equal(t, 0, r.code, r.err)
	assert.Contains(t, r.out, "logged in as alice")
	_, err := os.Stat(filepath.Join(h.home, ".tada", "credentials.json"))
	require.NoError(t, err)

	r = h.run("", "auth", "whoami")
	assert.Equal(t, 0, r.code)
	assert.Contains(t, r.out, "alice")
	assert.Contains(t, r.out, "id: u-alice")

	r = h.run("", "auth", "status")
	assert.Contains(t, r.out, "source: file")
	assert.Contains(t, r.out, "expires: ")

	assert.Equal(t, 0, h.run("", "auth", "logout").code)
	assert.Equal(t, 2, h.run("", "auth", "whoami").code)
}

func TestTodoLifecycle(t *testing.T) {
	h := newHarness(t)
	h.login()

	r := h.run("", "ls")
	require.Equal(t, 0, r.code, r.err)
	assert.Contains(t, r.out, "You're all done!")

	r = h.run("", "add", "Buy", "milk")
	require.Equal(t, 0, r.code, r.err)
	assert.Contains(t, r.out, "added")
	require.Equal(t, 0, h.run("", "add", "Walk dog").code)

	r = h.run("", "add", "   ")
	assert.Equal(t, 2, r.code)
	assert.Contains(t, r.err, controller.ValidationMessage)

	r = h.run("", "ls", "--plain")
	require.Equal(t, 0, r.code)
	assert.Contains(t, r.out, " 1. ☐ Buy milk")
	assert.Contains(t, r.out, " 2. ☐ Walk dog")

	r = h.run("", "done", "1")
	require.Equal(t, 0, r.code, r.err)
	assert.Contains(t, r.out, "done: Buy milk")

	r = h.run("", "ls", "--plain", "--group")
	assert.Contains(t, r.out, "Pending")
	assert.Contains(t, r.out, " 1. ☑ Buy milk")

	r = h.run("", "done", "9")
	assert.Equal(t, 2, r.code)
	assert.Contains(t, r.err, "index out of range")

	r = h.run("", "done", "no-such-id")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.err, "no todo with id no-such-id")

	r = h.run("", "clear")
	require.Equal(t, 0, r.code, r.err)
	assert.Contains(t, r.out, "removed 1")

	r = h.run("", "ls", "--plain")
	assert.NotContains(t, r.out, "Buy milk")
	assert.Contains(t, r.out, " 1. ☐ Walk dog")
}

func TestEnvTokenOverridesFile(t *testing.T) {
	h := newHarness(t)
	h.login()
	ti, err := auth.Load()
	require.NoError(t, err)

	t.Setenv(auth.EnvToken, "Bearer "+ti.Token)
	r := h.run("", "auth", "logout")
	assert.Equal(t, 0, r.code)
	assert.Contains(t, r.out, "nothing to delete")
	assert.Equal(t, 0, h.run("", "ls", "--plain").code)
}

func TestLogFileFromConfig(t *testing.T) {
	h := newHarness(t)
	logPath := filepath.Join(h.home, "tada.log")
	cfgPath := filepath.Join(h.home, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log_file: "+logPath+"\nlog_level: debug\n"), 0o600))

	r := h.run("secret\n", "--config", cfgPath, "auth", "login", "-u", "alice")
	require.Equal(t, 0, r.code, r.err)

	b, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "logged in")
}
