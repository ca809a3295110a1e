package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/cache"
	"github.com/Makepad-fr/tada/internal/client"
	"github.com/Makepad-fr/tada/internal/controller"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/mutation"
)

type surface struct{ err string }

func (s *surface) ClearInput()          {}
func (s *surface) ShowError(msg string) { s.err = msg }
func (s *surface) CloseConfirm()        {}

func newClientController(t *testing.T, baseURL, token string) (*controller.Controller, *surface) {
	t.Helper()
	c := client.New(baseURL, client.Options{Token: token, Logger: quietLogger()})
	ch := cache.New(c.GetAll, cache.Options{Logger: quietLogger()})
	ctl := controller.New(c, ch, mutation.New(), controller.Options{Logger: quietLogger()})
	s := &surface{}
	ctl.SetSurface(s)
	return ctl, s
}

func texts(ctl *controller.Controller) []string {
	snap, _ := ctl.Cache().Read()
	out := make([]string, len(snap))
	for i, t := range snap {
		out[i] = t.Text
	}
	return out
}

func TestControllerAgainstBackend(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	login := client.New(srv.URL, client.Options{Logger: quietLogger()})
	resp, err := login.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	ctl, surf := newClientController(t, srv.URL, resp.Token)
	ctl.Drain(ctl.Start(true))
	_, loaded := ctl.Cache().Read()
	require.True(t, loaded)

	ctl.Drain(ctl.Create("buy milk"), ctl.Create("walk dog"))
	assert.Equal(t, []string{"buy milk", "walk dog"}, texts(ctl))
	snap, _ := ctl.Cache().Read()
	for _, todo := range snap {
		assert.Equal(t, "u-alice", todo.OwnerID)
		assert.Equal(t, model.Confirmed, todo.State)
	}

	ctl.Drain(ctl.Create("   "))
	assert.Equal(t, controller.ValidationMessage, surf.err)
	assert.Len(t, texts(ctl), 2)

	surf.err = ""
	ctl.Drain(ctl.Create(strings.Repeat("x", 501)))
	assert.Empty(t, surf.err)
	require.Len(t, texts(ctl), 3)
	snap, _ = ctl.Cache().Read()
	ctl.Drain(ctl.Toggle(snap[2].ID))
	ctl.Drain(ctl.DeleteCompleted())
	require.Len(t, texts(ctl), 2)
	snap, _ = ctl.Cache().Read()

	ctl.Drain(ctl.Toggle(snap[0].ID))
	snap, _ = ctl.Cache().Read()
	assert.True(t, snap[0].Completed)

	ctl.Drain(ctl.DeleteCompleted())
	assert.Equal(t, []string{"walk dog"}, texts(ctl))

	// bob cannot toggle alice's todo; the refresh heals bob's view
	bobTok := tokenFor(t, s, bob)
	bobCtl, _ := newClientController(t, srv.URL, bobTok)
	bobCtl.Drain(bobCtl.Start(true))
	bobCtl.Drain(bobCtl.Toggle(snap[1].ID))
	assert.Empty(t, texts(bobCtl))
}
