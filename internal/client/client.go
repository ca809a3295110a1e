// Package client talks to the todod backend over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/model"
)

type Options struct {
	Token      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client implements controller.Remote. Non-2xx replies are mapped onto the
// model error sentinels; anything that never got a reply wraps
// model.ErrTransport together with the underlying error.
type Client struct {
	base  string
	token string
	hc    *http.Client
	log   *slog.Logger
}

func New(baseURL string, opt Options) *Client {
	hc := opt.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		base:  strings.TrimRight(baseURL, "/"),
		token: opt.Token,
		hc:    hc,
		log:   log,
	}
}

func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) GetAll(ctx context.Context) ([]model.Todo, error) {
	var out []model.Todo
	if err := c.do(ctx, http.MethodGet, api.PathTodos, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, text string) (model.Todo, error) {
	var out model.Todo
	err := c.do(ctx, http.MethodPost, api.PathTodos, api.CreateTodoRequest{Text: text}, &out)
	return out, err
}

func (c *Client) Toggle(ctx context.Context, id string) (model.Todo, error) {
	var out model.Todo
	err := c.do(ctx, http.MethodPost, api.TogglePath(url.PathEscape(id)), nil, &out)
	return out, err
}

func (c *Client) DeleteCompleted(ctx context.Context) ([]model.Todo, error) {
	var out []model.Todo
	if err := c.do(ctx, http.MethodDelete, api.PathCompleted, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Login exchanges a username and password for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (api.LoginResponse, error) {
	var out api.LoginResponse
	err := c.do(ctx, http.MethodPost, api.PathLogin, api.LoginRequest{Username: username, Password: password}, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", path, "err", err)
		return fmt.Errorf("%w: %w", model.ErrTransport, err)
	}
	defer resp.Body.Close()
	c.log.Debug("request", "method", method, "path", path, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %w", model.ErrTransport, method, path, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	var base error
	switch resp.StatusCode {
	case http.StatusBadRequest:
		base = model.ErrValidation
	case http.StatusUnauthorized:
		base = model.ErrUnauthenticated
	case http.StatusForbidden:
		base = model.ErrForbidden
	case http.StatusNotFound:
		base = model.ErrNotFound
	default:
		base = model.ErrTransport
	}
	var er api.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&er); err == nil && er.Detail != "" {
		return fmt.Errorf("%w: %s", base, er.Detail)
	}
	return fmt.Errorf("%w: %s", base, resp.Status)
}
