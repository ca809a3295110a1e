// Package api holds the JSON bodies and routes shared by the backend and the
// HTTP client.
package api

import "time"

const (
	PathLogin     = "/api/auth/login"
	PathTodos     = "/api/todos"
	PathCompleted = "/api/todos/completed"
)

// TogglePath is the toggle route for one todo.
func TogglePath(id string) string { return PathTodos + "/" + id + "/toggle" }

type CreateTodoRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ErrorResponse is the body of every non-2xx reply. Error is a model.Kind name.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
