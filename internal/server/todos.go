package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/model"
)

func (s *Server) listTodos(c *gin.Context) {
	todos, err := s.store.List(c.Request.Context(), owner(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	c.JSON(http.StatusOK, todos)
}

func (s *Server) createTodo(c *gin.Context) {
	var req api.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		countMutation("create", model.ErrValidation)
		writeError(c, fmt.Errorf("%w: %v", model.ErrValidation, err))
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := s.validate.Struct(req); err != nil {
		countMutation("create", model.ErrValidation)
		writeError(c, fmt.Errorf("%w: text must not be empty", model.ErrValidation))
		return
	}
	t, err := s.store.Create(c.Request.Context(), model.Todo{
		ID:        s.newID(),
		Text:      req.Text,
		OwnerID:   owner(c),
		CreatedAt: s.now().UTC(),
	})
	countMutation("create", err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (s *Server) toggleTodo(c *gin.Context) {
	t, err := s.store.Toggle(c.Request.Context(), c.Param("id"), owner(c))
	countMutation("toggle", err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) deleteCompleted(c *gin.Context) {
	deleted, err := s.store.DeleteCompleted(c.Request.Context(), owner(c))
	countMutation("delete_completed", err)
	if err != nil {
		writeError(c, err)
		return
	}
	if deleted == nil {
		deleted = []model.Todo{}
	}
	c.JSON(http.StatusOK, deleted)
}

// writeError maps err onto a status code and an api.ErrorResponse.
func writeError(c *gin.Context, err error) {
	kind := model.KindOf(err)
	status := http.StatusInternalServerError
	detail := "internal error"
	switch {
	case kind == model.KindValidation:
		status, detail = http.StatusBadRequest, err.Error()
	case kind == model.KindNotFound:
		status, detail = http.StatusNotFound, err.Error()
	case errors.Is(err, model.ErrUnauthenticated):
		status, detail = http.StatusUnauthorized, err.Error()
	case errors.Is(err, model.ErrForbidden):
		status, detail = http.StatusForbidden, err.Error()
	default:
		_ = c.Error(err)
	}
	c.JSON(status, api.ErrorResponse{Error: kind.String(), Detail: detail})
}
