package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/model"
)

const claimsKey = "tada_claims"

// HashPassword produces the password_hash stored in todod.yaml.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// IssueToken signs an HS256 token for u.
func (s *Server) IssueToken(u config.User) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := auth.Claims{
		Name: u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tok, exp, nil
}

func (s *Server) login(c *gin.Context) {
	var req api.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", model.ErrValidation, err))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(c, fmt.Errorf("%w: username and password are required", model.ErrValidation))
		return
	}
	u, ok := s.users[req.Username]
	if !ok || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		s.log.Info("login rejected", "user", req.Username)
		writeError(c, fmt.Errorf("%w: bad credentials", model.ErrUnauthenticated))
		return
	}
	tok, exp, err := s.IssueToken(u)
	if err != nil {
		writeError(c, err)
		return
	}
	s.log.Info("login", "user", u.Name)
	c.JSON(http.StatusOK, api.LoginResponse{Token: tok, ExpiresAt: exp})
}

// requireAuth rejects requests without a valid bearer token and stores the
// claims for the handlers.
func (s *Server) requireAuth() gin.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	keyFunc := func(*jwt.Token) (any, error) { return s.secret, nil }

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			writeError(c, fmt.Errorf("%w: missing bearer token", model.ErrUnauthenticated))
			c.Abort()
			return
		}
		var claims auth.Claims
		if _, err := parser.ParseWithClaims(strings.TrimSpace(raw), &claims, keyFunc); err != nil || claims.Subject == "" {
			writeError(c, fmt.Errorf("%w: invalid token", model.ErrUnauthenticated))
			c.Abort()
			return
		}
		c.Set(claimsKey, &claims)
		c.Next()
	}
}

// owner is the user id of an authenticated request.
func owner(c *gin.Context) string {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims.Subject
		}
	}
	return ""
}
