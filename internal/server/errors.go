package server

import (
	"errors"
	"net/http"
	"regexp"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/vesaa/homebuilder/internal/project"
	"github.com/vesaa/homebuilder/internal/publish"
	"github.com/vesaa/homebuilder/internal/render"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("login required")
	ErrForbidden          = errors.New("forbidden")
	ErrSetupClosed        = errors.New("setup already completed")
	ErrWeakPassword       = errors.New("password must be at least 10 characters")
	ErrPasswordMismatch   = errors.New("password confirmation does not match")
	ErrUserExists         = errors.New("username already taken")
	ErrInvalidUser        = errors.New("invalid username or role")
	ErrNoWorkspace        = errors.New("no project open")
	ErrPublishDisabled    = errors.New("publishing is not configured")
)

const maxErrorText = 300

var urlPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*://\S+`)

// SanitizeError masks URLs (which may carry credentials) and caps the length
// of an error message before it is shown to a user.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	s := urlPattern.ReplaceAllString(err.Error(), "[REDACTED_URL]")
	if utf8.RuneCountInString(s) > maxErrorText {
		r := []rune(s)
		s = string(r[:maxErrorText]) + "…"
	}
	return s
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoWorkspace):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrSetupClosed):
		return http.StatusForbidden
	case errors.Is(err, ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, ErrWeakPassword), errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrInvalidUser),
		errors.Is(err, project.ErrUnknownField), errors.Is(err, project.ErrIndexOutOfRange),
		errors.Is(err, project.ErrInvalidValue), errors.Is(err, project.ErrInvalidDocument),
		errors.Is(err, render.ErrUnknownMode):
		return http.StatusBadRequest
	case errors.Is(err, ErrPublishDisabled), errors.Is(err, publish.ErrBadURL):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// abortWithError writes {"error": ...} with the mapped status. Internal
// errors are logged in full and shown sanitized.
func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": SanitizeError(err)})
}
