package errx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// UpstreamErrorMessage describes failures of external data services.
	UpstreamErrorMessage = "upstream service failed"
	// BadRequestMessage is returned for malformed inbound payloads.
	BadRequestMessage = "invalid request body"
)

var (
	// ErrNotConfigured marks a capability whose backing configuration is absent.
	ErrNotConfigured = errors.New("capability not configured")
	// ErrHandlerInvariant is raised when the graph reaches the formatter without
	// exactly one handler having produced a message.
	ErrHandlerInvariant = errors.New("handler invariant violated")
	// ErrEmptyMessage rejects requests without user text.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrUpstreamStatus marks an external service that answered with an
	// error status, as opposed to one that could not be reached.
	ErrUpstreamStatus = errors.New("unexpected status")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WrapRedis maps Redis errors to an AppError; redis.Nil becomes a 404.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}
	return New(err, http.StatusBadGateway, RedisErrorMessage)
}

// WrapUpstream tags a failure of the calendar or knowledge services.
func WrapUpstream(service string, err error) error {
	if err == nil {
		return nil
	}
	return New(fmt.Errorf("%s: %w", service, err), http.StatusBadGateway, UpstreamErrorMessage)
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
