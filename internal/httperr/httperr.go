// Package httperr defines the API's error taxonomy and the central Echo
// error handler. Every error that escapes a handler is rendered as one
// uniform JSON envelope:
//
//	{statusCode, message, data:null, error, timestamp, path}
//
// Auth and permission failures deliberately carry only a generic message so
// a caller cannot tell which check tripped beyond 401-vs-403.
package httperr

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Kind names mirror the taxonomy used across the API.
const (
	KindValidation     = "ValidationError"
	KindAuthentication = "AuthenticationError"
	KindAuthorization  = "AuthorizationError"
	KindNotFound       = "NotFoundError"
	KindConflict       = "ConflictError"
	KindInternal       = "InternalError"
)

// Error is a typed HTTP-mappable error. Handlers and middleware return it;
// the central handler renders it.
type Error struct {
	Status  int    // HTTP status code
	Kind    string // taxonomy name, e.g. "ValidationError"
	Message string // client-facing message
}

func (e *Error) Error() string { return e.Message }

func Validation(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Kind: KindValidation, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Kind: KindAuthentication, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Kind: KindAuthorization, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Kind: KindNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Kind: KindConflict, Message: msg}
}

func Internal(msg string) *Error {
	return &Error{Status: http.StatusInternalServerError, Kind: KindInternal, Message: msg}
}

// Envelope is the uniform error body.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	Err        string      `json:"error"`
	Timestamp  string      `json:"timestamp"`
	Path       string      `json:"path"`
}

// Handler is installed as the Echo HTTPErrorHandler. Unrecognized errors
// are logged with the request id and rendered as a generic 500; the real
// cause never reaches the client.
func Handler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	kind := KindInternal
	msg := "internal server error"

	var appErr *Error
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		status, kind, msg = appErr.Status, appErr.Kind, appErr.Message
	case errors.As(err, &echoErr):
		// Routing-level errors (404 on unknown path, 405) arrive as
		// echo.HTTPError; fold them into the taxonomy.
		status = echoErr.Code
		switch status {
		case http.StatusNotFound:
			kind, msg = KindNotFound, "not found"
		case http.StatusMethodNotAllowed:
			kind, msg = KindValidation, "method not allowed"
		case http.StatusUnauthorized:
			kind, msg = KindAuthentication, "unauthorized"
		default:
			if s, ok := echoErr.Message.(string); ok {
				msg = s
			}
		}
	default:
		reqID := c.Response().Header().Get(echo.HeaderXRequestID)
		log.Printf("request %s %s failed (request_id=%s): %v",
			c.Request().Method, c.Request().URL.Path, reqID, err)
	}

	body := Envelope{
		StatusCode: status,
		Message:    msg,
		Data:       nil,
		Err:        kind,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Path:       c.Request().URL.Path,
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}
