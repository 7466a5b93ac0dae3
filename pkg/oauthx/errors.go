package oauthx

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mcpgate/mcpgate/pkg/httpx"
)

// OAuth2 error codes per RFC 6749 and RFC 7591.
const (
	ErrorCodeInvalidRequest          = "invalid_request"
	ErrorCodeInvalidClient           = "invalid_client"
	ErrorCodeInvalidGrant            = "invalid_grant"
	ErrorCodeUnauthorizedClient      = "unauthorized_client"
	ErrorCodeUnsupportedGrantType    = "unsupported_grant_type"
	ErrorCodeUnsupportedResponseType = "unsupported_response_type"
	ErrorCodeInvalidScope            = "invalid_scope"
	ErrorCodeInvalidClientMetadata   = "invalid_client_metadata"
	ErrorCodeInvalidRedirectURI      = "invalid_redirect_uri"
	ErrorCodeServerError             = "server_error"
)

// Error represents a standard OAuth2 error response per RFC 6749. It
// implements the error interface so services can return it directly and the
// HTTP layer can write it without re-mapping.
type Error struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the OAuth2 error code (e.g., "invalid_request", "invalid_grant")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this Error to an HTTP response writer.
func (e *Error) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

var (
	// ErrInvalidRequest is returned when the request is missing a required
	// parameter, includes an invalid parameter value, or is otherwise malformed.
	ErrInvalidRequest = &Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrInvalidClient is returned when client authentication failed.
	ErrInvalidClient = &Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidClient,
		Description: "invalid client credentials",
	}

	// ErrInvalidGrant is returned when the provided authorization code is
	// invalid, expired, already used, or bound to different parameters.
	ErrInvalidGrant = &Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidGrant,
		Description: "invalid or expired authorization code",
	}

	// ErrUnauthorizedClient is returned when the client identifier is not
	// known to the server.
	ErrUnauthorizedClient = &Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeUnauthorizedClient,
		Description: "unknown client",
	}

	// ErrUnsupportedGrantType is returned for any grant type other than
	// authorization_code.
	ErrUnsupportedGrantType = &Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeUnsupportedGrantType,
		Description: "grant type not supported",
	}

	// ErrUnsupportedResponseType is returned for any response type other
	// than code.
	ErrUnsupportedResponseType = &Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeUnsupportedResponseType,
		Description: "response type not supported",
	}

	// ErrServerError is returned when an unexpected internal fault prevented
	// the request from completing.
	ErrServerError = &Error{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}

	// ErrInvalidFormBody is returned when the request body cannot be parsed.
	ErrInvalidFormBody = &Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "invalid request body",
	}
)

// NewError creates an Error with the given status code, error code, and
// description. Use this for errors needing a request-specific description.
func NewError(statusCode int, code, description string) *Error {
	return &Error{
		StatusCode:  statusCode,
		Code:        code,
		Description: description,
	}
}

// InvalidRequest is shorthand for a 400 invalid_request with a specific description.
func InvalidRequest(description string) *Error {
	return NewError(http.StatusBadRequest, ErrorCodeInvalidRequest, description)
}

// InvalidGrant is shorthand for a 400 invalid_grant with a specific description.
func InvalidGrant(description string) *Error {
	return NewError(http.StatusBadRequest, ErrorCodeInvalidGrant, description)
}

// InvalidClientMetadata is a registration-time 400 per RFC 7591.
func InvalidClientMetadata(description string) *Error {
	return NewError(http.StatusBadRequest, ErrorCodeInvalidClientMetadata, description)
}

// InvalidRedirectURI is a registration-time 400 per RFC 7591.
func InvalidRedirectURI(description string) *Error {
	return NewError(http.StatusBadRequest, ErrorCodeInvalidRedirectURI, description)
}
