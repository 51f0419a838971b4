// Package errors defines the protocol error vocabulary of RFC 6749 and the
// mapping of each error to its wire description and HTTP status code.
package errors

import (
	"errors"
	"net/http"
)

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// known protocol errors; the error text is the wire error code
var (
	ErrInvalidRequest          = errors.New("invalid_request")
	ErrAccessDenied            = errors.New("access_denied")
	ErrUnsupportedResponseType = errors.New("unsupported_response_type")
	ErrUnsupportedGrantType    = errors.New("unsupported_grant_type")
	ErrInvalidGrant            = errors.New("invalid_grant")
	ErrInvalidToken            = errors.New("invalid_token")
	ErrInsufficientScope       = errors.New("insufficient_scope")
	ErrUnauthorizedClient      = errors.New("unauthorized_client")
	ErrServerError             = errors.New("server_error")
)

// Descriptions error description
var Descriptions = map[error]string{
	ErrInvalidRequest:          "The request is missing a required parameter, includes an invalid parameter value, or is otherwise malformed",
	ErrAccessDenied:            "The resource owner or authorization server denied the request",
	ErrUnsupportedResponseType: "The authorization server does not support obtaining an authorization code using this method",
	ErrUnsupportedGrantType:    "The authorization grant type is not supported by the authorization server",
	ErrInvalidGrant:            "The provided authorization grant is invalid, expired or revoked",
	ErrInvalidToken:            "The access token is invalid, expired or revoked",
	ErrInsufficientScope:       "The request requires higher privileges than provided by the access token",
	ErrUnauthorizedClient:      "The client is not authorized to request an authorization code using this method",
	ErrServerError:             "The authorization server encountered an unexpected condition",
}

// StatusCodes the fixed HTTP status for each protocol error
var StatusCodes = map[error]int{
	ErrInvalidRequest:          http.StatusBadRequest,
	ErrAccessDenied:            http.StatusBadRequest,
	ErrUnsupportedResponseType: http.StatusBadRequest,
	ErrUnsupportedGrantType:    http.StatusBadRequest,
	ErrInvalidGrant:            http.StatusBadRequest,
	ErrInvalidToken:            http.StatusForbidden,
	ErrInsufficientScope:       http.StatusForbidden,
	ErrUnauthorizedClient:      http.StatusForbidden,
	ErrServerError:             http.StatusInternalServerError,
}

// ProtocolError pairs a protocol error with a request-specific description.
type ProtocolError struct {
	Err         error
	Description string
}

func (e *ProtocolError) Error() string {
	return e.Err.Error()
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Describe attaches a description to a protocol error.
func Describe(err error, description string) *ProtocolError {
	return &ProtocolError{Err: err, Description: description}
}

// Response the boundary representation of a protocol failure
type Response struct {
	Error       error
	Description string
	StatusCode  int
}

// NewResponse creates a response for the error with the fixed status mapping.
func NewResponse(err error, description string) *Response {
	if description == "" {
		description = Descriptions[err]
	}
	status, ok := StatusCodes[err]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &Response{Error: err, Description: description, StatusCode: status}
}

// ToResponse converts any error raised during an operation into its boundary
// response. Errors outside the protocol vocabulary become server_error.
func ToResponse(err error) *Response {
	var perr *ProtocolError
	if errors.As(err, &perr) {
		return NewResponse(perr.Err, perr.Description)
	}
	if _, ok := StatusCodes[err]; ok {
		return NewResponse(err, "")
	}
	return NewResponse(ErrServerError, Descriptions[ErrServerError])
}
