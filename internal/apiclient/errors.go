package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a failed call for the caller's recovery path.
type Kind int

const (
	KindUnknown Kind = iota
	// KindAuthentication: credentials rejected and refresh failed.
	KindAuthentication
	// KindAuthorization: role or ownership mismatch (403).
	KindAuthorization
	// KindNotFound: a single resource does not exist (404).
	KindNotFound
	// KindNetwork: the server could not be reached or the call timed out.
	KindNetwork
	// KindValidation: the response did not have the expected shape.
	KindValidation
	// KindServer: any other failure reported by the server.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	}
	return "unknown"
}

// ErrSessionExpired is wrapped by errors returned after a failed refresh.
var ErrSessionExpired = errors.New("session expired")

// Error is returned for every failed API call. Status is zero when no
// response was received.
type Error struct {
	Status  int
	Code    string
	Message string
	Kind    Kind
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies any error returned by this package or by a context.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	if errors.Is(err, ErrSessionExpired) {
		return KindAuthentication
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	return KindUnknown
}

// kindForStatus maps a non-2xx status to a Kind.
func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindAuthentication
	case http.StatusForbidden:
		return KindAuthorization
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusRequestTimeout, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindNetwork
	}
	return KindServer
}
