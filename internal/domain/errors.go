package domain

import (
	"errors"
	"net/url"
)

// Resolution error kinds. Every failure of the resolution core is one of these.
var (
	ErrNotLoggedIn = errors.New("user not logged in")
	ErrNetwork     = errors.New("network error")
	ErrDecoding    = errors.New("decoding error")
)

// Service names used to prefix error kinds.
const (
	ServiceUser      = "UserService"
	ServiceFavorites = "UserFavoritesService"
)

// ErrorKind classifies a ResolutionError.
type ErrorKind int

const (
	KindNotLoggedIn ErrorKind = iota + 1
	KindNetwork
	KindDecoding
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotLoggedIn:
		return "userNotLoggedIn"
	case KindNetwork:
		return "networkError"
	case KindDecoding:
		return "decodingError"
	default:
		return "unknown"
	}
}

// ResolutionError is a classified failure returned as data, never raised.
type ResolutionError struct {
	Kind    ErrorKind
	Message string
	// Detail carries optional raw context such as the server's error string
	// or a snippet of an undecodable body.
	Detail any
	// Service names the component that produced the error. Empty means
	// ServiceUser.
	Service string
}

// NewNotLoggedIn returns a NotLoggedIn error.
func NewNotLoggedIn(message string, detail any) *ResolutionError {
	return &ResolutionError{Kind: KindNotLoggedIn, Message: message, Detail: detail}
}

// NewNetworkError returns a NetworkError.
func NewNetworkError(message string) *ResolutionError {
	return &ResolutionError{Kind: KindNetwork, Message: message}
}

// NewDecodingError returns a DecodingError.
func NewDecodingError(message string, detail any) *ResolutionError {
	return &ResolutionError{Kind: KindDecoding, Message: message, Detail: detail}
}

// Name returns the qualified kind, e.g. "UserService.networkError".
func (e *ResolutionError) Name() string {
	service := e.Service
	if service == "" {
		service = ServiceUser
	}
	return service + "." + e.Kind.String()
}

func (e *ResolutionError) Error() string {
	if e.Message == "" {
		return e.Name()
	}
	return e.Name() + ": " + e.Message
}

// Unwrap exposes the kind sentinel so errors.Is(err, ErrNetwork) works.
func (e *ResolutionError) Unwrap() error {
	switch e.Kind {
	case KindNotLoggedIn:
		return ErrNotLoggedIn
	case KindNetwork:
		return ErrNetwork
	case KindDecoding:
		return ErrDecoding
	default:
		return nil
	}
}

// WithService returns a copy of e attributed to service.
func (e *ResolutionError) WithService(service string) *ResolutionError {
	out := *e
	out.Service = service
	return &out
}

// AsResolutionError classifies err. Errors that are not already a
// ResolutionError are treated as transport failures.
func AsResolutionError(err error) *ResolutionError {
	if err == nil {
		return nil
	}
	var re *ResolutionError
	if errors.As(err, &re) {
		return re
	}
	return NewNetworkError(TransportMessage(err))
}

// TransportMessage strips the method/URL prefix net/http adds to transport
// errors so callers see the underlying cause.
func TransportMessage(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err.Error()
	}
	return err.Error()
}
