// Package apierr turns raw rider API transport failures into a small typed
// taxonomy and routes them to replaceable side-effect handlers.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the classified category of a failed request.
type Kind string

const (
	KindNetwork      Kind = "NETWORK"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindServer       Kind = "SERVER"
	KindGeneric      Kind = "GENERIC"
)

// Transport codes that mark a failure below HTTP.
const (
	CodeNetwork      = "ERR_NETWORK"
	CodeTimeout      = "ETIMEDOUT"
	CodeConnAborted  = "ECONNABORTED"
	CodeConnRefused  = "ECONNREFUSED"
	CodeConnReset    = "ECONNRESET"
	CodeHostNotFound = "ENOTFOUND"
	CodeCanceled     = "ERR_CANCELED"
)

// NetworkErrorMessage is the generic transport message that marks a network
// failure even when no code is present.
const NetworkErrorMessage = "Network Error"

var networkCodes = map[string]struct{}{
	CodeNetwork:      {},
	CodeTimeout:      {},
	CodeConnAborted:  {},
	CodeConnRefused:  {},
	CodeConnReset:    {},
	CodeHostNotFound: {},
}

var cannedMessages = map[Kind]string{
	KindNetwork:      "You are offline. Check your internet connection.",
	KindUnauthorized: "Session expired. Please login again.",
	KindForbidden:    "Permission denied for this action.",
	KindServer:       "Server issue. Please try again shortly.",
	KindGeneric:      "Something went wrong. Please retry.",
}

// Failure describes a failed request as seen by the transport. Status is zero
// when no HTTP response was received.
type Failure struct {
	Status        int
	Code          string
	Message       string
	ServerMessage string
	Cause         error
}

// Error is a classified API failure. Values are never mutated after Classify
// returns them.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", strings.ToLower(string(e.Kind)), e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", strings.ToLower(string(e.Kind)), e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Classify maps a transport failure to an Error. The first matching rule wins
// and Classify never fails.
func Classify(f Failure) *Error {
	kind := classifyKind(f)
	msg := strings.TrimSpace(f.ServerMessage)
	if msg == "" {
		msg = cannedMessages[kind]
	}
	return &Error{
		Kind:    kind,
		Status:  f.Status,
		Message: msg,
		Cause:   f.Cause,
	}
}

func classifyKind(f Failure) Kind {
	switch {
	case f.Status == 0 && (isNetworkCode(f.Code) || f.Message == NetworkErrorMessage):
		return KindNetwork
	case f.Status == http.StatusUnauthorized:
		return KindUnauthorized
	case f.Status == http.StatusForbidden:
		return KindForbidden
	case f.Status >= http.StatusInternalServerError:
		return KindServer
	default:
		return KindGeneric
	}
}

func isNetworkCode(code string) bool {
	_, ok := networkCodes[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// CannedMessage returns the default user-facing message for kind.
func CannedMessage(kind Kind) string {
	if msg, ok := cannedMessages[kind]; ok {
		return msg
	}
	return cannedMessages[KindGeneric]
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// KindOf returns the classified kind of err, or the empty Kind when err does
// not carry an *Error.
func KindOf(err error) Kind {
	if apiErr, ok := As(err); ok {
		return apiErr.Kind
	}
	return ""
}

// UserMessage returns the message to show for err, falling back to the
// generic canned message for unclassified errors.
func UserMessage(err error) string {
	if apiErr, ok := As(err); ok {
		return apiErr.Message
	}
	return cannedMessages[KindGeneric]
}
