package apperror

import (
	"errors"
	"fmt"
)

// Error is a domain error with a stable machine-readable code and the
// HTTP status the server should answer with. Extra carries structured
// context (e.g. remaining break seconds) into the response envelope.
type Error struct {
	Code    string
	Message string
	Status  int
	Extra   map[string]interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code, message string, status int) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

func (e *Error) WithExtra(key string, value interface{}) *Error {
	clone := *e
	clone.Extra = make(map[string]interface{}, len(e.Extra)+1)
	for k, v := range e.Extra {
		clone.Extra[k] = v
	}
	clone.Extra[key] = value
	return &clone
}

// As unwraps err into an *Error if possible.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}
