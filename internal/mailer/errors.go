package mailer

import "fmt"

// Kind classifies pipeline failures. None of them are retried: input and
// lookup errors go straight back to the caller, render errors mean the stored
// template is bad, and a dispatch error aborts the rest of the batch.
type Kind string

const (
	KindInput    Kind = "INVALID_INPUT"
	KindLookup   Kind = "NOT_FOUND"
	KindRender   Kind = "RENDER_FAILED"
	KindDispatch Kind = "DISPATCH_FAILED"
)

type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Cause != nil {
		s += fmt.Sprintf(": %v", e.Cause)
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func inputError(format string, args ...any) *Error {
	return &Error{Kind: KindInput, Message: fmt.Sprintf(format, args...)}
}

func lookupError(message string, cause error) *Error {
	return &Error{Kind: KindLookup, Message: message, Cause: cause}
}

func renderError(message string, cause error) *Error {
	return &Error{Kind: KindRender, Message: message, Cause: cause}
}

func dispatchError(message string, cause error) *Error {
	return &Error{Kind: KindDispatch, Message: message, Cause: cause}
}
