// Package render executes template source strings against variable maps.
// Callers resolve the source first (via the cache) and pass it in directly;
// there is no loader indirection and no ambient request state, so compiled
// output is never shared across tenants.
package render

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// Options controls a single render call.
type Options struct {
	// Raw disables HTML auto-escaping. Only safe for trusted, admin-authored
	// template bodies that embed markup the escaper would mangle.
	Raw bool
	// Strict makes a reference to a missing variable a render error instead of
	// an empty value.
	Strict bool
}

// Error wraps a template failure, distinguishing parse from execute so
// callers can report malformed templates separately from bad variables.
type Error struct {
	Stage string // "parse" or "execute"
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("template %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Render executes source against vars. Variables are referenced Go-style
// ({{.name}}); map keys are looked up on the dot.
func Render(source string, vars map[string]any, opts Options) (string, error) {
	missingKey := "missingkey=zero"
	if opts.Strict {
		missingKey = "missingkey=error"
	}

	var buf bytes.Buffer
	if opts.Raw {
		t, err := texttemplate.New("body").Option(missingKey).Parse(source)
		if err != nil {
			return "", &Error{Stage: "parse", Err: err}
		}
		if err := t.Execute(&buf, vars); err != nil {
			return "", &Error{Stage: "execute", Err: err}
		}
		return buf.String(), nil
	}

	t, err := htmltemplate.New("body").Option(missingKey).Parse(source)
	if err != nil {
		return "", &Error{Stage: "parse", Err: err}
	}
	if err := t.Execute(&buf, vars); err != nil {
		return "", &Error{Stage: "execute", Err: err}
	}
	return buf.String(), nil
}

// Validate parses source to catch template syntax errors at upsert time
// rather than at send time.
func Validate(source string) error {
	if _, err := htmltemplate.New("body").Parse(source); err != nil {
		return &Error{Stage: "parse", Err: err}
	}
	return nil
}
