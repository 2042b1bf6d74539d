// Package apperr defines the failure kinds a glitchreel run can end with.
//
// Every kind is fatal. Configuration and input problems are reported before
// the media engine is invoked; probe failures abort before planning; engine
// failures abort the remaining passes and carry the engine's diagnostic text.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration     = errors.New("configuration error")
	ErrInsufficientInput = errors.New("insufficient input")
	ErrProbe             = errors.New("probe error")
	ErrMediaEngine       = errors.New("media engine error")
)

// ConfigurationError reports an invalid option or a missing resource.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// Configf builds a ConfigurationError for field.
func Configf(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InsufficientInputError is returned when too few images exist to crossfade.
type InsufficientInputError struct {
	Dir      string
	Found    int
	Required int
}

func (e *InsufficientInputError) Error() string {
	return fmt.Sprintf("insufficient input: %s holds %d image(s), at least %d required", e.Dir, e.Found, e.Required)
}

func (e *InsufficientInputError) Is(target error) bool { return target == ErrInsufficientInput }

// ProbeError wraps a failure to read the audio duration.
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

func (e *ProbeError) Is(target error) bool { return target == ErrProbe }

// MediaEngineError is a non-zero exit (or failed start) of one engine pass.
// Diagnostic holds the engine's own output verbatim.
type MediaEngineError struct {
	Pass       string
	ExitCode   int
	Diagnostic string
	Err        error
}

func (e *MediaEngineError) Error() string {
	msg := fmt.Sprintf("media engine pass %q failed (exit %d)", e.Pass, e.ExitCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Diagnostic != "" {
		msg += "\n" + e.Diagnostic
	}
	return msg
}

func (e *MediaEngineError) Unwrap() error { return e.Err }

func (e *MediaEngineError) Is(target error) bool { return target == ErrMediaEngine }
