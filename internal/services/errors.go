package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrPrecondition  = errors.New("precondition failed")
	ErrConflict      = errors.New("conflicting active work")
	ErrProcess       = errors.New("process error")
	ErrExternalTool  = errors.New("external tool error")
	ErrData          = errors.New("data error")
	ErrLock          = errors.New("lock error")
)

// Coded is the uniform error record surfaced at the system boundary. It pairs
// a machine-readable code with a human message and an optional actionable
// suggestion, while remaining compatible with errors.Is via its marker.
type Coded struct {
	marker     error
	Code       string
	Message    string
	Suggestion string
	Err        error
}

// Wrap builds a Coded error tagged with one of the exported sentinel markers.
// A nil marker defaults to ErrExternalTool.
func Wrap(marker error, code, message, suggestion string, err error) *Coded {
	if marker == nil {
		marker = ErrExternalTool
	}
	return &Coded{
		marker:     marker,
		Code:       strings.TrimSpace(code),
		Message:    strings.TrimSpace(message),
		Suggestion: strings.TrimSpace(suggestion),
		Err:        err,
	}
}

func (c *Coded) Error() string {
	switch {
	case c == nil:
		return "<nil>"
	case c.Err != nil:
		return fmt.Sprintf("%s: %s: %v", c.Code, c.Message, c.Err)
	default:
		return fmt.Sprintf("%s: %s", c.Code, c.Message)
	}
}

func (c *Coded) Unwrap() []error {
	if c == nil {
		return nil
	}
	out := make([]error, 0, 2)
	if c.marker != nil {
		out = append(out, c.marker)
	}
	if c.Err != nil {
		out = append(out, c.Err)
	}
	return out
}

// CodeOf extracts the machine code from an error chain, or "" when the error
// carries no Coded record.
func CodeOf(err error) string {
	var coded *Coded
	if errors.As(err, &coded) && coded != nil {
		return coded.Code
	}
	return ""
}

// SuggestionOf extracts the actionable suggestion from an error chain.
func SuggestionOf(err error) string {
	var coded *Coded
	if errors.As(err, &coded) && coded != nil {
		return coded.Suggestion
	}
	return ""
}
