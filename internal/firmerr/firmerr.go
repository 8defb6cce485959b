// Package firmerr implements the typed error kinds spec §7 distinguishes:
// Structural (verifier), Fatal (invariant broken by a pass), Expected (an
// inapplicable optimization rule — not an error at all) and Configuration
// (an unknown flag, warned and ignored).
//
// Grounded directly on the teacher's internal/errors.SentraError: same
// Error() rendering shape (type, message, location, source line, call
// stack), renamed to this domain and wrapped with github.com/pkg/errors
// for causal chains instead of the teacher's flat struct.
package firmerr

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind is the spec §7 error classification.
type Kind string

const (
	Structural    Kind = "StructuralError"
	Fatal         Kind = "FatalError"
	Configuration Kind = "ConfigurationError"
)

// Location pinpoints a node within a graph for diagnostic purposes.
type Location struct {
	Graph  string
	NodeID int
	Opcode string
}

func (l Location) String() string {
	return fmt.Sprintf("%s: node %d (%s)", l.Graph, l.NodeID, l.Opcode)
}

// Error is a structural or fatal IR error with enough context to print a
// precise one-line (or, with detail, multi-line) diagnostic.
type Error struct {
	Kind     Kind
	Message  string
	Location Location
	Detail   []string // extra lines, e.g. the offending modes
	cause    error
}

func New(kind Kind, loc Location, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Location: loc}
}

// Wrap attaches err as this Error's cause using pkg/errors, preserving a
// stack trace from the call site that first observed the violation.
func (e *Error) Wrap(err error) *Error {
	e.cause = errors.Wrap(err, e.Message)
	return e
}

func (e *Error) WithDetail(lines ...string) *Error {
	e.Detail = append(e.Detail, lines...)
	return e
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", e.Kind, e.Message)
	fmt.Fprintf(&sb, "  at %s\n", e.Location)
	for _, d := range e.Detail {
		fmt.Fprintf(&sb, "    %s\n", d)
	}
	if e.cause != nil {
		fmt.Fprintf(&sb, "  caused by: %v\n", e.cause)
	}
	return sb.String()
}

// ConfigWarning is the "unknown flag on the registry is silently ignored
// with a warning" case — not an error value at all, just a message for a
// caller to route to stderr (spec §7 "Configuration").
func ConfigWarning(flag string) string {
	return fmt.Sprintf("%s: unknown optimization flag %q ignored", Configuration, flag)
}
