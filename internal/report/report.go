// Package report implements the structured diagnostic sink the verifier
// and local optimizer write to: severity-bucketed entries rendered with a
// humanized summary line.
//
// Grounded on the teacher's internal/reporting (structured report
// building: severity buckets, a renderer, summary counts) and
// internal/errors.SentraError's location+source-line rendering, condensed
// from ~930 lines of security-report-specific scaffolding into the shape
// this package actually needs.
package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/kr/text"
)

// Severity buckets entries the way the teacher's reporting package
// buckets LOW/MEDIUM/HIGH/CRITICAL findings.
type Severity int

const (
	Info Severity = iota
	Warning
	Violation
	FatalSeverity
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Violation:
		return "violation"
	case FatalSeverity:
		return "fatal"
	default:
		return "unknown"
	}
}

// Entry is one diagnostic line, optionally with indented detail.
type Entry struct {
	Severity Severity
	Message  string
	Detail   []string
}

// Report accumulates entries for one pass invocation (one verifier run,
// one local-opt fixpoint) and renders a summary, mirroring the teacher's
// report-then-render two-phase shape.
type Report struct {
	Source  string // e.g. "verify", "local-opts"
	Entries []Entry
}

func New(source string) *Report { return &Report{Source: source} }

func (r *Report) Add(sev Severity, msg string, detail ...string) {
	r.Entries = append(r.Entries, Entry{Severity: sev, Message: msg, Detail: detail})
}

// Count returns the number of entries at or above the given severity.
func (r *Report) Count(min Severity) int {
	n := 0
	for _, e := range r.Entries {
		if e.Severity >= min {
			n++
		}
	}
	return n
}

// Clean reports whether no Violation-or-worse entries were recorded.
func (r *Report) Clean() bool { return r.Count(Violation) == 0 }

// Fprint renders the report to w: one line per entry, indented detail
// lines, and a humanized summary line ("verify: 3 violations, 2
// warnings").
func (r *Report) Fprint(w io.Writer) {
	for _, e := range r.Entries {
		fmt.Fprintf(w, "%s: %s: %s\n", r.Source, e.Severity, e.Message)
		for _, d := range e.Detail {
			fmt.Fprint(w, text.Indent(d, "    ")+"\n")
		}
	}
	fmt.Fprintf(w, "%s: %s\n", r.Source, r.summary())
}

func (r *Report) summary() string {
	v := r.Count(Violation)
	warn := r.Count(Warning) - r.Count(Violation)
	return fmt.Sprintf("%s violations, %s warnings", humanize.Comma(int64(v)), humanize.Comma(int64(warn)))
}
