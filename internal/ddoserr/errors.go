// Package ddoserr defines the error kinds of the detector's error-handling
// design: ConfigError and AllocationError are fatal, the rest are recovered
// at the line or detection-pass level by the caller.
package ddoserr

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Kind classifies an error for the propagation policy of §7: the two fatal
// kinds unwind to the process exit path, the rest are recovered locally.
type Kind int

const (
	// Config marks a bad CLI/JSON option value; reported and the process exits 1.
	Config Kind = iota
	// Parse marks a malformed input line; the line is dropped, parsing continues.
	Parse
	// Allocation marks a memory-allocation failure; fatal for the graph.
	Allocation
	// DataInsufficient marks n < k hosts or interval_cnt <= CONVERGENCE; this
	// detection pass's clustering is skipped, the run continues.
	DataInsufficient
	// EmptyCluster marks a cluster with zero members after centroid recompute
	// or post-convergence; the pass continues, adjust_cluster may exit early.
	EmptyCluster
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "ConfigError"
	case Parse:
		return "ParseError"
	case Allocation:
		return "AllocationError"
	case DataInsufficient:
		return "DataInsufficient"
	case EmptyCluster:
		return "EmptyCluster"
	default:
		return "UnknownError"
	}
}

// Error wraps a message with a Kind, and carries a stack trace courtesy of
// github.com/pkg/errors for the fatal kinds' top-level report.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Format makes "%+v" on a ddoserr.Error print the kind plus the full
// call-site stack trace github.com/pkg/errors attached at New/Newf/Wrap
// time, instead of just the flat message "%s" and "%v" give. This is what
// cmd/ddos-detect's fatal path uses so the captured stack is actually
// surfaced somewhere, not just carried and discarded.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s: ", e.Kind)
			if f, ok := e.Err.(fmt.Formatter); ok {
				f.Format(s, verb)
				return
			}
			io.WriteString(s, e.Err.Error())
			return
		}
		io.WriteString(s, e.Error())
	case 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// New builds a Kind-tagged, stack-annotated error.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Err: errors.New(msg)}
}

// Newf builds a Kind-tagged, stack-annotated error with formatting.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: errors.Errorf(format, args...)}
}

// Wrap annotates err with msg and tags it with kind, preserving err's stack
// if it already carries one.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: errors.Wrap(err, msg)}
}

// Is reports whether err (or any error it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if de, ok := err.(*Error); ok {
			e = de
			break
		}
		err = errors.Unwrap(err)
	}
	return e != nil && e.Kind == kind
}
