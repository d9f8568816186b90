package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by how the process reacts to it.
type Kind int

const (
	// KindUnknown is used for errors that did not pass through this package.
	KindUnknown Kind = iota
	// KindResolution means the target did not resolve to a usable address.
	KindResolution
	// KindProbe means the echo request failed or timed out.
	KindProbe
	// KindLogWrite means an outage log append failed.
	KindLogWrite
	// KindStartupFatal aborts the process before the loop starts.
	KindStartupFatal
)

var kindNames = map[Kind]string{
	KindUnknown:      "unknown",
	KindResolution:   "resolution",
	KindProbe:        "probe",
	KindLogWrite:     "log_write",
	KindStartupFatal: "startup_fatal",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error carries a Kind together with the operation and its cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with kind and op. A nil err still produces an error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Resolution, Probe, LogWrite and StartupFatal are shorthands for New.
func Resolution(op string, err error) *Error   { return New(KindResolution, op, err) }
func Probe(op string, err error) *Error        { return New(KindProbe, op, err) }
func LogWrite(op string, err error) *Error     { return New(KindLogWrite, op, err) }
func StartupFatal(op string, err error) *Error { return New(KindStartupFatal, op, err) }

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsFatal reports whether err must abort startup.
func IsFatal(err error) bool {
	return KindOf(err) == KindStartupFatal
}
