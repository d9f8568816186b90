package outage

import (
	"io"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/doridoridoriand/inetwatch/internal/fault"
)

// DefaultPath is the outage log used when no path is configured.
const DefaultPath = "internet.log"

const (
	// Header is written once each time a monitor is constructed.
	Header      = "Event,    Time,   Duration\n"
	startPrefix = "Internet unavailable,  "
	startSuffix = ", "
)

// Log appends outage records to a writer. It is not safe for concurrent use;
// the monitor is its only writer.
type Log struct {
	w      io.Writer
	closer io.Closer
}

// New returns a Log writing to w.
func New(w io.Writer) *Log {
	l := &Log{w: w}
	if c, ok := w.(io.Closer); ok {
		l.closer = c
	}
	return l
}

// Open opens or creates path on fs in append mode.
func Open(fs afero.Fs, path string) (*Log, error) {
	if path == "" {
		path = DefaultPath
	}
	file, err := fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fault.StartupFatal("open outage log "+path, err)
	}
	return New(file), nil
}

// WriteHeader appends the column header line.
func (l *Log) WriteHeader() error {
	return l.write("write header", Header)
}

// WriteStart appends the first half of an outage line. The line stays open
// until WriteEnd completes it.
func (l *Log) WriteStart(at time.Time) error {
	return l.write("write outage start", startPrefix+FormatTimestamp(at)+startSuffix)
}

// WriteEnd completes the open outage line with its duration.
func (l *Log) WriteEnd(elapsed time.Duration) error {
	return l.write("write outage end", FormatDuration(elapsed)+"\n")
}

// Close releases the underlying file, if any.
func (l *Log) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *Log) write(op, text string) error {
	if _, err := io.WriteString(l.w, text); err != nil {
		return fault.LogWrite(op, err)
	}
	return nil
}
