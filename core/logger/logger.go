package logger

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Prefix is attached to every entry.
const Prefix = "civa"

// Keys used in log entries.
const (
	KeySession  = "session"
	KeyCommand  = "cmd"
	KeyArgs     = "args"
	KeyStrategy = "strategy"
	KeyStage    = "stage"
	KeyStatus   = "status"
	KeyKind     = "kind"
	KeyError    = "err"
)

// Messages used for events the report understands.
const (
	MsgSessionStart = "session start"
	MsgSessionEnd   = "session end"
	MsgExec         = "exec"
	MsgExit         = "exit"
	MsgFailed       = "failed"
)

// New creates a JSON lines logger writing to w at the given level.
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return log.NewWithOptions(w, log.Options{
		Prefix:          Prefix,
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       log.JSONFormatter,
	}), nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// NewSession returns a child logger with a fresh session ID attached.
func NewSession(l *log.Logger) (*log.Logger, string) {
	id := uuid.NewString()
	return l.With(KeySession, id), id
}
