package shell

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so the shell can report it with a short
// prefix and keep going.
type ErrorKind int

const (
	// KindUnknown is returned by KindOf for errors that aren't *Error.
	KindUnknown ErrorKind = iota
	// ParseUndefined means the input couldn't be split into commands.
	ParseUndefined
	// CommandNotFound means nothing could be found to run.
	CommandNotFound
	// SpawnFailed means the OS refused to start the process.
	SpawnFailed
	// WaitFailed means the process started but its status was lost.
	WaitFailed
	// BuiltinError is returned by builtins and alias expansion.
	BuiltinError
	// ConfigError means a configuration source was malformed.
	ConfigError
)

func (k ErrorKind) String() string {
	switch k {
	case ParseUndefined:
		return "parse error"
	case CommandNotFound:
		return "command not found"
	case SpawnFailed:
		return "spawn failed"
	case WaitFailed:
		return "wait failed"
	case BuiltinError:
		return "builtin error"
	case ConfigError:
		return "config error"
	default:
		return "error"
	}
}

// Error is a classified shell error.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

var _ error = (*Error)(nil)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a new error of the given kind.
func Errorf(kind ErrorKind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapError creates a new error of the given kind wrapping err.
func WrapError(kind ErrorKind, err error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var shellErr *Error
	if errors.As(err, &shellErr) {
		return shellErr.Kind
	}
	return KindUnknown
}
