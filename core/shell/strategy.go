package shell

import (
	"os"
	"path/filepath"
	"strings"
)

// PathIndex looks up executables by bare name.
type PathIndex interface {
	Get(name string) (string, bool)
}

// Resolver classifies command names into execution strategies.
type Resolver struct {
	// Paths holds the executables found on PATH, it may be nil.
	Paths PathIndex
}

// Resolve classifies name and returns the name to execute along with the
// strategy. The first matching rule wins:
//
//   - names starting with "." are relative to the working directory and are
//     rewritten to their canonical absolute path
//   - names starting with "/" are absolute
//   - builtin names
//   - names in the PATH index are rewritten to the indexed path
//   - everything else is Undefined
//
// Resolve never starts a process.
func (r *Resolver) Resolve(name string) (string, Strategy, error) {
	switch {
	case strings.HasPrefix(name, "."):
		resolved, err := canonicalize(name)
		if err != nil {
			return name, SlashCommand, err
		}
		return resolved, SlashCommand, nil

	case strings.HasPrefix(name, "/"):
		return name, AbsolutePathCommand, nil
	}

	if _, ok := LookupBuiltin(name); ok {
		return name, Builtin, nil
	}

	if r.Paths != nil {
		if p, ok := r.Paths.Get(name); ok {
			return p, PathCommand, nil
		}
	}

	return name, Undefined, nil
}

// ResolveCommand fills in the strategy of cmd and rewrites its name. The
// name as given is kept in Arg0.
func (r *Resolver) ResolveCommand(cmd *Command) error {
	name, strategy, err := r.Resolve(cmd.Name)
	if err != nil {
		return err
	}
	if cmd.Arg0 == "" {
		cmd.Arg0 = cmd.Name
	}
	cmd.Name = name
	cmd.Strategy = strategy
	if strategy == Builtin {
		cmd.Builtin, _ = LookupBuiltin(name)
	}
	return nil
}

func canonicalize(name string) (string, error) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", WrapError(CommandNotFound, err, "%s", name)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", WrapError(CommandNotFound, err, "%s", name)
	}

	info, err := os.Stat(resolved)
	switch {
	case err != nil:
		return "", WrapError(CommandNotFound, err, "%s", name)
	case info.IsDir():
		return "", Errorf(ParseUndefined, "%s: is a directory", name)
	}

	return resolved, nil
}
