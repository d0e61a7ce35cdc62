package shell

import (
	"sort"
	"strings"
)

// StatusUnset is the status reported before any command has run.
const StatusUnset = -1

// Strategy is the way a command gets executed.
type Strategy int

const (
	// Undefined commands fail with CommandNotFound when run.
	Undefined Strategy = iota
	// Builtin commands run inside the shell process.
	Builtin
	// PathCommand names were found in the PATH index.
	PathCommand
	// SlashCommand names start with a "." and are relative to the working
	// directory.
	SlashCommand
	// AbsolutePathCommand names start with a "/".
	AbsolutePathCommand
)

func (s Strategy) String() string {
	switch s {
	case Builtin:
		return "builtin"
	case PathCommand:
		return "path"
	case SlashCommand:
		return "relative"
	case AbsolutePathCommand:
		return "absolute"
	default:
		return "undefined"
	}
}

// PipeRole is the position of a command in a pipeline.
type PipeRole int

const (
	PipeNone   PipeRole = iota // not part of a pipeline
	PipeFirst                  // writes to the next stage
	PipeMiddle                 // reads from the previous stage and writes to the next
	PipeLast                   // reads from the previous stage
)

func (r PipeRole) String() string {
	switch r {
	case PipeFirst:
		return "first"
	case PipeMiddle:
		return "middle"
	case PipeLast:
		return "last"
	default:
		return "none"
	}
}

// BuiltinID identifies a command implemented by the shell itself.
type BuiltinID int

const (
	NotBuiltin BuiltinID = iota
	BuiltinCd
	BuiltinQuit
	BuiltinAlias
	BuiltinUnalias
	BuiltinPenv
	BuiltinHistory
	BuiltinHelp
	BuiltinWhich

	// builtinCount must remain last.
	builtinCount
)

var builtinNames = map[string]BuiltinID{
	"cd":      BuiltinCd,
	":q":      BuiltinQuit,
	"quit":    BuiltinQuit,
	"exit":    BuiltinQuit,
	"alias":   BuiltinAlias,
	"unalias": BuiltinUnalias,
	"penv":    BuiltinPenv,
	"history": BuiltinHistory,
	"help":    BuiltinHelp,
	"which":   BuiltinWhich,
}

// LookupBuiltin returns the builtin with the given name.
func LookupBuiltin(name string) (BuiltinID, bool) {
	id, ok := builtinNames[name]
	return id, ok
}

// BuiltinNames returns every name recognized as a builtin, sorted.
func BuiltinNames() []string {
	var out []string
	for name := range builtinNames {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// BuiltinIDs returns every builtin identity.
func BuiltinIDs() []BuiltinID {
	var out []BuiltinID
	for id := NotBuiltin + 1; id < builtinCount; id++ {
		out = append(out, id)
	}
	return out
}

// Command is a single resolved, executable unit.
type Command struct {
	// Name is the program to run. Relative and PATH commands have been
	// rewritten to absolute paths.
	Name string
	// Arg0 is the name as it was typed, passed to the program as argv[0].
	Arg0 string
	// Args doesn't include the name.
	Args     []string
	Strategy Strategy
	Role     PipeRole
	Builtin  BuiltinID
}

// Argv returns the name followed by the arguments.
func (c *Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

func (c *Command) String() string {
	return strings.Join(c.Argv(), " ")
}

// Pipeline is a chain of commands connected by pipes. A lone command is a
// pipeline of length one with role PipeNone.
type Pipeline []*Command

func (p Pipeline) String() string {
	var parts []string
	for _, c := range p {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " | ")
}

// Validate checks that roles are consistent with the pipeline's shape.
func (p Pipeline) Validate() error {
	switch len(p) {
	case 0:
		return Errorf(ParseUndefined, "empty pipeline")
	case 1:
		if p[0].Role != PipeNone {
			return Errorf(ParseUndefined, "lone command %q has pipe role %s", p[0].Name, p[0].Role)
		}
		return nil
	}

	for i, c := range p {
		want := PipeMiddle
		switch i {
		case 0:
			want = PipeFirst
		case len(p) - 1:
			want = PipeLast
		}
		if c.Role != want {
			return Errorf(ParseUndefined, "stage %d (%s) has role %s, want %s", i, c.Name, c.Role, want)
		}
	}
	return nil
}
