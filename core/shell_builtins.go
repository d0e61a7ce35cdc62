package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/josephlewis42/civa/core/alias"
	"github.com/josephlewis42/civa/core/shell"
	"github.com/pborman/getopt/v2"
)

// AllBuiltins holds the implementation of every shell builtin.
var AllBuiltins = map[shell.BuiltinID]ShellBuiltin{}

// ShellBuiltin is a command that runs inside the shell process. args
// includes the name the builtin was invoked as.
type ShellBuiltin interface {
	Main(s *Shell, stdio IO, args []string) (int, error)
}

type ShellBuiltinFunc func(s *Shell, stdio IO, args []string) (int, error)

func (f ShellBuiltinFunc) Main(s *Shell, stdio IO, args []string) (int, error) {
	return f(s, stdio, args)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// BuiltinCommand parses flags for a builtin and prints its help.
type BuiltinCommand struct {
	// Use has the format: name [flags] args...
	Use string
	// Short holds a one line description of the command.
	Short string

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (b *BuiltinCommand) Flags() *getopt.Set {
	if b.flags == nil {
		b.flags = getopt.New()
	}
	return b.flags
}

// PrintHelp writes help for the command to the given writer.
func (b *BuiltinCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, b.Use)
	fmt.Fprintln(w, b.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	b.Flags().PrintOptions(w)
}

// Run parses args and, unless help was requested, calls callback with the
// remaining positional arguments.
func (b *BuiltinCommand) Run(stdio IO, args []string, callback func(args []string) (int, error)) (int, error) {
	opts := b.Flags()
	showHelp := opts.BoolLong("help", 'h', "show this help and exit")

	if err := opts.Getopt(args, nil); err != nil {
		b.PrintHelp(stdio.Stderr)
		return 2, shell.WrapError(shell.BuiltinError, err, "%s", args[0])
	}

	if *showHelp {
		b.PrintHelp(stdio.Stdout)
		return 0, nil
	}

	return callback(opts.Args())
}

// Dispatch implements Dispatcher by running the builtin identified by cmd.
func (s *Shell) Dispatch(ctx context.Context, cmd *shell.Command, stdio IO) (int, error) {
	builtin, ok := AllBuiltins[cmd.Builtin]
	if !ok {
		return 0, shell.Errorf(shell.CommandNotFound, "%s is not a builtin", cmd.Name)
	}
	return builtin.Main(s, stdio, cmd.Argv())
}

var _ Dispatcher = (*Shell)(nil)

var builtinShort = map[shell.BuiltinID]string{
	shell.BuiltinCd:      "Change the working directory.",
	shell.BuiltinQuit:    "Exit the shell.",
	shell.BuiltinAlias:   "Define or list aliases.",
	shell.BuiltinUnalias: "Remove aliases.",
	shell.BuiltinPenv:    "Print the parts of a list variable like PATH.",
	shell.BuiltinHistory: "Display or clear the history list.",
	shell.BuiltinHelp:    "Show this list.",
	shell.BuiltinWhich:   "Show how a command would be run.",
}

// Cd is the cd shell builtin.
func Cd(s *Shell, stdio IO, args []string) (int, error) {
	cmd := &BuiltinCommand{Use: "cd [DIR]", Short: builtinShort[shell.BuiltinCd]}
	return cmd.Run(stdio, args, func(args []string) (int, error) {
		var dir string
		switch len(args) {
		case 0:
			dir = os.Getenv("HOME")
			if dir == "" {
				return 0, nil
			}
		case 1:
			dir = args[0]
			if dir == "-" {
				dir = os.Getenv("OLDPWD")
				if dir == "" {
					return 1, shell.Errorf(shell.BuiltinError, "cd: OLDPWD not set")
				}
				fmt.Fprintln(stdio.Stdout, dir)
			}
		default:
			return 1, shell.Errorf(shell.BuiltinError, "cd: too many arguments")
		}

		old, _ := os.Getwd()
		if err := os.Chdir(dir); err != nil {
			return 1, shell.WrapError(shell.BuiltinError, err, "cd")
		}

		wd, err := os.Getwd()
		if err != nil {
			wd = dir
		}
		os.Setenv("OLDPWD", old)
		os.Setenv("PWD", wd)
		return 0, nil
	})
}

// Quit ends the session.
func Quit(s *Shell, stdio IO, args []string) (int, error) {
	cmd := &BuiltinCommand{Use: args[0] + " [N]", Short: builtinShort[shell.BuiltinQuit]}
	return cmd.Run(stdio, args, func(args []string) (int, error) {
		status := s.ExitStatus()
		switch len(args) {
		case 0:
		case 1:
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return 2, shell.Errorf(shell.BuiltinError, "exit: %s: numeric argument required", args[0])
			}
			status = n
		default:
			return 1, shell.Errorf(shell.BuiltinError, "exit: too many arguments")
		}

		return status, ErrExit
	})
}

// Alias lists or defines aliases.
func Alias(s *Shell, stdio IO, args []string) (int, error) {
	cmd := &BuiltinCommand{Use: "alias [-s] [NAME VALUE]", Short: builtinShort[shell.BuiltinAlias]}
	save := cmd.Flags().Bool('s', "write the aliases to the alias file")

	return cmd.Run(stdio, args, func(args []string) (int, error) {
		switch len(args) {
		case 0:
			if !*save {
				if err := s.aliases.Format(stdio.Stdout); err != nil {
					return 1, shell.WrapError(shell.BuiltinError, err, "alias")
				}
				return 0, nil
			}
		case 2:
			if !alias.ValidName(args[0]) {
				return 1, shell.Errorf(shell.BuiltinError, "alias: %q: invalid alias name", args[0])
			}
			s.aliases.Define(args[0], args[1])
		default:
			return 2, shell.Errorf(shell.BuiltinError, "alias: expected NAME VALUE, got %d arguments", len(args))
		}

		if *save {
			if err := alias.Save(s.config.Fs(), s.config.AliasPath(), s.aliases); err != nil {
				return 1, shell.WrapError(shell.BuiltinError, err, "alias: saving %s", s.config.AliasPath())
			}
		}
		return 0, nil
	})
}

// Unalias removes aliases.
func Unalias(s *Shell, stdio IO, args []string) (int, error) {
	cmd := &BuiltinCommand{Use: "unalias NAME...", Short: builtinShort[shell.BuiltinUnalias]}
	return cmd.Run(stdio, args, func(args []string) (int, error) {
		if len(args) == 0 {
			return 2, shell.Errorf(shell.BuiltinError, "unalias: missing NAME")
		}

		for _, name := range args {
			if !s.aliases.Remove(name) {
				return 1, shell.Errorf(shell.BuiltinError, "unalias: %s: not found", name)
			}
		}
		return 0, nil
	})
}

// Penv prints each part of a colon separated variable on its own line.
func Penv(s *Shell, stdio IO, args []string) (int, error) {
	cmd := &BuiltinCommand{Use: "penv NAME", Short: builtinShort[shell.BuiltinPenv]}
	return cmd.Run(stdio, args, func(args []string) (int, error) {
		if len(args) != 1 {
			return 2, shell.Errorf(shell.BuiltinError, "penv: expected exactly one NAME")
		}

		value, ok := os.LookupEnv(args[0])
		if !ok {
			return 1, shell.Errorf(shell.BuiltinError, "penv: %s: not set", args[0])
		}

		header := color.New(color.FgCyan, color.Bold)
		if s.color {
			header.EnableColor()
		} else {
			header.DisableColor()
		}

		parts := strings.Split(value, ":")
		fmt.Fprintln(stdio.Stdout, header.Sprintf("%s (%d)", args[0], len(parts)))

		tw := tabwriter.NewWriter(stdio.Stdout, 0, 8, 2, ' ', 0)
		for i, part := range parts {
			fmt.Fprintf(tw, "%d\t%s\n", i+1, part)
		}
		if err := tw.Flush(); err != nil {
			return 1, shell.WrapError(shell.BuiltinError, err, "penv")
		}
		return 0, nil
	})
}

// History lists or clears the lines entered this session.
func History(s *Shell, stdio IO, args []string) (int, error) {
	cmd := &BuiltinCommand{Use: "history [-c] [N]", Short: builtinShort[shell.BuiltinHistory]}
	clearAll := cmd.Flags().Bool('c', "clear the history by deleting all entries")

	return cmd.Run(stdio, args, func(args []string) (int, error) {
		if *clearAll {
			s.ClearHistory()
			return 0, nil
		}

		start := 0
		switch len(args) {
		case 0:
		case 1:
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 0 {
				return 2, shell.Errorf(shell.BuiltinError, "history: %s: numeric argument required", args[0])
			}
			if n < len(s.history) {
				start = len(s.history) - n
			}
		default:
			return 2, shell.Errorf(shell.BuiltinError, "history: too many arguments")
		}

		for i := start; i < len(s.history); i++ {
			fmt.Fprintf(stdio.Stdout, "% 5d  %s\n", i+1, s.history[i])
		}
		return 0, nil
	})
}

// Help lists the builtins.
func Help(s *Shell, stdio IO, args []string) (int, error) {
	w := stdio.Stdout
	fmt.Fprintln(w, "civa shell builtins. Type `NAME -h' to find out more about `NAME'.")
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for _, info := range ListBuiltins() {
		fmt.Fprintf(tw, "  %s\t%s\n", strings.Join(info.Names, ", "), info.Short)
	}
	if err := tw.Flush(); err != nil {
		return 1, shell.WrapError(shell.BuiltinError, err, "help")
	}
	return 0, nil
}

// BuiltinInfo describes a builtin.
type BuiltinInfo struct {
	ID shell.BuiltinID
	// Names the builtin can be invoked by, sorted.
	Names []string
	Short string
}

// ListBuiltins describes every builtin in BuiltinID order.
func ListBuiltins() []BuiltinInfo {
	var out []BuiltinInfo
	for _, id := range shell.BuiltinIDs() {
		out = append(out, BuiltinInfo{ID: id, Names: namesOf(id), Short: builtinShort[id]})
	}
	return out
}

// Which shows how each name would be executed.
func Which(s *Shell, stdio IO, args []string) (int, error) {
	cmd := &BuiltinCommand{Use: "which NAME...", Short: builtinShort[shell.BuiltinWhich]}
	return cmd.Run(stdio, args, func(args []string) (int, error) {
		if len(args) == 0 {
			return 2, shell.Errorf(shell.BuiltinError, "which: missing NAME")
		}

		status := 0
		for _, name := range args {
			if definition, ok := s.aliases.Lookup(name); ok {
				fmt.Fprintf(stdio.Stdout, "%s: aliased to %s\n", name, definition)
				continue
			}

			path, strategy, err := s.builder.Resolver.Resolve(name)
			switch {
			case err != nil:
				fmt.Fprintf(stdio.Stdout, "%s: %v\n", name, err)
				status = 1
			case strategy == shell.Undefined:
				fmt.Fprintf(stdio.Stdout, "%s: not found\n", name)
				status = 1
			case strategy == shell.Builtin:
				fmt.Fprintf(stdio.Stdout, "%s: shell builtin\n", name)
			default:
				fmt.Fprintf(stdio.Stdout, "%s: %s (%s)\n", name, path, strategy)
			}
		}
		return status, nil
	})
}

// namesOf returns the names a builtin can be invoked by, sorted.
func namesOf(id shell.BuiltinID) []string {
	var out []string
	for _, name := range shell.BuiltinNames() {
		if other, _ := shell.LookupBuiltin(name); other == id {
			out = append(out, name)
		}
	}
	return out
}

func init() {
	AllBuiltins[shell.BuiltinCd] = ShellBuiltinFunc(Cd)
	AllBuiltins[shell.BuiltinQuit] = ShellBuiltinFunc(Quit)
	AllBuiltins[shell.BuiltinAlias] = ShellBuiltinFunc(Alias)
	AllBuiltins[shell.BuiltinUnalias] = ShellBuiltinFunc(Unalias)
	AllBuiltins[shell.BuiltinPenv] = ShellBuiltinFunc(Penv)
	AllBuiltins[shell.BuiltinHistory] = ShellBuiltinFunc(History)
	AllBuiltins[shell.BuiltinHelp] = ShellBuiltinFunc(Help)
	AllBuiltins[shell.BuiltinWhich] = ShellBuiltinFunc(Which)
}
