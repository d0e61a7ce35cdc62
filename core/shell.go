package core

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/abiosoft/readline"
	"github.com/charmbracelet/log"
	"github.com/josephlewis42/civa/core/alias"
	"github.com/josephlewis42/civa/core/config"
	"github.com/josephlewis42/civa/core/logger"
	"github.com/josephlewis42/civa/core/pathindex"
	"github.com/josephlewis42/civa/core/prompt"
	"github.com/josephlewis42/civa/core/shell"
	"github.com/spf13/afero"
)

// Options configures a new Shell.
type Options struct {
	Config  *config.Configuration
	Aliases *alias.Table
	Paths   *pathindex.Index
	Logger  *log.Logger
	Stdio   IO

	// Home and User are shown in the prompt.
	Home string
	User string
	// Color enables ANSI colors in the prompt and diagnostics.
	Color bool
}

// Shell reads lines and runs them.
type Shell struct {
	config  *config.Configuration
	aliases *alias.Table
	paths   *pathindex.Index
	logger  *log.Logger
	stdio   IO
	color   bool

	builder  *shell.Builder
	executor *Executor
	bar      *prompt.Bar
	readline *readline.Instance

	history   []string
	toClose   listCloser
	closeOnce sync.Once
	closeErr  error
}

// NewShell wires together the pieces of a shell. Call EnableReadline
// before RunInteractive.
func NewShell(opts Options) *Shell {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Aliases == nil {
		opts.Aliases = alias.NewTable()
	}
	if opts.Paths == nil {
		opts.Paths = &pathindex.Index{}
	}
	if opts.Config == nil {
		opts.Config = config.Default(afero.NewMemMapFs(), "")
	}

	s := &Shell{
		config:  opts.Config,
		aliases: opts.Aliases,
		paths:   opts.Paths,
		logger:  opts.Logger,
		stdio:   opts.Stdio,
		color:   opts.Color,
	}

	s.builder = &shell.Builder{
		Resolver:      shell.Resolver{Paths: opts.Paths},
		Aliases:       opts.Aliases,
		MaxAliasDepth: opts.Config.MaxAliasDepth,
	}
	s.executor = NewExecutor(s.builder, s, opts.Stdio, opts.Logger)
	s.executor.Color = opts.Color
	s.builder.Status = s.executor.Status

	s.bar = &prompt.Bar{
		Config: opts.Config.Prompt,
		VCS:    &prompt.Git{},
		Getwd:  os.Getwd,
		Home:   opts.Home,
		User:   opts.User,
		Status: s.executor.Status,
		Color:  opts.Color,
	}

	return s
}

// EnableReadline sets up line editing on the shell's streams. width reports
// the terminal width.
func (s *Shell) EnableReadline(width func() int) error {
	stdin, ok := s.stdio.Stdin.(io.ReadCloser)
	if !ok {
		stdin = io.NopCloser(s.stdio.Stdin)
	}

	var historyFile string
	if s.config.Dir() != "" {
		historyFile = s.config.HistoryPath()
	}

	cfg := &readline.Config{
		Stdin:        readline.NewCancelableStdin(stdin),
		Stdout:       s.stdio.Stdout,
		Stderr:       s.stdio.Stderr,
		HistoryFile:  historyFile,
		HistoryLimit: s.config.HistoryLimit,
		AutoComplete: &Completer{
			Aliases: s.aliases,
			Paths:   s.paths,
			Getwd:   os.Getwd,
		},
		FuncGetWidth:    width,
		InterruptPrompt: "^C",
	}

	if err := cfg.Init(); err != nil {
		return err
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return err
	}

	s.readline = rl
	s.toClose = append(s.toClose, rl)
	return nil
}

// Exited reports whether a builtin asked the shell to stop.
func (s *Shell) Exited() bool {
	return s.executor.Exited()
}

// Status returns the status of the last command, shell.StatusUnset if none
// has completed.
func (s *Shell) Status() int {
	return s.executor.Status()
}

// ExitStatus is the status the shell process should exit with.
func (s *Shell) ExitStatus() int {
	if status := s.executor.Status(); status != shell.StatusUnset {
		return status
	}
	return 0
}

// RunLine splits line into groups and runs them. Blank lines and comments
// are skipped.
func (s *Shell) RunLine(ctx context.Context, line string) int {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return s.Status()
	}

	groups, err := shell.SplitCommands(line)
	if err != nil {
		s.executor.report(trimmed, err)
		return s.Status()
	}

	s.executor.RunSequentially(ctx, groups)
	return s.Status()
}

// RunInteractive reads lines with the line editor until EOF, an exit
// builtin or ctx is done.
func (s *Shell) RunInteractive(ctx context.Context) error {
	if s.readline == nil {
		return errors.New("readline isn't enabled")
	}

	s.logger.Info(logger.MsgSessionStart)
	defer func() {
		s.logger.Info(logger.MsgSessionEnd, logger.KeyStatus, s.ExitStatus())
	}()

	for !s.Exited() && ctx.Err() == nil {
		s.readline.SetPrompt(s.bar.Render(ctx))
		line, err := s.readline.Readline()

		switch {
		case err == io.EOF:
			return nil // Input closed, quit.

		case err == readline.ErrInterrupt:
			continue

		case err != nil:
			return err

		case strings.TrimSpace(line) == "":
			continue

		default:
			s.history = append(s.history, line)
			s.RunLine(ctx, line)
		}
	}

	return nil
}

// RunScript runs each line of r without prompting.
func (s *Shell) RunScript(ctx context.Context, r io.Reader) error {
	s.logger.Info(logger.MsgSessionStart)
	defer func() {
		s.logger.Info(logger.MsgSessionEnd, logger.KeyStatus, s.ExitStatus())
	}()

	scanner := bufio.NewScanner(r)
	for !s.Exited() && ctx.Err() == nil && scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) != "" {
			s.history = append(s.history, line)
		}
		s.RunLine(ctx, line)
	}
	return scanner.Err()
}

// ClearHistory forgets this session's history, including the line
// editor's copy.
func (s *Shell) ClearHistory() {
	s.history = nil
	if s.readline != nil {
		s.readline.Operation.ResetHistory()
	}
}

// AddCloser registers c to be closed with the shell.
func (s *Shell) AddCloser(c io.Closer) {
	s.toClose = append(s.toClose, c)
}

// Close releases the line editor and anything added with AddCloser. It's
// safe to call more than once.
func (s *Shell) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.toClose.Close()
	})
	return s.closeErr
}

type listCloser []io.Closer

func (lc listCloser) Close() error {
	var lastErr error
	for _, v := range lc {
		if err := v.Close(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}
