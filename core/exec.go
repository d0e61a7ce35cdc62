package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/josephlewis42/civa/core/logger"
	"github.com/josephlewis42/civa/core/shell"
)

// ErrExit is returned by builtins that end the shell. Groups after the one
// that returned it aren't run. Inside a pipeline it only ends that stage.
var ErrExit = errors.New("exit requested")

// IO holds the standard streams of a command.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Dispatcher runs builtin commands.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd *shell.Command, stdio IO) (int, error)
}

// Executor runs command groups one after another, wiring up pipelines
// between external processes and builtins.
type Executor struct {
	Builder  *shell.Builder
	Builtins Dispatcher
	Stdio    IO
	Logger   *log.Logger
	// Color enables ANSI colors in diagnostics.
	Color bool

	status int
	exited bool
}

// NewExecutor creates an executor with no status captured yet.
func NewExecutor(builder *shell.Builder, builtins Dispatcher, stdio IO, l *log.Logger) *Executor {
	if l == nil {
		l = logger.Discard()
	}

	return &Executor{
		Builder:  builder,
		Builtins: builtins,
		Stdio:    stdio,
		Logger:   l,
		status:   shell.StatusUnset,
	}
}

// Status returns the exit status of the last command that completed, or
// shell.StatusUnset if none has.
func (e *Executor) Status() int {
	return e.status
}

// Exited reports whether a command outside of a pipeline asked the shell to
// exit.
func (e *Executor) Exited() bool {
	return e.exited
}

// RunSequentially plans and runs each group in order. Aliases are expanded
// and commands resolved just before a group runs so earlier groups can
// change the outcome (e.g. with cd). A failing group prints a diagnostic
// and the next group still runs.
//
// The returned status is the one captured by the last group that
// completed during this call, StatusUnset if none did.
func (e *Executor) RunSequentially(ctx context.Context, groups [][]string) int {
	status := shell.StatusUnset
	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		expanded, err := e.Builder.ExpandAliases(group)
		if err != nil {
			e.report(group[0], err)
			continue
		}

		for _, g := range expanded {
			pipeline, err := e.Builder.BuildPipeline(g)
			if err != nil {
				e.report(g[0], err)
				continue
			}

			s, ok, exit := e.runPipeline(ctx, pipeline)
			if ok {
				status = s
			}
			if exit {
				return status
			}
		}
	}

	return status
}

// RunPipelines runs already resolved pipelines in order.
func (e *Executor) RunPipelines(ctx context.Context, pipelines []shell.Pipeline) int {
	status := shell.StatusUnset
	for _, p := range pipelines {
		if ctx.Err() != nil {
			break
		}

		s, ok, exit := e.runPipeline(ctx, p)
		if ok {
			status = s
		}
		if exit {
			break
		}
	}
	return status
}

// runPipeline returns the status of the last stage, whether a status was
// captured at all and whether the shell should exit.
func (e *Executor) runPipeline(ctx context.Context, p shell.Pipeline) (int, bool, bool) {
	if err := p.Validate(); err != nil {
		e.report(p.String(), err)
		return 0, false, false
	}

	for _, cmd := range p {
		if cmd.Strategy == shell.Undefined {
			e.report(cmd.Name, shell.Errorf(shell.CommandNotFound, "%s", cmd.Name))
			return 0, false, false
		}
	}

	defer e.ignoreInterrupts()()

	if len(p) == 1 {
		status, err := e.runSingle(ctx, p[0])
		return e.capture(p[0], status, err)
	}

	status, err := e.runChain(ctx, p)
	return e.capture(p[len(p)-1], status, err)
}

func (e *Executor) capture(cmd *shell.Command, status int, err error) (int, bool, bool) {
	switch {
	case errors.Is(err, ErrExit):
		e.status = status
		e.exited = true
		return status, true, true
	case err != nil:
		e.report(cmd.Name, err)
		return 0, false, false
	}

	e.Logger.Debug(logger.MsgExit, logger.KeyCommand, cmd.Name, logger.KeyStatus, status)
	e.status = status
	return status, true, false
}

func (e *Executor) runSingle(ctx context.Context, cmd *shell.Command) (int, error) {
	e.logExec(cmd, 0)

	if cmd.Strategy == shell.Builtin {
		return e.Builtins.Dispatch(ctx, cmd, e.Stdio)
	}

	proc, err := e.start(cmd, e.Stdio)
	if err != nil {
		return 0, err
	}
	return waitProcess(cmd, proc)
}

// stage is a started pipeline member. Exactly one of proc and done is set.
type stage struct {
	cmd    *shell.Command
	proc   *exec.Cmd
	done   chan builtinResult
	waited bool
	status int
	err    error
}

type builtinResult struct {
	status int
	err    error
}

func (s *stage) wait() (int, error) {
	if s.waited {
		return s.status, s.err
	}
	s.waited = true

	if s.proc != nil {
		s.status, s.err = waitProcess(s.cmd, s.proc)
	} else {
		res := <-s.done
		s.status, s.err = res.status, res.err
	}
	return s.status, s.err
}

func (s *stage) kill() {
	if s.proc != nil && s.proc.Process != nil {
		_ = s.proc.Process.Kill()
	}
}

// runChain connects the stages of p with pipes. Either every stage is
// started or, if one fails to start, the ones already running are killed.
// Every started stage is waited on before returning.
func (e *Executor) runChain(ctx context.Context, p shell.Pipeline) (int, error) {
	var stages []*stage
	defer func() {
		for _, s := range stages {
			s.wait()
		}
	}()

	var prevRead *os.File
	for i, cmd := range p {
		stdio := IO{Stdin: e.Stdio.Stdin, Stdout: e.Stdio.Stdout, Stderr: e.Stdio.Stderr}
		if prevRead != nil {
			stdio.Stdin = prevRead
		}

		var nextRead, write *os.File
		if i < len(p)-1 {
			r, w, err := os.Pipe()
			if err != nil {
				closeFile(prevRead)
				e.abort(stages)
				return 0, shell.WrapError(shell.SpawnFailed, err, "pipe after %s", cmd.Name)
			}
			nextRead, write = r, w
			stdio.Stdout = w
		}

		e.logExec(cmd, i)
		s, err := e.startStage(ctx, cmd, stdio, prevRead, write)
		if err != nil {
			closeFile(nextRead)
			e.abort(stages)
			return 0, err
		}
		stages = append(stages, s)
		prevRead = nextRead
	}

	for i, s := range stages[:len(stages)-1] {
		status, err := s.wait()
		if err != nil && !errors.Is(err, ErrExit) {
			e.Logger.Warn(logger.MsgFailed, logger.KeyCommand, s.cmd.Name, logger.KeyStage, i, logger.KeyKind, shell.KindOf(err).String(), logger.KeyError, err)
			continue
		}
		e.Logger.Debug(logger.MsgExit, logger.KeyCommand, s.cmd.Name, logger.KeyStage, i, logger.KeyStatus, status)
	}

	status, err := stages[len(stages)-1].wait()
	if errors.Is(err, ErrExit) {
		err = nil
	}
	return status, err
}

// startStage starts cmd, taking ownership of in and out which are closed in
// the parent once the stage no longer needs them.
func (e *Executor) startStage(ctx context.Context, cmd *shell.Command, stdio IO, in, out *os.File) (*stage, error) {
	if cmd.Strategy == shell.Builtin {
		done := make(chan builtinResult, 1)
		go func() {
			status, err := e.Builtins.Dispatch(ctx, cmd, stdio)
			closeFile(out)
			closeFile(in)
			done <- builtinResult{status: status, err: err}
		}()
		return &stage{cmd: cmd, done: done}, nil
	}

	proc, err := e.start(cmd, stdio)
	closeFile(out)
	closeFile(in)
	if err != nil {
		return nil, err
	}
	return &stage{cmd: cmd, proc: proc}, nil
}

func (e *Executor) abort(stages []*stage) {
	for _, s := range stages {
		s.kill()
	}
}

func (e *Executor) start(cmd *shell.Command, stdio IO) (*exec.Cmd, error) {
	proc := exec.Command(cmd.Name, cmd.Args...)
	if cmd.Arg0 != "" {
		proc.Args[0] = cmd.Arg0
	}
	proc.Stdin = stdio.Stdin
	proc.Stdout = stdio.Stdout
	proc.Stderr = stdio.Stderr

	if err := proc.Start(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, shell.WrapError(shell.CommandNotFound, err, "%s", cmd.Name)
		}
		return nil, shell.WrapError(shell.SpawnFailed, err, "%s", cmd.Name)
	}
	return proc, nil
}

func waitProcess(cmd *shell.Command, proc *exec.Cmd) (int, error) {
	err := proc.Wait()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exitErr):
		return exitStatus(exitErr.ProcessState), nil
	default:
		return 0, shell.WrapError(shell.WaitFailed, err, "%s", cmd.Name)
	}
}

// exitStatus follows the shell convention of 128+N for a child killed by
// signal N.
func exitStatus(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}

// ignoreInterrupts keeps terminal interrupts meant for children from
// killing the shell. Call the returned func to restore default handling.
func (e *Executor) ignoreInterrupts() func() {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigs, os.Interrupt, syscall.SIGQUIT)

	go func() {
		for {
			select {
			case sig := <-sigs:
				e.Logger.Debug("signal while running children", "signal", sig.String())
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

func (e *Executor) logExec(cmd *shell.Command, stage int) {
	e.Logger.Info(logger.MsgExec,
		logger.KeyCommand, cmd.Name,
		logger.KeyArgs, cmd.Args,
		logger.KeyStrategy, cmd.Strategy.String(),
		logger.KeyStage, stage,
	)
}

// report prints a one line diagnostic for err and logs it.
func (e *Executor) report(name string, err error) {
	e.Logger.Warn(logger.MsgFailed, logger.KeyCommand, name, logger.KeyKind, shell.KindOf(err).String(), logger.KeyError, err)
	fmt.Fprintln(e.Stdio.Stderr, FormatError(err, e.Color))
}

// FormatError renders err as a diagnostic line with the error kind
// highlighted.
func FormatError(err error, colorize bool) string {
	c := color.New(color.FgRed, color.Bold)
	if colorize {
		c.EnableColor()
	} else {
		c.DisableColor()
	}

	var shellErr *shell.Error
	if !errors.As(err, &shellErr) {
		return fmt.Sprintf("%s %s", c.Sprint("civa:"), err)
	}

	msg := shellErr.Msg
	if shellErr.Err != nil {
		if msg != "" {
			msg += ": "
		}
		msg += shellErr.Err.Error()
	}
	return fmt.Sprintf("%s %s", c.Sprintf("civa: %s:", shellErr.Kind), msg)
}

func closeFile(f *os.File) {
	if f != nil {
		_ = f.Close()
	}
}
