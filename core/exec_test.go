package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/josephlewis42/civa/core/alias"
	"github.com/josephlewis42/civa/core/pathindex"
	"github.com/josephlewis42/civa/core/shell"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is written by processes and builtin goroutines at once.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func requireCommands(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not installed", name)
		}
	}
}

func newTestShell(t *testing.T) (*Shell, *syncBuffer, *syncBuffer) {
	t.Helper()

	idx, err := pathindex.FromEnv(afero.NewOsFs())
	require.NoError(t, err)

	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	s := NewShell(Options{
		Aliases: alias.NewTable(),
		Paths:   idx,
		Stdio: IO{
			Stdin:  strings.NewReader(""),
			Stdout: stdout,
			Stderr: stderr,
		},
	})
	t.Cleanup(func() { s.Close() })

	return s, stdout, stderr
}

func TestExecutor_pipelineMatchesDirect(t *testing.T) {
	requireCommands(t, "ls", "cat")

	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", ".hidden"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	t.Chdir(dir)

	direct, directOut, _ := newTestShell(t)
	piped, pipedOut, pipedErr := newTestShell(t)

	assert.Equal(t, 0, direct.RunLine(context.Background(), "ls -a ."))
	assert.Equal(t, 0, piped.RunLine(context.Background(), "ls -a . | cat"))

	assert.Equal(t, directOut.String(), pipedOut.String())
	assert.Contains(t, pipedOut.String(), ".hidden")
	assert.Empty(t, pipedErr.String())
}

func TestExecutor_RunSequentially(t *testing.T) {
	requireCommands(t, "echo", "true", "false", "cat", "sh")

	cases := map[string]struct {
		line       string
		wantStatus int
		wantOut    string
		wantErr    string
	}{
		"not found then echo": {
			line:       "doesnotexist ; echo hi",
			wantStatus: 0,
			wantOut:    "hi\n",
			wantErr:    "command not found: doesnotexist",
		},
		"false": {
			line:       "false",
			wantStatus: 1,
		},
		"failure keeps status": {
			line:       "false; doesnotexist",
			wantStatus: 1,
			wantErr:    "command not found",
		},
		"every delimiter runs": {
			line:       "false && echo a || echo b",
			wantStatus: 0,
			wantOut:    "a\nb\n",
		},
		"last stage status": {
			line:       "echo hi | cat | false",
			wantStatus: 1,
		},
		"failing middle stage": {
			line:       "echo hi | false | cat",
			wantStatus: 0,
		},
		"undefined middle stage spawns nothing": {
			line:       "echo hi | doesnotexist | cat",
			wantStatus: shell.StatusUnset,
			wantErr:    "command not found: doesnotexist",
		},
		"last status expands": {
			line:       "false; echo $?",
			wantStatus: 0,
			wantOut:    "1\n",
		},
		"signalled child": {
			line:       "sh -c 'kill -9 $$'",
			wantStatus: 128 + 9,
		},
		"quoted delimiter is a word": {
			line:       `echo "a;b"`,
			wantStatus: 0,
			wantOut:    "a;b\n",
		},
		"exit stops the line": {
			line:       "exit 3; echo unreachable",
			wantStatus: 3,
		},
		"parse error": {
			line:       `echo "unterminated`,
			wantStatus: shell.StatusUnset,
			wantErr:    "parse error",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			s, stdout, stderr := newTestShell(t)

			assert.Equal(t, tc.wantStatus, s.RunLine(context.Background(), tc.line))
			assert.Equal(t, tc.wantOut, stdout.String())
			if tc.wantErr == "" {
				assert.Empty(t, stderr.String())
			} else {
				assert.Contains(t, stderr.String(), tc.wantErr)
			}
		})
	}
}

func TestExecutor_statusBeforeAnyCommand(t *testing.T) {
	s, _, _ := newTestShell(t)
	assert.Equal(t, shell.StatusUnset, s.Status())
	assert.Equal(t, 0, s.ExitStatus())
}

func TestExecutor_builtinStage(t *testing.T) {
	requireCommands(t, "cat", "echo")
	t.Setenv("CIVA_TEST", "/usr/bin:/bin")

	t.Run("first", func(t *testing.T) {
		s, stdout, stderr := newTestShell(t)

		assert.Equal(t, 0, s.RunLine(context.Background(), "penv CIVA_TEST | cat"))
		assert.Equal(t, "CIVA_TEST (2)\n1  /usr/bin\n2  /bin\n", stdout.String())
		assert.Empty(t, stderr.String())
	})

	t.Run("last", func(t *testing.T) {
		s, stdout, _ := newTestShell(t)

		assert.Equal(t, 0, s.RunLine(context.Background(), "echo ignored | penv CIVA_TEST"))
		assert.Equal(t, "CIVA_TEST (2)\n1  /usr/bin\n2  /bin\n", stdout.String())
	})

	t.Run("builtin error in pipeline", func(t *testing.T) {
		s, stdout, stderr := newTestShell(t)

		s.RunLine(context.Background(), "true")
		assert.Equal(t, 0, s.RunLine(context.Background(), "echo hi | unalias nope"))
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "builtin error: unalias: nope: not found")
	})
}

func TestExecutor_spawnFailed(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("script", []byte("#!/bin/sh\necho hi\n"), 0644))

	s, stdout, stderr := newTestShell(t)
	assert.Equal(t, shell.StatusUnset, s.RunLine(context.Background(), "./script"))
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "spawn failed")
}

func TestExecutor_spawnFailedMidChain(t *testing.T) {
	requireCommands(t, "yes", "cat", "echo")

	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("noexec", []byte("#!/bin/sh\ncat\n"), 0644))

	s, stdout, stderr := newTestShell(t)

	done := make(chan int, 1)
	go func() {
		done <- s.RunLine(context.Background(), "yes | ./noexec | cat; echo after")
	}()

	select {
	case status := <-done:
		assert.Equal(t, 0, status)
	case <-time.After(10 * time.Second):
		t.Fatal("pipeline with a stage that can't start never finished")
	}
	assert.Equal(t, "after\n", stdout.String())
	assert.Contains(t, stderr.String(), "spawn failed")
}

func TestExecutor_symlinkKeepsTypedName(t *testing.T) {
	requireCommands(t, "sh")

	target, err := exec.LookPath("sh")
	require.NoError(t, err)

	bin := t.TempDir()
	require.NoError(t, os.Symlink(target, filepath.Join(bin, "mysh")))
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))

	s, stdout, stderr := newTestShell(t)
	assert.Equal(t, 0, s.RunLine(context.Background(), `mysh -c 'echo $0'`))
	assert.Equal(t, "mysh\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestExecutor_exitInPipeline(t *testing.T) {
	requireCommands(t, "cat", "echo")

	cases := map[string]struct {
		line       string
		wantStatus int
		wantOut    string
	}{
		"first stage": {
			line:       "exit 4 | cat; echo after",
			wantStatus: 0,
			wantOut:    "after\n",
		},
		"last stage": {
			line:       "echo hi | exit 5",
			wantStatus: 5,
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			s, stdout, stderr := newTestShell(t)

			assert.Equal(t, tc.wantStatus, s.RunLine(context.Background(), tc.line))
			assert.False(t, s.Exited())
			assert.Equal(t, tc.wantOut, stdout.String())
			assert.Empty(t, stderr.String())
		})
	}
}

func TestExecutor_relativeCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("script", []byte("#!/bin/sh\necho \"$@\"\nexit 4\n"), 0755))

	s, stdout, stderr := newTestShell(t)
	assert.Equal(t, 4, s.RunLine(context.Background(), "./script one 'two three'"))
	assert.Equal(t, "one two three\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestExecutor_alias(t *testing.T) {
	requireCommands(t, "echo")

	s, stdout, stderr := newTestShell(t)
	ctx := context.Background()

	s.RunLine(ctx, "alias greet 'echo hello'")
	s.RunLine(ctx, "greet world")
	assert.Equal(t, "hello world\n", stdout.String())

	s.RunLine(ctx, "alias a b; alias b a")
	s.RunLine(ctx, "a")
	assert.Contains(t, stderr.String(), "alias cycle: a -> b -> a")
}

func TestExecutor_RunPipelines(t *testing.T) {
	requireCommands(t, "echo", "cat")

	s, stdout, _ := newTestShell(t)
	echo, _ := exec.LookPath("echo")
	cat, _ := exec.LookPath("cat")

	pipelines := []shell.Pipeline{
		{
			{Name: echo, Args: []string{"piped"}, Strategy: shell.AbsolutePathCommand, Role: shell.PipeFirst},
			{Name: cat, Strategy: shell.AbsolutePathCommand, Role: shell.PipeLast},
		},
		{
			{Name: "nope", Strategy: shell.Undefined},
		},
	}

	assert.Equal(t, 0, s.executor.RunPipelines(context.Background(), pipelines))
	assert.Equal(t, "piped\n", stdout.String())
}

func TestFormatError(t *testing.T) {
	cases := map[string]struct {
		err  error
		want string
	}{
		"shell error": {
			err:  shell.Errorf(shell.CommandNotFound, "nope"),
			want: "civa: command not found: nope",
		},
		"wrapped": {
			err:  shell.WrapError(shell.SpawnFailed, errors.New("permission denied"), "./script"),
			want: "civa: spawn failed: ./script: permission denied",
		},
		"plain": {
			err:  errors.New("boom"),
			want: "civa: boom",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatError(tc.err, false))
		})
	}

	assert.Equal(t, "\x1b[31;1mciva: command not found:\x1b[0m nope", FormatError(cases["shell error"].err, true))
}
