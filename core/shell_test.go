package core

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/josephlewis42/civa/core/logger"
	"github.com/josephlewis42/civa/core/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShell_RunScript(t *testing.T) {
	requireCommands(t, "echo")

	var logs bytes.Buffer
	l, err := logger.New(&logs, "debug")
	require.NoError(t, err)

	s, stdout, stderr := newTestShell(t)
	s.logger = l
	s.executor.Logger = l

	script := strings.Join([]string{
		"# comment",
		"",
		"echo one",
		"alias two 'echo two'",
		"two",
		"exit 5",
		"echo unreachable",
	}, "\n")

	require.NoError(t, s.RunScript(context.Background(), strings.NewReader(script)))
	assert.True(t, s.Exited())
	assert.Equal(t, 5, s.ExitStatus())
	assert.Equal(t, "one\ntwo\n", stdout.String())
	assert.Empty(t, stderr.String())
	assert.Equal(t, []string{"# comment", "echo one", "alias two 'echo two'", "two", "exit 5"}, s.history)

	report := logger.NewReport()
	require.NoError(t, logger.ReadJSONLinesLog(&logs, report.Update, report.Invalid))
	assert.Equal(t, 0, report.InvalidEntries)
	assert.Equal(t, 1, report.Commands.Get("alias"))
}

func TestShell_RunLine_skips(t *testing.T) {
	s, stdout, stderr := newTestShell(t)

	for _, line := range []string{"", "   ", "# echo hi", ";;", "|"} {
		assert.Equal(t, shell.StatusUnset, s.RunLine(context.Background(), line), line)
	}
	assert.Empty(t, stdout.String())
	assert.NotContains(t, stderr.String(), "command not found")
}

func TestShell_RunInteractive_requiresReadline(t *testing.T) {
	s, _, _ := newTestShell(t)
	assert.Error(t, s.RunInteractive(context.Background()))
}
