package prompt

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/josephlewis42/civa/core/config"
	"github.com/josephlewis42/civa/core/shell"
	"github.com/sebdah/goldie/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVCS struct {
	status VCSStatus
	ok     bool
}

func (f fakeVCS) Status(ctx context.Context, dir string) (VCSStatus, bool) {
	return f.status, f.ok
}

func newTestBar(status int) *Bar {
	return &Bar{
		Config: config.Default(afero.NewMemMapFs(), "/civa").Prompt,
		VCS:    fakeVCS{status: VCSStatus{Branch: "main", Ahead: 2}, ok: true},
		Getwd:  func() (string, error) { return "/home/test/src/civa", nil },
		Home:   "/home/test",
		User:   "test",
		Status: func() int { return status },
	}
}

func TestBar_Render(t *testing.T) {
	cases := map[string]struct {
		bar  *Bar
		want string
	}{
		"all components": {
			bar:  newTestBar(1),
			want: "test ~/src/civa (main +2) [1] > ",
		},
		"success hides status": {
			bar:  newTestBar(0),
			want: "test ~/src/civa (main +2) > ",
		},
		"unset hides status": {
			bar:  newTestBar(shell.StatusUnset),
			want: "test ~/src/civa (main +2) > ",
		},
		"outside repository": {
			bar: func() *Bar {
				b := newTestBar(0)
				b.VCS = fakeVCS{}
				return b
			}(),
			want: "test ~/src/civa > ",
		},
		"nothing ahead": {
			bar: func() *Bar {
				b := newTestBar(0)
				b.VCS = fakeVCS{status: VCSStatus{Branch: "dev"}, ok: true}
				return b
			}(),
			want: "test ~/src/civa (dev) > ",
		},
		"at home": {
			bar: func() *Bar {
				b := newTestBar(0)
				b.VCS = nil
				b.Getwd = func() (string, error) { return "/home/test", nil }
				return b
			}(),
			want: "test ~ > ",
		},
		"home prefix of sibling": {
			bar: func() *Bar {
				b := newTestBar(0)
				b.VCS = nil
				b.Getwd = func() (string, error) { return "/home/tester", nil }
				return b
			}(),
			want: "test /home/tester > ",
		},
		"no working directory": {
			bar: func() *Bar {
				b := newTestBar(0)
				b.Getwd = func() (string, error) { return "", errors.New("gone") }
				return b
			}(),
			want: "test ? > ",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.bar.Render(context.Background()))
		})
	}
}

func TestBar_Render_color(t *testing.T) {
	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)

	bar := newTestBar(1)
	bar.Color = true

	g.Assert(t, "default", []byte(bar.Render(context.Background())))
}

func TestGit_Status(t *testing.T) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	git := &Git{Path: gitPath}

	t.Run("not a repository", func(t *testing.T) {
		_, ok := git.Status(context.Background(), dir)
		assert.False(t, ok)
	})

	t.Run("repository", func(t *testing.T) {
		for _, args := range [][]string{
			{"init", "-q"},
			{"-c", "user.name=civa", "-c", "user.email=civa@example.com", "commit", "-q", "--allow-empty", "-m", "init"},
			{"checkout", "-q", "-b", "trunk"},
		} {
			cmd := exec.Command(gitPath, append([]string{"-C", dir}, args...)...)
			cmd.Env = append(os.Environ(), "GIT_CONFIG_NOSYSTEM=1", "GIT_CONFIG_GLOBAL=/dev/null")
			out, err := cmd.CombinedOutput()
			require.NoError(t, err, string(out))
		}

		status, ok := git.Status(context.Background(), dir)
		assert.True(t, ok)
		assert.Equal(t, VCSStatus{Branch: "trunk"}, status)
	})
}

func TestCountAhead(t *testing.T) {
	out := []byte("+ 1a2b\n- 3c4d\n+ 5e6f\n")
	assert.Equal(t, 2, countAhead(out))
	assert.Equal(t, 0, countAhead(nil))
}
