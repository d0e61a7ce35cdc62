package pathindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	fs, dir := linkTree(t)
	target := filepath.Join(dir, "real", "tool")

	require.NoError(t, os.Symlink("real", filepath.Join(dir, "alias-dir")))
	require.NoError(t, os.Symlink("../alias-dir/tool", filepath.Join(dir, "bin", "through-dir")))
	require.NoError(t, os.Symlink("cycle", filepath.Join(dir, "bin", "cycle")))

	cases := map[string]struct {
		name    string
		want    string
		wantErr error
	}{
		"plain file":        {name: target, want: target},
		"dot components":    {name: filepath.Join(dir, ".", "real", ".", "tool"), want: target},
		"dotdot components": {name: filepath.Join(dir, "bin") + "/../real/tool", want: target},
		"linked directory":  {name: filepath.Join(dir, "alias-dir", "tool"), want: target},
		"link through link": {name: filepath.Join(dir, "bin", "through-dir"), want: target},
		"missing":           {name: filepath.Join(dir, "missing"), wantErr: os.ErrNotExist},
		"cycle":             {name: filepath.Join(dir, "bin", "cycle"), wantErr: ErrTooManyLinks},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			got, err := Resolve(fs, tc.name, DefaultMaxHops)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolve_relative(t *testing.T) {
	fs, dir := linkTree(t)
	t.Chdir(filepath.Join(dir, "bin"))

	got, err := Resolve(fs, "../real/tool", DefaultMaxHops)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "real", "tool"), got)
}

func TestResolve_noLinkSupport(t *testing.T) {
	fs, dir := linkTree(t)
	require.NoError(t, os.Symlink("real", filepath.Join(dir, "linked")))

	// Hide OsFs's link support behind a filesystem wrapper that only exposes
	// afero.Fs and afero.Lstater.
	wrapped := struct {
		afero.Fs
		afero.Lstater
	}{fs, fs.(afero.Lstater)}

	_, err := Resolve(wrapped, filepath.Join(dir, "linked", "tool"), DefaultMaxHops)
	assert.ErrorIs(t, err, ErrLinksUnsupported)
}
