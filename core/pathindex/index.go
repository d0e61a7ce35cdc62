// Package pathindex builds the shell's own index of the executables on PATH.
//
// The index is built once per session and never refreshed. Symbolic links
// are resolved to their canonical targets when the index is built, so every
// entry is an absolute path to a regular file.
package pathindex

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// EnvPath is the environment variable holding the search path.
const EnvPath = "PATH"

// ErrNoPath is returned by FromEnv when PATH isn't set at all.
var ErrNoPath = errors.New("PATH is not set")

type options struct {
	maxHops        int
	nonExecutables bool
	getwd          func() (string, error)
	logger         *log.Logger
}

// Option configures Build.
type Option func(*options)

// WithMaxHops sets the number of links followed for a single entry.
func WithMaxHops(n int) Option {
	return func(o *options) {
		o.maxHops = n
	}
}

// WithNonExecutables indexes regular files even if no execute bit is set.
func WithNonExecutables() Option {
	return func(o *options) {
		o.nonExecutables = true
	}
}

// WithGetwd sets the function used to anchor relative PATH entries.
func WithGetwd(getwd func() (string, error)) Option {
	return func(o *options) {
		o.getwd = getwd
	}
}

// WithLogger reports skipped directories and entries at debug level.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Index maps bare executable names to canonical absolute paths.
type Index struct {
	entries map[string]string
	dirs    []string
}

// Build scans every directory in pathVar, in order. The first directory
// providing a name wins. Directories that can't be read and links that can't
// be resolved are skipped.
func Build(fs afero.Fs, pathVar string, opts ...Option) *Index {
	o := options{
		maxHops: DefaultMaxHops,
		getwd:   os.Getwd,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(&o)
	}

	idx := &Index{entries: make(map[string]string)}
	for _, dir := range filepath.SplitList(pathVar) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		if !filepath.IsAbs(dir) {
			wd, err := o.getwd()
			if err != nil {
				o.logger.Debug("skipping relative PATH entry", "dir", dir, "err", err)
				continue
			}
			dir = filepath.Join(wd, dir)
		}
		idx.dirs = append(idx.dirs, dir)
		idx.scan(fs, dir, &o)
	}

	return idx
}

func (idx *Index) scan(fs afero.Fs, dir string, o *options) {
	canonicalDir, err := Resolve(fs, dir, o.maxHops)
	if err != nil {
		o.logger.Debug("skipping PATH directory", "dir", dir, "err", err)
		return
	}

	infos, err := afero.ReadDir(fs, canonicalDir)
	if err != nil {
		o.logger.Debug("skipping PATH directory", "dir", dir, "err", err)
		return
	}

	for _, info := range infos {
		name := info.Name()
		if _, ok := idx.entries[name]; ok {
			continue
		}

		fullPath := filepath.Join(canonicalDir, name)
		switch {
		case info.Mode().IsRegular():
		case info.Mode()&os.ModeSymlink != 0:
			target, err := Resolve(fs, fullPath, o.maxHops)
			if err != nil {
				o.logger.Debug("dropping link", "path", fullPath, "err", err)
				continue
			}
			if info, err = fs.Stat(target); err != nil {
				o.logger.Debug("dropping link", "path", fullPath, "err", err)
				continue
			}
			if !info.Mode().IsRegular() {
				continue
			}
			fullPath = target
		default:
			continue
		}

		if !o.nonExecutables && info.Mode().Perm()&0111 == 0 {
			continue
		}

		idx.entries[name] = fullPath
	}
}

// FromEnv builds the index from the PATH environment variable. It returns
// ErrNoPath if PATH is absent; an empty PATH is allowed.
func FromEnv(fs afero.Fs, opts ...Option) (*Index, error) {
	pathVar, ok := os.LookupEnv(EnvPath)
	if !ok {
		return nil, ErrNoPath
	}
	return Build(fs, pathVar, opts...), nil
}

// Has returns true if name is indexed.
func (idx *Index) Has(name string) bool {
	_, ok := idx.entries[name]
	return ok
}

// Get returns the absolute path of name.
func (idx *Index) Get(name string) (string, bool) {
	p, ok := idx.entries[name]
	return p, ok
}

// Names returns every indexed name in sorted order.
func (idx *Index) Names() []string {
	out := make([]string, 0, len(idx.entries))
	for k := range idx.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// NamesWithPrefix returns the sorted indexed names starting with prefix.
func (idx *Index) NamesWithPrefix(prefix string) []string {
	var out []string
	for _, name := range idx.Names() {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}

// Len returns the number of indexed names.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Dirs returns the absolute directories that were scanned, in PATH order.
func (idx *Index) Dirs() []string {
	return append([]string(nil), idx.dirs...)
}
