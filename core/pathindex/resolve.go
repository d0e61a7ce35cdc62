package pathindex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// DefaultMaxHops is the number of symbolic links Resolve follows before
// giving up, matching Linux's MAXSYMLINKS.
const DefaultMaxHops = 40

var (
	// ErrTooManyLinks is returned when resolution exceeds the hop limit,
	// usually because of a cycle.
	ErrTooManyLinks = errors.New("too many levels of symbolic links")

	// ErrLinksUnsupported is returned when a link is found on a filesystem
	// that can't read links.
	ErrLinksUnsupported = errors.New("filesystem can't read symbolic links")
)

// Resolve returns the canonical absolute path of name with every symbolic
// link in it replaced by its target. Relative names are resolved against the
// working directory.
func Resolve(fs afero.Fs, name string, maxHops int) (string, error) {
	if !filepath.IsAbs(name) {
		abs, err := filepath.Abs(name)
		if err != nil {
			return "", err
		}
		name = abs
	}

	resolved := "/"
	remaining := splitComponents(name)
	hops := 0

	for len(remaining) > 0 {
		part := remaining[0]
		remaining = remaining[1:]

		switch part {
		case ".":
			continue
		case "..":
			resolved = filepath.Dir(resolved)
			continue
		}

		next := filepath.Join(resolved, part)
		info, err := lstat(fs, next)
		if err != nil {
			return "", err
		}

		if info.Mode()&os.ModeSymlink == 0 {
			resolved = next
			continue
		}

		hops++
		if hops > maxHops {
			return "", &os.PathError{Op: "resolve", Path: name, Err: ErrTooManyLinks}
		}

		target, err := readlink(fs, next)
		if err != nil {
			return "", err
		}

		if filepath.IsAbs(target) {
			resolved = "/"
		}
		remaining = append(splitComponents(target), remaining...)
	}

	return resolved, nil
}

func splitComponents(p string) []string {
	var out []string
	for _, part := range strings.Split(p, "/") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func lstat(fs afero.Fs, name string) (os.FileInfo, error) {
	if lstater, ok := fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(name)
		return info, err
	}
	return fs.Stat(name)
}

func readlink(fs afero.Fs, name string) (string, error) {
	reader, ok := fs.(afero.LinkReader)
	if !ok {
		return "", fmt.Errorf("readlink %s: %w", name, ErrLinksUnsupported)
	}
	return reader.ReadlinkIfPossible(name)
}
