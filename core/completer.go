package core

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/civa/core/alias"
	"github.com/josephlewis42/civa/core/pathindex"
	"github.com/josephlewis42/civa/core/shell"
	"github.com/spf13/afero"
)

// Completer completes command names in command position and file names
// everywhere else.
type Completer struct {
	Aliases *alias.Table
	Paths   *pathindex.Index
	// Fs holds the files to complete, the OS filesystem if nil.
	Fs afero.Fs
	// Getwd is used to find relative files.
	Getwd func() (string, error)
}

var _ readline.AutoCompleter = (*Completer)(nil)

// Do implements readline.AutoCompleter. Candidates are the text to insert
// after the word under the cursor, length is the size of that word.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	before := string(line[:pos])
	start := strings.LastIndexAny(before, " \t;|&") + 1
	word := before[start:]

	var names []string
	if isCommandPosition(before[:start]) {
		names = c.commands(word)
	} else {
		names = c.files(word)
	}

	out := make([][]rune, 0, len(names))
	for _, name := range names {
		out = append(out, []rune(strings.TrimPrefix(name, word)))
	}
	return out, len([]rune(word))
}

// isCommandPosition reports whether the next word starts a command.
func isCommandPosition(prefix string) bool {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return true
	}

	for _, op := range []string{";", "&&", "||", "|"} {
		if strings.HasSuffix(prefix, op) {
			return true
		}
	}
	return false
}

func (c *Completer) commands(prefix string) []string {
	if strings.ContainsRune(prefix, '/') {
		return c.files(prefix)
	}

	seen := make(map[string]bool)
	add := func(name string) {
		if strings.HasPrefix(name, prefix) {
			seen[name] = true
		}
	}

	for _, name := range shell.BuiltinNames() {
		add(name)
	}
	if c.Aliases != nil {
		for _, name := range c.Aliases.Names() {
			add(name)
		}
	}
	if c.Paths != nil {
		for _, name := range c.Paths.NamesWithPrefix(prefix) {
			add(name)
		}
	}

	var out []string
	for name := range seen {
		out = append(out, name+" ")
	}
	sort.Strings(out)
	return out
}

func (c *Completer) files(prefix string) []string {
	dir, base := filepath.Split(prefix)

	search := dir
	if search == "" {
		search = "."
	}
	if !filepath.IsAbs(search) && c.Getwd != nil {
		if wd, err := c.Getwd(); err == nil {
			search = filepath.Join(wd, search)
		}
	}

	fs := c.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	entries, err := afero.ReadDir(fs, search)
	if err != nil {
		return nil
	}

	var out []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		// Hidden files only when asked for.
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}

		if entry.IsDir() {
			out = append(out, dir+name+"/")
		} else {
			out = append(out, dir+name+" ")
		}
	}
	sort.Strings(out)
	return out
}
