package alias

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"regexp"
	"strings"

	"github.com/josephlewis42/civa/core/shell"
	"github.com/spf13/afero"
)

var (
	// alias NAME = "COMMAND" or alias NAME='COMMAND'; everything between the
	// first and the last quote is the command.
	definitionRegex = regexp.MustCompile(`^alias\s+([A-Za-z0-9._:-]+)\s*=\s*["'](.*)["']`)
	nameRegex       = regexp.MustCompile(`^[A-Za-z0-9._:-]+$`)
)

// ParseError is returned for a line that isn't a comment, blank or an alias
// definition.
type ParseError struct {
	Line int
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("error on line %d: %q", e.Line, e.Text)
}

// ValidName returns true if name can be stored in an alias file.
func ValidName(name string) bool {
	return nameRegex.MatchString(name)
}

// Parse reads alias definitions, one per line. Blank lines and lines starting
// with "#" are skipped. Any malformed line fails the whole parse.
func Parse(r io.Reader) (*Table, error) {
	out := NewTable()

	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		match := definitionRegex.FindStringSubmatch(line)
		if match == nil {
			return nil, &ParseError{Line: lineNo, Text: line}
		}
		out.Define(match[1], match[2])
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Load reads the alias file at path. A missing file is an empty table.
// Malformed files are reported as shell.ConfigError.
func Load(fs afero.Fs, path string) (*Table, error) {
	fd, err := fs.Open(path)
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		return NewTable(), nil
	case err != nil:
		return nil, shell.WrapError(shell.ConfigError, err, "couldn't open alias file")
	}
	defer fd.Close()

	table, err := Parse(fd)
	if err != nil {
		return nil, shell.WrapError(shell.ConfigError, err, "alias file %s", path)
	}
	return table, nil
}

// Save writes the table in the format read by Parse.
func Save(fs afero.Fs, path string, t *Table) error {
	var sb strings.Builder
	if err := t.Format(&sb); err != nil {
		return err
	}
	return afero.WriteFile(fs, path, []byte(sb.String()), 0600)
}
