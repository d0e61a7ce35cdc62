package prompt

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// VCSStatus describes the repository containing a directory.
type VCSStatus struct {
	Branch string
	// Ahead is the number of local commits not upstream.
	Ahead int
}

// VCS reports the repository state of a directory. ok is false outside of a
// repository.
type VCS interface {
	Status(ctx context.Context, dir string) (status VCSStatus, ok bool)
}

// Git implements VCS by shelling out to the git CLI.
type Git struct {
	// Path to git, "git" if empty.
	Path string
}

var _ VCS = (*Git)(nil)

func (g *Git) run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	path := g.Path
	if path == "" {
		path = "git"
	}

	cmd := exec.CommandContext(ctx, path, append([]string{"-C", dir}, args...)...)
	return cmd.Output()
}

// Status implements VCS.Status.
func (g *Git) Status(ctx context.Context, dir string) (VCSStatus, bool) {
	out, err := g.run(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return VCSStatus{}, false
	}

	status := VCSStatus{Branch: strings.TrimSpace(string(out))}

	// git cherry fails without an upstream; that just means nothing is ahead.
	if out, err := g.run(ctx, dir, "cherry"); err == nil {
		status.Ahead = countAhead(out)
	}

	return status, true
}

// countAhead counts "+ <sha>" lines in git cherry output.
func countAhead(out []byte) int {
	n := 0
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "+") {
			n++
		}
	}
	return n
}
