// Package prompt renders the status bar shown before each line of input.
package prompt

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/josephlewis42/civa/core/config"
	"github.com/josephlewis42/civa/core/shell"
)

// vcsTimeout bounds how long a slow repository can delay the prompt.
const vcsTimeout = 500 * time.Millisecond

var (
	colors = map[string]color.Attribute{
		"black":   color.FgBlack,
		"red":     color.FgRed,
		"green":   color.FgGreen,
		"yellow":  color.FgYellow,
		"blue":    color.FgBlue,
		"magenta": color.FgMagenta,
		"cyan":    color.FgCyan,
		"white":   color.FgWhite,
	}

	styles = map[string]color.Attribute{
		"bold":      color.Bold,
		"italic":    color.Italic,
		"underline": color.Underline,
	}
)

// Bar renders the configured prompt components.
type Bar struct {
	Config config.Prompt

	// VCS may be nil to skip vcs components.
	VCS   VCS
	Getwd func() (string, error)
	// Home is abbreviated to ~ in the working directory.
	Home string
	User string
	// Status returns the last exit status.
	Status func() int
	// Color enables ANSI colors.
	Color bool
}

// Render returns the prompt text.
func (b *Bar) Render(ctx context.Context) string {
	var sb strings.Builder
	for _, c := range b.Config.Components {
		text := b.componentText(ctx, c.Type)
		if text == "" {
			continue
		}

		sb.WriteString(b.paint(c.Color, c.Style, c.Surround.Left+text+c.Surround.Right))
	}

	sb.WriteString(b.paint(b.Config.Symbol.Color, b.Config.Symbol.Style, b.Config.Symbol.Text))
	return sb.String()
}

func (b *Bar) componentText(ctx context.Context, kind string) string {
	switch kind {
	case "cwd":
		return b.cwd()
	case "user":
		return b.User
	case "vcs":
		return b.vcs(ctx)
	case "status":
		if b.Status == nil {
			return ""
		}
		if status := b.Status(); status != 0 && status != shell.StatusUnset {
			return strconv.Itoa(status)
		}
	}
	return ""
}

func (b *Bar) cwd() string {
	if b.Getwd == nil {
		return ""
	}
	wd, err := b.Getwd()
	if err != nil {
		return "?"
	}

	if b.Home != "" && (wd == b.Home || strings.HasPrefix(wd, b.Home+"/")) {
		return "~" + strings.TrimPrefix(wd, b.Home)
	}
	return wd
}

func (b *Bar) vcs(ctx context.Context) string {
	if b.VCS == nil || b.Getwd == nil {
		return ""
	}
	wd, err := b.Getwd()
	if err != nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, vcsTimeout)
	defer cancel()

	status, ok := b.VCS.Status(ctx, wd)
	if !ok {
		return ""
	}
	if status.Ahead > 0 {
		return fmt.Sprintf("%s +%d", status.Branch, status.Ahead)
	}
	return status.Branch
}

func (b *Bar) paint(colorName, style, text string) string {
	var attrs []color.Attribute
	if a, ok := colors[colorName]; ok {
		attrs = append(attrs, a)
	}
	if a, ok := styles[style]; ok {
		attrs = append(attrs, a)
	}

	c := color.New(attrs...)
	if b.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(text)
}
