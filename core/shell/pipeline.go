package shell

import (
	"os"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// AliasTable looks up alias replacements.
type AliasTable interface {
	Lookup(name string) (string, bool)
}

// DefaultMaxAliasDepth is the number of nested aliases that may be expanded
// for a single command.
const DefaultMaxAliasDepth = 16

// Builder turns raw token groups into resolved pipelines.
type Builder struct {
	Resolver Resolver

	// Aliases may be nil to disable alias expansion.
	Aliases AliasTable
	// MaxAliasDepth defaults to DefaultMaxAliasDepth if zero.
	MaxAliasDepth int

	// Getenv is used for parameter expansion, os.Getenv if nil.
	Getenv func(string) string
	// Status returns the value of $?.
	Status func() int
}

// BuildPipeline splits a group on pipes and resolves each command. Empty
// stages are skipped. A single surviving command gets role PipeNone.
func (b *Builder) BuildPipeline(group []string) (Pipeline, error) {
	var stages [][]string
	var current []string
	for _, tok := range group {
		if IsPipe(tok) {
			stages = append(stages, current)
			current = nil
			continue
		}
		current = append(current, tok)
	}
	stages = append(stages, current)

	var out Pipeline
	for _, stage := range stages {
		if len(stage) == 0 {
			continue
		}

		argv, err := b.expandWords(stage)
		if err != nil {
			return nil, err
		}

		cmd := &Command{Name: argv[0], Args: argv[1:]}
		if err := b.Resolver.ResolveCommand(cmd); err != nil {
			return nil, err
		}
		out = append(out, cmd)
	}

	if len(out) == 0 {
		return nil, Errorf(ParseUndefined, "no command in %q", strings.Join(group, " "))
	}

	if len(out) > 1 {
		for i, cmd := range out {
			switch i {
			case 0:
				cmd.Role = PipeFirst
			case len(out) - 1:
				cmd.Role = PipeLast
			default:
				cmd.Role = PipeMiddle
			}
		}
	}

	return out, nil
}

// Plan expands aliases in a group and builds every resulting pipeline.
func (b *Builder) Plan(group []string) ([]Pipeline, error) {
	groups, err := b.ExpandAliases(group)
	if err != nil {
		return nil, err
	}

	var out []Pipeline
	for _, g := range groups {
		p, err := b.BuildPipeline(g)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (b *Builder) expandWords(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		word, err := b.ExpandWord(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, word)
	}
	return out, nil
}

// ExpandWord removes quotes and escapes from a raw token and expands
// parameters and a leading tilde. Single quoted and escaped text is taken
// literally. There is no field splitting or globbing.
//
// Tokens the shell grammar can't read as a single word (e.g. "a>b") are
// only unquoted.
func (b *Builder) ExpandWord(raw string) (string, error) {
	word, ok := parseWord(raw)
	if !ok {
		return Unquote(raw)
	}

	cfg := &expand.Config{Env: expand.FuncEnviron(b.getenv)}
	out, err := expand.Literal(cfg, unescapeWord(word))
	if err != nil {
		return "", WrapError(ParseUndefined, err, "couldn't expand %q", raw)
	}
	return out, nil
}

// parseWord parses raw as exactly one shell word.
func parseWord(raw string) (*syntax.Word, bool) {
	var words []*syntax.Word
	err := syntax.NewParser().Words(strings.NewReader(raw), func(w *syntax.Word) bool {
		words = append(words, w)
		return true
	})
	if err != nil || len(words) != 1 {
		return nil, false
	}
	return words[0], true
}

// unescapeWord removes backslash escapes from the unquoted literal parts of
// w. expand.Literal keeps them because it expands assignment values.
func unescapeWord(w *syntax.Word) *syntax.Word {
	out := &syntax.Word{Parts: make([]syntax.WordPart, 0, len(w.Parts))}
	for i, part := range w.Parts {
		lit, ok := part.(*syntax.Lit)
		if !ok || !strings.Contains(lit.Value, `\`) {
			out.Parts = append(out.Parts, part)
			continue
		}

		value := lit.Value
		if i == 0 {
			// Keep what comes before the first escape unquoted so a
			// leading tilde still expands.
			prefix, rest, _ := strings.Cut(value, `\`)
			if prefix != "" {
				out.Parts = append(out.Parts, &syntax.Lit{Value: prefix})
			}
			value = `\` + rest
		}
		out.Parts = append(out.Parts, &syntax.SglQuoted{Value: removeEscapes(value)})
	}
	return out
}

func removeEscapes(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' {
			if i++; i >= len(s) {
				break
			}
			c = s[i]
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func (b *Builder) getenv(name string) string {
	if name == "?" {
		if b.Status == nil {
			return strconv.Itoa(StatusUnset)
		}
		return strconv.Itoa(b.Status())
	}

	if b.Getenv != nil {
		return b.Getenv(name)
	}
	return os.Getenv(name)
}
