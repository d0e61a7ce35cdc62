package shell

import (
	"strings"
)

// ExpandAliases replaces an alias in the first word of group with its
// definition. The definition may itself contain delimiters and pipes, so
// the result can be several groups. Words after the alias are appended to
// the last group produced.
//
// A definition that starts with the alias's own name isn't expanded again,
// so `alias ls='ls -G'` works. Any other loop fails with a BuiltinError.
func (b *Builder) ExpandAliases(group []string) ([][]string, error) {
	return b.expandAliases(group, nil)
}

func (b *Builder) expandAliases(group []string, chain []string) ([][]string, error) {
	if b.Aliases == nil || len(group) == 0 || isQuoted(group[0]) {
		return [][]string{group}, nil
	}

	name := group[0]
	definition, ok := b.Aliases.Lookup(name)
	if !ok {
		return [][]string{group}, nil
	}

	for _, seen := range chain {
		if seen == name {
			return nil, Errorf(BuiltinError, "alias cycle: %s", strings.Join(append(chain, name), " -> "))
		}
	}
	chain = append(chain, name)
	if len(chain) > b.maxAliasDepth() {
		return nil, Errorf(BuiltinError, "alias expansion deeper than %d: %s", b.maxAliasDepth(), strings.Join(chain, " -> "))
	}

	expanded, err := SplitCommands(definition)
	if err != nil {
		return nil, WrapError(BuiltinError, err, "alias %s", name)
	}

	rest := group[1:]
	if len(expanded) == 0 {
		// Empty aliases run the remaining words, if any.
		if len(rest) == 0 {
			return nil, nil
		}
		return b.expandAliases(rest, chain)
	}

	var out [][]string
	for _, g := range expanded {
		if g[0] == name {
			out = append(out, g)
			continue
		}

		nested, err := b.expandAliases(g, chain)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}

	if len(out) == 0 {
		if len(rest) == 0 {
			return nil, nil
		}
		return [][]string{rest}, nil
	}

	last := out[len(out)-1]
	out[len(out)-1] = append(append([]string(nil), last...), rest...)
	return out, nil
}

func (b *Builder) maxAliasDepth() int {
	if b.MaxAliasDepth <= 0 {
		return DefaultMaxAliasDepth
	}
	return b.MaxAliasDepth
}
