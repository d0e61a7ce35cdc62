package shell

// Loosely follows
// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html

/**
1. The shell reads its input from the line editor, a -c option or a file.

2. The shell breaks the input into tokens: words and operators. Operators are
";", "&&", "||" (sequence delimiters) and "|" (pipe). Quoted operators are
words.

3. The shell splits the tokens into sequential groups on delimiters and each
group into a pipeline on pipes. The first word of a group may be an alias.

4. The shell removes quotes and expands $NAME, ${NAME}, $? and a leading ~ in
every word that isn't single quoted. There is no field splitting or globbing.

5. Redirection isn't supported.

6. The shell executes a builtin or an executable file found through a
relative path, an absolute path, or its own index of PATH.

7. The shell waits for every stage of a pipeline and collects the exit status
of the last one.
**/

import (
	"strings"
	"unicode"

	"github.com/anmitsu/go-shlex"
)

const (
	opSemicolon = ";"
	opAnd       = "&&"
	opOr        = "||"
	opPipe      = "|"
)

// IsDelimiter returns true if the raw token separates sequential groups.
func IsDelimiter(tok string) bool {
	switch tok {
	case opSemicolon, opAnd, opOr:
		return true
	}
	return false
}

// IsPipe returns true if the raw token is an unquoted pipe.
func IsPipe(tok string) bool {
	return tok == opPipe
}

// Lex splits a line into raw tokens. Quotes and escapes are kept in the
// tokens so later passes can tell operators from quoted words. Operators
// glued to words ("ls;") are split into their own tokens.
//
// Lex returns a ParseUndefined error for an unterminated quote or a
// trailing escape.
func Lex(line string) ([]string, error) {
	// The POSIX lexer is the authority on whether the line is well formed.
	if _, err := shlex.Split(line, true); err != nil {
		return nil, WrapError(ParseUndefined, err, "couldn't tokenize %q", line)
	}

	var (
		tokens []string
		word   strings.Builder
		quote  rune
	)

	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}
	operator := func(op string) {
		flush()
		tokens = append(tokens, op)
	}

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		next := rune(0)
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch {
		case quote != 0:
			word.WriteRune(r)
			switch {
			case r == quote:
				quote = 0
			case r == '\\' && quote == '"' && next != 0:
				word.WriteRune(next)
				i++
			}

		case r == '\\':
			word.WriteRune(r)
			if next != 0 {
				word.WriteRune(next)
				i++
			}

		case r == '\'' || r == '"':
			quote = r
			word.WriteRune(r)

		case unicode.IsSpace(r):
			flush()

		case r == ';':
			operator(opSemicolon)

		case r == '&' && next == '&':
			operator(opAnd)
			i++

		case r == '|' && next == '|':
			operator(opOr)
			i++

		case r == '|':
			operator(opPipe)

		default:
			word.WriteRune(r)
		}
	}
	flush()

	return tokens, nil
}

// SplitCommands splits a line into sequential groups of raw tokens.
// Delimiters are dropped and never produce empty groups, so "" and ";" both
// produce no groups.
//
// All delimiters run the next group unconditionally.
func SplitCommands(line string) ([][]string, error) {
	tokens, err := Lex(line)
	if err != nil {
		return nil, err
	}

	var (
		groups  [][]string
		current []string
	)
	for _, tok := range tokens {
		if !IsDelimiter(tok) {
			current = append(current, tok)
			continue
		}

		if len(current) > 0 {
			groups = append(groups, current)
		}
		current = nil
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}

	return groups, nil
}

// Unquote removes quotes and escapes from a raw token.
func Unquote(raw string) (string, error) {
	words, err := shlex.Split(raw, true)
	if err != nil {
		return "", WrapError(ParseUndefined, err, "couldn't unquote %q", raw)
	}

	// The lexer drops empty words so "" comes back with nothing.
	return strings.Join(words, " "), nil
}

// isQuoted returns true if the raw token contains quoting or escapes.
func isQuoted(raw string) bool {
	return strings.ContainsAny(raw, `'"\`)
}
