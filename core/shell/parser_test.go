package shell

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ExampleSplitCommands() {
	groups, _ := SplitCommands(`ls -la || cd .. && echo "a; b"; pwd;`)
	for _, g := range groups {
		fmt.Printf("%q\n", g)
	}

	// Output: ["ls" "-la"]
	// ["cd" ".."]
	// ["echo" "\"a; b\""]
	// ["pwd"]
}

func TestSplitCommands(t *testing.T) {
	cases := map[string]struct {
		line string
		want [][]string
	}{
		"empty":              {line: "", want: nil},
		"whitespace":         {line: "  \t ", want: nil},
		"lone semicolon":     {line: ";", want: nil},
		"lone and":           {line: "&&", want: nil},
		"only delimiters":    {line: "; && ||", want: nil},
		"single word":        {line: "ls", want: [][]string{{"ls"}}},
		"args":               {line: "ls -la", want: [][]string{{"ls", "-la"}}},
		"or":                 {line: "ls -la || cd ..", want: [][]string{{"ls", "-la"}, {"cd", ".."}}},
		"trailing delimiter": {line: "ls -la || cd .. &&", want: [][]string{{"ls", "-la"}, {"cd", ".."}}},
		"leading delimiter":  {line: "; ls", want: [][]string{{"ls"}}},
		"doubled delimiter":  {line: "ls ;; pwd", want: [][]string{{"ls"}, {"pwd"}}},
		"glued semicolon":    {line: "ls; pwd", want: [][]string{{"ls"}, {"pwd"}}},
		"glued and":          {line: "true&&false", want: [][]string{{"true"}, {"false"}}},
		"quoted semicolon":   {line: `echo ';'`, want: [][]string{{"echo", "';'"}}},
		"quoted and":         {line: `echo "a && b"`, want: [][]string{{"echo", `"a && b"`}}},
		"escaped semicolon":  {line: `echo \;`, want: [][]string{{"echo", `\;`}}},
		"pipes kept":         {line: "ls | wc -l; pwd", want: [][]string{{"ls", "|", "wc", "-l"}, {"pwd"}}},
		"glued pipe":         {line: "ls|wc", want: [][]string{{"ls", "|", "wc"}}},
		"single ampersand":   {line: "sleep 1 &", want: [][]string{{"sleep", "1", "&"}}},
		"mixed quotes":       {line: `echo a"b c"d`, want: [][]string{{"echo", `a"b c"d`}}},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			got, err := SplitCommands(tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSplitCommands_errors(t *testing.T) {
	for _, line := range []string{
		`echo "unterminated`,
		`echo 'unterminated`,
		`echo trailing\`,
	} {
		t.Run(line, func(t *testing.T) {
			_, err := SplitCommands(line)
			assert.Error(t, err)
			assert.Equal(t, ParseUndefined, KindOf(err))
		})
	}
}

func TestUnquote(t *testing.T) {
	cases := map[string]string{
		`plain`:        "plain",
		`"a b"`:        "a b",
		`'a b'`:        "a b",
		`""`:           "",
		`''`:           "",
		`a"b c"d`:      "ab cd",
		`a\ b`:         "a b",
		`"it's"`:       "it's",
		`'say "hi"'`:   `say "hi"`,
		`"\"quoted\""`: `"quoted"`,
	}

	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			got, err := Unquote(raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}
