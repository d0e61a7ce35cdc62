package logger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Entry is one decoded log line.
type Entry map[string]interface{}

// String returns the value of key formatted as a string.
func (e Entry) String(key string) string {
	v, ok := e[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Message returns the entry's message.
func (e Entry) Message() string {
	return e.String("msg")
}

// ReadJSONLinesLog parses a newline delimited JSON log. Lines that aren't
// JSON objects are counted as invalid rather than stopping the read.
func ReadJSONLinesLog(r io.Reader, handler func(e Entry), invalid func(line string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			if invalid != nil {
				invalid(string(line))
			}
			continue
		}

		handler(entry)
	}
	return scanner.Err()
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{
		Failures: NewPathCounter("command", "kind"),
		NonZero:  NewPathCounter("command", "status"),
	}
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int `json:"log_entries"`
	InvalidEntries int `json:"invalid_entries,omitempty"`

	Sessions StrCounter `json:"sessions"`
	Levels   StrCounter `json:"levels"`
	Commands StrCounter `json:"commands"`
	// Failures counts commands that couldn't be run, by error kind.
	Failures *PathCounter `json:"failures"`
	// NonZero counts commands that ran and exited with a non-zero status.
	NonZero *PathCounter `json:"non_zero_exits"`
}

// Update adds an entry to the report.
func (r *Report) Update(e Entry) {
	r.LogEntries++
	r.Levels.Increment(e.String("level"))

	switch e.Message() {
	case MsgSessionStart:
		r.Sessions.Increment(e.String(KeySession))
	case MsgExec:
		r.Commands.Increment(e.String(KeyCommand))
	case MsgFailed:
		r.Failures.Increment(e.String(KeyCommand), e.String(KeyKind))
	case MsgExit:
		if status := e.String(KeyStatus); status != "0" {
			r.NonZero.Increment(e.String(KeyCommand), status)
		}
	}
}

// Invalid records a line that couldn't be decoded.
func (r *Report) Invalid(string) {
	r.InvalidEntries++
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Get returns the count for key.
func (s *StrCounter) Get(key string) int {
	return s.internal[key]
}

// Len returns the number of distinct keys.
func (s *StrCounter) Len() int {
	return len(s.internal)
}

// MarshalJSON implemnts custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	if s.internal == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of tuples seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Get returns the count for the tuple.
func (ctr *PathCounter) Get(vals ...string) int {
	return ctr.internal[toKey(vals...)]
}

// MarshalJSON implemnts custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	out := []Count{}
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
