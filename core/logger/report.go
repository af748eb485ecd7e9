package logger

import (
	"encoding/json"
	"sort"
)

// Report holds statistics about the logged events.
type Report struct {
	LogEntries int        `json:"log_entries"`
	Events     StrCounter `json:"events"`
	Commands   StrCounter `json:"commands"`

	// TimedOut counts the commands killed by their deadline.
	TimedOut *PathCounter `json:"timed_out"`
	// Killed counts the signals sent to jobs on user request.
	Killed *PathCounter `json:"killed"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{
		TimedOut: NewPathCounter("command"),
		Killed:   NewPathCounter("command", "signal"),
	}
}

func (r *Report) Update(e *Event) {
	r.LogEntries++
	r.Events.Increment(string(e.Type))

	switch e.Type {
	case EventCommand:
		r.Commands.Increment(e.Command)
	case EventJobTimedOut:
		r.TimedOut.Increment(e.Command)
	case EventJobKilled:
		r.Killed.Increment(e.Command, signalName(e.Signal))
	}
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

// Count returns how many times key was seen.
func (s *StrCounter) Count(key string) int {
	return s.internal[key]
}

// MarshalJSON implements a custom JSON marshaler.
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

// Count returns how many times the tuple was seen.
func (ctr *PathCounter) Count(vals ...string) int {
	return ctr.internal[toKey(vals...)]
}

// MarshalJSON implements a custom JSON marshaler.
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
