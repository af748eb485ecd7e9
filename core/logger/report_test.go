package logger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportUpdate(t *testing.T) {
	report := NewReport()
	for _, e := range []*Event{
		{Type: EventCommand, Command: "sleep 5"},
		{Type: EventCommand, Command: "sleep 5"},
		{Type: EventCommand, Command: "jobs"},
		{Type: EventJobTimedOut, Command: "timeout 1 sleep 5"},
		{Type: EventJobKilled, Command: "sleep 5", Signal: 9},
		{Type: EventJobKilled, Command: "sleep 5", Signal: 200},
	} {
		report.Update(e)
	}

	assert.Equal(t, 6, report.LogEntries)
	assert.Equal(t, 3, report.Events.Count("command"))
	assert.Equal(t, 2, report.Commands.Count("sleep 5"))
	assert.Equal(t, 1, report.TimedOut.Count("timeout 1 sleep 5"))
	assert.Equal(t, 1, report.Killed.Count("sleep 5", "SIGKILL"))
	assert.Equal(t, 1, report.Killed.Count("sleep 5", "200"))
}

func TestPathCounterMarshalJSON(t *testing.T) {
	ctr := NewPathCounter("command", "signal")
	ctr.Increment("b", "SIGKILL")
	ctr.Increment("a", "SIGSTOP")
	ctr.Increment("a", "SIGSTOP")
	ctr.Increment("a", "SIGKILL")

	out, err := json.Marshal(ctr)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"count": 2, "event": {"command": "a", "signal": "SIGSTOP"}},
		{"count": 1, "event": {"command": "a", "signal": "SIGKILL"}},
		{"count": 1, "event": {"command": "b", "signal": "SIGKILL"}}
	]`, string(out))
}

func TestPathCounterPanicsOnWrongColumns(t *testing.T) {
	ctr := NewPathCounter("command")
	assert.Panics(t, func() { ctr.Increment("a", "b") })
}

func TestEmptyStrCounterMarshalJSON(t *testing.T) {
	out, err := json.Marshal(StrCounter{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}
