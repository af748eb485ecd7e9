package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLinesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLinesLogger(&buf)
	stamp := time.Date(2006, 1, 2, 3, 4, 5, 0, time.UTC)

	events := []*Event{
		{Type: EventCommand, Time: stamp, Command: "sleep 100&"},
		{Type: EventJobAdded, Time: stamp, JobID: 1, PID: 100, Command: "sleep 100&"},
		{Type: EventJobKilled, Time: stamp, JobID: 1, PID: 100, Command: "sleep 100&", Signal: 9},
	}
	for _, e := range events {
		require.NoError(t, log.Log(e))
	}
	assert.Equal(t, 3, strings.Count(buf.String(), "\n"))

	var got []*Event
	require.NoError(t, ReadJSONLinesLog(&buf, func(e *Event) {
		got = append(got, e)
	}))
	assert.Equal(t, events, got)
}

func TestLoggerStampsTime(t *testing.T) {
	stamp := time.Date(2006, 1, 2, 3, 4, 5, 0, time.UTC)
	var recorded *Event
	log := &Logger{
		Record: func(e *Event) error {
			recorded = e
			return nil
		},
		Now: func() time.Time { return stamp },
	}

	require.NoError(t, log.Log(&Event{Type: EventJobFinished}))
	assert.Equal(t, stamp, recorded.Time)
}

func TestNilLogger(t *testing.T) {
	var log *Logger
	assert.NoError(t, log.Log(&Event{Type: EventCommand}))
}

func TestLoggerReturnsRecorderError(t *testing.T) {
	log := &Logger{Record: func(*Event) error { return errors.New("disk full") }}
	assert.EqualError(t, log.Log(&Event{Type: EventCommand}), "disk full")
}

func TestReadJSONLinesLogRejectsUntypedEvents(t *testing.T) {
	err := ReadJSONLinesLog(strings.NewReader(`{"pid": 12}`), func(*Event) {})
	assert.EqualError(t, err, "event missing type")
}
