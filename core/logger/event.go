package logger

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// EventType names a job lifecycle transition.
type EventType string

const (
	EventCommand     EventType = "command"
	EventJobAdded    EventType = "job_added"
	EventJobStopped  EventType = "job_stopped"
	EventJobResumed  EventType = "job_resumed"
	EventJobKilled   EventType = "job_killed"
	EventJobTimedOut EventType = "job_timed_out"
	EventJobFinished EventType = "job_finished"
)

// Event is a single entry in the event log.
type Event struct {
	Type    EventType
	Time    time.Time
	JobID   int
	PID     int
	Command string
	Signal  int
}

// ToProto converts the event to its wire representation.
func (e *Event) ToProto() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"type":    string(e.Type),
		"time":    e.Time.UTC().Format(time.RFC3339Nano),
		"job_id":  e.JobID,
		"pid":     e.PID,
		"command": e.Command,
		"signal":  e.Signal,
	})
}

// EventFromProto parses an event from its wire representation.
func EventFromProto(s *structpb.Struct) (*Event, error) {
	fields := s.GetFields()

	eventType := fields["type"].GetStringValue()
	if eventType == "" {
		return nil, fmt.Errorf("event missing type")
	}

	out := &Event{
		Type:    EventType(eventType),
		JobID:   int(fields["job_id"].GetNumberValue()),
		PID:     int(fields["pid"].GetNumberValue()),
		Command: fields["command"].GetStringValue(),
		Signal:  int(fields["signal"].GetNumberValue()),
	}

	if ts := fields["time"].GetStringValue(); ts != "" {
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("event time: %w", err)
		}
		out.Time = parsed
	}

	return out, nil
}
