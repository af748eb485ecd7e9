package jobs

import (
	"fmt"
	"time"
)

const (
	// ForegroundJobID identifies the job the shell is currently waiting on.
	ForegroundJobID = 0

	// BuiltinJobID identifies a built-in command that is only tracked so its
	// timeout can be reported.
	BuiltinJobID = -2
)

// Record describes one job: an OS process (or process group) started by the
// shell.
type Record struct {
	JobID     int
	PID       int
	PGID      int
	Command   string
	StartTime time.Time
	Running   bool
}

// NewRecord creates a running record whose process group is led by pid.
func NewRecord(jobID, pid int, command string) Record {
	return Record{
		JobID:     jobID,
		PID:       pid,
		PGID:      pid,
		Command:   command,
		StartTime: time.Now(),
		Running:   true,
	}
}

// SetRunning marks the job as running or paused.
func (r *Record) SetRunning(running bool) {
	r.Running = running
}

// ResetStartTime restarts the job's elapsed time counter.
func (r *Record) ResetStartTime(now time.Time) {
	r.StartTime = now
}

// Elapsed returns the whole seconds since the job (re)entered the table.
func (r Record) Elapsed(now time.Time) int64 {
	return int64(now.Sub(r.StartTime) / time.Second)
}

// Equal reports whether both records describe the same job.
func (r Record) Equal(o Record) bool {
	return r.JobID == o.JobID
}

// Less orders records by job id.
func (r Record) Less(o Record) bool {
	return r.JobID < o.JobID
}

// String formats the record the way fg and bg announce it.
func (r Record) String() string {
	return fmt.Sprintf("%s : %d", r.Command, r.PID)
}

// TimedRecord is a job that must be killed once its deadline passes.
type TimedRecord struct {
	Record
	Deadline time.Time
}

// NewTimedRecord creates a timed record expiring duration after now.
func NewTimedRecord(jobID, pid int, command string, now time.Time, duration time.Duration) TimedRecord {
	rec := NewRecord(jobID, pid, command)
	rec.StartTime = now
	return TimedRecord{
		Record:   rec,
		Deadline: now.Add(duration),
	}
}

// Before orders timed records by deadline, breaking ties by job id.
func (t TimedRecord) Before(o TimedRecord) bool {
	if t.Deadline.Equal(o.Deadline) {
		return t.JobID < o.JobID
	}
	return t.Deadline.Before(o.Deadline)
}

// Expired reports whether the deadline has been reached at now.
func (t TimedRecord) Expired(now time.Time) bool {
	return !t.Deadline.After(now)
}
