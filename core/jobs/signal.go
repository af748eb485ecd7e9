package jobs

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// Signaler delivers signals to jobs and probes whether they are still alive.
type Signaler interface {
	// Signal sends sig to the record's whole process group.
	Signal(rec Record, sig syscall.Signal) error

	// Finished reaps any exited members of the record's process group without
	// blocking and reports whether the job is gone.
	Finished(rec Record) bool
}

// SignalError is returned when a signal could not be delivered.
type SignalError struct {
	Signal syscall.Signal
	PGID   int
	Err    error
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("sending signal %d to process group %d: %v", int(e.Signal), e.PGID, e.Err)
}

func (e *SignalError) Unwrap() error {
	return e.Err
}

// Gone reports whether the failure happened because the target no longer
// exists, which callers usually treat as success.
func (e *SignalError) Gone() bool {
	return errors.Is(e.Err, unix.ESRCH)
}

// IsGone reports whether err is a SignalError for a process that already exited.
func IsGone(err error) bool {
	var sigErr *SignalError
	return errors.As(err, &sigErr) && sigErr.Gone()
}

// OSSignaler talks to the kernel.
type OSSignaler struct{}

var _ Signaler = OSSignaler{}

// Signal implements Signaler.
func (OSSignaler) Signal(rec Record, sig syscall.Signal) error {
	pgid := rec.PGID
	if pgid <= 0 {
		pgid = rec.PID
	}
	if err := unix.Kill(-pgid, sig); err != nil {
		return &SignalError{Signal: sig, PGID: pgid, Err: err}
	}
	return nil
}

// Finished implements Signaler.
func (OSSignaler) Finished(rec Record) bool {
	pgid := rec.PGID
	if pgid <= 0 {
		pgid = rec.PID
	}

	for {
		var status unix.WaitStatus
		pid, err := unix.Wait4(-pgid, &status, unix.WNOHANG, nil)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.ECHILD:
			// No children of ours left in the group, but orphaned members may
			// still hold it.
			return errors.Is(unix.Kill(-pgid, 0), unix.ESRCH)
		case err != nil:
			return false
		case pid == 0:
			return false
		}
		// Reaped one member, look for more.
	}
}
