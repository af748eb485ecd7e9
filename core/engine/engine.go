// Package engine starts external commands and pipelines as jobs and moves
// them between the foreground, the job table and the grave.
//
// Every job runs in its own process group so signals aimed at the shell don't
// reach it directly. The shell relays ctrl-Z and ctrl-C to the foreground job
// and enforces deadlines with the table's alarm; see HandleSignals.
package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/josephlewis42/smash/core/jobs"
	"github.com/josephlewis42/smash/core/logger"
	"golang.org/x/sys/unix"
)

// Files are the descriptors handed to external commands. They must be real
// files because children inherit them directly.
type Files struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// Stdio are the streams of a command that runs inside the shell.
type Stdio struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Options configure an Engine.
type Options struct {
	// Interpreter runs the text of external commands with -c.
	Interpreter string
	Files       Files
	// Stdio is used by in-process commands and for the shell's own messages.
	// Unset streams fall back to Files.
	Stdio  Stdio
	Events *logger.Logger
}

// Engine runs jobs. It's safe to call the Handle methods from a signal
// handling goroutine while a command runs.
type Engine struct {
	table       *jobs.Table
	interpreter string
	files       Files
	stdio       Stdio
	events      *logger.Logger

	// mu guards the foreground slot and is always taken before the table's lock.
	mu sync.Mutex
	fg *jobs.Record
}

// New creates an engine that registers its jobs in table.
func New(table *jobs.Table, opts Options) *Engine {
	if opts.Interpreter == "" {
		opts.Interpreter = "/bin/sh"
	}
	if opts.Files.Stdin == nil {
		opts.Files.Stdin = os.Stdin
	}
	if opts.Files.Stdout == nil {
		opts.Files.Stdout = os.Stdout
	}
	if opts.Files.Stderr == nil {
		opts.Files.Stderr = os.Stderr
	}
	if opts.Stdio.Stdin == nil {
		opts.Stdio.Stdin = opts.Files.Stdin
	}
	if opts.Stdio.Stdout == nil {
		opts.Stdio.Stdout = opts.Files.Stdout
	}
	if opts.Stdio.Stderr == nil {
		opts.Stdio.Stderr = opts.Files.Stderr
	}

	return &Engine{
		table:       table,
		interpreter: opts.Interpreter,
		files:       opts.Files,
		stdio:       opts.Stdio,
		events:      opts.Events,
	}
}

// Table returns the job table the engine registers jobs in.
func (e *Engine) Table() *jobs.Table {
	return e.table
}

// Events returns the event log, which may be nil.
func (e *Engine) Events() *logger.Logger {
	return e.events
}

// Stdio returns the shell's own streams.
func (e *Engine) Stdio() Stdio {
	return e.stdio
}

// Current returns the job in the foreground slot, if any.
func (e *Engine) Current() (jobs.Record, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fg == nil {
		return jobs.Record{}, false
	}
	return *e.fg, true
}

// IsBackground reports whether the command line ends with &.
func IsBackground(line string) bool {
	return strings.HasSuffix(strings.TrimRight(line, " \t"), "&")
}

// StripBackground removes a trailing & and the whitespace around it.
func StripBackground(line string) string {
	line = strings.TrimRight(line, " \t")
	line = strings.TrimSuffix(line, "&")
	return strings.TrimRight(line, " \t")
}

// RunExternal runs text with the interpreter as the job for line, running line
// itself when text is empty. A trailing & on line runs the job in the
// background, otherwise it blocks until the job exits or stops. A positive
// timeout kills the job once it expires.
func (e *Engine) RunExternal(line, text string, timeout time.Duration) error {
	if text == "" {
		text = line
	}
	cmd := e.command(StripBackground(text), 0)
	cmd.Stdin = e.files.Stdin
	cmd.Stdout = e.files.Stdout
	cmd.Stderr = e.files.Stderr

	pid, err := start(cmd)
	if err != nil {
		return err
	}
	_, err = e.settle(jobs.NewRecord(jobs.ForegroundJobID, pid, line), IsBackground(line), timeout)
	return err
}

// Foreground continues a job taken out of the table and waits for it like a
// freshly started foreground command. Its job id and deadlines are kept. A
// job that can't be continued goes back into the table under its id.
func (e *Engine) Foreground(rec jobs.Record) error {
	if err := e.table.Signaler().Signal(rec, syscall.SIGCONT); err != nil && !jobs.IsGone(err) {
		e.table.Add(rec)
		var sigErr *jobs.SignalError
		if errors.As(err, &sigErr) {
			err = sigErr.Err
		}
		return &OpError{Op: "kill", Err: err}
	}
	rec.SetRunning(true)
	e.log(logger.EventJobResumed, rec, int(syscall.SIGCONT))
	_, err := e.foreground(rec, 0)
	return err
}

// TrackBuiltin registers a deadline for a command that already ran inside the
// shell so its expiry is still reported.
func (e *Engine) TrackBuiltin(line string, timeout time.Duration) error {
	_, err := e.table.AddTimed(jobs.BuiltinJobID, os.Getpid(), line, timeout)
	return err
}

func (e *Engine) command(text string, pgid int) *exec.Cmd {
	cmd := exec.Command(e.interpreter, "-c", text)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pgid: pgid}
	return cmd
}

// start launches cmd and gives up Go's handle on it; the engine waits on
// process groups instead.
func start(cmd *exec.Cmd) (int, error) {
	if err := cmd.Start(); err != nil {
		return 0, &OpError{Op: "fork", Err: err}
	}
	pid := cmd.Process.Pid
	cmd.Process.Release()
	return pid, nil
}

// settle either registers a started job in the background or waits for it.
// It reports whether the job is left running or stopped in the table.
func (e *Engine) settle(rec jobs.Record, background bool, timeout time.Duration) (bool, error) {
	if !background {
		return e.foreground(rec, timeout)
	}

	rec.JobID = e.table.Add(rec)
	e.log(logger.EventJobAdded, rec, 0)
	if timeout > 0 {
		if _, err := e.table.AddTimed(rec.JobID, rec.PID, rec.Command, timeout); err != nil {
			return true, &OpError{Op: "setitimer", Err: err}
		}
	}
	return true, nil
}

// foreground waits on the job in the foreground slot and reports whether it
// stopped rather than finished.
func (e *Engine) foreground(rec jobs.Record, timeout time.Duration) (bool, error) {
	slot := &rec
	e.mu.Lock()
	e.fg = slot
	e.mu.Unlock()

	var armErr error
	if timeout > 0 {
		if _, err := e.table.AddTimed(rec.JobID, rec.PID, rec.Command, timeout); err != nil {
			armErr = &OpError{Op: "setitimer", Err: err}
		}
	}

	stopped, waitErr := waitGroup(rec.PGID)

	e.mu.Lock()
	defer e.mu.Unlock()

	owned := e.fg == slot
	if owned {
		e.fg = nil
	}

	switch {
	case stopped && owned:
		// Stopped by someone other than the ctrl-Z handler.
		e.stopLocked(rec)
	case !stopped:
		if err := e.table.RemoveTimed(rec.JobID); err != nil && armErr == nil {
			armErr = &OpError{Op: "setitimer", Err: err}
		}
		if owned {
			e.log(logger.EventJobFinished, rec, 0)
		}
	}

	if waitErr != nil {
		return stopped, waitErr
	}
	return stopped, armErr
}

// stopLocked moves a stopped foreground job into the table.
func (e *Engine) stopLocked(rec jobs.Record) {
	rec.SetRunning(false)
	rec.JobID = e.table.Add(rec)
	e.log(logger.EventJobStopped, rec, int(syscall.SIGSTOP))
	fmt.Fprintf(e.stdio.Stdout, "smash: process %d was stopped\n", rec.PID)
}

// waitGroup blocks until every process in the group has exited or one of them
// stops.
func waitGroup(pgid int) (stopped bool, err error) {
	for {
		var status unix.WaitStatus
		_, err := unix.Wait4(-pgid, &status, unix.WUNTRACED, nil)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.ECHILD:
			return false, nil
		case err != nil:
			return false, &OpError{Op: "wait", Err: err}
		case status.Stopped():
			return true, nil
		}
	}
}

// collect reaps a killed group that's no longer tracked anywhere.
func collect(pgid int) {
	for {
		_, err := unix.Wait4(-pgid, nil, 0, nil)
		if err != nil && err != unix.EINTR {
			return
		}
	}
}

func (e *Engine) log(eventType logger.EventType, rec jobs.Record, signal int) {
	e.events.Log(&logger.Event{
		Type:    eventType,
		JobID:   rec.JobID,
		PID:     rec.PID,
		Command: rec.Command,
		Signal:  signal,
	})
}
