package engine

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/josephlewis42/smash/core/jobs"
	"github.com/josephlewis42/smash/core/logger"
)

// HandleSignals relays ctrl-Z, ctrl-C and the deadline alarm until ctx is
// done. The shell itself is never stopped or interrupted by them.
func (e *Engine) HandleSignals(ctx context.Context) {
	sigs := make(chan os.Signal, 8)
	signal.Notify(sigs, syscall.SIGTSTP, syscall.SIGINT, syscall.SIGALRM)

	go func() {
		defer signal.Stop(sigs)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigs:
				e.Handle(sig)
			}
		}
	}()
}

// Handle runs the handler for a single signal.
func (e *Engine) Handle(sig os.Signal) {
	switch sig {
	case syscall.SIGTSTP:
		e.HandleStop()
	case syscall.SIGINT:
		e.HandleInterrupt()
	case syscall.SIGALRM:
		e.HandleAlarm()
	}
}

// HandleStop stops the foreground job and moves it into the job table.
func (e *Engine) HandleStop() {
	fmt.Fprintln(e.stdio.Stdout, "smash: got ctrl-Z")

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.fg == nil {
		return
	}
	rec := *e.fg
	if err := e.table.Signaler().Signal(rec, syscall.SIGSTOP); err != nil {
		if !jobs.IsGone(err) {
			fmt.Fprintln(e.stdio.Stderr, &OpError{Op: "kill", Err: err})
		}
		return
	}
	e.fg = nil
	e.stopLocked(rec)
}

// HandleInterrupt kills the foreground job.
func (e *Engine) HandleInterrupt() {
	fmt.Fprintln(e.stdio.Stdout, "smash: got ctrl-C")

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.fg == nil {
		return
	}
	rec := *e.fg
	if err := e.table.Signaler().Signal(rec, syscall.SIGKILL); err != nil {
		if !jobs.IsGone(err) {
			fmt.Fprintln(e.stdio.Stderr, &OpError{Op: "kill", Err: err})
		}
		return
	}
	e.fg = nil
	e.log(logger.EventJobKilled, rec, int(syscall.SIGKILL))
	fmt.Fprintf(e.stdio.Stdout, "smash: process %d was killed\n", rec.PID)
}

// HandleAlarm kills every job whose deadline passed and re-arms the alarm for
// the next one.
func (e *Engine) HandleAlarm() {
	fmt.Fprintln(e.stdio.Stdout, "smash: got an alarm")

	e.mu.Lock()
	defer e.mu.Unlock()

	expired, err := e.table.Expire()
	for _, timed := range expired {
		e.expireLocked(timed)
	}
	if err != nil {
		fmt.Fprintln(e.stdio.Stderr, &OpError{Op: "setitimer", Err: err})
	}
}

func (e *Engine) expireLocked(timed jobs.TimedRecord) {
	switch {
	case timed.JobID == jobs.BuiltinJobID:
		// Built-ins finish before their deadline is registered.
		e.reportTimeout(timed.Record)

	case e.fg != nil && e.fg.JobID == timed.JobID && e.fg.PID == timed.PID:
		rec := *e.fg
		if err := e.table.Signaler().Signal(rec, syscall.SIGKILL); err != nil {
			if !jobs.IsGone(err) {
				fmt.Fprintln(e.stdio.Stderr, &OpError{Op: "kill", Err: err})
			}
			return
		}
		e.fg = nil
		e.reportTimeout(rec)

	default:
		rec, err := e.table.Get(timed.JobID)
		if err != nil || rec.PID != timed.PID {
			// Already reaped.
			return
		}
		if _, err := e.table.Signal(rec.JobID, syscall.SIGKILL); err != nil {
			if !jobs.IsGone(err) {
				fmt.Fprintln(e.stdio.Stderr, &OpError{Op: "kill", Err: err})
				return
			}
		} else {
			e.reportTimeout(rec)
		}
		e.table.Remove(rec.JobID)
		go collect(rec.PGID)
	}
}

func (e *Engine) reportTimeout(rec jobs.Record) {
	e.log(logger.EventJobTimedOut, rec, int(syscall.SIGKILL))
	fmt.Fprintf(e.stdio.Stdout, "smash: %s timed out!\n", rec.Command)
}
