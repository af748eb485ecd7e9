package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"github.com/josephlewis42/smash/core/engine"
	"github.com/josephlewis42/smash/core/jobs"
	"github.com/josephlewis42/smash/core/logger"
)

const maxSignal = 31

// Kill sends a signal to a job: kill -<signum> <job-id>.
//
// Flags aren't parsed with getopt because the signal number looks like an
// unknown option.
func Kill(s *Shell, ec ExecContext) error {
	if len(ec.Args) != 3 || !strings.HasPrefix(ec.Args[1], "-") {
		return invalidArgs("kill")
	}
	signum, err := strconv.Atoi(ec.Args[1][1:])
	if err != nil || signum < 1 || signum > maxSignal {
		return invalidArgs("kill")
	}
	jobID, err := strconv.Atoi(ec.Args[2])
	if err != nil {
		return invalidArgs("kill")
	}

	sig := syscall.Signal(signum)
	rec, err := s.Table().Signal(jobID, sig)
	switch {
	case jobs.IsGone(err):
		// Exited since the last reap.
		s.Table().Remove(jobID)
		return &CommandError{Name: "kill", Err: jobs.NotFoundError{JobID: jobID}}
	case err != nil:
		var sigErr *jobs.SignalError
		if errors.As(err, &sigErr) {
			return &engine.OpError{Op: "kill", Err: sigErr.Err}
		}
		return &CommandError{Name: "kill", Err: err}
	}

	eventType := logger.EventJobKilled
	switch sig {
	case syscall.SIGSTOP, syscall.SIGTSTP, syscall.SIGTTIN, syscall.SIGTTOU:
		eventType = logger.EventJobStopped
	case syscall.SIGCONT:
		eventType = logger.EventJobResumed
	}
	s.Engine.Events().Log(&logger.Event{
		Type:    eventType,
		JobID:   rec.JobID,
		PID:     rec.PID,
		Command: rec.Command,
		Signal:  signum,
	})

	fmt.Fprintf(ec.Stdout, "signal number %d was sent to pid %d\n", signum, rec.PID)
	return nil
}

func init() {
	AllBuiltins["kill"] = BuiltinFunc(Kill)
}
