package commands

import (
	"fmt"
	"syscall"

	"github.com/josephlewis42/smash/core/logger"
)

// Bg resumes a stopped job in the background, by default the stopped job with
// the highest id.
func Bg(s *Shell, ec ExecContext) error {
	cmd := &SimpleCommand{
		Use:   "bg [job-id]",
		Short: "Resume a stopped job in the background.",
	}

	return cmd.Run(ec, func(args []string) error {
		jobID, err := jobArg(args)
		if err != nil {
			return invalidArgs("bg")
		}
		if jobID == 0 {
			last, err := s.Table().LastStopped()
			if err != nil {
				return &CommandError{Name: "bg", Err: err}
			}
			jobID = last.JobID
		}

		rec, err := s.Table().Get(jobID)
		if err != nil {
			return &CommandError{Name: "bg", Err: err}
		}
		if rec.Running {
			return &CommandError{
				Name: "bg",
				Err:  fmt.Errorf("job-id %d is already running in the background", jobID),
			}
		}

		fmt.Fprintln(ec.Stdout, rec)
		if err := s.Table().Resume(jobID); err != nil {
			return &CommandError{Name: "bg", Err: err}
		}
		s.Engine.Events().Log(&logger.Event{
			Type:    logger.EventJobResumed,
			JobID:   rec.JobID,
			PID:     rec.PID,
			Command: rec.Command,
			Signal:  int(syscall.SIGCONT),
		})
		return nil
	})
}

func init() {
	AllBuiltins["bg"] = BuiltinFunc(Bg)
}
