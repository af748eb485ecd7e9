package commands

import (
	"fmt"
	"syscall"

	"github.com/josephlewis42/smash/core/logger"
)

// Quit exits the shell, with kill it first kills every job.
func Quit(s *Shell, ec ExecContext) error {
	cmd := &SimpleCommand{
		Use:   "quit [kill]",
		Short: "Exit the shell, optionally killing all jobs.",
	}

	return cmd.Run(ec, func(args []string) error {
		s.Quit = true
		if len(args) == 0 || args[0] != "kill" {
			return nil
		}

		killed, err := s.Table().KillAll()
		fmt.Fprintf(ec.Stdout, "smash: sending SIGKILL to %d jobs:\n", len(killed))
		for _, rec := range killed {
			fmt.Fprintf(ec.Stdout, "%d: %s\n", rec.PID, rec.Command)
			s.Engine.Events().Log(&logger.Event{
				Type:    logger.EventJobKilled,
				JobID:   rec.JobID,
				PID:     rec.PID,
				Command: rec.Command,
				Signal:  int(syscall.SIGKILL),
			})
		}
		if err != nil {
			return &CommandError{Name: "quit", Err: err}
		}
		return nil
	})
}

func init() {
	AllBuiltins["quit"] = BuiltinFunc(Quit)
}
