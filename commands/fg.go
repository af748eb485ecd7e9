package commands

import (
	"fmt"
	"strconv"
)

// Fg brings a job to the foreground, by default the one with the highest id.
func Fg(s *Shell, ec ExecContext) error {
	cmd := &SimpleCommand{
		Use:   "fg [job-id]",
		Short: "Move a job to the foreground and wait for it.",
	}

	return cmd.Run(ec, func(args []string) error {
		jobID, err := jobArg(args)
		if err != nil {
			return invalidArgs("fg")
		}
		if jobID == 0 {
			last, err := s.Table().LastJob()
			if err != nil {
				return &CommandError{Name: "fg", Err: err}
			}
			jobID = last.JobID
		}

		rec, err := s.Table().Take(jobID)
		if err != nil {
			return &CommandError{Name: "fg", Err: err}
		}

		fmt.Fprintln(ec.Stdout, rec)
		return s.Engine.Foreground(rec)
	})
}

// jobArg parses an optional job id, returning 0 when it's absent.
func jobArg(args []string) (int, error) {
	switch len(args) {
	case 0:
		return 0, nil
	case 1:
		jobID, err := strconv.Atoi(args[0])
		if err != nil || jobID <= 0 {
			return 0, ErrInvalidArguments
		}
		return jobID, nil
	default:
		return 0, ErrInvalidArguments
	}
}

func init() {
	AllBuiltins["fg"] = BuiltinFunc(Fg)
}
