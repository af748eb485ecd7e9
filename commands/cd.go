package commands

import (
	"errors"
	"os"

	"github.com/josephlewis42/smash/core/engine"
)

// Cd changes the working directory of the shell, - returns to the previous
// one.
func Cd(s *Shell, ec ExecContext) error {
	cmd := &SimpleCommand{
		Use:   "cd <dir>|-",
		Short: "Change the shell working directory.",
	}

	return cmd.Run(ec, func(args []string) error {
		switch {
		case len(args) > 1:
			return &CommandError{Name: "cd", Err: errors.New("too many arguments")}
		case len(args) == 0:
			return &CommandError{Name: "cd", Err: errors.New("too few arguments")}
		}

		target := args[0]
		if target == "-" {
			if s.oldPwd == "" {
				return &CommandError{Name: "cd", Err: errors.New("OLDPWD not set")}
			}
			target = s.oldPwd
		}

		previous, err := os.Getwd()
		if err != nil {
			return &engine.OpError{Op: "getcwd", Err: err}
		}
		if err := os.Chdir(target); err != nil {
			return &engine.OpError{Op: "chdir", Err: err}
		}
		s.oldPwd = previous
		return nil
	})
}

func init() {
	AllBuiltins["cd"] = BuiltinFunc(Cd)
}
