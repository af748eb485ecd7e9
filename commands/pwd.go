package commands

import (
	"fmt"
	"os"

	"github.com/josephlewis42/smash/core/engine"
)

// Pwd prints the working directory of the shell.
func Pwd(s *Shell, ec ExecContext) error {
	cmd := &SimpleCommand{
		Use:   "pwd",
		Short: "Print the name of the current working directory.",
	}

	return cmd.Run(ec, func([]string) error {
		pwd, err := os.Getwd()
		if err != nil {
			return &engine.OpError{Op: "getcwd", Err: err}
		}
		fmt.Fprintln(ec.Stdout, pwd)
		return nil
	})
}

func init() {
	AllBuiltins["pwd"] = BuiltinFunc(Pwd)
}
