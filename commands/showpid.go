package commands

import "fmt"

// Showpid prints the pid of the shell.
func Showpid(s *Shell, ec ExecContext) error {
	cmd := &SimpleCommand{
		Use:   "showpid",
		Short: "Print the process id of the shell.",
	}

	return cmd.Run(ec, func([]string) error {
		fmt.Fprintf(ec.Stdout, "smash pid is %d\n", s.pid)
		return nil
	})
}

func init() {
	AllBuiltins["showpid"] = BuiltinFunc(Showpid)
}
