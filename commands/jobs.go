package commands

import "fmt"

// Jobs lists the background and stopped jobs.
func Jobs(s *Shell, ec ExecContext) error {
	cmd := &SimpleCommand{
		Use:   "jobs",
		Short: "Display the status of jobs.",
	}

	return cmd.Run(ec, func([]string) error {
		for _, entry := range s.Table().List() {
			fmt.Fprintln(ec.Stdout, entry)
		}
		return nil
	})
}

func init() {
	AllBuiltins["jobs"] = BuiltinFunc(Jobs)
}
