package commands

import (
	"fmt"

	"github.com/josephlewis42/smash/core/engine"
)

// Cp copies a file by piping a reader of the source into a writer of the
// destination.
func Cp(s *Shell, ec ExecContext) error {
	cmd := &SimpleCommand{
		Use:   "cp <source> <destination>",
		Short: "Copy a file.",
	}

	return cmd.Run(ec, func(args []string) error {
		if len(args) != 2 {
			return invalidArgs("cp")
		}
		src, dst := args[0], args[1]

		// Opening the destination truncates it.
		if sameFile(s.Fs, src, dst) {
			return nil
		}

		err := s.Engine.RunPipeline(&engine.Pipeline{
			Line: ec.Line,
			From: s.fileSource("cp", src),
			To:   s.fileSink("cp", dst, false),
		}, 0)
		if err != nil {
			return err
		}

		fmt.Fprintf(ec.Stdout, "smash: %s was copied to %s\n", src, dst)
		return nil
	})
}

func init() {
	AllBuiltins["cp"] = BuiltinFunc(Cp)
}
