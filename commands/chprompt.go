package commands

// Chprompt changes the prompt, no argument restores the configured one.
func Chprompt(s *Shell, ec ExecContext) error {
	cmd := &SimpleCommand{
		Use:   "chprompt [name]",
		Short: "Change the prompt of the shell.",
	}

	return cmd.Run(ec, func(args []string) error {
		s.promptName = s.defaultPrompt
		if len(args) > 0 {
			s.promptName = args[0]
		}
		return nil
	})
}

func init() {
	AllBuiltins["chprompt"] = BuiltinFunc(Chprompt)
}
