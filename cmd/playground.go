package cmd

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/josephlewis42/smash/core/config"
	"github.com/spf13/cobra"
)

// playgroundCmd runs the shell with a throwaway configuration
var playgroundCmd = &cobra.Command{
	Use:   "playground",
	Short: "Run the shell with a fresh default configuration in a temporary directory.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		dir, err := os.MkdirTemp("", "playground")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)

		playgroundLogger := log.New(cmd.ErrOrStderr(), "[playground] ", 0)
		cfg, err := config.Initialize(dir, playgroundLogger)
		if err != nil {
			return err
		}

		// Help differentiate the playground from a configured shell.
		cfg.Prompt = "playground"
		cfg.EventLog = true

		playgroundLogger.Printf("Logging to: file://%s\n", dir)
		playgroundLogger.Printf("See logs with: tail -f %s\n", filepath.Join(dir, config.AppLogName))
		playgroundLogger.Println(strings.Repeat("=", 80))

		return runShell(cmd.Context(), cfg, playgroundLogger)
	},
}

func init() {
	rootCmd.AddCommand(playgroundCmd)
}
