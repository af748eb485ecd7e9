package cmd

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/josephlewis42/smash/commands"
	"github.com/josephlewis42/smash/core/config"
	"github.com/josephlewis42/smash/core/engine"
	"github.com/josephlewis42/smash/core/logger"
	"github.com/spf13/cobra"
)

var (
	cfgPath     string
	commandLine string
)

func loadConfig() (*config.Configuration, error) {
	path := cfgPath
	if path == "" {
		defaultDir, err := config.DefaultDir()
		if err != nil {
			return nil, err
		}
		path = defaultDir
	}

	configuration, err := config.Load(path)

	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "smash",
	Short: "Small shell with job control",
	Long: `smash runs commands in the foreground or background, keeps track of
stopped jobs and kills commands that outlive their timeout.`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		appLogger := log.New(cmd.ErrOrStderr(), "[smash] ", 0)

		cfg, err := loadConfig()
		switch {
		case errors.Is(err, fs.ErrNotExist):
			appLogger.Println("Using the default configuration.")
			cfg = config.Default()
		case err != nil:
			return err
		}

		return runShell(cmd.Context(), cfg, appLogger)
	},
}

// runShell runs a shell on the process's standard streams until it quits.
func runShell(ctx context.Context, cfg *config.Configuration, appLogger *log.Logger) error {
	var events *logger.Logger
	if cfg.EventLog {
		logFd, err := cfg.OpenAppLog()
		if err != nil {
			appLogger.Printf("Event log disabled: %v\n", err)
		} else {
			defer logFd.Close()
			events = logger.NewJSONLinesLogger(logFd)
		}
	}

	shell := commands.NewShell(commands.Options{
		Config: cfg,
		Files: engine.Files{
			Stdin:  os.Stdin,
			Stdout: os.Stdout,
			Stderr: os.Stderr,
		},
		Events: events,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	shell.Engine.HandleSignals(ctx)

	if commandLine != "" {
		shell.RunCommand(commandLine)
		return nil
	}
	return shell.RunInteractive()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.ExecuteContext(context.Background()))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config directory (default $HOME/.smash)")
	rootCmd.Flags().StringVarP(&commandLine, "command", "c", "", "run a single command line and exit")
}
