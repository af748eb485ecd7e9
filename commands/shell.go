package commands

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/smash/core/config"
	"github.com/josephlewis42/smash/core/engine"
	"github.com/josephlewis42/smash/core/jobs"
	"github.com/josephlewis42/smash/core/logger"
	"github.com/spf13/afero"
)

const DefaultPromptName = "smash"

// Options configure a Shell.
type Options struct {
	Config *config.Configuration
	Files  engine.Files
	// Stdio overrides the shell's own streams, Files are used otherwise.
	Stdio  engine.Stdio
	Fs     afero.Fs
	Table  *jobs.Table
	Events *logger.Logger
}

// Shell is the state of one smash session.
type Shell struct {
	Engine *engine.Engine
	Fs     afero.Fs

	stdio         engine.Stdio
	promptName    string
	defaultPrompt string
	colorPrompt   bool
	copyRate      int64
	oldPwd        string
	pid           int

	// Set to true to quit the shell
	Quit bool
}

// NewShell creates a shell, defaults are filled in for unset options.
func NewShell(opts Options) *Shell {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Table == nil {
		opts.Table = jobs.NewTable()
	}

	prompt := opts.Config.Prompt
	if prompt == "" {
		prompt = DefaultPromptName
	}

	eng := engine.New(opts.Table, engine.Options{
		Interpreter: opts.Config.Interpreter,
		Files:       opts.Files,
		Stdio:       opts.Stdio,
		Events:      opts.Events,
	})

	return &Shell{
		Engine:        eng,
		Fs:            opts.Fs,
		stdio:         eng.Stdio(),
		promptName:    prompt,
		defaultPrompt: prompt,
		colorPrompt:   opts.Config.ColorPrompt,
		copyRate:      opts.Config.CopyBytesPerSecond,
		pid:           os.Getpid(),
	}
}

// Table returns the shell's job table.
func (s *Shell) Table() *jobs.Table {
	return s.Engine.Table()
}

// Prompt returns the text shown before each command.
func (s *Shell) Prompt() string {
	prompt := s.promptName + "> "
	if s.colorPrompt {
		return ColorBoldGreen.Sprint(prompt)
	}
	return prompt
}

// RunInteractive reads and runs command lines until quit or end of input.
func (s *Shell) RunInteractive() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: s.Prompt(),
		Stdin:  readline.NewCancelableStdin(s.stdio.Stdin),
		Stdout: s.stdio.Stdout,
		Stderr: s.stdio.Stderr,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for !s.Quit {
		rl.SetPrompt(s.Prompt())
		line, err := rl.Readline()

		switch {
		case err == io.EOF:
			return nil // Input closed, quit.

		case err == readline.ErrInterrupt:
			// Interrupt clears line.
			continue
		case err != nil:
			log.Printf("Error readline: %v", err)
			continue

		case len(strings.TrimSpace(line)) == 0:
			continue // empty line

		default:
			s.RunCommand(line)
		}
	}
	return nil
}

// RunCommand runs a single command line, printing any error. Errors never
// escape so one bad command can't end the session.
func (s *Shell) RunCommand(line string) {
	for _, rec := range s.Table().Reap() {
		s.log(logger.EventJobFinished, rec)
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	s.log(logger.EventCommand, jobs.Record{JobID: jobs.ForegroundJobID, Command: line})

	cmd, err := s.Parse(line)
	if err == nil {
		err = s.Execute(cmd)
	}
	if err != nil {
		fmt.Fprintln(s.stdio.Stderr, err)
	}
}

// Execute runs a parsed command.
func (s *Shell) Execute(cmd *Command) error {
	switch cmd.Kind {
	case KindBuiltin:
		return cmd.Builtin.Main(s, s.execContext(cmd))
	case KindPipeline:
		return s.Engine.RunPipeline(cmd.Pipeline, 0)
	default:
		return s.Engine.RunExternal(cmd.Line, "", 0)
	}
}

func (s *Shell) execContext(cmd *Command) ExecContext {
	return ExecContext{
		Stdin:  s.stdio.Stdin,
		Stdout: s.stdio.Stdout,
		Stderr: s.stdio.Stderr,
		Line:   cmd.Line,
		Args:   cmd.Args,
	}
}

func (s *Shell) log(eventType logger.EventType, rec jobs.Record) {
	s.Engine.Events().Log(&logger.Event{
		Type:    eventType,
		JobID:   rec.JobID,
		PID:     rec.PID,
		Command: rec.Command,
	})
}
