package commands

import (
	"strings"

	"github.com/anmitsu/go-shlex"
	"github.com/josephlewis42/smash/core/engine"
)

// Kind is the closed set of things a command line can be.
type Kind int

const (
	// KindBuiltin runs inside the shell.
	KindBuiltin Kind = iota
	// KindExternal runs with the interpreter as a job.
	KindExternal
	// KindPipeline connects two commands, including redirections into files.
	KindPipeline
)

// Command is a parsed command line.
type Command struct {
	Kind Kind
	// Line is the trimmed command line.
	Line string
	// Args are the tokens of Line without a trailing &.
	Args []string

	Builtin  Builtin
	Pipeline *engine.Pipeline
}

// Parse classifies line. A leading timeout wraps the whole line, otherwise
// pipes take precedence over redirections, which take precedence over
// everything else.
func (s *Shell) Parse(line string) (*Command, error) {
	line = strings.TrimSpace(line)

	if fields := strings.Fields(line); len(fields) > 0 && fields[0] == timeoutName {
		args, err := tokenize(line)
		if err != nil {
			return nil, &CommandError{Name: timeoutName, Err: err}
		}
		return &Command{Kind: KindBuiltin, Line: line, Args: args, Builtin: AllBuiltins[timeoutName]}, nil
	}

	if idx := strings.IndexByte(line, '|'); idx >= 0 {
		return s.parsePipe(line, idx)
	}
	if idx := strings.IndexByte(line, '>'); idx >= 0 {
		return s.parseRedirect(line, idx)
	}

	args, err := tokenize(line)
	if err != nil {
		return nil, &CommandError{Name: "smash", Err: err}
	}
	if len(args) == 0 {
		return nil, invalidArgs("smash")
	}

	cmd := &Command{Kind: KindExternal, Line: line, Args: args}
	if builtin, ok := AllBuiltins[args[0]]; ok {
		cmd.Kind = KindBuiltin
		cmd.Builtin = builtin
	}
	return cmd, nil
}

func (s *Shell) parsePipe(line string, idx int) (*Command, error) {
	rest := line[idx+1:]
	stderrOnly := strings.HasPrefix(rest, "&")
	if stderrOnly {
		rest = rest[1:]
	}

	from := strings.TrimSpace(line[:idx])
	to := strings.TrimSpace(rest)
	if from == "" || engine.StripBackground(to) == "" {
		return nil, invalidArgs("pipe")
	}

	fromStage, err := s.stage(from)
	if err != nil {
		return nil, err
	}
	toStage, err := s.stage(to)
	if err != nil {
		return nil, err
	}

	return &Command{
		Kind: KindPipeline,
		Line: line,
		Pipeline: &engine.Pipeline{
			Line:       line,
			From:       fromStage,
			To:         toStage,
			StderrOnly: stderrOnly,
		},
	}, nil
}

func (s *Shell) parseRedirect(line string, idx int) (*Command, error) {
	rest := line[idx+1:]
	appendMode := strings.HasPrefix(rest, ">")
	if appendMode {
		rest = rest[1:]
	}

	from := strings.TrimSpace(line[:idx])
	target := engine.StripBackground(strings.TrimSpace(rest))
	if from == "" || target == "" {
		return nil, invalidArgs("redirection")
	}

	fromStage, err := s.stage(from)
	if err != nil {
		return nil, err
	}

	return &Command{
		Kind: KindPipeline,
		Line: line,
		Pipeline: &engine.Pipeline{
			Line: line,
			From: fromStage,
			To:   s.fileSink("redirection", target, appendMode),
		},
	}, nil
}

// stage turns one side of a pipeline into an engine stage. Builtins run in
// process, anything else is left to the interpreter.
func (s *Shell) stage(text string) (engine.Stage, error) {
	args, err := tokenize(text)
	if err != nil {
		return engine.Stage{}, &CommandError{Name: "smash", Err: err}
	}

	stage := engine.Stage{Text: text}
	if len(args) == 0 {
		return stage, nil
	}
	if builtin, ok := AllBuiltins[args[0]]; ok {
		stage.Proc = func(stdio engine.Stdio) error {
			return builtin.Main(s, ExecContext{
				Stdin:  stdio.Stdin,
				Stdout: stdio.Stdout,
				Stderr: stdio.Stderr,
				Line:   text,
				Args:   args,
			})
		}
	}
	return stage, nil
}

func tokenize(line string) ([]string, error) {
	return shlex.Split(engine.StripBackground(line), true)
}
