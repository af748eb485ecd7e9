package commands

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const timeoutName = "timeout"

// maxTimeoutSeconds is the longest timeout that fits in a time.Duration.
const maxTimeoutSeconds = math.MaxInt64 / int64(time.Second)

// Timeout runs a command and kills it if it's still running after the given
// number of seconds: timeout <seconds> <command>.
//
// Builtins run to completion first, their deadline is only reported.
func Timeout(s *Shell, ec ExecContext) error {
	if len(ec.Args) < 3 {
		return invalidArgs(timeoutName)
	}
	seconds, err := strconv.ParseInt(ec.Args[1], 10, 64)
	if err != nil || seconds < 0 || seconds > maxTimeoutSeconds {
		return invalidArgs(timeoutName)
	}
	duration := time.Duration(seconds) * time.Second

	inner, err := s.Parse(innerCommand(ec.Line))
	if err != nil {
		return err
	}

	switch inner.Kind {
	case KindBuiltin:
		err := inner.Builtin.Main(s, ExecContext{
			Stdin:  ec.Stdin,
			Stdout: ec.Stdout,
			Stderr: ec.Stderr,
			Line:   inner.Line,
			Args:   inner.Args,
		})
		if trackErr := s.Engine.TrackBuiltin(ec.Line, duration); err == nil {
			err = trackErr
		}
		return err

	case KindPipeline:
		pipeline := *inner.Pipeline
		pipeline.Line = ec.Line
		return s.Engine.RunPipeline(&pipeline, duration)

	default:
		return s.Engine.RunExternal(ec.Line, inner.Line, duration)
	}
}

// innerCommand strips "timeout <seconds>" from line.
func innerCommand(line string) string {
	rest := strings.TrimSpace(line)
	for i := 0; i < 2; i++ {
		rest = strings.TrimLeft(rest, " \t")
		if idx := strings.IndexAny(rest, " \t"); idx >= 0 {
			rest = rest[idx:]
		} else {
			rest = ""
		}
	}
	return strings.TrimSpace(rest)
}

func init() {
	AllBuiltins[timeoutName] = BuiltinFunc(Timeout)
}
