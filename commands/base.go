package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	getopt "github.com/pborman/getopt/v2"
)

// Builtin is a command that runs inside the shell process.
type Builtin interface {
	Main(s *Shell, ec ExecContext) error
}

// BuiltinFunc adapts a function to a Builtin.
type BuiltinFunc func(s *Shell, ec ExecContext) error

func (f BuiltinFunc) Main(s *Shell, ec ExecContext) error {
	return f(s, ec)
}

var _ Builtin = (BuiltinFunc)(nil)

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = make(map[string]Builtin)

// ListBuiltins returns the names of the builtins in sorted order.
func ListBuiltins() []string {
	var out []string
	for name := range AllBuiltins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ExecContext holds the streams and arguments of one builtin invocation.
type ExecContext struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Line is the command line as typed, including any trailing &.
	Line string

	// Args contains the CLI arguments for the command
	Args []string
}

func (ec ExecContext) name() string {
	if len(ec.Args) == 0 {
		return "smash"
	}
	return ec.Args[0]
}

type SimpleCommand struct {
	// Use holds a one line usage string
	Use string
	// Short holds a sone line description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not.
	// If this is non-nil when Run() is called, then the default help flag isn't
	// added.
	ShowHelp *bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}

	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run the command, if flag parsing was succcessful call the callback with the
// positional arguments.
func (s *SimpleCommand) Run(ec ExecContext, callback func(args []string) error) error {
	opts := s.Flags()

	// Add help flag if not overridden.
	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	if err := opts.Getopt(ec.Args, nil); err != nil {
		return invalidArgs(ec.name())
	}

	if *s.ShowHelp {
		s.PrintHelp(ec.Stdout)
		return nil
	}

	return callback(opts.Args())
}

var ColorBoldGreen = color.New(color.FgGreen, color.Bold)
