package commands

import (
	"errors"
	"fmt"
)

// ErrInvalidArguments is returned when a command line can't be understood.
var ErrInvalidArguments = errors.New("invalid arguments")

// CommandError is a user facing failure of a single command.
type CommandError struct {
	Name string
	Err  error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("smash error: %s: %v", e.Name, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func invalidArgs(name string) error {
	return &CommandError{Name: name, Err: ErrInvalidArguments}
}
