package commands

import (
	"io"
	"os"
	"path/filepath"

	"github.com/josephlewis42/smash/core/engine"
	"github.com/juju/ratelimit"
	"github.com/spf13/afero"
)

// fileSink writes everything it reads into a file. Failing to open the file
// is reported as invalid arguments for the named command.
func (s *Shell) fileSink(name, path string, appendMode bool) engine.Stage {
	var fd afero.File

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}

	return engine.Stage{
		Text: path,
		Prepare: func() (err error) {
			fd, err = s.Fs.OpenFile(path, flags, 0644)
			if err != nil {
				return invalidArgs(name)
			}
			return nil
		},
		Cleanup: func() { closeFile(&fd) },
		Proc: func(stdio engine.Stdio) error {
			defer closeFile(&fd)
			if _, err := io.Copy(fd, stdio.Stdin); err != nil {
				return &CommandError{Name: name, Err: err}
			}
			return nil
		},
	}
}

// fileSource writes the contents of a file, throttled to the configured copy
// rate.
func (s *Shell) fileSource(name, path string) engine.Stage {
	var fd afero.File

	return engine.Stage{
		Text: path,
		Prepare: func() (err error) {
			fd, err = s.Fs.Open(path)
			if err != nil {
				return invalidArgs(name)
			}
			return nil
		},
		Cleanup: func() { closeFile(&fd) },
		Proc: func(stdio engine.Stdio) error {
			defer closeFile(&fd)

			var src io.Reader = fd
			if s.copyRate > 0 {
				tokenBucket := ratelimit.NewBucketWithRate(float64(s.copyRate), s.copyRate)
				src = ratelimit.Reader(fd, tokenBucket)
			}
			if _, err := io.Copy(stdio.Stdout, src); err != nil {
				return &CommandError{Name: name, Err: err}
			}
			return nil
		},
	}
}

func closeFile(fd *afero.File) {
	if *fd != nil {
		(*fd).Close()
		*fd = nil
	}
}

// sameFile reports whether both paths name the same existing file.
func sameFile(fs afero.Fs, a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}

	infoA, err := fs.Stat(a)
	if err != nil {
		return false
	}
	infoB, err := fs.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(infoA, infoB)
}
