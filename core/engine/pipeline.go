package engine

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/josephlewis42/smash/core/jobs"
)

// InProcess is a command that runs inside the shell rather than as a child.
type InProcess func(stdio Stdio) error

// Stage is one side of a pipeline. Stages without Proc run Text with the
// interpreter.
type Stage struct {
	Text string
	Proc InProcess
	// Prepare runs before anything is launched, e.g. to open a file. A failure
	// aborts the pipeline.
	Prepare func() error
	// Cleanup releases what Prepare acquired when Proc never gets to run.
	Cleanup func()
}

func (s Stage) external() bool {
	return s.Proc == nil
}

func (s Stage) cleanup() {
	if s.Cleanup != nil {
		s.Cleanup()
	}
}

// Pipeline connects the output of From to the input of To.
type Pipeline struct {
	// Line is the original command line; a trailing & runs the pipeline in
	// the background.
	Line string
	From Stage
	To   Stage
	// StderrOnly pipes the standard error of From instead of its output.
	StderrOnly bool
}

// RunPipeline launches both sides of p connected by a pipe. External sides
// share one process group, led by whichever starts first, which is tracked as
// a single job; the whole pipeline is stopped, continued and killed together,
// the way a forked pipe command hands its own group to both children. Sides
// do not get a group each. In-process sides run on their own goroutines; when
// both sides are in-process the pipeline always runs in the foreground.
//
// Stages whose Proc never starts are cleaned up before returning.
func (e *Engine) RunPipeline(p *Pipeline, timeout time.Duration) error {
	stages := []Stage{p.From, p.To}
	for i, stage := range stages {
		if stage.Prepare == nil {
			continue
		}
		if err := stage.Prepare(); err != nil {
			for _, prepared := range stages[:i] {
				prepared.cleanup()
			}
			return err
		}
	}

	r, w, err := os.Pipe()
	if err != nil {
		p.From.cleanup()
		p.To.cleanup()
		return &OpError{Op: "pipe", Err: err}
	}

	var (
		leader  int
		pending []<-chan error
	)
	abort := func(err error) error {
		r.Close()
		w.Close()
		if leader > 0 {
			e.table.Signaler().Signal(jobs.NewRecord(0, leader, p.Line), syscall.SIGKILL)
			go collect(leader)
		}
		return err
	}

	// The reader starts first so the writer never blocks on a missing peer.
	if p.To.external() {
		cmd := e.command(StripBackground(p.To.Text), 0)
		cmd.Stdin = r
		cmd.Stdout = e.files.Stdout
		cmd.Stderr = e.files.Stderr
		if leader, err = start(cmd); err != nil {
			p.From.cleanup()
			return abort(err)
		}
		r.Close()
	} else {
		pending = append(pending, runInProcess(p.To.Proc, Stdio{
			Stdin:  r,
			Stdout: e.stdio.Stdout,
			Stderr: e.stdio.Stderr,
		}, r))
	}

	if p.From.external() {
		cmd := e.command(StripBackground(p.From.Text), leader)
		cmd.Stdin = e.files.Stdin
		cmd.Stdout, cmd.Stderr = w, e.files.Stderr
		if p.StderrOnly {
			cmd.Stdout, cmd.Stderr = e.files.Stdout, w
		}
		pid, err := start(cmd)
		if err != nil {
			return abort(err)
		}
		if leader == 0 {
			leader = pid
		}
		w.Close()
	} else {
		stdio := Stdio{Stdin: e.stdio.Stdin, Stdout: w, Stderr: e.stdio.Stderr}
		if p.StderrOnly {
			stdio.Stdout, stdio.Stderr = e.stdio.Stdout, w
		}
		pending = append(pending, runInProcess(p.From.Proc, stdio, w))
	}

	if leader == 0 {
		err := drain(pending)
		if timeout > 0 {
			if trackErr := e.TrackBuiltin(p.Line, timeout); err == nil {
				err = trackErr
			}
		}
		return err
	}

	detached, err := e.settle(jobs.NewRecord(jobs.ForegroundJobID, leader, p.Line), IsBackground(p.Line), timeout)
	if detached {
		e.report(pending)
		return err
	}
	return errors.Join(err, drain(pending))
}

type closer interface {
	Close() error
}

func runInProcess(proc InProcess, stdio Stdio, end closer) <-chan error {
	done := make(chan error, 1)
	go func() {
		err := proc(stdio)
		end.Close()
		done <- err
	}()
	return done
}

func drain(pending []<-chan error) error {
	var errs []error
	for _, done := range pending {
		if err := <-done; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// report prints the errors of in-process sides that outlive the call.
func (e *Engine) report(pending []<-chan error) {
	for _, done := range pending {
		go func(done <-chan error) {
			if err := <-done; err != nil {
				fmt.Fprintln(e.stdio.Stderr, err)
			}
		}(done)
	}
}
