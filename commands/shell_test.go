package commands

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/josephlewis42/smash/core/config"
	"github.com/josephlewis42/smash/core/jobs"
	"github.com/josephlewis42/smash/core/logger"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := map[string]struct {
		line       string
		kind       Kind
		args       []string
		stderrOnly bool
		fromText   string
		toText     string
	}{
		"builtin":            {line: "jobs", kind: KindBuiltin, args: []string{"jobs"}},
		"builtin background": {line: "  showpid & ", kind: KindBuiltin, args: []string{"showpid"}},
		"external":           {line: "ls -l 'a b'&", kind: KindExternal, args: []string{"ls", "-l", "a b"}},
		"timeout":            {line: "timeout 5 ls | wc", kind: KindBuiltin, args: []string{"timeout", "5", "ls", "|", "wc"}},
		"pipe":               {line: "ls | wc -l", kind: KindPipeline, fromText: "ls", toText: "wc -l"},
		"stderr pipe":        {line: "make |& grep error &", kind: KindPipeline, stderrOnly: true, fromText: "make", toText: "grep error &"},
		"pipe before redirect": {
			line: "ls | wc > out", kind: KindPipeline, fromText: "ls", toText: "wc > out",
		},
		"redirect": {line: "ls > out", kind: KindPipeline, fromText: "ls", toText: "out"},
		"append":   {line: "ls >> out &", kind: KindPipeline, fromText: "ls", toText: "out"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ts := newTestShell(t)

			cmd, err := ts.Parse(tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, cmd.Kind)

			if tc.kind != KindPipeline {
				assert.Equal(t, tc.args, cmd.Args)
				return
			}
			require.NotNil(t, cmd.Pipeline)
			assert.Equal(t, tc.stderrOnly, cmd.Pipeline.StderrOnly)
			assert.Equal(t, tc.fromText, cmd.Pipeline.From.Text)
			assert.Equal(t, tc.toText, cmd.Pipeline.To.Text)
		})
	}
}

func TestParse_BuiltinStagesRunInProcess(t *testing.T) {
	ts := newTestShell(t)

	cmd, err := ts.Parse("showpid | cat")
	require.NoError(t, err)
	assert.NotNil(t, cmd.Pipeline.From.Proc)
	assert.Nil(t, cmd.Pipeline.To.Proc)
}

func TestChprompt(t *testing.T) {
	ts := newTestShell(t)
	assert.Equal(t, "smash> ", ts.Prompt())

	ts.RunCommand("chprompt dev")
	assert.Equal(t, "dev> ", ts.Prompt())

	ts.RunCommand("chprompt")
	assert.Equal(t, "smash> ", ts.Prompt())
	assert.Empty(t, ts.out.String())
}

func TestColorPrompt(t *testing.T) {
	ts := newTestShell(t, func(opts *Options) {
		opts.Config = config.Default()
		opts.Config.ColorPrompt = true
	})

	assert.Contains(t, ts.Prompt(), "smash> ")
}

func TestCdAndPwd(t *testing.T) {
	start, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { os.Chdir(start) })

	dir := t.TempDir()
	ts := newTestShell(t)

	ts.RunCommand("cd " + dir)
	ts.RunCommand("pwd")
	ts.RunCommand("cd -")
	ts.RunCommand("pwd")

	resolved, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, start, resolved)

	lines := ts.out.String()
	assert.Contains(t, lines, dir+"\n")
	assert.Contains(t, lines, start+"\n")
}

func TestQuit(t *testing.T) {
	ts := newTestShell(t)
	ts.addJobs()

	ts.RunCommand("quit")
	assert.True(t, ts.Quit)
	assert.Equal(t, 2, ts.table.Len())
	assert.Empty(t, ts.signals.Sent())
}

func TestRedirection(t *testing.T) {
	ts := newTestShell(t)

	ts.RunCommand("echo hello > out.txt")
	ts.RunCommand("echo world >> out.txt")
	ts.RunCommand("showpid > pid.txt")
	require.Empty(t, ts.out.String())

	content, err := afero.ReadFile(ts.Fs, "out.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\n", string(content))

	content, err = afero.ReadFile(ts.Fs, "pid.txt")
	require.NoError(t, err)
	assert.Equal(t, "smash pid is 4242\n", string(content))

	ts.RunCommand("echo again > out.txt")
	content, err = afero.ReadFile(ts.Fs, "out.txt")
	require.NoError(t, err)
	assert.Equal(t, "again\n", string(content))
}

func TestRedirection_OpenFailure(t *testing.T) {
	ts := newTestShell(t, func(opts *Options) {
		opts.Fs = afero.NewReadOnlyFs(afero.NewMemMapFs())
	})

	ts.RunCommand("echo hello > out.txt")
	assert.Equal(t, "smash error: redirection: invalid arguments\n", ts.out.String())
}

func TestCp(t *testing.T) {
	ts := newTestShell(t, func(opts *Options) {
		opts.Config = config.Default()
		opts.Config.CopyBytesPerSecond = 1 << 20
	})
	require.NoError(t, afero.WriteFile(ts.Fs, "src.txt", []byte("payload"), 0644))
	require.NoError(t, afero.WriteFile(ts.Fs, "dst.txt", []byte("old contents to overwrite"), 0644))

	ts.RunCommand("cp src.txt dst.txt")
	assert.Equal(t, "smash: src.txt was copied to dst.txt\n", ts.out.String())

	content, err := afero.ReadFile(ts.Fs, "dst.txt")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))
}

func TestCp_SameFile(t *testing.T) {
	ts := newTestShell(t)
	require.NoError(t, afero.WriteFile(ts.Fs, "src.txt", []byte("payload"), 0644))

	ts.RunCommand("cp src.txt ./src.txt")
	assert.Empty(t, ts.out.String())

	content, err := afero.ReadFile(ts.Fs, "src.txt")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))
}

func TestCp_Errors(t *testing.T) {
	ts := newTestShell(t)

	ts.RunCommand("cp missing.txt dst.txt")
	ts.RunCommand("cp one")
	assert.Equal(t, "smash error: cp: invalid arguments\nsmash error: cp: invalid arguments\n", ts.out.String())

	_, err := ts.Fs.Stat("dst.txt")
	assert.True(t, os.IsNotExist(err))
}

func TestTimeout_Builtin(t *testing.T) {
	ts := newTestShell(t)

	ts.RunCommand("timeout 3 showpid")
	assert.Equal(t, "smash pid is 4242\n", ts.out.String())

	timed := ts.table.Timed()
	require.Len(t, timed, 1)
	assert.Equal(t, jobs.BuiltinJobID, timed[0].JobID)
	assert.Equal(t, "timeout 3 showpid", timed[0].Command)

	armed, after := ts.alarm.Armed()
	assert.True(t, armed)
	assert.Equal(t, 3*time.Second, after)

	ts.clock.Advance(3 * time.Second)
	ts.Engine.HandleAlarm()
	assert.Equal(t, "smash pid is 4242\nsmash: got an alarm\nsmash: timeout 3 showpid timed out!\n", ts.out.String())
}

func TestTimeout_ForegroundFinishes(t *testing.T) {
	ts := newTestShell(t)

	ts.RunCommand("timeout 5 true")
	assert.Empty(t, ts.out.String())
	assert.Empty(t, ts.table.Timed())

	armed, _ := ts.alarm.Armed()
	assert.False(t, armed)
}

func TestRunCommand_LogsEvents(t *testing.T) {
	var events []*logger.Event
	ts := newTestShell(t, func(opts *Options) {
		opts.Events = &logger.Logger{Record: func(e *logger.Event) error {
			events = append(events, e)
			return nil
		}}
	})
	ts.addJobs()
	ts.signals.Kill(100)

	ts.RunCommand("kill -9 2")

	require.Len(t, events, 3)
	assert.Equal(t, logger.EventJobFinished, events[0].Type)
	assert.Equal(t, 100, events[0].PID)
	assert.Equal(t, logger.EventCommand, events[1].Type)
	assert.Equal(t, "kill -9 2", events[1].Command)
	assert.Equal(t, logger.EventJobKilled, events[2].Type)
	assert.Equal(t, 9, events[2].Signal)
}

func TestConfiguredPrompt(t *testing.T) {
	ts := newTestShell(t, func(opts *Options) {
		opts.Config.Prompt = "playground"
	})
	assert.Equal(t, "playground> ", ts.Prompt())

	ts.RunCommand("chprompt dev")
	ts.RunCommand("chprompt")
	assert.Equal(t, "playground> ", ts.Prompt())
}

func TestTimeout_LongestDuration(t *testing.T) {
	ts := newTestShell(t)

	ts.RunCommand("timeout 18446744074 true &")
	assert.Equal(t, "smash error: timeout: invalid arguments\n", ts.out.String())
	assert.Empty(t, ts.table.Timed())
	assert.Zero(t, ts.table.Len())

	ts.out.Reset()
	ts.RunCommand("timeout 9223372036 showpid")
	assert.Equal(t, "smash pid is 4242\n", ts.out.String())

	armed, after := ts.alarm.Armed()
	assert.True(t, armed)
	assert.Equal(t, time.Duration(maxTimeoutSeconds)*time.Second, after)
}

// countingFs tracks how many files opened for reading are still open.
type countingFs struct {
	afero.Fs
	open int
}

func (fs *countingFs) Open(name string) (afero.File, error) {
	fd, err := fs.Fs.Open(name)
	if err != nil {
		return nil, err
	}
	fs.open++
	return &countedFile{File: fd, fs: fs}, nil
}

type countedFile struct {
	afero.File
	fs *countingFs
}

func (f *countedFile) Close() error {
	f.fs.open--
	return f.File.Close()
}

func TestCp_UnwritableDestinationClosesSource(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "src.txt", []byte("payload"), 0644))
	fs := &countingFs{Fs: afero.NewReadOnlyFs(base)}

	ts := newTestShell(t, func(opts *Options) {
		opts.Fs = fs
	})

	ts.RunCommand("cp src.txt dst.txt")
	assert.Equal(t, "smash error: cp: invalid arguments\n", ts.out.String())
	assert.Zero(t, fs.open)
}

func TestFg_ContinueFailureKeepsJob(t *testing.T) {
	ts := newTestShell(t)
	ts.addJobs()
	ts.signals.FailWith(101, syscall.EPERM)

	ts.RunCommand("fg 2")
	assert.Equal(t, "sleep 200& : 101\nsmash error: kill failed: operation not permitted\n", ts.out.String())

	assert.Equal(t, 2, ts.table.Len())
	stopped, err := ts.table.LastStopped()
	require.NoError(t, err)
	assert.Equal(t, 2, stopped.JobID)
	assert.Equal(t, 101, stopped.PID)
	assert.False(t, stopped.Running)
}
