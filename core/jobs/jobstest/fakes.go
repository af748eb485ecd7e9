// Package jobstest provides deterministic stand-ins for the OS pieces the job
// table depends on.
package jobstest

import (
	"sync"
	"syscall"
	"time"

	"github.com/josephlewis42/smash/core/jobs"
	"golang.org/x/sys/unix"
)

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock set to Go's reference time.
func NewClock() *Clock {
	return &Clock{now: time.Date(2006, 1, 2, 3, 4, 5, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Sent is a signal delivered by a Signaler.
type Sent struct {
	PGID   int
	Signal syscall.Signal
}

// Signaler records signals instead of sending them. Processes listed as dead
// fail deliveries with ESRCH and are reported as finished.
type Signaler struct {
	mu   sync.Mutex
	sent []Sent
	dead map[int]bool
	fail map[int]error
}

var _ jobs.Signaler = (*Signaler)(nil)

// NewSignaler creates a signaler where every process is alive.
func NewSignaler() *Signaler {
	return &Signaler{
		dead: make(map[int]bool),
		fail: make(map[int]error),
	}
}

// Kill marks the process group as exited.
func (s *Signaler) Kill(pgid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dead[pgid] = true
}

// FailWith makes deliveries to pgid return err.
func (s *Signaler) FailWith(pgid int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[pgid] = err
}

// Sent returns the signals delivered so far.
func (s *Signaler) Sent() []Sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Sent(nil), s.sent...)
}

// Signal implements jobs.Signaler.
func (s *Signaler) Signal(rec jobs.Record, sig syscall.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.fail[rec.PGID]; ok {
		return &jobs.SignalError{Signal: sig, PGID: rec.PGID, Err: err}
	}
	if s.dead[rec.PGID] {
		return &jobs.SignalError{Signal: sig, PGID: rec.PGID, Err: unix.ESRCH}
	}
	s.sent = append(s.sent, Sent{PGID: rec.PGID, Signal: sig})
	if sig == syscall.SIGKILL {
		s.dead[rec.PGID] = true
	}
	return nil
}

// Finished implements jobs.Signaler.
func (s *Signaler) Finished(rec jobs.Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dead[rec.PGID]
}

// Alarm records how it was armed.
type Alarm struct {
	mu    sync.Mutex
	armed bool
	after time.Duration
}

var _ jobs.Alarm = (*Alarm)(nil)

// Arm implements jobs.Alarm.
func (a *Alarm) Arm(d time.Duration) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.armed = true
	a.after = d
	return nil
}

// Disarm implements jobs.Alarm.
func (a *Alarm) Disarm() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.armed = false
	a.after = 0
	return nil
}

// Armed reports whether the alarm is pending and when it fires.
func (a *Alarm) Armed() (bool, time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.armed, a.after
}

// NewTable returns a table wired to fresh fakes.
func NewTable() (*jobs.Table, *Signaler, *Alarm, *Clock) {
	signals := NewSignaler()
	alarm := &Alarm{}
	clock := NewClock()
	table := jobs.NewTable(
		jobs.WithSignaler(signals),
		jobs.WithAlarm(alarm),
		jobs.WithClock(clock.Now),
	)
	return table, signals, alarm, clock
}
