// Package jobs tracks the shell's background and stopped jobs along with the
// deadlines of timed commands.
//
// Table owns three structures that must stay consistent:
//
//	jobs    map[job id]*Record - the source of truth
//	stopped max-heap of job ids waiting for bg
//	timed   TimedRecords sorted by deadline, backing a single OS alarm
//
// Every id in stopped is present in jobs. Timed entries reference a job in
// jobs, the foreground job (ForegroundJobID or the id of a job brought back by
// fg) or a built-in (BuiltinJobID). All methods are safe to call from the
// signal handling goroutine while the main flow uses the table.
package jobs

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"syscall"
	"time"
)

// Table is the shell's job table.
type Table struct {
	mu      sync.Mutex
	jobs    map[int]*Record
	stopped stoppedHeap
	timed   []TimedRecord

	signals Signaler
	alarm   Alarm
	now     func() time.Time
}

// Option configures a Table.
type Option func(*Table)

// WithSignaler replaces the OS signaler.
func WithSignaler(s Signaler) Option {
	return func(t *Table) { t.signals = s }
}

// WithAlarm replaces the OS interval timer.
func WithAlarm(a Alarm) Option {
	return func(t *Table) { t.alarm = a }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Table) { t.now = now }
}

// NewTable creates an empty table backed by the OS.
func NewTable(opts ...Option) *Table {
	t := &Table{
		jobs:    make(map[int]*Record),
		signals: OSSignaler{},
		alarm:   ITimerAlarm{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Now returns the table's current time.
func (t *Table) Now() time.Time {
	return t.now()
}

// Signaler returns the signaler the table delivers signals with.
func (t *Table) Signaler() Signaler {
	return t.signals
}

// Len returns the number of tracked jobs.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.jobs)
}

// Add inserts rec and returns its job id. Records without a positive id get
// one more than the highest live id. A paused record is also queued for bg.
func (t *Table) Add(rec Record) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.reapLocked()

	oldID := rec.JobID
	if rec.JobID <= 0 {
		rec.JobID = t.maxIDLocked() + 1
		t.retargetTimedLocked(oldID, rec)
	}
	if rec.PGID <= 0 {
		rec.PGID = rec.PID
	}

	// Overwrite any stale entry.
	t.stopped.remove(rec.JobID)

	rec.ResetStartTime(t.now())
	stored := rec
	t.jobs[rec.JobID] = &stored

	if !stored.Running {
		t.stopped.add(stored.JobID)
	}
	return stored.JobID
}

// Get returns a copy of the job with the given id.
func (t *Table) Get(jobID int) (Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.jobs[jobID]
	if !ok {
		return Record{}, NotFoundError{JobID: jobID}
	}
	return *rec, nil
}

// Remove drops the job from the table and the stopped queue. Timed entries are
// left alone, see RemoveTimed.
func (t *Table) Remove(jobID int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.jobs[jobID]; !ok {
		return NotFoundError{JobID: jobID}
	}
	t.removeLocked(jobID)
	return nil
}

// Take removes the job and returns it, used to move a job to the foreground.
func (t *Table) Take(jobID int) (Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.jobs[jobID]
	if !ok {
		return Record{}, NotFoundError{JobID: jobID}
	}
	t.removeLocked(jobID)
	return *rec, nil
}

// Pause marks the job stopped and queues it for bg.
func (t *Table) Pause(jobID int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.jobs[jobID]
	if !ok {
		return NotFoundError{JobID: jobID}
	}
	rec.SetRunning(false)
	t.stopped.add(jobID)
	return nil
}

// Resume continues a job and removes it from the stopped queue.
func (t *Table) Resume(jobID int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.jobs[jobID]
	if !ok {
		return NotFoundError{JobID: jobID}
	}
	if err := t.signals.Signal(*rec, syscall.SIGCONT); err != nil {
		return err
	}
	t.markRunningLocked(rec)
	return nil
}

// Signal delivers sig to the job's process group and keeps the running state
// in line with stop and continue signals.
func (t *Table) Signal(jobID int, sig syscall.Signal) (Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.jobs[jobID]
	if !ok {
		return Record{}, NotFoundError{JobID: jobID}
	}
	if err := t.signals.Signal(*rec, sig); err != nil {
		return *rec, err
	}

	switch sig {
	case syscall.SIGSTOP, syscall.SIGTSTP, syscall.SIGTTIN, syscall.SIGTTOU:
		rec.SetRunning(false)
		t.stopped.add(jobID)
	case syscall.SIGCONT:
		t.markRunningLocked(rec)
	}
	return *rec, nil
}

// Reap removes every job whose processes have exited, together with their
// deadlines, and returns them.
func (t *Table) Reap() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reapLocked()
}

// LastJob returns the job with the highest id.
func (t *Table) LastJob() (Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.jobs) == 0 {
		return Record{}, ErrEmpty
	}
	return *t.jobs[t.maxIDLocked()], nil
}

// LastStopped returns the stopped job with the highest id.
func (t *Table) LastStopped() (Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, ok := t.stopped.top()
	if !ok {
		return Record{}, ErrNoStoppedJobs
	}
	return *t.jobs[id], nil
}

// KillAll sends SIGKILL to every job and drops all deadlines. Every job is
// signaled even if some deliveries fail; failures other than a job that is
// already gone are joined into the returned error.
func (t *Table) KillAll() ([]Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var (
		killed []Record
		errs   []error
	)
	for _, id := range t.sortedIDsLocked() {
		rec := *t.jobs[id]
		killed = append(killed, rec)
		if err := t.signals.Signal(rec, syscall.SIGKILL); err != nil && !IsGone(err) {
			errs = append(errs, err)
		}
	}

	t.timed = nil
	if err := t.alarm.Disarm(); err != nil {
		errs = append(errs, err)
	}
	return killed, errors.Join(errs...)
}

// AddTimed registers a deadline duration from now and re-arms the alarm.
func (t *Table) AddTimed(jobID, pid int, command string, duration time.Duration) (TimedRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	timed := NewTimedRecord(jobID, pid, command, t.now(), duration)
	idx := sort.Search(len(t.timed), func(i int) bool {
		return timed.Before(t.timed[i])
	})
	t.timed = append(t.timed, TimedRecord{})
	copy(t.timed[idx+1:], t.timed[idx:])
	t.timed[idx] = timed

	return timed, t.scheduleLocked()
}

// RemoveTimed drops the deadlines of a job and re-arms the alarm.
func (t *Table) RemoveTimed(jobID int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.timed[:0]
	for _, timed := range t.timed {
		if timed.JobID != jobID {
			kept = append(kept, timed)
		}
	}
	t.timed = kept
	return t.scheduleLocked()
}

// Expire removes and returns every deadline that has passed, then re-arms the
// alarm for the next one.
func (t *Table) Expire() ([]TimedRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	n := 0
	for n < len(t.timed) && t.timed[n].Expired(now) {
		n++
	}
	expired := append([]TimedRecord(nil), t.timed[:n]...)
	t.timed = append(t.timed[:0], t.timed[n:]...)
	return expired, t.scheduleLocked()
}

// Timed returns a copy of the pending deadlines, soonest first.
func (t *Table) Timed() []TimedRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]TimedRecord(nil), t.timed...)
}

// ScheduleAlarm arms the OS timer for the soonest deadline, or disarms it when
// none are pending.
func (t *Table) ScheduleAlarm() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scheduleLocked()
}

// Entry is one line of the jobs listing.
type Entry struct {
	Record
	Elapsed int64
	Stopped bool
}

func (e Entry) String() string {
	out := fmt.Sprintf("[%d] %s %d %d secs", e.JobID, e.Command, e.PID, e.Elapsed)
	if e.Stopped {
		out += " (stopped)"
	}
	return out
}

// List reaps finished jobs and returns the rest ordered by job id.
func (t *Table) List() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.reapLocked()

	now := t.now()
	var out []Entry
	for _, id := range t.sortedIDsLocked() {
		rec := *t.jobs[id]
		out = append(out, Entry{
			Record:  rec,
			Elapsed: rec.Elapsed(now),
			Stopped: !rec.Running,
		})
	}
	return out
}

func (t *Table) removeLocked(jobID int) {
	t.stopped.remove(jobID)
	delete(t.jobs, jobID)
}

func (t *Table) markRunningLocked(rec *Record) {
	rec.SetRunning(true)
	t.stopped.remove(rec.JobID)
}

// reapLocked drops finished jobs along with their deadlines.
func (t *Table) reapLocked() []Record {
	var reaped []Record
	for _, id := range t.sortedIDsLocked() {
		rec := t.jobs[id]
		if t.signals.Finished(*rec) {
			reaped = append(reaped, *rec)
			t.removeLocked(id)
		}
	}
	if len(reaped) == 0 {
		return nil
	}

	kept := t.timed[:0]
	for _, timed := range t.timed {
		if !containsJob(reaped, timed.JobID, timed.PID) {
			kept = append(kept, timed)
		}
	}
	if len(kept) != len(t.timed) {
		t.timed = kept
		// A failed re-arm leaves the old alarm, which Expire tolerates.
		_ = t.scheduleLocked()
	}
	return reaped
}

func containsJob(recs []Record, jobID, pid int) bool {
	for _, rec := range recs {
		if rec.JobID == jobID && rec.PID == pid {
			return true
		}
	}
	return false
}

func (t *Table) maxIDLocked() int {
	max := 0
	for id := range t.jobs {
		if id > max {
			max = id
		}
	}
	return max
}

func (t *Table) sortedIDsLocked() []int {
	ids := make([]int, 0, len(t.jobs))
	for id := range t.jobs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// retargetTimedLocked moves deadlines registered under a sentinel id to the
// id a job was just assigned.
func (t *Table) retargetTimedLocked(oldID int, rec Record) {
	changed := false
	for i := range t.timed {
		if t.timed[i].JobID == oldID && t.timed[i].PID == rec.PID {
			t.timed[i].JobID = rec.JobID
			changed = true
		}
	}
	if changed {
		sort.SliceStable(t.timed, func(i, j int) bool {
			return t.timed[i].Before(t.timed[j])
		})
	}
}

func (t *Table) scheduleLocked() error {
	if len(t.timed) == 0 {
		return t.alarm.Disarm()
	}
	return t.alarm.Arm(t.timed[0].Deadline.Sub(t.now()))
}
