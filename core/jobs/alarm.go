package jobs

import (
	"time"

	"golang.org/x/sys/unix"
)

// MinAlarm is the shortest interval an alarm is armed for. Deadlines that
// have already passed fire after this delay.
const MinAlarm = time.Millisecond

// Alarm is the single OS timer shared by every timed job.
type Alarm interface {
	// Arm schedules the alarm to fire once after d, replacing any pending alarm.
	Arm(d time.Duration) error
	// Disarm cancels any pending alarm.
	Disarm() error
}

// ITimerAlarm drives ITIMER_REAL, which delivers SIGALRM to the shell.
type ITimerAlarm struct{}

var _ Alarm = ITimerAlarm{}

// Arm implements Alarm.
func (ITimerAlarm) Arm(d time.Duration) error {
	if d < MinAlarm {
		d = MinAlarm
	}
	_, err := unix.Setitimer(unix.ItimerReal, unix.Itimerval{
		Value: unix.NsecToTimeval(d.Nanoseconds()),
	})
	return err
}

// Disarm implements Alarm.
func (ITimerAlarm) Disarm() error {
	_, err := unix.Setitimer(unix.ItimerReal, unix.Itimerval{})
	return err
}
