package logger

import (
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

func signalName(signum int) string {
	if name := unix.SignalName(syscall.Signal(signum)); name != "" {
		return name
	}
	return strconv.Itoa(signum)
}
