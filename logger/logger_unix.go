//go:build linux || freebsd
// +build linux freebsd

// Package logger wraps UNIX syslog so that the cc20 tool can log the same
// way on platforms without it (the stdlib log/syslog is frozen, and there
// is no Windows implementation; see logger_windows.go for the stub).
package logger

import (
	sl "log/syslog"
)

type Priority = sl.Priority
type Writer = sl.Writer

const (
	// Severity.

	// From /usr/include/sys/syslog.h.
	// These are the same on Linux, BSD, and OS X.
	LOG_EMERG Priority = iota
	LOG_ALERT
	LOG_CRIT
	LOG_ERR
	LOG_WARNING
	LOG_NOTICE
	LOG_INFO
	LOG_DEBUG
)

const (
	// Facility.

	// From /usr/include/sys/syslog.h.
	// These are the same up to LOG_FTP on Linux, BSD, and OS X.
	LOG_KERN Priority = iota << 3
	LOG_USER
	LOG_MAIL
	LOG_DAEMON
	LOG_AUTH
	LOG_SYSLOG
	LOG_LPR
	LOG_NEWS
	LOG_UUCP
	LOG_CRON
	LOG_AUTHPRIV
	LOG_FTP
	_ // unused
	_ // unused
	_ // unused
	_ // unused
	LOG_LOCAL0
	LOG_LOCAL1
	LOG_LOCAL2
	LOG_LOCAL3
	LOG_LOCAL4
	LOG_LOCAL5
	LOG_LOCAL6
	LOG_LOCAL7
)

var (
	l *sl.Writer
)

// New opens a connection to the system logger with the given priority mask
// and tag. The returned Writer also backs the package-level helpers below.
func New(flags Priority, tag string) (w *Writer, e error) {
	w, e = sl.New(sl.Priority(flags), tag)
	l = w
	return w, e
}

// The helpers are no-ops when New failed (eg. a host with no syslog
// socket), so tool error paths can log unconditionally.

func LogClose() error {
	if l == nil {
		return nil
	}
	return l.Close()
}
func LogDebug(s string) error {
	if l == nil {
		return nil
	}
	return l.Debug(s)
}
func LogErr(s string) error {
	if l == nil {
		return nil
	}
	return l.Err(s)
}
func LogNotice(s string) error {
	if l == nil {
		return nil
	}
	return l.Notice(s)
}
