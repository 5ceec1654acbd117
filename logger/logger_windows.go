//go:build windows
// +build windows

// Package logger wraps UNIX syslog so that the cc20 tool can log the same
// way on platforms without it. On Windows the helpers are no-ops and the
// Writer is stderr.
package logger

import (
	"os"
)

type Priority = int
type Writer = os.File

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

// New returns stderr as the log sink; the priority mask and tag are
// accepted for call compatibility and ignored.
func New(flags Priority, tag string) (w *Writer, e error) {
	return os.Stderr, nil
}

func LogClose() error {
	return nil
}
func LogDebug(s string) error {
	return nil
}
func LogErr(s string) error {
	return nil
}
func LogNotice(s string) error {
	return nil
}
