// Package ddoslog provides the severity-tagged logging used throughout the
// detector. Messages go to stderr with the exact "Error: ", "Warning: " and
// "Info: " tags required by the detector's error-handling design; a debug
// level exists for development but is silent by default.
package ddoslog

import (
	"fmt"
	"io"
	"log"
	"os"
)

var (
	DebugWriter io.Writer = io.Discard
	InfoWriter  io.Writer = os.Stderr
	WarnWriter  io.Writer = os.Stderr
	ErrWriter   io.Writer = os.Stderr
)

const (
	DebugPrefix = "Debug: "
	InfoPrefix  = "Info: "
	WarnPrefix  = "Warning: "
	ErrPrefix   = "Error: "
)

var (
	debugLog = log.New(DebugWriter, DebugPrefix, 0)
	infoLog  = log.New(InfoWriter, InfoPrefix, 0)
	warnLog  = log.New(WarnWriter, WarnPrefix, 0)
	errLog   = log.New(ErrWriter, ErrPrefix, 0)
)

// SetLevel gates which severities are emitted, by level name: "debug",
// "info", "warn", or "err". Lower severities than the chosen level are
// discarded; there is no re-enabling short of calling SetLevel again. An
// enabled severity keeps the writer it already has, or goes back to stderr
// if it was discarded.
func SetLevel(level string) {
	enable := func(l *log.Logger) {
		if l.Writer() == io.Discard {
			l.SetOutput(os.Stderr)
		}
	}
	switch level {
	case "debug":
		enable(debugLog)
		enable(infoLog)
		enable(warnLog)
		enable(errLog)
	case "info":
		debugLog.SetOutput(io.Discard)
		enable(infoLog)
		enable(warnLog)
		enable(errLog)
	case "warn":
		debugLog.SetOutput(io.Discard)
		infoLog.SetOutput(io.Discard)
		enable(warnLog)
		enable(errLog)
	case "err":
		debugLog.SetOutput(io.Discard)
		infoLog.SetOutput(io.Discard)
		warnLog.SetOutput(io.Discard)
		enable(errLog)
	default:
		fmt.Fprintf(os.Stderr, "ddoslog: invalid level %q, using \"info\"\n", level)
		SetLevel("info")
	}
}

func Debug(v ...interface{})                 { debugLog.Print(v...) }
func Debugf(format string, v ...interface{}) { debugLog.Printf(format, v...) }

func Info(v ...interface{})                 { infoLog.Print(v...) }
func Infof(format string, v ...interface{}) { infoLog.Printf(format, v...) }

func Warn(v ...interface{})                 { warnLog.Print(v...) }
func Warnf(format string, v ...interface{}) { warnLog.Printf(format, v...) }

func Error(v ...interface{})                 { errLog.Print(v...) }
func Errorf(format string, v ...interface{}) { errLog.Printf(format, v...) }

// Fatal logs at error level and terminates the process with exit code 1,
// matching the ConfigError/AllocationError propagation policy.
func Fatal(v ...interface{}) {
	Error(v...)
	os.Exit(1)
}

func Fatalf(format string, v ...interface{}) {
	Errorf(format, v...)
	os.Exit(1)
}
