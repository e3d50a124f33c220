package logger

import (
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"codeberg.org/mutker/smartpowerctl/internal/errors"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

type LogLevel int8

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// ParseLevel maps a configured level name onto a LogLevel
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToLower(name) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warning", "warn":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, errors.New().WithData(errors.ErrInvalidLogLevel, name)
	}
}

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

// ZeroLogger implements Logger on top of a zerolog.Logger
type ZeroLogger struct {
	log zerolog.Logger
}

// New creates a Logger writing JSON lines to w
func New(w io.Writer, level LogLevel) *ZeroLogger {
	return &ZeroLogger{
		log: zerolog.New(w).With().Timestamp().Logger().Level(zerolog.Level(level)),
	}
}

func (l *ZeroLogger) Debug() *LogEvent {
	return &LogEvent{l.log.Debug()}
}

func (l *ZeroLogger) Info() *LogEvent {
	return &LogEvent{l.log.Info()}
}

func (l *ZeroLogger) Warn() *LogEvent {
	return &LogEvent{l.log.Warn()}
}

func (l *ZeroLogger) Error() *LogEvent {
	return &LogEvent{l.log.Error()}
}

func (l *ZeroLogger) ErrorWithCode(err errors.Error) *LogEvent {
	return withCode(l.log.Error(), err)
}

func (l *ZeroLogger) fatalWithCode(err errors.Error) *LogEvent {
	return withCode(l.log.Fatal(), err)
}

func withCode(event *zerolog.Event, err errors.Error) *LogEvent {
	return &LogEvent{event.
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())}
}

var std = New(os.Stderr, InfoLevel)

// Init initializes the default logger. Output is human readable when
// stdout is a terminal and JSON otherwise.
func Init(level LogLevel, isService bool) {
	var output io.Writer = os.Stdout

	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		console := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		if isService {
			console.FormatTimestamp = func(_ interface{}) string {
				return ""
			}
		}
		output = console
	}

	std = New(output, level)
}

// Default returns the logger configured by Init
func Default() Logger {
	return std
}

// IsService checks if the application is running as a service
func IsService() bool {
	if _, err := os.Stdin.Stat(); err != nil {
		return true
	}
	if os.Getenv("SERVICE_NAME") != "" || os.Getenv("INVOCATION_ID") != "" {
		return true
	}
	if os.Getppid() == 1 {
		return true
	}

	return syscall.Getpgrp() == syscall.Getpid()
}

// FatalWithCode logs a fatal message with a specific error code and exits the program
func FatalWithCode(err errors.Error) *LogEvent {
	return std.fatalWithCode(err)
}
