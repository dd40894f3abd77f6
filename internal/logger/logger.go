package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Log is the global logger instance wrapper
var Log *Logger

// exit is swapped out by tests so Fatal can be exercised.
var exit = os.Exit

type Logger struct {
	z zerolog.Logger
}

func init() {
	Log = &Logger{z: newZerolog(os.Stderr, "console")}
}

func newZerolog(w io.Writer, format string) zerolog.Logger {
	if strings.ToLower(format) == "json" {
		return zerolog.New(w).With().Timestamp().Logger()
	}
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(output).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Setup configures the global logger. Output always goes to stderr so that
// stdout carries only the benchmark report.
func Setup(level string, format string) {
	SetOutput(os.Stderr, level, format)
}

// SetOutput is Setup with an explicit destination.
func SetOutput(w io.Writer, level string, format string) {
	zerolog.SetGlobalLevel(parseLevel(level))
	Log = &Logger{z: newZerolog(w, format)}
}

// Info logs at Info level with variadic key-value pairs
func (l *Logger) Info(msg string, args ...interface{}) {
	e := l.z.Info()
	addFields(e, args...)
	e.Msg(msg)
}

// Debug logs at Debug level with variadic key-value pairs
func (l *Logger) Debug(msg string, args ...interface{}) {
	e := l.z.Debug()
	addFields(e, args...)
	e.Msg(msg)
}

// Warn logs at Warn level with variadic key-value pairs
func (l *Logger) Warn(msg string, args ...interface{}) {
	e := l.z.Warn()
	addFields(e, args...)
	e.Msg(msg)
}

// Error logs at Error level with variadic key-value pairs
func (l *Logger) Error(msg string, args ...interface{}) {
	e := l.z.Error()
	addFields(e, args...)
	e.Msg(msg)
}

// Fatal logs err at fatal level and terminates the process with status 1.
func (l *Logger) Fatal(msg string, err error, args ...interface{}) {
	e := l.z.WithLevel(zerolog.FatalLevel)
	if err != nil {
		e = e.Err(err)
	}
	addFields(e, args...)
	e.Msg(msg)
	exit(1)
}

// addFields adds variadic key-value pairs to the event
func addFields(e *zerolog.Event, args ...interface{}) {
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			key, ok := args[i].(string)
			if !ok {
				key = fmt.Sprintf("%v", args[i])
			}
			if err, ok := args[i+1].(error); ok {
				e.AnErr(key, err)
				continue
			}
			e.Interface(key, args[i+1])
		}
	}
}
