// Package logging implements the leveled console+file logger every doubri
// subcommand shares: a console sink at one threshold and an independent
// file sink at another, matching the "-l/--log-level-console",
// "-L/--log-level-file" split of the command this repo continues.
package logging

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"

	"github.com/oarkflow/log"

	"doubri/errs"
)

// Level is one of the six severities plus Off, ordered least to most
// severe so a threshold comparison is a plain integer compare.
type Level int

const (
	LevelOff Level = iota
	LevelTrace
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

// ParseLevel parses the seven-word vocabulary ("off", "trace", "debug",
// "info", "warning", "error", "critical"), case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "off":
		return LevelOff, nil
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	case "critical":
		return LevelCritical, nil
	default:
		return LevelOff, fmt.Errorf("unrecognized log level %q", s)
	}
}

// Field is one structured key/value attached to a log call.
type Field struct {
	Key   string
	Value interface{}
}

func Str(key, value string) Field     { return Field{Key: key, Value: value} }
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Logger fans every call out to a console sink and a file sink, each
// gated by its own threshold. Either sink may be disabled by passing
// LevelOff.
type Logger struct {
	name         string
	consoleLevel Level
	fileLevel    Level
	file         *stdlog.Logger
	fileCloser   io.Closer
}

// New opens filePath (if non-empty) for appending and returns a Logger
// that writes at consoleLevel to stderr and at fileLevel to that file.
func New(name string, consoleLevel, fileLevel Level, filePath string) (*Logger, error) {
	l := &Logger{name: name, consoleLevel: consoleLevel, fileLevel: fileLevel}

	if filePath != "" && fileLevel != LevelOff {
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, errs.New(errs.IoOpen, "logging.New", filePath, err)
		}

		l.file = stdlog.New(f, "", stdlog.LstdFlags|stdlog.Lmicroseconds)
		l.fileCloser = f
	}

	return l, nil
}

// Close releases the file sink, if one was opened.
func (l *Logger) Close() error {
	if l.fileCloser != nil {
		return l.fileCloser.Close()
	}

	return nil
}

func (l *Logger) Trace(msg string, fields ...Field)   { l.emit(LevelTrace, nil, msg, fields) }
func (l *Logger) Debug(msg string, fields ...Field)   { l.emit(LevelDebug, nil, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)    { l.emit(LevelInfo, nil, msg, fields) }
func (l *Logger) Warning(msg string, fields ...Field) { l.emit(LevelWarning, nil, msg, fields) }
func (l *Logger) Error(err error, msg string, fields ...Field) {
	l.emit(LevelError, err, msg, fields)
}
func (l *Logger) Critical(err error, msg string, fields ...Field) {
	l.emit(LevelCritical, err, msg, fields)
}

// emit fans the call to whichever sinks have a threshold at or below
// level. The console sink only has two confirmed call shapes available
// (Info()/Error()), so every level below Error renders through Info() and
// Error/Critical render through Error() — the severity itself still
// reaches the file sink at full resolution.
func (l *Logger) emit(level Level, err error, msg string, fields []Field) {
	if level >= l.consoleLevel && l.consoleLevel != LevelOff {
		l.toConsole(level, err, msg, fields)
	}

	if l.file != nil && level >= l.fileLevel && l.fileLevel != LevelOff {
		l.toFile(level, err, msg, fields)
	}
}

func (l *Logger) toConsole(level Level, err error, msg string, fields []Field) {
	if level >= LevelError {
		ev := log.Error()
		if err != nil {
			ev = ev.Err(err)
		}
		for _, f := range fields {
			switch v := f.Value.(type) {
			case string:
				ev = ev.Str(f.Key, v)
			case int:
				ev = ev.Int(f.Key, v)
			default:
				ev = ev.Str(f.Key, fmt.Sprint(v))
			}
		}
		ev.Msg(msg)

		return
	}

	ev := log.Info()
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			ev = ev.Str(f.Key, v)
		case int:
			ev = ev.Int(f.Key, v)
		default:
			ev = ev.Str(f.Key, fmt.Sprint(v))
		}
	}
	ev.Msg(msg)
}

func (l *Logger) toFile(level Level, err error, msg string, fields []Field) {
	var b strings.Builder
	b.WriteString(levelName(level))
	b.WriteByte(' ')
	b.WriteString(l.name)
	b.WriteByte(' ')
	b.WriteString(msg)

	if err != nil {
		fmt.Fprintf(&b, " err=%q", err.Error())
	}
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}

	l.file.Println(b.String())
}

func levelName(l Level) string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	default:
		return "OFF"
	}
}
