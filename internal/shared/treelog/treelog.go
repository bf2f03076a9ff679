// Package treelog provides the branching, leveled logger the compiler reports
// through. Records are emitted via log/slog; a branch only adds its path as an
// attribute so output stays greppable.
package treelog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Level orders messages from most to least important.
type Level int

const (
	Error Level = iota
	Warn
	Info
	Trace
	Debug
	Spam
	All
)

var levelNames = [...]string{"ERROR", "WARN", "INFO", "TRACE", "DEBUG", "SPAM", "ALL"}

func (l Level) String() string {
	if l < Error || l > All {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// Slog maps the level onto the slog scale. TRACE sits between INFO and DEBUG.
func (l Level) Slog() slog.Level {
	switch l {
	case Error:
		return slog.LevelError
	case Warn:
		return slog.LevelWarn
	case Info:
		return slog.LevelInfo
	case Trace:
		return slog.LevelInfo - 2
	case Debug:
		return slog.LevelDebug
	case Spam:
		return slog.LevelDebug - 4
	default:
		return slog.LevelDebug - 8
	}
}

func ParseLevel(s string) (Level, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range levelNames {
		if n == name {
			return Level(i), nil
		}
	}
	return Info, fmt.Errorf("unknown log level %q", s)
}

type Logger struct {
	log  *slog.Logger
	ctx  context.Context
	path []string
}

func New(log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{log: log, ctx: context.Background()}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(slog.New(slog.DiscardHandler))
}

// WithContext returns a logger whose records carry ctx (trace ids and the like).
func (l *Logger) WithContext(ctx context.Context) *Logger {
	cp := *l
	cp.ctx = ctx
	return &cp
}

// With returns a logger that adds attrs to every record.
func (l *Logger) With(args ...any) *Logger {
	cp := *l
	cp.log = l.log.With(args...)
	return &cp
}

func (l *Logger) IsLoggable(level Level) bool {
	return l.log.Enabled(l.ctx, level.Slog())
}

func (l *Logger) Log(level Level, msg string, args ...any) {
	if !l.IsLoggable(level) {
		return
	}
	if len(l.path) > 0 {
		args = append(args, "branch", strings.Join(l.path, " > "))
	}
	l.log.Log(l.ctx, level.Slog(), msg, args...)
}

// Branch logs msg at level and returns a child logger nested under it.
func (l *Logger) Branch(level Level, msg string, args ...any) *Logger {
	l.Log(level, msg, args...)
	cp := *l
	cp.path = append(append([]string(nil), l.path...), firstLine(msg))
	return &cp
}

// Path returns the branch labels from the root to this logger.
func (l *Logger) Path() []string {
	return append([]string(nil), l.path...)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
