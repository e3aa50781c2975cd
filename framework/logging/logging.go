// Package logging provides named, leveled loggers backed by gookit/slog.
//
// Loggers are silent until InitializeLogging runs. A logger follows the
// current level and handlers whenever it writes, so library packages can
// create theirs before logging is set up.
//
//	logging.InitializeLogging(logging.Options{Level: "debug"})
//	log := logging.NewLogger("Router")
//	log.Infof("listening on %s", addr)
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-errors/errors"
	"github.com/gookit/color"
	"github.com/gookit/slog"
	"github.com/gookit/slog/handler"
)

const VerboseLevel slog.Level = 650

// Options configures the process-wide logging setup.
type Options struct {
	Level    string // panic | fatal | error | warn | notice | info | verbose | debug | trace
	File     string // optional log file, buffered
	ToStdErr bool
	Caller   bool
}

var (
	mu             sync.RWMutex
	defaultLevel   slog.Level
	consoleHandler slog.Handler
	fileHandler    *handler.SyncCloseHandler
	withCaller     bool
	generation     uint64 // bumped whenever the handlers change
)

// InitializeLogging installs the console (and optional file) handlers and the
// default level for all loggers, existing ones included.
func InitializeLogging(options Options) error {
	slog.LevelNames[VerboseLevel] = "VERBOSE"
	slog.AllLevels = slog.Levels{
		slog.PanicLevel,
		slog.FatalLevel,
		slog.ErrorLevel,
		slog.WarnLevel,
		slog.NoticeLevel,
		slog.InfoLevel,
		VerboseLevel,
		slog.DebugLevel,
		slog.TraceLevel,
	}
	slog.ColorTheme[VerboseLevel] = color.FgLightGreen

	mu.Lock()
	defer mu.Unlock()

	generation++
	withCaller = options.Caller
	defaultLevel = Name2Level(options.Level)
	consoleHandler = newConsoleHandler(options.ToStdErr)

	if options.File != "" {
		h, err := handler.NewBuffFileHandler(options.File, 1024, func(c *handler.Config) {
			c.Levels = slog.AllLevels
			c.Level = slog.TraceLevel
		})
		if err != nil {
			return errors.Errorf("Failed to initialize logfile handler => %s", err.Error())
		}
		fileHandler = h
	}
	return nil
}

// Close flushes and closes the file handler, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if fileHandler == nil {
		return nil
	}
	err := fileHandler.Close()
	fileHandler = nil
	generation++
	return err
}

func newConsoleHandler(toStdErr bool) slog.Handler {
	h := handler.NewConsoleHandler(slog.AllLevels)
	if withCaller {
		h.TextFormatter().SetTemplate(
			"[{{datetime}}] [{{level}}] [{{caller}}] {{message}} {{data}} {{extra}}\n",
		)
	} else {
		h.TextFormatter().SetTemplate(
			"[{{datetime}}] [{{level}}] {{message}} {{data}} {{extra}}\n",
		)
	}
	if toStdErr {
		h.Output = os.Stderr
	}
	return &consoleHandlerSyncAdapter{ConsoleHandler: h}
}

type consoleHandlerSyncAdapter struct {
	*handler.ConsoleHandler
	mutex sync.Mutex
}

func (h *consoleHandlerSyncAdapter) Handle(record *slog.Record) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.ConsoleHandler.Handle(record)
}

// Logger prefixes every record with its name.
type Logger struct {
	mu         sync.Mutex
	slogger    *slog.Logger
	generation uint64
	name       string
}

// NewLogger creates a named logger.
func NewLogger(name string) *Logger {
	return &Logger{name: name}
}

// Name returns the logger name.
func (l *Logger) Name() string { return l.name }

// Enabled reports whether records at level would be written.
func (l *Logger) Enabled(level slog.Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLevel >= level
}

// current returns the slog logger for the installed handlers, rebuilding it
// after InitializeLogging or Close, and the level to filter by.
func (l *Logger) current() (*slog.Logger, slog.Level) {
	mu.RLock()
	defer mu.RUnlock()
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.slogger == nil || l.generation != generation {
		l.slogger = slog.NewWithName(l.name, func(sl *slog.Logger) {
			sl.CallerSkip = sl.CallerSkip + 2
			sl.ReportCaller = withCaller
			if consoleHandler != nil {
				sl.AddHandler(consoleHandler)
			}
			if fileHandler != nil {
				sl.AddHandler(fileHandler)
			}
		})
		l.generation = generation
	}
	return l.slogger, defaultLevel
}

func (l *Logger) Tracef(format string, args ...any) {
	l.logf(slog.TraceLevel, format, args)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.logf(slog.DebugLevel, format, args)
}

func (l *Logger) Verbosef(format string, args ...any) {
	l.logf(VerboseLevel, format, args)
}

func (l *Logger) Infof(format string, args ...any) {
	l.logf(slog.InfoLevel, format, args)
}

func (l *Logger) Infoln(args ...any) {
	l.log(slog.InfoLevel, args)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.logf(slog.WarnLevel, format, args)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.logf(slog.ErrorLevel, format, args)
}

func (l *Logger) Errorln(args ...any) {
	l.log(slog.ErrorLevel, args)
}

func (l *Logger) logf(level slog.Level, format string, args []any) {
	if slogger, max := l.current(); max >= level {
		format = strings.TrimSuffix(format, "\n")
		slogger.Logf(level, fmt.Sprintf("[%s] %s", l.name, format), args...)
	}
}

func (l *Logger) log(level slog.Level, args []any) {
	if slogger, max := l.current(); max >= level {
		args = append([]any{fmt.Sprintf("[%s]", l.name)}, args...)
		slogger.Log(level, args...)
	}
}

// Name2Level maps a level name to its slog.Level; unknown names are info.
func Name2Level(ln string) slog.Level {
	switch strings.ToLower(ln) {
	case "panic":
		return slog.PanicLevel
	case "fatal":
		return slog.FatalLevel
	case "err", "error":
		return slog.ErrorLevel
	case "warn", "warning":
		return slog.WarnLevel
	case "notice":
		return slog.NoticeLevel
	case "verbose":
		return VerboseLevel
	case "debug":
		return slog.DebugLevel
	case "trace":
		return slog.TraceLevel
	default:
		return slog.InfoLevel
	}
}
