// Package debug is the diagnostic logger of the CLIs. Output is off unless
// JC_DEBUG is set or verbose mode is switched on; JC_LOG_FILE additionally
// keeps a rotating JSON log regardless of verbosity.
package debug

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	enabled     = os.Getenv("JC_DEBUG") != ""
	verboseMode = false
	quietMode   = false

	mu      sync.Mutex
	console io.Writer = os.Stderr
	file    *lumberjack.Logger
	logger  = zerolog.Nop()
)

func init() {
	if path := os.Getenv("JC_LOG_FILE"); path != "" {
		SetLogFile(path)
	}
	rebuild()
}

func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled || verboseMode
}

// SetVerbose enables debug output on stderr.
func SetVerbose(verbose bool) {
	mu.Lock()
	defer mu.Unlock()
	verboseMode = verbose
	rebuild()
}

// SetQuiet suppresses PrintNormal output.
func SetQuiet(quiet bool) {
	mu.Lock()
	defer mu.Unlock()
	quietMode = quiet
}

func IsQuiet() bool {
	mu.Lock()
	defer mu.Unlock()
	return quietMode
}

// SetOutput redirects console output. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	console = w
	rebuild()
}

// SetLogFile enables the rotating JSON log at path. An empty path disables
// it.
func SetLogFile(path string) {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		_ = file.Close()
		file = nil
	}
	if path != "" {
		file = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    5,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
	}
	rebuild()
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	rebuild()
	return err
}

// rebuild recreates the logger from the current settings. Callers hold mu.
func rebuild() {
	var writers []io.Writer
	if enabled || verboseMode {
		writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: time.TimeOnly, NoColor: !isTerminal(console)})
	}
	if file != nil {
		writers = append(writers, file)
	}

	switch len(writers) {
	case 0:
		logger = zerolog.Nop()
		return
	case 1:
		logger = zerolog.New(writers[0])
	default:
		logger = zerolog.New(zerolog.MultiLevelWriter(writers...))
	}
	logger = logger.With().Timestamp().Logger().Level(zerolog.DebugLevel)
}

// Logger returns the current logger for structured events.
func Logger() *zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	l := logger
	return &l
}

func Logf(format string, args ...interface{}) {
	l := Logger()
	if l.GetLevel() == zerolog.Disabled {
		return
	}
	l.Debug().Msg(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

// PrintNormal writes informational output to stderr unless quiet mode is
// enabled. stdout is reserved for command results.
func PrintNormal(format string, args ...interface{}) {
	if !IsQuiet() {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
