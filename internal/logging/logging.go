// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Config controls logger initialization.
type Config struct {
	Format    string // "json", "console", or "auto"
	Level     string // "debug", "info", "warn", "error"
	Component string // optional component name
}

var (
	mu         sync.Mutex
	baseLogger zerolog.Logger
	output     io.Writer = os.Stderr

	defaultTimeFmt = time.RFC3339
)

func init() {
	baseLogger = zerolog.New(output).With().Timestamp().Logger()
	log.Logger = baseLogger
}

// Init configures zerolog globals and returns the baseline logger. It also
// replaces github.com/rs/zerolog/log.Logger so package-level calls pick it up.
func Init(cfg Config) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	zerolog.TimeFieldFormat = defaultTimeFmt
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	ctx := zerolog.New(selectWriter(cfg.Format)).With().Timestamp()
	if component := strings.TrimSpace(cfg.Component); component != "" {
		ctx = ctx.Str("component", component)
	}

	baseLogger = ctx.Logger()
	log.Logger = baseLogger
	return baseLogger
}

// Logger returns the most recently initialised logger.
func Logger() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return baseLogger
}

// Flush syncs stderr when it is backed by a file. zerolog writes synchronously,
// so this only matters when output is redirected.
func Flush() {
	if f, ok := output.(*os.File); ok {
		_ = f.Sync()
	}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zerolog.InfoLevel
	case "debug":
		return zerolog.DebugLevel
	case "trace":
		return zerolog.TraceLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled":
		return zerolog.Disabled
	default:
		fmt.Fprintf(os.Stderr, "logging: invalid level %q; using %q\n", level, "info")
		return zerolog.InfoLevel
	}
}

func selectWriter(format string) io.Writer {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console":
		return zerolog.ConsoleWriter{Out: output, TimeFormat: defaultTimeFmt}
	case "json":
		return output
	case "auto", "":
		if f, ok := output.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return zerolog.ConsoleWriter{Out: output, TimeFormat: defaultTimeFmt}
		}
		return output
	default:
		fmt.Fprintf(os.Stderr, "logging: invalid format %q; using %q\n", format, "json")
		return output
	}
}
