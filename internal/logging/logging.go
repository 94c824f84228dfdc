// Package logging configures the operator log for service-express.
//
// Output goes to stderr through a zerolog console writer so it never mixes
// with the command's own stdout output (which may be JSON).
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger. Warnings and errors are always shown;
// verbose additionally enables debug output with caller information.
// A nil writer means os.Stderr.
func Setup(verbose bool, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}

	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	consoleWriter := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
		NoColor:    !isTerminal(w),
	}

	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()
	if verbose {
		logger = logger.With().Caller().Logger()
	}
	log.Logger = logger

	log.Debug().Bool("verbose", verbose).Msg("Logger initialized")
}

// For returns a logger tagged with the given component name.
func For(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// LogCommand logs an external command invocation at debug level.
func LogCommand(dir, name string, args []string) {
	log.Debug().
		Str("dir", dir).
		Str("command", name).
		Strs("args", args).
		Msg("Executing command")
}

// isTerminal reports whether w is a character device. Colors are only
// emitted to terminals so redirected logs stay plain.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
