package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
)

// log writes diagnostics to stderr. Command output never goes through it.
var log = newLogger(colorable.NewColorableStderr())

func newLogger(out io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05.000",
	}).Level(zerolog.WarnLevel).With().Timestamp().Logger()
}

// setupLogging sets the log level from --debug and --log-level. An explicit
// level wins over --debug.
func setupLogging(debug bool, level string) error {
	lvl := zerolog.WarnLevel
	if debug {
		lvl = zerolog.DebugLevel
	}
	if level = strings.ToLower(strings.TrimSpace(level)); level != "" {
		switch level {
		case "trace", "debug", "info", "warn", "error":
			parsed, err := zerolog.ParseLevel(level)
			if err != nil {
				return err
			}
			lvl = parsed
		default:
			return &codedError{code: ErrInvalidInput, err: fmt.Errorf("unknown log level %q (want trace, debug, info, warn or error)", level)}
		}
	}
	log = log.Level(lvl)
	return nil
}
