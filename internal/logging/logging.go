package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
)

var (
	logger  zerolog.Logger
	logFile *os.File
)

func init() {
	// Until Init runs, events go nowhere. The CLI client never calls
	// Init and stays silent.
	logger = zerolog.New(io.Discard)
}

// Init initializes the logging system. Events are appended to
// $XDG_STATE_HOME/skyline/skyline.log; when debug is set a console
// writer on stderr is added and the level drops to debug.
func Init(debug bool) error {
	logDir := filepath.Join(xdg.StateHome, "skyline")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	logPath := filepath.Join(logDir, "skyline.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	logFile = f

	var sink io.Writer = f
	level := zerolog.InfoLevel
	if debug {
		sink = zerolog.MultiLevelWriter(f, zerolog.ConsoleWriter{Out: os.Stderr})
		level = zerolog.DebugLevel
	}

	logger = zerolog.New(sink).Level(level).With().Timestamp().Logger()
	return nil
}

// Close closes the log file
func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Debug starts a debug-level event.
func Debug() *zerolog.Event { return logger.Debug() }

// Info starts an info-level event.
func Info() *zerolog.Event { return logger.Info() }

// Warn starts a warn-level event.
func Warn() *zerolog.Event { return logger.Warn() }

// Error starts an error-level event.
func Error() *zerolog.Event { return logger.Error() }
