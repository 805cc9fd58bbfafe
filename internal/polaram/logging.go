package polaram

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// SetupLogger configures Log. An empty file keeps stderr only; otherwise the
// log is appended to file as well. The returned closer releases the file.
func SetupLogger(level, file string) (io.Closer, error) {
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level %q", ErrInvalidParameter, level)
	}
	if Debug && lvl < logrus.DebugLevel {
		lvl = logrus.DebugLevel
	}
	Log.SetLevel(lvl)
	if lvl >= logrus.DebugLevel {
		Debug = true
	}
	if file == "" {
		Log.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	Log.SetOutput(io.MultiWriter(os.Stderr, f))
	return f, nil
}
