package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects encoder, sink and level of the service logger.
type Options struct {
	Type   string // text | json
	Output string // console | file
	Target string // directory for file output
	Level  string // debug | info | warn | error
}

// NewLogger builds the service logger. The boolean reports whether output goes to the console.
func NewLogger(service string, opts Options) (*zap.Logger, bool, error) {
	logConfig := zap.NewDevelopmentEncoderConfig()

	logEncoder := zapcore.NewConsoleEncoder(logConfig)
	if strings.EqualFold(opts.Type, "json") {
		logEncoder = zapcore.NewJSONEncoder(logConfig)
	}

	console := !strings.EqualFold(opts.Output, "file")
	logLock := zapcore.Lock(os.Stdout)
	if !console {
		target := opts.Target
		if len(target) == 0 {
			target = "/var/log"
		}

		logPath := filepath.Join(target, fmt.Sprintf("ministream-%s", service))
		if err := os.MkdirAll(logPath, 0o755); err != nil {
			return nil, false, errors.Wrap(err, "unable to create logging path")
		}
		logPath = filepath.Join(logPath, fmt.Sprintf("%s.log", time.Now().Format("since-20060102")))
		file, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, false, errors.Wrap(err, "unable to create logging file")
		}
		logLock = zapcore.Lock(file)
	}

	logCore := zapcore.NewCore(logEncoder, logLock, ParseLevel(opts.Level))
	return zap.New(logCore), console, nil
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
