package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console logger writing to stderr at the given level.
// stdout is left to command output.
func New(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// Sync flushes the logger, ignoring the EINVAL/ENOTTY errors stderr reports on some terminals.
func Sync(l *zap.SugaredLogger) {
	if l == nil {
		return
	}
	if err := l.Sync(); err != nil && !isTerminalSyncErr(err) {
		fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
	}
}

func isTerminalSyncErr(err error) bool {
	pe, ok := err.(*os.PathError)
	return ok && (pe.Path == "/dev/stderr" || pe.Path == "/dev/stdout")
}
