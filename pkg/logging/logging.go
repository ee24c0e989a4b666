package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"log"
)

// New builds the console logger the commands share. Output goes to stderr so it
// never interleaves with monitored lines on stdout.
func New(name string, debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named(name), nil
}

// Std adapts a zap logger to the Println/Printf interface used by library code
// and paho's log hooks.
func Std(logger *zap.Logger, name string) *log.Logger {
	return zap.NewStdLog(logger.Named(name))
}

// StdAt is Std writing at a fixed level.
func StdAt(logger *zap.Logger, name string, level zapcore.Level) *log.Logger {
	std, err := zap.NewStdLogAt(logger.Named(name), level)
	if err != nil {
		return Std(logger, name)
	}
	return std
}
