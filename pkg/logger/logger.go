// Package logger provides opinionated logging capabilities for the engram system
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger(debug bool) *zap.Logger {
	return NewLoggerWithWriters(debug, os.Stdout)
}

func NewLoggerWithWriters(debug bool, writers ...io.Writer) *zap.Logger {
	encoderConfig := encoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return build(zapcore.NewConsoleEncoder(encoderConfig), debug, writers)
}

// NewJSONLogger emits one JSON object per line, for service deployments
// where the output is scraped by a log collector rather than read by a
// person.
func NewJSONLogger(debug bool, writers ...io.Writer) *zap.Logger {
	encoderConfig := encoderConfig()
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	return build(zapcore.NewJSONEncoder(encoderConfig), debug, writers)
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func build(encoder zapcore.Encoder, debug bool, writers []io.Writer) *zap.Logger {
	// Set log level
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	if len(writers) == 0 {
		writers = []io.Writer{os.Stdout}
	}

	syncers := make([]zapcore.WriteSyncer, 0, len(writers))
	for _, writer := range writers {
		syncers = append(syncers, zapcore.AddSync(writer))
	}

	core := zapcore.NewCore(
		encoder,
		zapcore.NewMultiWriteSyncer(syncers...),
		level,
	)

	return zap.New(core, zap.AddCaller())
}
