// Package logger builds the interpreter's audit logger. Every dispatched
// command, replay and launch is recorded as a JSON line.
package logger

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON logger appending to w.
func New(w io.Writer) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(w),
		zap.InfoLevel,
	)

	return zap.New(core)
}
