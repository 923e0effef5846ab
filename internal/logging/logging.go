// Package logging builds the zap loggers used by the CLI and by scenarios.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"

	// SourceConsole tags lines written by scenario code rather than the runtime.
	SourceConsole = "console"
)

// New builds the application logger. format is "json" or "console".
func New(level, format string) (*zap.Logger, error) {
	var config zap.Config

	switch format {
	case FormatJSON:
		config = zap.NewProductionConfig()
	case FormatConsole, "":
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	return config.Build()
}

// NewConsole returns the logger scenario code writes its diagnostic lines to.
// Lines go to w (stderr in the CLI) at info level regardless of the application level.
func NewConsole(w io.Writer) *zap.Logger {
	if w == nil {
		w = os.Stderr
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.CallerKey = zapcore.OmitKey
	enc.StacktraceKey = zapcore.OmitKey

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(zapcore.AddSync(w)), zapcore.InfoLevel)
	return zap.New(core).With(zap.String("source", SourceConsole))
}
