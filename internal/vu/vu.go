// Package vu carries virtual user identity on the iteration context.
package vu

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const infoKey contextKey = "vu_info"

// Info identifies the virtual user running an iteration.
type Info struct {
	ID        string
	Iteration uint64
}

// NewID returns a fresh VU id.
func NewID() string {
	return uuid.New().String()
}

func WithInfo(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, infoKey, info)
}

// FromContext returns the VU info, or the zero Info outside an iteration.
func FromContext(ctx context.Context) Info {
	if info, ok := ctx.Value(infoKey).(Info); ok {
		return info
	}
	return Info{}
}

// Logger decorates logger with the VU fields found on ctx.
func Logger(ctx context.Context, logger *zap.Logger) *zap.Logger {
	info := FromContext(ctx)
	if info.ID == "" {
		return logger
	}
	return logger.With(zap.String("vu", info.ID), zap.Uint64("iteration", info.Iteration))
}
