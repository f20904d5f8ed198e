package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

type actorKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

func WithRequestID(ctx context.Context, reqID string) context.Context {
	l := FromContext(ctx)
	return WithContext(ctx, l.With("req_id", reqID))
}

// WithActor records who is performing the operation and tags the contextual
// logger with it so audit lines carry the actor.
func WithActor(ctx context.Context, actor string) context.Context {
	ctx = context.WithValue(ctx, actorKey{}, actor)
	return WithContext(ctx, FromContext(ctx).With("actor", actor))
}

// Actor returns the actor stored by WithActor, or "".
func Actor(ctx context.Context) string {
	a, _ := ctx.Value(actorKey{}).(string)
	return a
}
