package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type (
	requestDataKey struct{}
	traceDataKey   struct{}
)

// RequestData is the caller identity resolved from the bearer token.
type RequestData struct {
	TokenString string
	AccountID   uuid.UUID
	DisplayName string
}

// TraceData correlates one HTTP request across logs, spans and error bodies.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(Default(ctx), requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	return lookup[RequestData](ctx, requestDataKey{})
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(Default(ctx), traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	return lookup[TraceData](ctx, traceDataKey{})
}

// AccountID is uuid.Nil for unauthenticated requests.
func AccountID(ctx context.Context) uuid.UUID {
	if rd := GetRequestData(ctx); rd != nil {
		return rd.AccountID
	}
	return uuid.Nil
}

// RequestID is empty outside an HTTP request.
func RequestID(ctx context.Context) string {
	if td := GetTraceData(ctx); td != nil {
		return td.RequestID
	}
	return ""
}

func lookup[T any](ctx context.Context, key any) *T {
	if ctx == nil {
		return nil
	}
	v, _ := ctx.Value(key).(*T)
	return v
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
