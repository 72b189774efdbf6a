package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestRequestAndTraceData(t *testing.T) {
	id := uuid.New()
	ctx := WithRequestData(context.Background(), &RequestData{AccountID: id, DisplayName: "Ada"})
	ctx = WithTraceData(ctx, &TraceData{TraceID: "t-1", RequestID: "r-1"})

	if AccountID(ctx) != id {
		t.Fatalf("account id: %v", AccountID(ctx))
	}
	if RequestID(ctx) != "r-1" {
		t.Fatalf("request id: %q", RequestID(ctx))
	}
	if GetRequestData(ctx).DisplayName != "Ada" {
		t.Fatalf("display name lost")
	}
}

func TestEmptyContext(t *testing.T) {
	var nilCtx context.Context
	if AccountID(nilCtx) != uuid.Nil || RequestID(nilCtx) != "" {
		t.Fatalf("nil context must yield zero values")
	}
	if GetTraceData(context.Background()) != nil {
		t.Fatalf("unexpected trace data")
	}
}
