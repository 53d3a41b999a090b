package ctxutil

import (
	"context"
	"testing"
)

func TestLogFieldsFromTraceData(t *testing.T) {
	ctx := WithTraceData(context.Background(), &TraceData{RequestID: "req-1", TraceID: "abc"})
	fields := LogFields(ctx)
	if len(fields) != 4 {
		t.Fatalf("fields length: want=4 got=%d", len(fields))
	}
	if fields[0] != "request_id" || fields[1] != "req-1" {
		t.Fatalf("request id field: got=%v", fields[:2])
	}
	if fields[2] != "trace_id" || fields[3] != "abc" {
		t.Fatalf("trace id field: got=%v", fields[2:])
	}
}

func TestLogFieldsWithoutTraceData(t *testing.T) {
	if fields := LogFields(context.Background()); fields != nil {
		t.Fatalf("want nil fields, got=%v", fields)
	}
}
