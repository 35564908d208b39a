package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

// ContextKey is the type of request-scoped context keys set by the API layer.
type ContextKey string

// TraceIDKey is the key for the trace ID in the request context
const TraceIDKey ContextKey = "traceID"

// TraceIDLength is the number of random bytes in a trace ID (32 hex characters).
const TraceIDLength = 16

// readRandom is replaced in tests to exercise the fallback.
var readRandom = rand.Read

var fallbackSeq atomic.Uint64

// SetTraceID returns a copy of ctx carrying a new trace ID.
func SetTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, NewTraceID())
}

// WithTraceID returns a copy of ctx carrying traceID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context, or "" if there is none.
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

// NewTraceID returns a random 32 character hex ID. If the random source
// fails it falls back to the clock plus a process-wide sequence number, which
// is unique but predictable.
func NewTraceID() string {
	b := make([]byte, TraceIDLength)
	if n, err := readRandom(b); err == nil && n == TraceIDLength {
		return hex.EncodeToString(b)
	}
	return fmt.Sprintf("%016x%016x", uint64(time.Now().UnixNano()), fallbackSeq.Add(1))
}
