package tracing_test

import (
	"context"
	"errors"
	"testing"

	"certledger/internal/platform/tracing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopTracer_Start(t *testing.T) {
	tr := tracing.NewNoop()
	ctx := context.Background()

	newCtx, span := tr.Start(ctx, "test.span",
		tracing.String("key", "value"),
		tracing.Bool("flag", true),
	)

	// Context should be returned unchanged
	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)

	// Span methods should not panic
	span.SetAttributes(tracing.String("another", "attr"))
	span.AddEvent("test.event", tracing.Int64("count", 42))
	span.End(nil)
}

func TestNoopTracer_SpanEndWithError(t *testing.T) {
	tr := tracing.NewNoop()

	_, span := tr.Start(context.Background(), "test.span")
	require.NotNil(t, span)

	span.End(errors.New("test error"))
}

func TestHashSubjectID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
	}{
		{
			name:    "empty string returns empty",
			input:   "",
			wantLen: 0,
		},
		{
			name:    "short id produces 16 char hash",
			input:   "STU",
			wantLen: 16,
		},
		{
			name:    "long id produces 16 char hash",
			input:   "STU-2026-000123456789",
			wantLen: 16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tracing.HashSubjectID(tt.input)
			assert.Len(t, result, tt.wantLen)
		})
	}
}

func TestHashSubjectID_Deterministic(t *testing.T) {
	id := "STU001"
	hash1 := tracing.HashSubjectID(id)
	hash2 := tracing.HashSubjectID(id)
	assert.Equal(t, hash1, hash2)
	assert.NotEqual(t, hash1, tracing.HashSubjectID("STU002"))
}
