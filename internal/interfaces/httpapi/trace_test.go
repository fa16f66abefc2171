package httpapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldCreateHTTPAPISpan(t *testing.T) {
	assert.True(t, shouldCreateHTTPAPISpan("httpapi.Handler.ListMyPools"))
	assert.False(t, shouldCreateHTTPAPISpan("httpapi.RequestLogging"))
	assert.False(t, shouldCreateHTTPAPISpan("httpapi.writeError"))
}

func TestStartSpanWithoutParentIsNoop(t *testing.T) {
	ctx, span := startSpan(context.Background(), "httpapi.Handler.SubmitPick")
	defer span.End()

	assert.False(t, span.SpanContext().IsValid())
	assert.Equal(t, context.Background(), ctx)
}
