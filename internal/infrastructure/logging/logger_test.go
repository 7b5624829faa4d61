package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kestrelengine/assetpipe/internal/infrastructure/logging"
)

type capturingLogger struct {
	lines []string
}

func (l *capturingLogger) Log(level, message string, fields map[string]any) {
	l.lines = append(l.lines, level+": "+message)
}

func TestFromContext_ReturnsAttachedLogger(t *testing.T) {
	logger := &capturingLogger{}
	ctx := logging.WithLogger(context.Background(), logger)

	logging.FromContext(ctx).Log("info", "hello", nil)

	assert.Equal(t, []string{"info: hello"}, logger.lines)
}

func TestFromContext_NoLoggerIsANoOp(t *testing.T) {
	assert.NotPanics(t, func() {
		logging.FromContext(context.Background()).Log("info", "dropped", map[string]any{"k": 1})
	})
}
