package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Levels(t *testing.T) {
	log, err := New(Config{Service: "api", Env: "production", Level: "warn"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zap.InfoLevel))
	assert.True(t, log.Core().Enabled(zap.WarnLevel))

	log, err = New(Config{Service: "api", Env: "development", Level: "bogus"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zap.InfoLevel))
	assert.False(t, log.Core().Enabled(zap.DebugLevel))
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	scoped := zap.New(core).With(zap.String("request_id", "req-1"))

	ctx := WithContext(context.Background(), scoped)
	FromContext(ctx).Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-1", logs.All()[0].ContextMap()["request_id"])

	assert.NotNil(t, FromContext(context.Background()))
}
