package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_FieldsAndError(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewFromZap(zap.New(core))

	l.Info("LifecycleService", "record published", map[string]interface{}{"record_id": "abc"})
	l.Error("LifecycleService", "merge failed", map[string]interface{}{"error": errors.New("boom")})
	l.Debug("Router", "no details", nil)

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, "record published", entries[0].Message)
	assert.Equal(t, "LifecycleService", entries[0].ContextMap()["module"])

	ctx := entries[1].ContextMap()
	assert.Equal(t, "boom", ctx["error"])

	assert.Equal(t, map[string]interface{}{}, entries[2].ContextMap()["details"])
}

func TestNewZapLogger_WritesFile(t *testing.T) {
	l := NewZapLogger(t.TempDir()+"/curator.log", true)
	l.Warn("Test", "hello", nil)
	assert.NoError(t, l.logger.Core().Sync())
}
