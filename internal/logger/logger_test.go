// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), tt.in)
	}
}

func TestNewWithCoreCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewWithCore(core).With(ItemID("abc"))

	log.Warn("write-through failed", String("fields", "research"), Error(errors.New("disk full")))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "write-through failed", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "abc", ctx["item_id"])
	assert.Equal(t, "research", ctx["fields"])
	assert.Equal(t, "disk full", ctx["error"])
}

func TestNewBuildsLogger(t *testing.T) {
	log, err := New(Config{Level: "debug", Development: true})
	require.NoError(t, err)
	log.Debug("hello")
}

func TestNopLogger(t *testing.T) {
	log := NewNop()
	log.Info("ignored")
	assert.NoError(t, log.With(Int("n", 1)).Sync())
}
