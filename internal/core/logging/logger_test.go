package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureGlobal(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestComponent(t *testing.T) {
	buf := captureGlobal(t)

	logger := Component("test-component")
	logger.Info().Msg("test message")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test-component", entry["cmp"])
	assert.Equal(t, "test message", entry["message"])
}

func TestScopeComponent(t *testing.T) {
	buf := captureGlobal(t)

	logger := ScopeComponent("watcher", "scope-1")
	logger.Info().Msg("changed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "watcher", entry["cmp"])
	assert.Equal(t, "scope-1", entry["scope_id"])
}
