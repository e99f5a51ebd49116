package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_Getters(t *testing.T) {
	s := NewConfigStore(map[string]any{
		"ingest.workers":       int64(4),
		"watch.interval":       "45s",
		"watch.local.path":     "/docs",
		"index.verbose":        true,
		"export.types":         []any{"text/csv", 3, "application/pdf"},
		"retry.backoff_factor": 2.0,
		"watch.settle":         30,
	})

	assert.Equal(t, 4, s.GetInt("ingest.workers"))
	assert.Equal(t, 2, s.GetInt("retry.backoff_factor"))
	assert.Equal(t, 45*time.Second, s.GetDuration("watch.interval"))
	assert.Equal(t, 30*time.Second, s.GetDuration("watch.settle"))
	assert.Equal(t, "/docs", s.GetString("watch.local.path"))
	assert.True(t, s.GetBool("index.verbose"))
	assert.Equal(t, []string{"text/csv", "application/pdf"}, s.GetStringSlice("export.types"))

	t.Run("missing or mistyped keys return zero values", func(t *testing.T) {
		assert.Zero(t, s.GetInt("nope"))
		assert.Zero(t, s.GetInt("watch.local.path"))
		assert.Empty(t, s.GetString("ingest.workers"))
		assert.False(t, s.GetBool("nope"))
		assert.Nil(t, s.GetStringSlice("nope"))
		assert.Zero(t, s.GetDuration("watch.local.path"))
	})
}

func TestConfigStore_SetAndKeys(t *testing.T) {
	seed := map[string]any{"b": 1}
	s := NewConfigStore(seed)
	require.NoError(t, s.Set("a", "x"))
	require.NoError(t, s.Save())
	require.NoError(t, s.Load())

	assert.Equal(t, []string{"a", "b"}, s.Keys())
	assert.Equal(t, ":memory:", s.Path())

	// The seed map is copied
	seed["c"] = 2
	_, ok := s.Get("c")
	assert.False(t, ok)
}
