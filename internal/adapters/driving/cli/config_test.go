package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSetGet(t *testing.T) {
	useApp(t, newTestApp(t))

	out, err := execute(t, "config", "set", "ingest.workers", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "ingest.workers = 4")

	out, err = execute(t, "config", "get", "ingest.workers")
	require.NoError(t, err)
	assert.Equal(t, "4\n", out)

	out, err = execute(t, "config", "set", "watch.interval", "90s")
	require.NoError(t, err)
	assert.Contains(t, out, "watch.interval = 1m30s")
}

func TestConfigSet_Rejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown key", []string{"config", "set", "bogus.key", "1"}},
		{"bad int", []string{"config", "set", "ingest.workers", "many"}},
		{"bad duration", []string{"config", "set", "watch.interval", "soon"}},
		{"missing value", []string{"config", "set", "ingest.workers"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useApp(t, newTestApp(t))
			_, err := execute(t, tt.args...)
			require.Error(t, err)
		})
	}
}

func TestConfigGet_Unknown(t *testing.T) {
	useApp(t, newTestApp(t))

	_, err := execute(t, "config", "get", "bogus.key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown setting "bogus.key"`)
}

func TestConfigShow(t *testing.T) {
	useApp(t, newTestApp(t))

	out, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "Settings:")
	assert.Contains(t, out, "ingest.workers")
	assert.Contains(t, out, "Environment:")
	assert.Contains(t, out, "memory")
	assert.Contains(t, out, "(not set)")
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "(not set)", maskKey(""))
	assert.Equal(t, "****", maskKey("abc"))
	assert.Equal(t, "****wxyz", maskKey("sk-abcdwxyz"))
}
