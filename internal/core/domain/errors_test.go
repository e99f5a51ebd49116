package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrNoTextExtracted", ErrNoTextExtracted},
		{"ErrNoChunks", ErrNoChunks},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrStoreUnavailable", ErrStoreUnavailable},
		{"ErrConnectorValidation", ErrConnectorValidation},
		{"ErrConnectorClosed", ErrConnectorClosed},
		{"ErrRateLimited", ErrRateLimited},
		{"ErrAuthRequired", ErrAuthRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_Distinct(t *testing.T) {
	assert.False(t, errors.Is(ErrNoTextExtracted, ErrNoChunks))
	assert.False(t, errors.Is(ErrNotFound, ErrInvalidInput))
}

func TestErrors_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("process report.pdf: %w", ErrNoChunks)

	assert.True(t, errors.Is(wrapped, ErrNoChunks))
	assert.Contains(t, wrapped.Error(), "no chunks produced")
}
