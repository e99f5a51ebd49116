package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFrontmatter() *CaseStudyFrontmatter {
	return &CaseStudyFrontmatter{
		Title:       "Acme Migration",
		Client:      "Acme",
		Industry:    "Retail",
		ProjectType: "Cloud Migration",
	}
}

func TestCheckRequiredFields(t *testing.T) {
	t.Run("all present", func(t *testing.T) {
		fields := map[string]any{"title": "T", "client": "C", "industry": "I", "project_type": "P"}
		assert.NoError(t, CheckRequiredFields(fields))
	})

	t.Run("empty strings are present", func(t *testing.T) {
		fields := map[string]any{"title": "", "client": " ", "industry": "", "project_type": ""}
		assert.NoError(t, CheckRequiredFields(fields))
	})

	t.Run("absent and null fields are listed", func(t *testing.T) {
		fields := map[string]any{"title": "T", "industry": "I", "project_type": nil}

		err := CheckRequiredFields(fields)

		require.Error(t, err)
		var fieldErr *FieldError
		require.True(t, errors.As(err, &fieldErr))
		assert.Equal(t, []string{"client", "project_type"}, fieldErr.Fields)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestCaseStudyFrontmatter_Record(t *testing.T) {
	fm := validFrontmatter()
	fm.Function = "Engineering"

	rec := fm.Record()

	assert.Equal(t, "Acme", rec["client"])
	assert.Equal(t, []string{}, rec["technologies_used"])
	assert.Equal(t, "Engineering", rec["function"])
	assert.NotContains(t, rec, "project_status")
	assert.NotContains(t, rec, "key_metrics")
}

func TestCaseStudyFrontmatter_MetricRows(t *testing.T) {
	t.Run("no metrics", func(t *testing.T) {
		assert.Nil(t, validFrontmatter().MetricRows())
	})

	t.Run("map and scalar metrics", func(t *testing.T) {
		fm := validFrontmatter()
		fm.KeyMetrics = map[string]any{
			"uptime":      map[string]any{"value": 99.9, "unit": "%"},
			"cost_saving": 120000,
		}

		rows := fm.MetricRows()

		require.Len(t, rows, 2)
		assert.Equal(t, map[string]any{"metric_name": "cost_saving", "value": 120000}, rows[0])
		assert.Equal(t, map[string]any{"metric_name": "uptime", "value": 99.9, "unit": "%"}, rows[1])
	})
}
