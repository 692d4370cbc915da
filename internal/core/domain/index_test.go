package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMetric_IsValid(t *testing.T) {
	assert.True(t, MetricCosine.IsValid())
	assert.True(t, MetricEuclidean.IsValid())
	assert.False(t, DistanceMetric("manhattan").IsValid())
}

func TestIndexMeta_Validate(t *testing.T) {
	tests := []struct {
		name    string
		meta    IndexMeta
		wantErr bool
	}{
		{"valid", IndexMeta{Dimensions: 3, Metric: MetricCosine}, false},
		{"zero dimensions", IndexMeta{Dimensions: 0, Metric: MetricCosine}, true},
		{"unknown metric", IndexMeta{Dimensions: 3, Metric: "dot"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.meta.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDistinctSources_FirstSeenOrder(t *testing.T) {
	hits := []SearchHit{
		{Entry: IndexEntry{Source: "b"}},
		{Entry: IndexEntry{Source: "a"}},
		{Entry: IndexEntry{Source: "b"}},
		{Entry: IndexEntry{Source: "c"}},
		{Entry: IndexEntry{Source: "a"}},
	}

	assert.Equal(t, []string{"b", "a", "c"}, DistinctSources(hits))
}

func TestDistinctSources_Empty(t *testing.T) {
	assert.Empty(t, DistinctSources(nil))
}

func TestAnswer_Degraded(t *testing.T) {
	assert.True(t, Answer{Warnings: []string{"llm down"}}.Degraded())
	assert.False(t, Answer{Text: "yes", Warnings: []string{"trimmed"}}.Degraded())
	assert.False(t, Answer{}.Degraded())
}
