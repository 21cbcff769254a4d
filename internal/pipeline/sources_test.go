package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaeva-factcheck/internal/entity"
	"kaeva-factcheck/internal/tiers"
)

func TestMergeSources_ModelStanceWins(t *testing.T) {
	model := []entity.Source{
		{Title: "Reuters", URL: "https://www.reuters.com/a", Stance: entity.StanceSupports},
	}
	grounding := []entity.Source{
		{Title: "reuters.com", URL: "https://www.reuters.com/a", Stance: entity.StanceReferenced},
		{Title: "cnn.com", URL: "https://edition.cnn.com/b", Stance: entity.StanceReferenced},
	}

	got, weights := MergeSources(model, grounding, classifier(t))
	require.Len(t, got, 2)
	assert.Equal(t, "Reuters", got[0].Title)
	assert.Equal(t, entity.StanceSupports, got[0].Stance)
	require.NotNil(t, got[0].Tier)
	assert.Equal(t, 2, *got[0].Tier)
	assert.Equal(t, entity.StanceReferenced, got[1].Stance)
	require.NotNil(t, got[1].Tier)
	assert.Equal(t, 3, *got[1].Tier)
	assert.Equal(t, []float64{0.85, 0.65}, weights)
}

func TestMergeSources_UnrankedAndEmptyURL(t *testing.T) {
	model := []entity.Source{
		{Title: "a book", Stance: entity.StanceNeutral},
		{Title: "another book", Stance: entity.StanceSupports},
		{Title: "blog", URL: "https://someblog.example/post"},
		{Title: "blog again", URL: " https://someblog.example/post "},
	}

	got, weights := MergeSources(model, nil, classifier(t))
	require.Len(t, got, 3)
	assert.Empty(t, weights)
	for _, s := range got {
		assert.Nil(t, s.Tier)
		assert.Equal(t, tiers.UnrankedLabel, s.TierLabel)
	}
	assert.Equal(t, "blog", got[2].Title)
}

func TestMergeSources_GroundingWithoutURLIsDropped(t *testing.T) {
	got, _ := MergeSources(nil, []entity.Source{{Title: "x"}}, nil)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}
