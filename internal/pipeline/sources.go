package pipeline

import (
	"strings"

	"kaeva-factcheck/internal/entity"
	"kaeva-factcheck/internal/tiers"
)

// SourceClassifier ranks a source URL; nil means the domain is not in any tier.
type SourceClassifier interface {
	Classify(rawURL string) *tiers.Match
}

// MergeSources combines model-reported and grounding sources, deduplicated by
// URL. Model entries come first and keep their stance when a grounding chunk
// points at the same URL. Model entries without a URL are kept as-is.
// Every returned source carries its tier; the weights of the sources that
// matched a tier are returned alongside for the quality signal.
func MergeSources(model, grounding []entity.Source, c SourceClassifier) ([]entity.Source, []float64) {
	seen := make(map[string]struct{}, len(model)+len(grounding))
	merged := make([]entity.Source, 0, len(model)+len(grounding))

	add := func(s entity.Source) {
		s.URL = strings.TrimSpace(s.URL)
		if s.URL != "" {
			if _, dup := seen[s.URL]; dup {
				return
			}
			seen[s.URL] = struct{}{}
		}
		merged = append(merged, s)
	}
	for _, s := range model {
		add(s)
	}
	for _, s := range grounding {
		if strings.TrimSpace(s.URL) == "" {
			continue
		}
		add(s)
	}

	var weights []float64
	for i := range merged {
		merged[i].Tier = nil
		merged[i].TierLabel = tiers.UnrankedLabel
		if c == nil || merged[i].URL == "" {
			continue
		}
		if m := c.Classify(merged[i].URL); m != nil {
			tier := m.Tier
			merged[i].Tier = &tier
			merged[i].TierLabel = m.Label
			weights = append(weights, m.Weight)
		}
	}
	return merged, weights
}
