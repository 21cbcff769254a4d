// Package scoring combines source and model signals into one bounded confidence score.
package scoring

import (
	"math"

	"kaeva-factcheck/internal/entity"
)

// Weights with a media authenticity signal.
const (
	MediaAgreementWeight    = 0.30
	MediaQualityWeight      = 0.20
	MediaAIConfidenceWeight = 0.35
	MediaAuthenticityWeight = 0.15
)

// Weights without media; the media share is redistributed.
const (
	AgreementWeight    = 0.35
	QualityWeight      = 0.25
	AIConfidenceWeight = 0.40
)

const (
	HighConfidenceThreshold = 0.75
	ReviewThreshold         = 0.50
)

// Defaults used when there is nothing to derive a signal from.
const (
	DefaultAgreement = 0.5
	DefaultQuality   = 0.3
)

type Signals struct {
	Agreement         float64
	Quality           float64
	AIConfidence      float64
	MediaAuthenticity *float64
}

type Confidence struct {
	Score          float64
	Breakdown      entity.ConfidenceBreakdown
	Recommendation entity.Recommendation
}

// Aggregate clamps every signal to [0,1] and returns the weighted score.
func Aggregate(s Signals) Confidence {
	b := entity.ConfidenceBreakdown{
		SourceAgreement: Clamp01(s.Agreement),
		SourceQuality:   Clamp01(s.Quality),
		AIConfidence:    Clamp01(s.AIConfidence),
	}

	var score float64
	if s.MediaAuthenticity != nil {
		m := Clamp01(*s.MediaAuthenticity)
		b.MediaAuthenticity = &m
		score = MediaAgreementWeight*b.SourceAgreement +
			MediaQualityWeight*b.SourceQuality +
			MediaAIConfidenceWeight*b.AIConfidence +
			MediaAuthenticityWeight*m
	} else {
		score = AgreementWeight*b.SourceAgreement +
			QualityWeight*b.SourceQuality +
			AIConfidenceWeight*b.AIConfidence
	}

	score = Clamp01(Round4(score))
	return Confidence{
		Score:          score,
		Breakdown:      b,
		Recommendation: Recommend(score),
	}
}

func Recommend(score float64) entity.Recommendation {
	switch {
	case score >= HighConfidenceThreshold:
		return entity.RecommendationHigh
	case score >= ReviewThreshold:
		return entity.RecommendationReview
	default:
		return entity.RecommendationLow
	}
}

// Agreement is supports / (supports + contradicts) over stance-labeled sources.
func Agreement(sources []entity.Source) float64 {
	var supports, contradicts int
	for _, s := range sources {
		switch s.Stance {
		case entity.StanceSupports:
			supports++
		case entity.StanceContradicts:
			contradicts++
		}
	}
	if supports+contradicts == 0 {
		return DefaultAgreement
	}
	return float64(supports) / float64(supports+contradicts)
}

// Quality is the mean of the tier weights of classified sources.
func Quality(weights []float64) float64 {
	if len(weights) == 0 {
		return DefaultQuality
	}
	var sum float64
	for _, w := range weights {
		sum += w
	}
	return sum / float64(len(weights))
}

// Clamp01 bounds v to [0,1]; NaN becomes 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
