package entity

import (
	"encoding/json"
	"strings"
	"time"
)

type Verdict string

const (
	VerdictTrue        Verdict = "TRUE"
	VerdictFalse       Verdict = "FALSE"
	VerdictMostlyTrue  Verdict = "MOSTLY_TRUE"
	VerdictMostlyFalse Verdict = "MOSTLY_FALSE"
	VerdictMisleading  Verdict = "MISLEADING"
	VerdictUnverified  Verdict = "UNVERIFIED"
	VerdictSatire      Verdict = "SATIRE"
	VerdictOpinion     Verdict = "OPINION"
)

var knownVerdicts = map[Verdict]struct{}{
	VerdictTrue:        {},
	VerdictFalse:       {},
	VerdictMostlyTrue:  {},
	VerdictMostlyFalse: {},
	VerdictMisleading:  {},
	VerdictUnverified:  {},
	VerdictSatire:      {},
	VerdictOpinion:     {},
}

// ParseVerdict normalizes "mostly true", "Mostly-True" etc. to MOSTLY_TRUE.
func ParseVerdict(s string) (Verdict, bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	v := Verdict(norm)
	if _, ok := knownVerdicts[v]; !ok {
		return VerdictUnverified, false
	}
	return v, true
}

type Stance string

const (
	StanceSupports    Stance = "supports"
	StanceContradicts Stance = "contradicts"
	StanceNeutral     Stance = "neutral"
	StanceReferenced  Stance = "referenced"
)

// ParseStance maps free text to a Stance; anything unrecognized is neutral.
func ParseStance(s string) Stance {
	switch Stance(strings.ToLower(strings.TrimSpace(s))) {
	case StanceSupports:
		return StanceSupports
	case StanceContradicts:
		return StanceContradicts
	case StanceReferenced:
		return StanceReferenced
	default:
		return StanceNeutral
	}
}

type Source struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Stance    Stance `json:"stance"`
	Tier      *int   `json:"tier"`
	TierLabel string `json:"tierLabel"`
}

type MediaType string

const (
	MediaImage   MediaType = "image"
	MediaVideo   MediaType = "video"
	MediaAudio   MediaType = "audio"
	MediaUnknown MediaType = "unknown"
)

// MediaAnalysis mirrors the inference service response. Verdict, Scores,
// EnsembleScores, Model and Version are passed through untouched.
type MediaAnalysis struct {
	Type              MediaType       `json:"type"`
	AuthenticityScore *float64        `json:"authenticityScore"`
	Verdict           json.RawMessage `json:"verdict,omitempty"`
	Scores            json.RawMessage `json:"scores,omitempty"`
	EnsembleScores    json.RawMessage `json:"ensemble_scores,omitempty"`
	Model             json.RawMessage `json:"model,omitempty"`
	Version           json.RawMessage `json:"version,omitempty"`
	Notes             string          `json:"notes,omitempty"`
}

func (m *MediaAnalysis) HasScore() bool {
	return m != nil && m.AuthenticityScore != nil
}

// VerdictText renders the pass-through verdict for a prompt: strings are
// unquoted, anything else is returned as compact JSON.
func (m *MediaAnalysis) VerdictText() string {
	if m == nil || len(m.Verdict) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(m.Verdict, &s); err == nil {
		return s
	}
	return string(m.Verdict)
}

// TextExtraction is the OCR result. Fields keeps every key of the OCR
// response other than "text".
type TextExtraction struct {
	Text   string                     `json:"text"`
	Fields map[string]json.RawMessage `json:"fields,omitempty"`
}

// Verification is the raw output of the grounded model call, before parsing.
type Verification struct {
	Text             string
	GroundingSources []Source
	SearchQueries    []string
}

type ParsedVerdict struct {
	Verdict     Verdict
	Confidence  float64
	Explanation string
	Sources     []Source
}

type Recommendation string

const (
	RecommendationHigh   Recommendation = "HIGH_CONFIDENCE"
	RecommendationReview Recommendation = "NEEDS_REVIEW"
	RecommendationLow    Recommendation = "LOW_CONFIDENCE"
)

// ConfidenceBreakdown holds the clamped components the score was computed from.
type ConfidenceBreakdown struct {
	SourceAgreement   float64  `json:"sourceAgreement"`
	SourceQuality     float64  `json:"sourceQuality"`
	AIConfidence      float64  `json:"aiConfidence"`
	MediaAuthenticity *float64 `json:"mediaAuthenticity,omitempty"`
}

type VerdictResult struct {
	Claim               string              `json:"claim"`
	OriginalClaim       *string             `json:"originalClaim"`
	Verdict             Verdict             `json:"verdict"`
	Explanation         string              `json:"explanation"`
	Confidence          float64             `json:"confidence"`
	ConfidenceBreakdown ConfidenceBreakdown `json:"confidenceBreakdown"`
	Recommendation      Recommendation      `json:"recommendation"`
	Sources             []Source            `json:"sources"`
	SearchQueries       []string            `json:"searchQueries,omitempty"`
	MediaAnalysis       *MediaAnalysis      `json:"mediaAnalysis"`
	TextExtraction      *TextExtraction     `json:"textExtraction"`
	AnalyzedAt          time.Time           `json:"analyzedAt"`
}
