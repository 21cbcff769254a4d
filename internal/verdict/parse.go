// Package verdict extracts the structured verdict block from free-form model output.
package verdict

import (
	"encoding/json"
	"regexp"
	"strings"

	"kaeva-factcheck/internal/entity"
)

const (
	// DefaultConfidence is used when the model gives none.
	DefaultConfidence = 0.5

	fallbackExplanationRunes = 300
)

var fencedJSON = regexp.MustCompile("(?is)```json[ \\t]*\\r?\\n?(.*?)```")

type rawVerdict struct {
	Verdict     json.RawMessage `json:"verdict"`
	Confidence  json.RawMessage `json:"confidence"`
	Explanation json.RawMessage `json:"explanation"`
	Sources     json.RawMessage `json:"sources"`
}

type rawSource struct {
	URL    string `json:"url"`
	Title  string `json:"title"`
	Stance string `json:"stance"`
}

// Parse reads the last ```json fenced block in text. It never fails: when no
// block is found or it does not decode, the verdict is UNVERIFIED with the
// leading 300 characters of text as the explanation.
func Parse(text string) entity.ParsedVerdict {
	block, ok := lastFencedBlock(text)
	if !ok {
		return Fallback(text)
	}

	var raw rawVerdict
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return Fallback(text)
	}

	return entity.ParsedVerdict{
		Verdict:     parseVerdictField(raw.Verdict),
		Confidence:  parseConfidence(raw.Confidence),
		Explanation: stringField(raw.Explanation),
		Sources:     parseSources(raw.Sources),
	}
}

// Fallback is the verdict used when the model output carries no usable block.
func Fallback(text string) entity.ParsedVerdict {
	return entity.ParsedVerdict{
		Verdict:     entity.VerdictUnverified,
		Confidence:  DefaultConfidence,
		Explanation: truncateRunes(text, fallbackExplanationRunes),
		Sources:     []entity.Source{},
	}
}

func lastFencedBlock(text string) (string, bool) {
	matches := fencedJSON.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return "", false
	}
	return strings.TrimSpace(matches[len(matches)-1][1]), true
}

func parseVerdictField(raw json.RawMessage) entity.Verdict {
	s := stringField(raw)
	if s == "" {
		return entity.VerdictUnverified
	}
	v, _ := entity.ParseVerdict(s)
	return v
}

// parseConfidence treats values above 1 as percentages.
func parseConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return DefaultConfidence
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return DefaultConfidence
	}
	if f > 1 {
		f = f / 100
	}
	return f
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func parseSources(raw json.RawMessage) []entity.Source {
	out := []entity.Source{}
	if len(raw) == 0 {
		return out
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}

	for _, item := range items {
		if string(item) == "null" {
			continue
		}
		var rs rawSource
		if err := json.Unmarshal(item, &rs); err != nil {
			continue
		}
		out = append(out, entity.Source{
			Title:  strings.TrimSpace(rs.Title),
			URL:    strings.TrimSpace(rs.URL),
			Stance: entity.ParseStance(rs.Stance),
		})
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
