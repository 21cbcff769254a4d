package gemini

import (
	"fmt"
	"strings"

	"kaeva-factcheck/internal/entity"
)

const persona = `You are Kaeva's fact-checking analyst. Investigate the claim below using Google Search, ` +
	`weigh the evidence you find, and reach a verdict. Prefer primary and authoritative sources; ` +
	`say so plainly when the evidence is thin or conflicting.`

// BuildPrompt assembles the grounded fact-check prompt. tierLabels are listed
// in priority order; media is appended only when it was analyzed.
func BuildPrompt(claim string, tierLabels []string, media *entity.MediaAnalysis) string {
	var b strings.Builder

	b.WriteString(persona)
	b.WriteString("\n\nCLAIM:\n")
	b.WriteString(strings.TrimSpace(claim))
	b.WriteString("\n\nSOURCE PRIORITY (most to least authoritative):\n")
	for i, label := range tierLabels {
		fmt.Fprintf(&b, "%d. %s\n", i+1, label)
	}

	if media != nil {
		b.WriteString("\nMEDIA ANALYSIS (attached to the claim):\n")
		fmt.Fprintf(&b, "- type: %s\n", media.Type)
		if media.AuthenticityScore != nil {
			fmt.Fprintf(&b, "- authenticity score: %.4f (0 = synthetic, 1 = authentic)\n", *media.AuthenticityScore)
		} else {
			b.WriteString("- authenticity score: unavailable\n")
		}
		if v := media.VerdictText(); v != "" {
			fmt.Fprintf(&b, "- detector verdict: %s\n", v)
		}
	}

	b.WriteString("\nVerdict must be one of: TRUE, FALSE, MOSTLY_TRUE, MOSTLY_FALSE, MISLEADING, UNVERIFIED, SATIRE, OPINION.\n")
	b.WriteString("Write your analysis, then end your answer with a fenced JSON block exactly like:\n")
	b.WriteString("```json\n")
	b.WriteString(`{"verdict": "FALSE", "confidence": 0.9, "explanation": "one paragraph", ` +
		`"sources": [{"url": "https://...", "title": "...", "stance": "supports|contradicts|neutral"}]}`)
	b.WriteString("\n```\n")
	return b.String()
}
