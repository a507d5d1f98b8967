package scoring

import (
	"encoding/json"
	"strings"

	"github.com/dojotrack/technique-analyzer/internal/models"
)

// schemaRecord mirrors the prompt's target schema. Numeric fields are
// pointers so a missing score stays absent rather than becoming zero.
type schemaRecord struct {
	OverallScore  *float64           `json:"overall_score"`
	TechniqueName string             `json:"technique_name"`
	Style         string             `json:"style"`
	SubScores     map[string]float64 `json:"sub_scores"`
	Strengths     []string           `json:"strengths"`
	Improvements  []string           `json:"improvements"`
	Tips          []string           `json:"tips"`
	SafetyNotes   []string           `json:"safety_notes"`
	NextSteps     []string           `json:"next_steps"`
}

// Parse extracts a structured analysis from the scoring service's raw text.
// The service is not contractually guaranteed to emit only the JSON object,
// so the substring between the first '{' and the last '}' is decoded
// best-effort. On any decode shortfall the raw text is preserved in a
// degraded result with ParseFailed set; the caller still completes the job,
// because scoring succeeded even though structuring did not. Scores outside
// [0, 10] are passed through unclamped.
func Parse(raw string) *models.TechniqueAnalysis {
	degraded := &models.TechniqueAnalysis{
		RawResponse: raw,
		ParseFailed: true,
	}

	candidate := extractObject(raw)
	if candidate == "" {
		return degraded
	}

	var rec schemaRecord
	if err := json.Unmarshal([]byte(candidate), &rec); err != nil {
		return degraded
	}
	if rec.OverallScore == nil && rec.TechniqueName == "" && len(rec.SubScores) == 0 {
		// Valid JSON that carries nothing from the schema is as useless as
		// no JSON at all.
		return degraded
	}

	return &models.TechniqueAnalysis{
		OverallScore:  rec.OverallScore,
		TechniqueName: rec.TechniqueName,
		Style:         rec.Style,
		SubScores:     rec.SubScores,
		Strengths:     rec.Strengths,
		Improvements:  rec.Improvements,
		Tips:          rec.Tips,
		SafetyNotes:   rec.SafetyNotes,
		NextSteps:     rec.NextSteps,
		RawResponse:   raw,
	}
}

// extractObject returns the brace-delimited substring of text, tolerating
// markdown code fences and surrounding prose. Empty string when no object
// boundary exists.
func extractObject(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if end := strings.LastIndex(s, "```"); end != -1 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}
