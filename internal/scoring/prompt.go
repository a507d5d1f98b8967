package scoring

import (
	"fmt"
	"strings"
)

// The fixed evaluation rubric: five weighted sub-criteria summing to 100%.
var rubricCriteria = []struct {
	Name   string
	Weight int
}{
	{"stance_alignment", 25},
	{"technique_execution", 30},
	{"balance_stability", 15},
	{"speed_power", 15},
	{"form_precision", 15},
}

// BuildPrompt constructs the scoring prompt for a sequence of frames,
// embedding the rubric and any caller-supplied technique/style hints, and
// instructing the service to answer with the exact target JSON schema.
func BuildPrompt(technique, style string, frameCount int) string {
	var b strings.Builder

	b.WriteString("You are an expert martial arts coach. The following ")
	fmt.Fprintf(&b, "%d images are frames sampled in order from a single video of a student performing a technique.\n\n", frameCount)

	if technique != "" {
		fmt.Fprintf(&b, "The student says the technique is: %s.\n", technique)
	}
	if style != "" {
		fmt.Fprintf(&b, "The student says the style is: %s.\n", style)
	}
	if technique == "" && style == "" {
		b.WriteString("Identify the technique and style being performed.\n")
	}

	b.WriteString("\nScore the performance on each criterion from 0.0 to 10.0, weighted as follows:\n")
	for _, c := range rubricCriteria {
		fmt.Fprintf(&b, "- %s (%d%%)\n", c.Name, c.Weight)
	}

	b.WriteString(`
Respond with ONLY a JSON object, no surrounding prose, using exactly this schema:
{
  "overall_score": <number 0.0-10.0>,
  "technique_name": "<identified technique>",
  "style": "<identified style>",
  "sub_scores": {`)
	names := make([]string, len(rubricCriteria))
	for i, c := range rubricCriteria {
		names[i] = fmt.Sprintf("\"%s\": <number>", c.Name)
	}
	b.WriteString(strings.Join(names, ", "))
	b.WriteString(`},
  "strengths": ["<string>", ...],
  "improvements": ["<string>", ...],
  "tips": ["<string>", ...],
  "safety_notes": ["<string>", ...],
  "next_steps": ["<string>", ...]
}
`)
	return b.String()
}
