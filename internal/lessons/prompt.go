package lessons

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/langlyai/langly/internal/catalog"
	"github.com/langlyai/langly/internal/content"
)

func buildSystemPrompt(level content.Level) string {
	return fmt.Sprintf(`You are a CEFR-aligned French curriculum writer. You must produce EXACTLY the JSON schema requested. Avoid vague text. Use concrete examples that match the title. French language level must match CEFR %s.`, level)
}

func buildLessonUserMessage(level content.Level, day int, title string, bp *catalog.Blueprint) (string, error) {
	var b strings.Builder

	b.WriteString("Create a structured French lesson:\n")
	b.WriteString(fmt.Sprintf("Level: %s\n", level))
	b.WriteString(fmt.Sprintf("Day: %d\n", day))
	b.WriteString(fmt.Sprintf("Title: %q\n", title))

	b.WriteString("\nBlueprint (follow strictly if present):\n")
	if bp == nil {
		b.WriteString("No blueprint\n")
	} else {
		raw, err := json.MarshalIndent(bp, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode blueprint: %w", err)
		}
		b.Write(raw)
		b.WriteString("\n")
		if len(bp.Constraints) > 0 {
			b.WriteString("\nBlueprint constraints (mandatory, in addition to the rules below):\n")
			for _, c := range bp.Constraints {
				b.WriteString(fmt.Sprintf("- %s\n", c))
			}
		}
	}

	b.WriteString(`
Hard rules:
- explanation.short: 3-5 lines (clear + practical)
- explanation.detailed: 10-14 lines (step-by-step)
- keyPoints: 4-6 (each with FR+EN example)
- examples: 6-8 (FR+EN+notes)
- exercises: 6-8 (include ANSWERS)
- miniQuiz: 3-5 (choices must be 4, correctIndex valid)
- tips: 1 short actionable tip

Language rules:
- Provide both "fr" and "en" for every bilingual field.
- French must be natural and appropriate for the CEFR level.
- English must be natural, native English, not a literal translation.
- Keep the meaning equivalent between languages.

renderMarkdown rules:
- renderMarkdown.fr: at least 500 words, with these sections in order:
  1) Objective
  2) Explanation (short + detailed summary)
  3) Key Points (bulleted)
  4) Examples (bulleted)
  5) Exercises (with answers)
  6) Mini quiz (with answers)
- renderMarkdown.en: the same structure and length, in English.`)

	return b.String(), nil
}
