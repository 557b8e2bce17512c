package content

import "github.com/langlyai/langly/internal/llm"

// SchemaName is the name under which the lesson content schema is sent to
// providers and cached by the compiler.
const SchemaName = "lesson_ai_content_bilingual"

// Schema is the output contract for generated lesson content. Providers
// receive it as their structured-output constraint and Validate checks
// every payload against it before anything is stored.
var Schema = &llm.Schema{
	Name:        SchemaName,
	Description: "A complete bilingual (French/English) CEFR lesson",
	Definition: object(map[string]any{
		"objective":    bilingual("What the learner can do after the lesson"),
		"grammarFocus": arrayOf(bilingual(""), 2, 5),
		"vocabTheme":   arrayOf(bilingual(""), 4, 10),
		"explanation": object(map[string]any{
			"short":    bilingual("3-5 practical lines"),
			"detailed": bilingual("10-14 step-by-step lines"),
		}, "short", "detailed"),
		"keyPoints": arrayOf(object(map[string]any{
			"point":     bilingual(""),
			"exampleFr": str(),
			"exampleEn": str(),
		}, "point", "exampleFr", "exampleEn"), 4, 6),
		"examples": arrayOf(object(map[string]any{
			"fr":    str(),
			"en":    str(),
			"notes": bilingual(""),
		}, "fr", "en", "notes"), 6, 8),
		"exercises": arrayOf(object(map[string]any{
			"type": map[string]any{
				"type": "string",
				"enum": []any{string(ExerciseFillBlank), string(ExerciseTranslate), string(ExerciseShortAnswer)},
			},
			"prompt": bilingual(""),
			"answer": bilingual(""),
		}, "type", "prompt", "answer"), 6, 8),
		"miniQuiz": arrayOf(object(map[string]any{
			"question": bilingual(""),
			"choices":  arrayOf(bilingual(""), QuizChoices, QuizChoices),
			"correctIndex": map[string]any{
				"type":    "integer",
				"minimum": 0,
				"maximum": QuizChoices - 1,
			},
			"explanation": bilingual(""),
		}, "question", "choices", "correctIndex", "explanation"), 3, 5),
		"tips":           bilingual("One short actionable tip"),
		"renderMarkdown": bilingual("Full lesson rendered as Markdown, at least 500 words"),
	},
		"objective", "grammarFocus", "vocabTheme", "explanation", "keyPoints",
		"examples", "exercises", "miniQuiz", "tips", "renderMarkdown",
	),
}

func str() map[string]any {
	return map[string]any{"type": "string"}
}

func object(props map[string]any, required ...string) map[string]any {
	req := make([]any, len(required))
	for i, r := range required {
		req[i] = r
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             req,
		"additionalProperties": false,
	}
}

func bilingual(description string) map[string]any {
	def := object(map[string]any{"fr": str(), "en": str()}, "fr", "en")
	if description != "" {
		def["description"] = description
	}
	return def
}

func arrayOf(items map[string]any, minItems, maxItems int) map[string]any {
	return map[string]any{
		"type":     "array",
		"items":    items,
		"minItems": minItems,
		"maxItems": maxItems,
	}
}
