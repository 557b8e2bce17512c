package content

import (
	"encoding/json"
	"fmt"
)

// BilingualText is a French/English pair carrying equivalent meaning.
type BilingualText struct {
	FR string `json:"fr"`
	EN string `json:"en"`
}

// Complete reports whether both languages are present.
func (b BilingualText) Complete() bool {
	return b.FR != "" && b.EN != ""
}

// In returns the text for lang ("fr" or "en"). Unknown languages fall back
// to English.
func (b BilingualText) In(lang string) string {
	if lang == "fr" {
		return b.FR
	}
	return b.EN
}

// ExerciseType enumerates the practice formats a lesson may contain.
type ExerciseType string

const (
	ExerciseFillBlank   ExerciseType = "fill_blank"
	ExerciseTranslate   ExerciseType = "translate"
	ExerciseShortAnswer ExerciseType = "short_answer"
)

// ExerciseTypes lists every accepted exercise type.
var ExerciseTypes = []ExerciseType{ExerciseFillBlank, ExerciseTranslate, ExerciseShortAnswer}

// QuizChoices is the exact number of choices every quiz item offers.
const QuizChoices = 4

// LessonContent is the generated body of a lesson. A stored lesson either
// has no content at all or a LessonContent that passed validation.
type LessonContent struct {
	Objective      BilingualText   `json:"objective"`
	GrammarFocus   []BilingualText `json:"grammarFocus"`
	VocabTheme     []BilingualText `json:"vocabTheme"`
	Explanation    Explanation     `json:"explanation"`
	KeyPoints      []KeyPoint      `json:"keyPoints"`
	Examples       []Example       `json:"examples"`
	Exercises      []Exercise      `json:"exercises"`
	MiniQuiz       []QuizItem      `json:"miniQuiz"`
	Tips           BilingualText   `json:"tips"`
	RenderMarkdown BilingualText   `json:"renderMarkdown"`
}

// Explanation holds the short and detailed walkthrough of the lesson topic.
type Explanation struct {
	Short    BilingualText `json:"short"`
	Detailed BilingualText `json:"detailed"`
}

// KeyPoint is one takeaway with an example sentence in each language.
type KeyPoint struct {
	Point     BilingualText `json:"point"`
	ExampleFR string        `json:"exampleFr"`
	ExampleEN string        `json:"exampleEn"`
}

// Example is a sentence pair with bilingual usage notes.
type Example struct {
	FR    string        `json:"fr"`
	EN    string        `json:"en"`
	Notes BilingualText `json:"notes"`
}

// Exercise is a practice prompt with its expected answer.
type Exercise struct {
	Type   ExerciseType  `json:"type"`
	Prompt BilingualText `json:"prompt"`
	Answer BilingualText `json:"answer"`
}

// QuizItem is a four-choice question. CorrectIndex addresses Choices.
type QuizItem struct {
	Question     BilingualText   `json:"question"`
	Choices      []BilingualText `json:"choices"`
	CorrectIndex int             `json:"correctIndex"`
	Explanation  BilingualText   `json:"explanation"`
}

// Answer returns the correct choice.
func (q QuizItem) Answer() (BilingualText, bool) {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Choices) {
		return BilingualText{}, false
	}
	return q.Choices[q.CorrectIndex], true
}

// Decode converts an already validated payload into a LessonContent.
func Decode(raw json.RawMessage) (*LessonContent, error) {
	var c LessonContent
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode lesson content: %w", err)
	}
	return &c, nil
}
