package lessons

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/langlyai/langly/internal/content"
)

// ErrInvalidLessonKey is returned when the level or day of a request
// cannot name a lesson slot.
var ErrInvalidLessonKey = errors.New("invalid lesson key")

// ErrGenerationParse indicates the provider's output could not be parsed as
// JSON. Raw holds the text exactly as received.
type ErrGenerationParse struct {
	Raw json.RawMessage
	Err error
}

func (e *ErrGenerationParse) Error() string {
	return fmt.Sprintf("generated lesson is not valid JSON: %v", e.Err)
}

func (e *ErrGenerationParse) Unwrap() error { return e.Err }

// ErrGenerationSchema indicates the provider's output parsed but failed
// validation. Errors lists every violation found.
type ErrGenerationSchema struct {
	Errors  []content.FieldError
	Payload json.RawMessage
}

func (e *ErrGenerationSchema) Error() string {
	paths := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		paths = append(paths, fe.Path)
	}
	return fmt.Sprintf("generated lesson failed validation (%d errors: %s)",
		len(e.Errors), strings.Join(paths, ", "))
}

// ErrLessonNotFound indicates the slot has neither a stored record nor a
// catalog title, and placeholder titles are disabled.
type ErrLessonNotFound struct {
	Level content.Level
	Day   int
}

func (e *ErrLessonNotFound) Error() string {
	return fmt.Sprintf("no lesson for %s day %d", e.Level, e.Day)
}
