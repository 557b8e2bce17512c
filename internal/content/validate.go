package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/langlyai/langly/internal/llm"
)

// Constraint names the rule a FieldError violates.
type Constraint string

const (
	ConstraintRequired   Constraint = "required"
	ConstraintType       Constraint = "type"
	ConstraintMinItems   Constraint = "min_items"
	ConstraintMaxItems   Constraint = "max_items"
	ConstraintEnum       Constraint = "enum"
	ConstraintAdditional Constraint = "additional_property"
	ConstraintMinimum    Constraint = "minimum"
	ConstraintMaximum    Constraint = "maximum"
	ConstraintChoice     Constraint = "choice_index"
	ConstraintInvalid    Constraint = "invalid"
)

// rootPath stands in for the document itself in error paths.
const rootPath = "(root)"

// FieldError is a single violation located by a dotted, indexed path such
// as "miniQuiz[2].choices". A missing key is reported at the key's own path.
type FieldError struct {
	Path       string     `json:"path"`
	Constraint Constraint `json:"constraint"`
	Message    string     `json:"message"`
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s (%s)", e.Path, e.Message, e.Constraint)
}

// Result is the outcome of validating one candidate payload.
type Result struct {
	OK     bool         `json:"ok"`
	Errors []FieldError `json:"errors,omitempty"`
}

// Paths returns the path of every error, in report order.
func (r Result) Paths() []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Path
	}
	return out
}

// Has reports whether some error sits at path with the given constraint.
func (r Result) Has(path string, c Constraint) bool {
	for _, e := range r.Errors {
		if e.Path == path && e.Constraint == c {
			return true
		}
	}
	return false
}

var printer = message.NewPrinter(language.English)

// Validate checks candidate against the lesson content schema and reports
// every violation, not just the first. candidate may be a decoded JSON value,
// raw JSON bytes, or any value that marshals to JSON. Validate has no side
// effects and never panics on malformed input.
func Validate(candidate any) Result {
	v, err := normalize(candidate)
	if err != nil {
		return Result{Errors: []FieldError{{Path: rootPath, Constraint: ConstraintInvalid, Message: err.Error()}}}
	}
	return validateValue(v)
}

// ValidateJSON parses raw and validates the result. The error is non-nil
// only when raw is not JSON at all; schema violations are reported in the
// Result.
func ValidateJSON(raw []byte) (Result, error) {
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return Result{}, err
	}
	return validateValue(v), nil
}

func normalize(candidate any) (any, error) {
	var raw []byte
	switch c := candidate.(type) {
	case json.RawMessage:
		raw = c
	case []byte:
		raw = c
	default:
		b, err := json.Marshal(candidate)
		if err != nil {
			return nil, fmt.Errorf("candidate is not representable as JSON: %w", err)
		}
		raw = b
	}
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("candidate is not valid JSON: %w", err)
	}
	return v, nil
}

func validateValue(v any) Result {
	compiled, err := llm.CompileSchema(Schema)
	if err != nil {
		return Result{Errors: []FieldError{{Path: rootPath, Constraint: ConstraintInvalid, Message: err.Error()}}}
	}

	var errs []FieldError
	if err := compiled.Validate(v); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			errs = flatten(verr, errs)
		} else {
			errs = append(errs, FieldError{Path: rootPath, Constraint: ConstraintInvalid, Message: err.Error()})
		}
	}
	errs = append(errs, checkQuizIndexes(v, errs)...)

	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].Path != errs[j].Path {
			return errs[i].Path < errs[j].Path
		}
		return errs[i].Constraint < errs[j].Constraint
	})
	return Result{OK: len(errs) == 0, Errors: errs}
}

// flatten walks the cause tree down to its leaves. Inner nodes only group
// errors; the leaves carry the keyword that actually failed.
func flatten(e *jsonschema.ValidationError, out []FieldError) []FieldError {
	if len(e.Causes) > 0 {
		for _, c := range e.Causes {
			out = flatten(c, out)
		}
		return out
	}

	path := joinPath(e.InstanceLocation)
	switch k := e.ErrorKind.(type) {
	case *kind.Required:
		for _, name := range k.Missing {
			out = append(out, FieldError{Path: childPath(path, name), Constraint: ConstraintRequired, Message: "missing required property"})
		}
	case *kind.AdditionalProperties:
		for _, name := range k.Properties {
			out = append(out, FieldError{Path: childPath(path, name), Constraint: ConstraintAdditional, Message: "unexpected property"})
		}
	default:
		out = append(out, FieldError{Path: path, Constraint: constraintOf(k), Message: k.LocalizedString(printer)})
	}
	return out
}

func constraintOf(k jsonschema.ErrorKind) Constraint {
	switch k.(type) {
	case *kind.Type:
		return ConstraintType
	case *kind.Enum:
		return ConstraintEnum
	case *kind.MinItems:
		return ConstraintMinItems
	case *kind.MaxItems:
		return ConstraintMaxItems
	case *kind.Minimum:
		return ConstraintMinimum
	case *kind.Maximum:
		return ConstraintMaximum
	default:
		return ConstraintInvalid
	}
}

// checkQuizIndexes reports quiz items whose correctIndex does not address
// one of their own choices. Items already flagged at that path by the
// schema are skipped.
func checkQuizIndexes(v any, existing []FieldError) []FieldError {
	root, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	quiz, ok := root["miniQuiz"].([]any)
	if !ok {
		return nil
	}

	var out []FieldError
	for i, item := range quiz {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		choices, ok := m["choices"].([]any)
		if !ok {
			continue
		}
		idx, ok := asInt(m["correctIndex"])
		if !ok {
			continue
		}
		path := fmt.Sprintf("miniQuiz[%d].correctIndex", i)
		if flagged(existing, path) {
			continue
		}
		if idx < 0 || idx >= int64(len(choices)) {
			out = append(out, FieldError{
				Path:       path,
				Constraint: ConstraintChoice,
				Message:    fmt.Sprintf("correctIndex %d does not address one of %d choices", idx, len(choices)),
			})
		}
	}
	return out
}

func flagged(errs []FieldError, path string) bool {
	for _, e := range errs {
		if e.Path == path {
			return true
		}
	}
	return false
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func joinPath(tokens []string) string {
	if len(tokens) == 0 {
		return rootPath
	}
	var b strings.Builder
	for _, tok := range tokens {
		if _, err := strconv.Atoi(tok); err == nil {
			b.WriteString("[" + tok + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(tok)
	}
	return b.String()
}

func childPath(parent, name string) string {
	if parent == rootPath {
		return name
	}
	return parent + "." + name
}
