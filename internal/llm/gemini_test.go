package llm

import (
	"errors"
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":  map[string]any{"type": "string"},
			"age":   map[string]any{"type": "integer"},
			"grade": map[string]any{"type": "string", "enum": []any{"A", "B", "C"}},
			"scores": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "integer", "minimum": 0, "maximum": 3},
				"minItems": 4,
				"maxItems": float64(4),
			},
		},
		"required": []any{"name", "age"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != "OBJECT" {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Properties) != 4 {
		t.Fatalf("expected 4 properties, got %d", len(schema.Properties))
	}
	if schema.Properties["name"].Type != "STRING" {
		t.Fatalf("expected STRING for name, got %s", schema.Properties["name"].Type)
	}
	if schema.Properties["age"].Type != "INTEGER" {
		t.Fatalf("expected INTEGER for age, got %s", schema.Properties["age"].Type)
	}
	if len(schema.Properties["grade"].Enum) != 3 {
		t.Fatalf("expected 3 enum values, got %d", len(schema.Properties["grade"].Enum))
	}
	if schema.Properties["scores"].Type != "ARRAY" {
		t.Fatalf("expected ARRAY for scores, got %s", schema.Properties["scores"].Type)
	}
	if schema.Properties["scores"].Items.Type != "INTEGER" {
		t.Fatalf("expected INTEGER for scores items, got %s", schema.Properties["scores"].Items.Type)
	}
	if len(schema.Required) != 2 {
		t.Fatalf("expected 2 required fields, got %d", len(schema.Required))
	}
	if len(schema.PropertyOrdering) != 2 || schema.PropertyOrdering[0] != "name" || schema.PropertyOrdering[1] != "age" {
		t.Fatalf("property ordering = %v", schema.PropertyOrdering)
	}

	scores := schema.Properties["scores"]
	if scores.MinItems == nil || *scores.MinItems != 4 || scores.MaxItems == nil || *scores.MaxItems != 4 {
		t.Fatalf("expected item bounds 4..4, got %v..%v", scores.MinItems, scores.MaxItems)
	}
	if scores.Items.Minimum == nil || *scores.Items.Minimum != 0 || scores.Items.Maximum == nil || *scores.Items.Maximum != 3 {
		t.Fatalf("expected value bounds 0..3 on items")
	}
}

func TestBuildGeminiSchema_NestedOrdering(t *testing.T) {
	bilingual := map[string]any{
		"type":       "object",
		"properties": map[string]any{"fr": map[string]any{"type": "string"}, "en": map[string]any{"type": "string"}},
		"required":   []string{"fr", "en"},
	}
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tips":           bilingual,
			"objective":      bilingual,
			"renderMarkdown": bilingual,
		},
		"required": []any{"objective", "tips", "renderMarkdown", "undeclared"},
	}

	schema := buildGeminiSchema(def)
	want := []string{"objective", "tips", "renderMarkdown"}
	if len(schema.PropertyOrdering) != len(want) {
		t.Fatalf("property ordering = %v, want %v", schema.PropertyOrdering, want)
	}
	for i, name := range want {
		if schema.PropertyOrdering[i] != name {
			t.Fatalf("property ordering = %v, want %v", schema.PropertyOrdering, want)
		}
	}
	if len(schema.Required) != 4 {
		t.Fatalf("required = %v", schema.Required)
	}
	tips := schema.Properties["tips"]
	if len(tips.PropertyOrdering) != 2 || tips.PropertyOrdering[0] != "fr" {
		t.Fatalf("nested ordering = %v", tips.PropertyOrdering)
	}
}

func TestCheckGeminiBlocked(t *testing.T) {
	tests := []struct {
		name    string
		result  *genai.GenerateContentResponse
		wantErr bool
	}{
		{
			name: "normal candidate",
			result: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonStop}},
			},
		},
		{
			name: "blocked prompt",
			result: &genai.GenerateContentResponse{
				PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
			},
			wantErr: true,
		},
		{
			name:    "no candidates",
			result:  &genai.GenerateContentResponse{},
			wantErr: true,
		},
		{
			name: "safety stop",
			result: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkGeminiBlocked(tt.result)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var inv *ErrInvalidResponse
			if !errors.As(err, &inv) {
				t.Fatalf("expected ErrInvalidResponse, got %T (%v)", err, err)
			}
		})
	}
}
