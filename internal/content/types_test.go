package content

import (
	"os"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"A1", LevelA1, false},
		{"b2", LevelB2, false},
		{"  a2 ", LevelA2, false},
		{"C1", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecode(t *testing.T) {
	raw, err := os.ReadFile("testdata/alphabet_a1.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	c, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(c.Examples) != 6 {
		t.Fatalf("expected 6 examples, got %d", len(c.Examples))
	}
	if !c.RenderMarkdown.Complete() {
		t.Fatal("expected renderMarkdown in both languages")
	}
	ans, ok := c.MiniQuiz[1].Answer()
	if !ok || ans.FR != "i grec" {
		t.Fatalf("expected answer 'i grec', got %q (ok=%v)", ans.FR, ok)
	}
	if c.Exercises[1].Type != ExerciseTranslate {
		t.Fatalf("expected translate exercise, got %q", c.Exercises[1].Type)
	}
}

func TestQuizItemAnswer_OutOfRange(t *testing.T) {
	q := QuizItem{Choices: make([]BilingualText, 2), CorrectIndex: 3}
	if _, ok := q.Answer(); ok {
		t.Fatal("expected no answer for out-of-range index")
	}
}

func TestBilingualText(t *testing.T) {
	b := BilingualText{FR: "bonjour", EN: "hello"}
	if b.In("fr") != "bonjour" || b.In("en") != "hello" || b.In("de") != "hello" {
		t.Fatalf("unexpected language selection: %+v", b)
	}
	if (BilingualText{FR: "x"}).Complete() {
		t.Fatal("half-filled text must not be complete")
	}
}

func TestSchemaDefinition(t *testing.T) {
	if Schema.Name != "lesson_ai_content_bilingual" {
		t.Fatalf("unexpected schema name %q", Schema.Name)
	}
	req := Schema.Definition["required"].([]any)
	if len(req) != 10 {
		t.Fatalf("expected 10 required keys, got %d", len(req))
	}
	props := Schema.Definition["properties"].(map[string]any)
	if len(props) != len(req) {
		t.Fatalf("every property must be required: %d props, %d required", len(props), len(req))
	}
	if Schema.Definition["additionalProperties"] != false {
		t.Fatal("expected additionalProperties false at root")
	}
}
