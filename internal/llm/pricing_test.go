package llm

import "testing"

func TestLookupCost(t *testing.T) {
	tests := []struct {
		model string
		want  *ModelCost
	}{
		{"gpt-4o-mini", &ModelCost{0.15, 0.6}},
		{"gpt-4o-mini-2024-07-18", &ModelCost{0.15, 0.6}},
		{"openai/gpt-4o-mini", &ModelCost{0.15, 0.6}},
		{"claude-sonnet-4-5-20250929", &ModelCost{3, 15}},
		{"gemini-2.5-flash", &ModelCost{0.3, 2.5}},
		{"mock", nil},
		{"gpt-4o-mini-2024-7-18", nil},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			got := LookupCost(tt.model)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("LookupCost(%q) = %+v, want nil", tt.model, got)
				}
				return
			}
			if got == nil || *got != *tt.want {
				t.Fatalf("LookupCost(%q) = %+v, want %+v", tt.model, got, tt.want)
			}
		})
	}
}

func TestModelCost_Cost(t *testing.T) {
	c := ModelCost{InputPerMTok: 0.15, OutputPerMTok: 0.6}
	got := c.Cost(1_000_000, 500_000)
	if got < 0.4499 || got > 0.4501 {
		t.Fatalf("cost = %f, want 0.45", got)
	}
}
