package analyze

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		value   string
		want    Severity
		wantErr bool
	}{
		{"low", SeverityLow, false},
		{"medium", SeverityMedium, false},
		{"high", SeverityHigh, false},
		{"critical", SeverityCritical, false},
		{"Low", "", true},
		{"HIGH", "", true},
		{"severe", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseSeverity("risk_assessment.overall_risk", tt.value)
			if tt.wantErr {
				var schemaErr *SchemaError
				if !errors.As(err, &schemaErr) {
					t.Fatalf("ParseSeverity(%q) error = %v, want SchemaError", tt.value, err)
				}
				if schemaErr.Field != "risk_assessment.overall_risk" || schemaErr.Value != tt.value {
					t.Errorf("SchemaError = %+v, want field and value preserved", schemaErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSeverity(%q) error = %v", tt.value, err)
			}
			if got != tt.want {
				t.Errorf("ParseSeverity(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestSeverityRankOrdering(t *testing.T) {
	ordered := []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(ordered); i++ {
		if SeverityRank(ordered[i-1]) >= SeverityRank(ordered[i]) {
			t.Errorf("SeverityRank(%q) = %d not below SeverityRank(%q) = %d",
				ordered[i-1], SeverityRank(ordered[i-1]), ordered[i], SeverityRank(ordered[i]))
		}
	}
	if SeverityRank("unknown") != -1 {
		t.Errorf("SeverityRank(unknown) = %d, want -1", SeverityRank("unknown"))
	}
}

func TestNewIntent(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		wantErr    bool
	}{
		{"zero", 0, false},
		{"one", 1, false},
		{"middle", 0.85, false},
		{"negative", -0.1, true},
		{"above one", 1.01, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, err := NewIntent("summary", "reasoning", tt.confidence)
			if tt.wantErr {
				var schemaErr *SchemaError
				if !errors.As(err, &schemaErr) {
					t.Fatalf("NewIntent() error = %v, want SchemaError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewIntent() error = %v", err)
			}
			if intent.Confidence != tt.confidence {
				t.Errorf("Confidence = %v, want %v", intent.Confidence, tt.confidence)
			}
		})
	}
}

func TestSemanticAnalysisJSONRoundTrip(t *testing.T) {
	in := SemanticAnalysis{
		CommitHash:    "a1b2c3d4e5f60718293a4b5c6d7e8f9012345678",
		CommitMessage: "Fix nil deref in parser",
		Author:        "Jordan Doe <jordan@example.com>",
		Date:          "2026-08-30T12:00:00+00:00",
		FilesChanged: []FileChange{
			{Path: "parser.go", ChangeKind: "modified", Additions: 4, Deletions: 1, Language: "go"},
		},
		Intent: Intent{Summary: "Guard against nil input", Reasoning: "Crash report", Confidence: 0.8},
		ImpactMap: ImpactMap{
			DirectImpacts:      []Impact{{Area: "parser", Description: "nil safe", Severity: SeverityLow}},
			IndirectImpacts:    []Impact{},
			AffectedComponents: []string{"parser"},
		},
		RiskAssessment: RiskAssessment{
			OverallRisk: SeverityLow,
			Risks:       []Risk{{Description: "masks bad callers", Severity: SeverityMedium, EdgeCases: []string{"empty input"}}},
		},
		ReviewQuestions:   []ReviewQuestion{{Question: "Should callers be fixed instead?", Priority: SeverityMedium}},
		AnalysisModel:     "claude-sonnet-4-5-20250929",
		AnalysisTimestamp: "2026-08-30T12:00:05Z",
		TokensUsed:        1234,
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}

	var out SemanticAnalysis
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}

	if out.CommitHash != in.CommitHash {
		t.Errorf("CommitHash = %q", out.CommitHash)
	}
	if out.Intent != in.Intent {
		t.Errorf("Intent = %+v, want %+v", out.Intent, in.Intent)
	}
	if len(out.FilesChanged) != 1 || out.FilesChanged[0] != in.FilesChanged[0] {
		t.Errorf("FilesChanged = %+v", out.FilesChanged)
	}
	if out.RiskAssessment.OverallRisk != SeverityLow || len(out.RiskAssessment.Risks) != 1 {
		t.Errorf("RiskAssessment = %+v", out.RiskAssessment)
	}
	if out.TokensUsed != 1234 {
		t.Errorf("TokensUsed = %d", out.TokensUsed)
	}
}

func TestShortHash(t *testing.T) {
	tests := []struct {
		hash string
		want string
	}{
		{"a1b2c3d4e5f60718", "a1b2c3d4"},
		{"abc", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		a := SemanticAnalysis{CommitHash: tt.hash}
		if got := a.ShortHash(); got != tt.want {
			t.Errorf("ShortHash(%q) = %q, want %q", tt.hash, got, tt.want)
		}
	}
}
