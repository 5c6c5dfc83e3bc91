package analyze

import "fmt"

// Severity is the ordinal risk level used throughout an analysis.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityRank returns the ordering of a severity (low < medium < high < critical).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return -1
	}
}

// SchemaError indicates the model produced a value outside the response schema.
// Unknown enumerated values are never coerced to a default; doing so would
// misrepresent the model's assessment.
type SchemaError struct {
	Field string
	Value string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema violation: field %q has invalid value %q", e.Field, e.Value)
}

// ParseSeverity parses a severity token. Matching is case-sensitive: "Low" or
// "LOW" are schema violations, not aliases.
func ParseSeverity(field, value string) (Severity, error) {
	switch Severity(value) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(value), nil
	}
	return "", &SchemaError{Field: field, Value: value}
}

// FileChange represents a single file change in a commit. Instances are
// produced by the gitrepo package and never mutated afterwards.
type FileChange struct {
	Path       string `json:"path"`
	ChangeKind string `json:"change_kind"` // added, modified, deleted, renamed
	Additions  int    `json:"additions"`
	Deletions  int    `json:"deletions"`
	Diff       string `json:"diff"`               // truncated to MaxDiffBytes
	Language   string `json:"language,omitempty"` // empty when unknown
}

// MaxDiffBytes caps the per-file diff text carried into an analysis.
const MaxDiffBytes = 5000

// Intent captures what the developer was trying to accomplish.
type Intent struct {
	Summary    string  `json:"summary"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// NewIntent constructs an Intent, rejecting confidence values outside [0, 1].
// The normalizer only ever injects in-range values, so an out-of-range
// confidence here means the model supplied one.
func NewIntent(summary, reasoning string, confidence float64) (Intent, error) {
	if confidence < 0 || confidence > 1 {
		return Intent{}, &SchemaError{Field: "intent.confidence", Value: fmt.Sprintf("%g", confidence)}
	}
	return Intent{Summary: summary, Reasoning: reasoning, Confidence: confidence}, nil
}

// Impact is a single affected area.
type Impact struct {
	Area        string   `json:"area"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// ImpactMap collects everything a change touches. Component names are
// order-preserving; duplicates are permitted.
type ImpactMap struct {
	DirectImpacts      []Impact `json:"direct_impacts"`
	IndirectImpacts    []Impact `json:"indirect_impacts"`
	AffectedComponents []string `json:"affected_components"`
}

// Risk is a single identified risk.
type Risk struct {
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Mitigation  string   `json:"mitigation,omitempty"`
	EdgeCases   []string `json:"edge_cases"`
}

// RiskAssessment is the overall risk picture for a commit.
type RiskAssessment struct {
	OverallRisk       Severity `json:"overall_risk"`
	Risks             []Risk   `json:"risks"`
	BreakingChanges   bool     `json:"breaking_changes"`
	RequiresMigration bool     `json:"requires_migration"`
}

// ReviewQuestion is a question the reviewer would ask the author.
type ReviewQuestion struct {
	Question string   `json:"question"`
	Context  string   `json:"context"`
	Priority Severity `json:"priority"`
}

// TokenUsage tracks token counts reported by the model API.
type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Total returns input plus output tokens.
func (u TokenUsage) Total() int64 {
	return u.InputTokens + u.OutputTokens
}

// SemanticAnalysis is the complete analysis of one commit. Every nested
// collection is populated (possibly empty) before the aggregate is returned
// to a caller; presentation code never sees a partially built analysis.
type SemanticAnalysis struct {
	CommitHash    string       `json:"commit_hash"`
	CommitMessage string       `json:"commit_message"`
	Author        string       `json:"author"`
	Date          string       `json:"date"`
	FilesChanged  []FileChange `json:"files_changed"`

	Intent          Intent           `json:"intent"`
	ImpactMap       ImpactMap        `json:"impact_map"`
	RiskAssessment  RiskAssessment   `json:"risk_assessment"`
	ReviewQuestions []ReviewQuestion `json:"review_questions"`

	AnalysisModel     string `json:"analysis_model"`
	AnalysisTimestamp string `json:"analysis_timestamp"`
	TokensUsed        int64  `json:"tokens_used"`
}

// ShortHash returns the abbreviated commit hash for display.
func (a *SemanticAnalysis) ShortHash() string {
	if len(a.CommitHash) > 8 {
		return a.CommitHash[:8]
	}
	return a.CommitHash
}
