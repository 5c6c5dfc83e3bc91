package analyze

import (
	"fmt"
	"time"
)

// assemble maps a normalized payload plus the original commit inputs into the
// fully populated aggregate. The normalizer guarantees every required key is
// present; this stage enforces value legality and fails on schema violations
// rather than coercing them.
func assemble(commit CommitInfo, files []FileChange, payload map[string]any, model string, usage TokenUsage) (*SemanticAnalysis, error) {
	intent, err := assembleIntent(payload["intent"].(map[string]any))
	if err != nil {
		return nil, err
	}

	impactMap, err := assembleImpactMap(payload["impact_map"].(map[string]any))
	if err != nil {
		return nil, err
	}

	riskAssessment, err := assembleRiskAssessment(payload["risk_assessment"].(map[string]any))
	if err != nil {
		return nil, err
	}

	questions, err := assembleReviewQuestions(payload["review_questions"])
	if err != nil {
		return nil, err
	}

	if files == nil {
		files = []FileChange{}
	}

	return &SemanticAnalysis{
		CommitHash:        commit.Hash,
		CommitMessage:     commit.Message,
		Author:            commit.Author,
		Date:              commit.Date,
		FilesChanged:      files,
		Intent:            intent,
		ImpactMap:         impactMap,
		RiskAssessment:    riskAssessment,
		ReviewQuestions:   questions,
		AnalysisModel:     model,
		AnalysisTimestamp: time.Now().Format(time.RFC3339),
		TokensUsed:        usage.Total(),
	}, nil
}

func assembleIntent(section map[string]any) (Intent, error) {
	confidence, ok := section["confidence"].(float64)
	if !ok {
		return Intent{}, &SchemaError{Field: "intent.confidence", Value: fmt.Sprintf("%v", section["confidence"])}
	}
	return NewIntent(stringField(section, "summary"), stringField(section, "reasoning"), confidence)
}

func assembleImpactMap(section map[string]any) (ImpactMap, error) {
	direct, err := assembleImpacts(section["direct_impacts"], "impact_map.direct_impacts")
	if err != nil {
		return ImpactMap{}, err
	}
	indirect, err := assembleImpacts(section["indirect_impacts"], "impact_map.indirect_impacts")
	if err != nil {
		return ImpactMap{}, err
	}
	return ImpactMap{
		DirectImpacts:      direct,
		IndirectImpacts:    indirect,
		AffectedComponents: stringList(section["affected_components"]),
	}, nil
}

func assembleImpacts(value any, field string) ([]Impact, error) {
	items, _ := value.([]any)
	impacts := make([]Impact, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		severity, err := ParseSeverity(field+".severity", stringField(m, "severity"))
		if err != nil {
			return nil, err
		}
		impacts = append(impacts, Impact{
			Area:        stringField(m, "area"),
			Description: stringField(m, "description"),
			Severity:    severity,
		})
	}
	return impacts, nil
}

func assembleRiskAssessment(section map[string]any) (RiskAssessment, error) {
	overall, err := ParseSeverity("risk_assessment.overall_risk", stringField(section, "overall_risk"))
	if err != nil {
		return RiskAssessment{}, err
	}

	items, _ := section["risks"].([]any)
	risks := make([]Risk, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		severity, err := ParseSeverity("risk_assessment.risks.severity", stringField(m, "severity"))
		if err != nil {
			return RiskAssessment{}, err
		}
		risks = append(risks, Risk{
			Description: stringField(m, "description"),
			Severity:    severity,
			Mitigation:  stringField(m, "mitigation"),
			EdgeCases:   stringList(m["edge_cases"]),
		})
	}

	return RiskAssessment{
		OverallRisk:       overall,
		Risks:             risks,
		BreakingChanges:   boolField(section, "breaking_changes"),
		RequiresMigration: boolField(section, "requires_migration"),
	}, nil
}

func assembleReviewQuestions(value any) ([]ReviewQuestion, error) {
	items, _ := value.([]any)
	questions := make([]ReviewQuestion, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		// A question without a priority gets medium; an unknown priority
		// token is still a schema violation.
		priority := SeverityMedium
		if raw, ok := m["priority"]; ok {
			p, err := ParseSeverity("review_questions.priority", fmt.Sprintf("%v", raw))
			if err != nil {
				return nil, err
			}
			priority = p
		}
		questions = append(questions, ReviewQuestion{
			Question: stringField(m, "question"),
			Context:  stringField(m, "context"),
			Priority: priority,
		})
	}
	return questions, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func stringList(value any) []string {
	items, _ := value.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
