package analyze

import "log/slog"

// demotedConfidence is the ceiling applied to intent.confidence when the
// model failed to engage with a load-bearing section. It distinguishes "the
// model skipped the analysis" from "the model merely omitted a number".
const demotedConfidence = 0.3

// Keys whose defaulting triggers confidence demotion. Only section-level keys
// plus intent.summary count; a defaulted leaf like impact_map.direct_impacts
// does not. The asymmetry is deliberate: summary and the risk section are
// load-bearing, list sub-fields are not.
var demotionKeys = map[string]bool{
	"intent":          true,
	"intent.summary":  true,
	"risk_assessment": true,
}

// NormalizePayload fills every field the assembler requires with its
// documented default when absent, returning the payload and the list of
// defaulted field paths. It mutates the payload in place, never raises, and
// leaves complete payloads untouched. Value legality (severity tokens,
// confidence range) is the assembler's concern, not this stage's.
func NormalizePayload(payload map[string]any, logger *slog.Logger) (map[string]any, []string) {
	var defaulted []string

	mark := func(path string) {
		defaulted = append(defaulted, path)
	}

	intent := sectionMap(payload, "intent", mark)
	if _, ok := intent["summary"]; !ok {
		intent["summary"] = "Unable to determine intent"
		mark("intent.summary")
	}
	if _, ok := intent["reasoning"]; !ok {
		intent["reasoning"] = "Analysis incomplete"
		mark("intent.reasoning")
	}
	if _, ok := intent["confidence"]; !ok {
		intent["confidence"] = 0.5
		mark("intent.confidence")
	}

	impactMap := sectionMap(payload, "impact_map", mark)
	for _, key := range []string{"direct_impacts", "indirect_impacts", "affected_components"} {
		if _, ok := impactMap[key]; !ok {
			impactMap[key] = []any{}
			mark("impact_map." + key)
		}
	}

	riskAssessment := sectionMap(payload, "risk_assessment", mark)
	if _, ok := riskAssessment["overall_risk"]; !ok {
		riskAssessment["overall_risk"] = "medium"
		mark("risk_assessment.overall_risk")
	}
	if _, ok := riskAssessment["risks"]; !ok {
		riskAssessment["risks"] = []any{}
		mark("risk_assessment.risks")
	}
	for _, key := range []string{"breaking_changes", "requires_migration"} {
		if _, ok := riskAssessment[key]; !ok {
			riskAssessment[key] = false
			mark("risk_assessment." + key)
		}
	}

	if _, ok := payload["review_questions"]; !ok {
		payload["review_questions"] = []any{}
		mark("review_questions")
	}

	demoted := false
	for _, path := range defaulted {
		if demotionKeys[path] {
			demoted = true
			break
		}
	}
	// Clamp only numeric values; a non-numeric confidence is a schema
	// violation the assembler reports, and replacing it here would hide that.
	if demoted {
		if conf, ok := intent["confidence"].(float64); ok && conf > demotedConfidence {
			intent["confidence"] = demotedConfidence
		}
	}

	if len(defaulted) > 0 && logger != nil {
		logger.Warn("model response was incomplete, applied defaults",
			"defaulted_fields", defaulted,
			"confidence_demoted", demoted,
		)
	}

	return payload, defaulted
}

// sectionMap returns payload[key] as an object, creating an empty one (and
// recording the default) when the key is absent or not an object.
func sectionMap(payload map[string]any, key string, mark func(string)) map[string]any {
	if m, ok := payload[key].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	payload[key] = m
	mark(key)
	return m
}
