package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/semdiff/semdiff/analyze"
)

// MarkdownWriter renders an analysis as a markdown report for file storage.
type MarkdownWriter struct{}

var markdownIcons = map[analyze.Severity]string{
	analyze.SeverityLow:      "✓",
	analyze.SeverityMedium:   "⚠️",
	analyze.SeverityHigh:     "⚡",
	analyze.SeverityCritical: "🔥",
}

func markdownIcon(s analyze.Severity) string {
	if icon, ok := markdownIcons[s]; ok {
		return icon
	}
	return "•"
}

// Render produces the markdown report as a string.
func (m *MarkdownWriter) Render(a *analyze.SemanticAnalysis) string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	add("# Semantic Diff: %s", a.ShortHash())
	add("")
	add("**Commit:** `%s`", a.CommitHash)
	add("**Author:** %s", a.Author)
	add("**Date:** %s", a.Date)
	add("")
	add("> %s", a.CommitMessage)
	add("")

	add("## Files Changed")
	add("")
	add("| File | Change | + | - | Lang |")
	add("|------|--------|---|---|------|")
	for _, f := range a.FilesChanged {
		lang := f.Language
		if lang == "" {
			lang = "-"
		}
		add("| `%s` | %s | %d | %d | %s |", truncate(f.Path, 50), f.ChangeKind, f.Additions, f.Deletions, lang)
	}
	add("")

	add("## Intent")
	add("")
	add("**%s**", a.Intent.Summary)
	add("")
	add("%s", a.Intent.Reasoning)
	add("")
	add("*Confidence: %d%%*", int(a.Intent.Confidence*100))
	add("")

	add("## Impact Map")
	add("")
	if len(a.ImpactMap.DirectImpacts) > 0 {
		add("### Direct Impacts")
		for _, impact := range a.ImpactMap.DirectImpacts {
			add("- %s **%s**: %s", markdownIcon(impact.Severity), impact.Area, impact.Description)
		}
		add("")
	}
	if len(a.ImpactMap.IndirectImpacts) > 0 {
		add("### Indirect Impacts")
		for _, impact := range a.ImpactMap.IndirectImpacts {
			add("- %s **%s**: %s", markdownIcon(impact.Severity), impact.Area, impact.Description)
		}
		add("")
	}
	if len(a.ImpactMap.AffectedComponents) > 0 {
		add("**Affected Components:** %s", strings.Join(a.ImpactMap.AffectedComponents, ", "))
		add("")
	}

	add("## Risk Assessment")
	add("")
	risk := a.RiskAssessment
	add("**Overall Risk:** %s %s", markdownIcon(risk.OverallRisk), strings.ToUpper(string(risk.OverallRisk)))
	add("")
	if risk.BreakingChanges {
		add("🚨 **BREAKING CHANGES DETECTED**")
		add("")
	}
	if risk.RequiresMigration {
		add("📦 **Migration required**")
		add("")
	}
	if len(risk.Risks) > 0 {
		add("### Identified Risks")
		add("")
		for _, item := range risksBySeverity(risk.Risks) {
			add("#### %s [%s] %s", markdownIcon(item.Severity), item.Severity, item.Description)
			if item.Mitigation != "" {
				add("- **Mitigation:** %s", item.Mitigation)
			}
			if len(item.EdgeCases) > 0 {
				add("- **Edge cases:** %s", strings.Join(item.EdgeCases, ", "))
			}
			add("")
		}
	}

	if len(a.ReviewQuestions) > 0 {
		add("## Review Questions")
		add("")
		for i, q := range a.ReviewQuestions {
			add("### %d. %s", i+1, q.Question)
			add("%s %s", markdownIcon(q.Priority), q.Context)
			add("")
		}
	}

	add("---")
	add("*Analysis by %s | %d tokens | %s*", a.AnalysisModel, a.TokensUsed, a.AnalysisTimestamp)

	return strings.Join(lines, "\n")
}

// Save writes the markdown report into dir as <short-hash>_<timestamp>.md,
// creating the directory when needed, and returns the written path.
func (m *MarkdownWriter) Save(a *analyze.SemanticAnalysis, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating reports dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.md", a.ShortHash(), time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(m.Render(a)), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}
