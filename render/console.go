// Package render formats a SemanticAnalysis for terminals and files. The
// analyzer core performs no I/O; everything user-visible comes from here.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/semdiff/semdiff/analyze"
)

// Color palette and section styles.
var (
	colorGreen  = lipgloss.Color("2")
	colorYellow = lipgloss.Color("3")
	colorRed    = lipgloss.Color("1")
	colorCyan   = lipgloss.Color("6")
	colorDim    = lipgloss.Color("8")

	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(colorDim)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	severityStyles = map[analyze.Severity]lipgloss.Style{
		analyze.SeverityLow:      lipgloss.NewStyle().Foreground(colorGreen),
		analyze.SeverityMedium:   lipgloss.NewStyle().Foreground(colorYellow),
		analyze.SeverityHigh:     lipgloss.NewStyle().Foreground(colorRed),
		analyze.SeverityCritical: lipgloss.NewStyle().Foreground(colorRed).Bold(true),
	}
)

var severityIcons = map[analyze.Severity]string{
	analyze.SeverityLow:      "✓",
	analyze.SeverityMedium:   "⚠",
	analyze.SeverityHigh:     "⚡",
	analyze.SeverityCritical: "🔥",
}

func severityStyle(s analyze.Severity) lipgloss.Style {
	if style, ok := severityStyles[s]; ok {
		return style
	}
	return lipgloss.NewStyle()
}

func severityIcon(s analyze.Severity) string {
	if icon, ok := severityIcons[s]; ok {
		return icon
	}
	return "•"
}

// ConsoleRenderer writes a styled analysis report to a terminal.
type ConsoleRenderer struct {
	// Brief limits output to intent, overall risk, and top questions.
	Brief bool
}

// Render writes the full report.
func (r *ConsoleRenderer) Render(w io.Writer, a *analyze.SemanticAnalysis) {
	fmt.Fprintln(w)
	r.renderHeader(w, a)
	if !r.Brief {
		r.renderFiles(w, a)
	}
	r.renderIntent(w, a)
	if !r.Brief {
		r.renderImpactMap(w, a)
	}
	r.renderRisk(w, a)
	r.renderQuestions(w, a)
	r.renderFooter(w, a)
}

func (r *ConsoleRenderer) renderHeader(w io.Writer, a *analyze.SemanticAnalysis) {
	body := fmt.Sprintf("%s\n\n%s\n%s",
		titleStyle.Render(firstLine(a.CommitMessage)),
		dimStyle.Render(fmt.Sprintf("%s by %s", a.ShortHash(), a.Author)),
		dimStyle.Render(a.Date),
	)
	fmt.Fprintln(w, panelStyle.Render("Semantic Diff Analysis\n\n"+body))
}

func (r *ConsoleRenderer) renderFiles(w io.Writer, a *analyze.SemanticAnalysis) {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Files Changed"))
	sb.WriteString("\n")

	shown := a.FilesChanged
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for _, f := range shown {
		lang := f.Language
		if lang == "" {
			lang = "-"
		}
		sb.WriteString(fmt.Sprintf("  %-50s %-9s %s %s  %s\n",
			truncate(f.Path, 50),
			f.ChangeKind,
			lipgloss.NewStyle().Foreground(colorGreen).Render(fmt.Sprintf("+%d", f.Additions)),
			lipgloss.NewStyle().Foreground(colorRed).Render(fmt.Sprintf("-%d", f.Deletions)),
			dimStyle.Render(lang),
		))
	}
	if extra := len(a.FilesChanged) - len(shown); extra > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  ... and %d more\n", extra)))
	}
	fmt.Fprintln(w, sb.String())
}

func (r *ConsoleRenderer) renderIntent(w io.Writer, a *analyze.SemanticAnalysis) {
	filled := int(a.Intent.Confidence * 10)
	if filled > 10 {
		filled = 10
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)

	body := fmt.Sprintf("%s\n\n%s\n\n%s",
		titleStyle.Render(a.Intent.Summary),
		a.Intent.Reasoning,
		dimStyle.Render(fmt.Sprintf("Confidence: [%s] %.0f%%", bar, a.Intent.Confidence*100)),
	)
	fmt.Fprintln(w, panelStyle.BorderForeground(colorGreen).Render("Intent\n\n"+body))
}

func (r *ConsoleRenderer) renderImpactMap(w io.Writer, a *analyze.SemanticAnalysis) {
	m := a.ImpactMap
	if len(m.DirectImpacts) == 0 && len(m.IndirectImpacts) == 0 && len(m.AffectedComponents) == 0 {
		return
	}

	var sb strings.Builder
	writeImpacts := func(label string, impacts []analyze.Impact) {
		if len(impacts) == 0 {
			return
		}
		sb.WriteString(titleStyle.Render(label))
		sb.WriteString("\n")
		for _, impact := range impacts {
			sb.WriteString(fmt.Sprintf("  %s %s: %s\n",
				severityStyle(impact.Severity).Render(severityIcon(impact.Severity)),
				titleStyle.Render(impact.Area),
				impact.Description,
			))
		}
		sb.WriteString("\n")
	}
	writeImpacts("Direct Impacts:", m.DirectImpacts)
	writeImpacts("Indirect Impacts:", m.IndirectImpacts)

	if len(m.AffectedComponents) > 0 {
		sb.WriteString(titleStyle.Render("Affected Components: "))
		sb.WriteString(strings.Join(m.AffectedComponents, ", "))
	}

	fmt.Fprintln(w, panelStyle.BorderForeground(colorYellow).Render("Impact Map\n\n"+strings.TrimRight(sb.String(), "\n")))
}

func (r *ConsoleRenderer) renderRisk(w io.Writer, a *analyze.SemanticAnalysis) {
	risk := a.RiskAssessment
	style := severityStyle(risk.OverallRisk)

	var sb strings.Builder
	sb.WriteString(style.Bold(true).Render(fmt.Sprintf("Overall Risk: %s %s",
		severityIcon(risk.OverallRisk),
		strings.ToUpper(string(risk.OverallRisk)),
	)))
	sb.WriteString("\n")

	if risk.BreakingChanges {
		sb.WriteString(lipgloss.NewStyle().Foreground(colorRed).Bold(true).Render("BREAKING CHANGES DETECTED"))
		sb.WriteString("\n")
	}
	if risk.RequiresMigration {
		sb.WriteString(lipgloss.NewStyle().Foreground(colorYellow).Bold(true).Render("Migration required"))
		sb.WriteString("\n")
	}

	if !r.Brief && len(risk.Risks) > 0 {
		sb.WriteString("\n")
		sb.WriteString(titleStyle.Render("Identified Risks:"))
		sb.WriteString("\n")
		for _, item := range risksBySeverity(risk.Risks) {
			sb.WriteString(fmt.Sprintf("  %s %s %s\n",
				severityStyle(item.Severity).Render(severityIcon(item.Severity)),
				severityStyle(item.Severity).Bold(true).Render(fmt.Sprintf("[%s]", item.Severity)),
				item.Description,
			))
			if item.Mitigation != "" {
				sb.WriteString(dimStyle.Render(fmt.Sprintf("     Mitigation: %s\n", item.Mitigation)))
			}
			if len(item.EdgeCases) > 0 {
				sb.WriteString(dimStyle.Render(fmt.Sprintf("     Edge cases: %s\n", strings.Join(item.EdgeCases, ", "))))
			}
		}
	}

	fmt.Fprintln(w, panelStyle.BorderForeground(style.GetForeground()).Render("Risk Assessment\n\n"+strings.TrimRight(sb.String(), "\n")))
}

func (r *ConsoleRenderer) renderQuestions(w io.Writer, a *analyze.SemanticAnalysis) {
	questions := a.ReviewQuestions
	if len(questions) == 0 {
		return
	}
	if r.Brief && len(questions) > 3 {
		questions = questions[:3]
	}

	var sb strings.Builder
	for i, q := range questions {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, titleStyle.Render(q.Question)))
		sb.WriteString(fmt.Sprintf("   %s %s\n",
			severityStyle(q.Priority).Render(severityIcon(q.Priority)),
			dimStyle.Render(q.Context),
		))
	}
	fmt.Fprintln(w, panelStyle.BorderForeground(colorCyan).Render("Review Questions\n\n"+strings.TrimRight(sb.String(), "\n")))
}

func (r *ConsoleRenderer) renderFooter(w io.Writer, a *analyze.SemanticAnalysis) {
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("Analysis by %s | %d tokens | %s",
		a.AnalysisModel, a.TokensUsed, a.AnalysisTimestamp)))
	fmt.Fprintln(w)
}

// risksBySeverity orders risks most severe first, keeping the model's order
// within a level.
func risksBySeverity(risks []analyze.Risk) []analyze.Risk {
	sorted := make([]analyze.Risk, len(risks))
	copy(sorted, risks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return analyze.SeverityRank(sorted[i].Severity) > analyze.SeverityRank(sorted[j].Severity)
	})
	return sorted
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
