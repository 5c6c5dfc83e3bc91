// Package analyze turns a git commit into a structured semantic analysis by
// prompting Claude and validating its reply.
package analyze

import (
	"fmt"
	"strings"
)

// DefaultDiffBudget is the total character budget for the diff section of a
// prompt. Individual files are truncated in place once the budget runs out.
const DefaultDiffBudget = 15000

const analysisPromptTemplate = `You are a senior code reviewer analyzing a git commit. Your task is to provide semantic analysis that goes beyond what a simple diff shows.

## Commit Information
- **Hash:** %s
- **Message:** %s
- **Author:** %s
- **Date:** %s%s

## Project Context
%s

## Files Changed
%s

## Detailed Diffs
%s

---

Analyze this commit and provide a structured response in the following JSON format:

` + "```json" + `
{
    "intent": {
        "summary": "One sentence describing WHAT the developer was trying to accomplish (not what changed, but WHY)",
        "reasoning": "2-3 sentences explaining your reasoning",
        "confidence": 0.0-1.0
    },
    "impact_map": {
        "direct_impacts": [
            {"area": "affected area", "description": "how it's affected", "severity": "low|medium|high|critical"}
        ],
        "indirect_impacts": [
            {"area": "indirectly affected area", "description": "potential ripple effects", "severity": "low|medium|high|critical"}
        ],
        "affected_components": ["list", "of", "components"]
    },
    "risk_assessment": {
        "overall_risk": "low|medium|high|critical",
        "risks": [
            {
                "description": "specific risk",
                "severity": "low|medium|high|critical",
                "mitigation": "how to mitigate",
                "edge_cases": ["edge case 1", "edge case 2"]
            }
        ],
        "breaking_changes": true/false,
        "requires_migration": true/false
    },
    "review_questions": [
        {
            "question": "Question for the author",
            "context": "Why this question matters",
            "priority": "low|medium|high|critical"
        }
    ]
}
` + "```" + `

Focus on:
1. **Intent**: What problem is being solved? What's the motivation?
2. **Impact**: What else in the system might be affected? Consider imports, API consumers, tests.
3. **Risk**: What could break? What edge cases exist? Is this backwards compatible?
4. **Questions**: What would you ask the author in a code review?

Be specific and actionable. Avoid generic observations.`

// CommitInfo is the commit identity handed to the analyzer by the repository.
type CommitInfo struct {
	Hash      string
	ShortHash string
	Message   string
	Author    string
	Date      string // ISO 8601
	Parents   []string
}

// ProjectContext describes the repository surrounding a commit.
type ProjectContext struct {
	Languages      []string
	PackageManager string
	HasTests       bool
	HasCI          bool
	RootFiles      []string
	Directories    []string
}

// PromptBuilder renders commit data into a single bounded-size prompt string.
// It is pure formatting: it has no side effects and cannot fail.
type PromptBuilder struct {
	diffBudget int
}

// NewPromptBuilder creates a builder with the given diff character budget.
// A non-positive budget selects DefaultDiffBudget.
func NewPromptBuilder(diffBudget int) *PromptBuilder {
	if diffBudget <= 0 {
		diffBudget = DefaultDiffBudget
	}
	return &PromptBuilder{diffBudget: diffBudget}
}

// Build renders the full analysis prompt.
func (b *PromptBuilder) Build(commit CommitInfo, files []FileChange, project ProjectContext) string {
	return fmt.Sprintf(analysisPromptTemplate,
		commit.ShortHash,
		commit.Message,
		commit.Author,
		commit.Date,
		mergeNote(commit),
		formatProjectContext(project),
		formatFilesSummary(files),
		b.formatDiffs(files),
	)
}

// mergeNote flags merge commits, whose diffs combine several lines of work
// and deserve more cautious analysis.
func mergeNote(commit CommitInfo) string {
	if len(commit.Parents) > 1 {
		return fmt.Sprintf("\n- **Merge:** combines %d parents", len(commit.Parents))
	}
	return ""
}

// formatFilesSummary renders one line per changed file.
func formatFilesSummary(files []FileChange) string {
	lines := make([]string, 0, len(files))
	for _, f := range files {
		lang := ""
		if f.Language != "" {
			lang = fmt.Sprintf("[%s]", f.Language)
		}
		lines = append(lines, fmt.Sprintf("- %s (%s) +%d/-%d %s", f.Path, f.ChangeKind, f.Additions, f.Deletions, lang))
	}
	return strings.Join(lines, "\n")
}

const truncationMarker = "\n... (truncated)"

// formatDiffs appends per-file diff blocks until the character budget is
// exhausted. The file that would overflow the budget is truncated in place
// rather than dropped; any files after it are reported as a single omitted
// count. That ordering determines exactly what the model can see, so it must
// not change.
func (b *PromptBuilder) formatDiffs(files []FileChange) string {
	var sb strings.Builder
	total := 0

	for i, f := range files {
		lang := f.Language
		if lang == "" {
			lang = "diff"
		}
		header := fmt.Sprintf("\n### %s (%s)\n```%s\n", f.Path, f.ChangeKind, lang)
		footer := "\n```\n"

		available := b.diffBudget - total - len(header) - len(footer)
		if available <= 0 {
			sb.WriteString(fmt.Sprintf("\n... (%d more files omitted)\n", len(files)-i))
			break
		}

		content := f.Diff
		truncated := false
		if len(content) > available {
			cut := available - len(truncationMarker)
			if cut < 0 {
				cut = 0
			}
			content = content[:cut] + truncationMarker
			truncated = true
		}

		block := header + content + footer
		sb.WriteString(block)
		total += len(block)

		if truncated {
			if remaining := len(files) - i - 1; remaining > 0 {
				sb.WriteString(fmt.Sprintf("\n... (%d more files omitted)\n", remaining))
			}
			break
		}
	}

	return sb.String()
}

// formatProjectContext renders the project context section. Missing values
// render as "unknown" rather than failing.
func formatProjectContext(project ProjectContext) string {
	languages := "unknown"
	if len(project.Languages) > 0 {
		languages = strings.Join(project.Languages, ", ")
	}
	manager := project.PackageManager
	if manager == "" {
		manager = "unknown"
	}

	lines := []string{
		fmt.Sprintf("- **Languages:** %s", languages),
		fmt.Sprintf("- **Package Manager:** %s", manager),
		fmt.Sprintf("- **Has Tests:** %s", yesNo(project.HasTests)),
		fmt.Sprintf("- **Has CI:** %s", yesNo(project.HasCI)),
		fmt.Sprintf("- **Root Files:** %s", strings.Join(capList(project.RootFiles, 10), ", ")),
		fmt.Sprintf("- **Directories:** %s", strings.Join(capList(project.Directories, 10), ", ")),
	}
	return strings.Join(lines, "\n")
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func capList(items []string, max int) []string {
	if len(items) > max {
		return items[:max]
	}
	return items
}
