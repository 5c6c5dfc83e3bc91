package analyze

import (
	"fmt"
	"strings"
	"testing"
)

func sampleCommit() CommitInfo {
	return CommitInfo{
		Hash:      "a1b2c3d4e5f60718293a4b5c6d7e8f9012345678",
		ShortHash: "a1b2c3d4",
		Message:   "Add retry logic to the API client",
		Author:    "Jordan Doe <jordan@example.com>",
		Date:      "2026-08-30T12:00:00+00:00",
	}
}

func TestBuildIncludesCommitAndContext(t *testing.T) {
	builder := NewPromptBuilder(0)
	files := []FileChange{
		{Path: "client.go", ChangeKind: "modified", Additions: 12, Deletions: 3, Diff: "+retry", Language: "go"},
	}
	project := ProjectContext{
		Languages:      []string{"go"},
		PackageManager: "go modules",
		HasTests:       true,
		RootFiles:      []string{"go.mod", "README.md"},
		Directories:    []string{"cmd", "internal"},
	}

	prompt := builder.Build(sampleCommit(), files, project)

	for _, want := range []string{
		"- **Hash:** a1b2c3d4",
		"- **Message:** Add retry logic to the API client",
		"- **Languages:** go",
		"- **Package Manager:** go modules",
		"- **Has Tests:** Yes",
		"- **Has CI:** No",
		"- client.go (modified) +12/-3 [go]",
		"### client.go (modified)\n```go\n+retry\n```",
		`"overall_risk": "low|medium|high|critical"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildMarksMergeCommits(t *testing.T) {
	builder := NewPromptBuilder(0)

	commit := sampleCommit()
	commit.Parents = []string{"p1", "p2"}
	if got := builder.Build(commit, nil, ProjectContext{}); !strings.Contains(got, "- **Merge:** combines 2 parents") {
		t.Error("merge commit not flagged")
	}

	commit.Parents = []string{"p1"}
	if got := builder.Build(commit, nil, ProjectContext{}); strings.Contains(got, "**Merge:**") {
		t.Error("ordinary commit flagged as merge")
	}
}

func TestBuildUnknownProjectContext(t *testing.T) {
	prompt := NewPromptBuilder(0).Build(sampleCommit(), nil, ProjectContext{})

	if !strings.Contains(prompt, "- **Languages:** unknown") {
		t.Error("missing languages fallback")
	}
	if !strings.Contains(prompt, "- **Package Manager:** unknown") {
		t.Error("missing package manager fallback")
	}
}

func TestFormatDiffsRespectsBudget(t *testing.T) {
	builder := NewPromptBuilder(200)
	files := []FileChange{
		{Path: "big.go", ChangeKind: "modified", Diff: strings.Repeat("x", 10000), Language: "go"},
	}

	out := builder.formatDiffs(files)

	if len(out) > 200 {
		t.Errorf("len(out) = %d, want <= 200", len(out))
	}
	if !strings.Contains(out, truncationMarker) {
		t.Error("oversized diff was not truncated in place")
	}
	if !strings.Contains(out, "### big.go (modified)") {
		t.Error("truncated file lost its header")
	}
}

func TestFormatDiffsOmitsFilesAfterTruncation(t *testing.T) {
	builder := NewPromptBuilder(200)
	files := []FileChange{
		{Path: "big.go", ChangeKind: "modified", Diff: strings.Repeat("x", 10000)},
		{Path: "second.go", ChangeKind: "modified", Diff: "+a"},
		{Path: "third.go", ChangeKind: "added", Diff: "+b"},
	}

	out := builder.formatDiffs(files)

	if !strings.Contains(out, "(2 more files omitted)") {
		t.Errorf("missing omitted count:\n%s", out)
	}
	if strings.Contains(out, "second.go") || strings.Contains(out, "third.go") {
		t.Error("files past the budget must not appear")
	}
}

func TestFormatDiffsSmallFilesAllFit(t *testing.T) {
	builder := NewPromptBuilder(0)
	files := []FileChange{
		{Path: "a.go", ChangeKind: "modified", Diff: "+one", Language: "go"},
		{Path: "b.py", ChangeKind: "added", Diff: "+two", Language: "python"},
	}

	out := builder.formatDiffs(files)

	for _, want := range []string{"### a.go (modified)", "```go\n+one\n```", "### b.py (added)", "```python\n+two\n```"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "omitted") || strings.Contains(out, truncationMarker) {
		t.Errorf("small diffs must render whole:\n%s", out)
	}
}

func TestFormatDiffsUnknownLanguageFallsBackToDiffFence(t *testing.T) {
	out := NewPromptBuilder(0).formatDiffs([]FileChange{
		{Path: "Makefile", ChangeKind: "modified", Diff: "+all:"},
	})
	if !strings.Contains(out, "```diff\n+all:") {
		t.Errorf("missing diff fence fallback:\n%s", out)
	}
}

func TestFormatFilesSummary(t *testing.T) {
	got := formatFilesSummary([]FileChange{
		{Path: "main.go", ChangeKind: "added", Additions: 50, Language: "go"},
		{Path: "old.txt", ChangeKind: "deleted", Deletions: 7},
	})
	want := "- main.go (added) +50/-0 [go]\n- old.txt (deleted) +0/-7 "
	if got != want {
		t.Errorf("formatFilesSummary() = %q, want %q", got, want)
	}
}

func TestFormatProjectContextCapsLists(t *testing.T) {
	var rootFiles []string
	for i := 0; i < 25; i++ {
		rootFiles = append(rootFiles, fmt.Sprintf("file%02d", i))
	}

	out := formatProjectContext(ProjectContext{RootFiles: rootFiles})

	if !strings.Contains(out, "file09") {
		t.Error("first ten root files must render")
	}
	if strings.Contains(out, "file10") {
		t.Error("root files past the cap must not render")
	}
}
