package gitrepo

import (
	"fmt"
	"strings"
	"testing"

	"github.com/semdiff/semdiff/analyze"
)

const modifiedPatch = `diff --git a/main.go b/main.go
index 1111111..2222222 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@
 package main

+import "fmt"
 func main() {}
`

const addedPatch = `diff --git a/new.py b/new.py
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/new.py
@@ -0,0 +1,2 @@
+print("hi")
+print("bye")
`

const deletedPatch = `diff --git a/old.txt b/old.txt
deleted file mode 100644
index abc1234..0000000
--- a/old.txt
+++ /dev/null
@@ -1 +0,0 @@
-gone
`

const renamedPatch = `diff --git a/a.go b/b.go
similarity index 100%
rename from a.go
rename to b.go
`

const binaryPatch = `diff --git a/logo.png b/logo.png
new file mode 100644
index 0000000..abc1234
Binary files /dev/null and b/logo.png differ
`

func TestParsePatchModified(t *testing.T) {
	changes, err := ParsePatch(modifiedPatch)
	if err != nil {
		t.Fatalf("ParsePatch() error = %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("len(changes) = %d, want 1", len(changes))
	}

	got := changes[0]
	if got.Path != "main.go" || got.ChangeKind != "modified" {
		t.Errorf("change = %s (%s), want main.go (modified)", got.Path, got.ChangeKind)
	}
	if got.Additions != 1 || got.Deletions != 0 {
		t.Errorf("counts = +%d/-%d, want +1/-0", got.Additions, got.Deletions)
	}
	if got.Language != "go" {
		t.Errorf("Language = %q, want go", got.Language)
	}
	if !strings.Contains(got.Diff, "@@ -1,3 +1,4 @@") {
		t.Errorf("diff lost hunk header:\n%s", got.Diff)
	}
	if !strings.Contains(got.Diff, `+import "fmt"`) {
		t.Errorf("diff lost added line:\n%s", got.Diff)
	}
}

func TestParsePatchKinds(t *testing.T) {
	tests := []struct {
		name          string
		patch         string
		wantPath      string
		wantKind      string
		wantAdditions int
		wantDeletions int
		wantDiff      string
	}{
		{"added", addedPatch, "new.py", "added", 2, 0, "+print"},
		{"deleted", deletedPatch, "old.txt", "deleted", 0, 1, "-gone"},
		{"renamed", renamedPatch, "a.go -> b.go", "renamed", 0, 0, ""},
		{"binary", binaryPatch, "logo.png", "added", 0, 0, "[binary file]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes, err := ParsePatch(tt.patch)
			if err != nil {
				t.Fatalf("ParsePatch() error = %v", err)
			}
			if len(changes) != 1 {
				t.Fatalf("len(changes) = %d, want 1", len(changes))
			}
			got := changes[0]
			if got.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", got.Path, tt.wantPath)
			}
			if got.ChangeKind != tt.wantKind {
				t.Errorf("ChangeKind = %q, want %q", got.ChangeKind, tt.wantKind)
			}
			if got.Additions != tt.wantAdditions || got.Deletions != tt.wantDeletions {
				t.Errorf("counts = +%d/-%d, want +%d/-%d",
					got.Additions, got.Deletions, tt.wantAdditions, tt.wantDeletions)
			}
			if tt.wantDiff != "" && !strings.Contains(got.Diff, tt.wantDiff) {
				t.Errorf("Diff = %q, want to contain %q", got.Diff, tt.wantDiff)
			}
		})
	}
}

func TestParsePatchMultipleFilesKeepOrder(t *testing.T) {
	changes, err := ParsePatch(modifiedPatch + addedPatch + deletedPatch)
	if err != nil {
		t.Fatalf("ParsePatch() error = %v", err)
	}
	want := []string{"main.go", "new.py", "old.txt"}
	if len(changes) != len(want) {
		t.Fatalf("len(changes) = %d, want %d", len(changes), len(want))
	}
	for i, path := range want {
		if changes[i].Path != path {
			t.Errorf("changes[%d].Path = %q, want %q", i, changes[i].Path, path)
		}
	}
}

func TestParsePatchEmpty(t *testing.T) {
	changes, err := ParsePatch("")
	if err != nil {
		t.Fatalf("ParsePatch() error = %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("len(changes) = %d, want 0", len(changes))
	}
}

func TestParsePatchCapsOversizedDiff(t *testing.T) {
	const lines = 400
	var sb strings.Builder
	sb.WriteString("diff --git a/big.txt b/big.txt\n")
	sb.WriteString("new file mode 100644\n")
	sb.WriteString("index 0000000..abc1234\n")
	sb.WriteString("--- /dev/null\n")
	sb.WriteString("+++ b/big.txt\n")
	sb.WriteString(fmt.Sprintf("@@ -0,0 +1,%d @@\n", lines))
	for i := 0; i < lines; i++ {
		sb.WriteString("+" + strings.Repeat("x", 30) + "\n")
	}

	changes, err := ParsePatch(sb.String())
	if err != nil {
		t.Fatalf("ParsePatch() error = %v", err)
	}
	got := changes[0]
	if got.Additions != lines {
		t.Errorf("Additions = %d, want %d", got.Additions, lines)
	}
	if len(got.Diff) != analyze.MaxDiffBytes {
		t.Errorf("len(Diff) = %d, want capped at %d", len(got.Diff), analyze.MaxDiffBytes)
	}
}

func TestBuildProjectContext(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  analyze.ProjectContext
	}{
		{
			name:  "go project",
			paths: []string{"go.mod", "main.go", "internal/server/server.go", "internal/server/server_test.go", ".github/workflows/ci.yml"},
			want: analyze.ProjectContext{
				Languages:      []string{"go", "yaml"},
				PackageManager: "go",
				HasTests:       true,
				HasCI:          true,
				RootFiles:      []string{"go.mod", "main.go"},
				Directories:    []string{"internal", ".github"},
			},
		},
		{
			name:  "python project",
			paths: []string{"pyproject.toml", "src/app.py", "tests/test_app.py"},
			want: analyze.ProjectContext{
				Languages:      []string{"toml", "python"},
				PackageManager: "pip",
				HasTests:       true,
				RootFiles:      []string{"pyproject.toml"},
				Directories:    []string{"src", "tests"},
			},
		},
		{
			name:  "empty",
			paths: []string{""},
			want:  analyze.ProjectContext{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildProjectContext(tt.paths)
			if !slicesEqual(got.Languages, tt.want.Languages) {
				t.Errorf("Languages = %v, want %v", got.Languages, tt.want.Languages)
			}
			if got.PackageManager != tt.want.PackageManager {
				t.Errorf("PackageManager = %q, want %q", got.PackageManager, tt.want.PackageManager)
			}
			if got.HasTests != tt.want.HasTests || got.HasCI != tt.want.HasCI {
				t.Errorf("HasTests/HasCI = %v/%v, want %v/%v",
					got.HasTests, got.HasCI, tt.want.HasTests, tt.want.HasCI)
			}
			if !slicesEqual(got.RootFiles, tt.want.RootFiles) {
				t.Errorf("RootFiles = %v, want %v", got.RootFiles, tt.want.RootFiles)
			}
			if !slicesEqual(got.Directories, tt.want.Directories) {
				t.Errorf("Directories = %v, want %v", got.Directories, tt.want.Directories)
			}
		})
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"src/app.PY", "python"},
		{"component.tsx", "typescript"},
		{"old_name.go -> new_name.rs", "rust"},
		{"Makefile", ""},
		{"noext", ""},
	}
	for _, tt := range tests {
		if got := DetectLanguage(tt.path); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
