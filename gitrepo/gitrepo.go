// Package gitrepo reads commit metadata, file changes, and project context
// from a local git repository. It only ever reads; nothing here mutates the
// work tree or the object database.
package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"golang.org/x/sync/errgroup"

	"github.com/semdiff/semdiff/analyze"
)

// Repository is a handle to a local git repository.
type Repository struct {
	root string
}

// Open resolves the repository containing path. It fails when path is not
// inside a git work tree.
func Open(path string) (*Repository, error) {
	out, err := runGit(path, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %s", path)
	}
	return &Repository{root: strings.TrimSpace(out)}, nil
}

// Root returns the absolute path of the repository's top-level directory.
func (r *Repository) Root() string {
	return r.root
}

// HooksDir returns the absolute path of the repository's hooks directory.
func (r *Repository) HooksDir() (string, error) {
	out, err := runGit(r.root, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", err
	}
	return filepath.Join(strings.TrimSpace(out), "hooks"), nil
}

// Snapshot bundles everything the analyzer needs about one commit.
type Snapshot struct {
	Commit  analyze.CommitInfo
	Files   []analyze.FileChange
	Project analyze.ProjectContext
}

// Snapshot gathers commit info, file changes, and project context. The three
// are independent git invocations, so they run concurrently.
func (r *Repository) Snapshot(ctx context.Context, rev string) (*Snapshot, error) {
	var snap Snapshot

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		commit, err := r.CommitInfo(ctx, rev)
		if err != nil {
			return err
		}
		snap.Commit = commit
		return nil
	})
	g.Go(func() error {
		files, err := r.FileChanges(ctx, rev)
		if err != nil {
			return err
		}
		snap.Files = files
		return nil
	})
	g.Go(func() error {
		project, err := r.ProjectContext(ctx)
		if err != nil {
			return err
		}
		snap.Project = project
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// CommitInfo returns the identity of a commit. rev may be a full or short
// hash, a ref name, or anything else git rev-parse accepts.
func (r *Repository) CommitInfo(ctx context.Context, rev string) (analyze.CommitInfo, error) {
	const format = "%H%x00%an <%ae>%x00%aI%x00%P%x00%B"
	out, err := runGitCtx(ctx, r.root, "show", "-s", "--format="+format, rev)
	if err != nil {
		return analyze.CommitInfo{}, fmt.Errorf("could not find commit %s: %w", rev, err)
	}

	parts := strings.SplitN(out, "\x00", 5)
	if len(parts) != 5 {
		return analyze.CommitInfo{}, fmt.Errorf("unexpected git show output for %s", rev)
	}

	hash := strings.TrimSpace(parts[0])
	short := hash
	if len(short) > 8 {
		short = short[:8]
	}

	var parents []string
	if p := strings.TrimSpace(parts[3]); p != "" {
		parents = strings.Fields(p)
	}

	return analyze.CommitInfo{
		Hash:      hash,
		ShortHash: short,
		Author:    parts[1],
		Date:      parts[2],
		Parents:   parents,
		Message:   strings.TrimSpace(parts[4]),
	}, nil
}

// FileChanges returns one FileChange per file touched by the commit, in the
// order git reports them. Root commits diff against the empty tree.
func (r *Repository) FileChanges(ctx context.Context, rev string) ([]analyze.FileChange, error) {
	patch, err := runGitCtx(ctx, r.root, "show", "--format=", "--patch", "--no-color", rev)
	if err != nil {
		return nil, fmt.Errorf("could not read patch for %s: %w", rev, err)
	}
	return ParsePatch(patch)
}

// ParsePatch converts raw `git show` patch output into FileChanges.
func ParsePatch(patch string) ([]analyze.FileChange, error) {
	parsed, _, err := gitdiff.Parse(strings.NewReader(patch))
	if err != nil {
		return nil, fmt.Errorf("parsing patch: %w", err)
	}

	changes := make([]analyze.FileChange, 0, len(parsed))
	for _, f := range parsed {
		changes = append(changes, toFileChange(f))
	}
	return changes, nil
}

func toFileChange(f *gitdiff.File) analyze.FileChange {
	var kind, path string
	switch {
	case f.IsNew:
		kind = "added"
		path = f.NewName
	case f.IsDelete:
		kind = "deleted"
		path = f.OldName
	case f.IsRename:
		kind = "renamed"
		path = fmt.Sprintf("%s -> %s", f.OldName, f.NewName)
	default:
		kind = "modified"
		path = f.NewName
		if path == "" {
			path = f.OldName
		}
	}

	change := analyze.FileChange{
		Path:       path,
		ChangeKind: kind,
		Language:   DetectLanguage(path),
	}

	if f.IsBinary {
		change.Diff = "[binary file]"
		return change
	}

	var sb strings.Builder
	for _, frag := range f.TextFragments {
		sb.WriteString(hunkHeader(frag))
		for _, line := range frag.Lines {
			switch line.Op {
			case gitdiff.OpAdd:
				change.Additions++
				sb.WriteString("+")
			case gitdiff.OpDelete:
				change.Deletions++
				sb.WriteString("-")
			default:
				sb.WriteString(" ")
			}
			sb.WriteString(line.Line)
		}
	}

	diff := sb.String()
	if len(diff) > analyze.MaxDiffBytes {
		diff = diff[:analyze.MaxDiffBytes]
	}
	change.Diff = diff
	return change
}

func hunkHeader(frag *gitdiff.TextFragment) string {
	old := fmt.Sprintf("-%d", frag.OldPosition)
	if frag.OldLines != 1 {
		old += fmt.Sprintf(",%d", frag.OldLines)
	}
	new := fmt.Sprintf("+%d", frag.NewPosition)
	if frag.NewLines != 1 {
		new += fmt.Sprintf(",%d", frag.NewLines)
	}
	return fmt.Sprintf("@@ %s %s @@\n", old, new)
}

// ProjectContext inspects the tree at HEAD for the surrounding-project facts
// the prompt renders: languages, package manager, tests, CI, top-level
// layout.
func (r *Repository) ProjectContext(ctx context.Context) (analyze.ProjectContext, error) {
	out, err := runGitCtx(ctx, r.root, "ls-tree", "-r", "--name-only", "HEAD")
	if err != nil {
		return analyze.ProjectContext{}, fmt.Errorf("could not list tree: %w", err)
	}
	return BuildProjectContext(strings.Split(strings.TrimSpace(out), "\n")), nil
}

// BuildProjectContext derives project context from a list of repository file
// paths.
func BuildProjectContext(paths []string) analyze.ProjectContext {
	var project analyze.ProjectContext
	seenLangs := make(map[string]bool)
	seenDirs := make(map[string]bool)

	for _, path := range paths {
		if path == "" {
			continue
		}

		if !strings.Contains(path, "/") {
			project.RootFiles = append(project.RootFiles, path)
			switch path {
			case "package.json":
				project.PackageManager = "npm"
			case "requirements.txt", "pyproject.toml":
				project.PackageManager = "pip"
			case "Cargo.toml":
				project.PackageManager = "cargo"
			case "go.mod":
				project.PackageManager = "go"
			}
		} else {
			dir := path[:strings.Index(path, "/")]
			if !seenDirs[dir] {
				seenDirs[dir] = true
				project.Directories = append(project.Directories, dir)
			}
		}

		lower := strings.ToLower(path)
		if strings.Contains(lower, "test") || strings.Contains(lower, "spec") {
			project.HasTests = true
		}
		if strings.Contains(path, ".github/workflows") || strings.Contains(path, ".gitlab-ci") {
			project.HasCI = true
		}

		if lang := DetectLanguage(path); lang != "" && !seenLangs[lang] {
			seenLangs[lang] = true
			project.Languages = append(project.Languages, lang)
		}
	}

	return project
}

func runGit(dir string, args ...string) (string, error) {
	return runGitCtx(context.Background(), dir, args...)
}

func runGitCtx(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", args[0], msg)
	}
	return stdout.String(), nil
}
