// Command semdiff analyzes git commits with Claude and reports intent,
// impact, risk, and review questions.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/semdiff/semdiff/analyze"
	"github.com/semdiff/semdiff/config"
	"github.com/semdiff/semdiff/gitrepo"
	"github.com/semdiff/semdiff/render"
)

// Set via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const prePushHook = `#!/bin/bash
# semdiff pre-push hook
# Analyzes commits before pushing to remote

remote="$1"
url="$2"

while read local_ref local_sha remote_ref remote_sha; do
    if [ "$local_sha" = "0000000000000000000000000000000000000000" ]; then
        continue
    fi

    echo "Running semdiff on: $local_sha"
    semdiff analyze "$local_sha" --save

    if [ $? -ne 0 ]; then
        echo "semdiff analysis failed"
        exit 1
    fi
done

exit 0
`

var rootCmd = &cobra.Command{
	Use:   "semdiff [commit]",
	Short: "AI-powered semantic analysis of git commits",
	Long: `semdiff sends a commit's diff and project context to Claude and prints a
structured report: intent, impact map, risk assessment, and review questions.

Examples:
  semdiff HEAD
  semdiff abc123 --save
  semdiff analyze HEAD~2 --json
  semdiff init`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          runAnalyze,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [commit]",
	Short: "Analyze a git commit semantically (default: HEAD)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Install a pre-push hook for automatic analysis",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the pre-push hook",
	Args:  cobra.NoArgs,
	RunE:  runUninstall,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify configuration and API credentials",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("semdiff %s (commit %s, built %s)\n", version, commit, date)
	},
}

func addAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("repo", "r", ".", "path to git repository")
	cmd.Flags().StringP("model", "m", "", "model to use (overrides config and SEMDIFF_MODEL)")
	cmd.Flags().Bool("json", false, "output as JSON")
	cmd.Flags().BoolP("save", "s", false, "save a markdown report")
	cmd.Flags().BoolP("brief", "b", false, "brief output (intent + risk + top questions)")
	cmd.Flags().BoolP("verbose", "v", false, "verbose output")
}

func init() {
	addAnalyzeFlags(rootCmd)
	addAnalyzeFlags(analyzeCmd)
	initCmd.Flags().StringP("repo", "r", ".", "path to git repository")
	initCmd.Flags().BoolP("force", "f", false, "overwrite existing hook")
	uninstallCmd.Flags().StringP("repo", "r", ".", "path to git repository")
	checkCmd.Flags().StringP("repo", "r", ".", "path to git repository")

	rootCmd.AddCommand(analyzeCmd, initCmd, uninstallCmd, checkCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	rev := "HEAD"
	if len(args) > 0 {
		rev = args[0]
	}

	repoPath, _ := cmd.Flags().GetString("repo")
	model, _ := cmd.Flags().GetString("model")
	outputJSON, _ := cmd.Flags().GetBool("json")
	save, _ := cmd.Flags().GetBool("save")
	brief, _ := cmd.Flags().GetBool("brief")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if brief && verbose {
		return fmt.Errorf("--brief and --verbose are mutually exclusive")
	}

	logger := newLogger(verbose)

	repo, err := gitrepo.Open(repoPath)
	if err != nil {
		return err
	}

	cfg, err := config.Load(repo.Root())
	if err != nil {
		return err
	}
	if model != "" {
		cfg.Model = model
	}

	ctx := context.Background()
	snap, err := repo.Snapshot(ctx, rev)
	if err != nil {
		return err
	}
	logger.Debug("gathered commit snapshot",
		"commit", snap.Commit.ShortHash,
		"files", len(snap.Files),
		"languages", strings.Join(snap.Project.Languages, ","),
	)

	if len(snap.Files) == 0 {
		fmt.Fprintln(os.Stderr, "No changes found in this commit.")
		return nil
	}

	analyzer, err := analyze.New(cfg, logger)
	if err != nil {
		return err
	}

	analysis, err := analyzer.Analyze(ctx, snap.Commit, snap.Files, snap.Project)
	if err != nil {
		return err
	}

	if outputJSON {
		if err := render.WriteJSON(os.Stdout, analysis); err != nil {
			return err
		}
	} else {
		renderer := &render.ConsoleRenderer{Brief: brief}
		renderer.Render(os.Stdout, analysis)
	}

	if save {
		writer := &render.MarkdownWriter{}
		path, err := writer.Save(analysis, filepath.Join(repo.Root(), cfg.ReportsDir))
		if err != nil {
			return err
		}
		fmt.Printf("\nReport saved: %s\n", path)
	}

	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	repoPath, _ := cmd.Flags().GetString("repo")
	force, _ := cmd.Flags().GetBool("force")

	repo, err := gitrepo.Open(repoPath)
	if err != nil {
		return err
	}

	hooksDir, err := repo.HooksDir()
	if err != nil {
		return err
	}
	hookPath := filepath.Join(hooksDir, "pre-push")

	if _, err := os.Stat(hookPath); err == nil && !force {
		return fmt.Errorf("hook already exists: %s (use --force to overwrite)", hookPath)
	}

	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(hookPath, []byte(prePushHook), 0o755); err != nil {
		return err
	}

	fmt.Printf("Installed pre-push hook: %s\n", hookPath)
	fmt.Println()
	fmt.Println("semdiff will now run automatically before each push.")
	fmt.Printf("Reports saved to: %s\n", filepath.Join(repo.Root(), config.DefaultReportsDir))
	return nil
}

func runUninstall(cmd *cobra.Command, args []string) error {
	repoPath, _ := cmd.Flags().GetString("repo")

	repo, err := gitrepo.Open(repoPath)
	if err != nil {
		return err
	}

	hooksDir, err := repo.HooksDir()
	if err != nil {
		return err
	}
	hookPath := filepath.Join(hooksDir, "pre-push")

	content, err := os.ReadFile(hookPath)
	if os.IsNotExist(err) {
		fmt.Println("No pre-push hook installed")
		return nil
	}
	if err != nil {
		return err
	}

	if !strings.Contains(string(content), "semdiff") {
		return fmt.Errorf("existing hook is not from semdiff, not removing")
	}

	if err := os.Remove(hookPath); err != nil {
		return err
	}
	fmt.Println("Removed pre-push hook")
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	repoPath, _ := cmd.Flags().GetString("repo")

	root := repoPath
	if repo, err := gitrepo.Open(repoPath); err == nil {
		root = repo.Root()
	}

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	fmt.Printf("Model: %s\n", cfg.Model)
	if cfg.APIKey == "" {
		return analyze.ErrMissingAPIKey
	}

	if err := analyze.ValidateAPIKey(context.Background(), cfg.APIKey); err != nil {
		return err
	}
	fmt.Printf("API key (...%s): OK\n", analyze.KeyHint(cfg.APIKey))
	return nil
}
