package gitrepo

import (
	"path/filepath"
	"strings"
)

// languageExtensions maps file extensions to language names for the prompt's
// file summaries and project context.
var languageExtensions = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".jsx":   "javascript",
	".rs":    "rust",
	".go":    "go",
	".java":  "java",
	".rb":    "ruby",
	".php":   "php",
	".c":     "c",
	".cpp":   "cpp",
	".h":     "c",
	".hpp":   "cpp",
	".cs":    "csharp",
	".swift": "swift",
	".kt":    "kotlin",
	".scala": "scala",
	".sql":   "sql",
	".md":    "markdown",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".xml":   "xml",
	".html":  "html",
	".css":   "css",
	".scss":  "scss",
	".sh":    "bash",
	".bash":  "bash",
}

// DetectLanguage maps a file path to a language name, or "" when unknown.
// Renamed paths ("old -> new") are resolved against the new name.
func DetectLanguage(path string) string {
	if idx := strings.Index(path, " -> "); idx >= 0 {
		path = path[idx+4:]
	}
	return languageExtensions[strings.ToLower(filepath.Ext(path))]
}
