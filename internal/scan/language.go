package scan

import (
	"path"
	"strings"
)

// languageByExtension maps recognized source extensions to the language
// names used by the rule catalogs and analyzers.
var languageByExtension = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".kt":    "kotlin",
	".rb":    "ruby",
	".php":   "php",
	".cs":    "csharp",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".hpp":   "cpp",
	".swift": "swift",
	".scala": "scala",
	".sh":    "shell",
	".bash":  "shell",
	".sql":   "sql",
}

// DetectLanguage returns the language for a path, or "" when the extension
// is not a recognized source language.
func DetectLanguage(p string) string {
	return languageByExtension[strings.ToLower(path.Ext(p))]
}

// IsSourceFile reports whether the path has a recognized source extension.
func IsSourceFile(p string) bool {
	return DetectLanguage(p) != ""
}
