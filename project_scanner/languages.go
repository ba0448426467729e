package project_scanner

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// languageByExtension maps lower-case extensions to language tags.
var languageByExtension = map[string]string{
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".py":    "python",
	".rs":    "rust",
	".go":    "go",
	".java":  "java",
	".cpp":   "cpp",
	".cc":    "cpp",
	".c":     "c",
	".h":     "c",
	".hpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".rb":    "ruby",
	".swift": "swift",
	".kt":    "kotlin",
	".scala": "scala",
	".clj":   "clojure",
	".md":    "markdown",
	".mdx":   "markdown",
	".html":  "html",
	".css":   "css",
	".scss":  "scss",
	".sass":  "sass",
	".json":  "json",
	".yml":   "yaml",
	".yaml":  "yaml",
	".toml":  "toml",
	".xml":   "xml",
	".sql":   "sql",
	".sh":    "shell",
	".bash":  "shell",
	".zsh":   "shell",
}

// textExtensions are read as text even when no text/* MIME type is known.
var textExtensions = map[string]bool{
	".js": true, ".jsx": true, ".mjs": true, ".cjs": true, ".ts": true, ".tsx": true,
	".json": true, ".md": true, ".mdx": true, ".txt": true, ".yml": true, ".yaml": true,
	".toml": true, ".py": true, ".rs": true, ".go": true, ".java": true, ".cpp": true,
	".cc": true, ".c": true, ".h": true, ".hpp": true, ".cs": true, ".php": true,
	".rb": true, ".swift": true, ".kt": true, ".scala": true, ".clj": true,
	".html": true, ".css": true, ".scss": true, ".sass": true, ".xml": true,
	".sql": true, ".sh": true, ".bash": true, ".zsh": true, ".env": true,
	".gitignore": true, ".dockerignore": true, ".editorconfig": true, ".mod": true,
	".gradle": true, ".kts": true,
}

// codeExtensions get import extraction and semantic chunking.
var codeExtensions = map[string]bool{
	".js": true, ".jsx": true, ".mjs": true, ".cjs": true, ".ts": true, ".tsx": true,
	".py": true, ".rs": true, ".go": true, ".java": true, ".cpp": true, ".cc": true,
	".c": true, ".h": true, ".hpp": true, ".cs": true, ".php": true, ".rb": true,
	".swift": true, ".kt": true, ".scala": true, ".clj": true,
}

var markdownExtensions = map[string]bool{
	".md":       true,
	".mdx":      true,
	".markdown": true,
}

// importantFileNames are manifests and top-level documents worth highlighting.
var importantFileNames = map[string]bool{
	"package.json":       true,
	"Cargo.toml":         true,
	"pyproject.toml":     true,
	"requirements.txt":   true,
	"setup.py":           true,
	"go.mod":             true,
	"pom.xml":            true,
	"build.gradle":       true,
	"build.gradle.kts":   true,
	"composer.json":      true,
	"Gemfile":            true,
	"Dockerfile":         true,
	"docker-compose.yml": true,
	"Makefile":           true,
	"README.md":          true,
	"CHANGELOG.md":       true,
	"LICENSE":            true,
	".gitignore":         true,
	"tsconfig.json":      true,
	"webpack.config.js":  true,
	"vite.config.js":     true,
	"vite.config.ts":     true,
	"next.config.js":     true,
}

// entryPointNames are conventional program entry points.
var entryPointNames = map[string]bool{
	"index.js":  true,
	"index.ts":  true,
	"main.js":   true,
	"main.ts":   true,
	"app.js":    true,
	"server.js": true,
	"main.py":   true,
	"app.py":    true,
	"main.rs":   true,
	"lib.rs":    true,
	"main.go":   true,
}

// DetectLanguage returns the language tag for a file name, or "unknown".
func DetectLanguage(name string) string {
	if language, ok := languageByExtension[strings.ToLower(filepath.Ext(name))]; ok {
		return language
	}
	return "unknown"
}

// DetectMimeType resolves a MIME type from the extension, then from the
// syntax-highlighting lexer registry, else returns "unknown".
func DetectMimeType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != "" {
		if mimeType := mime.TypeByExtension(ext); mimeType != "" {
			if i := strings.Index(mimeType, ";"); i >= 0 {
				mimeType = mimeType[:i]
			}
			return strings.TrimSpace(mimeType)
		}
	}

	if lexer := lexers.Match(name); lexer != nil {
		if config := lexer.Config(); config != nil && len(config.MimeTypes) > 0 {
			return config.MimeTypes[0]
		}
	}
	return "unknown"
}

// IsTextFile reports whether a file should be treated as text.
func IsTextFile(mimeType string, ext string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	return textExtensions[strings.ToLower(ext)]
}

// IsCodeFile reports whether an extension belongs to a programming language.
func IsCodeFile(ext string) bool {
	return codeExtensions[strings.ToLower(ext)]
}

// IsMarkdownFile reports whether an extension is markdown.
func IsMarkdownFile(ext string) bool {
	return markdownExtensions[strings.ToLower(ext)]
}

// IsImportantFile flags manifests, entry points, dotfiles and config files.
func IsImportantFile(name string) bool {
	if importantFileNames[name] || entryPointNames[name] {
		return true
	}
	return strings.Contains(strings.ToLower(name), "config") || strings.HasPrefix(name, ".")
}
