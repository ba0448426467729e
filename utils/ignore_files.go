package utils

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultIgnorePatterns are excluded from every scan and watch session.
var DefaultIgnorePatterns = []string{
	"node_modules/**",
	".git/**",
	"dist/**",
	"build/**",
	".next/**",
	"target/**",
	"*.log",
	".env*",
	"*.min.js",
	"*.bundle.js",
	"coverage/**",
	".nyc_output/**",
	"vendor/**",
	"bin/**",
	"obj/**",
	".vscode/**",
	".idea/**",
	"*.pyc",
	"__pycache__/**",
	".pytest_cache/**",
	"Cargo.lock",
	"package-lock.json",
	"yarn.lock",
}

// ignoreRule is one parsed gitignore-style pattern.
type ignoreRule struct {
	segments []string
	negate   bool
	dirOnly  bool
}

// IgnoreRules matches slash-separated relative paths against gitignore-style patterns.
type IgnoreRules struct {
	rules []ignoreRule
}

// gitignoreCacheEntry holds cached gitignore patterns with metadata
type gitignoreCacheEntry struct {
	patterns []string
	modTime  time.Time
}

// Global cache for gitignore patterns
var (
	gitignoreCache = make(map[string]*gitignoreCacheEntry)
	cacheMutex     sync.RWMutex
)

// NewIgnoreRules compiles patterns in order; later patterns win.
func NewIgnoreRules(patterns ...[]string) *IgnoreRules {
	rules := &IgnoreRules{}
	for _, group := range patterns {
		for _, pattern := range group {
			if rule, ok := parseIgnoreRule(pattern); ok {
				rules.rules = append(rules.rules, rule)
			}
		}
	}
	return rules
}

// LoadIgnoreRules combines the default patterns with the project's .gitignore.
func LoadIgnoreRules(rootDir string) (*IgnoreRules, error) {
	patterns, err := GetGitignorePatterns(rootDir)
	if err != nil {
		return nil, err
	}
	return NewIgnoreRules(DefaultIgnorePatterns, patterns), nil
}

func parseIgnoreRule(line string) (ignoreRule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return ignoreRule{}, false
	}

	var rule ignoreRule
	if strings.HasPrefix(line, "!") {
		rule.negate = true
		line = line[1:]
	}

	if strings.HasSuffix(line, "/**") {
		rule.dirOnly = true
		line = strings.TrimSuffix(line, "/**")
	}
	if strings.HasSuffix(line, "/") {
		rule.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}

	anchored := false
	if strings.HasPrefix(line, "**/") {
		line = strings.TrimPrefix(line, "**/")
	} else if strings.HasPrefix(line, "/") {
		anchored = true
		line = strings.TrimPrefix(line, "/")
	} else if strings.Contains(line, "/") {
		anchored = true
	}

	if line == "" {
		return ignoreRule{}, false
	}
	rule.segments = strings.Split(line, "/")
	if !anchored {
		rule.segments = append([]string{"**"}, rule.segments...)
	}
	return rule, true
}

// Match reports whether relPath (slash-separated, relative to the root) is ignored.
// A path is also ignored when one of its parent directories is.
func (r *IgnoreRules) Match(relPath string, isDir bool) bool {
	if r == nil {
		return false
	}
	relPath = strings.TrimPrefix(filepath.ToSlash(relPath), "./")
	if relPath == "" || relPath == "." {
		return false
	}

	segments := strings.Split(relPath, "/")
	ignored := false
	for _, rule := range r.rules {
		if rule.matches(segments, isDir) {
			ignored = !rule.negate
		}
	}
	return ignored
}

// matches reports whether the rule matches the path itself or one of its parents.
func (rule ignoreRule) matches(segments []string, isDir bool) bool {
	last := len(segments) - 1
	for end := 1; end <= len(segments); end++ {
		prefixIsDir := end-1 < last || isDir
		if rule.dirOnly && !prefixIsDir {
			continue
		}
		if matchSegments(rule.segments, segments[:end]) {
			return true
		}
	}
	return false
}

// matchSegments matches path segments against pattern segments, where "**"
// absorbs zero or more segments.
func matchSegments(pattern []string, segments []string) bool {
	if len(pattern) == 0 {
		return len(segments) == 0
	}
	if pattern[0] == "**" {
		for skip := 0; skip <= len(segments); skip++ {
			if matchSegments(pattern[1:], segments[skip:]) {
				return true
			}
		}
		return false
	}
	if len(segments) == 0 {
		return false
	}
	if ok, _ := path.Match(pattern[0], segments[0]); !ok {
		return false
	}
	return matchSegments(pattern[1:], segments[1:])
}

// GetGitignorePatterns reads and returns the patterns from the .gitignore file.
// If the file does not exist, it returns an empty pattern list.
func GetGitignorePatterns(rootDir string) ([]string, error) {
	gitignorePath := filepath.Join(rootDir, ".gitignore")

	fileInfo, err := os.Stat(gitignorePath)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error checking .gitignore: %w", err)
	}

	cacheMutex.RLock()
	if cached, exists := gitignoreCache[gitignorePath]; exists {
		if fileInfo.ModTime().Equal(cached.modTime) {
			cacheMutex.RUnlock()
			return cached.patterns, nil
		}
	}
	cacheMutex.RUnlock()

	patterns, err := readGitignore(gitignorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read .gitignore: %w", err)
	}

	cacheMutex.Lock()
	gitignoreCache[gitignorePath] = &gitignoreCacheEntry{
		patterns: patterns,
		modTime:  fileInfo.ModTime(),
	}
	cacheMutex.Unlock()

	return patterns, nil
}

// readGitignore reads the .gitignore file and returns the list of ignore patterns.
func readGitignore(gitignorePath string) ([]string, error) {
	content, err := os.ReadFile(gitignorePath)
	if err != nil {
		return nil, err
	}
	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, nil
}

// ClearGitignoreCache clears all cached gitignore patterns
func ClearGitignoreCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	gitignoreCache = make(map[string]*gitignoreCacheEntry)
}
