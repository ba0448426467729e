package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoreRules_Defaults(t *testing.T) {
	rules := NewIgnoreRules(DefaultIgnorePatterns)

	cases := []struct {
		path    string
		isDir   bool
		ignored bool
	}{
		{"node_modules", true, true},
		{"node_modules/react/index.js", false, true},
		{"packages/web/node_modules/lib.js", false, true},
		{".git", true, true},
		{"debug.log", false, true},
		{"logs/server.log", false, true},
		{".env", false, true},
		{".env.local", false, true},
		{"app.min.js", false, true},
		{"Cargo.lock", false, true},
		{"src/main.go", false, false},
		{"README.md", false, false},
		{".gitignore", false, false},
		{"build.gradle", false, false},
		{"src/build", false, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ignored, rules.Match(tc.path, tc.isDir), tc.path)
	}
}

func TestIgnoreRules_Anchoring(t *testing.T) {
	rules := NewIgnoreRules([]string{"/generated", "docs/*.tmp", "cache/"})

	assert.True(t, rules.Match("generated", true))
	assert.True(t, rules.Match("generated/a.go", false))
	assert.False(t, rules.Match("pkg/generated", true))

	assert.True(t, rules.Match("docs/a.tmp", false))
	assert.False(t, rules.Match("other/docs/a.tmp", false))

	assert.True(t, rules.Match("cache", true))
	assert.True(t, rules.Match("pkg/cache/x", false))
	assert.False(t, rules.Match("cache", false))
}

func TestIgnoreRules_DoubleStar(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		isDir   bool
		ignored bool
	}{
		{"**/generated/cache", "generated/cache", true, true},
		{"**/generated/cache", "a/generated/cache", true, true},
		{"**/generated/cache", "a/generated/cache/x.go", false, true},
		{"**/generated/cache", "a/generated/other", true, false},
		{"**/generated/cache", "cache", true, false},
		{"docs/**/draft.md", "docs/a/b/draft.md", false, true},
		{"docs/**/draft.md", "docs/draft.md", false, true},
		{"docs/**/draft.md", "src/docs/a/draft.md", false, false},
		{"docs/**/draft.md", "docs/a/final.md", false, false},
		{"src/**/*.gen.go", "src/api/v1/types.gen.go", false, true},
		{"**/*.snap", "web/__snapshots__/app.snap", false, true},
	}

	for _, tc := range cases {
		rules := NewIgnoreRules([]string{tc.pattern})
		assert.Equal(t, tc.ignored, rules.Match(tc.path, tc.isDir), "%s vs %s", tc.pattern, tc.path)
	}
}

func TestIgnoreRules_Negation(t *testing.T) {
	rules := NewIgnoreRules([]string{"*.json", "!package.json"})

	assert.True(t, rules.Match("data/items.json", false))
	assert.False(t, rules.Match("package.json", false))
}

func TestIgnoreRules_CommentsAndBlanks(t *testing.T) {
	rules := NewIgnoreRules([]string{"# comment", "", "   ", "**/tmp"})

	assert.True(t, rules.Match("a/b/tmp", true))
	assert.False(t, rules.Match("# comment", false))
}

func TestLoadIgnoreRules_ReadsGitignore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("secret.txt\n# note\nout/\n"), 0644))
	ClearGitignoreCache()

	rules, err := LoadIgnoreRules(root)
	require.NoError(t, err)

	assert.True(t, rules.Match("secret.txt", false))
	assert.True(t, rules.Match("out/report.html", false))
	assert.True(t, rules.Match("node_modules", true))
	assert.False(t, rules.Match("main.go", false))
}

func TestGetGitignorePatterns_Missing(t *testing.T) {
	patterns, err := GetGitignorePatterns(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, patterns)
}

func TestIgnoreRules_NilIsPermissive(t *testing.T) {
	var rules *IgnoreRules
	assert.False(t, rules.Match("anything", false))
}
