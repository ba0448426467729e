package project_scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meysamhadeli/projctx/project_scanner/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFiles creates files (and their parent directories) below root
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for relativePath, content := range files {
		fullPath := filepath.Join(root, filepath.FromSlash(relativePath))
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0644))
	}
}

func sampleProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"package.json": `{"name": "shop-ui", "version": "2.1.0", "dependencies": {"react": "^18.0.0", "axios": "^1.0.0"}, "scripts": {"start": "vite"}}`,
		"src/App.js": `import React, { useState } from 'react';
import axios from "axios";
const util = require('./util');

export function App() { return null; }
`,
		"src/components/Button.jsx": "import React from 'react';\nexport const Button = () => null;\n",
		"src/services/cartService.js": "const api = require('./api');\n",
		"README.md": "---\ntitle: Shop UI\ntags: [web]\n---\n# Shop\n",
		"docs/plain.md": "# No front matter here\n",
		".gitignore":    "secret.txt\n",
		"secret.txt":    "do not scan",
		"debug.log":     "noise",
		"node_modules/react/index.js": "module.exports = {}",
		"assets/logo.png":             "\x89PNG\r\n\x1a\n",
	})
	return root
}

func findFile(snapshot *models.Snapshot, path string) *models.FileEntry {
	for i := range snapshot.Files {
		if snapshot.Files[i].Path == path {
			return &snapshot.Files[i]
		}
	}
	return nil
}

func TestScanProject_SnapshotContents(t *testing.T) {
	root := sampleProject(t)
	scanner := NewProjectScanner()

	snapshot, err := scanner.ScanProject(context.Background(), root, models.ScanOptions{TriggeredBy: "manual"})
	require.NoError(t, err)

	// Manifest detection
	assert.Equal(t, "shop-ui", snapshot.Project.Name)
	assert.Equal(t, "nodejs", snapshot.Project.Type)
	assert.Equal(t, "javascript", snapshot.Project.MainLanguage)
	assert.Equal(t, "react", snapshot.Project.Framework)
	assert.Equal(t, "2.1.0", snapshot.Project.Version)
	assert.Equal(t, []string{"axios", "react"}, snapshot.Project.Dependencies)
	assert.Equal(t, map[string]string{"start": "vite"}, snapshot.Project.Scripts)

	// Ignore rules
	assert.Nil(t, findFile(snapshot, "secret.txt"))
	assert.Nil(t, findFile(snapshot, "debug.log"))
	assert.Nil(t, findFile(snapshot, "node_modules/react/index.js"))
	for _, dir := range snapshot.Directories {
		assert.False(t, strings.HasPrefix(dir.Path, "node_modules"), dir.Path)
	}

	// Import extraction
	app := findFile(snapshot, "src/App.js")
	require.NotNil(t, app)
	assert.Equal(t, []string{"react", "axios", "./util"}, app.Imports)
	assert.True(t, app.IsText)
	assert.Equal(t, "javascript", app.Language)
	assert.NotEmpty(t, app.Preview)

	// Front matter
	readme := findFile(snapshot, "README.md")
	require.NotNil(t, readme)
	assert.Equal(t, "Shop UI", readme.FrontMatter["title"])
	plain := findFile(snapshot, "docs/plain.md")
	require.NotNil(t, plain)
	assert.Nil(t, plain.FrontMatter)

	// Binary files carry no content signals
	logo := findFile(snapshot, "assets/logo.png")
	require.NotNil(t, logo)
	assert.False(t, logo.IsText)
	assert.Empty(t, logo.Preview)

	// Aggregates
	assert.Equal(t, 3, snapshot.CodeAnalysis.Languages["javascript"])
	assert.Equal(t, 2, snapshot.CodeAnalysis.Languages["markdown"])
	assert.Contains(t, snapshot.CodeAnalysis.Frameworks, "React")
	assert.Contains(t, snapshot.CodeAnalysis.Frameworks, "Service-oriented")
	assert.Contains(t, snapshot.CodeAnalysis.Patterns, "Source separation")
	assert.Contains(t, snapshot.CodeAnalysis.Patterns, "Component architecture")
	assert.Contains(t, snapshot.CodeAnalysis.Patterns, "Service layer")

	var important []string
	for _, file := range snapshot.ImportantFiles {
		important = append(important, file.Path)
	}
	assert.Contains(t, important, "package.json")
	assert.Contains(t, important, "README.md")
	assert.Contains(t, important, ".gitignore")

	assert.Equal(t, len(snapshot.Files), snapshot.FileCount())
	assert.Equal(t, "manual", snapshot.TriggeredBy)
	assert.False(t, snapshot.ScannedAt.IsZero())
}

func TestScanProject_Deterministic(t *testing.T) {
	root := sampleProject(t)
	scanner := NewProjectScanner(WithWorkers(4))

	first, err := scanner.ScanProject(context.Background(), root, models.ScanOptions{})
	require.NoError(t, err)
	second, err := scanner.ScanProject(context.Background(), root, models.ScanOptions{})
	require.NoError(t, err)

	assert.Equal(t, first.Project, second.Project)
	assert.Equal(t, first.Files, second.Files)
	assert.Equal(t, first.Directories, second.Directories)
	assert.Equal(t, first.CodeAnalysis, second.CodeAnalysis)
	assert.Equal(t, first.ImportantFiles, second.ImportantFiles)
}

func TestScanProject_MissingRoot(t *testing.T) {
	scanner := NewProjectScanner()

	_, err := scanner.ScanProject(context.Background(), filepath.Join(t.TempDir(), "missing"), models.ScanOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProjectNotFound))
}

func TestScanProject_RootIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := NewProjectScanner().ScanProject(context.Background(), file, models.ScanOptions{})
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestScanProject_EmptyProject(t *testing.T) {
	snapshot, err := NewProjectScanner().ScanProject(context.Background(), t.TempDir(), models.ScanOptions{})
	require.NoError(t, err)

	assert.Empty(t, snapshot.Files)
	assert.Empty(t, snapshot.Directories)
	assert.Equal(t, "unknown", snapshot.Project.Type)
	assert.Equal(t, "1.0.0", snapshot.Project.Version)
}

func TestScanProject_LargeTextFileHasNoPreview(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"big.txt":   strings.Repeat("a", 60*1024),
		"small.txt": strings.Repeat("b", 800),
	})

	snapshot, err := NewProjectScanner().ScanProject(context.Background(), root, models.ScanOptions{})
	require.NoError(t, err)

	big := findFile(snapshot, "big.txt")
	require.NotNil(t, big)
	assert.True(t, big.IsText)
	assert.Empty(t, big.Preview)

	small := findFile(snapshot, "small.txt")
	require.NotNil(t, small)
	assert.Len(t, small.Preview, 500)
}

func TestScanProject_UnreadableFileIsRecorded(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}

	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.go":   "package main\n\nimport \"fmt\"\n",
		"locked.go": "package main\n\nimport \"os\"\n",
	})
	locked := filepath.Join(root, "locked.go")
	require.NoError(t, os.Chmod(locked, 0000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0644) })

	snapshot, err := NewProjectScanner().ScanProject(context.Background(), root, models.ScanOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, snapshot.FileCount())

	entry := findFile(snapshot, "locked.go")
	require.NotNil(t, entry)
	assert.NotEmpty(t, entry.ReadError)
	assert.Empty(t, entry.Preview)
	assert.Empty(t, entry.Imports)
	assert.Equal(t, "go", entry.Language)

	readable := findFile(snapshot, "main.go")
	require.NotNil(t, readable)
	assert.Empty(t, readable.ReadError)
	assert.Equal(t, []string{"fmt"}, readable.Imports)
}

func TestScanProject_CancelledContext(t *testing.T) {
	root := sampleProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProjectScanner().ScanProject(ctx, root, models.ScanOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanProject_UsesAnalysisCache(t *testing.T) {
	root := sampleProject(t)
	cacheManager, err := NewCacheManager(t.TempDir())
	require.NoError(t, err)
	scanner := NewProjectScanner(WithCache(cacheManager))

	first, err := scanner.ScanProject(context.Background(), root, models.ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), cacheManager.LookupStats().Hits)

	second, err := scanner.ScanProject(context.Background(), root, models.ScanOptions{})
	require.NoError(t, err)
	assert.Greater(t, cacheManager.LookupStats().Hits, int64(0))
	assert.Equal(t, first.Files, second.Files)

	// A forced refresh reads every file again
	hits := cacheManager.LookupStats().Hits
	_, err = scanner.ScanProject(context.Background(), root, models.ScanOptions{ForceRefresh: true})
	require.NoError(t, err)
	assert.Equal(t, hits, cacheManager.LookupStats().Hits)
}

func TestExtractChunks(t *testing.T) {
	root := t.TempDir()
	goSource := `package main

import "fmt"

// Greet prints a greeting for every name it receives.
func Greet(names []string) {
	for index, name := range names {
		if name == "" {
			fmt.Println("skipping an empty name at position", index)
			continue
		}
		fmt.Println("hello there,", name, "and welcome back")
	}
}
`
	writeFiles(t, root, map[string]string{
		"main.go":        goSource,
		"guide.md":       strings.Repeat("Documentation line explaining the system.\n", 80),
		"config.json":    `{"a": 1}`,
		"main_test.go":   "package main\n\n" + strings.Repeat("// padding comment for the test file body\n", 10),
		"assets/img.png": "\x89PNG",
	})

	scanner := NewProjectScanner(WithChunking(1500, 200))
	snapshot, err := scanner.ScanProject(context.Background(), root, models.ScanOptions{})
	require.NoError(t, err)

	chunks, err := scanner.ExtractChunks(context.Background(), root, snapshot)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	byFile := map[string][]models.TextChunk{}
	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk.Content)
		assert.NotEmpty(t, chunk.Hash)
		assert.GreaterOrEqual(t, chunk.EndLine, chunk.StartLine)
		byFile[chunk.FilePath] = append(byFile[chunk.FilePath], chunk)
	}

	// Markdown becomes documentation windows
	require.NotEmpty(t, byFile["guide.md"])
	assert.Equal(t, models.ChunkDocumentation, byFile["guide.md"][0].Kind)
	assert.Equal(t, 1, byFile["guide.md"][0].StartLine)
	assert.Greater(t, byFile["guide.md"][1].StartLine, 1)

	// Short content produces no window chunks
	assert.Empty(t, byFile["config.json"])
	assert.Empty(t, byFile["assets/img.png"])

	// Code files gain declaration chunks
	var units []models.ChunkUnit
	for _, chunk := range byFile["main.go"] {
		units = append(units, chunk.Unit)
		assert.Equal(t, models.ChunkCode, chunk.Kind)
	}
	assert.Contains(t, units, models.UnitFunction)

	for _, chunk := range byFile["main_test.go"] {
		assert.Equal(t, models.ChunkTest, chunk.Kind)
	}
}

func TestChunkKindOf(t *testing.T) {
	assert.Equal(t, models.ChunkDocumentation, ChunkKindOf(models.FileEntry{Name: "a.md", Extension: ".md"}))
	assert.Equal(t, models.ChunkConfig, ChunkKindOf(models.FileEntry{Name: "a.json", Extension: ".json"}))
	assert.Equal(t, models.ChunkTest, ChunkKindOf(models.FileEntry{Name: "cart_test.go", Extension: ".go"}))
	assert.Equal(t, models.ChunkCode, ChunkKindOf(models.FileEntry{Name: "cart.go", Extension: ".go"}))
	assert.Equal(t, models.ChunkText, ChunkKindOf(models.FileEntry{Name: "notes.txt", Extension: ".txt"}))
}

func TestShouldIndex(t *testing.T) {
	assert.True(t, ShouldIndex(models.FileEntry{IsText: true, Size: 10, Extension: ".go"}))
	assert.False(t, ShouldIndex(models.FileEntry{IsText: false, Size: 10, Extension: ".png"}))
	assert.False(t, ShouldIndex(models.FileEntry{IsText: true, Size: 600 * 1024, Extension: ".go"}))
	assert.False(t, ShouldIndex(models.FileEntry{IsText: true, Size: 10, Extension: ".lock"}))
	assert.False(t, ShouldIndex(models.FileEntry{IsText: true, Size: 10, Extension: ".go", ReadError: "denied"}))
}

func TestExtractFrontMatter(t *testing.T) {
	assert.Equal(t, "title: x", extractFrontMatter("---\ntitle: x\n---\nbody"))
	assert.Equal(t, "", extractFrontMatter("no front matter"))
	assert.Equal(t, "", extractFrontMatter("---\nunterminated: true\n"))
	assert.Nil(t, parseFrontMatter("::: not yaml"))
	assert.Nil(t, parseFrontMatter(""))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "hé", truncateRunes("héllo", 2))
	assert.Equal(t, "abc", truncateRunes("abc", 10))
}
