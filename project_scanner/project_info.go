package project_scanner

import (
	"bufio"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/meysamhadeli/projctx/logging"
	"github.com/meysamhadeli/projctx/project_scanner/models"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"
)

const (
	unknownValue   = "unknown"
	defaultVersion = "1.0.0"
)

// manifestProbe recognises one manifest type and fills project info from it.
type manifestProbe struct {
	files []string
	parse func(rootDir string, path string, content []byte, info *models.ProjectInfo) error
}

// manifestProbes are tried in priority order; the first manifest present wins.
var manifestProbes = []manifestProbe{
	{files: []string{"package.json"}, parse: parsePackageJSON},
	{files: []string{"Cargo.toml"}, parse: parseCargoToml},
	{files: []string{"pyproject.toml"}, parse: parsePyproject},
	{files: []string{"requirements.txt", "setup.py"}, parse: parsePythonRequirements},
	{files: []string{"go.mod"}, parse: parseGoMod},
	{files: []string{"pom.xml"}, parse: parsePom},
	{files: []string{"build.gradle", "build.gradle.kts"}, parse: parseGradle},
	{files: []string{"composer.json"}, parse: parseComposer},
	{files: []string{"Gemfile"}, parse: parseGemfile},
}

// DetectProjectInfo identifies the project from its manifest. A manifest that
// fails to parse still decides type and language.
func DetectProjectInfo(rootDir string) models.ProjectInfo {
	info := models.ProjectInfo{
		Name:         filepath.Base(rootDir),
		Path:         rootDir,
		Type:         unknownValue,
		MainLanguage: unknownValue,
		Framework:    unknownValue,
		Version:      defaultVersion,
	}

	for _, probe := range manifestProbes {
		for _, file := range probe.files {
			path := filepath.Join(rootDir, file)
			content, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			if err := probe.parse(rootDir, path, content, &info); err != nil {
				logging.Warn("failed to parse manifest", logging.Path(path), logging.Err(err))
			}
			return info
		}
	}
	return info
}

type packageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Description     string            `json:"description"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Scripts         map[string]string `json:"scripts"`
}

// nodeFrameworks is checked in order; more specific frameworks come first.
var nodeFrameworks = []struct {
	dependency string
	framework  string
}{
	{"next", "nextjs"},
	{"nuxt", "nuxt"},
	{"react", "react"},
	{"vue", "vue"},
	{"@angular/core", "angular"},
	{"svelte", "svelte"},
	{"express", "express"},
}

func parsePackageJSON(rootDir string, _ string, content []byte, info *models.ProjectInfo) error {
	info.Type = "nodejs"
	info.MainLanguage = "javascript"
	if _, err := os.Stat(filepath.Join(rootDir, "tsconfig.json")); err == nil {
		info.MainLanguage = "typescript"
	}

	var manifest packageJSON
	if err := json.Unmarshal(content, &manifest); err != nil {
		return fmt.Errorf("failed to decode package.json: %w", err)
	}

	if manifest.Name != "" {
		info.Name = manifest.Name
	}
	if manifest.Version != "" {
		info.Version = manifest.Version
	}
	info.Description = manifest.Description
	info.Dependencies = sortedKeys(manifest.Dependencies)
	info.Scripts = manifest.Scripts

	for _, candidate := range nodeFrameworks {
		_, inDeps := manifest.Dependencies[candidate.dependency]
		_, inDevDeps := manifest.DevDependencies[candidate.dependency]
		if inDeps || inDevDeps {
			info.Framework = candidate.framework
			break
		}
	}
	return nil
}

type cargoManifest struct {
	Package struct {
		Name        string `toml:"name"`
		Version     string `toml:"version"`
		Description string `toml:"description"`
	} `toml:"package"`
	Dependencies map[string]interface{} `toml:"dependencies"`
}

func parseCargoToml(_ string, _ string, content []byte, info *models.ProjectInfo) error {
	info.Type = "rust"
	info.MainLanguage = "rust"
	info.Framework = "cargo"

	var manifest cargoManifest
	if err := toml.Unmarshal(content, &manifest); err != nil {
		return fmt.Errorf("failed to decode Cargo.toml: %w", err)
	}

	if manifest.Package.Name != "" {
		info.Name = manifest.Package.Name
	}
	if manifest.Package.Version != "" {
		info.Version = manifest.Package.Version
	}
	info.Description = manifest.Package.Description
	info.Dependencies = sortedKeys(manifest.Dependencies)

	for _, dep := range info.Dependencies {
		switch dep {
		case "actix-web", "axum", "rocket", "warp":
			info.Framework = dep
			return nil
		}
	}
	return nil
}

type pyprojectManifest struct {
	Project struct {
		Name         string   `toml:"name"`
		Version      string   `toml:"version"`
		Description  string   `toml:"description"`
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name         string                 `toml:"name"`
			Version      string                 `toml:"version"`
			Description  string                 `toml:"description"`
			Dependencies map[string]interface{} `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

func parsePyproject(_ string, _ string, content []byte, info *models.ProjectInfo) error {
	info.Type = "python"
	info.MainLanguage = "python"

	var manifest pyprojectManifest
	if err := toml.Unmarshal(content, &manifest); err != nil {
		return fmt.Errorf("failed to decode pyproject.toml: %w", err)
	}

	project := manifest.Project
	poetry := manifest.Tool.Poetry
	switch {
	case project.Name != "":
		info.Name = project.Name
		info.Description = project.Description
		if project.Version != "" {
			info.Version = project.Version
		}
		for _, requirement := range project.Dependencies {
			if name := requirementName(requirement); name != "" {
				info.Dependencies = append(info.Dependencies, name)
			}
		}
	case poetry.Name != "":
		info.Name = poetry.Name
		info.Description = poetry.Description
		if poetry.Version != "" {
			info.Version = poetry.Version
		}
		for _, name := range sortedKeys(poetry.Dependencies) {
			if name != "python" {
				info.Dependencies = append(info.Dependencies, name)
			}
		}
	}

	info.Framework = pythonFramework(info.Dependencies, info.Framework)
	return nil
}

func parsePythonRequirements(_ string, path string, content []byte, info *models.ProjectInfo) error {
	info.Type = "python"
	info.MainLanguage = "python"

	if filepath.Base(path) != "requirements.txt" {
		return nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		if name := requirementName(line); name != "" {
			info.Dependencies = append(info.Dependencies, name)
		}
	}
	info.Framework = pythonFramework(info.Dependencies, info.Framework)
	return scanner.Err()
}

var requirementNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*`)

// requirementName extracts "django" from "Django>=4.2; python_version > '3.8'".
func requirementName(requirement string) string {
	return strings.ToLower(requirementNamePattern.FindString(strings.TrimSpace(requirement)))
}

func pythonFramework(dependencies []string, fallback string) string {
	for _, candidate := range []string{"django", "fastapi", "flask"} {
		for _, dep := range dependencies {
			if strings.EqualFold(dep, candidate) {
				return candidate
			}
		}
	}
	return fallback
}

var goFrameworks = map[string]string{
	"github.com/gin-gonic/gin":    "gin",
	"github.com/labstack/echo/v4": "echo",
	"github.com/gofiber/fiber/v2": "fiber",
	"github.com/go-chi/chi/v5":    "chi",
	"github.com/gorilla/mux":      "gorilla",
	"github.com/spf13/cobra":      "cobra",
}

func parseGoMod(_ string, path string, content []byte, info *models.ProjectInfo) error {
	info.Type = "go"
	info.MainLanguage = "go"

	file, err := modfile.ParseLax(path, content, nil)
	if err != nil {
		return fmt.Errorf("failed to parse go.mod: %w", err)
	}

	if file.Module != nil && file.Module.Mod.Path != "" {
		info.Name = file.Module.Mod.Path
	}
	if file.Go != nil {
		info.Version = file.Go.Version
	}

	for _, require := range file.Require {
		if require.Indirect {
			continue
		}
		info.Dependencies = append(info.Dependencies, require.Mod.Path)
		if framework, ok := goFrameworks[require.Mod.Path]; ok && info.Framework == unknownValue {
			info.Framework = framework
		}
	}
	return nil
}

type pomManifest struct {
	GroupID      string `xml:"groupId"`
	ArtifactID   string `xml:"artifactId"`
	Version      string `xml:"version"`
	Description  string `xml:"description"`
	Dependencies []struct {
		GroupID    string `xml:"groupId"`
		ArtifactID string `xml:"artifactId"`
	} `xml:"dependencies>dependency"`
}

func parsePom(_ string, _ string, content []byte, info *models.ProjectInfo) error {
	info.Type = "java"
	info.MainLanguage = "java"
	info.Framework = "maven"

	var manifest pomManifest
	if err := xml.Unmarshal(content, &manifest); err != nil {
		return fmt.Errorf("failed to decode pom.xml: %w", err)
	}

	if manifest.ArtifactID != "" {
		info.Name = manifest.ArtifactID
	}
	if manifest.Version != "" {
		info.Version = manifest.Version
	}
	info.Description = manifest.Description

	for _, dep := range manifest.Dependencies {
		info.Dependencies = append(info.Dependencies, dep.GroupID+":"+dep.ArtifactID)
		if strings.HasPrefix(dep.GroupID, "org.springframework") {
			info.Framework = "spring"
		}
	}
	return nil
}

var gradleDependency = regexp.MustCompile(`(?m)^\s*(?:implementation|api|compileOnly|runtimeOnly|testImplementation)\s*\(?\s*['"]([^'":]+:[^'":]+)`)

func parseGradle(_ string, path string, content []byte, info *models.ProjectInfo) error {
	info.Type = "java"
	info.MainLanguage = "java"
	info.Framework = "gradle"
	if strings.HasSuffix(path, ".kts") {
		info.MainLanguage = "kotlin"
	}

	for _, match := range gradleDependency.FindAllStringSubmatch(string(content), -1) {
		info.Dependencies = append(info.Dependencies, match[1])
		if strings.HasPrefix(match[1], "org.springframework") {
			info.Framework = "spring"
		}
	}
	return nil
}

type composerManifest struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Require     map[string]string `json:"require"`
}

func parseComposer(_ string, _ string, content []byte, info *models.ProjectInfo) error {
	info.Type = "php"
	info.MainLanguage = "php"
	info.Framework = "composer"

	var manifest composerManifest
	if err := json.Unmarshal(content, &manifest); err != nil {
		return fmt.Errorf("failed to decode composer.json: %w", err)
	}

	if manifest.Name != "" {
		info.Name = manifest.Name
	}
	if manifest.Version != "" {
		info.Version = manifest.Version
	}
	info.Description = manifest.Description
	info.Dependencies = sortedKeys(manifest.Require)

	if _, ok := manifest.Require["laravel/framework"]; ok {
		info.Framework = "laravel"
	} else if _, ok := manifest.Require["symfony/framework-bundle"]; ok {
		info.Framework = "symfony"
	}
	return nil
}

var gemDependency = regexp.MustCompile(`(?m)^\s*gem\s+['"]([^'"]+)['"]`)

func parseGemfile(_ string, _ string, content []byte, info *models.ProjectInfo) error {
	info.Type = "ruby"
	info.MainLanguage = "ruby"
	info.Framework = "bundler"

	for _, match := range gemDependency.FindAllStringSubmatch(string(content), -1) {
		info.Dependencies = append(info.Dependencies, match[1])
		if match[1] == "rails" {
			info.Framework = "rails"
		}
	}
	return nil
}

func sortedKeys[V any](values map[string]V) []string {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
