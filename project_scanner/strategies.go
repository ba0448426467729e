package project_scanner

import (
	"regexp"
	"sort"
	"strings"

	"github.com/meysamhadeli/projctx/project_scanner/contracts"
	"github.com/meysamhadeli/projctx/project_scanner/models"
)

// languageStrategy bundles the capabilities known for one language.
type languageStrategy struct {
	imports  func(content string) []string
	semantic func(content string) []models.SemanticChunk
}

func (s languageStrategy) ExtractImports(content string) []string {
	if s.imports == nil {
		return nil
	}
	return dedupe(s.imports(content))
}

func (s languageStrategy) ExtractSemanticChunks(content string) []models.SemanticChunk {
	if s.semantic == nil {
		return nil
	}
	return s.semantic(content)
}

var (
	jsImportFrom    = regexp.MustCompile(`(?m)^\s*import\s+(?:type\s+)?[\w*{}\s,$]+?\s+from\s+['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]`)
	jsImportBare    = regexp.MustCompile(`(?m)^\s*import\s+['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]`)
	jsExportFrom    = regexp.MustCompile(`(?m)^\s*export\s+[\w*{}\s,$]+?\s+from\s+['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]`)
	jsRequire       = regexp.MustCompile(`require\(\s*['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]\s*\)`)
	jsDynamicImport = regexp.MustCompile(`import\(\s*['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]\s*\)`)

	pyFromImport = regexp.MustCompile(`(?m)^[ \t]*from[ \t]+([\w.]+)[ \t]+import[ \t]`)
	pyImport     = regexp.MustCompile(`(?m)^[ \t]*import[ \t]+([\w.]+(?:[ \t]+as[ \t]+\w+)?(?:[ \t]*,[ \t]*[\w.]+(?:[ \t]+as[ \t]+\w+)?)*)`)

	goImport      = regexp.MustCompile(`(?ms)^\s*import\s*(?:\((.*?)\)|(?:[\w.]+\s+)?"([^"]+)")`)
	goGroupedPath = regexp.MustCompile(`(?m)^\s*(?:[\w.]+\s+)?"([^"]+)"`)

	rustUse    = regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?use\s+([\w:]+)`)
	rustCrate  = regexp.MustCompile(`(?m)^\s*extern\s+crate\s+(\w+)`)
	jvmImport  = regexp.MustCompile(`(?m)^\s*import\s+(?:static\s+)?(\w+(?:\.\w+)*(?:\.\*)?)`)
	cInclude   = regexp.MustCompile(`(?m)^\s*#\s*include\s*[<"]([^>"]+)[>"]`)
	csUsing    = regexp.MustCompile(`(?m)^\s*using\s+(?:static\s+)?(?:\w+\s*=\s*)?([\w.]+)\s*;`)
	rubyLoad   = regexp.MustCompile(`(?m)^\s*(?:require|require_relative|load)\s*\(?\s*['"]([^'"]+)['"]`)
	phpUse     = regexp.MustCompile(`(?m)^\s*use\s+([\w\\]+)`)
	phpInclude = regexp.MustCompile(`(?:require|include)(?:_once)?\s*\(?\s*['"]([^'"]+)['"]`)
	swiftImprt = regexp.MustCompile(`(?m)^\s*import\s+(\w+)`)
)

// languageStrategies is the capability table consulted by the scanner.
var languageStrategies = map[string]contracts.ILanguageStrategy{
	"javascript": languageStrategy{imports: extractJavaScriptImports, semantic: treeSitterChunks("javascript")},
	"typescript": languageStrategy{imports: extractJavaScriptImports, semantic: treeSitterChunks("typescript")},
	"python":     languageStrategy{imports: extractPythonImports, semantic: treeSitterChunks("python")},
	"go":         languageStrategy{imports: extractGoImports, semantic: treeSitterChunks("go")},
	"java":       languageStrategy{imports: matchAll(jvmImport), semantic: treeSitterChunks("java")},
	"csharp":     languageStrategy{imports: matchAll(csUsing), semantic: treeSitterChunks("csharp")},
	"rust":       languageStrategy{imports: extractRustImports, semantic: extractRustChunks},
	"kotlin":     languageStrategy{imports: matchAll(jvmImport)},
	"scala":      languageStrategy{imports: matchAll(jvmImport)},
	"c":          languageStrategy{imports: matchAll(cInclude)},
	"cpp":        languageStrategy{imports: matchAll(cInclude)},
	"ruby":       languageStrategy{imports: matchAll(rubyLoad)},
	"php":        languageStrategy{imports: matchAll(phpUse, phpInclude)},
	"swift":      languageStrategy{imports: matchAll(swiftImprt)},
}

// StrategyFor returns the strategy for a language tag; unknown languages get
// a strategy that extracts nothing.
func StrategyFor(language string) contracts.ILanguageStrategy {
	if strategy, ok := languageStrategies[language]; ok {
		return strategy
	}
	return languageStrategy{}
}

// positioned is an extracted identifier with its byte offset, used to keep source order.
type positioned struct {
	offset int
	value  string
}

// matchAll returns an extractor collecting the first group of every pattern in source order.
func matchAll(patterns ...*regexp.Regexp) func(string) []string {
	return func(content string) []string {
		var found []positioned
		for _, pattern := range patterns {
			for _, loc := range pattern.FindAllStringSubmatchIndex(content, -1) {
				if len(loc) >= 4 && loc[2] >= 0 {
					found = append(found, positioned{offset: loc[2], value: content[loc[2]:loc[3]]})
				}
			}
		}
		return inSourceOrder(found)
	}
}

func inSourceOrder(found []positioned) []string {
	sort.SliceStable(found, func(i, j int) bool { return found[i].offset < found[j].offset })
	values := make([]string, 0, len(found))
	for _, item := range found {
		values = append(values, item.value)
	}
	return values
}

func extractJavaScriptImports(content string) []string {
	return matchAll(jsImportFrom, jsImportBare, jsExportFrom, jsRequire, jsDynamicImport)(content)
}

func extractPythonImports(content string) []string {
	var found []positioned
	for _, loc := range pyFromImport.FindAllStringSubmatchIndex(content, -1) {
		found = append(found, positioned{offset: loc[2], value: content[loc[2]:loc[3]]})
	}
	for _, loc := range pyImport.FindAllStringSubmatchIndex(content, -1) {
		for i, name := range strings.Split(content[loc[2]:loc[3]], ",") {
			// "numpy as np" -> "numpy"
			if fields := strings.Fields(name); len(fields) > 0 {
				found = append(found, positioned{offset: loc[2] + i, value: fields[0]})
			}
		}
	}
	return inSourceOrder(found)
}

func extractGoImports(content string) []string {
	var imports []string
	for _, match := range goImport.FindAllStringSubmatch(content, -1) {
		if match[2] != "" {
			imports = append(imports, match[2])
			continue
		}
		for _, inner := range goGroupedPath.FindAllStringSubmatch(match[1], -1) {
			imports = append(imports, inner[1])
		}
	}
	return imports
}

func extractRustImports(content string) []string {
	var found []positioned
	for _, loc := range rustUse.FindAllStringSubmatchIndex(content, -1) {
		path := strings.TrimSuffix(content[loc[2]:loc[3]], "::")
		if path != "" {
			found = append(found, positioned{offset: loc[2], value: path})
		}
	}
	for _, loc := range rustCrate.FindAllStringSubmatchIndex(content, -1) {
		found = append(found, positioned{offset: loc[2], value: content[loc[2]:loc[3]]})
	}
	return inSourceOrder(found)
}

var rustItem = regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?(?:unsafe\s+)?(fn|struct|enum|trait|impl|mod)\b\s*(?:<[^>]*>\s*)?(\w*)`)

// extractRustChunks carves top-level Rust items, each running until the next one starts.
func extractRustChunks(content string) []models.SemanticChunk {
	lines := strings.Split(content, "\n")

	type itemStart struct {
		line int
		unit models.ChunkUnit
		name string
	}
	var starts []itemStart
	for i, line := range lines {
		match := rustItem.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		unit := models.UnitType
		switch match[1] {
		case "fn":
			unit = models.UnitFunction
		case "impl":
			unit = models.UnitClass
		}
		starts = append(starts, itemStart{line: i, unit: unit, name: match[2]})
	}

	chunks := make([]models.SemanticChunk, 0, len(starts))
	for i, start := range starts {
		end := len(lines)
		if i+1 < len(starts) {
			end = starts[i+1].line
		}
		body := strings.TrimRight(strings.Join(lines[start.line:end], "\n"), " \t\r\n")
		chunks = append(chunks, models.SemanticChunk{
			Unit:      start.unit,
			Name:      start.name,
			Content:   body,
			StartLine: start.line + 1,
			EndLine:   start.line + strings.Count(body, "\n") + 1,
		})
	}
	return chunks
}

// dedupe keeps the first occurrence of every value.
func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	unique := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		unique = append(unique, value)
	}
	return unique
}
