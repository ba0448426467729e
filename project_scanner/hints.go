package project_scanner

import (
	"sort"
	"strings"

	"github.com/meysamhadeli/projctx/project_scanner/models"
)

// importFrameworks maps import substrings to framework names.
var importFrameworks = []struct {
	needle    string
	framework string
}{
	{"react", "React"},
	{"vue", "Vue"},
	{"angular", "Angular"},
	{"express", "Express"},
	{"fastapi", "FastAPI"},
	{"django", "Django"},
	{"flask", "Flask"},
	{"next", "Next.js"},
	{"svelte", "Svelte"},
	{"gin-gonic/gin", "Gin"},
	{"labstack/echo", "Echo"},
	{"gofiber/fiber", "Fiber"},
	{"springframework", "Spring"},
	{"rails", "Rails"},
}

// fileNameFrameworks maps file name substrings to architectural styles.
var fileNameFrameworks = []struct {
	needle    string
	framework string
}{
	{"component", "Component-based"},
	{"service", "Service-oriented"},
	{"controller", "MVC"},
}

// directoryPatterns maps directory names to the pattern they suggest.
var directoryPatterns = map[string]string{
	"src":         "Source separation",
	"lib":         "Source separation",
	"components":  "Component architecture",
	"services":    "Service layer",
	"controllers": "MVC pattern",
	"models":      "Data modeling",
	"entities":    "Data modeling",
	"utils":       "Utility functions",
	"helpers":     "Utility functions",
	"types":       "Type definitions",
	"interfaces":  "Type definitions",
	"tests":       "Testing",
	"__tests__":   "Testing",
	"test":        "Testing",
}

// DetectFrameworks derives framework hints from imports and file names.
func DetectFrameworks(files []models.FileEntry) []string {
	found := make(map[string]bool)
	for _, file := range files {
		for _, imported := range file.Imports {
			lowered := strings.ToLower(imported)
			for _, candidate := range importFrameworks {
				if strings.Contains(lowered, candidate.needle) {
					found[candidate.framework] = true
				}
			}
		}

		name := strings.ToLower(file.Name)
		for _, candidate := range fileNameFrameworks {
			if strings.Contains(name, candidate.needle) {
				found[candidate.framework] = true
			}
		}
	}
	return sortedSet(found)
}

// DetectPatterns derives architectural patterns from top-level directory names
// and the directories directly under src.
func DetectPatterns(directories []models.DirectoryEntry) []string {
	found := make(map[string]bool)
	for _, dir := range directories {
		segments := strings.Split(dir.Path, "/")
		topLevel := len(segments) == 1
		underSrc := len(segments) == 2 && segments[0] == "src"
		if !topLevel && !underSrc {
			continue
		}
		if pattern, ok := directoryPatterns[strings.ToLower(dir.Name)]; ok {
			found[pattern] = true
		}
	}
	return sortedSet(found)
}

func sortedSet(set map[string]bool) []string {
	values := make([]string, 0, len(set))
	for value := range set {
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}
