package file_watcher

import (
	"path"
	"strings"
)

// EventKind is the normalised filesystem event of a watch session.
type EventKind string

const (
	EventAdd       EventKind = "add"
	EventChange    EventKind = "change"
	EventRemove    EventKind = "remove"
	EventAddDir    EventKind = "addDir"
	EventRemoveDir EventKind = "removeDir"
)

// IsDirectory reports whether the event concerns a directory.
func (k EventKind) IsDirectory() bool {
	return k == EventAddDir || k == EventRemoveDir
}

var significantFiles = map[string]bool{
	"package.json":      true,
	"Cargo.toml":        true,
	"requirements.txt":  true,
	"go.mod":            true,
	"pom.xml":           true,
	"build.gradle":      true,
	"tsconfig.json":     true,
	"webpack.config.js": true,
	"vite.config.js":    true,
	"next.config.js":    true,
	"README.md":         true,
}

var sourceDirectories = map[string]bool{
	"src":        true,
	"lib":        true,
	"components": true,
	"pages":      true,
	"routes":     true,
	"services":   true,
}

// IsSignificantChange reports whether a file event warrants a rescan: a manifest,
// build config or readme changed, or a file was added under a source directory.
func IsSignificantChange(kind EventKind, relativePath string) bool {
	if significantFiles[path.Base(relativePath)] {
		return true
	}
	if kind != EventAdd {
		return false
	}
	for _, segment := range strings.Split(path.Dir(relativePath), "/") {
		if sourceDirectories[segment] {
			return true
		}
	}
	return false
}
