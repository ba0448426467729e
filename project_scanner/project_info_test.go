package project_scanner

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectProjectInfo_Defaults(t *testing.T) {
	root := t.TempDir()

	info := DetectProjectInfo(root)

	assert.Equal(t, filepath.Base(root), info.Name)
	assert.Equal(t, root, info.Path)
	assert.Equal(t, "unknown", info.Type)
	assert.Equal(t, "unknown", info.MainLanguage)
	assert.Equal(t, "unknown", info.Framework)
	assert.Equal(t, "1.0.0", info.Version)
}

func TestDetectProjectInfo_PackageJSON(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"package.json": `{
  "name": "storefront",
  "version": "2.3.1",
  "description": "Shop UI",
  "dependencies": {"react": "^18.0.0", "next": "14.0.0"},
  "devDependencies": {"jest": "^29.0.0"},
  "scripts": {"dev": "next dev"}
}`,
		"tsconfig.json": `{}`,
	})

	info := DetectProjectInfo(root)

	assert.Equal(t, "storefront", info.Name)
	assert.Equal(t, "2.3.1", info.Version)
	assert.Equal(t, "Shop UI", info.Description)
	assert.Equal(t, "nodejs", info.Type)
	assert.Equal(t, "typescript", info.MainLanguage)
	assert.Equal(t, "nextjs", info.Framework)
	assert.Equal(t, []string{"next", "react"}, info.Dependencies)
	assert.Equal(t, map[string]string{"dev": "next dev"}, info.Scripts)
}

func TestDetectProjectInfo_MalformedPackageJSONStillDecidesType(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"package.json": `{"name": `})

	info := DetectProjectInfo(root)

	assert.Equal(t, "nodejs", info.Type)
	assert.Equal(t, "javascript", info.MainLanguage)
	assert.Equal(t, filepath.Base(root), info.Name)
	assert.Equal(t, "1.0.0", info.Version)
}

func TestDetectProjectInfo_CargoToml(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"Cargo.toml": `[package]
name = "ledger"
version = "0.2.0"

[dependencies]
axum = "0.7"
serde = { version = "1", features = ["derive"] }
`,
	})

	info := DetectProjectInfo(root)

	assert.Equal(t, "ledger", info.Name)
	assert.Equal(t, "0.2.0", info.Version)
	assert.Equal(t, "rust", info.Type)
	assert.Equal(t, "axum", info.Framework)
	assert.Equal(t, []string{"axum", "serde"}, info.Dependencies)
}

func TestDetectProjectInfo_Pyproject(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"pyproject.toml": `[project]
name = "inventory"
version = "0.9.0"
dependencies = ["FastAPI>=0.110", "pydantic"]
`,
	})

	info := DetectProjectInfo(root)

	assert.Equal(t, "inventory", info.Name)
	assert.Equal(t, "python", info.MainLanguage)
	assert.Equal(t, "fastapi", info.Framework)
	assert.Equal(t, []string{"fastapi", "pydantic"}, info.Dependencies)
}

func TestDetectProjectInfo_Requirements(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"requirements.txt": "# web\nDjango==4.2\n-r base.txt\nrequests\n",
	})

	info := DetectProjectInfo(root)

	assert.Equal(t, "python", info.Type)
	assert.Equal(t, "django", info.Framework)
	assert.Equal(t, []string{"django", "requests"}, info.Dependencies)
}

func TestDetectProjectInfo_GoMod(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"go.mod": `module example.com/orders

go 1.22

require (
	github.com/gin-gonic/gin v1.9.1
	golang.org/x/text v0.14.0 // indirect
)
`,
	})

	info := DetectProjectInfo(root)

	assert.Equal(t, "example.com/orders", info.Name)
	assert.Equal(t, "1.22", info.Version)
	assert.Equal(t, "go", info.MainLanguage)
	assert.Equal(t, "gin", info.Framework)
	assert.Equal(t, []string{"github.com/gin-gonic/gin"}, info.Dependencies)
}

func TestDetectProjectInfo_Pom(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"pom.xml": `<project>
  <groupId>com.example</groupId>
  <artifactId>billing</artifactId>
  <version>1.4.0</version>
  <dependencies>
    <dependency>
      <groupId>org.springframework.boot</groupId>
      <artifactId>spring-boot-starter-web</artifactId>
    </dependency>
  </dependencies>
</project>`,
	})

	info := DetectProjectInfo(root)

	assert.Equal(t, "billing", info.Name)
	assert.Equal(t, "1.4.0", info.Version)
	assert.Equal(t, "spring", info.Framework)
	assert.Equal(t, []string{"org.springframework.boot:spring-boot-starter-web"}, info.Dependencies)
}

func TestDetectProjectInfo_GradleKotlin(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"build.gradle.kts": "dependencies {\n    implementation(\"io.ktor:ktor-server-core:2.3.0\")\n}\n",
	})

	info := DetectProjectInfo(root)

	assert.Equal(t, "kotlin", info.MainLanguage)
	assert.Equal(t, "gradle", info.Framework)
	assert.Equal(t, []string{"io.ktor:ktor-server-core"}, info.Dependencies)
}

func TestDetectProjectInfo_ComposerAndGemfile(t *testing.T) {
	php := t.TempDir()
	writeFiles(t, php, map[string]string{
		"composer.json": `{"name": "acme/blog", "require": {"laravel/framework": "^10.0"}}`,
	})
	assert.Equal(t, "laravel", DetectProjectInfo(php).Framework)

	ruby := t.TempDir()
	writeFiles(t, ruby, map[string]string{
		"Gemfile": "source 'https://rubygems.org'\ngem 'rails', '~> 7.1'\ngem \"pg\"\n",
	})
	info := DetectProjectInfo(ruby)
	assert.Equal(t, "rails", info.Framework)
	assert.Equal(t, []string{"rails", "pg"}, info.Dependencies)
}

func TestDetectProjectInfo_FirstManifestWins(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"package.json": `{"name": "web", "dependencies": {"express": "4"}}`,
		"go.mod":       "module example.com/api\n\ngo 1.21\n",
	})

	info := DetectProjectInfo(root)

	assert.Equal(t, "web", info.Name)
	assert.Equal(t, "nodejs", info.Type)
	assert.Equal(t, "express", info.Framework)
}
