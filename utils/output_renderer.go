package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by RenderOutput.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// EncodeOutput serialises v as YAML or JSON.
func EncodeOutput(v interface{}, format string) (string, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode json: %w", err)
		}
		return string(data) + "\n", nil
	case FormatYAML, "":
		var buf bytes.Buffer
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return "", fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return "", fmt.Errorf("unsupported output format %q", format)
	}
}

// RenderOutput writes v in the requested format. When theme is not empty the
// text is syntax highlighted for a 256-colour terminal.
func RenderOutput(w io.Writer, v interface{}, format string, theme string) error {
	text, err := EncodeOutput(v, format)
	if err != nil {
		return err
	}

	if theme == "" {
		_, err = io.WriteString(w, text)
		return err
	}

	language := FormatYAML
	if strings.EqualFold(format, FormatJSON) {
		language = FormatJSON
	}
	return quick.Highlight(w, text, language, "terminal256", theme)
}
