package utils

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type renderSample struct {
	Name  string   `json:"name" yaml:"name"`
	Files int      `json:"files" yaml:"files"`
	Tags  []string `json:"tags" yaml:"tags"`
}

func TestEncodeOutput(t *testing.T) {
	sample := renderSample{Name: "shop", Files: 3, Tags: []string{"web"}}

	text, err := EncodeOutput(sample, "yaml")
	require.NoError(t, err)
	assert.Equal(t, "name: shop\nfiles: 3\ntags:\n  - web\n", text)

	text, err = EncodeOutput(sample, "JSON")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"shop\",\n  \"files\": 3,\n  \"tags\": [\n    \"web\"\n  ]\n}\n", text)

	_, err = EncodeOutput(sample, "xml")
	assert.Error(t, err)
}

func TestRenderOutput_PlainAndHighlighted(t *testing.T) {
	sample := renderSample{Name: "shop"}

	var plain bytes.Buffer
	require.NoError(t, RenderOutput(&plain, sample, "yaml", ""))
	assert.True(t, strings.HasPrefix(plain.String(), "name: shop\n"))

	var highlighted bytes.Buffer
	require.NoError(t, RenderOutput(&highlighted, sample, "json", "dracula"))
	assert.Contains(t, highlighted.String(), "\x1b[")
	assert.Contains(t, highlighted.String(), "shop")
}

func TestConfirmPrompt(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		confirmed, err := ConfirmPrompt(context.Background(), bufio.NewReader(strings.NewReader(tt.input)), &out, "Delete?")
		require.NoError(t, err)
		assert.Equal(t, tt.expected, confirmed, "input %q", tt.input)
		assert.Contains(t, out.String(), "Delete? (y/N)")
	}
}
