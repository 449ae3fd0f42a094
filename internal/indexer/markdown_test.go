package indexer

import (
	"strings"
	"testing"
)

func TestMarkdownExtractor_ExtractText(t *testing.T) {
	extractor := NewMarkdownExtractor()

	tests := []struct {
		name     string
		content  string
		contains []string
		excludes []string
	}{
		{
			name:     "empty content",
			content:  "",
			contains: nil,
		},
		{
			name:     "headings and paragraphs",
			content:  "# Title\n\nFirst paragraph.\n\n## Section\n\nSecond paragraph.",
			contains: []string{"Title", "First paragraph.", "Section", "Second paragraph."},
			excludes: []string{"#"},
		},
		{
			name:     "emphasis is stripped",
			content:  "Some **bold** and *italic* words.",
			contains: []string{"bold", "italic"},
			excludes: []string{"*"},
		},
		{
			name:     "list items",
			content:  "- first item\n- second item\n",
			contains: []string{"first item", "second item"},
			excludes: []string{"-"},
		},
		{
			name:     "fenced code block",
			content:  "Intro\n\n```\nselect 1;\n```\n",
			contains: []string{"Intro", "select 1;"},
			excludes: []string{"```"},
		},
		{
			name:     "link text without destination markers",
			content:  "See [the docs](https://example.com) for details.",
			contains: []string{"the docs", "details"},
			excludes: []string{"]("},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractor.ExtractText([]byte(tt.content))
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("ExtractText() = %q, missing %q", got, want)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("ExtractText() = %q, should not contain %q", got, bad)
				}
			}
		})
	}
}
