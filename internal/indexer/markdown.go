package indexer

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor converts markdown content to plain text by walking the
// goldmark AST, so formatting syntax never reaches the embedding model.
type MarkdownExtractor struct {
	parser goldmark.Markdown
}

// NewMarkdownExtractor creates a new markdown extractor.
func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// ExtractText returns the plain text content of a markdown document. Block
// boundaries (headings, paragraphs, list items, code blocks) are separated by
// newlines so the word-window chunker sees natural token breaks.
func (e *MarkdownExtractor) ExtractText(content []byte) string {
	if len(content) == 0 {
		return ""
	}

	reader := text.NewReader(content)
	doc := e.parser.Parser().Parse(reader)

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.ListItem:
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteString("\n")
			}
			return ast.WalkContinue, nil

		case *ast.Text:
			sb.Write(node.Segment.Value(content))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteString("\n")
			}
			return ast.WalkContinue, nil

		case *ast.String:
			sb.Write(node.Value)
			return ast.WalkContinue, nil

		case *ast.CodeBlock:
			writeLines(&sb, node, content)
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock:
			writeLines(&sb, node, content)
			return ast.WalkSkipChildren, nil

		default:
			return ast.WalkContinue, nil
		}
	})

	return strings.TrimSpace(sb.String())
}

// writeLines appends a code block's raw lines.
func writeLines(sb *strings.Builder, n ast.Node, content []byte) {
	if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
		sb.WriteString("\n")
	}
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		sb.Write(line.Value(content))
	}
}
