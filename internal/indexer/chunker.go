package indexer

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	minChunkRunes = 80
	maxChunkRunes = 1000 // Keeps a passage within a 512-token embedding window
)

// GoldmarkChunker splits markdown into heading sections using the goldmark AST.
type GoldmarkChunker struct {
	md goldmark.Markdown
}

// NewGoldmarkChunker creates a chunker with GFM tables enabled.
func NewGoldmarkChunker() *GoldmarkChunker {
	return &GoldmarkChunker{
		md: goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

// ChunkMarkdown returns the document title and its passages in document order.
// An empty body yields the filename-derived title and no chunks.
func (c *GoldmarkChunker) ChunkMarkdown(body []byte, filename string) (string, []Chunk) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return titleFromFilename(filename), nil
	}

	doc := c.md.Parser().Parse(text.NewReader(body))
	title := documentTitle(doc, body, filename)

	chunks := sections(doc, body, title)
	chunks = applySizeConstraints(chunks)
	for i := range chunks {
		chunks[i].Index = i
	}
	return title, chunks
}

type heading struct {
	level int
	text  string
}

// sections walks the top-level blocks and starts a new chunk at every heading.
func sections(doc ast.Node, src []byte, title string) []Chunk {
	var (
		chunks  []Chunk
		current *Chunk
		stack   []heading
	)

	flush := func() {
		if current != nil && strings.TrimSpace(current.Text) != "" {
			current.Text = strings.TrimSpace(current.Text)
			chunks = append(chunks, *current)
		}
		current = nil
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			flush()
			for len(stack) > 0 && stack[len(stack)-1].level >= h.Level {
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, heading{level: h.Level, text: inlineText(h, src)})
			current = &Chunk{HeadingPath: headingPath(stack)}
			continue
		}

		block := blockText(n, src)
		if block == "" {
			continue
		}
		if current == nil {
			current = &Chunk{HeadingPath: "# " + title}
		}
		if current.Text != "" {
			current.Text += "\n\n"
		}
		current.Text += block
	}
	flush()

	return chunks
}

// headingPath formats the heading stack as "# A > ## B".
func headingPath(stack []heading) string {
	parts := make([]string, len(stack))
	for i, h := range stack {
		parts[i] = strings.Repeat("#", h.level) + " " + h.text
	}
	return strings.Join(parts, " > ")
}

// documentTitle picks the first H1, then the first H2, then the filename.
func documentTitle(doc ast.Node, src []byte, filename string) string {
	var h2 string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		if h.Level == 1 {
			if t := inlineText(h, src); t != "" {
				return t
			}
		}
		if h.Level == 2 && h2 == "" {
			h2 = inlineText(h, src)
		}
	}
	if h2 != "" {
		return h2
	}
	return titleFromFilename(filename)
}

// titleFromFilename turns "annual-report_2023.md" into "Annual Report 2023".
func titleFromFilename(filename string) string {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// blockText renders one block node as plain text.
func blockText(n ast.Node, src []byte) string {
	switch node := n.(type) {
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		var b strings.Builder
		lines := node.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(src))
		}
		return strings.TrimRight(b.String(), "\n")

	case *ast.List:
		var items []string
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			if t := inlineText(item, src); t != "" {
				items = append(items, "- "+t)
			}
		}
		return strings.Join(items, "\n")

	case *east.Table:
		var rows []string
		for row := node.FirstChild(); row != nil; row = row.NextSibling() {
			var cells []string
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, inlineText(cell, src))
			}
			rows = append(rows, strings.Join(cells, " | "))
		}
		return strings.Join(rows, "\n")

	case *ast.ThematicBreak, *ast.HTMLBlock:
		return ""

	default:
		return inlineText(n, src)
	}
}

// inlineText concatenates the text leaves under n, keeping line breaks.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.Paragraph, *ast.TextBlock:
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// applySizeConstraints merges undersized chunks forward and splits oversized ones.
func applySizeConstraints(chunks []Chunk) []Chunk {
	var out []Chunk
	for i := 0; i < len(chunks); i++ {
		current := chunks[i]
		for utf8.RuneCountInString(current.Text) < minChunkRunes && i+1 < len(chunks) {
			merged := current.Text + "\n\n" + chunks[i+1].Text
			if utf8.RuneCountInString(merged) > maxChunkRunes {
				break
			}
			current.Text = merged
			i++
		}
		out = append(out, splitChunk(current)...)
	}
	return out
}

// splitChunk cuts text longer than maxChunkRunes at the last paragraph, line or
// sentence boundary inside the window, or hard at the window edge.
func splitChunk(c Chunk) []Chunk {
	runes := []rune(c.Text)
	if len(runes) <= maxChunkRunes {
		return []Chunk{c}
	}

	var parts []Chunk
	for start := 0; start < len(runes); {
		end := start + maxChunkRunes
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = start + cutPoint(runes[start:end])
		}
		if part := strings.TrimSpace(string(runes[start:end])); part != "" {
			parts = append(parts, Chunk{HeadingPath: c.HeadingPath, Text: part})
		}
		start = end
	}
	return parts
}

// cutPoint returns the rune offset to cut window at.
func cutPoint(window []rune) int {
	s := string(window)
	for _, sep := range []string{"\n\n", "\n", ". "} {
		if idx := strings.LastIndex(s, sep); idx > 0 {
			return utf8.RuneCountInString(s[:idx+len(sep)])
		}
	}
	return len(window)
}
