package indexer

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// charactersPrefix marks a paragraph listing the characters of a scene.
const charactersPrefix = "characters:"

// OutlineScene is one scene read from a Markdown outline.
type OutlineScene struct {
	Title         string
	Description   string
	CharacterRefs []string
}

// Outline is a story outline parsed from Markdown.
type Outline struct {
	Title  string
	Scenes []OutlineScene
}

// OutlineParser turns Markdown outlines into scenes.
//
// Each heading at the scene level starts a scene. The scene level is 2 when
// the document has any level 2 heading (the first level 1 heading is then the
// story title), otherwise 1. Deeper headings and all block content up to the
// next scene heading form the scene description. A paragraph starting with
// "Characters:" lists comma separated character names instead. Content
// before the first scene heading is ignored.
type OutlineParser struct {
	parser goldmark.Markdown
}

// NewOutlineParser creates a new outline parser.
func NewOutlineParser() *OutlineParser {
	return &OutlineParser{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Parse reads an outline. filename is used for the title when the document
// has none.
func (p *OutlineParser) Parse(content []byte, filename string) Outline {
	out := Outline{Title: extractTitleFromFilename(filename)}
	if len(strings.TrimSpace(string(content))) == 0 {
		return out
	}

	doc := p.parser.Parser().Parse(text.NewReader(content))

	level := sceneLevel(doc)
	if level == 0 {
		// No headings: the whole document is one scene.
		desc := documentText(doc, content)
		out.Scenes = append(out.Scenes, OutlineScene{Title: out.Title, Description: desc})
		return out
	}

	var current *OutlineScene
	var paragraphs []string
	titled := false
	flush := func() {
		if current == nil {
			return
		}
		current.Description = strings.Join(paragraphs, "\n\n")
		out.Scenes = append(out.Scenes, *current)
		paragraphs = nil
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			if h.Level == 1 && level == 2 {
				if current == nil && !titled {
					out.Title = extractTextFromNode(h, content)
					titled = true
				}
				continue
			}
			if h.Level == level {
				flush()
				current = &OutlineScene{Title: extractTextFromNode(h, content)}
				continue
			}
		}
		if current == nil {
			continue
		}

		block := blockText(n, content)
		if block == "" {
			continue
		}
		if refs, ok := parseCharacters(block); ok {
			current.CharacterRefs = append(current.CharacterRefs, refs...)
			continue
		}
		paragraphs = append(paragraphs, block)
	}
	flush()

	return out
}

// sceneLevel returns 2 if the document has a level 2 heading, 1 if it has
// only level 1 headings and 0 without headings.
func sceneLevel(doc ast.Node) int {
	level := 0
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		if h.Level == 2 {
			return 2
		}
		if h.Level == 1 {
			level = 1
		}
	}
	return level
}

func documentText(doc ast.Node, content []byte) string {
	var blocks []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if block := blockText(n, content); block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n\n")
}

// blockText renders one block node as plain text.
func blockText(n ast.Node, content []byte) string {
	switch node := n.(type) {
	case *ast.Heading:
		return extractTextFromNode(node, content)

	case *ast.Paragraph, *ast.TextBlock:
		return inlineText(node, content)

	case *ast.List:
		var items []string
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			var parts []string
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				if t := blockText(c, content); t != "" {
					parts = append(parts, t)
				}
			}
			items = append(items, "- "+strings.Join(parts, " "))
		}
		return strings.Join(items, "\n")

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		var b strings.Builder
		lines := node.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			b.Write(line.Value(content))
		}
		return strings.TrimRight(b.String(), "\n")

	case *ast.Blockquote:
		return documentText(node, content)

	case *ast.ThematicBreak, *ast.HTMLBlock:
		return ""
	}

	if strings.Contains(n.Kind().String(), "Table") {
		var rows []string
		_ = ast.Walk(n, func(row ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering {
				return ast.WalkContinue, nil
			}
			kind := row.Kind().String()
			if strings.Contains(kind, "TableRow") || strings.Contains(kind, "TableHeader") {
				rows = append(rows, extractTableRowText(row, content))
				return ast.WalkSkipChildren, nil
			}
			return ast.WalkContinue, nil
		})
		return strings.Join(rows, "\n")
	}

	return extractTextFromNode(n, content)
}

// inlineText joins the inline content of a paragraph; soft line breaks
// become spaces and hard breaks newlines.
func inlineText(n ast.Node, content []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
			if v.HardLineBreak() {
				b.WriteString("\n")
			} else if v.SoftLineBreak() {
				b.WriteString(" ")
			}
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func parseCharacters(block string) ([]string, bool) {
	if len(block) < len(charactersPrefix) || !strings.EqualFold(block[:len(charactersPrefix)], charactersPrefix) {
		return nil, false
	}
	var names []string
	for _, name := range strings.Split(block[len(charactersPrefix):], ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names, true
}

// extractTitleFromFilename extracts title from filename by removing extension and capitalizing words.
func extractTitleFromFilename(filename string) string {
	name := filepath.Base(filename)
	if ext := filepath.Ext(name); ext != "" {
		name = name[:len(name)-len(ext)]
	}
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}

	return strings.Join(words, " ")
}

// extractTextFromNode extracts text content from a node and its children.
func extractTextFromNode(n ast.Node, content []byte) string {
	var textBuilder strings.Builder

	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := node.(type) {
		case *ast.Text:
			textBuilder.Write(v.Segment.Value(content))
		case *ast.String:
			textBuilder.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(textBuilder.String())
}

// extractTableRowText extracts text from a table row, formatting cells with pipe separators.
func extractTableRowText(row ast.Node, content []byte) string {
	var rowBuilder strings.Builder
	cellCount := 0

	_ = ast.Walk(row, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if strings.Contains(node.Kind().String(), "TableCell") {
			if cellCount > 0 {
				rowBuilder.WriteString(" | ")
			}
			rowBuilder.WriteString(extractTextFromNode(node, content))
			cellCount++
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return rowBuilder.String()
}
