package convert

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownConverter splits a markdown file into sections by heading,
// grounded on the teacher's rag/reader/markdown_reader.go (frontmatter
// stripping, header-based splitting) but walks goldmark's AST instead of
// the teacher's regex splitter, since the AST gives exact byte offsets
// for each heading's section body instead of an approximation.
type MarkdownConverter struct{}

func (MarkdownConverter) Convert(path, outputDir string) (Result, error) {
	raw, err := readAll(path)
	if err != nil {
		return Result{}, err
	}

	body, frontmatter := extractFrontmatter(raw)
	sections := splitByHeadings(body)

	var full strings.Builder
	if frontmatter != "" {
		full.WriteString(frontmatter)
		full.WriteString("\n\n")
	}
	for _, s := range sections {
		full.WriteString("# " + s.Title + "\n\n")
		full.WriteString(s.Content)
		full.WriteString("\n\n")
	}

	fullPath, err := writeFile(outputDir, "full.md", full.String())
	if err != nil {
		return Result{}, err
	}

	return Result{OutputDir: outputDir, FullTextPath: fullPath, Sections: sections}, nil
}

func (MarkdownConverter) Sample(path string, maxChars int) (string, error) {
	raw, err := readAll(path)
	if err != nil {
		return "", err
	}
	body, _ := extractFrontmatter(raw)
	if len(body) > maxChars {
		body = body[:maxChars]
	}
	return body, nil
}

func readAll(path string) (string, error) {
	data, err := readFileBytes(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// extractFrontmatter strips a leading "---\n...\n---" YAML block,
// returning it separately so it can be re-emitted ahead of the section
// bodies, matching markdown_reader.go's extractFrontmatter behavior.
func extractFrontmatter(text string) (body, frontmatter string) {
	trimmed := strings.TrimLeft(text, "\n")
	if !strings.HasPrefix(trimmed, "---\n") && !strings.HasPrefix(trimmed, "---\r\n") {
		return text, ""
	}
	rest := trimmed[4:]
	idx := strings.Index(rest, "\n---")
	if idx == -1 {
		return text, ""
	}
	frontmatter = rest[:idx]
	after := rest[idx+4:]
	after = strings.TrimPrefix(after, "\n")
	after = strings.TrimPrefix(after, "\r\n")
	return after, frontmatter
}

// splitByHeadings walks goldmark's AST for top-level ATX/setext
// headings and slices the source by byte offset between consecutive
// headings, producing one Section per heading (content before the
// first heading becomes an "Introduction" section when non-empty).
func splitByHeadings(source string) []Section {
	src := []byte(source)
	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	type headingMark struct {
		title string
		level int
		start int
	}
	var marks []headingMark

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			var title bytes.Buffer
			for c := h.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					title.Write(t.Segment.Value(src))
				}
			}
			lines := h.Lines()
			start := 0
			if lines.Len() > 0 {
				start = lines.At(0).Start
			}
			// Lines() covers the heading text only; move back to the
			// start of its line so the "#" marker is not left behind.
			for start > 0 && src[start-1] != '\n' {
				start--
			}
			marks = append(marks, headingMark{title: title.String(), level: h.Level, start: start})
		}
		return ast.WalkContinue, nil
	})

	if len(marks) == 0 {
		body := strings.TrimSpace(source)
		if body == "" {
			return nil
		}
		return []Section{{Title: "Introduction", Content: body}}
	}

	var sections []Section
	if marks[0].start > 0 {
		intro := strings.TrimSpace(string(src[:marks[0].start]))
		if intro != "" {
			sections = append(sections, Section{Title: "Introduction", Content: intro})
		}
	}

	for i, m := range marks {
		end := len(src)
		if i+1 < len(marks) {
			end = marks[i+1].start
		}
		content := strings.TrimSpace(string(src[m.start:end]))
		content = strings.TrimPrefix(content, strings.Repeat("#", m.level)+" "+m.title)
		content = strings.TrimSpace(content)
		sections = append(sections, Section{
			Title:   m.title,
			Content: content,
			Extra:   map[string]string{"level": fmt.Sprint(m.level)},
		})
	}

	return sections
}
