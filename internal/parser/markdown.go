package parser

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/harrison/foreman/internal/models"
)

// MarkdownParser parses workflow files written as annotated Markdown:
// YAML frontmatter declares the workflow name and its tools, each
// "## Task: <name>" heading opens a task, a fenced yaml block carries
// the task's fields, and a fenced bash/sh block carries its shell
// command.
type MarkdownParser struct {
	markdown goldmark.Markdown
}

func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{
		markdown: goldmark.New(),
	}
}

// frontmatterYAML represents the workflow header above the body
type frontmatterYAML struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Tools       []toolYAML `yaml:"tools"`
}

var taskHeadingRegex = regexp.MustCompile(`^Task:\s+(.+)$`)

func (p *MarkdownParser) Parse(r io.Reader) (*models.Workflow, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	workflow := &models.Workflow{}
	body, frontmatter := extractFrontmatter(content)
	if frontmatter != nil {
		if err := parseWorkflowFrontmatter(frontmatter, workflow); err != nil {
			return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
		}
	}

	doc := p.markdown.Parser().Parse(text.NewReader(body))

	tasks, title, err := extractTasks(doc, body)
	if err != nil {
		return nil, fmt.Errorf("failed to extract tasks: %w", err)
	}
	workflow.Tasks = tasks

	// The document title stands in for a missing frontmatter name
	if workflow.Name == "" {
		workflow.Name = title
	}

	if err := workflow.Validate(); err != nil {
		return nil, err
	}

	return workflow, nil
}

// extractTasks walks the document, opening a task at each level 2
// "Task:" heading and attaching the fenced code blocks that follow it.
// Any other level 2 heading closes the task in progress, so trailing
// prose sections cannot leak blocks into a task. The first level 1
// heading is returned as the document title.
func extractTasks(doc ast.Node, source []byte) ([]models.TaskSpec, string, error) {
	var tasks []models.TaskSpec
	var current *models.TaskSpec
	var title string

	flush := func() {
		if current != nil {
			tasks = append(tasks, *current)
			current = nil
		}
	}

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			headingText := extractText(node, source)
			if node.Level == 1 && title == "" {
				title = headingText
				return ast.WalkContinue, nil
			}
			if node.Level != 2 {
				return ast.WalkContinue, nil
			}
			flush()
			if matches := taskHeadingRegex.FindStringSubmatch(headingText); len(matches) == 2 {
				current = &models.TaskSpec{Name: strings.TrimSpace(matches[1])}
			}

		case *ast.FencedCodeBlock:
			if current == nil {
				return ast.WalkContinue, nil
			}
			language := strings.ToLower(string(node.Language(source)))
			code := blockText(node, source)
			switch language {
			case "yaml", "yml":
				if err := applyTaskYAML(current, code); err != nil {
					return ast.WalkStop, fmt.Errorf("task %s: %w", current.Name, err)
				}
			case "bash", "sh", "shell":
				current.Command = strings.TrimSpace(code)
			}
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, "", err
	}

	flush()
	return tasks, title, nil
}

// applyTaskYAML overlays the fenced yaml block onto the task opened by
// the heading. The heading name wins over a name given in the block,
// and a command from an earlier bash block survives.
func applyTaskYAML(spec *models.TaskSpec, code string) error {
	var raw taskYAML
	if err := yaml.Unmarshal([]byte(code), &raw); err != nil {
		return fmt.Errorf("invalid yaml block: %w", err)
	}

	raw.Name = spec.Name
	parsed, err := raw.toSpec()
	if err != nil {
		return err
	}
	if parsed.Command == "" {
		parsed.Command = spec.Command
	}

	*spec = parsed
	return nil
}

// extractText extracts plain text from an AST node
func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if text, ok := c.(*ast.Text); ok {
			buf.Write(text.Segment.Value(source))
		}
	}
	return buf.String()
}

// blockText joins the raw lines of a fenced code block
func blockText(fence *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := fence.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		buf.Write(segment.Value(source))
	}
	return buf.String()
}

// extractFrontmatter extracts YAML frontmatter from markdown content
// Returns the content without frontmatter and the frontmatter bytes
func extractFrontmatter(content []byte) ([]byte, []byte) {
	lines := bytes.Split(content, []byte("\n"))

	// Check if starts with ---
	if len(lines) < 3 || !bytes.Equal(bytes.TrimSpace(lines[0]), []byte("---")) {
		return content, nil
	}

	// Find closing ---
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			// Found closing delimiter
			frontmatter := bytes.Join(lines[1:i], []byte("\n"))
			body := bytes.Join(lines[i+1:], []byte("\n"))
			return body, frontmatter
		}
	}

	// No closing delimiter found
	return content, nil
}

// parseWorkflowFrontmatter fills workflow-level fields from frontmatter
func parseWorkflowFrontmatter(frontmatter []byte, workflow *models.Workflow) error {
	var raw frontmatterYAML
	if err := yaml.Unmarshal(frontmatter, &raw); err != nil {
		return err
	}

	workflow.Name = raw.Name
	workflow.Description = raw.Description
	for i := range raw.Tools {
		workflow.Tools = append(workflow.Tools, raw.Tools[i].toSpec())
	}
	return nil
}
