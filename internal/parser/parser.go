package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/foreman/internal/models"
)

// Format represents the format of a workflow file
type Format int

const (
	// FormatUnknown represents an unknown or unsupported file format
	FormatUnknown Format = iota
	// FormatMarkdown represents a Markdown (.md, .markdown) workflow file
	FormatMarkdown
	// FormatYAML represents a YAML (.yaml, .yml) workflow file
	FormatYAML
)

// String returns the string representation of the Format
func (f Format) String() string {
	switch f {
	case FormatMarkdown:
		return "markdown"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// Parser is the interface that all workflow parsers must implement
type Parser interface {
	// Parse reads from an io.Reader and returns a validated Workflow
	Parse(r io.Reader) (*models.Workflow, error)
}

// DetectFormat automatically detects the workflow format based on file extension
// Supported extensions:
//   - .md, .markdown -> FormatMarkdown
//   - .yaml, .yml -> FormatYAML
//   - all others -> FormatUnknown
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// NewParser creates a new parser instance for the specified format
// Returns an error if the format is unknown or unsupported
func NewParser(format Format) (Parser, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownParser(), nil
	case FormatYAML:
		return NewYAMLParser(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %v", format)
	}
}

// ParseFile is a convenience function that auto-detects the format from
// the extension, opens the file, parses it, and stores the absolute
// file path in workflow.FilePath.
//
// This is the recommended way to parse workflow files from disk.
func ParseFile(path string) (*models.Workflow, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a workflow file: %s", path)
	}

	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unknown file format: %s (supported: .md, .markdown, .yaml, .yml)", path)
	}

	parser, err := NewParser(format)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	workflow, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workflow: %w", err)
	}

	// Store the original file path for error messages
	// Convert to absolute path for consistency
	absPath, err := filepath.Abs(path)
	if err != nil {
		// If we can't get absolute path, use the original
		absPath = path
	}
	workflow.FilePath = absPath

	return workflow, nil
}
