package parser

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrison/foreman/internal/models"
)

// workflowYAML mirrors the on-disk YAML document. Durations are kept as
// strings so workflow authors can write "90s", "2m", or "1h30m".
type workflowYAML struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Tools       []toolYAML `yaml:"tools"`
	Tasks       []taskYAML `yaml:"tasks"`
}

type toolYAML struct {
	Name        string   `yaml:"name"`
	Path        string   `yaml:"path"`
	DefaultArgs []string `yaml:"default_args"`
	Description string   `yaml:"description"`
}

type taskYAML struct {
	Name     string            `yaml:"name"`
	Tool     string            `yaml:"tool"`
	Args     []string          `yaml:"args"`
	Command  string            `yaml:"command"`
	WorkDir  string            `yaml:"workdir"`
	Env      map[string]string `yaml:"env"`
	Timeout  string            `yaml:"timeout"`
	Fallback *fallbackYAML     `yaml:"fallback"`
}

type fallbackYAML struct {
	Retry *retryYAML     `yaml:"retry"`
	Skip  *skipYAML      `yaml:"skip"`
	Chain []fallbackYAML `yaml:"chain"`
}

type retryYAML struct {
	MaxAttempts int    `yaml:"max_attempts"`
	Backoff     string `yaml:"backoff"`
}

type skipYAML struct {
	Output string `yaml:"output"`
}

func (t *toolYAML) toSpec() models.ToolSpec {
	return models.ToolSpec{
		Name:        t.Name,
		Path:        t.Path,
		DefaultArgs: t.DefaultArgs,
		Description: t.Description,
	}
}

func (t *taskYAML) toSpec() (models.TaskSpec, error) {
	spec := models.TaskSpec{
		Name:    t.Name,
		Tool:    t.Tool,
		Args:    t.Args,
		Command: t.Command,
		WorkDir: t.WorkDir,
		Env:     t.Env,
	}

	if t.Timeout != "" {
		timeout, err := parseDuration(t.Timeout)
		if err != nil {
			return spec, fmt.Errorf("invalid timeout %q: %w", t.Timeout, err)
		}
		spec.Timeout = timeout
	}

	if t.Fallback != nil {
		fallback, err := t.Fallback.toSpec()
		if err != nil {
			return spec, err
		}
		spec.Fallback = fallback
	}

	return spec, nil
}

func (f *fallbackYAML) toSpec() (*models.FallbackSpec, error) {
	spec := &models.FallbackSpec{}

	if f.Retry != nil {
		retry := &models.RetrySpec{MaxAttempts: f.Retry.MaxAttempts}
		if f.Retry.Backoff != "" {
			backoff, err := parseDuration(f.Retry.Backoff)
			if err != nil {
				return nil, fmt.Errorf("invalid retry backoff %q: %w", f.Retry.Backoff, err)
			}
			retry.Backoff = backoff
		}
		spec.Retry = retry
	}

	if f.Skip != nil {
		spec.Skip = &models.SkipSpec{Output: f.Skip.Output}
	}

	for i := range f.Chain {
		entry, err := f.Chain[i].toSpec()
		if err != nil {
			return nil, fmt.Errorf("chain entry %d: %w", i+1, err)
		}
		spec.Chain = append(spec.Chain, *entry)
	}

	return spec, nil
}

// YAMLParser parses workflow files written as a single YAML document.
type YAMLParser struct{}

func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

func (p *YAMLParser) Parse(r io.Reader) (*models.Workflow, error) {
	var raw workflowYAML
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode workflow: %w", err)
	}

	workflow := &models.Workflow{
		Name:        raw.Name,
		Description: raw.Description,
	}

	for i := range raw.Tools {
		workflow.Tools = append(workflow.Tools, raw.Tools[i].toSpec())
	}

	for i := range raw.Tasks {
		spec, err := raw.Tasks[i].toSpec()
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i+1, err)
		}
		workflow.Tasks = append(workflow.Tasks, spec)
	}

	if err := workflow.Validate(); err != nil {
		return nil, err
	}

	return workflow, nil
}

// parseDuration accepts the shorthand forms workflow authors actually
// write before falling back to Go's own syntax.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	// Simple patterns: "30m", "1h", "2h"
	simpleRegex := regexp.MustCompile(`^(\d+)([mh])$`)
	if matches := simpleRegex.FindStringSubmatch(s); len(matches) > 2 {
		val, _ := strconv.Atoi(matches[1])
		unit := matches[2]
		if unit == "m" {
			return time.Duration(val) * time.Minute, nil
		}
		return time.Duration(val) * time.Hour, nil
	}

	// Complex pattern: "2h30m"
	complexRegex := regexp.MustCompile(`^(\d+)h(\d+)m$`)
	if matches := complexRegex.FindStringSubmatch(s); len(matches) > 2 {
		hours, _ := strconv.Atoi(matches[1])
		minutes, _ := strconv.Atoi(matches[2])
		return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
	}

	// Try standard Go duration parsing
	return time.ParseDuration(s)
}
