// Package brief loads and checks the markdown challenge briefs under
// briefs/. Every brief carries YAML frontmatter and the same four steps:
// connect, record, post, hashtag.
package brief

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// StepNames are the four fixed steps every brief walks through, in order.
var StepNames = []string{"connect", "record", "post", "hashtag"}

// Meta is the YAML frontmatter block at the top of each brief.
type Meta struct {
	Day      int      `yaml:"day"`
	Title    string   `yaml:"title"`
	Persona  string   `yaml:"persona"`
	Hashtags []string `yaml:"hashtags"`
}

// Brief is one parsed challenge day.
type Brief struct {
	Meta  Meta
	Steps []string
	Body  string
	Path  string
}

// Parse reads a brief from markdown source, extracting the frontmatter and
// the step list from the document's list items.
func Parse(source []byte) (Brief, error) {
	var meta Meta
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return Brief{}, fmt.Errorf("brief: parse frontmatter: %w", err)
	}
	if meta.Day < 1 {
		return Brief{}, fmt.Errorf("brief: day must be positive, got %d", meta.Day)
	}
	if meta.Title == "" {
		return Brief{}, fmt.Errorf("brief: day %d has no title", meta.Day)
	}

	steps, err := extractSteps(body)
	if err != nil {
		return Brief{}, fmt.Errorf("brief: day %d: %w", meta.Day, err)
	}
	b := Brief{Meta: meta, Steps: steps, Body: string(body)}
	if err := b.Validate(); err != nil {
		return Brief{}, err
	}
	return b, nil
}

// Validate checks that the four fixed steps appear in order.
func (b Brief) Validate() error {
	if len(b.Steps) < len(StepNames) {
		return fmt.Errorf("brief: day %d has %d steps, want at least %d",
			b.Meta.Day, len(b.Steps), len(StepNames))
	}
	idx := 0
	for _, step := range b.Steps {
		if idx < len(StepNames) && strings.Contains(strings.ToLower(step), StepNames[idx]) {
			idx++
		}
	}
	if idx != len(StepNames) {
		return fmt.Errorf("brief: day %d is missing the %q step", b.Meta.Day, StepNames[idx])
	}
	return nil
}

// extractSteps walks the markdown AST and collects list item text.
func extractSteps(body []byte) ([]string, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(body))

	var steps []string
	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if _, ok := node.(*ast.ListItem); !ok {
			return ast.WalkContinue, nil
		}
		steps = append(steps, itemText(node, body))
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk markdown: %w", err)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("no step list found")
	}
	return steps, nil
}

// itemText flattens the text content of a list item.
func itemText(node ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// LoadFile parses a single brief from disk.
func LoadFile(path string) (Brief, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return Brief{}, fmt.Errorf("brief: read %s: %w", path, err)
	}
	b, err := Parse(source)
	if err != nil {
		return Brief{}, fmt.Errorf("%w (%s)", err, filepath.Base(path))
	}
	b.Path = path
	return b, nil
}

// LoadDir parses every .md file in a briefs directory, sorted by day.
func LoadDir(dir string) ([]Brief, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("brief: read dir %s: %w", dir, err)
	}
	var briefs []Brief
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		b, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		briefs = append(briefs, b)
	}
	sort.Slice(briefs, func(i, j int) bool {
		return briefs[i].Meta.Day < briefs[j].Meta.Day
	})
	return briefs, nil
}
