package agent

import (
	"fmt"
	"strconv"
	"strings"
)

// Info describes a persona's identity and intent.
type Info struct {
	ID           string
	Name         string
	Description  string
	Version      string
	Greeting     string
	Instructions string
}

// Validate ensures the info block is well-formed.
func (i Info) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("agent: id is required")
	}
	if i.Name == "" {
		return fmt.Errorf("agent: name is required for %s", i.ID)
	}
	if i.Version == "" {
		return fmt.Errorf("agent: version is required for %s", i.ID)
	}
	return nil
}

// ParamType enumerates the argument types a tool accepts.
type ParamType string

const (
	ParamString ParamType = "string"
	ParamBool   ParamType = "bool"
	ParamInt    ParamType = "int"
	ParamFloat  ParamType = "float"
)

// Param declares one tool argument.
type Param struct {
	Name        string
	Type        ParamType
	Required    bool
	Description string
}

// Handler executes a tool call and returns a speakable reply.
type Handler func(ctx *Context, args Args) (string, error)

// Tool is a function the language model may invoke during a session.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler
}

// Validate ensures the tool declaration is complete.
func (t Tool) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("agent: tool name is required")
	}
	if t.Handler == nil {
		return fmt.Errorf("agent: handler is required for %s", t.Name)
	}
	for _, p := range t.Params {
		if p.Name == "" {
			return fmt.Errorf("agent: unnamed param on %s", t.Name)
		}
	}
	return nil
}

// Args carries the decoded arguments of a tool call.
type Args map[string]any

// String returns the named argument as a trimmed string.
func (a Args) String(name string) (string, error) {
	raw, ok := a[name]
	if !ok {
		return "", fmt.Errorf("agent: missing argument %q", name)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("agent: argument %q is not a string", name)
	}
	return strings.TrimSpace(s), nil
}

// Bool returns the named argument as a boolean. String forms are accepted
// because transcribed tool calls sometimes arrive stringly typed.
func (a Args) Bool(name string) (bool, error) {
	raw, ok := a[name]
	if !ok {
		return false, fmt.Errorf("agent: missing argument %q", name)
	}
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("agent: argument %q is not a bool", name)
		}
		return parsed, nil
	default:
		return false, fmt.Errorf("agent: argument %q is not a bool", name)
	}
}

// Int returns the named argument as an int. JSON numbers decode as float64.
func (a Args) Int(name string) (int, error) {
	raw, ok := a[name]
	if !ok {
		return 0, fmt.Errorf("agent: missing argument %q", name)
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("agent: argument %q is not an int", name)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("agent: argument %q is not an int", name)
	}
}

// IntOr returns the named argument or a fallback when absent.
func (a Args) IntOr(name string, fallback int) int {
	if _, ok := a[name]; !ok {
		return fallback
	}
	value, err := a.Int(name)
	if err != nil {
		return fallback
	}
	return value
}

// StringOr returns the named argument or a fallback when absent or empty.
func (a Args) StringOr(name, fallback string) string {
	value, err := a.String(name)
	if err != nil || value == "" {
		return fallback
	}
	return value
}

// Agent is implemented by every persona.
type Agent interface {
	Info() Info
	Tools() []Tool
	// Reset clears per-conversation state so the next caller starts fresh.
	Reset()
}

// FindTool returns the named tool from an agent's tool set.
func FindTool(a Agent, name string) (Tool, bool) {
	for _, tool := range a.Tools() {
		if tool.Name == name {
			return tool, true
		}
	}
	return Tool{}, false
}
