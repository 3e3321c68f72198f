// internal/config/config.go
//
// This package handles configuration and the .talkshop directory structure.
// Every project that uses talkshop gets a .talkshop/ folder created in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// WorkspaceDir is the name of the directory we create in each project
	WorkspaceDir = ".talkshop"

	defaultPersonaID = "barista"
)

const defaultConfigYAML = `# talkshop project configuration
version: 1

# Default persona launched by the console.
personas:
  default: barista

# Voice pipeline settings. These mirror the provider configuration the agent
# worker hands to its session; the console never makes network calls.
pipeline:
  stt:
    provider: deepgram
    model: nova-3
  llm:
    provider: google
    model: gemini-2.5-flash
  tts:
    provider: murf
    voice: en-US-matthew
    style: Conversation
    min_sentence_len: 2
    text_pacing: true
  turn_detection: multilingual
  noise_cancellation: true
  preemptive_generation: true

bridge:
  enabled: true
  host: 127.0.0.1
  port: 8765
`

// STTConfig names the speech-to-text provider and model for a session.
type STTConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// LLMConfig names the language model backing tool selection.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// TTSConfig captures the speech synthesis voice and pacing behavior.
type TTSConfig struct {
	Provider       string `yaml:"provider"`
	Voice          string `yaml:"voice"`
	Style          string `yaml:"style"`
	MinSentenceLen int    `yaml:"min_sentence_len"`
	TextPacing     bool   `yaml:"text_pacing"`
}

// PipelineConfig models the pipeline block of .talkshop/config.yaml.
type PipelineConfig struct {
	STT                  STTConfig `yaml:"stt"`
	LLM                  LLMConfig `yaml:"llm"`
	TTS                  TTSConfig `yaml:"tts"`
	TurnDetection        string    `yaml:"turn_detection"`
	NoiseCancellation    bool      `yaml:"noise_cancellation"`
	PreemptiveGeneration bool      `yaml:"preemptive_generation"`
}

// PersonaConfig captures persona preferences.
type PersonaConfig struct {
	Default   string   `yaml:"default"`
	Available []string `yaml:"available,omitempty"`
}

// BridgeConfig holds the room bridge toggles persisted in config.yaml.
type BridgeConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Host    string `yaml:"host,omitempty"`
	Port    int    `yaml:"port,omitempty"`
}

// ProjectConfig models .talkshop/config.yaml.
type ProjectConfig struct {
	Version  int            `yaml:"version"`
	Personas PersonaConfig  `yaml:"personas"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Bridge   BridgeConfig   `yaml:"bridge"`
}

// Config holds the runtime configuration for talkshop.
type Config struct {
	// ProjectDir is the directory where the user ran `talkshop` from
	ProjectDir string

	// WorkspacePath is ProjectDir/.talkshop
	WorkspacePath string

	Project ProjectConfig
}

// InitWorkspace creates the .talkshop directory structure in the given project
// directory. This is called when the console or worker starts up.
//
// Structure created:
// .talkshop/
// ├── orders/   <- Saved coffee orders (one JSON file per order)
// ├── logs/     <- Worker log + session transcripts
// ├── state/    <- Persona state persisted between runs
// ├── briefs/   <- Challenge day briefs (markdown)
// └── data/     <- Seed data: catalog, fraud cases
func InitWorkspace(projectDir string) error {
	root := filepath.Join(projectDir, WorkspaceDir)

	dirs := []string{
		filepath.Join(root, "orders"),
		filepath.Join(root, "logs"),
		filepath.Join(root, "state"),
		filepath.Join(root, "briefs"),
		filepath.Join(root, "data"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	if err := ensureProjectConfig(filepath.Join(root, "config.yaml")); err != nil {
		return err
	}

	return nil
}

// NewConfig creates a new Config instance populated with project settings.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:    projectDir,
		WorkspacePath: filepath.Join(projectDir, WorkspaceDir),
		Project:       defaultProjectConfig(),
	}

	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// OrdersDir returns the path where completed coffee orders are written.
func (c *Config) OrdersDir() string {
	return filepath.Join(c.WorkspacePath, "orders")
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.WorkspacePath, "logs")
}

// StateDir returns the path to the persona state directory.
func (c *Config) StateDir() string {
	return filepath.Join(c.WorkspacePath, "state")
}

// BriefsDir returns the directory holding challenge day briefs.
func (c *Config) BriefsDir() string {
	return filepath.Join(c.WorkspacePath, "briefs")
}

// DataDir returns the seed data directory (catalog, fraud cases).
func (c *Config) DataDir() string {
	return filepath.Join(c.WorkspacePath, "data")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.WorkspacePath, "config.yaml")
}

// Pipeline returns the configured voice pipeline settings.
func (c *Config) Pipeline() PipelineConfig {
	return c.Project.Pipeline
}

// DefaultPersona returns the configured default persona identifier.
func (c *Config) DefaultPersona() string {
	return c.Project.Personas.Default
}

// SetDefaultPersona updates the default persona and persists the value back to
// .talkshop/config.yaml. The persona ID is also appended to the available list
// so the console picker can display it on future launches.
func (c *Config) SetDefaultPersona(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("config: persona id is required")
	}
	c.Project.Personas.Default = id
	if !contains(c.Project.Personas.Available, id) {
		c.Project.Personas.Available = append(c.Project.Personas.Available, id)
	}
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Personas: PersonaConfig{
			Default: defaultPersonaID,
		},
		Pipeline: defaultPipelineConfig(),
	}
}

func defaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		STT: STTConfig{Provider: "deepgram", Model: "nova-3"},
		LLM: LLMConfig{Provider: "google", Model: "gemini-2.5-flash"},
		TTS: TTSConfig{
			Provider:       "murf",
			Voice:          "en-US-matthew",
			Style:          "Conversation",
			MinSentenceLen: 2,
			TextPacing:     true,
		},
		TurnDetection:        "multilingual",
		NoiseCancellation:    true,
		PreemptiveGeneration: true,
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	defaults := defaultPipelineConfig()
	if pc.Pipeline.STT.Provider == "" {
		pc.Pipeline.STT = defaults.STT
	}
	if pc.Pipeline.LLM.Provider == "" {
		pc.Pipeline.LLM = defaults.LLM
	}
	if pc.Pipeline.TTS.Provider == "" {
		pc.Pipeline.TTS = defaults.TTS
	}
	if pc.Pipeline.TurnDetection == "" {
		pc.Pipeline.TurnDetection = defaults.TurnDetection
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Personas.Default = strings.TrimSpace(pc.Personas.Default)
	if pc.Personas.Default == "" {
		pc.Personas.Default = defaultPersonaID
	}
	if len(pc.Personas.Available) > 0 && !contains(pc.Personas.Available, pc.Personas.Default) {
		pc.Personas.Available = append(pc.Personas.Available, pc.Personas.Default)
	}
	if pc.Pipeline.TTS.MinSentenceLen <= 0 {
		pc.Pipeline.TTS.MinSentenceLen = 2
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if strings.TrimSpace(pc.Personas.Default) == "" {
		return fmt.Errorf("personas.default is required")
	}
	if pc.Pipeline.STT.Model == "" {
		return fmt.Errorf("pipeline.stt.model is required")
	}
	if pc.Pipeline.LLM.Model == "" {
		return fmt.Errorf("pipeline.llm.model is required")
	}
	if pc.Pipeline.TTS.Voice == "" {
		return fmt.Errorf("pipeline.tts.voice is required")
	}
	if pc.Bridge.Port != 0 && (pc.Bridge.Port < 1 || pc.Bridge.Port > 65535) {
		return fmt.Errorf("bridge.port must be between 1 and 65535")
	}
	return nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.WorkspacePath, 0o755); err != nil {
		return fmt.Errorf("config: ensure workspace dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
