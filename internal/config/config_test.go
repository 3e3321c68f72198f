package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadProjectConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	workspace := filepath.Join(projectDir, WorkspaceDir)
	if err := os.MkdirAll(workspace, 0755); err != nil {
		t.Fatal(err)
	}
	c := &Config{ProjectDir: projectDir, WorkspacePath: workspace, Project: defaultProjectConfig()}
	if err := c.loadProjectConfig(); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if c.DefaultPersona() != defaultPersonaID {
		t.Fatalf("expected default persona %q, got %q", defaultPersonaID, c.DefaultPersona())
	}
	if c.Pipeline().TTS.Voice != "en-US-matthew" {
		t.Fatalf("expected default voice, got %q", c.Pipeline().TTS.Voice)
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	workspace := filepath.Join(projectDir, WorkspaceDir)
	if err := os.MkdirAll(workspace, 0755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
personas:
  default: grocer
  available:
    - barista
    - grocer
pipeline:
  stt:
    provider: deepgram
    model: nova-3
  llm:
    provider: google
    model: gemini-2.5-flash
  tts:
    provider: murf
    voice: en-US-natalie
    style: Conversation
    min_sentence_len: 3
    text_pacing: true
bridge:
  port: 9100
`)
	if err := os.WriteFile(filepath.Join(workspace, "config.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}
	c := &Config{ProjectDir: projectDir, WorkspacePath: workspace, Project: defaultProjectConfig()}
	if err := c.loadProjectConfig(); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if c.DefaultPersona() != "grocer" {
		t.Fatalf("wrong default persona: %s", c.DefaultPersona())
	}
	if c.Pipeline().TTS.Voice != "en-US-natalie" {
		t.Fatalf("expected voice override, got %s", c.Pipeline().TTS.Voice)
	}
	if c.Pipeline().TTS.MinSentenceLen != 3 {
		t.Fatalf("expected min sentence len 3, got %d", c.Pipeline().TTS.MinSentenceLen)
	}
	if c.Project.Bridge.Port != 9100 {
		t.Fatalf("expected bridge port 9100, got %d", c.Project.Bridge.Port)
	}
}

func TestLoadProjectConfigValidation(t *testing.T) {
	projectDir := t.TempDir()
	workspace := filepath.Join(projectDir, WorkspaceDir)
	if err := os.MkdirAll(workspace, 0755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
bridge:
  port: 700000
`)
	if err := os.WriteFile(filepath.Join(workspace, "config.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}
	c := &Config{ProjectDir: projectDir, WorkspacePath: workspace, Project: defaultProjectConfig()}
	if err := c.loadProjectConfig(); err == nil {
		t.Fatalf("expected validation error but got none")
	}
}

func TestInitWorkspaceCreatesLayout(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitWorkspace(projectDir); err != nil {
		t.Fatalf("InitWorkspace: %v", err)
	}
	for _, dir := range []string{"orders", "logs", "state", "briefs", "data"} {
		if _, err := os.Stat(filepath.Join(projectDir, WorkspaceDir, dir)); err != nil {
			t.Fatalf("expected %s dir: %v", dir, err)
		}
	}
	if _, err := os.Stat(filepath.Join(projectDir, WorkspaceDir, "config.yaml")); err != nil {
		t.Fatalf("expected seeded config.yaml: %v", err)
	}
}

func TestLoadCredentialsReadsDotenv(t *testing.T) {
	projectDir := t.TempDir()
	envFile := "DEEPGRAM_API_KEY=dg-test\nMURF_API_KEY=murf-test\n"
	if err := os.WriteFile(filepath.Join(projectDir, EnvFile), []byte(envFile), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DEEPGRAM_API_KEY", "")
	t.Setenv("MURF_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "g-test")
	creds, err := LoadCredentials(projectDir)
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if creds.GoogleAPIKey != "g-test" {
		t.Fatalf("expected google key from env, got %q", creds.GoogleAPIKey)
	}
	missing := creds.MissingProviderKeys()
	if creds.HasProviderKeys() != (len(missing) == 0) {
		t.Fatalf("HasProviderKeys inconsistent with MissingProviderKeys: %v", missing)
	}
}
