package session

import (
	"fmt"
	"strings"

	"github.com/mkerring/talkshop/internal/config"
)

// Stage identifies one component of the voice pipeline.
type Stage string

const (
	StageSTT Stage = "stt"
	StageLLM Stage = "llm"
	StageTTS Stage = "tts"
)

// Descriptor is the resolved description of one pipeline stage.
type Descriptor struct {
	Stage    Stage
	Provider string
	Model    string
	Options  map[string]string
}

// String renders the descriptor like "stt/deepgram/nova-3".
func (d Descriptor) String() string {
	return fmt.Sprintf("%s/%s/%s", d.Stage, d.Provider, d.Model)
}

// Pipeline is the ordered stage list a session runs with, plus the
// session-level switches from the project config.
type Pipeline struct {
	Stages               []Descriptor
	TurnDetection        string
	NoiseCancellation    bool
	PreemptiveGeneration bool
	MinSentenceLen       int
}

// BuildPipeline resolves the project pipeline config into stage
// descriptors, validating each stage along the way.
func BuildPipeline(pc config.PipelineConfig) (Pipeline, error) {
	stt := Descriptor{
		Stage:    StageSTT,
		Provider: pc.STT.Provider,
		Model:    pc.STT.Model,
		Options:  map[string]string{},
	}
	llm := Descriptor{
		Stage:    StageLLM,
		Provider: pc.LLM.Provider,
		Model:    pc.LLM.Model,
		Options:  map[string]string{},
	}
	tts := Descriptor{
		Stage:    StageTTS,
		Provider: pc.TTS.Provider,
		Model:    pc.TTS.Voice,
		Options: map[string]string{
			"style":       pc.TTS.Style,
			"text_pacing": fmt.Sprintf("%v", pc.TTS.TextPacing),
		},
	}

	p := Pipeline{
		Stages:               []Descriptor{stt, llm, tts},
		TurnDetection:        pc.TurnDetection,
		NoiseCancellation:    pc.NoiseCancellation,
		PreemptiveGeneration: pc.PreemptiveGeneration,
		MinSentenceLen:       pc.TTS.MinSentenceLen,
	}
	if err := p.Validate(); err != nil {
		return Pipeline{}, err
	}
	return p, nil
}

// Validate checks the pipeline is complete enough to start a session.
func (p Pipeline) Validate() error {
	if len(p.Stages) == 0 {
		return fmt.Errorf("session: pipeline has no stages")
	}
	seen := map[Stage]bool{}
	for _, d := range p.Stages {
		if d.Provider == "" {
			return fmt.Errorf("session: %s stage has no provider", d.Stage)
		}
		if d.Model == "" {
			return fmt.Errorf("session: %s stage has no model", d.Stage)
		}
		if seen[d.Stage] {
			return fmt.Errorf("session: duplicate %s stage", d.Stage)
		}
		seen[d.Stage] = true
	}
	for _, required := range []Stage{StageSTT, StageLLM, StageTTS} {
		if !seen[required] {
			return fmt.Errorf("session: pipeline is missing the %s stage", required)
		}
	}
	if p.MinSentenceLen < 1 {
		return fmt.Errorf("session: min sentence length must be at least 1")
	}
	return nil
}

// Describe returns a one-line summary suitable for logs.
func (p Pipeline) Describe() string {
	parts := make([]string, 0, len(p.Stages))
	for _, d := range p.Stages {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, " -> ")
}
