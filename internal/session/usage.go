package session

import (
	"fmt"
	"sync"
)

// UsageCollector accumulates per-session pipeline usage so a summary can
// be logged at shutdown.
type UsageCollector struct {
	mu              sync.Mutex
	sttAudioSeconds float64
	llmTokens       int
	ttsCharacters   int
	toolCalls       int
}

// NewUsageCollector returns an empty collector.
func NewUsageCollector() *UsageCollector {
	return &UsageCollector{}
}

// RecordAudio adds transcribed audio duration in seconds.
func (u *UsageCollector) RecordAudio(seconds float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if seconds > 0 {
		u.sttAudioSeconds += seconds
	}
}

// RecordTokens adds language model tokens consumed by one turn.
func (u *UsageCollector) RecordTokens(n int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if n > 0 {
		u.llmTokens += n
	}
}

// RecordSpeech adds synthesized characters for one reply.
func (u *UsageCollector) RecordSpeech(text string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ttsCharacters += len(text)
}

// RecordToolCall counts one tool invocation.
func (u *UsageCollector) RecordToolCall() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.toolCalls++
}

// Usage is a snapshot of collected totals.
type Usage struct {
	STTAudioSeconds float64
	LLMTokens       int
	TTSCharacters   int
	ToolCalls       int
}

// Snapshot returns the current totals.
func (u *UsageCollector) Snapshot() Usage {
	u.mu.Lock()
	defer u.mu.Unlock()
	return Usage{
		STTAudioSeconds: u.sttAudioSeconds,
		LLMTokens:       u.llmTokens,
		TTSCharacters:   u.ttsCharacters,
		ToolCalls:       u.toolCalls,
	}
}

// Summary renders the totals as a single log line.
func (u *UsageCollector) Summary() string {
	s := u.Snapshot()
	return fmt.Sprintf("usage: stt_audio=%.1fs llm_tokens=%d tts_chars=%d tool_calls=%d",
		s.STTAudioSeconds, s.LLMTokens, s.TTSCharacters, s.ToolCalls)
}
