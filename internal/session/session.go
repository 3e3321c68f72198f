package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkerring/talkshop/internal/agent"
	"github.com/mkerring/talkshop/internal/transcript"
)

// State is the lifecycle phase of a session.
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateThinking  State = "thinking"
	StateSpeaking  State = "speaking"
	StateClosed    State = "closed"
)

// ToolCall is one planned tool invocation for a user turn.
type ToolCall struct {
	Name string
	Args agent.Args
}

// Planner maps a final user utterance to the tool calls it implies. When
// no tool applies, it returns an empty plan and a direct reply.
type Planner interface {
	Plan(a agent.Agent, utterance string) (calls []ToolCall, reply string)
}

// Session runs one conversation between a caller and a persona.
type Session struct {
	id       string
	agent    agent.Agent
	ctx      *agent.Context
	pipeline Pipeline
	planner  Planner

	mu         sync.Mutex
	state      State
	turns      int
	onShutdown []func()

	tokenizer  *SentenceTokenizer
	usage      *UsageCollector
	transcript *transcript.Log
	now        func() time.Time
}

// Option customizes a session.
type Option func(*Session)

// WithClock overrides the session clock. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithTranscript attaches a transcript log.
func WithTranscript(tr *transcript.Log) Option {
	return func(s *Session) { s.transcript = tr }
}

// WithUsageCollector overrides the usage collector.
func WithUsageCollector(u *UsageCollector) Option {
	return func(s *Session) { s.usage = u }
}

// WithID fixes the session ID instead of generating one.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// New assembles a session for one persona. The context carries the store
// and config the persona's tools write through.
func New(a agent.Agent, ctx *agent.Context, p Pipeline, planner Planner, opts ...Option) (*Session, error) {
	if a == nil {
		return nil, fmt.Errorf("session: agent is required")
	}
	if ctx == nil {
		return nil, fmt.Errorf("session: context is required")
	}
	if planner == nil {
		return nil, fmt.Errorf("session: planner is required")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		id:        uuid.NewString(),
		agent:     a,
		ctx:       ctx,
		pipeline:  p,
		planner:   planner,
		state:     StateIdle,
		tokenizer: NewSentenceTokenizer(p.MinSentenceLen),
		usage:     NewUsageCollector(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx.SessionID = s.id
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Turns reports how many user turns the session has handled.
func (s *Session) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns
}

// Usage returns the session usage collector.
func (s *Session) Usage() *UsageCollector { return s.usage }

// OnShutdown registers a callback run once when the session closes.
func (s *Session) OnShutdown(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onShutdown = append(s.onShutdown, fn)
}

// Start resets the persona, speaks the greeting and begins listening.
func (s *Session) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return "", fmt.Errorf("session: cannot start from %s", s.state)
	}

	s.agent.Reset()
	greeting := s.agent.Info().Greeting
	if greeting == "" {
		greeting = fmt.Sprintf("Hi, this is %s. How can I help?", s.agent.Info().Name)
	}
	s.speak(greeting)
	s.state = StateListening
	return greeting, nil
}

// HandleUtterance processes one final user utterance and returns the
// persona's reply.
func (s *Session) HandleUtterance(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("session: empty utterance")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateListening {
		return "", fmt.Errorf("session: not listening (state %s)", s.state)
	}
	s.state = StateThinking
	s.turns++
	if s.transcript != nil {
		s.transcript.User("%s", text)
	}
	// Rough stand-in for decoded audio length: one second per two words.
	s.usage.RecordAudio(float64(wordCount(text)) / 2)
	s.usage.RecordTokens(wordCount(text))

	calls, reply := s.planner.Plan(s.agent, text)
	var lines []string
	for _, call := range calls {
		tool, ok := agent.FindTool(s.agent, call.Name)
		if !ok {
			s.state = StateListening
			return "", fmt.Errorf("session: persona %s has no tool %q", s.agent.Info().ID, call.Name)
		}
		s.usage.RecordToolCall()
		if s.transcript != nil {
			s.transcript.Tool("%s(%v)", call.Name, call.Args)
		}
		out, err := tool.Handler(s.ctx, call.Args)
		if err != nil {
			// Tool refusals are spoken back, not fatal.
			out = err.Error()
		}
		if out != "" {
			lines = append(lines, out)
		}
	}
	if reply != "" {
		lines = append(lines, reply)
	}
	if len(lines) == 0 {
		lines = append(lines, "Sorry, I did not catch that.")
	}

	full := strings.Join(lines, " ")
	s.speak(full)
	s.state = StateListening
	return full, nil
}

// speak records a reply on the transcript and usage totals. Callers hold
// the session lock.
func (s *Session) speak(text string) {
	s.state = StateSpeaking
	for _, sentence := range s.tokenizer.Split(text) {
		s.usage.RecordSpeech(sentence)
	}
	if s.transcript != nil {
		s.transcript.Agent("%s", text)
	}
}

// Close ends the session, runs shutdown callbacks and returns the usage
// summary line. Closing twice is an error.
func (s *Session) Close() (string, error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return "", fmt.Errorf("session: already closed")
	}
	s.state = StateClosed
	callbacks := s.onShutdown
	s.onShutdown = nil
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	summary := s.usage.Summary()
	if s.transcript != nil {
		s.transcript.System("%s", summary)
	}
	return summary, nil
}
