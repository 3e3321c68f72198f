package session

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mkerring/talkshop/internal/agent"
	"github.com/mkerring/talkshop/internal/config"
	"github.com/mkerring/talkshop/internal/store"
	"github.com/mkerring/talkshop/internal/transcript"
)

type fakeAgent struct {
	resets int
	noted  []string
}

func (f *fakeAgent) Info() agent.Info {
	return agent.Info{
		ID:       "fake",
		Name:     "Fake",
		Version:  "1.0.0",
		Greeting: "Welcome in. What can I get started for you?",
	}
}

func (f *fakeAgent) Tools() []agent.Tool {
	return []agent.Tool{
		{
			Name: "note",
			Handler: func(ctx *agent.Context, args agent.Args) (string, error) {
				text := args.StringOr("text", "")
				f.noted = append(f.noted, text)
				return "Noted: " + text + ".", nil
			},
		},
	}
}

func (f *fakeAgent) Reset() { f.resets++ }

type fakePlanner struct{}

func (fakePlanner) Plan(a agent.Agent, utterance string) ([]ToolCall, string) {
	if strings.Contains(utterance, "remember") {
		return []ToolCall{{Name: "note", Args: agent.Args{"text": utterance}}}, ""
	}
	return nil, "Happy to help."
}

func newTestSession(t *testing.T) (*Session, *fakeAgent, *transcript.Log) {
	t.Helper()
	dir := t.TempDir()
	if err := config.InitWorkspace(dir); err != nil {
		t.Fatalf("init workspace: %v", err)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	st := store.New(cfg)
	tr, err := transcript.New(filepath.Join(cfg.LogsDir(), "session.log"))
	if err != nil {
		t.Fatalf("new transcript: %v", err)
	}
	ctx := agent.NewContext(cfg, st, tr, "").WithClock(func() time.Time {
		return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	})

	p, err := BuildPipeline(cfg.Pipeline())
	if err != nil {
		t.Fatalf("build pipeline: %v", err)
	}
	fa := &fakeAgent{}
	s, err := New(fa, ctx, p, fakePlanner{}, WithTranscript(tr))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s, fa, tr
}

func TestSessionLifecycle(t *testing.T) {
	s, fa, _ := newTestSession(t)

	if s.State() != StateIdle {
		t.Fatalf("state = %s, want idle", s.State())
	}
	greeting, err := s.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !strings.Contains(greeting, "Welcome in") {
		t.Fatalf("unexpected greeting %q", greeting)
	}
	if fa.resets != 1 {
		t.Fatalf("agent reset %d times, want 1", fa.resets)
	}
	if s.State() != StateListening {
		t.Fatalf("state = %s, want listening", s.State())
	}

	if _, err := s.Start(); err == nil {
		t.Fatal("expected error starting twice")
	}
}

func TestSessionDispatchesPlannedTools(t *testing.T) {
	s, fa, _ := newTestSession(t)
	if _, err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	reply, err := s.HandleUtterance("please remember the oat milk")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(reply, "Noted") {
		t.Fatalf("reply %q missing tool output", reply)
	}
	if len(fa.noted) != 1 {
		t.Fatalf("tool ran %d times, want 1", len(fa.noted))
	}
	if got := s.Usage().Snapshot().ToolCalls; got != 1 {
		t.Fatalf("tool calls = %d, want 1", got)
	}
	if s.Turns() != 1 {
		t.Fatalf("turns = %d, want 1", s.Turns())
	}
}

func TestSessionRejectsEmptyUtterance(t *testing.T) {
	s, _, _ := newTestSession(t)
	if _, err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.HandleUtterance("   "); err == nil {
		t.Fatal("expected error for empty utterance")
	}
}

func TestSessionCloseRunsShutdownCallbacks(t *testing.T) {
	s, _, tr := newTestSession(t)
	if _, err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	ran := false
	s.OnShutdown(func() { ran = true })

	summary, err := s.Close()
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !ran {
		t.Fatal("shutdown callback did not run")
	}
	if !strings.HasPrefix(summary, "usage:") {
		t.Fatalf("summary %q missing usage prefix", summary)
	}
	if _, err := s.Close(); err == nil {
		t.Fatal("expected error closing twice")
	}

	lines := tr.Tail(10)
	found := false
	for _, line := range lines {
		if strings.Contains(line, "usage:") {
			found = true
		}
	}
	if !found {
		t.Fatal("usage summary missing from transcript")
	}
}
