package transcript

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestTailReturnsRecentEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.log")
	log, err := New(path)
	if err != nil {
		t.Fatalf("new transcript: %v", err)
	}
	log.System("session opened")
	for i := 0; i < 4; i++ {
		log.User("utterance-%d", i)
	}
	lines := log.Tail(3)
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"utterance-1", "utterance-2", "utterance-3"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestAppendTagsSpeakers(t *testing.T) {
	dir := t.TempDir()
	log, err := New(filepath.Join(dir, "session.log"))
	if err != nil {
		t.Fatalf("new transcript: %v", err)
	}
	log.Agent("Welcome to StarBeam Coffee!")
	log.Tool("update_drink_type -> latte")
	lines := log.Tail(2)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], string(SpeakerAgent)) {
		t.Fatalf("first line missing agent tag: %q", lines[0])
	}
	if !strings.Contains(lines[1], string(SpeakerTool)) {
		t.Fatalf("second line missing tool tag: %q", lines[1])
	}
}
