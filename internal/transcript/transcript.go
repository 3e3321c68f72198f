package transcript

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Speaker tags who produced a transcript entry.
type Speaker string

const (
	SpeakerUser   Speaker = "USER"
	SpeakerAgent  Speaker = "AGENT"
	SpeakerTool   Speaker = "TOOL"
	SpeakerSystem Speaker = "SYS"
)

// Log persists a session transcript to a simple text file.
type Log struct {
	path string
	mu   sync.Mutex
}

// New creates a transcript log that writes to the provided path.
func New(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Log{path: path}, nil
}

// Path returns the file backing this transcript.
func (l *Log) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes a single entry to the transcript.
func (l *Log) Append(speaker Speaker, message string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf("%s %-5s %s\n",
		time.Now().UTC().Format(time.RFC3339),
		string(speaker),
		strings.TrimSpace(message),
	)
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(line)
}

// Tail returns up to maxLines of the most recent transcript entries.
func (l *Log) Tail(maxLines int) []string {
	if l == nil || maxLines <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) == 0 {
		return nil
	}
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines
}

// User records an utterance from the human participant.
func (l *Log) User(format string, args ...any) {
	l.Append(SpeakerUser, fmt.Sprintf(format, args...))
}

// Agent records a spoken agent reply.
func (l *Log) Agent(format string, args ...any) {
	l.Append(SpeakerAgent, fmt.Sprintf(format, args...))
}

// Tool records a tool invocation result.
func (l *Log) Tool(format string, args ...any) {
	l.Append(SpeakerTool, fmt.Sprintf(format, args...))
}

// System records session lifecycle notes.
func (l *Log) System(format string, args ...any) {
	l.Append(SpeakerSystem, fmt.Sprintf(format, args...))
}
