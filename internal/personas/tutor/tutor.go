// Package tutor implements the study coach persona. It quizzes the caller,
// tracks per-topic mastery with attempt counts and a running accuracy, and
// suggests what to practice next.
package tutor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mkerring/talkshop/internal/agent"
	"github.com/mkerring/talkshop/internal/store"
)

const (
	ID      = "tutor"
	Version = "1.0.0"

	// emaWeight is the weight of the newest attempt in the running accuracy.
	emaWeight = 0.3
)

// TopicMastery tracks one topic in state/mastery.json.
type TopicMastery struct {
	Attempts        int       `json:"attempts"`
	Correct         int       `json:"correct"`
	RunningAccuracy float64   `json:"runningAccuracy"`
	LastSeen        time.Time `json:"lastSeen"`
}

// Model is the whole mastery file.
type Model struct {
	Topics map[string]TopicMastery `json:"topics"`
}

// Agent is the tutor persona. All state lives in the mastery file so
// progress survives between calls.
type Agent struct {
	mu sync.Mutex
}

// New returns a tutor.
func New() *Agent {
	return &Agent{}
}

func (a *Agent) Info() agent.Info {
	return agent.Info{
		ID:          ID,
		Name:        "Theo",
		Description: "Tracks study topics and adapts to the caller's accuracy.",
		Version:     Version,
		Greeting:    "Hey, ready for a quick study session? Tell me how the last problem went.",
		Instructions: "You are an encouraging tutor. Record every attempt with whether " +
			"it was correct, steer practice toward the weakest topic, and share the " +
			"mastery report when asked.",
	}
}

func (a *Agent) Reset() {}

func (a *Agent) Tools() []agent.Tool {
	return []agent.Tool{
		{
			Name:        "record_attempt",
			Description: "Record one practice attempt on a topic.",
			Params: []agent.Param{
				{Name: "topic", Type: agent.ParamString, Required: true},
				{Name: "correct", Type: agent.ParamBool, Required: true},
			},
			Handler: a.recordAttempt,
		},
		{
			Name:        "next_topic",
			Description: "Suggest the topic with the weakest running accuracy.",
			Handler:     a.nextTopic,
		},
		{
			Name:        "mastery_report",
			Description: "Read back attempts and accuracy per topic.",
			Handler:     a.masteryReport,
		},
		{
			Name:        "reset_topic",
			Description: "Forget all history for one topic.",
			Params: []agent.Param{
				{Name: "topic", Type: agent.ParamString, Required: true},
			},
			Handler: a.resetTopic,
		},
	}
}

func loadModel(ctx *agent.Context) (Model, error) {
	var m Model
	if _, err := ctx.Store.LoadJSON(store.MasteryJSON, &m); err != nil {
		// Missing file means a fresh model.
		m = Model{}
	}
	if m.Topics == nil {
		m.Topics = make(map[string]TopicMastery)
	}
	return m, nil
}

func saveModel(ctx *agent.Context, m Model) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("tutor: encode mastery: %w", err)
	}
	meta := store.Metadata{AgentID: ID, Version: Version, SessionID: ctx.SessionID}
	if err := ctx.Store.WriteJSON(store.MasteryJSON, body, meta); err != nil {
		return fmt.Errorf("tutor: save mastery: %w", err)
	}
	return nil
}

func (a *Agent) recordAttempt(ctx *agent.Context, args agent.Args) (string, error) {
	topic, err := args.String("topic")
	if err != nil {
		return "", err
	}
	if topic == "" {
		return "", fmt.Errorf("tutor: topic cannot be empty")
	}
	topic = strings.ToLower(topic)
	correct, err := args.Bool("correct")
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	m, err := loadModel(ctx)
	if err != nil {
		return "", err
	}

	tm := m.Topics[topic]
	tm.Attempts++
	score := 0.0
	if correct {
		tm.Correct++
		score = 1.0
	}
	if tm.Attempts == 1 {
		tm.RunningAccuracy = score
	} else {
		tm.RunningAccuracy = emaWeight*score + (1-emaWeight)*tm.RunningAccuracy
	}
	tm.LastSeen = ctx.Now().UTC()
	m.Topics[topic] = tm

	if err := saveModel(ctx, m); err != nil {
		return "", err
	}

	if correct {
		return fmt.Sprintf("Nice, that's %d of %d on %s.", tm.Correct, tm.Attempts, topic), nil
	}
	return fmt.Sprintf("No worries, %s is tricky. We'll circle back to it.", topic), nil
}

func (a *Agent) nextTopic(ctx *agent.Context, args agent.Args) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, err := loadModel(ctx)
	if err != nil {
		return "", err
	}
	if len(m.Topics) == 0 {
		return "We haven't covered anything yet. Pick a topic and record an attempt.", nil
	}

	names := make([]string, 0, len(m.Topics))
	for name := range m.Topics {
		names = append(names, name)
	}
	sort.Strings(names)

	weakest := names[0]
	for _, name := range names[1:] {
		if m.Topics[name].RunningAccuracy < m.Topics[weakest].RunningAccuracy {
			weakest = name
		}
	}
	return fmt.Sprintf("Let's work on %s next, your running accuracy there is %.0f%%.",
		weakest, m.Topics[weakest].RunningAccuracy*100), nil
}

func (a *Agent) masteryReport(ctx *agent.Context, args agent.Args) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, err := loadModel(ctx)
	if err != nil {
		return "", err
	}
	if len(m.Topics) == 0 {
		return "Nothing on the books yet.", nil
	}

	names := make([]string, 0, len(m.Topics))
	for name := range m.Topics {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		tm := m.Topics[name]
		parts = append(parts, fmt.Sprintf("%s: %d/%d correct, running %.0f%%",
			name, tm.Correct, tm.Attempts, tm.RunningAccuracy*100))
	}
	return strings.Join(parts, ". ") + ".", nil
}

func (a *Agent) resetTopic(ctx *agent.Context, args agent.Args) (string, error) {
	topic, err := args.String("topic")
	if err != nil {
		return "", err
	}
	topic = strings.ToLower(topic)

	a.mu.Lock()
	defer a.mu.Unlock()
	m, err := loadModel(ctx)
	if err != nil {
		return "", err
	}
	if _, ok := m.Topics[topic]; !ok {
		return "", fmt.Errorf("tutor: no history for %q", topic)
	}
	delete(m.Topics, topic)
	if err := saveModel(ctx, m); err != nil {
		return "", err
	}
	return fmt.Sprintf("Wiped the slate on %s.", topic), nil
}
