// Package wellness implements the daily check-in persona. It records one
// log entry per day with the caller's mood and objectives, and can recall
// the previous day's entry.
package wellness

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mkerring/talkshop/internal/agent"
	"github.com/mkerring/talkshop/internal/store"
)

const (
	ID      = "wellness"
	Version = "1.0.0"

	dateLayout = "2006-01-02"
)

// Entry is one day's check-in in state/wellness_log.json.
type Entry struct {
	Date       string   `json:"date"`
	Mood       string   `json:"mood"`
	Energy     string   `json:"energy,omitempty"`
	Objectives []string `json:"objectives"`
	Notes      string   `json:"notes,omitempty"`
}

// Agent is the wellness persona. It builds one entry per call.
type Agent struct {
	mu    sync.Mutex
	draft Entry
}

// New returns a wellness coach with an empty draft.
func New() *Agent {
	return &Agent{}
}

func (a *Agent) Info() agent.Info {
	return agent.Info{
		ID:          ID,
		Name:        "Willow",
		Description: "Runs a short daily mood and objectives check-in.",
		Version:     Version,
		Greeting:    "Good to hear from you. How are you feeling today?",
		Instructions: "You are a gentle wellness coach. Ask about mood, gather two or " +
			"three objectives for the day, recall yesterday's entry when useful, and " +
			"save exactly one check-in per day.",
	}
}

func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft = Entry{}
}

// Draft returns a copy of the in-progress entry.
func (a *Agent) Draft() Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.draft
}

func (a *Agent) Tools() []agent.Tool {
	return []agent.Tool{
		{
			Name:        "record_mood",
			Description: "Record how the caller is feeling today.",
			Params: []agent.Param{
				{Name: "mood", Type: agent.ParamString, Required: true},
			},
			Handler: a.recordMood,
		},
		{
			Name:        "record_energy",
			Description: "Record the caller's energy level today.",
			Params: []agent.Param{
				{Name: "energy", Type: agent.ParamString, Required: true},
			},
			Handler: a.recordEnergy,
		},
		{
			Name:        "set_objectives",
			Description: "Replace today's objectives with a comma separated list.",
			Params: []agent.Param{
				{Name: "objectives", Type: agent.ParamString, Required: true},
			},
			Handler: a.setObjectives,
		},
		{
			Name:        "add_objective",
			Description: "Add one more objective to today's list.",
			Params: []agent.Param{
				{Name: "objective", Type: agent.ParamString, Required: true},
			},
			Handler: a.addObjective,
		},
		{
			Name:        "add_note",
			Description: "Attach a free-form note to today's check-in.",
			Params: []agent.Param{
				{Name: "note", Type: agent.ParamString, Required: true},
			},
			Handler: a.addNote,
		},
		{
			Name:        "recall_yesterday",
			Description: "Read back yesterday's mood and objectives.",
			Handler:     a.recallYesterday,
		},
		{
			Name:        "checkin_streak",
			Description: "Report how many days in a row have a saved check-in.",
			Handler:     a.checkinStreak,
		},
		{
			Name:        "save_checkin",
			Description: "Save today's check-in. Replaces an earlier one from today.",
			Handler:     a.saveCheckin,
		},
	}
}

func (a *Agent) recordMood(ctx *agent.Context, args agent.Args) (string, error) {
	mood, err := args.String("mood")
	if err != nil {
		return "", err
	}
	if mood == "" {
		return "", fmt.Errorf("wellness: mood cannot be empty")
	}
	a.mu.Lock()
	a.draft.Mood = strings.ToLower(mood)
	a.mu.Unlock()
	return fmt.Sprintf("Feeling %s, noted.", strings.ToLower(mood)), nil
}

func (a *Agent) recordEnergy(ctx *agent.Context, args agent.Args) (string, error) {
	energy, err := args.String("energy")
	if err != nil {
		return "", err
	}
	if energy == "" {
		return "", fmt.Errorf("wellness: energy cannot be empty")
	}
	a.mu.Lock()
	a.draft.Energy = strings.ToLower(energy)
	a.mu.Unlock()
	return fmt.Sprintf("Energy's %s today, got it.", strings.ToLower(energy)), nil
}

func (a *Agent) addNote(ctx *agent.Context, args agent.Args) (string, error) {
	note, err := args.String("note")
	if err != nil {
		return "", err
	}
	if note == "" {
		return "", fmt.Errorf("wellness: note cannot be empty")
	}
	a.mu.Lock()
	if a.draft.Notes == "" {
		a.draft.Notes = note
	} else {
		a.draft.Notes += " " + note
	}
	a.mu.Unlock()
	return "Noted.", nil
}

func (a *Agent) setObjectives(ctx *agent.Context, args agent.Args) (string, error) {
	raw, err := args.String("objectives")
	if err != nil {
		return "", err
	}
	var objectives []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			objectives = append(objectives, trimmed)
		}
	}
	if len(objectives) == 0 {
		return "", fmt.Errorf("wellness: no objectives given")
	}
	a.mu.Lock()
	a.draft.Objectives = objectives
	a.mu.Unlock()
	return fmt.Sprintf("Set %d objectives for today.", len(objectives)), nil
}

func (a *Agent) addObjective(ctx *agent.Context, args agent.Args) (string, error) {
	objective, err := args.String("objective")
	if err != nil {
		return "", err
	}
	if objective == "" {
		return "", fmt.Errorf("wellness: objective cannot be empty")
	}
	a.mu.Lock()
	a.draft.Objectives = append(a.draft.Objectives, objective)
	count := len(a.draft.Objectives)
	a.mu.Unlock()
	return fmt.Sprintf("Added. That's %d for today.", count), nil
}

func loadLog(ctx *agent.Context) ([]Entry, error) {
	var entries []Entry
	if err := ctx.Store.LoadCollection(store.WellnessLog, &entries); err != nil {
		return nil, fmt.Errorf("wellness: load log: %w", err)
	}
	return entries, nil
}

func (a *Agent) recallYesterday(ctx *agent.Context, args agent.Args) (string, error) {
	entries, err := loadLog(ctx)
	if err != nil {
		return "", err
	}
	yesterday := ctx.Now().AddDate(0, 0, -1).Format(dateLayout)
	for _, entry := range entries {
		if entry.Date == yesterday {
			return fmt.Sprintf("Yesterday you felt %s and planned to: %s.",
				entry.Mood, strings.Join(entry.Objectives, "; ")), nil
		}
	}
	return "I don't have a check-in from yesterday.", nil
}

func (a *Agent) checkinStreak(ctx *agent.Context, args agent.Args) (string, error) {
	entries, err := loadLog(ctx)
	if err != nil {
		return "", err
	}
	dates := make(map[string]bool, len(entries))
	for _, entry := range entries {
		dates[entry.Date] = true
	}
	// Count back from today; a streak may also end yesterday if today's
	// check-in has not been saved yet.
	day := ctx.Now()
	if !dates[day.Format(dateLayout)] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for dates[day.Format(dateLayout)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	if streak == 0 {
		return "No streak yet. Today's check-in is a fine place to start.", nil
	}
	if streak == 1 {
		return "You're on a 1-day streak. Keep it rolling.", nil
	}
	return fmt.Sprintf("You're on a %d-day streak. Keep it rolling.", streak), nil
}

func (a *Agent) saveCheckin(ctx *agent.Context, args agent.Args) (string, error) {
	a.mu.Lock()
	draft := a.draft
	a.mu.Unlock()
	if draft.Mood == "" {
		return "", fmt.Errorf("wellness: record a mood before saving")
	}
	if len(draft.Objectives) == 0 {
		return "", fmt.Errorf("wellness: set at least one objective before saving")
	}
	draft.Date = ctx.Now().Format(dateLayout)

	entries, err := loadLog(ctx)
	if err != nil {
		return "", err
	}
	replaced := false
	for i := range entries {
		if entries[i].Date == draft.Date {
			entries[i] = draft
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, draft)
	}
	if err := ctx.Store.ReplaceCollection(store.WellnessLog, entries); err != nil {
		return "", fmt.Errorf("wellness: save log: %w", err)
	}
	ctx.Note("check-in saved for " + draft.Date)

	a.mu.Lock()
	a.draft = Entry{}
	a.mu.Unlock()
	if replaced {
		return "Updated today's check-in. Go get after it.", nil
	}
	return "Check-in saved. Go get after it.", nil
}

// LatestEntry returns the most recent check-in, used by the console
// status view.
func LatestEntry(ctx *agent.Context) (Entry, bool, error) {
	entries, err := loadLog(ctx)
	if err != nil {
		return Entry{}, false, err
	}
	if len(entries) == 0 {
		return Entry{}, false, nil
	}
	latest := entries[0]
	for _, entry := range entries[1:] {
		if entry.Date > latest.Date {
			latest = entry
		}
	}
	return latest, true, nil
}
