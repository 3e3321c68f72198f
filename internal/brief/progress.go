package brief

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mkerring/talkshop/internal/agent"
	"github.com/mkerring/talkshop/internal/store"
)

const progressAgentID = "challenge"

// DayProgress tracks which of the four steps are done for one day.
type DayProgress struct {
	Steps map[string]bool `json:"steps"`
}

// Complete reports whether all four steps are done.
func (d DayProgress) Complete() bool {
	for _, step := range StepNames {
		if !d.Steps[step] {
			return false
		}
	}
	return true
}

// Progress is the whole state/progress.json file, keyed by day number.
type Progress struct {
	Days map[string]DayProgress `json:"days"`
}

// LoadProgress reads progress from the store, returning an empty tracker
// when none exists yet.
func LoadProgress(ctx *agent.Context) Progress {
	var p Progress
	if _, err := ctx.Store.LoadJSON(store.ProgressJSON, &p); err != nil {
		p = Progress{}
	}
	if p.Days == nil {
		p.Days = make(map[string]DayProgress)
	}
	return p
}

// Save writes the tracker back through the store.
func (p Progress) Save(ctx *agent.Context) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("brief: encode progress: %w", err)
	}
	meta := store.Metadata{AgentID: progressAgentID, Version: "1.0.0", SessionID: ctx.SessionID}
	if err := ctx.Store.WriteJSON(store.ProgressJSON, body, meta); err != nil {
		return fmt.Errorf("brief: save progress: %w", err)
	}
	return nil
}

// MarkStep records one completed step for a day and persists the tracker.
func MarkStep(ctx *agent.Context, day int, step string) (Progress, error) {
	step = strings.ToLower(strings.TrimSpace(step))
	known := false
	for _, name := range StepNames {
		if name == step {
			known = true
			break
		}
	}
	if !known {
		return Progress{}, fmt.Errorf("brief: unknown step %q, want one of %s",
			step, strings.Join(StepNames, ", "))
	}
	if day < 1 {
		return Progress{}, fmt.Errorf("brief: day must be positive, got %d", day)
	}

	p := LoadProgress(ctx)
	key := dayKey(day)
	dp := p.Days[key]
	if dp.Steps == nil {
		dp.Steps = make(map[string]bool)
	}
	dp.Steps[step] = true
	p.Days[key] = dp
	if err := p.Save(ctx); err != nil {
		return Progress{}, err
	}
	return p, nil
}

// Summary renders one line per tracked day, in day order.
func (p Progress) Summary() string {
	if len(p.Days) == 0 {
		return "no steps recorded yet"
	}
	keys := make([]int, 0, len(p.Days))
	for key := range p.Days {
		if day, err := strconv.Atoi(key); err == nil {
			keys = append(keys, day)
		}
	}
	sort.Ints(keys)

	var lines []string
	for _, day := range keys {
		dp := p.Days[dayKey(day)]
		done := 0
		for _, step := range StepNames {
			if dp.Steps[step] {
				done++
			}
		}
		status := fmt.Sprintf("day %d: %d/%d steps", day, done, len(StepNames))
		if dp.Complete() {
			status += " (complete)"
		}
		lines = append(lines, status)
	}
	return strings.Join(lines, "\n")
}

// CompletedDays counts days with all four steps done.
func (p Progress) CompletedDays() int {
	count := 0
	for _, dp := range p.Days {
		if dp.Complete() {
			count++
		}
	}
	return count
}

func dayKey(day int) string {
	return strconv.Itoa(day)
}
