// internal/tui/console.go
//
// The talkshop console: a text stand-in for a voice call. It follows
// bubbletea's Elm architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mkerring/talkshop/internal/agent"
	"github.com/mkerring/talkshop/internal/config"
	"github.com/mkerring/talkshop/internal/intent"
	"github.com/mkerring/talkshop/internal/personas"
	"github.com/mkerring/talkshop/internal/session"
	"github.com/mkerring/talkshop/internal/store"
	"github.com/mkerring/talkshop/internal/transcript"
)

// appState represents which "screen" we're on
type appState int

const (
	statePersonaPicker appState = iota // Choosing who answers the call
	stateChatting                      // Mid-call with a persona
	stateEnded                         // Call closed, usage summary shown
)

const maxChatLines = 200

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	agentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	userStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	toolStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// personaItem implements list.Item for the persona picker.
type personaItem struct {
	id    string
	title string
	desc  string
}

func (i personaItem) Title() string       { return i.title }
func (i personaItem) Description() string { return i.desc }
func (i personaItem) FilterValue() string { return i.id }

// App is the console application model.
type App struct {
	state    appState
	config   *config.Config
	store    *store.Store
	registry *agent.Registry
	planner  session.Planner

	picker  list.Model
	input   textinput.Model
	session *session.Session
	current agent.Agent

	chatLines []string
	summary   string
	err       error

	width  int
	height int
}

// AppOption customizes App construction for tests.
type AppOption func(*App)

// WithPlanner overrides the default keyword planner.
func WithPlanner(p session.Planner) AppOption {
	return func(a *App) {
		if p != nil {
			a.planner = p
		}
	}
}

// WithRegistry overrides the default persona registry.
func WithRegistry(reg *agent.Registry) AppOption {
	return func(a *App) {
		if reg != nil {
			a.registry = reg
		}
	}
}

// NewApp builds the console for a project directory.
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	if err := config.InitWorkspace(projectDir); err != nil {
		return nil, err
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}

	app := &App{
		state:    statePersonaPicker,
		config:   cfg,
		store:    store.New(cfg),
		registry: personas.NewRegistry(),
		planner:  intent.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}

	items := make([]list.Item, 0, app.registry.Len())
	for _, id := range app.registry.IDs() {
		a, err := app.registry.Resolve(id)
		if err != nil {
			return nil, err
		}
		info := a.Info()
		items = append(items, personaItem{id: info.ID, title: info.Name, desc: info.Description})
	}
	picker := list.New(items, list.NewDefaultDelegate(), 0, 0)
	picker.Title = "☎ TALKSHOP — who picks up?"
	picker.SetShowStatusBar(false)
	picker.SetFilteringEnabled(false)
	app.picker = picker

	input := textinput.New()
	input.Placeholder = "say something..."
	input.CharLimit = 280
	app.input = input

	// Preselect the configured default persona.
	def := cfg.DefaultPersona()
	for i, item := range items {
		if item.(personaItem).id == def {
			app.picker.Select(i)
			break
		}
	}
	return app, nil
}

// Init satisfies tea.Model.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update routes messages to the active screen.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.picker.SetSize(msg.Width-2, msg.Height-4)
		a.input.Width = msg.Width - 4
		return a, nil
	case tea.KeyMsg:
		switch a.state {
		case statePersonaPicker:
			return a.updatePicker(msg)
		case stateChatting:
			return a.updateChat(msg)
		case stateEnded:
			if msg.Type == tea.KeyEnter || msg.String() == "q" {
				return a, tea.Quit
			}
			return a, nil
		}
	}

	var cmd tea.Cmd
	if a.state == statePersonaPicker {
		a.picker, cmd = a.picker.Update(msg)
	}
	return a, cmd
}

func (a *App) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return a, tea.Quit
	case "enter":
		item, ok := a.picker.SelectedItem().(personaItem)
		if !ok {
			return a, nil
		}
		if err := a.startCall(item.id); err != nil {
			a.err = err
			return a, nil
		}
		a.state = stateChatting
		a.input.Focus()
		return a, textinput.Blink
	}
	var cmd tea.Cmd
	a.picker, cmd = a.picker.Update(msg)
	return a, cmd
}

func (a *App) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		a.endCall()
		return a, tea.Quit
	case "esc":
		a.endCall()
		a.state = stateEnded
		return a, nil
	case "enter":
		text := strings.TrimSpace(a.input.Value())
		a.input.Reset()
		if text == "" {
			return a, nil
		}
		if text == "/bye" || text == "/quit" {
			a.endCall()
			a.state = stateEnded
			return a, nil
		}
		a.pushLine(userStyle.Render("you: " + text))
		reply, err := a.session.HandleUtterance(text)
		if err != nil {
			a.pushLine(errorStyle.Render("! " + err.Error()))
			return a, nil
		}
		a.pushLine(agentStyle.Render(a.current.Info().Name + ": " + reply))
		return a, nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// startCall wires a session for the chosen persona.
func (a *App) startCall(personaID string) error {
	chosen, err := a.registry.Resolve(personaID)
	if err != nil {
		return err
	}
	tr, err := transcript.New(filepath.Join(a.config.LogsDir(), "console.log"))
	if err != nil {
		return err
	}
	ctx := agent.NewContext(a.config, a.store, tr, "")
	pipeline, err := session.BuildPipeline(a.config.Pipeline())
	if err != nil {
		return err
	}
	sess, err := session.New(chosen, ctx, pipeline, a.planner, session.WithTranscript(tr))
	if err != nil {
		return err
	}

	greeting, err := sess.Start()
	if err != nil {
		return err
	}
	a.session = sess
	a.current = chosen
	a.chatLines = nil
	a.pushLine(toolStyle.Render("pipeline: " + pipeline.Describe()))
	a.pushLine(agentStyle.Render(chosen.Info().Name + ": " + greeting))
	return nil
}

func (a *App) endCall() {
	if a.session == nil {
		return
	}
	summary, err := a.session.Close()
	if err == nil {
		a.summary = summary
	}
	a.session = nil
}

func (a *App) pushLine(line string) {
	a.chatLines = append(a.chatLines, line)
	if len(a.chatLines) > maxChatLines {
		a.chatLines = a.chatLines[len(a.chatLines)-maxChatLines:]
	}
}

// View renders the active screen.
func (a *App) View() string {
	switch a.state {
	case statePersonaPicker:
		view := a.picker.View()
		if a.err != nil {
			view += "\n" + errorStyle.Render(a.err.Error())
		}
		return view
	case stateChatting:
		var b strings.Builder
		b.WriteString(titleStyle.Render("☎ on the line with "+a.current.Info().Name) + "\n\n")
		start := 0
		if a.height > 8 && len(a.chatLines) > a.height-8 {
			start = len(a.chatLines) - (a.height - 8)
		}
		for _, line := range a.chatLines[start:] {
			b.WriteString(line + "\n")
		}
		b.WriteString("\n" + a.input.View() + "\n")
		b.WriteString(helpStyle.Render("enter to talk · /bye or esc to hang up"))
		return b.String()
	case stateEnded:
		var b strings.Builder
		b.WriteString(titleStyle.Render("call ended") + "\n")
		if a.summary != "" {
			b.WriteString(summaryStyle.Render(a.summary) + "\n")
		}
		b.WriteString(helpStyle.Render("enter or q to exit"))
		return b.String()
	}
	return ""
}

// Run starts the console and blocks until it exits.
func Run(projectDir string) error {
	app, err := NewApp(projectDir)
	if err != nil {
		return err
	}
	program := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
