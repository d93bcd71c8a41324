package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"annotator/internal/adapters/tui/views"
	"annotator/internal/application"
	"annotator/internal/ports"
)

// ViewState represents the current view
type ViewState int

const (
	ViewWizard ViewState = iota
	ViewHelp
)

// App is the main TUI application model
type App struct {
	state  ViewState
	wizard *views.WizardModel
	help   *views.HelpModel

	width  int
	height int
}

// NewApp creates a TUI over a loaded editor session. opener and viewer may be nil.
func NewApp(session *application.Editor, store ports.AnnotationStore, opener ports.TextEditor, viewer ports.AttachmentViewer) *App {
	wizard := views.NewWizardModel(session, store, opener)
	if viewer != nil {
		wizard.SetViewer(viewer)
	}
	return &App{
		state:  ViewWizard,
		wizard: wizard,
		help:   views.NewHelpModel(),
	}
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return a.wizard.Init()
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.wizard.SetSize(msg.Width, msg.Height)
		a.help.SetSize(msg.Width, msg.Height)
		return a, nil

	case views.SwitchToHelpMsg:
		a.state = ViewHelp
		return a, nil

	case views.SwitchToWizardMsg:
		a.state = ViewWizard
		return a, nil

	case tea.KeyMsg:
		// keys go to the visible view only
		var cmd tea.Cmd
		if a.state == ViewHelp {
			_, cmd = a.help.Update(msg)
		} else {
			_, cmd = a.wizard.Update(msg)
		}
		return a, cmd
	}

	// results of background work always belong to the wizard
	_, cmd := a.wizard.Update(msg)
	return a, cmd
}

// View renders the current view
func (a *App) View() string {
	if a.state == ViewHelp {
		return a.help.View()
	}
	return a.wizard.View()
}
