package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"annotator/internal/adapters/tui/styles"
)

// HelpKeyMap defines key bindings for the help view
type HelpKeyMap struct {
	Close key.Binding
}

var HelpKeys = HelpKeyMap{
	Close: key.NewBinding(
		key.WithKeys("esc", "q", "?"),
		key.WithHelp("esc/q/?", "close"),
	),
}

// HelpModel is the model for the help view
type HelpModel struct {
	ViewState
}

// NewHelpModel creates a new help view model
func NewHelpModel() *HelpModel {
	return &HelpModel{}
}

// Init initializes the help view
func (m *HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view
func (m *HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, HelpKeys.Close) {
			return m, func() tea.Msg {
				return SwitchToWizardMsg{}
			}
		}
	}

	return m, nil
}

// View renders the help view
func (m *HelpModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Annotator Help"))
	b.WriteString("\n\n")

	b.WriteString(styles.Subtitle.Render("Annotate one or many objects at once"))
	b.WriteString("\n\n")

	b.WriteString(styles.InputLabel.Render("Navigation"))
	b.WriteString("\n")
	b.WriteString(helpBinding(WizardKeys.Up))
	b.WriteString(helpBinding(WizardKeys.Down))
	b.WriteString(helpBinding(WizardKeys.NextKind))
	b.WriteString(helpBinding(WizardKeys.PrevKind))
	b.WriteString("\n")

	b.WriteString(styles.InputLabel.Render("Annotations"))
	b.WriteString("\n")
	b.WriteString(helpBinding(WizardKeys.Toggle))
	b.WriteString(helpBinding(WizardKeys.New))
	b.WriteString(helpBinding(WizardKeys.Edit))
	b.WriteString(helpBinding(WizardKeys.Copy))
	b.WriteString(helpBinding(WizardKeys.Open))
	b.WriteString(helpBinding(WizardKeys.Rate))
	b.WriteString(helpBinding(WizardKeys.Publish))
	b.WriteString("\n")

	b.WriteString(styles.InputLabel.Render("General"))
	b.WriteString("\n")
	b.WriteString(helpBinding(WizardKeys.Save))
	b.WriteString(helpLine("?", "Toggle help"))
	b.WriteString(helpLine("q / Ctrl+C", "Quit"))
	b.WriteString("\n")

	b.WriteString(styles.InputLabel.Render("Row markers"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("  " + styles.CheckOn + "    on every selected object"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("  " + styles.CheckPartial + "    on some of them; left alone unless toggled"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("  (locked) linked by another user"))
	b.WriteString("\n\n")

	b.WriteString(styles.HelpDesc.Render("Press "))
	b.WriteString(styles.HelpKey.Render("esc"))
	b.WriteString(styles.HelpDesc.Render(" or "))
	b.WriteString(styles.HelpKey.Render("?"))
	b.WriteString(styles.HelpDesc.Render(" to close"))

	return styles.App.Render(b.String())
}

func helpBinding(kb key.Binding) string {
	h := kb.Help()
	return helpLine(h.Key, h.Desc)
}

func helpLine(key, desc string) string {
	return "  " + styles.HelpKey.Render(padRight(key, 20)) + styles.HelpDesc.Render(desc) + "\n"
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}
