package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"annotator/internal/adapters/editor"
	"annotator/internal/adapters/tui/styles"
	"annotator/internal/application"
	"annotator/internal/application/commands"
	"annotator/internal/domain"
	"annotator/internal/ports"
)

// WizardKinds are the kinds the wizard offers, in tab order
var WizardKinds = []domain.Kind{
	domain.KindTag,
	domain.KindAttachment,
	domain.KindMap,
	domain.KindTerm,
	domain.KindLong,
	domain.KindDouble,
	domain.KindTime,
	domain.KindXML,
}

// WizardKeyMap defines key bindings for the selection wizard
type WizardKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Toggle   key.Binding
	NextKind key.Binding
	PrevKind key.Binding
	New      key.Binding
	Edit     key.Binding
	Copy     key.Binding
	Open     key.Binding
	Rate     key.Binding
	Publish  key.Binding
	Save     key.Binding
	Help     key.Binding
	Quit     key.Binding
	Cancel   key.Binding
	Submit   key.Binding
}

var WizardKeys = WizardKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "space", "x"),
		key.WithHelp("space/x", "toggle"),
	),
	NextKind: key.NewBinding(
		key.WithKeys("tab", "l", "right"),
		key.WithHelp("tab", "next kind"),
	),
	PrevKind: key.NewBinding(
		key.WithKeys("shift+tab", "h", "left"),
		key.WithHelp("shift+tab", "previous kind"),
	),
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit description"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy selected"),
	),
	Open: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open attachment"),
	),
	Rate: key.NewBinding(
		key.WithKeys("0", "1", "2", "3", "4", "5"),
		key.WithHelp("0-5", "rate"),
	),
	Publish: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "publish"),
	),
	Save: key.NewBinding(
		key.WithKeys("enter", "ctrl+s"),
		key.WithHelp("enter", "save"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "add"),
	),
}

// rowState is the check state of one annotation across the selection
type rowState int

const (
	rowOff rowState = iota
	rowPartial
	rowOn
)

type row struct {
	annotation *domain.Annotation
	state      rowState
	// locked rows are linked by another user and cannot be unlinked here
	locked bool
}

// WizardModel lets the user pick the annotations of one kind for every
// selected object, then saves the reconciled changes
type WizardModel struct {
	ViewState
	session *application.Editor
	store   ports.AnnotationStore
	opener  ports.TextEditor
	viewer  ports.AttachmentViewer

	kinds     []domain.Kind
	kindIdx   int
	available map[domain.Kind][]*domain.Annotation
	rows      []row
	cursor    int

	input    textinput.Model
	entering bool
	prompt   *Prompt
	saving   bool
	touched  bool
}

// NewWizardModel creates a wizard over a loaded editor session.
// opener may be nil, which disables description editing.
func NewWizardModel(session *application.Editor, store ports.AnnotationStore, opener ports.TextEditor) *WizardModel {
	input := textinput.New()
	input.CharLimit = 256

	m := &WizardModel{
		session:   session,
		store:     store,
		opener:    opener,
		kinds:     WizardKinds,
		available: make(map[domain.Kind][]*domain.Annotation),
		input:     input,
	}
	m.refresh()
	return m
}

// SetViewer enables opening attachment files
func (m *WizardModel) SetViewer(v ports.AttachmentViewer) {
	m.viewer = v
}

// Kind returns the kind being edited
func (m *WizardModel) Kind() domain.Kind {
	return m.kinds[m.kindIdx]
}

// Init loads the annotations of the first kind that exist in the store
func (m *WizardModel) Init() tea.Cmd {
	return m.loadAvailable(m.Kind())
}

type availableLoadedMsg struct {
	kind        domain.Kind
	annotations []*domain.Annotation
	err         error
}

type savedMsg struct {
	result *domain.SaveResult
	err    error
}

type attachmentOpenedMsg struct {
	name string
	err  error
}

type draftEditedMsg struct {
	annotation *domain.Annotation
	path       string
	err        error
}

func (m *WizardModel) loadAvailable(kind domain.Kind) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		list, err := store.ListAnnotations(context.Background(), kind)
		return availableLoadedMsg{kind: kind, annotations: list, err: err}
	}
}

// Update handles messages for the wizard
func (m *WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case availableLoadedMsg:
		if msg.err != nil {
			m.SetMessage(fmt.Sprintf("cannot list %s annotations: %v", msg.kind, msg.err), true)
			return m, nil
		}
		m.available[msg.kind] = msg.annotations
		m.refresh()
		return m, nil

	case savedMsg:
		m.saving = false
		if msg.err != nil {
			m.SetMessage(msg.err.Error(), true)
			return m, nil
		}
		m.touched = false
		m.available = make(map[domain.Kind][]*domain.Annotation)
		m.refresh()
		if msg.result.Changed() == 0 {
			m.SetMessage("Nothing to save", false)
		} else {
			m.SetMessage(fmt.Sprintf("Saved: %d linked, %d unlinked, %d updated",
				msg.result.Added, msg.result.Removed, msg.result.Updated), false)
		}
		return m, m.loadAvailable(m.Kind())

	case draftEditedMsg:
		return m, m.applyDraft(msg)

	case attachmentOpenedMsg:
		if msg.err != nil {
			m.SetMessage(fmt.Sprintf("cannot open %s: %v", msg.name, msg.err), true)
		}
		return m, nil

	case tea.KeyMsg:
		if m.prompt != nil {
			done, cmd := m.prompt.HandleKey(msg, DefaultConfirmKeys)
			if done {
				m.prompt = nil
			}
			return m, cmd
		}
		if m.entering {
			return m, m.updateInput(msg)
		}
		if m.saving {
			return m, nil
		}
		return m, m.handleKey(msg)
	}

	return m, nil
}

func (m *WizardModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	m.ClearMessage()

	switch {
	case key.Matches(msg, WizardKeys.Quit):
		if m.touched {
			m.prompt = &Prompt{Question: "Discard unsaved changes?", OnConfirm: tea.Quit}
			return nil
		}
		return tea.Quit

	case key.Matches(msg, WizardKeys.Help):
		return func() tea.Msg { return SwitchToHelpMsg{} }

	case key.Matches(msg, WizardKeys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, WizardKeys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, WizardKeys.NextKind):
		return m.switchKind(1)

	case key.Matches(msg, WizardKeys.PrevKind):
		return m.switchKind(-1)

	case key.Matches(msg, WizardKeys.Toggle):
		m.toggle()

	case key.Matches(msg, WizardKeys.New):
		m.entering = true
		m.input.Placeholder = fmt.Sprintf("new %s", m.Kind())
		m.input.SetValue("")
		m.input.Focus()
		return textinput.Blink

	case key.Matches(msg, WizardKeys.Edit):
		return m.editDescription()

	case key.Matches(msg, WizardKeys.Copy):
		m.copySelected()

	case key.Matches(msg, WizardKeys.Open):
		return m.openAttachment()

	case key.Matches(msg, WizardKeys.Rate):
		stars := int(msg.String()[0] - '0')
		if err := m.session.SetRating(stars); err != nil {
			m.SetMessage(err.Error(), true)
			return nil
		}
		m.touched = true

	case key.Matches(msg, WizardKeys.Publish):
		m.session.SetPublished(!m.session.Published())
		m.touched = true

	case key.Matches(msg, WizardKeys.Save):
		m.saving = true
		m.SetMessage("Saving...", false)
		session := m.session
		return func() tea.Msg {
			result, err := session.Save(context.Background())
			return savedMsg{result: result, err: err}
		}
	}
	return nil
}

func (m *WizardModel) updateInput(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, WizardKeys.Cancel):
		m.entering = false
		m.input.Blur()
		return nil
	case key.Matches(msg, WizardKeys.Submit):
		m.entering = false
		m.input.Blur()
		m.addValue(m.input.Value())
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *WizardModel) switchKind(step int) tea.Cmd {
	m.kindIdx = (m.kindIdx + step + len(m.kinds)) % len(m.kinds)
	m.cursor = 0
	m.refresh()
	if _, ok := m.available[m.Kind()]; ok {
		return nil
	}
	return m.loadAvailable(m.Kind())
}

// toggle links the row to every selected object, or unlinks it when it is
// already on all of them
func (m *WizardModel) toggle() {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return
	}
	r := m.rows[m.cursor]

	var err error
	if r.state == rowOn {
		if r.locked {
			m.SetMessage("linked by another user; it stays on the objects", true)
		}
		err = m.session.Remove(r.annotation)
	} else {
		err = m.session.Add(r.annotation)
	}
	if err != nil {
		m.SetMessage(err.Error(), true)
		return
	}
	m.touched = true
	m.refresh()
}

func (m *WizardModel) addValue(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	value, err := commands.ParseValue(m.Kind(), text)
	if err != nil {
		m.SetMessage(err.Error(), true)
		return
	}

	wanted := domain.Annotation{Value: value}
	for _, r := range m.rows {
		if r.annotation.DisplayValue() == wanted.DisplayValue() {
			if r.state == rowOn {
				return
			}
			if err := m.session.Add(r.annotation); err != nil {
				m.SetMessage(err.Error(), true)
				return
			}
			m.touched = true
			m.refresh()
			return
		}
	}

	if err := m.session.Add(domain.NewAnnotation(value, m.session.User())); err != nil {
		m.SetMessage(err.Error(), true)
		return
	}
	m.touched = true
	m.refresh()
	m.cursor = len(m.rows) - 1
}

func (m *WizardModel) editDescription() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	r := m.rows[m.cursor]
	tag, ok := r.annotation.Value.(domain.TagValue)
	switch {
	case !ok:
		m.SetMessage("only tags have a description", true)
		return nil
	case r.state == rowOff:
		m.SetMessage("select the tag before editing it", true)
		return nil
	case m.opener == nil:
		m.SetMessage("no editor configured", true)
		return nil
	}

	path, err := editor.WriteDraft(tag.Description)
	if err != nil {
		m.SetMessage(err.Error(), true)
		return nil
	}
	cmd, err := m.opener.Command(path)
	if err != nil {
		m.SetMessage(err.Error(), true)
		return nil
	}
	a := r.annotation
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return draftEditedMsg{annotation: a, path: path, err: err}
	})
}

func (m *WizardModel) applyDraft(msg draftEditedMsg) tea.Cmd {
	if msg.err != nil {
		m.SetMessage(fmt.Sprintf("editor failed: %v", msg.err), true)
		return nil
	}
	text, err := editor.ReadDraft(msg.path)
	if err != nil {
		m.SetMessage(err.Error(), true)
		return nil
	}
	m.setDescription(msg.annotation, text)
	return nil
}

// setDescription changes the description of a tag shown in the listing
func (m *WizardModel) setDescription(a *domain.Annotation, description string) {
	tag, ok := a.Value.(domain.TagValue)
	if !ok || tag.Description == description {
		return
	}
	tag.Description = description

	if !a.Persisted() {
		// unsaved tags are ours; edit them in place
		a.Value = tag
	} else {
		edited := a.Clone()
		edited.Value = tag
		m.session.MarkModified(edited)
	}
	m.touched = true
	m.refresh()
	m.SetMessage("Description updated", false)
}

func (m *WizardModel) openAttachment() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	file, ok := m.rows[m.cursor].annotation.Value.(domain.FileValue)
	switch {
	case !ok:
		m.SetMessage("only attachments can be opened", true)
		return nil
	case m.viewer == nil:
		m.SetMessage("no viewer configured", true)
		return nil
	}
	viewer := m.viewer
	return func() tea.Msg {
		return attachmentOpenedMsg{name: file.Name, err: viewer.Open(file.Name)}
	}
}

func (m *WizardModel) copySelected() {
	var values []string
	for _, r := range m.rows {
		if r.state == rowOn {
			values = append(values, r.annotation.DisplayValue())
		}
	}
	if len(values) == 0 {
		m.SetMessage("nothing selected", true)
		return
	}
	if err := clipboard.WriteAll(strings.Join(values, "\n")); err != nil {
		m.SetMessage(fmt.Sprintf("clipboard: %v", err), true)
		return
	}
	m.SetMessage(fmt.Sprintf("Copied %d values", len(values)), false)
}

// refresh rebuilds the rows of the current kind from the session listing,
// the loaded index and the annotations known to the store
func (m *WizardModel) refresh() {
	kind := m.Kind()
	idx := m.session.Index()
	size := idx.Selection().Size()
	listing := m.session.Listing(kind)
	perms := domain.LinkPermissions{Index: idx}

	var rows []row
	add := func(a *domain.Annotation) {
		for _, r := range rows {
			if same(r.annotation, a) {
				return
			}
		}
		rows = append(rows, row{annotation: a})
	}

	// listed instances first so that edited copies win
	for _, a := range m.session.Applied(kind) {
		add(a)
	}
	for _, a := range idx.AllOfKind(kind) {
		add(a)
	}
	for _, a := range m.available[kind] {
		add(a)
	}

	for i, r := range rows {
		n := 0
		for _, e := range listing {
			if same(e.Annotation, r.annotation) {
				n++
			}
		}
		switch {
		case size > 0 && n >= size:
			rows[i].state = rowOn
		case n > 0:
			rows[i].state = rowPartial
		}
		rows[i].locked = idx.LinkCount(r.annotation) > 0 && !perms.CanDeleteLink(r.annotation)
	}

	m.rows = rows
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
}

func same(a, b *domain.Annotation) bool {
	return a == b || (a.Persisted() && b.Persisted() && a.ID == b.ID)
}

// View renders the wizard
func (m *WizardModel) View() string {
	var b strings.Builder

	sel := m.session.Selection()
	b.WriteString(styles.Title.Render(fmt.Sprintf("Annotate %d objects", sel.Size())))
	b.WriteString("\n")
	b.WriteString(styles.Subtitle.Render(describeSelection(sel)))
	b.WriteString("\n\n")

	for i, k := range m.kinds {
		if i == m.kindIdx {
			b.WriteString(styles.TabActive.Render(k.String()))
		} else {
			b.WriteString(styles.Tab.Render(k.String()))
		}
	}
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("No %s annotations yet. Press n to add one.", m.Kind())))
		b.WriteString("\n")
	}
	for i, r := range m.rows {
		b.WriteString(m.renderRow(r, i == m.cursor))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.entering {
		b.WriteString(styles.InputLabel.Render("New " + m.Kind().String()))
		b.WriteString("\n")
		b.WriteString(styles.InputFocused.Render(m.input.View()))
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderStatus())
	b.WriteString("\n")

	if m.prompt != nil {
		b.WriteString(m.prompt.Render())
		b.WriteString("\n")
	} else if msg := m.RenderMessage(); msg != "" {
		b.WriteString(msg)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderHints(WizardKeys.Toggle, WizardKeys.NextKind, WizardKeys.New, WizardKeys.Save, WizardKeys.Help, WizardKeys.Quit))

	return styles.App.Render(b.String())
}

func (m *WizardModel) renderRow(r row, selected bool) string {
	var check string
	style := styles.Row
	switch r.state {
	case rowOn:
		check = styles.Checked.Render(styles.CheckOn)
	case rowPartial:
		check = styles.Partial.Render(styles.CheckPartial)
	default:
		check = styles.CheckOff
	}

	text := r.annotation.DisplayValue()
	if tag, ok := r.annotation.Value.(domain.TagValue); ok && tag.Description != "" {
		text += "  " + styles.MutedText.Render(tag.Description)
	}
	if r.locked {
		text = styles.Locked.Render(text + " (locked)")
	}
	if !r.annotation.Persisted() {
		text += styles.MutedText.Render(" (new)")
	}
	if selected {
		style = styles.RowCursor
	}
	return check + style.Render(text)
}

func (m *WizardModel) renderStatus() string {
	stars := m.session.Rating()
	rating := strings.Repeat("★", stars) + strings.Repeat("☆", domain.MaxRating-stars)

	var b strings.Builder
	b.WriteString(styles.InputLabel.Render("Rating "))
	b.WriteString(styles.Stars.Render(rating))
	if avg, n := m.session.Index().AverageRating(); n > 0 {
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("  avg %.1f of %d", avg, n)))
	}
	b.WriteString("   ")
	b.WriteString(styles.InputLabel.Render("Published "))
	if m.session.Published() {
		b.WriteString(styles.Checked.Render("yes"))
	} else {
		b.WriteString(styles.MutedText.Render("no"))
	}
	if m.touched {
		b.WriteString(styles.Partial.Render("   unsaved changes"))
	}
	return b.String()
}

func describeSelection(sel domain.Selection) string {
	objs := sel.Objects()
	names := make([]string, 0, 4)
	for i, o := range objs {
		if i == 3 {
			names = append(names, fmt.Sprintf("and %d more", len(objs)-3))
			break
		}
		names = append(names, o.String())
	}
	return strings.Join(names, ", ")
}

func renderHints(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, styles.HelpKey.Render(h.Key)+" "+styles.HelpDesc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}
