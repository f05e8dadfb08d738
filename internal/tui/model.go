package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/MarcoPoloResearchLab/quicknote/internal/notebook"
	"github.com/MarcoPoloResearchLab/quicknote/internal/notes"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"
)

const (
	inboxCapacity     = 8
	messageSignInHint = "Sign in to write notes: set api.token to a session token."
	wordWrap          = 80
)

const (
	focusTitle = iota
	focusDescription
)

type model struct {
	ctx     context.Context
	backend Backend
	orderBy notes.OrderField
	logger  *zap.Logger

	lock    *notebook.ScrollState
	inbox   *notebook.Inbox
	panel   *notebook.Panel
	listing *notebook.Listing

	author   notes.Author
	signedIn bool

	cursor      int
	title       textinput.Model
	description textarea.Model
	focus       int
	spinner     spinner.Model

	renderer   *glamour.TermRenderer
	detail     *notes.Note
	detailBody string

	messages []notebook.Message
}

func newModel(ctx context.Context, cfg Config) (*model, error) {
	if cfg.Backend == nil {
		return nil, errMissingBackend
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 200
	title.Width = 60

	description := textarea.New()
	description.Placeholder = "Take a note..."
	description.SetWidth(60)
	description.SetHeight(6)

	s := spinner.New()
	s.Spinner = spinner.MiniDot

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		logger.Warn("markdown renderer unavailable", zap.Error(err))
		renderer = nil
	}

	lock := &notebook.ScrollState{}
	inbox := notebook.NewInbox(inboxCapacity)
	return &model{
		ctx:         ctx,
		backend:     cfg.Backend,
		orderBy:     cfg.OrderBy,
		logger:      logger,
		lock:        lock,
		inbox:       inbox,
		panel:       notebook.NewPanel(lock, inbox),
		listing:     notebook.NewListing(inbox),
		title:       title,
		description: description,
		spinner:     s,
		renderer:    renderer,
	}, nil
}

func (m *model) Init() tea.Cmd {
	m.listing.Begin()
	return tea.Batch(m.cmdLoadIdentity(), m.cmdLoadNotes(), m.spinner.Tick)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	if pending := m.inbox.Drain(); len(pending) > 0 {
		m.messages = pending
	}
	return m, cmd
}

func (m *model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case identityLoadedMsg:
		if msg.err != nil {
			m.logger.Info("continuing read-only", zap.Error(msg.err))
			return nil
		}
		m.author = msg.author
		m.signedIn = true
		return nil
	case listLoadedMsg:
		m.listing.Finish(msg.notes, msg.err)
		m.clampCursor()
		return nil
	case uploadDoneMsg:
		m.panel.FinishSubmit(msg.err)
		if msg.err != nil {
			m.listing.Abort()
			return nil
		}
		m.listing.Finish(msg.notes, nil)
		m.clampCursor()
		m.resetInputs()
		return nil
	case detailLoadedMsg:
		if msg.err != nil {
			m.inbox.Error(msg.err.Error())
			return nil
		}
		note := msg.note
		m.detail = &note
		m.detailBody = m.renderMarkdown(note.Description)
		return nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return nil
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, keys.kill) {
		return tea.Quit
	}
	if m.detail != nil {
		if key.Matches(msg, keys.esc) || key.Matches(msg, keys.quit) {
			m.detail = nil
			m.detailBody = ""
		}
		return nil
	}
	if m.panel.State() != notebook.PanelCollapsed {
		return m.handlePanelKey(msg)
	}

	switch {
	case key.Matches(msg, keys.quit):
		return tea.Quit
	case key.Matches(msg, keys.up):
		m.moveCursor(-1)
	case key.Matches(msg, keys.down):
		m.moveCursor(1)
	case key.Matches(msg, keys.enter):
		list := m.listing.Notes()
		if m.cursor >= 0 && m.cursor < len(list) {
			return m.cmdLoadDetail(list[m.cursor].Slug)
		}
	case key.Matches(msg, keys.reload):
		if !m.listing.Loading() {
			m.listing.Begin()
			return m.cmdLoadNotes()
		}
	case key.Matches(msg, keys.newNote):
		if !m.signedIn {
			m.inbox.Error(messageSignInHint)
			return nil
		}
		m.panel.Open()
		m.focus = focusTitle
		m.description.Blur()
		return m.title.Focus()
	}
	return nil
}

func (m *model) handlePanelKey(msg tea.KeyMsg) tea.Cmd {
	if m.panel.State() == notebook.PanelSubmitting {
		return nil
	}
	switch {
	case key.Matches(msg, keys.esc):
		m.panel.Dismiss()
		m.resetInputs()
		return nil
	case key.Matches(msg, keys.tab):
		return m.toggleFocus()
	case key.Matches(msg, keys.submit):
		draft, err := m.panel.BeginSubmit()
		if err != nil {
			return nil
		}
		m.listing.Begin()
		return tea.Batch(m.cmdUpload(draft), m.spinner.Tick)
	}

	var cmd tea.Cmd
	if m.focus == focusTitle {
		m.title, cmd = m.title.Update(msg)
		m.panel.SetTitle(m.title.Value())
	} else {
		m.description, cmd = m.description.Update(msg)
		m.panel.SetDescription(m.description.Value())
	}
	return cmd
}

func (m *model) toggleFocus() tea.Cmd {
	if m.focus == focusTitle {
		m.focus = focusDescription
		m.title.Blur()
		return m.description.Focus()
	}
	m.focus = focusTitle
	m.description.Blur()
	return m.title.Focus()
}

// moveCursor is a no-op while the panel holds the scroll lock.
func (m *model) moveCursor(delta int) {
	if m.lock.Locked() {
		return
	}
	m.cursor += delta
	m.clampCursor()
}

func (m *model) clampCursor() {
	count := len(m.listing.Notes())
	if m.cursor >= count {
		m.cursor = count - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *model) resetInputs() {
	if m.panel.State() != notebook.PanelCollapsed {
		return
	}
	m.title.Reset()
	m.title.Blur()
	m.description.Reset()
	m.description.Blur()
	m.focus = focusTitle
}

func (m *model) renderMarkdown(source string) string {
	if m.renderer == nil {
		return source
	}
	rendered, err := m.renderer.Render(source)
	if err != nil {
		m.logger.Warn("markdown render failed", zap.Error(err))
		return source
	}
	return rendered
}

func (m *model) cmdLoadIdentity() tea.Cmd {
	ctx := m.ctx
	backend := m.backend
	return func() tea.Msg {
		author, err := backend.Me(ctx)
		return identityLoadedMsg{author: author, err: err}
	}
}

func (m *model) cmdLoadNotes() tea.Cmd {
	ctx := m.ctx
	fetcher := m.backend.Fetcher(m.orderBy)
	return func() tea.Msg {
		list, err := fetcher.Fetch(ctx)
		return listLoadedMsg{notes: list, err: err}
	}
}

// cmdUpload writes the draft and re-fetches the listing in one command.
func (m *model) cmdUpload(draft notes.Draft) tea.Cmd {
	ctx := m.ctx
	uploader := m.backend.Uploader(m.orderBy)
	return func() tea.Msg {
		refreshed, err := uploader.Upload(ctx, draft)
		return uploadDoneMsg{notes: refreshed, err: err}
	}
}

func (m *model) cmdLoadDetail(slug string) tea.Cmd {
	ctx := m.ctx
	backend := m.backend
	return func() tea.Msg {
		note, err := backend.GetNote(ctx, slug)
		return detailLoadedMsg{note: note, err: err}
	}
}

func (m *model) View() string {
	var b strings.Builder
	header := titleStyle.Render("QuickNote")
	if m.signedIn {
		header += "  " + metaStyle.Render("signed in as "+m.author.Name)
	} else {
		header += "  " + metaStyle.Render("read-only")
	}
	if m.listing.Loading() || m.panel.Loading() {
		header += "  " + m.spinner.View()
	}
	b.WriteString(header + "\n\n")

	for _, message := range m.messages {
		if message.Level == notebook.LevelError {
			b.WriteString(errorStyle.Render(message.Text))
		} else {
			b.WriteString(successStyle.Render(message.Text))
		}
		b.WriteString("\n")
	}
	if len(m.messages) > 0 {
		b.WriteString("\n")
	}

	if m.detail != nil {
		b.WriteString(m.viewDetail())
		return appStyle.Render(b.String())
	}
	if m.panel.State() != notebook.PanelCollapsed {
		b.WriteString(m.viewPanel())
		b.WriteString("\n")
	}
	b.WriteString(m.viewListing())
	return appStyle.Render(b.String())
}

func (m *model) viewPanel() string {
	var b strings.Builder
	b.WriteString(m.title.View())
	b.WriteString("\n\n")
	b.WriteString(m.description.View())
	b.WriteString("\n\n")
	if m.panel.Loading() {
		b.WriteString(m.spinner.View() + " Uploading...")
	} else {
		b.WriteString(helpStyle.Render("ctrl+s upload  tab switch field  esc dismiss"))
	}
	return panelStyle.Render(b.String())
}

func (m *model) viewListing() string {
	var b strings.Builder
	switch m.listing.Status() {
	case notebook.ListingNotLoaded:
	case notebook.ListingEmpty:
		b.WriteString(notebook.MessageNoNotes + "\n")
	default:
		for i, note := range m.listing.Notes() {
			line := fmt.Sprintf("%s  %s", note.Title, metaStyle.Render(note.UploadedBy.Name+" · "+notebook.DetailPath(note.Slug)))
			if i == m.cursor {
				b.WriteString(cursorStyle.Render("> ") + line + "\n")
			} else {
				b.WriteString("  " + line + "\n")
			}
		}
	}
	if m.panel.State() == notebook.PanelCollapsed {
		b.WriteString("\n" + helpStyle.Render("n new note  enter open  r reload  q quit"))
	}
	return b.String()
}

func (m *model) viewDetail() string {
	note := m.detail
	var b strings.Builder
	b.WriteString(titleStyle.Render(note.Title) + "\n")
	b.WriteString(metaStyle.Render(fmt.Sprintf("%s · %s", note.UploadedBy.Name, note.Time.UTC().Format("Jan 2, 2006 15:04 MST"))) + "\n")
	b.WriteString(m.detailBody)
	b.WriteString("\n" + helpStyle.Render("esc back"))
	return b.String()
}
