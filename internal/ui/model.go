package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cloo-solutions/molpanel/internal/domain"
	"github.com/cloo-solutions/molpanel/internal/service"
)

type editorReadyMsg struct {
	defaultStructure string
	err              error
}

type retrievalDoneMsg struct {
	state domain.PanelState
	err   error
}

// Model drives one in-process panel. The structure to retrieve for is set on
// the editor once it is ready, standing in for a user drawing it.
type Model struct {
	ctx    context.Context
	panel  *service.Panel
	editor *service.MemoryEditor
	smiles string
	styles Styles

	state    domain.PanelState
	summary  string
	loading  bool
	fatal    error
	quitting bool
}

// NewModel creates a Model around panel. smiles is loaded into the editor
// after the default structure.
func NewModel(ctx context.Context, panel *service.Panel, smiles string) *Model {
	return &Model{
		ctx:    ctx,
		panel:  panel,
		editor: service.NewMemoryEditor(),
		smiles: smiles,
		styles: DefaultStyles(),
		state:  panel.Snapshot(),
	}
}

func (m *Model) Init() tea.Cmd {
	return m.readyCmd()
}

func (m *Model) readyCmd() tea.Cmd {
	return func() tea.Msg {
		if err := m.panel.EditorReady(m.ctx, m.editor); err != nil {
			return editorReadyMsg{err: err}
		}
		text, err := m.editor.StructureText(m.ctx)
		if err != nil {
			return editorReadyMsg{err: err}
		}
		m.editor.SetText(m.smiles)
		return editorReadyMsg{defaultStructure: text}
	}
}

func (m *Model) retrieveCmd() tea.Cmd {
	return func() tea.Msg {
		_, err := m.panel.Retrieve(m.ctx)
		return retrievalDoneMsg{state: m.panel.Snapshot(), err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if m.loading || m.fatal != nil {
				return m, nil
			}
			m.loading = true
			m.state.Loading = true
			return m, m.retrieveCmd()
		}

	case editorReadyMsg:
		if msg.err != nil {
			m.fatal = msg.err
			return m, nil
		}
		m.summary = summarize(msg.defaultStructure)
		m.state = m.panel.Snapshot()

	case retrievalDoneMsg:
		m.loading = false
		m.state = msg.state
		if msg.err != nil {
			m.fatal = msg.err
		}
	}

	return m, nil
}

func summarize(molfile string) string {
	mol, err := domain.ParseMolfile(molfile)
	if err != nil {
		return "editor loaded an unreadable structure"
	}
	return fmt.Sprintf("editor ready: %d atoms, %d bonds", mol.AtomCount(), mol.BondCount())
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.fatal != nil {
		return m.styles.Error.Render(fmt.Sprintf("panel unavailable: %v", m.fatal)) + "\n"
	}

	help := m.styles.Muted.Render("r retrieve  q quit")
	if m.summary != "" {
		help = m.styles.Muted.Render(m.summary) + "\n" + help
	}
	return lipgloss.JoinVertical(lipgloss.Left, RenderPanel(m.styles, ViewFromState(m.state)), help) + "\n"
}

// State returns the last panel snapshot the model rendered.
func (m *Model) State() domain.PanelState {
	return m.state
}

// Run starts the terminal UI for a fresh panel using fetcher.
func Run(ctx context.Context, fetcher service.ResultFetcher, smiles string) error {
	panel := service.NewPanel("tui", fetcher, nil, nil)
	defer panel.Close()

	_, err := tea.NewProgram(NewModel(ctx, panel, smiles), tea.WithContext(ctx)).Run()
	return err
}
