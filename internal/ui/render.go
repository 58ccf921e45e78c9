// Package ui renders panel state in the terminal and hosts the bubbletea
// program behind `molpanel tui`.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cloo-solutions/molpanel/internal/domain"
)

// Styles groups the lipgloss styles used to draw a panel.
type Styles struct {
	Title   lipgloss.Style
	Section lipgloss.Style
	Item    lipgloss.Style
	Score   lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Loading lipgloss.Style
	Box     lipgloss.Style
}

func DefaultStyles() Styles {
	primary := lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#3B82F6"}
	muted := lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	success := lipgloss.AdaptiveColor{Light: "#059669", Dark: "#10B981"}
	warning := lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"}
	errColor := lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}

	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(primary),
		Section: lipgloss.NewStyle().Bold(true).Underline(true),
		Item:    lipgloss.NewStyle().PaddingLeft(2),
		Score:   lipgloss.NewStyle().Foreground(success),
		Muted:   lipgloss.NewStyle().Foreground(muted),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(errColor),
		Loading: lipgloss.NewStyle().Italic(true).Foreground(warning),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(0, 1),
	}
}

// View is what RenderPanel draws.
type View struct {
	SMILES  string
	Results domain.ResultSet
	Error   string
	Loading bool
}

// ViewFromState converts a panel snapshot.
func ViewFromState(s domain.PanelState) View {
	return View{SMILES: s.SMILES, Results: s.Results, Error: s.Error, Loading: s.Loading}
}

// RenderResults draws one section per category, each entry as
// "SMILES (Similarity: 0.95)".
func RenderResults(st Styles, rs domain.ResultSet) string {
	var sections []string
	for _, c := range domain.Categories {
		lines := []string{st.Section.Render(c.Title())}
		results := rs.Get(c)
		if len(results) == 0 {
			lines = append(lines, st.Item.Render(st.Muted.Render("(none)")))
		}
		for _, r := range results {
			score := st.Score.Render(domain.FormatSimilarity(r.Similarity))
			lines = append(lines, st.Item.Render(fmt.Sprintf("%s (Similarity: %s)", r.SMILES, score)))
		}
		sections = append(sections, lipgloss.JoinVertical(lipgloss.Left, lines...))
	}
	return strings.Join(sections, "\n\n")
}

// RenderPanel draws the whole panel: title, current structure, status line
// and the three result lists.
func RenderPanel(st Styles, v View) string {
	parts := []string{st.Title.Render("Structure Editor")}

	smiles := v.SMILES
	if smiles == "" {
		smiles = st.Muted.Render("(not retrieved yet)")
	}
	parts = append(parts, "SMILES: "+smiles)

	switch {
	case v.Loading:
		parts = append(parts, st.Loading.Render("Loading..."))
	case v.Error != "":
		parts = append(parts, st.Error.Render(v.Error))
	}

	parts = append(parts, "", RenderResults(st, v.Results))
	return st.Box.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
