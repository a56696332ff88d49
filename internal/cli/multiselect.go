package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/trebuchet-org/xfactory/internal/domain/models"
)

// multiSelectModel is the bubbletea model for picking networks
type multiSelectModel struct {
	items    []*models.FactoryDeployment
	cursor   int
	selected map[int]bool
	title    string
	done     bool
	aborted  bool
}

// initialMultiSelectModel creates the initial model with nothing selected
func initialMultiSelectModel(deployments []*models.FactoryDeployment, title string) multiSelectModel {
	return multiSelectModel{
		items:    deployments,
		selected: make(map[int]bool),
		title:    title,
	}
}

// Init is the initial command for bubbletea
func (m multiSelectModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m multiSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "ctrl+c", "q", "esc":
		m.done = true
		m.aborted = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case " ":
		m.selected[m.cursor] = !m.selected[m.cursor]
	case "a":
		all := len(m.selectedIndices()) < len(m.items)
		for i := range m.items {
			m.selected[i] = all
		}
	case "enter":
		if len(m.selectedIndices()) > 0 {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View renders the UI
func (m multiSelectModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(color.New(color.FgCyan, color.Bold).Sprintf("%s\n\n", m.title))

	for i, dep := range m.items {
		cursor := " "
		if m.cursor == i {
			cursor = color.New(color.FgCyan).Sprint("▸")
		}

		checkbox := color.New(color.FgWhite).Sprint("○")
		if m.selected[i] {
			checkbox = color.New(color.FgGreen).Sprint("✓")
		}

		name := color.New(color.FgWhite).Sprint(dep.Name)
		chain := color.New(color.FgYellow).Sprintf("(chain %d)", dep.ChainID)

		b.WriteString(fmt.Sprintf("%s %s %s %s\n", cursor, checkbox, name, chain))
	}

	b.WriteString("\n")
	b.WriteString(color.New(color.FgYellow).Sprint("↑/↓: move  Space: toggle  a: all  Enter: confirm  q: quit\n"))

	return b.String()
}

// selectedIndices returns the selected rows in display order
func (m multiSelectModel) selectedIndices() []int {
	var indices []int
	for i := range m.items {
		if m.selected[i] {
			indices = append(indices, i)
		}
	}
	return indices
}

// SelectNetworks shows a multi-select of registered networks and returns
// the chosen chain IDs
func SelectNetworks(deployments []*models.FactoryDeployment, title string) ([]uint64, error) {
	if len(deployments) == 0 {
		return nil, fmt.Errorf("no networks to select")
	}

	p := tea.NewProgram(initialMultiSelectModel(deployments, title))

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("multi-select failed: %w", err)
	}

	m, ok := finalModel.(multiSelectModel)
	if !ok || !m.done || m.aborted {
		return nil, fmt.Errorf("selection cancelled")
	}

	indices := m.selectedIndices()
	chainIDs := make([]uint64, len(indices))
	for i, idx := range indices {
		chainIDs[i] = deployments[idx].ChainID
	}
	return chainIDs, nil
}
