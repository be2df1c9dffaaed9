package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vela-lang/layoutrt"
)

type dumpModel struct {
	md       *layoutrt.Metadata
	rows     []row
	selected int
	top      int
	height   int
}

func newDumpModel(md *layoutrt.Metadata, entries []Entry) *dumpModel {
	return &dumpModel{
		md:     md,
		rows:   flatten(entries, 0),
		height: 20,
	}
}

func (m *dumpModel) Init() tea.Cmd { return nil }

func (m *dumpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 1 {
			m.height = 1
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.selected < len(m.rows)-1 {
				m.selected++
			}

		case "g":
			m.selected = 0

		case "G":
			m.selected = len(m.rows) - 1
		}
	}

	if m.selected < m.top {
		m.top = m.selected
	}
	if m.selected >= m.top+m.height {
		m.top = m.selected - m.height + 1
	}

	return m, nil
}

func (m *dumpModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("layout string"))
	b.WriteString(fmt.Sprintf(" size=%d align=%d entries=%d", m.md.Size, m.md.Align, len(m.rows)))
	b.WriteString("\n\n")

	end := m.top + m.height
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.top; i < end; i++ {
		line := m.renderRow(m.rows[i])
		if i == m.selected {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ move • g/G top/bottom • q quit"))
	return b.String()
}

func (m *dumpModel) renderRow(r row) string {
	indent := strings.Repeat("  ", r.depth)
	if r.entry.IsCaseHeader {
		return indent + caseStyle.Render(r.entry.Detail)
	}
	return fmt.Sprintf("%s%-6d %s skip=%-6d %s",
		indent, r.entry.Offset, opcodeStyle.Render(fmt.Sprintf("%-28s", r.entry.Opcode)),
		r.entry.Skip, detailStyle.Render(r.entry.Detail))
}
