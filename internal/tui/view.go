package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/lores-mesh/site-admin/internal/domain"
	"github.com/lores-mesh/site-admin/internal/onboarding"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	tabStyle    = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	activeTab   = tabStyle.Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("25"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("LoRes mesh admin"))
	b.WriteString(helpStyle.Render(fmt.Sprintf("  (%s)", m.orch.Kind())))
	b.WriteString("\n\n")

	switch m.view.Screen {
	case onboarding.ScreenLoading:
		b.WriteString(m.spinner.View() + " Resolving region and local identity...\n")
	case onboarding.ScreenFailed:
		b.WriteString(m.renderFailed())
	case onboarding.ScreenRegionChoice:
		b.WriteString(m.renderRegionChoice())
	case onboarding.ScreenLocalSetup:
		b.WriteString(m.renderLocalSetup())
	case onboarding.ScreenReady:
		b.WriteString(m.renderReady())
	}

	if m.notice != "" {
		b.WriteString("\n" + errorStyle.Render(m.notice) + "\n")
	}
	b.WriteString("\n" + m.renderHelp())
	return b.String()
}

func (m Model) renderFailed() string {
	var b strings.Builder
	b.WriteString(errorStyle.Render("Could not reach the node API.") + "\n")
	b.WriteString(helpStyle.Render(m.view.Failure) + "\n")
	if m.submitting {
		b.WriteString(m.spinner.View() + " Retrying...\n")
	}
	return b.String()
}

func (m Model) renderRegionChoice() string {
	var b strings.Builder
	b.WriteString("This node is not part of a region yet.\n\n")

	newTab, joinTab := activeTab, tabStyle
	if m.form == formJoinRegion {
		newTab, joinTab = tabStyle, activeTab
	}
	b.WriteString(newTab.Render("Create region") + " " + joinTab.Render("Join region") + "\n\n")

	formName := onboarding.FormNewRegion
	if m.form == formJoinRegion {
		formName = onboarding.FormJoinRegion
	}
	b.WriteString(m.renderForm(formName))
	return b.String()
}

func (m Model) renderLocalSetup() string {
	var b strings.Builder
	region := "the region"
	if m.view.Region != nil {
		region = m.view.Region.Name
	}
	noun := "node"
	if m.orch.Kind() == domain.ScopeSite {
		noun = "site"
	}
	fmt.Fprintf(&b, "Region %s is set up. Name this %s to finish.\n\n", accentStyle.Render(region), noun)
	b.WriteString(m.renderForm(onboarding.FormNewLocal))
	return b.String()
}

func (m Model) renderForm(formName string) string {
	var b strings.Builder
	for _, in := range m.inputs {
		b.WriteString(in.View() + "\n")
	}
	if fe := m.view.FormError; fe != nil && fe.Form == formName {
		b.WriteString("\n" + errorStyle.Render(fe.Message) + "\n")
	}
	if m.submitting {
		b.WriteString("\n" + m.spinner.View() + " Submitting...\n")
	}
	return b.String()
}

func (m Model) renderReady() string {
	var rows []string
	row := func(label, value string) {
		rows = append(rows, labelStyle.Render(label)+value)
	}

	if r := m.view.Region; r != nil {
		row("Region", r.Name)
		row("Network", r.NetworkID)
		if r.Description != "" {
			row("Description", r.Description)
		}
	}
	if l := m.view.Local; l != nil {
		label := "Node"
		if l.Kind() == domain.ScopeSite {
			label = "Site"
		}
		row(label, l.LocalName())
		if n, ok := l.(domain.Node); ok {
			if n.PandaNodeID != "" {
				row("Public key", n.PandaNodeID)
			}
			row("Peers", fmt.Sprintf("%d", len(n.Peers)))
			for _, p := range n.Peers {
				row("", p.NodeID)
			}
		}
	}

	out := boxStyle.Render(strings.Join(rows, "\n")) + "\n"
	if m.submitting {
		out += m.spinner.View() + " Refreshing...\n"
	}
	return out
}

func (m Model) renderHelp() string {
	var bindings []key.Binding
	switch {
	case m.editing():
		bindings = append(bindings, m.keys.NextField, m.keys.Submit)
		if m.view.Screen == onboarding.ScreenRegionChoice {
			bindings = append(bindings, m.keys.SwitchForm)
		}
		bindings = append(bindings, m.keys.ForceQuit)
	case m.view.Screen == onboarding.ScreenFailed:
		bindings = append(bindings, m.keys.Retry, m.keys.Quit)
	case m.view.Screen == onboarding.ScreenReady:
		bindings = append(bindings, key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")), m.keys.Quit)
	default:
		bindings = append(bindings, m.keys.Quit)
	}

	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return helpStyle.Render(strings.Join(parts, " • "))
}
