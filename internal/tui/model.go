// Package tui is a terminal front-end for the onboarding flow. It renders
// the orchestrator's view and turns key presses into submissions.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lores-mesh/site-admin/internal/domain"
	"github.com/lores-mesh/site-admin/internal/onboarding"
	"github.com/lores-mesh/site-admin/internal/result"
)

type formKind int

const (
	formNone formKind = iota
	formNewRegion
	formJoinRegion
	formNewLocal
)

// viewMsg carries a fresh view and the channel that closes at the next
// change after it.
type viewMsg struct {
	view onboarding.View
	next <-chan struct{}
}

// submitMsg is the outcome of a submission or retry.
type submitMsg struct {
	view onboarding.View
	err  error
}

type Model struct {
	ctx     context.Context
	orch    *onboarding.Orchestrator
	keys    KeyMap
	spinner spinner.Model

	view       onboarding.View
	form       formKind
	inputs     []textinput.Model
	focus      int
	submitting bool
	notice     string
	width      int
}

func New(ctx context.Context, orch *onboarding.Orchestrator) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = accentStyle

	m := Model{
		ctx:     ctx,
		orch:    orch,
		keys:    DefaultKeyMap,
		spinner: s,
	}
	m.applyView(orch.View())
	return m
}

// Init implements tea.Model. Mounts the orchestrator and starts
// following its view.
func (m Model) Init() tea.Cmd {
	m.orch.Mount(m.ctx)
	return tea.Batch(m.spinner.Tick, watch(m.orch))
}

// watch delivers the current view.
func watch(orch *onboarding.Orchestrator) tea.Cmd {
	return func() tea.Msg {
		next := orch.Changed()
		return viewMsg{view: orch.View(), next: next}
	}
}

// waitChange blocks until next closes, then delivers the new view.
func waitChange(ctx context.Context, orch *onboarding.Orchestrator, next <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-next:
			return watch(orch)()
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case viewMsg:
		m.applyView(msg.view)
		return m, waitChange(m.ctx, m.orch, msg.next)

	case submitMsg:
		m.submitting = false
		m.applyView(msg.view)
		m.notice = noticeFor(msg.view, msg.err)
	}
	return m, nil
}

// noticeFor returns the message for errors the view does not already
// show. Domain errors appear as the form error and failures as the
// failure banner.
func noticeFor(v onboarding.View, err error) string {
	var domainErr *result.DomainError
	switch {
	case err == nil, errors.As(err, &domainErr), v.Failure != "":
		return ""
	default:
		return err.Error()
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	if m.editing() {
		return m.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Retry) && !m.submitting:
		switch m.view.Screen {
		case onboarding.ScreenFailed:
			m.submitting = true
			return m, m.retry()
		case onboarding.ScreenReady:
			m.submitting = true
			return m, m.refresh()
		}
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.SwitchForm) && m.view.Screen == onboarding.ScreenRegionChoice:
		if m.form == formNewRegion {
			m.setForm(formJoinRegion)
		} else {
			m.setForm(formNewRegion)
		}
		return m, textinput.Blink

	case key.Matches(msg, m.keys.NextField):
		m.focusField(m.focus + 1)
		return m, nil

	case key.Matches(msg, m.keys.PrevField):
		m.focusField(m.focus - 1)
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if m.focus < len(m.inputs)-1 {
			m.focusField(m.focus + 1)
			return m, nil
		}
		if m.submitting {
			return m, nil
		}
		m.submitting = true
		m.notice = ""
		return m, m.submit()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// editing reports whether a form is on screen and takes key input.
func (m Model) editing() bool {
	if len(m.inputs) == 0 {
		return false
	}
	return m.view.Screen == onboarding.ScreenRegionChoice || m.view.Screen == onboarding.ScreenLocalSetup
}

// applyView stores v and swaps the form when the screen asks for a
// different one. Loading and failed screens keep the current form so
// typed values survive a retry. Views older than the current one are
// ignored.
func (m *Model) applyView(v onboarding.View) {
	if v.Version < m.view.Version {
		return
	}
	m.view = v

	want := m.form
	switch v.Screen {
	case onboarding.ScreenRegionChoice:
		if m.form != formNewRegion && m.form != formJoinRegion {
			want = formNewRegion
		}
	case onboarding.ScreenLocalSetup:
		want = formNewLocal
	case onboarding.ScreenReady:
		want = formNone
	}
	if want != m.form {
		m.setForm(want)
	}
}

func (m *Model) setForm(kind formKind) {
	m.form = kind
	m.focus = 0
	m.inputs = nil

	switch kind {
	case formNewRegion:
		m.inputs = []textinput.Model{
			newInput("Region name", "riverside"),
			newInput("Description", "optional"),
		}
	case formJoinRegion:
		m.inputs = []textinput.Model{
			newInput("Network name", "riverside"),
			newInput("Peer node ID", "optional"),
			newInput("Peer IPv4", "optional"),
		}
	case formNewLocal:
		label := "Node name"
		if m.orch.Kind() == domain.ScopeSite {
			label = "Site name"
		}
		m.inputs = []textinput.Model{newInput(label, "node-a")}
	}
	m.focusField(0)
}

func newInput(prompt, placeholder string) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt + ": "
	in.Placeholder = placeholder
	in.CharLimit = 64
	return in
}

func (m *Model) focusField(i int) {
	if len(m.inputs) == 0 {
		return
	}
	i = (i + len(m.inputs)) % len(m.inputs)
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	m.focus = i
}

func (m Model) values() []string {
	out := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		out[i] = strings.TrimSpace(in.Value())
	}
	return out
}

func (m Model) submit() tea.Cmd {
	ctx, orch := m.ctx, m.orch
	values := m.values()

	switch m.form {
	case formNewRegion:
		form := domain.NewRegion{Name: values[0], Description: values[1]}
		return func() tea.Msg {
			v, err := orch.CreateRegion(ctx, form)
			return submitMsg{view: v, err: err}
		}

	case formJoinRegion:
		form := domain.JoinRegion{NetworkName: values[0]}
		if values[1] != "" || values[2] != "" {
			form.BootstrapPeer = &domain.BootstrapPeer{NodeID: values[1], IP4: values[2]}
		}
		return func() tea.Msg {
			v, err := orch.JoinRegion(ctx, form)
			return submitMsg{view: v, err: err}
		}

	case formNewLocal:
		form := domain.NewLocal{Name: values[0]}
		return func() tea.Msg {
			v, err := orch.CreateLocal(ctx, form)
			return submitMsg{view: v, err: err}
		}
	}
	return nil
}

func (m Model) retry() tea.Cmd {
	ctx, orch := m.ctx, m.orch
	return func() tea.Msg {
		err := orch.Retry(ctx)
		return submitMsg{view: orch.View(), err: err}
	}
}

func (m Model) refresh() tea.Cmd {
	ctx, orch := m.ctx, m.orch
	return func() tea.Msg {
		err := orch.Refresh(ctx)
		return submitMsg{view: orch.View(), err: err}
	}
}

// Run starts the TUI on the terminal and blocks until it exits.
func Run(ctx context.Context, orch *onboarding.Orchestrator) error {
	_, err := tea.NewProgram(New(ctx, orch), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
