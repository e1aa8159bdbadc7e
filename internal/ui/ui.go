// package ui renders live progress for directory processing runs in
// the terminal.
package ui

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/audiotag/internal/jobs"
	"github.com/desertthunder/audiotag/internal/models"
)

// StartFunc launches the processing run, sending updates on prog.
type StartFunc func(prog chan<- jobs.ProgressUpdate) (*jobs.Result, error)

// Model represents the progress TUI state for one processing run.
type Model struct {
	ctx      context.Context
	start    StartFunc
	prog     chan jobs.ProgressUpdate
	bar      progress.Model
	spin     spinner.Model
	step     int
	total    int
	current  string
	result   *jobs.Result
	err      error
	done     bool
	quitKeys key.Binding
}

type progressUpdateMsg jobs.ProgressUpdate

type runCompleteMsg struct {
	result *jobs.Result
	err    error
}

// NewModel creates a progress model that runs start when the program
// begins.
func NewModel(ctx context.Context, start StartFunc) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return &Model{
		ctx:   ctx,
		start: start,
		prog:  make(chan jobs.ProgressUpdate, 64),
		bar:   progress.New(progress.WithDefaultGradient()),
		spin:  s,
		quitKeys: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Init starts the processing run and begins listening for progress.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.runProcess(), m.waitForProgress())
}

func (m *Model) runProcess() tea.Cmd {
	return func() tea.Msg {
		result, err := m.start(m.prog)
		close(m.prog)
		return runCompleteMsg{result: result, err: err}
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.prog
		if !ok {
			return nil
		}
		return progressUpdateMsg(update)
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.quitKeys) {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case progressUpdateMsg:
		if msg.Total > 0 {
			m.total = msg.Total
		}
		if msg.Phase == jobs.FileDone {
			m.step = msg.Step
			m.current = msg.File
		}
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the run's progress or its final summary.
func (m *Model) View() string {
	if m.done {
		return m.renderSummary()
	}

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.step) / float64(m.total)
	}

	view := styles.title.Render("Processing library") + "\n"
	view += m.bar.ViewAs(percent) + "\n\n"

	if m.current != "" {
		view += fmt.Sprintf("%s %s (%d/%d)\n", m.spin.View(), filepath.Base(m.current), m.step, m.total)
	} else {
		view += fmt.Sprintf("%s scanning...\n", m.spin.View())
	}

	view += styles.help.Render("q to quit")
	return view
}

// Result returns the finished run's result and error.
func (m *Model) Result() (*jobs.Result, error) {
	return m.result, m.err
}

func (m *Model) renderSummary() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Processing failed: %v", m.err)) + "\n"
	}

	if m.result == nil {
		return styles.warn.Render("No result") + "\n"
	}

	view := styles.title.Render("Processing complete") + "\n"
	view += styles.ok.Render(fmt.Sprintf("%d succeeded", m.result.Succeeded))
	if m.result.Partial > 0 {
		view += styles.warn.Render(fmt.Sprintf("  %d partial", m.result.Partial))
	}
	if m.result.Failed > 0 {
		view += styles.err.Render(fmt.Sprintf("  %d failed", m.result.Failed))
	}
	view += "\n"

	for _, f := range m.result.Files {
		if f.Status == models.FileFailed {
			view += styles.err.Render("✗ ") + f.Source + "\n"
		}
	}

	return view
}
