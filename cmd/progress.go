package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/bilibackup/internal/domain"
)

type runDoneMsg struct {
	err error
}

type progressMsg domain.Progress

type runSpinnerModel struct {
	spinner spinner.Model
	label   string
	status  string
	run     tea.Cmd
	err     error
	done    bool
}

func newRunSpinnerModel(label string, run tea.Cmd) runSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return runSpinnerModel{
		spinner: s,
		label:   label,
		run:     run,
	}
}

func (m runSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run)
}

func (m runSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case progressMsg:
		m.status = formatProgress(domain.Progress(msg))
		return m, nil
	case runDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m runSpinnerModel) View() string {
	if m.done {
		return ""
	}
	if m.status != "" {
		return fmt.Sprintf("%s %s %s", m.spinner.View(), m.label, m.status)
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

func formatProgress(p domain.Progress) string {
	if p.State == domain.StateApplyingBatch {
		return fmt.Sprintf("(%s: batch %d, %d/%d)", p.State, p.Batch, p.Done, p.Total)
	}
	return fmt.Sprintf("(%s, %d/%d)", p.State, p.Done, p.Total)
}

// runWithSpinner shows label on output while run executes. run receives a
// callback that forwards orchestrator progress to the spinner line.
func runWithSpinner(ctx context.Context, output io.Writer, label string, run func(context.Context, func(domain.Progress)) error) error {
	var p *tea.Program
	report := func(progress domain.Progress) {
		p.Send(progressMsg(progress))
	}
	runCmd := func() tea.Msg {
		return runDoneMsg{err: run(ctx, report)}
	}

	p = tea.NewProgram(
		newRunSpinnerModel(label, runCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(runSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
