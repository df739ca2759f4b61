package outcome

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bnema/bilibackup/internal/domain"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

type model struct {
	view   func(styles) string
	styles styles
	output string
}

func newModel(view func(styles) string) model {
	return model{view: view, styles: newStyles()}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = m.view(m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

func run(view func(styles) string) (string, error) {
	p := tea.NewProgram(
		newModel(view),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	result, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}
	return result.output, nil
}

func Render(report Report) (string, error) {
	return run(func(s styles) string { return renderReport(report, s) })
}

func RenderBackups(entries []BackupEntry) (string, error) {
	return run(func(s styles) string { return renderBackups(entries, s) })
}

func RenderDomains(entries []DomainEntry) (string, error) {
	return run(func(s styles) string { return renderDomains(entries, s) })
}

func RenderGroups(groups []domain.GroupTag) (string, error) {
	return run(func(s styles) string { return renderGroups(groups, s) })
}
