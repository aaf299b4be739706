// Package wizard implements the interactive "lcovhtml init" flow.
package wizard

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/lcovhtml/internal/domain"
)

type (
	wizardState int

	initWizardModel struct {
		state     wizardState
		fields    []wizardField
		cursor    int
		confirmed bool
		aborted   bool
		errMsg    string
	}

	wizardField struct {
		label string
		value string
	}
)

const (
	stateIntro wizardState = iota
	stateEdit
	stateConfirm
)

const (
	fieldName = iota
	fieldInput
	fieldOutput
)

// Run lets the user review cfg. It returns the edited configuration and
// whether the user confirmed it.
func Run(cfg domain.ReportConfig, stdout io.Writer, stdin io.Reader) (domain.ReportConfig, bool, error) {
	model := newInitWizardModel(cfg)
	program := tea.NewProgram(model, tea.WithInput(stdin), tea.WithOutput(stdout))
	res, err := program.Run()
	if err != nil {
		return cfg, false, err
	}
	finalModel, ok := res.(*initWizardModel)
	if !ok {
		return cfg, false, fmt.Errorf("unexpected wizard state")
	}
	if finalModel.aborted || !finalModel.confirmed {
		return cfg, false, nil
	}
	return finalModel.toConfig(cfg), true, nil
}

func newInitWizardModel(cfg domain.ReportConfig) *initWizardModel {
	cfg = domain.DefaultReportConfig().Merge(cfg)
	return &initWizardModel{
		state: stateIntro,
		fields: []wizardField{
			fieldName:   {label: "Report name", value: cfg.Name},
			fieldInput:  {label: "Input pattern", value: cfg.Input},
			fieldOutput: {label: "Output directory", value: cfg.Output},
		},
	}
}

func (m *initWizardModel) Init() tea.Cmd {
	return nil
}

func (m *initWizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.Type {
	case tea.KeyCtrlC:
		m.aborted = true
		return m, tea.Quit
	case tea.KeyEnter:
		switch m.state {
		case stateIntro:
			m.state = stateEdit
		case stateEdit:
			if err := m.validate(); err != nil {
				m.errMsg = err.Error()
				return m, nil
			}
			m.errMsg = ""
			m.state = stateConfirm
		case stateConfirm:
			m.confirmed = true
			return m, tea.Quit
		}
		return m, nil
	case tea.KeyEsc:
		switch m.state {
		case stateConfirm:
			m.state = stateEdit
		default:
			m.aborted = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch m.state {
	case stateEdit:
		m.edit(key)
	case stateIntro, stateConfirm:
		if key.String() == "q" {
			m.aborted = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *initWizardModel) edit(key tea.KeyMsg) {
	switch key.Type {
	case tea.KeyUp, tea.KeyShiftTab:
		m.moveCursor(-1)
	case tea.KeyDown, tea.KeyTab:
		m.moveCursor(1)
	case tea.KeyBackspace:
		value := []rune(m.fields[m.cursor].value)
		if len(value) > 0 {
			m.fields[m.cursor].value = string(value[:len(value)-1])
		}
	case tea.KeyCtrlU:
		m.fields[m.cursor].value = ""
	case tea.KeySpace:
		m.fields[m.cursor].value += " "
	case tea.KeyRunes:
		m.fields[m.cursor].value += string(key.Runes)
	}
}

func (m *initWizardModel) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.fields) {
		m.cursor = len(m.fields) - 1
	}
}

func (m *initWizardModel) validate() error {
	cfg := m.toConfig(domain.ReportConfig{Root: "."})
	return cfg.Validate()
}

func (m *initWizardModel) View() string {
	switch m.state {
	case stateIntro:
		return m.viewIntro()
	case stateEdit:
		return m.viewEdit()
	case stateConfirm:
		return m.viewConfirm()
	default:
		return ""
	}
}

func (m *initWizardModel) viewIntro() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nlcovhtml init wizard\n\n")
	fmt.Fprintf(&b, "The report task renders %s into %s as %q.\n\n",
		m.fields[fieldInput].value, m.fields[fieldOutput].value, m.fields[fieldName].value)
	fmt.Fprintf(&b, "Press Enter to review the settings, or Ctrl+C to cancel.\n")
	return b.String()
}

func (m *initWizardModel) viewEdit() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReview report settings\n\n")
	fmt.Fprintf(&b, "Use ↑/↓ to move, type to edit, Backspace to delete, Ctrl+U to clear.\n\n")
	for idx, f := range m.fields {
		prefix := "  "
		cursor := ""
		if m.cursor == idx {
			prefix = "> "
			cursor = "_"
		}
		fmt.Fprintf(&b, "%s%s: %s%s\n", prefix, f.label, f.value, cursor)
	}
	if m.errMsg != "" {
		fmt.Fprintf(&b, "\n%s\n", m.errMsg)
	}
	fmt.Fprintf(&b, "\nEnter to continue, Esc to cancel.\n")
	return b.String()
}

func (m *initWizardModel) viewConfirm() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReady to write configuration\n\n")
	for _, f := range m.fields {
		fmt.Fprintf(&b, "  %s: %s\n", f.label, f.value)
	}
	fmt.Fprintf(&b, "\nPress Enter to save, Esc to go back, q to cancel.\n")
	return b.String()
}

func (m *initWizardModel) toConfig(base domain.ReportConfig) domain.ReportConfig {
	base.Name = strings.TrimSpace(m.fields[fieldName].value)
	base.Input = strings.TrimSpace(m.fields[fieldInput].value)
	base.Output = strings.TrimSpace(m.fields[fieldOutput].value)
	return base
}
