package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dodam/internal/domain"
)

// AdvicePort is the console-facing subset of the advice pipeline.
type AdvicePort interface {
	Advise(ctx context.Context, category, section, userText string) (domain.Advice, error)
}

// Model is the Bubble Tea model for the advice console.
type Model struct {
	port     AdvicePort
	category textinput.Model
	prompt   textinput.Model
	viewport viewport.Model
	status   string
	ready    bool
}

// New creates a console model. Tab switches between the category and
// description fields; Enter submits.
func New(port AdvicePort) Model {
	cat := textinput.New()
	cat.Prompt = "분야> "
	cat.Placeholder = "보이스피싱, 투자사기, ..."
	cat.Focus()
	cat.CharLimit = 0

	pr := textinput.New()
	pr.Prompt = "상황> "
	pr.Placeholder = "겪은 일을 설명하고 Enter"
	pr.CharLimit = 0

	vp := viewport.New(0, 0)
	return Model{
		port:     port,
		category: cat,
		prompt:   pr,
		viewport: vp,
		status:   "분야와 상황을 입력하세요.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 2 + 2*qh + 1
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab":
			m.toggleFocus()
			return m, nil
		case "enter":
			category := strings.TrimSpace(m.category.Value())
			userText := strings.TrimSpace(m.prompt.Value())
			if category == "" {
				m.status = "분야를 입력하세요."
				return m, nil
			}
			if userText == "" {
				m.status = "상황을 입력하세요."
				return m, nil
			}
			adv, err := m.port.Advise(context.Background(), category, "", userText)
			if err != nil {
				m.status = "오류: " + err.Error()
				return m, nil
			}
			m.status = fmt.Sprintf("%s 분야 대처방안", adv.Category)
			m.viewport.SetContent(RenderAdvice(adv))
			return m, nil
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	if m.category.Focused() {
		m.category, cmd = m.category.Update(msg)
	} else {
		m.prompt, cmd = m.prompt.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.category.Focused() {
		m.category.Blur()
		m.prompt.Focus()
	} else {
		m.prompt.Blur()
		m.category.Focus()
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("도담 상담 콘솔")
	result := resultBoxStyle.Render(m.viewport.View())
	category := inputBoxStyle.Render(m.category.View())
	prompt := inputBoxStyle.Render(m.prompt.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + result + "\n" + category + "\n" + prompt + "\n" + status
}

// RenderAdvice lays out one advice result as titled sections.
func RenderAdvice(adv domain.Advice) string {
	var b strings.Builder

	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		b.WriteString(sectionTitleStyle.Render(title))
		b.WriteString("\n")
		for _, line := range lines {
			b.WriteString("  - " + line + "\n")
		}
		b.WriteString("\n")
	}

	section("즉시 해야 할 일", adv.ImmediateActions)
	section("다음 단계", adv.NextSteps)
	section("예방 수칙", adv.PreventionTips)

	if len(adv.WhereToReport) > 0 {
		b.WriteString(sectionTitleStyle.Render("신고처"))
		b.WriteString("\n")
		for _, ch := range adv.WhereToReport {
			b.WriteString(fmt.Sprintf("  - %s (%s) %s\n", ch.Name, ch.ChannelType, ch.Value))
			if ch.Note != "" {
				b.WriteString("    " + ch.Note + "\n")
			}
		}
		b.WriteString("\n")
	}
	if len(adv.SourceCitations) > 0 {
		b.WriteString(sectionTitleStyle.Render("출처"))
		b.WriteString("\n")
		for _, c := range adv.SourceCitations {
			b.WriteString("  - " + c.Title)
			if c.URL != "" {
				b.WriteString(" (" + c.URL + ")")
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if adv.Disclaimer != "" {
		b.WriteString(disclaimerStyle.Render(adv.Disclaimer))
		b.WriteString("\n")
	}
	if adv.Raw != "" {
		b.WriteString("\n" + statusStyle.Render("원문 응답:") + "\n" + adv.Raw + "\n")
	}

	out := strings.TrimRight(b.String(), "\n")
	if out == "" {
		return "결과가 없습니다."
	}
	return out
}

var (
	resultBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	sectionTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	disclaimerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
