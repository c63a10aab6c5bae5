package clients

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const consoleChatID = "console"

var _ Interface = &ConsoleClient{}

// ConsoleClient is a terminal chat front-end.
type ConsoleClient struct {
	Client
	opts    []tea.ProgramOption
	program *tea.Program
}

func NewConsoleClient(opts ...tea.ProgramOption) *ConsoleClient {
	return &ConsoleClient{
		Client: Client{name: "console", admin: consoleChatID},
		opts:   opts,
	}
}

// Run blocks until ctx is cancelled or the user quits, in which case it
// returns ErrStopped.
func (c *ConsoleClient) Run(ctx context.Context) error {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, c.opts...)
	c.program = tea.NewProgram(newConsoleModel(func(text string) {
		c.dispatch(ctx, consoleChatID, consoleChatID, text, func(reply string) {
			c.program.Send(replyMsg(reply))
		})
	}), opts...)

	_, err := c.program.Run()
	switch {
	case errors.Is(err, tea.ErrProgramKilled):
		return nil
	case err != nil:
		return err
	case ctx.Err() != nil:
		return nil
	}
	return ErrStopped
}

func (c *ConsoleClient) Close() error {
	if c.program != nil {
		c.program.Quit()
	}
	return nil
}

type replyMsg string

type consoleModel struct {
	input    textinput.Model
	viewport viewport.Model
	lines    []string
	waiting  int
	ready    bool
	submit   func(string)
}

func newConsoleModel(submit func(string)) consoleModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask something and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	return consoleModel{
		input:    ti,
		viewport: viewport.New(0, 0),
		submit:   submit,
	}
}

func (m consoleModel) Init() tea.Cmd { return textinput.Blink }

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		// header + status + input line
		vh := msg.Height - fh - ih - 3
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, vh)
		m.refresh()
		return m, nil
	case replyMsg:
		if m.waiting > 0 {
			m.waiting--
		}
		m.lines = append(m.lines, botStyle.Render("bot: ")+string(msg))
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			m.lines = append(m.lines, userStyle.Render("you: ")+text)
			m.waiting++
			m.refresh()
			if m.submit != nil {
				submit := m.submit
				return m, func() tea.Msg {
					submit(text)
					return nil
				}
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m consoleModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("RagBot")
	status := statusStyle.Render("Enter to send, Esc to quit")
	if m.waiting > 0 {
		status = statusStyle.Render("Thinking...")
	}
	return header + "\n" +
		chatBoxStyle.Render(m.viewport.View()) + "\n" +
		inputBoxStyle.Render(m.input.View()) + "\n" +
		status
}

func (m *consoleModel) refresh() {
	if len(m.lines) == 0 {
		m.viewport.SetContent(WelcomeMessage)
		return
	}
	m.viewport.SetContent(lipgloss.NewStyle().Width(m.viewport.Width).Render(strings.Join(m.lines, "\n\n")))
	m.viewport.GotoBottom()
}

var (
	chatBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	userStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)
