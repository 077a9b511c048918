package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/TigerQ/jsbasic/pkg/dos"
)

type tickMsg time.Time

type displayEntryType int

const (
	displayEntryCommand displayEntryType = iota
	displayEntryOutput
)

type displayEntry struct {
	entryType displayEntryType
	content   string
	isErr     bool
}

const helpText = `DOS console. Lines starting with ] are DOS commands:
  ]OPEN FILE[,Ln]     ]APPEND FILE[,Ln]   ]CLOSE [FILE]
  ]READ FILE[,Rn][,Bn]  ]WRITE FILE[,Rn][,Bn]  ]POSITION FILE[,Rn]
  ]DELETE FILE        ]RENAME OLD,NEW     ]PR#0 / ]PR#3
  ]MON[,C][,I][,O]    ]NOMON[,C][,I][,O]  ]  (empty: end read/write run)
Other lines are sent down the channel as data (written to the active
WRITE file, or echoed to the terminal).
Console builtins:
  input  - read one line from the channel     get    - read one character
  reset  - discard all session state          help   - this text
  exit   - leave the console`

// Model is the interactive console: a scrollback viewport over the terminal
// channel with an editable input line. Every typed line is pushed through
// the DOS interceptor character by character.
type Model struct {
	session *Session
	machine *dos.DOS
	term    *DisplayTerminal

	viewport   viewport.Model
	ready      bool
	buffer     string
	cursor     int
	quitting   bool
	cursorOn   bool
	lastHeight int

	displayHistory []displayEntry

	errStyle    lipgloss.Style
	promptStyle lipgloss.Style
}

func NewModel(session *Session, machine *dos.DOS, term *DisplayTerminal) Model {
	return Model{
		session:     session,
		machine:     machine,
		term:        term,
		cursorOn:    true,
		errStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		promptStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Millisecond*500, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-2)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 2
		}
		m.lastHeight = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.buffer != "" {
				m.appendEntry(displayEntry{entryType: displayEntryCommand, content: m.buffer + "^C"})
			}
			m.buffer = ""
			m.cursor = 0
			return m, nil
		case tea.KeyCtrlD:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			return m.handleLine(), nil
		case tea.KeyBackspace:
			if m.cursor > 0 {
				m.buffer = m.buffer[:m.cursor-1] + m.buffer[m.cursor:]
				m.cursor--
			}
			return m, nil
		case tea.KeyLeft:
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case tea.KeyRight:
			if m.cursor < len(m.buffer) {
				m.cursor++
			}
			return m, nil
		case tea.KeyUp:
			m.session.StartHistoryNavigation(m.buffer)
			if historyCmd := m.session.NavigateHistory(true); historyCmd != "" || m.session.IsInHistoryMode() {
				m.buffer = historyCmd
				m.cursor = len(m.buffer)
			}
			return m, nil
		case tea.KeyDown:
			if m.session.IsInHistoryMode() {
				m.buffer = m.session.NavigateHistory(false)
				m.cursor = len(m.buffer)
			}
			return m, nil
		case tea.KeySpace:
			m.buffer = m.buffer[:m.cursor] + " " + m.buffer[m.cursor:]
			m.cursor++
			return m, nil
		default:
			if msg.Type == tea.KeyRunes {
				text := msg.String()
				text = strings.ReplaceAll(text, "\r", "")
				text = strings.ReplaceAll(text, "\n", " ")
				text = strings.ReplaceAll(text, "\t", " ")
				m.buffer = m.buffer[:m.cursor] + text + m.buffer[m.cursor:]
				m.cursor += len(text)
			}
			return m, nil
		}

	case tickMsg:
		m.cursorOn = !m.cursorOn
		return m, tea.Tick(time.Millisecond*500, func(t time.Time) tea.Msg {
			return tickMsg(t)
		})
	}
	return m, nil
}

// handleLine consumes the input buffer: console builtins are handled
// locally, everything else goes down the channel.
func (m Model) handleLine() Model {
	line := m.buffer
	m.buffer = ""
	m.cursor = 0

	m.session.AddToHistory(line)
	m.appendEntry(displayEntry{entryType: displayEntryCommand, content: line})

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit":
		m.quitting = true
		return m
	case "help":
		m.appendEntry(displayEntry{entryType: displayEntryOutput, content: helpText})
		return m
	case "reset":
		m.machine.Reset()
		m.appendEntry(displayEntry{entryType: displayEntryOutput, content: "session reset"})
		return m
	case "input":
		value, err := m.machine.ReadLine(context.Background(), "?")
		m.showReadResult(value, err)
		m.drainTerminal()
		return m
	case "get":
		c, err := m.machine.ReadChar(context.Background())
		m.showReadResult(string(c), err)
		m.drainTerminal()
		return m
	}

	if rest, ok := strings.CutPrefix(line, "]"); ok {
		m.sendCommand(rest)
	} else {
		m.sendData(line)
	}
	m.drainTerminal()
	return m
}

// sendCommand pushes an escape-introduced command line through the channel.
func (m *Model) sendCommand(command string) {
	if err := m.machine.WriteChar(dos.EscapeChar); err != nil {
		m.showChannelError(err)
		return
	}
	m.sendData(command)
}

// sendData pushes raw characters plus a carriage return through the channel.
func (m *Model) sendData(text string) {
	for i := 0; i < len(text); i++ {
		if err := m.machine.WriteChar(text[i]); err != nil {
			m.showChannelError(err)
			return
		}
	}
	if err := m.machine.WriteChar('\r'); err != nil {
		m.showChannelError(err)
	}
}

func (m *Model) showReadResult(value string, err error) {
	if err != nil {
		m.showChannelError(err)
		return
	}
	m.appendEntry(displayEntry{entryType: displayEntryOutput, content: value})
}

func (m *Model) showChannelError(err error) {
	var dosErr *dos.Error
	if errors.As(err, &dosErr) {
		m.appendEntry(displayEntry{entryType: displayEntryOutput, content: dosErr.Message, isErr: true})
		return
	}
	if errors.Is(err, ErrNoInput) {
		m.appendEntry(displayEntry{entryType: displayEntryOutput, content: "NO ACTIVE READ FILE", isErr: true})
		return
	}
	log.Error("channel failure", "session", m.session.ID(), "error", err)
	m.appendEntry(displayEntry{entryType: displayEntryOutput, content: err.Error(), isErr: true})
}

// drainTerminal moves pending terminal output into the scrollback.
func (m *Model) drainTerminal() {
	out := m.term.Drain()
	if out == "" {
		return
	}
	m.appendEntry(displayEntry{entryType: displayEntryOutput, content: strings.TrimSuffix(out, "\n")})
}

func (m *Model) appendEntry(entry displayEntry) {
	m.displayHistory = append(m.displayHistory, entry)
}

func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var b strings.Builder

	b.WriteString("DOS channel console, session " + m.session.ID()[:8] + "\n")
	b.WriteString("Type 'help' for usage. Ctrl+D exits.\n\n")

	for _, entry := range m.displayHistory {
		switch entry.entryType {
		case displayEntryCommand:
			b.WriteString(m.promptStyle.Render(m.session.Prompt()))
			b.WriteString(entry.content)
			b.WriteString("\n")
		case displayEntryOutput:
			content := entry.content
			if entry.isErr {
				content = m.errStyle.Render(content)
			}
			b.WriteString(content)
			if !strings.HasSuffix(content, "\n") {
				b.WriteString("\n")
			}
		}
	}

	b.WriteString(m.statusLine())
	b.WriteString("\n")

	b.WriteString(m.promptStyle.Render(m.session.Prompt()))
	b.WriteString(m.buffer[:m.cursor])
	if m.cursorOn {
		b.WriteString("█")
	} else {
		b.WriteString(" ")
	}
	b.WriteString(m.buffer[m.cursor:])
	b.WriteString("\n")

	if m.ready {
		m.viewport.SetContent(b.String())
		m.viewport.GotoBottom()
		return m.viewport.View()
	}
	return b.String()
}

func (m Model) statusLine() string {
	mode := m.machine.ActiveMode().String()
	fw := ""
	if m.machine.FirmwareActive() {
		fw = " fw"
	}
	return fmt.Sprintf("[mode:%s traces:%03b%s]", mode, m.machine.Traces(), fw)
}
