package console

import (
	"time"

	"github.com/google/uuid"
)

// Session tracks one console user's line history and identity.
type Session struct {
	sessionID string

	history       []string
	historyIndex  int
	currentBuffer string
	inHistoryMode bool

	prompt         string
	startTimestamp time.Time
}

func NewSession(prompt string) *Session {
	return &Session{
		sessionID:      uuid.New().String(),
		history:        []string{},
		historyIndex:   -1,
		prompt:         prompt,
		startTimestamp: time.Now(),
	}
}

func (s *Session) ID() string {
	return s.sessionID
}

func (s *Session) Prompt() string {
	return s.prompt
}

func (s *Session) Uptime() time.Duration {
	return time.Since(s.startTimestamp)
}

func (s *Session) AddToHistory(cmd string) {
	if cmd != "" {
		s.history = append(s.history, cmd)
		s.historyIndex = len(s.history)
		s.inHistoryMode = false
	}
}

func (s *Session) StartHistoryNavigation(currentBuffer string) {
	if !s.inHistoryMode {
		s.currentBuffer = currentBuffer
		s.inHistoryMode = true
		s.historyIndex = len(s.history)
	}
}

func (s *Session) IsInHistoryMode() bool {
	return s.inHistoryMode
}

func (s *Session) NavigateHistory(up bool) string {
	if len(s.history) == 0 {
		return ""
	}

	if up {
		if s.historyIndex > 0 {
			s.historyIndex--
			return s.history[s.historyIndex]
		}
	} else {
		if s.historyIndex < len(s.history)-1 {
			s.historyIndex++
			return s.history[s.historyIndex]
		}
		s.historyIndex = len(s.history)
		s.inHistoryMode = false
		return s.currentBuffer
	}

	if s.historyIndex >= 0 && s.historyIndex < len(s.history) {
		return s.history[s.historyIndex]
	}

	return s.currentBuffer
}
