package console

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/TigerQ/jsbasic/pkg/hostio"
)

// ErrNoInput is returned for un-redirected reads: the console is
// display-only on the raw channel, so reads only succeed while a file is
// active in read mode.
var ErrNoInput = errors.New("no terminal input available")

// DisplayTerminal is the console's un-intercepted terminal. Written
// characters collect in a buffer the model drains into its scrollback after
// every channel operation.
type DisplayTerminal struct {
	mu       sync.Mutex
	out      strings.Builder
	firmware bool
}

var _ hostio.Terminal = &DisplayTerminal{}
var _ hostio.Firmware = &DisplayTerminal{}

func NewDisplayTerminal() *DisplayTerminal {
	return &DisplayTerminal{}
}

func (t *DisplayTerminal) WriteChar(c byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c == '\r' {
		c = '\n'
	}
	t.out.WriteByte(c)
	return nil
}

func (t *DisplayTerminal) ReadChar(ctx context.Context) (byte, error) {
	return 0, ErrNoInput
}

func (t *DisplayTerminal) ReadLine(ctx context.Context, prompt string) (string, error) {
	return "", ErrNoInput
}

func (t *DisplayTerminal) SetFirmwareActive(active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.firmware = active
}

func (t *DisplayTerminal) FirmwareActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.firmware
}

// Drain returns and clears the pending terminal output.
func (t *DisplayTerminal) Drain() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.out.String()
	t.out.Reset()
	return s
}
