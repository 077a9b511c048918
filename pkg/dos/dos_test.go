package dos

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TigerQ/jsbasic/pkg/store"
)

// captureTerminal records everything written to the raw channel and serves
// queued lines for un-redirected reads.
type captureTerminal struct {
	out      []byte
	lines    []string
	firmware bool
}

func (c *captureTerminal) WriteChar(b byte) error {
	c.out = append(c.out, b)
	return nil
}

func (c *captureTerminal) ReadChar(ctx context.Context) (byte, error) {
	return 0, io.EOF
}

func (c *captureTerminal) ReadLine(ctx context.Context, prompt string) (string, error) {
	if len(c.lines) == 0 {
		return "", io.EOF
	}
	line := c.lines[0]
	c.lines = c.lines[1:]
	return line, nil
}

func (c *captureTerminal) SetFirmwareActive(active bool) {
	c.firmware = active
}

func newTestDOS(t *testing.T) (*DOS, *captureTerminal, *store.MemoryStore) {
	t.Helper()
	term := &captureTerminal{}
	backing := store.NewMemoryStore()
	d := New(Config{
		Logger:   slog.Default(),
		Store:    backing,
		Terminal: term,
	})
	return d, term, backing
}

func sendLine(t *testing.T, d *DOS, command string) {
	t.Helper()
	require.NoError(t, d.WriteChar(EscapeChar))
	for i := 0; i < len(command); i++ {
		require.NoError(t, d.WriteChar(command[i]))
	}
	require.NoError(t, d.WriteChar('\r'))
}

func requireDOSError(t *testing.T, err error, code int) {
	t.Helper()
	var dosErr *Error
	require.ErrorAs(t, err, &dosErr)
	assert.Equal(t, code, dosErr.Code)
}

func TestInterceptor_PassthroughWhenIdle(t *testing.T) {
	d, term, _ := newTestDOS(t)

	require.NoError(t, d.WriteChar('X'))
	require.NoError(t, d.WriteChar('Y'))

	assert.Equal(t, []byte("XY"), term.out)
}

func TestInterceptor_EscapeIsDiscarded(t *testing.T) {
	d, term, _ := newTestDOS(t)

	require.NoError(t, d.WriteChar(EscapeChar))
	require.NoError(t, d.WriteChar('\r'))

	assert.Empty(t, term.out, "escape and command terminator never reach the terminal")
}

func TestInterceptor_CommandAccumulation(t *testing.T) {
	d, term, _ := newTestDOS(t)

	sendLine(t, d, "OPEN GREETING,L5")

	_, ok := d.Buffer("GREETING")
	assert.True(t, ok)
	assert.Empty(t, term.out, "command text never reaches the terminal")
}

func TestInterceptor_WriteRedirection(t *testing.T) {
	d, term, _ := newTestDOS(t)

	sendLine(t, d, "OPEN F")
	sendLine(t, d, "WRITE F")
	require.NoError(t, d.WriteChar('A'))
	require.NoError(t, d.WriteChar('B'))

	b, ok := d.Buffer("F")
	require.True(t, ok)
	assert.Equal(t, []byte("AB"), b.Content())
	assert.Empty(t, term.out, "redirected characters never reach the terminal")
}

func TestInterceptor_EscapeDuringWriteRunOpensCommandMode(t *testing.T) {
	d, _, _ := newTestDOS(t)

	sendLine(t, d, "OPEN F")
	sendLine(t, d, "WRITE F")
	require.NoError(t, d.WriteChar('A'))

	// the escape mid-run must dispatch a command, not write 0x04 to the file
	sendLine(t, d, "")
	assert.Equal(t, ModeNone, d.ActiveMode())

	b, _ := d.Buffer("F")
	assert.Equal(t, []byte("A"), b.Content())
}

func TestInterceptor_ReadDelegatesWhenIdle(t *testing.T) {
	d, term, _ := newTestDOS(t)
	term.lines = []string{"typed"}

	line, err := d.ReadLine(context.Background(), "?")
	require.NoError(t, err)
	assert.Equal(t, "typed", line)

	_, err = d.ReadChar(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestInterceptor_OutputTraceEchoesWrites(t *testing.T) {
	d, term, _ := newTestDOS(t)

	sendLine(t, d, "OPEN F")
	sendLine(t, d, "WRITE F")
	sendLine(t, d, "MON,O")
	require.NoError(t, d.WriteChar('Q'))

	assert.Equal(t, []byte("Q"), term.out)

	b, _ := d.Buffer("F")
	assert.Equal(t, []byte("Q"), b.Content())
}

func TestInterceptor_Reset(t *testing.T) {
	d, _, backing := newTestDOS(t)

	sendLine(t, d, "OPEN F")
	sendLine(t, d, "WRITE F")
	require.NoError(t, d.WriteChar('A'))

	d.Reset()

	assert.Equal(t, ModeNone, d.ActiveMode())
	_, ok := d.Buffer("F")
	assert.False(t, ok)

	// WRITE initialized the entry to empty; the unflushed 'A' is discarded
	content, err := backing.Get("F")
	require.NoError(t, err)
	assert.Equal(t, "", content)
}

func TestInterceptor_ResetMidCommandAccumulation(t *testing.T) {
	d, term, _ := newTestDOS(t)

	require.NoError(t, d.WriteChar(EscapeChar))
	require.NoError(t, d.WriteChar('O'))
	d.Reset()

	// the half-accumulated command is gone; writes pass through again
	require.NoError(t, d.WriteChar('Z'))
	assert.Equal(t, []byte("Z"), term.out)
}
