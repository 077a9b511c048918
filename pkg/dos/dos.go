// Package dos emulates the command and file-access layer of a single-user
// disk operating system embedded in a character-oriented terminal channel.
// It intercepts the channel's three I/O entry points, recognizes the in-band
// command-escape protocol, and transparently redirects character traffic to
// named record-oriented file buffers backed by a durable store.
package dos

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/TigerQ/jsbasic/pkg/hostio"
	"github.com/TigerQ/jsbasic/pkg/store"
)

// EscapeChar is the in-band control character that opens command mode.
const EscapeChar byte = 0x04

// TraceFlag is one of the independent monitor toggles set by MON/NOMON.
type TraceFlag uint8

const (
	TraceInput TraceFlag = 1 << iota
	TraceCommands
	TraceOutput
)

type Config struct {
	Logger *slog.Logger
	Store  store.Store

	// Source optionally seeds content for names absent from the store.
	Source store.ContentSource

	// Terminal is the un-intercepted channel; all passthrough and trace
	// echoes go here directly so dispatch-time output is never redirected
	// back into file mode.
	Terminal hostio.Terminal

	AppCtx context.Context
}

// DOS owns the session state: the open buffer set, the active buffer and
// its mode, the command-mode accumulator, and the trace flags. It
// implements hostio.Terminal so it can be installed in front of the real
// terminal.
type DOS struct {
	logger *slog.Logger
	store  store.Store
	source store.ContentSource
	term   hostio.Terminal
	appCtx context.Context

	buffers map[string]*FileBuffer
	active  *FileBuffer
	mode    Mode

	commandMode bool
	command     strings.Builder

	traces   TraceFlag
	firmware bool
}

var _ hostio.Terminal = &DOS{}

func New(config Config) *DOS {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.AppCtx == nil {
		config.AppCtx = context.Background()
	}
	return &DOS{
		logger:  config.Logger.WithGroup("dos"),
		store:   config.Store,
		source:  config.Source,
		term:    config.Terminal,
		appCtx:  config.AppCtx,
		buffers: make(map[string]*FileBuffer),
	}
}

// Reset clears the whole session: open buffers are discarded without
// flushing, the active mode and command accumulator are cleared, and all
// trace flags drop. Safe to call at any time, including mid-read/write.
func (d *DOS) Reset() {
	d.buffers = make(map[string]*FileBuffer)
	d.active = nil
	d.mode = ModeNone
	d.commandMode = false
	d.command.Reset()
	d.traces = 0
	d.logger.Debug("session reset")
}

// Traces reports the current monitor flag set.
func (d *DOS) Traces() TraceFlag { return d.traces }

// FirmwareActive reports the PR# passthrough state.
func (d *DOS) FirmwareActive() bool { return d.firmware }

// ActiveMode reports the current file-redirection mode.
func (d *DOS) ActiveMode() Mode { return d.mode }

// Buffer returns the open buffer for name, if any.
func (d *DOS) Buffer(name string) (*FileBuffer, bool) {
	b, ok := d.buffers[name]
	return b, ok
}

// WriteChar is the intercepted write entry point. While command mode is
// active, characters accumulate until a line terminator dispatches the
// command. The escape character opens command mode. In write mode the
// character is spliced into the active buffer. Anything else passes through
// to the terminal unchanged.
func (d *DOS) WriteChar(c byte) error {
	if d.commandMode {
		if c == '\r' || c == '\n' {
			d.commandMode = false
			line := d.command.String()
			d.command.Reset()
			return d.Execute(line)
		}
		d.command.WriteByte(c)
		return nil
	}

	if c == EscapeChar {
		d.commandMode = true
		return nil
	}

	if d.mode == ModeWrite {
		if d.traces&TraceOutput != 0 {
			d.echo(string(c))
		}
		d.active.WriteChar(c)
		return nil
	}

	return d.term.WriteChar(c)
}

// ReadChar is the intercepted read entry point. In read mode it takes the
// next character from the active buffer, failing with End of data at the
// end of content; otherwise it delegates to the terminal.
func (d *DOS) ReadChar(ctx context.Context) (byte, error) {
	if d.mode == ModeRead {
		c, err := d.active.ReadChar()
		if err != nil {
			return 0, err
		}
		if d.traces&TraceInput != 0 {
			d.echo(string(c))
		}
		return c, nil
	}
	return d.term.ReadChar(ctx)
}

// ReadLine is the intercepted line read. In read mode it scans the active
// buffer to the next line terminator; otherwise it delegates.
func (d *DOS) ReadLine(ctx context.Context, prompt string) (string, error) {
	if d.mode == ModeRead {
		line, err := d.active.ReadLine()
		if err != nil {
			return "", err
		}
		if d.traces&TraceInput != 0 {
			d.echo(prompt + line + "\r")
		}
		return line, nil
	}
	return d.term.ReadLine(ctx, prompt)
}

// echo writes directly to the inner terminal, bypassing interception.
func (d *DOS) echo(s string) {
	for i := 0; i < len(s); i++ {
		if err := d.term.WriteChar(s[i]); err != nil {
			d.logger.Debug("echo write failed", "error", err)
			return
		}
	}
}

// openBuffer returns the open buffer for name, loading content from the
// durable store or the bulk source when the file is opened for the first
// time. It never creates a durable-store entry. A bulk source fetch failure
// leaves the buffer absent rather than failing the open.
func (d *DOS) openBuffer(name string, recordLength int) (*FileBuffer, error) {
	if b, ok := d.buffers[name]; ok {
		return b, nil
	}

	content := ""
	stored := false

	v, err := d.store.Get(name)
	switch {
	case err == nil:
		content, stored = v, true
	case isNotFound(err):
		if d.source != nil {
			fetched, ferr := d.source.Fetch(d.appCtx, name)
			if ferr == nil {
				content, stored = fetched, true
			} else if !isNotFound(ferr) {
				d.logger.Warn("bulk source fetch failed", "name", name, "error", ferr)
			}
		}
	default:
		d.logger.Error("store get failed", "name", name, "error", err)
		return nil, errIOError()
	}

	b := newFileBuffer(name, []byte(content), recordLength, stored)
	d.buffers[name] = b
	d.logger.Debug("opened buffer", "name", name, "record_length", b.recordLength, "stored", stored, "bytes", len(content))
	return b, nil
}

// closeBuffer flushes a dirty buffer back to the store and drops it from
// the open set, clearing the active mode if it was the active buffer.
func (d *DOS) closeBuffer(b *FileBuffer) error {
	if b.dirty {
		if err := d.store.Set(b.name, string(b.content)); err != nil {
			d.logger.Error("flush on close failed", "name", b.name, "error", err)
			return errIOError()
		}
	}
	delete(d.buffers, b.name)
	if d.active == b {
		d.active = nil
		d.mode = ModeNone
	}
	d.logger.Debug("closed buffer", "name", b.name, "flushed", b.dirty)
	return nil
}

func isNotFound(err error) bool {
	var notFound *store.ErrKeyNotFound
	return errors.As(err, &notFound)
}
