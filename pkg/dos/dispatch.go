package dos

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/TigerQ/jsbasic/pkg/hostio"
)

// Command forms, tried in order against the full line. Keywords are
// case-insensitive; filenames extend to the next comma. The forms are
// mutually exclusive by keyword prefix, so ordering does not affect
// well-formed input; a line matching no form is Invalid option.
var (
	reMon      = regexp.MustCompile(`(?i)^MON(,.*)?$`)
	reNoMon    = regexp.MustCompile(`(?i)^NOMON(,.*)?$`)
	reOpen     = regexp.MustCompile(`(?i)^OPEN\s+([^,]+)(.*)$`)
	reAppend   = regexp.MustCompile(`(?i)^APPEND\s+([^,]+)(.*)$`)
	reClose    = regexp.MustCompile(`(?i)^CLOSE(?:\s+([^,]+))?$`)
	rePosition = regexp.MustCompile(`(?i)^POSITION\s+([^,]+)(.*)$`)
	reRead     = regexp.MustCompile(`(?i)^READ\s+([^,]+)(.*)$`)
	reWrite    = regexp.MustCompile(`(?i)^WRITE\s+([^,]+)(.*)$`)
	reDelete   = regexp.MustCompile(`(?i)^DELETE\s+([^,]+)$`)
	reRename   = regexp.MustCompile(`(?i)^RENAME\s+([^,]+),([^,]+)$`)
	rePrNum    = regexp.MustCompile(`(?i)^PR#\s*(\d+)$`)
)

// Execute dispatches one accumulated command line. The empty (null) command
// clears the active buffer and mode without closing anything. Failures
// surface as *Error and leave buffer state untouched.
func (d *DOS) Execute(line string) error {
	if d.traces&TraceCommands != 0 {
		d.echo(line + "\r")
	}

	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		d.active = nil
		d.mode = ModeNone
		return nil
	}

	d.logger.Debug("dispatching command", "line", trimmed)

	switch {
	case reMon.MatchString(trimmed):
		return d.cmdMonitor(reMon.FindStringSubmatch(trimmed)[1], true)

	case reNoMon.MatchString(trimmed):
		return d.cmdMonitor(reNoMon.FindStringSubmatch(trimmed)[1], false)

	case reOpen.MatchString(trimmed):
		m := reOpen.FindStringSubmatch(trimmed)
		return d.cmdOpen(filename(m[1]), m[2], false)

	case reAppend.MatchString(trimmed):
		m := reAppend.FindStringSubmatch(trimmed)
		return d.cmdOpen(filename(m[1]), m[2], true)

	case reClose.MatchString(trimmed):
		return d.cmdClose(filename(reClose.FindStringSubmatch(trimmed)[1]))

	case rePosition.MatchString(trimmed):
		m := rePosition.FindStringSubmatch(trimmed)
		return d.cmdPosition(filename(m[1]), m[2])

	case reRead.MatchString(trimmed):
		m := reRead.FindStringSubmatch(trimmed)
		return d.cmdRead(filename(m[1]), m[2])

	case reWrite.MatchString(trimmed):
		m := reWrite.FindStringSubmatch(trimmed)
		return d.cmdWrite(filename(m[1]), m[2])

	case reDelete.MatchString(trimmed):
		return d.cmdDelete(filename(reDelete.FindStringSubmatch(trimmed)[1]))

	case reRename.MatchString(trimmed):
		m := reRename.FindStringSubmatch(trimmed)
		return d.cmdRename(filename(m[1]), filename(m[2]))

	case rePrNum.MatchString(trimmed):
		slot, err := strconv.Atoi(rePrNum.FindStringSubmatch(trimmed)[1])
		if err != nil {
			return errInvalidOption()
		}
		return d.cmdPr(slot)
	}

	return errInvalidOption()
}

func filename(raw string) string {
	return strings.TrimSpace(raw)
}

// cmdMonitor handles MON and NOMON: each flag present is set or cleared
// independently.
func (d *DOS) cmdMonitor(tail string, set bool) error {
	args, err := parseArguments(tail, flagLetters)
	if err != nil {
		return err
	}

	apply := func(flag TraceFlag, present bool) {
		if !present {
			return
		}
		if set {
			d.traces |= flag
		} else {
			d.traces &^= flag
		}
	}
	apply(TraceInput, args.FlagI)
	apply(TraceCommands, args.FlagC)
	apply(TraceOutput, args.FlagO)
	return nil
}

// cmdOpen handles OPEN and APPEND. APPEND additionally seeks to the end of
// content and realigns the record number.
func (d *DOS) cmdOpen(name string, tail string, appendMode bool) error {
	args, err := parseArguments(tail, "L")
	if err != nil {
		return err
	}

	b, err := d.openBuffer(name, args.Length)
	if err != nil {
		return err
	}

	if appendMode {
		b.seekEnd()
	}
	return nil
}

// cmdClose flushes and removes one buffer, or every open buffer when no
// filename is given. Closing a buffer that is not open is a no-op.
func (d *DOS) cmdClose(name string) error {
	if name == "" {
		for _, b := range d.buffers {
			if err := d.closeBuffer(b); err != nil {
				return err
			}
		}
		return nil
	}

	if b, ok := d.buffers[name]; ok {
		return d.closeBuffer(b)
	}
	return nil
}

// cmdPosition advances the record number and file pointer by a relative
// record count. Deltas are additive across calls.
func (d *DOS) cmdPosition(name string, tail string) error {
	args, err := parseArguments(tail, "R")
	if err != nil {
		return err
	}

	b, err := d.openBuffer(name, 0)
	if err != nil {
		return err
	}

	b.recordNumber += args.Record
	b.filePointer += b.recordLength * args.Record
	return nil
}

// cmdRead seeks to an absolute record plus byte offset and makes the buffer
// the active read target. The backing content must exist.
func (d *DOS) cmdRead(name string, tail string) error {
	args, err := parseArguments(tail, "RB")
	if err != nil {
		return err
	}

	b, err := d.openBuffer(name, 0)
	if err != nil {
		return err
	}
	if !b.stored {
		return errFileNotFound()
	}

	b.recordNumber = args.Record
	b.filePointer = b.recordLength*args.Record + args.Byte
	d.active = b
	d.mode = ModeRead
	return nil
}

// cmdWrite makes an already-open buffer the active write target. Absent
// backing content is initialized to empty in the durable store first. With
// record length 1 the file pointer is not reset from the record number:
// sequential access ignores record seeking and only the byte offset is
// added to the prior pointer value.
func (d *DOS) cmdWrite(name string, tail string) error {
	args, err := parseArguments(tail, "RB")
	if err != nil {
		return err
	}

	b, ok := d.buffers[name]
	if !ok {
		return errFileNotFound()
	}

	if !b.stored {
		if err := d.store.Set(b.name, ""); err != nil {
			d.logger.Error("initializing store entry failed", "name", b.name, "error", err)
			return errIOError()
		}
		b.stored = true
	}

	b.recordNumber = args.Record
	if b.recordLength > 1 {
		b.filePointer = b.recordLength * args.Record
	}
	b.filePointer += args.Byte
	d.active = b
	d.mode = ModeWrite
	return nil
}

// cmdDelete removes the durable-store entry for name.
func (d *DOS) cmdDelete(name string) error {
	if _, err := d.store.Get(name); err != nil {
		if isNotFound(err) {
			return errFileNotFound()
		}
		return errIOError()
	}
	if err := d.store.Delete(name); err != nil {
		return errIOError()
	}
	return nil
}

// cmdRename moves content from one store key to another.
func (d *DOS) cmdRename(name string, newName string) error {
	content, err := d.store.Get(name)
	if err != nil {
		if isNotFound(err) {
			return errFileNotFound()
		}
		return errIOError()
	}
	if err := d.store.Set(newName, content); err != nil {
		return errIOError()
	}
	if err := d.store.Delete(name); err != nil {
		return errIOError()
	}
	return nil
}

// cmdPr toggles terminal firmware passthrough. Only slots 0 and 3 exist.
func (d *DOS) cmdPr(slot int) error {
	if slot != 0 && slot != 3 {
		return errRangeError()
	}
	d.firmware = slot == 3
	if fw, ok := d.term.(hostio.Firmware); ok {
		fw.SetFirmwareActive(d.firmware)
	}
	return nil
}
