package dos

// Mode is the file-redirection axis of the channel: exactly one of none,
// read, or write applies to the active buffer at any instant.
type Mode int

const (
	ModeNone Mode = iota
	ModeRead
	ModeWrite
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	default:
		return "none"
	}
}

// FileBuffer is the in-memory representation of one open file. The content
// slice is exclusively owned by the buffer while open and written back to
// the durable store on close. filePointer is the single authoritative byte
// cursor; recordNumber is advisory bookkeeping maintained by the seek
// commands.
type FileBuffer struct {
	name         string
	content      []byte
	recordLength int
	recordNumber int
	filePointer  int

	// stored reports whether backing content exists (durable store hit or
	// bulk source fetch). A freshly created buffer for an absent name is
	// not stored until WRITE initializes it.
	stored bool
	dirty  bool
}

func newFileBuffer(name string, content []byte, recordLength int, stored bool) *FileBuffer {
	// Record length 0 is sequential access.
	if recordLength < 1 {
		recordLength = 1
	}
	return &FileBuffer{
		name:         name,
		content:      content,
		recordLength: recordLength,
		stored:       stored,
	}
}

func (b *FileBuffer) Name() string      { return b.name }
func (b *FileBuffer) Content() []byte   { return b.content }
func (b *FileBuffer) RecordLength() int { return b.recordLength }
func (b *FileBuffer) RecordNumber() int { return b.recordNumber }
func (b *FileBuffer) FilePointer() int  { return b.filePointer }

// WriteChar splices a single character into the content at the file pointer:
// the gap up to the pointer is zero-filled (sparse record files), a write at
// the end appends, and a write inside the content replaces exactly one
// character without changing the length. The pointer always advances by one.
func (b *FileBuffer) WriteChar(c byte) {
	for b.filePointer > len(b.content) {
		b.content = append(b.content, 0)
	}
	if b.filePointer == len(b.content) {
		b.content = append(b.content, c)
	} else {
		b.content[b.filePointer] = c
	}
	b.filePointer++
	b.dirty = true
}

// ReadChar returns the character at the file pointer and advances it, or
// End of data at the end of content.
func (b *FileBuffer) ReadChar() (byte, error) {
	if b.filePointer >= len(b.content) {
		return 0, errEndOfData()
	}
	c := b.content[b.filePointer]
	b.filePointer++
	return c, nil
}

// ReadLine collects characters from the file pointer up to a carriage
// return, line feed, or NUL (consumed but not included) or the end of
// content (not consumed). End of data if already at the end.
func (b *FileBuffer) ReadLine() (string, error) {
	if b.filePointer >= len(b.content) {
		return "", errEndOfData()
	}
	start := b.filePointer
	for b.filePointer < len(b.content) {
		c := b.content[b.filePointer]
		if c == '\r' || c == '\n' || c == 0 {
			line := string(b.content[start:b.filePointer])
			b.filePointer++
			return line, nil
		}
		b.filePointer++
	}
	return string(b.content[start:]), nil
}

// seekEnd positions the pointer just past the last byte and realigns the
// advisory record number. Used by APPEND.
func (b *FileBuffer) seekEnd() {
	b.filePointer = len(b.content)
	b.recordNumber = b.filePointer / b.recordLength
}
