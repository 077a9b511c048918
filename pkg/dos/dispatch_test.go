package dos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_OpenCloseRoundTripIsNoOp(t *testing.T) {
	t.Run("Absent name stays absent", func(t *testing.T) {
		d, _, backing := newTestDOS(t)

		require.NoError(t, d.Execute("OPEN A,L5"))
		require.NoError(t, d.Execute("CLOSE A"))

		_, err := backing.Get("A")
		require.Error(t, err, "close of an unmodified buffer must not create a store entry")
	})

	t.Run("Existing content unchanged", func(t *testing.T) {
		d, _, backing := newTestDOS(t)
		require.NoError(t, backing.Set("A", "ORIGINAL"))

		require.NoError(t, d.Execute("OPEN A,L5"))
		require.NoError(t, d.Execute("CLOSE A"))

		content, err := backing.Get("A")
		require.NoError(t, err)
		assert.Equal(t, "ORIGINAL", content)
	})
}

func TestExecute_WriteHelloScenario(t *testing.T) {
	d, _, _ := newTestDOS(t)

	require.NoError(t, d.Execute("OPEN A,L5"))
	require.NoError(t, d.Execute("WRITE A,R0,B0"))
	for _, c := range []byte("HELLO") {
		require.NoError(t, d.WriteChar(c))
	}
	require.NoError(t, d.Execute(""))
	require.NoError(t, d.Execute("READ A,R0,B0"))

	line, err := d.ReadLine(context.Background(), "?")
	require.NoError(t, err)
	assert.Equal(t, "HELLO", line)
}

func TestExecute_ReadMissingFileNotFound(t *testing.T) {
	d, _, _ := newTestDOS(t)

	err := d.Execute("READ MISSING")
	requireDOSError(t, err, CodeFileNotFound)
}

func TestExecute_WriteRequiresOpenBuffer(t *testing.T) {
	d, _, _ := newTestDOS(t)

	err := d.Execute("WRITE NOPE")
	requireDOSError(t, err, CodeFileNotFound)
}

func TestExecute_WriteInitializesAbsentContent(t *testing.T) {
	d, _, backing := newTestDOS(t)

	require.NoError(t, d.Execute("OPEN NEW"))
	require.NoError(t, d.Execute("WRITE NEW"))

	content, err := backing.Get("NEW")
	require.NoError(t, err)
	assert.Equal(t, "", content)
}

func TestExecute_ReadSeeksAbsolute(t *testing.T) {
	d, _, backing := newTestDOS(t)
	require.NoError(t, backing.Set("F", "0123456789ABCDEF"))

	require.NoError(t, d.Execute("OPEN F,L4"))
	require.NoError(t, d.Execute("READ F,R2,B1"))

	b, _ := d.Buffer("F")
	assert.Equal(t, 2, b.RecordNumber())
	assert.Equal(t, 9, b.FilePointer())
	assert.Equal(t, ModeRead, d.ActiveMode())

	c, err := d.ReadChar(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte('9'), c)
}

func TestExecute_WriteRecordSeek(t *testing.T) {
	t.Run("Record length above one seeks from record", func(t *testing.T) {
		d, _, _ := newTestDOS(t)

		require.NoError(t, d.Execute("OPEN F,L5"))
		require.NoError(t, d.Execute("WRITE F,R2,B1"))

		b, _ := d.Buffer("F")
		assert.Equal(t, 2, b.RecordNumber())
		assert.Equal(t, 11, b.FilePointer())
	})

	t.Run("Record length one keeps prior pointer", func(t *testing.T) {
		d, _, _ := newTestDOS(t)

		require.NoError(t, d.Execute("OPEN S"))
		require.NoError(t, d.Execute("WRITE S"))
		for _, c := range []byte("ABCD") {
			require.NoError(t, d.WriteChar(c))
		}
		require.NoError(t, d.Execute(""))

		// sequential access ignores record seeking: R4 must not move the
		// pointer, only B2 is added to the prior value
		require.NoError(t, d.Execute("WRITE S,R4,B2"))

		b, _ := d.Buffer("S")
		assert.Equal(t, 4, b.RecordNumber())
		assert.Equal(t, 6, b.FilePointer())
	})
}

func TestExecute_ZeroFillOnFarWrite(t *testing.T) {
	d, _, _ := newTestDOS(t)

	require.NoError(t, d.Execute("OPEN F,L10"))
	require.NoError(t, d.Execute("WRITE F,R2"))
	require.NoError(t, d.WriteChar('X'))

	b, _ := d.Buffer("F")
	require.Len(t, b.Content(), 21)
	for i := 0; i < 20; i++ {
		assert.Equal(t, byte(0), b.Content()[i])
	}
	assert.Equal(t, byte('X'), b.Content()[20])
}

func TestExecute_PositionDeltasAreAdditive(t *testing.T) {
	split, _, _ := newTestDOS(t)
	require.NoError(t, split.Execute("OPEN F,L3"))
	require.NoError(t, split.Execute("POSITION F,R3"))
	require.NoError(t, split.Execute("POSITION F,R2"))

	single, _, _ := newTestDOS(t)
	require.NoError(t, single.Execute("OPEN F,L3"))
	require.NoError(t, single.Execute("POSITION F,R5"))

	bSplit, _ := split.Buffer("F")
	bSingle, _ := single.Buffer("F")
	assert.Equal(t, bSingle.FilePointer(), bSplit.FilePointer())
	assert.Equal(t, bSingle.RecordNumber(), bSplit.RecordNumber())
	assert.Equal(t, 15, bSplit.FilePointer())
}

func TestExecute_AppendSeeksToEnd(t *testing.T) {
	d, _, backing := newTestDOS(t)
	require.NoError(t, backing.Set("LOG", "0123456789AB"))

	require.NoError(t, d.Execute("APPEND LOG,L5"))

	b, _ := d.Buffer("LOG")
	assert.Equal(t, 12, b.FilePointer())
	assert.Equal(t, 2, b.RecordNumber())
}

func TestExecute_CloseFlushesDirtyBuffer(t *testing.T) {
	d, _, backing := newTestDOS(t)

	require.NoError(t, d.Execute("OPEN F"))
	require.NoError(t, d.Execute("WRITE F"))
	for _, c := range []byte("DATA\r") {
		require.NoError(t, d.WriteChar(c))
	}
	require.NoError(t, d.Execute("CLOSE F"))

	content, err := backing.Get("F")
	require.NoError(t, err)
	assert.Equal(t, "DATA\r", content)

	assert.Equal(t, ModeNone, d.ActiveMode())
	_, ok := d.Buffer("F")
	assert.False(t, ok)
}

func TestExecute_CloseWithoutFilenameClosesAll(t *testing.T) {
	d, _, _ := newTestDOS(t)

	require.NoError(t, d.Execute("OPEN A"))
	require.NoError(t, d.Execute("OPEN B"))
	require.NoError(t, d.Execute("CLOSE"))

	_, okA := d.Buffer("A")
	_, okB := d.Buffer("B")
	assert.False(t, okA)
	assert.False(t, okB)
}

func TestExecute_CloseUnopenedIsNoOp(t *testing.T) {
	d, _, _ := newTestDOS(t)
	require.NoError(t, d.Execute("CLOSE NOTHING"))
}

func TestExecute_EmptyCommandIsIdempotent(t *testing.T) {
	d, _, backing := newTestDOS(t)
	require.NoError(t, backing.Set("F", "X"))

	require.NoError(t, d.Execute("OPEN F"))
	require.NoError(t, d.Execute("READ F"))
	require.NoError(t, d.Execute(""))
	require.NoError(t, d.Execute(""))

	assert.Equal(t, ModeNone, d.ActiveMode())
	_, ok := d.Buffer("F")
	assert.True(t, ok, "null command preserves the open buffer")
}

func TestExecute_Delete(t *testing.T) {
	d, _, backing := newTestDOS(t)
	require.NoError(t, backing.Set("F", "X"))

	require.NoError(t, d.Execute("DELETE F"))
	_, err := backing.Get("F")
	require.Error(t, err)

	err = d.Execute("DELETE F")
	requireDOSError(t, err, CodeFileNotFound)
}

func TestExecute_Rename(t *testing.T) {
	d, _, backing := newTestDOS(t)
	require.NoError(t, backing.Set("OLD", "CONTENT"))

	require.NoError(t, d.Execute("RENAME OLD,NEW"))

	content, err := backing.Get("NEW")
	require.NoError(t, err)
	assert.Equal(t, "CONTENT", content)

	_, err = backing.Get("OLD")
	require.Error(t, err)

	err = d.Execute("RENAME OLD,OTHER")
	requireDOSError(t, err, CodeFileNotFound)
}

func TestExecute_PrSlots(t *testing.T) {
	d, term, _ := newTestDOS(t)

	err := d.Execute("PR#1")
	requireDOSError(t, err, CodeRangeError)
	assert.False(t, d.FirmwareActive())

	require.NoError(t, d.Execute("PR#3"))
	assert.True(t, d.FirmwareActive())
	assert.True(t, term.firmware)

	require.NoError(t, d.Execute("PR#0"))
	assert.False(t, d.FirmwareActive())
	assert.False(t, term.firmware)
}

func TestExecute_MonitorFlags(t *testing.T) {
	d, _, _ := newTestDOS(t)

	require.NoError(t, d.Execute("MON,I,O"))
	assert.Equal(t, TraceInput|TraceOutput, d.Traces())

	require.NoError(t, d.Execute("NOMON,I"))
	assert.Equal(t, TraceOutput, d.Traces())

	require.NoError(t, d.Execute("NOMON,C,O"))
	assert.Equal(t, TraceFlag(0), d.Traces())
}

func TestExecute_InputTraceEchoesReads(t *testing.T) {
	d, term, backing := newTestDOS(t)
	require.NoError(t, backing.Set("F", "HI\r"))

	require.NoError(t, d.Execute("MON,I"))
	require.NoError(t, d.Execute("READ F"))

	line, err := d.ReadLine(context.Background(), "?")
	require.NoError(t, err)
	assert.Equal(t, "HI", line)
	assert.Equal(t, "?HI\r", string(term.out))

	// NOMON,I stops the echo for the same read sequence
	term.out = nil
	require.NoError(t, d.Execute("NOMON,I"))
	require.NoError(t, d.Execute("READ F,R0,B0"))
	_, err = d.ReadLine(context.Background(), "?")
	require.NoError(t, err)
	assert.Empty(t, term.out)
}

func TestExecute_CommandTraceEchoesLine(t *testing.T) {
	d, term, _ := newTestDOS(t)

	require.NoError(t, d.Execute("MON,C"))
	require.NoError(t, d.Execute("OPEN F"))

	assert.Equal(t, "OPEN F\r", string(term.out))
}

func TestExecute_InvalidLines(t *testing.T) {
	testCases := []struct {
		name string
		line string
	}{
		{name: "Unknown keyword", line: "CATALOG"},
		{name: "Letter not allowed for command", line: "OPEN F,R1"},
		{name: "CLOSE takes no letters", line: "CLOSE F,L1"},
		{name: "Garbage", line: "!!!"},
		{name: "PR without slot", line: "PR#"},
		{name: "DELETE with arguments", line: "DELETE F,R1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, _, _ := newTestDOS(t)
			err := d.Execute(tc.line)
			requireDOSError(t, err, CodeInvalidOption)
		})
	}
}

func TestExecute_FailedWriteLeavesPointerUntouched(t *testing.T) {
	d, _, _ := newTestDOS(t)

	require.NoError(t, d.Execute("OPEN F,L5"))
	require.NoError(t, d.Execute("WRITE F,R1"))

	b, _ := d.Buffer("F")
	before := b.FilePointer()

	err := d.Execute("WRITE F,R2,X9")
	requireDOSError(t, err, CodeInvalidOption)
	assert.Equal(t, before, b.FilePointer(), "failed validation must not move the pointer")
}

func TestExecute_CaseInsensitiveKeywords(t *testing.T) {
	d, _, _ := newTestDOS(t)

	require.NoError(t, d.Execute("open MixedCase,l5"))

	b, ok := d.Buffer("MixedCase")
	require.True(t, ok, "filenames keep their case while keywords do not")
	assert.Equal(t, 5, b.RecordLength())
}
