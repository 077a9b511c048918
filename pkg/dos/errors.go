package dos

import "fmt"

// Error is the single runtime fault kind surfaced to the host interpreter.
// Every failure carries a numeric code from the fixed taxonomy below plus a
// human-readable message. Faults abort the current command or I/O call and
// are never retried or recovered here.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("dos error %d: %s", e.Code, e.Message)
}

// Fault codes. Reserved codes exist for host-level compatibility and are
// never raised by this layer itself.
const (
	CodeLanguageNotAvailable = 1  // reserved
	CodeRangeError           = 2  // PR# slot other than 0/3
	CodeWriteProtected       = 4  // reserved
	CodeEndOfData            = 5  // read past end of active read-mode buffer
	CodeFileNotFound         = 6  // DELETE/RENAME source, READ, or WRITE target absent
	CodeVolumeMismatch       = 7  // reserved
	CodeIOError              = 8  // underlying store/fetch failure while opening
	CodeDiskFull             = 9  // reserved
	CodeFileLocked           = 10 // reserved
	CodeInvalidOption        = 11 // malformed command line or unrecognized letter
	CodeNoBuffersAvailable   = 12 // reserved
	CodeFileTypeMismatch     = 13 // reserved
	CodeProgramTooLarge      = 14 // reserved
	CodeNotDirectCommand     = 15 // reserved
)

var errorMessages = map[int]string{
	CodeLanguageNotAvailable: "LANGUAGE NOT AVAILABLE",
	CodeRangeError:           "RANGE ERROR",
	CodeWriteProtected:       "WRITE PROTECTED",
	CodeEndOfData:            "END OF DATA",
	CodeFileNotFound:         "FILE NOT FOUND",
	CodeVolumeMismatch:       "VOLUME MISMATCH",
	CodeIOError:              "I/O ERROR",
	CodeDiskFull:             "DISK FULL",
	CodeFileLocked:           "FILE LOCKED",
	CodeInvalidOption:        "INVALID OPTION",
	CodeNoBuffersAvailable:   "NO BUFFERS AVAILABLE",
	CodeFileTypeMismatch:     "FILE TYPE MISMATCH",
	CodeProgramTooLarge:      "PROGRAM TOO LARGE",
	CodeNotDirectCommand:     "NOT DIRECT COMMAND",
}

// NewError builds a fault for one of the fixed codes.
func NewError(code int) *Error {
	msg, ok := errorMessages[code]
	if !ok {
		msg = "I/O ERROR"
		code = CodeIOError
	}
	return &Error{Code: code, Message: msg}
}

func errRangeError() *Error    { return NewError(CodeRangeError) }
func errEndOfData() *Error     { return NewError(CodeEndOfData) }
func errFileNotFound() *Error  { return NewError(CodeFileNotFound) }
func errIOError() *Error       { return NewError(CodeIOError) }
func errInvalidOption() *Error { return NewError(CodeInvalidOption) }
