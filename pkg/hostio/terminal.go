package hostio

import "context"

// Terminal is the character channel the host interpreter talks to. The DOS
// layer wraps one of these and is itself one of these, so redirection is
// invisible to the caller.
//
// ReadChar and ReadLine block until data is available. In the redirected
// (file) case they either return immediately with buffered data or fail with
// End of data before blocking; ordering relative to later operations is
// guaranteed by the single logical thread of control driving the channel.
type Terminal interface {
	WriteChar(c byte) error
	ReadChar(ctx context.Context) (byte, error)
	ReadLine(ctx context.Context, prompt string) (string, error)
}

// Firmware is an optional capability of a Terminal. PR#3 enables the 80
// column firmware passthrough, PR#0 disables it. Discovered by type
// assertion; terminals without it still accept the toggle.
type Firmware interface {
	SetFirmwareActive(active bool)
}
