package mcp

import (
	"errors"
	"fmt"
)

// Error kinds for local faults. Remote-reported errors are never one of
// these; they surface as *ResponseError.
var (
	// ErrTransport covers write failures (broken pipe) and read failures
	// (closed stream). The channel must not be reused after one.
	ErrTransport = errors.New("mcp: transport failure")

	// ErrClosed is the end-of-stream flavor of ErrTransport: the child
	// produced no response line, or the channel was already stopped.
	// errors.Is(err, ErrTransport) also holds for it.
	ErrClosed = fmt.Errorf("%w: channel closed", ErrTransport)

	// ErrDecode means a response line was not a valid JSON object. Exactly
	// one line was consumed, so the channel stays usable.
	ErrDecode = errors.New("mcp: protocol decode failure")

	// ErrProtocol means the response id did not match the request id. With
	// one request in flight a mismatch indicates a misbehaving child.
	ErrProtocol = errors.New("mcp: protocol violation")

	// ErrCallInFlight is returned when a second Call is attempted while one
	// is outstanding. The channel carries exactly one request at a time.
	ErrCallInFlight = errors.New("mcp: call already in flight")
)
