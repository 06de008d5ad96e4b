package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// maxLineBytes bounds a single response line (analysis results can be large).
const maxLineBytes = 1 << 20

// Channel turns a (method, params) pair into a correlated round-trip
// response over a pair of byte streams. It owns the request id counter and
// enforces the single-in-flight invariant: a second Call while one is
// outstanding fails fast with ErrCallInFlight.
type Channel struct {
	w       io.Writer
	scanner *bufio.Scanner
	nextID  atomic.Int64
	mu      sync.Mutex // held for the full duration of one Call
}

// NewChannel wraps the child's stdin writer and stdout reader. Ids are
// assigned starting at 1, strictly increasing per channel instance.
func NewChannel(w io.Writer, r io.Reader) *Channel {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &Channel{w: w, scanner: scanner}
}

// Call writes one newline-terminated JSON-RPC request and blocks reading
// exactly one response line. There is no timeout: a hung child blocks the
// caller until the supervisor's context kills the process. ctx is checked
// before the write only; an in-progress read cannot be interrupted.
func (c *Channel) Call(ctx context.Context, method string, params any) (*Response, error) {
	if !c.mu.TryLock() {
		return nil, ErrCallInFlight
	}
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := c.nextID.Add(1)
	data, err := json.Marshal(Request{
		JSONRPC: Version,
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal request: %w", err)
	}

	// A pipe write is unbuffered; the trailing newline completes the frame,
	// so the child sees the full request as soon as this returns.
	if _, err := c.w.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("%w: write request: %w", ErrTransport, err)
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return nil, fmt.Errorf("%w: read response: %w", ErrTransport, err)
		}
		return nil, ErrClosed
	}

	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if resp.ID != id {
		return nil, fmt.Errorf("%w: response id %d does not match request id %d", ErrProtocol, resp.ID, id)
	}
	return &resp, nil
}
