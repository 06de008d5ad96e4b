package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
)

// ServerConfig describes how to launch the analyzer server process.
type ServerConfig struct {
	Command string
	Args    []string
	Env     map[string]string // added on top of the inherited environment
	Dir     string            // working directory; empty means inherit
}

// Supervisor owns a single analyzer server process for the lifetime of one
// client session: it spawns the process, performs the initialize handshake,
// and terminates it on Stop. The child and its streams are exclusively owned
// by one Supervisor; there is no sharing across instances.
type Supervisor struct {
	cfg        ServerConfig
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	channel    *Channel
	serverName string
}

// NewSupervisor creates a Supervisor with no process running yet.
func NewSupervisor(cfg ServerConfig) *Supervisor {
	return &Supervisor{cfg: cfg}
}

// Start launches the configured executable with stdin/stdout wired as pipes
// and stderr passed through for diagnostics, then performs the initialize
// handshake. A spawn or handshake failure is fatal: the process (if any) is
// torn down and the supervisor is left stopped. Failing to call Stop after a
// successful Start leaks the child process.
func (s *Supervisor) Start(ctx context.Context) error {
	if s.cmd != nil {
		return fmt.Errorf("mcp: supervisor already started")
	}

	cmd := exec.CommandContext(ctx, s.cfg.Command, s.cfg.Args...)
	cmd.Env = buildEnv(s.cfg.Env)
	cmd.Dir = s.cfg.Dir
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("mcp: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("mcp: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		return fmt.Errorf("mcp: start %s: %w", s.cfg.Command, err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.channel = NewChannel(stdin, stdout)

	// Handshake doubles as a readiness probe: a process that cannot answer
	// initialize is unusable.
	resp, err := s.channel.Call(ctx, "initialize", struct{}{})
	if err != nil {
		s.terminate()
		return fmt.Errorf("mcp: initialize: %w", err)
	}
	if resp.Error != nil {
		s.terminate()
		return fmt.Errorf("mcp: initialize: %w", resp.Error)
	}

	var init InitializeResult
	if len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, &init); err != nil {
			s.terminate()
			return fmt.Errorf("%w: initialize result: %w", ErrDecode, err)
		}
	}
	s.serverName = init.ServerInfo.Name

	slog.Info("mcp server ready", "command", s.cfg.Command, "server", s.serverName)
	return nil
}

// ServerName returns the name the server reported during the handshake.
func (s *Supervisor) ServerName() string { return s.serverName }

// Channel returns the live RPC channel, or nil when stopped.
func (s *Supervisor) Channel() *Channel { return s.channel }

// Stop sends a best-effort shutdown request, discarding any error from it
// (the process may already be gone), then unconditionally terminates the
// process and clears the handle. Stop on an already-stopped supervisor is a
// no-op and sends nothing.
func (s *Supervisor) Stop() {
	if s.cmd == nil {
		return
	}
	if _, err := s.channel.Call(context.Background(), "shutdown", struct{}{}); err != nil {
		slog.Debug("mcp: shutdown request failed", "err", err)
	}
	s.terminate()
}

// terminate kills the process, reaps it, and clears all handles.
func (s *Supervisor) terminate() {
	s.stdin.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd.Wait()
	s.cmd = nil
	s.stdin = nil
	s.channel = nil
}

// buildEnv merges extra variables on top of the inherited environment.
func buildEnv(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}
