package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
)

const (
	// DefaultAuthMethod is used by ConvertAuth when no method is given.
	DefaultAuthMethod = "clientCredential"

	// DefaultMaxFiles bounds a readiness scan when the caller passes 0.
	DefaultMaxFiles = 500
)

// Client exposes the analyzer server's tools as local method calls. Each
// wrapper is a fixed method name plus argument shaping; it returns the raw
// result payload and surfaces a remote error object as a *ResponseError.
// Callers needing the full response envelope use Channel directly.
type Client struct {
	sup *Supervisor
}

// NewClient creates a client that will supervise its own server process.
func NewClient(cfg ServerConfig) *Client {
	return &Client{sup: NewSupervisor(cfg)}
}

// Start spawns the server process and performs the handshake.
func (c *Client) Start(ctx context.Context) error { return c.sup.Start(ctx) }

// Stop terminates the server process. Idempotent.
func (c *Client) Stop() { c.sup.Stop() }

// ServerName returns the name reported during the handshake.
func (c *Client) ServerName() string { return c.sup.ServerName() }

// Channel returns the raw RPC channel, or nil when stopped.
func (c *Client) Channel() *Channel { return c.sup.Channel() }

// ListTools returns the tools the server exposes.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	resp, err := c.call(ctx, "tools/list", struct{}{})
	if err != nil {
		return nil, err
	}
	var result ListToolsResult
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("%w: tools/list result: %w", ErrDecode, err)
	}
	return result.Tools, nil
}

// AnalyzeCode analyzes an inline code snippet for EWS usage.
func (c *Client) AnalyzeCode(ctx context.Context, code string) (json.RawMessage, error) {
	return c.callTool(ctx, "analyzeCode", map[string]any{
		"sources": []map[string]string{{"code": code}},
	})
}

// AnalyzeFile analyzes a file on disk for EWS usage. The path is resolved to
// absolute form; the server enforces its allowlist against it.
func (c *Client) AnalyzeFile(ctx context.Context, path string) (json.RawMessage, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("mcp: resolve %q: %w", path, err)
	}
	return c.callTool(ctx, "analyzeFile", map[string]any{"path": abs})
}

// ConvertToGraph converts an EWS call site to the Microsoft Graph SDK.
// tier selects the conversion tier; 0 lets the server choose.
func (c *Client) ConvertToGraph(ctx context.Context, code string, tier int) (json.RawMessage, error) {
	args := map[string]any{"code": code}
	if tier != 0 {
		args["tier"] = tier
	}
	return c.callTool(ctx, "convertToGraph", args)
}

// ConvertAuth converts EWS credential setup to Graph SDK authentication.
// An empty authMethod defaults to DefaultAuthMethod.
func (c *Client) ConvertAuth(ctx context.Context, code, authMethod string) (json.RawMessage, error) {
	if authMethod == "" {
		authMethod = DefaultAuthMethod
	}
	return c.callTool(ctx, "convertAuth", map[string]any{
		"code":       code,
		"authMethod": authMethod,
	})
}

// GetRoadmap looks up the migration roadmap for an EWS operation by its SDK
// qualified name.
func (c *Client) GetRoadmap(ctx context.Context, sdkQualifiedName string) (json.RawMessage, error) {
	return c.callTool(ctx, "getRoadmap", map[string]any{
		"sdkQualifiedName": sdkQualifiedName,
	})
}

// MigrationReadiness scans a project root for migration readiness. The root
// is registered on the server's allowlist first. maxFiles 0 means
// DefaultMaxFiles.
func (c *Client) MigrationReadiness(ctx context.Context, rootPath string, maxFiles int) (json.RawMessage, error) {
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("mcp: resolve %q: %w", rootPath, err)
	}
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	if _, err := c.AddAllowedPath(ctx, abs); err != nil {
		return nil, err
	}
	return c.callTool(ctx, "getMigrationReadiness", map[string]any{
		"rootPath": abs,
		"maxFiles": maxFiles,
	})
}

// AddAllowedPath registers a filesystem root on the server's allowlist.
// File-based tools reject paths under unregistered roots.
func (c *Client) AddAllowedPath(ctx context.Context, path string) (json.RawMessage, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("mcp: resolve %q: %w", path, err)
	}
	return c.callTool(ctx, "addAllowedPath", map[string]any{"path": abs})
}

// callTool invokes a named tool through the tools/call envelope.
func (c *Client) callTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	return c.call(ctx, "tools/call", CallToolParams{Name: name, Arguments: args})
}

// call performs one round-trip and unwraps the result portion.
func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	ch := c.sup.Channel()
	if ch == nil {
		return nil, ErrClosed
	}
	resp, err := ch.Call(ctx, method, params)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}
