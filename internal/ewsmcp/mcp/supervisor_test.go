package mcp_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/tolgaki/ews-migration-analyzer/internal/ewsmcp/mcp"
)

// stubConfig returns a ServerConfig that re-executes this test binary as a
// stub analyzer server (see TestHelperProcess).
func stubConfig(mode string) mcp.ServerConfig {
	return mcp.ServerConfig{
		Command: os.Args[0],
		Args:    []string{"-test.run=^TestHelperProcess$"},
		Env: map[string]string{
			"GO_WANT_HELPER_PROCESS": "1",
			"STUB_MODE":              mode,
		},
	}
}

// TestStartHandshakeAndListTools is the end-to-end scenario: the handshake
// reports the stub's server name and tools/list yields one descriptor.
func TestStartHandshakeAndListTools(t *testing.T) {
	client := mcp.NewClient(stubConfig(""))
	ctx := context.Background()

	if err := client.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer client.Stop()

	if got := client.ServerName(); got != "stub" {
		t.Errorf("ServerName = %q, want %q", got, "stub")
	}

	tools, err := client.ListTools(ctx)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(tools) != 1 || tools[0].Name != "analyzeCode" {
		t.Errorf("tools = %+v, want one descriptor named analyzeCode", tools)
	}
}

// TestToolWrapperArgumentShaping drives the echo path of the stub and checks
// the wrapper-built arguments arrive with the spec'd shape.
func TestToolWrapperArgumentShaping(t *testing.T) {
	client := mcp.NewClient(stubConfig(""))
	ctx := context.Background()

	if err := client.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer client.Stop()

	// The stub echoes tools/call params back as the result.
	raw, err := client.ConvertAuth(ctx, "new WebCredentials(u, p)", "")
	if err != nil {
		t.Fatalf("ConvertAuth: %v", err)
	}
	var echoed struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(raw, &echoed); err != nil {
		t.Fatalf("unmarshal echoed params: %v", err)
	}
	if echoed.Name != "convertAuth" {
		t.Errorf("tool name = %q, want convertAuth", echoed.Name)
	}
	if got := echoed.Arguments["authMethod"]; got != "clientCredential" {
		t.Errorf("authMethod = %v, want default clientCredential", got)
	}

	raw, err = client.ConvertToGraph(ctx, "service.FindItems(...)", 0)
	if err != nil {
		t.Fatalf("ConvertToGraph: %v", err)
	}
	if err := json.Unmarshal(raw, &echoed); err != nil {
		t.Fatalf("unmarshal echoed params: %v", err)
	}
	if _, present := echoed.Arguments["tier"]; present {
		t.Error("tier should be omitted when unset")
	}
}

// TestMigrationReadinessDefaults verifies the readiness wrapper resolves the
// root to absolute form and fills in the default file cap.
func TestMigrationReadinessDefaults(t *testing.T) {
	client := mcp.NewClient(stubConfig(""))
	ctx := context.Background()

	if err := client.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer client.Stop()

	root := t.TempDir()
	raw, err := client.MigrationReadiness(ctx, root, 0)
	if err != nil {
		t.Fatalf("MigrationReadiness: %v", err)
	}
	var echoed struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(raw, &echoed); err != nil {
		t.Fatalf("unmarshal echoed params: %v", err)
	}
	if echoed.Name != "getMigrationReadiness" {
		t.Errorf("tool name = %q", echoed.Name)
	}
	if got := echoed.Arguments["maxFiles"]; got != float64(mcp.DefaultMaxFiles) {
		t.Errorf("maxFiles = %v, want %d", got, mcp.DefaultMaxFiles)
	}
	if got := echoed.Arguments["rootPath"]; got != root {
		t.Errorf("rootPath = %v, want %q", got, root)
	}
}

// TestStopIdempotent verifies Stop twice is a no-op the second time and that
// calls after Stop fail with the channel-closed error.
func TestStopIdempotent(t *testing.T) {
	client := mcp.NewClient(stubConfig(""))
	if err := client.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	client.Stop()
	client.Stop() // must not panic or send a second shutdown

	_, err := client.ListTools(context.Background())
	if !errors.Is(err, mcp.ErrClosed) {
		t.Fatalf("call after Stop: expected ErrClosed, got: %v", err)
	}
}

// TestCallAfterChildExit verifies a child that exits mid-session produces a
// transport failure, not a hang and not a decode failure.
func TestCallAfterChildExit(t *testing.T) {
	client := mcp.NewClient(stubConfig("exit-after-init"))
	ctx := context.Background()

	if err := client.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer client.Stop()

	_, err := client.ListTools(ctx)
	if !errors.Is(err, mcp.ErrTransport) {
		t.Fatalf("expected transport failure, got: %v", err)
	}
}

// TestStartSpawnFailure verifies a missing executable fails Start
// immediately.
func TestStartSpawnFailure(t *testing.T) {
	client := mcp.NewClient(mcp.ServerConfig{Command: "/nonexistent/ews-analyzer"})
	if err := client.Start(context.Background()); err == nil {
		t.Fatal("expected spawn failure")
	}
}

// TestHelperProcess is not a real test: when re-executed with
// GO_WANT_HELPER_PROCESS=1 it acts as a stub analyzer server speaking
// newline-delimited JSON-RPC on stdin/stdout.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)
	runStubServer(os.Getenv("STUB_MODE"))
}

func runStubServer(mode string) {
	scanner := bufio.NewScanner(os.Stdin)
	enc := json.NewEncoder(os.Stdout)

	reply := func(id int64, result any) {
		enc.Encode(map[string]any{"jsonrpc": "2.0", "id": id, "result": result})
	}

	for scanner.Scan() {
		var req struct {
			ID     int64           `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}

		switch req.Method {
		case "initialize":
			reply(req.ID, map[string]any{
				"serverInfo": map[string]any{"name": "stub", "version": "0.0.0"},
			})
			if mode == "exit-after-init" {
				return
			}
		case "tools/list":
			reply(req.ID, map[string]any{
				"tools": []map[string]any{{"name": "analyzeCode", "description": "x"}},
			})
		case "tools/call":
			// Echo the call params so tests can assert argument shaping.
			var params any
			json.Unmarshal(req.Params, &params)
			reply(req.ID, params)
		case "shutdown":
			reply(req.ID, map[string]any{})
			return
		default:
			enc.Encode(map[string]any{
				"jsonrpc": "2.0",
				"id":      req.ID,
				"error":   map[string]any{"code": -32601, "message": "method not found"},
			})
		}
	}
}
