package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/tolgaki/ews-migration-analyzer/common/trace"
	"github.com/tolgaki/ews-migration-analyzer/internal/ewsmcp/appsettings"
	"github.com/tolgaki/ews-migration-analyzer/internal/ewsmcp/history"
	"github.com/tolgaki/ews-migration-analyzer/internal/ewsmcp/mcp"
	"github.com/tolgaki/ews-migration-analyzer/internal/ewsmcp/observability"
	"github.com/tolgaki/ews-migration-analyzer/internal/ewsmcp/serverspec"
)

// session bundles one running client, its trace context, and the optional
// call-history store.
type session struct {
	id      string
	client  *mcp.Client
	history *history.Store
}

// newSession loads settings, resolves the launch manifest, starts the
// analyzer server, and registers the manifest's allowed paths. The caller
// must invoke close on every exit path.
func newSession(ctx context.Context) (context.Context, *session, error) {
	ctx = trace.WithTraceID(ctx, trace.NewID())
	log := observability.WithTrace(ctx)

	settings := loadSettings(log)

	spec, err := loadSpec()
	if err != nil {
		return ctx, nil, err
	}
	mergeLLMEnv(spec, settings)

	s := &session{id: uuid.New().String()}

	if historyPath != "" {
		store, err := history.Open(historyPath)
		if err != nil {
			return ctx, nil, err
		}
		s.history = store
	}

	s.client = mcp.NewClient(spec.ServerConfig())
	if err := s.client.Start(ctx); err != nil {
		s.closeHistory()
		return ctx, nil, err
	}
	log.Info("session started", "session_id", s.id, "server", s.client.ServerName())
	fmt.Printf("Connected to MCP server: %s\n", s.client.ServerName())

	for _, path := range spec.AllowedPaths {
		if _, err := s.do(ctx, "tools/call", "addAllowedPath", func() (json.RawMessage, error) {
			return s.client.AddAllowedPath(ctx, path)
		}); err != nil {
			s.close()
			return ctx, nil, fmt.Errorf("register allowed path %q: %w", path, err)
		}
	}
	return ctx, s, nil
}

// close stops the server process and the history store. Safe to call twice.
func (s *session) close() {
	s.client.Stop()
	s.closeHistory()
}

func (s *session) closeHistory() {
	if s.history != nil {
		s.history.Close()
		s.history = nil
	}
}

// do runs one remote operation, recording its outcome in the history store
// when one is configured. History failures are logged, never fatal.
func (s *session) do(ctx context.Context, method, tool string, fn func() (json.RawMessage, error)) (json.RawMessage, error) {
	start := time.Now()
	raw, err := fn()
	if s.history != nil {
		entry := history.Entry{
			SessionID: s.id,
			Method:    method,
			Tool:      tool,
			OK:        err == nil,
			Duration:  time.Since(start),
		}
		if err != nil {
			entry.Error = err.Error()
		}
		if recErr := s.history.Record(ctx, entry); recErr != nil {
			observability.WithTrace(ctx).Warn("history record failed", "err", recErr)
		}
	}
	return raw, err
}

// listTools lists the server's tools, recording the call like any other
// remote operation.
func (s *session) listTools(ctx context.Context) ([]mcp.Tool, error) {
	var tools []mcp.Tool
	_, err := s.do(ctx, "tools/list", "", func() (json.RawMessage, error) {
		var err error
		tools, err = s.client.ListTools(ctx)
		return nil, err
	})
	return tools, err
}

// loadSettings reads the appsettings files; their absence only means the
// hardcoded defaults apply.
func loadSettings(log *slog.Logger) map[string]any {
	primary, fallback := settingsLocalPath, settingsPath
	settings, _, err := appsettings.Load(primary, fallback)
	if err != nil {
		log.Info("no configuration files found, using hardcoded values")
		return nil
	}
	return settings
}

// loadSpec resolves the launch manifest: an explicit file wins, otherwise
// the default dotnet invocation for the configured project.
func loadSpec() (*serverspec.Spec, error) {
	if manifestPath == "" {
		return serverspec.Default(projectPath), nil
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return serverspec.Parse(data)
}

// mergeLLMEnv forwards LLM settings to the server process environment, the
// same variables the analyzer reads for tier 2/3 conversions. Explicit
// manifest env wins over settings.
func mergeLLMEnv(spec *serverspec.Spec, settings map[string]any) {
	llm, _ := settings["llm"].(map[string]any)
	if llm == nil {
		return
	}
	if spec.Server.Env == nil {
		spec.Server.Env = make(map[string]string)
	}
	for key, envName := range map[string]string{
		"endpoint": "LLM_ENDPOINT",
		"apiKey":   "LLM_API_KEY",
		"model":    "LLM_MODEL",
	} {
		if _, set := spec.Server.Env[envName]; set {
			continue
		}
		if v, ok := llm[key].(string); ok && v != "" {
			spec.Server.Env[envName] = v
		}
	}
}

// printResult pretty-prints a result payload to stdout. Remote errors were
// already surfaced as errors by the wrappers; anything here is payload.
func printResult(raw json.RawMessage) {
	if len(raw) == 0 {
		fmt.Println("(empty result)")
		return
	}
	var buf []byte
	if pretty, err := json.MarshalIndent(json.RawMessage(raw), "", "  "); err == nil {
		buf = pretty
	} else {
		buf = raw
	}
	fmt.Println(string(buf))
}
