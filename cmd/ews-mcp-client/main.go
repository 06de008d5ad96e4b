// ews-mcp-client is a demonstration client for the EWS migration analyzer
// MCP server. It launches the server as a child process, speaks
// newline-delimited JSON-RPC 2.0 over its stdin/stdout, and exposes the
// analyzer tools as subcommands.
//
// Optional environment variables:
//
//	LOG_LEVEL        - "debug", "info", "warn", "error" (default: "info")
//	LOG_FORMAT       - "text" or "json" (default: "text")
//	EWS_MCP_HISTORY  - path to a SQLite call-history database (default: off)
//	EWS_MCP_PROJECT  - path to the analyzer server csproj (default build target)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tolgaki/ews-migration-analyzer/common/environment"
	"github.com/tolgaki/ews-migration-analyzer/common/version"
	"github.com/tolgaki/ews-migration-analyzer/internal/ewsmcp/appsettings"
	"github.com/tolgaki/ews-migration-analyzer/internal/ewsmcp/history"
	"github.com/tolgaki/ews-migration-analyzer/internal/ewsmcp/observability"
)

const defaultProject = "src/Ews.Code.Analyzer/Ews.Analyzer.McpService/Ews.Analyzer.McpService.csproj"

var (
	manifestPath      string
	projectPath       string
	historyPath       string
	settingsLocalPath string
	settingsPath      string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "ews-mcp-client",
		Short:         "Demo client for the EWS migration analyzer MCP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			observability.Setup(
				environment.StringOr("LOG_LEVEL", "info"),
				environment.StringOr("LOG_FORMAT", "text"),
			)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&manifestPath, "manifest", "", "YAML launch manifest for the analyzer server")
	pf.StringVar(&projectPath, "project", environment.StringOr("EWS_MCP_PROJECT", defaultProject),
		"analyzer server csproj, used when no manifest is given")
	pf.StringVar(&historyPath, "history-db", environment.StringOr("EWS_MCP_HISTORY", ""),
		"record calls in this SQLite database")
	pf.StringVar(&settingsLocalPath, "settings-local", appsettings.DefaultLocalPath,
		"primary settings file")
	pf.StringVar(&settingsPath, "settings", appsettings.DefaultPath,
		"fallback settings file")

	rootCmd.AddCommand(
		newToolsCmd(),
		newAnalyzeCmd(),
		newConvertCmd(),
		newConvertAuthCmd(),
		newRoadmapCmd(),
		newReadinessCmd(),
		newAllowCmd(),
		newDemoCmd(),
		newHistoryCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withSession starts the analyzer server, runs fn, and guarantees shutdown on
// every exit path.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx, s, err := newSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()
	return fn(ctx, s)
}

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools the analyzer server exposes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				tools, err := s.listTools(ctx)
				if err != nil {
					return err
				}
				for _, tool := range tools {
					fmt.Printf("  %-25s %s\n", tool.Name, tool.Description)
				}
				return nil
			})
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	var code, file string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze inline code or a file for EWS usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (code == "") == (file == "") {
				return fmt.Errorf("exactly one of --code or --file is required")
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				var raw json.RawMessage
				var err error
				if code != "" {
					raw, err = s.do(ctx, "tools/call", "analyzeCode", func() (json.RawMessage, error) {
						return s.client.AnalyzeCode(ctx, code)
					})
				} else {
					raw, err = s.do(ctx, "tools/call", "analyzeFile", func() (json.RawMessage, error) {
						return s.client.AnalyzeFile(ctx, file)
					})
				}
				if err != nil {
					return err
				}
				printResult(raw)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "inline code snippet to analyze")
	cmd.Flags().StringVar(&file, "file", "", "file to analyze")
	return cmd
}

func newConvertCmd() *cobra.Command {
	var tier int
	cmd := &cobra.Command{
		Use:   "convert <code>",
		Short: "Convert an EWS call site to the Microsoft Graph SDK",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				raw, err := s.do(ctx, "tools/call", "convertToGraph", func() (json.RawMessage, error) {
					return s.client.ConvertToGraph(ctx, args[0], tier)
				})
				if err != nil {
					return err
				}
				printResult(raw)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&tier, "tier", 0, "conversion tier (0 lets the server choose)")
	return cmd
}

func newConvertAuthCmd() *cobra.Command {
	var authMethod string
	cmd := &cobra.Command{
		Use:   "convert-auth <code>",
		Short: "Convert EWS credential setup to Graph SDK authentication",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				raw, err := s.do(ctx, "tools/call", "convertAuth", func() (json.RawMessage, error) {
					return s.client.ConvertAuth(ctx, args[0], authMethod)
				})
				if err != nil {
					return err
				}
				printResult(raw)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&authMethod, "auth-method", "", "target auth method (default clientCredential)")
	return cmd
}

func newRoadmapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roadmap <sdk-qualified-name>",
		Short: "Look up the migration roadmap for an EWS operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				raw, err := s.do(ctx, "tools/call", "getRoadmap", func() (json.RawMessage, error) {
					return s.client.GetRoadmap(ctx, args[0])
				})
				if err != nil {
					return err
				}
				printResult(raw)
				return nil
			})
		},
	}
}

func newReadinessCmd() *cobra.Command {
	var maxFiles int
	cmd := &cobra.Command{
		Use:   "readiness <root-path>",
		Short: "Check migration readiness for a project tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				raw, err := s.do(ctx, "tools/call", "getMigrationReadiness", func() (json.RawMessage, error) {
					return s.client.MigrationReadiness(ctx, args[0], maxFiles)
				})
				if err != nil {
					return err
				}
				printResult(raw)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&maxFiles, "max-files", 0, "scan cap (0 means the default of 500)")
	return cmd
}

func newAllowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "allow <path>",
		Short: "Register a filesystem root on the server's allowlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				raw, err := s.do(ctx, "tools/call", "addAllowedPath", func() (json.RawMessage, error) {
					return s.client.AddAllowedPath(ctx, args[0])
				})
				if err != nil {
					return err
				}
				printResult(raw)
				return nil
			})
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent recorded calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			if historyPath == "" {
				return fmt.Errorf("no history database configured (--history-db or EWS_MCP_HISTORY)")
			}
			store, err := history.Open(historyPath)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				outcome := "ok"
				if !e.OK {
					outcome = "error: " + e.Error
				}
				fmt.Printf("%s  %-10s %-22s %6dms  %s\n",
					e.CreatedAt.Format("2006-01-02 15:04:05"),
					e.Method, e.Tool, e.Duration.Milliseconds(), outcome)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("ews-mcp-client " + version.Info())
		},
	}
}
