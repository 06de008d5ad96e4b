package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// sampleEWSCode is the snippet the demo feeds through analysis.
const sampleEWSCode = `
using Microsoft.Exchange.WebServices.Data;

var service = new ExchangeService(ExchangeVersion.Exchange2013);
service.Credentials = new WebCredentials("user@contoso.com", "password");
var results = service.FindItems(WellKnownFolderName.Inbox, new ItemView(50));
`

const sampleCallSite = `service.FindItems(WellKnownFolderName.Inbox, new ItemView(50))`

const sampleAuthCode = `var service = new ExchangeService(); service.Credentials = new WebCredentials("user", "pass");`

const sampleRoadmapName = "Microsoft.Exchange.WebServices.Data.ExchangeService.FindItems"

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the scripted demonstration flow against the analyzer server",
		RunE: func(cmd *cobra.Command, args []string) error {
			banner("EWS Migration Analyzer - MCP Client Demo")
			return withSession(cmd, func(ctx context.Context, s *session) error {
				return runDemo(ctx, s)
			})
		},
	}
}

// runDemo walks the analyzer's tool surface in order: list, analyze,
// convert, convert auth, roadmap. Remote errors abort the flow; their
// payload was already surfaced by the wrapper as the error value.
func runDemo(ctx context.Context, s *session) error {
	section("Available Tools")
	tools, err := s.listTools(ctx)
	if err != nil {
		return err
	}
	for _, tool := range tools {
		fmt.Printf("  %-25s %s\n", tool.Name, tool.Description)
	}

	section("Analyzing EWS Code")
	raw, err := s.do(ctx, "tools/call", "analyzeCode", func() (json.RawMessage, error) {
		return s.client.AnalyzeCode(ctx, sampleEWSCode)
	})
	if err != nil {
		return err
	}
	printResult(raw)

	section("Converting to Graph SDK")
	raw, err = s.do(ctx, "tools/call", "convertToGraph", func() (json.RawMessage, error) {
		return s.client.ConvertToGraph(ctx, sampleCallSite, 0)
	})
	if err != nil {
		return err
	}
	printResult(raw)

	section("Converting Authentication")
	raw, err = s.do(ctx, "tools/call", "convertAuth", func() (json.RawMessage, error) {
		return s.client.ConvertAuth(ctx, sampleAuthCode, "")
	})
	if err != nil {
		return err
	}
	printResult(raw)

	section("Roadmap Lookup")
	raw, err = s.do(ctx, "tools/call", "getRoadmap", func() (json.RawMessage, error) {
		return s.client.GetRoadmap(ctx, sampleRoadmapName)
	})
	if err != nil {
		return err
	}
	printResult(raw)

	fmt.Println("\nDone.")
	return nil
}

func banner(title string) {
	line := strings.Repeat("=", 60)
	fmt.Println(line)
	fmt.Println(title)
	fmt.Println(line)
	fmt.Println()
}

func section(title string) {
	fmt.Printf("\n--- %s ---\n", title)
}
