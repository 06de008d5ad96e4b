package serverspec_test

import (
	"strings"
	"testing"

	"github.com/tolgaki/ews-migration-analyzer/internal/ewsmcp/serverspec"
)

// TestParseValidManifest covers the full manifest surface.
func TestParseValidManifest(t *testing.T) {
	manifest := `
apiVersion: ews/v1
server:
  command: dotnet
  args: ["run", "--project", "src/Ews.Analyzer.McpService.csproj", "--no-build"]
  env:
    DOTNET_NOLOGO: "1"
  workdir: /work
allowedPaths:
  - /work/samples
`
	spec, err := serverspec.Parse([]byte(manifest))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if spec.Server.Command != "dotnet" {
		t.Errorf("command = %q", spec.Server.Command)
	}
	if len(spec.Server.Args) != 4 || spec.Server.Args[1] != "--project" {
		t.Errorf("args = %v", spec.Server.Args)
	}
	if spec.Server.Env["DOTNET_NOLOGO"] != "1" {
		t.Errorf("env = %v", spec.Server.Env)
	}
	if len(spec.AllowedPaths) != 1 || spec.AllowedPaths[0] != "/work/samples" {
		t.Errorf("allowedPaths = %v", spec.AllowedPaths)
	}

	cfg := spec.ServerConfig()
	if cfg.Command != "dotnet" || cfg.Dir != "/work" {
		t.Errorf("ServerConfig = %+v", cfg)
	}
}

// TestParseRejections exercises the schema's structural checks.
func TestParseRejections(t *testing.T) {
	cases := []struct {
		name     string
		manifest string
	}{
		{
			name:     "wrong apiVersion",
			manifest: "apiVersion: ews/v2\nserver:\n  command: dotnet\n",
		},
		{
			name:     "missing command",
			manifest: "apiVersion: ews/v1\nserver:\n  args: [run]\n",
		},
		{
			name:     "empty command",
			manifest: "apiVersion: ews/v1\nserver:\n  command: \"\"\n",
		},
		{
			name:     "unknown server field",
			manifest: "apiVersion: ews/v1\nserver:\n  command: dotnet\n  shell: true\n",
		},
		{
			name:     "not yaml",
			manifest: "\t{{{",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := serverspec.Parse([]byte(tc.manifest)); err == nil {
				t.Fatal("expected error")
			} else if !strings.HasPrefix(err.Error(), "serverspec:") {
				t.Errorf("error not package-prefixed: %v", err)
			}
		})
	}
}

// TestDefault verifies the fallback manifest shape used when no file is
// supplied.
func TestDefault(t *testing.T) {
	spec := serverspec.Default("src/Service.csproj")
	if spec.APIVersion != serverspec.SpecVersion {
		t.Errorf("apiVersion = %q", spec.APIVersion)
	}
	cfg := spec.ServerConfig()
	if cfg.Command != "dotnet" {
		t.Errorf("command = %q", cfg.Command)
	}
	want := []string{"run", "--project", "src/Service.csproj", "--no-build"}
	if len(cfg.Args) != len(want) {
		t.Fatalf("args = %v, want %v", cfg.Args, want)
	}
	for i := range want {
		if cfg.Args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, cfg.Args[i], want[i])
		}
	}
}
