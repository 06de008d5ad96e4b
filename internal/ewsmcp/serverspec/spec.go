// Package serverspec defines the launch manifest for the analyzer MCP
// server. A manifest names the executable, its arguments, extra environment,
// working directory, and the filesystem roots to register on the server's
// allowlist after startup.
package serverspec

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/tolgaki/ews-migration-analyzer/internal/ewsmcp/mcp"
)

// SpecVersion is the only accepted apiVersion value.
const SpecVersion = "ews/v1"

// Spec is a parsed launch manifest.
type Spec struct {
	APIVersion   string   `yaml:"apiVersion" json:"apiVersion"`
	Server       Server   `yaml:"server" json:"server"`
	AllowedPaths []string `yaml:"allowedPaths,omitempty" json:"allowedPaths,omitempty"`
}

// Server describes the child process to launch.
type Server struct {
	Command string            `yaml:"command" json:"command"`
	Args    []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	Workdir string            `yaml:"workdir,omitempty" json:"workdir,omitempty"`
}

const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["apiVersion", "server"],
  "properties": {
    "apiVersion": {"const": "ews/v1"},
    "server": {
      "type": "object",
      "required": ["command"],
      "properties": {
        "command": {"type": "string", "minLength": 1},
        "args": {"type": "array", "items": {"type": "string"}},
        "env": {
          "type": "object",
          "additionalProperties": {"type": "string"},
          "propertyNames": {"minLength": 1}
        },
        "workdir": {"type": "string"}
      },
      "additionalProperties": false
    },
    "allowedPaths": {"type": "array", "items": {"type": "string", "minLength": 1}}
  },
  "additionalProperties": false
}`

var schema = jsonschema.MustCompileString("serverspec.schema.json", schemaJSON)

// Parse decodes a YAML manifest and validates it against the embedded
// schema. It is the canonical entry point for loading launch manifests.
func Parse(data []byte) (*Spec, error) {
	// Decode once into a generic document for schema validation. The
	// validator expects encoding/json value shapes, so the YAML document is
	// normalized through a JSON round-trip first.
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("serverspec: parse: %w", err)
	}
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serverspec: normalize: %w", err)
	}
	var instance any
	if err := json.Unmarshal(normalized, &instance); err != nil {
		return nil, fmt.Errorf("serverspec: normalize: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("serverspec: validate: %w", err)
	}

	var spec Spec
	if err := json.Unmarshal(normalized, &spec); err != nil {
		return nil, fmt.Errorf("serverspec: decode: %w", err)
	}
	return &spec, nil
}

// Default returns the manifest the demo uses when none is supplied: run the
// analyzer server project through the dotnet CLI without rebuilding.
func Default(projectPath string) *Spec {
	return &Spec{
		APIVersion: SpecVersion,
		Server: Server{
			Command: "dotnet",
			Args:    []string{"run", "--project", projectPath, "--no-build"},
		},
	}
}

// ServerConfig converts the manifest's server section into the supervisor's
// launch configuration.
func (s *Spec) ServerConfig() mcp.ServerConfig {
	return mcp.ServerConfig{
		Command: s.Server.Command,
		Args:    s.Server.Args,
		Env:     s.Server.Env,
		Dir:     s.Server.Workdir,
	}
}
