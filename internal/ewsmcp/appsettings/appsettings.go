// Package appsettings loads the demo's JSON configuration, mirroring the
// analyzer's appsettings convention: a local override file is preferred over
// the checked-in default, and the absence of both is a signal to fall back
// to hardcoded values rather than an error to abort on.
package appsettings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// Default candidate paths, relative to the working directory.
const (
	DefaultLocalPath = "appsettings.local.json"
	DefaultPath      = "appsettings.json"
)

// ErrNotFound is returned by Load when neither candidate file exists.
var ErrNotFound = errors.New("appsettings: no configuration file found")

// Load returns the parsed JSON object from the first of primary or fallback
// that exists on disk, together with the path that was used. No merging and
// no validation: the file is decoded as-is. When neither exists it returns
// ErrNotFound and callers proceed with hardcoded defaults.
func Load(primary, fallback string) (map[string]any, string, error) {
	for _, path := range []string{primary, fallback} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("appsettings: read %s: %w", path, err)
		}
		var settings map[string]any
		if err := json.Unmarshal(data, &settings); err != nil {
			return nil, "", fmt.Errorf("appsettings: parse %s: %w", path, err)
		}
		slog.Info("settings loaded", "path", path)
		return settings, path, nil
	}
	return nil, "", ErrNotFound
}
