package version

import (
	"encoding/json"
	"os"
	"runtime"

	"github.com/hashicorp/go-hclog"
)

// buildVersion is set at link time with
// -ldflags "-X github.com/JustinTDCT/CineScope/internal/version.buildVersion=1.2.3".
var buildVersion string

type Info struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
}

// Load prefers the linked version, then the version file at path.
func Load(path string, logger hclog.Logger) Info {
	info := Info{Version: "0.0.0", GoVersion: runtime.Version()}
	if buildVersion != "" {
		info.Version = buildVersion
		return info
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("could not read version file", "path", path, "error", err)
		return info
	}
	var file struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &file); err != nil || file.Version == "" {
		logger.Warn("could not parse version file", "path", path, "error", err)
		return info
	}
	info.Version = file.Version
	return info
}
