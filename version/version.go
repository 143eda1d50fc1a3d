// Package version exposes build information. Version and BuildTime are
// set at compile time:
//
//	go build -ldflags "-X github.com/aidetectsai/detector-api/version.Version=1.0.0"
//
// Git details are picked up from the embedded VCS metadata when ldflags
// leave them unset.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info is the build identity reported by the health endpoint.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit,omitempty"`
	BuildTime string `json:"buildTime,omitempty"`
	GoVersion string `json:"goVersion"`
}

// Get assembles the build info, preferring ldflags values over VCS
// metadata.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = buildInfo.GoVersion
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.GitCommit == "" && len(setting.Value) >= 7 {
					info.GitCommit = setting.Value[:7]
				}
			case "vcs.time":
				if info.BuildTime == "" {
					if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
						info.BuildTime = t.Format(time.RFC3339)
					}
				}
			}
		}
	}

	return info
}

// Short returns "version" or "version-commit" for log lines.
func Short() string {
	info := Get()
	if info.GitCommit != "" {
		return fmt.Sprintf("%s-%s", info.Version, info.GitCommit)
	}
	return info.Version
}
