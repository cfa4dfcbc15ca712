package version

import (
	"fmt"
	"runtime"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/MrSnakeDoc/castplay/internal/version.Version=v0.2.0 \
//	  -X github.com/MrSnakeDoc/castplay/internal/version.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/MrSnakeDoc/castplay/internal/version.BuildDate=$(date -u +%FT%TZ)"
var (
	Version   = "dev"             // ex: v0.1.0
	Commit    = "none"            // ex: abcd123
	BuildDate = "unknown"         // ex: 2025-08-11T18:42:00Z
	GoVersion = runtime.Version() // go version
)

// String formats the build information on one line.
func String() string {
	return fmt.Sprintf("castplay %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
