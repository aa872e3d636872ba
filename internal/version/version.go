package version

import "runtime"

// Set at build time with -ldflags "-X github.com/MrSnakeDoc/harbor/internal/version.Version=...".
var (
	Version   = "dev"     // ex: v0.3.0
	Commit    = "none"    // ex: 4be91c2
	BuildDate = "unknown" // ex: 2026-10-18T09:12:00Z
	GoVersion = runtime.Version()
)
