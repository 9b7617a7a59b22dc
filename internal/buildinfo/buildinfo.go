package buildinfo

import "time"

// Set via -ldflags at build time
var (
	Version    = "dev"
	BuildTime  string // when the binary was compiled
	CommitHash string // short git commit hash
)

// StartTime is recorded when the process starts
var StartTime = time.Now().UTC().Format(time.RFC3339)

// Summary is the version line shown by agrorentctl --version and the status endpoint
func Summary() string {
	s := Version
	if CommitHash != "" {
		s += " (" + CommitHash + ")"
	}
	if BuildTime != "" {
		s += " built " + BuildTime
	}
	return s
}
