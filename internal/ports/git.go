package ports

import (
	"context"
)

// GitInfo is the repository state a CLI session was started in.
type GitInfo struct {
	Branch     string
	Commit     string
	CommitMsg  string
	IsClean    bool
	Repository string
}

// GitDetector defines the interface for git context detection.
// This is a driven port (implemented by adapters).
type GitDetector interface {
	// Detect scans workingDir, or the process directory when empty.
	Detect(ctx context.Context, workingDir string) (*GitInfo, error)

	// IsAvailable reports whether the process directory is inside a
	// repository.
	IsAvailable() bool
}
