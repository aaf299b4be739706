package cli

// Build metadata, overridden with
// -ldflags "-X github.com/felixgeelhaar/lcovhtml/internal/cli.Version=..."
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
