// Package settings provides build metadata, per-run configuration, and
// context helpers used by the reqview CLI and library packages.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "reqview"

// VersionInformation is populated at build time via ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds the commit hash, version, and build timestamp.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Run holds the settings of a single CLI invocation.
type Run struct {
	// MinLogLevel is a zapcore level; negative values enable verbose logs.
	MinLogLevel int8
	// ConfigPath is the user config file, empty for defaults only.
	ConfigPath string
	// Validate runs the structural request check before building a view.
	Validate bool
	NoColor  bool
}

// DebugLogLevel enables V(1) and V(2) logs.
const DebugLogLevel int8 = -2

// NewCliParams returns the defaults for a CLI run.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		Validate:    true,
		NoColor:     false,
	}
}
