package cmd

import (
	"os"
	"path/filepath"

	"github.com/oakwood-commons/reqview/pkg/settings"
)

// resolveConfigPath returns explicit if set, otherwise
// $XDG_CONFIG_HOME/reqview/config.yaml or ~/.config/reqview/config.yaml when
// that file exists. An empty result means the embedded defaults only.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	candidate := ""
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidate = filepath.Join(xdg, settings.CliBinaryName, "config.yaml")
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate = filepath.Join(home, ".config", settings.CliBinaryName, "config.yaml")
	}
	if candidate == "" {
		return ""
	}
	if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
		return candidate
	}
	return ""
}
