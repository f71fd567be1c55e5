// Package config loads the reqview configuration: the embedded defaults
// merged with an optional user YAML file.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/reqview/pkg/identifier"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

// Output formats.
const (
	FormatTable    = "table"
	FormatYAML     = "yaml"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Config is the merged configuration.
type Config struct {
	Output     Output     `yaml:"output"`
	Identifier Identifier `yaml:"identifier"`
}

// Output controls how resolved fields are printed.
type Output struct {
	Format string   `yaml:"format"`
	Fields []string `yaml:"fields"`
}

// Identifier extends the built-in identifier rules.
type Identifier struct {
	Rules   map[string]string `yaml:"rules"`
	Aliases map[string]string `yaml:"aliases"`
}

// DefaultConfigYAML returns a copy of the embedded default config.
func DefaultConfigYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// Default returns the embedded defaults.
func Default() (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(embeddedDefaultConfig, &cfg); err != nil {
		return cfg, fmt.Errorf("decode embedded default config: %w", err)
	}
	return cfg, nil
}

// Load returns the defaults merged with the YAML file at path. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	var user Config
	if err := yaml.Unmarshal(data, &user); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg = merge(cfg, user)
	return cfg, cfg.Validate()
}

// merge overlays the set fields of over onto base.
func merge(base, over Config) Config {
	if over.Output.Format != "" {
		base.Output.Format = over.Output.Format
	}
	if len(over.Output.Fields) > 0 {
		base.Output.Fields = append([]string(nil), over.Output.Fields...)
	}
	base.Identifier.Rules = mergeMap(base.Identifier.Rules, over.Identifier.Rules)
	base.Identifier.Aliases = mergeMap(base.Identifier.Aliases, over.Identifier.Aliases)
	return base
}

func mergeMap(base, over map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Validate rejects unknown output formats.
func (c Config) Validate() error {
	switch c.Output.Format {
	case FormatTable, FormatYAML, FormatJSON, FormatMarkdown, FormatHTML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want one of %s, %s, %s, %s, %s)",
			c.Output.Format, FormatTable, FormatYAML, FormatJSON, FormatMarkdown, FormatHTML)
	}
}

// Scanner builds the identifier scanner described by the config.
func (c Config) Scanner() (*identifier.Scanner, error) {
	return identifier.NewScanner(c.Identifier.Rules, c.Identifier.Aliases)
}
