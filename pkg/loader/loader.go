// Package loader decodes completion request documents into request.Request
// values. JSON, YAML and TOML are accepted; the format comes from the file
// extension when there is one and is sniffed from the content otherwise.
package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/reqview/pkg/request"
)

// Format identifies a request document encoding.
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var (
	// TOML section headers: [section], [[array]], ["quoted"], [a."b.c"]
	tomlSectionPattern = regexp.MustCompile(`^\s*\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	// TOML key = value, as opposed to YAML key: value
	tomlKeyValuePattern = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

// FormatForPath returns the format implied by path's extension, or FormatAuto.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatAuto
	}
}

// DetectFormat sniffs the format of input.
func DetectFormat(input string) Format {
	trimmed := strings.TrimSpace(input)
	if isLikelyTOML(trimmed) {
		return FormatTOML
	}
	if strings.HasPrefix(trimmed, "{") {
		return FormatJSON
	}
	return FormatYAML
}

// Load decodes input as a request document in the given format.
func Load(input []byte, format Format) (request.Request, error) {
	if strings.TrimSpace(string(input)) == "" {
		return nil, fmt.Errorf("empty input")
	}
	if format == FormatAuto {
		format = DetectFormat(string(input))
	}

	var (
		doc any
		err error
	)
	switch format {
	case FormatJSON:
		err = json.Unmarshal(input, &doc)
		if err != nil {
			err = fmt.Errorf("invalid JSON: %w", err)
		}
	case FormatYAML:
		err = yaml.Unmarshal(input, &doc)
		if err != nil {
			err = fmt.Errorf("invalid YAML: %w", err)
		}
	case FormatTOML:
		err = toml.Unmarshal(input, &doc)
		if err != nil {
			err = fmt.Errorf("invalid TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}

	root, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("request document must be a mapping, got %T", doc)
	}
	return request.Request(root), nil
}

// LoadReader reads all of r and decodes it with Load.
func LoadReader(r io.Reader, format Format) (request.Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	return Load(data, format)
}

// LoadFile reads and decodes the request document at path, using its
// extension to pick the format.
func LoadFile(path string) (request.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data, FormatForPath(path))
}

// isLikelyTOML reports whether input has TOML section headers, or mostly
// key = value lines.
func isLikelyTOML(input string) bool {
	sectionCount := 0
	keyValueCount := 0
	nonEmptyCount := 0

	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmptyCount++

		if tomlSectionPattern.MatchString(line) {
			sectionCount++
		}
		if tomlKeyValuePattern.MatchString(line) {
			keyValueCount++
		}
	}

	if sectionCount > 0 {
		return true
	}
	return nonEmptyCount > 0 && keyValueCount > nonEmptyCount/2
}
