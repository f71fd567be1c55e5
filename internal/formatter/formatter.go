// Package formatter renders the fields resolved from a request view as a
// styled FIELD/VALUE table, YAML, JSON, Markdown or HTML, plus a marker line
// showing where the completion starts on the cursor's line.
package formatter

import (
	"encoding/json"
	"fmt"
	"image/color"
	"reflect"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
)

// Output formats understood by Render.
const (
	OutputTable    = "table"
	OutputYAML     = "yaml"
	OutputJSON     = "json"
	OutputMarkdown = "markdown"
	OutputHTML     = "html"
)

var (
	defaultHeaderFG   = lipgloss.Color("12")
	defaultHeaderBG   = lipgloss.Color("236")
	defaultFieldColor = lipgloss.Color("14")
	defaultValueColor = lipgloss.Color("248")
	defaultSeparator  = lipgloss.Color("240")
	defaultMarker     = lipgloss.Color("10")

	headerStyle    lipgloss.Style
	fieldStyle     lipgloss.Style
	valueStyle     lipgloss.Style
	separatorStyle lipgloss.Style
	markerStyle    lipgloss.Style
)

// TableColors controls the colors of the rendered table. Nil fields fall back
// to the defaults (ANSI 256 codes).
type TableColors struct {
	HeaderFG       color.Color
	HeaderBG       color.Color
	FieldColor     color.Color
	ValueColor     color.Color
	SeparatorColor color.Color
	MarkerColor    color.Color
}

func orDefault(c, def color.Color) color.Color {
	if c == nil {
		return def
	}
	return c
}

// SetTableTheme replaces the table styles.
func SetTableTheme(tc TableColors) {
	headerStyle = lipgloss.NewStyle().Bold(true).
		Foreground(orDefault(tc.HeaderFG, defaultHeaderFG)).
		Background(orDefault(tc.HeaderBG, defaultHeaderBG))
	fieldStyle = lipgloss.NewStyle().Foreground(orDefault(tc.FieldColor, defaultFieldColor))
	valueStyle = lipgloss.NewStyle().Foreground(orDefault(tc.ValueColor, defaultValueColor))
	separatorStyle = lipgloss.NewStyle().Foreground(orDefault(tc.SeparatorColor, defaultSeparator))
	markerStyle = lipgloss.NewStyle().Bold(true).Foreground(orDefault(tc.MarkerColor, defaultMarker))
}

//nolint:gochecknoinits // default theme for package consumers
func init() {
	SetTableTheme(TableColors{})
}

// Row is one FIELD/VALUE pair of the table.
type Row struct {
	Field string
	Value string
}

// Rows stringifies fields in the given order. Names missing from fields are
// skipped.
func Rows(fields map[string]any, order []string) []Row {
	rows := make([]Row, 0, len(order))
	for _, name := range order {
		v, ok := fields[name]
		if !ok {
			continue
		}
		rows = append(rows, Row{Field: name, Value: Stringify(v)})
	}
	return rows
}

// Stringify returns a single-line representation of a field value. Strings
// keep their text with newlines escaped, byte slices are quoted with their
// length, lists and maps become compact JSON.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return escapeNewlines(t)
	case []byte:
		return fmt.Sprintf("%q (%d bytes)", t, len(t))
	case bool, int, int64, float64:
		return fmt.Sprint(t)
	}
	switch reflect.ValueOf(v).Kind() { //nolint:exhaustive // only composite kinds need JSON
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if b, err := json.Marshal(Normalize(v)); err == nil {
			return string(b)
		}
	}
	return fmt.Sprintf("%v", v)
}

func escapeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", "\\n")
}

// Normalize replaces byte slices with strings, recursing into maps and
// slices, so YAML and JSON show text instead of binary or base64.
func Normalize(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	default:
		return v
	}
}

// TableOptions controls RenderTable.
type TableOptions struct {
	NoColor bool
	// MaxWidth caps the table width. Values are truncated to fit; 0 means
	// no limit.
	MaxWidth int
}

// RenderTable renders rows as a FIELD/VALUE table sized to its content.
// Column widths are measured in terminal cells, so wide characters line up.
func RenderTable(rows []Row, opts TableOptions) string {
	const sepWidth = 2
	sep := strings.Repeat(" ", sepWidth)

	fieldWidth := runewidth.StringWidth("FIELD")
	valueWidth := runewidth.StringWidth("VALUE")
	for _, r := range rows {
		fieldWidth = max(fieldWidth, runewidth.StringWidth(r.Field))
		valueWidth = max(valueWidth, runewidth.StringWidth(r.Value))
	}
	if opts.MaxWidth > 0 && fieldWidth+sepWidth+valueWidth > opts.MaxWidth {
		valueWidth = max(opts.MaxWidth-fieldWidth-sepWidth, 5)
	}

	style := func(s lipgloss.Style, text string) string {
		if opts.NoColor {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	b.WriteString(style(headerStyle, runewidth.FillRight("FIELD", fieldWidth)))
	b.WriteString(sep)
	b.WriteString(style(headerStyle, runewidth.FillRight("VALUE", valueWidth)))
	b.WriteString("\n")
	b.WriteString(style(separatorStyle, strings.Repeat("─", fieldWidth+sepWidth+valueWidth)))
	b.WriteString("\n")
	for _, r := range rows {
		val := runewidth.Truncate(r.Value, valueWidth, "...")
		b.WriteString(style(fieldStyle, runewidth.FillRight(r.Field, fieldWidth)))
		b.WriteString(sep)
		b.WriteString(style(valueStyle, val))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderMarker renders line followed by a marker line with "^" under the
// completion start and "|" under the cursor. Both positions are 1-based
// codepoint offsets; positions past the end of line sit one cell after it.
// The marker is aligned by display width, so wide characters take two cells.
func RenderMarker(line string, startCodepoint, cursorCodepoint int, noColor bool) string {
	runes := []rune(line)
	column := func(cp int) int {
		cp = min(max(cp, 1), len(runes)+1)
		return runewidth.StringWidth(string(runes[:cp-1]))
	}
	start, cursor := column(startCodepoint), column(cursorCodepoint)

	marker := []rune(strings.Repeat(" ", max(start, cursor)+1))
	marker[cursor] = '|'
	marker[start] = '^'
	out := strings.TrimRight(string(marker), " ")
	if !noColor {
		out = markerStyle.Render(out)
	}
	return line + "\n" + out + "\n"
}

// FormatJSON renders v as indented JSON.
func FormatJSON(v any) (string, error) {
	b, err := json.MarshalIndent(Normalize(v), "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

// Render renders fields in the named format. order picks and orders the
// rows of table, markdown and html output; YAML and JSON emit every field
// with sorted keys.
func Render(format string, fields map[string]any, order []string, opts TableOptions) (string, error) {
	switch format {
	case OutputTable, "":
		return RenderTable(Rows(fields, order), opts), nil
	case OutputYAML:
		return FormatYAML(Normalize(fields), YAMLOptions{FlowSequences: true})
	case OutputJSON:
		return FormatJSON(fields)
	case OutputMarkdown:
		return RenderMarkdown(Rows(fields, order)), nil
	case OutputHTML:
		return RenderHTML(Rows(fields, order)), nil
	default:
		return "", fmt.Errorf("unsupported output format %q", format)
	}
}
