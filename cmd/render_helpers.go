package cmd

import (
	"io"
	"os"
	"strconv"

	"golang.org/x/term"

	"github.com/oakwood-commons/reqview/internal/formatter"
	"github.com/oakwood-commons/reqview/pkg/request"
)

// isTerminal reports whether rw is an *os.File attached to a terminal.
func isTerminal(rw any) bool {
	f, ok := rw.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of w when it is a terminal, else $COLUMNS,
// else 0 for no limit.
func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	if col := os.Getenv("COLUMNS"); col != "" {
		if width, err := strconv.Atoi(col); err == nil && width > 0 {
			return width
		}
	}
	return 0
}

// tableOptions disables color when asked to, when NO_COLOR is set, or when
// out is not a terminal.
func tableOptions(out io.Writer, noColor bool) formatter.TableOptions {
	return formatter.TableOptions{
		NoColor:  noColor || os.Getenv("NO_COLOR") != "" || !isTerminal(out),
		MaxWidth: terminalWidth(out),
	}
}

// writeValue prints an expression result. Tables print the bare value.
func writeValue(w io.Writer, format string, v any) error {
	var (
		s   string
		err error
	)
	switch format {
	case formatter.OutputYAML:
		s, err = formatter.FormatYAML(formatter.Normalize(v), formatter.YAMLOptions{FlowSequences: true})
	case formatter.OutputJSON:
		s, err = formatter.FormatJSON(v)
	default:
		s = formatter.Stringify(v) + "\n"
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}

// renderMarker renders the cursor line with the completion start marked.
func renderMarker(v *request.View, noColor bool) (string, error) {
	line, err := v.LineValue()
	if err != nil {
		return "", err
	}
	start, err := v.StartCodepoint()
	if err != nil {
		return "", err
	}
	cursor, err := v.ColumnCodepoint()
	if err != nil {
		return "", err
	}
	return formatter.RenderMarker(line, start, cursor, noColor), nil
}
