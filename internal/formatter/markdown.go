package formatter

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

var markdownCellEscaper = strings.NewReplacer(`\`, `\\`, "|", `\|`)

// RenderMarkdown renders rows as a GitHub-style Markdown table.
func RenderMarkdown(rows []Row) string {
	var b strings.Builder
	b.WriteString("| Field | Value |\n| --- | --- |\n")
	for _, r := range rows {
		b.WriteString("| ")
		b.WriteString(markdownCellEscaper.Replace(r.Field))
		b.WriteString(" | ")
		b.WriteString(markdownCellEscaper.Replace(r.Value))
		b.WriteString(" |\n")
	}
	return b.String()
}

// RenderHTML renders rows as an HTML table fragment.
func RenderHTML(rows []Row) string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return string(markdown.ToHTML([]byte(RenderMarkdown(rows)), p, renderer))
}
