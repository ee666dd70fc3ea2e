package extract

import (
	"html"
	"strconv"
	"strings"
)

// Inline table styling is part of the output contract: consumers render the
// HTML as-is.
const (
	tableOpenTag    = `<table style="border-collapse: collapse; width: 100%; margin: 16px 0;">`
	headerCellStyle = `border: 1px solid #ddd; padding: 8px; background-color: #f2f2f2;`
	dataCellStyle   = `border: 1px solid #ddd; padding: 8px;`
)

func paragraphHTML(text string) string {
	return "<p>" + html.EscapeString(text) + "</p>"
}

func boldParagraphHTML(text string) string {
	return "<p><strong>" + html.EscapeString(text) + "</strong></p>"
}

func headingHTML(level int, text string) string {
	n := strconv.Itoa(level)
	return "<h" + n + ">" + html.EscapeString(text) + "</h" + n + ">"
}

// tableHTML renders rows with the first row as header cells.
func tableHTML(rows [][]string) string {
	var b strings.Builder
	b.WriteString(tableOpenTag)
	b.WriteByte('\n')
	for i, row := range rows {
		tag, style := "td", dataCellStyle
		if i == 0 {
			tag, style = "th", headerCellStyle
		}
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<" + tag + ` style="` + style + `">`)
			b.WriteString(html.EscapeString(strings.TrimSpace(cell)))
			b.WriteString("</" + tag + ">")
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</table>")
	return b.String()
}

// linesToHTML wraps every non-blank trimmed line in <p>.
func linesToHTML(text string) string {
	var parts []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts = append(parts, paragraphHTML(line))
	}
	return strings.Join(parts, "\n")
}
