package render

import (
	"html"
	"html/template"
	"regexp"
	"strconv"
	"strings"
)

// Markdown renders the small subset used by problem statements and the help page:
//
//	# h1, ## h2, ### h3 at line start
//	```lang fenced code blocks
//	`inline code`
//	**bold**
//	blank line separates paragraphs, single newline becomes <br>
//
// Everything else is escaped text.
func Markdown(md string) template.HTML {
	md = strings.ReplaceAll(md, "\r\n", "\n")

	var blocks []string
	text := fencePattern.ReplaceAllStringFunc(md, func(m string) string {
		sub := fencePattern.FindStringSubmatch(m)
		blocks = append(blocks, "<pre><code>"+html.EscapeString(sub[2])+"</code></pre>")
		return blockMarker(len(blocks) - 1)
	})

	text = html.EscapeString(text)
	text = h3Pattern.ReplaceAllString(text, "<h3>$1</h3>")
	text = h2Pattern.ReplaceAllString(text, "<h2>$1</h2>")
	text = h1Pattern.ReplaceAllString(text, "<h1>$1</h1>")
	text = inlineCodePattern.ReplaceAllString(text, "<code>$1</code>")
	text = boldPattern.ReplaceAllString(text, "<strong>$1</strong>")

	parts := strings.Split(text, "\n\n")
	for i, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" || strings.HasPrefix(p, "<h") || strings.HasPrefix(trimmed, markerDelim) {
			continue
		}
		parts[i] = "<p>" + strings.ReplaceAll(p, "\n", "<br>") + "</p>"
	}
	text = strings.Join(parts, "\n")

	for i, block := range blocks {
		text = strings.Replace(text, blockMarker(i), block, 1)
	}
	return template.HTML(text)
}

const markerDelim = "\x00"

var (
	fencePattern      = regexp.MustCompile("(?s)```(\\w*)\\n(.*?)```")
	h3Pattern         = regexp.MustCompile(`(?m)^### (.*)$`)
	h2Pattern         = regexp.MustCompile(`(?m)^## (.*)$`)
	h1Pattern         = regexp.MustCompile(`(?m)^# (.*)$`)
	inlineCodePattern = regexp.MustCompile("`([^`\n]+)`")
	boldPattern       = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

func blockMarker(i int) string {
	return markerDelim + "code" + strconv.Itoa(i) + markerDelim
}
