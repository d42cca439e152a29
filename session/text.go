package session

import (
	"strings"

	"golang.org/x/net/html"
)

// visibleText flattens rendered HTML to the text a user would see,
// dropping script/style/head subtrees. Used for failure-keyword scans.
func visibleText(raw string) string {
	tok := html.NewTokenizer(strings.NewReader(raw))
	var sb strings.Builder
	skip := 0
	for {
		tt := tok.Next()
		switch tt {
		case html.ErrorToken:
			return sb.String()
		case html.StartTagToken:
			name, _ := tok.TagName()
			switch string(name) {
			case "script", "style", "noscript", "head", "template":
				skip++
			}
		case html.EndTagToken:
			name, _ := tok.TagName()
			switch string(name) {
			case "script", "style", "noscript", "head", "template":
				if skip > 0 {
					skip--
				}
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := strings.TrimSpace(string(tok.Text()))
			if text == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(text)
		}
	}
}
