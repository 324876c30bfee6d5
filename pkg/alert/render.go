package alert

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	nethtml "golang.org/x/net/html"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	breakTags    = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>|</li>|</h[1-6]>`)
	manyNewlines = regexp.MustCompile(`\n{3,}`)
)

// PlainText strips html from s, keeping line breaks of block elements
func PlainText(s string) string {
	s = breakTags.ReplaceAllString(s, "$0\n")
	res := html.UnescapeString(strictPolicy.Sanitize(s))
	return strings.TrimSpace(manyNewlines.ReplaceAllString(res, "\n\n"))
}

// SlackMarkdown converts html to slack mrkdwn. Text is escaped the way slack expects,
// bold and italic become *x* and _x_, links become <url|text>.
func SlackMarkdown(s string) string {
	var sb strings.Builder
	z := nethtml.NewTokenizer(strings.NewReader(s))

	var href string     // current link target
	var linkText string // text collected inside a link
	inLink := false
	listDepth := 0

	write := func(str string) {
		if inLink {
			linkText += str
			return
		}
		sb.WriteString(str)
	}

	for {
		tt := z.Next()
		switch tt {
		case nethtml.ErrorToken:
			res := manyNewlines.ReplaceAllString(sb.String(), "\n\n")
			return strings.TrimSpace(res)
		case nethtml.TextToken:
			write(slackEscape(string(z.Text())))
		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "b", "strong":
				write("*")
			case "i", "em":
				write("_")
			case "code":
				write("`")
			case "br":
				write("\n")
			case "ul", "ol":
				listDepth++
				write("\n")
			case "li":
				write("\n" + strings.Repeat("  ", max(listDepth-1, 0)) + "• ")
			case "a":
				href = ""
				for hasAttr {
					var k, v []byte
					k, v, hasAttr = z.TagAttr()
					if string(k) == "href" {
						href = string(v)
					}
				}
				if href != "" && tt == nethtml.StartTagToken {
					inLink, linkText = true, ""
				}
			}
		case nethtml.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "b", "strong":
				write("*")
			case "i", "em":
				write("_")
			case "code":
				write("`")
			case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6":
				write("\n\n")
			case "ul", "ol":
				listDepth = max(listDepth-1, 0)
				write("\n")
			case "a":
				if inLink {
					inLink = false
					text := strings.TrimSpace(linkText)
					if text == "" || text == slackEscape(href) {
						sb.WriteString("<" + href + ">")
					} else {
						sb.WriteString("<" + href + "|" + text + ">")
					}
				}
			}
		}
	}
}

// slackEscape escapes the three characters slack treats as control sequences
func slackEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, ">", "&gt;")
}
