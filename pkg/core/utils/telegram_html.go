package utils

import (
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TelegramMessageLimit is the maximum length of a Telegram text message.
const TelegramMessageLimit = 4096

// inlineTags maps HTML elements onto the tag Telegram's HTML parse mode accepts.
var inlineTags = map[string]string{
	"b": "b", "strong": "b",
	"i": "i", "em": "i",
	"u": "u", "ins": "u",
	"s": "s", "del": "s", "strike": "s",
	"code": "code",
	"pre":  "pre",
}

// MarkdownToTelegramHTML renders Markdown and reduces it to the tag subset
// Telegram accepts: b, i, u, s, code, pre and a[href]. Headings become bold
// lines and list items become bullets.
func MarkdownToTelegramHTML(markdown string) (string, error) {
	rendered, err := MarkdownToHTML(CleanMarkdown(markdown))
	if err != nil {
		return "", err
	}
	return SanitizeTelegramHTML(rendered)
}

// SanitizeTelegramHTML rewrites arbitrary HTML into Telegram's subset.
func SanitizeTelegramHTML(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var sb strings.Builder
	writeTelegramNodes(&sb, doc.Find("body").Contents())
	return collapseBlankLines(strings.TrimSpace(sb.String())), nil
}

func writeTelegramNodes(sb *strings.Builder, nodes *goquery.Selection) {
	nodes.Each(func(_ int, sel *goquery.Selection) {
		name := goquery.NodeName(sel)
		switch {
		case name == "#text":
			sb.WriteString(html.EscapeString(sel.Text()))
		case name == "br":
			sb.WriteString("\n")
		case name == "a":
			href, ok := sel.Attr("href")
			if !ok || href == "" {
				writeTelegramNodes(sb, sel.Contents())
				return
			}
			fmt.Fprintf(sb, `<a href="%s">`, html.EscapeString(href))
			writeTelegramNodes(sb, sel.Contents())
			sb.WriteString("</a>")
		case inlineTags[name] != "":
			tag := inlineTags[name]
			// <pre><code> collapses into a single <pre>.
			if name == "pre" {
				fmt.Fprintf(sb, "<pre>%s</pre>\n\n", html.EscapeString(sel.Text()))
				return
			}
			fmt.Fprintf(sb, "<%s>", tag)
			writeTelegramNodes(sb, sel.Contents())
			fmt.Fprintf(sb, "</%s>", tag)
		case len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6':
			sb.WriteString("<b>")
			writeTelegramNodes(sb, sel.Contents())
			sb.WriteString("</b>\n\n")
		case name == "p":
			writeTelegramNodes(sb, sel.Contents())
			sb.WriteString("\n\n")
		case name == "li":
			sb.WriteString("• ")
			writeTelegramNodes(sb, sel.Contents())
			sb.WriteString("\n")
		case name == "ul" || name == "ol":
			writeTelegramNodes(sb, sel.Contents())
			sb.WriteString("\n")
		case name == "hr":
			sb.WriteString("\n")
		default:
			writeTelegramNodes(sb, sel.Contents())
		}
	})
}

func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}

// SplitMessage cuts text into chunks no longer than limit runes, preferring
// paragraph then line boundaries.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = TelegramMessageLimit
	}
	var chunks []string
	for {
		runes := []rune(text)
		if len(runes) <= limit {
			if strings.TrimSpace(text) != "" {
				chunks = append(chunks, text)
			}
			return chunks
		}
		head := string(runes[:limit])
		cut := strings.LastIndex(head, "\n\n")
		if cut <= 0 {
			cut = strings.LastIndex(head, "\n")
		}
		if cut <= 0 {
			cut = len(head)
		}
		chunks = append(chunks, strings.TrimRight(head[:cut], "\n"))
		text = strings.TrimLeft(text[cut:], "\n")
	}
}
