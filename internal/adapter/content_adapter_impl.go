package adapter

import (
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

const ellipsis = "..."

type contentAdapterImpl struct {
	ugc    *bluemonday.Policy
	strict *bluemonday.Policy
}

func NewContentAdapter() ContentAdapter {
	return &contentAdapterImpl{
		ugc:    bluemonday.UGCPolicy(),
		strict: bluemonday.StrictPolicy(),
	}
}

func (a *contentAdapterImpl) SanitizeHTML(raw string) string {
	return a.ugc.Sanitize(raw)
}

func (a *contentAdapterImpl) SanitizeText(raw string) string {
	return html.UnescapeString(a.strict.Sanitize(raw))
}

func (a *contentAdapterImpl) Excerpt(htmlStr string, maxRunes int) string {
	text := collapseSpaces(a.plainText(htmlStr))
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:maxRunes])
	// back off to a word boundary when the cut lands mid-word and one is close
	if runes[maxRunes] != ' ' {
		if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
			cut = cut[:i]
		}
	}
	return strings.TrimRight(cut, " ") + ellipsis
}

func (a *contentAdapterImpl) plainText(htmlStr string) string {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return htmlStr
	}

	var b strings.Builder
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "img":
				return
			case "p", "div", "br", "li", "pre", "h1", "h2", "h3", "h4", "h5", "h6":
				defer b.WriteByte(' ')
			}
		} else if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return b.String()
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
