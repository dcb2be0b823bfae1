package adapter

type ContentAdapter interface {
	// SanitizeHTML strips markup that is unsafe to render back to readers.
	SanitizeHTML(raw string) string
	// SanitizeText removes all markup, for fields rendered as plain text.
	SanitizeText(raw string) string
	// Excerpt derives a plain-text summary of at most maxRunes runes from HTML.
	Excerpt(htmlStr string, maxRunes int) string
}
