package markdown

import (
	"strings"
	"unicode/utf8"
)

// Taken from https://core.telegram.org/bots/api#markdownv2-style.
const mdV2SpecialChars = `._[](){}#|!+-=*~>` + "`" + `\`

// MaxMessageLength is the Telegram limit for one text message.
const MaxMessageLength = 4096

//nolint:gochecknoglobals // Lookup tables meant to be immutable.
var (
	mdV2Lookup  = lookup(mdV2SpecialChars)
	linkLookup  = lookup(`)\`)
	splitPoints = []string{"\n\n", "\n", " "}
)

func lookup(chars string) [256]bool {
	var m [256]bool
	for _, c := range []byte(chars) {
		m[c] = true
	}
	return m
}

func escape(input string, table *[256]bool) string {
	charsToEscape := 0

	for i := range len(input) {
		if table[input[i]] {
			charsToEscape++
		}
	}
	if charsToEscape == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + charsToEscape)

	for i := range len(input) {
		c := input[i]
		if table[c] {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

// EscapeV2 escapes text for MarkdownV2 outside of entities.
func EscapeV2(input string) string {
	return escape(input, &mdV2Lookup)
}

// EscapeLinkURL escapes the URL part of an inline link.
func EscapeLinkURL(input string) string {
	return escape(input, &linkLookup)
}

// Split breaks an escaped MarkdownV2 text into parts of at most limit bytes,
// preferring paragraph, then line, then word boundaries. It never separates
// an escape backslash from the character it escapes or cuts a UTF-8 sequence.
func Split(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}

	var parts []string
	for len(text) > limit {
		cut := splitIndex(text, limit)

		if part := strings.TrimSpace(text[:cut]); part != "" {
			parts = append(parts, part)
		}
		text = strings.TrimLeft(text[cut:], " \n")
	}

	if text = strings.TrimSpace(text); text != "" {
		parts = append(parts, text)
	}

	return parts
}

func splitIndex(text string, limit int) int {
	window := text[:limit]

	for _, sep := range splitPoints {
		if i := strings.LastIndex(window, sep); i > 0 && !escaped(text, i) {
			return i
		}
	}

	cut := limit
	for cut > 1 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if escaped(text, cut) {
		cut--
	}

	return cut
}

// escaped reports whether the byte at i is preceded by an odd number of
// backslashes.
func escaped(text string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && text[j] == '\\'; j-- {
		n++
	}

	return n%2 == 1
}
