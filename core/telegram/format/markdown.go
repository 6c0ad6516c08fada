package format

import (
	"regexp"
	"strings"
)

var mdPattern = regexp.MustCompile("([_*`\\[])")

// Escape escapes text for the legacy Markdown parse mode used by the bot.
func Escape(text string) string {
	return mdPattern.ReplaceAllString(text, `\$1`)
}

// Code wraps text in an inline code span. Backticks cannot be escaped
// inside a legacy Markdown code span, so they are dropped.
func Code(text string) string {
	return "`" + strings.ReplaceAll(text, "`", "") + "`"
}

// Bold wraps escaped text in legacy Markdown bold markers.
func Bold(text string) string {
	return "*" + Escape(text) + "*"
}

// Title upper-cases the first letter and lower-cases the rest.
func Title(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return string(r)
}
