// Package textclean strips host formatting codes from item names and lore.
package textclean

import (
	"regexp"
	"strings"
)

var smallCaps = strings.NewReplacer(
	"ᴀ", "a", "ʙ", "b", "ᴄ", "c", "ᴅ", "d",
	"ᴇ", "e", "ꜰ", "f", "ɢ", "g", "ʜ", "h",
	"ɪ", "i", "ᴊ", "j", "ᴋ", "k", "ʟ", "l",
	"ᴍ", "m", "ɴ", "n", "ᴏ", "o", "ᴘ", "p",
	"ʀ", "r", "ѕ", "s", "ᴛ", "t", "ᴜ", "u",
	"ᴡ", "w", "ʏ", "y", "ᴢ", "z",
)

// Hex runs go first so their §x prefix is not consumed as a plain code.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`§x(§[0-9A-Fa-f]){6}`),
	regexp.MustCompile(`§[0-9A-FK-ORa-fk-or]`),
	regexp.MustCompile(`(?i)<gradient:[^>]*>`),
	regexp.MustCompile(`(?i)</gradient>`),
	regexp.MustCompile(`(?i)<##?[0-9a-f]{6}>`),
	regexp.MustCompile(`(?i)&#[0-9a-f]{6}`),
}

// Strip maps small-caps glyphs to ASCII, removes color and gradient markup and trims the result.
func Strip(s string) string {
	if s == "" {
		return ""
	}
	s = smallCaps.Replace(s)
	for _, re := range patterns {
		s = re.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(s)
}

// StripAll applies Strip to every line.
func StripAll(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = Strip(line)
	}
	return out
}
