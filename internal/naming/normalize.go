// Package naming recovers a plugin's real name from the marketing-polluted titles
// some registries allow, e.g. "🔥 [1.8-1.21] SALE 30% Foo-Bar Baz++ v2.0".
package naming

import (
	"regexp"
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

// separator breaks candidate runs. It is not matched by namePattern.
const separator = "|"

var (
	bracketPattern     = regexp.MustCompile(`\[.*?\]|\(.*?\)`)
	spacedDashPattern  = regexp.MustCompile(`[\s\p{Z}][-_]+|[-_]+[\s\p{Z}]`)
	abandonedPattern   = regexp.MustCompile(`(?i)\b(?:abandoned|archived|deprecated|discontinued|outdated)\b`)
	discountPattern    = regexp.MustCompile(`\b(?:SALE|OFF)\b`)
	namePattern        = regexp.MustCompile(`[\p{L}\p{M}][\p{L}\p{M}\d&'’\s\p{Z}_-]*[\p{L}\p{M}]\+*`)
	versionTailPattern = regexp.MustCompile(`[\s\p{Z}]+[vV]$`)
)

// Normalize extracts the best candidate plugin name from title. The boolean is
// false when no candidate exists, for example for single character or purely
// symbolic titles.
//
// Text inside brackets is discarded, so a name written entirely in brackets is
// not recovered.
func Normalize(title string) (string, bool) {
	s := norm.NFC.String(title)
	s = replaceEmoji(s)
	s = bracketPattern.ReplaceAllString(s, separator)
	s = spacedDashPattern.ReplaceAllString(s, " "+separator+" ")
	s = abandonedPattern.ReplaceAllString(s, separator)
	s = discountPattern.ReplaceAllString(s, separator)

	name := namePattern.FindString(s)
	if name == "" {
		return "", false
	}
	name = versionTailPattern.ReplaceAllString(name, "")
	return name, true
}

// NormalizePtr is Normalize returning nil when no candidate exists.
func NormalizePtr(title string) *string {
	name, ok := Normalize(title)
	if !ok {
		return nil
	}
	return &name
}

// IsAbandoned reports whether title carries an abandonment keyword.
func IsAbandoned(title string) bool {
	return abandonedPattern.MatchString(title)
}

// replaceEmoji substitutes every emoji grapheme cluster in s with the separator.
func replaceEmoji(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	g := uniseg.NewGraphemes(s)
	for g.Next() {
		if isEmoji(g.Runes()) {
			b.WriteString(separator)
			continue
		}
		b.WriteString(g.Str())
	}
	return b.String()
}

func isEmoji(cluster []rune) bool {
	for _, r := range cluster {
		switch {
		case r >= 0x1F000 && r <= 0x1FAFF: // pictographs, emoticons, flags
			return true
		case r >= 0x2300 && r <= 0x23FF: // misc technical (⌚, ⏰)
			return true
		case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
			return true
		case r >= 0x2B00 && r <= 0x2BFF: // stars, arrows
			return true
		case r == 0xFE0F, r == 0x20E3: // emoji presentation, keycap
			return true
		}
	}
	return false
}
