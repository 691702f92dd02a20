package matching

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Qualifier patterns stripped before comparison. Edition and disc markers
// vary wildly between catalogs and local rips, so they carry no signal.
var (
	bracketQualifier = regexp.MustCompile(`(?i)[\[(][^)\]]*(?:deluxe|remaster(?:ed)?|edition|bonus|expanded|anniversary|reissue|explicit|clean)[^)\]]*[)\]]`)
	trailingDisc     = regexp.MustCompile(`(?i)[\s\-]*(?:disc|disk|cd)\s*\d+\s*$`)
	volumeMarker     = regexp.MustCompile(`(?i)\b(?:vol\.?|volume)\s*(\d+)\b`)
	quoteRun         = regexp.MustCompile(`['’"“”` + "`" + `]+`)
	separatorRun     = regexp.MustCompile(`[_\-:]+`)
	punctuationNoise = regexp.MustCompile(`[.,;!?/\\\[\]()&]+`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowers, de-accents, drops quotes, maps the separator characters
// underscore, hyphen, and colon to spaces, strips edition/disc/volume
// qualifiers and punctuation noise, and collapses whitespace. Two titles
// that differ only in those respects normalize to the same string.
func Normalize(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	if folded, _, err := transform.String(accentStripper, lowered); err == nil {
		lowered = folded
	}
	lowered = quoteRun.ReplaceAllString(lowered, "")
	lowered = bracketQualifier.ReplaceAllString(lowered, " ")
	lowered = trailingDisc.ReplaceAllString(lowered, " ")
	lowered = separatorRun.ReplaceAllString(lowered, " ")
	lowered = volumeMarker.ReplaceAllString(lowered, "$1")
	lowered = punctuationNoise.ReplaceAllString(lowered, " ")
	lowered = whitespaceRun.ReplaceAllString(lowered, " ")
	return strings.TrimSpace(lowered)
}

// containsToken reports whether the normalized form contains the given
// word as a whole token.
func containsToken(normalized, token string) bool {
	for _, candidate := range strings.Fields(normalized) {
		if candidate == token {
			return true
		}
	}
	return false
}
