package textutil

import "strings"

// DefaultMaxNameLength caps sanitized folder names. Callers with a stricter
// path limit pass their own to SafeFolderName.
const DefaultMaxNameLength = 200

var unsafeReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\n", " ",
	"\t", " ",
)

// SafeFolderName converts a suggested album title into a name legal on the
// most restrictive supported filesystem. Colons are replaced with
// colonReplacement (they carry meaning in album titles, so the substitute is
// configurable), other illegal characters become dashes or are dropped,
// whitespace is collapsed, and the result is truncated to maxLen runes.
func SafeFolderName(name, colonReplacement string, maxLen int) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxNameLength
	}
	name = strings.ReplaceAll(name, ":", colonReplacement)
	name = unsafeReplacer.Replace(name)

	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	name = strings.Join(fields, " ")

	runes := []rune(name)
	if len(runes) > maxLen {
		name = strings.TrimSpace(string(runes[:maxLen]))
	}
	return name
}

// SanitizeToken converts a string to a lowercase filesystem-safe token used
// for backup directory names.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}
