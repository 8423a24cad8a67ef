package sqlguard

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var normalizedName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// symbolNames are spelled out instead of becoming an underscore.
var symbolNames = map[rune]string{
	'@':  "at_sign",
	'$':  "dollar_sign",
	',':  "comma",
	'`':  "backtick",
	'\'': "apostrophe",
	'\\': "backslash",
}

var digitNames = [...]string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}

var greek = map[rune]string{
	'α': "a", 'β': "v", 'γ': "g", 'δ': "d", 'ε': "e", 'ζ': "z", 'η': "i",
	'θ': "th", 'ι': "i", 'κ': "k", 'λ': "l", 'μ': "m", 'ν': "n", 'ξ': "x",
	'ο': "o", 'π': "p", 'ρ': "r", 'σ': "s", 'ς': "s", 'τ': "t", 'υ': "y",
	'φ': "f", 'χ': "ch", 'ψ': "ps", 'ω': "o",
}

// IsNameNormalized reports whether name is already a valid Panther table or
// column name.
func IsNameNormalized(name string) bool {
	return normalizedName.MatchString(name)
}

// NormalizeName converts a log type or field name into the table or column
// name Panther stores it under, e.g. "AWS.CloudTrail" -> "AWS_CloudTrail".
func NormalizeName(name string) string {
	stripped, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		stripped = name
	}

	src := []rune(stripped)
	var b strings.Builder
	b.Grow(len(stripped) + 8)
	for i, r := range src {
		switch {
		case r < unicode.MaxASCII && (isASCIILetter(r) || r == '_' || r == '-'):
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteString(digitNames[r-'0'])
				b.WriteByte('_')
			} else {
				b.WriteRune(r)
			}
		case r == '.':
			b.WriteByte('_')
		case symbolNames[r] != "":
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteString(symbolNames[r])
			if i < len(src)-1 {
				b.WriteByte('_')
			}
		default:
			b.WriteString(transliterate(r))
		}
	}
	return b.String()
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// transliterate maps a Greek letter to Latin, preserving case. Anything else
// becomes "_".
func transliterate(r rune) string {
	lower := unicode.ToLower(r)
	latin, ok := greek[lower]
	if !ok {
		return "_"
	}
	if lower != r {
		return strings.ToUpper(latin[:1]) + latin[1:]
	}
	return latin
}
