package service

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

type ITextService interface {
	Slugify(input string) string
	NormalizeName(input string) string
	RemoveTags(input string) string
	Humanize(key string) string
}

type TextService struct{}

func NewTextService() *TextService {
	return &TextService{}
}

var (
	tagRe      = regexp.MustCompile(`<[^>]*>`)
	nonSlugRe  = regexp.MustCompile(`[^a-z0-9]+`)
	edgeDashRe = regexp.MustCompile(`^-+|-+$`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

func (ts *TextService) RemoveTags(input string) string {
	return tagRe.ReplaceAllString(html.UnescapeString(input), "")
}

// NormalizeName collapses whitespace and strips markup so that two source
// spellings of the same name compare equal.
func (ts *TextService) NormalizeName(input string) string {
	cleaned := ts.RemoveTags(input)
	cleaned = spaceRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// Slugify produces a url-safe lowercase key. Cyrillic is transliterated so
// both feeds land in the same slug space.
func (ts *TextService) Slugify(input string) string {
	lowered := strings.ToLower(ts.NormalizeName(input))

	var builder strings.Builder
	for _, r := range lowered {
		if tr, ok := translit[r]; ok {
			builder.WriteString(tr)
		} else {
			builder.WriteRune(r)
		}
	}

	slug := nonSlugRe.ReplaceAllString(builder.String(), "-")
	return edgeDashRe.ReplaceAllString(slug, "")
}

// Humanize turns a field key like "power_supply" into "Power supply".
func (ts *TextService) Humanize(key string) string {
	words := strings.ReplaceAll(key, "_", " ")
	words = strings.TrimSpace(words)
	if words == "" {
		return ""
	}
	runes := []rune(words)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}
