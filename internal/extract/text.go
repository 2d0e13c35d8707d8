package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxSnippetLength is the snippet cap in runes.
	MaxSnippetLength = 240
	// MaxKeywords caps the keyword list.
	MaxKeywords = 40
)

var (
	tagPattern   = regexp.MustCompile(`<[^>]+>`)
	tokenPattern = regexp.MustCompile(`[a-z0-9]{3,}`)

	noiseWords = map[string]struct{}{
		"rectangle":   {},
		"title":       {},
		"subtitle":    {},
		"body":        {},
		"outline":     {},
		"placeholder": {},
		"arial":       {},
		"calibri":     {},
		"bold":        {},
		"italic":      {},
		"regular":     {},
	}

	noisePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[a-z]{2}-[a-z]{2}$`), // language tags such as en-us
		regexp.MustCompile(`^latin-\d+$`),
		regexp.MustCompile(`^slide\d*$`),
		regexp.MustCompile(`^text\d*$`),
	}
)

// Preview is the cleaned text of one slide or page. Index is 1-based.
type Preview struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// CleanText strips markup, binary artifacts, and layout noise, and
// collapses whitespace.
func CleanText(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = stripBinaryArtifacts(s)
	return strings.Join(filterNoise(strings.Fields(s)), " ")
}

func stripBinaryArtifacts(s string) string {
	return strings.Map(func(r rune) rune {
		if r == utf8.RuneError || (unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t') {
			return ' '
		}
		return r
	}, s)
}

func filterNoise(tokens []string) []string {
	kept := tokens[:0]
	for _, tok := range tokens {
		if !isNoiseToken(tok) {
			kept = append(kept, tok)
		}
	}
	return kept
}

func isNoiseToken(tok string) bool {
	stripped := strings.NewReplacer("(", "", ")", "").Replace(tok)
	if !strings.ContainsFunc(stripped, isASCIILetter) {
		return true
	}
	lowered := strings.ToLower(stripped)
	if _, ok := noiseWords[lowered]; ok {
		return true
	}
	for _, p := range noisePatterns {
		if p.MatchString(lowered) {
			return true
		}
	}
	return false
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isASCIIAlnum(r rune) bool {
	return isASCIILetter(r) || (r >= '0' && r <= '9')
}

// HasMeaningfulText reports whether text is worth indexing. Short strings
// need one ASCII letter or digit; longer ones must not look like gibberish.
func HasMeaningfulText(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if len(trimmed) < 12 {
		return strings.ContainsFunc(trimmed, isASCIIAlnum)
	}
	return !IsGibberish(trimmed)
}

// IsGibberish flags decoded binary noise: text with at least 40 non-space
// characters that has no letters, too few letters, is almost all
// uppercase, or has several implausibly long tokens.
func IsGibberish(text string) bool {
	var total, alpha, upper int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if isASCIILetter(r) {
			alpha++
			if r >= 'A' && r <= 'Z' {
				upper++
			}
		}
	}
	if total < 40 {
		return false
	}
	if alpha == 0 {
		return true
	}
	if float64(alpha)/float64(total) < 0.35 {
		return true
	}
	if alpha > 80 && float64(upper)/float64(alpha) > 0.9 {
		return true
	}

	long := 0
	for _, tok := range strings.Fields(text) {
		if utf8.RuneCountInString(tok) > 40 {
			long++
		}
	}
	return long > 2
}

// DeriveKeywords returns up to MaxKeywords lowercase tokens of at least
// three characters, most frequent first, ties in first-seen order. Tokens
// that already appear in a preview are left out.
func DeriveKeywords(text string, previews []Preview) []string {
	inPreview := make(map[string]struct{})
	for _, p := range previews {
		for _, tok := range tokenPattern.FindAllString(strings.ToLower(p.Text), -1) {
			inPreview[tok] = struct{}{}
		}
	}

	type counted struct {
		token string
		count int
	}
	byToken := make(map[string]*counted)
	var order []*counted
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if _, skip := inPreview[tok]; skip {
			continue
		}
		if c, ok := byToken[tok]; ok {
			c.count++
			continue
		}
		c := &counted{token: tok, count: 1}
		byToken[tok] = c
		order = append(order, c)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].count > order[j].count
	})

	keywords := make([]string, 0, min(len(order), MaxKeywords))
	for _, c := range order {
		if len(keywords) == MaxKeywords {
			break
		}
		keywords = append(keywords, c.token)
	}
	return keywords
}

// TruncateSnippet cuts text to MaxSnippetLength runes.
func TruncateSnippet(text string) string {
	if utf8.RuneCountInString(text) <= MaxSnippetLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:MaxSnippetLength])
}

// BuildPreviews cleans raw page texts and keeps the meaningful ones,
// numbered by their original position. It also returns the kept texts
// joined by spaces.
func BuildPreviews(pages []string) ([]Preview, string) {
	var previews []Preview
	var combined strings.Builder
	for i, raw := range pages {
		cleaned := CleanText(raw)
		if !HasMeaningfulText(cleaned) {
			continue
		}
		if combined.Len() > 0 {
			combined.WriteByte(' ')
		}
		combined.WriteString(cleaned)
		previews = append(previews, Preview{Index: i + 1, Text: cleaned})
	}
	return previews, combined.String()
}
