package search

import (
	"regexp"
	"strings"

	"slides-indexer/internal/catalog"
)

var tokenPattern = regexp.MustCompile(`"([^"]+)"|(\S+)`)

// Pattern is a parsed query.
type Pattern struct {
	terms     []string
	phrases   []string
	wildcards []*regexp.Regexp
}

// Parse splits raw into phrases, wildcards and terms.
func Parse(raw string) Pattern {
	var p Pattern
	for _, m := range tokenPattern.FindAllStringSubmatch(raw, -1) {
		if phrase := strings.TrimSpace(m[1]); phrase != "" {
			p.phrases = append(p.phrases, strings.ToLower(phrase))
			continue
		}
		token := strings.TrimSpace(m[2])
		if token == "" {
			continue
		}
		if strings.ContainsAny(token, "*?") {
			if re := wildcardRegexp(token); re != nil {
				p.wildcards = append(p.wildcards, re)
			}
			continue
		}
		p.terms = append(p.terms, strings.ToLower(token))
	}
	return p
}

// Empty reports whether the pattern has no tokens.
func (p Pattern) Empty() bool {
	return len(p.terms) == 0 && len(p.phrases) == 0 && len(p.wildcards) == 0
}

// Match reports whether e satisfies every token of p.
func (p Pattern) Match(e catalog.Entry) bool {
	if p.Empty() {
		return true
	}
	corpus := Corpus(e)
	for _, phrase := range p.phrases {
		if !strings.Contains(corpus, phrase) {
			return false
		}
	}
	for _, term := range p.terms {
		if !strings.Contains(corpus, term) {
			return false
		}
	}
	for _, re := range p.wildcards {
		if !re.MatchString(corpus) {
			return false
		}
	}
	return true
}

// Corpus returns the lowercased text a query is matched against.
func Corpus(e catalog.Entry) string {
	parts := []string{strings.ToLower(e.Name), strings.ToLower(e.Path)}
	if e.Snippet != "" {
		parts = append(parts, strings.ToLower(e.Snippet))
	}
	for _, s := range e.Slides {
		parts = append(parts, strings.ToLower(s.Text))
	}
	if len(e.Keywords) > 0 {
		parts = append(parts, strings.ToLower(strings.Join(e.Keywords, " ")))
	}
	return strings.Join(parts, " ")
}

// wildcardRegexp turns a glob-like token into an unanchored,
// case-insensitive expression. * matches any run, ? any single rune.
func wildcardRegexp(token string) *regexp.Regexp {
	var b strings.Builder
	for _, r := range token {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	re, err := regexp.Compile("(?is).*" + b.String() + ".*")
	if err != nil {
		return nil
	}
	return re
}
