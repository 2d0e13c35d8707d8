// Package search matches catalog entries against free-text queries.
//
// A query is split into tokens. Double-quoted text is a phrase, a token
// containing * or ? is a wildcard pattern, and anything else is a plain
// term. An entry matches when every token is found in its corpus: the
// lowercased name, path, snippet, slide texts and keywords joined by
// spaces. Matching is case-insensitive and an empty query matches
// everything.
package search
