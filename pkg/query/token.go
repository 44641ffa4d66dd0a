// Package query implements the omnibar filter language.
//
// A query is a mix of filter tokens and free text:
//
//	group:scanners -scaler:windows is:generator creator:"Jane Doe" packed pe
//
// Tokens have the shape -?key:value where the value is either a double-quoted
// string or a run of non-whitespace characters. Everything that is not a
// token is free text. Parsing never fails: malformed tokens degrade to free
// text and unknown keys are dropped when tokens are mapped onto a FilterState.
package query

import (
	"strings"
	"unicode"

	"github.com/vanderheijden86/omnibar/pkg/metrics"
)

// Token is one key:value unit of a query.
type Token struct {
	Key     string // lower-cased
	Value   string // quotes stripped, casing preserved
	Negated bool
	Raw     string // the exact input text of the token
}

// Tokenize splits input into tokens and free text in one pass.
//
// Tokens start at the beginning of input or after whitespace. A quoted value
// ends at the first double quote, at least one character after the opening
// quote, that is followed by whitespace or the end of input; a word that
// opens a quote without such a closing quote is free text. The returned free
// text is every non-token word, in order, joined by single spaces.
func Tokenize(input string) ([]Token, string) {
	defer metrics.Timer(metrics.Tokenize)()

	runes := []rune(input)
	var tokens []Token
	var words []string

	i := 0
	for i < len(runes) {
		for i < len(runes) && unicode.IsSpace(runes[i]) {
			i++
		}
		if i >= len(runes) {
			break
		}

		if tok, end, ok := scanToken(runes, i); ok {
			tokens = append(tokens, tok)
			i = end
			continue
		}

		end := wordEnd(runes, i)
		words = append(words, string(runes[i:end]))
		i = end
	}

	return tokens, strings.Join(words, " ")
}

// scanToken tries to read a token starting at runes[start]. It returns the
// token and the index just past it.
func scanToken(runes []rune, start int) (Token, int, bool) {
	i := start
	negated := false
	if runes[i] == '-' {
		negated = true
		i++
	}

	keyStart := i
	for i < len(runes) && isWordRune(runes[i]) {
		i++
	}
	if i == keyStart || i >= len(runes) || runes[i] != ':' {
		return Token{}, 0, false
	}
	key := strings.ToLower(string(runes[keyStart:i]))
	i++ // colon

	if i >= len(runes) || unicode.IsSpace(runes[i]) {
		return Token{}, 0, false
	}

	var value string
	var end int
	if runes[i] == '"' {
		closing := closingQuote(runes, i)
		if closing < 0 {
			return Token{}, 0, false
		}
		value = string(runes[i+1 : closing])
		end = closing + 1
	} else {
		end = wordEnd(runes, i)
		value = string(runes[i:end])
	}

	return Token{
		Key:     key,
		Value:   value,
		Negated: negated,
		Raw:     string(runes[start:end]),
	}, end, true
}

// closingQuote returns the index of the quote that closes the one at
// runes[open], or -1. The quoted value must be non-empty.
func closingQuote(runes []rune, open int) int {
	for k := open + 2; k < len(runes); k++ {
		if runes[k] != '"' {
			continue
		}
		if k+1 == len(runes) || unicode.IsSpace(runes[k+1]) {
			return k
		}
	}
	return -1
}

func wordEnd(runes []rune, i int) int {
	for i < len(runes) && !unicode.IsSpace(runes[i]) {
		i++
	}
	return i
}

// isWordRune matches the ASCII word class used for keys.
func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

// Representable reports whether a value survives a round trip through a
// query string. Empty values and values holding a quote followed by
// whitespace cannot be written as a token.
func Representable(value string) bool {
	if value == "" {
		return false
	}
	runes := []rune(value)
	for i := 0; i+1 < len(runes); i++ {
		if runes[i] == '"' && unicode.IsSpace(runes[i+1]) {
			return false
		}
	}
	return true
}

// quoteValue renders a value so that Tokenize reads it back unchanged.
func quoteValue(value string) string {
	if strings.IndexFunc(value, unicode.IsSpace) >= 0 || strings.HasPrefix(value, `"`) {
		return `"` + value + `"`
	}
	return value
}

// formatToken renders key and value as a token string.
func formatToken(key, value string, negated bool) string {
	prefix := ""
	if negated {
		prefix = "-"
	}
	return prefix + key + ":" + quoteValue(value)
}
