package query

import (
	"strings"
	"unicode"

	"github.com/vanderheijden86/omnibar/pkg/metrics"
)

// DefaultSuggestionLimit caps the dropdown when Suggester.Limit is unset.
const DefaultSuggestionLimit = 10

// SuggestionType tells whether a suggestion completes a key or a value.
type SuggestionType string

const (
	SuggestKey   SuggestionType = "key"
	SuggestValue SuggestionType = "value"
)

// Suggestion is one autocomplete candidate. Value is ready to be inserted in
// place of the token being typed.
type Suggestion struct {
	Type    SuggestionType `json:"type"`
	Key     string         `json:"key,omitempty"`
	Value   string         `json:"value"`
	Display string         `json:"display"`
}

// KnownValues are the values offered for the list keys.
type KnownValues struct {
	Groups    []string `json:"groups"`
	Scalers   []string `json:"scalers"`
	Creators  []string `json:"creators"`
	Pipelines []string `json:"pipelines"`
}

var (
	isValues        = []string{IsGenerator, IsUsed, IsOrphan}
	generatorValues = []string{"yes", "no"}
)

// Suggester produces completions for the token under the cursor.
type Suggester struct {
	Known       KnownValues
	CurrentUser string
	Limit       int
}

// Suggest returns up to Limit completions for the token that ends at cursor.
// The cursor is a rune offset into input and is clamped to its bounds.
func (s Suggester) Suggest(input string, cursor int) []Suggestion {
	defer metrics.Timer(metrics.Suggest)()

	runes := []rune(input)
	cursor = clampCursor(cursor, len(runes))
	start := tokenStart(runes, cursor)
	word := string(runes[start:cursor])

	limit := s.Limit
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	negPrefix := ""
	if strings.HasPrefix(word, "-") {
		negPrefix = "-"
		word = word[1:]
	}

	var out []Suggestion
	colon := strings.IndexByte(word, ':')
	if colon < 0 {
		if !isWord(word) {
			return nil
		}
		partial := strings.ToLower(word)
		for _, key := range Keys {
			if strings.HasPrefix(key, partial) {
				out = append(out, Suggestion{
					Type:    SuggestKey,
					Key:     key,
					Value:   negPrefix + key + ":",
					Display: negPrefix + key + ":",
				})
			}
		}
		return capSuggestions(out, limit)
	}

	if colon == 0 || !isWord(word[:colon]) {
		return nil
	}
	key := strings.ToLower(word[:colon])
	partial := strings.ToLower(strings.TrimPrefix(word[colon+1:], `"`))
	negated := negPrefix != ""

	value := func(candidate, display string) Suggestion {
		return Suggestion{
			Type:    SuggestValue,
			Key:     key,
			Value:   formatToken(key, candidate, negated),
			Display: display,
		}
	}

	switch key {
	case KeyGroup, KeyScaler, KeyCreator, KeyPipeline:
		if key == KeyCreator && s.CurrentUser != "" && strings.HasPrefix(Me, partial) {
			out = append(out, value(Me, Me+" ("+s.CurrentUser+")"))
		}
		for _, candidate := range s.known(key) {
			if !Representable(candidate) {
				continue
			}
			if strings.Contains(strings.ToLower(candidate), partial) {
				out = append(out, value(candidate, candidate))
			}
		}
	case KeyIs:
		for _, candidate := range isValues {
			if strings.Contains(candidate, partial) {
				out = append(out, value(candidate, candidate))
			}
		}
	case KeyGenerator:
		for _, candidate := range generatorValues {
			out = append(out, value(candidate, candidate))
		}
	}

	return capSuggestions(out, limit)
}

func (s Suggester) known(key string) []string {
	switch key {
	case KeyGroup:
		return s.Known.Groups
	case KeyScaler:
		return s.Known.Scalers
	case KeyCreator:
		return s.Known.Creators
	case KeyPipeline:
		return s.Known.Pipelines
	}
	return nil
}

// Applied is the input state after accepting a suggestion.
type Applied struct {
	Input    string
	Cursor   int
	KeepOpen bool // key completions keep the dropdown open for the value
}

// Apply replaces the token being typed at cursor with sug. Value completions
// get a trailing space so the next token can follow.
func Apply(input string, cursor int, sug Suggestion) Applied {
	runes := []rune(input)
	cursor = clampCursor(cursor, len(runes))
	start := tokenStart(runes, cursor)

	insert := sug.Value
	if sug.Type == SuggestValue {
		insert += " "
	}

	var b strings.Builder
	b.WriteString(string(runes[:start]))
	b.WriteString(insert)
	b.WriteString(string(runes[cursor:]))

	return Applied{
		Input:    b.String(),
		Cursor:   start + len([]rune(insert)),
		KeepOpen: sug.Type == SuggestKey,
	}
}

// tokenStart finds where the token ending at cursor begins: the start of the
// last whitespace-separated word before the cursor. A word shaped like
// key:"... whose quote is still open at the cursor extends over the spaces
// inside it, so a quoted value with spaces is completed as a whole. Quotes
// anywhere else are ordinary characters.
func tokenStart(runes []rune, cursor int) int {
	runes = runes[:cursor]
	start := 0
	for i := 0; i < cursor; {
		if unicode.IsSpace(runes[i]) {
			i++
			start = i
			continue
		}
		start = i
		if open := openingQuote(runes, i); open >= 0 {
			closing := closingQuote(runes, open)
			if closing < 0 {
				return start
			}
			i = closing + 1
			continue
		}
		i = wordEnd(runes, i)
	}
	return start
}

// openingQuote returns the index of the quote when the word at runes[i]
// starts with -?key:", or -1.
func openingQuote(runes []rune, i int) int {
	if runes[i] == '-' {
		i++
	}
	keyStart := i
	for i < len(runes) && isWordRune(runes[i]) {
		i++
	}
	if i == keyStart || i+1 >= len(runes) || runes[i] != ':' || runes[i+1] != '"' {
		return -1
	}
	return i + 1
}

func clampCursor(cursor, n int) int {
	if cursor < 0 {
		return 0
	}
	if cursor > n {
		return n
	}
	return cursor
}

func isWord(s string) bool {
	for _, r := range s {
		if !isWordRune(r) {
			return false
		}
	}
	return true
}

func capSuggestions(s []Suggestion, limit int) []Suggestion {
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
