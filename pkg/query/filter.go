package query

import (
	"slices"
	"strings"
)

// Recognized token keys.
const (
	KeyGroup     = "group"
	KeyScaler    = "scaler"
	KeyCreator   = "creator"
	KeyPipeline  = "pipeline"
	KeyIs        = "is"
	KeyGenerator = "generator"
)

// Keys lists the recognized keys in suggestion order.
var Keys = []string{KeyGroup, KeyScaler, KeyCreator, KeyPipeline, KeyIs, KeyGenerator}

// Reserved values of the is key.
const (
	IsGenerator = "generator"
	IsUsed      = "used"
	IsOrphan    = "orphan"
)

// Me is the creator shorthand for the current user.
const Me = "@me"

// TriState is a boolean filter that can also be absent.
type TriState int

const (
	Unset TriState = iota
	True
	False
)

// TriStateOf converts b to True or False.
func TriStateOf(b bool) TriState {
	if b {
		return True
	}
	return False
}

// Not inverts True and False and leaves Unset alone.
func (t TriState) Not() TriState {
	switch t {
	case True:
		return False
	case False:
		return True
	}
	return Unset
}

func (t TriState) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	}
	return "unset"
}

// MarshalText encodes the state as "true", "false" or "unset".
func (t TriState) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts the forms produced by MarshalText; anything else is
// Unset.
func (t *TriState) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "true":
		*t = True
	case "false":
		*t = False
	default:
		*t = Unset
	}
	return nil
}

// FilterState is the canonical form of the active filters. The raw input and
// the query string are both projections of it.
//
// A FilterState is treated as a value: every method returns a new state and
// never writes to slices shared with the receiver.
type FilterState struct {
	Search string `json:"search"`

	Groups        []string `json:"groups"`
	ExcludeGroups []string `json:"exclude_groups"`

	Scalers        []string `json:"scalers"`
	ExcludeScalers []string `json:"exclude_scalers"`

	Creators        []string `json:"creators"`
	ExcludeCreators []string `json:"exclude_creators"`

	Pipelines        []string `json:"pipelines"`
	ExcludePipelines []string `json:"exclude_pipelines"`

	Generator TriState `json:"generator"`
	Used      TriState `json:"used"`
}

// Clone returns a deep copy of f.
func (f FilterState) Clone() FilterState {
	out := f
	out.Groups = slices.Clone(f.Groups)
	out.ExcludeGroups = slices.Clone(f.ExcludeGroups)
	out.Scalers = slices.Clone(f.Scalers)
	out.ExcludeScalers = slices.Clone(f.ExcludeScalers)
	out.Creators = slices.Clone(f.Creators)
	out.ExcludeCreators = slices.Clone(f.ExcludeCreators)
	out.Pipelines = slices.Clone(f.Pipelines)
	out.ExcludePipelines = slices.Clone(f.ExcludePipelines)
	return out
}

// IsEmpty reports whether no filter is active.
func (f FilterState) IsEmpty() bool {
	return f.Search == "" &&
		f.Generator == Unset && f.Used == Unset &&
		len(f.Groups) == 0 && len(f.ExcludeGroups) == 0 &&
		len(f.Scalers) == 0 && len(f.ExcludeScalers) == 0 &&
		len(f.Creators) == 0 && len(f.ExcludeCreators) == 0 &&
		len(f.Pipelines) == 0 && len(f.ExcludePipelines) == 0
}

// Equal compares two states. Nil and empty sequences are equal.
func (f FilterState) Equal(o FilterState) bool {
	return f.Search == o.Search &&
		f.Generator == o.Generator && f.Used == o.Used &&
		slices.Equal(f.Groups, o.Groups) && slices.Equal(f.ExcludeGroups, o.ExcludeGroups) &&
		slices.Equal(f.Scalers, o.Scalers) && slices.Equal(f.ExcludeScalers, o.ExcludeScalers) &&
		slices.Equal(f.Creators, o.Creators) && slices.Equal(f.ExcludeCreators, o.ExcludeCreators) &&
		slices.Equal(f.Pipelines, o.Pipelines) && slices.Equal(f.ExcludePipelines, o.ExcludePipelines)
}

// Merge layers o on top of f: sequences are appended, tri-states set in o
// win, and the search texts are joined.
func (f FilterState) Merge(o FilterState) FilterState {
	out := f.Clone()
	out.Search = joinSearch(f.Search, o.Search)
	out.Groups = append(out.Groups, o.Groups...)
	out.ExcludeGroups = append(out.ExcludeGroups, o.ExcludeGroups...)
	out.Scalers = append(out.Scalers, o.Scalers...)
	out.ExcludeScalers = append(out.ExcludeScalers, o.ExcludeScalers...)
	out.Creators = append(out.Creators, o.Creators...)
	out.ExcludeCreators = append(out.ExcludeCreators, o.ExcludeCreators...)
	out.Pipelines = append(out.Pipelines, o.Pipelines...)
	out.ExcludePipelines = append(out.ExcludePipelines, o.ExcludePipelines...)
	if o.Generator != Unset {
		out.Generator = o.Generator
	}
	if o.Used != Unset {
		out.Used = o.Used
	}
	return out
}

func joinSearch(a, b string) string {
	return strings.Join(strings.Fields(a+" "+b), " ")
}

// TokensToFilters maps tokens and free text onto a new FilterState.
//
// Tokens with unknown keys or unknown reserved values are dropped. The value
// @me of a creator token is replaced with currentUser when it is non-empty.
// For the tri-states the last token wins.
func TokensToFilters(tokens []Token, freeText, currentUser string) FilterState {
	f := FilterState{Search: strings.Join(strings.Fields(freeText), " ")}

	for _, tok := range tokens {
		switch tok.Key {
		case KeyGroup:
			appendTo(&f.Groups, &f.ExcludeGroups, tok)
		case KeyScaler:
			appendTo(&f.Scalers, &f.ExcludeScalers, tok)
		case KeyPipeline:
			appendTo(&f.Pipelines, &f.ExcludePipelines, tok)
		case KeyCreator:
			if tok.Value == Me && currentUser != "" {
				tok.Value = currentUser
			}
			appendTo(&f.Creators, &f.ExcludeCreators, tok)
		case KeyIs:
			switch strings.ToLower(tok.Value) {
			case IsGenerator:
				f.Generator = negate(True, tok.Negated)
			case IsUsed:
				f.Used = negate(True, tok.Negated)
			case IsOrphan:
				f.Used = negate(False, tok.Negated)
			}
		case KeyGenerator:
			if v, ok := parseYesNo(tok.Value); ok {
				f.Generator = negate(TriStateOf(v), tok.Negated)
			}
		}
	}

	return f
}

func appendTo(include, exclude *[]string, tok Token) {
	if tok.Negated {
		*exclude = append(*exclude, tok.Value)
		return
	}
	*include = append(*include, tok.Value)
}

func negate(t TriState, negated bool) TriState {
	if negated {
		return t.Not()
	}
	return t
}

func parseYesNo(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, true
	case "no", "false", "0":
		return false, true
	}
	return false, false
}

// ParseQueryString restores a FilterState from a query string.
func ParseQueryString(s, currentUser string) FilterState {
	tokens, free := Tokenize(s)
	return TokensToFilters(tokens, free, currentUser)
}

// FiltersToQueryString renders f as a canonical query string. The output
// order is fixed: groups, scalers, generator, creators, used/orphan,
// pipelines, free text. Include values come before exclude values.
func FiltersToQueryString(f FilterState) string {
	var parts []string
	add := func(key string, values []string, negated bool) {
		for _, v := range values {
			if v == "" {
				continue
			}
			parts = append(parts, formatToken(key, v, negated))
		}
	}

	add(KeyGroup, f.Groups, false)
	add(KeyGroup, f.ExcludeGroups, true)
	add(KeyScaler, f.Scalers, false)
	add(KeyScaler, f.ExcludeScalers, true)

	switch f.Generator {
	case True:
		parts = append(parts, "is:"+IsGenerator)
	case False:
		parts = append(parts, "-is:"+IsGenerator)
	}

	add(KeyCreator, f.Creators, false)
	add(KeyCreator, f.ExcludeCreators, true)

	switch f.Used {
	case True:
		parts = append(parts, "is:"+IsUsed)
	case False:
		parts = append(parts, "is:"+IsOrphan)
	}

	add(KeyPipeline, f.Pipelines, false)
	add(KeyPipeline, f.ExcludePipelines, true)

	if search := strings.Join(strings.Fields(f.Search), " "); search != "" {
		parts = append(parts, search)
	}

	return strings.Join(parts, " ")
}
