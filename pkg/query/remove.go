package query

import "slices"

// RemoveLast drops the most recently relevant filter, as happens when the
// user presses backspace on an empty input. The order is fixed: search,
// used, generator, then pipelines, creators, scalers and groups, each
// exclude sequence before its include sequence. Only the last element of a
// sequence is removed.
//
// The order does not reflect when filters were added; states do not record
// that. It returns false when f has no active filter.
func RemoveLast(f FilterState) (FilterState, bool) {
	out := f.Clone()

	switch {
	case out.Search != "":
		out.Search = ""
		return out, true
	case out.Used != Unset:
		out.Used = Unset
		return out, true
	case out.Generator != Unset:
		out.Generator = Unset
		return out, true
	}

	for _, seq := range []*[]string{
		&out.ExcludePipelines, &out.Pipelines,
		&out.ExcludeCreators, &out.Creators,
		&out.ExcludeScalers, &out.Scalers,
		&out.ExcludeGroups, &out.Groups,
	} {
		if n := len(*seq); n > 0 {
			*seq = (*seq)[:n-1]
			return out, true
		}
	}

	return out, false
}

// BadgeKind identifies the dimension a badge belongs to.
type BadgeKind int

const (
	BadgeGroup BadgeKind = iota
	BadgeScaler
	BadgeGenerator
	BadgeCreator
	BadgeUsed
	BadgePipeline
	BadgeSearch
)

// Badge is one removable active filter.
type Badge struct {
	Kind    BadgeKind
	Negated bool   // for sequence badges: the value sits in the exclude sequence
	Index   int    // position inside its sequence
	Value   string // raw value; for tri-states "true" or "false"
	Label   string // token form shown to the user
}

// Badges lists the active filters of f in query string order.
func (f FilterState) Badges() []Badge {
	var out []Badge
	seq := func(kind BadgeKind, key string, values []string, negated bool) {
		for i, v := range values {
			out = append(out, Badge{
				Kind:    kind,
				Negated: negated,
				Index:   i,
				Value:   v,
				Label:   formatToken(key, v, negated),
			})
		}
	}

	seq(BadgeGroup, KeyGroup, f.Groups, false)
	seq(BadgeGroup, KeyGroup, f.ExcludeGroups, true)
	seq(BadgeScaler, KeyScaler, f.Scalers, false)
	seq(BadgeScaler, KeyScaler, f.ExcludeScalers, true)
	if f.Generator != Unset {
		label := "is:" + IsGenerator
		if f.Generator == False {
			label = "-" + label
		}
		out = append(out, Badge{Kind: BadgeGenerator, Value: f.Generator.String(), Label: label})
	}
	seq(BadgeCreator, KeyCreator, f.Creators, false)
	seq(BadgeCreator, KeyCreator, f.ExcludeCreators, true)
	if f.Used != Unset {
		label := "is:" + IsUsed
		if f.Used == False {
			label = "is:" + IsOrphan
		}
		out = append(out, Badge{Kind: BadgeUsed, Value: f.Used.String(), Label: label})
	}
	seq(BadgePipeline, KeyPipeline, f.Pipelines, false)
	seq(BadgePipeline, KeyPipeline, f.ExcludePipelines, true)
	if f.Search != "" {
		out = append(out, Badge{Kind: BadgeSearch, Value: f.Search, Label: `"` + f.Search + `"`})
	}
	return out
}

// RemoveBadge returns f without the filter b stands for. Badges that no
// longer match f are ignored.
func (f FilterState) RemoveBadge(b Badge) FilterState {
	out := f.Clone()

	var seq *[]string
	switch b.Kind {
	case BadgeGroup:
		seq = pick(&out.Groups, &out.ExcludeGroups, b.Negated)
	case BadgeScaler:
		seq = pick(&out.Scalers, &out.ExcludeScalers, b.Negated)
	case BadgeCreator:
		seq = pick(&out.Creators, &out.ExcludeCreators, b.Negated)
	case BadgePipeline:
		seq = pick(&out.Pipelines, &out.ExcludePipelines, b.Negated)
	case BadgeGenerator:
		out.Generator = Unset
	case BadgeUsed:
		out.Used = Unset
	case BadgeSearch:
		out.Search = ""
	}

	if seq != nil && b.Index >= 0 && b.Index < len(*seq) && (*seq)[b.Index] == b.Value {
		*seq = slices.Delete(*seq, b.Index, b.Index+1)
	}
	return out
}

func pick(include, exclude *[]string, negated bool) *[]string {
	if negated {
		return exclude
	}
	return include
}
