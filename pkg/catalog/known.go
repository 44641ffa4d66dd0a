package catalog

import (
	"slices"
	"strings"

	"github.com/vanderheijden86/omnibar/pkg/model"
	"github.com/vanderheijden86/omnibar/pkg/query"
)

// Known collects the distinct groups, scalers, creators and pipelines of
// images, each sorted case-insensitively. Values differing only in case are
// kept once, in the spelling seen first.
func Known(images []model.Image) query.KnownValues {
	var groups, scalers, creators, pipelines valueSet
	for i := range images {
		img := &images[i]
		groups.add(img.Group)
		scalers.add(string(img.Scaler))
		creators.add(img.Creator)
		for _, p := range img.UsedBy {
			pipelines.add(p)
		}
	}
	return query.KnownValues{
		Groups:    groups.sorted(),
		Scalers:   scalers.sorted(),
		Creators:  creators.sorted(),
		Pipelines: pipelines.sorted(),
	}
}

type valueSet struct {
	seen   map[string]bool
	values []string
}

func (s *valueSet) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	key := strings.ToLower(v)
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.values = append(s.values, v)
}

func (s *valueSet) sorted() []string {
	slices.SortFunc(s.values, func(a, b string) int {
		if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return s.values
}
