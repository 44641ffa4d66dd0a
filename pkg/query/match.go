package query

import (
	"slices"
	"strings"

	"github.com/vanderheijden86/omnibar/pkg/metrics"
	"github.com/vanderheijden86/omnibar/pkg/model"
)

// Match reports whether img satisfies every active filter of f.
//
// Include sequences match when any value matches, exclude sequences when
// none does; comparisons ignore case. Pipelines are matched against the
// pipelines using the image. Search is a substring of the name or the
// description.
func Match(f FilterState, img model.Image) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(img.Name), needle) &&
			!strings.Contains(strings.ToLower(img.Description), needle) {
			return false
		}
	}

	if !includes(f.Groups, f.ExcludeGroups, img.Group) ||
		!includes(f.Scalers, f.ExcludeScalers, string(img.Scaler)) ||
		!includes(f.Creators, f.ExcludeCreators, img.Creator) {
		return false
	}

	if len(f.Pipelines) > 0 && !slices.ContainsFunc(img.UsedBy, func(p string) bool {
		return containsFold(f.Pipelines, p)
	}) {
		return false
	}
	if slices.ContainsFunc(img.UsedBy, func(p string) bool {
		return containsFold(f.ExcludePipelines, p)
	}) {
		return false
	}

	if f.Generator != Unset && TriStateOf(img.Generator) != f.Generator {
		return false
	}
	if f.Used != Unset && TriStateOf(img.Used()) != f.Used {
		return false
	}
	return true
}

// Filter returns the images matching f, in their original order.
func Filter(f FilterState, images []model.Image) []model.Image {
	defer metrics.Timer(metrics.FilterApply)()

	if f.IsEmpty() {
		return images
	}
	var out []model.Image
	for _, img := range images {
		if Match(f, img) {
			out = append(out, img)
		}
	}
	return out
}

func includes(include, exclude []string, value string) bool {
	if len(include) > 0 && !containsFold(include, value) {
		return false
	}
	return !containsFold(exclude, value)
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}
