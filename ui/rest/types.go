package rest

import (
	"github.com/kavelar/moviemind/domains/discovery"
	"github.com/kavelar/moviemind/images"
)

// ContentItemView is a ContentItem enriched with resolved image URLs and the
// display rating, so the SPA never re-derives them client-side.
type ContentItemView struct {
	discovery.ContentItem
	PosterURL   string `json:"poster_url"`
	BackdropURL string `json:"backdrop_url"`
	VotePercent int    `json:"vote_percent"`
}

// FetchResultView mirrors FetchResult with view items.
type FetchResultView struct {
	Items    []ContentItemView `json:"items"`
	Source   string            `json:"source"`
	Degraded bool              `json:"degraded,omitempty"`
}

func newFetchResultView(result discovery.FetchResult, resolver *images.Resolver) FetchResultView {
	view := FetchResultView{
		Items:    make([]ContentItemView, 0, len(result.Items)),
		Source:   result.Source,
		Degraded: result.Degraded,
	}
	for _, item := range result.Items {
		view.Items = append(view.Items, ContentItemView{
			ContentItem: item,
			PosterURL:   resolver.ResolvePoster(item),
			BackdropURL: resolver.ResolveBackdrop(item),
			VotePercent: item.VotePercent(),
		})
	}
	return view
}
