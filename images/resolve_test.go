package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kavelar/moviemind/domains/discovery"
)

func TestResolvePosterChain(t *testing.T) {
	r := NewResolver("", "/api/v1/images/placeholder")

	cases := []struct {
		name string
		item discovery.ContentItem
		want string
	}{
		{
			name: "relative path gets the base URL",
			item: discovery.ContentItem{ID: 42, PosterPath: "/abc.jpg"},
			want: DefaultBaseURL + "/abc.jpg",
		},
		{
			name: "absolute URL passes through verbatim",
			item: discovery.ContentItem{ID: 42, PosterPath: "http://example/x.jpg"},
			want: "http://example/x.jpg",
		},
		{
			name: "https URL passes through verbatim",
			item: discovery.ContentItem{ID: 42, PosterPath: "https://example/x.jpg"},
			want: "https://example/x.jpg",
		},
		{
			name: "missing path resolves to the seeded placeholder",
			item: discovery.ContentItem{ID: 42},
			want: "/api/v1/images/placeholder/42",
		},
		{
			name: "junk that is neither absolute nor rooted gets the placeholder",
			item: discovery.ContentItem{ID: 7, PosterPath: "abc.jpg"},
			want: "/api/v1/images/placeholder/7",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, r.ResolvePoster(tc.item))
		})
	}
}

func TestResolveBackdropUsesOwnPath(t *testing.T) {
	r := NewResolver("https://cdn.test/w780", "/ph")

	item := discovery.ContentItem{ID: 9, PosterPath: "/poster.jpg", BackdropPath: "/backdrop.jpg"}
	assert.Equal(t, "https://cdn.test/w780/backdrop.jpg", r.ResolveBackdrop(item))

	noBackdrop := discovery.ContentItem{ID: 9, PosterPath: "/poster.jpg"}
	assert.Equal(t, "/ph/9", r.ResolveBackdrop(noBackdrop), "missing backdrop must fall back to the placeholder")
}

func TestPlaceholderURLIsSeededByID(t *testing.T) {
	r := NewResolver("", "/ph")

	require.NotEqual(t, r.PlaceholderURL(1), r.PlaceholderURL(2), "different ids must address different placeholders")
	assert.Equal(t, r.PlaceholderURL(5), r.PlaceholderURL(5), "placeholder URL must be stable for an id")
}
