package images

import (
	"fmt"
	"strings"

	"github.com/kavelar/moviemind/domains/discovery"
)

// DefaultBaseURL is the public image host content items reference with
// relative paths.
const DefaultBaseURL = "https://image.tmdb.org/t/p/w500"

// Resolver turns the image references carried on content items into
// fetchable URLs. Backend-supplied paths are untrusted: an absolute URL is
// used verbatim, a relative path is assumed to live on the image host, and
// anything else falls back to the deterministic placeholder for the item id,
// so the same item always renders the same artwork.
type Resolver struct {
	BaseURL         string
	PlaceholderBase string
}

func NewResolver(baseURL, placeholderBase string) *Resolver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Resolver{BaseURL: baseURL, PlaceholderBase: placeholderBase}
}

func (r *Resolver) ResolvePoster(item discovery.ContentItem) string {
	return r.resolve(item.PosterPath, item.ID)
}

func (r *Resolver) ResolveBackdrop(item discovery.ContentItem) string {
	return r.resolve(item.BackdropPath, item.ID)
}

// PlaceholderURL addresses the generated artwork for an item id.
func (r *Resolver) PlaceholderURL(id int) string {
	return fmt.Sprintf("%s/%d", r.PlaceholderBase, id)
}

func (r *Resolver) resolve(path string, id int) string {
	switch {
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	case strings.HasPrefix(path, "/"):
		return r.BaseURL + path
	default:
		return r.PlaceholderURL(id)
	}
}
