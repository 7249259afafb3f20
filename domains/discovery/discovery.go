package discovery

import (
	"context"
	"math"
	"strings"
)

// Content kinds, used for cache keys, refresh events and logging.
const (
	KindTrending = "trending"
	KindCategory = "category"
	KindSearch   = "search"
	KindChat     = "chat"
)

// Categories with a dedicated prompt template. Anything else falls back to
// the default trending prompt.
const (
	CategoryTV     = "tv"
	CategoryMovies = "movies"
	CategoryNew    = "new"
	CategoryWeb    = "web"
)

// Result sources for the discriminated fetch outcome.
const (
	SourceCache    = "cache"
	SourceLive     = "live"
	SourceFallback = "fallback"
)

// ContentItem is one movie-like record produced by the AI backend. Only id,
// title, overview and vote_average are guaranteed; everything else may be
// absent, and image paths may point nowhere (the images package resolves them
// with a placeholder fallback).
type ContentItem struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Overview     string   `json:"overview"`
	PosterPath   string   `json:"poster_path,omitempty"`
	BackdropPath string   `json:"backdrop_path,omitempty"`
	ReleaseDate  string   `json:"release_date,omitempty"`
	VoteAverage  float64  `json:"vote_average"`
	Genres       []string `json:"genres,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// VotePercent converts the 0-10 vote average to a display percentage using
// round-half-up. Out-of-range averages pass through unclamped.
func (c ContentItem) VotePercent() int {
	return int(math.Floor(c.VoteAverage*10 + 0.5))
}

// ChatTurn is a single conversation turn. Role is "user" or "assistant".
type ChatTurn struct {
	Role  string        `json:"role"`
	Text  string        `json:"text"`
	Items []ContentItem `json:"items,omitempty"`
}

// ChatRequest carries the full prior history plus the new user message. When
// SessionID is set and History is empty, the server-side session transcript
// for that id is used instead.
type ChatRequest struct {
	SessionID string     `json:"session_id,omitempty"`
	History   []ChatTurn `json:"history,omitempty"`
	Message   string     `json:"message"`
}

// ChatReply is the assistant's answer. Degraded marks the fixed fallback
// reply sent when the backend call failed.
type ChatReply struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Degraded  bool   `json:"degraded,omitempty"`
}

// FetchResult is the discriminated outcome of a content fetch. Degraded means
// the backend call or response parse failed and Items is empty; callers that
// do not care render the empty list as "nothing available".
type FetchResult struct {
	Items    []ContentItem `json:"items"`
	Source   string        `json:"source"`
	Degraded bool          `json:"degraded,omitempty"`
}

// IDiscoveryUsecase is the content pipeline between the UI and the AI
// backend. Trending and Category absorb every backend failure into a degraded
// empty result; Search and Chat additionally validate their input. Refresh
// forces a live fetch for a kind regardless of cache state, used by cache
// warming and the admin refresh endpoint.
type IDiscoveryUsecase interface {
	Trending(ctx context.Context) FetchResult
	Category(ctx context.Context, name string) FetchResult
	Search(ctx context.Context, query string) (FetchResult, error)
	Chat(ctx context.Context, request ChatRequest) (ChatReply, error)
	Refresh(ctx context.Context, kind, param string) (FetchResult, error)
}

// NormalizeQuery canonicalizes a search query for cache-key purposes:
// lowercase, surrounding whitespace trimmed.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Cache keys per content kind. These are the logical keys; stores prepend
// their own namespace prefix.
func TrendingCacheKey() string {
	return "trending"
}

func CategoryCacheKey(name string) string {
	return "category_" + name
}

func SearchCacheKey(query string) string {
	return "search_" + NormalizeQuery(query)
}
