package usecase

import (
	"fmt"

	"github.com/kavelar/moviemind/domains/discovery"
)

// Item counts per content kind. The schema caps nothing; these only steer the
// instruction text.
const (
	trendingItemCount = 10
	categoryItemCount = 10
	searchItemCount   = 8
)

// systemInstruction frames the backend as a factual content API. The image
// rule is the important part: models happily invent TMDB-looking paths, and a
// fabricated path poisons the client-side placeholder fallback.
const systemInstruction = `You are a factual movie and TV content API. You return only real, verifiable titles with accurate metadata. You never fabricate image paths: supply poster_path or backdrop_path only when you know the real path for that title, and leave the field empty otherwise. You respond with structured data only, no prose.`

// chatSystemInstruction is the conversational counterpart. Chat replies are
// free text, so the framing is looser.
const chatSystemInstruction = `You are MovieMind, a knowledgeable and friendly movie discovery assistant. You help people find movies and TV shows to watch based on their mood, taste and questions. Recommend only real titles. Keep replies conversational and reasonably short.`

// imagePathHint is appended to every structured instruction so the rule also
// survives backends that weight the user turn over the system turn.
const imagePathHint = "For poster_path and backdrop_path, include the real TMDB file path (like /kqjL17yufvn9OVLyXYpvtyrFfak.jpg) only if you actually know it; otherwise leave the field empty rather than inventing one."

// Prompter assembles the per-kind instructions sent to the AI backend.
type Prompter struct{}

func NewPrompter() *Prompter {
	return &Prompter{}
}

// Trending asks for the home feed: recent, highly rated, genre-mixed.
func (p *Prompter) Trending() discovery.ItemsRequest {
	instruction := fmt.Sprintf("List %d trending and highly-rated movies or TV shows from the last 5 years, mixing genres so the list feels varied.", trendingItemCount)
	return p.itemsRequest(instruction, trendingItemCount)
}

// Category selects one of the fixed category templates. Unrecognized names
// fall back to the default trending-movies template instead of erroring.
func (p *Prompter) Category(name string) discovery.ItemsRequest {
	var instruction string
	switch name {
	case discovery.CategoryTV:
		instruction = fmt.Sprintf("List %d popular and critically acclaimed TV shows worth watching right now, mixing genres and including both recent seasons and modern classics.", categoryItemCount)
	case discovery.CategoryMovies:
		instruction = fmt.Sprintf("List %d popular and critically acclaimed movies, mixing genres and decades so the list covers both recent releases and established favorites.", categoryItemCount)
	case discovery.CategoryNew:
		instruction = fmt.Sprintf("List %d new and popular movies or TV shows released within roughly the last year that are generating buzz.", categoryItemCount)
	case discovery.CategoryWeb:
		instruction = fmt.Sprintf("List %d acclaimed web series and streaming-original shows, mixing platforms and genres.", categoryItemCount)
	default:
		instruction = fmt.Sprintf("List %d trending movies people are watching right now, mixed genres.", categoryItemCount)
	}
	return p.itemsRequest(instruction, categoryItemCount)
}

// Search interprets the query loosely: it may be a mood, a genre, an actor or
// a half-remembered plot. Each result must carry a reason explaining the
// match.
func (p *Prompter) Search(query string) discovery.ItemsRequest {
	instruction := fmt.Sprintf("Find %d movies or TV shows matching this search: %q. Interpret the query as a mood, genre, actor, or plot description, whichever fits best. For every result fill the reason field with one short human-readable sentence explaining why it matches the search.", searchItemCount, query)
	return p.itemsRequest(instruction, searchItemCount)
}

// ChatSystem returns the system framing for conversational turns.
func (p *Prompter) ChatSystem() string {
	return chatSystemInstruction
}

func (p *Prompter) itemsRequest(instruction string, count int) discovery.ItemsRequest {
	return discovery.ItemsRequest{
		Instruction: instruction + " " + imagePathHint,
		System:      systemInstruction,
		Count:       count,
	}
}
