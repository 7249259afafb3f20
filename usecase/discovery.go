package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kavelar/moviemind/domains/discovery"
	pkgError "github.com/kavelar/moviemind/pkg/error"
	"github.com/kavelar/moviemind/validations"
)

// chatFallbackReply is the fixed reply for chat turns whose backend call
// failed. Clients never see a raw error for a conversation turn.
const chatFallbackReply = "Sorry, I'm having trouble coming up with an answer right now. Please try again in a moment."

// maxSessionTurns caps the server-side transcript kept per chat session.
const maxSessionTurns = 10

// inflightFetch lets concurrent misses on the same key share one backend
// call instead of stampeding the provider.
type inflightFetch struct {
	wg    sync.WaitGroup
	items []discovery.ContentItem
	err   error
}

type discoveryService struct {
	store    discovery.ContentStore
	provider discovery.ContentProvider
	prompter *Prompter
	clock    discovery.Clock
	ttl      time.Duration
	notifier discovery.RefreshNotifier
	fence    *slotFence

	inflightMu sync.Mutex
	inflight   map[string]*inflightFetch

	sessionMu sync.Mutex
	sessions  map[string][]discovery.ChatTurn
}

// NewDiscoveryService wires the content pipeline. A nil clock means wall
// time; a non-positive ttl falls back to one hour; notifier may be nil.
func NewDiscoveryService(store discovery.ContentStore, provider discovery.ContentProvider, clock discovery.Clock, ttl time.Duration, notifier discovery.RefreshNotifier) discovery.IDiscoveryUsecase {
	if clock == nil {
		clock = discovery.SystemClock{}
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &discoveryService{
		store:    store,
		provider: provider,
		prompter: NewPrompter(),
		clock:    clock,
		ttl:      ttl,
		notifier: notifier,
		fence:    newSlotFence(),
		inflight: make(map[string]*inflightFetch),
		sessions: make(map[string][]discovery.ChatTurn),
	}
}

func (s *discoveryService) Trending(ctx context.Context) discovery.FetchResult {
	return s.fetchCached(ctx, discovery.KindTrending, discovery.TrendingCacheKey(), s.prompter.Trending)
}

func (s *discoveryService) Category(ctx context.Context, name string) discovery.FetchResult {
	return s.fetchCached(ctx, discovery.KindCategory, discovery.CategoryCacheKey(name), func() discovery.ItemsRequest {
		return s.prompter.Category(name)
	})
}

func (s *discoveryService) Search(ctx context.Context, query string) (discovery.FetchResult, error) {
	if err := validations.ValidateSearch(ctx, query); err != nil {
		return discovery.FetchResult{}, err
	}
	result := s.fetchCached(ctx, discovery.KindSearch, discovery.SearchCacheKey(query), func() discovery.ItemsRequest {
		return s.prompter.Search(discovery.NormalizeQuery(query))
	})
	return result, nil
}

// Chat is deliberately uncached: the backend gets the full prior transcript
// every turn so it can hold context statelessly. When the caller supplies no
// history, the server-side session transcript for the session id is used.
func (s *discoveryService) Chat(ctx context.Context, request discovery.ChatRequest) (discovery.ChatReply, error) {
	if err := validations.ValidateChat(ctx, request); err != nil {
		return discovery.ChatReply{}, err
	}

	sessionID := request.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	history := request.History
	usingSession := len(history) == 0
	if usingSession {
		history = s.sessionHistory(sessionID)
	}

	reply, err := s.provider.Chat(ctx, s.prompter.ChatSystem(), history, request.Message)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"provider":   s.provider.Name(),
			"session_id": sessionID,
		}).Warn("chat turn failed, sending fallback reply")
		return discovery.ChatReply{SessionID: sessionID, Reply: chatFallbackReply, Degraded: true}, nil
	}

	// Failed turns are not recorded: the backend never saw them.
	if usingSession {
		s.appendSession(sessionID, request.Message, reply)
	}
	return discovery.ChatReply{SessionID: sessionID, Reply: reply}, nil
}

// Refresh forces a live fetch and cache write for a kind, skipping both the
// cache lookup and the in-flight deduplication. If an ordinary fetch for the
// same key is mid-flight, the fence ensures the older of the two results
// never lands in the cache.
func (s *discoveryService) Refresh(ctx context.Context, kind, param string) (discovery.FetchResult, error) {
	var key string
	var build func() discovery.ItemsRequest

	switch kind {
	case discovery.KindTrending:
		key, build = discovery.TrendingCacheKey(), s.prompter.Trending
	case discovery.KindCategory:
		key = discovery.CategoryCacheKey(param)
		build = func() discovery.ItemsRequest { return s.prompter.Category(param) }
	case discovery.KindSearch:
		if err := validations.ValidateSearch(ctx, param); err != nil {
			return discovery.FetchResult{}, err
		}
		key = discovery.SearchCacheKey(param)
		build = func() discovery.ItemsRequest { return s.prompter.Search(discovery.NormalizeQuery(param)) }
	default:
		return discovery.FetchResult{}, pkgError.ValidationError("unknown content kind: " + kind)
	}

	seq := s.fence.Next(key)
	items, err := s.provider.GenerateItems(ctx, build())
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"provider": s.provider.Name(),
			"kind":     kind,
			"key":      key,
		}).Warn("forced refresh failed")
		return discovery.FetchResult{Items: []discovery.ContentItem{}, Source: discovery.SourceFallback, Degraded: true}, nil
	}
	s.storeResult(ctx, kind, key, seq, items)
	return discovery.FetchResult{Items: items, Source: discovery.SourceLive}, nil
}

// fetchCached is the read-through path shared by trending, category and
// search: cache lookup, then a deduplicated live fetch on miss, then a
// fence-guarded cache write. Every backend failure degrades to an empty
// result rather than an error.
func (s *discoveryService) fetchCached(ctx context.Context, kind, key string, build func() discovery.ItemsRequest) discovery.FetchResult {
	if items, ok := s.cacheLookup(ctx, key); ok {
		return discovery.FetchResult{Items: items, Source: discovery.SourceCache}
	}

	items, err := s.fetchLive(ctx, kind, key, build)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"provider": s.provider.Name(),
			"kind":     kind,
			"key":      key,
		}).Warn("content fetch failed, returning empty result")
		return discovery.FetchResult{Items: []discovery.ContentItem{}, Source: discovery.SourceFallback, Degraded: true}
	}
	return discovery.FetchResult{Items: items, Source: discovery.SourceLive}
}

// cacheLookup returns the cached items for key if a fresh entry exists.
// Expiry is lazy: it is checked here, on read, and expired or corrupt
// entries are deleted on the spot. Nothing sweeps the store in the
// background.
func (s *discoveryService) cacheLookup(ctx context.Context, key string) ([]discovery.ContentItem, bool) {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("cache read failed, treating as miss")
		return nil, false
	}
	if raw == nil {
		return nil, false
	}

	var envelope discovery.CacheEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Timestamp == 0 {
		s.evict(ctx, key, "corrupt envelope")
		return nil, false
	}
	if envelope.Age(s.clock.Now()) > s.ttl {
		s.evict(ctx, key, "expired")
		return nil, false
	}

	var items []discovery.ContentItem
	if err := json.Unmarshal(envelope.Data, &items); err != nil {
		s.evict(ctx, key, "corrupt payload")
		return nil, false
	}
	return items, true
}

func (s *discoveryService) evict(ctx context.Context, key, reason string) {
	if err := s.store.Delete(ctx, key); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("cache eviction failed")
		return
	}
	logrus.WithFields(logrus.Fields{"key": key, "reason": reason}).Debug("evicted cache entry")
}

func (s *discoveryService) fetchLive(ctx context.Context, kind, key string, build func() discovery.ItemsRequest) ([]discovery.ContentItem, error) {
	s.inflightMu.Lock()
	if fl, ok := s.inflight[key]; ok {
		s.inflightMu.Unlock()
		fl.wg.Wait()
		return fl.items, fl.err
	}
	fl := &inflightFetch{}
	fl.wg.Add(1)
	s.inflight[key] = fl
	s.inflightMu.Unlock()

	// The sequence number is taken before the backend call; by completion a
	// newer fetch may have been issued for the same key, in which case this
	// result is served to its caller but never written back.
	seq := s.fence.Next(key)
	items, err := s.provider.GenerateItems(ctx, build())
	if err == nil {
		s.storeResult(ctx, kind, key, seq, items)
	}

	fl.items, fl.err = items, err
	fl.wg.Done()

	s.inflightMu.Lock()
	delete(s.inflight, key)
	s.inflightMu.Unlock()

	return items, err
}

func (s *discoveryService) storeResult(ctx context.Context, kind, key string, seq uint64, items []discovery.ContentItem) {
	if !s.fence.Latest(key, seq) {
		logrus.WithFields(logrus.Fields{"kind": kind, "key": key}).Debug("discarding stale fetch result")
		return
	}

	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	envelope, err := json.Marshal(discovery.CacheEnvelope{Data: data, Timestamp: s.clock.Now().UnixMilli()})
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, key, envelope, s.ttl); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("cache write failed")
		return
	}

	if s.notifier != nil {
		s.notifier.ContentRefreshed(kind, key, len(items))
	}
}

func (s *discoveryService) sessionHistory(id string) []discovery.ChatTurn {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	history := s.sessions[id]
	out := make([]discovery.ChatTurn, len(history))
	copy(out, history)
	return out
}

func (s *discoveryService) appendSession(id, message, reply string) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	history := append(s.sessions[id],
		discovery.ChatTurn{Role: "user", Text: message},
		discovery.ChatTurn{Role: "assistant", Text: reply},
	)
	if len(history) > maxSessionTurns {
		history = history[len(history)-maxSessionTurns:]
	}
	s.sessions[id] = history
}
