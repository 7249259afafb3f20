package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kavelar/moviemind/domains/discovery"
	pkgError "github.com/kavelar/moviemind/pkg/error"
	"github.com/kavelar/moviemind/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type chatCall struct {
	system  string
	history []discovery.ChatTurn
	message string
}

// fakeProvider counts calls and delegates to stub funcs, so each test shapes
// the backend behavior it needs.
type fakeProvider struct {
	mu        sync.Mutex
	itemCalls int
	chats     []chatCall
	generate  func(req discovery.ItemsRequest) ([]discovery.ContentItem, error)
	chat      func(message string) (string, error)
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) GenerateItems(_ context.Context, req discovery.ItemsRequest) ([]discovery.ContentItem, error) {
	p.mu.Lock()
	p.itemCalls++
	p.mu.Unlock()
	return p.generate(req)
}

func (p *fakeProvider) Chat(_ context.Context, system string, history []discovery.ChatTurn, message string) (string, error) {
	p.mu.Lock()
	copied := make([]discovery.ChatTurn, len(history))
	copy(copied, history)
	p.chats = append(p.chats, chatCall{system: system, history: copied, message: message})
	p.mu.Unlock()
	if p.chat == nil {
		return "", errors.New("chat stub not configured")
	}
	return p.chat(message)
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.itemCalls
}

func (p *fakeProvider) chatCalls() []chatCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]chatCall, len(p.chats))
	copy(out, p.chats)
	return out
}

func staticItems(titles ...string) func(discovery.ItemsRequest) ([]discovery.ContentItem, error) {
	items := make([]discovery.ContentItem, len(titles))
	for i, title := range titles {
		items[i] = discovery.ContentItem{ID: i + 1, Title: title, Overview: "o", VoteAverage: 7.5}
	}
	return func(discovery.ItemsRequest) ([]discovery.ContentItem, error) {
		return items, nil
	}
}

type refreshEvent struct {
	kind, key string
	count     int
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []refreshEvent
}

func (n *recordingNotifier) ContentRefreshed(kind, key string, count int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, refreshEvent{kind: kind, key: key, count: count})
}

func (n *recordingNotifier) all() []refreshEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]refreshEvent, len(n.events))
	copy(out, n.events)
	return out
}

func newTestDiscovery(provider *fakeProvider) (discovery.IDiscoveryUsecase, *fakeClock, discovery.ContentStore) {
	clock := newFakeClock()
	store := repository.NewMemoryContentStore()
	svc := NewDiscoveryService(store, provider, clock, time.Hour, nil)
	return svc, clock, store
}

func TestDiscoveryTrendingCacheHit(t *testing.T) {
	provider := &fakeProvider{generate: staticItems("Inception", "Dark")}
	svc, _, _ := newTestDiscovery(provider)
	ctx := context.Background()

	first := svc.Trending(ctx)
	if first.Source != discovery.SourceLive {
		t.Fatalf("first fetch source = %q, want live", first.Source)
	}
	if len(first.Items) != 2 {
		t.Fatalf("first fetch returned %d items, want 2", len(first.Items))
	}

	second := svc.Trending(ctx)
	if second.Source != discovery.SourceCache {
		t.Fatalf("second fetch source = %q, want cache", second.Source)
	}
	if provider.callCount() != 1 {
		t.Fatalf("backend called %d times, want 1", provider.callCount())
	}
	if second.Items[0].Title != "Inception" {
		t.Errorf("cached items differ: %+v", second.Items)
	}
}

func TestDiscoveryTrendingExpiryRefetches(t *testing.T) {
	var n int32
	provider := &fakeProvider{generate: func(discovery.ItemsRequest) ([]discovery.ContentItem, error) {
		call := atomic.AddInt32(&n, 1)
		return []discovery.ContentItem{{ID: int(call), Title: fmt.Sprintf("Batch %d", call), Overview: "o", VoteAverage: 8}}, nil
	}}
	svc, clock, _ := newTestDiscovery(provider)
	ctx := context.Background()

	svc.Trending(ctx)
	clock.Advance(time.Hour + time.Minute)

	refreshed := svc.Trending(ctx)
	if refreshed.Source != discovery.SourceLive {
		t.Fatalf("post-expiry fetch source = %q, want live", refreshed.Source)
	}
	if provider.callCount() != 2 {
		t.Fatalf("backend called %d times after expiry, want 2", provider.callCount())
	}
	if refreshed.Items[0].Title != "Batch 2" {
		t.Errorf("expired entry was not replaced: %+v", refreshed.Items)
	}

	// Within the new window the refreshed entry serves from cache.
	if again := svc.Trending(ctx); again.Source != discovery.SourceCache || again.Items[0].Title != "Batch 2" {
		t.Errorf("refreshed entry not cached: source=%q items=%+v", again.Source, again.Items)
	}
}

func TestDiscoverySearchKeyNormalization(t *testing.T) {
	provider := &fakeProvider{generate: staticItems("Manchester by the Sea")}
	svc, _, _ := newTestDiscovery(provider)
	ctx := context.Background()

	if _, err := svc.Search(ctx, "Sad Movies "); err != nil {
		t.Fatalf("Search: %v", err)
	}
	second, err := svc.Search(ctx, "sad movies")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if provider.callCount() != 1 {
		t.Fatalf("backend called %d times, want 1: differently-cased queries should share an entry", provider.callCount())
	}
	if second.Source != discovery.SourceCache {
		t.Errorf("normalized re-search source = %q, want cache", second.Source)
	}
}

func TestDiscoveryFailureReturnsEmptyAndSkipsCache(t *testing.T) {
	provider := &fakeProvider{generate: func(discovery.ItemsRequest) ([]discovery.ContentItem, error) {
		return nil, errors.New("backend unavailable")
	}}
	svc, _, store := newTestDiscovery(provider)
	ctx := context.Background()

	result := svc.Trending(ctx)
	if !result.Degraded || result.Source != discovery.SourceFallback {
		t.Fatalf("failed fetch = %+v, want degraded fallback", result)
	}
	if result.Items == nil || len(result.Items) != 0 {
		t.Fatalf("failed fetch items = %v, want empty non-nil list", result.Items)
	}

	if raw, _ := store.Get(ctx, discovery.TrendingCacheKey()); raw != nil {
		t.Fatal("failed fetch must not populate the cache")
	}

	// No negative caching: the next call tries the backend again.
	svc.Trending(ctx)
	if provider.callCount() != 2 {
		t.Fatalf("backend called %d times, want 2", provider.callCount())
	}
}

func TestDiscoveryCorruptEntriesEvictedOnRead(t *testing.T) {
	provider := &fakeProvider{generate: staticItems("Arrival")}
	svc, clock, store := newTestDiscovery(provider)
	ctx := context.Background()

	// Not an envelope at all.
	if err := store.Set(ctx, discovery.TrendingCacheKey(), []byte("not json"), 0); err != nil {
		t.Fatal(err)
	}
	// Valid envelope, payload is not an item array.
	badPayload, _ := json.Marshal(discovery.CacheEnvelope{Data: []byte(`"oops"`), Timestamp: clock.Now().UnixMilli()})
	if err := store.Set(ctx, discovery.CategoryCacheKey("tv"), badPayload, 0); err != nil {
		t.Fatal(err)
	}

	if result := svc.Trending(ctx); result.Source != discovery.SourceLive {
		t.Errorf("corrupt envelope should read as miss, source = %q", result.Source)
	}
	if result := svc.Category(ctx, "tv"); result.Source != discovery.SourceLive {
		t.Errorf("corrupt payload should read as miss, source = %q", result.Source)
	}
	if provider.callCount() != 2 {
		t.Fatalf("backend called %d times, want 2", provider.callCount())
	}

	// Both keys now hold fresh valid entries.
	for _, key := range []string{discovery.TrendingCacheKey(), discovery.CategoryCacheKey("tv")} {
		raw, err := store.Get(ctx, key)
		if err != nil || raw == nil {
			t.Fatalf("key %q not rewritten after eviction", key)
		}
		var envelope discovery.CacheEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Timestamp == 0 {
			t.Fatalf("key %q holds an invalid envelope after refetch: %s", key, raw)
		}
	}
}

func TestDiscoveryUnknownCategoryUsesFallbackTemplate(t *testing.T) {
	var got discovery.ItemsRequest
	provider := &fakeProvider{generate: func(req discovery.ItemsRequest) ([]discovery.ContentItem, error) {
		got = req
		return []discovery.ContentItem{}, nil
	}}
	svc, _, _ := newTestDiscovery(provider)

	result := svc.Category(context.Background(), "definitely-not-a-category")
	if result.Degraded {
		t.Fatal("unknown category must not degrade")
	}
	if !strings.Contains(got.Instruction, "trending movies") {
		t.Errorf("unknown category should fall back to the trending-movies template, got %q", got.Instruction)
	}
}

func TestDiscoveryChatSessionTranscript(t *testing.T) {
	replies := []string{"Try Dark.", "Then try 1899."}
	var turn int32
	provider := &fakeProvider{chat: func(string) (string, error) {
		i := atomic.AddInt32(&turn, 1)
		return replies[i-1], nil
	}}
	svc, _, _ := newTestDiscovery(provider)
	ctx := context.Background()

	first, err := svc.Chat(ctx, discovery.ChatRequest{Message: "something like Stranger Things"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if first.SessionID == "" {
		t.Fatal("chat should mint a session id")
	}
	if first.Reply != "Try Dark." || first.Degraded {
		t.Fatalf("first reply = %+v", first)
	}

	second, err := svc.Chat(ctx, discovery.ChatRequest{SessionID: first.SessionID, Message: "more german shows"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Fatal("session id changed between turns")
	}

	calls := provider.chatCalls()
	if len(calls) != 2 {
		t.Fatalf("backend saw %d chat calls, want 2", len(calls))
	}
	if len(calls[0].history) != 0 {
		t.Fatalf("first turn should carry no history, got %+v", calls[0].history)
	}
	want := []discovery.ChatTurn{
		{Role: "user", Text: "something like Stranger Things"},
		{Role: "assistant", Text: "Try Dark."},
	}
	if len(calls[1].history) != len(want) {
		t.Fatalf("second turn history = %+v, want %+v", calls[1].history, want)
	}
	for i := range want {
		if calls[1].history[i].Role != want[i].Role || calls[1].history[i].Text != want[i].Text {
			t.Fatalf("history[%d] = %+v, want %+v", i, calls[1].history[i], want[i])
		}
	}
	if calls[1].message != "more german shows" {
		t.Errorf("newest message = %q, want it appended last", calls[1].message)
	}
}

func TestDiscoveryChatExplicitHistoryWins(t *testing.T) {
	provider := &fakeProvider{chat: func(string) (string, error) { return "ok", nil }}
	svc, _, _ := newTestDiscovery(provider)
	ctx := context.Background()

	history := []discovery.ChatTurn{
		{Role: "user", Text: "hello"},
		{Role: "assistant", Text: "hi there"},
	}
	if _, err := svc.Chat(ctx, discovery.ChatRequest{SessionID: "client-managed", History: history, Message: "next"}); err != nil {
		t.Fatalf("Chat: %v", err)
	}

	calls := provider.chatCalls()
	if len(calls[0].history) != 2 || calls[0].history[0].Text != "hello" {
		t.Fatalf("explicit history not passed through: %+v", calls[0].history)
	}

	// Explicit-history turns are not folded into the server transcript.
	if _, err := svc.Chat(ctx, discovery.ChatRequest{SessionID: "client-managed", Message: "again"}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	calls = provider.chatCalls()
	if len(calls[1].history) != 0 {
		t.Errorf("server transcript should be empty for a client-managed session, got %+v", calls[1].history)
	}
}

func TestDiscoveryChatFallbackReply(t *testing.T) {
	failing := errors.New("model overloaded")
	provider := &fakeProvider{chat: func(string) (string, error) { return "", failing }}
	svc, _, _ := newTestDiscovery(provider)
	ctx := context.Background()

	reply, err := svc.Chat(ctx, discovery.ChatRequest{SessionID: "s1", Message: "hi"})
	if err != nil {
		t.Fatalf("chat failures must not surface as errors, got %v", err)
	}
	if !reply.Degraded || reply.Reply != chatFallbackReply {
		t.Fatalf("reply = %+v, want the fixed fallback", reply)
	}

	// The failed turn is not recorded in the session transcript.
	provider.chat = func(string) (string, error) { return "better now", nil }
	if _, err := svc.Chat(ctx, discovery.ChatRequest{SessionID: "s1", Message: "hi again"}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	calls := provider.chatCalls()
	if len(calls[1].history) != 0 {
		t.Errorf("failed turn leaked into the transcript: %+v", calls[1].history)
	}
}

func TestDiscoveryValidation(t *testing.T) {
	provider := &fakeProvider{generate: staticItems()}
	svc, _, _ := newTestDiscovery(provider)
	ctx := context.Background()

	if _, err := svc.Search(ctx, ""); err == nil {
		t.Fatal("empty search query should fail validation")
	} else if _, ok := err.(pkgError.GenericError); !ok {
		t.Fatalf("validation failure should be a GenericError, got %T", err)
	}

	if _, err := svc.Chat(ctx, discovery.ChatRequest{}); err == nil {
		t.Fatal("empty chat message should fail validation")
	}

	if _, err := svc.Refresh(ctx, "bogus-kind", ""); err == nil {
		t.Fatal("unknown refresh kind should fail validation")
	}

	if provider.callCount() != 0 {
		t.Fatalf("invalid requests must not reach the backend, saw %d calls", provider.callCount())
	}
}

func TestDiscoveryStaleFetchResultDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var n int32
	provider := &fakeProvider{generate: func(discovery.ItemsRequest) ([]discovery.ContentItem, error) {
		if atomic.AddInt32(&n, 1) == 1 {
			entered <- struct{}{}
			<-release
			return []discovery.ContentItem{{ID: 1, Title: "Stale", Overview: "o", VoteAverage: 5}}, nil
		}
		return []discovery.ContentItem{{ID: 2, Title: "Fresh", Overview: "o", VoteAverage: 9}}, nil
	}}
	svc, _, _ := newTestDiscovery(provider)
	ctx := context.Background()

	done := make(chan discovery.FetchResult, 1)
	go func() {
		done <- svc.Trending(ctx)
	}()
	<-entered

	// A forced refresh completes while the first fetch is still in flight.
	refreshed, err := svc.Refresh(ctx, discovery.KindTrending, "")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.Items[0].Title != "Fresh" {
		t.Fatalf("refresh result = %+v", refreshed.Items)
	}

	close(release)
	slow := <-done

	// The slow fetch still answers its own caller with its own items.
	if slow.Degraded || slow.Items[0].Title != "Stale" {
		t.Fatalf("slow fetch result = %+v", slow)
	}

	// But the cache keeps the newer result: the stale write was discarded.
	cached := svc.Trending(ctx)
	if cached.Source != discovery.SourceCache {
		t.Fatalf("expected a cache hit, got source %q", cached.Source)
	}
	if cached.Items[0].Title != "Fresh" {
		t.Errorf("stale result overwrote the newer one: %+v", cached.Items)
	}
}

func TestDiscoveryConcurrentMissesShareOneCall(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	provider := &fakeProvider{generate: func(discovery.ItemsRequest) ([]discovery.ContentItem, error) {
		entered <- struct{}{}
		<-release
		return []discovery.ContentItem{{ID: 1, Title: "Shared", Overview: "o", VoteAverage: 8}}, nil
	}}
	svc, _, _ := newTestDiscovery(provider)
	ctx := context.Background()

	results := make(chan discovery.FetchResult, 2)
	go func() { results <- svc.Category(ctx, "tv") }()
	<-entered
	go func() { results <- svc.Category(ctx, "tv") }()

	close(release)
	a, b := <-results, <-results

	if provider.callCount() != 1 {
		t.Fatalf("backend called %d times for concurrent misses, want 1", provider.callCount())
	}
	for _, r := range []discovery.FetchResult{a, b} {
		if r.Degraded || len(r.Items) != 1 || r.Items[0].Title != "Shared" {
			t.Fatalf("concurrent fetch result = %+v", r)
		}
	}
}

func TestDiscoveryNotifierFiresOnLiveFetchOnly(t *testing.T) {
	provider := &fakeProvider{generate: staticItems("Severance")}
	notifier := &recordingNotifier{}
	svc := NewDiscoveryService(repository.NewMemoryContentStore(), provider, newFakeClock(), time.Hour, notifier)
	ctx := context.Background()

	svc.Trending(ctx)
	svc.Trending(ctx) // cache hit, no event

	events := notifier.all()
	if len(events) != 1 {
		t.Fatalf("got %d refresh events, want 1", len(events))
	}
	want := refreshEvent{kind: discovery.KindTrending, key: discovery.TrendingCacheKey(), count: 1}
	if events[0] != want {
		t.Errorf("event = %+v, want %+v", events[0], want)
	}

	provider.generate = func(discovery.ItemsRequest) ([]discovery.ContentItem, error) {
		return nil, errors.New("down")
	}
	svc.Category(ctx, "tv")
	if len(notifier.all()) != 1 {
		t.Error("degraded fetch must not fire a refresh event")
	}
}
