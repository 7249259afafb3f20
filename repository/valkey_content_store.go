package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	valkeylib "github.com/valkey-io/valkey-go"

	"github.com/kavelar/moviemind/infrastructure/valkey"
)

// ValkeyContentStore persists cache envelopes in Valkey under a namespaced
// prefix. The service's lazy read-expiry stays authoritative; the ttl passed
// to Set is additionally applied as a native EX backstop so abandoned keys do
// not pile up server-side.
type ValkeyContentStore struct {
	client *valkey.Client
	prefix string
}

func NewValkeyContentStore(client *valkey.Client) *ValkeyContentStore {
	return &ValkeyContentStore{
		client: client,
		prefix: client.Key("content") + ":",
	}
}

func (s *ValkeyContentStore) fullKey(key string) string {
	return s.prefix + key
}

func (s *ValkeyContentStore) inner() valkeylib.Client {
	return s.client.Inner()
}

func (s *ValkeyContentStore) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.inner().B().Get().Key(s.fullKey(key)).Build()

	data, err := s.inner().Do(ctx, cmd).AsBytes()
	if err != nil {
		if valkeylib.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get content entry: %w", err)
	}
	return data, nil
}

func (s *ValkeyContentStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	builder := s.inner().B().Set().Key(s.fullKey(key)).Value(string(value))

	var cmd valkeylib.Completed
	if ttl > 0 {
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}

	if err := s.inner().Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to save content entry: %w", err)
	}
	return nil
}

func (s *ValkeyContentStore) Delete(ctx context.Context, key string) error {
	cmd := s.inner().B().Del().Key(s.fullKey(key)).Build()
	if err := s.inner().Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to delete content entry: %w", err)
	}
	return nil
}

// Keys returns the logical (unprefixed) keys currently stored.
func (s *ValkeyContentStore) Keys(ctx context.Context) ([]string, error) {
	full, err := s.scanKeys(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(full))
	for _, k := range full {
		keys = append(keys, strings.TrimPrefix(k, s.prefix))
	}
	return keys, nil
}

func (s *ValkeyContentStore) Clear(ctx context.Context) error {
	full, err := s.scanKeys(ctx)
	if err != nil {
		return err
	}
	if len(full) == 0 {
		return nil
	}

	cmd := s.inner().B().Del().Key(full...).Build()
	if err := s.inner().Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to clear content entries: %w", err)
	}
	return nil
}

func (s *ValkeyContentStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *ValkeyContentStore) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		cmd := s.inner().B().Scan().Cursor(cursor).Match(s.prefix + "*").Count(100).Build()
		result, err := s.inner().Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("failed to scan content entries: %w", err)
		}

		keys = append(keys, result.Elements...)
		cursor = result.Cursor
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}
