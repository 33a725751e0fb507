package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/goreport/internal/docanalysis"
)

func sample(id string) docanalysis.Profile {
	return docanalysis.Profile{
		ID:               id,
		OriginalFilename: "sample.docx",
		ContentSections:  []string{"Introduction", "Results"},
		FormattingScore:  100,
		Compatibility:    docanalysis.TierHigh,
	}
}

func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	id := NewID()
	require.True(t, ValidID(id))

	_, err := s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, sample(id)))
	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "sample.docx", got.OriginalFilename)
	assert.Equal(t, []string{"Introduction", "Results"}, got.ContentSections)

	assert.Error(t, s.Put(ctx, sample("")))

	require.NoError(t, s.Delete(ctx, id))
	assert.ErrorIs(t, s.Delete(ctx, id), ErrNotFound)
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Close())
}

func TestMemoryStore(t *testing.T) {
	exercise(t, NewMemoryStore(0))
}

func TestMemoryStore_EvictsOldestBeyondLimit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)
	a, b, c := NewID(), NewID(), NewID()
	require.NoError(t, s.Put(ctx, sample(a)))
	require.NoError(t, s.Put(ctx, sample(b)))
	// Replacing a keeps its insertion slot.
	require.NoError(t, s.Put(ctx, sample(a)))
	require.NoError(t, s.Put(ctx, sample(c)))

	assert.Equal(t, 2, s.Len())
	_, err := s.Get(ctx, a)
	assert.ErrorIs(t, err, ErrNotFound)
	for _, id := range []string{b, c} {
		_, err := s.Get(ctx, id)
		assert.NoError(t, err)
	}

	// A deleted id frees its slot.
	require.NoError(t, s.Delete(ctx, b))
	d := NewID()
	require.NoError(t, s.Put(ctx, sample(d)))
	_, err = s.Get(ctx, c)
	assert.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore(0)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := NewID()
			assert.NoError(t, s.Put(context.Background(), sample(id)))
			_, err := s.Get(context.Background(), id)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 32, s.Len())
}

func TestValidID(t *testing.T) {
	assert.False(t, ValidID("not-a-uuid"))
	assert.False(t, ValidID(""))
}

// fakeRedis mimics the subset of Redis semantics the store relies on.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	fail error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return redis.NewStringResult("", f.fail)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, exp time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return redis.NewStatusResult("", f.fail)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", f.fail)
}

func (f *fakeRedis) Close() error { return nil }

func TestRedisStore(t *testing.T) {
	fake := newFakeRedis()
	exercise(t, &RedisStore{client: fake, ttl: time.Hour})
}

func TestRedisStore_KeysTTLAndErrors(t *testing.T) {
	fake := newFakeRedis()
	s := &RedisStore{client: fake, ttl: 30 * time.Minute}
	ctx := context.Background()
	id := NewID()
	require.NoError(t, s.Put(ctx, sample(id)))
	assert.Contains(t, fake.data, keyPrefix+id)
	assert.Equal(t, 30*time.Minute, fake.ttls[keyPrefix+id])
	assert.Contains(t, fake.data[keyPrefix+id], `"template_compatibility":"high"`)

	fake.data[keyPrefix+"bad"] = "{not json"
	_, err := s.Get(ctx, "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	fake.fail = errors.New("connection refused")
	assert.Error(t, s.Ping(ctx))
	_, err = s.Get(ctx, id)
	assert.ErrorContains(t, err, "connection refused")
	assert.Error(t, s.Put(ctx, sample(id)))
}
