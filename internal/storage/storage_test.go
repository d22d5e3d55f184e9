package storage

import (
	"context"
	"errors"
	"os"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingKV struct {
	err error
}

func (f *failingKV) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }
func (f *failingKV) Set(context.Context, string, []byte) error         { return f.err }
func (f *failingKV) Delete(context.Context, string) error              { return f.err }
func (f *failingKV) Close() error                                      { return nil }

// slowKV widens the gap between a read and the write that follows it.
type slowKV struct {
	*MemoryKV
	delay time.Duration
}

func (s *slowKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	time.Sleep(s.delay)
	return s.MemoryKV.Get(ctx, key)
}

type hunt struct {
	Name  string `json:"name"`
	Clues int    `json:"clues"`
}

func TestInitCreatesCollections(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := New(kv)

	require.NoError(t, s.Init(ctx))

	for _, name := range Collections {
		raw, ok, err := kv.Get(ctx, name)
		require.NoError(t, err)
		require.True(t, ok, name)
		assert.JSONEq(t, "{}", string(raw))
	}
}

func TestInitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV())

	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.PutRecord(ctx, CollectionUsers, "42", map[string]string{"name": "Ada"}))
	require.NoError(t, s.Init(ctx))

	ids, err := s.CollectionIDs(ctx, CollectionUsers)
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, ids)
}

func TestInitFailureIsStorageError(t *testing.T) {
	boom := errors.New("disk on fire")
	s := New(&failingKV{err: boom})

	err := s.Init(context.Background())
	require.Error(t, err)

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "init", se.Op)
	assert.ErrorIs(t, err, boom)
}

func TestRecordLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV())
	require.NoError(t, s.Init(ctx))

	require.NoError(t, s.PutRecord(ctx, CollectionHunts, "h1", hunt{Name: "Lost crown", Clues: 3}))

	var got hunt
	found, err := s.GetRecord(ctx, CollectionHunts, "h1", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, hunt{Name: "Lost crown", Clues: 3}, got)

	found, err = s.GetRecord(ctx, CollectionHunts, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.DeleteRecord(ctx, CollectionHunts, "h1"))
	require.NoError(t, s.DeleteRecord(ctx, CollectionHunts, "h1"))

	ids, err := s.CollectionIDs(ctx, CollectionHunts)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestConcurrentWritesAreNotLost(t *testing.T) {
	ctx := context.Background()
	s := New(&slowKV{MemoryKV: NewMemoryKV(), delay: 2 * time.Millisecond})
	require.NoError(t, s.Init(ctx))

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, 2*writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("u%02d", i)
			errs <- s.PutRecord(ctx, CollectionUsers, id, hunt{Name: id})
			errs <- s.AppendCommandHistory(ctx, CommandHistory{UserID: id, Command: "ping"})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	ids, err := s.CollectionIDs(ctx, CollectionUsers)
	require.NoError(t, err)
	assert.Len(t, ids, writers)

	history, err := s.CommandHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, history, writers)
}

func TestCreateRecordKeepsFirstWriter(t *testing.T) {
	ctx := context.Background()
	s := New(&slowKV{MemoryKV: NewMemoryKV(), delay: time.Millisecond})
	require.NoError(t, s.Init(ctx))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created []string
	)
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("hunt-%d", i)
			ok, err := s.CreateRecord(ctx, CollectionHunts, "h1", hunt{Name: name})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created = append(created, name)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, created, 1)
	var got hunt
	found, err := s.GetRecord(ctx, CollectionHunts, "h1", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created[0], got.Name)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV())
	require.NoError(t, s.Init(ctx))
	assert.Equal(t, len(Collections), s.Stats()["keys"])

	assert.Nil(t, New(&failingKV{}).Stats())
}

func TestCollectionMissing(t *testing.T) {
	_, err := New(NewMemoryKV()).Collection(context.Background(), CollectionClues)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommandHistoryIsCapped(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV())

	for i := 0; i < commandHistoryLimit+5; i++ {
		require.NoError(t, s.AppendCommandHistory(ctx, CommandHistory{
			Command:  "ping",
			UserID:   "u",
			Datetime: time.Unix(int64(i), 0).UTC(),
		}))
	}

	history, err := s.CommandHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, commandHistoryLimit)
	assert.Equal(t, time.Unix(5, 0).UTC(), history[0].Datetime)
}

func TestCommandHashes(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV())

	hashes, err := s.CommandHashes(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, hashes)

	require.NoError(t, s.SaveCommandHashes(ctx, "g1", map[string]string{"ping": "abc"}))
	hashes, err = s.CommandHashes(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ping": "abc"}, hashes)
}

func TestFileBackendPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "datastore.json")

	s, err := Open(ctx, Options{Backend: BackendFile, Path: path})
	require.NoError(t, err)
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.PutRecord(ctx, CollectionClues, "c1", hunt{Name: "footprint"}))
	assert.Equal(t, path, s.Stats()["file_path"])
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, Options{Backend: BackendFile, Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	var got hunt
	found, err := reopened.GetRecord(ctx, CollectionClues, "c1", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "footprint", got.Name)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "floppy"})
	require.Error(t, err)
}

func TestRedisBackend(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()

	kv, err := NewRedisKV(ctx, RedisOptions{Addr: addr, Prefix: "tavern-test:"})
	require.NoError(t, err)
	defer kv.Close()

	s := New(kv)
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.PutRecord(ctx, CollectionUsers, "7", hunt{Name: "x"}))
	t.Cleanup(func() {
		for _, name := range Collections {
			_ = kv.Delete(ctx, name)
		}
	})

	ids, err := s.CollectionIDs(ctx, CollectionUsers)
	require.NoError(t, err)
	assert.Contains(t, ids, "7")
}
