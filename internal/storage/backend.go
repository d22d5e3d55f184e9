package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/keshon/tavern-bot/datastore"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Options struct {
	Backend       string
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open builds a Storage over the configured backend.
func Open(ctx context.Context, opts Options) (*Storage, error) {
	var (
		kv  KV
		err error
	)

	switch opts.Backend {
	case BackendFile, "":
		kv, err = NewFileKV(opts.Path)
	case BackendRedis:
		kv, err = NewRedisKV(ctx, RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Prefix:   opts.RedisPrefix,
		})
	case BackendMemory:
		kv = NewMemoryKV()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Info().Str("backend", opts.Backend).Msg("storage opened")
	return New(kv), nil
}

// FileKV adapts the JSON file datastore to KV.
type FileKV struct {
	ds *datastore.DataStore
}

func NewFileKV(path string) (*FileKV, error) {
	cfg := datastore.DefaultConfig(path)
	cfg.AutoSaveInterval = 10 * time.Second

	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &FileKV{ds: ds}, nil
}

func (f *FileKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := f.ds.Get(key)
	if !ok {
		return nil, false, nil
	}
	raw, err := toJSON(v)
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (f *FileKV) Set(_ context.Context, key string, value []byte) error {
	return f.ds.Set(key, jsonValue(value))
}

func (f *FileKV) Delete(_ context.Context, key string) error {
	f.ds.Delete(key)
	return nil
}

func (f *FileKV) Close() error {
	return f.ds.Close()
}

func (f *FileKV) Stats() map[string]any {
	return f.ds.Stats()
}
