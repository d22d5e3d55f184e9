// /internal/storage/storage.go
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Top-level collections every deployment carries.
const (
	CollectionUsers = "users"
	CollectionHunts = "hunts"
	CollectionClues = "clues"
)

// Collections lists the collections created by Init.
var Collections = []string{CollectionUsers, CollectionHunts, CollectionClues}

// ErrNotFound is returned when a key or record does not exist.
var ErrNotFound = errors.New("not found")

// KV is the flat key-value store the bot persists into. Values are JSON documents.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Error describes a failed storage operation.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Storage keeps collections as single JSON documents. Writers rewrite a
// whole document, so every read-modify-write holds the key's lock. The locks
// are per process; two bots sharing one redis still race.
type Storage struct {
	kv KV

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(kv KV) *Storage {
	return &Storage{kv: kv, locks: make(map[string]*sync.Mutex)}
}

// lock serialises writers of key and returns the unlock func.
func (s *Storage) lock(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *Storage) Close() error {
	return s.kv.Close()
}

type statser interface {
	Stats() map[string]any
}

// Stats reports backend figures such as key count, or nil when the backend
// keeps none.
func (s *Storage) Stats() map[string]any {
	if st, ok := s.kv.(statser); ok {
		return st.Stats()
	}
	return nil
}

// Init creates every missing top-level collection as an empty mapping.
// Running it twice is harmless.
func (s *Storage) Init(ctx context.Context) error {
	for _, name := range Collections {
		if err := s.initCollection(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) initCollection(ctx context.Context, name string) error {
	defer s.lock(name)()

	_, exists, err := s.kv.Get(ctx, name)
	if err != nil {
		return &Error{Op: "init", Key: name, Err: err}
	}
	if exists {
		return nil
	}
	if err := s.kv.Set(ctx, name, []byte("{}")); err != nil {
		return &Error{Op: "init", Key: name, Err: err}
	}
	return nil
}

// Collection returns the raw records of a collection keyed by id.
func (s *Storage) Collection(ctx context.Context, name string) (map[string]json.RawMessage, error) {
	records := map[string]json.RawMessage{}
	found, err := s.getJSON(ctx, name, &records)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &Error{Op: "collection", Key: name, Err: ErrNotFound}
	}
	return records, nil
}

// CollectionIDs returns the sorted record ids of a collection.
func (s *Storage) CollectionIDs(ctx context.Context, name string) ([]string, error) {
	records, err := s.Collection(ctx, name)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// GetRecord decodes one record into out. It reports false when the id is absent.
func (s *Storage) GetRecord(ctx context.Context, collection, id string, out any) (bool, error) {
	records, err := s.Collection(ctx, collection)
	if err != nil {
		return false, err
	}
	raw, ok := records[id]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, &Error{Op: "decode", Key: collection + "/" + id, Err: err}
	}
	return true, nil
}

// PutRecord stores record under id, replacing any previous value.
func (s *Storage) PutRecord(ctx context.Context, collection, id string, record any) error {
	defer s.lock(collection)()

	records, err := s.Collection(ctx, collection)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return &Error{Op: "encode", Key: collection + "/" + id, Err: err}
	}
	records[id] = raw
	return s.setJSON(ctx, collection, records)
}

// CreateRecord stores record under id unless the id is already taken.
// It reports whether the record was written.
func (s *Storage) CreateRecord(ctx context.Context, collection, id string, record any) (bool, error) {
	defer s.lock(collection)()

	records, err := s.Collection(ctx, collection)
	if err != nil {
		return false, err
	}
	if _, ok := records[id]; ok {
		return false, nil
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return false, &Error{Op: "encode", Key: collection + "/" + id, Err: err}
	}
	records[id] = raw
	if err := s.setJSON(ctx, collection, records); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteRecord removes id from a collection. Missing ids are ignored.
func (s *Storage) DeleteRecord(ctx context.Context, collection, id string) error {
	defer s.lock(collection)()

	records, err := s.Collection(ctx, collection)
	if err != nil {
		return err
	}
	if _, ok := records[id]; !ok {
		return nil
	}
	delete(records, id)
	return s.setJSON(ctx, collection, records)
}

func (s *Storage) getJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, exists, err := s.kv.Get(ctx, key)
	if err != nil {
		return false, &Error{Op: "get", Key: key, Err: err}
	}
	if !exists {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, &Error{Op: "decode", Key: key, Err: err}
	}
	return true, nil
}

func (s *Storage) setJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return &Error{Op: "encode", Key: key, Err: err}
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}
	return nil
}
