// Package datastore is a JSON file backed key-value store. Values live in memory
// and are flushed to disk periodically and on Close, using atomic renames and a
// rotating set of backups.
package datastore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("datastore is closed")

// ErrMemoryLimit is returned by Set when the write would exceed MaxMemorySize.
var ErrMemoryLimit = errors.New("datastore memory limit exceeded")

// Config holds configuration options for the DataStore
type Config struct {
	FilePath         string
	AutoSaveInterval time.Duration // 0 disables the background saver
	MaxMemorySize    int64         // bytes, 0 = unlimited
	BackupCount      int
	Logger           zerolog.Logger
}

// DefaultConfig returns a default configuration
func DefaultConfig(filePath string) *Config {
	return &Config{
		FilePath:         filePath,
		AutoSaveInterval: 10 * time.Second,
		MaxMemorySize:    100 * 1024 * 1024,
		BackupCount:      3,
		Logger:           log.With().Str("component", "datastore").Logger(),
	}
}

type DataStore struct {
	mu           sync.RWMutex
	data         map[string]any
	file         string
	config       *Config
	memorySize   int64
	lastChecksum string

	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeMu sync.RWMutex
	closed  bool
}

// New creates a new DataStore with default configuration
func New(filePath string) (*DataStore, error) {
	return NewWithConfig(DefaultConfig(filePath))
}

// NewWithConfig opens or creates the backing file and starts the auto-saver.
func NewWithConfig(config *Config) (*DataStore, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if config.FilePath == "" {
		return nil, errors.New("file path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	ds := &DataStore{
		data:   make(map[string]any),
		file:   config.FilePath,
		config: config,
	}

	_, err := os.Stat(config.FilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := ds.writeFileAtomic([]byte("{}")); err != nil {
			return nil, fmt.Errorf("failed to create empty JSON file: %w", err)
		}
	case err == nil:
		if err := ds.loadFromFile(); err != nil {
			return nil, fmt.Errorf("failed to load data from file: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to check file existence: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ds.cancel = cancel
	if config.AutoSaveInterval > 0 {
		ds.wg.Add(1)
		go ds.autoSave(ctx)
	}

	return ds, nil
}

// Set stores a key-value pair
func (ds *DataStore) Set(key string, value any) error {
	if ds.isClosed() {
		return ErrClosed
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.config.MaxMemorySize > 0 {
		next := ds.memorySize - estimateSize(ds.data[key]) + estimateSize(value)
		if next > ds.config.MaxMemorySize {
			return ErrMemoryLimit
		}
		ds.memorySize = next
	}

	ds.data[key] = value
	return nil
}

// Get retrieves a value by key
func (ds *DataStore) Get(key string) (any, bool) {
	if ds.isClosed() {
		return nil, false
	}

	ds.mu.RLock()
	defer ds.mu.RUnlock()
	value, exists := ds.data[key]
	return value, exists
}

// Delete removes a key-value pair
func (ds *DataStore) Delete(key string) {
	if ds.isClosed() {
		return
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	if value, exists := ds.data[key]; exists {
		ds.memorySize -= estimateSize(value)
		delete(ds.data, key)
	}
}

// SaveToFile forces an immediate save to disk
func (ds *DataStore) SaveToFile() error {
	if ds.isClosed() {
		return ErrClosed
	}
	return ds.saveToFile()
}

// Close stops the auto-saver and performs a final save.
func (ds *DataStore) Close() error {
	ds.closeMu.Lock()
	if ds.closed {
		ds.closeMu.Unlock()
		return nil
	}
	ds.closed = true
	ds.closeMu.Unlock()

	ds.cancel()
	ds.wg.Wait()

	return ds.saveToFile()
}

// Stats returns statistics about the DataStore
func (ds *DataStore) Stats() map[string]any {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	return map[string]any{
		"keys":        len(ds.data),
		"memory_size": ds.memorySize,
		"file_path":   ds.file,
		"last_save":   ds.lastChecksum != "",
	}
}

func (ds *DataStore) isClosed() bool {
	ds.closeMu.RLock()
	defer ds.closeMu.RUnlock()
	return ds.closed
}

func (ds *DataStore) saveToFile() error {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	data, err := json.MarshalIndent(ds.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	checksum := checksumOf(data)
	if checksum == ds.lastChecksum {
		return nil
	}

	if ds.config.BackupCount > 0 {
		if err := ds.createBackup(); err != nil {
			ds.config.Logger.Warn().Err(err).Msg("failed to create backup")
		}
	}

	if err := ds.writeFileAtomic(data); err != nil {
		return err
	}

	actual, err := os.ReadFile(ds.file)
	if err != nil {
		return fmt.Errorf("failed to read file for verification: %w", err)
	}
	if checksumOf(actual) != checksum {
		return errors.New("file checksum mismatch")
	}

	ds.lastChecksum = checksum
	return nil
}

func (ds *DataStore) loadFromFile() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	data, err := os.ReadFile(ds.file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var temp map[string]any
	if err := json.Unmarshal(data, &temp); err != nil {
		return fmt.Errorf("invalid JSON format: %w", err)
	}
	if temp == nil {
		temp = make(map[string]any)
	}

	ds.data = temp
	ds.memorySize = 0
	for _, v := range temp {
		ds.memorySize += estimateSize(v)
	}
	ds.lastChecksum = checksumOf(data)
	return nil
}

// writeFileAtomic writes to a temp file, syncs it and renames it over the target.
func (ds *DataStore) writeFileAtomic(data []byte) error {
	tmpFile := ds.file + ".tmp"

	f, err := os.OpenFile(tmpFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpFile)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpFile)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	f.Close()

	if err := os.Rename(tmpFile, ds.file); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func (ds *DataStore) createBackup() error {
	src, err := os.Open(ds.file)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer src.Close()

	backupFile := fmt.Sprintf("%s.backup.%s", ds.file, time.Now().Format("20060102_150405.000000"))
	dst, err := os.Create(backupFile)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}

	ds.cleanupOldBackups()
	return nil
}

// cleanupOldBackups keeps the newest BackupCount backups.
func (ds *DataStore) cleanupOldBackups() {
	matches, err := filepath.Glob(ds.file + ".backup.*")
	if err != nil || len(matches) <= ds.config.BackupCount {
		return
	}

	// Backup names embed a sortable timestamp.
	sort.Strings(matches)
	for _, path := range matches[:len(matches)-ds.config.BackupCount] {
		os.Remove(path)
	}
}

func (ds *DataStore) autoSave(ctx context.Context) {
	defer ds.wg.Done()

	ticker := time.NewTicker(ds.config.AutoSaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ds.saveToFile(); err != nil {
				ds.config.Logger.Error().Err(err).Msg("auto-save failed")
			}
		}
	}
}

func checksumOf(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// estimateSize approximates a value's footprint by its JSON length.
func estimateSize(value any) int64 {
	if value == nil {
		return 0
	}
	data, err := json.Marshal(value)
	if err != nil {
		return 0
	}
	return int64(len(data))
}
