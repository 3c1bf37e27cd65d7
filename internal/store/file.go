package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bookowl/bookowl/internal/model"
)

// FileStore persists chunks as JSON lines on disk while serving queries
// from an in-memory index. Writes append to the file under a lock; reads
// go to the memory store only.
type FileStore struct {
	mem  *MemoryStore
	path string
	wmu  sync.Mutex
}

// OpenFileStore loads an existing index file (if any) into memory and
// returns a repository that appends every new chunk to the file.
func OpenFileStore(path string, dimension int) (*FileStore, error) {
	s := &FileStore{
		mem:  NewMemoryStore(dimension),
		path: path,
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		var chunk model.Chunk
		if err := json.Unmarshal(scanner.Bytes(), &chunk); err != nil {
			return nil, fmt.Errorf("index %s line %d: %w", path, line, err)
		}
		if err := s.mem.Put(context.Background(), chunk); err != nil {
			return nil, fmt.Errorf("index %s line %d: %w", path, line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read index %s: %w", path, err)
	}

	return s, nil
}

// Put stores the chunk in memory and appends it to the index file
func (s *FileStore) Put(ctx context.Context, chunk model.Chunk) error {
	if err := s.mem.Put(ctx, chunk); err != nil {
		return err
	}

	data, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("encode chunk: %w", err)
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create index dir: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open index for append: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append chunk: %w", err)
	}
	return nil
}

// QuerySimilar delegates to the in-memory index
func (s *FileStore) QuerySimilar(ctx context.Context, bookTitle string, embedding []float64, topK int) ([]model.SearchResult, error) {
	return s.mem.QuerySimilar(ctx, bookTitle, embedding, topK)
}

// Books delegates to the in-memory index
func (s *FileStore) Books(ctx context.Context) ([]string, error) {
	return s.mem.Books(ctx)
}

// Count delegates to the in-memory index
func (s *FileStore) Count(ctx context.Context, bookTitle string) (int, error) {
	return s.mem.Count(ctx, bookTitle)
}
