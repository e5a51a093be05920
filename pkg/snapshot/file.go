package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/layerstack/pkg/errors"
	"github.com/matzehuels/layerstack/pkg/sample"
)

// FileStore keeps each snapshot in <dir>/<name>.json.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

type fileRecord struct {
	Info
	Document json.RawMessage `json:"document"`
}

// NewFileStore creates a file-based snapshot store.
// If baseDir is empty, defaults to ~/.config/layerstack/snapshots/.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "layerstack", "snapshots")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) snapshotPath(name string) string {
	return filepath.Join(s.baseDir, name+".json")
}

func (s *FileStore) Save(ctx context.Context, name string, st *sample.Stack) error {
	if err := errors.ValidateSnapshotName(name); err != nil {
		return err
	}
	doc, err := encode(st)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	rec := fileRecord{
		Info:     Info{Name: name, Layers: st.Len(), UpdatedAt: time.Now().UTC()},
		Document: doc,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.snapshotPath(name), data, 0600); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, name string) (*sample.Stack, error) {
	if err := errors.ValidateSnapshotName(name); err != nil {
		return nil, err
	}
	rec, err := s.read(s.snapshotPath(name))
	if os.IsNotExist(err) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, err
	}
	return decode(name, rec.Document)
}

func (s *FileStore) read(path string) (*fileRecord, error) {
	s.mu.RLock()
	data, err := os.ReadFile(path)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", filepath.Base(path), err)
	}
	return &rec, nil
}

// List skips files that cannot be parsed.
func (s *FileStore) List(ctx context.Context) ([]Info, error) {
	s.mu.RLock()
	entries, err := os.ReadDir(s.baseDir)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}

	var out []Info
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		rec, err := s.read(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		if rec.Name == "" {
			rec.Name = strings.TrimSuffix(entry.Name(), ".json")
		}
		out = append(out, rec.Info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := errors.ValidateSnapshotName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.snapshotPath(name)); err != nil {
		if os.IsNotExist(err) {
			return notFound(name)
		}
		return fmt.Errorf("remove snapshot file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for snapshot files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)
