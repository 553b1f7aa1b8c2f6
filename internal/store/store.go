package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"contentstack/internal/contextutil"
	"contentstack/internal/filelock"
	"contentstack/internal/fscache"
)

// RecordStore persists content records. Each record is one metadata
// JSON file plus one blob; there is no transaction across the pair, so
// listings tolerate and repair half-written state instead.
type RecordStore struct {
	storageDir  string
	metadataDir string
	locker      *filelock.Locker
	dirCache    *fscache.DirCache
	now         func() time.Time
}

func New(storageDir, metadataDir string, locker *filelock.Locker, dirCache *fscache.DirCache) *RecordStore {
	return &RecordStore{
		storageDir:  storageDir,
		metadataDir: metadataDir,
		locker:      locker,
		dirCache:    dirCache,
		now:         time.Now,
	}
}

// Create validates a submission, writes its blob and metadata, and
// returns the new record. Content hashing identical to an existing
// record is rejected with a ConflictError.
func (s *RecordStore) Create(ctx context.Context, input CreateInput) (*ContentRecord, error) {
	if input.Method == "" || input.Content == "" {
		return nil, fmt.Errorf("%w: method and content are required", ErrInvalidInput)
	}
	if !validMethods[input.Method] {
		return nil, fmt.Errorf("%w: unknown method %q", ErrInvalidInput, input.Method)
	}

	rec := newRecord(input, s.now())

	if existing, err := s.findByHash(ctx, rec.Content.Hash); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, &ConflictError{ExistingID: existing.ID, Hash: rec.Content.Hash}
	}

	blobPath := s.BlobPath(rec)
	if err := os.MkdirAll(filepath.Dir(blobPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if err := os.WriteFile(blobPath, []byte(input.Content), 0644); err != nil {
		return nil, fmt.Errorf("failed to write content file: %w", err)
	}

	if err := s.writeRecord(rec); err != nil {
		return nil, err
	}

	s.dirCache.Invalidate(s.metadataDir)
	s.dirCache.Invalidate(filepath.Dir(blobPath))

	contextutil.LoggerFromContext(ctx).Info("content created",
		"id", rec.ID, "type", rec.Content.Type, "words", rec.Content.WordCount)
	return rec, nil
}

// Get returns the record with the given id.
func (s *RecordStore) Get(ctx context.Context, id string) (*ContentRecord, error) {
	return s.readRecord(id)
}

// Update merges a patch into a record under the metadata file's lock
// and returns the updated record.
func (s *RecordStore) Update(ctx context.Context, id string, patch RecordPatch) (*ContentRecord, error) {
	var updated *ContentRecord
	err := s.locker.WithLock(s.metadataPath(id), func() error {
		rec, err := s.readRecord(id)
		if err != nil {
			return err
		}
		patch.apply(rec)
		rec.UpdatedAt = s.now()
		if err := s.writeRecord(rec); err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dirCache.Invalidate(s.metadataDir)
	return updated, nil
}

// Process moves a record out of the inbox: status becomes stored and
// the final path is pinned to the blob location.
func (s *RecordStore) Process(ctx context.Context, id string) (*ContentRecord, error) {
	var updated *ContentRecord
	err := s.locker.WithLock(s.metadataPath(id), func() error {
		rec, err := s.readRecord(id)
		if err != nil {
			return err
		}
		rec.Status = StatusStored
		finalPath := rec.Storage.Path
		rec.Location.FinalPath = &finalPath
		rec.UpdatedAt = s.now()
		if err := s.writeRecord(rec); err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dirCache.Invalidate(s.metadataDir)
	return updated, nil
}

// Delete removes a record's blob and metadata. A blob that is already
// gone is not an error.
func (s *RecordStore) Delete(ctx context.Context, id string) error {
	rec, err := s.readRecord(id)
	if err != nil {
		return err
	}

	blobPath := s.BlobPath(rec)
	if err := os.Remove(blobPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete content file: %w", err)
	}
	if err := os.Remove(s.metadataPath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}

	s.dirCache.Invalidate(s.metadataDir)
	s.dirCache.Invalidate(filepath.Dir(blobPath))

	contextutil.LoggerFromContext(ctx).Info("content deleted", "id", id)
	return nil
}

// List returns all records sorted by creation time, newest first.
// Corrupt metadata files are skipped; metadata whose blob is missing
// is deleted on the spot so the inbox heals itself.
func (s *RecordStore) List(ctx context.Context) ([]*ContentRecord, error) {
	logger := contextutil.LoggerFromContext(ctx)

	entries, err := s.dirCache.ReadDir(s.metadataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}

	records := make([]*ContentRecord, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir || !strings.HasSuffix(entry.Name, ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name, ".json")

		rec, err := s.readRecord(id)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				logger.Warn("skipping unreadable metadata", "id", id, "error", err)
			}
			continue
		}

		if _, err := os.Stat(s.BlobPath(rec)); errors.Is(err, fs.ErrNotExist) {
			logger.Warn("removing orphaned metadata", "id", id, "missing", rec.Storage.Path)
			if err := os.Remove(s.metadataPath(id)); err != nil {
				logger.Warn("failed to remove orphaned metadata", "id", id, "error", err)
			}
			s.dirCache.Invalidate(s.metadataDir)
			continue
		}

		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}

// Stats summarizes the record set.
type Stats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByType     map[string]int `json:"by_type"`
	TotalWords int            `json:"total_words"`
}

func (s *RecordStore) Stats(ctx context.Context) (*Stats, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		ByStatus: make(map[string]int),
		ByType:   make(map[string]int),
	}
	for _, rec := range records {
		stats.Total++
		stats.ByStatus[rec.Status]++
		stats.ByType[rec.Content.Type]++
		stats.TotalWords += rec.Content.WordCount
	}
	return stats, nil
}

func (s *RecordStore) findByHash(ctx context.Context, hash string) (*ContentRecord, error) {
	entries, err := s.dirCache.ReadDir(s.metadataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan metadata for duplicates: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir || !strings.HasSuffix(entry.Name, ".json") {
			continue
		}
		rec, err := s.readRecord(strings.TrimSuffix(entry.Name, ".json"))
		if err != nil {
			continue
		}
		if rec.Content.Hash == hash {
			return rec, nil
		}
	}
	return nil, nil
}

// BlobPath resolves a record's blob to an absolute path.
func (s *RecordStore) BlobPath(rec *ContentRecord) string {
	return filepath.Join(s.storageDir, rec.Storage.Path)
}

func (s *RecordStore) metadataPath(id string) string {
	return filepath.Join(s.metadataDir, id+".json")
}

func (s *RecordStore) readRecord(id string) (*ContentRecord, error) {
	data, err := os.ReadFile(s.metadataPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read metadata %s: %w", id, err)
	}

	var rec ContentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse metadata %s: %w", id, err)
	}
	return &rec, nil
}

func (s *RecordStore) writeRecord(rec *ContentRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata %s: %w", rec.ID, err)
	}
	if err := os.WriteFile(s.metadataPath(rec.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata %s: %w", rec.ID, err)
	}
	return nil
}
