package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"contentstack/internal/contextutil"
)

// BlobInfo describes one file in a storage type directory.
type BlobInfo struct {
	Name     string         `json:"name"`
	Size     int64          `json:"size"`
	Modified time.Time      `json:"modified"`
	Type     string         `json:"type,omitempty"`
	Path     string         `json:"path,omitempty"`
	Metadata *ContentRecord `json:"metadata,omitempty"`
}

// TypeStats is the per-type storage summary.
type TypeStats struct {
	Count int   `json:"count"`
	Size  int64 `json:"size"`
}

// StorageStats sums file counts and sizes per storage type directory.
// Missing directories count as empty.
func (s *RecordStore) StorageStats(ctx context.Context) (map[string]TypeStats, error) {
	typeDirs, err := os.ReadDir(s.storageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage root: %w", err)
	}

	stats := make(map[string]TypeStats)
	for _, typeDir := range typeDirs {
		if !typeDir.IsDir() {
			continue
		}
		blobs, err := s.ListBlobs(ctx, typeDir.Name())
		if err != nil {
			continue
		}
		ts := TypeStats{Count: len(blobs)}
		for _, b := range blobs {
			ts.Size += b.Size
		}
		stats[typeDir.Name()] = ts
	}
	return stats, nil
}

// ListBlobs lists the files of one storage type. Hidden files are
// skipped.
func (s *RecordStore) ListBlobs(ctx context.Context, contentType string) ([]BlobInfo, error) {
	if strings.ContainsAny(contentType, "/\\.") {
		return nil, fmt.Errorf("%w: invalid storage type %q", ErrInvalidInput, contentType)
	}

	dirPath := filepath.Join(s.storageDir, contentType)
	entries, err := s.dirCache.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage type %s: %w", contentType, err)
	}

	blobs := make([]BlobInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir || strings.HasPrefix(entry.Name, ".") {
			continue
		}
		info, err := os.Stat(filepath.Join(dirPath, entry.Name))
		if err != nil {
			continue
		}
		blobs = append(blobs, BlobInfo{
			Name:     entry.Name,
			Size:     info.Size(),
			Modified: info.ModTime(),
			Type:     contentType,
			Path:     filepath.Join(contentType, entry.Name),
		})
	}
	return blobs, nil
}

// AllBlobs returns every storage file grouped by type, each joined
// with its metadata record when one exists.
func (s *RecordStore) AllBlobs(ctx context.Context) (map[string][]BlobInfo, error) {
	logger := contextutil.LoggerFromContext(ctx)

	typeDirs, err := os.ReadDir(s.storageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage root: %w", err)
	}

	all := make(map[string][]BlobInfo)
	for _, typeDir := range typeDirs {
		if !typeDir.IsDir() {
			continue
		}
		blobs, err := s.ListBlobs(ctx, typeDir.Name())
		if err != nil {
			logger.Warn("skipping unreadable storage directory", "type", typeDir.Name(), "error", err)
			continue
		}
		for i := range blobs {
			id := strings.TrimSuffix(blobs[i].Name, filepath.Ext(blobs[i].Name))
			if rec, err := s.readRecord(id); err == nil {
				blobs[i].Metadata = rec
			}
		}
		if len(blobs) > 0 {
			all[typeDir.Name()] = blobs
		}
	}
	return all, nil
}
