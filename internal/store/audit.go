package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"contentstack/internal/contextutil"
)

// sizeDriftTolerance is how far a blob may diverge from the recorded
// size before the audit flags it. Small drifts happen when editors
// normalize line endings.
const sizeDriftTolerance = 100

// Mismatch is one metadata/storage inconsistency.
type Mismatch struct {
	MetadataID string `json:"metadataId"`
	Issue      string `json:"issue"`
}

// AuditReport is the storage/metadata consistency report.
type AuditReport struct {
	Status              string     `json:"status"`
	TotalStorageItems   int        `json:"totalStorageItems"`
	TotalMetadataItems  int        `json:"totalMetadataItems"`
	OrphanedStorageItems []string   `json:"orphanedStorageItems"`
	MissingStorageItems []string   `json:"missingStorageItems"`
	Mismatches          []Mismatch `json:"mismatches"`
	Timestamp           time.Time  `json:"timestamp"`
}

type auditedBlob struct {
	path string
	typ  string
	size int64
}

// Audit cross-checks every storage file against every metadata record:
// blobs without a record, records without a blob, and size or type
// disagreements between the two.
func (s *RecordStore) Audit(ctx context.Context) (*AuditReport, error) {
	logger := contextutil.LoggerFromContext(ctx)

	blobs := make(map[string]auditedBlob)
	err := filepath.WalkDir(s.storageDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(s.storageDir, path)
		if err != nil {
			return nil
		}
		key := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		blobs[key] = auditedBlob{
			path: path,
			typ:  filepath.Dir(rel),
			size: info.Size(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	records := make(map[string]*ContentRecord)
	entries, err := os.ReadDir(s.metadataDir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.metadataDir, entry.Name()))
		if err != nil {
			continue
		}
		var rec ContentRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			logger.Warn("audit skipping corrupt metadata", "file", entry.Name(), "error", err)
			continue
		}
		if rec.ID != "" {
			records[rec.ID] = &rec
		}
	}

	report := &AuditReport{
		TotalStorageItems:   len(blobs),
		TotalMetadataItems:  len(records),
		OrphanedStorageItems: []string{},
		MissingStorageItems: []string{},
		Mismatches:          []Mismatch{},
		Timestamp:           s.now(),
	}

	for key, blob := range blobs {
		if _, ok := records[key]; !ok {
			report.OrphanedStorageItems = append(report.OrphanedStorageItems, blob.path)
		}
	}

	for id, rec := range records {
		blob, ok := blobs[id]
		if !ok {
			report.MissingStorageItems = append(report.MissingStorageItems, id)
			continue
		}
		if rec.Content.Size > 0 && abs64(rec.Content.Size-blob.size) > sizeDriftTolerance {
			report.Mismatches = append(report.Mismatches, Mismatch{
				MetadataID: id,
				Issue:      fmt.Sprintf("size mismatch: metadata=%d, storage=%d", rec.Content.Size, blob.size),
			})
		}
		if rec.Content.Type != "" && rec.Content.Type != blob.typ {
			report.Mismatches = append(report.Mismatches, Mismatch{
				MetadataID: id,
				Issue:      fmt.Sprintf("type mismatch: metadata=%s, storage=%s", rec.Content.Type, blob.typ),
			})
		}
	}

	sort.Strings(report.OrphanedStorageItems)
	sort.Strings(report.MissingStorageItems)

	report.Status = "healthy"
	if len(report.OrphanedStorageItems) > 0 || len(report.MissingStorageItems) > 0 || len(report.Mismatches) > 0 {
		report.Status = "inconsistent"
	}

	logger.Info("storage audit complete",
		"status", report.Status,
		"orphaned", len(report.OrphanedStorageItems),
		"missing", len(report.MissingStorageItems),
		"mismatches", len(report.Mismatches))
	return report, nil
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
