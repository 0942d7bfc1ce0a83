package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/cwbudde/gradientgen/internal/imageio"
)

// FSStore implements the Store interface on the filesystem.
// Images are stored in a directory structure: <baseDir>/images/<id>/
//
// Thread-safety: every write goes through a temp file and a rename, and
// records are immutable once saved, so no locks are needed.
type FSStore struct {
	baseDir string // Root directory for all data (e.g., "./data")
}

// NewFSStore creates a new filesystem-based store.
// The baseDir will be created if it doesn't exist.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSStore{
		baseDir: baseDir,
	}, nil
}

// BaseDir returns the root directory of the store.
func (fs *FSStore) BaseDir() string {
	return fs.baseDir
}

func (fs *FSStore) imageDir(id string) string {
	return filepath.Join(fs.baseDir, "images", id)
}

func (fs *FSStore) recordPath(id string) string {
	return filepath.Join(fs.imageDir(id), "record.json")
}

func (fs *FSStore) imageFile(id string, f imageio.Format) string {
	return filepath.Join(fs.imageDir(id), "image"+f.Extension())
}

// SaveImage encodes img and writes the record next to it.
func (fs *FSStore) SaveImage(record *Record, img image.Image) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if img == nil {
		return fmt.Errorf("image cannot be nil")
	}
	if err := record.Validate(); err != nil {
		return err
	}

	dir := fs.imageDir(record.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}

	if err := imageio.WriteFile(fs.imageFile(record.ID, record.ImageFormat()), img, record.ImageFormat()); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	// Write to temporary file first (atomic pattern)
	tempPath := fs.recordPath(record.ID) + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp record file: %w", err)
	}

	finalPath := fs.recordPath(record.ID)
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename record file: %w", err)
	}

	slog.Debug("Image saved", "id", record.ID, "algorithm", record.Algorithm, "path", dir)
	return nil
}

// LoadRecord retrieves the record for the given ID.
func (fs *FSStore) LoadRecord(id string) (*Record, error) {
	if id == "" {
		return nil, fmt.Errorf("id cannot be empty")
	}

	path := fs.recordPath(id)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &NotFoundError{ID: id}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to deserialize record: %w", err)
	}
	if err := compactPlan(&record); err != nil {
		return nil, err
	}

	return &record, nil
}

// ListRecords returns every readable record, newest first.
func (fs *FSStore) ListRecords() ([]Record, error) {
	imagesDir := filepath.Join(fs.baseDir, "images")

	entries, err := os.ReadDir(imagesDir)
	if os.IsNotExist(err) {
		return []Record{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read images directory: %w", err)
	}

	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		record, err := fs.LoadRecord(entry.Name())
		if err != nil {
			// Directories without a record are interrupted saves
			slog.Warn("Skipping unreadable record", "id", entry.Name(), "error", err)
			continue
		}
		records = append(records, *record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	slog.Debug("Listed records", "count", len(records))
	return records, nil
}

// DeleteImage removes the image directory and everything in it.
func (fs *FSStore) DeleteImage(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}

	dir := fs.imageDir(id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return &NotFoundError{ID: id}
	} else if err != nil {
		return fmt.Errorf("failed to stat image directory: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove image directory: %w", err)
	}

	slog.Debug("Image deleted", "id", id, "path", dir)
	return nil
}

// ImagePath returns where the encoded image for id lives.
func (fs *FSStore) ImagePath(id string) (string, error) {
	record, err := fs.LoadRecord(id)
	if err != nil {
		return "", err
	}
	return fs.imageFile(id, record.ImageFormat()), nil
}

// compactPlan undoes the indentation record.json applies to the embedded plan,
// so a loaded plan has the same bytes NewRecord produced.
func compactPlan(record *Record) error {
	if len(record.Plan) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, record.Plan); err != nil {
		return fmt.Errorf("failed to compact plan: %w", err)
	}
	record.Plan = buf.Bytes()
	return nil
}
