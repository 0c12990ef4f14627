package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"review-service/internal/models"

	"go.uber.org/zap"
)

// RecordRepository reads caption records from per-dataset directories.
// Each record is one JSON file; the filename is the record key.
type RecordRepository struct {
	datasets  map[string]string // dataset name -> directory
	imagesDir string
	logger    *zap.Logger
}

// NewRecordRepository creates a new repository
func NewRecordRepository(datasets map[string]string, imagesDir string, logger *zap.Logger) *RecordRepository {
	return &RecordRepository{
		datasets:  datasets,
		imagesDir: imagesDir,
		logger:    logger,
	}
}

// ValidKey rejects record keys that could escape the dataset directory.
func ValidKey(key string) bool {
	if key == "" || strings.Contains(key, "..") {
		return false
	}
	if strings.ContainsAny(key, `/\`) {
		return false
	}
	return true
}

// ListRecords returns the record keys of a dataset. Order is whatever the
// filesystem reports; the session navigator sorts.
func (r *RecordRepository) ListRecords(ctx context.Context, dataset string) ([]string, error) {
	dir, ok := r.datasets[dataset]
	if !ok {
		return nil, fmt.Errorf("%w: unknown dataset %q", models.ErrListingUnavailable, dataset)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", models.ErrListingUnavailable, dir, err)
	}

	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		keys = append(keys, e.Name())
	}

	return keys, nil
}

// GetRecord loads and parses one record's content
func (r *RecordRepository) GetRecord(ctx context.Context, dataset, key string) (*models.Record, error) {
	dir, ok := r.datasets[dataset]
	if !ok {
		return nil, fmt.Errorf("%w: unknown dataset %q", models.ErrRecordNotFound, dataset)
	}

	if !ValidKey(key) {
		return nil, fmt.Errorf("%w: invalid key %q", models.ErrRecordNotFound, key)
	}

	data, err := os.ReadFile(filepath.Join(dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", models.ErrRecordNotFound, dataset, key)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", models.ErrRecordUnreadable, key, err)
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", models.ErrRecordUnreadable, key, err)
	}

	return &models.Record{
		Key:      key,
		Dataset:  dataset,
		ImageRef: imageRef(payload),
		Payload:  payload,
	}, nil
}

// ImagePath resolves an image filename inside the images directory
func (r *RecordRepository) ImagePath(name string) (string, error) {
	if !ValidKey(name) {
		return "", fmt.Errorf("%w: invalid image name %q", models.ErrRecordNotFound, name)
	}
	path := filepath.Join(r.imagesDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: image %s", models.ErrRecordNotFound, name)
	}
	return path, nil
}

// imageRef digs the image path out of the opaque payload. The record
// shape nests it under "image" -> "image_path".
func imageRef(payload map[string]any) string {
	img, ok := payload["image"].(map[string]any)
	if !ok {
		return ""
	}
	ref, _ := img["image_path"].(string)
	return ref
}
