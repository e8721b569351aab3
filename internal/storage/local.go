package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/farmaintel/price-service/internal/types"
	"github.com/rs/zerolog/log"
)

const metaSuffix = ".meta"

// LocalStorage implements Storage on the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the base directory when missing
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Put stores content at the given key with optional metadata
func (s *LocalStorage) Put(ctx context.Context, key string, content []byte, metadata *Metadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath := s.keyToPath(key)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", fullPath, err)
	}

	if metadata != nil {
		metaBytes, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		if err := os.WriteFile(fullPath+metaSuffix, metaBytes, 0o644); err != nil {
			return fmt.Errorf("failed to write metadata for %s: %w", key, err)
		}
	}

	return nil
}

// Get retrieves content from the given key
func (s *LocalStorage) Get(ctx context.Context, key string) ([]byte, error) {
	content, err := os.ReadFile(s.keyToPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return content, nil
}

// GetInfo retrieves file information and metadata without the content
func (s *LocalStorage) GetInfo(ctx context.Context, key string) (*FileInfo, error) {
	fullPath := s.keyToPath(key)

	stat, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", key, err)
	}

	checksum, err := fileChecksum(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to compute checksum: %w", err)
	}

	info := &FileInfo{
		Key:        key,
		Size:       stat.Size(),
		Checksum:   checksum,
		ModifiedAt: stat.ModTime(),
	}

	if metaBytes, err := os.ReadFile(fullPath + metaSuffix); err == nil {
		var metadata Metadata
		if err := json.Unmarshal(metaBytes, &metadata); err == nil {
			info.Metadata = &metadata
			info.ContentType = metadata.ContentType
		}
	}

	return info, nil
}

// Exists checks if a file exists at the given key
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.keyToPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return true, nil
}

// Delete removes a file and its metadata
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath := s.keyToPath(key)
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	if err := os.Remove(fullPath + metaSuffix); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("key", key).Msg("Failed to delete metadata")
	}
	return nil
}

// List returns all keys under prefix, sorted
func (s *LocalStorage) List(ctx context.Context, prefix string) ([]string, error) {
	root := s.keyToPath(prefix)
	stat, err := os.Stat(root)
	switch {
	case os.IsNotExist(err):
		root = filepath.Dir(root)
		if _, err := os.Stat(root); os.IsNotExist(err) {
			return []string{}, nil
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat %s: %w", prefix, err)
	case !stat.IsDir():
		root = filepath.Dir(root)
	}

	keys := []string{}
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info.IsDir() || strings.HasSuffix(path, metaSuffix) {
			return nil
		}
		if key := s.pathToKey(path); strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	sort.Strings(keys)
	return keys, nil
}

// BasePath returns the root directory of this storage
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

func (s *LocalStorage) keyToPath(key string) string {
	cleanKey := filepath.Clean("/" + key)
	return filepath.Join(s.basePath, strings.TrimPrefix(cleanKey, "/"))
}

func (s *LocalStorage) pathToKey(path string) string {
	relPath, err := filepath.Rel(s.basePath, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(relPath)
}

func fileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to compute hash: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// ComputeChecksum computes the SHA256 checksum of content
func ComputeChecksum(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// BuildUploadKey builds the key of an uploaded price list:
// uploads/<yyyy-mm-dd>/<run>/<supplier>/<filename>
func BuildUploadKey(supplier types.SupplierID, runID string, date time.Time, filename string) string {
	return fmt.Sprintf("uploads/%s/%s/%s/%s", date.Format("2006-01-02"), runID, supplier, filepath.Base(filename))
}

// BuildExpandedKey builds the key of a file extracted from an uploaded ZIP
func BuildExpandedKey(supplier types.SupplierID, runID string, date time.Time, parentFilename, innerFilename string) string {
	parentBase := strings.TrimSuffix(filepath.Base(parentFilename), filepath.Ext(parentFilename))
	return fmt.Sprintf("expanded/%s/%s/%s/%s/%s", date.Format("2006-01-02"), runID, supplier, parentBase, innerFilename)
}

// BuildReportKey builds the key of an exported report
func BuildReportKey(runID string, date time.Time, filename string) string {
	return fmt.Sprintf("reports/%s/%s/%s", date.Format("2006-01-02"), runID, filename)
}
