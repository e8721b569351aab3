// Package zip expands price lists uploaded as ZIP archives.
package zip

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/farmaintel/price-service/internal/storage"
	"github.com/farmaintel/price-service/internal/types"
	"github.com/rs/zerolog/log"
)

// ErrNoPriceList is returned when an archive holds no CSV or XLSX file
var ErrNoPriceList = errors.New("archive contains no price list")

// ExpandOptions contains options for ZIP expansion
type ExpandOptions struct {
	// MaxFileSize is the maximum size for a single file in bytes (0 = unlimited)
	MaxFileSize int64
	// MaxTotalSize is the maximum total size for all extracted files (0 = unlimited)
	MaxTotalSize int64
	// MaxFiles is the maximum number of files to extract (0 = unlimited)
	MaxFiles          int
	AllowedExtensions []string
	SkipPatterns      []string
}

// DefaultExpandOptions returns default options for ZIP expansion
func DefaultExpandOptions() ExpandOptions {
	return ExpandOptions{
		MaxFileSize:       50 * 1024 * 1024,
		MaxTotalSize:      200 * 1024 * 1024,
		MaxFiles:          50,
		AllowedExtensions: []string{".csv", ".xlsx"},
		SkipPatterns: []string{
			"__MACOSX",
			".DS_Store",
			"Thumbs.db",
			"desktop.ini",
			"~$",
		},
	}
}

// ExpandedFile is a file extracted from a ZIP archive
type ExpandedFile struct {
	InnerFilename string
	Type          types.FileType
	Content       []byte
	Hash          string
}

// Expander handles ZIP file expansion. The storage is optional; without it
// ExpandAndStore behaves like Expand.
type Expander struct {
	storage storage.Storage
	options ExpandOptions
}

// NewExpander creates a new ZIP expander
func NewExpander(store storage.Storage, options ExpandOptions) *Expander {
	return &Expander{
		storage: store,
		options: options,
	}
}

// IsZip reports whether filename or content looks like a ZIP archive.
// XLSX workbooks are ZIP containers too, so the extension wins when present.
func IsZip(filename string, content []byte) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".zip":
		return true
	case ".xlsx", ".csv":
		return false
	}
	return bytes.HasPrefix(content, []byte("PK\x03\x04")) && !isWorkbook(content)
}

func isWorkbook(content []byte) bool {
	return bytes.Contains(content[:min(len(content), 4096)], []byte("[Content_Types].xml"))
}

// Expand extracts the allowed files held in content
func (e *Expander) Expand(ctx context.Context, content []byte, parentFilename string) ([]ExpandedFile, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open ZIP %s: %w", parentFilename, err)
	}

	var expanded []ExpandedFile
	var totalSize int64

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if file.FileInfo().IsDir() {
			continue
		}

		safeName, err := sanitizeFilename(file.Name)
		if err != nil {
			log.Warn().Str("zip", parentFilename).Str("entry", file.Name).Err(err).Msg("Skipping ZIP entry")
			continue
		}
		if e.shouldSkip(file.Name) || !e.isAllowedExtension(safeName) {
			continue
		}

		if e.options.MaxFiles > 0 && len(expanded) >= e.options.MaxFiles {
			return nil, fmt.Errorf("too many files in archive (limit: %d)", e.options.MaxFiles)
		}
		if e.options.MaxFileSize > 0 && int64(file.UncompressedSize64) > e.options.MaxFileSize {
			return nil, fmt.Errorf("file %s exceeds maximum size (%d > %d)",
				safeName, file.UncompressedSize64, e.options.MaxFileSize)
		}

		data, err := e.readFileWithLimit(file, safeName)
		if err != nil {
			return nil, err
		}

		totalSize += int64(len(data))
		if e.options.MaxTotalSize > 0 && totalSize > e.options.MaxTotalSize {
			return nil, fmt.Errorf("total extracted size exceeds maximum (%d > %d)",
				totalSize, e.options.MaxTotalSize)
		}

		expanded = append(expanded, ExpandedFile{
			InnerFilename: safeName,
			Type:          DetectFileType(safeName),
			Content:       data,
			Hash:          storage.ComputeChecksum(data),
		})
	}

	log.Debug().Str("zip", parentFilename).Int("files", len(expanded)).Msg("Expanded archive")
	return expanded, nil
}

// readFileWithLimit enforces MaxFileSize on the bytes actually read, not just
// the size declared in the archive
func (e *Expander) readFileWithLimit(file *zip.File, safeName string) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s in ZIP: %w", safeName, err)
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil {
			log.Warn().Str("entry", safeName).Err(closeErr).Msg("Failed to close ZIP entry")
		}
	}()

	var reader io.Reader = rc
	if e.options.MaxFileSize > 0 {
		reader = io.LimitReader(rc, e.options.MaxFileSize+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from ZIP: %w", safeName, err)
	}
	if e.options.MaxFileSize > 0 && int64(len(data)) > e.options.MaxFileSize {
		return nil, fmt.Errorf("file %s exceeds maximum size (%d bytes)", safeName, e.options.MaxFileSize)
	}
	return data, nil
}

// ExpandAndStore expands content and archives every extracted file under
// the run's expanded prefix
func (e *Expander) ExpandAndStore(
	ctx context.Context,
	content []byte,
	supplier types.SupplierID,
	runID string,
	date time.Time,
	parentFilename string,
) ([]ExpandedFile, error) {
	expanded, err := e.Expand(ctx, content, parentFilename)
	if err != nil {
		return nil, err
	}
	if e.storage == nil {
		return expanded, nil
	}

	for _, file := range expanded {
		key := storage.BuildExpandedKey(supplier, runID, date, parentFilename, file.InnerFilename)
		metadata := &storage.Metadata{
			ContentType:  DetectContentType(file.InnerFilename),
			OriginalName: file.InnerFilename,
			Supplier:     supplier,
			RunID:        runID,
			ReceivedAt:   date,
			Custom:       map[string]string{"parentZip": parentFilename},
		}
		if err := e.storage.Put(ctx, key, file.Content, metadata); err != nil {
			return nil, fmt.Errorf("failed to store expanded file %s: %w", file.InnerFilename, err)
		}
	}

	return expanded, nil
}

// PickPriceList chooses the file to parse out of an expanded archive:
// the first file of the preferred type, else the first file at all
func PickPriceList(files []ExpandedFile, preferred types.FileType) (*ExpandedFile, error) {
	if len(files) == 0 {
		return nil, ErrNoPriceList
	}
	for i := range files {
		if files[i].Type == preferred {
			return &files[i], nil
		}
	}
	return &files[0], nil
}

// sanitizeFilename rejects paths that could escape the extraction root and
// flattens the rest to their base name
func sanitizeFilename(filename string) (string, error) {
	if path.IsAbs(filename) || filepath.IsAbs(filename) {
		return "", fmt.Errorf("absolute path not allowed: %s", filename)
	}
	if len(filename) >= 2 && filename[1] == ':' {
		return "", fmt.Errorf("drive letter not allowed: %s", filename)
	}

	filename = strings.ReplaceAll(filename, "\\", "/")
	cleaned := path.Clean(filename)
	if strings.HasPrefix(cleaned, "..") || strings.HasPrefix(cleaned, "/") {
		return "", fmt.Errorf("path traversal not allowed: %s", filename)
	}
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." {
			return "", fmt.Errorf("path traversal not allowed: %s", filename)
		}
	}

	baseName := path.Base(cleaned)
	if baseName == "." || baseName == "/" || baseName == "" {
		return "", fmt.Errorf("invalid filename: %s", filename)
	}
	return baseName, nil
}

func (e *Expander) shouldSkip(filename string) bool {
	for _, pattern := range e.options.SkipPatterns {
		if strings.Contains(filename, pattern) {
			return true
		}
	}
	return false
}

func (e *Expander) isAllowedExtension(filename string) bool {
	if len(e.options.AllowedExtensions) == 0 {
		return true
	}
	ext := filepath.Ext(filename)
	for _, allowed := range e.options.AllowedExtensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

// DetectFileType maps a filename extension to a file type; unknown
// extensions are treated as CSV
func DetectFileType(filename string) types.FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		return types.FileTypeXLSX
	case ".zip":
		return types.FileTypeZIP
	default:
		return types.FileTypeCSV
	}
}

// DetectContentType returns the MIME type for a filename
func DetectContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

// ExpandInMemory expands content with the default options and no storage
func ExpandInMemory(ctx context.Context, content []byte, parentFilename string) ([]ExpandedFile, error) {
	return NewExpander(nil, DefaultExpandOptions()).Expand(ctx, content, parentFilename)
}
