package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage areas
const (
	DirTenantDocuments = "tenants/documents"
	DirTenantPhotos    = "tenants/photos"
	DirExpenseBills    = "expenses/bills"
	DirInvoices        = "invoices"
)

// ErrInvalidUpload is returned for rejected files
var ErrInvalidUpload = errors.New("invalid upload")

// LocalStorage keeps uploaded files under one base directory
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the base directory when missing
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Validate checks the declared content type and size of an upload
func Validate(header *multipart.FileHeader) error {
	if header == nil {
		return fmt.Errorf("%w: no file", ErrInvalidUpload)
	}
	if header.Size > MaxFileSize() {
		return fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidUpload, MaxFileSize())
	}
	contentType := header.Header.Get("Content-Type")
	if contentType != "" && !IsValidContentType(contentType) {
		return fmt.Errorf("%w: content type %s not allowed", ErrInvalidUpload, contentType)
	}
	return nil
}

// Upload saves a multipart file and returns its relative path
func (s *LocalStorage) Upload(file multipart.File, header *multipart.FileHeader, subDir string) (string, error) {
	if err := Validate(header); err != nil {
		return "", err
	}
	return s.save(file, filepath.Ext(header.Filename), subDir)
}

// UploadFromBytes saves data under a generated name keeping the extension of filename
func (s *LocalStorage) UploadFromBytes(data []byte, filename string, subDir string) (string, error) {
	dir, err := s.monthDir(subDir)
	if err != nil {
		return "", err
	}
	filePath := filepath.Join(dir, uuid.NewString()+strings.ToLower(filepath.Ext(filename)))
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return s.relative(filePath), nil
}

func (s *LocalStorage) save(r io.Reader, ext, subDir string) (string, error) {
	dir, err := s.monthDir(subDir)
	if err != nil {
		return "", err
	}
	filePath := filepath.Join(dir, uuid.NewString()+strings.ToLower(ext))

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return s.relative(filePath), nil
}

// monthDir returns subDir/YYYY/MM under the base path, creating it
func (s *LocalStorage) monthDir(subDir string) (string, error) {
	dir := filepath.Join(s.basePath, subDir, time.Now().UTC().Format("2006/01"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	return dir, nil
}

func (s *LocalStorage) relative(full string) string {
	rel, err := filepath.Rel(s.basePath, full)
	if err != nil {
		return full
	}
	return filepath.ToSlash(rel)
}

// Download opens a stored file
func (s *LocalStorage) Download(relativePath string) (*os.File, error) {
	return os.Open(s.GetFullPath(relativePath))
}

// Delete removes a stored file
func (s *LocalStorage) Delete(relativePath string) error {
	return os.Remove(s.GetFullPath(relativePath))
}

// Exists checks if a stored file exists
func (s *LocalStorage) Exists(relativePath string) bool {
	_, err := os.Stat(s.GetFullPath(relativePath))
	return err == nil
}

// GetFullPath resolves a relative path inside the base directory
func (s *LocalStorage) GetFullPath(relativePath string) string {
	clean := filepath.Clean("/" + filepath.FromSlash(relativePath))
	return filepath.Join(s.basePath, clean)
}

// ValidContentTypes returns allowed MIME types for uploads
func ValidContentTypes() map[string]bool {
	return map[string]bool{
		"application/pdf": true,
		"image/jpeg":      true,
		"image/jpg":       true,
		"image/png":       true,
	}
}

// MaxFileSize returns the maximum allowed file size (10MB)
func MaxFileSize() int64 {
	return 10 * 1024 * 1024
}

// IsValidContentType checks if the content type is allowed
func IsValidContentType(contentType string) bool {
	return ValidContentTypes()[contentType]
}
