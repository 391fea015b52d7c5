package services

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sjperalta/rentdesk-api/internal/storage"
)

const thumbnailSize = 256

// ImageService stores photos together with a square thumbnail
type ImageService struct {
	storage *storage.LocalStorage
}

func NewImageService(store *storage.LocalStorage) *ImageService {
	return &ImageService{storage: store}
}

// SavePhoto keeps the original upload and a thumbnail, returning both relative paths
func (s *ImageService) SavePhoto(r io.Reader, filename, subDir string) (originalPath, thumbnailPath string, err error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return "", "", validationf("unsupported image format (JPG/PNG only)")
	}

	data, err := io.ReadAll(io.LimitReader(r, storage.MaxFileSize()+1))
	if err != nil {
		return "", "", fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > storage.MaxFileSize() {
		return "", "", validationf("image exceeds %d bytes", storage.MaxFileSize())
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", "", validationf("cannot decode image: %v", err)
	}

	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return "", "", err
	}
	thumb := imaging.Fill(img, thumbnailSize, thumbnailSize, imaging.Center, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, format, imaging.JPEGQuality(85)); err != nil {
		return "", "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	if originalPath, err = s.storage.UploadFromBytes(data, filename, subDir); err != nil {
		return "", "", err
	}
	if thumbnailPath, err = s.storage.UploadFromBytes(buf.Bytes(), filename, subDir+"/thumbs"); err != nil {
		_ = s.storage.Delete(originalPath)
		return "", "", err
	}
	return originalPath, thumbnailPath, nil
}
