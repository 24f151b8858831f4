package services

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/skilltrade/backend/internal/models"
)

var (
	ErrImageNotFound = errors.New("image not found")
	ErrInvalidImage  = errors.New("invalid image file")
	ErrNotImageOwner = errors.New("image belongs to another session")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageService stores uploaded post media on disk under uploadDir and
// remembers which session uploaded each file.
type ImageService struct {
	mu        sync.RWMutex
	uploadDir string
	images    map[string]*imageRecord // imageID -> image info
}

type imageRecord struct {
	ID        string
	Filename  string
	Path      string
	SessionID string
}

func NewImageService(uploadDir string) (*ImageService, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &ImageService{
		uploadDir: uploadDir,
		images:    make(map[string]*imageRecord),
	}, nil
}

// Upload sniffs the file's content type, rejects anything that is not an
// image and writes it under a fresh id.
func (s *ImageService) Upload(sessionID string, file io.Reader) (*models.ImageUploadResponse, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return nil, ErrInvalidImage
		}
		return nil, err
	}
	head = head[:n]

	ext, ok := imageExtensions[http.DetectContentType(head)]
	if !ok {
		return nil, ErrInvalidImage
	}

	imageID := uuid.New().String()
	newFilename := imageID + ext
	filePath := filepath.Join(s.uploadDir, newFilename)

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.MultiReader(bytes.NewReader(head), file)); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	s.mu.Lock()
	s.images[imageID] = &imageRecord{
		ID:        imageID,
		Filename:  newFilename,
		Path:      filePath,
		SessionID: sessionID,
	}
	s.mu.Unlock()

	log.Debug().Str("image_id", imageID).Str("session_id", sessionID).Msg("image uploaded")

	return &models.ImageUploadResponse{
		ID:       imageID,
		URL:      "/uploads/" + newFilename,
		Filename: newFilename,
	}, nil
}

// Delete removes an image uploaded by the same session.
func (s *ImageService) Delete(sessionID, imageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.images[imageID]
	if !exists {
		return ErrImageNotFound
	}
	if record.SessionID != sessionID {
		return ErrNotImageOwner
	}

	if err := os.Remove(record.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	delete(s.images, imageID)
	return nil
}

// DataURL reads an image into a base64 data URL so it can live inside the
// stored profile. Readers longer than maxBytes are rejected.
func DataURL(file io.Reader, maxBytes int64) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return "", err
	}
	if len(raw) == 0 || int64(len(raw)) > maxBytes {
		return "", ErrInvalidImage
	}
	contentType := http.DetectContentType(raw)
	if _, ok := imageExtensions[contentType]; !ok {
		return "", ErrInvalidImage
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}
