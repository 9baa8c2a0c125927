package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oromiahinlala/tourism-backend/internal/model"
	"github.com/oromiahinlala/tourism-backend/internal/repository"
)

// ErrImageNotFound is returned when an image id does not exist.
var ErrImageNotFound = errors.New("image not found")

// ImageService is the image store: file bytes go to a FileStore, the
// metadata row to ImageRecords.
type ImageService struct {
	records ImageRecords
	files   FileStore
	log     *zap.Logger
}

func NewImageService(records ImageRecords, files FileStore, log *zap.Logger) *ImageService {
	return &ImageService{records: records, files: files, log: log}
}

// Save writes the file under a fresh random key and records it. If the
// metadata insert fails the file is removed again.
func (s *ImageService) Save(ctx context.Context, up *model.Upload) (*model.Image, error) {
	key := uuid.NewString() + strings.ToLower(filepath.Ext(up.Filename))
	url, err := s.files.Put(ctx, key, up.Data)
	if err != nil {
		return nil, fmt.Errorf("store image file: %w", err)
	}
	img := &model.Image{ImageID: key, ImageURL: url}
	if err := s.records.Create(ctx, img); err != nil {
		if rmErr := s.files.Remove(ctx, key); rmErr != nil {
			s.log.Warn("remove orphaned image file", zap.String("key", key), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("record image: %w", err)
	}
	return img, nil
}

// Get returns the image metadata.
func (s *ImageService) Get(ctx context.Context, id uint64) (*model.Image, error) {
	img, err := s.records.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrImageNotFound
	}
	return img, err
}

// Delete removes the metadata row and then the file. A file that cannot be
// removed is logged; the row is already gone at that point.
func (s *ImageService) Delete(ctx context.Context, id uint64) error {
	img, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.records.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrImageNotFound
		}
		return fmt.Errorf("delete image row: %w", err)
	}
	if err := s.files.Remove(ctx, img.ImageID); err != nil {
		s.log.Warn("remove image file", zap.String("key", img.ImageID), zap.Error(err))
	}
	return nil
}
