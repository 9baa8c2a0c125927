package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oromiahinlala/tourism-backend/internal/model"
	"github.com/oromiahinlala/tourism-backend/internal/repository"
	"github.com/oromiahinlala/tourism-backend/internal/storage"
)

type memImageRecords struct {
	mu        sync.Mutex
	nextID    uint64
	rows      map[uint64]model.Image
	createErr error
}

func (m *memImageRecords) Create(_ context.Context, img *model.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if m.rows == nil {
		m.rows = map[uint64]model.Image{}
	}
	m.nextID++
	img.ID = m.nextID
	m.rows[img.ID] = *img
	return nil
}

func (m *memImageRecords) GetByID(_ context.Context, id uint64) (*model.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &img, nil
}

func (m *memImageRecords) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func newImageService(t *testing.T) (*ImageService, *memImageRecords, string) {
	t.Helper()
	dir := t.TempDir()
	disk, err := storage.NewDisk(dir, "/uploads")
	require.NoError(t, err)
	records := &memImageRecords{}
	return NewImageService(records, disk, zap.NewNop()), records, dir
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestImageServiceSaveGetDelete(t *testing.T) {
	svc, _, dir := newImageService(t)
	ctx := context.Background()

	img, err := svc.Save(ctx, &model.Upload{Filename: "Passport.JPG", ContentType: "image/jpeg", Data: []byte("jpeg")})
	require.NoError(t, err)
	assert.NotZero(t, img.ID)
	assert.Equal(t, ".jpg", filepath.Ext(img.ImageID))
	assert.Equal(t, "/uploads/"+img.ImageID, img.ImageURL)

	data, err := os.ReadFile(filepath.Join(dir, img.ImageID))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)

	got, err := svc.Get(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, img.ImageURL, got.ImageURL)

	require.NoError(t, svc.Delete(ctx, img.ID))
	assert.Equal(t, 0, countFiles(t, dir))

	_, err = svc.Get(ctx, img.ID)
	require.ErrorIs(t, err, ErrImageNotFound)
	require.ErrorIs(t, svc.Delete(ctx, img.ID), ErrImageNotFound)
}

func TestImageServiceSaveUsesFreshKeys(t *testing.T) {
	svc, _, dir := newImageService(t)
	ctx := context.Background()

	a, err := svc.Save(ctx, &model.Upload{Filename: "p.png", Data: []byte("a")})
	require.NoError(t, err)
	b, err := svc.Save(ctx, &model.Upload{Filename: "p.png", Data: []byte("b")})
	require.NoError(t, err)

	assert.NotEqual(t, a.ImageID, b.ImageID)
	assert.Equal(t, 2, countFiles(t, dir))
}

func TestImageServiceSaveRemovesFileWhenRecordFails(t *testing.T) {
	svc, records, dir := newImageService(t)
	records.createErr = errBoom

	_, err := svc.Save(context.Background(), &model.Upload{Filename: "p.png", Data: []byte("a")})
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, countFiles(t, dir))
}
