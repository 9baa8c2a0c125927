package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/oromiahinlala/tourism-backend/internal/model"
)

// ImageRepo persists metadata of uploaded images in the `images` table.
type ImageRepo struct{ db *sql.DB }

func NewImageRepo(db *sql.DB) *ImageRepo { return &ImageRepo{db: db} }

// Create inserts img and sets its ID.
func (r *ImageRepo) Create(ctx context.Context, img *model.Image) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO images (image_id, image_url) VALUES (?, ?)", img.ImageID, img.ImageURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	img.ID = uint64(id)
	return nil
}

// GetByID returns ErrNotFound if no image has the given id.
func (r *ImageRepo) GetByID(ctx context.Context, id uint64) (*model.Image, error) {
	var img model.Image
	err := r.db.QueryRowContext(ctx,
		"SELECT id, image_id, image_url FROM images WHERE id = ?", id).Scan(&img.ID, &img.ImageID, &img.ImageURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &img, nil
}

// Delete removes the image row. Referencing users/checkouts have their
// foreign key set to NULL by the schema.
func (r *ImageRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM images WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
