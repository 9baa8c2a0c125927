package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/oromiahinlala/tourism-backend/internal/model"
)

// UserRepo is the credential store backed by the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `u.id, u.name, u.surname, u.country, u.phone_number, u.password_hash, u.role,
	u.checked_out, u.profile_picture_id, u.created_at, u.updated_at, i.id, i.image_id, i.image_url`

const userSelect = "SELECT " + userColumns + " FROM users u LEFT JOIN images i ON i.id = u.profile_picture_id"

// Create inserts u (PasswordHash must already be set) and fills in its ID
// and timestamps. A duplicate phone number yields *UniqueViolationError.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.PhoneNumber = strings.TrimSpace(u.PhoneNumber)
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (name, surname, country, phone_number, password_hash, role, checked_out, profile_picture_id)
		 VALUES (?,?,?,?,?,?,?,?)`,
		u.Name, u.Surname, u.Country, u.PhoneNumber, u.PasswordHash, string(u.Role), u.CheckedOut, u.ProfilePictureID)
	if err != nil {
		return asUniqueViolation("users", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*u = *created
	return nil
}

// GetByID fetches a user by id, joined with its profile picture.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx, userSelect+" WHERE u.id = ? LIMIT 1", id))
}

// GetByPhone fetches a user by its phone number.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx, userSelect+" WHERE u.phone_number = ? LIMIT 1", strings.TrimSpace(phone)))
}

// UpdateProfile writes the editable profile columns of u.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET name = ?, surname = ?, country = ?, phone_number = ?, profile_picture_id = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		u.Name, u.Surname, u.Country, strings.TrimSpace(u.PhoneNumber), u.ProfilePictureID, u.ID)
	if err != nil {
		return asUniqueViolation("users", err)
	}
	return requireAffected(res)
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", hash, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// SetCheckedOut flips the checked_out flag of a user.
func (r *UserRepo) SetCheckedOut(ctx context.Context, id uint64, checkedOut bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET checked_out = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", checkedOut, id)
	return err
}

func (r *UserRepo) scanOne(row *sql.Row) (*model.User, error) {
	var (
		u       model.User
		role    string
		surname sql.NullString
		picID   sql.NullInt64
		imgID   sql.NullInt64
		imgKey  sql.NullString
		imgURL  sql.NullString
	)
	err := row.Scan(&u.ID, &u.Name, &surname, &u.Country, &u.PhoneNumber, &u.PasswordHash, &role,
		&u.CheckedOut, &picID, &u.CreatedAt, &u.UpdatedAt, &imgID, &imgKey, &imgURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Role = model.Role(role)
	u.Surname = nullString(surname)
	u.ProfilePictureID = nullID(picID)
	u.ProfilePicture = joinedImage(imgID, imgKey, imgURL)
	return &u, nil
}

// requireAffected turns a zero-row update into ErrNotFound.
func requireAffected(res sql.Result) error {
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullID(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int64)
	return &v
}

func joinedImage(id sql.NullInt64, key, url sql.NullString) *model.Image {
	if !id.Valid {
		return nil
	}
	return &model.Image{ID: uint64(id.Int64), ImageID: key.String, ImageURL: url.String}
}
