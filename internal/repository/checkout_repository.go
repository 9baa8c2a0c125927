package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/oromiahinlala/tourism-backend/internal/model"
)

// CheckoutRepo encapsulates all database queries related to checkouts.
// The unique indexes on phone_number and email are the final authority on
// duplicates; application level lookups are only a pre-check.
type CheckoutRepo struct {
	db *sql.DB
}

func NewCheckoutRepo(db *sql.DB) *CheckoutRepo {
	return &CheckoutRepo{db: db}
}

const checkoutSelect = `SELECT c.id, c.name, c.surname, c.country, c.email, c.phone_number, c.accomodation,
	c.has_paid, c.no_of_guests, c.passport, c.created_at, c.updated_at, i.id, i.image_id, i.image_url
	FROM checkouts c LEFT JOIN images i ON i.id = c.passport`

// Create inserts c and reloads it so timestamps and the passport join are
// populated. A unique index hit yields *UniqueViolationError.
func (r *CheckoutRepo) Create(ctx context.Context, c *model.Checkout) error {
	const q = `INSERT INTO checkouts
		(name, surname, country, email, phone_number, accomodation, has_paid, no_of_guests, passport)
		VALUES (?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q, c.Name, c.Surname, c.Country, c.Email, c.PhoneNumber,
		c.Accomodation, c.HasPaid, c.NoOfGuests, c.Passport)
	if err != nil {
		return asUniqueViolation("checkouts", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*c = *created
	return nil
}

// GetByID returns ErrNotFound if the checkout does not exist.
func (r *CheckoutRepo) GetByID(ctx context.Context, id uint64) (*model.Checkout, error) {
	return scanCheckout(r.db.QueryRowContext(ctx, checkoutSelect+" WHERE c.id = ?", id))
}

// GetByEmail looks a checkout up by its unique email.
func (r *CheckoutRepo) GetByEmail(ctx context.Context, email string) (*model.Checkout, error) {
	return scanCheckout(r.db.QueryRowContext(ctx, checkoutSelect+" WHERE c.email = ?", email))
}

// ExistsByPhone reports whether another checkout (id != excludeID) uses phone.
// Pass 0 to check against every row.
func (r *CheckoutRepo) ExistsByPhone(ctx context.Context, phone string, excludeID uint64) (bool, error) {
	return r.exists(ctx, "phone_number", phone, excludeID)
}

// ExistsByEmail reports whether another checkout (id != excludeID) uses email.
func (r *CheckoutRepo) ExistsByEmail(ctx context.Context, email string, excludeID uint64) (bool, error) {
	return r.exists(ctx, "email", email, excludeID)
}

func (r *CheckoutRepo) exists(ctx context.Context, column, value string, excludeID uint64) (bool, error) {
	// column is one of two constants above, never user input
	q := "SELECT 1 FROM checkouts WHERE " + column + " = ? AND id <> ? LIMIT 1"
	var one int
	err := r.db.QueryRowContext(ctx, q, value, excludeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns every checkout ordered by id.
func (r *CheckoutRepo) List(ctx context.Context) ([]*model.Checkout, error) {
	return r.query(ctx, checkoutSelect+" ORDER BY c.id")
}

// Search matches q against name, surname and country, case-insensitively.
func (r *CheckoutRepo) Search(ctx context.Context, q string) ([]*model.Checkout, error) {
	like := "%" + strings.ToLower(q) + "%"
	return r.query(ctx, checkoutSelect+
		` WHERE LOWER(c.name) LIKE ? OR LOWER(c.country) LIKE ? OR LOWER(COALESCE(c.surname, '')) LIKE ?
		 ORDER BY c.id`, like, like, like)
}

// ListByPaymentStatus returns checkouts whose has_paid equals paid.
func (r *CheckoutRepo) ListByPaymentStatus(ctx context.Context, paid bool) ([]*model.Checkout, error) {
	return r.query(ctx, checkoutSelect+" WHERE c.has_paid = ? ORDER BY c.id", paid)
}

// Update writes every mutable column of c.
func (r *CheckoutRepo) Update(ctx context.Context, c *model.Checkout) error {
	const q = `UPDATE checkouts SET name = ?, surname = ?, country = ?, email = ?, phone_number = ?,
		accomodation = ?, has_paid = ?, no_of_guests = ?, passport = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, c.Name, c.Surname, c.Country, c.Email, c.PhoneNumber,
		c.Accomodation, c.HasPaid, c.NoOfGuests, c.Passport, c.ID)
	if err != nil {
		return asUniqueViolation("checkouts", err)
	}
	return requireAffected(res)
}

// Delete removes the checkout row.
func (r *CheckoutRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM checkouts WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *CheckoutRepo) query(ctx context.Context, q string, args ...any) ([]*model.Checkout, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Checkout{}
	for rows.Next() {
		c, err := scanCheckout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheckout(s rowScanner) (*model.Checkout, error) {
	var (
		c            model.Checkout
		surname      sql.NullString
		accomodation sql.NullString
		passport     sql.NullInt64
		imgID        sql.NullInt64
		imgKey       sql.NullString
		imgURL       sql.NullString
	)
	err := s.Scan(&c.ID, &c.Name, &surname, &c.Country, &c.Email, &c.PhoneNumber, &accomodation,
		&c.HasPaid, &c.NoOfGuests, &passport, &c.CreatedAt, &c.UpdatedAt, &imgID, &imgKey, &imgURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.Surname = nullString(surname)
	c.Accomodation = nullString(accomodation)
	c.Passport = nullID(passport)
	c.PassportImage = joinedImage(imgID, imgKey, imgURL)
	return &c, nil
}
