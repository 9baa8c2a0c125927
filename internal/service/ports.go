// Package service holds the multi-step workflows of the API: the checkout
// workflow and the image store. Collaborators are consumed through the
// small interfaces below so the workflows run against MySQL in production
// and in-memory fakes in tests.
package service

import (
	"context"

	"github.com/oromiahinlala/tourism-backend/internal/mailer"
	"github.com/oromiahinlala/tourism-backend/internal/model"
	"github.com/oromiahinlala/tourism-backend/internal/queue"
)

// CheckoutStore persists checkouts. Implementations must enforce unique
// phone_number and email and report violations as
// *repository.UniqueViolationError; missing rows as repository.ErrNotFound.
type CheckoutStore interface {
	Create(ctx context.Context, c *model.Checkout) error
	GetByID(ctx context.Context, id uint64) (*model.Checkout, error)
	GetByEmail(ctx context.Context, email string) (*model.Checkout, error)
	ExistsByPhone(ctx context.Context, phone string, excludeID uint64) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID uint64) (bool, error)
	List(ctx context.Context) ([]*model.Checkout, error)
	Search(ctx context.Context, q string) ([]*model.Checkout, error)
	ListByPaymentStatus(ctx context.Context, paid bool) ([]*model.Checkout, error)
	Update(ctx context.Context, c *model.Checkout) error
	Delete(ctx context.Context, id uint64) error
}

// UserStore is the credential store.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByPhone(ctx context.Context, phone string) (*model.User, error)
	UpdateProfile(ctx context.Context, u *model.User) error
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	SetCheckedOut(ctx context.Context, id uint64, checkedOut bool) error
}

// ImageStore persists uploaded images and their metadata.
type ImageStore interface {
	Save(ctx context.Context, up *model.Upload) (*model.Image, error)
	Get(ctx context.Context, id uint64) (*model.Image, error)
	Delete(ctx context.Context, id uint64) error
}

// ImageRecords is the metadata table behind ImageService.
type ImageRecords interface {
	Create(ctx context.Context, img *model.Image) error
	GetByID(ctx context.Context, id uint64) (*model.Image, error)
	Delete(ctx context.Context, id uint64) error
}

// FileStore holds image bytes and reports the URL they are served from.
type FileStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	Remove(ctx context.Context, key string) error
}

// Mailer sends a message, possibly with attachments.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// EventPublisher announces checkout lifecycle events.
type EventPublisher interface {
	PublishCheckoutCreated(ctx context.Context, ev queue.CheckoutCreatedEvent) error
}
