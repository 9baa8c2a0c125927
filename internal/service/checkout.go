package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oromiahinlala/tourism-backend/internal/mailer"
	"github.com/oromiahinlala/tourism-backend/internal/model"
	"github.com/oromiahinlala/tourism-backend/internal/queue"
	"github.com/oromiahinlala/tourism-backend/internal/repository"
	"github.com/oromiahinlala/tourism-backend/internal/utils"
)

var (
	ErrDuplicatePhone   = errors.New("phone_number already exists")
	ErrDuplicateEmail   = errors.New("email already exists")
	ErrCheckoutNotFound = errors.New("checkout not found")
)

// notifyTimeout bounds QR mail delivery and event publishing, which run
// detached from the request's cancellation.
const notifyTimeout = 20 * time.Second

// CheckoutInput carries the client supplied fields of a checkout.
type CheckoutInput struct {
	Name         string
	Surname      *string
	Country      string
	Email        string
	PhoneNumber  string
	Accomodation *string
	HasPaid      *bool // nil keeps the default (create) or current value (update)
	NoOfGuests   int
}

// CreatedCheckout is the result of a successful Create.
type CreatedCheckout struct {
	Checkout        *model.Checkout `json:"checkout"`
	VerificationURL string          `json:"verification_url"`
}

// CheckoutService runs the checkout workflow: uniqueness checks, passport
// image handling, persistence and the QR code email.
type CheckoutService struct {
	store   CheckoutStore
	images  ImageStore
	mailer  Mailer
	events  EventPublisher // optional
	baseURL string
	log     *zap.Logger
}

func NewCheckoutService(store CheckoutStore, images ImageStore, m Mailer, events EventPublisher, baseURL string, log *zap.Logger) *CheckoutService {
	return &CheckoutService{
		store:   store,
		images:  images,
		mailer:  m,
		events:  events,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

// VerificationURL points at the success page of the checkout registered
// under email.
func VerificationURL(baseURL, email string) string {
	return strings.TrimRight(baseURL, "/") + "/checkouts/success/" + url.QueryEscape(email)
}

// Create validates uniqueness, stores the optional passport image, persists
// the checkout and emails the QR encoded verification link. Email delivery
// is best-effort: a failure is logged and the checkout is still returned.
func (s *CheckoutService) Create(ctx context.Context, in CheckoutInput, passport *model.Upload) (*CreatedCheckout, error) {
	if err := s.checkUnique(ctx, in.PhoneNumber, in.Email, 0); err != nil {
		return nil, err
	}

	c := &model.Checkout{}
	apply(c, in)

	if passport != nil {
		img, err := s.images.Save(ctx, passport)
		if err != nil {
			return nil, fmt.Errorf("save passport image: %w", err)
		}
		c.Passport = &img.ID
		c.PassportImage = img
	}

	if err := s.store.Create(ctx, c); err != nil {
		if c.Passport != nil {
			s.discardImage(ctx, *c.Passport)
		}
		return nil, translateStoreErr(err)
	}
	checkoutsCreatedTotal.Inc()

	link := VerificationURL(s.baseURL, c.Email)
	s.sendQRCode(ctx, c.Email, link)
	s.publishCreated(ctx, c, link)

	return &CreatedCheckout{Checkout: c, VerificationURL: link}, nil
}

// Update replaces the fields of checkout id. A new passport upload
// deletes the previously attached image before the new one is attached.
func (s *CheckoutService) Update(ctx context.Context, id uint64, in CheckoutInput, passport *model.Upload) (*model.Checkout, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	phone, email := "", ""
	if in.PhoneNumber != cur.PhoneNumber {
		phone = in.PhoneNumber
	}
	if in.Email != cur.Email {
		email = in.Email
	}
	if err := s.checkUnique(ctx, phone, email, id); err != nil {
		return nil, err
	}

	apply(cur, in)

	// The old passport is gone once a replacement is attempted; a failed
	// save or row write below leaves the checkout without one.
	var replaced *model.Image
	var previous *uint64
	if passport != nil {
		if cur.Passport != nil {
			previous = cur.Passport
			s.discardImage(ctx, *cur.Passport)
			cur.Passport, cur.PassportImage = nil, nil
		}
		replaced, err = s.images.Save(ctx, passport)
		if err != nil {
			s.warnPassportLost(id, previous, 0, err)
			return nil, fmt.Errorf("save passport image: %w", err)
		}
		cur.Passport = &replaced.ID
		cur.PassportImage = replaced
	}

	if err := s.store.Update(ctx, cur); err != nil {
		if replaced != nil {
			s.discardImage(ctx, replaced.ID)
			s.warnPassportLost(id, previous, replaced.ID, err)
		}
		return nil, translateStoreErr(err)
	}
	return s.Get(ctx, id)
}

func (s *CheckoutService) warnPassportLost(id uint64, previous *uint64, discarded uint64, err error) {
	if previous == nil {
		return
	}
	fields := []zap.Field{zap.Uint64("checkout_id", id), zap.Uint64("previous_image_id", *previous), zap.Error(err)}
	if discarded != 0 {
		fields = append(fields, zap.Uint64("discarded_image_id", discarded))
	}
	s.log.Warn("checkout update failed after passport removal, checkout has no passport", fields...)
}

// Delete removes the attached passport image, then the checkout row. Image
// cleanup failures are logged and do not stop the row deletion.
func (s *CheckoutService) Delete(ctx context.Context, id uint64) error {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if cur.Passport != nil {
		s.discardImage(ctx, *cur.Passport)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return translateStoreErr(err)
	}
	return nil
}

// Get returns ErrCheckoutNotFound for unknown ids.
func (s *CheckoutService) Get(ctx context.Context, id uint64) (*model.Checkout, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return c, nil
}

// GetByEmail backs the confirmation page reached through the QR code.
func (s *CheckoutService) GetByEmail(ctx context.Context, email string) (*model.Checkout, error) {
	c, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return c, nil
}

func (s *CheckoutService) List(ctx context.Context) ([]*model.Checkout, error) {
	return s.store.List(ctx)
}

func (s *CheckoutService) Search(ctx context.Context, q string) ([]*model.Checkout, error) {
	return s.store.Search(ctx, q)
}

func (s *CheckoutService) ListByPaymentStatus(ctx context.Context, paid bool) ([]*model.Checkout, error) {
	return s.store.ListByPaymentStatus(ctx, paid)
}

// checkUnique is the application level pre-check. Empty values are skipped.
// The store's unique indexes remain the guarantee under concurrency.
func (s *CheckoutService) checkUnique(ctx context.Context, phone, email string, excludeID uint64) error {
	if phone != "" {
		taken, err := s.store.ExistsByPhone(ctx, phone, excludeID)
		if err != nil {
			return fmt.Errorf("check phone_number: %w", err)
		}
		if taken {
			return ErrDuplicatePhone
		}
	}
	if email != "" {
		taken, err := s.store.ExistsByEmail(ctx, email, excludeID)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if taken {
			return ErrDuplicateEmail
		}
	}
	return nil
}

func (s *CheckoutService) discardImage(ctx context.Context, id uint64) {
	if err := s.images.Delete(ctx, id); err != nil && !errors.Is(err, ErrImageNotFound) {
		s.log.Warn("passport image cleanup failed", zap.Uint64("image_id", id), zap.Error(err))
	}
}

func (s *CheckoutService) sendQRCode(ctx context.Context, to, link string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	err := func() error {
		png, err := utils.QRCodePNG(link)
		if err != nil {
			return err
		}
		msg, err := mailer.CheckoutQRMessage(to, link, png)
		if err != nil {
			return err
		}
		return s.mailer.Send(ctx, msg)
	}()
	if err != nil {
		checkoutEmailsFailedTotal.Inc()
		s.log.Warn("checkout QR email not delivered", zap.String("to", to), zap.Error(err))
		return
	}
	s.log.Info("checkout QR email sent", zap.String("to", to))
}

func (s *CheckoutService) publishCreated(ctx context.Context, c *model.Checkout, link string) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	ev := queue.CheckoutCreatedEvent{
		CheckoutID:      c.ID,
		Name:            c.Name,
		Email:           c.Email,
		PhoneNumber:     c.PhoneNumber,
		Country:         c.Country,
		NoOfGuests:      c.NoOfGuests,
		HasPaid:         c.HasPaid,
		HasPassport:     c.Passport != nil,
		VerificationURL: link,
		CreatedAt:       c.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := s.events.PublishCheckoutCreated(ctx, ev); err != nil {
		s.log.Warn("checkout event not published", zap.Uint64("checkout_id", c.ID), zap.Error(err))
	}
}

func apply(c *model.Checkout, in CheckoutInput) {
	c.Name = in.Name
	c.Surname = in.Surname
	c.Country = in.Country
	c.Email = in.Email
	c.PhoneNumber = in.PhoneNumber
	c.Accomodation = in.Accomodation
	c.NoOfGuests = in.NoOfGuests
	if in.HasPaid != nil {
		c.HasPaid = *in.HasPaid
	}
}

// translateStoreErr maps storage errors onto the workflow's own errors so a
// unique index hit reads the same as a failed pre-check.
func translateStoreErr(err error) error {
	var uv *repository.UniqueViolationError
	switch {
	case errors.As(err, &uv) && uv.Column == "email":
		return ErrDuplicateEmail
	case errors.As(err, &uv) && uv.Column == "phone_number":
		return ErrDuplicatePhone
	case errors.Is(err, repository.ErrNotFound):
		return ErrCheckoutNotFound
	}
	return fmt.Errorf("checkout store: %w", err)
}
