package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/oromiahinlala/tourism-backend/internal/config"
	"github.com/oromiahinlala/tourism-backend/internal/middleware"
	"github.com/oromiahinlala/tourism-backend/internal/model"
	"github.com/oromiahinlala/tourism-backend/internal/service"
)

// CheckoutHandler serves /checkouts.
type CheckoutHandler struct {
	Checkouts *service.CheckoutService
	Users     service.UserStore
	Cfg       config.Config
	Log       *zap.Logger
}

func NewCheckoutHandler(cfg config.Config, checkouts *service.CheckoutService, users service.UserStore, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{Checkouts: checkouts, Users: users, Cfg: cfg, Log: log}
}

type checkoutReq struct {
	Name         string       `json:"name" form:"name" validate:"required,min=2,max=50"`
	Surname      string       `json:"surname" form:"surname" validate:"omitempty,min=2,max=50"`
	Country      string       `json:"country" form:"country" validate:"required,min=2,max=50"`
	Email        string       `json:"email" form:"email" validate:"required,email"`
	PhoneNumber  string       `json:"phone_number" form:"phone_number" validate:"required,phone"`
	Accomodation string       `json:"accomodation" form:"accomodation" validate:"omitempty,min=2,max=100"`
	HasPaid      optionalBool `json:"has_paid" form:"has_paid" validate:"-"`
	NoOfGuests   int          `json:"no_of_guests" form:"no_of_guests" validate:"required,min=1,max=20"`
}

func (r checkoutReq) input() service.CheckoutInput {
	return service.CheckoutInput{
		Name:         strings.TrimSpace(r.Name),
		Surname:      optional(r.Surname),
		Country:      strings.TrimSpace(r.Country),
		Email:        strings.TrimSpace(r.Email),
		PhoneNumber:  strings.TrimSpace(r.PhoneNumber),
		Accomodation: optional(r.Accomodation),
		HasPaid:      r.HasPaid.ptr(),
		NoOfGuests:   r.NoOfGuests,
	}
}

// optionalBool tells an omitted flag apart from an explicit false, for
// both JSON bodies and form fields.
type optionalBool struct {
	set   bool
	value bool
}

func (b *optionalBool) UnmarshalParam(s string) error {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*b = optionalBool{set: true, value: v}
	return nil
}

func (b *optionalBool) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = optionalBool{}
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		var s string
		if json.Unmarshal(data, &s) != nil {
			return err
		}
		return b.UnmarshalParam(s)
	}
	*b = optionalBool{set: true, value: v}
	return nil
}

func (b optionalBool) ptr() *bool {
	if !b.set {
		return nil
	}
	v := b.value
	return &v
}

// Create registers a checkout from JSON or multipart (optional passport
// image) and emails the QR code. An authenticated caller is marked as
// checked out.
func (h *CheckoutHandler) Create(c echo.Context) error {
	var req checkoutReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	passport, err := readUpload(c, "passport", h.Cfg.Upload.MaxBytes)
	if err != nil {
		return uploadFailed(c, h.Log, err)
	}

	out, err := h.Checkouts.Create(c.Request().Context(), req.input(), passport)
	if err != nil {
		return h.checkoutFailed(c, err)
	}

	if claims, ok := middleware.ClaimsFrom(c); ok {
		ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
		defer cancel()
		if err := h.Users.SetCheckedOut(ctx, claims.UserID, true); err != nil {
			h.Log.Warn("mark user checked out", zap.Uint64("user_id", claims.UserID), zap.Error(err))
		}
	}
	return c.JSON(http.StatusCreated, out)
}

// Update replaces a checkout; a passport upload swaps the stored image.
func (h *CheckoutHandler) Update(c echo.Context) error {
	id, ok := checkoutID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid checkout id"})
	}
	var req checkoutReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	passport, err := readUpload(c, "passport", h.Cfg.Upload.MaxBytes)
	if err != nil {
		return uploadFailed(c, h.Log, err)
	}

	updated, err := h.Checkouts.Update(c.Request().Context(), id, req.input(), passport)
	if err != nil {
		return h.checkoutFailed(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *CheckoutHandler) Delete(c echo.Context) error {
	id, ok := checkoutID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid checkout id"})
	}
	if err := h.Checkouts.Delete(c.Request().Context(), id); err != nil {
		return h.checkoutFailed(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CheckoutHandler) Get(c echo.Context) error {
	id, ok := checkoutID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid checkout id"})
	}
	co, err := h.Checkouts.Get(c.Request().Context(), id)
	if err != nil {
		return h.checkoutFailed(c, err)
	}
	return c.JSON(http.StatusOK, co)
}

func (h *CheckoutHandler) List(c echo.Context) error {
	list, err := h.Checkouts.List(c.Request().Context())
	if err != nil {
		return internalError(c, h.Log, "list checkouts", err)
	}
	return c.JSON(http.StatusOK, list)
}

// Search matches q against name, surname and country, ignoring case.
func (h *CheckoutHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Search query parameter is required"})
	}
	list, err := h.Checkouts.Search(c.Request().Context(), q)
	if err != nil {
		return internalError(c, h.Log, "search checkouts", err)
	}
	return c.JSON(http.StatusOK, list)
}

// PaymentStatus lists paid checkouts for has_paid=true and unpaid ones for
// any other value.
func (h *CheckoutHandler) PaymentStatus(c echo.Context) error {
	vals, present := c.QueryParams()["has_paid"]
	if !present || len(vals) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "has_paid parameter is required"})
	}
	list, err := h.Checkouts.ListByPaymentStatus(c.Request().Context(), vals[0] == "true")
	if err != nil {
		return internalError(c, h.Log, "list checkouts by payment status", err)
	}
	return c.JSON(http.StatusOK, list)
}

type successView struct {
	Checkout *model.Checkout
	Email    string
}

// Success renders the confirmation page the emailed QR code points at.
func (h *CheckoutHandler) Success(c echo.Context) error {
	email := c.Param("email")
	if unescaped, err := url.PathUnescape(email); err == nil {
		email = unescaped
	}
	co, err := h.Checkouts.GetByEmail(c.Request().Context(), email)
	switch {
	case errors.Is(err, service.ErrCheckoutNotFound):
		return c.Render(http.StatusNotFound, "checkout_success", successView{Email: email})
	case err != nil:
		return internalError(c, h.Log, "load checkout by email", err)
	}
	return c.Render(http.StatusOK, "checkout_success", successView{Checkout: co, Email: email})
}

func (h *CheckoutHandler) checkoutFailed(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrDuplicatePhone):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "Phone number already exists",
			"details": "A checkout with this phone number already exists",
		})
	case errors.Is(err, service.ErrDuplicateEmail):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "Email already exists",
			"details": "A checkout with this email already exists",
		})
	case errors.Is(err, service.ErrCheckoutNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Checkout not found"})
	}
	return internalError(c, h.Log, "checkout workflow", err)
}

func checkoutID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
