package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/oromiahinlala/tourism-backend/internal/config"
	"github.com/oromiahinlala/tourism-backend/internal/middleware"
	"github.com/oromiahinlala/tourism-backend/internal/model"
	"github.com/oromiahinlala/tourism-backend/internal/repository"
	"github.com/oromiahinlala/tourism-backend/internal/service"
	"github.com/oromiahinlala/tourism-backend/internal/utils"
)

const dbTimeout = 5 * time.Second

const msgPhoneTaken = "User with this phone number already exists"

// AuthHandler bundles dependencies for the /auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  service.UserStore
	Images service.ImageStore
	Tokens *utils.TokenService
	Log    *zap.Logger
}

func NewAuthHandler(cfg config.Config, users service.UserStore, images service.ImageStore, tokens *utils.TokenService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Images: images, Tokens: tokens, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Name        string `json:"name" form:"name" validate:"required,max=50"`
	Surname     string `json:"surname" form:"surname" validate:"omitempty,max=50"`
	Country     string `json:"country" form:"country" validate:"omitempty,max=50"`
	PhoneNumber string `json:"phone_number" form:"phone_number" validate:"required,phone"`
	Password    string `json:"password" form:"password" validate:"required,max=72"`
	// Staff roles are granted out of band; self-registration may only pick these.
	Role string `json:"role" form:"role" validate:"omitempty,oneof=tourist guide"`
}

type loginReq struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

type profileReq struct {
	Name        string `json:"name" form:"name" validate:"omitempty,max=50"`
	Surname     string `json:"surname" form:"surname" validate:"omitempty,max=50"`
	Country     string `json:"country" form:"country" validate:"omitempty,max=50"`
	PhoneNumber string `json:"phone_number" form:"phone_number" validate:"omitempty,phone"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,max=72"`
}

type loginResp struct {
	Message   string      `json:"message"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// Register creates a user account. The body may be JSON or multipart with
// an optional profile_picture image.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	role := model.RoleTourist
	if req.Role != "" {
		role = model.Role(req.Role)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	phone := strings.TrimSpace(req.PhoneNumber)
	if _, err := h.Users.GetByPhone(ctx, phone); err == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msgPhoneTaken})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return internalError(c, h.Log, "lookup user by phone", err)
	}

	picture, err := readUpload(c, "profile_picture", h.Cfg.Upload.MaxBytes)
	if err != nil {
		return uploadFailed(c, h.Log, err)
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return h.hashFailed(c, "password", err)
	}
	u := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Surname:      optional(req.Surname),
		Country:      strings.TrimSpace(req.Country),
		PhoneNumber:  phone,
		PasswordHash: hash,
		Role:         role,
	}
	if picture != nil {
		img, err := h.Images.Save(ctx, picture)
		if err != nil {
			return internalError(c, h.Log, "save profile picture", err)
		}
		u.ProfilePictureID = &img.ID
	}

	if err := h.Users.Create(ctx, u); err != nil {
		if u.ProfilePictureID != nil {
			h.discardImage(ctx, *u.ProfilePictureID)
		}
		var uv *repository.UniqueViolationError
		if errors.As(err, &uv) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": msgPhoneTaken})
		}
		return internalError(c, h.Log, "create user", err)
	}
	h.Log.Info("user registered", zap.Uint64("user_id", u.ID), zap.String("role", string(u.Role)))

	return c.JSON(http.StatusCreated, echo.Map{"message": "User registered successfully", "user": u})
}

// Login verifies phone and password and returns a session token. Unknown
// phone numbers and wrong passwords get the same 401.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByPhone(ctx, req.PhoneNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
		}
		return internalError(c, h.Log, "lookup user by phone", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
	}

	tok, err := h.Tokens.Issue(u)
	if err != nil {
		return internalError(c, h.Log, "issue token", err)
	}
	return c.JSON(http.StatusOK, loginResp{Message: "Login successful", Token: tok.Token, ExpiresAt: tok.Exp, User: u})
}

// Profile returns the authenticated user.
func (h *AuthHandler) Profile(c echo.Context) error {
	u, err := h.currentUser(c)
	if err != nil {
		return h.userLookupFailed(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateProfile changes the editable fields of the authenticated user.
// Omitted fields keep their value. A new profile_picture replaces the old
// one, which is deleted.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req profileReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	picture, err := readUpload(c, "profile_picture", h.Cfg.Upload.MaxBytes)
	if err != nil {
		return uploadFailed(c, h.Log, err)
	}

	u, err := h.currentUser(c)
	if err != nil {
		return h.userLookupFailed(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if phone := strings.TrimSpace(req.PhoneNumber); phone != "" && phone != u.PhoneNumber {
		other, err := h.Users.GetByPhone(ctx, phone)
		switch {
		case err == nil && other.ID != u.ID:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": msgPhoneTaken})
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return internalError(c, h.Log, "lookup user by phone", err)
		}
		u.PhoneNumber = phone
	}
	if v := strings.TrimSpace(req.Name); v != "" {
		u.Name = v
	}
	if v := optional(req.Surname); v != nil {
		u.Surname = v
	}
	if v := strings.TrimSpace(req.Country); v != "" {
		u.Country = v
	}

	var added *uint64
	if picture != nil {
		if u.ProfilePictureID != nil {
			h.discardImage(ctx, *u.ProfilePictureID)
		}
		img, err := h.Images.Save(ctx, picture)
		if err != nil {
			return internalError(c, h.Log, "save profile picture", err)
		}
		u.ProfilePictureID, added = &img.ID, &img.ID
	}

	if err := h.Users.UpdateProfile(ctx, u); err != nil {
		if added != nil {
			h.discardImage(ctx, *added)
		}
		var uv *repository.UniqueViolationError
		switch {
		case errors.As(err, &uv):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": msgPhoneTaken})
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
		}
		return internalError(c, h.Log, "update profile", err)
	}

	updated, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		return h.userLookupFailed(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// ChangePassword replaces the password after checking the current one.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	u, err := h.currentUser(c)
	if err != nil {
		return h.userLookupFailed(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Current password is incorrect"})
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return h.hashFailed(c, "new_password", err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return h.userLookupFailed(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password changed successfully"})
}

// Logout is a no-op on the server: tokens are stateless and expire on
// their own, so the client just drops its copy.
func (h *AuthHandler) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

func (h *AuthHandler) currentUser(c echo.Context) (*model.User, error) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return nil, repository.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	return h.Users.GetByID(ctx, claims.UserID)
}

func (h *AuthHandler) userLookupFailed(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
	}
	return internalError(c, h.Log, "load user", err)
}

func (h *AuthHandler) discardImage(ctx context.Context, id uint64) {
	if err := h.Images.Delete(ctx, id); err != nil && !errors.Is(err, service.ErrImageNotFound) {
		h.Log.Warn("profile picture cleanup failed", zap.Uint64("image_id", id), zap.Error(err))
	}
}

// optional trims s and returns nil when nothing is left.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// hashFailed answers 400 for passwords bcrypt cannot take (multi-byte input
// can pass the rune based max=72 rule and still exceed 72 bytes).
func (h *AuthHandler) hashFailed(c echo.Context, field string, err error) error {
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "Validation error",
			"details": []string{field + " must be at most 72 bytes"},
		})
	}
	return internalError(c, h.Log, "hash password", err)
}
