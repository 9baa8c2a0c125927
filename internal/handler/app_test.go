package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/oromiahinlala/tourism-backend/internal/config"
	"github.com/oromiahinlala/tourism-backend/internal/handler"
	"github.com/oromiahinlala/tourism-backend/internal/mailer"
	"github.com/oromiahinlala/tourism-backend/internal/middleware"
	"github.com/oromiahinlala/tourism-backend/internal/model"
	"github.com/oromiahinlala/tourism-backend/internal/repository"
	"github.com/oromiahinlala/tourism-backend/internal/router"
	"github.com/oromiahinlala/tourism-backend/internal/service"
	"github.com/oromiahinlala/tourism-backend/internal/utils"
)

// ----- in-memory stores -----

type memUsers struct {
	mu   sync.Mutex
	next uint64
	rows map[uint64]model.User
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.PhoneNumber == u.PhoneNumber {
			return &repository.UniqueViolationError{Table: "users", Column: "phone_number"}
		}
	}
	m.next++
	u.ID = m.next
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	m.rows[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByPhone(_ context.Context, phone string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.PhoneNumber == phone {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) UpdateProfile(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[u.ID]; !ok {
		return repository.ErrNotFound
	}
	m.rows[u.ID] = *u
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id uint64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	m.rows[id] = u
	return nil
}

func (m *memUsers) SetCheckedOut(_ context.Context, id uint64, checkedOut bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.rows[id]
	u.CheckedOut = checkedOut
	m.rows[id] = u
	return nil
}

type memImages struct {
	mu   sync.Mutex
	next uint64
	rows map[uint64]model.Image
}

func (m *memImages) Save(_ context.Context, up *model.Upload) (*model.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	img := model.Image{ID: m.next, ImageID: up.Filename, ImageURL: "/uploads/" + up.Filename}
	m.rows[img.ID] = img
	return &img, nil
}

func (m *memImages) Get(_ context.Context, id uint64) (*model.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.rows[id]
	if !ok {
		return nil, service.ErrImageNotFound
	}
	return &img, nil
}

func (m *memImages) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return service.ErrImageNotFound
	}
	delete(m.rows, id)
	return nil
}

type memCheckouts struct {
	mu   sync.Mutex
	next uint64
	rows map[uint64]model.Checkout
}

func (m *memCheckouts) conflict(c *model.Checkout) error {
	for id, row := range m.rows {
		switch {
		case id == c.ID:
		case row.PhoneNumber == c.PhoneNumber:
			return &repository.UniqueViolationError{Table: "checkouts", Column: "phone_number"}
		case row.Email == c.Email:
			return &repository.UniqueViolationError{Table: "checkouts", Column: "email"}
		}
	}
	return nil
}

func (m *memCheckouts) Create(_ context.Context, c *model.Checkout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.conflict(c); err != nil {
		return err
	}
	m.next++
	c.ID = m.next
	m.rows[c.ID] = *c
	return nil
}

func (m *memCheckouts) GetByID(_ context.Context, id uint64) (*model.Checkout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (m *memCheckouts) GetByEmail(_ context.Context, email string) (*model.Checkout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.Email == email {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memCheckouts) ExistsByPhone(_ context.Context, phone string, excludeID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.rows {
		if id != excludeID && c.PhoneNumber == phone {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCheckouts) ExistsByEmail(_ context.Context, email string, excludeID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.rows {
		if id != excludeID && c.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCheckouts) where(keep func(model.Checkout) bool) []*model.Checkout {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Checkout{}
	for id := uint64(1); id <= m.next; id++ {
		if c, ok := m.rows[id]; ok && keep(c) {
			out = append(out, &c)
		}
	}
	return out
}

func (m *memCheckouts) List(context.Context) ([]*model.Checkout, error) {
	return m.where(func(model.Checkout) bool { return true }), nil
}

func (m *memCheckouts) Search(_ context.Context, q string) ([]*model.Checkout, error) {
	q = strings.ToLower(q)
	return m.where(func(c model.Checkout) bool {
		return strings.Contains(strings.ToLower(c.Name+" "+c.Country), q)
	}), nil
}

func (m *memCheckouts) ListByPaymentStatus(_ context.Context, paid bool) ([]*model.Checkout, error) {
	return m.where(func(c model.Checkout) bool { return c.HasPaid == paid }), nil
}

func (m *memCheckouts) Update(_ context.Context, c *model.Checkout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[c.ID]; !ok {
		return repository.ErrNotFound
	}
	if err := m.conflict(c); err != nil {
		return err
	}
	m.rows[c.ID] = *c
	return nil
}

func (m *memCheckouts) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (r *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

// ----- app -----

type testApp struct {
	e         *echo.Echo
	users     *memUsers
	images    *memImages
	checkouts *memCheckouts
	mail      *recordingMailer
	tokens    *utils.TokenService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := config.Config{
		BcryptCost:    bcrypt.MinCost,
		TokenTTL:      time.Hour,
		PublicBaseURL: "http://tours.test",
		Upload:        config.UploadConfig{MaxBytes: 64 << 10},
	}
	a := &testApp{
		e:         echo.New(),
		users:     &memUsers{rows: map[uint64]model.User{}},
		images:    &memImages{rows: map[uint64]model.Image{}},
		checkouts: &memCheckouts{rows: map[uint64]model.Checkout{}},
		mail:      &recordingMailer{},
		tokens:    utils.NewTokenService("test-secret", cfg.TokenTTL, nil),
	}
	log := zap.NewNop()
	a.e.Validator = handler.NewValidator()
	a.e.Renderer = handler.NewRenderer()

	svc := service.NewCheckoutService(a.checkouts, a.images, a.mail, nil, cfg.PublicBaseURL, log)
	authn := middleware.NewAuthenticator(a.tokens, a.users, log)
	passthrough := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	router.RegisterAuth(a.e, handler.NewAuthHandler(cfg, a.users, a.images, a.tokens, log), authn, passthrough)
	router.RegisterCheckouts(a.e, handler.NewCheckoutHandler(cfg, svc, a.users, log), authn)
	return a
}

// seedUser stores a user with the given role and returns a bearer token.
func (a *testApp) seedUser(t *testing.T, phone string, role model.Role) string {
	t.Helper()
	hash, err := utils.HashPassword("secret", bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.User{Name: "Seed", Country: "Ethiopia", PhoneNumber: phone, PasswordHash: hash, Role: role}
	require.NoError(t, a.users.Create(context.Background(), u))
	tok, err := a.tokens.Issue(u)
	require.NoError(t, err)
	return tok.Token
}

type request struct {
	method string
	path   string
	token  string
	json   any
	form   map[string]string
	files  map[string]file
}

type file struct {
	name string
	data []byte
}

func (a *testApp) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	var (
		body        io.Reader
		contentType string
	)
	switch {
	case r.form != nil || r.files != nil:
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		for k, v := range r.form {
			require.NoError(t, mw.WriteField(k, v))
		}
		for field, f := range r.files {
			w, err := mw.CreateFormFile(field, f.name)
			require.NoError(t, err)
			_, err = w.Write(f.data)
			require.NoError(t, err)
		}
		require.NoError(t, mw.Close())
		body, contentType = buf, mw.FormDataContentType()
	case r.json != nil:
		raw, err := json.Marshal(r.json)
		require.NoError(t, err)
		body, contentType = bytes.NewReader(raw), echo.MIMEApplicationJSON
	}

	req := httptest.NewRequest(r.method, r.path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if r.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+r.token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	png, err := utils.QRCodePNG("passport")
	require.NoError(t, err)
	return png
}
