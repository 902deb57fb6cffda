package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	userapp "github.com/nordveldt/userbase/internal/application"
	"github.com/nordveldt/userbase/internal/domain/entity"
	repo "github.com/nordveldt/userbase/internal/domain/repository"
	handlers "github.com/nordveldt/userbase/internal/interface/http"
	"github.com/nordveldt/userbase/internal/router/modules"
	"github.com/nordveldt/userbase/pkg/validation"
)

type memTokenRepo struct {
	tokens    map[string]entity.ResetToken
	passwords map[int64]string
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: map[string]entity.ResetToken{}, passwords: map[int64]string{}}
}

func (m *memTokenRepo) Insert(_ context.Context, t *entity.ResetToken) error {
	m.tokens[t.Token] = *t
	return nil
}

func (m *memTokenRepo) Exists(_ context.Context, token string, cutoff time.Time) (bool, error) {
	t, ok := m.tokens[token]
	return ok && t.Created.After(cutoff), nil
}

func (m *memTokenRepo) UpdateOwnerPassword(_ context.Context, token, hash string) (int64, error) {
	t, ok := m.tokens[token]
	if !ok {
		return 0, nil
	}
	m.passwords[t.UserID] = hash
	return 1, nil
}

func (m *memTokenRepo) Delete(_ context.Context, token string) error {
	delete(m.tokens, token)
	return nil
}

func (m *memTokenRepo) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for tok, t := range m.tokens {
		if !t.Created.After(cutoff) {
			delete(m.tokens, tok)
			n++
		}
	}
	return n, nil
}

type memUserRepo struct {
	repo.UserRepository
	byEmail map[string]*entity.User
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, repo.ErrNotFound
}

type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (plainHasher) Verify(hash, plain string) bool    { return hash == "hashed:"+plain }

type envelope struct {
	Status  int            `json:"status"`
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func newResetRouter(t *testing.T) (*gin.Engine, *userapp.PasswordResetService, *memTokenRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	tokens := newMemTokenRepo()
	users := &memUserRepo{byEmail: map[string]*entity.User{
		"ada@example.com": {ID: 42, Realname: "Ada Lovelace", Email: "ada@example.com"},
	}}
	svc := userapp.NewPasswordResetService(tokens, users, plainHasher{}, nil, nil, 30*time.Minute, "https://example.com/reset")

	r := gin.New()
	modules.NewResetModule(handlers.NewPasswordResetHandler(svc, nil)).Register(r.Group("/api"))
	return r, svc, tokens
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestRequestAcceptsUnknownEmail(t *testing.T) {
	r, _, tokens := newResetRouter(t)

	w := postJSON(t, r, "/api/password-reset/request", gin.H{"email": "ghost@example.com"})

	require.Equal(t, http.StatusAccepted, w.Code)
	env := decode(t, w)
	require.True(t, env.Success)
	require.Equal(t, true, env.Data["requested"])
	require.Empty(t, tokens.tokens)
}

func TestRequestRejectsBadPayload(t *testing.T) {
	r, _, _ := newResetRouter(t)

	w := postJSON(t, r, "/api/password-reset/request", gin.H{"email": "not-an-email"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, decode(t, w).Success)
}

func TestValidateReportsTokenState(t *testing.T) {
	r, svc, _ := newResetRouter(t)
	token, err := svc.Issue(context.Background(), 42)
	require.NoError(t, err)

	w := postJSON(t, r, "/api/password-reset/validate", gin.H{"token": token})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decode(t, w).Data["valid"])

	w = postJSON(t, r, "/api/password-reset/validate", gin.H{"token": "bogus"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, decode(t, w).Data["valid"])
}

func TestConfirmResetsPassword(t *testing.T) {
	r, svc, tokens := newResetRouter(t)
	token, err := svc.Issue(context.Background(), 42)
	require.NoError(t, err)

	w := postJSON(t, r, "/api/password-reset/confirm", gin.H{"token": token, "password": "newpass123"})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decode(t, w).Data["reset"])
	require.Equal(t, "hashed:newpass123", tokens.passwords[42])
	require.NotContains(t, tokens.tokens, token)
}

func TestConfirmRejectsInvalidToken(t *testing.T) {
	r, _, _ := newResetRouter(t)

	w := postJSON(t, r, "/api/password-reset/confirm", gin.H{"token": "bogus", "password": "newpass123"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, decode(t, w).Success)
}

func TestConfirmRejectsShortPassword(t *testing.T) {
	r, svc, _ := newResetRouter(t)
	token, err := svc.Issue(context.Background(), 42)
	require.NoError(t, err)

	w := postJSON(t, r, "/api/password-reset/confirm", gin.H{"token": token, "password": "short"})

	require.Equal(t, http.StatusBadRequest, w.Code)
}
