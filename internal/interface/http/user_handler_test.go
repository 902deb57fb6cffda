package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	userapp "github.com/nordveldt/userbase/internal/application"
	"github.com/nordveldt/userbase/internal/domain/entity"
	repo "github.com/nordveldt/userbase/internal/domain/repository"
	handlers "github.com/nordveldt/userbase/internal/interface/http"
	"github.com/nordveldt/userbase/internal/router/modules"
	"github.com/nordveldt/userbase/pkg/validation"
)

type userStore struct {
	repo.UserRepository

	nextID  int64
	byID    map[int64]*entity.User
	byEmail map[string]*entity.User

	lastFilter repo.SearchFilter
	lastPage   repo.Page
	found      []*entity.User
	total      int64
}

func newUserStore() *userStore {
	return &userStore{nextID: 100, byID: map[int64]*entity.User{}, byEmail: map[string]*entity.User{}}
}

func (s *userStore) Create(_ context.Context, u *entity.User) error {
	s.nextID++
	u.ID = s.nextID
	u.MarkStored()
	s.byID[u.ID] = u
	return nil
}

func (s *userStore) CreateMany(_ context.Context, users []*entity.User) ([]int64, error) {
	if len(users) == 0 {
		return nil, repo.ErrEmptyBatch
	}
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		s.nextID++
		u.ID = s.nextID
		s.byID[u.ID] = u
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (s *userStore) GetByID(_ context.Context, id int64) (*entity.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, repo.ErrNotFound
}

func (s *userStore) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	if email == "shared@example.com" {
		return nil, repo.ErrTooManyRows
	}
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, repo.ErrNotFound
}

func (s *userStore) Update(_ context.Context, u *entity.User) error {
	if _, ok := s.byID[u.ID]; !ok {
		return repo.ErrNotFound
	}
	s.byID[u.ID] = u
	return nil
}

func (s *userStore) Delete(_ context.Context, u *entity.User) error {
	if _, ok := s.byID[u.ID]; !ok {
		return repo.ErrNotFound
	}
	delete(s.byID, u.ID)
	return nil
}

func (s *userStore) Search(_ context.Context, f repo.SearchFilter, p repo.Page) ([]*entity.User, error) {
	s.lastFilter, s.lastPage = f, p
	return s.found, nil
}

func (s *userStore) SearchCount(_ context.Context, _ repo.SearchFilter) (int64, error) {
	return s.total, nil
}

func (s *userStore) GetTotalCount(_ context.Context, _ map[string]any) (int64, error) {
	return s.total, nil
}

type contactStore struct {
	repo.ContactRepository
	rows []entity.Contact
}

func (c *contactStore) CreateMany(_ context.Context, contacts []entity.Contact) error {
	c.rows = append(c.rows, contacts...)
	return nil
}

func (c *contactStore) ListByUserID(_ context.Context, userID int64) ([]entity.Contact, error) {
	out := []entity.Contact{}
	for _, r := range c.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func newUserRouter(t *testing.T) (*gin.Engine, *userStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	store := newUserStore()
	svc := userapp.NewUserService(store, &contactStore{}, nil, nil)

	r := gin.New()
	modules.NewUserModule(handlers.NewUserHandler(svc, nil)).Register(r.Group("/api"))
	return r, store
}

func get(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateUser(t *testing.T) {
	r, store := newUserRouter(t)

	w := postJSON(t, r, "/api/users", gin.H{
		"realname": "Ada Lovelace",
		"role":     "admin",
		"email":    "ada@example.com",
		"password": "secret123",
		"contacts": []gin.H{{"type": "phone", "value": "+4711111111"}},
	})

	require.Equal(t, http.StatusCreated, w.Code)
	env := decode(t, w)
	require.True(t, env.Success)
	require.Equal(t, "Ada Lovelace", env.Data["realname"])
	require.NotContains(t, env.Data, "password")
	require.Len(t, env.Data["contacts"], 2)
	require.Len(t, store.byID, 1)
}

func TestCreateUserValidation(t *testing.T) {
	r, _ := newUserRouter(t)

	w := postJSON(t, r, "/api/users", gin.H{
		"realname": "Ada Lovelace",
		"role":     "admin",
		"password": "short",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, decode(t, w).Success)
}

func TestCreateUserRejectsBadJSON(t *testing.T) {
	r, _ := newUserRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportUsers(t *testing.T) {
	r, store := newUserRouter(t)

	w := postJSON(t, r, "/api/users/import", gin.H{
		"users": []gin.H{
			{"realname": "Ada Lovelace", "role": "admin", "email": "ada@example.com"},
			{"realname": "Grace Hopper", "role": "user", "password": "secret123"},
		},
	})

	require.Equal(t, http.StatusCreated, w.Code)
	env := decode(t, w)
	require.Len(t, env.Data["ids"], 2)
	require.Len(t, store.byID, 2)
}

func TestImportRequiresUsers(t *testing.T) {
	r, _ := newUserRouter(t)

	w := postJSON(t, r, "/api/users/import", gin.H{"users": []gin.H{}})

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUser(t *testing.T) {
	r, store := newUserRouter(t)
	store.byID[7] = &entity.User{ID: 7, Realname: "Ada Lovelace", Role: "admin"}

	w := get(t, r, "/api/users/7")

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Ada Lovelace", decode(t, w).Data["realname"])
}

func TestGetUserNotFound(t *testing.T) {
	r, _ := newUserRouter(t)
	require.Equal(t, http.StatusNotFound, get(t, r, "/api/users/999").Code)
}

func TestGetUserBadID(t *testing.T) {
	r, _ := newUserRouter(t)
	require.Equal(t, http.StatusBadRequest, get(t, r, "/api/users/abc").Code)
	require.Equal(t, http.StatusBadRequest, get(t, r, "/api/users/-1").Code)
}

func TestGetUserByEmail(t *testing.T) {
	r, store := newUserRouter(t)
	store.byEmail["ada@example.com"] = &entity.User{ID: 7, Realname: "Ada Lovelace"}

	require.Equal(t, http.StatusOK, get(t, r, "/api/users/by-email?email=ada@example.com").Code)
	require.Equal(t, http.StatusNotFound, get(t, r, "/api/users/by-email?email=ghost@example.com").Code)
	require.Equal(t, http.StatusBadRequest, get(t, r, "/api/users/by-email").Code)
}

func TestGetUserByEmailAmbiguous(t *testing.T) {
	r, _ := newUserRouter(t)
	require.Equal(t, http.StatusConflict, get(t, r, "/api/users/by-email?email=shared@example.com").Code)
}

func TestUpdateUser(t *testing.T) {
	r, store := newUserRouter(t)
	u := &entity.User{ID: 7, Realname: "Ada Lovelace", Role: "user"}
	u.MarkStored()
	store.byID[7] = u

	req := httptest.NewRequest(http.MethodPut, "/api/users/7", strings.NewReader(`{"role":"admin"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "admin", decode(t, w).Data["role"])
	require.Equal(t, "admin", store.byID[7].Role)
}

func TestDeleteUser(t *testing.T) {
	r, store := newUserRouter(t)
	store.byID[7] = &entity.User{ID: 7, Realname: "Ada Lovelace"}

	req := httptest.NewRequest(http.MethodDelete, "/api/users/7", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decode(t, w).Data["deleted"])
	require.Empty(t, store.byID)

	req = httptest.NewRequest(http.MethodDelete, "/api/users/7", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUsers(t *testing.T) {
	r, store := newUserRouter(t)
	store.found = []*entity.User{{ID: 1, Realname: "Ada Lovelace", Role: "admin"}}
	store.total = 23

	w := get(t, r, "/api/users?q=ada&role=admin,superuser&limit=10&offset=20")

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, repo.SearchFilter{Query: "ada", Roles: []string{"admin", "superuser"}}, store.lastFilter)
	require.Equal(t, repo.Page{Limit: 10, Offset: 20}, store.lastPage)

	var body struct {
		Data []map[string]any `json:"data"`
		Meta map[string]any   `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, float64(23), body.Meta["total"])
	require.Equal(t, float64(10), body.Meta["limit"])
	require.Equal(t, float64(20), body.Meta["offset"])
}

func TestCountUsers(t *testing.T) {
	r, store := newUserRouter(t)
	store.total = 9

	w := get(t, r, "/api/users/count?role=admin")

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(9), decode(t, w).Data["total"])
}
