package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nordveldt/userbase/internal/domain/entity"
	repo "github.com/nordveldt/userbase/internal/domain/repository"
)

type stubUserRepo struct {
	repo.UserRepository

	nextID  int64
	byID    map[int64]*entity.User
	byEmail map[string]*entity.User

	createdMany [][]*entity.User
	updated     []*entity.User
	deleted     []int64

	searchResult []*entity.User
	searchCount  int64
	searchPage   repo.Page
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{nextID: 100, byID: map[int64]*entity.User{}, byEmail: map[string]*entity.User{}}
}

func (s *stubUserRepo) Create(_ context.Context, u *entity.User) error {
	s.nextID++
	u.ID = s.nextID
	u.MarkStored()
	s.byID[u.ID] = u
	return nil
}

func (s *stubUserRepo) CreateMany(_ context.Context, users []*entity.User) ([]int64, error) {
	if len(users) == 0 {
		return nil, repo.ErrEmptyBatch
	}
	s.createdMany = append(s.createdMany, users)
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		s.nextID++
		u.ID = s.nextID
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (s *stubUserRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, repo.ErrNotFound
}

func (s *stubUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, repo.ErrNotFound
}

func (s *stubUserRepo) Update(_ context.Context, u *entity.User) error {
	s.updated = append(s.updated, u)
	return nil
}

func (s *stubUserRepo) Delete(_ context.Context, u *entity.User) error {
	s.deleted = append(s.deleted, u.ID)
	delete(s.byID, u.ID)
	return nil
}

func (s *stubUserRepo) Search(_ context.Context, _ repo.SearchFilter, page repo.Page) ([]*entity.User, error) {
	s.searchPage = page
	return s.searchResult, nil
}

func (s *stubUserRepo) SearchCount(_ context.Context, _ repo.SearchFilter) (int64, error) {
	return s.searchCount, nil
}

func (s *stubUserRepo) GetTotalCount(_ context.Context, _ map[string]any) (int64, error) {
	return s.searchCount, nil
}

type stubContactRepo struct {
	repo.ContactRepository
	createdMany [][]entity.Contact
}

func (s *stubContactRepo) CreateMany(_ context.Context, contacts []entity.Contact) error {
	s.createdMany = append(s.createdMany, contacts)
	return nil
}

func (s *stubContactRepo) ListByUserID(_ context.Context, _ int64) ([]entity.Contact, error) {
	return []entity.Contact{}, nil
}

func newUserService() (*UserService, *stubUserRepo, *stubContactRepo) {
	users := newStubUserRepo()
	contacts := &stubContactRepo{}
	return NewUserService(users, contacts, nil, nil), users, contacts
}

func TestRegisterMirrorsEmailContact(t *testing.T) {
	svc, _, contacts := newUserService()

	u, err := svc.Register(context.Background(), RegisterInput{
		Realname: "Ada Lovelace",
		Role:     "admin",
		Email:    "ada@example.com",
		Password: "secret123",
		Contacts: []ContactInput{{Type: "phone", Value: "+4711111111"}},
	})

	require.NoError(t, err)
	require.NotZero(t, u.ID)
	require.Len(t, contacts.createdMany, 1)

	rows := contacts.createdMany[0]
	require.Len(t, rows, 2)
	require.Equal(t, entity.TypeEmail, rows[0].Type)
	require.Equal(t, "ada@example.com", rows[0].Value)
	require.Equal(t, u.ID, rows[0].UserID)
	require.Equal(t, "phone", rows[1].Type)
	require.Equal(t, rows, u.Contacts)
}

func TestRegisterDoesNotDuplicateExplicitEmailContact(t *testing.T) {
	svc, _, contacts := newUserService()

	_, err := svc.Register(context.Background(), RegisterInput{
		Realname: "Ada Lovelace",
		Role:     "user",
		Email:    "ada@example.com",
		Password: "secret123",
		Contacts: []ContactInput{{Type: entity.TypeEmail, Value: "ada@example.com"}},
	})

	require.NoError(t, err)
	require.Len(t, contacts.createdMany, 1)
	require.Len(t, contacts.createdMany[0], 1)
}

func TestRegisterWithoutContacts(t *testing.T) {
	svc, _, contacts := newUserService()

	u, err := svc.Register(context.Background(), RegisterInput{
		Realname: "Ada Lovelace",
		Role:     "user",
		Password: "secret123",
	})

	require.NoError(t, err)
	require.Empty(t, contacts.createdMany)
	require.Empty(t, u.Contacts)
}

func TestImportBuildsBatchWithContacts(t *testing.T) {
	svc, users, _ := newUserService()

	ids, err := svc.Import(context.Background(), []RegisterInput{
		{Realname: "Ada Lovelace", Role: "admin", Email: "ada@example.com", Password: "secret123"},
		{Realname: "Grace Hopper", Role: "user"},
	})

	require.NoError(t, err)
	require.Len(t, ids, 2)
	require.Len(t, users.createdMany, 1)

	batch := users.createdMany[0]
	require.Len(t, batch, 2)
	require.Equal(t, "Ada Lovelace", batch[0].Realname)
	require.Equal(t, "secret123", batch[0].Password)
	require.Len(t, batch[0].Contacts, 1)
	require.Equal(t, entity.TypeEmail, batch[0].Contacts[0].Type)
	require.Empty(t, batch[1].Contacts)
	require.Empty(t, batch[1].Password)
}

func TestGetUserNotFound(t *testing.T) {
	svc, _, _ := newUserService()

	_, err := svc.GetUser(context.Background(), 999)

	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUserByEmailMapsNotFound(t *testing.T) {
	svc, _, _ := newUserService()

	_, err := svc.GetUserByEmail(context.Background(), "ghost@example.com")

	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUserByEmailPropagatesAmbiguity(t *testing.T) {
	users := newStubUserRepo()
	svc := NewUserService(&ambiguousEmailRepo{stubUserRepo: users}, &stubContactRepo{}, nil, nil)

	_, err := svc.GetUserByEmail(context.Background(), "shared@example.com")

	require.ErrorIs(t, err, repo.ErrTooManyRows)
}

type ambiguousEmailRepo struct{ *stubUserRepo }

func (a *ambiguousEmailRepo) GetByEmail(_ context.Context, _ string) (*entity.User, error) {
	return nil, repo.ErrTooManyRows
}

func TestUpdateUserAppliesOnlyProvidedFields(t *testing.T) {
	svc, users, _ := newUserService()
	u := &entity.User{ID: 7, Realname: "Ada Lovelace", Role: "user", Email: "ada@example.com"}
	u.MarkStored()
	users.byID[7] = u

	out, err := svc.UpdateUser(context.Background(), 7, UpdateUserInput{Role: "admin"})

	require.NoError(t, err)
	require.Equal(t, "admin", out.Role)
	require.Equal(t, "Ada Lovelace", out.Realname)
	require.Equal(t, "ada@example.com", out.Email)
	require.Len(t, users.updated, 1)
	require.Same(t, u, users.updated[0])
}

func TestUpdateUserNotFound(t *testing.T) {
	svc, _, _ := newUserService()

	_, err := svc.UpdateUser(context.Background(), 999, UpdateUserInput{Realname: "Nobody"})

	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestRemoveUser(t *testing.T) {
	svc, users, _ := newUserService()
	u := &entity.User{ID: 7, Realname: "Ada Lovelace"}
	users.byID[7] = u

	require.NoError(t, svc.RemoveUser(context.Background(), 7))
	require.Equal(t, []int64{7}, users.deleted)

	err := svc.RemoveUser(context.Background(), 7)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestSearchUsersNormalizesAndConverts(t *testing.T) {
	svc, users, _ := newUserService()
	users.searchResult = []*entity.User{
		{ID: 1, Realname: "Ada Lovelace", Role: "admin", Password: "hash"},
		{ID: 2, Realname: "Grace Hopper", Role: "user", Password: "hash"},
	}
	users.searchCount = 17

	res, err := svc.SearchUsers(context.Background(), repo.SearchFilter{Query: "a"}, repo.Page{})

	require.NoError(t, err)
	require.Equal(t, repo.Page{Limit: 50, Offset: 0}, users.searchPage)
	require.Equal(t, int64(17), res.Total)
	require.Equal(t, 50, res.Limit)
	require.Len(t, res.Items, 2)
	require.Equal(t, "Ada Lovelace", res.Items[0].Realname)
}
