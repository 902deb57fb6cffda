package application

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nordveldt/userbase/internal/domain/entity"
	repo "github.com/nordveldt/userbase/internal/domain/repository"
	"github.com/nordveldt/userbase/pkg/helpers"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

// viewTTL bounds how long a cached user view can lag behind the store.
const viewTTL = 15 * time.Minute

// UserService orchestrates account use cases over the aggregate repository.
// Redis holds a short-lived read view per user; it is refreshed on writes
// and is never consulted by flows that mutate the entity.
type UserService struct {
	Repo     repo.UserRepository
	Contacts repo.ContactRepository
	Redis    *redis.Client
	Logger   *logrus.Logger
}

func NewUserService(r repo.UserRepository, contacts repo.ContactRepository, rdb *redis.Client, logger *logrus.Logger) *UserService {
	return &UserService{
		Repo:     r,
		Contacts: contacts,
		Redis:    rdb,
		Logger:   logger,
	}
}

// UserView is the outward account shape. Password hashes stay behind the
// repository.
type UserView struct {
	ID       int64         `json:"id"`
	Realname string        `json:"realname"`
	Role     string        `json:"role"`
	Email    string        `json:"email"`
	Created  time.Time     `json:"created"`
	Updated  time.Time     `json:"updated"`
	Contacts []ContactView `json:"contacts"`
}

type ContactView struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func NewUserView(u *entity.User) *UserView {
	v := &UserView{
		ID:       u.ID,
		Realname: u.Realname,
		Role:     u.Role,
		Email:    u.Email,
		Created:  u.Created,
		Updated:  u.Updated,
		Contacts: make([]ContactView, 0, len(u.Contacts)),
	}
	for _, c := range u.Contacts {
		v.Contacts = append(v.Contacts, ContactView{Type: c.Type, Value: c.Value})
	}
	return v
}

type ContactInput struct {
	Type  string
	Value string
}

type RegisterInput struct {
	Realname string
	Role     string
	Email    string
	Password string
	Contacts []ContactInput
}

// Register creates the account and its contact rows. The account email is
// mirrored into an email contact unless the caller supplied it explicitly,
// so email lookups resolve for every registered user.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	u := &entity.User{
		Realname: in.Realname,
		Role:     in.Role,
		Email:    in.Email,
		Password: in.Password,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}

	contacts := contactRows(u.ID, in.Email, in.Contacts)
	if len(contacts) > 0 {
		if err := s.Contacts.CreateMany(ctx, contacts); err != nil {
			return nil, err
		}
		u.Contacts = contacts
	}
	s.cacheView(ctx, u)
	return u, nil
}

func contactRows(userID int64, email string, in []ContactInput) []entity.Contact {
	out := make([]entity.Contact, 0, len(in)+1)
	if email != "" && !hasEmailContact(in, email) {
		out = append(out, entity.Contact{UserID: userID, Type: entity.TypeEmail, Value: email})
	}
	for _, c := range in {
		out = append(out, entity.Contact{UserID: userID, Type: c.Type, Value: c.Value})
	}
	return out
}

func hasEmailContact(in []ContactInput, email string) bool {
	for _, c := range in {
		if c.Type == entity.TypeEmail && c.Value == email {
			return true
		}
	}
	return false
}

// Import bulk-creates accounts with their contacts in one batch, returning
// assigned ids in input order. Passwords arrive plaintext; the batch path
// hashes them. Owner ids on the contact rows are resolved by the fan-out.
func (s *UserService) Import(ctx context.Context, ins []RegisterInput) ([]int64, error) {
	users := make([]*entity.User, 0, len(ins))
	for _, in := range ins {
		u := &entity.User{
			Realname: in.Realname,
			Role:     in.Role,
			Email:    in.Email,
			Password: in.Password,
		}
		u.Contacts = contactRows(0, in.Email, in.Contacts)
		users = append(users, u)
	}
	return s.Repo.CreateMany(ctx, users)
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// GetUserView serves reads through the redis view cache, falling back to
// the store and refilling on miss.
func (s *UserService) GetUserView(ctx context.Context, id int64) (*UserView, error) {
	if s.Redis != nil {
		var v UserView
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, viewKey(id), &v); err == nil && ok {
			return &v, nil
		}
	}
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheView(ctx, u)
	return NewUserView(u), nil
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

type UpdateUserInput struct {
	Realname string
	Role     string
	Email    string
	Password string
}

// UpdateUser loads the entity fresh, applies the non-empty fields and saves.
// Unchanged fields never reach the store; the dirty diff sees to that.
func (s *UserService) UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (*entity.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Realname != "" {
		u.Realname = in.Realname
	}
	if in.Role != "" {
		u.Role = in.Role
	}
	if in.Email != "" {
		u.Email = in.Email
	}
	if in.Password != "" {
		u.Password = in.Password
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.cacheView(ctx, u)
	return u, nil
}

func (s *UserService) RemoveUser(ctx context.Context, id int64) error {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, u); err != nil {
		return err
	}
	s.dropView(ctx, id)
	return nil
}

// SearchResult pairs a page of views with the unpaged total, so clients can
// page without a second request.
type SearchResult struct {
	Items  []*UserView `json:"items"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

func (s *UserService) SearchUsers(ctx context.Context, filter repo.SearchFilter, page repo.Page) (*SearchResult, error) {
	page = page.Normalize()
	users, err := s.Repo.Search(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	total, err := s.Repo.SearchCount(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]*UserView, 0, len(users))
	for _, u := range users {
		items = append(items, NewUserView(u))
	}
	return &SearchResult{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (s *UserService) Count(ctx context.Context, filters map[string]any) (int64, error) {
	return s.Repo.GetTotalCount(ctx, filters)
}

func viewKey(id int64) string {
	return "user:view:" + strconv.FormatInt(id, 10)
}

func (s *UserService) cacheView(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisSetJSON(ctx, s.Redis, viewKey(u.ID), NewUserView(u), viewTTL); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("key", viewKey(u.ID)).Warn("view cache write failed")
	}
}

func (s *UserService) dropView(ctx context.Context, id int64) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, viewKey(id)); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("key", viewKey(id)).Warn("view cache delete failed")
	}
}
