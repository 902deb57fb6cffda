package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/nordveldt/userbase/internal/domain/entity"
	"github.com/nordveldt/userbase/internal/domain/repository"
	"github.com/nordveldt/userbase/internal/events"
)

// UserRepository persists the user aggregate. Contacts are read through the
// narrow contact port and written only by the bulk-create fan-out; user rows
// never embed contact state.
type UserRepository struct {
	pool      *pgxpool.Pool
	contacts  repository.ContactAccess
	hasher    repository.PasswordHasher
	notifier  repository.RoleChangeNotifier
	adminRole string
	log       *logrus.Logger
	now       func() time.Time
}

func NewUserRepository(
	pool *pgxpool.Pool,
	contacts repository.ContactAccess,
	hasher repository.PasswordHasher,
	notifier repository.RoleChangeNotifier,
	adminRole string,
	log *logrus.Logger,
) *UserRepository {
	return &UserRepository{
		pool:      pool,
		contacts:  contacts,
		hasher:    hasher,
		notifier:  notifier,
		adminRole: adminRole,
		log:       log,
		now:       time.Now,
	}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Realname, &u.Role, &u.Email, &u.Password,
		&u.Created, &u.Updated); err != nil {
		return nil, err
	}
	u.MarkStored()
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, realname, role, email, password, created, updated
		FROM users
		WHERE id = $1
	`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if err := r.hydrate(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByEmail resolves the owner of an email contact. The join may fan out
// when several contact rows carry the address, so matches are collapsed per
// user and exactly one user must remain.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT users.id, users.realname, users.role, users.email, users.password, users.created, users.updated
		FROM users
		JOIN contacts ON contacts.user_id = users.id
		WHERE contacts.type = $1 AND contacts.contact = $2
	`, entity.TypeEmail, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var u *entity.User
	for rows.Next() {
		if u != nil {
			return nil, repository.ErrTooManyRows
		}
		if u, err = scanUser(rows); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if u == nil {
		return nil, repository.ErrNotFound
	}
	if err := r.hydrate(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	hash, err := r.hasher.Hash(u.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.Password = hash

	if err := r.insert(ctx, u); err != nil {
		return err
	}
	r.notifyIfAdmin(ctx, events.UserCreated, u)
	return nil
}

func (r *UserRepository) CreateWithHash(ctx context.Context, u *entity.User) error {
	if err := r.insert(ctx, u); err != nil {
		return err
	}
	r.notifyIfAdmin(ctx, events.UserCreated, u)
	return nil
}

func (r *UserRepository) insert(ctx context.Context, u *entity.User) error {
	now := r.now().UTC()
	u.Created = now
	u.Updated = now

	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (realname, role, email, password, created, updated)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, u.Realname, u.Role, u.Email, u.Password, u.Created, u.Updated).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.MarkStored()
	return nil
}

// CreateMany inserts the batch in a single multi-row statement and reads
// every generated id back through RETURNING, in insertion order. Users and
// contacts commit independently; a failure between the two statements leaves
// users without their contacts.
func (r *UserRepository) CreateMany(ctx context.Context, users []*entity.User) ([]int64, error) {
	if len(users) == 0 {
		return nil, repository.ErrEmptyBatch
	}

	cols := batchColumns(users[0])
	stamp := r.now().UTC()
	for _, u := range users {
		if u.Password != "" {
			hash, err := r.hasher.Hash(u.Password)
			if err != nil {
				return nil, fmt.Errorf("hash password: %w", err)
			}
			u.Password = hash
		}
		u.Created = stamp
		u.Updated = stamp
	}

	ins := psql.Insert("users").Columns(cols...).Suffix("RETURNING id")
	for _, u := range users {
		attrs := u.Attributes()
		vals := make([]any, len(cols))
		for i, c := range cols {
			vals[i] = attrs[c]
		}
		ins = ins.Values(vals...)
	}
	sqlStr, args, err := ins.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build bulk insert: %w", err)
	}

	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("bulk insert users: %w", err)
	}
	ids := make([]int64, 0, len(users))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) != len(users) {
		return nil, fmt.Errorf("bulk insert returned %d ids for %d users", len(ids), len(users))
	}

	contacts := collectContacts(users, ids)
	if len(contacts) > 0 {
		if err := r.contacts.CreateMany(ctx, contacts); err != nil {
			return nil, fmt.Errorf("insert contacts: %w", err)
		}
	}

	for _, u := range users {
		r.notifyIfAdmin(ctx, events.UserCreated, u)
	}
	return ids, nil
}

// batchColumns derives the insert column list from the first entity of a
// batch, sorted so the generated statement is stable.
func batchColumns(u *entity.User) []string {
	attrs := u.Attributes()
	cols := make([]string, 0, len(attrs))
	for c := range attrs {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// collectContacts zips generated ids with the batch positionally, rewrites
// each entity's contacts with the resolved owner id and flattens them into
// one slice for the contact store.
func collectContacts(users []*entity.User, ids []int64) []entity.Contact {
	var out []entity.Contact
	for i, u := range users {
		u.ID = ids[i]
		u.MarkStored()
		for j := range u.Contacts {
			u.Contacts[j].UserID = u.ID
		}
		out = append(out, u.Contacts...)
	}
	return out
}

// Update writes the attributes changed since the entity was loaded. The
// updated stamp is always among them, so even a clean entity touches its
// row. The password is re-hashed only when it is part of the diff.
func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	changed := u.Changed()

	if pw, ok := changed[entity.ColPassword]; ok {
		if plain, _ := pw.(string); plain != "" {
			hash, err := r.hasher.Hash(plain)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			u.Password = hash
			changed[entity.ColPassword] = hash
		}
	}

	u.Updated = r.now().UTC()
	changed[entity.ColUpdated] = u.Updated

	sqlStr, args, err := psql.Update("users").
		SetMap(changed).
		Where(sq.Eq{"id": u.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	u.MarkStored()
	r.notifyIfAdmin(ctx, events.UserUpdated, u)
	return nil
}

// Delete notifies before removing the row, mirroring the write path order
// for deletions. Contact rows follow through the FK cascade.
func (r *UserRepository) Delete(ctx context.Context, u *entity.User) error {
	r.notifyIfAdmin(ctx, events.UserDeleted, u)

	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, u.ID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Search(ctx context.Context, filter repository.SearchFilter, page repository.Page) ([]*entity.User, error) {
	sqlStr, args, err := searchQuery(filter, page).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search: %w", err)
	}
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) SearchCount(ctx context.Context, filter repository.SearchFilter) (int64, error) {
	sqlStr, args, err := searchCountQuery(filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build search count: %w", err)
	}
	var n int64
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// GetTotalCount counts users matching the optional equality filters. Filter
// keys are written into the statement verbatim, so they are checked against
// the known column set first.
func (r *UserRepository) GetTotalCount(ctx context.Context, filters map[string]any) (int64, error) {
	q := psql.Select("COUNT(*)").From("users")
	if len(filters) > 0 {
		for col := range filters {
			if !validFilterColumn(col) {
				return 0, fmt.Errorf("unknown filter column %q", col)
			}
		}
		q = q.Where(sq.Eq(filters))
	}
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var n int64
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func validFilterColumn(col string) bool {
	switch col {
	case "id", entity.ColRealname, entity.ColRole, entity.ColEmail, entity.ColCreated, entity.ColUpdated:
		return true
	}
	return false
}

func (r *UserRepository) hydrate(ctx context.Context, u *entity.User) error {
	contacts, err := r.contacts.ListByUserID(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("hydrate contacts: %w", err)
	}
	u.Contacts = contacts
	return nil
}

// notifyIfAdmin emits a lifecycle event when the user currently holds the
// administrative role. Delivery is fire and forget: failures are logged,
// never surfaced into the persistence result.
func (r *UserRepository) notifyIfAdmin(ctx context.Context, name string, u *entity.User) {
	if r.notifier == nil || u.Role != r.adminRole {
		return
	}
	if err := r.notifier.Notify(ctx, events.NewUserEvent(name, u)); err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"event":   name,
			"user_id": u.ID,
		}).Warn("role change notification failed")
	}
}

var _ repository.UserRepository = (*UserRepository)(nil)
