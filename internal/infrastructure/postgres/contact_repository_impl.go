package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nordveldt/userbase/internal/domain/entity"
	"github.com/nordveldt/userbase/internal/domain/repository"
)

// ContactRepository persists contact rows. It doubles as the narrow reader
// the user repository hydrates through.
type ContactRepository struct {
	pool *pgxpool.Pool
}

func NewContactRepository(pool *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

func (r *ContactRepository) Create(ctx context.Context, c *entity.Contact) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO contacts (user_id, type, contact)
		VALUES ($1, $2, $3)
		RETURNING id
	`, c.UserID, c.Type, c.Value).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

func (r *ContactRepository) CreateMany(ctx context.Context, contacts []entity.Contact) error {
	if len(contacts) == 0 {
		return nil
	}
	ins := psql.Insert("contacts").Columns("user_id", "type", "contact")
	for _, c := range contacts {
		ins = ins.Values(c.UserID, c.Type, c.Value)
	}
	sqlStr, args, err := ins.ToSql()
	if err != nil {
		return fmt.Errorf("build contact insert: %w", err)
	}
	if _, err := r.pool.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("insert contacts: %w", err)
	}
	return nil
}

func (r *ContactRepository) ListByUserID(ctx context.Context, userID int64) ([]entity.Contact, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, type, contact
		FROM contacts
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []entity.Contact{}
	for rows.Next() {
		var c entity.Contact
		if err := rows.Scan(&c.ID, &c.UserID, &c.Type, &c.Value); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (r *ContactRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete contacts: %w", err)
	}
	return nil
}

var _ repository.ContactRepository = (*ContactRepository)(nil)
