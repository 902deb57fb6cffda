package postgres

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/nordveldt/userbase/internal/domain/repository"
)

// psql builds statements with PostgreSQL positional placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// searchPredicate turns a filter into a predicate tree. Absent fields
// contribute no clause; present fields combine with AND. The boolean reports
// whether any clause was produced.
func searchPredicate(f repository.SearchFilter) (sq.Sqlizer, bool) {
	var and sq.And
	if f.Query != "" {
		pattern := "%" + f.Query + "%"
		and = append(and, sq.Or{
			sq.ILike{"users.realname": pattern},
			sq.ILike{"contacts.contact": pattern},
		})
	}
	if len(f.Roles) > 0 {
		and = append(and, sq.Eq{"users.role": f.Roles})
	}
	if len(and) == 0 {
		return nil, false
	}
	return and, true
}

// searchQuery is the default list query. It LEFT JOINs contacts so a contact
// predicate never excludes users without contacts, collapses the join
// fan-out with DISTINCT and orders by id for stable pages.
func searchQuery(f repository.SearchFilter, page repository.Page) sq.SelectBuilder {
	page = page.Normalize()
	q := psql.
		Select("users.id", "users.realname", "users.role", "users.email", "users.password", "users.created", "users.updated").
		Distinct().
		From("users").
		LeftJoin("contacts ON contacts.user_id = users.id").
		OrderBy("users.id").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset))
	if pred, ok := searchPredicate(f); ok {
		q = q.Where(pred)
	}
	return q
}

// searchCountQuery counts the users a filter matches, sharing the predicate
// tree with searchQuery so list and total can never disagree.
func searchCountQuery(f repository.SearchFilter) sq.SelectBuilder {
	q := psql.
		Select("COUNT(DISTINCT users.id)").
		From("users").
		LeftJoin("contacts ON contacts.user_id = users.id")
	if pred, ok := searchPredicate(f); ok {
		q = q.Where(pred)
	}
	return q
}
