package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/herdirudian/pressflow/internal/domain"
	"github.com/herdirudian/pressflow/internal/ports"
)

// AccountRepository reads external publishing accounts from Postgres.
type AccountRepository struct {
	db *sql.DB
}

var _ ports.AccountRepository = (*AccountRepository)(nil)

// NewAccountRepository wires a sql.DB implementation.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// ListActive returns active accounts in creation order. The order is the
// documented tie-break for category matching: first match wins.
func (r *AccountRepository) ListActive(ctx context.Context) ([]domain.ExternalAccount, error) {
	query, args, err := psql.Select(
		"id", "name", "api_url", "username", "password",
		"category", "is_active", "created_at",
	).
		From("external_accounts").
		Where(sq.Eq{"is_active": true}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.ExternalAccount
	for rows.Next() {
		var (
			account  domain.ExternalAccount
			category sql.NullString
		)
		err := rows.Scan(
			&account.ID, &account.Name, &account.APIURL,
			&account.Username, &account.Password,
			&category, &account.IsActive, &account.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		account.Category = fromNullString(category)
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return accounts, nil
}
