package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/beluga/internal/database"
)

// PostgresTransactor はPostgreSQLトランザクションに束縛したリポジトリでfnを実行する。
type PostgresTransactor struct {
	db *sql.DB
}

// NewPostgresTransactor はPostgresTransactorを生成する。
func NewPostgresTransactor(db *sql.DB) *PostgresTransactor {
	return &PostgresTransactor{db: db}
}

// WithinTransaction はトランザクションを開始し、fnがエラーを返した場合はロールバックする。
func (t *PostgresTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return database.WithTx(ctx, t.db, nil, func(ctx context.Context, tx database.DBTX) error {
		return fn(ctx, Repositories{
			Users:            NewPostgresUserRepo(tx),
			LoginCredentials: NewPostgresLoginCredentialRepo(tx),
		})
	})
}

// compile-time interface check
var _ Transactor = (*PostgresTransactor)(nil)
