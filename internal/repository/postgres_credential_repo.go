package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/beluga/internal/database"
	"github.com/hitoshi/beluga/internal/model"
)

// PostgresLoginCredentialRepo はPostgreSQLを使用したログイン資格情報リポジトリ。
type PostgresLoginCredentialRepo struct {
	db database.DBTX
}

// NewPostgresLoginCredentialRepo はPostgresLoginCredentialRepoを生成する。
func NewPostgresLoginCredentialRepo(db database.DBTX) *PostgresLoginCredentialRepo {
	return &PostgresLoginCredentialRepo{db: db}
}

// FindByUserID はユーザーの資格情報を取得する。見つからない場合はnilを返す。
func (r *PostgresLoginCredentialRepo) FindByUserID(ctx context.Context, userID int64) (*model.LoginCredential, error) {
	c := &model.LoginCredential{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, password_hash, created_at FROM login_credentials WHERE user_id = $1`,
		userID,
	).Scan(&c.UserID, &c.PasswordHash, &c.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find login credential: %w", err)
	}
	return c, nil
}

// Add は資格情報を追加する。
func (r *PostgresLoginCredentialRepo) Add(ctx context.Context, c *model.LoginCredential) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_credentials (user_id, password_hash, created_at) VALUES ($1, $2, $3)`,
		c.UserID, c.PasswordHash, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert login credential: %w", err)
	}
	return nil
}

// Update は資格情報を丸ごと置き換える。
func (r *PostgresLoginCredentialRepo) Update(ctx context.Context, c *model.LoginCredential) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE login_credentials SET password_hash = $2, created_at = $3 WHERE user_id = $1`,
		c.UserID, c.PasswordHash, c.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update login credential: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Delete は資格情報を削除する。
func (r *PostgresLoginCredentialRepo) Delete(ctx context.Context, c *model.LoginCredential) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM login_credentials WHERE user_id = $1`,
		c.UserID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete login credential: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ LoginCredentialRepository = (*PostgresLoginCredentialRepo)(nil)
