package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/beluga/internal/database"
	"github.com/hitoshi/beluga/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反のSQLSTATE。
const uniqueViolation = "23505"

// usersNameConstraint はusers.nameの一意制約名。
const usersNameConstraint = "users_name_key"

const userColumns = `id, name, display_name, registration_ip_address, trust_level, COALESCE(twitter_user_id, ''), created_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
// *sql.DB と *sql.Tx のどちらにも束縛できる。
type PostgresUserRepo struct {
	db database.DBTX
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db database.DBTX) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	user := &model.User{}
	var trustLevel string
	if err := row.Scan(
		&user.ID, &user.Name, &user.DisplayName, &user.RegistrationIPAddress,
		&trustLevel, &user.TwitterUserID, &user.CreatedAt,
	); err != nil {
		return nil, err
	}
	user.TrustLevel = model.TrustLevel(trustLevel)
	return user, nil
}

func (r *PostgresUserRepo) findOne(ctx context.Context, where string, arg any) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where,
		arg,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := r.findOne(ctx, "id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByName はユーザー名が完全一致するユーザーを取得する。
func (r *PostgresUserRepo) FindByName(ctx context.Context, name string) (*model.User, error) {
	user, err := r.findOne(ctx, "name = $1", name)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by name: %w", err)
	}
	return user, nil
}

// FindByTwitterUserID はTwitterのユーザーIDでユーザーを検索する。
func (r *PostgresUserRepo) FindByTwitterUserID(ctx context.Context, twitterUserID string) (*model.User, error) {
	user, err := r.findOne(ctx, "twitter_user_id = $1", twitterUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by twitter user ID: %w", err)
	}
	return user, nil
}

// FindByRegistrationIPAddress は指定IPアドレスから登録されたユーザー一覧を取得する。
// 並び替えキーはホワイトリストで検証し、未知の値はcreated_atとして扱う。
func (r *PostgresUserRepo) FindByRegistrationIPAddress(
	ctx context.Context,
	ipAddress string,
	sortBy SortBy,
	sortOrder model.SortOrder,
) ([]*model.User, error) {
	column := "created_at"
	if sortBy == SortByID {
		column = "id"
	}
	direction := "DESC"
	if sortOrder == model.SortOrderAscending {
		direction = "ASC"
	}

	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE registration_ip_address = $1 ORDER BY %s %s`,
			userColumns, column, direction),
		ipAddress,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by registration ip address: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// Add はユーザーを追加して採番されたIDを返す。
// users.nameの一意制約違反はErrUserNameConflictに変換する。
func (r *PostgresUserRepo) Add(ctx context.Context, user *model.User) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (name, display_name, registration_ip_address, trust_level, twitter_user_id, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		 RETURNING id`,
		user.Name, user.DisplayName, user.RegistrationIPAddress, string(user.TrustLevel),
		user.TwitterUserID, user.CreatedAt,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation && pqErr.Constraint == usersNameConstraint {
			return 0, ErrUserNameConflict
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

// Delete は指定IDのユーザーを削除する。
// 関連するlogin_credentialsとmessagesはCASCADE削除される。
func (r *PostgresUserRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
