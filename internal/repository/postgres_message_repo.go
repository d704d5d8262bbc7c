package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/beluga/internal/database"
	"github.com/hitoshi/beluga/internal/model"
)

const messageColumns = `id, channel_id, user_id, text, thread_id, favorite_count, like_count, reply_count, created_at`

// PostgresMessageRepo はPostgreSQLを使用したメッセージリポジトリ。
// チャンネルとスレッドのタイムライン取得を提供する。
type PostgresMessageRepo struct {
	db database.DBTX
}

// NewPostgresMessageRepo はPostgresMessageRepoを生成する。
func NewPostgresMessageRepo(db database.DBTX) *PostgresMessageRepo {
	return &PostgresMessageRepo{db: db}
}

func scanMessage(row rowScanner) (*model.Message, error) {
	m := &model.Message{}
	var threadID sql.NullInt64
	if err := row.Scan(
		&m.ID, &m.ChannelID, &m.UserID, &m.Text, &threadID,
		&m.FavoriteCount, &m.LikeCount, &m.ReplyCount, &m.CreatedAt,
	); err != nil {
		return nil, err
	}
	if threadID.Valid {
		id := threadID.Int64
		m.ThreadID = &id
	}
	return m, nil
}

// FindByID は指定IDのメッセージを取得する。見つからない場合はnilを返す。
func (r *PostgresMessageRepo) FindByID(ctx context.Context, id int64) (*model.Message, error) {
	m, err := scanMessage(r.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find message: %w", err)
	}
	return m, nil
}

// ChannelTimeline はチャンネルタイムライン用のビューを返す。
func (r *PostgresMessageRepo) ChannelTimeline() ChannelTimelineQueryRepository {
	return channelTimeline{r}
}

// ThreadTimeline はスレッドタイムライン用のビューを返す。
func (r *PostgresMessageRepo) ThreadTimeline() ThreadTimelineQueryRepository {
	return threadTimeline{r}
}

type channelTimeline struct{ r *PostgresMessageRepo }

func (t channelTimeline) ListMessage(ctx context.Context, channelID int64, params TimelineParams) ([]*model.Message, error) {
	return t.r.list(ctx, "channel_id = $1 AND thread_id IS NULL", channelID, params)
}

type threadTimeline struct{ r *PostgresMessageRepo }

func (t threadTimeline) ListMessage(ctx context.Context, threadID int64, params TimelineParams) ([]*model.Message, error) {
	return t.r.list(ctx, "thread_id = $1", threadID, params)
}

// list はカーソル条件と並び順を付与してメッセージ一覧を取得する。
// SinceIDが指定されていればMaxIDは無視する。
func (r *PostgresMessageRepo) list(ctx context.Context, where string, key int64, params TimelineParams) ([]*model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE ` + where
	args := []any{key}
	argIndex := 2

	switch {
	case params.SinceID != 0:
		query += fmt.Sprintf(" AND id > $%d", argIndex)
		args = append(args, params.SinceID)
		argIndex++
	case params.MaxID != 0:
		query += fmt.Sprintf(" AND id < $%d", argIndex)
		args = append(args, params.MaxID)
		argIndex++
	}

	direction := "DESC"
	if params.SortOrder == model.SortOrderAscending {
		direction = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY created_at %s, id %s LIMIT $%d", direction, direction, argIndex)
	args = append(args, params.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []*model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

// compile-time interface check
var (
	_ MessageQueryRepository         = (*PostgresMessageRepo)(nil)
	_ ChannelTimelineQueryRepository = channelTimeline{}
	_ ThreadTimelineQueryRepository  = threadTimeline{}
)
