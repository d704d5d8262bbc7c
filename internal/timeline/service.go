// Package timeline はチャンネルとスレッドのタイムライン取得機能を提供する。
package timeline

import (
	"context"
	"fmt"

	"github.com/hitoshi/beluga/internal/model"
	"github.com/hitoshi/beluga/internal/repository"
	"github.com/hitoshi/beluga/internal/validation"
)

const (
	// DefaultLimit はlimit未指定時の取得件数。
	DefaultLimit = 30
	// MaxLimit はlimitの上限。
	MaxLimit = 100
)

var limitOptions = validation.IntegerOptions{
	MinValue: validation.Int64(1),
	MaxValue: validation.Int64(MaxLimit),
}

// Query はタイムライン取得の共通条件。
// Limitが0の場合はDefaultLimitを使う。
type Query struct {
	SinceID   int64
	MaxID     int64
	Limit     int
	SortOrder model.SortOrder
}

// ChannelQuery はチャンネルタイムラインの取得条件。
type ChannelQuery struct {
	ChannelID int64
	Query
}

// ThreadQuery はスレッドタイムラインの取得条件。MessageIDはスレッドの親メッセージ。
type ThreadQuery struct {
	MessageID int64
	Query
}

// Service はタイムライン取得のサービス。
type Service struct {
	messages repository.MessageQueryRepository
	channels repository.ChannelTimelineQueryRepository
	threads  repository.ThreadTimelineQueryRepository
}

// NewService はServiceを生成する。
func NewService(
	messages repository.MessageQueryRepository,
	channels repository.ChannelTimelineQueryRepository,
	threads repository.ThreadTimelineQueryRepository,
) *Service {
	return &Service{
		messages: messages,
		channels: channels,
		threads:  threads,
	}
}

// ListChannel はチャンネルのトップレベルメッセージを返す。
func (s *Service) ListChannel(ctx context.Context, q ChannelQuery) ([]*model.Message, error) {
	if q.ChannelID <= 0 {
		return nil, model.NewInvalidArgumentError("channel_id")
	}
	params, err := q.params()
	if err != nil {
		return nil, err
	}

	messages, err := s.channels.ListMessage(ctx, q.ChannelID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel messages: %w", err)
	}
	return messages, nil
}

// ListThread はスレッドへの返信メッセージを返す。親メッセージが存在しない場合はnot_found。
func (s *Service) ListThread(ctx context.Context, q ThreadQuery) ([]*model.Message, error) {
	if q.MessageID <= 0 {
		return nil, model.NewInvalidArgumentError("message_id")
	}
	params, err := q.params()
	if err != nil {
		return nil, err
	}

	root, err := s.messages.FindByID(ctx, q.MessageID)
	if err != nil {
		return nil, fmt.Errorf("failed to find thread root: %w", err)
	}
	if root == nil {
		return nil, model.NewNotFoundError("スレッド")
	}

	messages, err := s.threads.ListMessage(ctx, root.ID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list thread messages: %w", err)
	}
	return messages, nil
}

func (q Query) params() (repository.TimelineParams, error) {
	limit := q.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if err := validation.CheckInteger(int64(limit), limitOptions); err != nil {
		return repository.TimelineParams{}, model.NewInvalidArgumentError("limit")
	}
	if q.SinceID < 0 {
		return repository.TimelineParams{}, model.NewInvalidArgumentError("since_id")
	}
	if q.MaxID < 0 {
		return repository.TimelineParams{}, model.NewInvalidArgumentError("max_id")
	}

	sortOrder := q.SortOrder
	if sortOrder == "" {
		sortOrder = model.SortOrderDescending
	}

	params := repository.TimelineParams{
		SortOrder: sortOrder,
		Limit:     limit,
		SinceID:   q.SinceID,
	}
	if q.SinceID == 0 {
		params.MaxID = q.MaxID
	}
	return params, nil
}
