package memory

import (
	"context"
	"slices"

	"github.com/hitoshi/beluga/internal/model"
	"github.com/hitoshi/beluga/internal/repository"
)

// MessageRepo はメモリ上のメッセージリポジトリ。
type MessageRepo struct {
	s *Store
}

// Put はメッセージを保存する。開発用のシードとテストで使用する。
func (r *MessageRepo) Put(message *model.Message) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.messages[message.ID] = *message
}

func (r *MessageRepo) FindByID(_ context.Context, id int64) (*model.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.messages[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// ChannelTimeline はチャンネルタイムライン用のビューを返す。
func (r *MessageRepo) ChannelTimeline() repository.ChannelTimelineQueryRepository {
	return channelTimeline{r}
}

// ThreadTimeline はスレッドタイムライン用のビューを返す。
func (r *MessageRepo) ThreadTimeline() repository.ThreadTimelineQueryRepository {
	return threadTimeline{r}
}

type channelTimeline struct{ r *MessageRepo }

func (t channelTimeline) ListMessage(_ context.Context, channelID int64, params repository.TimelineParams) ([]*model.Message, error) {
	return t.r.list(func(m *model.Message) bool {
		return m.ChannelID == channelID && m.ThreadID == nil
	}, params), nil
}

type threadTimeline struct{ r *MessageRepo }

func (t threadTimeline) ListMessage(_ context.Context, threadID int64, params repository.TimelineParams) ([]*model.Message, error) {
	return t.r.list(func(m *model.Message) bool {
		return m.ThreadID != nil && *m.ThreadID == threadID
	}, params), nil
}

func (r *MessageRepo) list(match func(*model.Message) bool, params repository.TimelineParams) []*model.Message {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	messages := []*model.Message{}
	for _, m := range r.s.messages {
		if !match(&m) {
			continue
		}
		if params.SinceID != 0 {
			if m.ID <= params.SinceID {
				continue
			}
		} else if params.MaxID != 0 && m.ID >= params.MaxID {
			continue
		}
		messages = append(messages, &m)
	}

	slices.SortFunc(messages, func(a, b *model.Message) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if c == 0 {
			c = compareInt64(a.ID, b.ID)
		}
		if params.SortOrder == model.SortOrderAscending {
			return c
		}
		return -c
	})

	if params.Limit > 0 && len(messages) > params.Limit {
		messages = messages[:params.Limit]
	}
	return messages
}

// compile-time interface check
var _ repository.MessageQueryRepository = (*MessageRepo)(nil)
