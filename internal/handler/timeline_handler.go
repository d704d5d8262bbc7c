package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hitoshi/beluga/internal/model"
	"github.com/hitoshi/beluga/internal/timeline"
)

// TimelineServiceInterface はタイムラインハンドラーが必要とするサービスインターフェース。
type TimelineServiceInterface interface {
	ListChannel(ctx context.Context, q timeline.ChannelQuery) ([]*model.Message, error)
	ListThread(ctx context.Context, q timeline.ThreadQuery) ([]*model.Message, error)
}

// TimelineHandler はチャンネルとスレッドのタイムラインのHTTPハンドラー。
type TimelineHandler struct {
	service TimelineServiceInterface
}

// NewTimelineHandler はTimelineHandlerを生成する。
func NewTimelineHandler(service TimelineServiceInterface) *TimelineHandler {
	return &TimelineHandler{service: service}
}

type messageResponse struct {
	ID            int64     `json:"id"`
	ChannelID     int64     `json:"channel_id"`
	UserID        int64     `json:"user_id"`
	Text          string    `json:"text"`
	ThreadID      *int64    `json:"thread_id"`
	FavoriteCount int       `json:"favorite_count"`
	LikeCount     int       `json:"like_count"`
	ReplyCount    int       `json:"reply_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type timelineResponse struct {
	Messages []messageResponse `json:"messages"`
}

// Channel はチャンネルのトップレベルメッセージを返す。
// GET /api/timeline/channel?channel_id=&since_id=&max_id=&limit=&sort_order=
func (h *TimelineHandler) Channel(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	channelID, ok := parseInt64Param(w, values, "channel_id")
	if !ok {
		return
	}
	query, ok := parseTimelineQuery(w, values)
	if !ok {
		return
	}

	messages, err := h.service.ListChannel(r.Context(), timeline.ChannelQuery{ChannelID: channelID, Query: query})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimelineResponse(messages))
}

// Thread はスレッドへの返信メッセージを返す。
// GET /api/timeline/thread?message_id=&since_id=&max_id=&limit=&sort_order=
func (h *TimelineHandler) Thread(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	messageID, ok := parseInt64Param(w, values, "message_id")
	if !ok {
		return
	}
	query, ok := parseTimelineQuery(w, values)
	if !ok {
		return
	}

	messages, err := h.service.ListThread(r.Context(), timeline.ThreadQuery{MessageID: messageID, Query: query})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimelineResponse(messages))
}

func parseTimelineQuery(w http.ResponseWriter, values url.Values) (timeline.Query, bool) {
	var q timeline.Query
	var ok bool
	if q.SinceID, ok = parseInt64Param(w, values, "since_id"); !ok {
		return q, false
	}
	if q.MaxID, ok = parseInt64Param(w, values, "max_id"); !ok {
		return q, false
	}
	limit, ok := parseInt64Param(w, values, "limit")
	if !ok {
		return q, false
	}
	q.Limit = int(limit)
	if s := values.Get("sort_order"); s != "" {
		q.SortOrder = model.ParseSortOrder(s)
	}
	return q, true
}

// parseInt64Param は整数のクエリパラメータを読む。未指定の場合は0を返す。
func parseInt64Param(w http.ResponseWriter, values url.Values, name string) (int64, bool) {
	raw := values.Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidArgumentError(name))
		return 0, false
	}
	return v, true
}

func toTimelineResponse(messages []*model.Message) timelineResponse {
	resp := timelineResponse{Messages: make([]messageResponse, len(messages))}
	for i, m := range messages {
		resp.Messages[i] = messageResponse{
			ID:            m.ID,
			ChannelID:     m.ChannelID,
			UserID:        m.UserID,
			Text:          m.Text,
			ThreadID:      m.ThreadID,
			FavoriteCount: m.FavoriteCount,
			LikeCount:     m.LikeCount,
			ReplyCount:    m.ReplyCount,
			CreatedAt:     m.CreatedAt,
		}
	}
	return resp
}

var _ TimelineServiceInterface = (*timeline.Service)(nil)
