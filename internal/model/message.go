package model

import "time"

// Message はチャンネルに投稿されたメッセージを表す。
// ThreadIDがnilのメッセージはチャンネルのトップレベル投稿。
type Message struct {
	ID            int64
	ChannelID     int64
	UserID        int64
	Text          string
	ThreadID      *int64
	FavoriteCount int
	LikeCount     int
	ReplyCount    int
	CreatedAt     time.Time
}

// SortOrder はタイムラインの並び順。
type SortOrder string

const (
	SortOrderAscending  SortOrder = "ascending"
	SortOrderDescending SortOrder = "descending"
)

// ParseSortOrder は文字列をSortOrderに変換する。
// 未指定または不明な値の場合は降順を返す。
func ParseSortOrder(s string) SortOrder {
	switch s {
	case "ascending", "Ascending", "asc":
		return SortOrderAscending
	default:
		return SortOrderDescending
	}
}
