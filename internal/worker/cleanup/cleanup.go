// Package cleanup は期限切れログインセッションの自動削除ジョブを提供する。
// 有効期限から保持日数（デフォルト30日）を過ぎたセッションを日次バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/beluga/internal/metrics"
)

// DefaultRetentionDays は期限切れセッションを残しておく日数。
const DefaultRetentionDays = 30

// SessionPurger は期限切れセッションの一括削除インターフェース。
// repository.LoginSessionRepositoryの部分集合として定義する。
type SessionPurger interface {
	DeleteExpiredBefore(ctx context.Context, before time.Time) (int64, error)
}

// CleanupJob は期限切れセッションの削除ジョブ。
// 冪等で、削除対象がない場合でもエラーにならない。
type CleanupJob struct {
	purger        SessionPurger
	logger        *slog.Logger
	metrics       metrics.MetricsCollector
	now           func() time.Time
	RetentionDays int
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(purger SessionPurger, logger *slog.Logger, collector metrics.MetricsCollector) *CleanupJob {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &CleanupJob{
		purger:        purger,
		logger:        logger,
		metrics:       collector,
		now:           time.Now,
		RetentionDays: DefaultRetentionDays,
	}
}

// Run はexpires_atが保持期間より前のセッションを削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()
	before := j.now().AddDate(0, 0, -j.RetentionDays)

	deleted, err := j.purger.DeleteExpiredBefore(ctx, before)
	if err != nil {
		j.logger.Error("session cleanup failed",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("failed to purge expired sessions: %w", err)
	}

	j.metrics.RecordSessionsPurged(deleted)
	j.logger.Info("session cleanup completed",
		slog.Int64("deleted_count", deleted),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Start は起動直後に一度実行し、以降はintervalごとにRunを繰り返す。
// ctxがキャンセルされるまでブロックする。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	// エラーはRun内でログ出力済み
	_ = j.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
