// Package refresh はユーザー統計の定期リフレッシュ処理を提供する。
//
// ローリングウィンドウの境界は再計算時点の日付に固定されるため、
// 書き込みのないユーザーの7日/30日集計は日付が変わるとずれていく。
// 日次のリフレッシュで全ユーザーの統計を再導出し、このずれを解消する。
package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/fittrack/internal/model"
)

// UserLister は全ユーザーIDの列挙インターフェース。
type UserLister interface {
	ListIDs(ctx context.Context) ([]string, error)
}

// StatsRecomputer は統計再計算の実行インターフェース。
type StatsRecomputer interface {
	Recompute(ctx context.Context, userID string) (*model.UserStats, error)
}

// Refresher は全ユーザーの統計リフレッシュジョブ。
// 1ユーザーの失敗は記録して続行し、サイクル全体を止めない。
type Refresher struct {
	users      UserLister
	recomputer StatsRecomputer
	logger     *slog.Logger
}

// NewRefresher はRefresherの新しいインスタンスを生成する。
func NewRefresher(users UserLister, recomputer StatsRecomputer, logger *slog.Logger) *Refresher {
	return &Refresher{
		users:      users,
		recomputer: recomputer,
		logger:     logger,
	}
}

// Start は指定間隔のティッカーでリフレッシュジョブを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (r *Refresher) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("統計リフレッシュワーカーを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	if err := r.RunOnce(ctx); err != nil {
		r.logger.Error("統計リフレッシュサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("統計リフレッシュワーカーを停止しました")
			return
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				r.logger.Error("統計リフレッシュサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は全ユーザーの統計を1巡再計算する。
// ユーザー単位の失敗はログに記録して続行する。
func (r *Refresher) RunOnce(ctx context.Context) error {
	start := time.Now()

	userIDs, err := r.users.ListIDs(ctx)
	if err != nil {
		return err
	}

	var failed int
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := r.recomputer.Recompute(ctx, userID); err != nil {
			failed++
			r.logger.Error("ユーザー統計の再計算に失敗しました",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}

	r.logger.Info("統計リフレッシュサイクルが完了しました",
		slog.Int("total_users", len(userIDs)),
		slog.Int("failed", failed),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}
