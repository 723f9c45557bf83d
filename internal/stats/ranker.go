package stats

import (
	"context"
	"fmt"

	"github.com/hitoshi/fittrack/internal/model"
	"github.com/hitoshi/fittrack/internal/repository"
)

// DefaultLeaderboardLimit はlimit未指定時のリーダーボード件数。
const DefaultLeaderboardLimit = 10

// RankerMetrics はリーダーボード読み取りのメトリクス収集インターフェース。
type RankerMetrics interface {
	RecordLeaderboardRequest(window string)
}

// Ranker は統計コレクションに対するリーダーボードランキングを提供する。
// 状態を持たない純粋な読み取りサービス。
type Ranker struct {
	statsRepo repository.UserStatsRepository
	metrics   RankerMetrics
}

// NewRanker はRankerを生成する。metricsはnilでもよい。
func NewRanker(statsRepo repository.UserStatsRepository, metrics RankerMetrics) *Ranker {
	return &Ranker{
		statsRepo: statsRepo,
		metrics:   metrics,
	}
}

// TopN は指定ウィンドウの距離降順で上位limit件の統計を返す。
//
// limitが0以下の場合はDefaultLeaderboardLimitにフォールバックする。上限は
// 設けない。同値はuser_id昇順で決定的に順序付けられる。統計レコードが
// 存在しない場合はエラーではなく空のシーケンスを返す。
func (r *Ranker) TopN(ctx context.Context, window model.StatsWindow, limit int) ([]repository.UserStatsWithUser, error) {
	if !window.Valid() {
		return nil, model.NewInvalidWindowError(string(window))
	}
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	rows, err := r.statsRepo.TopByDistance(ctx, window, limit)
	if err != nil {
		return nil, fmt.Errorf("リーダーボードの取得に失敗しました: %w", err)
	}

	if r.metrics != nil {
		r.metrics.RecordLeaderboardRequest(string(window))
	}

	return rows, nil
}
