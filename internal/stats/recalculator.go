// Package stats はユーザー統計の再計算とリーダーボードランキングを提供する。
//
// 統計は増分更新ではなく、書き込みのたびにユーザーの全ワークアウトから
// 再導出する。ドリフトが蓄積しない代わりに、コストはユーザーの総ワークアウト
// 数に比例する。
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/fittrack/internal/model"
	"github.com/hitoshi/fittrack/internal/repository"
)

// MetricsCollector は再計算のメトリクス収集インターフェース。
type MetricsCollector interface {
	RecordRecomputeSuccess()
	RecordRecomputeFailure()
	RecordRecomputeLatency(duration time.Duration)
}

// Recalculator はユーザー統計スナップショットの再計算サービス。
// Workoutの作成・更新・削除のたびに同期的に呼び出される。
type Recalculator struct {
	workoutRepo repository.WorkoutRepository
	statsRepo   repository.UserStatsRepository
	metrics     MetricsCollector

	// now はウィンドウ境界の基準時刻。テストで差し替える。
	now func() time.Time
}

// NewRecalculator はRecalculatorを生成する。
// metricsはnilでもよい（収集なしで動作する）。
func NewRecalculator(
	workoutRepo repository.WorkoutRepository,
	statsRepo repository.UserStatsRepository,
	metrics MetricsCollector,
) *Recalculator {
	return &Recalculator{
		workoutRepo: workoutRepo,
		statsRepo:   statsRepo,
		metrics:     metrics,
		now:         time.Now,
	}
}

// Recompute は指定ユーザーの全ワークアウトから3ウィンドウの集計を再導出し、
// 統計レコードをUPSERTして結果のスナップショットを返す。
//
// ウィンドウ境界は呼び出し時点のUTCカレンダー日付を基準とする。日付が
// 変わった後に再実行すると、Workoutが変化していなくても7日/30日の集計は
// 変わりうる。これは設計上許容された性質であってバグではない。
//
// ストレージエラー時は統計レコードを変更せずにエラーを返す。UPSERTは
// 1文で行われるため、部分的なフィールド更新は発生しない。
func (r *Recalculator) Recompute(ctx context.Context, userID string) (*model.UserStats, error) {
	start := time.Now()

	workouts, err := r.workoutRepo.ListByUser(ctx, userID, repository.WorkoutFilter{})
	if err != nil {
		r.recordFailure()
		return nil, fmt.Errorf("ワークアウトの取得に失敗しました: %w", err)
	}

	snapshot := aggregate(workouts, r.now().UTC())
	snapshot.UserID = userID
	snapshot.UpdatedAt = r.now().UTC()

	if err := r.statsRepo.Upsert(ctx, snapshot); err != nil {
		r.recordFailure()
		return nil, fmt.Errorf("統計の保存に失敗しました: %w", err)
	}

	if r.metrics != nil {
		r.metrics.RecordRecomputeSuccess()
		r.metrics.RecordRecomputeLatency(time.Since(start))
	}

	slog.Debug("user stats recomputed",
		slog.String("user_id", userID),
		slog.Int("workouts", len(workouts)),
	)

	return snapshot, nil
}

// Get は指定ユーザーの統計スナップショットを返す。
// 一度も計算されていない場合はゼロ埋めのレコードではなくNO_STATISTICSを返す。
func (r *Recalculator) Get(ctx context.Context, userID string) (*model.UserStats, error) {
	s, err := r.statsRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("統計の取得に失敗しました: %w", err)
	}
	if s == nil {
		return nil, model.NewNoStatisticsError()
	}
	return s, nil
}

func (r *Recalculator) recordFailure() {
	if r.metrics != nil {
		r.metrics.RecordRecomputeFailure()
	}
}

// aggregate はワークアウト集合から3ウィンドウの集計を導出する。
//
// ウィンドウは下限のみを持つ: 7日ビューは date >= today-7days、30日ビューは
// date >= today-30days で、上限は適用しない。未来日付のワークアウトは
// 両方のローリングウィンドウと全期間ビューに含まれる。
// 空のビューの合計は構造体のゼロ値として0/0.0に正規化される。
func aggregate(workouts []*model.Workout, now time.Time) *model.UserStats {
	today := dateOnly(now)
	sevenDaysAgo := today.AddDate(0, 0, -7)
	thirtyDaysAgo := today.AddDate(0, 0, -30)

	s := &model.UserStats{}
	for _, w := range workouts {
		d := dateOnly(w.Date)

		// 境界は含む: date == today-7days は7日ビューに入る。
		if !d.Before(sevenDaysAgo) {
			s.TotalDistance7Days += w.Distance
			s.TotalTime7Days += w.Duration
			s.WorkoutsCount7Days++
		}
		if !d.Before(thirtyDaysAgo) {
			s.TotalDistance30Days += w.Distance
			s.TotalTime30Days += w.Duration
			s.WorkoutsCount30Days++
		}

		s.TotalDistanceAllTime += w.Distance
		s.TotalTimeAllTime += w.Duration
		s.WorkoutsCountAllTime++
		s.TotalCaloriesAllTime += w.Calories
	}

	return s
}

// dateOnly は時刻成分を落としUTCのカレンダー日付に正規化する。
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
