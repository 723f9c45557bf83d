package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/fittrack/internal/model"
)

// PostgresUserStatsRepo はPostgreSQLを使用したユーザー統計リポジトリ。
type PostgresUserStatsRepo struct {
	db *sql.DB
}

// NewPostgresUserStatsRepo はPostgresUserStatsRepoを生成する。
func NewPostgresUserStatsRepo(db *sql.DB) *PostgresUserStatsRepo {
	return &PostgresUserStatsRepo{db: db}
}

// FindByUserID は指定ユーザーの統計を取得する。未計算の場合はnilを返す。
func (r *PostgresUserStatsRepo) FindByUserID(ctx context.Context, userID string) (*model.UserStats, error) {
	s := &model.UserStats{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id,
		        total_distance_7days, total_time_7days, workouts_count_7days,
		        total_distance_30days, total_time_30days, workouts_count_30days,
		        total_distance_alltime, total_time_alltime, workouts_count_alltime,
		        total_calories_alltime, updated_at
		 FROM user_stats WHERE user_id = $1`,
		userID,
	).Scan(
		&s.UserID,
		&s.TotalDistance7Days, &s.TotalTime7Days, &s.WorkoutsCount7Days,
		&s.TotalDistance30Days, &s.TotalTime30Days, &s.WorkoutsCount30Days,
		&s.TotalDistanceAllTime, &s.TotalTimeAllTime, &s.WorkoutsCountAllTime,
		&s.TotalCaloriesAllTime, &s.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user stats: %w", err)
	}

	return s, nil
}

// Upsert は統計スナップショット全体を1文でUPSERTする。
// user_idのユニーク制約により並行呼び出しでも行が重複せず、
// 全フィールドが原子的に上書きされる。部分更新は発生しない。
func (r *PostgresUserStatsRepo) Upsert(ctx context.Context, stats *model.UserStats) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_stats (
		    user_id,
		    total_distance_7days, total_time_7days, workouts_count_7days,
		    total_distance_30days, total_time_30days, workouts_count_30days,
		    total_distance_alltime, total_time_alltime, workouts_count_alltime,
		    total_calories_alltime, updated_at
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (user_id) DO UPDATE SET
		    total_distance_7days = EXCLUDED.total_distance_7days,
		    total_time_7days = EXCLUDED.total_time_7days,
		    workouts_count_7days = EXCLUDED.workouts_count_7days,
		    total_distance_30days = EXCLUDED.total_distance_30days,
		    total_time_30days = EXCLUDED.total_time_30days,
		    workouts_count_30days = EXCLUDED.workouts_count_30days,
		    total_distance_alltime = EXCLUDED.total_distance_alltime,
		    total_time_alltime = EXCLUDED.total_time_alltime,
		    workouts_count_alltime = EXCLUDED.workouts_count_alltime,
		    total_calories_alltime = EXCLUDED.total_calories_alltime,
		    updated_at = EXCLUDED.updated_at`,
		stats.UserID,
		stats.TotalDistance7Days, stats.TotalTime7Days, stats.WorkoutsCount7Days,
		stats.TotalDistance30Days, stats.TotalTime30Days, stats.WorkoutsCount30Days,
		stats.TotalDistanceAllTime, stats.TotalTimeAllTime, stats.WorkoutsCountAllTime,
		stats.TotalCaloriesAllTime, stats.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user stats: %w", err)
	}
	return nil
}

// TopByDistance は指定ウィンドウの距離降順で上位limit件をユーザー情報付きで返す。
// 同値はuser_id昇順で安定に順序付けする。
func (r *PostgresUserStatsRepo) TopByDistance(ctx context.Context, window model.StatsWindow, limit int) ([]UserStatsWithUser, error) {
	column, err := distanceColumn(window)
	if err != nil {
		return nil, err
	}

	// columnは固定の許可リストから選択されるためクエリに直接埋め込んで安全。
	query := fmt.Sprintf(
		`SELECT s.user_id, u.username,
		        s.total_distance_7days, s.total_time_7days, s.workouts_count_7days,
		        s.total_distance_30days, s.total_time_30days, s.workouts_count_30days,
		        s.total_distance_alltime, s.total_time_alltime, s.workouts_count_alltime,
		        s.total_calories_alltime, s.updated_at
		 FROM user_stats s
		 JOIN users u ON u.id = s.user_id
		 ORDER BY s.%s DESC, s.user_id ASC
		 LIMIT $1`,
		column,
	)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var results []UserStatsWithUser
	for rows.Next() {
		var row UserStatsWithUser
		if err := rows.Scan(
			&row.UserID, &row.Username,
			&row.TotalDistance7Days, &row.TotalTime7Days, &row.WorkoutsCount7Days,
			&row.TotalDistance30Days, &row.TotalTime30Days, &row.WorkoutsCount30Days,
			&row.TotalDistanceAllTime, &row.TotalTimeAllTime, &row.WorkoutsCountAllTime,
			&row.TotalCaloriesAllTime, &row.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leaderboard rows: %w", err)
	}

	return results, nil
}

// distanceColumn はウィンドウに対応する距離カラム名を返す。
func distanceColumn(window model.StatsWindow) (string, error) {
	switch window {
	case model.Window7Days:
		return "total_distance_7days", nil
	case model.Window30Days:
		return "total_distance_30days", nil
	case model.WindowAllTime:
		return "total_distance_alltime", nil
	default:
		return "", fmt.Errorf("unknown stats window: %s", window)
	}
}

// compile-time interface check
var _ UserStatsRepository = (*PostgresUserStatsRepo)(nil)
