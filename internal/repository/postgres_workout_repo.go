package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/fittrack/internal/model"
)

// PostgresWorkoutRepo はPostgreSQLを使用したワークアウトリポジトリ。
type PostgresWorkoutRepo struct {
	db *sql.DB
}

// NewPostgresWorkoutRepo はPostgresWorkoutRepoを生成する。
func NewPostgresWorkoutRepo(db *sql.DB) *PostgresWorkoutRepo {
	return &PostgresWorkoutRepo{db: db}
}

// FindByID は指定IDのワークアウトを取得する。見つからない場合はnilを返す。
func (r *PostgresWorkoutRepo) FindByID(ctx context.Context, id string) (*model.Workout, error) {
	w := &model.Workout{}
	var notes sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, date, workout_type, duration, distance, calories, notes, created_at, updated_at
		 FROM workouts WHERE id = $1`,
		id,
	).Scan(&w.ID, &w.UserID, &w.Date, &w.WorkoutType, &w.Duration, &w.Distance, &w.Calories, &notes, &w.CreatedAt, &w.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find workout by ID: %w", err)
	}
	w.Notes = notes.String

	return w, nil
}

// ListByUser はユーザーのワークアウト一覧をdate降順・created_at降順で返す。
// filterがゼロ値の場合は全件を返す。
func (r *PostgresWorkoutRepo) ListByUser(ctx context.Context, userID string, filter WorkoutFilter) ([]*model.Workout, error) {
	query := `SELECT id, user_id, date, workout_type, duration, distance, calories, notes, created_at, updated_at
		 FROM workouts WHERE user_id = $1`
	args := []any{userID}

	// 絞り込み条件を動的に組み立てる。境界は両端とも含む。
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	if filter.WorkoutType != "" {
		args = append(args, filter.WorkoutType)
		query += fmt.Sprintf(" AND workout_type = $%d", len(args))
	}

	query += " ORDER BY date DESC, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}
	defer rows.Close()

	var workouts []*model.Workout
	for rows.Next() {
		w := &model.Workout{}
		var notes sql.NullString
		if err := rows.Scan(&w.ID, &w.UserID, &w.Date, &w.WorkoutType, &w.Duration, &w.Distance, &w.Calories, &notes, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}
		w.Notes = notes.String
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workouts: %w", err)
	}

	return workouts, nil
}

// Create はワークアウトを作成する。
func (r *PostgresWorkoutRepo) Create(ctx context.Context, workout *model.Workout) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workouts (id, user_id, date, workout_type, duration, distance, calories, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		workout.ID, workout.UserID, workout.Date, workout.WorkoutType,
		workout.Duration, workout.Distance, workout.Calories, nullableString(workout.Notes),
		workout.CreatedAt, workout.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert workout: %w", err)
	}
	return nil
}

// Update はワークアウトを上書き更新する。
func (r *PostgresWorkoutRepo) Update(ctx context.Context, workout *model.Workout) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE workouts
		 SET date = $1, workout_type = $2, duration = $3, distance = $4,
		     calories = $5, notes = $6, updated_at = $7
		 WHERE id = $8`,
		workout.Date, workout.WorkoutType, workout.Duration, workout.Distance,
		workout.Calories, nullableString(workout.Notes), workout.UpdatedAt, workout.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update workout: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("workout not found: %s", workout.ID)
	}
	return nil
}

// Delete は指定IDのワークアウトを削除する。対象が存在しない場合はエラーを返す。
func (r *PostgresWorkoutRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM workouts WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete workout: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("workout not found: %s", id)
	}
	return nil
}

// nullableString は空文字列をNULLとして保存するためのヘルパー。
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// compile-time interface check
var _ WorkoutRepository = (*PostgresWorkoutRepo)(nil)
