package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/fittrack/internal/model"
)

// PostgresWorkoutTypeRepo はPostgreSQLを使用したワークアウト種別リポジトリ。
// マイグレーションでシードされる参照データを読み取る。
type PostgresWorkoutTypeRepo struct {
	db *sql.DB
}

// NewPostgresWorkoutTypeRepo はPostgresWorkoutTypeRepoを生成する。
func NewPostgresWorkoutTypeRepo(db *sql.DB) *PostgresWorkoutTypeRepo {
	return &PostgresWorkoutTypeRepo{db: db}
}

// List は全種別をname昇順で返す。
func (r *PostgresWorkoutTypeRepo) List(ctx context.Context) ([]*model.WorkoutType, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, display_name, icon, default_calories_multiplier
		 FROM workout_types ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list workout types: %w", err)
	}
	defer rows.Close()

	var types []*model.WorkoutType
	for rows.Next() {
		wt := &model.WorkoutType{}
		if err := rows.Scan(&wt.Name, &wt.DisplayName, &wt.Icon, &wt.DefaultCaloriesMultiplier); err != nil {
			return nil, fmt.Errorf("failed to scan workout type: %w", err)
		}
		types = append(types, wt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workout types: %w", err)
	}

	return types, nil
}

// FindByName は指定名の種別を取得する。見つからない場合はnilを返す。
func (r *PostgresWorkoutTypeRepo) FindByName(ctx context.Context, name model.WorkoutTypeName) (*model.WorkoutType, error) {
	wt := &model.WorkoutType{}
	err := r.db.QueryRowContext(ctx,
		`SELECT name, display_name, icon, default_calories_multiplier
		 FROM workout_types WHERE name = $1`,
		name,
	).Scan(&wt.Name, &wt.DisplayName, &wt.Icon, &wt.DefaultCaloriesMultiplier)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find workout type: %w", err)
	}

	return wt, nil
}

// compile-time interface check
var _ WorkoutTypeRepository = (*PostgresWorkoutTypeRepo)(nil)
