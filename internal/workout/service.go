// Package workout はワークアウト記録のドメインロジックを提供する。
package workout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/fittrack/internal/model"
	"github.com/hitoshi/fittrack/internal/repository"
	"github.com/hitoshi/fittrack/internal/security"
)

// StatsRecomputer はワークアウト書き込み後の統計再計算インターフェース。
type StatsRecomputer interface {
	Recompute(ctx context.Context, userID string) (*model.UserStats, error)
}

// WriteMetrics はワークアウト書き込みのメトリクス収集インターフェース。
type WriteMetrics interface {
	RecordWorkoutWrite(operation string)
}

// CreateInput はワークアウト作成の入力。
// Dateがnilの場合はUTCの当日を割り当てる。
type CreateInput struct {
	Date        *time.Time
	WorkoutType model.WorkoutTypeName
	Duration    int
	Distance    float64
	Calories    int
	Notes       string
}

// UpdateInput はワークアウト更新の入力。全フィールドを上書きする。
type UpdateInput struct {
	Date        *time.Time
	WorkoutType model.WorkoutTypeName
	Duration    int
	Distance    float64
	Calories    int
	Notes       string
}

// ListInput はワークアウト一覧取得の絞り込み条件。
type ListInput struct {
	StartDate   *time.Time
	EndDate     *time.Time
	WorkoutType model.WorkoutTypeName // 空文字列なら全種別
}

// Service はワークアウト管理のサービス層。
// 作成・更新・削除は同じリクエスト内で統計の再計算まで行う。
// 再計算の失敗はリクエストの失敗として呼び出し元へ返す。
type Service struct {
	workoutRepo     repository.WorkoutRepository
	workoutTypeRepo repository.WorkoutTypeRepository
	recomputer      StatsRecomputer
	sanitizer       security.NotesSanitizerService
	metrics         WriteMetrics

	// now は日付デフォルトの基準時刻。テストで差し替える。
	now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。metricsはnilでもよい。
func NewService(
	workoutRepo repository.WorkoutRepository,
	workoutTypeRepo repository.WorkoutTypeRepository,
	recomputer StatsRecomputer,
	sanitizer security.NotesSanitizerService,
	metrics WriteMetrics,
) *Service {
	return &Service{
		workoutRepo:     workoutRepo,
		workoutTypeRepo: workoutTypeRepo,
		recomputer:      recomputer,
		sanitizer:       sanitizer,
		metrics:         metrics,
		now:             time.Now,
	}
}

// Create はワークアウトを作成し、統計を再計算する。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Workout, error) {
	if err := s.validate(ctx, input.WorkoutType, input.Duration, input.Distance, input.Calories); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	date := dateOnly(now)
	if input.Date != nil {
		date = dateOnly(*input.Date)
	}

	w := &model.Workout{
		ID:          uuid.New().String(),
		UserID:      userID,
		Date:        date,
		WorkoutType: input.WorkoutType,
		Duration:    input.Duration,
		Distance:    input.Distance,
		Calories:    input.Calories,
		Notes:       s.sanitizer.Sanitize(input.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.workoutRepo.Create(ctx, w); err != nil {
		return nil, fmt.Errorf("ワークアウトの作成に失敗しました: %w", err)
	}

	if _, err := s.recomputer.Recompute(ctx, userID); err != nil {
		return nil, fmt.Errorf("統計の再計算に失敗しました: %w", err)
	}

	s.recordWrite("create")
	return w, nil
}

// Get は指定IDのワークアウトを取得する。
// 他ユーザーの所有物は存在の有無を漏らさないようWORKOUT_NOT_FOUNDとして扱う。
func (s *Service) Get(ctx context.Context, userID, workoutID string) (*model.Workout, error) {
	w, err := s.workoutRepo.FindByID(ctx, workoutID)
	if err != nil {
		return nil, fmt.Errorf("ワークアウトの取得に失敗しました: %w", err)
	}
	if w == nil || w.UserID != userID {
		return nil, model.NewWorkoutNotFoundError(workoutID)
	}
	return w, nil
}

// List はユーザーのワークアウト一覧をdate降順で返す。
func (s *Service) List(ctx context.Context, userID string, input ListInput) ([]*model.Workout, error) {
	if input.StartDate != nil && input.EndDate != nil && input.StartDate.After(*input.EndDate) {
		return nil, model.NewInvalidDateRangeError("start_date must not be after end_date")
	}
	if input.WorkoutType != "" && !input.WorkoutType.Valid() {
		return nil, model.NewUnknownWorkoutTypeError(string(input.WorkoutType))
	}

	filter := repository.WorkoutFilter{
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		WorkoutType: input.WorkoutType,
	}
	workouts, err := s.workoutRepo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("ワークアウト一覧の取得に失敗しました: %w", err)
	}
	return workouts, nil
}

// Update はワークアウトを全フィールド上書きで更新し、統計を再計算する。
// Dateがnilの場合は既存の日付を維持する。
func (s *Service) Update(ctx context.Context, userID, workoutID string, input UpdateInput) (*model.Workout, error) {
	existing, err := s.workoutRepo.FindByID(ctx, workoutID)
	if err != nil {
		return nil, fmt.Errorf("ワークアウトの取得に失敗しました: %w", err)
	}
	if existing == nil || existing.UserID != userID {
		return nil, model.NewWorkoutNotFoundError(workoutID)
	}

	if err := s.validate(ctx, input.WorkoutType, input.Duration, input.Distance, input.Calories); err != nil {
		return nil, err
	}

	existing.WorkoutType = input.WorkoutType
	existing.Duration = input.Duration
	existing.Distance = input.Distance
	existing.Calories = input.Calories
	existing.Notes = s.sanitizer.Sanitize(input.Notes)
	existing.UpdatedAt = s.now().UTC()
	if input.Date != nil {
		existing.Date = dateOnly(*input.Date)
	}

	if err := s.workoutRepo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("ワークアウトの更新に失敗しました: %w", err)
	}

	if _, err := s.recomputer.Recompute(ctx, userID); err != nil {
		return nil, fmt.Errorf("統計の再計算に失敗しました: %w", err)
	}

	s.recordWrite("update")
	return existing, nil
}

// Delete はワークアウトを削除し、統計を再計算する。
func (s *Service) Delete(ctx context.Context, userID, workoutID string) error {
	existing, err := s.workoutRepo.FindByID(ctx, workoutID)
	if err != nil {
		return fmt.Errorf("ワークアウトの取得に失敗しました: %w", err)
	}
	if existing == nil || existing.UserID != userID {
		return model.NewWorkoutNotFoundError(workoutID)
	}

	if err := s.workoutRepo.Delete(ctx, workoutID); err != nil {
		return fmt.Errorf("ワークアウトの削除に失敗しました: %w", err)
	}

	if _, err := s.recomputer.Recompute(ctx, userID); err != nil {
		return fmt.Errorf("統計の再計算に失敗しました: %w", err)
	}

	s.recordWrite("delete")
	return nil
}

// ListTypes は利用可能なワークアウト種別の一覧を返す。
func (s *Service) ListTypes(ctx context.Context) ([]*model.WorkoutType, error) {
	types, err := s.workoutTypeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ワークアウト種別の取得に失敗しました: %w", err)
	}
	return types, nil
}

// validate は作成・更新共通のフィールド検証を行う。
// 種別は閉じた集合のチェックに加えて参照データの存在も確認する。
func (s *Service) validate(ctx context.Context, typeName model.WorkoutTypeName, duration int, distance float64, calories int) error {
	if !typeName.Valid() {
		return model.NewUnknownWorkoutTypeError(string(typeName))
	}
	wt, err := s.workoutTypeRepo.FindByName(ctx, typeName)
	if err != nil {
		return fmt.Errorf("ワークアウト種別の取得に失敗しました: %w", err)
	}
	if wt == nil {
		return model.NewUnknownWorkoutTypeError(string(typeName))
	}

	if duration <= 0 {
		return model.NewValidationError("duration must be greater than 0")
	}
	if distance < 0 {
		return model.NewValidationError("distance must not be negative")
	}
	if calories < 0 {
		return model.NewValidationError("calories must not be negative")
	}
	return nil
}

func (s *Service) recordWrite(operation string) {
	if s.metrics != nil {
		s.metrics.RecordWorkoutWrite(operation)
	}
}

// dateOnly は時刻成分を落としUTCのカレンダー日付に正規化する。
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
