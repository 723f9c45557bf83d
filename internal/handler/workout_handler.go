package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/fittrack/internal/middleware"
	"github.com/hitoshi/fittrack/internal/model"
	"github.com/hitoshi/fittrack/internal/workout"
)

// dateLayout はワークアウト日付のワイヤーフォーマット。
const dateLayout = "2006-01-02"

// WorkoutServiceInterface はワークアウトハンドラーが必要とするサービスインターフェース。
type WorkoutServiceInterface interface {
	Create(ctx context.Context, userID string, input workout.CreateInput) (*model.Workout, error)
	Get(ctx context.Context, userID, workoutID string) (*model.Workout, error)
	List(ctx context.Context, userID string, input workout.ListInput) ([]*model.Workout, error)
	Update(ctx context.Context, userID, workoutID string, input workout.UpdateInput) (*model.Workout, error)
	Delete(ctx context.Context, userID, workoutID string) error
	ListTypes(ctx context.Context) ([]*model.WorkoutType, error)
}

// StatsGetterInterface はユーザー統計の読み取りインターフェース。
type StatsGetterInterface interface {
	Get(ctx context.Context, userID string) (*model.UserStats, error)
}

// WorkoutHandler はワークアウト管理のHTTPハンドラー。
type WorkoutHandler struct {
	service WorkoutServiceInterface
	stats   StatsGetterInterface
}

// NewWorkoutHandler はWorkoutHandlerを生成する。
func NewWorkoutHandler(service WorkoutServiceInterface, stats StatsGetterInterface) *WorkoutHandler {
	return &WorkoutHandler{
		service: service,
		stats:   stats,
	}
}

// workoutRequest はワークアウト作成・更新リクエストのボディ。
type workoutRequest struct {
	Date        string  `json:"date"`
	WorkoutType string  `json:"workout_type"`
	Duration    int     `json:"duration"`
	Distance    float64 `json:"distance"`
	Calories    int     `json:"calories"`
	Notes       string  `json:"notes"`
}

// workoutResponse はワークアウト情報のAPIレスポンス。
type workoutResponse struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	WorkoutType string  `json:"workout_type"`
	Duration    int     `json:"duration"`
	Distance    float64 `json:"distance"`
	Calories    int     `json:"calories"`
	Notes       string  `json:"notes"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// workoutTypeResponse はワークアウト種別のAPIレスポンス。
type workoutTypeResponse struct {
	Name                      string  `json:"name"`
	DisplayName               string  `json:"display_name"`
	Icon                      string  `json:"icon"`
	DefaultCaloriesMultiplier float64 `json:"default_calories_multiplier"`
}

// statsResponse はユーザー統計のAPIレスポンス。
type statsResponse struct {
	TotalDistance7Days   float64 `json:"total_distance_7days"`
	TotalTime7Days       int     `json:"total_time_7days"`
	WorkoutsCount7Days   int     `json:"workouts_count_7days"`
	TotalDistance30Days  float64 `json:"total_distance_30days"`
	TotalTime30Days      int     `json:"total_time_30days"`
	WorkoutsCount30Days  int     `json:"workouts_count_30days"`
	TotalDistanceAllTime float64 `json:"total_distance_alltime"`
	TotalTimeAllTime     int     `json:"total_time_alltime"`
	WorkoutsCountAllTime int     `json:"workouts_count_alltime"`
	TotalCaloriesAllTime int     `json:"total_calories_alltime"`
	UpdatedAt            string  `json:"updated_at"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// CreateWorkout はワークアウト作成を処理する。
// POST /api/workouts
func (h *WorkoutHandler) CreateWorkout(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req workoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestBodyError())
		return
	}

	input := workout.CreateInput{
		WorkoutType: model.WorkoutTypeName(req.WorkoutType),
		Duration:    req.Duration,
		Distance:    req.Distance,
		Calories:    req.Calories,
		Notes:       req.Notes,
	}
	if req.Date != "" {
		d, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewValidationError("date must be in YYYY-MM-DD format"))
			return
		}
		input.Date = &d
	}

	created, err := h.service.Create(r.Context(), userID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toWorkoutResponse(created))
}

// GetWorkout はワークアウト詳細を取得する。
// GET /api/workouts/:id
func (h *WorkoutHandler) GetWorkout(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	workoutID := chi.URLParam(r, "id")

	found, err := h.service.Get(r.Context(), userID, workoutID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toWorkoutResponse(found))
}

// ListWorkouts はワークアウト一覧を取得する。
// GET /api/workouts?start_date=&end_date=&workout_type=
func (h *WorkoutHandler) ListWorkouts(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var input workout.ListInput
	q := r.URL.Query()

	if v := q.Get("start_date"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewInvalidDateRangeError("start_date must be in YYYY-MM-DD format"))
			return
		}
		input.StartDate = &d
	}
	if v := q.Get("end_date"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewInvalidDateRangeError("end_date must be in YYYY-MM-DD format"))
			return
		}
		input.EndDate = &d
	}
	input.WorkoutType = model.WorkoutTypeName(q.Get("workout_type"))

	workouts, err := h.service.List(r.Context(), userID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 空の一覧はnullではなく[]を返す
	results := make([]workoutResponse, len(workouts))
	for i, wo := range workouts {
		results[i] = toWorkoutResponse(wo)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// UpdateWorkout はワークアウト更新を処理する。
// PUT /api/workouts/:id
func (h *WorkoutHandler) UpdateWorkout(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	workoutID := chi.URLParam(r, "id")

	var req workoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestBodyError())
		return
	}

	input := workout.UpdateInput{
		WorkoutType: model.WorkoutTypeName(req.WorkoutType),
		Duration:    req.Duration,
		Distance:    req.Distance,
		Calories:    req.Calories,
		Notes:       req.Notes,
	}
	if req.Date != "" {
		d, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewValidationError("date must be in YYYY-MM-DD format"))
			return
		}
		input.Date = &d
	}

	updated, err := h.service.Update(r.Context(), userID, workoutID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toWorkoutResponse(updated))
}

// DeleteWorkout はワークアウト削除を処理する。
// DELETE /api/workouts/:id
func (h *WorkoutHandler) DeleteWorkout(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	workoutID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, workoutID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetStatistics は現在のユーザーの統計スナップショットを返す。
// GET /api/workouts/statistics
func (h *WorkoutHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	s, err := h.stats.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toStatsResponse(s))
}

// ListWorkoutTypes は利用可能なワークアウト種別の一覧を返す。
// GET /api/workout-types
func (h *WorkoutHandler) ListWorkoutTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.ListTypes(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]workoutTypeResponse, len(types))
	for i, wt := range types {
		results[i] = workoutTypeResponse{
			Name:                      string(wt.Name),
			DisplayName:               wt.DisplayName,
			Icon:                      wt.Icon,
			DefaultCaloriesMultiplier: wt.DefaultCaloriesMultiplier,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// --- ヘルパー関数 ---

// toWorkoutResponse はmodel.WorkoutからAPIレスポンスに変換する。
func toWorkoutResponse(wo *model.Workout) workoutResponse {
	return workoutResponse{
		ID:          wo.ID,
		Date:        wo.Date.Format(dateLayout),
		WorkoutType: string(wo.WorkoutType),
		Duration:    wo.Duration,
		Distance:    wo.Distance,
		Calories:    wo.Calories,
		Notes:       wo.Notes,
		CreatedAt:   wo.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   wo.UpdatedAt.Format(time.RFC3339),
	}
}

// toStatsResponse はmodel.UserStatsからAPIレスポンスに変換する。
func toStatsResponse(s *model.UserStats) statsResponse {
	return statsResponse{
		TotalDistance7Days:   s.TotalDistance7Days,
		TotalTime7Days:       s.TotalTime7Days,
		WorkoutsCount7Days:   s.WorkoutsCount7Days,
		TotalDistance30Days:  s.TotalDistance30Days,
		TotalTime30Days:      s.TotalTime30Days,
		WorkoutsCount30Days:  s.WorkoutsCount30Days,
		TotalDistanceAllTime: s.TotalDistanceAllTime,
		TotalTimeAllTime:     s.TotalTimeAllTime,
		WorkoutsCountAllTime: s.WorkoutsCountAllTime,
		TotalCaloriesAllTime: s.TotalCaloriesAllTime,
		UpdatedAt:            s.UpdatedAt.Format(time.RFC3339),
	}
}

// invalidRequestBodyError はJSONボディ解析失敗時の共通エラー。
func invalidRequestBodyError() *model.APIError {
	return &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// writeUnauthorizedResponse は401レスポンスを書き込む。
func writeUnauthorizedResponse(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeUnknownWorkoutType,
		model.ErrCodeInvalidWindow, model.ErrCodeInvalidDateRange:
		return http.StatusBadRequest
	case model.ErrCodeWorkoutNotFound, model.ErrCodeNoStatistics, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeDuplicateUsername:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
