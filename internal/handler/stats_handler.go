package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/fittrack/internal/model"
	"github.com/hitoshi/fittrack/internal/repository"
)

// LeaderboardServiceInterface はリーダーボードハンドラーが必要とするサービスインターフェース。
type LeaderboardServiceInterface interface {
	TopN(ctx context.Context, window model.StatsWindow, limit int) ([]repository.UserStatsWithUser, error)
}

// StatsHandler はリーダーボード関連のHTTPハンドラー。
type StatsHandler struct {
	leaderboard LeaderboardServiceInterface
}

// NewStatsHandler はStatsHandlerを生成する。
func NewStatsHandler(leaderboard LeaderboardServiceInterface) *StatsHandler {
	return &StatsHandler{
		leaderboard: leaderboard,
	}
}

// leaderboardEntry はリーダーボード1行分のAPIレスポンス。
// 距離・時間・件数は要求されたウィンドウのものを返す。
type leaderboardEntry struct {
	Rank          int     `json:"rank"`
	UserID        string  `json:"user_id"`
	Username      string  `json:"username"`
	TotalDistance float64 `json:"total_distance"`
	TotalTime     int     `json:"total_time"`
	WorkoutsCount int     `json:"workouts_count"`
}

// leaderboardResponse はリーダーボードのAPIレスポンス。
type leaderboardResponse struct {
	Window  string             `json:"window"`
	Entries []leaderboardEntry `json:"entries"`
}

// GetLeaderboard は指定ウィンドウの距離上位ユーザーを返す。
// GET /api/stats/leaderboard/{window}?limit=N
func (h *StatsHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	window := model.StatsWindow(chi.URLParam(r, "window"))

	// limitは数値として解釈できない場合もエラーにせずデフォルトに倒す
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	rows, err := h.leaderboard.TopN(r.Context(), window, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	entries := make([]leaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = leaderboardEntry{
			Rank:     i + 1,
			UserID:   row.UserID,
			Username: row.Username,
		}
		switch window {
		case model.Window7Days:
			entries[i].TotalDistance = row.TotalDistance7Days
			entries[i].TotalTime = row.TotalTime7Days
			entries[i].WorkoutsCount = row.WorkoutsCount7Days
		case model.Window30Days:
			entries[i].TotalDistance = row.TotalDistance30Days
			entries[i].TotalTime = row.TotalTime30Days
			entries[i].WorkoutsCount = row.WorkoutsCount30Days
		case model.WindowAllTime:
			entries[i].TotalDistance = row.TotalDistanceAllTime
			entries[i].TotalTime = row.TotalTimeAllTime
			entries[i].WorkoutsCount = row.WorkoutsCountAllTime
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(leaderboardResponse{
		Window:  string(window),
		Entries: entries,
	})
}
