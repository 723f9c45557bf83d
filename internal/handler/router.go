package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/fittrack/internal/middleware"
)

// HealthChecker はDB疎通確認のインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig

	// メトリクス
	MetricsHandler http.Handler
	StatusRecorder middleware.HTTPStatusRecorder

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ワークアウト
	WorkoutService WorkoutServiceInterface
	StatsGetter    StatsGetterInterface

	// リーダーボード
	LeaderboardService LeaderboardServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → Session → CSRF → RateLimit(General)
//
// 認証ルート（/auth/*）と運用エンドポイント（/health, /metrics）は
// セッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	if deps.StatusRecorder != nil {
		r.Use(middleware.NewStatusMetricsMiddleware(deps.StatusRecorder))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	workoutHandler := NewWorkoutHandler(deps.WorkoutService, deps.StatsGetter)
	statsHandler := NewStatsHandler(deps.LeaderboardService)

	// --- 認証不要のルート ---

	// ヘルスチェック（DB疎通まで確認する）
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Prometheusメトリクス
	if deps.MetricsHandler != nil {
		r.Get("/metrics", deps.MetricsHandler.ServeHTTP)
	}

	// CSRFトークン取得
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// 認証ルート（パスワード認証フロー）
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ワークアウト管理
		r.Route("/api/workouts", func(r chi.Router) {
			// 書き込み系は専用レート制限を追加
			r.With(deps.RateLimiter.WorkoutWriteMiddleware()).Post("/", workoutHandler.CreateWorkout)
			r.Get("/", workoutHandler.ListWorkouts)

			// GET /api/workouts/statistics - 現在ユーザーの統計スナップショット
			// {id}より先に定義して経路の衝突を避ける
			r.Get("/statistics", workoutHandler.GetStatistics)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", workoutHandler.GetWorkout)
				r.With(deps.RateLimiter.WorkoutWriteMiddleware()).Put("/", workoutHandler.UpdateWorkout)
				r.With(deps.RateLimiter.WorkoutWriteMiddleware()).Delete("/", workoutHandler.DeleteWorkout)
			})
		})

		// ワークアウト種別
		r.Get("/api/workout-types", workoutHandler.ListWorkoutTypes)

		// リーダーボード
		r.Get("/api/stats/leaderboard/{window}", statsHandler.GetLeaderboard)
	})

	return r
}
