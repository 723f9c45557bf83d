package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/fittrack/internal/middleware"
	"github.com/hitoshi/fittrack/internal/model"
	"github.com/hitoshi/fittrack/internal/repository"
	"github.com/hitoshi/fittrack/internal/workout"
)

type mockSessionFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

type mockHealthChecker struct {
	pingErr error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.pingErr
}

func validSessionFinder() *mockSessionFinder {
	return &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			if id == "valid-session" {
				return &model.Session{
					ID:        id,
					UserID:    "user-1",
					ExpiresAt: time.Now().Add(time.Hour),
				}, nil
			}
			return nil, nil
		},
	}
}

func testRouterDeps() *RouterDeps {
	return &RouterDeps{
		HealthChecker:     &mockHealthChecker{},
		SessionFinder:     validSessionFinder(),
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig()),
		CSRFConfig:        middleware.CSRFConfig{},

		AuthService: &mockAuthService{},
		AuthConfig: AuthHandlerConfig{
			SessionMaxAge: 86400,
		},

		WorkoutService:     &mockWorkoutService{},
		StatsGetter:        &mockStatsGetter{},
		LeaderboardService: &mockLeaderboardService{},
	}
}

// 認証済みのGETリクエストを組み立てる
func authedGet(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	return req
}

// 認証済みかつCSRFトークン付きの書き込みリクエストを組み立てる
func authedWrite(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "test-csrf-token"})
	req.Header.Set("X-CSRF-Token", "test-csrf-token")
	return req
}

func TestRouter_Health_ReturnsOK(t *testing.T) {
	router := NewRouter(testRouterDeps())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("body = %q, want status ok", w.Body.String())
	}
}

func TestRouter_Health_DBDown_Returns503(t *testing.T) {
	deps := testRouterDeps()
	deps.HealthChecker = &mockHealthChecker{pingErr: context.DeadlineExceeded}
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestRouter_Workouts_WithoutSession_Returns401(t *testing.T) {
	router := NewRouter(testRouterDeps())

	req := httptest.NewRequest(http.MethodGet, "/api/workouts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRouter_Workouts_WithValidSession_ReachesHandler(t *testing.T) {
	deps := testRouterDeps()
	deps.WorkoutService = &mockWorkoutService{
		listFn: func(ctx context.Context, userID string, input workout.ListInput) ([]*model.Workout, error) {
			if userID != "user-1" {
				t.Errorf("userID = %q, want user-1", userID)
			}
			return nil, nil
		},
	}
	router := NewRouter(deps)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedGet("/api/workouts"))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
}

func TestRouter_CreateWorkout_WithoutCSRFToken_Returns403(t *testing.T) {
	router := NewRouter(testRouterDeps())

	req := httptest.NewRequest(http.MethodPost, "/api/workouts", strings.NewReader(`{}`))
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestRouter_CreateWorkout_WithCSRFToken_ReachesHandler(t *testing.T) {
	deps := testRouterDeps()
	deps.WorkoutService = &mockWorkoutService{
		createFn: func(ctx context.Context, userID string, input workout.CreateInput) (*model.Workout, error) {
			return testWorkout(), nil
		},
	}
	router := NewRouter(deps)

	body := `{"workout_type": "run", "duration": 45, "distance": 8.5, "calories": 520}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedWrite(http.MethodPost, "/api/workouts", body))

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
}

// /api/workouts/statistics が /api/workouts/{id} より優先されること
func TestRouter_StatisticsRoute_NotShadowedByIDRoute(t *testing.T) {
	deps := testRouterDeps()
	statsCalled := false
	deps.StatsGetter = &mockStatsGetter{
		getFn: func(ctx context.Context, userID string) (*model.UserStats, error) {
			statsCalled = true
			return &model.UserStats{UserID: userID}, nil
		},
	}
	deps.WorkoutService = &mockWorkoutService{
		getFn: func(ctx context.Context, userID, workoutID string) (*model.Workout, error) {
			t.Errorf("GetWorkout must not be called for /statistics, got id %q", workoutID)
			return nil, model.NewWorkoutNotFoundError(workoutID)
		},
	}
	router := NewRouter(deps)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedGet("/api/workouts/statistics"))

	if !statsCalled {
		t.Error("statistics handler was not called")
	}
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_Leaderboard_WithValidSession_ReachesHandler(t *testing.T) {
	deps := testRouterDeps()
	deps.LeaderboardService = &mockLeaderboardService{
		topNFn: func(ctx context.Context, window model.StatsWindow, limit int) ([]repository.UserStatsWithUser, error) {
			return nil, nil
		},
	}
	router := NewRouter(deps)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedGet("/api/stats/leaderboard/7days"))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
}

func TestRouter_AuthRoutes_DoNotRequireSession(t *testing.T) {
	deps := testRouterDeps()
	deps.AuthService = &mockAuthService{
		loginFn: func(ctx context.Context, username, password string) (*model.User, *model.Session, error) {
			return testUser(), testSession(), nil
		},
	}
	router := NewRouter(deps)

	body := `{"username": "alice", "password": "secret-password"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
}

func TestRouter_CSRFTokenEndpoint_ReturnsToken(t *testing.T) {
	router := NewRouter(testRouterDeps())

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "token") {
		t.Errorf("body = %q, want token field", w.Body.String())
	}
}

func TestRouter_UnknownRoute_Returns404(t *testing.T) {
	router := NewRouter(testRouterDeps())

	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
