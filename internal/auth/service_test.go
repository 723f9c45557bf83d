package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/fittrack/internal/model"
)

// --- モック ---

type mockUserRepo struct {
	findByIDFn       func(ctx context.Context, id string) (*model.User, error)
	findByUsernameFn func(ctx context.Context, username string) (*model.User, error)
	createFn         func(ctx context.Context, user *model.User) error
	listIDsFn        func(ctx context.Context) ([]string, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return nil, nil
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}
func (m *mockUserRepo) ListIDs(ctx context.Context) ([]string, error) {
	if m.listIDsFn != nil {
		return m.listIDsFn(ctx)
	}
	return nil, nil
}

type mockSessionRepo struct {
	createFn         func(ctx context.Context, session *model.Session) error
	findByIDFn       func(ctx context.Context, id string) (*model.Session, error)
	deleteByIDFn     func(ctx context.Context, id string) error
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}
func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}
func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

func newTestService(userRepo *mockUserRepo, sessionRepo *mockSessionRepo) *Service {
	return NewService(userRepo, sessionRepo, ServiceConfig{SessionMaxAge: 86400})
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hash)
}

// --- Registerのテスト ---

// 登録が成功し、ハッシュ化済みパスワードとセッションが作成される
func TestRegister_Success(t *testing.T) {
	var createdUser *model.User
	var createdSession *model.Session
	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			createdUser = user
			return nil
		},
	}
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			createdSession = session
			return nil
		},
	}

	user, session, err := newTestService(userRepo, sessionRepo).Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if createdUser == nil {
		t.Fatal("expected user to be persisted")
	}
	if user.ID == "" {
		t.Error("expected a generated user ID")
	}
	if user.PasswordHash == "correct horse" {
		t.Error("password must not be stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")); err != nil {
		t.Errorf("stored hash does not verify the password: %v", err)
	}
	if createdSession == nil || session.UserID != user.ID {
		t.Error("expected a session bound to the new user")
	}
}

// 既存ユーザー名の再登録はDUPLICATE_USERNAME
func TestRegister_DuplicateUsername(t *testing.T) {
	userRepo := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return &model.User{ID: "user-1", Username: username}, nil
		},
	}

	_, _, err := newTestService(userRepo, &mockSessionRepo{}).Register(context.Background(), RegisterInput{
		Username: "alice",
		Password: "correct horse",
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeDuplicateUsername {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeDuplicateUsername)
	}
}

// 入力検証: 空のユーザー名と短すぎるパスワードは拒否される
func TestRegister_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"empty username", RegisterInput{Username: "", Password: "correct horse"}},
		{"whitespace username", RegisterInput{Username: "   ", Password: "correct horse"}},
		{"short password", RegisterInput{Username: "alice", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := newTestService(&mockUserRepo{}, &mockSessionRepo{}).Register(context.Background(), tt.input)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			apiErr, ok := err.(*model.APIError)
			if !ok {
				t.Fatalf("expected *model.APIError, got %T", err)
			}
			if apiErr.Code != model.ErrCodeValidation {
				t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeValidation)
			}
		})
	}
}

// --- Loginのテスト ---

// 正しい資格情報でログインするとセッションが発行される
func TestLogin_Success(t *testing.T) {
	hash := hashPassword(t, "correct horse")
	userRepo := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return &model.User{ID: "user-1", Username: username, PasswordHash: hash}, nil
		},
	}
	var createdSession *model.Session
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			createdSession = session
			return nil
		},
	}

	user, session, err := newTestService(userRepo, sessionRepo).Login(context.Background(), "alice", "correct horse")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("UserID = %q, want %q", user.ID, "user-1")
	}
	if createdSession == nil {
		t.Fatal("expected a session to be created")
	}
	if session.ID == "" {
		t.Error("expected a generated session ID")
	}
	if !session.ExpiresAt.After(time.Now()) {
		t.Error("session should expire in the future")
	}
}

// パスワード不一致はINVALID_CREDENTIALS
func TestLogin_WrongPassword(t *testing.T) {
	hash := hashPassword(t, "correct horse")
	userRepo := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return &model.User{ID: "user-1", Username: username, PasswordHash: hash}, nil
		},
	}

	_, _, err := newTestService(userRepo, &mockSessionRepo{}).Login(context.Background(), "alice", "wrong horse")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidCredentials)
	}
}

// 未登録ユーザーもINVALID_CREDENTIALSを返す（存在有無を漏らさない）
func TestLogin_UnknownUser_SameError(t *testing.T) {
	_, _, err := newTestService(&mockUserRepo{}, &mockSessionRepo{}).Login(context.Background(), "nobody", "whatever")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidCredentials)
	}
}

// --- Logoutのテスト ---

// ログアウトはセッションを削除する
func TestLogout_DeletesSession(t *testing.T) {
	deleted := ""
	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}

	if err := newTestService(&mockUserRepo{}, sessionRepo).Logout(context.Background(), "sess-1"); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if deleted != "sess-1" {
		t.Errorf("deleted session = %q, want %q", deleted, "sess-1")
	}
}

// 空のセッションIDはエラー
func TestLogout_EmptySessionID(t *testing.T) {
	if err := newTestService(&mockUserRepo{}, &mockSessionRepo{}).Logout(context.Background(), ""); err == nil {
		t.Fatal("expected error, got nil")
	}
}

// --- GetCurrentUserのテスト ---

// 有効なセッションからユーザーを解決する
func TestGetCurrentUser_Success(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Username: "alice"}, nil
		},
	}

	user, err := newTestService(userRepo, sessionRepo).GetCurrentUser(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("GetCurrentUser returned error: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want %q", user.Username, "alice")
	}
}

// 期限切れ（リポジトリがnilを返す）セッションはエラー
func TestGetCurrentUser_ExpiredSession(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, nil
		},
	}

	if _, err := newTestService(&mockUserRepo{}, sessionRepo).GetCurrentUser(context.Background(), "sess-1"); err == nil {
		t.Fatal("expected error for expired session, got nil")
	}
}

// リポジトリエラーは伝播する
func TestGetCurrentUser_RepositoryError(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, errors.New("connection refused")
		},
	}

	if _, err := newTestService(&mockUserRepo{}, sessionRepo).GetCurrentUser(context.Background(), "sess-1"); err == nil {
		t.Fatal("expected error, got nil")
	}
}
