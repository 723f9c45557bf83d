// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, workout, stats, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeUnknownWorkoutType = "UNKNOWN_WORKOUT_TYPE"
	ErrCodeWorkoutNotFound    = "WORKOUT_NOT_FOUND"
	ErrCodeNoStatistics       = "NO_STATISTICS"
	ErrCodeInvalidWindow      = "INVALID_WINDOW"
	ErrCodeInvalidDateRange   = "INVALID_DATE_RANGE"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeDuplicateUsername  = "DUPLICATE_USERNAME"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
)

// NewValidationError はフィールド制約違反のエラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUnknownWorkoutTypeError は未定義のワークアウト種別エラーを生成する。
func NewUnknownWorkoutTypeError(name string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownWorkoutType,
		Message:  fmt.Sprintf("未定義のワークアウト種別です: %s", name),
		Category: "validation",
		Action:   "種別には run、walk、cycling、gym のいずれかを指定してください。",
	}
}

// NewWorkoutNotFoundError はワークアウト未検出エラーを生成する。
// 他ユーザーの所有するワークアウトへのアクセスも同じエラーとして扱う。
func NewWorkoutNotFoundError(workoutID string) *APIError {
	return &APIError{
		Code:     ErrCodeWorkoutNotFound,
		Message:  fmt.Sprintf("指定されたワークアウトが見つかりません: %s", workoutID),
		Category: "workout",
		Action:   "ワークアウトIDを確認してください。",
	}
}

// NewNoStatisticsError は統計未計算エラーを生成する。
// ワークアウトを一度も記録していないユーザーにはゼロ埋めの統計ではなく
// このエラーを返す。
func NewNoStatisticsError() *APIError {
	return &APIError{
		Code:     ErrCodeNoStatistics,
		Message:  "このユーザーの統計はまだ計算されていません。",
		Category: "stats",
		Action:   "ワークアウトを記録すると統計が作成されます。",
	}
}

// NewInvalidWindowError は無効な集計ウィンドウエラーを生成する。
func NewInvalidWindowError(window string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidWindow,
		Message:  fmt.Sprintf("無効な集計ウィンドウです: %s", window),
		Category: "validation",
		Action:   "ウィンドウには 7days、30days、alltime のいずれかを指定してください。",
	}
}

// NewInvalidDateRangeError は無効な日付範囲エラーを生成する。
func NewInvalidDateRangeError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDateRange,
		Message:  fmt.Sprintf("無効な日付範囲です: %s", reason),
		Category: "validation",
		Action:   "日付は YYYY-MM-DD 形式で、開始日は終了日以前を指定してください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewDuplicateUsernameError はユーザー名重複エラーを生成する。
func NewDuplicateUsernameError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUsername,
		Message:  fmt.Sprintf("このユーザー名は既に使用されています: %s", username),
		Category: "auth",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
