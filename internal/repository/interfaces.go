// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/fittrack/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// ListIDs は全ユーザーのIDを返す。統計リフレッシュワーカーが使用する。
	ListIDs(ctx context.Context) ([]string, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// WorkoutTypeRepository はワークアウト種別参照データの読み取りインターフェース。
type WorkoutTypeRepository interface {
	// List は全種別をname昇順で返す。
	List(ctx context.Context) ([]*model.WorkoutType, error)

	// FindByName は指定名の種別を取得する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, name model.WorkoutTypeName) (*model.WorkoutType, error)
}

// WorkoutFilter はワークアウト一覧取得の絞り込み条件。
// nilのフィールドは条件として適用されない。日付境界は両端とも含む。
type WorkoutFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	WorkoutType model.WorkoutTypeName // 空文字列なら全種別
}

// WorkoutRepository はワークアウトデータの永続化インターフェース。
type WorkoutRepository interface {
	// FindByID は指定IDのワークアウトを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Workout, error)

	// ListByUser はユーザーのワークアウト一覧をdate降順・created_at降順で返す。
	// filterがゼロ値の場合は全件を返す（統計再計算はこの経路を使う）。
	ListByUser(ctx context.Context, userID string, filter WorkoutFilter) ([]*model.Workout, error)

	// Create はワークアウトを作成する。
	Create(ctx context.Context, workout *model.Workout) error

	// Update はワークアウトを上書き更新する。
	Update(ctx context.Context, workout *model.Workout) error

	// Delete は指定IDのワークアウトを削除する。対象が存在しない場合はエラーを返す。
	Delete(ctx context.Context, id string) error
}

// UserStatsWithUser は統計スナップショットと表示用ユーザー情報を結合した構造体。
// リーダーボード表示で使用する。
type UserStatsWithUser struct {
	model.UserStats
	Username string
}

// UserStatsRepository はユーザー統計の永続化インターフェース。
// 再計算結果の書き込みと読み出しだけを公開し、全件再計算から
// 増分メンテナンスへの将来の置き換えを呼び出し側から隠蔽する。
type UserStatsRepository interface {
	// FindByUserID は指定ユーザーの統計を取得する。未計算の場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.UserStats, error)

	// Upsert は統計スナップショット全体を1文でUPSERTする。
	// user_idのユニーク制約により並行呼び出しでも行が重複せず、
	// 全フィールドが原子的に上書きされる（部分更新は発生しない）。
	Upsert(ctx context.Context, stats *model.UserStats) error

	// TopByDistance は指定ウィンドウの距離降順で上位limit件をユーザー情報付きで返す。
	// 同値はuser_id昇順で安定に順序付けする。
	TopByDistance(ctx context.Context, window model.StatsWindow, limit int) ([]UserStatsWithUser, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
