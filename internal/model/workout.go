// Package model はドメインモデルを定義する。
package model

import "time"

// WorkoutTypeName はワークアウト種別の識別子。固定の閉じた集合とする。
type WorkoutTypeName string

const (
	// WorkoutTypeRun はランニング。
	WorkoutTypeRun WorkoutTypeName = "run"
	// WorkoutTypeWalk はウォーキング。
	WorkoutTypeWalk WorkoutTypeName = "walk"
	// WorkoutTypeCycling はサイクリング。
	WorkoutTypeCycling WorkoutTypeName = "cycling"
	// WorkoutTypeGym はジムトレーニング。
	WorkoutTypeGym WorkoutTypeName = "gym"
)

// Valid は種別が定義済み集合に含まれるかを判定する。
// 未知の種別は境界で拒否する。
func (n WorkoutTypeName) Valid() bool {
	switch n {
	case WorkoutTypeRun, WorkoutTypeWalk, WorkoutTypeCycling, WorkoutTypeGym:
		return true
	default:
		return false
	}
}

// WorkoutType はワークアウト種別の参照データを表す。
// 起動時のマイグレーションでシードされ、ほぼ変更されない。
type WorkoutType struct {
	Name                      WorkoutTypeName
	DisplayName               string
	Icon                      string
	DefaultCaloriesMultiplier float64
}

// Workout は1件のワークアウト記録を表す。
// 所有ユーザーは常にサーバー側で認証済みユーザーから割り当てる。
type Workout struct {
	ID          string
	UserID      string
	Date        time.Time // カレンダー日付（UTC、時刻成分は0）
	WorkoutType WorkoutTypeName
	Duration    int     // 分単位、> 0
	Distance    float64 // キロメートル、>= 0
	Calories    int     // >= 0
	Notes       string  // サニタイズ済みの自由記述
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
