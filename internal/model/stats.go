// Package model はドメインモデルを定義する。
package model

import "time"

// StatsWindow は集計ウィンドウ（trailing期間）を表す。
type StatsWindow string

const (
	// Window7Days は直近7日間のウィンドウ。
	Window7Days StatsWindow = "7days"
	// Window30Days は直近30日間のウィンドウ。
	Window30Days StatsWindow = "30days"
	// WindowAllTime は全期間のウィンドウ。
	WindowAllTime StatsWindow = "alltime"
)

// Valid はウィンドウが定義済み集合に含まれるかを判定する。
func (w StatsWindow) Valid() bool {
	switch w {
	case Window7Days, Window30Days, WindowAllTime:
		return true
	default:
		return false
	}
}

// UserStats はユーザーごとの非正規化された集計統計を表す。
// ユーザーと1対1で対応し、Workoutの書き込みのたびに全体を再計算して上書きする。
// 空のウィンドウの合計は0/0.0に正規化され、欠損値は存在しない。
type UserStats struct {
	UserID string

	// 直近7日間
	TotalDistance7Days float64
	TotalTime7Days     int // 分
	WorkoutsCount7Days int

	// 直近30日間
	TotalDistance30Days float64
	TotalTime30Days     int // 分
	WorkoutsCount30Days int

	// 全期間
	TotalDistanceAllTime float64
	TotalTimeAllTime     int // 分
	WorkoutsCountAllTime int
	TotalCaloriesAllTime int

	UpdatedAt time.Time
}
