package leaderboard

import (
	"time"

	"github.com/SlpAus/rewards-hub-backend/internal/platform/validation"
)

// Entry 是排行榜上的一行。金额字段以字符串保存，避免传输中的浮点误差。
type Entry struct {
	ID        string    `json:"id"`
	Rank      int       `json:"rank"`
	Username  string    `json:"username"`
	Wagered   string    `json:"wagered"`
	Prize     string    `json:"prize"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateEntryRequest 定义了管理员新增排行榜条目时的请求体
type CreateEntryRequest struct {
	Rank     int    `json:"rank" binding:"required,min=1"`
	Username string `json:"username" binding:"notblank"`
	Wagered  string `json:"wagered" binding:"decimal"`
	Prize    string `json:"prize" binding:"decimal"`
}

// UpdateEntryRequest 是部分更新，只有出现在请求体中的字段会被写入
type UpdateEntryRequest struct {
	Rank     *int    `json:"rank,omitempty" binding:"omitempty,min=1"`
	Username *string `json:"username,omitempty" binding:"omitempty,notblank"`
	Wagered  *string `json:"wagered,omitempty" binding:"omitempty,decimal"`
	Prize    *string `json:"prize,omitempty" binding:"omitempty,decimal"`
}

// Settings 是排行榜的全局设置，全系统只有一份
type Settings struct {
	ID             string    `json:"id"`
	TotalPrizePool string    `json:"totalPrizePool"`
	EndDate        time.Time `json:"endDate"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// SettingsRequest 定义了保存排行榜设置时的请求体
type SettingsRequest struct {
	TotalPrizePool string               `json:"totalPrizePool" binding:"decimal"`
	EndDate        *validation.FlexTime `json:"endDate" binding:"required"`
}
