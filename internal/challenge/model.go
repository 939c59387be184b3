package challenge

import "time"

const (
	StatusUnclaimed = "unclaimed"
	StatusClaimed   = "claimed"
)

// Challenge 是一个倍数挑战：玩家在指定游戏中以不低于 minBet 的下注打出 minMultiplier 倍即可领取奖金。
// 领取后由人工在Discord上发放，这里只记录领取人。
type Challenge struct {
	ID              string    `json:"id"`
	GameName        string    `json:"gameName"`
	GameImage       string    `json:"gameImage"`
	MinMultiplier   string    `json:"minMultiplier"`
	MinBet          string    `json:"minBet"`
	Prize           string    `json:"prize"`
	IsActive        bool      `json:"isActive"`
	ClaimedBy       *string   `json:"claimedBy"`
	ClaimStatus     string    `json:"claimStatus"`
	DiscordUsername *string   `json:"discordUsername"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Claimed 报告挑战是否已被领取
func (c *Challenge) Claimed() bool {
	return c.ClaimStatus == StatusClaimed
}

// CreateRequest 不包含领取相关字段，它们只能由服务端写入
type CreateRequest struct {
	GameName      string `json:"gameName" binding:"notblank"`
	GameImage     string `json:"gameImage" binding:"notblank"`
	MinMultiplier string `json:"minMultiplier" binding:"decimal"`
	MinBet        string `json:"minBet" binding:"decimal"`
	Prize         string `json:"prize" binding:"decimal"`
	IsActive      *bool  `json:"isActive,omitempty"`
}

type UpdateRequest struct {
	GameName      *string `json:"gameName,omitempty" binding:"omitempty,notblank"`
	GameImage     *string `json:"gameImage,omitempty" binding:"omitempty,notblank"`
	MinMultiplier *string `json:"minMultiplier,omitempty" binding:"omitempty,decimal"`
	MinBet        *string `json:"minBet,omitempty" binding:"omitempty,decimal"`
	Prize         *string `json:"prize,omitempty" binding:"omitempty,decimal"`
	IsActive      *bool   `json:"isActive,omitempty"`
}

// ClaimRequest 是公开的领取请求
type ClaimRequest struct {
	Username        string `json:"username" binding:"notblank"`
	DiscordUsername string `json:"discordUsername" binding:"notblank"`
}
