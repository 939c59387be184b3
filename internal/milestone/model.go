package milestone

import "time"

// LevelMilestone 是VIP等级展示中的一级，例如 "Bronze 1"
type LevelMilestone struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tier      int       `json:"tier"`
	ImageURL  string    `json:"imageUrl"`
	Rewards   []string  `json:"rewards"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateRequest 定义了新增等级时的请求体。rewards 必须出现，但可以是空数组。
type CreateRequest struct {
	Name     string   `json:"name" binding:"notblank"`
	Tier     int      `json:"tier" binding:"min=0"`
	ImageURL string   `json:"imageUrl" binding:"notblank"`
	Rewards  []string `json:"rewards" binding:"required,dive,notblank"`
}

type UpdateRequest struct {
	Name     *string   `json:"name,omitempty" binding:"omitempty,notblank"`
	Tier     *int      `json:"tier,omitempty" binding:"omitempty,min=0"`
	ImageURL *string   `json:"imageUrl,omitempty" binding:"omitempty,notblank"`
	Rewards  *[]string `json:"rewards,omitempty" binding:"omitempty,dive,notblank"`
}
