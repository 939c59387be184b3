package freespins

import (
	"time"

	"github.com/SlpAus/rewards-hub-backend/internal/platform/validation"
)

// Offer 是一个限量的免费旋转兑换码
type Offer struct {
	ID              string    `json:"id"`
	Code            string    `json:"code"`
	GameName        string    `json:"gameName"`
	GameProvider    string    `json:"gameProvider"`
	GameImage       string    `json:"gameImage"`
	SpinsCount      int       `json:"spinsCount"`
	SpinValue       string    `json:"spinValue"`
	TotalClaims     int       `json:"totalClaims"`
	ClaimsRemaining int       `json:"claimsRemaining"`
	ExpiresAt       time.Time `json:"expiresAt"`
	Requirements    []string  `json:"requirements"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Available 报告在now时刻该优惠是否还能被领取
func (o *Offer) Available(now time.Time) bool {
	return o.IsActive && o.ClaimsRemaining > 0 && o.ExpiresAt.After(now)
}

// CreateRequest 中 claimsRemaining 可省略，省略时等于 totalClaims
type CreateRequest struct {
	Code            string               `json:"code" binding:"notblank"`
	GameName        string               `json:"gameName" binding:"notblank"`
	GameProvider    string               `json:"gameProvider" binding:"notblank"`
	GameImage       string               `json:"gameImage" binding:"notblank"`
	SpinsCount      int                  `json:"spinsCount" binding:"min=1"`
	SpinValue       string               `json:"spinValue" binding:"decimal"`
	TotalClaims     int                  `json:"totalClaims" binding:"min=0"`
	ClaimsRemaining *int                 `json:"claimsRemaining,omitempty" binding:"omitempty,min=0"`
	ExpiresAt       *validation.FlexTime `json:"expiresAt" binding:"required"`
	Requirements    []string             `json:"requirements" binding:"required,dive,notblank"`
	IsActive        *bool                `json:"isActive,omitempty"`
}

type UpdateRequest struct {
	Code            *string              `json:"code,omitempty" binding:"omitempty,notblank"`
	GameName        *string              `json:"gameName,omitempty" binding:"omitempty,notblank"`
	GameProvider    *string              `json:"gameProvider,omitempty" binding:"omitempty,notblank"`
	GameImage       *string              `json:"gameImage,omitempty" binding:"omitempty,notblank"`
	SpinsCount      *int                 `json:"spinsCount,omitempty" binding:"omitempty,min=1"`
	SpinValue       *string              `json:"spinValue,omitempty" binding:"omitempty,decimal"`
	TotalClaims     *int                 `json:"totalClaims,omitempty" binding:"omitempty,min=0"`
	ClaimsRemaining *int                 `json:"claimsRemaining,omitempty" binding:"omitempty,min=0"`
	ExpiresAt       *validation.FlexTime `json:"expiresAt,omitempty"`
	Requirements    *[]string            `json:"requirements,omitempty" binding:"omitempty,dive,notblank"`
	IsActive        *bool                `json:"isActive,omitempty"`
}

// ClaimRequest 记录领取人，兑换码由人工在Discord上核对后发放
type ClaimRequest struct {
	Username        string `json:"username" binding:"notblank"`
	DiscordUsername string `json:"discordUsername" binding:"notblank"`
}
