package model

import (
	"time"

	"github.com/google/uuid"
)

// OfferingStatus 場次狀態類型
type OfferingStatus string

const (
	OfferingStatusDraft     OfferingStatus = "draft"
	OfferingStatusPublished OfferingStatus = "published"
	OfferingStatusCancelled OfferingStatus = "cancelled"
	OfferingStatusCompleted OfferingStatus = "completed"
)

// IsValid 驗證狀態是否有效
func (s OfferingStatus) IsValid() bool {
	switch s {
	case OfferingStatusDraft, OfferingStatusPublished, OfferingStatusCancelled, OfferingStatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s OfferingStatus) CanTransitionTo(target OfferingStatus) bool {
	transitions := map[OfferingStatus][]OfferingStatus{
		OfferingStatusDraft:     {OfferingStatusPublished, OfferingStatusCancelled},
		OfferingStatusPublished: {OfferingStatusCancelled, OfferingStatusCompleted},
		OfferingStatusCancelled: {}, // 終態
		OfferingStatusCompleted: {}, // 終態
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// Offering 場次模型：帶固定座位數的可預約課程場次
type Offering struct {
	ID                int            `json:"id" db:"id"`
	OfferingID        uuid.UUID      `json:"offering_id" db:"offering_id"`
	Title             string         `json:"title" db:"title"`
	Description       *string        `json:"description,omitempty" db:"description"`
	CapacityTotal     int            `json:"capacity_total" db:"capacity_total"`
	CapacityRemaining int            `json:"capacity_remaining" db:"capacity_remaining"`
	Status            OfferingStatus `json:"status" db:"status"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
	DeletedAt         *time.Time     `json:"deleted_at,omitempty" db:"deleted_at"`
}

// IsDeleted 檢查場次是否已刪除
func (o *Offering) IsDeleted() bool {
	return o.DeletedAt != nil
}

// IsReservable 檢查場次是否開放預約
func (o *Offering) IsReservable() bool {
	return !o.IsDeleted() && o.Status == OfferingStatusPublished && o.CapacityRemaining > 0
}

// ReservedCount 已被 Active 預約佔用的座位數
func (o *Offering) ReservedCount() int {
	return o.CapacityTotal - o.CapacityRemaining
}

type UpdateOfferingParams struct {
	Title       *string
	Description *string
}

// CreateOfferingRequest 建立場次請求
type CreateOfferingRequest struct {
	Title         string  `json:"title" binding:"required,max=100"`
	Description   *string `json:"description" binding:"omitempty,max=500"`
	CapacityTotal int     `json:"capacity_total" binding:"required,min=1"`
}

// AdjustCapacityRequest 調整座位總數請求
type AdjustCapacityRequest struct {
	CapacityTotal int `json:"capacity_total" binding:"required,min=1"`
}

// OfferingResponse 場次響應
type OfferingResponse struct {
	OfferingID        uuid.UUID `json:"offering_id"`
	Title             string    `json:"title"`
	CapacityTotal     int       `json:"capacity_total"`
	CapacityRemaining int       `json:"capacity_remaining"`
	Status            string    `json:"status"`
	Reservable        bool      `json:"reservable"`
}
