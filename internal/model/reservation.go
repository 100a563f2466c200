package model

import (
	"time"

	"github.com/google/uuid"
)

// ReservationStatus 預約狀態類型
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusCompleted ReservationStatus = "completed"
	ReservationStatusNoShow    ReservationStatus = "no_show"
)

// IsValid 驗證狀態是否有效
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationStatusActive, ReservationStatusCancelled, ReservationStatusCompleted, ReservationStatusNoShow:
		return true
	}
	return false
}

// IsTerminal 取消/完成/缺席皆為終態
func (s ReservationStatus) IsTerminal() bool {
	return s != ReservationStatusActive
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s ReservationStatus) CanTransitionTo(target ReservationStatus) bool {
	transitions := map[ReservationStatus][]ReservationStatus{
		ReservationStatusActive:    {ReservationStatusCancelled, ReservationStatusCompleted, ReservationStatusNoShow},
		ReservationStatusCancelled: {},
		ReservationStatusCompleted: {},
		ReservationStatusNoShow:    {},
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

// CancelActor 取消操作的發起者
type CancelActor string

const (
	CancelActorUser   CancelActor = "user"
	CancelActorAdmin  CancelActor = "admin"
	CancelActorSystem CancelActor = "system"
)

// IsValid 驗證發起者是否有效
func (a CancelActor) IsValid() bool {
	switch a {
	case CancelActorUser, CancelActorAdmin, CancelActorSystem:
		return true
	}
	return false
}

// Outcome 場次結束後的出席結果
type Outcome string

const (
	OutcomePresent Outcome = "present"
	OutcomeAbsent  Outcome = "absent"
)

// StatusFor 出席結果對應的預約終態
func (o Outcome) StatusFor() (ReservationStatus, bool) {
	switch o {
	case OutcomePresent:
		return ReservationStatusCompleted, true
	case OutcomeAbsent:
		return ReservationStatusNoShow, true
	}
	return "", false
}

// Reservation 預約模型：一位使用者對一個場次的單一座位請求
// 聯絡資訊為建立當下的快照，與使用者目前的個人資料無關
type Reservation struct {
	ID            int               `json:"id" db:"id"`
	ReservationID uuid.UUID         `json:"reservation_id" db:"reservation_id"`
	UserID        int               `json:"user_id" db:"user_id"`
	OfferingID    int               `json:"offering_id" db:"offering_id"`
	Status        ReservationStatus `json:"status" db:"status"`
	FirstName     string            `json:"first_name" db:"first_name"`
	LastName      string            `json:"last_name" db:"last_name"`
	Email         string            `json:"email" db:"email"`
	Phone         string            `json:"phone" db:"phone"`
	CancelledAt   *time.Time        `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancelledBy   *CancelActor      `json:"cancelled_by,omitempty" db:"cancelled_by"`
	CancelReason  *string           `json:"cancel_reason,omitempty" db:"cancel_reason"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}

// IsActive 檢查預約是否仍佔用座位
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationStatusActive
}

// Contact 建立預約時的聯絡資訊快照
type Contact struct {
	FirstName string `json:"first_name" binding:"required,max=50"`
	LastName  string `json:"last_name" binding:"required,max=50"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required,min=10,max=20"`
}

// CreateReservationRequest 建立預約請求
type CreateReservationRequest struct {
	UserID     int       `json:"user_id" binding:"required"`
	OfferingID uuid.UUID `json:"offering_id" binding:"required"`
	Contact    Contact   `json:"contact" binding:"required"`
}

// CancelReservationRequest 取消預約請求
type CancelReservationRequest struct {
	Actor  CancelActor `json:"actor" binding:"required,oneof=user admin system"`
	Reason string      `json:"reason" binding:"omitempty,max=200"`
}

// MarkOutcomeRequest 出席結果標記請求
type MarkOutcomeRequest struct {
	Outcome Outcome `json:"outcome" binding:"required,oneof=present absent"`
}

// ListReservationsQuery 預約列表查詢參數
type ListReservationsQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=active cancelled completed no_show"`
	Page   int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit  int    `form:"limit,default=10" binding:"omitempty,min=1,max=100"`
}

// ReservationStats 各狀態預約數統計
type ReservationStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Cancelled int `json:"cancelled"`
	Completed int `json:"completed"`
	NoShow    int `json:"no_show"`
}
