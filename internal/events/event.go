package events

import (
	"time"

	"github.com/google/uuid"
)

// Type 領域事件類型
type Type string

const (
	TypeReservationCreated       Type = "reservation.created"
	TypeReservationCancelled     Type = "reservation.cancelled"
	TypeReservationOutcomeMarked Type = "reservation.outcome_marked"
	TypeOfferingCapacityChanged  Type = "offering.capacity_changed"
)

// Event 發給下游協作者(通知、分析)的事件。於業務交易提交後送出，
// 僅帶識別碼與結果狀態，下游不需回查主庫也能處理。
type Event struct {
	Type          Type       `json:"type"`
	OccurredAt    time.Time  `json:"occurred_at"`
	ReservationID *uuid.UUID `json:"reservation_id,omitempty"`
	OfferingID    uuid.UUID  `json:"offering_id"`
	UserID        int        `json:"user_id,omitempty"`
	Status        string     `json:"status,omitempty"`
	Actor         string     `json:"actor,omitempty"`

	CapacityTotal     int `json:"capacity_total,omitempty"`
	CapacityRemaining int `json:"capacity_remaining,omitempty"`
}

// Delivery 包裝交付給 worker 的事件與確認回調
type Delivery struct {
	Event Event
	Ack   func()
	Nack  func(requeue bool)
}
