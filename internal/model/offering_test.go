package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOfferingStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, OfferingStatusDraft.CanTransitionTo(OfferingStatusPublished))
	assert.True(t, OfferingStatusDraft.CanTransitionTo(OfferingStatusCancelled))
	assert.False(t, OfferingStatusDraft.CanTransitionTo(OfferingStatusCompleted))

	assert.True(t, OfferingStatusPublished.CanTransitionTo(OfferingStatusCancelled))
	assert.True(t, OfferingStatusPublished.CanTransitionTo(OfferingStatusCompleted))
	assert.False(t, OfferingStatusPublished.CanTransitionTo(OfferingStatusDraft))

	assert.False(t, OfferingStatusCancelled.CanTransitionTo(OfferingStatusPublished))
	assert.False(t, OfferingStatusCompleted.CanTransitionTo(OfferingStatusPublished))
}

func TestOffering_IsReservable(t *testing.T) {
	offering := Offering{
		Status:            OfferingStatusPublished,
		CapacityTotal:     5,
		CapacityRemaining: 1,
	}
	assert.True(t, offering.IsReservable())

	offering.CapacityRemaining = 0
	assert.False(t, offering.IsReservable())

	offering.CapacityRemaining = 1
	offering.Status = OfferingStatusDraft
	assert.False(t, offering.IsReservable())

	offering.Status = OfferingStatusPublished
	now := time.Now()
	offering.DeletedAt = &now
	assert.False(t, offering.IsReservable())
}

func TestOffering_ReservedCount(t *testing.T) {
	offering := Offering{CapacityTotal: 10, CapacityRemaining: 3}
	assert.Equal(t, 7, offering.ReservedCount())
}
