package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/brydenu/blfs-cafe-sub001/internal/models"
)

func completedItem() models.OrderItem {
	ts := time.Now()
	return models.OrderItem{CompletedAt: &ts}
}

func cancelledItem() models.OrderItem {
	return models.OrderItem{Cancelled: true}
}

func pendingItem() models.OrderItem {
	return models.OrderItem{}
}

func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name  string
		items []models.OrderItem
		want  string
	}{
		{
			"all pending",
			[]models.OrderItem{pendingItem(), pendingItem()},
			models.OrderStatusQueued,
		},
		{
			"one completed others pending",
			[]models.OrderItem{completedItem(), pendingItem()},
			models.OrderStatusPreparing,
		},
		{
			"one cancelled others pending",
			[]models.OrderItem{cancelledItem(), pendingItem()},
			models.OrderStatusPreparing,
		},
		{
			"all completed",
			[]models.OrderItem{completedItem(), completedItem()},
			models.OrderStatusCompleted,
		},
		{
			"mixed completed and cancelled",
			[]models.OrderItem{completedItem(), cancelledItem()},
			models.OrderStatusCompleted,
		},
		{
			"all cancelled",
			[]models.OrderItem{cancelledItem(), cancelledItem(), cancelledItem()},
			models.OrderStatusCancelled,
		},
		{
			"single pending",
			[]models.OrderItem{pendingItem()},
			models.OrderStatusQueued,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AggregateStatus(tt.items))
		})
	}
}
