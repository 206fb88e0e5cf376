package queue

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brydenu/blfs-cafe-sub001/internal/database"
	"github.com/brydenu/blfs-cafe-sub001/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open("sqlite3", filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, publicID, status string, createdAt time.Time, items ...models.OrderItem) models.Order {
	t.Helper()
	order := models.Order{PublicID: publicID, Status: status}
	order.CreatedAt = createdAt
	require.NoError(t, db.Create(&order).Error)
	for i := range items {
		items[i].OrderID = order.ID
		require.NoError(t, db.Create(&items[i]).Error)
	}
	order.Items = items
	return order
}

func TestActiveItemsBeforeCountsOrderGranularity(t *testing.T) {
	db := testDB(t)
	store := NewGormStore(db)
	base := time.Date(2025, 1, 23, 9, 0, 0, 0, time.UTC)
	done := base.Add(time.Minute)

	// Three earlier orders holding five active items in total. One item is
	// already completed and one cancelled; both are excluded.
	seedOrder(t, db, "250123001", models.OrderStatusPreparing, base,
		models.OrderItem{ProductID: 1},
		models.OrderItem{ProductID: 1, CompletedAt: &done},
	)
	seedOrder(t, db, "250123002", models.OrderStatusQueued, base.Add(5*time.Minute),
		models.OrderItem{ProductID: 2},
		models.OrderItem{ProductID: 2},
	)
	seedOrder(t, db, "250123003", models.OrderStatusQueued, base.Add(10*time.Minute),
		models.OrderItem{ProductID: 1},
		models.OrderItem{ProductID: 1},
		models.OrderItem{ProductID: 2, Cancelled: true},
	)

	// A completed order ahead of everyone contributes nothing.
	seedOrder(t, db, "250123004", models.OrderStatusCompleted, base.Add(-time.Hour),
		models.OrderItem{ProductID: 1},
	)

	target := base.Add(20 * time.Minute)
	ahead, err := store.ActiveItemsBefore(target)
	require.NoError(t, err)
	assert.Equal(t, 5, ahead)

	// The earliest in-flight order has nothing ahead of it.
	ahead, err = store.ActiveItemsBefore(base)
	require.NoError(t, err)
	assert.Equal(t, 0, ahead)
}

func TestRankOfScenario(t *testing.T) {
	db := testDB(t)
	store := NewGormStore(db)
	ranker := NewRanker(store, 3, 3)
	base := time.Date(2025, 1, 23, 9, 0, 0, 0, time.UTC)

	for i, code := range []string{"250123001", "250123002"} {
		seedOrder(t, db, code, models.OrderStatusQueued, base.Add(time.Duration(i)*time.Minute),
			models.OrderItem{ProductID: 1},
			models.OrderItem{ProductID: 2},
		)
	}
	seedOrder(t, db, "250123003", models.OrderStatusPreparing, base.Add(2*time.Minute),
		models.OrderItem{ProductID: 1},
	)

	mine := seedOrder(t, db, "250123004", models.OrderStatusQueued, base.Add(10*time.Minute),
		models.OrderItem{ProductID: 1},
		models.OrderItem{ProductID: 2},
	)

	rank, err := ranker.RankOf(mine.CreatedAt)
	require.NoError(t, err)
	assert.Equal(t, 6, rank.Position)
	assert.Equal(t, 18, rank.ETAMinutes)
}

func TestActiveTicketsOrderingAndFiltering(t *testing.T) {
	db := testDB(t)
	store := NewGormStore(db)
	base := time.Date(2025, 1, 23, 9, 0, 0, 0, time.UTC)
	done := base.Add(time.Minute)

	require.NoError(t, db.Create(&models.Product{Name: "Latte", IsActive: true}).Error)

	first := seedOrder(t, db, "250123001", models.OrderStatusPreparing, base,
		models.OrderItem{ProductID: 1, RecipientName: "Ada"},
		models.OrderItem{ProductID: 1, CompletedAt: &done},
	)
	// A partially-cancelled order keeps its unresolved item on the board.
	partial := seedOrder(t, db, "250123002", models.OrderStatusCancelled, base.Add(2*time.Minute),
		models.OrderItem{ProductID: 1},
		models.OrderItem{ProductID: 1, Cancelled: true},
	)
	second := seedOrder(t, db, "250123003", models.OrderStatusQueued, base.Add(4*time.Minute),
		models.OrderItem{ProductID: 1, RecipientName: "Grace"},
	)
	// Fully completed orders disappear entirely.
	seedOrder(t, db, "250123004", models.OrderStatusCompleted, base.Add(6*time.Minute),
		models.OrderItem{ProductID: 1, CompletedAt: &done},
	)

	ranker := NewRanker(store, 3, 3)
	tickets, err := ranker.Board()
	require.NoError(t, err)

	require.Len(t, tickets, 3)
	assert.Equal(t, first.Items[0].ID, tickets[0].ItemID)
	assert.Equal(t, partial.Items[0].ID, tickets[1].ItemID)
	assert.Equal(t, second.Items[0].ID, tickets[2].ItemID)

	assert.Equal(t, 1, tickets[0].Position)
	assert.Equal(t, "250123001", tickets[0].PublicID)
	assert.Equal(t, "Ada", tickets[0].RecipientName)
	assert.Equal(t, "Latte", tickets[0].ProductName)
	assert.Equal(t, models.OrderStatusCancelled, tickets[1].OrderStatus)
}
