package queue

import (
	"fmt"
	"time"

	"github.com/jinzhu/gorm"

	"github.com/brydenu/blfs-cafe-sub001/internal/models"
)

// GormStore answers queue queries from the shared database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore returns a database-backed Store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ActiveItemsBefore(createdAt time.Time) (int, error) {
	var count int
	err := s.db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.completed_at IS NULL AND order_items.cancelled = ?", false).
		Where("orders.status IN (?)", []string{models.OrderStatusQueued, models.OrderStatusPreparing}).
		Where("orders.created_at < ?", createdAt).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count items ahead: %w", err)
	}
	return count, nil
}

func (s *GormStore) ActiveTickets() ([]Ticket, error) {
	rows, err := s.db.Table("order_items").
		Select(`order_items.id AS item_id, order_items.order_id, order_items.product_id,
			order_items.quantity, order_items.recipient_name,
			orders.public_id, orders.status AS order_status, orders.created_at AS order_created_at,
			products.name AS product_name`).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("LEFT JOIN products ON products.id = order_items.product_id").
		Where("order_items.completed_at IS NULL AND order_items.cancelled = ?", false).
		Where("orders.status IN (?)", []string{
			models.OrderStatusQueued, models.OrderStatusPreparing, models.OrderStatusCancelled,
		}).
		Order("orders.created_at ASC, order_items.id ASC").
		Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to load board tickets: %w", err)
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		var t Ticket
		var productName *string
		err := rows.Scan(&t.ItemID, &t.OrderID, &t.ProductID, &t.Quantity,
			&t.RecipientName, &t.PublicID, &t.OrderStatus, &t.OrderCreatedAt, &productName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan board ticket: %w", err)
		}
		if productName != nil {
			t.ProductName = *productName
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}
