package orders

import (
	"strings"

	"github.com/jinzhu/gorm"
	"github.com/lib/pq"

	"github.com/brydenu/blfs-cafe-sub001/internal/models"
	"github.com/brydenu/blfs-cafe-sub001/internal/sequence"
)

// orderClaim adapts one order insert to sequence.Store. Each claim attempt
// runs in its own transaction so a rejected code leaves nothing behind and
// the next attempt starts clean; when the claim commits, the order and all
// its items exist atomically.
type orderClaim struct {
	db       *gorm.DB
	template models.Order
	items    []models.OrderItem
	result   *models.Order
}

func (c *orderClaim) CountWithPrefix(prefix string) (int, error) {
	var count int
	err := c.db.Model(&models.Order{}).
		Where("public_id LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}

func (c *orderClaim) Claim(publicID string) error {
	tx := c.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	order := c.template
	order.PublicID = publicID
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			return sequence.ErrCodeTaken
		}
		return err
	}

	created := make([]models.OrderItem, 0, len(c.items))
	for i := range c.items {
		item := c.items[i]
		item.OrderID = order.ID
		if err := tx.Create(&item).Error; err != nil {
			tx.Rollback()
			return err
		}
		created = append(created, item)
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	order.Items = created
	c.result = &order
	return nil
}

// isUniqueViolation recognizes the uniqueness-constraint failures of both
// supported drivers.
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
