// Package orders owns the order and item lifecycle: placement behind the
// catalog availability gate, the one-way item transitions, and the derived
// order-level status. Every mutation commits first and publishes to the
// bus second.
package orders

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/gorm"

	"github.com/brydenu/blfs-cafe-sub001/internal/bus"
	"github.com/brydenu/blfs-cafe-sub001/internal/catalog"
	"github.com/brydenu/blfs-cafe-sub001/internal/models"
	"github.com/brydenu/blfs-cafe-sub001/internal/monitoring"
	"github.com/brydenu/blfs-cafe-sub001/internal/sequence"
)

// AuthContext identifies the caller of a cancel request. Knowledge of an
// order's public code is the guest credential; registered-user orders may
// only be cancelled by their owner. Staff bypass both checks.
type AuthContext struct {
	UserID     *uint
	Staff      bool
	PublicCode string
}

// PlaceItem is one requested drink within a placement.
type PlaceItem struct {
	ProductID     uint   `json:"productId" binding:"required"`
	Quantity      int    `json:"quantity"`
	Temperature   string `json:"temperature"`
	Shots         int    `json:"shots"`
	Milk          string `json:"milk"`
	Modifiers     string `json:"modifiers"`
	RecipientName string `json:"recipientName"`
}

// PlaceOrderRequest carries everything needed to create an order. UserID
// and the guest contact fields are mutually exclusive; the HTTP layer
// fills UserID from the bearer token when present.
type PlaceOrderRequest struct {
	UserID               *uint
	GuestName            string
	GuestEmail           string
	GuestPhone           string
	NotificationsEnabled bool
	NotificationMethods  []string
	Items                []PlaceItem
}

// Service is the order state machine over durable storage.
type Service struct {
	db      *gorm.DB
	catalog catalog.Checker
	bus     bus.Publisher
	now     func() time.Time
}

// NewService wires the state machine to its collaborators. The publisher
// may be nil in tests that don't observe events.
func NewService(db *gorm.DB, checker catalog.Checker, publisher bus.Publisher) *Service {
	return &Service{db: db, catalog: checker, bus: publisher, now: time.Now}
}

// SetClock overrides the time source, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// PlaceOrder validates availability, mints a public code, and atomically
// creates the order with all items in the queued state. On success a
// refresh is broadcast so every board re-fetches its view.
func (s *Service) PlaceOrder(req PlaceOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrNoItems
	}

	if err := s.checkAvailability(req.Items); err != nil {
		return nil, err
	}

	template := models.Order{
		Status:               models.OrderStatusQueued,
		UserID:               req.UserID,
		NotificationsEnabled: req.NotificationsEnabled,
		NotificationMethods:  strings.Join(req.NotificationMethods, ","),
	}
	if req.UserID == nil {
		template.GuestName = req.GuestName
		template.GuestEmail = req.GuestEmail
		template.GuestPhone = req.GuestPhone
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, in := range req.Items {
		quantity := in.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		items = append(items, models.OrderItem{
			ProductID:     in.ProductID,
			Quantity:      quantity,
			Temperature:   in.Temperature,
			Shots:         in.Shots,
			Milk:          in.Milk,
			Modifiers:     in.Modifiers,
			RecipientName: in.RecipientName,
		})
	}

	claim := &orderClaim{db: s.db, template: template, items: items}
	allocator := sequence.NewAllocator(claim)
	if _, err := allocator.Allocate(s.now()); err != nil {
		var exhausted *sequence.ExhaustedError
		if errors.As(err, &exhausted) {
			monitoring.AllocationExhausted.Inc()
		}
		return nil, err
	}

	monitoring.OrdersPlaced.Inc()

	order := claim.result
	s.publish(bus.TopicRefreshQueue, bus.Event{
		Type:     bus.EventRefresh,
		OrderID:  order.ID,
		PublicID: order.PublicID,
	})

	return order, nil
}

// CompleteItem marks a pending item as made and recomputes the parent
// order's status.
func (s *Service) CompleteItem(itemID uint) (*models.Order, *models.OrderItem, error) {
	now := s.now()
	order, item, err := s.mutateItem(itemID, func(item *models.OrderItem) {
		item.CompletedAt = &now
	})
	if err != nil {
		return nil, nil, err
	}

	monitoring.ItemMutations.WithLabelValues("complete").Inc()
	s.publishItemEvents(order, item, bus.EventItemCompleted)
	return order, item, nil
}

// CancelItem marks a pending item as cancelled, subject to the ownership
// check, and recomputes the parent order's status.
func (s *Service) CancelItem(itemID uint, auth AuthContext) (*models.Order, *models.OrderItem, error) {
	var parent models.Order
	var probe models.OrderItem
	if err := s.db.First(&probe, itemID).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil, ErrItemNotFound
		}
		return nil, nil, err
	}
	if err := s.db.First(&parent, probe.OrderID).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil, ErrOrderNotFound
		}
		return nil, nil, err
	}

	if !s.mayCancel(&parent, auth) {
		return nil, nil, ErrUnauthorized
	}

	order, item, err := s.mutateItem(itemID, func(item *models.OrderItem) {
		item.Cancelled = true
	})
	if err != nil {
		return nil, nil, err
	}

	monitoring.ItemMutations.WithLabelValues("cancel").Inc()
	s.publishItemEvents(order, item, bus.EventItemCancelled)
	return order, item, nil
}

// GetByPublicID loads an order with its items by public code.
func (s *Service) GetByPublicID(publicID string) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items").Where("public_id = ?", publicID).First(&order).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// mayCancel applies the ownership rule: staff always, owners of
// registered orders by identity, guests by presenting the public code.
func (s *Service) mayCancel(order *models.Order, auth AuthContext) bool {
	if auth.Staff {
		return true
	}
	if order.UserID != nil {
		return auth.UserID != nil && *auth.UserID == *order.UserID
	}
	return auth.PublicCode != "" && auth.PublicCode == order.PublicID
}

// mutateItem applies a one-way transition to a pending item and updates
// the parent order's aggregate status in the same transaction.
func (s *Service) mutateItem(itemID uint, apply func(*models.OrderItem)) (*models.Order, *models.OrderItem, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, nil, tx.Error
	}

	var item models.OrderItem
	if err := tx.First(&item, itemID).Error; err != nil {
		tx.Rollback()
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil, ErrItemNotFound
		}
		return nil, nil, err
	}

	if item.Resolved() {
		tx.Rollback()
		return nil, nil, fmt.Errorf("item %d: %w", itemID, ErrAlreadyResolved)
	}

	apply(&item)
	if err := tx.Save(&item).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	var order models.Order
	if err := tx.First(&order, item.OrderID).Error; err != nil {
		tx.Rollback()
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil, ErrOrderNotFound
		}
		return nil, nil, err
	}

	var items []models.OrderItem
	if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	status := AggregateStatus(items)
	if status != order.Status {
		order.Status = status
		if err := tx.Save(&order).Error; err != nil {
			tx.Rollback()
			return nil, nil, err
		}
	}
	order.Items = items

	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}
	return &order, &item, nil
}

// publishItemEvents emits the fine-grained item event, a terminal order
// event if the mutation finished the order, and the coarse refresh signal.
// Publication happens strictly after the commit.
func (s *Service) publishItemEvents(order *models.Order, item *models.OrderItem, itemEvent string) {
	event := bus.Event{
		Type:          itemEvent,
		OrderID:       order.ID,
		ItemID:        item.ID,
		PublicID:      order.PublicID,
		RecipientName: item.RecipientName,
		ItemName:      s.productName(item.ProductID),
	}
	s.publish(bus.TopicOrderUpdate, event)

	switch order.Status {
	case models.OrderStatusCompleted:
		event.Type = bus.EventOrderCompleted
		event.ItemID = 0
		s.publish(bus.TopicOrderUpdate, event)
	case models.OrderStatusCancelled:
		event.Type = bus.EventOrderCancelled
		event.ItemID = 0
		s.publish(bus.TopicOrderUpdate, event)
	}

	s.publish(bus.TopicRefreshQueue, bus.Event{Type: bus.EventRefresh, OrderID: order.ID, PublicID: order.PublicID})
}

// publish fires an event without ever failing the mutation that triggered
// it. The bus already drops rather than blocks; a nil publisher (tests)
// is a no-op.
func (s *Service) publish(topic string, event bus.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Emit(topic, event)
	monitoring.EventsPublished.WithLabelValues(topic).Inc()
}

func (s *Service) productName(productID uint) string {
	var product models.Product
	if err := s.db.Unscoped().Select("name").First(&product, productID).Error; err != nil {
		return ""
	}
	return product.Name
}

// checkAvailability gates placement on the catalog collaborator: every
// referenced product must be active and not deleted, and every ingredient
// those products require must be in stock.
func (s *Service) checkAvailability(items []PlaceItem) error {
	seen := make(map[uint]bool)
	var ids []uint
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	products, err := s.catalog.Products(ids)
	if err != nil {
		return fmt.Errorf("failed to check product availability: %w", err)
	}

	byID := make(map[uint]catalog.ProductAvailability, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var badProducts []string
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			badProducts = append(badProducts, fmt.Sprintf("product #%d", id))
			continue
		}
		if !p.Orderable() {
			badProducts = append(badProducts, p.Name)
		}
	}

	ingredients, err := s.catalog.IngredientsForProducts(ids)
	if err != nil {
		return fmt.Errorf("failed to check ingredient availability: %w", err)
	}

	var badIngredients []string
	for _, ing := range ingredients {
		if !ing.IsAvailable {
			badIngredients = append(badIngredients, ing.Name)
		}
	}

	if len(badProducts) > 0 || len(badIngredients) > 0 {
		return &ItemUnavailableError{Products: badProducts, Ingredients: badIngredients}
	}
	return nil
}
