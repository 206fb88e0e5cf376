package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brydenu/blfs-cafe-sub001/internal/models"
	"github.com/brydenu/blfs-cafe-sub001/internal/monitoring"
	"github.com/brydenu/blfs-cafe-sub001/internal/orders"
	"github.com/brydenu/blfs-cafe-sub001/internal/schedule"
	"github.com/brydenu/blfs-cafe-sub001/internal/sequence"
)

// placeOrderPayload is the request body for POST /api/orders. Guest
// contact fields are ignored for authenticated callers.
type placeOrderPayload struct {
	GuestName            string             `json:"guestName"`
	GuestEmail           string             `json:"guestEmail" binding:"omitempty,email"`
	GuestPhone           string             `json:"guestPhone"`
	NotificationsEnabled bool               `json:"notificationsEnabled"`
	NotificationMethods  []string           `json:"notificationMethods"`
	Items                []orders.PlaceItem `json:"items" binding:"required,min=1,dive"`
}

// scheduleRulePayload is the request body for PUT /api/schedule/:weekday.
type scheduleRulePayload struct {
	IsOpen               bool   `json:"isOpen"`
	OpenTime1            string `json:"openTime1" binding:"omitempty,hhmm"`
	CloseTime1           string `json:"closeTime1" binding:"omitempty,hhmm"`
	OpenTime2            string `json:"openTime2" binding:"omitempty,hhmm"`
	CloseTime2           string `json:"closeTime2" binding:"omitempty,hhmm"`
	IsSecondPeriodActive bool   `json:"isSecondPeriodActive"`
}

// handlePlaceOrder creates an order after gating on the schedule: walk-up
// submissions while the counter is closed are rejected with the full cafe
// status so the client can render the reopen time. Staff bypass the gate.
func (s *Server) handlePlaceOrder(c *gin.Context) {
	var payload placeOrderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !c.GetBool(ctxStaff) {
		status := s.cafeStatus()
		if status.Code != schedule.StatusOpen {
			c.JSON(http.StatusForbidden, gin.H{
				"error":      "The counter is not accepting orders right now",
				"cafeStatus": status,
			})
			return
		}
	}

	order, err := s.orders.PlaceOrder(orders.PlaceOrderRequest{
		UserID:               callerUserID(c),
		GuestName:            payload.GuestName,
		GuestEmail:           payload.GuestEmail,
		GuestPhone:           payload.GuestPhone,
		NotificationsEnabled: payload.NotificationsEnabled,
		NotificationMethods:  payload.NotificationMethods,
		Items:                payload.Items,
	})
	if err != nil {
		s.renderOrderError(c, err)
		return
	}

	if s.monitor != nil {
		s.monitor.Incr("orders_placed")
	}

	rank, err := s.ranker.RankOf(order.CreatedAt)
	if err != nil {
		log.Printf("failed to rank new order %s: %v", order.PublicID, err)
	}

	c.JSON(http.StatusCreated, gin.H{"order": order, "rank": rank})
}

// handleGetOrder is the per-order tracker view: the order, its items, and
// its current rank.
func (s *Server) handleGetOrder(c *gin.Context) {
	order, err := s.orders.GetByPublicID(c.Param("code"))
	if err != nil {
		s.renderOrderError(c, err)
		return
	}

	response := gin.H{"order": order}
	if order.InFlight() {
		rank, err := s.ranker.RankOf(order.CreatedAt)
		if err != nil {
			log.Printf("failed to rank order %s: %v", order.PublicID, err)
		} else {
			response["rank"] = rank
		}
	}

	c.JSON(http.StatusOK, response)
}

func (s *Server) handleGetRank(c *gin.Context) {
	order, err := s.orders.GetByPublicID(c.Param("code"))
	if err != nil {
		s.renderOrderError(c, err)
		return
	}

	if !order.InFlight() {
		c.JSON(http.StatusOK, gin.H{"status": order.Status})
		return
	}

	rank, err := s.ranker.RankOf(order.CreatedAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": order.Status, "rank": rank})
}

func (s *Server) handleCompleteItem(c *gin.Context) {
	itemID, ok := s.itemInOrder(c)
	if !ok {
		return
	}

	order, item, err := s.orders.CompleteItem(itemID)
	if err != nil {
		s.renderOrderError(c, err)
		return
	}

	if s.monitor != nil {
		s.monitor.Incr("items_completed")
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "item": item})
}

func (s *Server) handleCancelItem(c *gin.Context) {
	itemID, ok := s.itemInOrder(c)
	if !ok {
		return
	}

	auth := orders.AuthContext{
		UserID:     callerUserID(c),
		Staff:      c.GetBool(ctxStaff),
		PublicCode: c.Param("code"),
	}

	order, item, err := s.orders.CancelItem(itemID, auth)
	if err != nil {
		s.renderOrderError(c, err)
		return
	}

	if s.monitor != nil {
		s.monitor.Incr("items_cancelled")
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "item": item})
}

// itemInOrder resolves the :id path param and confirms the item belongs
// to the order named by :code, so one order's code cannot mutate another
// order's items.
func (s *Server) itemInOrder(c *gin.Context) (uint, bool) {
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item id"})
		return 0, false
	}

	order, err := s.orders.GetByPublicID(c.Param("code"))
	if err != nil {
		s.renderOrderError(c, err)
		return 0, false
	}

	for _, item := range order.Items {
		if item.ID == uint(itemID) {
			return uint(itemID), true
		}
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in order"})
	return 0, false
}

// handleBoard serves the observer board: every active item across
// in-flight (and partially-cancelled) orders in global FIFO order.
func (s *Server) handleBoard(c *gin.Context) {
	tickets, err := s.ranker.Board()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	monitoring.QueueDepth.Set(float64(len(tickets)))
	c.JSON(http.StatusOK, gin.H{"tickets": tickets, "count": len(tickets)})
}

func (s *Server) handleGetSchedule(c *gin.Context) {
	rules, err := s.scheduleRules()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rules)
}

func (s *Server) handleScheduleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.cafeStatus())
}

func (s *Server) handlePutScheduleRule(c *gin.Context) {
	weekday, err := strconv.Atoi(c.Param("weekday"))
	if err != nil || weekday < 0 || weekday > 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Weekday must be 0-6"})
		return
	}

	var payload scheduleRulePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if payload.IsOpen && (payload.OpenTime1 == "" || payload.CloseTime1 == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Open days need openTime1 and closeTime1"})
		return
	}
	if payload.IsSecondPeriodActive && (payload.OpenTime2 == "" || payload.CloseTime2 == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A second period needs openTime2 and closeTime2"})
		return
	}

	// Maps rather than structs so false and empty values still apply.
	var rule models.ScheduleRule
	err = s.db.Where("weekday = ?", weekday).
		Assign(map[string]interface{}{
			"weekday":                 weekday,
			"is_open":                 payload.IsOpen,
			"open_time1":              payload.OpenTime1,
			"close_time1":             payload.CloseTime1,
			"open_time2":              payload.OpenTime2,
			"close_time2":             payload.CloseTime2,
			"is_second_period_active": payload.IsSecondPeriodActive,
		}).
		FirstOrCreate(&rule).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rule)
}

func (s *Server) handleStats(c *gin.Context) {
	if s.monitor == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, s.monitor.Snapshot())
}

func (s *Server) scheduleRules() ([]models.ScheduleRule, error) {
	var rules []models.ScheduleRule
	err := s.db.Order("weekday").Find(&rules).Error
	return rules, err
}

func (s *Server) cafeStatus() schedule.Status {
	rules, err := s.scheduleRules()
	if err != nil {
		log.Printf("failed to load schedule rules: %v", err)
		return schedule.Status{Code: schedule.StatusNotScheduled, Message: "We're closed today."}
	}
	return schedule.Classify(rules, s.now())
}

// renderOrderError maps the order core's typed failures onto HTTP codes.
func (s *Server) renderOrderError(c *gin.Context, err error) {
	var unavailable *orders.ItemUnavailableError
	var exhausted *sequence.ExhaustedError

	switch {
	case errors.As(err, &unavailable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":       unavailable.Error(),
			"products":    unavailable.Products,
			"ingredients": unavailable.Ingredients,
		})
	case errors.As(err, &exhausted):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": exhausted.Error()})
	case errors.Is(err, orders.ErrNoItems):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, orders.ErrAlreadyResolved):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, orders.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, orders.ErrOrderNotFound), errors.Is(err, orders.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
