package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"baytna-backend/internal/events"
	"baytna-backend/internal/metrics"
	"baytna-backend/internal/models"
	"baytna-backend/pkg/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// orderTransitions lists every legal move and the capability it needs.
// A pair missing from the table is a 400; a legal move by an actor without
// the capability is a 403.
var orderTransitions = map[models.OrderStatus]map[models.OrderStatus]models.Capability{
	models.OrderPending: {
		models.OrderApproved: models.CapApproveOrders,
		models.OrderRejected: models.CapApproveOrders,
	},
	models.OrderApproved: {
		models.OrderInProgress: models.CapDrive,
	},
	models.OrderInProgress: {
		models.OrderCompleted: models.CapDrive,
	},
}

type OrderFilter struct {
	Status models.OrderStatus
}

type OrderService struct {
	db       *gorm.DB
	notifier *Dispatcher
	pub      events.Publisher
	now      func() time.Time
}

func NewOrderService(db *gorm.DB, notifier *Dispatcher, pub events.Publisher) *OrderService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &OrderService{
		db:       db,
		notifier: notifier,
		pub:      pub,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func orderURL(id uint64) string { return fmt.Sprintf("/groceries/orders/%d", id) }

func (s *OrderService) Create(ctx context.Context, actor *models.User, in models.CreateOrderInput) (*models.Order, error) {
	if actor.Role == models.RoleDriver && !actor.IsAdmin() {
		return nil, utils.ErrForbidden("drivers cannot create grocery orders")
	}

	order := models.Order{
		CreatedBy: actor.ID,
		Status:    models.OrderPending,
		Notes:     in.Notes,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := make([]models.OrderItem, 0, len(in.Items))
		for _, itemIn := range in.Items {
			item, err := buildItem(tx, itemIn)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		order.Items = items
		order.TotalEstimated = sumItems(items)
		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Order] #%d created by user %d with %d items", order.ID, actor.ID, len(order.Items))
	notify("new order", s.notifier.NotifyCapable(ctx, models.CapApproveOrders, actor.ID, Notice{
		Title:   "New grocery order",
		Body:    fmt.Sprintf("%s requested %d items", actor.FullName, len(order.Items)),
		Section: models.SectionGroceries,
		URL:     orderURL(order.ID),
		Tag:     fmt.Sprintf("order-%d", order.ID),
	}))
	s.publish(ctx, events.OrderCreated, map[string]interface{}{
		"order_id":        order.ID,
		"created_by":      actor.ID,
		"total_estimated": order.TotalEstimated,
	})
	return &order, nil
}

// buildItem fills name, unit and price from the catalogue when the item
// references a product and leaves them out.
func buildItem(tx *gorm.DB, in models.OrderItemInput) (models.OrderItem, error) {
	item := models.OrderItem{
		ProductID: in.ProductID,
		Name:      in.Name,
		Quantity:  in.Quantity,
		Unit:      in.Unit,
		Notes:     in.Notes,
	}
	if in.EstimatedPrice != nil {
		item.EstimatedPrice = *in.EstimatedPrice
	}
	if in.ProductID != nil {
		var p models.Product
		if err := tx.Where("id = ? AND is_active = ?", *in.ProductID, true).First(&p).Error; err != nil {
			return item, utils.NotFoundOr(err, "product")
		}
		if item.Name == "" {
			item.Name = p.Name
		}
		if item.Unit == "" {
			item.Unit = p.Unit
		}
		if in.EstimatedPrice == nil {
			item.EstimatedPrice = p.Price
		}
	}
	if item.Name == "" {
		return item, utils.ErrValidation("item name is required")
	}
	if item.Quantity < 1 {
		return item, utils.ErrValidation("quantity must be at least 1")
	}
	if item.EstimatedPrice.IsNegative() {
		return item, utils.ErrValidation("estimated price cannot be negative")
	}
	return item, nil
}

func sumItems(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// recomputeTotal must run inside the transaction that changed the items.
func recomputeTotal(tx *gorm.DB, orderID uint64) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}
	return tx.Model(&models.Order{}).Where("id = ?", orderID).
		Update("total_estimated", sumItems(items)).Error
}

func (s *OrderService) List(ctx context.Context, actor *models.User, f OrderFilter) ([]models.Order, error) {
	q := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Creator").
		Preload("Driver").
		Order("created_at desc, id desc")

	switch {
	case actor.Can(models.CapApproveOrders):
	case actor.Can(models.CapDrive):
		q = q.Where("created_by = ? OR assigned_driver = ? OR (status = ? AND assigned_driver IS NULL)",
			actor.ID, actor.ID, models.OrderApproved)
	default:
		q = q.Where("created_by = ?", actor.ID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var orders []models.Order
	return orders, q.Find(&orders).Error
}

func (s *OrderService) Get(ctx context.Context, actor *models.User, id uint64) (*models.Order, error) {
	order, err := s.load(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !canViewOrder(actor, order) {
		return nil, utils.ErrForbidden("you cannot view this order")
	}
	return order, nil
}

func (s *OrderService) load(db *gorm.DB, id uint64) (*models.Order, error) {
	var order models.Order
	err := db.Preload("Items").Preload("Creator").Preload("Driver").First(&order, id).Error
	if err != nil {
		return nil, utils.NotFoundOr(err, "order")
	}
	return &order, nil
}

func canViewOrder(actor *models.User, o *models.Order) bool {
	if actor.Can(models.CapApproveOrders) || o.CreatedBy == actor.ID {
		return true
	}
	if actor.Can(models.CapDrive) {
		if o.AssignedDriver != nil {
			return *o.AssignedDriver == actor.ID
		}
		return o.Status == models.OrderApproved
	}
	return false
}

// UpdateStatus moves an order along the state machine. The row is updated by
// id only, so concurrent updates resolve as last write wins.
func (s *OrderService) UpdateStatus(ctx context.Context, actor *models.User, id uint64, in models.UpdateOrderStatusInput) (*models.Order, error) {
	db := s.db.WithContext(ctx)
	var order models.Order
	if err := db.First(&order, id).Error; err != nil {
		return nil, utils.NotFoundOr(err, "order")
	}

	from, to := order.Status, in.Status
	required, ok := orderTransitions[from][to]
	if !ok {
		return nil, utils.ErrValidation("cannot move order from %s to %s", from, to)
	}
	if !actor.Can(required) {
		return nil, utils.ErrForbidden("missing permission %s to move order to %s", required, to)
	}

	now := s.now()
	updates := map[string]interface{}{"status": to}
	switch to {
	case models.OrderApproved, models.OrderRejected:
		updates["approved_by"] = actor.ID
	case models.OrderInProgress:
		if order.AssignedDriver == nil {
			updates["assigned_driver"] = actor.ID
		} else if *order.AssignedDriver != actor.ID && !actor.IsAdmin() {
			return nil, utils.ErrForbidden("order is assigned to another driver")
		}
	case models.OrderCompleted:
		if order.AssignedDriver != nil && *order.AssignedDriver != actor.ID && !actor.IsAdmin() {
			return nil, utils.ErrForbidden("order is assigned to another driver")
		}
		if in.TotalActual != nil {
			if in.TotalActual.IsNegative() {
				return nil, utils.ErrValidation("total_actual cannot be negative")
			}
			updates["total_actual"] = *in.TotalActual
		}
		if in.ReceiptImageURL != nil {
			updates["receipt_image_url"] = *in.ReceiptImageURL
		}
		updates["completed_at"] = now
	}

	if err := db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	metrics.StatusTransitions.WithLabelValues("order", string(from), string(to)).Inc()
	log.Printf("[Order] #%d %s -> %s by user %d", id, from, to, actor.ID)

	updated, err := s.load(db, id)
	if err != nil {
		return nil, err
	}
	s.notifyStatus(ctx, actor, updated)
	s.publish(ctx, events.OrderStatusChanged, map[string]interface{}{
		"order_id": id,
		"from":     from,
		"to":       to,
		"actor_id": actor.ID,
	})
	return updated, nil
}

func (s *OrderService) notifyStatus(ctx context.Context, actor *models.User, o *models.Order) {
	n := Notice{
		Section: models.SectionGroceries,
		URL:     orderURL(o.ID),
		Tag:     fmt.Sprintf("order-%d", o.ID),
	}
	switch o.Status {
	case models.OrderApproved:
		n.Title = "Order approved"
		n.Body = fmt.Sprintf("Order #%d is ready to be bought", o.ID)
		notify("order approved", s.notifier.NotifyCapable(ctx, models.CapDrive, actor.ID, n))
		n.Body = fmt.Sprintf("Your order #%d was approved", o.ID)
	case models.OrderRejected:
		n.Title = "Order rejected"
		n.Body = fmt.Sprintf("Your order #%d was rejected", o.ID)
	case models.OrderInProgress:
		n.Title = "Shopping started"
		n.Body = fmt.Sprintf("%s is buying order #%d", actor.FullName, o.ID)
	case models.OrderCompleted:
		n.Title = "Order delivered"
		n.Body = fmt.Sprintf("Order #%d is complete", o.ID)
	default:
		return
	}
	notify("order status", s.notifier.Notify(ctx, without([]uint64{o.CreatedBy}, actor.ID), n))
}

// AddItem appends an item to a pending order and refreshes the estimate.
func (s *OrderService) AddItem(ctx context.Context, actor *models.User, orderID uint64, in models.OrderItemInput) (*models.Order, error) {
	db := s.db.WithContext(ctx)
	err := db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			return utils.NotFoundOr(err, "order")
		}
		if err := canEditPending(actor, &order); err != nil {
			return err
		}
		item, err := buildItem(tx, in)
		if err != nil {
			return err
		}
		item.OrderID = orderID
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		return recomputeTotal(tx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return s.load(db, orderID)
}

func canEditPending(actor *models.User, o *models.Order) error {
	if o.Status != models.OrderPending {
		return utils.ErrValidation("items can only be changed while the order is pending")
	}
	if o.CreatedBy != actor.ID && !actor.IsAdmin() {
		return utils.ErrForbidden("only the creator can change this order")
	}
	return nil
}

// UpdateItem edits one item. While pending the creator may change quantity
// and price; once in progress the driver records what was bought.
func (s *OrderService) UpdateItem(ctx context.Context, actor *models.User, orderID, itemID uint64, in models.UpdateOrderItemInput) (*models.Order, error) {
	db := s.db.WithContext(ctx)
	err := db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			return utils.NotFoundOr(err, "order")
		}
		var item models.OrderItem
		if err := tx.Where("id = ? AND order_id = ?", itemID, orderID).First(&item).Error; err != nil {
			return utils.NotFoundOr(err, "order item")
		}

		updates := map[string]interface{}{}
		switch order.Status {
		case models.OrderPending:
			if err := canEditPending(actor, &order); err != nil {
				return err
			}
			if in.Purchased != nil || in.ActualPrice != nil {
				return utils.ErrValidation("purchases can only be recorded while the order is in progress")
			}
			if in.Quantity != nil {
				updates["quantity"] = *in.Quantity
			}
			if in.EstimatedPrice != nil {
				if in.EstimatedPrice.IsNegative() {
					return utils.ErrValidation("estimated price cannot be negative")
				}
				updates["estimated_price"] = *in.EstimatedPrice
			}
		case models.OrderInProgress:
			if !actor.IsAdmin() && (!actor.Can(models.CapDrive) ||
				(order.AssignedDriver != nil && *order.AssignedDriver != actor.ID)) {
				return utils.ErrForbidden("only the assigned driver can record purchases")
			}
			if in.Quantity != nil || in.EstimatedPrice != nil {
				return utils.ErrValidation("quantities are fixed once shopping has started")
			}
			if in.Purchased != nil {
				updates["purchased"] = *in.Purchased
			}
			if in.ActualPrice != nil {
				if in.ActualPrice.IsNegative() {
					return utils.ErrValidation("actual price cannot be negative")
				}
				updates["actual_price"] = *in.ActualPrice
			}
		default:
			return utils.ErrValidation("items of a %s order cannot be changed", order.Status)
		}
		if in.Notes != nil {
			updates["notes"] = *in.Notes
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&models.OrderItem{}).Where("id = ?", itemID).Updates(updates).Error; err != nil {
			return err
		}
		return recomputeTotal(tx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return s.load(db, orderID)
}

func (s *OrderService) DeleteItem(ctx context.Context, actor *models.User, orderID, itemID uint64) (*models.Order, error) {
	db := s.db.WithContext(ctx)
	err := db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			return utils.NotFoundOr(err, "order")
		}
		if err := canEditPending(actor, &order); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.OrderItem{}).Where("order_id = ?", orderID).Count(&count).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND order_id = ?", itemID, orderID).Delete(&models.OrderItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.ErrNotFound("order item")
		}
		if count <= 1 {
			return utils.ErrValidation("an order needs at least one item")
		}
		return recomputeTotal(tx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return s.load(db, orderID)
}

// SetReceipt records the receipt photo and the amount actually paid.
func (s *OrderService) SetReceipt(ctx context.Context, actor *models.User, id uint64, in models.ReceiptInput) (*models.Order, error) {
	db := s.db.WithContext(ctx)
	var order models.Order
	if err := db.First(&order, id).Error; err != nil {
		return nil, utils.NotFoundOr(err, "order")
	}
	if order.Status != models.OrderInProgress && order.Status != models.OrderCompleted {
		return nil, utils.ErrValidation("a receipt can only be attached to an order in progress or completed")
	}
	if !actor.IsAdmin() && (order.AssignedDriver == nil || *order.AssignedDriver != actor.ID) {
		return nil, utils.ErrForbidden("only the assigned driver can attach a receipt")
	}

	updates := map[string]interface{}{"receipt_image_url": in.ReceiptImageURL}
	if in.TotalActual != nil {
		if in.TotalActual.IsNegative() {
			return nil, utils.ErrValidation("total_actual cannot be negative")
		}
		updates["total_actual"] = *in.TotalActual
	}
	if err := db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.load(db, id)
}

func (s *OrderService) publish(ctx context.Context, key string, data interface{}) {
	if err := s.pub.Publish(ctx, key, data); err != nil {
		log.Printf("[Events] publish %s: %v", key, err)
	}
}
