package services

import (
	"context"
	"testing"

	"baytna-backend/internal/events"
	"baytna-backend/internal/models"
	"baytna-backend/internal/testutil"
	"baytna-backend/pkg/utils"

	"github.com/shopspring/decimal"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (e *env) newOrder(t *testing.T, creator *models.User) *models.Order {
	t.Helper()
	order, err := e.orders.Create(context.Background(), creator, models.CreateOrderInput{
		Items: []models.OrderItemInput{
			{Name: "Rice", Quantity: 2, EstimatedPrice: dec("3.50")},
			{Name: "Milk", Quantity: 1, EstimatedPrice: dec("1.25")},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestOrder_CreateComputesTotalAndNotifiesApprovers(t *testing.T) {
	e := newEnv(t)
	maid := testutil.CreateUser(t, e.db, "amina", models.RoleMaid)
	approver := testutil.CreateUser(t, e.db, "huda", models.RoleHousehold, testutil.CanApprove)
	admin := testutil.CreateUser(t, e.db, "root", models.RoleAdmin)
	plain := testutil.CreateUser(t, e.db, "yusuf", models.RoleHousehold)

	order := e.newOrder(t, maid)
	if order.Status != models.OrderPending {
		t.Fatalf("status = %s, want pending", order.Status)
	}
	if !order.TotalEstimated.Equal(decimal.RequireFromString("8.25")) {
		t.Fatalf("total = %s, want 8.25", order.TotalEstimated)
	}

	e.notifier.Wait()
	if e.unreadFor(t, approver.ID) != 1 || e.unreadFor(t, admin.ID) != 1 {
		t.Fatalf("approvers were not notified")
	}
	if e.unreadFor(t, plain.ID) != 0 || e.unreadFor(t, maid.ID) != 0 {
		t.Fatalf("non-approvers were notified")
	}
	if got := e.events.Types(); len(got) == 0 || got[0] != events.OrderCreated {
		t.Fatalf("events = %v, want order.created first", got)
	}
}

func TestOrder_DriverCannotCreate(t *testing.T) {
	e := newEnv(t)
	driver := testutil.CreateUser(t, e.db, "salim", models.RoleDriver)
	_, err := e.orders.Create(context.Background(), driver, models.CreateOrderInput{
		Items: []models.OrderItemInput{{Name: "Bread", Quantity: 1}},
	})
	assertKind(t, err, utils.KindForbidden)
}

func TestOrder_ApproveRequiresCapability(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	maid := testutil.CreateUser(t, e.db, "amina", models.RoleMaid)
	plain := testutil.CreateUser(t, e.db, "yusuf", models.RoleHousehold)
	approver := testutil.CreateUser(t, e.db, "huda", models.RoleHousehold, testutil.CanApprove)
	order := e.newOrder(t, maid)

	_, err := e.orders.UpdateStatus(ctx, plain, order.ID, models.UpdateOrderStatusInput{Status: models.OrderApproved})
	assertKind(t, err, utils.KindForbidden)

	var stored models.Order
	e.db.First(&stored, order.ID)
	if stored.Status != models.OrderPending || stored.ApprovedBy != nil {
		t.Fatalf("order changed after forbidden transition: %+v", stored)
	}

	updated, err := e.orders.UpdateStatus(ctx, approver, order.ID, models.UpdateOrderStatusInput{Status: models.OrderApproved})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if updated.Status != models.OrderApproved || updated.ApprovedBy == nil || *updated.ApprovedBy != approver.ID {
		t.Fatalf("approved order = %+v", updated)
	}
}

func TestOrder_IllegalTransition(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	maid := testutil.CreateUser(t, e.db, "amina", models.RoleMaid)
	admin := testutil.CreateUser(t, e.db, "root", models.RoleAdmin)
	order := e.newOrder(t, maid)

	_, err := e.orders.UpdateStatus(ctx, admin, order.ID, models.UpdateOrderStatusInput{Status: models.OrderCompleted})
	assertKind(t, err, utils.KindValidation)

	_, err = e.orders.UpdateStatus(ctx, admin, 9999, models.UpdateOrderStatusInput{Status: models.OrderApproved})
	assertKind(t, err, utils.KindNotFound)
}

func TestOrder_FullLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	maid := testutil.CreateUser(t, e.db, "amina", models.RoleMaid)
	approver := testutil.CreateUser(t, e.db, "huda", models.RoleHousehold, testutil.CanApprove)
	driver := testutil.CreateUser(t, e.db, "salim", models.RoleDriver)
	other := testutil.CreateUser(t, e.db, "omar", models.RoleDriver)
	order := e.newOrder(t, maid)

	if _, err := e.orders.UpdateStatus(ctx, approver, order.ID, models.UpdateOrderStatusInput{Status: models.OrderApproved}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	_, err := e.orders.UpdateStatus(ctx, maid, order.ID, models.UpdateOrderStatusInput{Status: models.OrderInProgress})
	assertKind(t, err, utils.KindForbidden)

	started, err := e.orders.UpdateStatus(ctx, driver, order.ID, models.UpdateOrderStatusInput{Status: models.OrderInProgress})
	if err != nil {
		t.Fatalf("start shopping: %v", err)
	}
	if started.AssignedDriver == nil || *started.AssignedDriver != driver.ID {
		t.Fatalf("driver not assigned: %+v", started.AssignedDriver)
	}

	_, err = e.orders.UpdateStatus(ctx, other, order.ID, models.UpdateOrderStatusInput{Status: models.OrderCompleted})
	assertKind(t, err, utils.KindForbidden)

	done, err := e.orders.UpdateStatus(ctx, driver, order.ID, models.UpdateOrderStatusInput{
		Status:          models.OrderCompleted,
		TotalActual:     dec("7.90"),
		ReceiptImageURL: ptr("/uploads/receipt.jpg"),
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.CompletedAt == nil || done.ReceiptImageURL != "/uploads/receipt.jpg" {
		t.Fatalf("completion fields missing: %+v", done)
	}
	if !done.TotalActual.Valid || !done.TotalActual.Decimal.Equal(decimal.RequireFromString("7.90")) {
		t.Fatalf("total_actual = %+v", done.TotalActual)
	}

	e.notifier.Wait()
	// approved, in_progress and completed all reach the creator.
	if n := e.unreadFor(t, maid.ID); n != 3 {
		t.Fatalf("creator has %d notifications, want 3", n)
	}
}

func TestOrder_ItemMutationsRecomputeTotal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	maid := testutil.CreateUser(t, e.db, "amina", models.RoleMaid)
	plain := testutil.CreateUser(t, e.db, "yusuf", models.RoleHousehold)
	order := e.newOrder(t, maid)

	updated, err := e.orders.AddItem(ctx, maid, order.ID, models.OrderItemInput{Name: "Eggs", Quantity: 3, EstimatedPrice: dec("0.50")})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if !updated.TotalEstimated.Equal(decimal.RequireFromString("9.75")) {
		t.Fatalf("after add total = %s, want 9.75", updated.TotalEstimated)
	}

	rice := updated.Items[0]
	updated, err = e.orders.UpdateItem(ctx, maid, order.ID, rice.ID, models.UpdateOrderItemInput{Quantity: ptr(4)})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if !updated.TotalEstimated.Equal(decimal.RequireFromString("16.75")) {
		t.Fatalf("after update total = %s, want 16.75", updated.TotalEstimated)
	}

	updated, err = e.orders.DeleteItem(ctx, maid, order.ID, rice.ID)
	if err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if !updated.TotalEstimated.Equal(decimal.RequireFromString("2.75")) {
		t.Fatalf("after delete total = %s, want 2.75", updated.TotalEstimated)
	}

	_, err = e.orders.AddItem(ctx, plain, order.ID, models.OrderItemInput{Name: "Tea", Quantity: 1})
	assertKind(t, err, utils.KindForbidden)

	_, err = e.orders.UpdateItem(ctx, maid, order.ID, updated.Items[0].ID, models.UpdateOrderItemInput{Purchased: ptr(true)})
	assertKind(t, err, utils.KindValidation)
}

func TestOrder_ProductDefaults(t *testing.T) {
	e := newEnv(t)
	maid := testutil.CreateUser(t, e.db, "amina", models.RoleMaid)
	product := models.Product{Name: "Olive oil", Unit: "bottle", Price: decimal.RequireFromString("6.00"), IsActive: true}
	if err := e.db.Create(&product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}

	order, err := e.orders.Create(context.Background(), maid, models.CreateOrderInput{
		Items: []models.OrderItemInput{{ProductID: &product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	item := order.Items[0]
	if item.Name != "Olive oil" || item.Unit != "bottle" || !item.EstimatedPrice.Equal(product.Price) {
		t.Fatalf("item did not inherit product fields: %+v", item)
	}
	if !order.TotalEstimated.Equal(decimal.RequireFromString("12")) {
		t.Fatalf("total = %s, want 12", order.TotalEstimated)
	}
}

func TestOrder_Visibility(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	maid := testutil.CreateUser(t, e.db, "amina", models.RoleMaid)
	plain := testutil.CreateUser(t, e.db, "yusuf", models.RoleHousehold)
	approver := testutil.CreateUser(t, e.db, "huda", models.RoleHousehold, testutil.CanApprove)
	order := e.newOrder(t, maid)

	_, err := e.orders.Get(ctx, plain, order.ID)
	assertKind(t, err, utils.KindForbidden)

	list, err := e.orders.List(ctx, plain, OrderFilter{})
	if err != nil || len(list) != 0 {
		t.Fatalf("plain user sees %d orders (err %v)", len(list), err)
	}
	list, err = e.orders.List(ctx, approver, OrderFilter{Status: models.OrderPending})
	if err != nil || len(list) != 1 {
		t.Fatalf("approver sees %d pending orders (err %v)", len(list), err)
	}
}
