package services

import (
	"context"
	"testing"

	"baytna-backend/internal/events"
	"baytna-backend/internal/models"
	"baytna-backend/internal/push"
	"baytna-backend/internal/testutil"
	"baytna-backend/pkg/utils"
)

func TestNotify_StoresAndDelivers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	huda := testutil.CreateUser(t, e.db, "huda", models.RoleHousehold)
	amina := testutil.CreateUser(t, e.db, "amina", models.RoleMaid)

	e.db.Create(&models.PushSubscription{UserID: huda.ID, Endpoint: "https://push.example/live", P256dh: "k", Auth: "a"})
	e.db.Create(&models.PushSubscription{UserID: huda.ID, Endpoint: "https://push.example/gone", P256dh: "k", Auth: "a"})
	e.db.Model(&models.User{}).Where("id = ?", amina.ID).Update("fcm_token", "fcm-amina")
	e.sender.failFor["https://push.example/gone"] = push.ErrSubscriptionGone

	err := e.notifier.Notify(ctx, []uint64{huda.ID, amina.ID, huda.ID, 0}, Notice{
		Title:   "Laundry ready",
		Body:    "Your clothes are folded",
		Section: models.SectionHousekeeping,
		URL:     "/housekeeping/laundry",
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	e.notifier.Wait()

	var stored int64
	e.db.Model(&models.Notification{}).Count(&stored)
	if stored != 2 {
		t.Fatalf("stored %d notifications, want 2 after dedupe", stored)
	}
	if got := e.sender.count(); got != 3 {
		t.Fatalf("push attempts = %d, want 3 (two web push, one fcm)", got)
	}
	for _, m := range e.sender.msgs {
		if m.BadgeCount != 1 || m.URL != "/housekeeping/laundry" {
			t.Fatalf("unexpected push message %+v", m)
		}
	}

	var subs int64
	e.db.Model(&models.PushSubscription{}).Count(&subs)
	if subs != 1 {
		t.Fatalf("expired subscription not removed, %d left", subs)
	}

	if e.rt.framesFor(huda.ID, "notification") != 1 || e.rt.framesFor(amina.ID, "notification") != 1 {
		t.Fatalf("realtime frames missing: %+v", e.rt.frames)
	}
	created := 0
	for _, typ := range e.events.Types() {
		if typ == events.NotificationCreated {
			created++
		}
	}
	if created != 2 {
		t.Fatalf("notification.created events = %d, want 2", created)
	}
}

func TestNotify_PushFailureIsSwallowed(t *testing.T) {
	e := newEnv(t)
	huda := testutil.CreateUser(t, e.db, "huda", models.RoleHousehold)
	e.db.Create(&models.PushSubscription{UserID: huda.ID, Endpoint: "https://push.example/down", P256dh: "k", Auth: "a"})
	e.sender.failFor["https://push.example/down"] = context.DeadlineExceeded

	if err := e.notifier.Notify(context.Background(), []uint64{huda.ID}, Notice{Title: "Hi", Section: models.SectionHome}); err != nil {
		t.Fatalf("Notify surfaced a push failure: %v", err)
	}
	e.notifier.Wait()

	var subs int64
	e.db.Model(&models.PushSubscription{}).Count(&subs)
	if subs != 1 {
		t.Fatalf("subscription removed after a transient failure")
	}
}

func TestNotifyCapable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, e.db, "root", models.RoleAdmin)
	approver := testutil.CreateUser(t, e.db, "nadia", models.RoleHousehold, testutil.CanApproveTrips)
	plain := testutil.CreateUser(t, e.db, "yusuf", models.RoleHousehold)
	inactive := testutil.CreateUser(t, e.db, "gone", models.RoleHousehold, testutil.CanApproveTrips)
	e.db.Model(&models.User{}).Where("id = ?", inactive.ID).Update("is_active", false)

	err := e.notifier.NotifyCapable(ctx, models.CapApproveTrips, admin.ID, Notice{Title: "Trip", Section: models.SectionLogistics})
	if err != nil {
		t.Fatalf("NotifyCapable: %v", err)
	}
	e.notifier.Wait()

	if e.unreadFor(t, approver.ID) != 1 {
		t.Fatalf("approver not notified")
	}
	for _, u := range []*models.User{admin, plain, inactive} {
		if e.unreadFor(t, u.ID) != 0 {
			t.Fatalf("user %s should not be notified", u.Username)
		}
	}
}

func TestUnreadCountsAndMarkRead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	huda := testutil.CreateUser(t, e.db, "huda", models.RoleHousehold)
	other := testutil.CreateUser(t, e.db, "yusuf", models.RoleHousehold)

	for _, s := range []models.Section{models.SectionGroceries, models.SectionGroceries, models.SectionLogistics} {
		if err := e.notifier.Notify(ctx, []uint64{huda.ID}, Notice{Title: "x", Section: s}); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}
	e.notifier.Wait()

	counts, err := e.notifier.UnreadCounts(ctx, huda.ID)
	if err != nil {
		t.Fatalf("UnreadCounts: %v", err)
	}
	if counts.Total != 3 || counts.Sections[models.SectionGroceries] != 2 ||
		counts.Sections[models.SectionLogistics] != 1 || counts.Sections[models.SectionHome] != 0 {
		t.Fatalf("counts = %+v", counts)
	}

	list, err := e.notifier.List(ctx, huda.ID, models.SectionGroceries, 0)
	if err != nil || len(list) != 2 {
		t.Fatalf("List = %d, %v", len(list), err)
	}

	assertKind(t, e.notifier.MarkRead(ctx, other.ID, list[0].ID), utils.KindNotFound)
	if err := e.notifier.MarkRead(ctx, huda.ID, list[0].ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if n, _ := e.notifier.UnreadCount(ctx, huda.ID, models.SectionGroceries); n != 1 {
		t.Fatalf("groceries unread = %d, want 1", n)
	}

	marked, err := e.notifier.MarkAllRead(ctx, huda.ID, "")
	if err != nil || marked != 2 {
		t.Fatalf("MarkAllRead = %d, %v", marked, err)
	}
	if e.rt.framesFor(huda.ID, "badge") != 2 {
		t.Fatalf("badge frames = %d, want 2", e.rt.framesFor(huda.ID, "badge"))
	}
}
