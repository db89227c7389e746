package services

import (
	"context"
	"testing"
	"time"

	"baytna-backend/internal/models"
	"baytna-backend/internal/testutil"
	"baytna-backend/pkg/utils"
)

func TestTrip_WaitingAccumulates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, e.db, "huda", models.RoleHousehold)
	driver := testutil.CreateUser(t, e.db, "salim", models.RoleDriver)
	trip := e.createTrip(t, owner.ID, &driver.ID, models.TripApproved, time.Now().Add(-time.Minute), 60)

	if _, err := e.trips.UpdateStatus(ctx, driver, trip.ID, models.TripStarted); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := e.trips.UpdateStatus(ctx, driver, trip.ID, models.TripWaiting); err != nil {
		t.Fatalf("wait: %v", err)
	}

	// First waiting period: 5 minutes ago.
	e.db.Model(&models.Trip{}).Where("id = ?", trip.ID).
		UpdateColumn("waiting_started_at", time.Now().UTC().Add(-5*time.Minute))
	resumed, err := e.trips.UpdateStatus(ctx, driver, trip.ID, models.TripStarted)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.WaitingStartedAt != nil {
		t.Fatalf("waiting_started_at not cleared on resume")
	}
	first := resumed.WaitingDuration
	if first < 300 || first > 310 {
		t.Fatalf("first waiting period = %ds, want about 300", first)
	}

	if _, err := e.trips.UpdateStatus(ctx, driver, trip.ID, models.TripWaiting); err != nil {
		t.Fatalf("wait again: %v", err)
	}
	e.db.Model(&models.Trip{}).Where("id = ?", trip.ID).
		UpdateColumn("waiting_started_at", time.Now().UTC().Add(-2*time.Minute))
	before := time.Now()
	done, err := e.trips.UpdateStatus(ctx, driver, trip.ID, models.TripCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.WaitingStartedAt != nil || done.CompletedAt == nil {
		t.Fatalf("completion fields wrong: %+v", done)
	}
	if done.WaitingDuration < first+120 {
		t.Fatalf("waiting_duration = %d, want at least %d", done.WaitingDuration, first+120)
	}
	if done.WaitingDuration > first+120+int64(time.Since(before).Seconds())+5 {
		t.Fatalf("waiting_duration = %d grew more than the elapsed time", done.WaitingDuration)
	}
}

func TestTrip_StartedToCompletedKeepsWaiting(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, e.db, "huda", models.RoleHousehold)
	driver := testutil.CreateUser(t, e.db, "salim", models.RoleDriver)
	trip := e.createTrip(t, owner.ID, &driver.ID, models.TripStarted, time.Now().Add(-time.Hour), 60)
	e.db.Model(&models.Trip{}).Where("id = ?", trip.ID).UpdateColumn("waiting_duration", 42)

	done, err := e.trips.UpdateStatus(ctx, driver, trip.ID, models.TripCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.WaitingDuration != 42 {
		t.Fatalf("waiting_duration = %d, want unchanged 42", done.WaitingDuration)
	}
}

func TestTrip_ApprovalAndDriverRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, e.db, "huda", models.RoleHousehold)
	approver := testutil.CreateUser(t, e.db, "nadia", models.RoleHousehold, testutil.CanApproveTrips)
	driver := testutil.CreateUser(t, e.db, "salim", models.RoleDriver)
	other := testutil.CreateUser(t, e.db, "omar", models.RoleDriver)
	admin := testutil.CreateUser(t, e.db, "root", models.RoleAdmin)

	trip, warnings, err := e.trips.Create(ctx, owner, models.CreateTripInput{
		Location:          "School",
		DepartureTime:     time.Now().Add(2 * time.Hour),
		EstimatedDuration: 30,
		AssignedDriver:    &driver.ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if trip.Status != models.TripPending || warnings == nil {
		t.Fatalf("trip = %s warnings = %v, want pending with warnings", trip.Status, warnings)
	}

	_, err = e.trips.UpdateStatus(ctx, owner, trip.ID, models.TripApproved)
	assertKind(t, err, utils.KindForbidden)
	_, err = e.trips.UpdateStatus(ctx, driver, trip.ID, models.TripStarted)
	assertKind(t, err, utils.KindValidation)

	approved, err := e.trips.UpdateStatus(ctx, approver, trip.ID, models.TripApproved)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != approver.ID {
		t.Fatalf("approved_by not set")
	}

	_, err = e.trips.UpdateStatus(ctx, other, trip.ID, models.TripStarted)
	assertKind(t, err, utils.KindForbidden)

	started, err := e.trips.UpdateStatus(ctx, admin, trip.ID, models.TripStarted)
	if err != nil {
		t.Fatalf("admin start: %v", err)
	}
	if started.StartedAt == nil || *started.AssignedDriver != driver.ID {
		t.Fatalf("admin start should keep the assigned driver: %+v", started)
	}
}

func TestTrip_StartAssignsActingDriver(t *testing.T) {
	e := newEnv(t)
	owner := testutil.CreateUser(t, e.db, "huda", models.RoleHousehold)
	driver := testutil.CreateUser(t, e.db, "salim", models.RoleDriver)
	trip := e.createTrip(t, owner.ID, nil, models.TripApproved, time.Now(), 30)

	started, err := e.trips.UpdateStatus(context.Background(), driver, trip.ID, models.TripStarted)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.AssignedDriver == nil || *started.AssignedDriver != driver.ID {
		t.Fatalf("acting driver not assigned")
	}
}

func TestTrip_Cancel(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, e.db, "huda", models.RoleHousehold)
	stranger := testutil.CreateUser(t, e.db, "yusuf", models.RoleHousehold)

	past := e.createTrip(t, owner.ID, nil, models.TripApproved, time.Now().Add(-10*time.Minute), 30)
	_, err := e.trips.Cancel(ctx, owner, past.ID)
	assertKind(t, err, utils.KindValidation)
	var stored models.Trip
	e.db.First(&stored, past.ID)
	if stored.Status != models.TripApproved {
		t.Fatalf("past trip status changed to %s", stored.Status)
	}

	future := e.createTrip(t, owner.ID, nil, models.TripPending, time.Now().Add(time.Hour), 30)
	_, err = e.trips.Cancel(ctx, stranger, future.ID)
	assertKind(t, err, utils.KindForbidden)

	cancelled, err := e.trips.UpdateStatus(ctx, owner, future.ID, models.TripCancelled)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != models.TripCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}

	_, err = e.trips.Cancel(ctx, owner, future.ID)
	assertKind(t, err, utils.KindValidation)
}

func TestTrip_PersonalTripSkipsApproval(t *testing.T) {
	e := newEnv(t)
	driver := testutil.CreateUser(t, e.db, "salim", models.RoleDriver)
	approver := testutil.CreateUser(t, e.db, "nadia", models.RoleHousehold, testutil.CanApproveTrips)

	trip, _, err := e.trips.Create(context.Background(), driver, models.CreateTripInput{
		Purpose:           "Car wash",
		IsPersonal:        true,
		DepartureTime:     time.Now().Add(time.Hour),
		EstimatedDuration: 45,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if trip.Status != models.TripApproved || trip.AssignedDriver == nil || *trip.AssignedDriver != driver.ID {
		t.Fatalf("personal trip = %+v", trip)
	}
	e.notifier.Wait()
	if e.unreadFor(t, approver.ID) != 0 {
		t.Fatalf("personal trip should not ask for approval")
	}
}

func TestTrip_CreateWarnsAboutConflicts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, e.db, "huda", models.RoleHousehold)
	driver := testutil.CreateUser(t, e.db, "salim", models.RoleDriver)

	nine := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
	a := e.createTrip(t, owner.ID, &driver.ID, models.TripApproved, nine, 30)

	b, warnings, err := e.trips.Create(ctx, owner, models.CreateTripInput{
		Location:          "Clinic",
		DepartureTime:     nine.Add(15 * time.Minute),
		EstimatedDuration: 30,
		AssignedDriver:    &driver.ID,
	})
	if err != nil {
		t.Fatalf("Create must not block on conflicts: %v", err)
	}
	if len(warnings.TimeConflicts) != 1 || warnings.TimeConflicts[0].ID != a.ID {
		t.Fatalf("warnings = %+v, want trip %d", warnings.TimeConflicts, a.ID)
	}

	later := nine.Add(3 * time.Hour)
	_, warnings, err = e.trips.Update(ctx, owner, b.ID, models.UpdateTripInput{DepartureTime: &later})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(warnings.TimeConflicts) != 0 {
		t.Fatalf("moved trip still conflicts: %+v", warnings.TimeConflicts)
	}
}

func TestTrip_AssigningNonDriverFails(t *testing.T) {
	e := newEnv(t)
	owner := testutil.CreateUser(t, e.db, "huda", models.RoleHousehold)
	maid := testutil.CreateUser(t, e.db, "amina", models.RoleMaid)

	_, _, err := e.trips.Create(context.Background(), owner, models.CreateTripInput{
		Location:          "Mall",
		DepartureTime:     time.Now().Add(time.Hour),
		EstimatedDuration: 30,
		AssignedDriver:    &maid.ID,
	})
	assertKind(t, err, utils.KindValidation)
}

func TestWaitedSeconds(t *testing.T) {
	now := time.Now()
	if got := waitedSeconds(nil, now); got != 0 {
		t.Fatalf("nil start = %d", got)
	}
	start := now.Add(-1500 * time.Millisecond)
	if got := waitedSeconds(&start, now); got != 2 {
		t.Fatalf("1.5s rounds to %d, want 2", got)
	}
	future := now.Add(time.Second)
	if got := waitedSeconds(&future, now); got != 0 {
		t.Fatalf("clock skew gives %d, want 0", got)
	}
}
