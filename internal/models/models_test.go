package models

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCapabilities(t *testing.T) {
	cases := []struct {
		name string
		user *User
		want []Capability
	}{
		{"admin has everything", &User{Role: RoleAdmin}, AllCapabilities().List()},
		{"driver drives", &User{Role: RoleDriver}, []Capability{CapDrive}},
		{"plain household", &User{Role: RoleHousehold}, []Capability{}},
		{"flags add capabilities", &User{Role: RoleMaid, CanAddShortages: true, CanApproveTrips: true},
			[]Capability{CapAddShortages, CapApproveTrips}},
		{"nil user", nil, []Capability{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.user.Capabilities().List()
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCan(t *testing.T) {
	approver := &User{Role: RoleHousehold, CanApprove: true}
	if !approver.Can(CapApproveOrders) || approver.Can(CapDrive) {
		t.Fatal("approver capabilities are wrong")
	}
	if approver.IsAdmin() || !(&User{Role: RoleAdmin}).IsAdmin() {
		t.Fatal("IsAdmin is wrong")
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleHousehold, RoleMaid, RoleDriver} {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if Role("gardener").Valid() {
		t.Error("unknown role accepted")
	}
}

func TestTimeWindowOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	w := NewTimeWindow(base, 60)

	cases := []struct {
		name  string
		other TimeWindow
		want  bool
	}{
		{"same window", NewTimeWindow(base, 60), true},
		{"starts inside", NewTimeWindow(base.Add(30*time.Minute), 60), true},
		{"contains", NewTimeWindow(base.Add(-time.Hour), 180), true},
		{"touches the end", NewTimeWindow(base.Add(time.Hour), 30), false},
		{"ends at the start", NewTimeWindow(base.Add(-30*time.Minute), 30), false},
		{"far later", NewTimeWindow(base.Add(5*time.Hour), 30), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := w.Overlaps(tc.other); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			if got := tc.other.Overlaps(w); got != tc.want {
				t.Fatalf("overlap is not symmetric")
			}
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	if !TripCancelled.Terminal() || TripWaiting.Terminal() {
		t.Error("trip terminal states are wrong")
	}
	if !OrderRejected.Terminal() || OrderInProgress.Terminal() {
		t.Error("order terminal states are wrong")
	}
}

func TestLineTotal(t *testing.T) {
	item := OrderItem{Quantity: 3, EstimatedPrice: decimal.RequireFromString("2.25")}
	if !item.LineTotal().Equal(decimal.RequireFromString("6.75")) {
		t.Fatalf("got %s", item.LineTotal())
	}
}

func TestHousekeepingTaskIsDue(t *testing.T) {
	// Wednesday 2026-03-04 10:00; the week started on Saturday 2026-02-28.
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	at := func(y int, m time.Month, d, h int) *time.Time {
		v := time.Date(y, m, d, h, 0, 0, 0, time.UTC)
		return &v
	}

	cases := []struct {
		name string
		task HousekeepingTask
		want bool
	}{
		{"never done", HousekeepingTask{Frequency: FrequencyDaily}, true},
		{"daily done today", HousekeepingTask{Frequency: FrequencyDaily, CompletedAt: at(2026, 3, 4, 7)}, false},
		{"daily done yesterday", HousekeepingTask{Frequency: FrequencyDaily, CompletedAt: at(2026, 3, 3, 22)}, true},
		{"weekly done on saturday", HousekeepingTask{Frequency: FrequencyWeekly, CompletedAt: at(2026, 2, 28, 9)}, false},
		{"weekly done on friday", HousekeepingTask{Frequency: FrequencyWeekly, CompletedAt: at(2026, 2, 27, 9)}, true},
		{"once completed", HousekeepingTask{Frequency: FrequencyOnce, Status: TaskCompleted, CompletedAt: at(2026, 1, 1, 9)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.task.IsDue(now); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSectionValid(t *testing.T) {
	for _, s := range Sections {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Section("garden").Valid() {
		t.Error("unknown section accepted")
	}
}
