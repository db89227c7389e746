package services

import (
	"context"

	"baytna-backend/internal/models"

	"gorm.io/gorm"
)

var (
	activeTripStatuses    = []models.TripStatus{models.TripStarted, models.TripWaiting}
	scheduledTripStatuses = []models.TripStatus{models.TripPending, models.TripApproved, models.TripStarted, models.TripWaiting}
)

// Availability describes what a driver is committed to. Busy only reflects
// work in progress; TimeConflicts are warnings for a proposed window.
type Availability struct {
	DriverID      uint64         `json:"driver_id"`
	Busy          bool           `json:"busy"`
	ActiveTrips   []models.Trip  `json:"active_trips"`
	ActiveOrders  []models.Order `json:"active_orders"`
	TimeConflicts []models.Trip  `json:"time_conflicts"`
}

// HasWarnings reports whether anything would compete with a new assignment.
func (a *Availability) HasWarnings() bool {
	return a.Busy || len(a.TimeConflicts) > 0
}

// AvailabilityChecker is read-only and takes no locks. Two concurrent
// assignments can still overlap; callers surface the result as a warning.
type AvailabilityChecker struct {
	db *gorm.DB
}

func NewAvailabilityChecker(db *gorm.DB) *AvailabilityChecker {
	return &AvailabilityChecker{db: db}
}

// Check reports the driver's active trips and orders and, when window is not
// nil, the scheduled trips overlapping it. excludeTripID leaves a trip out of
// the overlap scan so an edited trip does not conflict with itself.
func (a *AvailabilityChecker) Check(ctx context.Context, driverID uint64, window *models.TimeWindow, excludeTripID *uint64) (*Availability, error) {
	db := a.db.WithContext(ctx)
	res := &Availability{
		DriverID:      driverID,
		ActiveTrips:   []models.Trip{},
		ActiveOrders:  []models.Order{},
		TimeConflicts: []models.Trip{},
	}

	if err := db.Where("assigned_driver = ? AND status IN ?", driverID, activeTripStatuses).
		Order("departure_time").Find(&res.ActiveTrips).Error; err != nil {
		return nil, err
	}
	if err := db.Where("assigned_driver = ? AND status = ?", driverID, models.OrderInProgress).
		Order("id").Find(&res.ActiveOrders).Error; err != nil {
		return nil, err
	}
	res.Busy = len(res.ActiveTrips) > 0 || len(res.ActiveOrders) > 0

	if window == nil {
		return res, nil
	}

	q := db.Where("assigned_driver = ? AND status IN ?", driverID, scheduledTripStatuses)
	if excludeTripID != nil {
		q = q.Where("id <> ?", *excludeTripID)
	}
	var scheduled []models.Trip
	if err := q.Order("departure_time").Find(&scheduled).Error; err != nil {
		return nil, err
	}
	for _, t := range scheduled {
		if t.Window().Overlaps(*window) {
			res.TimeConflicts = append(res.TimeConflicts, t)
		}
	}
	return res, nil
}

// BusyDrivers returns the ids of drivers with a trip or order in progress.
func (a *AvailabilityChecker) BusyDrivers(ctx context.Context) (map[uint64]bool, error) {
	db := a.db.WithContext(ctx)
	var tripDrivers, orderDrivers []uint64
	if err := db.Model(&models.Trip{}).
		Where("assigned_driver IS NOT NULL AND status IN ?", activeTripStatuses).
		Distinct().Pluck("assigned_driver", &tripDrivers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).
		Where("assigned_driver IS NOT NULL AND status = ?", models.OrderInProgress).
		Distinct().Pluck("assigned_driver", &orderDrivers).Error; err != nil {
		return nil, err
	}
	busy := make(map[uint64]bool, len(tripDrivers)+len(orderDrivers))
	for _, id := range append(tripDrivers, orderDrivers...) {
		busy[id] = true
	}
	return busy, nil
}
