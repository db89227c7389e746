package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"baytna-backend/internal/events"
	"baytna-backend/internal/metrics"
	"baytna-backend/internal/models"
	"baytna-backend/pkg/utils"

	"gorm.io/gorm"
)

// tripTransitions lists every legal move through the status field and the
// capability it needs. Cancellation has its own rules, see Cancel.
// A pair missing from the table is a 400; a legal move by an actor without
// the capability is a 403.
var tripTransitions = map[models.TripStatus]map[models.TripStatus]models.Capability{
	models.TripPending: {
		models.TripApproved: models.CapApproveTrips,
		models.TripRejected: models.CapApproveTrips,
	},
	models.TripApproved: {
		models.TripStarted: models.CapDrive,
	},
	models.TripStarted: {
		models.TripWaiting:   models.CapDrive,
		models.TripCompleted: models.CapDrive,
	},
	models.TripWaiting: {
		models.TripStarted:   models.CapDrive,
		models.TripCompleted: models.CapDrive,
	},
}

type TripFilter struct {
	Status   models.TripStatus
	DriverID uint64
	From     *time.Time
	To       *time.Time
}

type TripService struct {
	db           *gorm.DB
	availability *AvailabilityChecker
	notifier     *Dispatcher
	pub          events.Publisher
	now          func() time.Time
}

func NewTripService(db *gorm.DB, availability *AvailabilityChecker, notifier *Dispatcher, pub events.Publisher) *TripService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &TripService{
		db:           db,
		availability: availability,
		notifier:     notifier,
		pub:          pub,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func tripURL(id uint64) string { return fmt.Sprintf("/logistics/trips/%d", id) }

// Create stores a trip. Personal trips skip approval. When a driver is
// assigned the availability check result is returned as warnings; it never
// blocks the write.
func (s *TripService) Create(ctx context.Context, actor *models.User, in models.CreateTripInput) (*models.Trip, *Availability, error) {
	db := s.db.WithContext(ctx)
	trip := models.Trip{
		CreatedBy:         actor.ID,
		Location:          in.Location,
		Purpose:           in.Purpose,
		Notes:             in.Notes,
		IsPersonal:        in.IsPersonal,
		VehicleID:         in.VehicleID,
		AssignedDriver:    in.AssignedDriver,
		DepartureTime:     in.DepartureTime.UTC(),
		EstimatedDuration: in.EstimatedDuration,
		Status:            models.TripPending,
	}
	if trip.IsPersonal {
		trip.Status = models.TripApproved
		if trip.AssignedDriver == nil && actor.Can(models.CapDrive) {
			id := actor.ID
			trip.AssignedDriver = &id
		}
	} else if trip.Location == "" {
		return nil, nil, utils.ErrValidation("location is required")
	}

	if err := s.checkRefs(db, trip.AssignedDriver, trip.VehicleID); err != nil {
		return nil, nil, err
	}
	if err := db.Create(&trip).Error; err != nil {
		return nil, nil, err
	}
	log.Printf("[Trip] #%d created by user %d (%s)", trip.ID, actor.ID, trip.Status)

	warnings, err := s.warnings(ctx, &trip)
	if err != nil {
		return nil, nil, err
	}

	n := Notice{Section: models.SectionLogistics, URL: tripURL(trip.ID), Tag: fmt.Sprintf("trip-%d", trip.ID)}
	if trip.Status == models.TripPending {
		n.Title = "Trip needs approval"
		n.Body = fmt.Sprintf("%s requested a trip to %s", actor.FullName, trip.Location)
		notify("new trip", s.notifier.NotifyCapable(ctx, models.CapApproveTrips, actor.ID, n))
	} else if trip.AssignedDriver != nil {
		n.Title = "New trip assigned"
		n.Body = fmt.Sprintf("Trip at %s", trip.DepartureTime.Format("Jan 2 15:04"))
		notify("trip assigned", s.notifier.Notify(ctx, without([]uint64{*trip.AssignedDriver}, actor.ID), n))
	}
	s.publish(ctx, events.TripCreated, map[string]interface{}{
		"trip_id":     trip.ID,
		"created_by":  actor.ID,
		"status":      trip.Status,
		"is_personal": trip.IsPersonal,
	})

	loaded, err := s.load(db, trip.ID)
	if err != nil {
		return nil, nil, err
	}
	return loaded, warnings, nil
}

func (s *TripService) checkRefs(db *gorm.DB, driverID, vehicleID *uint64) error {
	if driverID != nil {
		var driver models.User
		if err := db.Where("id = ? AND is_active = ?", *driverID, true).First(&driver).Error; err != nil {
			return utils.NotFoundOr(err, "driver")
		}
		if !driver.Can(models.CapDrive) {
			return utils.ErrValidation("user %s cannot drive", driver.Username)
		}
	}
	if vehicleID != nil {
		var v models.Vehicle
		if err := db.Where("id = ? AND is_active = ?", *vehicleID, true).First(&v).Error; err != nil {
			return utils.NotFoundOr(err, "vehicle")
		}
	}
	return nil
}

func (s *TripService) warnings(ctx context.Context, t *models.Trip) (*Availability, error) {
	if t.AssignedDriver == nil {
		return nil, nil
	}
	window := t.Window()
	id := t.ID
	return s.availability.Check(ctx, *t.AssignedDriver, &window, &id)
}

// Update edits a trip that has not started yet.
func (s *TripService) Update(ctx context.Context, actor *models.User, id uint64, in models.UpdateTripInput) (*models.Trip, *Availability, error) {
	db := s.db.WithContext(ctx)
	var trip models.Trip
	if err := db.First(&trip, id).Error; err != nil {
		return nil, nil, utils.NotFoundOr(err, "trip")
	}
	if trip.CreatedBy != actor.ID && !actor.Can(models.CapApproveTrips) {
		return nil, nil, utils.ErrForbidden("only the creator or a trip approver can edit this trip")
	}
	if trip.Status != models.TripPending && trip.Status != models.TripApproved {
		return nil, nil, utils.ErrValidation("a %s trip cannot be edited", trip.Status)
	}
	if err := s.checkRefs(db, in.AssignedDriver, in.VehicleID); err != nil {
		return nil, nil, err
	}

	updates := map[string]interface{}{}
	if in.Location != nil {
		updates["location"] = *in.Location
	}
	if in.Purpose != nil {
		updates["purpose"] = *in.Purpose
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.VehicleID != nil {
		updates["vehicle_id"] = *in.VehicleID
	}
	if in.AssignedDriver != nil {
		updates["assigned_driver"] = *in.AssignedDriver
	}
	if in.DepartureTime != nil {
		updates["departure_time"] = in.DepartureTime.UTC()
	}
	if in.EstimatedDuration != nil {
		updates["estimated_duration"] = *in.EstimatedDuration
	}
	if len(updates) > 0 {
		if err := db.Model(&models.Trip{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, nil, err
		}
	}

	updated, err := s.load(db, id)
	if err != nil {
		return nil, nil, err
	}
	warnings, err := s.warnings(ctx, updated)
	if err != nil {
		return nil, nil, err
	}
	return updated, warnings, nil
}

// UpdateStatus moves a trip along the state machine. Leaving waiting adds the
// elapsed seconds to WaitingDuration, so several waiting periods accumulate.
func (s *TripService) UpdateStatus(ctx context.Context, actor *models.User, id uint64, to models.TripStatus) (*models.Trip, error) {
	if to == models.TripCancelled {
		return s.Cancel(ctx, actor, id)
	}

	db := s.db.WithContext(ctx)
	var trip models.Trip
	if err := db.First(&trip, id).Error; err != nil {
		return nil, utils.NotFoundOr(err, "trip")
	}

	from := trip.Status
	required, ok := tripTransitions[from][to]
	if !ok {
		return nil, utils.ErrValidation("cannot move trip from %s to %s", from, to)
	}
	if !actor.Can(required) {
		return nil, utils.ErrForbidden("missing permission %s to move trip to %s", required, to)
	}
	if required == models.CapDrive && trip.AssignedDriver != nil &&
		*trip.AssignedDriver != actor.ID && !actor.IsAdmin() {
		return nil, utils.ErrForbidden("trip is assigned to another driver")
	}

	now := s.now()
	updates := map[string]interface{}{"status": to}
	switch {
	case to == models.TripApproved || to == models.TripRejected:
		updates["approved_by"] = actor.ID
	case from == models.TripApproved && to == models.TripStarted:
		updates["started_at"] = now
		if trip.AssignedDriver == nil {
			updates["assigned_driver"] = actor.ID
		}
	case to == models.TripWaiting:
		updates["waiting_started_at"] = now
	}
	if from == models.TripWaiting {
		updates["waiting_duration"] = trip.WaitingDuration + waitedSeconds(trip.WaitingStartedAt, now)
		updates["waiting_started_at"] = nil
	}
	if to == models.TripCompleted {
		updates["completed_at"] = now
	}

	if err := db.Model(&models.Trip{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	metrics.StatusTransitions.WithLabelValues("trip", string(from), string(to)).Inc()
	log.Printf("[Trip] #%d %s -> %s by user %d", id, from, to, actor.ID)

	updated, err := s.load(db, id)
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, actor, updated, from)
	return updated, nil
}

// waitedSeconds rounds up so a short wait is never recorded as zero.
func waitedSeconds(since *time.Time, now time.Time) int64 {
	if since == nil {
		return 0
	}
	elapsed := now.Sub(*since)
	if elapsed <= 0 {
		return 0
	}
	return int64(math.Ceil(elapsed.Seconds()))
}

// Cancel is allowed to the creator or an admin, only before departure.
func (s *TripService) Cancel(ctx context.Context, actor *models.User, id uint64) (*models.Trip, error) {
	db := s.db.WithContext(ctx)
	var trip models.Trip
	if err := db.First(&trip, id).Error; err != nil {
		return nil, utils.NotFoundOr(err, "trip")
	}
	if trip.CreatedBy != actor.ID && !actor.IsAdmin() {
		return nil, utils.ErrForbidden("only the creator or an admin can cancel this trip")
	}
	if trip.Status != models.TripPending && trip.Status != models.TripApproved {
		return nil, utils.ErrValidation("cannot move trip from %s to %s", trip.Status, models.TripCancelled)
	}
	if !trip.DepartureTime.After(s.now()) {
		return nil, utils.ErrValidation("trip has already departed and cannot be cancelled")
	}

	from := trip.Status
	if err := db.Model(&models.Trip{}).Where("id = ?", id).Update("status", models.TripCancelled).Error; err != nil {
		return nil, err
	}
	metrics.StatusTransitions.WithLabelValues("trip", string(from), string(models.TripCancelled)).Inc()
	log.Printf("[Trip] #%d cancelled by user %d", id, actor.ID)

	updated, err := s.load(db, id)
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, actor, updated, from)
	return updated, nil
}

func (s *TripService) afterTransition(ctx context.Context, actor *models.User, t *models.Trip, from models.TripStatus) {
	titles := map[models.TripStatus]string{
		models.TripApproved:  "Trip approved",
		models.TripRejected:  "Trip rejected",
		models.TripStarted:   "Trip started",
		models.TripWaiting:   "Driver is waiting",
		models.TripCompleted: "Trip completed",
		models.TripCancelled: "Trip cancelled",
	}
	if from == models.TripWaiting && t.Status == models.TripStarted {
		titles[models.TripStarted] = "Trip resumed"
	}
	title, ok := titles[t.Status]
	if ok {
		recipients := []uint64{t.CreatedBy}
		if t.AssignedDriver != nil {
			recipients = append(recipients, *t.AssignedDriver)
		}
		notify("trip status", s.notifier.Notify(ctx, without(recipients, actor.ID), Notice{
			Title:   title,
			Body:    fmt.Sprintf("Trip #%d to %s is now %s", t.ID, t.Location, t.Status),
			Section: models.SectionLogistics,
			URL:     tripURL(t.ID),
			Tag:     fmt.Sprintf("trip-%d", t.ID),
		}))
	}
	s.publish(ctx, events.TripStatusChanged, map[string]interface{}{
		"trip_id":  t.ID,
		"from":     from,
		"to":       t.Status,
		"actor_id": actor.ID,
	})
}

func (s *TripService) List(ctx context.Context, actor *models.User, f TripFilter) ([]models.Trip, error) {
	q := s.db.WithContext(ctx).
		Preload("Vehicle").
		Preload("Creator").
		Preload("Driver").
		Order("departure_time desc, id desc")

	if !actor.Can(models.CapApproveTrips) {
		q = q.Where("created_by = ? OR assigned_driver = ?", actor.ID, actor.ID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.DriverID != 0 {
		q = q.Where("assigned_driver = ?", f.DriverID)
	}
	if f.From != nil {
		q = q.Where("departure_time >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("departure_time < ?", f.To.UTC())
	}

	var trips []models.Trip
	return trips, q.Find(&trips).Error
}

func (s *TripService) Get(ctx context.Context, actor *models.User, id uint64) (*models.Trip, error) {
	trip, err := s.load(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !actor.Can(models.CapApproveTrips) && trip.CreatedBy != actor.ID &&
		(trip.AssignedDriver == nil || *trip.AssignedDriver != actor.ID) {
		return nil, utils.ErrForbidden("you cannot view this trip")
	}
	return trip, nil
}

func (s *TripService) load(db *gorm.DB, id uint64) (*models.Trip, error) {
	var trip models.Trip
	if err := db.Preload("Vehicle").Preload("Creator").Preload("Driver").First(&trip, id).Error; err != nil {
		return nil, utils.NotFoundOr(err, "trip")
	}
	return &trip, nil
}

func (s *TripService) publish(ctx context.Context, key string, data interface{}) {
	if err := s.pub.Publish(ctx, key, data); err != nil {
		log.Printf("[Events] publish %s: %v", key, err)
	}
}
