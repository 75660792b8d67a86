package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/nuzum/models"
	"p9e.in/nuzum/utils"
)

// PresenceStatus is the staleness classification of an employee's latest sample.
type PresenceStatus string

const (
	PresenceActive         PresenceStatus = "active"
	PresenceRecentlyActive PresenceStatus = "recently_active"
	PresenceInactive       PresenceStatus = "inactive"
	PresenceNotRegistered  PresenceStatus = "not_registered"
)

// ClassifyPresence buckets a sample age in minutes. Boundaries fall into the
// staler bucket: exactly 5 minutes is recently_active, exactly 30 inactive,
// exactly 360 not_registered.
func ClassifyPresence(ageMinutes float64) PresenceStatus {
	switch {
	case ageMinutes < 5:
		return PresenceActive
	case ageMinutes < 30:
		return PresenceRecentlyActive
	case ageMinutes < 360:
		return PresenceInactive
	}
	return PresenceNotRegistered
}

// LocationSample is one inbound position report from a mobile client.
type LocationSample struct {
	EmployeeID uuid.UUID
	Latitude   float64
	Longitude  float64
	AccuracyM  float64
	SpeedKmh   float64
	RecordedAt time.Time
	VehicleID  *uuid.UUID
}

// EmployeePresence is one row of the tracking dashboard.
type EmployeePresence struct {
	Employee   models.Employee         `json:"employee"`
	Latest     models.EmployeeLocation `json:"latest"`
	AgeMinutes float64                 `json:"ageMinutes"`
	Status     PresenceStatus          `json:"status"`
	Geofences  []string                `json:"geofences"`
}

// GeofencePresence is the inside-view of one active geofence.
type GeofencePresence struct {
	Geofence    models.Geofence   `json:"geofence"`
	InsideCount int               `json:"insideCount"`
	Employees   []models.Employee `json:"employees"`
}

// TrackingService ingests the location stream and serves the presence and
// geofence read models.
type TrackingService struct {
	db *gorm.DB
}

func NewTrackingService(db *gorm.DB) *TrackingService {
	return &TrackingService{db: db}
}

// Ingest appends one sample and updates geofence entry/exit bookkeeping.
func (s *TrackingService) Ingest(sample LocationSample) Result {
	if err := utils.ValidateCoordinate(utils.Coordinate{Lat: sample.Latitude, Lng: sample.Longitude}); err != nil {
		return Failure(FailValidation, "الإحداثيات غير صالحة")
	}
	var employee models.Employee
	if err := s.db.First(&employee, "id = ?", sample.EmployeeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Failure(FailNotFound, "الموظف غير موجود")
		}
		return Failure(FailConflict, "تعذر تحميل بيانات الموظف")
	}

	if sample.RecordedAt.IsZero() {
		sample.RecordedAt = time.Now().UTC()
	}
	location := models.EmployeeLocation{
		EmployeeID: sample.EmployeeID,
		Latitude:   sample.Latitude,
		Longitude:  sample.Longitude,
		AccuracyM:  sample.AccuracyM,
		SpeedKmh:   sample.SpeedKmh,
		RecordedAt: sample.RecordedAt,
		VehicleID:  sample.VehicleID,
	}
	if err := s.db.Create(&location).Error; err != nil {
		return Failure(FailConflict, "تعذر حفظ الموقع")
	}

	// Geofence bookkeeping is best-effort; a failed event never rejects the
	// sample itself.
	if err := s.updateGeofenceState(sample); err != nil {
		log.Printf("⚠️  Geofence bookkeeping failed for employee %s: %v", sample.EmployeeID, err)
	}
	return Success(location)
}

// updateGeofenceState compares the sample against every active geofence and
// records entry/exit transitions with their paired sessions.
func (s *TrackingService) updateGeofenceState(sample LocationSample) error {
	var geofences []models.Geofence
	if err := s.db.Where("is_active = ?", true).Find(&geofences).Error; err != nil {
		return err
	}

	point := utils.Coordinate{Lat: sample.Latitude, Lng: sample.Longitude}
	for _, g := range geofences {
		inside := utils.InsideGeofence(point, utils.Coordinate{Lat: g.CenterLat, Lng: g.CenterLng}, g.RadiusM)

		var openSession models.GeofenceSession
		err := s.db.Where("geofence_id = ? AND employee_id = ? AND ended_at IS NULL", g.ID, sample.EmployeeID).
			First(&openSession).Error
		hasOpen := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		switch {
		case inside && !hasOpen:
			event := models.GeofenceEvent{
				GeofenceID: g.ID,
				EmployeeID: sample.EmployeeID,
				EventType:  "entry",
				RecordedAt: sample.RecordedAt,
			}
			if err := s.db.Create(&event).Error; err != nil {
				return err
			}
			session := models.GeofenceSession{
				GeofenceID:   g.ID,
				EmployeeID:   sample.EmployeeID,
				EntryEventID: &event.ID,
				StartedAt:    sample.RecordedAt,
			}
			if err := s.db.Create(&session).Error; err != nil {
				return err
			}
		case !inside && hasOpen:
			event := models.GeofenceEvent{
				GeofenceID: g.ID,
				EmployeeID: sample.EmployeeID,
				EventType:  "exit",
				RecordedAt: sample.RecordedAt,
			}
			if err := s.db.Create(&event).Error; err != nil {
				return err
			}
			if err := s.db.Model(&models.GeofenceSession{}).Where("id = ?", openSession.ID).
				Updates(map[string]interface{}{
					"exit_event_id": event.ID,
					"ended_at":      sample.RecordedAt,
				}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// latestSamples returns the newest location per employee in one query.
func (s *TrackingService) latestSamples() ([]models.EmployeeLocation, error) {
	var locations []models.EmployeeLocation
	err := s.db.Raw(`
		SELECT * FROM (
			SELECT *, ROW_NUMBER() OVER (PARTITION BY employee_id ORDER BY recorded_at DESC) AS rn
			FROM employee_locations
		) ranked WHERE rn = 1`).Scan(&locations).Error
	return locations, err
}

// Dashboard assembles the live presence view: the latest sample per employee
// classified by staleness, plus per-geofence inside counts.
func (s *TrackingService) Dashboard(now time.Time) (map[string]interface{}, error) {
	latest, err := s.latestSamples()
	if err != nil {
		return nil, err
	}

	employeeIDs := make([]uuid.UUID, 0, len(latest))
	for _, l := range latest {
		employeeIDs = append(employeeIDs, l.EmployeeID)
	}
	employees := map[uuid.UUID]models.Employee{}
	if len(employeeIDs) > 0 {
		var rows []models.Employee
		if err := s.db.Where("id IN ?", employeeIDs).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, e := range rows {
			employees[e.ID] = e
		}
	}

	var geofences []models.Geofence
	if err := s.db.Where("is_active = ?", true).Find(&geofences).Error; err != nil {
		return nil, err
	}

	presences := make([]EmployeePresence, 0, len(latest))
	insideByGeofence := map[uuid.UUID][]models.Employee{}
	statusCounts := map[PresenceStatus]int{}

	for _, l := range latest {
		age := now.Sub(l.RecordedAt).Minutes()
		status := ClassifyPresence(age)
		statusCounts[status]++

		p := EmployeePresence{
			Employee:   employees[l.EmployeeID],
			Latest:     l,
			AgeMinutes: age,
			Status:     status,
			Geofences:  []string{},
		}
		point := utils.Coordinate{Lat: l.Latitude, Lng: l.Longitude}
		for _, g := range geofences {
			if utils.InsideGeofence(point, utils.Coordinate{Lat: g.CenterLat, Lng: g.CenterLng}, g.RadiusM) {
				p.Geofences = append(p.Geofences, g.Name)
				insideByGeofence[g.ID] = append(insideByGeofence[g.ID], p.Employee)
			}
		}
		presences = append(presences, p)
	}

	geofenceViews := make([]GeofencePresence, 0, len(geofences))
	for _, g := range geofences {
		inside := insideByGeofence[g.ID]
		if inside == nil {
			inside = []models.Employee{}
		}
		geofenceViews = append(geofenceViews, GeofencePresence{
			Geofence:    g,
			InsideCount: len(inside),
			Employees:   inside,
		})
	}

	return map[string]interface{}{
		"employees": presences,
		"geofences": geofenceViews,
		"status_counts": map[string]int{
			string(PresenceActive):         statusCounts[PresenceActive],
			string(PresenceRecentlyActive): statusCounts[PresenceRecentlyActive],
			string(PresenceInactive):       statusCounts[PresenceInactive],
			string(PresenceNotRegistered):  statusCounts[PresenceNotRegistered],
		},
	}, nil
}

// EmployeeTrail returns an employee's recent samples, newest first.
func (s *TrackingService) EmployeeTrail(employeeID uuid.UUID, limit int) ([]models.EmployeeLocation, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	var locations []models.EmployeeLocation
	err := s.db.Where("employee_id = ?", employeeID).
		Order("recorded_at desc").
		Limit(limit).
		Find(&locations).Error
	return locations, err
}
