package handlers

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"p9e.in/nuzum/models"
)

func TestClassifyPresenceBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		ageMinutes float64
		status     PresenceStatus
	}{
		{"just reported", 0, PresenceActive},
		{"under five minutes", 4.9, PresenceActive},
		{"exactly five minutes", 5, PresenceRecentlyActive},
		{"under thirty minutes", 29.9, PresenceRecentlyActive},
		{"exactly thirty minutes", 30, PresenceInactive},
		{"under six hours", 359.9, PresenceInactive},
		{"exactly six hours", 360, PresenceNotRegistered},
		{"ancient", 100000, PresenceNotRegistered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyPresence(tt.ageMinutes); got != tt.status {
				t.Errorf("ClassifyPresence(%v) = %s, expected %s", tt.ageMinutes, got, tt.status)
			}
		})
	}
}

func TestIngestValidatesSample(t *testing.T) {
	db := newTestDB(t)
	svc := NewTrackingService(db)
	employee := seedEmployee(t, db, "EMP-300", "نواف")

	res := svc.Ingest(LocationSample{EmployeeID: employee.ID, Latitude: 123, Longitude: 46.67})
	require.False(t, res.OK)
	require.Equal(t, FailValidation, res.Kind)

	res = svc.Ingest(LocationSample{EmployeeID: uuid.New(), Latitude: 24.71, Longitude: 46.67})
	require.False(t, res.OK)
	require.Equal(t, FailNotFound, res.Kind)

	res = svc.Ingest(LocationSample{EmployeeID: employee.ID, Latitude: 24.71, Longitude: 46.67})
	require.True(t, res.OK, res.Message)
	saved := res.Payload.(models.EmployeeLocation)
	require.False(t, saved.RecordedAt.IsZero())
}

func TestIngestTracksGeofenceSessions(t *testing.T) {
	db := newTestDB(t)
	svc := NewTrackingService(db)
	employee := seedEmployee(t, db, "EMP-301", "تركي")

	fence := models.Geofence{
		Name:      "مستودع الرياض",
		CenterLat: 24.7136,
		CenterLng: 46.6753,
		RadiusM:   250,
		IsActive:  true,
	}
	require.NoError(t, db.Create(&fence).Error)

	base := time.Now().UTC().Add(-10 * time.Minute)

	// Inside the fence: entry event plus open session.
	res := svc.Ingest(LocationSample{
		EmployeeID: employee.ID,
		Latitude:   24.7136,
		Longitude:  46.6753,
		RecordedAt: base,
	})
	require.True(t, res.OK, res.Message)

	var sessions []models.GeofenceSession
	require.NoError(t, db.Where("employee_id = ?", employee.ID).Find(&sessions).Error)
	require.Len(t, sessions, 1)
	require.Nil(t, sessions[0].EndedAt)
	require.NotNil(t, sessions[0].EntryEventID)

	// Still inside: no duplicate session.
	res = svc.Ingest(LocationSample{
		EmployeeID: employee.ID,
		Latitude:   24.7140,
		Longitude:  46.6755,
		RecordedAt: base.Add(2 * time.Minute),
	})
	require.True(t, res.OK, res.Message)
	require.NoError(t, db.Where("employee_id = ?", employee.ID).Find(&sessions).Error)
	require.Len(t, sessions, 1)

	// Roughly a kilometre north: exit event, session closed.
	res = svc.Ingest(LocationSample{
		EmployeeID: employee.ID,
		Latitude:   24.7236,
		Longitude:  46.6753,
		RecordedAt: base.Add(5 * time.Minute),
	})
	require.True(t, res.OK, res.Message)
	require.NoError(t, db.Where("employee_id = ?", employee.ID).Find(&sessions).Error)
	require.Len(t, sessions, 1)
	require.NotNil(t, sessions[0].EndedAt)
	require.NotNil(t, sessions[0].ExitEventID)

	var events []models.GeofenceEvent
	require.NoError(t, db.Where("employee_id = ?", employee.ID).Order("recorded_at asc").Find(&events).Error)
	require.Len(t, events, 2)
	require.Equal(t, "entry", events[0].EventType)
	require.Equal(t, "exit", events[1].EventType)
}

func TestDashboardCountsPresence(t *testing.T) {
	db := newTestDB(t)
	svc := NewTrackingService(db)

	now := time.Now().UTC()
	fresh := seedEmployee(t, db, "EMP-302", "بدر")
	stale := seedEmployee(t, db, "EMP-303", "عمر")

	require.True(t, svc.Ingest(LocationSample{
		EmployeeID: fresh.ID, Latitude: 24.71, Longitude: 46.67, RecordedAt: now.Add(-1 * time.Minute),
	}).OK)
	require.True(t, svc.Ingest(LocationSample{
		EmployeeID: stale.ID, Latitude: 24.71, Longitude: 46.67, RecordedAt: now.Add(-2 * time.Hour),
	}).OK)

	payload, err := svc.Dashboard(now)
	require.NoError(t, err)

	counts := payload["status_counts"].(map[string]int)
	require.Equal(t, 1, counts[string(PresenceActive)])
	require.Equal(t, 1, counts[string(PresenceInactive)])

	presences := payload["employees"].([]EmployeePresence)
	require.Len(t, presences, 2)
}
