package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"p9e.in/nuzum/models"
)

func TestPruneLocationsWindow(t *testing.T) {
	db := newTestDB(t)
	scheduler := NewRetentionScheduler(db)
	employee := seedEmployee(t, db, "EMP-400", "صالح")

	now := time.Now().UTC()
	ages := []time.Duration{20 * time.Hour, 10 * time.Hour, 1 * time.Hour}
	for _, age := range ages {
		loc := models.EmployeeLocation{
			EmployeeID: employee.ID,
			Latitude:   24.71,
			Longitude:  46.67,
			RecordedAt: now.Add(-age),
		}
		require.NoError(t, db.Create(&loc).Error)
	}

	// Default window is 14 hours: only the 20h-old sample goes.
	require.Equal(t, int64(1), scheduler.PruneLocations(now))

	var remaining int64
	require.NoError(t, db.Model(&models.EmployeeLocation{}).Count(&remaining).Error)
	require.Equal(t, int64(2), remaining)

	// Idempotent: a second pass finds nothing.
	require.Equal(t, int64(0), scheduler.PruneLocations(now))
}

func TestPruneGeofenceHistory(t *testing.T) {
	db := newTestDB(t)
	scheduler := NewRetentionScheduler(db)
	employee := seedEmployee(t, db, "EMP-401", "مشعل")

	fence := models.Geofence{Name: "موقع المشروع", CenterLat: 24.7, CenterLng: 46.6, RadiusM: 300, IsActive: true}
	require.NoError(t, db.Create(&fence).Error)

	now := time.Now().UTC()

	oldEvent := models.GeofenceEvent{
		GeofenceID: fence.ID, EmployeeID: employee.ID,
		EventType: "entry", RecordedAt: now.Add(-30 * time.Hour),
	}
	require.NoError(t, db.Create(&oldEvent).Error)
	oldSession := models.GeofenceSession{
		GeofenceID: fence.ID, EmployeeID: employee.ID,
		EntryEventID: &oldEvent.ID, StartedAt: now.Add(-30 * time.Hour),
	}
	require.NoError(t, db.Create(&oldSession).Error)

	freshEvent := models.GeofenceEvent{
		GeofenceID: fence.ID, EmployeeID: employee.ID,
		EventType: "entry", RecordedAt: now.Add(-1 * time.Hour),
	}
	require.NoError(t, db.Create(&freshEvent).Error)
	freshSession := models.GeofenceSession{
		GeofenceID: fence.ID, EmployeeID: employee.ID,
		EntryEventID: &freshEvent.ID, StartedAt: now.Add(-1 * time.Hour),
	}
	require.NoError(t, db.Create(&freshSession).Error)

	// Default window is 24 hours: the aged session and its event go together.
	require.Equal(t, int64(2), scheduler.PruneGeofenceHistory(now))

	var sessions []models.GeofenceSession
	require.NoError(t, db.Find(&sessions).Error)
	require.Len(t, sessions, 1)
	require.Equal(t, freshSession.ID, sessions[0].ID)

	var events []models.GeofenceEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	require.Equal(t, freshEvent.ID, events[0].ID)

	require.Equal(t, int64(0), scheduler.PruneGeofenceHistory(now))
}
