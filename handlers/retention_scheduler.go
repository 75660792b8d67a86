package handlers

import (
	"log"
	"time"

	"gorm.io/gorm"
	"p9e.in/nuzum/config"
	"p9e.in/nuzum/models"
)

// RetentionScheduler prunes the location stream and geofence history on two
// fixed cadences. Both jobs run once at startup, are idempotent, and swallow
// their own failures.
type RetentionScheduler struct {
	db   *gorm.DB
	stop chan struct{}
	done chan struct{}
}

func NewRetentionScheduler(db *gorm.DB) *RetentionScheduler {
	return &RetentionScheduler{
		db:   db,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start launches both pruning loops.
func (s *RetentionScheduler) Start() {
	go s.run()
	log.Println("✅ Retention scheduler started")
}

// Shutdown stops the loops and waits for the current pass to finish.
func (s *RetentionScheduler) Shutdown() {
	close(s.stop)
	<-s.done
	log.Println("✅ Retention scheduler stopped")
}

func (s *RetentionScheduler) run() {
	defer close(s.done)

	locationTicker := time.NewTicker(time.Duration(config.CleanupLocationIntervalHours()) * time.Hour)
	geofenceTicker := time.NewTicker(time.Duration(config.CleanupGeofenceIntervalHours()) * time.Hour)
	defer locationTicker.Stop()
	defer geofenceTicker.Stop()

	// Startup pass
	s.PruneLocations(time.Now())
	s.PruneGeofenceHistory(time.Now())

	for {
		select {
		case <-s.stop:
			return
		case <-locationTicker.C:
			s.PruneLocations(time.Now())
		case <-geofenceTicker.C:
			s.PruneGeofenceHistory(time.Now())
		}
	}
}

// PruneLocations deletes location samples older than the retention window.
func (s *RetentionScheduler) PruneLocations(now time.Time) int64 {
	cutoff := now.Add(-time.Duration(config.RetentionLocationHours()) * time.Hour)
	result := s.db.Where("recorded_at < ?", cutoff).Delete(&models.EmployeeLocation{})
	if result.Error != nil {
		log.Printf("❌ Location retention pass failed: %v", result.Error)
		return 0
	}
	if result.RowsAffected > 0 {
		log.Printf("✅ Location retention: deleted %d samples older than %s", result.RowsAffected, cutoff.Format(time.RFC3339))
	}
	return result.RowsAffected
}

// PruneGeofenceHistory deletes aged sessions and events. Session event
// references are nulled first so the event deletes never trip foreign keys.
func (s *RetentionScheduler) PruneGeofenceHistory(now time.Time) int64 {
	cutoff := now.Add(-time.Duration(config.RetentionGeofenceHours()) * time.Hour)

	var deleted int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.GeofenceSession{}).
			Where("started_at < ?", cutoff).
			Updates(map[string]interface{}{
				"entry_event_id": nil,
				"exit_event_id":  nil,
			}).Error; err != nil {
			return err
		}

		sessions := tx.Where("started_at < ?", cutoff).Delete(&models.GeofenceSession{})
		if sessions.Error != nil {
			return sessions.Error
		}
		deleted += sessions.RowsAffected

		events := tx.Where("recorded_at < ?", cutoff).Delete(&models.GeofenceEvent{})
		if events.Error != nil {
			return events.Error
		}
		deleted += events.RowsAffected
		return nil
	})
	if err != nil {
		log.Printf("❌ Geofence retention pass failed: %v", err)
		return 0
	}
	if deleted > 0 {
		log.Printf("✅ Geofence retention: deleted %d rows older than %s", deleted, cutoff.Format(time.RFC3339))
	}
	return deleted
}
