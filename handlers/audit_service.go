package handlers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/nuzum/models"
)

// AuditService appends domain events to the audit log. Failures are logged
// and swallowed: auditing never fails the surrounding transaction.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record writes one audit row. before/after may be nil; any marshalable
// value is snapshotted as JSON.
func (as *AuditService) Record(tx *gorm.DB, userID *uuid.UUID, action, entityType string, entityID *uuid.UUID, details string, before, after interface{}) {
	db := tx
	if db == nil {
		db = as.db
	}

	entry := models.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		Timestamp:  time.Now(),
	}
	if before != nil {
		if raw, err := json.Marshal(before); err == nil {
			entry.BeforeJSON = raw
		}
	}
	if after != nil {
		if raw, err := json.Marshal(after); err == nil {
			entry.AfterJSON = raw
		}
	}

	if err := db.Create(&entry).Error; err != nil {
		log.Printf("❌ Failed to write audit log entry for %s %s: %v", entityType, action, err)
	}
}

// StatusTransitions returns the audited status values of a vehicle, oldest
// first. Used to verify observed transitions against the allowed table.
func (as *AuditService) StatusTransitions(vehicleID uuid.UUID) ([]string, error) {
	var entries []models.AuditLog
	if err := as.db.
		Where("entity_type = ? AND entity_id = ? AND action = ?", "vehicle", vehicleID, "status_change").
		Order("timestamp asc").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	statuses := make([]string, 0, len(entries))
	for _, e := range entries {
		var after struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(e.AfterJSON, &after); err == nil && after.Status != "" {
			statuses = append(statuses, after.Status)
		}
	}
	return statuses, nil
}
