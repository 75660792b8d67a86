package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog is the append-only record of domain events. Rows are never updated
// or deleted.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID     `gorm:"type:uuid;index" json:"userId,omitempty"`
	Action     string         `gorm:"size:50;not null;index" json:"action"`
	EntityType string         `gorm:"size:50;not null;index" json:"entityType"`
	EntityID   *uuid.UUID     `gorm:"type:uuid;index" json:"entityId,omitempty"`
	Details    string         `gorm:"type:text" json:"details,omitempty"`
	BeforeJSON datatypes.JSON `gorm:"type:jsonb" json:"beforeJson,omitempty"`
	AfterJSON  datatypes.JSON `gorm:"type:jsonb" json:"afterJson,omitempty"`
	Timestamp  time.Time      `gorm:"not null;index" json:"timestamp"`
	IP         string         `gorm:"size:45" json:"ip,omitempty"`
	UserAgent  string         `gorm:"size:255" json:"userAgent,omitempty"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	return
}
