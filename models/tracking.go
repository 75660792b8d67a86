package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Geofence is a circular region against which employee positions are classified.
type Geofence struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CenterLat float64   `gorm:"not null" json:"centerLat"`
	CenterLng float64   `gorm:"not null" json:"centerLng"`
	RadiusM   float64   `gorm:"not null" json:"radiusM"`
	IsActive  bool      `gorm:"default:true;index" json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (g *Geofence) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return
}

// EmployeeLocation is one sample of the append-only location stream. Produced
// by mobile clients, consumed by the tracking read services, reaped by the
// retention scheduler.
type EmployeeLocation struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeID uuid.UUID  `gorm:"type:uuid;not null;index:idx_employee_recorded,priority:1" json:"employeeId"`
	Employee   Employee   `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	Latitude   float64    `gorm:"not null" json:"latitude"`
	Longitude  float64    `gorm:"not null" json:"longitude"`
	AccuracyM  float64    `json:"accuracyM"`
	SpeedKmh   float64    `json:"speedKmh"`
	RecordedAt time.Time  `gorm:"not null;index:idx_employee_recorded,priority:2,sort:desc" json:"recordedAt"`
	VehicleID  *uuid.UUID `gorm:"type:uuid" json:"vehicleId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func (l *EmployeeLocation) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}

// GeofenceEvent records an entry or exit observation for an employee.
type GeofenceEvent struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GeofenceID uuid.UUID `gorm:"type:uuid;not null;index" json:"geofenceId"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index" json:"employeeId"`
	EventType  string    `gorm:"size:10;not null" json:"eventType"` // entry, exit
	RecordedAt time.Time `gorm:"not null;index" json:"recordedAt"`

	CreatedAt time.Time `json:"createdAt"`
}

func (e *GeofenceEvent) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}

// GeofenceSession pairs an entry event with its eventual exit event.
type GeofenceSession struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	GeofenceID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"geofenceId"`
	EmployeeID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"employeeId"`
	EntryEventID *uuid.UUID `gorm:"type:uuid" json:"entryEventId,omitempty"`
	ExitEventID  *uuid.UUID `gorm:"type:uuid" json:"exitEventId,omitempty"`
	StartedAt    time.Time  `gorm:"not null;index" json:"startedAt"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func (s *GeofenceSession) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
