package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VehiclePeriodicInspection is a dated inspection with an expiry.
type VehiclePeriodicInspection struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID uuid.UUID `gorm:"type:uuid;not null;index" json:"vehicleId"`
	Vehicle   Vehicle   `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`

	InspectionDate time.Time `gorm:"not null" json:"inspectionDate"`
	ExpiryDate     time.Time `gorm:"not null" json:"expiryDate"`
	Result         string    `gorm:"size:30" json:"result"`
	CenterName     string    `gorm:"size:100" json:"centerName"`
	CertificateKey *string   `gorm:"size:255" json:"certificateKey,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *VehiclePeriodicInspection) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// IsExpired reports expiry strictly before today.
func (p *VehiclePeriodicInspection) IsExpired(today time.Time) bool {
	return p.ExpiryDate.Before(today)
}

// IsExpiringSoon reports expiry within the next 30 days, today inclusive.
func (p *VehiclePeriodicInspection) IsExpiringSoon(today time.Time) bool {
	if p.ExpiryDate.Before(today) {
		return false
	}
	return !p.ExpiryDate.After(today.AddDate(0, 0, 30))
}

// VehicleSafetyCheck is an internal safety checklist run.
type VehicleSafetyCheck struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID uuid.UUID `gorm:"type:uuid;not null;index" json:"vehicleId"`
	Vehicle   Vehicle   `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`

	CheckDate     time.Time `gorm:"not null" json:"checkDate"`
	Status        string    `gorm:"size:30" json:"status"`
	InspectorName string    `gorm:"size:100" json:"inspectorName"`
	Notes         string    `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *VehicleSafetyCheck) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

// VehicleExternalSafetyCheck is a safety check performed by an outside center;
// it carries its own approval status column.
type VehicleExternalSafetyCheck struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID uuid.UUID `gorm:"type:uuid;not null;index" json:"vehicleId"`
	Vehicle   Vehicle   `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`

	CheckDate      time.Time `gorm:"not null" json:"checkDate"`
	CenterName     string    `gorm:"size:100;not null" json:"centerName"`
	Result         string    `gorm:"size:30" json:"result"`
	CertificateKey *string   `gorm:"size:255" json:"certificateKey,omitempty"`
	ApprovalStatus string    `gorm:"size:20;not null;default:'pending'" json:"approvalStatus"` // pending, approved, rejected

	CreatedAt time.Time      `json:"createdAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (e *VehicleExternalSafetyCheck) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}
