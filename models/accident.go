package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccidentSeverity grades an accident; notification priority derives from it.
type AccidentSeverity string

const (
	SeverityMinor    AccidentSeverity = "minor"
	SeverityModerate AccidentSeverity = "moderate"
	SeveritySevere   AccidentSeverity = "severe"
	SeverityCritical AccidentSeverity = "critical"
)

// ReviewStatus is the administrative review state of an accident record.
type ReviewStatus string

const (
	ReviewPending     ReviewStatus = "pending"
	ReviewUnderReview ReviewStatus = "under_review"
	ReviewApproved    ReviewStatus = "approved"
	ReviewRejected    ReviewStatus = "rejected"
)

// VehicleAccident is one registered accident. Only approved records appear in
// the vehicle's official accident list.
type VehicleAccident struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID uuid.UUID `gorm:"type:uuid;not null;index" json:"vehicleId"`
	Vehicle   Vehicle   `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`

	AccidentDate time.Time  `gorm:"not null" json:"accidentDate"`
	AccidentTime *time.Time `json:"accidentTime,omitempty"`

	DriverName         string     `gorm:"size:100;not null" json:"driverName"`
	ReporterEmployeeID *uuid.UUID `gorm:"type:uuid" json:"reporterEmployeeId,omitempty"`
	ReporterChannel    string     `gorm:"size:30" json:"reporterChannel,omitempty"` // phone, whatsapp, in_person

	Severity    AccidentSeverity `gorm:"size:20;not null" json:"severity"`
	Description string           `gorm:"type:text" json:"description"`

	LocationText string   `gorm:"size:255" json:"locationText,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`

	PoliceReport       bool    `json:"policeReport"`
	PoliceReportNumber *string `gorm:"size:50" json:"policeReportNumber,omitempty"`
	InsuranceClaim     bool    `json:"insuranceClaim"`

	DeductionAmount     float64 `json:"deductionAmount"`
	LiabilityPercentage float64 `gorm:"check:liability_percentage >= 0 AND liability_percentage <= 100" json:"liabilityPercentage"`

	ReviewStatus   ReviewStatus `gorm:"size:20;not null;default:'pending';index" json:"reviewStatus"`
	AccidentStatus string       `gorm:"size:30" json:"accidentStatus,omitempty"` // Arabic label, معتمد after approval
	ReviewerID     *uuid.UUID   `gorm:"type:uuid" json:"reviewerId,omitempty"`
	ReviewedAt     *time.Time   `json:"reviewedAt,omitempty"`
	ReviewerNotes  string       `gorm:"type:text" json:"reviewerNotes,omitempty"`
	VehicleCondition string     `gorm:"size:100" json:"vehicleCondition,omitempty"`

	DriverIDImageKey      *string `gorm:"size:255" json:"driverIdImageKey,omitempty"`
	DriverLicenseImageKey *string `gorm:"size:255" json:"driverLicenseImageKey,omitempty"`
	AccidentReportKey     *string `gorm:"size:255" json:"accidentReportKey,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Images []VehicleAccidentImage `gorm:"foreignKey:AccidentID" json:"images,omitempty"`
}

func (a *VehicleAccident) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

// VehicleAccidentImage is one scene photo attached to an accident.
type VehicleAccidentImage struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AccidentID uuid.UUID `gorm:"type:uuid;not null;index" json:"accidentId"`
	FileKey    string    `gorm:"size:255;not null" json:"fileKey"`
	ImageType  string    `gorm:"size:30;default:'other'" json:"imageType"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (i *VehicleAccidentImage) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}
