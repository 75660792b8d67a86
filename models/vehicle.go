package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/nuzum/pkg/fleet"
)

// Vehicle is the authoritative fleet record. Status only changes through the
// state machine in pkg/fleet; no handler writes the column directly.
type Vehicle struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	PlateNumber string       `gorm:"size:20;uniqueIndex;not null" json:"plateNumber"`
	Make        string       `gorm:"size:50" json:"make"`
	Model       string       `gorm:"size:50" json:"model"`
	Year        int          `json:"year"`
	Color       string       `gorm:"size:30" json:"color"`
	Type        string       `gorm:"size:30" json:"type"` // sedan, bus, truck, ...
	Status      fleet.Status `gorm:"size:20;not null;default:'available';index" json:"status"`

	// Derived from the latest official delivery handover with no later
	// official return. Written only by the handover service.
	DriverName *string `gorm:"size:100" json:"driverName,omitempty"`

	// Document expiry dates
	AuthorizationExpiry *time.Time `json:"authorizationExpiry,omitempty"`
	RegistrationExpiry  *time.Time `json:"registrationExpiry,omitempty"`
	InspectionExpiry    *time.Time `json:"inspectionExpiry,omitempty"`

	// Blob store keys for document scans
	LicenseImage      *string `gorm:"size:255" json:"licenseImage,omitempty"`
	RegistrationForm  *string `gorm:"size:255" json:"registrationForm,omitempty"`
	PlateImage        *string `gorm:"size:255" json:"plateImage,omitempty"`
	InsuranceFile     *string `gorm:"size:255" json:"insuranceFile,omitempty"`

	ProjectName *string `gorm:"size:100" json:"projectName,omitempty"`
	Region      *string `gorm:"size:100" json:"region,omitempty"`
	OwnerName   *string `gorm:"size:100" json:"ownerName,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (v *Vehicle) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return
}

// DisplayName is the "Toyota Hilux 2022" label used across views and exports.
func (v *Vehicle) DisplayName() string {
	name := v.Make + " " + v.Model
	if v.Year > 0 {
		name += " " + time.Date(v.Year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")
	}
	return name
}

// VehicleRental tracks project/customer rentals. Activeness is decided by
// EndDate alone; IsActive is a denormalization maintained by the same writer.
type VehicleRental struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"vehicleId"`
	Vehicle    Vehicle    `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	RenterName string     `gorm:"size:100;not null" json:"renterName"`
	StartDate  time.Time  `gorm:"not null" json:"startDate"`
	EndDate    *time.Time `json:"endDate,omitempty"`
	IsActive   bool       `gorm:"default:true" json:"isActive"`
	MonthlyFee float64    `json:"monthlyFee"`
	Notes      string     `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *VehicleRental) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// Active is the authoritative rental activeness predicate.
func (r *VehicleRental) Active(today time.Time) bool {
	return r.EndDate == nil || !r.EndDate.Before(today)
}
