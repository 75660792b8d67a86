package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/nuzum/pkg/fleet"
)

// VehicleHandover records one delivery or return event. Driver and vehicle
// attributes are snapshotted onto the row at creation so the record stays
// meaningful after the employee or vehicle changes.
type VehicleHandover struct {
	ID        uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID uuid.UUID          `gorm:"type:uuid;not null;index" json:"vehicleId"`
	Vehicle   Vehicle            `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	Type      fleet.HandoverType `gorm:"size:10;not null;index" json:"type"`

	HandoverDate time.Time  `gorm:"not null" json:"handoverDate"`
	HandoverTime *time.Time `json:"handoverTime,omitempty"`
	Mileage      int        `gorm:"not null;check:mileage >= 0" json:"mileage"`
	FuelLevel    string     `gorm:"size:20" json:"fuelLevel"`

	// Driver binding: either a resolved employee or a free-form snapshot when
	// the driver is external. PersonName is always filled for display.
	EmployeeID *uuid.UUID `gorm:"type:uuid;index" json:"employeeId,omitempty"`
	Employee   *Employee  `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	PersonName string     `gorm:"size:100;not null" json:"personName"`

	SupervisorEmployeeID *uuid.UUID `gorm:"type:uuid" json:"supervisorEmployeeId,omitempty"`
	SupervisorName       string     `gorm:"size:100" json:"supervisorName"`
	MovementOfficerName  string     `gorm:"size:100" json:"movementOfficerName"`

	// Snapshots at time of handover
	PlateNumber      string  `gorm:"size:20" json:"plateNumber"`
	VehicleModel     string  `gorm:"size:100" json:"vehicleModel"`
	VehicleYear      int     `json:"vehicleYear"`
	DriverPhone      *string `gorm:"size:20" json:"driverPhone,omitempty"`
	DriverResidencyID *string `gorm:"size:30" json:"driverResidencyId,omitempty"`
	DriverContractStatus *string `gorm:"size:50" json:"driverContractStatus,omitempty"`
	DriverLicenseStatus  *string `gorm:"size:50" json:"driverLicenseStatus,omitempty"`

	// Inspection checklist
	HasSpareTyre        bool `json:"hasSpareTyre"`
	HasFireExtinguisher bool `json:"hasFireExtinguisher"`
	HasFirstAidKit      bool `json:"hasFirstAidKit"`
	HasWarningTriangle  bool `json:"hasWarningTriangle"`
	HasTools            bool `json:"hasTools"`
	HasOilLeaks         bool `json:"hasOilLeaks"`
	HasGearIssue        bool `json:"hasGearIssue"`
	HasClutchIssue      bool `json:"hasClutchIssue"`
	HasEngineIssue      bool `json:"hasEngineIssue"`
	HasWindowsIssue     bool `json:"hasWindowsIssue"`
	HasTyreIssue        bool `json:"hasTyreIssue"`
	HasBodyIssue        bool `json:"hasBodyIssue"`
	HasElectricityIssue bool `json:"hasElectricityIssue"`
	HasLightsIssue      bool `json:"hasLightsIssue"`
	HasACIssue          bool `json:"hasAcIssue"`

	ReasonForChange string `gorm:"type:text" json:"reasonForChange,omitempty"`
	StatusSummary   string `gorm:"type:text" json:"statusSummary,omitempty"`

	// Blob store keys
	DamageDiagramKey            *string `gorm:"size:255" json:"damageDiagramKey,omitempty"`
	DriverSignatureKey          *string `gorm:"size:255" json:"driverSignatureKey,omitempty"`
	SupervisorSignatureKey      *string `gorm:"size:255" json:"supervisorSignatureKey,omitempty"`
	MovementOfficerSignatureKey *string `gorm:"size:255" json:"movementOfficerSignatureKey,omitempty"`
	CustomLogoKey               *string `gorm:"size:255" json:"customLogoKey,omitempty"`

	FormLink  *string `gorm:"size:500" json:"formLink,omitempty"`
	FormLink2 *string `gorm:"size:500" json:"formLink2,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Images []VehicleHandoverImage `gorm:"foreignKey:HandoverID" json:"images,omitempty"`
}

func (h *VehicleHandover) BeforeCreate(tx *gorm.DB) (err error) {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return
}

// VehicleHandoverImage is one attached image or PDF with its description.
type VehicleHandoverImage struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	HandoverID  uuid.UUID `gorm:"type:uuid;not null;index" json:"handoverId"`
	FileKey     string    `gorm:"size:255;not null" json:"fileKey"`
	Description string    `gorm:"size:255" json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (i *VehicleHandoverImage) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}
