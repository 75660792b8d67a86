package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthorizationStatus is the lifecycle of an external driver authorization.
type AuthorizationStatus string

const (
	AuthorizationPending  AuthorizationStatus = "pending"
	AuthorizationApproved AuthorizationStatus = "approved"
	AuthorizationRejected AuthorizationStatus = "rejected"
)

// ExternalAuthorization permits a driver to take a vehicle outside the
// company. Exactly one of EmployeeID or the manual driver snapshot must be
// set; a check constraint in the migration backs the hook below.
type ExternalAuthorization struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID uuid.UUID `gorm:"type:uuid;not null;index" json:"vehicleId"`
	Vehicle   Vehicle   `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`

	EmployeeID *uuid.UUID `gorm:"type:uuid;index" json:"employeeId,omitempty"`
	Employee   *Employee  `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`

	// Manual driver snapshot for external drivers
	ManualDriverName       *string `gorm:"size:100" json:"manualDriverName,omitempty"`
	ManualDriverPhone      *string `gorm:"size:20" json:"manualDriverPhone,omitempty"`
	ManualDriverPosition   *string `gorm:"size:100" json:"manualDriverPosition,omitempty"`
	ManualDriverDepartment *string `gorm:"size:100" json:"manualDriverDepartment,omitempty"`

	AuthorizationType string  `gorm:"size:50;not null" json:"authorizationType"`
	ProjectName       string  `gorm:"size:100" json:"projectName,omitempty"`
	City              string  `gorm:"size:100" json:"city,omitempty"`
	ExternalLink      *string `gorm:"size:500" json:"externalLink,omitempty"`
	FileKey           *string `gorm:"size:255" json:"fileKey,omitempty"`

	Status     AuthorizationStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ReviewerID *uuid.UUID          `gorm:"type:uuid" json:"reviewerId,omitempty"`
	ReviewedAt *time.Time          `json:"reviewedAt,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

var ErrAuthorizationDriverBinding = errors.New("authorization requires exactly one of employee or manual driver")

func (a *ExternalAuthorization) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return a.validateDriverBinding()
}

func (a *ExternalAuthorization) BeforeUpdate(tx *gorm.DB) (err error) {
	return a.validateDriverBinding()
}

func (a *ExternalAuthorization) validateDriverBinding() error {
	hasEmployee := a.EmployeeID != nil
	hasManual := a.ManualDriverName != nil && *a.ManualDriverName != ""
	if hasEmployee == hasManual {
		return ErrAuthorizationDriverBinding
	}
	return nil
}

// DriverDisplayName resolves whichever binding is present.
func (a *ExternalAuthorization) DriverDisplayName() string {
	if a.ManualDriverName != nil && *a.ManualDriverName != "" {
		return *a.ManualDriverName
	}
	if a.Employee != nil {
		return a.Employee.Name
	}
	return ""
}
