package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Department groups employees; users can be scoped to a set of departments.
type Department struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description,omitempty"`
	IsActive    bool      `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Employees []Employee `gorm:"many2many:employee_departments;" json:"-"`
}

func (d *Department) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}

// Employee is a staff member; drivers are employees unless recorded as an
// external snapshot on the handover/authorization row.
type Employee struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeNumber string    `gorm:"size:20;uniqueIndex;not null" json:"employeeNumber"`
	Name           string    `gorm:"size:100;not null;index" json:"name"`
	Phone          string    `gorm:"size:20" json:"phone,omitempty"`
	NationalID     *string   `gorm:"size:30" json:"nationalId,omitempty"`
	Position       string    `gorm:"size:100" json:"position,omitempty"`
	ContractStatus string    `gorm:"size:50" json:"contractStatus,omitempty"`
	LicenseStatus  string    `gorm:"size:50" json:"licenseStatus,omitempty"`
	IsActive       bool      `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Departments []Department `gorm:"many2many:employee_departments;" json:"departments,omitempty"`
	Geofences   []Geofence   `gorm:"many2many:employee_geofences;" json:"geofences,omitempty"`
}

func (e *Employee) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}
