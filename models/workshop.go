package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// WorkshopReason classifies why a vehicle entered the workshop.
type WorkshopReason string

const (
	WorkshopReasonMaintenance WorkshopReason = "maintenance"
	WorkshopReasonBreakdown   WorkshopReason = "breakdown"
	WorkshopReasonAccident    WorkshopReason = "accident"
	WorkshopReasonInspection  WorkshopReason = "periodic_inspection"
	WorkshopReasonOther       WorkshopReason = "other"
)

// RepairStatus is the progress of a workshop record.
type RepairStatus string

const (
	RepairInProgress      RepairStatus = "in_progress"
	RepairCompleted       RepairStatus = "completed"
	RepairPendingApproval RepairStatus = "pending_approval"
)

// VehicleWorkshop is one workshop visit. At most one record per vehicle may
// have a null ExitDate; a partial unique index backs the in-transaction check.
type VehicleWorkshop struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID uuid.UUID `gorm:"type:uuid;not null;index" json:"vehicleId"`
	Vehicle   Vehicle   `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`

	EntryDate time.Time  `gorm:"not null" json:"entryDate"`
	ExitDate  *time.Time `json:"exitDate,omitempty"`

	Reason      WorkshopReason `gorm:"size:30;not null" json:"reason"`
	Description string         `gorm:"type:text;not null" json:"description"`
	RepairStatus RepairStatus  `gorm:"size:20;not null;default:'in_progress'" json:"repairStatus"`
	Cost        float64        `gorm:"check:cost >= 0" json:"cost"`

	WorkshopName   string `gorm:"size:100" json:"workshopName"`
	TechnicianName string `gorm:"size:100;not null" json:"technicianName"`

	DeliveryReceiptKey *string `gorm:"size:255" json:"deliveryReceiptKey,omitempty"`
	PickupReceiptKey   *string `gorm:"size:255" json:"pickupReceiptKey,omitempty"`

	BeforeImages   pq.StringArray `gorm:"type:text[]" json:"beforeImages"`
	AfterImages    pq.StringArray `gorm:"type:text[]" json:"afterImages"`
	DeliveryImages pq.StringArray `gorm:"type:text[]" json:"deliveryImages"`
	PickupImages   pq.StringArray `gorm:"type:text[]" json:"pickupImages"`
	NotesImages    pq.StringArray `gorm:"type:text[]" json:"notesImages"`

	DeliveryLink *string `gorm:"size:500" json:"deliveryLink,omitempty"`
	PickupLink   *string `gorm:"size:500" json:"pickupLink,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (w *VehicleWorkshop) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}

// Open reports whether the vehicle is still inside the workshop on this record.
func (w *VehicleWorkshop) Open() bool {
	return w.ExitDate == nil
}
