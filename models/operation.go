package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OperationType discriminates which table RelatedRecordID points into.
type OperationType string

const (
	OperationHandover       OperationType = "handover"
	OperationWorkshopRecord OperationType = "workshop_record"
	OperationWorkshopUpdate OperationType = "workshop_update"
	OperationAccident       OperationType = "accident"
	OperationAuthorization  OperationType = "authorization"
	OperationSafetyCheck    OperationType = "safety_check"
)

// OperationStatus is the review state of an approval request.
type OperationStatus string

const (
	OperationPending     OperationStatus = "pending"
	OperationUnderReview OperationStatus = "under_review"
	OperationApproved    OperationStatus = "approved"
	OperationRejected    OperationStatus = "rejected"
)

// Terminal reports whether the request can no longer change.
func (s OperationStatus) Terminal() bool {
	return s == OperationApproved || s == OperationRejected
}

// OperationRequest gates an underlying record's promotion to official. At
// most one non-terminal request may exist per (OperationType, RelatedRecordID);
// a partial unique index backs the in-transaction check.
type OperationRequest struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	OperationType   OperationType `gorm:"size:30;not null;index:idx_operation_related" json:"operationType"`
	RelatedRecordID uuid.UUID     `gorm:"type:uuid;not null;index:idx_operation_related" json:"relatedRecordId"`
	VehicleID       uuid.UUID     `gorm:"type:uuid;not null;index" json:"vehicleId"`
	Vehicle         Vehicle       `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`

	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	RequestedBy uuid.UUID       `gorm:"type:uuid;not null" json:"requestedBy"`
	Status      OperationStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Priority    string          `gorm:"size:20;default:'normal'" json:"priority"` // low, normal, high, critical

	RequestedAt   time.Time  `gorm:"not null" json:"requestedAt"`
	ReviewedAt    *time.Time `json:"reviewedAt,omitempty"`
	ReviewerID    *uuid.UUID `gorm:"type:uuid" json:"reviewerId,omitempty"`
	ReviewerNotes string     `gorm:"type:text" json:"reviewerNotes,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *OperationRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.RequestedAt.IsZero() {
		r.RequestedAt = time.Now()
	}
	return
}

// OperationNotification is one per-user inbox row for an operation request.
type OperationNotification struct {
	ID                 uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	OperationRequestID uuid.UUID        `gorm:"type:uuid;not null;index" json:"operationRequestId"`
	OperationRequest   OperationRequest `gorm:"foreignKey:OperationRequestID" json:"operationRequest,omitempty"`
	UserID             uuid.UUID        `gorm:"type:uuid;not null;index" json:"userId"`

	Title    string `gorm:"size:255;not null" json:"title"`
	Body     string `gorm:"type:text" json:"body,omitempty"`
	Priority string `gorm:"size:20;default:'normal'" json:"priority"`

	IsRead bool       `gorm:"default:false;index" json:"isRead"`
	ReadAt *time.Time `json:"readAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func (n *OperationNotification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}

// MarkAsRead stamps the read time once.
func (n *OperationNotification) MarkAsRead() {
	if !n.IsRead {
		n.IsRead = true
		now := time.Now()
		n.ReadAt = &now
	}
}
