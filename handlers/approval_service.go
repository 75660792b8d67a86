package handlers

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/nuzum/models"
)

// ApprovalService owns the OperationRequest gate between "recorded" and
// "official". Creation is idempotent per (operation type, related record)
// while a non-terminal request exists; the partial unique index backs the
// in-transaction check.
type ApprovalService struct {
	db       *gorm.DB
	audit    *AuditService
	notifier *NotificationService
}

func NewApprovalService(db *gorm.DB) *ApprovalService {
	return &ApprovalService{
		db:       db,
		audit:    NewAuditService(db),
		notifier: NewNotificationService(db),
	}
}

// CreateRequest opens an approval gate for an underlying record. When a live
// request already exists for the same (type, record) it is returned as-is.
func (s *ApprovalService) CreateRequest(opType models.OperationType, relatedID, vehicleID, requestedBy uuid.UUID, title, description, priority string) (*models.OperationRequest, error) {
	if priority == "" {
		priority = "normal"
	}

	var request models.OperationRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.OperationRequest
		err := tx.Where(
			"operation_type = ? AND related_record_id = ? AND status IN ?",
			opType, relatedID, []models.OperationStatus{models.OperationPending, models.OperationUnderReview},
		).First(&existing).Error
		if err == nil {
			request = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		request = models.OperationRequest{
			OperationType:   opType,
			RelatedRecordID: relatedID,
			VehicleID:       vehicleID,
			Title:           title,
			Description:     description,
			RequestedBy:     requestedBy,
			Status:          models.OperationPending,
			Priority:        priority,
			RequestedAt:     time.Now(),
		}
		if err := tx.Create(&request).Error; err != nil {
			return err
		}

		s.audit.Record(tx, &requestedBy, "create", "operation_request", &request.ID, title, nil, request)
		return s.notifier.NotifyAdmins(tx, &request)
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Approve promotes a pending or under-review request. The underlying record
// becomes part of the official view by virtue of the approved request.
func (s *ApprovalService) Approve(requestID, reviewerID uuid.UUID, notes string) Result {
	return s.decide(requestID, reviewerID, notes, models.OperationApproved, "approve")
}

// Reject terminally declines a request; the underlying record stays stored
// but is filtered out of official views.
func (s *ApprovalService) Reject(requestID, reviewerID uuid.UUID, notes string) Result {
	return s.decide(requestID, reviewerID, notes, models.OperationRejected, "reject")
}

// MarkUnderReview parks a pending request with the reviewer.
func (s *ApprovalService) MarkUnderReview(requestID, reviewerID uuid.UUID) Result {
	return s.decide(requestID, reviewerID, "", models.OperationUnderReview, "under_review")
}

func (s *ApprovalService) decide(requestID, reviewerID uuid.UUID, notes string, target models.OperationStatus, action string) Result {
	var request models.OperationRequest
	var already bool

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&request, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return gorm.ErrRecordNotFound
			}
			return err
		}

		// A repeated decision is a no-op but still audited.
		if request.Status == target {
			already = true
			s.audit.Record(tx, &reviewerID, action, "operation_request", &request.ID, "no state change", nil, nil)
			return nil
		}
		if request.Status.Terminal() {
			return errTerminalRequest
		}
		if target == models.OperationUnderReview && request.Status != models.OperationPending {
			return errTerminalRequest
		}

		before := request
		now := time.Now()
		request.Status = target
		request.ReviewerID = &reviewerID
		request.ReviewedAt = &now
		request.ReviewerNotes = notes
		if err := tx.Save(&request).Error; err != nil {
			return err
		}

		s.audit.Record(tx, &reviewerID, action, "operation_request", &request.ID, request.Title, before, request)
		if err := s.notifier.NotifyRequester(tx, &request); err != nil {
			return err
		}

		if target == models.OperationApproved && request.OperationType == models.OperationHandover {
			return refreshVehicleDriverName(tx, request.VehicleID)
		}
		return nil
	})

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Failure(FailNotFound, "طلب الموافقة غير موجود")
	case errors.Is(err, errTerminalRequest):
		return Failure(FailConflict, "تم البت في هذا الطلب مسبقاً")
	case err != nil:
		return Failure(FailConflict, "تعذر تحديث طلب الموافقة")
	}

	if already {
		return Success(map[string]interface{}{"request": request, "changed": false})
	}
	return Success(map[string]interface{}{"request": request, "changed": true})
}

var errTerminalRequest = errors.New("operation request already decided")

// ListPending returns the admin inbox ordered by priority then recency.
func (s *ApprovalService) ListPending(opType models.OperationType, vehicleID *uuid.UUID) ([]models.OperationRequest, error) {
	query := s.db.Where("status IN ?", []models.OperationStatus{models.OperationPending, models.OperationUnderReview})
	if opType != "" {
		query = query.Where("operation_type = ?", opType)
	}
	if vehicleID != nil {
		query = query.Where("vehicle_id = ?", vehicleID)
	}

	var requests []models.OperationRequest
	err := query.
		Order(`CASE priority
			WHEN 'critical' THEN 0
			WHEN 'high' THEN 1
			WHEN 'normal' THEN 2
			ELSE 3 END`).
		Order("requested_at desc").
		Find(&requests).Error
	return requests, err
}

// ApprovedRecordIDs returns the related record ids of approved requests of a
// type for one vehicle. Feeds the official-handover predicate.
func ApprovedRecordIDs(db *gorm.DB, opType models.OperationType, vehicleID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.Model(&models.OperationRequest{}).
		Where("operation_type = ? AND vehicle_id = ? AND status = ?", opType, vehicleID, models.OperationApproved).
		Pluck("related_record_id", &ids).Error
	return ids, err
}

// AllRequestRecordIDs returns every related record id that ever entered the
// approval workflow for a type and vehicle, regardless of outcome.
func AllRequestRecordIDs(db *gorm.DB, opType models.OperationType, vehicleID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.Model(&models.OperationRequest{}).
		Unscoped().
		Where("operation_type = ? AND vehicle_id = ? AND deleted_at IS NULL", opType, vehicleID).
		Pluck("related_record_id", &ids).Error
	return ids, err
}
