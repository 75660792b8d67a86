package handlers

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/nuzum/models"
)

// NotificationService materializes per-user inbox rows for approval-worthy
// events: admins hear about new requests, requesters hear about decisions.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// severityPriority maps accident severity onto notification priority.
var severityPriority = map[models.AccidentSeverity]string{
	models.SeverityMinor:    "low",
	models.SeverityModerate: "normal",
	models.SeveritySevere:   "high",
	models.SeverityCritical: "critical",
}

// PriorityForSeverity resolves the notification priority for a severity,
// defaulting to normal for unknown values.
func PriorityForSeverity(severity models.AccidentSeverity) string {
	if p, ok := severityPriority[severity]; ok {
		return p
	}
	return "normal"
}

// NotifyAdmins fans a new operation request out to every active admin.
func (ns *NotificationService) NotifyAdmins(tx *gorm.DB, request *models.OperationRequest) error {
	var admins []models.User
	if err := tx.Where("role = ? AND is_active = ?", "admin", true).Find(&admins).Error; err != nil {
		return err
	}
	for _, admin := range admins {
		n := models.OperationNotification{
			OperationRequestID: request.ID,
			UserID:             admin.ID,
			Title:              request.Title,
			Body:               request.Description,
			Priority:           request.Priority,
		}
		if err := tx.Create(&n).Error; err != nil {
			log.Printf("❌ Failed to create notification for user %s: %v", admin.ID, err)
		}
	}
	return nil
}

// NotifyRequester tells the original requester about a decision.
func (ns *NotificationService) NotifyRequester(tx *gorm.DB, request *models.OperationRequest) error {
	n := models.OperationNotification{
		OperationRequestID: request.ID,
		UserID:             request.RequestedBy,
		Title:              request.Title + " — " + string(request.Status),
		Body:               request.ReviewerNotes,
		Priority:           request.Priority,
	}
	return tx.Create(&n).Error
}

// NotifyAllActiveUsers fans an event out to every active account. Accident
// registration uses this with the severity-derived priority.
func (ns *NotificationService) NotifyAllActiveUsers(tx *gorm.DB, requestID uuid.UUID, title, body, priority string) error {
	var users []models.User
	if err := tx.Where("is_active = ?", true).Find(&users).Error; err != nil {
		return err
	}
	for _, user := range users {
		n := models.OperationNotification{
			OperationRequestID: requestID,
			UserID:             user.ID,
			Title:              title,
			Body:               body,
			Priority:           priority,
		}
		if err := tx.Create(&n).Error; err != nil {
			log.Printf("❌ Failed to create notification for user %s: %v", user.ID, err)
		}
	}
	return nil
}

// InboxForUser lists a user's notifications, unread first.
func (ns *NotificationService) InboxForUser(userID uuid.UUID, onlyUnread bool, limit int) ([]models.OperationNotification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := ns.db.Where("user_id = ?", userID)
	if onlyUnread {
		query = query.Where("is_read = ?", false)
	}
	var rows []models.OperationNotification
	err := query.Order("is_read asc").Order("created_at desc").Limit(limit).Find(&rows).Error
	return rows, err
}

// UnreadCount returns the badge number for a user.
func (ns *NotificationService) UnreadCount(userID uuid.UUID) (int64, error) {
	var count int64
	err := ns.db.Model(&models.OperationNotification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead stamps a single notification as read. Repeat calls are no-ops.
func (ns *NotificationService) MarkRead(notificationID, userID uuid.UUID) error {
	now := time.Now()
	return ns.db.Model(&models.OperationNotification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", notificationID, userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now}).Error
}

// MarkAllRead clears a user's inbox badge.
func (ns *NotificationService) MarkAllRead(userID uuid.UUID) error {
	now := time.Now()
	return ns.db.Model(&models.OperationNotification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now}).Error
}
