package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/nuzum/models"
	"p9e.in/nuzum/utils"
)

// AuthorizationForm is the submitted external-authorization request.
type AuthorizationForm struct {
	EmployeeNumber string
	ManualDriver   struct {
		Name       string
		Phone      string
		Position   string
		Department string
	}
	AuthorizationType string
	ProjectName       string
	City              string
	ExternalLink      string
	Attachment        FileUpload
}

// AuthorizationService manages external driver authorizations: create pending,
// admin approves or rejects, only approved records count toward active views.
type AuthorizationService struct {
	db    *gorm.DB
	store BlobStore
	audit *AuditService
}

func NewAuthorizationService(db *gorm.DB, store BlobStore) *AuthorizationService {
	return &AuthorizationService{db: db, store: store, audit: NewAuditService(db)}
}

// CreateAuthorization records a pending authorization. The driver binding is
// exclusive: an employee number resolves to an employee, otherwise the manual
// snapshot must carry a name.
func (s *AuthorizationService) CreateAuthorization(vehicleID uuid.UUID, form AuthorizationForm, actorID uuid.UUID) Result {
	var vehicle models.Vehicle
	if err := s.db.First(&vehicle, "id = ?", vehicleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Failure(FailNotFound, "المركبة غير موجودة")
		}
		return Failure(FailConflict, "تعذر تحميل بيانات المركبة")
	}
	if strings.TrimSpace(form.AuthorizationType) == "" {
		return Failure(FailValidation, "نوع التفويض مطلوب")
	}

	auth := models.ExternalAuthorization{
		VehicleID:         vehicleID,
		AuthorizationType: form.AuthorizationType,
		ProjectName:       form.ProjectName,
		City:              form.City,
		Status:            models.AuthorizationPending,
	}
	if form.ExternalLink != "" {
		auth.ExternalLink = &form.ExternalLink
	}

	if number := strings.TrimSpace(form.EmployeeNumber); number != "" {
		var employee models.Employee
		if err := s.db.Where("employee_number = ?", number).First(&employee).Error; err != nil {
			return Failure(FailNotFound, "الموظف غير موجود")
		}
		auth.EmployeeID = &employee.ID
	} else {
		name := strings.TrimSpace(form.ManualDriver.Name)
		if name == "" {
			return Failure(FailValidation, "يجب تحديد موظف أو إدخال بيانات السائق يدوياً")
		}
		auth.ManualDriverName = &name
		if form.ManualDriver.Phone != "" {
			auth.ManualDriverPhone = &form.ManualDriver.Phone
		}
		if form.ManualDriver.Position != "" {
			auth.ManualDriverPosition = &form.ManualDriver.Position
		}
		if form.ManualDriver.Department != "" {
			auth.ManualDriverDepartment = &form.ManualDriver.Department
		}
	}

	if !form.Attachment.empty() {
		if err := utils.ValidateUpload(form.Attachment.Name, int64(len(form.Attachment.Data))); err != nil {
			return Failure(FailValidation, err.Error())
		}
		ext := strings.ToLower(form.Attachment.Name[strings.LastIndex(form.Attachment.Name, "."):])
		key := uuid.New().String() + ext
		if _, err := s.store.Put(BucketAuthorizations, key, form.Attachment.Data); err != nil {
			return Failure(FailValidation, "تعذر حفظ ملف التفويض")
		}
		auth.FileKey = &key
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&auth).Error; err != nil {
			return err
		}
		s.audit.Record(tx, &actorID, "create", "external_authorization", &auth.ID,
			vehicle.PlateNumber, nil, auth)
		return nil
	})
	if errors.Is(err, models.ErrAuthorizationDriverBinding) {
		return Failure(FailValidation, "يجب تحديد موظف أو إدخال بيانات السائق يدوياً")
	}
	if err != nil {
		return Failure(FailConflict, "تعذر حفظ التفويض")
	}
	return Success(auth)
}

// DecideAuthorization approves or rejects a pending authorization. Repeating
// the same decision is a no-op that is still audited; flipping a decided
// record is a conflict.
func (s *AuthorizationService) DecideAuthorization(authID, reviewerID uuid.UUID, approve bool) Result {
	target := models.AuthorizationRejected
	if approve {
		target = models.AuthorizationApproved
	}

	var auth models.ExternalAuthorization
	if err := s.db.First(&auth, "id = ?", authID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Failure(FailNotFound, "التفويض غير موجود")
		}
		return Failure(FailConflict, "تعذر تحميل التفويض")
	}

	if auth.Status == target {
		s.audit.Record(nil, &reviewerID, "review", "external_authorization", &auth.ID,
			string(target), map[string]interface{}{"status": auth.Status, "changed": false}, nil)
		return Success(auth)
	}
	if auth.Status != models.AuthorizationPending {
		return Failure(FailConflict, "تمت مراجعة التفويض بالفعل")
	}

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ExternalAuthorization{}).Where("id = ?", auth.ID).
			Updates(map[string]interface{}{
				"status":      target,
				"reviewer_id": reviewerID,
				"reviewed_at": now,
			}).Error; err != nil {
			return err
		}
		s.audit.Record(tx, &reviewerID, "review", "external_authorization", &auth.ID,
			string(target),
			map[string]interface{}{"status": auth.Status},
			map[string]interface{}{"status": target, "changed": true})
		return nil
	})
	if err != nil {
		return Failure(FailConflict, "تعذر حفظ قرار المراجعة")
	}

	s.db.First(&auth, "id = ?", auth.ID)
	return Success(auth)
}

// ActiveAuthorizations lists a vehicle's approved authorizations.
func (s *AuthorizationService) ActiveAuthorizations(vehicleID uuid.UUID) ([]models.ExternalAuthorization, error) {
	var auths []models.ExternalAuthorization
	err := s.db.Preload("Employee").
		Where("vehicle_id = ? AND status = ?", vehicleID, models.AuthorizationApproved).
		Order("created_at desc").
		Find(&auths).Error
	return auths, err
}
