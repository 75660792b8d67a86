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

// InspectionForm covers periodic inspections, internal safety checks and
// external center checks.
type InspectionForm struct {
	Date        string
	ExpiryDate  string
	Result      string
	Status      string
	CenterName  string
	Inspector   string
	Notes       string
	Certificate FileUpload
}

// InspectionService records inspections and safety checks with their derived
// expiry flags.
type InspectionService struct {
	db    *gorm.DB
	store BlobStore
	audit *AuditService
}

func NewInspectionService(db *gorm.DB, store BlobStore) *InspectionService {
	return &InspectionService{db: db, store: store, audit: NewAuditService(db)}
}

// CreatePeriodicInspection records one dated inspection with expiry.
func (s *InspectionService) CreatePeriodicInspection(vehicleID uuid.UUID, form InspectionForm, actorID uuid.UUID) Result {
	if err := s.db.First(&models.Vehicle{}, "id = ?", vehicleID).Error; err != nil {
		return Failure(FailNotFound, "المركبة غير موجودة")
	}
	if strings.TrimSpace(form.ExpiryDate) == "" {
		return Failure(FailValidation, "تاريخ انتهاء الفحص مطلوب")
	}

	inspection := models.VehiclePeriodicInspection{
		VehicleID:      vehicleID,
		InspectionDate: utils.ParseFormDate(form.Date),
		ExpiryDate:     utils.ParseFormDate(form.ExpiryDate),
		Result:         form.Result,
		CenterName:     form.CenterName,
	}
	if r := s.storeCertificate(&inspection.CertificateKey, form.Certificate); !r.OK {
		return r
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&inspection).Error; err != nil {
			return err
		}
		// A fresh inspection also advances the vehicle's expiry column used
		// by the expiring-documents read model.
		if err := tx.Model(&models.Vehicle{}).Where("id = ?", vehicleID).
			Update("inspection_expiry", inspection.ExpiryDate).Error; err != nil {
			return err
		}
		s.audit.Record(tx, &actorID, "create", "vehicle_periodic_inspection", &inspection.ID, "", nil, inspection)
		return nil
	})
	if err != nil {
		return Failure(FailConflict, "تعذر حفظ الفحص الدوري")
	}
	return Success(inspection)
}

// CreateSafetyCheck records an internal checklist run.
func (s *InspectionService) CreateSafetyCheck(vehicleID uuid.UUID, form InspectionForm, actorID uuid.UUID) Result {
	if err := s.db.First(&models.Vehicle{}, "id = ?", vehicleID).Error; err != nil {
		return Failure(FailNotFound, "المركبة غير موجودة")
	}
	if strings.TrimSpace(form.Inspector) == "" {
		return Failure(FailValidation, "اسم الفاحص مطلوب")
	}

	check := models.VehicleSafetyCheck{
		VehicleID:     vehicleID,
		CheckDate:     utils.ParseFormDate(form.Date),
		Status:        form.Status,
		InspectorName: form.Inspector,
		Notes:         form.Notes,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&check).Error; err != nil {
			return err
		}
		s.audit.Record(tx, &actorID, "create", "vehicle_safety_check", &check.ID, "", nil, check)
		return nil
	})
	if err != nil {
		return Failure(FailConflict, "تعذر حفظ فحص السلامة")
	}
	return Success(check)
}

// CreateExternalSafetyCheck records a check by an outside center; it starts
// pending and needs approval before counting as active.
func (s *InspectionService) CreateExternalSafetyCheck(vehicleID uuid.UUID, form InspectionForm, actorID uuid.UUID) Result {
	if err := s.db.First(&models.Vehicle{}, "id = ?", vehicleID).Error; err != nil {
		return Failure(FailNotFound, "المركبة غير موجودة")
	}
	if strings.TrimSpace(form.CenterName) == "" {
		return Failure(FailValidation, "اسم المركز مطلوب")
	}

	check := models.VehicleExternalSafetyCheck{
		VehicleID:      vehicleID,
		CheckDate:      utils.ParseFormDate(form.Date),
		CenterName:     form.CenterName,
		Result:         form.Result,
		ApprovalStatus: "pending",
	}
	if r := s.storeCertificate(&check.CertificateKey, form.Certificate); !r.OK {
		return r
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&check).Error; err != nil {
			return err
		}
		s.audit.Record(tx, &actorID, "create", "vehicle_external_safety_check", &check.ID, "", nil, check)
		return nil
	})
	if err != nil {
		return Failure(FailConflict, "تعذر حفظ فحص المركز الخارجي")
	}
	return Success(check)
}

// DecideExternalSafetyCheck approves or rejects a pending external check.
func (s *InspectionService) DecideExternalSafetyCheck(checkID, reviewerID uuid.UUID, approve bool) Result {
	target := "rejected"
	if approve {
		target = "approved"
	}

	var check models.VehicleExternalSafetyCheck
	if err := s.db.First(&check, "id = ?", checkID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Failure(FailNotFound, "فحص المركز غير موجود")
		}
		return Failure(FailConflict, "تعذر تحميل فحص المركز")
	}
	if check.ApprovalStatus == target {
		return Success(check)
	}
	if check.ApprovalStatus != "pending" {
		return Failure(FailConflict, "تمت مراجعة الفحص بالفعل")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.VehicleExternalSafetyCheck{}).Where("id = ?", check.ID).
			Update("approval_status", target).Error; err != nil {
			return err
		}
		s.audit.Record(tx, &reviewerID, "review", "vehicle_external_safety_check", &check.ID,
			target,
			map[string]interface{}{"approval_status": check.ApprovalStatus},
			map[string]interface{}{"approval_status": target})
		return nil
	})
	if err != nil {
		return Failure(FailConflict, "تعذر حفظ قرار المراجعة")
	}

	s.db.First(&check, "id = ?", check.ID)
	return Success(check)
}

// InspectionFlags is the derived expiry view of one periodic inspection.
type InspectionFlags struct {
	Inspection     models.VehiclePeriodicInspection `json:"inspection"`
	IsExpired      bool                             `json:"isExpired"`
	IsExpiringSoon bool                             `json:"isExpiringSoon"`
}

// InspectionsWithFlags lists a vehicle's periodic inspections with their
// derived expired / expiring-soon flags.
func (s *InspectionService) InspectionsWithFlags(vehicleID uuid.UUID, today time.Time) ([]InspectionFlags, error) {
	var inspections []models.VehiclePeriodicInspection
	if err := s.db.Where("vehicle_id = ?", vehicleID).
		Order("inspection_date desc").Find(&inspections).Error; err != nil {
		return nil, err
	}

	flags := make([]InspectionFlags, 0, len(inspections))
	for _, inspection := range inspections {
		flags = append(flags, InspectionFlags{
			Inspection:     inspection,
			IsExpired:      inspection.IsExpired(today),
			IsExpiringSoon: inspection.IsExpiringSoon(today),
		})
	}
	return flags, nil
}

func (s *InspectionService) storeCertificate(dst **string, upload FileUpload) Result {
	if upload.empty() {
		return Success(nil)
	}
	if err := utils.ValidateUpload(upload.Name, int64(len(upload.Data))); err != nil {
		return Failure(FailValidation, err.Error())
	}
	ext := strings.ToLower(upload.Name[strings.LastIndex(upload.Name, "."):])
	key := uuid.New().String() + ext
	if _, err := s.store.Put(BucketInspections, key, upload.Data); err != nil {
		return Failure(FailValidation, "تعذر حفظ شهادة الفحص")
	}
	*dst = &key
	return Success(nil)
}
