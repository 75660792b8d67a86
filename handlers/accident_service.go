package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/nuzum/models"
	"p9e.in/nuzum/pkg/fleet"
	"p9e.in/nuzum/utils"
)

// AccidentForm is the submitted accident registration.
type AccidentForm struct {
	Date        string
	Time        string
	DriverName  string
	Severity    string
	Description string

	LocationText string
	Latitude     *float64
	Longitude    *float64

	PoliceReport       bool
	PoliceReportNumber string
	InsuranceClaim     bool

	DeductionAmount     float64
	LiabilityPercentage float64

	AccidentReport     FileUpload
	DriverIDImage      FileUpload
	DriverLicenseImage FileUpload
	SceneImages        []FileUpload
}

// AccidentService registers accidents, routes the vehicle to the right state
// and runs the administrative review workflow.
type AccidentService struct {
	db       *gorm.DB
	store    BlobStore
	audit    *AuditService
	notifier *NotificationService
	uploader *CloudUploader
}

func NewAccidentService(db *gorm.DB, store BlobStore, uploader *CloudUploader) *AccidentService {
	return &AccidentService{
		db:       db,
		store:    store,
		audit:    NewAuditService(db),
		notifier: NewNotificationService(db),
		uploader: uploader,
	}
}

// RegisterAccident records an accident. requiresRepair routes the vehicle to
// in_workshop instead of accident; a vehicle already inside the workshop must
// leave it first.
func (s *AccidentService) RegisterAccident(vehicleID uuid.UUID, form AccidentForm, requiresRepair bool, actorID uuid.UUID) Result {
	var vehicle models.Vehicle
	if err := s.db.First(&vehicle, "id = ?", vehicleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Failure(FailNotFound, "المركبة غير موجودة")
		}
		return Failure(FailConflict, "تعذر تحميل بيانات المركبة")
	}

	target := fleet.StatusAccident
	if requiresRepair {
		target = fleet.StatusInWorkshop
	}
	if tr := fleet.ValidateTransition(vehicle.Status, target); !tr.OK {
		return Failure(FailIneligibleState, tr.Message)
	}
	if strings.TrimSpace(form.DriverName) == "" {
		return Failure(FailValidation, "اسم السائق مطلوب")
	}

	severity := models.AccidentSeverity(strings.TrimSpace(form.Severity))
	switch severity {
	case models.SeverityMinor, models.SeverityModerate, models.SeveritySevere, models.SeverityCritical:
	default:
		return Failure(FailValidation, "درجة الخطورة غير صالحة")
	}

	if form.Latitude != nil && form.Longitude != nil {
		if err := utils.ValidateCoordinate(utils.Coordinate{Lat: *form.Latitude, Lng: *form.Longitude}); err != nil {
			return Failure(FailValidation, "إحداثيات الموقع غير صالحة")
		}
	}

	if form.LiabilityPercentage < 0 || form.LiabilityPercentage > 100 {
		return Failure(FailValidation, "نسبة التحمل يجب أن تكون بين 0 و 100")
	}

	accident := models.VehicleAccident{
		VehicleID:    vehicleID,
		AccidentDate: utils.ParseFormDate(form.Date),
		AccidentTime: utils.ParseFormTime(form.Time),
		DriverName:   strings.TrimSpace(form.DriverName),
		Severity:     severity,
		Description:  form.Description,
		LocationText: form.LocationText,
		Latitude:     form.Latitude,
		Longitude:    form.Longitude,

		PoliceReport:   form.PoliceReport,
		InsuranceClaim: form.InsuranceClaim,

		DeductionAmount:     form.DeductionAmount,
		LiabilityPercentage: form.LiabilityPercentage,
		ReviewStatus:        models.ReviewPending,
	}
	if form.PoliceReportNumber != "" {
		accident.PoliceReportNumber = &form.PoliceReportNumber
	}

	if r := s.storeInto(&accident.AccidentReportKey, form.AccidentReport); !r.OK {
		return r
	}
	if r := s.storeInto(&accident.DriverIDImageKey, form.DriverIDImage); !r.OK {
		return r
	}
	if r := s.storeInto(&accident.DriverLicenseImageKey, form.DriverLicenseImage); !r.OK {
		return r
	}

	priority := PriorityForSeverity(severity)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&accident).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Vehicle{}).
			Where("id = ?", vehicleID).
			Updates(map[string]interface{}{"status": target, "updated_at": time.Now()}).Error; err != nil {
			return err
		}

		request := models.OperationRequest{
			OperationType:   models.OperationAccident,
			RelatedRecordID: accident.ID,
			VehicleID:       vehicleID,
			Title:           fmt.Sprintf("حادث %s — %s", severityLabel(severity), vehicle.PlateNumber),
			Description:     accident.Description,
			RequestedBy:     actorID,
			Status:          models.OperationPending,
			Priority:        priority,
		}
		if err := tx.Create(&request).Error; err != nil {
			return err
		}

		s.audit.Record(tx, &actorID, "status_change", "vehicle", &vehicleID,
			fmt.Sprintf("تسجيل حادث — %s", vehicle.PlateNumber),
			map[string]interface{}{"status": vehicle.Status},
			map[string]interface{}{"status": target, "accident_id": accident.ID})

		return s.notifier.NotifyAllActiveUsers(tx, request.ID, request.Title,
			fmt.Sprintf("تم تسجيل حادث للمركبة %s بواسطة %s", vehicle.PlateNumber, accident.DriverName), priority)
	})
	if err != nil {
		return Failure(FailConflict, "تعذر حفظ بلاغ الحادث")
	}

	// Scene gallery: best-effort, each image lands as type 'other'.
	fileKeys := collectAccidentKeys(&accident)
	for _, upload := range form.SceneImages {
		if upload.empty() {
			continue
		}
		var key *string
		if r := s.storeInto(&key, upload); !r.OK {
			log.Printf("⚠️  Skipping bad accident image: %s", r.Message)
			continue
		}
		image := models.VehicleAccidentImage{AccidentID: accident.ID, FileKey: *key, ImageType: "other"}
		if err := s.db.Create(&image).Error; err != nil {
			log.Printf("❌ Failed to save accident image: %v", err)
			continue
		}
		fileKeys = append(fileKeys, image.FileKey)
	}

	if s.uploader != nil && len(fileKeys) > 0 {
		s.uploader.Enqueue(CloudUploadTask{RecordType: "accident", RecordID: accident.ID, FileKeys: fileKeys})
	}
	return Success(accident)
}

// ReviewDecision carries the reviewer's verdict on an accident.
type ReviewDecision struct {
	Notes               string
	LiabilityPercentage *float64
	DeductionAmount     *float64
	VehicleCondition    string
}

// ApproveAccident promotes the record into the vehicle's official accident
// list and stamps the Arabic approved label.
func (s *AccidentService) ApproveAccident(accidentID, reviewerID uuid.UUID, decision ReviewDecision) Result {
	return s.review(accidentID, reviewerID, models.ReviewApproved, decision)
}

func (s *AccidentService) RejectAccident(accidentID, reviewerID uuid.UUID, decision ReviewDecision) Result {
	return s.review(accidentID, reviewerID, models.ReviewRejected, decision)
}

func (s *AccidentService) MarkAccidentUnderReview(accidentID, reviewerID uuid.UUID) Result {
	return s.review(accidentID, reviewerID, models.ReviewUnderReview, ReviewDecision{})
}

func (s *AccidentService) review(accidentID, reviewerID uuid.UUID, target models.ReviewStatus, decision ReviewDecision) Result {
	var accident models.VehicleAccident
	if err := s.db.First(&accident, "id = ?", accidentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Failure(FailNotFound, "بلاغ الحادث غير موجود")
		}
		return Failure(FailConflict, "تعذر تحميل بلاغ الحادث")
	}

	if accident.ReviewStatus == target {
		return Success(accident)
	}
	if accident.ReviewStatus == models.ReviewApproved || accident.ReviewStatus == models.ReviewRejected {
		return Failure(FailConflict, "تمت مراجعة البلاغ بالفعل")
	}

	now := time.Now()
	updates := map[string]interface{}{
		"review_status": target,
		"reviewer_id":   reviewerID,
		"reviewed_at":   now,
	}
	if decision.Notes != "" {
		updates["reviewer_notes"] = decision.Notes
	}
	if target == models.ReviewApproved {
		updates["accident_status"] = "معتمد"
		if decision.LiabilityPercentage != nil {
			if *decision.LiabilityPercentage < 0 || *decision.LiabilityPercentage > 100 {
				return Failure(FailValidation, "نسبة التحمل يجب أن تكون بين 0 و 100")
			}
			updates["liability_percentage"] = *decision.LiabilityPercentage
		}
		if decision.DeductionAmount != nil {
			updates["deduction_amount"] = *decision.DeductionAmount
		}
		if decision.VehicleCondition != "" {
			updates["vehicle_condition"] = decision.VehicleCondition
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.VehicleAccident{}).Where("id = ?", accident.ID).Updates(updates).Error; err != nil {
			return err
		}
		s.audit.Record(tx, &reviewerID, "review", "vehicle_accident", &accident.ID,
			string(target),
			map[string]interface{}{"review_status": accident.ReviewStatus},
			map[string]interface{}{"review_status": target})
		return nil
	})
	if err != nil {
		return Failure(FailConflict, "تعذر حفظ قرار المراجعة")
	}

	s.db.First(&accident, "id = ?", accident.ID)
	return Success(accident)
}

// ApprovedAccidents is the official accident list for a vehicle.
func (s *AccidentService) ApprovedAccidents(vehicleID uuid.UUID) ([]models.VehicleAccident, error) {
	var accidents []models.VehicleAccident
	err := s.db.Preload("Images").
		Where("vehicle_id = ? AND review_status = ?", vehicleID, models.ReviewApproved).
		Order("accident_date desc").
		Find(&accidents).Error
	return accidents, err
}

func (s *AccidentService) storeInto(dst **string, upload FileUpload) Result {
	if upload.empty() {
		return Success(nil)
	}

	var data []byte
	var ext string
	if upload.DataURL != "" {
		var err error
		data, ext, err = utils.DecodeDataURL(upload.DataURL)
		if err != nil {
			return Failure(FailValidation, "الملف المرفق غير صالح")
		}
	} else {
		if err := utils.ValidateUpload(upload.Name, int64(len(upload.Data))); err != nil {
			return Failure(FailValidation, err.Error())
		}
		data = upload.Data
		ext = strings.ToLower(upload.Name[strings.LastIndex(upload.Name, "."):])
	}

	key := uuid.New().String() + ext
	if _, err := s.store.Put(BucketAccidents, key, data); err != nil {
		return Failure(FailValidation, "تعذر حفظ الملف المرفق")
	}
	*dst = &key
	return Success(nil)
}

func collectAccidentKeys(a *models.VehicleAccident) []string {
	var keys []string
	for _, k := range []*string{a.AccidentReportKey, a.DriverIDImageKey, a.DriverLicenseImageKey} {
		if k != nil {
			keys = append(keys, *k)
		}
	}
	return keys
}

func severityLabel(s models.AccidentSeverity) string {
	switch s {
	case models.SeverityMinor:
		return "بسيط"
	case models.SeverityModerate:
		return "متوسط"
	case models.SeveritySevere:
		return "جسيم"
	case models.SeverityCritical:
		return "حرج"
	}
	return string(s)
}
