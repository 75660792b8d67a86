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

// WorkshopForm is the submitted send-to-workshop or receive form.
type WorkshopForm struct {
	EntryDate      string
	Reason         string
	Description    string
	WorkshopName   string
	TechnicianName string
	Cost           float64
	DeliveryLink   string
	PickupLink     string

	// Receive-side fields
	ExitDate       string
	ReceivedStatus string
	Notes          string
}

// WorkshopService manages entry/exit workshop visits and keeps the vehicle
// state column in lockstep with the open-record invariant.
type WorkshopService struct {
	db       *gorm.DB
	store    BlobStore
	audit    *AuditService
	uploader *CloudUploader
}

func NewWorkshopService(db *gorm.DB, store BlobStore, uploader *CloudUploader) *WorkshopService {
	return &WorkshopService{db: db, store: store, audit: NewAuditService(db), uploader: uploader}
}

// SendToWorkshop opens a workshop visit and flips the vehicle to in_workshop.
func (s *WorkshopService) SendToWorkshop(vehicleID uuid.UUID, form WorkshopForm, attachments []FileUpload, actorID uuid.UUID) Result {
	var vehicle models.Vehicle
	if err := s.db.First(&vehicle, "id = ?", vehicleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Failure(FailNotFound, "المركبة غير موجودة")
		}
		return Failure(FailConflict, "تعذر تحميل بيانات المركبة")
	}

	if tr := fleet.ValidateTransition(vehicle.Status, fleet.StatusInWorkshop); !tr.OK {
		return Failure(FailIneligibleState, tr.Message)
	}
	if strings.TrimSpace(form.Description) == "" {
		return Failure(FailValidation, "وصف العطل مطلوب")
	}
	if strings.TrimSpace(form.TechnicianName) == "" {
		return Failure(FailValidation, "اسم الفني مطلوب")
	}
	if form.Cost < 0 {
		return Failure(FailValidation, "التكلفة غير صالحة")
	}

	reason := models.WorkshopReason(strings.TrimSpace(form.Reason))
	switch reason {
	case models.WorkshopReasonMaintenance, models.WorkshopReasonBreakdown,
		models.WorkshopReasonAccident, models.WorkshopReasonInspection, models.WorkshopReasonOther:
	case "":
		reason = models.WorkshopReasonMaintenance
	default:
		return Failure(FailValidation, "سبب الدخول غير صالح")
	}

	record := models.VehicleWorkshop{
		VehicleID:      vehicleID,
		EntryDate:      utils.ParseFormDate(form.EntryDate),
		Reason:         reason,
		Description:    form.Description,
		RepairStatus:   models.RepairInProgress,
		Cost:           form.Cost,
		WorkshopName:   form.WorkshopName,
		TechnicianName: form.TechnicianName,
	}
	if form.DeliveryLink != "" {
		record.DeliveryLink = &form.DeliveryLink
	}

	// Receipt attachments are materialized outside the transaction; the
	// first one is the canonical delivery receipt.
	var keys []string
	for _, upload := range attachments {
		if upload.empty() {
			continue
		}
		key, r := s.storeAttachment(upload, BucketWorkshopReceipts)
		if !r.OK {
			return r
		}
		keys = append(keys, key)
	}
	if len(keys) > 0 {
		record.DeliveryReceiptKey = &keys[0]
		record.DeliveryImages = keys
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Any open row blocks entry, regardless of the state column.
		var open int64
		if err := tx.Model(&models.VehicleWorkshop{}).
			Where("vehicle_id = ? AND exit_date IS NULL", vehicleID).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return errVehicleInWorkshop
		}

		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Vehicle{}).
			Where("id = ?", vehicleID).
			Updates(map[string]interface{}{"status": fleet.StatusInWorkshop, "updated_at": time.Now()}).Error; err != nil {
			return err
		}
		s.audit.Record(tx, &actorID, "status_change", "vehicle", &vehicleID,
			fmt.Sprintf("إرسال إلى الورشة — %s", vehicle.PlateNumber),
			map[string]interface{}{"status": vehicle.Status},
			map[string]interface{}{"status": fleet.StatusInWorkshop, "workshop_id": record.ID})
		return nil
	})
	if errors.Is(err, errVehicleInWorkshop) {
		return Failure(FailIneligibleState, "المركبة موجودة بالفعل في الورشة")
	}
	if err != nil {
		// The partial unique index on (vehicle_id) WHERE exit_date IS NULL
		// also fires on a racing insert.
		return Failure(FailConflict, "المركبة موجودة بالفعل في الورشة")
	}

	if s.uploader != nil && len(keys) > 0 {
		s.uploader.Enqueue(CloudUploadTask{RecordType: "workshop", RecordID: record.ID, FileKeys: keys})
	}
	return Success(record)
}

var errVehicleInWorkshop = errors.New("vehicle already in workshop")

// ReceiveFromWorkshop closes an open visit and returns the vehicle to service.
func (s *WorkshopService) ReceiveFromWorkshop(vehicleID, maintenanceID uuid.UUID, form WorkshopForm, inspectionReport FileUpload, actorID uuid.UUID) Result {
	var vehicle models.Vehicle
	if err := s.db.First(&vehicle, "id = ?", vehicleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Failure(FailNotFound, "المركبة غير موجودة")
		}
		return Failure(FailConflict, "تعذر تحميل بيانات المركبة")
	}

	if tr := fleet.ValidateTransition(vehicle.Status, fleet.StatusAvailable); !tr.OK {
		return Failure(FailIneligibleState, tr.Message)
	}
	if inspectionReport.empty() {
		return Failure(FailValidation, "تقرير الاستلام مطلوب")
	}
	received := strings.TrimSpace(form.ReceivedStatus)
	if received != "received_from_workshop" && received != "received" {
		return Failure(FailValidation, "حالة الاستلام مطلوبة")
	}

	var record models.VehicleWorkshop
	if err := s.db.Where("id = ? AND vehicle_id = ?", maintenanceID, vehicleID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Failure(FailNotFound, "سجل الصيانة غير موجود")
		}
		return Failure(FailConflict, "تعذر تحميل سجل الصيانة")
	}
	if !record.Open() {
		return Failure(FailIneligibleState, "سجل الصيانة مغلق بالفعل")
	}

	reportKey, r := s.storeAttachment(inspectionReport, BucketWorkshopReceipts)
	if !r.OK {
		return r
	}

	exitDate := utils.ParseFormDate(form.ExitDate)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"exit_date":          exitDate,
			"repair_status":      models.RepairCompleted,
			"pickup_receipt_key": reportKey,
		}
		if form.Cost > 0 {
			updates["cost"] = form.Cost
		}
		if form.PickupLink != "" {
			updates["pickup_link"] = form.PickupLink
		}
		if err := tx.Model(&models.VehicleWorkshop{}).Where("id = ?", record.ID).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Vehicle{}).
			Where("id = ?", vehicleID).
			Updates(map[string]interface{}{"status": fleet.StatusAvailable, "updated_at": time.Now()}).Error; err != nil {
			return err
		}
		s.audit.Record(tx, &actorID, "status_change", "vehicle", &vehicleID,
			fmt.Sprintf("استلام من الورشة — %s", vehicle.PlateNumber),
			map[string]interface{}{"status": vehicle.Status, "workshop_id": record.ID},
			map[string]interface{}{"status": fleet.StatusAvailable, "workshop_id": record.ID})
		return nil
	})
	if err != nil {
		return Failure(FailConflict, "تعذر إغلاق سجل الصيانة")
	}

	if s.uploader != nil {
		s.uploader.Enqueue(CloudUploadTask{RecordType: "workshop", RecordID: record.ID, FileKeys: []string{reportKey}})
	}
	s.db.First(&record, "id = ?", record.ID)
	return Success(record)
}

// UpdateWorkshopRecord edits a visit. Clearing exit_date pulls the vehicle
// back into the workshop; setting it releases the vehicle. Both directions go
// through the state machine.
func (s *WorkshopService) UpdateWorkshopRecord(recordID uuid.UUID, updates map[string]interface{}, actorID uuid.UUID) Result {
	var record models.VehicleWorkshop
	if err := s.db.First(&record, "id = ?", recordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Failure(FailNotFound, "سجل الصيانة غير موجود")
		}
		return Failure(FailConflict, "تعذر تحميل سجل الصيانة")
	}
	var vehicle models.Vehicle
	if err := s.db.First(&vehicle, "id = ?", record.VehicleID).Error; err != nil {
		return Failure(FailNotFound, "المركبة غير موجودة")
	}

	wasOpen := record.Open()
	willBeOpen := wasOpen
	if raw, present := updates["exit_date"]; present {
		willBeOpen = raw == nil || raw == ""
		if !willBeOpen {
			if str, ok := raw.(string); ok {
				updates["exit_date"] = utils.ParseFormDate(str)
			}
		} else {
			updates["exit_date"] = nil
		}
	}

	var targetStatus *fleet.Status
	if wasOpen != willBeOpen {
		target := fleet.StatusAvailable
		if willBeOpen {
			target = fleet.StatusInWorkshop
		}
		if tr := fleet.ValidateTransition(vehicle.Status, target); !tr.OK {
			return Failure(FailIneligibleState, tr.Message)
		}
		targetStatus = &target
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if willBeOpen && !wasOpen {
			var open int64
			if err := tx.Model(&models.VehicleWorkshop{}).
				Where("vehicle_id = ? AND exit_date IS NULL AND id <> ?", record.VehicleID, record.ID).
				Count(&open).Error; err != nil {
				return err
			}
			if open > 0 {
				return errVehicleInWorkshop
			}
		}
		if err := tx.Model(&models.VehicleWorkshop{}).Where("id = ?", record.ID).Updates(updates).Error; err != nil {
			return err
		}
		if targetStatus != nil {
			if err := tx.Model(&models.Vehicle{}).
				Where("id = ?", record.VehicleID).
				Updates(map[string]interface{}{"status": *targetStatus, "updated_at": time.Now()}).Error; err != nil {
				return err
			}
			s.audit.Record(tx, &actorID, "status_change", "vehicle", &record.VehicleID,
				fmt.Sprintf("تعديل سجل صيانة — %s", vehicle.PlateNumber),
				map[string]interface{}{"status": vehicle.Status},
				map[string]interface{}{"status": *targetStatus, "workshop_id": record.ID})
		} else {
			s.audit.Record(tx, &actorID, "update", "vehicle_workshop", &record.ID,
				vehicle.PlateNumber, record, updates)
		}
		return nil
	})
	if errors.Is(err, errVehicleInWorkshop) {
		return Failure(FailIneligibleState, "المركبة موجودة بالفعل في الورشة")
	}
	if err != nil {
		return Failure(FailConflict, "تعذر تعديل سجل الصيانة")
	}

	s.db.First(&record, "id = ?", record.ID)
	return Success(record)
}

// OpenRecord returns the vehicle's open workshop visit, if any.
func (s *WorkshopService) OpenRecord(vehicleID uuid.UUID) (*models.VehicleWorkshop, error) {
	var record models.VehicleWorkshop
	err := s.db.Where("vehicle_id = ? AND exit_date IS NULL", vehicleID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *WorkshopService) storeAttachment(upload FileUpload, bucket string) (string, Result) {
	var data []byte
	var ext string
	if upload.DataURL != "" {
		var err error
		data, ext, err = utils.DecodeDataURL(upload.DataURL)
		if err != nil {
			return "", Failure(FailValidation, "الملف المرفق غير صالح")
		}
	} else {
		if err := utils.ValidateUpload(upload.Name, int64(len(upload.Data))); err != nil {
			return "", Failure(FailValidation, err.Error())
		}
		data = upload.Data
		ext = strings.ToLower(upload.Name[strings.LastIndex(upload.Name, "."):])
	}

	key := uuid.New().String() + ext
	if _, err := s.store.Put(bucket, key, data); err != nil {
		log.Printf("❌ Failed to store workshop attachment: %v", err)
		return "", Failure(FailValidation, "تعذر حفظ الملف المرفق")
	}
	return key, Success(nil)
}
