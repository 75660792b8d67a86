package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/nuzum/models"
	"p9e.in/nuzum/pkg/fleet"
	"p9e.in/nuzum/utils"
)

// FileUpload is one attachment handed to a service: either raw bytes with a
// filename, or a base64 data URL (signature pads submit those).
type FileUpload struct {
	Name    string
	Data    []byte
	DataURL string
}

func (f FileUpload) empty() bool {
	return len(f.Data) == 0 && f.DataURL == ""
}

// HandoverForm is the submitted delivery/return form.
type HandoverForm struct {
	Type         string // delivery/return, English or Arabic token
	Date         string
	Time         string
	Mileage      int
	FuelLevel    string
	Driver       string // employee number, or free-form name
	Supervisor   string
	MovementOfficer string
	ReasonForChange string
	StatusSummary   string
	FormLink        string
	FormLink2       string

	Checklist map[string]bool

	DamageDiagram            FileUpload
	DriverSignature          FileUpload
	SupervisorSignature      FileUpload
	MovementOfficerSignature FileUpload
	CustomLogo               FileUpload

	Attachments []struct {
		File        FileUpload
		Description string
	}
}

// HandoverContext is the official-handover snapshot for one vehicle.
type HandoverContext struct {
	LatestOfficialDelivery *models.VehicleHandover
	LatestOfficialReturn   *models.VehicleHandover
}

// CurrentlyHandedOut holds iff a latest official delivery exists and is newer
// than any official return.
func (c HandoverContext) CurrentlyHandedOut() bool {
	if c.LatestOfficialDelivery == nil {
		return false
	}
	if c.LatestOfficialReturn == nil {
		return true
	}
	return c.LatestOfficialDelivery.CreatedAt.After(c.LatestOfficialReturn.CreatedAt)
}

// HandoverService creates delivery/return records, binds driver identity and
// keeps the vehicle's current-driver denormalization in sync.
type HandoverService struct {
	db       *gorm.DB
	store    BlobStore
	approval *ApprovalService
	audit    *AuditService
	uploader *CloudUploader
}

func NewHandoverService(db *gorm.DB, store BlobStore, uploader *CloudUploader) *HandoverService {
	return &HandoverService{
		db:       db,
		store:    store,
		approval: NewApprovalService(db),
		audit:    NewAuditService(db),
		uploader: uploader,
	}
}

// officialHandovers returns a vehicle's handovers that count as official: the
// record is approved, or it never entered the approval workflow at all.
func officialHandovers(db *gorm.DB, vehicleID uuid.UUID) ([]models.VehicleHandover, error) {
	approvedIDs, err := ApprovedRecordIDs(db, models.OperationHandover, vehicleID)
	if err != nil {
		return nil, err
	}
	gatedIDs, err := AllRequestRecordIDs(db, models.OperationHandover, vehicleID)
	if err != nil {
		return nil, err
	}

	query := db.Where("vehicle_id = ?", vehicleID)
	switch {
	case len(approvedIDs) > 0 && len(gatedIDs) > 0:
		query = query.Where("id IN ? OR id NOT IN ?", approvedIDs, gatedIDs)
	case len(gatedIDs) > 0:
		query = query.Where("id NOT IN ?", gatedIDs)
	}

	var handovers []models.VehicleHandover
	err = query.Order("created_at asc").Find(&handovers).Error
	return handovers, err
}

// ReadContext computes the latest official delivery and return for a vehicle.
// A nil db falls back to the service's own connection.
func (s *HandoverService) ReadContext(db *gorm.DB, vehicleID uuid.UUID) (HandoverContext, error) {
	if db == nil {
		db = s.db
	}
	handovers, err := officialHandovers(db, vehicleID)
	if err != nil {
		return HandoverContext{}, err
	}

	var ctx HandoverContext
	for i := range handovers {
		h := &handovers[i]
		switch h.Type {
		case fleet.HandoverDelivery:
			ctx.LatestOfficialDelivery = h
		case fleet.HandoverReturn:
			ctx.LatestOfficialReturn = h
		}
	}
	return ctx, nil
}

// CreateHandover runs the full delivery/return flow for a vehicle.
func (s *HandoverService) CreateHandover(vehicleID uuid.UUID, form HandoverForm, actorID uuid.UUID) Result {
	result := s.createHandoverOnce(vehicleID, form, actorID)
	// A serialization conflict (simultaneous delivery) is retried once.
	if !result.OK && result.Kind == FailConflict {
		result = s.createHandoverOnce(vehicleID, form, actorID)
	}
	return result
}

func (s *HandoverService) createHandoverOnce(vehicleID uuid.UUID, form HandoverForm, actorID uuid.UUID) Result {
	var vehicle models.Vehicle
	if err := s.db.First(&vehicle, "id = ?", vehicleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Failure(FailNotFound, "المركبة غير موجودة")
		}
		return Failure(FailConflict, "تعذر تحميل بيانات المركبة")
	}

	handoverType, ok := fleet.NormalizeHandoverType(form.Type)
	if !ok {
		return Failure(FailValidation, "نوع العملية غير صالح")
	}
	if form.Mileage < 0 {
		return Failure(FailValidation, "قراءة العداد غير صالحة")
	}

	ctx, err := s.ReadContext(s.db, vehicleID)
	if err != nil {
		return Failure(FailConflict, "تعذر قراءة سجل التسليم")
	}

	// Force mode: a handed-out vehicle only accepts a return, and vice versa.
	if ctx.CurrentlyHandedOut() && handoverType != fleet.HandoverReturn {
		return Failure(FailIneligibleState, "المركبة مسلمة حالياً؛ المطلوب تسجيل استلام وليس تسليم")
	}
	if !ctx.CurrentlyHandedOut() && handoverType != fleet.HandoverDelivery {
		return Failure(FailIneligibleState, "المركبة غير مسلمة حالياً؛ المطلوب تسجيل تسليم وليس استلام")
	}

	if elig := fleet.HandoverEligibility(vehicle.Status); !elig.OK {
		return FailureWith(FailIneligibleState, elig.Message, elig)
	}

	handover := models.VehicleHandover{
		VehicleID:    vehicleID,
		Type:         handoverType,
		HandoverDate: utils.ParseFormDate(form.Date),
		HandoverTime: utils.ParseFormTime(form.Time),
		Mileage:      form.Mileage,
		FuelLevel:    form.FuelLevel,

		PlateNumber:  vehicle.PlateNumber,
		VehicleModel: vehicle.Make + " " + vehicle.Model,
		VehicleYear:  vehicle.Year,

		MovementOfficerName: form.MovementOfficer,
		ReasonForChange:     form.ReasonForChange,
		StatusSummary:       form.StatusSummary,
	}
	applyChecklist(&handover, form.Checklist)
	if form.FormLink != "" {
		handover.FormLink = &form.FormLink
	}
	if form.FormLink2 != "" {
		handover.FormLink2 = &form.FormLink2
	}

	// Resolve the driver: employee number first, then fuzzy name, else keep
	// the free-form snapshot.
	driver := s.resolveEmployee(form.Driver)
	if driver != nil {
		handover.EmployeeID = &driver.ID
		handover.PersonName = driver.Name
		if driver.Phone != "" {
			handover.DriverPhone = &driver.Phone
		}
		handover.DriverResidencyID = driver.NationalID
		if driver.ContractStatus != "" {
			handover.DriverContractStatus = &driver.ContractStatus
		}
		if driver.LicenseStatus != "" {
			handover.DriverLicenseStatus = &driver.LicenseStatus
		}
	} else {
		handover.PersonName = strings.TrimSpace(form.Driver)
	}
	if handover.PersonName == "" {
		return Failure(FailValidation, "اسم السائق مطلوب")
	}

	if supervisor := s.resolveEmployee(form.Supervisor); supervisor != nil {
		handover.SupervisorEmployeeID = &supervisor.ID
		handover.SupervisorName = supervisor.Name
	} else {
		handover.SupervisorName = strings.TrimSpace(form.Supervisor)
	}

	// Materialize file references before the row exists; keys are
	// UUID-prefixed so a rolled-back insert leaves only orphan blobs.
	if r := s.storeUpload(&handover.DamageDiagramKey, form.DamageDiagram, BucketHandoverDiagrams); !r.OK {
		return r
	}
	if r := s.storeUpload(&handover.DriverSignatureKey, form.DriverSignature, BucketHandoverSignatures); !r.OK {
		return r
	}
	if r := s.storeUpload(&handover.SupervisorSignatureKey, form.SupervisorSignature, BucketHandoverSignatures); !r.OK {
		return r
	}
	if r := s.storeUpload(&handover.MovementOfficerSignatureKey, form.MovementOfficerSignature, BucketHandoverSignatures); !r.OK {
		return r
	}
	if r := s.storeUpload(&handover.CustomLogoKey, form.CustomLogo, BucketLogos); !r.OK {
		return r
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&handover).Error; err != nil {
			return err
		}
		s.audit.Record(tx, &actorID, "create", "vehicle_handover", &handover.ID,
			fmt.Sprintf("%s %s", handoverType, vehicle.PlateNumber), nil, handover)
		return nil
	})
	if err != nil {
		return Failure(FailConflict, "تعذر حفظ سجل العملية")
	}

	// Post-commit: open the approval gate, attach extra images, mirror to the
	// drive and recompute the current driver.
	title := fmt.Sprintf("طلب اعتماد %s — %s", handoverTypeLabel(handoverType), vehicle.PlateNumber)
	if _, err := s.approval.CreateRequest(models.OperationHandover, handover.ID, vehicleID, actorID, title, handover.PersonName, "normal"); err != nil {
		log.Printf("❌ Failed to open approval request for handover %s: %v", handover.ID, err)
	}

	fileKeys := collectHandoverKeys(&handover)
	for _, att := range form.Attachments {
		if att.File.empty() {
			continue
		}
		var key *string
		if r := s.storeUpload(&key, att.File, BucketHandoverDiagrams); !r.OK {
			log.Printf("⚠️  Skipping bad handover attachment: %s", r.Message)
			continue
		}
		image := models.VehicleHandoverImage{
			HandoverID:  handover.ID,
			FileKey:     *key,
			Description: att.Description,
		}
		if err := s.db.Create(&image).Error; err != nil {
			log.Printf("❌ Failed to save handover image: %v", err)
			continue
		}
		fileKeys = append(fileKeys, image.FileKey)
	}

	if s.uploader != nil {
		s.uploader.Enqueue(CloudUploadTask{RecordType: "handover", RecordID: handover.ID, FileKeys: fileKeys})
	}

	if err := refreshVehicleDriverName(s.db, vehicleID); err != nil {
		log.Printf("❌ Failed to refresh driver name for vehicle %s: %v", vehicleID, err)
	}

	return Success(handover)
}

// storeUpload persists one optional attachment and writes its key through dst.
func (s *HandoverService) storeUpload(dst **string, upload FileUpload, bucket string) Result {
	if upload.empty() {
		return Success(nil)
	}

	var data []byte
	var ext string
	if upload.DataURL != "" {
		var err error
		data, ext, err = utils.DecodeDataURL(upload.DataURL)
		if err != nil {
			return Failure(FailValidation, "ملف التوقيع غير صالح")
		}
	} else {
		if err := utils.ValidateUpload(upload.Name, int64(len(upload.Data))); err != nil {
			return Failure(FailValidation, err.Error())
		}
		data = upload.Data
		ext = strings.ToLower(upload.Name[strings.LastIndex(upload.Name, "."):])
	}

	key := uuid.New().String() + ext
	if _, err := s.store.Put(bucket, key, data); err != nil {
		return Failure(FailValidation, "تعذر حفظ الملف المرفق")
	}
	*dst = &key
	return Success(nil)
}

func (s *HandoverService) resolveEmployee(token string) *models.Employee {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	var employee models.Employee
	if err := s.db.Where("employee_number = ?", token).First(&employee).Error; err == nil {
		return &employee
	}
	if err := s.db.Where("name LIKE ?", "%"+token+"%").First(&employee).Error; err == nil {
		return &employee
	}
	return nil
}

func applyChecklist(h *models.VehicleHandover, checklist map[string]bool) {
	h.HasSpareTyre = checklist["spare_tyre"]
	h.HasFireExtinguisher = checklist["fire_extinguisher"]
	h.HasFirstAidKit = checklist["first_aid_kit"]
	h.HasWarningTriangle = checklist["warning_triangle"]
	h.HasTools = checklist["tools"]
	h.HasOilLeaks = checklist["oil_leaks"]
	h.HasGearIssue = checklist["gear_issue"]
	h.HasClutchIssue = checklist["clutch_issue"]
	h.HasEngineIssue = checklist["engine_issue"]
	h.HasWindowsIssue = checklist["windows_issue"]
	h.HasTyreIssue = checklist["tyre_issue"]
	h.HasBodyIssue = checklist["body_issue"]
	h.HasElectricityIssue = checklist["electricity_issue"]
	h.HasLightsIssue = checklist["lights_issue"]
	h.HasACIssue = checklist["ac_issue"]
}

func collectHandoverKeys(h *models.VehicleHandover) []string {
	var keys []string
	for _, k := range []*string{h.DamageDiagramKey, h.DriverSignatureKey, h.SupervisorSignatureKey, h.MovementOfficerSignatureKey, h.CustomLogoKey} {
		if k != nil {
			keys = append(keys, *k)
		}
	}
	return keys
}

func handoverTypeLabel(t fleet.HandoverType) string {
	if t == fleet.HandoverDelivery {
		return "تسليم"
	}
	return "استلام"
}

// refreshVehicleDriverName recomputes the denormalized driver name from the
// latest official delivery with no later official return. It runs inside the
// same transaction that mutated the handover set.
func refreshVehicleDriverName(db *gorm.DB, vehicleID uuid.UUID) error {
	handovers, err := officialHandovers(db, vehicleID)
	if err != nil {
		return err
	}

	ctx := HandoverContext{}
	for i := range handovers {
		h := &handovers[i]
		switch h.Type {
		case fleet.HandoverDelivery:
			ctx.LatestOfficialDelivery = h
		case fleet.HandoverReturn:
			ctx.LatestOfficialReturn = h
		}
	}

	var driverName *string
	if ctx.CurrentlyHandedOut() {
		driverName = &ctx.LatestOfficialDelivery.PersonName
	}
	return db.Model(&models.Vehicle{}).
		Where("id = ?", vehicleID).
		Update("driver_name", driverName).Error
}
