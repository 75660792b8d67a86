package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/nuzum/models"
	"p9e.in/nuzum/pkg/fleet"
)

// VehicleForm is the create/update payload for a fleet vehicle.
type VehicleForm struct {
	PlateNumber string
	Make        string
	Model       string
	Year        int
	Color       string
	Type        string

	AuthorizationExpiry string
	RegistrationExpiry  string
	InspectionExpiry    string

	ProjectName string
	Region      string
	OwnerName   string
}

// VehicleService owns vehicle CRUD and is the only writer of the status
// column, always through the pkg/fleet validator.
type VehicleService struct {
	db    *gorm.DB
	audit *AuditService
}

func NewVehicleService(db *gorm.DB) *VehicleService {
	return &VehicleService{db: db, audit: NewAuditService(db)}
}

// CreateVehicle registers a vehicle as available.
func (s *VehicleService) CreateVehicle(form VehicleForm, actorID uuid.UUID) Result {
	plate := strings.TrimSpace(form.PlateNumber)
	if plate == "" {
		return Failure(FailValidation, "رقم اللوحة مطلوب")
	}

	vehicle := models.Vehicle{
		PlateNumber: plate,
		Make:        form.Make,
		Model:       form.Model,
		Year:        form.Year,
		Color:       form.Color,
		Type:        form.Type,
		Status:      fleet.StatusAvailable,
	}
	applyExpiryDates(&vehicle, form)
	if form.ProjectName != "" {
		vehicle.ProjectName = &form.ProjectName
	}
	if form.Region != "" {
		vehicle.Region = &form.Region
	}
	if form.OwnerName != "" {
		vehicle.OwnerName = &form.OwnerName
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&vehicle).Error; err != nil {
			return err
		}
		s.audit.Record(tx, &actorID, "create", "vehicle", &vehicle.ID, plate, nil, vehicle)
		return nil
	})
	if err != nil {
		return Failure(FailConflict, "رقم اللوحة مسجل بالفعل")
	}
	return Success(vehicle)
}

// UpdateVehicle edits static vehicle attributes. The status column is not
// touched here; that goes through ApplyTransition.
func (s *VehicleService) UpdateVehicle(vehicleID uuid.UUID, form VehicleForm, actorID uuid.UUID) Result {
	var vehicle models.Vehicle
	if err := s.db.First(&vehicle, "id = ?", vehicleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Failure(FailNotFound, "المركبة غير موجودة")
		}
		return Failure(FailConflict, "تعذر تحميل بيانات المركبة")
	}

	before := vehicle
	if plate := strings.TrimSpace(form.PlateNumber); plate != "" {
		vehicle.PlateNumber = plate
	}
	if form.Make != "" {
		vehicle.Make = form.Make
	}
	if form.Model != "" {
		vehicle.Model = form.Model
	}
	if form.Year > 0 {
		vehicle.Year = form.Year
	}
	if form.Color != "" {
		vehicle.Color = form.Color
	}
	if form.Type != "" {
		vehicle.Type = form.Type
	}
	applyExpiryDates(&vehicle, form)
	if form.ProjectName != "" {
		vehicle.ProjectName = &form.ProjectName
	}
	if form.Region != "" {
		vehicle.Region = &form.Region
	}
	if form.OwnerName != "" {
		vehicle.OwnerName = &form.OwnerName
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Vehicle{}).Where("id = ?", vehicle.ID).
			Select("plate_number", "make", "model", "year", "color", "type",
				"authorization_expiry", "registration_expiry", "inspection_expiry",
				"project_name", "region", "owner_name").
			Updates(&vehicle).Error; err != nil {
			return err
		}
		s.audit.Record(tx, &actorID, "update", "vehicle", &vehicle.ID, vehicle.PlateNumber, before, vehicle)
		return nil
	})
	if err != nil {
		return Failure(FailConflict, "رقم اللوحة مسجل بالفعل")
	}
	return Success(vehicle)
}

// ApplyTransition moves a vehicle to a target status through the state
// machine. document_update is transient: the edit is audited but the stored
// status stays put.
func (s *VehicleService) ApplyTransition(vehicleID uuid.UUID, rawTarget string, actorID uuid.UUID) Result {
	target, ok := fleet.NormalizeStatus(rawTarget)
	if !ok && fleet.Status(rawTarget) == fleet.StatusDocumentUpdate {
		target, ok = fleet.StatusDocumentUpdate, true
	}
	if !ok {
		return Failure(FailValidation, "الحالة المطلوبة غير صالحة")
	}

	var vehicle models.Vehicle
	if err := s.db.First(&vehicle, "id = ?", vehicleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Failure(FailNotFound, "المركبة غير موجودة")
		}
		return Failure(FailConflict, "تعذر تحميل بيانات المركبة")
	}

	tr := fleet.ValidateTransition(vehicle.Status, target)
	if !tr.OK {
		return FailureWith(FailIneligibleState, tr.Message, tr)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if target != fleet.StatusDocumentUpdate {
			if err := tx.Model(&models.Vehicle{}).Where("id = ?", vehicleID).
				Updates(map[string]interface{}{"status": target, "updated_at": time.Now()}).Error; err != nil {
				return err
			}
		}
		s.audit.Record(tx, &actorID, "status_change", "vehicle", &vehicleID,
			vehicle.PlateNumber,
			map[string]interface{}{"status": vehicle.Status},
			map[string]interface{}{"status": target})
		return nil
	})
	if err != nil {
		return Failure(FailConflict, "تعذر تغيير حالة المركبة")
	}

	vehicle.Status = target
	if target == fleet.StatusDocumentUpdate {
		s.db.First(&vehicle, "id = ?", vehicleID)
	}
	return Success(vehicle)
}

// DeleteVehicle destroys a vehicle and all dependent records. The caller must
// type the exact plate number as confirmation; the cascade is explicit so no
// orphan rows survive.
func (s *VehicleService) DeleteVehicle(vehicleID uuid.UUID, confirmWord string, actorID uuid.UUID) Result {
	var vehicle models.Vehicle
	if err := s.db.First(&vehicle, "id = ?", vehicleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Failure(FailNotFound, "المركبة غير موجودة")
		}
		return Failure(FailConflict, "تعذر تحميل بيانات المركبة")
	}

	if strings.TrimSpace(confirmWord) != vehicle.PlateNumber {
		return Failure(FailValidation,
			fmt.Sprintf("للتأكيد اكتب رقم اللوحة %s كما هو", vehicle.PlateNumber))
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var handoverIDs []uuid.UUID
		if err := tx.Model(&models.VehicleHandover{}).Where("vehicle_id = ?", vehicleID).
			Pluck("id", &handoverIDs).Error; err != nil {
			return err
		}
		if len(handoverIDs) > 0 {
			if err := tx.Where("handover_id IN ?", handoverIDs).Delete(&models.VehicleHandoverImage{}).Error; err != nil {
				return err
			}
		}

		var accidentIDs []uuid.UUID
		if err := tx.Model(&models.VehicleAccident{}).Where("vehicle_id = ?", vehicleID).
			Pluck("id", &accidentIDs).Error; err != nil {
			return err
		}
		if len(accidentIDs) > 0 {
			if err := tx.Where("accident_id IN ?", accidentIDs).Delete(&models.VehicleAccidentImage{}).Error; err != nil {
				return err
			}
		}

		var requestIDs []uuid.UUID
		if err := tx.Model(&models.OperationRequest{}).Where("vehicle_id = ?", vehicleID).
			Pluck("id", &requestIDs).Error; err != nil {
			return err
		}
		if len(requestIDs) > 0 {
			if err := tx.Where("operation_request_id IN ?", requestIDs).Delete(&models.OperationNotification{}).Error; err != nil {
				return err
			}
		}

		for _, model := range []interface{}{
			&models.VehicleHandover{},
			&models.VehicleWorkshop{},
			&models.VehicleAccident{},
			&models.VehiclePeriodicInspection{},
			&models.VehicleSafetyCheck{},
			&models.VehicleExternalSafetyCheck{},
			&models.ExternalAuthorization{},
			&models.VehicleRental{},
			&models.OperationRequest{},
		} {
			if err := tx.Where("vehicle_id = ?", vehicleID).Delete(model).Error; err != nil {
				return err
			}
		}

		if err := tx.Delete(&models.Vehicle{}, "id = ?", vehicleID).Error; err != nil {
			return err
		}
		s.audit.Record(tx, &actorID, "delete", "vehicle", &vehicleID, vehicle.PlateNumber, vehicle, nil)
		return nil
	})
	if err != nil {
		return Failure(FailConflict, "تعذر حذف المركبة")
	}
	return Success(nil)
}

func applyExpiryDates(v *models.Vehicle, form VehicleForm) {
	if form.AuthorizationExpiry != "" {
		if t, err := time.Parse("2006-01-02", form.AuthorizationExpiry); err == nil {
			v.AuthorizationExpiry = &t
		}
	}
	if form.RegistrationExpiry != "" {
		if t, err := time.Parse("2006-01-02", form.RegistrationExpiry); err == nil {
			v.RegistrationExpiry = &t
		}
	}
	if form.InspectionExpiry != "" {
		if t, err := time.Parse("2006-01-02", form.InspectionExpiry); err == nil {
			v.InspectionExpiry = &t
		}
	}
}
