package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"p9e.in/nuzum/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20250110_create_core_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&models.User{}, &models.Department{}, &models.Employee{},
					&models.Vehicle{}, &models.VehicleRental{},
					&models.VehicleHandover{}, &models.VehicleHandoverImage{},
					&models.VehicleWorkshop{},
					&models.VehicleAccident{}, &models.VehicleAccidentImage{},
					&models.VehiclePeriodicInspection{}, &models.VehicleSafetyCheck{},
					&models.VehicleExternalSafetyCheck{},
					&models.ExternalAuthorization{},
					&models.OperationRequest{}, &models.OperationNotification{},
					&models.AuditLog{},
				)
			},
		},
		{
			ID: "20250110_create_tracking_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&models.Geofence{}, &models.EmployeeLocation{},
					&models.GeofenceEvent{}, &models.GeofenceSession{},
				)
			},
		},
		{
			// One open workshop visit per vehicle, enforced at the index level
			// on top of the in-transaction check.
			ID: "20250111_workshop_single_open_index",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec(
					`CREATE UNIQUE INDEX IF NOT EXISTS uniq_vehicle_open_workshop
					 ON vehicle_workshops (vehicle_id)
					 WHERE exit_date IS NULL AND deleted_at IS NULL`,
				).Error
			},
		},
		{
			// One live approval request per (operation_type, related_record_id).
			ID: "20250111_operation_request_live_index",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec(
					`CREATE UNIQUE INDEX IF NOT EXISTS uniq_live_operation_request
					 ON operation_requests (operation_type, related_record_id)
					 WHERE status IN ('pending', 'under_review') AND deleted_at IS NULL`,
				).Error
			},
		},
		{
			// Exactly one driver binding on an external authorization.
			ID: "20250111_authorization_driver_binding_check",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec(
					`ALTER TABLE external_authorizations
					 ADD CONSTRAINT chk_authorization_driver_binding
					 CHECK ((employee_id IS NULL) <> (manual_driver_name IS NULL))`,
				).Error
			},
		},
	})

	return m.Migrate()
}
