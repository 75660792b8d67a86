package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"p9e.in/nuzum/models"
	"p9e.in/nuzum/pkg/fleet"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Department{}, &models.Employee{},
		&models.Vehicle{}, &models.VehicleRental{},
		&models.VehicleHandover{}, &models.VehicleHandoverImage{},
		&models.VehicleWorkshop{},
		&models.VehicleAccident{}, &models.VehicleAccidentImage{},
		&models.ExternalAuthorization{},
		&models.VehiclePeriodicInspection{}, &models.VehicleSafetyCheck{}, &models.VehicleExternalSafetyCheck{},
		&models.OperationRequest{}, &models.OperationNotification{},
		&models.AuditLog{},
		&models.Geofence{}, &models.EmployeeLocation{}, &models.GeofenceEvent{}, &models.GeofenceSession{},
	))
	return db
}

func seedVehicle(t *testing.T, db *gorm.DB, plate string) models.Vehicle {
	t.Helper()
	v := models.Vehicle{
		PlateNumber: plate,
		Make:        "Toyota",
		Model:       "Hilux",
		Year:        2022,
		Type:        "pickup",
		Status:      fleet.StatusAvailable,
	}
	require.NoError(t, db.Create(&v).Error)
	return v
}

func seedUser(t *testing.T, db *gorm.DB, name, role string, active bool) models.User {
	t.Helper()
	u := models.User{
		Name:         name,
		Email:        name + "@nuzum.example",
		PasswordHash: "hash",
		Role:         role,
		IsActive:     active,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedEmployee(t *testing.T, db *gorm.DB, number, name string) models.Employee {
	t.Helper()
	e := models.Employee{EmployeeNumber: number, Name: name, IsActive: true}
	require.NoError(t, db.Create(&e).Error)
	return e
}
