package handlers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"p9e.in/nuzum/models"
	"p9e.in/nuzum/pkg/fleet"
)

func TestCreateVehicleRequiresPlate(t *testing.T) {
	db := newTestDB(t)
	svc := NewVehicleService(db)
	admin := seedUser(t, db, "veh-admin", "admin", true)

	res := svc.CreateVehicle(VehicleForm{Make: "Isuzu"}, admin.ID)
	require.False(t, res.OK)
	require.Equal(t, FailValidation, res.Kind)

	res = svc.CreateVehicle(VehicleForm{PlateNumber: "ت ث خ 8080", Make: "Isuzu", Model: "D-Max"}, admin.ID)
	require.True(t, res.OK, res.Message)
	created := res.Payload.(models.Vehicle)
	require.Equal(t, fleet.StatusAvailable, created.Status)

	// Duplicate plates are a conflict.
	res = svc.CreateVehicle(VehicleForm{PlateNumber: "ت ث خ 8080"}, admin.ID)
	require.False(t, res.OK)
	require.Equal(t, FailConflict, res.Kind)
}

func TestApplyTransitionDocumentUpdateIsTransient(t *testing.T) {
	db := newTestDB(t)
	svc := NewVehicleService(db)
	admin := seedUser(t, db, "veh-admin2", "admin", true)
	vehicle := seedVehicle(t, db, "ت ث خ 9090")

	res := svc.ApplyTransition(vehicle.ID, "document_update", admin.ID)
	require.True(t, res.OK, res.Message)

	// The transient state is audited but never persisted.
	var fresh models.Vehicle
	require.NoError(t, db.First(&fresh, "id = ?", vehicle.ID).Error)
	require.Equal(t, fleet.StatusAvailable, fresh.Status)

	var audits int64
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("entity_type = ? AND action = ?", "vehicle", "status_change").
		Count(&audits).Error)
	require.Equal(t, int64(1), audits)

	// Regular transitions persist.
	res = svc.ApplyTransition(vehicle.ID, "out_of_service", admin.ID)
	require.True(t, res.OK, res.Message)
	require.NoError(t, db.First(&fresh, "id = ?", vehicle.ID).Error)
	require.Equal(t, fleet.StatusOutOfService, fresh.Status)

	// document_update is only reachable from available-like states.
	res = svc.ApplyTransition(vehicle.ID, "document_update", admin.ID)
	require.False(t, res.OK)
	require.Equal(t, FailIneligibleState, res.Kind)
}

func TestDeleteVehicleConfirmationGate(t *testing.T) {
	db := newTestDB(t)
	svc := NewVehicleService(db)
	admin := seedUser(t, db, "veh-admin3", "admin", true)
	vehicle := seedVehicle(t, db, "غ ظ ذ 1212")

	res := svc.DeleteVehicle(vehicle.ID, "حذف", admin.ID)
	require.False(t, res.OK)
	require.Equal(t, FailValidation, res.Kind)
	require.Equal(t, fmt.Sprintf("للتأكيد اكتب رقم اللوحة %s كما هو", vehicle.PlateNumber), res.Message)

	// The vehicle and its dependents survive a failed confirmation.
	var count int64
	require.NoError(t, db.Model(&models.Vehicle{}).Where("id = ?", vehicle.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)

	res = svc.DeleteVehicle(vehicle.ID, vehicle.PlateNumber, admin.ID)
	require.True(t, res.OK, res.Message)
	require.NoError(t, db.Model(&models.Vehicle{}).Where("id = ?", vehicle.ID).Count(&count).Error)
	require.Equal(t, int64(0), count)
}

func TestDeleteVehicleCascades(t *testing.T) {
	db := newTestDB(t)
	vehicles := NewVehicleService(db)
	handoversSvc := NewHandoverService(db, nil, nil)
	admin := seedUser(t, db, "veh-admin4", "admin", true)
	vehicle := seedVehicle(t, db, "غ ظ ذ 3434")

	res := handoversSvc.CreateHandover(vehicle.ID, HandoverForm{Type: "delivery", Driver: "سامي"}, admin.ID)
	require.True(t, res.OK, res.Message)

	var requests int64
	require.NoError(t, db.Model(&models.OperationRequest{}).Where("vehicle_id = ?", vehicle.ID).Count(&requests).Error)
	require.Equal(t, int64(1), requests)

	res = vehicles.DeleteVehicle(vehicle.ID, vehicle.PlateNumber, admin.ID)
	require.True(t, res.OK, res.Message)

	var leftovers int64
	require.NoError(t, db.Model(&models.VehicleHandover{}).Where("vehicle_id = ?", vehicle.ID).Count(&leftovers).Error)
	require.Equal(t, int64(0), leftovers)
	require.NoError(t, db.Model(&models.OperationRequest{}).Where("vehicle_id = ?", vehicle.ID).Count(&leftovers).Error)
	require.Equal(t, int64(0), leftovers)
}
