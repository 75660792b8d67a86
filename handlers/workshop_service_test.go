package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"p9e.in/nuzum/models"
	"p9e.in/nuzum/pkg/fleet"
)

func TestSendToWorkshopBlocksDoubleEntry(t *testing.T) {
	db := newTestDB(t)
	svc := NewWorkshopService(db, NewLocalBlobStore(t.TempDir()), nil)

	vehicle := seedVehicle(t, db, "م ن س 1111")
	admin := seedUser(t, db, "workshop-admin", "admin", true)

	res := svc.SendToWorkshop(vehicle.ID, WorkshopForm{
		Description:    "تبديل زيت وفلاتر",
		TechnicianName: "فهد",
		WorkshopName:   "ورشة المجدوعي",
	}, nil, admin.ID)
	require.True(t, res.OK, res.Message)

	var fresh models.Vehicle
	require.NoError(t, db.First(&fresh, "id = ?", vehicle.ID).Error)
	require.Equal(t, fleet.StatusInWorkshop, fresh.Status)

	res = svc.SendToWorkshop(vehicle.ID, WorkshopForm{
		Description:    "عطل آخر",
		TechnicianName: "سالم",
	}, nil, admin.ID)
	require.False(t, res.OK)
	require.Equal(t, "المركبة موجودة بالفعل في الورشة", res.Message)

	// The open-record check holds even when the status column drifted.
	require.NoError(t, db.Model(&models.Vehicle{}).
		Where("id = ?", vehicle.ID).
		Update("status", fleet.StatusAvailable).Error)
	res = svc.SendToWorkshop(vehicle.ID, WorkshopForm{
		Description:    "عطل آخر",
		TechnicianName: "سالم",
	}, nil, admin.ID)
	require.False(t, res.OK)
	require.Equal(t, "المركبة موجودة بالفعل في الورشة", res.Message)
}

func TestReceiveFromWorkshopRequiresReport(t *testing.T) {
	db := newTestDB(t)
	svc := NewWorkshopService(db, NewLocalBlobStore(t.TempDir()), nil)

	vehicle := seedVehicle(t, db, "م ن س 2222")
	admin := seedUser(t, db, "workshop-admin2", "admin", true)

	res := svc.SendToWorkshop(vehicle.ID, WorkshopForm{
		Description:    "صيانة دورية",
		TechnicianName: "ماجد",
	}, nil, admin.ID)
	require.True(t, res.OK, res.Message)
	record := res.Payload.(models.VehicleWorkshop)

	res = svc.ReceiveFromWorkshop(vehicle.ID, record.ID, WorkshopForm{
		ReceivedStatus: "received_from_workshop",
	}, FileUpload{}, admin.ID)
	require.False(t, res.OK)
	require.Equal(t, "تقرير الاستلام مطلوب", res.Message)

	res = svc.ReceiveFromWorkshop(vehicle.ID, record.ID, WorkshopForm{
		ReceivedStatus: "something_else",
	}, FileUpload{Name: "report.pdf", Data: []byte("report")}, admin.ID)
	require.False(t, res.OK)
	require.Equal(t, FailValidation, res.Kind)

	res = svc.ReceiveFromWorkshop(vehicle.ID, record.ID, WorkshopForm{
		ReceivedStatus: "received_from_workshop",
		Cost:           850,
	}, FileUpload{Name: "report.pdf", Data: []byte("report")}, admin.ID)
	require.True(t, res.OK, res.Message)
	closed := res.Payload.(models.VehicleWorkshop)
	require.NotNil(t, closed.ExitDate)
	require.Equal(t, models.RepairCompleted, closed.RepairStatus)
	require.NotNil(t, closed.PickupReceiptKey)
	require.Equal(t, 850.0, closed.Cost)

	var fresh models.Vehicle
	require.NoError(t, db.First(&fresh, "id = ?", vehicle.ID).Error)
	require.Equal(t, fleet.StatusAvailable, fresh.Status)

	// Closing twice is rejected.
	res = svc.ReceiveFromWorkshop(vehicle.ID, record.ID, WorkshopForm{
		ReceivedStatus: "received",
	}, FileUpload{Name: "r.pdf", Data: []byte("x")}, admin.ID)
	require.False(t, res.OK)
	require.Equal(t, FailIneligibleState, res.Kind)
}

func TestUpdateWorkshopRecordTogglesState(t *testing.T) {
	db := newTestDB(t)
	svc := NewWorkshopService(db, NewLocalBlobStore(t.TempDir()), nil)

	vehicle := seedVehicle(t, db, "م ن س 3333")
	admin := seedUser(t, db, "workshop-admin3", "admin", true)

	res := svc.SendToWorkshop(vehicle.ID, WorkshopForm{
		Description:    "إصلاح مكيف",
		TechnicianName: "ناصر",
	}, nil, admin.ID)
	require.True(t, res.OK, res.Message)
	record := res.Payload.(models.VehicleWorkshop)

	// Setting an exit date through the editor releases the vehicle.
	res = svc.UpdateWorkshopRecord(record.ID, map[string]interface{}{
		"exit_date": "2026-08-20",
	}, admin.ID)
	require.True(t, res.OK, res.Message)

	var fresh models.Vehicle
	require.NoError(t, db.First(&fresh, "id = ?", vehicle.ID).Error)
	require.Equal(t, fleet.StatusAvailable, fresh.Status)

	// Clearing it pulls the vehicle back in.
	res = svc.UpdateWorkshopRecord(record.ID, map[string]interface{}{
		"exit_date": nil,
	}, admin.ID)
	require.True(t, res.OK, res.Message)

	require.NoError(t, db.First(&fresh, "id = ?", vehicle.ID).Error)
	require.Equal(t, fleet.StatusInWorkshop, fresh.Status)
}
