package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"p9e.in/nuzum/models"
	"p9e.in/nuzum/pkg/fleet"
)

func TestHandoverApprovalGate(t *testing.T) {
	db := newTestDB(t)
	svc := NewHandoverService(db, nil, nil)
	approvals := NewApprovalService(db)

	vehicle := seedVehicle(t, db, "أ ب ج 1234")
	admin := seedUser(t, db, "admin", "admin", true)

	res := svc.CreateHandover(vehicle.ID, HandoverForm{
		Type:    "delivery",
		Driver:  "أحمد السالم",
		Mileage: 12000,
	}, admin.ID)
	require.True(t, res.OK, res.Message)
	delivery := res.Payload.(models.VehicleHandover)
	require.Equal(t, fleet.HandoverDelivery, delivery.Type)
	require.Equal(t, "أحمد السالم", delivery.PersonName)
	require.Equal(t, vehicle.PlateNumber, delivery.PlateNumber)

	// An unapproved handover is not official: the vehicle stays not handed
	// out and carries no current driver.
	ctx, err := svc.ReadContext(db, vehicle.ID)
	require.NoError(t, err)
	require.False(t, ctx.CurrentlyHandedOut())

	var fresh models.Vehicle
	require.NoError(t, db.First(&fresh, "id = ?", vehicle.ID).Error)
	require.Nil(t, fresh.DriverName)

	var request models.OperationRequest
	require.NoError(t, db.First(&request,
		"operation_type = ? AND related_record_id = ?", models.OperationHandover, delivery.ID).Error)
	require.Equal(t, models.OperationPending, request.Status)

	decision := approvals.Approve(request.ID, admin.ID, "تم التحقق")
	require.True(t, decision.OK, decision.Message)

	ctx, err = svc.ReadContext(db, vehicle.ID)
	require.NoError(t, err)
	require.True(t, ctx.CurrentlyHandedOut())

	require.NoError(t, db.First(&fresh, "id = ?", vehicle.ID).Error)
	require.NotNil(t, fresh.DriverName)
	require.Equal(t, "أحمد السالم", *fresh.DriverName)
}

func TestHandoverForcesModeByContext(t *testing.T) {
	db := newTestDB(t)
	svc := NewHandoverService(db, nil, nil)
	approvals := NewApprovalService(db)

	vehicle := seedVehicle(t, db, "د هـ و 5678")
	admin := seedUser(t, db, "admin2", "admin", true)

	// No official delivery yet: a return is rejected.
	res := svc.CreateHandover(vehicle.ID, HandoverForm{Type: "return", Driver: "خالد"}, admin.ID)
	require.False(t, res.OK)
	require.Equal(t, FailIneligibleState, res.Kind)

	res = svc.CreateHandover(vehicle.ID, HandoverForm{Type: "delivery", Driver: "خالد"}, admin.ID)
	require.True(t, res.OK, res.Message)
	delivery := res.Payload.(models.VehicleHandover)

	var request models.OperationRequest
	require.NoError(t, db.First(&request,
		"operation_type = ? AND related_record_id = ?", models.OperationHandover, delivery.ID).Error)
	require.True(t, approvals.Approve(request.ID, admin.ID, "").OK)

	// Handed-out vehicle only accepts a return.
	res = svc.CreateHandover(vehicle.ID, HandoverForm{Type: "delivery", Driver: "سعد"}, admin.ID)
	require.False(t, res.OK)
	require.Equal(t, FailIneligibleState, res.Kind)

	res = svc.CreateHandover(vehicle.ID, HandoverForm{Type: "return", Driver: "خالد", Mileage: 12500}, admin.ID)
	require.True(t, res.OK, res.Message)
	ret := res.Payload.(models.VehicleHandover)

	// The return is pending, so the official view still shows handed out.
	ctx, err := svc.ReadContext(db, vehicle.ID)
	require.NoError(t, err)
	require.True(t, ctx.CurrentlyHandedOut())

	var returnRequest models.OperationRequest
	require.NoError(t, db.First(&returnRequest,
		"operation_type = ? AND related_record_id = ?", models.OperationHandover, ret.ID).Error)
	require.True(t, approvals.Approve(returnRequest.ID, admin.ID, "").OK)

	ctx, err = svc.ReadContext(db, vehicle.ID)
	require.NoError(t, err)
	require.False(t, ctx.CurrentlyHandedOut())

	var fresh models.Vehicle
	require.NoError(t, db.First(&fresh, "id = ?", vehicle.ID).Error)
	require.Nil(t, fresh.DriverName)
}

func TestHandoverResolvesEmployeeByNumber(t *testing.T) {
	db := newTestDB(t)
	svc := NewHandoverService(db, nil, nil)

	vehicle := seedVehicle(t, db, "ز ح ط 9012")
	admin := seedUser(t, db, "admin3", "admin", true)
	employee := seedEmployee(t, db, "EMP-100", "فهد العتيبي")

	res := svc.CreateHandover(vehicle.ID, HandoverForm{Type: "delivery", Driver: "EMP-100"}, admin.ID)
	require.True(t, res.OK, res.Message)
	handover := res.Payload.(models.VehicleHandover)
	require.NotNil(t, handover.EmployeeID)
	require.Equal(t, employee.ID, *handover.EmployeeID)
	require.Equal(t, "فهد العتيبي", handover.PersonName)
}

func TestHandoverRejectsMissingDriver(t *testing.T) {
	db := newTestDB(t)
	svc := NewHandoverService(db, nil, nil)

	vehicle := seedVehicle(t, db, "ي ك ل 3456")
	admin := seedUser(t, db, "admin4", "admin", true)

	res := svc.CreateHandover(vehicle.ID, HandoverForm{Type: "delivery"}, admin.ID)
	require.False(t, res.OK)
	require.Equal(t, FailValidation, res.Kind)

	res = svc.CreateHandover(vehicle.ID, HandoverForm{Type: "handover?", Driver: "x"}, admin.ID)
	require.False(t, res.OK)
	require.Equal(t, FailValidation, res.Kind)
}

func TestReadContextDefaultsToServiceConnection(t *testing.T) {
	db := newTestDB(t)
	svc := NewHandoverService(db, nil, nil)
	approvals := NewApprovalService(db)

	vehicle := seedVehicle(t, db, "م ن س 7890")
	admin := seedUser(t, db, "admin5", "admin", true)

	// A nil tx falls back to the service's own connection.
	ctx, err := svc.ReadContext(nil, vehicle.ID)
	require.NoError(t, err)
	require.False(t, ctx.CurrentlyHandedOut())

	res := svc.CreateHandover(vehicle.ID, HandoverForm{Type: "delivery", Driver: "ماجد"}, admin.ID)
	require.True(t, res.OK, res.Message)
	delivery := res.Payload.(models.VehicleHandover)

	var request models.OperationRequest
	require.NoError(t, db.First(&request,
		"operation_type = ? AND related_record_id = ?", models.OperationHandover, delivery.ID).Error)
	require.True(t, approvals.Approve(request.ID, admin.ID, "").OK)

	ctx, err = svc.ReadContext(nil, vehicle.ID)
	require.NoError(t, err)
	require.True(t, ctx.CurrentlyHandedOut())
}
