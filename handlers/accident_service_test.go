package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"p9e.in/nuzum/models"
	"p9e.in/nuzum/pkg/fleet"
)

func TestRegisterAccidentRoutesVehicleAndNotifies(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccidentService(db, nil, nil)

	vehicle := seedVehicle(t, db, "ص ع ف 4444")
	reporter := seedUser(t, db, "reporter", "driver", true)
	seedUser(t, db, "supervisor-a", "supervisor", true)
	seedUser(t, db, "former-employee", "supervisor", false)

	res := svc.RegisterAccident(vehicle.ID, AccidentForm{
		DriverName:  "عبدالله القحطاني",
		Severity:    "severe",
		Description: "اصطدام خلفي على الطريق الدائري",
	}, true, reporter.ID)
	require.True(t, res.OK, res.Message)
	accident := res.Payload.(models.VehicleAccident)
	require.Equal(t, models.ReviewPending, accident.ReviewStatus)

	// requires_repair routes the vehicle straight into the workshop state.
	var fresh models.Vehicle
	require.NoError(t, db.First(&fresh, "id = ?", vehicle.ID).Error)
	require.Equal(t, fleet.StatusInWorkshop, fresh.Status)

	var request models.OperationRequest
	require.NoError(t, db.First(&request,
		"operation_type = ? AND related_record_id = ?", models.OperationAccident, accident.ID).Error)
	require.Equal(t, "high", request.Priority)

	// Every active account gets an inbox row; the inactive one does not.
	var inbox []models.OperationNotification
	require.NoError(t, db.Where("operation_request_id = ?", request.ID).Find(&inbox).Error)
	require.Len(t, inbox, 2)
	for _, n := range inbox {
		require.Equal(t, "high", n.Priority)
	}
}

func TestRegisterAccidentWithoutRepairUsesAccidentState(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccidentService(db, nil, nil)

	vehicle := seedVehicle(t, db, "ص ع ف 5555")
	reporter := seedUser(t, db, "reporter2", "driver", true)

	res := svc.RegisterAccident(vehicle.ID, AccidentForm{
		DriverName: "حسن",
		Severity:   "minor",
	}, false, reporter.ID)
	require.True(t, res.OK, res.Message)

	var fresh models.Vehicle
	require.NoError(t, db.First(&fresh, "id = ?", vehicle.ID).Error)
	require.Equal(t, fleet.StatusAccident, fresh.Status)
}

func TestRegisterAccidentValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccidentService(db, nil, nil)

	vehicle := seedVehicle(t, db, "ص ع ف 6666")
	reporter := seedUser(t, db, "reporter3", "driver", true)

	res := svc.RegisterAccident(vehicle.ID, AccidentForm{Severity: "minor"}, false, reporter.ID)
	require.False(t, res.OK)
	require.Equal(t, FailValidation, res.Kind)

	res = svc.RegisterAccident(vehicle.ID, AccidentForm{DriverName: "حسن", Severity: "catastrophic"}, false, reporter.ID)
	require.False(t, res.OK)
	require.Equal(t, FailValidation, res.Kind)

	bad := 123.0
	res = svc.RegisterAccident(vehicle.ID, AccidentForm{
		DriverName: "حسن", Severity: "minor",
		Latitude: &bad, Longitude: &bad,
	}, false, reporter.ID)
	require.False(t, res.OK)
	require.Equal(t, FailValidation, res.Kind)

	res = svc.RegisterAccident(vehicle.ID, AccidentForm{
		DriverName: "حسن", Severity: "minor", LiabilityPercentage: 250,
	}, false, reporter.ID)
	require.False(t, res.OK)
	require.Equal(t, FailValidation, res.Kind)
	require.Equal(t, "نسبة التحمل يجب أن تكون بين 0 و 100", res.Message)
}

func TestAccidentReviewWorkflow(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccidentService(db, nil, nil)

	vehicle := seedVehicle(t, db, "ص ع ف 7777")
	reporter := seedUser(t, db, "reporter4", "driver", true)
	admin := seedUser(t, db, "reviewer", "admin", true)

	res := svc.RegisterAccident(vehicle.ID, AccidentForm{
		DriverName: "حسن", Severity: "moderate",
	}, false, reporter.ID)
	require.True(t, res.OK, res.Message)
	accident := res.Payload.(models.VehicleAccident)

	outOfRange := -5.0
	res = svc.ApproveAccident(accident.ID, admin.ID, ReviewDecision{LiabilityPercentage: &outOfRange})
	require.False(t, res.OK)
	require.Equal(t, FailValidation, res.Kind)

	liability := 40.0
	res = svc.ApproveAccident(accident.ID, admin.ID, ReviewDecision{LiabilityPercentage: &liability})
	require.True(t, res.OK, res.Message)

	approved, err := svc.ApprovedAccidents(vehicle.ID)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	require.Equal(t, 40.0, approved[0].LiabilityPercentage)

	// Flipping a decided report is rejected; repeating it is a no-op.
	res = svc.RejectAccident(accident.ID, admin.ID, ReviewDecision{})
	require.False(t, res.OK)
	require.Equal(t, FailConflict, res.Kind)

	res = svc.ApproveAccident(accident.ID, admin.ID, ReviewDecision{})
	require.True(t, res.OK)
}

func TestPriorityForSeverity(t *testing.T) {
	tests := []struct {
		severity models.AccidentSeverity
		priority string
	}{
		{models.SeverityMinor, "low"},
		{models.SeverityModerate, "normal"},
		{models.SeveritySevere, "high"},
		{models.SeverityCritical, "critical"},
		{models.AccidentSeverity("unknown"), "normal"},
	}
	for _, tt := range tests {
		if got := PriorityForSeverity(tt.severity); got != tt.priority {
			t.Errorf("PriorityForSeverity(%s) = %s, expected %s", tt.severity, got, tt.priority)
		}
	}
}
