package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"p9e.in/nuzum/models"
)

func TestCreateAuthorizationDriverBinding(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthorizationService(db, nil)

	vehicle := seedVehicle(t, db, "ق ر ش 1010")
	admin := seedUser(t, db, "auth-admin", "admin", true)
	employee := seedEmployee(t, db, "EMP-200", "ماجد الدوسري")

	// Employee binding
	res := svc.CreateAuthorization(vehicle.ID, AuthorizationForm{
		EmployeeNumber:    "EMP-200",
		AuthorizationType: "سفر خارج المدينة",
		City:              "الدمام",
	}, admin.ID)
	require.True(t, res.OK, res.Message)
	auth := res.Payload.(models.ExternalAuthorization)
	require.Equal(t, models.AuthorizationPending, auth.Status)
	require.NotNil(t, auth.EmployeeID)
	require.Equal(t, employee.ID, *auth.EmployeeID)

	// Manual binding
	form := AuthorizationForm{AuthorizationType: "مهمة عمل"}
	form.ManualDriver.Name = "سائق متعاقد"
	res = svc.CreateAuthorization(vehicle.ID, form, admin.ID)
	require.True(t, res.OK, res.Message)

	// Neither binding is a validation failure.
	res = svc.CreateAuthorization(vehicle.ID, AuthorizationForm{AuthorizationType: "مهمة"}, admin.ID)
	require.False(t, res.OK)
	require.Equal(t, FailValidation, res.Kind)

	// Unknown employee number does not silently fall back.
	res = svc.CreateAuthorization(vehicle.ID, AuthorizationForm{
		EmployeeNumber:    "EMP-999",
		AuthorizationType: "مهمة",
	}, admin.ID)
	require.False(t, res.OK)
	require.Equal(t, FailNotFound, res.Kind)
}

func TestDecideAuthorizationIdempotence(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthorizationService(db, nil)

	vehicle := seedVehicle(t, db, "ق ر ش 2020")
	admin := seedUser(t, db, "auth-admin2", "admin", true)

	form := AuthorizationForm{AuthorizationType: "مهمة عمل"}
	form.ManualDriver.Name = "سائق خارجي"
	res := svc.CreateAuthorization(vehicle.ID, form, admin.ID)
	require.True(t, res.OK, res.Message)
	auth := res.Payload.(models.ExternalAuthorization)

	res = svc.DecideAuthorization(auth.ID, admin.ID, true)
	require.True(t, res.OK, res.Message)
	decided := res.Payload.(models.ExternalAuthorization)
	require.Equal(t, models.AuthorizationApproved, decided.Status)
	require.NotNil(t, decided.ReviewedAt)

	// Repeating the same decision is a quiet success.
	res = svc.DecideAuthorization(auth.ID, admin.ID, true)
	require.True(t, res.OK)

	// Flipping a decided record is a conflict.
	res = svc.DecideAuthorization(auth.ID, admin.ID, false)
	require.False(t, res.OK)
	require.Equal(t, FailConflict, res.Kind)
	require.Equal(t, "تمت مراجعة التفويض بالفعل", res.Message)

	// Only approved records count as active.
	active, err := svc.ActiveAuthorizations(vehicle.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, auth.ID, active[0].ID)
}
