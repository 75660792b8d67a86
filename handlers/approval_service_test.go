package handlers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"p9e.in/nuzum/models"
)

func TestApprovalDecisionLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(db)

	vehicle := seedVehicle(t, db, "هـ و ي 6060")
	requester := seedUser(t, db, "req-user", "supervisor", true)
	admin := seedUser(t, db, "req-admin", "admin", true)

	recordID := uuid.New()
	request, err := svc.CreateRequest(models.OperationWorkshopRecord, recordID, vehicle.ID,
		requester.ID, "طلب اعتماد صيانة", "", "")
	require.NoError(t, err)
	require.Equal(t, models.OperationPending, request.Status)
	require.Equal(t, "normal", request.Priority)

	// The admin fan-out happened on creation.
	var adminInbox int64
	require.NoError(t, db.Model(&models.OperationNotification{}).
		Where("user_id = ?", admin.ID).Count(&adminInbox).Error)
	require.Equal(t, int64(1), adminInbox)

	// A second request for the same record reuses the live one.
	again, err := svc.CreateRequest(models.OperationWorkshopRecord, recordID, vehicle.ID,
		requester.ID, "مكرر", "", "high")
	require.NoError(t, err)
	require.Equal(t, request.ID, again.ID)

	res := svc.MarkUnderReview(request.ID, admin.ID)
	require.True(t, res.OK, res.Message)

	res = svc.Approve(request.ID, admin.ID, "مطابق")
	require.True(t, res.OK, res.Message)

	// Repeating the decision reports no change.
	res = svc.Approve(request.ID, admin.ID, "")
	require.True(t, res.OK)
	payload := res.Payload.(map[string]interface{})
	require.Equal(t, false, payload["changed"])

	// A terminal request cannot flip.
	res = svc.Reject(request.ID, admin.ID, "")
	require.False(t, res.OK)
	require.Equal(t, FailConflict, res.Kind)
	require.Equal(t, "تم البت في هذا الطلب مسبقاً", res.Message)

	// Once decided, a fresh request for the same record may open.
	fresh, err := svc.CreateRequest(models.OperationWorkshopRecord, recordID, vehicle.ID,
		requester.ID, "طلب جديد", "", "")
	require.NoError(t, err)
	require.NotEqual(t, request.ID, fresh.ID)
}

func TestListPendingFiltersAndOrders(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(db)

	vehicle := seedVehicle(t, db, "هـ و ي 7070")
	requester := seedUser(t, db, "req-user2", "supervisor", true)

	low, err := svc.CreateRequest(models.OperationHandover, uuid.New(), vehicle.ID, requester.ID, "منخفض", "", "low")
	require.NoError(t, err)
	critical, err := svc.CreateRequest(models.OperationHandover, uuid.New(), vehicle.ID, requester.ID, "حرج", "", "critical")
	require.NoError(t, err)
	_, err = svc.CreateRequest(models.OperationAccident, uuid.New(), vehicle.ID, requester.ID, "حادث", "", "high")
	require.NoError(t, err)

	pending, err := svc.ListPending(models.OperationHandover, nil)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, critical.ID, pending[0].ID)
	require.Equal(t, low.ID, pending[1].ID)

	all, err := svc.ListPending("", nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
}
