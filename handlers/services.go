package handlers

import (
	"gorm.io/gorm"
)

// Package-level service singletons, wired once at startup. The thin HTTP
// handlers below read these; tests construct services directly instead.
var (
	database *gorm.DB
	store    BlobStore
	uploader *CloudUploader

	vehicles       *VehicleService
	handovers      *HandoverService
	workshops      *WorkshopService
	accidents      *AccidentService
	authorizations *AuthorizationService
	inspections    *InspectionService
	approvals      *ApprovalService
	notifications  *NotificationService
	tracking       *TrackingService
	views          *VehicleQueryService
	exporter       *FleetExporter
	importer       *GeofenceImporter
)

// InitServices builds the service graph over the shared connection.
func InitServices(db *gorm.DB, blobs BlobStore, cloud *CloudUploader) {
	database = db
	store = blobs
	uploader = cloud

	vehicles = NewVehicleService(db)
	handovers = NewHandoverService(db, blobs, cloud)
	workshops = NewWorkshopService(db, blobs, cloud)
	accidents = NewAccidentService(db, blobs, cloud)
	authorizations = NewAuthorizationService(db, blobs)
	inspections = NewInspectionService(db, blobs)
	approvals = NewApprovalService(db)
	notifications = NewNotificationService(db)
	tracking = NewTrackingService(db)
	views = NewVehicleQueryService(db, blobs, cloud)
	exporter = NewFleetExporter(db)
	importer = NewGeofenceImporter(db)
}
