package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"p9e.in/nuzum/config"
	"p9e.in/nuzum/handlers"
	"p9e.in/nuzum/middleware"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(store handlers.BlobStore) http.Handler {
	r := mux.NewRouter()

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.HandleFunc("/login", handlers.Login).Methods("POST")
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(config.UploadRoot()))),
	)

	// =====================================================
	// Protected API Routes (require JWT authentication)
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.JWTMiddleware)

	api.HandleFunc("/profile", handlers.Me).Methods("GET")
	api.Handle("/files/upload",
		middleware.RequirePermission("handover:create", handlers.UploadFileHandler(store))).Methods("POST")

	registerVehicleRoutes(api)
	registerOperationRoutes(api)
	registerTrackingRoutes(api)
	registerEmployeeRoutes(api)
	registerNotificationRoutes(api)

	// =====================================================
	// Admin Routes (review workflow, imports, user management)
	// =====================================================
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(adminOnly)
	registerAdminRoutes(admin)

	return r
}

func adminOnly(next http.Handler) http.Handler {
	return middleware.RequireRole([]string{"admin"}, next)
}

func perm(required string, h http.HandlerFunc) http.Handler {
	return middleware.RequirePermission(required, h)
}

// registerVehicleRoutes covers the vehicle registry, dashboard and exports.
func registerVehicleRoutes(api *mux.Router) {
	api.Handle("/vehicles", perm("vehicle:read", handlers.ListVehicles)).Methods("GET")
	api.Handle("/vehicles", perm("vehicle:create", handlers.CreateVehicle)).Methods("POST")
	api.Handle("/vehicles/{id}", perm("vehicle:read", handlers.GetVehicle)).Methods("GET")
	api.Handle("/vehicles/{id}", perm("vehicle:update", handlers.UpdateVehicle)).Methods("PUT")
	api.Handle("/vehicles/{id}/status", perm("vehicle:update", handlers.ChangeVehicleStatus)).Methods("POST")
	api.Handle("/vehicles/{id}", perm("vehicle:delete", handlers.DeleteVehicle)).Methods("DELETE")

	api.Handle("/dashboard", perm("vehicle:read", handlers.Dashboard)).Methods("GET")
	api.Handle("/export/vehicles.xlsx", perm("export:read", handlers.ExportFleetExcel)).Methods("GET")
	api.Handle("/export/vehicles.csv", perm("export:read", handlers.ExportFleetCSV)).Methods("GET")
}

// registerOperationRoutes covers handovers, workshop visits, accidents,
// authorizations and inspections.
func registerOperationRoutes(api *mux.Router) {
	api.Handle("/vehicles/{id}/handovers", perm("handover:create", handlers.CreateHandover)).Methods("POST")
	api.Handle("/vehicles/{id}/handovers/context", perm("handover:read", handlers.GetHandoverContext)).Methods("GET")

	api.Handle("/vehicles/{id}/workshop", perm("workshop:create", handlers.SendToWorkshop)).Methods("POST")
	api.Handle("/vehicles/{id}/workshop/{maintenanceId}/receive",
		perm("workshop:update", handlers.ReceiveFromWorkshop)).Methods("POST")
	api.Handle("/workshop/{id}", perm("workshop:update", handlers.UpdateWorkshopRecord)).Methods("PUT")

	api.Handle("/vehicles/{id}/accidents", perm("accident:create", handlers.RegisterAccident)).Methods("POST")

	api.Handle("/vehicles/{id}/authorizations", perm("authorization:create", handlers.CreateAuthorization)).Methods("POST")
	api.Handle("/vehicles/{id}/inspections", perm("inspection:create", handlers.CreateInspection)).Methods("POST")
}

// registerTrackingRoutes covers location ingest, presence views and geofences.
func registerTrackingRoutes(api *mux.Router) {
	api.Handle("/tracking/locations", perm("tracking:create", handlers.IngestLocation)).Methods("POST")
	api.Handle("/tracking/dashboard", perm("tracking:read", handlers.TrackingDashboard)).Methods("GET")
	api.Handle("/tracking/employees/{id}/trail", perm("tracking:read", handlers.EmployeeTrail)).Methods("GET")

	api.Handle("/geofences", perm("tracking:read", handlers.ListGeofences)).Methods("GET")
	api.Handle("/geofences", perm("tracking:manage", handlers.CreateGeofence)).Methods("POST")
	api.Handle("/geofences/{id}", perm("tracking:manage", handlers.UpdateGeofence)).Methods("PUT")
	api.Handle("/geofences/{id}", perm("tracking:manage", handlers.DeleteGeofence)).Methods("DELETE")
}

// registerEmployeeRoutes covers the staff registry and departments.
func registerEmployeeRoutes(api *mux.Router) {
	api.Handle("/employees", perm("employee:read", handlers.ListEmployees)).Methods("GET")
	api.Handle("/employees/{id}", perm("employee:read", handlers.GetEmployee)).Methods("GET")
	api.Handle("/departments", perm("employee:read", handlers.ListDepartments)).Methods("GET")
}

// registerNotificationRoutes covers the caller's own inbox, so no extra
// permission beyond a valid token.
func registerNotificationRoutes(api *mux.Router) {
	api.HandleFunc("/notifications", handlers.GetNotifications).Methods("GET")
	api.HandleFunc("/notifications/{id}/read", handlers.MarkNotificationRead).Methods("POST")
	api.HandleFunc("/notifications/read-all", handlers.MarkAllNotificationsRead).Methods("POST")
}

// registerAdminRoutes registers the review workflow and management endpoints.
func registerAdminRoutes(admin *mux.Router) {
	// Account management
	admin.HandleFunc("/users", handlers.RegisterUser).Methods("POST")

	// Approval inbox
	admin.HandleFunc("/requests", handlers.ListPendingRequests).Methods("GET")
	admin.HandleFunc("/requests/{id}/decision", handlers.DecideRequest).Methods("POST")

	// Review workflows
	admin.HandleFunc("/accidents/{id}/review", handlers.ReviewAccident).Methods("POST")
	admin.HandleFunc("/authorizations/{id}/decision", handlers.DecideAuthorization).Methods("POST")
	admin.HandleFunc("/checks/{id}/decision", handlers.DecideExternalCheck).Methods("POST")

	// Staff management
	admin.HandleFunc("/employees", handlers.CreateEmployee).Methods("POST")
	admin.HandleFunc("/employees/{id}", handlers.UpdateEmployee).Methods("PUT")
	admin.HandleFunc("/employees/{id}", handlers.DeleteEmployee).Methods("DELETE")
	admin.HandleFunc("/departments", handlers.CreateDepartment).Methods("POST")

	// Geofence bulk import
	admin.HandleFunc("/geofences/import", handlers.ImportGeofences).Methods("POST")
}
