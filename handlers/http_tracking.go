package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"p9e.in/nuzum/models"
	"p9e.in/nuzum/utils"
)

// IngestLocation appends one location sample for an employee.
func IngestLocation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EmployeeID string           `json:"employeeId"`
		Latitude   float64          `json:"latitude"`
		Longitude  float64          `json:"longitude"`
		AccuracyM  float64          `json:"accuracy"`
		SpeedKmh   float64          `json:"speed"`
		RecordedAt *models.JSONTime `json:"recordedAt"`
		VehicleID  string           `json:"vehicleId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	employeeID, err := uuid.Parse(body.EmployeeID)
	if err != nil {
		http.Error(w, "invalid employee id", http.StatusBadRequest)
		return
	}

	sample := LocationSample{
		EmployeeID: employeeID,
		Latitude:   body.Latitude,
		Longitude:  body.Longitude,
		AccuracyM:  body.AccuracyM,
		SpeedKmh:   body.SpeedKmh,
	}
	if body.RecordedAt != nil {
		sample.RecordedAt = time.Time(*body.RecordedAt).UTC()
	}
	if body.VehicleID != "" {
		if vid, err := uuid.Parse(body.VehicleID); err == nil {
			sample.VehicleID = &vid
		}
	}

	writeResult(w, tracking.Ingest(sample))
}

// TrackingDashboard returns per-employee presence and geofence occupancy.
func TrackingDashboard(w http.ResponseWriter, r *http.Request) {
	payload, err := tracking.Dashboard(time.Now().UTC())
	if err != nil {
		http.Error(w, "failed to load tracking dashboard", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// EmployeeTrail returns the most recent samples for one employee.
func EmployeeTrail(w http.ResponseWriter, r *http.Request) {
	employeeID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid employee id", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	trail, err := tracking.EmployeeTrail(employeeID, limit)
	if err != nil {
		http.Error(w, "failed to load trail", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, trail)
}

// ListGeofences returns all fences, active ones first.
func ListGeofences(w http.ResponseWriter, r *http.Request) {
	var fences []models.Geofence
	if err := database.Order("is_active desc, name asc").Find(&fences).Error; err != nil {
		http.Error(w, "failed to load geofences", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, fences)
}

// CreateGeofence creates one circular fence.
func CreateGeofence(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name      string  `json:"name"`
		CenterLat float64 `json:"centerLat"`
		CenterLng float64 `json:"centerLng"`
		RadiusM   float64 `json:"radiusM"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateCoordinate(utils.Coordinate{Lat: body.CenterLat, Lng: body.CenterLng}); err != nil {
		http.Error(w, "invalid center coordinate", http.StatusBadRequest)
		return
	}
	if body.RadiusM <= 0 {
		body.RadiusM = DefaultImportRadiusM
	}

	fence := models.Geofence{
		Name:      body.Name,
		CenterLat: body.CenterLat,
		CenterLng: body.CenterLng,
		RadiusM:   body.RadiusM,
		IsActive:  true,
	}
	if err := database.Create(&fence).Error; err != nil {
		http.Error(w, "failed to create geofence", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, fence)
}

// UpdateGeofence edits name, center, radius or active flag.
func UpdateGeofence(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid geofence id", http.StatusBadRequest)
		return
	}
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	updates := map[string]interface{}{}
	if v, ok := body["name"].(string); ok && v != "" {
		updates["name"] = v
	}
	if v, ok := body["centerLat"].(float64); ok {
		updates["center_lat"] = v
	}
	if v, ok := body["centerLng"].(float64); ok {
		updates["center_lng"] = v
	}
	if v, ok := body["radiusM"].(float64); ok && v > 0 {
		updates["radius_m"] = v
	}
	if v, ok := body["isActive"].(bool); ok {
		updates["is_active"] = v
	}
	if len(updates) == 0 {
		http.Error(w, "nothing to update", http.StatusBadRequest)
		return
	}

	result := database.Model(&models.Geofence{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		http.Error(w, "failed to update geofence", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "geofence not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// DeleteGeofence soft-deletes a fence.
func DeleteGeofence(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid geofence id", http.StatusBadRequest)
		return
	}
	result := database.Delete(&models.Geofence{}, "id = ?", id)
	if result.Error != nil {
		http.Error(w, "failed to delete geofence", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "geofence not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ImportGeofences accepts a KMZ/KML upload. With ?preview=true the parsed
// fences are returned as GeoJSON without persisting anything.
func ImportGeofences(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(utils.MaxUploadBytes); err != nil {
		http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, utils.MaxUploadBytes))
	if err != nil {
		http.Error(w, "failed to read file", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("preview") == "true" {
		fences, err := importer.Parse(data)
		if err != nil {
			http.Error(w, "failed to parse archive: "+err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"fences":   fences,
			"features": AsFeatureCollection(fences),
		})
		return
	}

	created, err := importer.Import(data)
	if err != nil {
		http.Error(w, "failed to import archive: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"created": created,
		"count":   len(created),
	})
}
