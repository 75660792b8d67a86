package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"p9e.in/nuzum/middleware"
	"p9e.in/nuzum/models"
)

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}

func actorID(r *http.Request) uuid.UUID {
	id, err := uuid.Parse(middleware.GetUserID(r))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// ListVehicles renders the vehicle-list payload with the user's scope applied.
func ListVehicles(w http.ResponseWriter, r *http.Request) {
	params := models.ParseListParams(r, "status", "type", "region")
	scope := middleware.DepartmentScope(r)

	payload, err := views.ListPayload(params, scope)
	if err != nil {
		http.Error(w, "failed to load vehicles", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// GetVehicle renders the full vehicle detail payload.
func GetVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid vehicle id", http.StatusBadRequest)
		return
	}
	payload, result := views.DetailPayload(id)
	if !result.OK {
		writeResult(w, result)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// CreateVehicle registers a new vehicle.
func CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var form VehicleForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeResult(w, vehicles.CreateVehicle(form, actorID(r)))
}

// UpdateVehicle edits vehicle attributes.
func UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid vehicle id", http.StatusBadRequest)
		return
	}
	var form VehicleForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeResult(w, vehicles.UpdateVehicle(id, form, actorID(r)))
}

// ChangeVehicleStatus submits a state-machine transition.
func ChangeVehicleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid vehicle id", http.StatusBadRequest)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeResult(w, vehicles.ApplyTransition(id, body.Status, actorID(r)))
}

// DeleteVehicle destroys a vehicle after the confirm-word gate.
func DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid vehicle id", http.StatusBadRequest)
		return
	}
	var body struct {
		Confirm string `json:"confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeResult(w, vehicles.DeleteVehicle(id, body.Confirm, actorID(r)))
}

// Dashboard renders the landing-page summary.
func Dashboard(w http.ResponseWriter, r *http.Request) {
	payload, err := views.DashboardPayload()
	if err != nil {
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// ExportFleetExcel streams the fleet register workbook.
func ExportFleetExcel(w http.ResponseWriter, r *http.Request) {
	file, err := exporter.ToExcel()
	if err != nil {
		http.Error(w, "failed to generate export", http.StatusInternalServerError)
		return
	}
	buffer, err := file.WriteToBuffer()
	if err != nil {
		http.Error(w, "failed to write export", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", ExportFilename("xlsx")))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buffer.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buffer.Bytes())
}

// ExportFleetCSV streams the fleet register as CSV.
func ExportFleetCSV(w http.ResponseWriter, r *http.Request) {
	data, err := exporter.ToCSV()
	if err != nil {
		http.Error(w, "failed to generate export", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", ExportFilename("csv")))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
