package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"p9e.in/nuzum/models"
	"p9e.in/nuzum/utils"
)

// formUpload reads one named attachment off a multipart form: a file part
// when present, otherwise a base64 data URL submitted as a plain value.
func formUpload(r *http.Request, field string) FileUpload {
	if file, header, err := r.FormFile(field); err == nil {
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, utils.MaxUploadBytes))
		if err == nil {
			return FileUpload{Name: header.Filename, Data: data}
		}
	}
	if value := r.FormValue(field); strings.HasPrefix(value, "data:") {
		return FileUpload{DataURL: value}
	}
	return FileUpload{}
}

func formFloat(r *http.Request, field string) float64 {
	v, _ := strconv.ParseFloat(r.FormValue(field), 64)
	return v
}

func formInt(r *http.Request, field string) int {
	v, _ := strconv.Atoi(r.FormValue(field))
	return v
}

func formBool(r *http.Request, field string) bool {
	v := strings.ToLower(r.FormValue(field))
	return v == "true" || v == "1" || v == "on"
}

// CreateHandover accepts the delivery/return form for a vehicle.
func CreateHandover(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid vehicle id", http.StatusBadRequest)
		return
	}
	if err := r.ParseMultipartForm(utils.MaxUploadBytes); err != nil {
		http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	form := HandoverForm{
		Type:            r.FormValue("type"),
		Date:            r.FormValue("date"),
		Time:            r.FormValue("time"),
		Mileage:         formInt(r, "mileage"),
		FuelLevel:       r.FormValue("fuel_level"),
		Driver:          r.FormValue("driver"),
		Supervisor:      r.FormValue("supervisor"),
		MovementOfficer: r.FormValue("movement_officer"),
		ReasonForChange: r.FormValue("reason_for_change"),
		StatusSummary:   r.FormValue("status_summary"),
		FormLink:        r.FormValue("form_link"),
		FormLink2:       r.FormValue("form_link2"),

		Checklist: map[string]bool{},

		DamageDiagram:            formUpload(r, "damage_diagram"),
		DriverSignature:          formUpload(r, "driver_signature"),
		SupervisorSignature:      formUpload(r, "supervisor_signature"),
		MovementOfficerSignature: formUpload(r, "movement_officer_signature"),
		CustomLogo:               formUpload(r, "custom_logo"),
	}
	for _, item := range []string{
		"spare_tyre", "fire_extinguisher", "first_aid_kit", "warning_triangle", "tools",
		"oil_leaks", "gear_issue", "clutch_issue", "engine_issue", "windows_issue",
		"tyre_issue", "body_issue", "electricity_issue", "lights_issue", "ac_issue",
	} {
		form.Checklist[item] = formBool(r, item)
	}

	if r.MultipartForm != nil {
		descriptions := r.MultipartForm.Value["attachment_descriptions"]
		for i, header := range r.MultipartForm.File["attachments"] {
			file, err := header.Open()
			if err != nil {
				continue
			}
			data, err := io.ReadAll(io.LimitReader(file, utils.MaxUploadBytes))
			file.Close()
			if err != nil {
				continue
			}
			attachment := struct {
				File        FileUpload
				Description string
			}{File: FileUpload{Name: header.Filename, Data: data}}
			if i < len(descriptions) {
				attachment.Description = descriptions[i]
			}
			form.Attachments = append(form.Attachments, attachment)
		}
	}

	writeResult(w, handovers.CreateHandover(vehicleID, form, actorID(r)))
}

// GetHandoverContext reports whether a vehicle is currently handed out and
// which handover type the next submission must use.
func GetHandoverContext(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid vehicle id", http.StatusBadRequest)
		return
	}
	ctx, err := handovers.ReadContext(nil, vehicleID)
	if err != nil {
		http.Error(w, "failed to load handover context", http.StatusInternalServerError)
		return
	}

	next := "delivery"
	if ctx.CurrentlyHandedOut() {
		next = "return"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"currently_handed_out":     ctx.CurrentlyHandedOut(),
		"next_type":                next,
		"latest_official_delivery": ctx.LatestOfficialDelivery,
		"latest_official_return":   ctx.LatestOfficialReturn,
	})
}

// SendToWorkshop opens a workshop visit.
func SendToWorkshop(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid vehicle id", http.StatusBadRequest)
		return
	}
	if err := r.ParseMultipartForm(utils.MaxUploadBytes); err != nil {
		http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	form := WorkshopForm{
		EntryDate:      r.FormValue("entry_date"),
		Reason:         r.FormValue("reason"),
		Description:    r.FormValue("description"),
		WorkshopName:   r.FormValue("workshop_name"),
		TechnicianName: r.FormValue("technician_name"),
		Cost:           formFloat(r, "cost"),
		DeliveryLink:   r.FormValue("delivery_link"),
	}

	var attachments []FileUpload
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["receipts"] {
			file, err := header.Open()
			if err != nil {
				continue
			}
			data, err := io.ReadAll(io.LimitReader(file, utils.MaxUploadBytes))
			file.Close()
			if err != nil {
				continue
			}
			attachments = append(attachments, FileUpload{Name: header.Filename, Data: data})
		}
	}

	writeResult(w, workshops.SendToWorkshop(vehicleID, form, attachments, actorID(r)))
}

// ReceiveFromWorkshop closes a workshop visit.
func ReceiveFromWorkshop(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid vehicle id", http.StatusBadRequest)
		return
	}
	maintenanceID, err := pathUUID(r, "maintenanceId")
	if err != nil {
		http.Error(w, "invalid maintenance id", http.StatusBadRequest)
		return
	}
	if err := r.ParseMultipartForm(utils.MaxUploadBytes); err != nil {
		http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	form := WorkshopForm{
		ExitDate:       r.FormValue("exit_date"),
		ReceivedStatus: r.FormValue("received_status"),
		Cost:           formFloat(r, "cost"),
		PickupLink:     r.FormValue("pickup_link"),
	}
	report := formUpload(r, "inspection_report")

	writeResult(w, workshops.ReceiveFromWorkshop(vehicleID, maintenanceID, form, report, actorID(r)))
}

// UpdateWorkshopRecord edits a visit, possibly toggling the vehicle state.
func UpdateWorkshopRecord(w http.ResponseWriter, r *http.Request) {
	recordID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid record id", http.StatusBadRequest)
		return
	}
	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeResult(w, workshops.UpdateWorkshopRecord(recordID, updates, actorID(r)))
}

// RegisterAccident records an accident report for a vehicle.
func RegisterAccident(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid vehicle id", http.StatusBadRequest)
		return
	}
	if err := r.ParseMultipartForm(utils.MaxUploadBytes); err != nil {
		http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	form := AccidentForm{
		Date:        r.FormValue("date"),
		Time:        r.FormValue("time"),
		DriverName:  r.FormValue("driver_name"),
		Severity:    r.FormValue("severity"),
		Description: r.FormValue("description"),

		LocationText: r.FormValue("location"),

		PoliceReport:       formBool(r, "police_report"),
		PoliceReportNumber: r.FormValue("police_report_number"),
		InsuranceClaim:     formBool(r, "insurance_claim"),

		DeductionAmount:     formFloat(r, "deduction_amount"),
		LiabilityPercentage: formFloat(r, "liability_percentage"),

		AccidentReport:     formUpload(r, "accident_report"),
		DriverIDImage:      formUpload(r, "driver_id_image"),
		DriverLicenseImage: formUpload(r, "driver_license_image"),
	}
	if lat := r.FormValue("latitude"); lat != "" {
		if v, err := strconv.ParseFloat(lat, 64); err == nil {
			form.Latitude = &v
		}
	}
	if lng := r.FormValue("longitude"); lng != "" {
		if v, err := strconv.ParseFloat(lng, 64); err == nil {
			form.Longitude = &v
		}
	}
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["scene_images"] {
			file, err := header.Open()
			if err != nil {
				continue
			}
			data, err := io.ReadAll(io.LimitReader(file, utils.MaxUploadBytes))
			file.Close()
			if err != nil {
				continue
			}
			form.SceneImages = append(form.SceneImages, FileUpload{Name: header.Filename, Data: data})
		}
	}

	writeResult(w, accidents.RegisterAccident(vehicleID, form, formBool(r, "requires_repair"), actorID(r)))
}

// ReviewAccident applies an approve/reject/under_review decision.
func ReviewAccident(w http.ResponseWriter, r *http.Request) {
	accidentID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid accident id", http.StatusBadRequest)
		return
	}
	var body struct {
		Decision            string   `json:"decision"`
		Notes               string   `json:"notes"`
		LiabilityPercentage *float64 `json:"liabilityPercentage"`
		DeductionAmount     *float64 `json:"deductionAmount"`
		VehicleCondition    string   `json:"vehicleCondition"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	decision := ReviewDecision{
		Notes:               body.Notes,
		LiabilityPercentage: body.LiabilityPercentage,
		DeductionAmount:     body.DeductionAmount,
		VehicleCondition:    body.VehicleCondition,
	}
	switch body.Decision {
	case "approve":
		writeResult(w, accidents.ApproveAccident(accidentID, actorID(r), decision))
	case "reject":
		writeResult(w, accidents.RejectAccident(accidentID, actorID(r), decision))
	case "under_review":
		writeResult(w, accidents.MarkAccidentUnderReview(accidentID, actorID(r)))
	default:
		http.Error(w, "unknown decision", http.StatusBadRequest)
	}
}

// CreateAuthorization submits a pending external authorization.
func CreateAuthorization(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid vehicle id", http.StatusBadRequest)
		return
	}
	if err := r.ParseMultipartForm(utils.MaxUploadBytes); err != nil {
		http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	form := AuthorizationForm{
		EmployeeNumber:    r.FormValue("employee_number"),
		AuthorizationType: r.FormValue("authorization_type"),
		ProjectName:       r.FormValue("project_name"),
		City:              r.FormValue("city"),
		ExternalLink:      r.FormValue("external_link"),
		Attachment:        formUpload(r, "file"),
	}
	form.ManualDriver.Name = r.FormValue("manual_driver_name")
	form.ManualDriver.Phone = r.FormValue("manual_driver_phone")
	form.ManualDriver.Position = r.FormValue("manual_driver_position")
	form.ManualDriver.Department = r.FormValue("manual_driver_department")

	writeResult(w, authorizations.CreateAuthorization(vehicleID, form, actorID(r)))
}

// DecideAuthorization approves or rejects an authorization.
func DecideAuthorization(w http.ResponseWriter, r *http.Request) {
	authID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid authorization id", http.StatusBadRequest)
		return
	}
	var body struct {
		Approve bool `json:"approve"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeResult(w, authorizations.DecideAuthorization(authID, actorID(r), body.Approve))
}

// CreateInspection records a periodic inspection, safety check or external
// center check depending on the "kind" form field.
func CreateInspection(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid vehicle id", http.StatusBadRequest)
		return
	}
	if err := r.ParseMultipartForm(utils.MaxUploadBytes); err != nil {
		http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	form := InspectionForm{
		Date:        r.FormValue("date"),
		ExpiryDate:  r.FormValue("expiry_date"),
		Result:      r.FormValue("result"),
		Status:      r.FormValue("status"),
		CenterName:  r.FormValue("center_name"),
		Inspector:   r.FormValue("inspector"),
		Notes:       r.FormValue("notes"),
		Certificate: formUpload(r, "certificate"),
	}

	switch r.FormValue("kind") {
	case "periodic", "":
		writeResult(w, inspections.CreatePeriodicInspection(vehicleID, form, actorID(r)))
	case "safety":
		writeResult(w, inspections.CreateSafetyCheck(vehicleID, form, actorID(r)))
	case "external":
		writeResult(w, inspections.CreateExternalSafetyCheck(vehicleID, form, actorID(r)))
	default:
		http.Error(w, "unknown inspection kind", http.StatusBadRequest)
	}
}

// DecideExternalCheck approves or rejects an external center safety check.
func DecideExternalCheck(w http.ResponseWriter, r *http.Request) {
	checkID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid check id", http.StatusBadRequest)
		return
	}
	var body struct {
		Approve bool `json:"approve"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeResult(w, inspections.DecideExternalSafetyCheck(checkID, actorID(r), body.Approve))
}

// ListPendingRequests is the admin approval inbox.
func ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	opType := models.OperationType(r.URL.Query().Get("operation_type"))
	requests, err := approvals.ListPending(opType, nil)
	if err != nil {
		http.Error(w, "failed to load requests", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// DecideRequest applies approve/reject/under_review to an operation request.
func DecideRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}
	var body struct {
		Decision string `json:"decision"`
		Notes    string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	switch body.Decision {
	case "approve":
		writeResult(w, approvals.Approve(requestID, actorID(r), body.Notes))
	case "reject":
		writeResult(w, approvals.Reject(requestID, actorID(r), body.Notes))
	case "under_review":
		writeResult(w, approvals.MarkUnderReview(requestID, actorID(r)))
	default:
		http.Error(w, "unknown decision", http.StatusBadRequest)
	}
}

// GetNotifications lists the caller's inbox.
func GetNotifications(w http.ResponseWriter, r *http.Request) {
	onlyUnread := r.URL.Query().Get("unread") == "true"
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	inbox, err := notifications.InboxForUser(actorID(r), onlyUnread, limit)
	if err != nil {
		http.Error(w, "failed to load notifications", http.StatusInternalServerError)
		return
	}
	count, err := notifications.UnreadCount(actorID(r))
	if err != nil {
		http.Error(w, "failed to load notifications", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": inbox,
		"unread_count":  count,
	})
}

// MarkNotificationRead marks one inbox row read.
func MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return
	}
	if err := notifications.MarkRead(id, actorID(r)); err != nil {
		http.Error(w, "failed to mark notification", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// MarkAllNotificationsRead clears the caller's unread set.
func MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := notifications.MarkAllRead(actorID(r)); err != nil {
		http.Error(w, "failed to mark notifications", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
