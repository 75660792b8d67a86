package handlers

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/nuzum/models"
	"p9e.in/nuzum/pkg/fleet"
	"p9e.in/nuzum/utils"
)

// ExpiringDocument is one row of the expiring-documents list.
type ExpiringDocument struct {
	VehicleID    uuid.UUID `json:"vehicleId"`
	PlateNumber  string    `json:"plateNumber"`
	VehicleName  string    `json:"vehicleName"`
	DocumentType string    `json:"documentType"` // authorization, registration, inspection
	ExpiryDate   time.Time `json:"expiryDate"`
	ExpiryDateAr string    `json:"expiryDateAr"`
	DaysLeft     int       `json:"daysLeft"`
}

// VehicleQueryService assembles the flat payloads the views render. It only
// reads; all writes stay with the per-domain services.
type VehicleQueryService struct {
	db        *gorm.DB
	handovers *HandoverService
	accidents *AccidentService
}

func NewVehicleQueryService(db *gorm.DB, store BlobStore, uploader *CloudUploader) *VehicleQueryService {
	return &VehicleQueryService{
		db:        db,
		handovers: NewHandoverService(db, store, uploader),
		accidents: NewAccidentService(db, store, uploader),
	}
}

// ListPayload builds the vehicle-list view payload: the filtered page of
// vehicles with their current driver, status statistics and the derived
// document-expiry lists.
func (s *VehicleQueryService) ListPayload(params models.ListParams, scope []uuid.UUID) (map[string]interface{}, error) {
	query := params.Apply(s.db.Model(&models.Vehicle{}), "plate_number", "make", "model", "driver_name")
	var vehicles []models.Vehicle
	if err := query.Find(&vehicles).Error; err != nil {
		return nil, err
	}

	currentEmployees, err := s.currentEmployeeByVehicle(vehicles)
	if err != nil {
		return nil, err
	}

	// Department scoping is driver-based: non-admin users only see vehicles
	// whose current driver belongs to one of their departments, plus
	// driverless vehicles.
	if scope != nil {
		allowed, err := s.employeesInDepartments(scope)
		if err != nil {
			return nil, err
		}
		filtered := vehicles[:0]
		for _, v := range vehicles {
			employeeID, has := currentEmployees[v.ID]
			if !has || allowed[employeeID] {
				filtered = append(filtered, v)
			}
		}
		vehicles = filtered
	}

	rows := make([]map[string]interface{}, 0, len(vehicles))
	for _, v := range vehicles {
		row := map[string]interface{}{
			"vehicle":      v,
			"status_label": fleet.StatusLabel(v.Status),
		}
		if employeeID, ok := currentEmployees[v.ID]; ok {
			row["current_employee_id"] = employeeID
		}
		rows = append(rows, row)
	}

	stats, err := s.statusStatistics()
	if err != nil {
		return nil, err
	}

	today := utils.Today()
	expiring, expired, err := s.documentExpiry(today)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"vehicles":                      rows,
		"statistics":                    stats,
		"expiring_documents":            expiring,
		"expired_authorization_vehicles": expired["authorization"],
		"expired_registration_vehicles":  expired["registration"],
		"expired_inspection_vehicles":    expired["inspection"],
		"department_scope":              scope,
	}, nil
}

// DetailPayload assembles the full vehicle page: official handovers, workshop
// and accident history, authorizations, inspections and the derived driver
// and cost figures.
func (s *VehicleQueryService) DetailPayload(vehicleID uuid.UUID) (map[string]interface{}, Result) {
	var vehicle models.Vehicle
	if err := s.db.First(&vehicle, "id = ?", vehicleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Failure(FailNotFound, "المركبة غير موجودة")
		}
		return nil, Failure(FailConflict, "تعذر تحميل بيانات المركبة")
	}

	official, err := officialHandovers(s.db, vehicleID)
	if err != nil {
		return nil, Failure(FailConflict, "تعذر قراءة سجل التسليم")
	}

	var workshops []models.VehicleWorkshop
	if err := s.db.Where("vehicle_id = ?", vehicleID).Order("entry_date desc").Find(&workshops).Error; err != nil {
		return nil, Failure(FailConflict, "تعذر قراءة سجل الورشة")
	}

	accidents, err := s.accidents.ApprovedAccidents(vehicleID)
	if err != nil {
		return nil, Failure(FailConflict, "تعذر قراءة سجل الحوادث")
	}

	var authorizations []models.ExternalAuthorization
	if err := s.db.Preload("Employee").Where("vehicle_id = ?", vehicleID).
		Order("created_at desc").Find(&authorizations).Error; err != nil {
		return nil, Failure(FailConflict, "تعذر قراءة التفاويض")
	}

	var inspections []models.VehiclePeriodicInspection
	if err := s.db.Where("vehicle_id = ?", vehicleID).Order("inspection_date desc").Find(&inspections).Error; err != nil {
		return nil, Failure(FailConflict, "تعذر قراءة الفحوصات")
	}

	var safetyChecks []models.VehicleSafetyCheck
	if err := s.db.Where("vehicle_id = ?", vehicleID).Order("check_date desc").Find(&safetyChecks).Error; err != nil {
		return nil, Failure(FailConflict, "تعذر قراءة فحوصات السلامة")
	}

	var externalChecks []models.VehicleExternalSafetyCheck
	if err := s.db.Where("vehicle_id = ?", vehicleID).Order("check_date desc").Find(&externalChecks).Error; err != nil {
		return nil, Failure(FailConflict, "تعذر قراءة فحوصات المراكز")
	}

	var rentals []models.VehicleRental
	if err := s.db.Where("vehicle_id = ?", vehicleID).Order("start_date desc").Find(&rentals).Error; err != nil {
		return nil, Failure(FailConflict, "تعذر قراءة عقود الإيجار")
	}

	// Derived driver history from the official handover stream.
	var currentDriver string
	previousDrivers := []string{}
	ctx := HandoverContext{}
	for i := range official {
		h := &official[i]
		switch h.Type {
		case fleet.HandoverDelivery:
			ctx.LatestOfficialDelivery = h
		case fleet.HandoverReturn:
			ctx.LatestOfficialReturn = h
		}
	}
	seen := map[string]bool{}
	for i := len(official) - 1; i >= 0; i-- {
		h := official[i]
		if h.Type != fleet.HandoverDelivery || seen[h.PersonName] {
			continue
		}
		seen[h.PersonName] = true
		previousDrivers = append(previousDrivers, h.PersonName)
	}
	if ctx.CurrentlyHandedOut() {
		currentDriver = ctx.LatestOfficialDelivery.PersonName
		if len(previousDrivers) > 0 && previousDrivers[0] == currentDriver {
			previousDrivers = previousDrivers[1:]
		}
	}

	today := utils.Today()
	var totalCost float64
	var daysInWorkshop int
	for _, w := range workshops {
		totalCost += w.Cost
		end := today
		if w.ExitDate != nil {
			end = *w.ExitDate
		}
		if days := int(end.Sub(w.EntryDate).Hours() / 24); days > 0 {
			daysInWorkshop += days
		}
	}

	handoverRows := make([]map[string]interface{}, 0, len(official))
	for _, h := range official {
		handoverRows = append(handoverRows, map[string]interface{}{
			"handover":         h,
			"handover_date_ar": utils.FormatArabicDate(h.HandoverDate),
		})
	}
	workshopRows := make([]map[string]interface{}, 0, len(workshops))
	for _, w := range workshops {
		row := map[string]interface{}{
			"record":        w,
			"entry_date_ar": utils.FormatArabicDate(w.EntryDate),
		}
		if w.ExitDate != nil {
			row["exit_date_ar"] = utils.FormatArabicDate(*w.ExitDate)
		}
		workshopRows = append(workshopRows, row)
	}
	accidentRows := make([]map[string]interface{}, 0, len(accidents))
	for _, a := range accidents {
		accidentRows = append(accidentRows, map[string]interface{}{
			"accident":         a,
			"accident_date_ar": utils.FormatArabicDate(a.AccidentDate),
		})
	}
	inspectionRows := make([]map[string]interface{}, 0, len(inspections))
	for _, p := range inspections {
		inspectionRows = append(inspectionRows, map[string]interface{}{
			"inspection":         p,
			"inspection_date_ar": utils.FormatArabicDate(p.InspectionDate),
			"expiry_date_ar":     utils.FormatArabicDate(p.ExpiryDate),
			"is_expired":         p.IsExpired(today),
			"is_expiring_soon":   p.IsExpiringSoon(today),
		})
	}

	rentalRows := make([]map[string]interface{}, 0, len(rentals))
	for _, rent := range rentals {
		rentalRows = append(rentalRows, map[string]interface{}{
			"rental":    rent,
			"is_active": rent.Active(today),
		})
	}

	return map[string]interface{}{
		"vehicle":                vehicle,
		"status_label":           fleet.StatusLabel(vehicle.Status),
		"handovers":              handoverRows,
		"workshop_records":       workshopRows,
		"accidents":              accidentRows,
		"authorizations":         authorizations,
		"rentals":                rentalRows,
		"inspections":            inspectionRows,
		"safety_checks":          safetyChecks,
		"external_safety_checks": externalChecks,
		"current_driver":         currentDriver,
		"previous_drivers":       previousDrivers,
		"currently_handed_out":   ctx.CurrentlyHandedOut(),
		"total_maintenance_cost": totalCost,
		"days_in_workshop":       daysInWorkshop,
	}, Success(nil)
}

// DashboardPayload is the landing-page summary.
func (s *VehicleQueryService) DashboardPayload() (map[string]interface{}, error) {
	stats, err := s.statusStatistics()
	if err != nil {
		return nil, err
	}

	var pendingRequests int64
	if err := s.db.Model(&models.OperationRequest{}).
		Where("status IN ?", []models.OperationStatus{models.OperationPending, models.OperationUnderReview}).
		Count(&pendingRequests).Error; err != nil {
		return nil, err
	}

	var pendingAccidents int64
	if err := s.db.Model(&models.VehicleAccident{}).
		Where("review_status IN ?", []models.ReviewStatus{models.ReviewPending, models.ReviewUnderReview}).
		Count(&pendingAccidents).Error; err != nil {
		return nil, err
	}

	var openWorkshops int64
	if err := s.db.Model(&models.VehicleWorkshop{}).
		Where("exit_date IS NULL").Count(&openWorkshops).Error; err != nil {
		return nil, err
	}

	today := utils.Today()
	expiring, _, err := s.documentExpiry(today)
	if err != nil {
		return nil, err
	}

	var workshops []models.VehicleWorkshop
	if err := s.db.Find(&workshops).Error; err != nil {
		return nil, err
	}
	dates := make([]time.Time, len(workshops))
	costs := make([]float64, len(workshops))
	for i, w := range workshops {
		dates[i] = w.EntryDate
		costs[i] = w.Cost
	}

	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	previousStart := monthStart.AddDate(0, -1, 0)
	var accidentsThisMonth, accidentsLastMonth int64
	if err := s.db.Model(&models.VehicleAccident{}).
		Where("accident_date >= ?", monthStart).Count(&accidentsThisMonth).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.VehicleAccident{}).
		Where("accident_date >= ? AND accident_date < ?", previousStart, monthStart).
		Count(&accidentsLastMonth).Error; err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"statistics":             stats,
		"pending_requests":       pendingRequests,
		"pending_accidents":      pendingAccidents,
		"open_workshops":         openWorkshops,
		"expiring_documents":     expiring,
		"maintenance_cost_trend": utils.MonthlySeries(dates, costs),
		"accidents_kpi":          utils.ComputeKPI(float64(accidentsThisMonth), float64(accidentsLastMonth)),
	}, nil
}

func (s *VehicleQueryService) statusStatistics() (map[string]int64, error) {
	type statusCount struct {
		Status fleet.Status
		Count  int64
	}
	var counts []statusCount
	if err := s.db.Model(&models.Vehicle{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}

	stats := map[string]int64{
		string(fleet.StatusAvailable):    0,
		string(fleet.StatusRented):       0,
		string(fleet.StatusInProject):    0,
		string(fleet.StatusInWorkshop):   0,
		string(fleet.StatusAccident):     0,
		string(fleet.StatusOutOfService): 0,
	}
	var total int64
	for _, c := range counts {
		stats[string(c.Status)] = c.Count
		total += c.Count
	}
	stats["total"] = total
	return stats, nil
}

// documentExpiry scans the three expiry columns and splits them into
// expiring-within-30-days (sorted ascending) and already-expired buckets.
func (s *VehicleQueryService) documentExpiry(today time.Time) ([]ExpiringDocument, map[string][]models.Vehicle, error) {
	var vehicles []models.Vehicle
	if err := s.db.Find(&vehicles).Error; err != nil {
		return nil, nil, err
	}

	horizon := today.AddDate(0, 0, 30)
	var expiring []ExpiringDocument
	expired := map[string][]models.Vehicle{
		"authorization": {},
		"registration":  {},
		"inspection":    {},
	}

	for _, v := range vehicles {
		for docType, expiry := range map[string]*time.Time{
			"authorization": v.AuthorizationExpiry,
			"registration":  v.RegistrationExpiry,
			"inspection":    v.InspectionExpiry,
		} {
			if expiry == nil {
				continue
			}
			switch {
			case expiry.Before(today):
				expired[docType] = append(expired[docType], v)
			case !expiry.After(horizon):
				expiring = append(expiring, ExpiringDocument{
					VehicleID:    v.ID,
					PlateNumber:  v.PlateNumber,
					VehicleName:  v.DisplayName(),
					DocumentType: docType,
					ExpiryDate:   *expiry,
					ExpiryDateAr: utils.FormatArabicDate(*expiry),
					DaysLeft:     int(expiry.Sub(today).Hours() / 24),
				})
			}
		}
	}

	sort.Slice(expiring, func(i, j int) bool {
		return expiring[i].ExpiryDate.Before(expiring[j].ExpiryDate)
	})
	return expiring, expired, nil
}

// currentEmployeeByVehicle resolves each listed vehicle's current driver to an
// employee id from its official handover stream, in one pass.
func (s *VehicleQueryService) currentEmployeeByVehicle(vehicles []models.Vehicle) (map[uuid.UUID]uuid.UUID, error) {
	result := map[uuid.UUID]uuid.UUID{}
	for _, v := range vehicles {
		if v.DriverName == nil {
			continue
		}
		ctx, err := s.handovers.ReadContext(s.db, v.ID)
		if err != nil {
			return nil, err
		}
		if ctx.CurrentlyHandedOut() && ctx.LatestOfficialDelivery.EmployeeID != nil {
			result[v.ID] = *ctx.LatestOfficialDelivery.EmployeeID
		}
	}
	return result, nil
}

func (s *VehicleQueryService) employeesInDepartments(scope []uuid.UUID) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	if err := s.db.Table("employee_departments").
		Where("department_id IN ?", scope).
		Pluck("employee_id", &ids).Error; err != nil {
		return nil, err
	}
	allowed := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		allowed[id] = true
	}
	return allowed, nil
}
