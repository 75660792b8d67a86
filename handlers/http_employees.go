package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/nuzum/middleware"
	"p9e.in/nuzum/models"
)

// ListEmployees returns employees visible to the caller, scoped by department
// for non-admin users. ?q= searches name and employee number.
func ListEmployees(w http.ResponseWriter, r *http.Request) {
	query := database.Model(&models.Employee{}).Preload("Departments").Preload("Geofences")

	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		like := "%" + q + "%"
		query = query.Where("name LIKE ? OR employee_number LIKE ?", like, like)
	}
	if r.URL.Query().Get("active") == "true" {
		query = query.Where("is_active = ?", true)
	}
	if scope := middleware.DepartmentScope(r); len(scope) > 0 {
		query = query.Where(
			"id IN (SELECT employee_id FROM employee_departments WHERE department_id IN ?)",
			scope,
		)
	}

	var employees []models.Employee
	if err := query.Order("employee_number asc").Find(&employees).Error; err != nil {
		http.Error(w, "failed to load employees", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

// GetEmployee returns one employee with associations.
func GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid employee id", http.StatusBadRequest)
		return
	}
	var employee models.Employee
	if err := database.Preload("Departments").Preload("Geofences").
		First(&employee, "id = ?", id).Error; err != nil {
		http.Error(w, "employee not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

type employeeBody struct {
	EmployeeNumber string   `json:"employeeNumber"`
	Name           string   `json:"name"`
	Phone          string   `json:"phone"`
	NationalID     *string  `json:"nationalId"`
	Position       string   `json:"position"`
	ContractStatus string   `json:"contractStatus"`
	LicenseStatus  string   `json:"licenseStatus"`
	IsActive       *bool    `json:"isActive"`
	DepartmentIDs  []string `json:"departmentIds"`
	GeofenceIDs    []string `json:"geofenceIds"`
}

func parseUUIDList(raw []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		if id, err := uuid.Parse(s); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// CreateEmployee registers a staff member.
func CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var body employeeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.EmployeeNumber) == "" || strings.TrimSpace(body.Name) == "" {
		http.Error(w, "employee number and name are required", http.StatusBadRequest)
		return
	}

	employee := models.Employee{
		EmployeeNumber: strings.TrimSpace(body.EmployeeNumber),
		Name:           strings.TrimSpace(body.Name),
		Phone:          body.Phone,
		NationalID:     body.NationalID,
		Position:       body.Position,
		ContractStatus: body.ContractStatus,
		LicenseStatus:  body.LicenseStatus,
		IsActive:       true,
	}
	if body.IsActive != nil {
		employee.IsActive = *body.IsActive
	}

	err := database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&employee).Error; err != nil {
			return err
		}
		if ids := parseUUIDList(body.DepartmentIDs); len(ids) > 0 {
			var departments []models.Department
			if err := tx.Find(&departments, "id IN ?", ids).Error; err != nil {
				return err
			}
			if err := tx.Model(&employee).Association("Departments").Replace(departments); err != nil {
				return err
			}
		}
		if ids := parseUUIDList(body.GeofenceIDs); len(ids) > 0 {
			var fences []models.Geofence
			if err := tx.Find(&fences, "id IN ?", ids).Error; err != nil {
				return err
			}
			if err := tx.Model(&employee).Association("Geofences").Replace(fences); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		http.Error(w, "failed to create employee", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusCreated, employee)
}

// UpdateEmployee edits employee fields and association sets.
func UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid employee id", http.StatusBadRequest)
		return
	}
	var body employeeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var employee models.Employee
	if err := database.First(&employee, "id = ?", id).Error; err != nil {
		http.Error(w, "employee not found", http.StatusNotFound)
		return
	}

	updates := map[string]interface{}{}
	if v := strings.TrimSpace(body.Name); v != "" {
		updates["name"] = v
	}
	if body.Phone != "" {
		updates["phone"] = body.Phone
	}
	if body.NationalID != nil {
		updates["national_id"] = body.NationalID
	}
	if body.Position != "" {
		updates["position"] = body.Position
	}
	if body.ContractStatus != "" {
		updates["contract_status"] = body.ContractStatus
	}
	if body.LicenseStatus != "" {
		updates["license_status"] = body.LicenseStatus
	}
	if body.IsActive != nil {
		updates["is_active"] = *body.IsActive
	}

	err = database.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&employee).Updates(updates).Error; err != nil {
				return err
			}
		}
		if body.DepartmentIDs != nil {
			var departments []models.Department
			if ids := parseUUIDList(body.DepartmentIDs); len(ids) > 0 {
				if err := tx.Find(&departments, "id IN ?", ids).Error; err != nil {
					return err
				}
			}
			if err := tx.Model(&employee).Association("Departments").Replace(departments); err != nil {
				return err
			}
		}
		if body.GeofenceIDs != nil {
			var fences []models.Geofence
			if ids := parseUUIDList(body.GeofenceIDs); len(ids) > 0 {
				if err := tx.Find(&fences, "id IN ?", ids).Error; err != nil {
					return err
				}
			}
			if err := tx.Model(&employee).Association("Geofences").Replace(fences); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		http.Error(w, "failed to update employee", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// DeleteEmployee soft-deletes; location history is kept for retention to prune.
func DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid employee id", http.StatusBadRequest)
		return
	}
	result := database.Delete(&models.Employee{}, "id = ?", id)
	if result.Error != nil {
		http.Error(w, "failed to delete employee", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "employee not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListDepartments returns all departments.
func ListDepartments(w http.ResponseWriter, r *http.Request) {
	var departments []models.Department
	if err := database.Order("name asc").Find(&departments).Error; err != nil {
		http.Error(w, "failed to load departments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, departments)
}

// CreateDepartment creates one department.
func CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	department := models.Department{
		Name:        strings.TrimSpace(body.Name),
		Description: body.Description,
		IsActive:    true,
	}
	if err := database.Create(&department).Error; err != nil {
		http.Error(w, "failed to create department", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusCreated, department)
}
