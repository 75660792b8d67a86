package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"p9e.in/nuzum/config"
)

// DepartmentScope returns the department IDs the requesting user is limited
// to. A nil slice means unscoped (admins and unassigned users see everything).
func DepartmentScope(r *http.Request) []uuid.UUID {
	claims := GetClaims(r)
	if claims == nil || claims.Role == "admin" {
		return nil
	}
	var ids []uuid.UUID
	if err := config.DB.Table("user_departments").
		Where("user_id = ?", claims.UserID).
		Pluck("department_id", &ids).Error; err != nil {
		return nil
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}

// InScope reports whether a department-bound entity is visible to the user.
// Entities without a department are visible to everyone.
func InScope(scope []uuid.UUID, departmentID *uuid.UUID) bool {
	if scope == nil || departmentID == nil {
		return true
	}
	for _, id := range scope {
		if id == *departmentID {
			return true
		}
	}
	return false
}
