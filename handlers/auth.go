package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"p9e.in/nuzum/config"
	"p9e.in/nuzum/middleware"
	"p9e.in/nuzum/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a session token.
func Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).
		First(&user).Error; err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !user.IsActive {
		http.Error(w, "account disabled", http.StatusForbidden)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := middleware.GenerateToken(user.ID.String(), user.Role, user.Name)
	if err != nil {
		log.Printf("❌ Failed to sign token for %s: %v", user.Email, err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

// Me returns the authenticated account with its department scope.
func Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	writeJSON(w, http.StatusOK, user)
}

type registerRequest struct {
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	Password      string   `json:"password"`
	Role          string   `json:"role"`
	DepartmentIDs []string `json:"departmentIds"`
}

// RegisterUser creates an account. Admin-only; drivers never self-register.
func RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Email == "" || len(req.Password) < 8 {
		http.Error(w, "name, email and a password of at least 8 characters are required", http.StatusBadRequest)
		return
	}
	switch req.Role {
	case "admin", "supervisor", "driver":
	case "":
		req.Role = "driver"
	default:
		http.Error(w, "unknown role", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		http.Error(w, "email already registered", http.StatusConflict)
		return
	}

	if len(req.DepartmentIDs) > 0 {
		var departments []models.Department
		if err := config.DB.Where("id IN ?", req.DepartmentIDs).Find(&departments).Error; err == nil {
			if err := config.DB.Model(&user).Association("Departments").Replace(departments); err != nil {
				log.Printf("⚠️  Failed to assign departments to %s: %v", user.Email, err)
			}
		}
	}

	writeJSON(w, http.StatusCreated, user)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("❌ Failed to encode response: %v", err)
	}
}

// writeResult renders a service Result with its mapped status code.
func writeResult(w http.ResponseWriter, result Result) {
	writeJSON(w, result.HTTPStatus(), result)
}
