package config

import (
	"errors"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"p9e.in/nuzum/models"
)

// RunAllSeeding seeds the minimum data a fresh deployment needs. Each step
// skips itself when data already exists.
func RunAllSeeding() error {
	log.Println("=== Starting Database Seeding ===")

	log.Println("[1/2] Seeding Departments...")
	SeedDepartments()

	log.Println("[2/2] Seeding Admin User...")
	SeedAdminUser()

	log.Println("=== Database Seeding Complete ===")
	return nil
}

// SeedDepartments creates the default department set.
func SeedDepartments() {
	departments := []models.Department{
		{Name: "الحركة", Description: "قسم الحركة والنقل"},
		{Name: "الصيانة", Description: "قسم صيانة المركبات"},
		{Name: "المشاريع", Description: "قسم المشاريع"},
		{Name: "الإدارة", Description: "الإدارة العامة"},
	}

	for _, dept := range departments {
		var existing models.Department
		err := DB.Where("name = ?", dept.Name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := DB.Create(&dept).Error; err != nil {
				log.Printf("❌ Failed to seed department %s: %v", dept.Name, err)
				continue
			}
			log.Printf("✅ Created department: %s", dept.Name)
		}
	}
}

// SeedAdminUser creates the initial admin account when none exists. The
// password comes from ADMIN_PASSWORD or falls back to a value that must be
// rotated on first login.
func SeedAdminUser() {
	var count int64
	DB.Model(&models.User{}).Where("role = ?", "admin").Count(&count)
	if count > 0 {
		return
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "ChangeMe!2025"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("❌ Failed to hash admin password: %v", err)
		return
	}

	admin := models.User{
		Name:         "مدير النظام",
		Email:        "admin@nuzum.local",
		Role:         "admin",
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := DB.Create(&admin).Error; err != nil {
		log.Printf("❌ Failed to seed admin user: %v", err)
		return
	}
	log.Printf("✅ Created admin user: %s", admin.Email)
}
