package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a platform account. Role is a flat string; department assignments
// scope which vehicles and employees the account may see.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone        string    `gorm:"size:20" json:"phone,omitempty"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:20;not null;default:'driver'" json:"role"` // admin, supervisor, driver
	IsActive     bool      `gorm:"default:true;index" json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Departments []Department `gorm:"many2many:user_departments;" json:"departments,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

// IsAdmin reports administrative privilege.
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

// DepartmentIDs returns the user's assigned department scope. Empty means
// unscoped (admins typically carry no assignments).
func (u *User) DepartmentIDs(db *gorm.DB) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.Table("user_departments").
		Where("user_id = ?", u.ID).
		Pluck("department_id", &ids).Error
	return ids, err
}
