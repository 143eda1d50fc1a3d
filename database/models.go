package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a local account, created by registration or by first successful
// external login. Rows are never hard-deleted; IsDeleted marks logical
// deletion.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Login        string    `gorm:"size:50;not null;index:idx_users_login_provider"`
	PasswordHash *string   `gorm:"size:512"`
	Email        string    `gorm:"size:100;not null;uniqueIndex"`
	Provider     string    `gorm:"size:50;not null;index:idx_users_login_provider;uniqueIndex:idx_users_provider_subject"`
	// ProviderUserID is the external subject identifier. Nil for local
	// accounts; (provider, provider_user_id) is unique when present.
	ProviderUserID *string `gorm:"size:100;uniqueIndex:idx_users_provider_subject"`
	IsDeleted      bool    `gorm:"not null;default:false"`
	Roles          []Role  `gorm:"many2many:user_roles"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastLoginAt    *time.Time
}

// BeforeCreate generates a UUID if not already set.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Role is a named permission group. Users and roles are many-to-many.
type Role struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:50;not null;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate generates a UUID if not already set.
func (r *Role) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
