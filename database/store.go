package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserStore persists User rows.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a user store backed by the given connection.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db.GormDB}
}

// FindByEmail returns the user with the given email, or ErrNotFound.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Preload("Roles").Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByLoginAndProvider returns the user with the given login under the
// given provider, or ErrNotFound.
func (s *UserStore) FindByLoginAndProvider(ctx context.Context, login, provider string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Preload("Roles").
		Where("login = ? AND provider = ?", login, provider).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Create inserts a new user. Uniqueness violations come back as ErrDuplicate.
func (s *UserStore) Create(ctx context.Context, user *User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

// TouchLastLogin records a successful login.
func (s *UserStore) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return translate(s.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", id).Update("last_login_at", at).Error)
}

// RoleStore persists Role rows.
type RoleStore struct {
	db *gorm.DB
}

// NewRoleStore creates a role store backed by the given connection.
func NewRoleStore(db *DB) *RoleStore {
	return &RoleStore{db: db.GormDB}
}

// FindByName returns the role with the given name, or ErrNotFound.
func (s *RoleStore) FindByName(ctx context.Context, name string) (*Role, error) {
	var role Role
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

// Ensure creates the role if it does not exist yet. Used at startup to
// seed the well-known roles.
func (s *RoleStore) Ensure(ctx context.Context, name string) (*Role, error) {
	role, err := s.FindByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	role = &Role{Name: name}
	if createErr := s.Create(ctx, role); createErr != nil {
		// A concurrent seeder may have won the race.
		if IsDuplicate(createErr) {
			return s.FindByName(ctx, name)
		}
		return nil, createErr
	}
	return role, nil
}

// Create inserts a new role.
func (s *RoleStore) Create(ctx context.Context, role *Role) error {
	return translate(s.db.WithContext(ctx).Create(role).Error)
}
