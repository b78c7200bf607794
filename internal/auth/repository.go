package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository defines the persistence contract for accounts and sessions.
type Repository interface {
	CreateUser(ctx context.Context, entity *User) error
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	CreateWorkspace(ctx context.Context, entity *Workspace) error
	FindWorkspaceByOwner(ctx context.Context, ownerID string) (*Workspace, error)
	CreateSession(ctx context.Context, entity *Session) error
	FindSession(ctx context.Context, token string) (*Session, error)
}

// GormRepository persists accounts to a relational database via GORM.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new auth repository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// CreateUser persists a new account.
func (r *GormRepository) CreateUser(ctx context.Context, entity *User) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

// FindUserByEmail returns the account registered under email.
func (r *GormRepository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var entity User
	if err := r.db.WithContext(ctx).First(&entity, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// CreateWorkspace persists a new workspace.
func (r *GormRepository) CreateWorkspace(ctx context.Context, entity *Workspace) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

// FindWorkspaceByOwner returns the oldest workspace owned by ownerID,
// which is the default workspace created at signup.
func (r *GormRepository) FindWorkspaceByOwner(ctx context.Context, ownerID string) (*Workspace, error) {
	var entity Workspace
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		First(&entity).Error
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// CreateSession persists a new session.
func (r *GormRepository) CreateSession(ctx context.Context, entity *Session) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

// FindSession locates a session by token.
func (r *GormRepository) FindSession(ctx context.Context, token string) (*Session, error) {
	var entity Session
	if err := r.db.WithContext(ctx).First(&entity, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// IsNotFound indicates a missing record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
