package form

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository defines the persistence contract for forms.
type Repository interface {
	List(ctx context.Context, workspaceID string) ([]Form, error)
	Create(ctx context.Context, entity *Form) error
	Find(ctx context.Context, id string) (*Form, error)
	FindBySlug(ctx context.Context, slug string) (*Form, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Save(ctx context.Context, entity *Form) error
	Delete(ctx context.Context, id string) error
}

// GormRepository provides a relational-backed implementation of Repository.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository constructs a repository from a database connection.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// List returns the forms owned by a workspace, newest first.
func (r *GormRepository) List(ctx context.Context, workspaceID string) ([]Form, error) {
	var forms []Form
	err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Find(&forms).Error
	if err != nil {
		return nil, err
	}
	return forms, nil
}

// Create persists a new form.
func (r *GormRepository) Create(ctx context.Context, entity *Form) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

// Find returns a form by ID.
func (r *GormRepository) Find(ctx context.Context, id string) (*Form, error) {
	var entity Form
	if err := r.db.WithContext(ctx).First(&entity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// FindBySlug returns a form by its public slug.
func (r *GormRepository) FindBySlug(ctx context.Context, slug string) (*Form, error) {
	var entity Form
	if err := r.db.WithContext(ctx).First(&entity, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// SlugExists reports whether any form already holds the slug.
func (r *GormRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Form{}).Where("slug = ?", slug).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save persists the full document. Serialized JSONB fields only round-trip
// through Save, so updates load the entity, apply changes and save it back.
func (r *GormRepository) Save(ctx context.Context, entity *Form) error {
	return r.db.WithContext(ctx).Save(entity).Error
}

// Delete removes a form by ID.
func (r *GormRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&Form{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsNotFound reports whether an error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether an error is a unique-constraint rejection.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
