package response

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository defines the persistence contract for responses.
type Repository interface {
	Create(ctx context.Context, entity *Response) error
	ListByForm(ctx context.Context, formID string) ([]Response, error)
	Find(ctx context.Context, id string) (*Response, error)
	Delete(ctx context.Context, id string) error
	DeleteByForm(ctx context.Context, formID string) (int64, error)
}

// GormRepository provides a relational-backed implementation of Repository.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository constructs a repository from a database connection.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Create persists a new response.
func (r *GormRepository) Create(ctx context.Context, entity *Response) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

// ListByForm returns all responses of a form, newest first.
func (r *GormRepository) ListByForm(ctx context.Context, formID string) ([]Response, error) {
	var responses []Response
	err := r.db.WithContext(ctx).
		Where("form_id = ?", formID).
		Order("created_at DESC").
		Find(&responses).Error
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// Find returns a response by ID.
func (r *GormRepository) Find(ctx context.Context, id string) (*Response, error) {
	var entity Response
	if err := r.db.WithContext(ctx).First(&entity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// Delete removes one response.
func (r *GormRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&Response{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByForm bulk-deletes every response of a form and reports how many
// rows went away. Deleting zero rows is not an error.
func (r *GormRepository) DeleteByForm(ctx context.Context, formID string) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&Response{}, "form_id = ?", formID)
	return result.RowsAffected, result.Error
}

// IsNotFound reports whether an error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
