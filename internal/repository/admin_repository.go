package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	appErrors "distribution-service/internal/errors"
	"distribution-service/internal/model"
	"distribution-service/prometheus"

	"gorm.io/gorm"
)

type AdminRepositoryInterface interface {
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
	GetByID(ctx context.Context, id uint) (*model.Admin, error)
	Create(ctx context.Context, a *model.Admin) error
}

type AdminRepository struct {
	DB *gorm.DB
}

// GetByEmail returns nil, nil when no admin has that email
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var admin model.Admin
	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return &admin, nil
}

func (r *AdminRepository) GetByID(ctx context.Context, id uint) (*model.Admin, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var admin model.Admin
	err := r.DB.WithContext(ctx).First(&admin, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appErrors.NewNotFound("admin", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get admin %d: %w", id, err)
	}
	return &admin, nil
}

func (r *AdminRepository) Create(ctx context.Context, a *model.Admin) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := r.DB.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}
