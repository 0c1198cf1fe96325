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

// AgentRepositoryInterface defines methods used by services and handlers
type AgentRepositoryInterface interface {
	List(ctx context.Context) ([]model.Agent, error)
	GetByID(ctx context.Context, id uint) (*model.Agent, error)
	EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error)
	Create(ctx context.Context, a *model.Agent) error
	Update(ctx context.Context, a *model.Agent) error
	Delete(ctx context.Context, id uint) error
	WithTx(tx *gorm.DB) AgentRepositoryInterface
}

// AgentRepository is the gorm implementation
type AgentRepository struct {
	DB *gorm.DB
}

func (r *AgentRepository) WithTx(tx *gorm.DB) AgentRepositoryInterface {
	return &AgentRepository{DB: tx}
}

// List returns every agent in creation order. Distribution and summaries
// depend on this order being stable.
func (r *AgentRepository) List(ctx context.Context) ([]model.Agent, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	agents := []model.Agent{}
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	prometheus.UpdateAgents(len(agents))
	return agents, nil
}

func (r *AgentRepository) GetByID(ctx context.Context, id uint) (*model.Agent, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var agent model.Agent
	err := r.DB.WithContext(ctx).First(&agent, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appErrors.NewNotFound("agent", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get agent %d: %w", id, err)
	}
	return &agent, nil
}

// EmailTaken reports whether another agent (other than excludeID) uses email
func (r *AgentRepository) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var count int64
	q := r.DB.WithContext(ctx).Model(&model.Agent{}).Where("email = ?", email)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check agent email: %w", err)
	}
	return count > 0, nil
}

func (r *AgentRepository) Create(ctx context.Context, a *model.Agent) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := r.DB.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create agent: %w", err)
	}
	return nil
}

// Update saves name, email and mobile number. The password is not touched.
func (r *AgentRepository) Update(ctx context.Context, a *model.Agent) error {
	defer prometheus.TrackDBOperation("update")(time.Now())

	res := r.DB.WithContext(ctx).Model(&model.Agent{ID: a.ID}).Updates(map[string]interface{}{
		"name":          a.Name,
		"email":         a.Email,
		"mobile_number": a.MobileNumber,
	})
	if res.Error != nil {
		return fmt.Errorf("update agent %d: %w", a.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return appErrors.NewNotFound("agent", a.ID)
	}
	return nil
}

// Delete removes the agent only. Its list items stay, pointing at a missing agent.
func (r *AgentRepository) Delete(ctx context.Context, id uint) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	res := r.DB.WithContext(ctx).Delete(&model.Agent{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete agent %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return appErrors.NewNotFound("agent", id)
	}
	return nil
}
