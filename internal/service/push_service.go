package service

import (
	"context"
	"encoding/json"
	"fmt"

	"shopping-service/internal/models"
	"shopping-service/internal/util"

	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"
)

// PushService stores device registrations for the push system
type PushService struct {
	repo   PushRepository
	logger *zap.Logger
}

// NewPushService creates a new push service
func NewPushService(repo PushRepository) *PushService {
	return &PushService{repo: repo, logger: util.GetLogger()}
}

// RegisterRequest is a device registration. Subscription is passed through
// untouched to the push system.
type RegisterRequest struct {
	Role         string          `json:"role"`
	Subscription json.RawMessage `json:"subscription"`
}

// Register persists a subscription handle keyed by role
func (p *PushService) Register(ctx context.Context, req *RegisterRequest) (*models.PushSubscription, error) {
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if len(req.Subscription) == 0 || !json.Valid(req.Subscription) {
		return nil, fmt.Errorf("%w: subscription must be a JSON document", ErrValidation)
	}

	sub := &models.PushSubscription{
		Role:         role,
		Subscription: types.JSONText(req.Subscription),
	}
	if err := p.repo.CreatePushSubscription(ctx, sub); err != nil {
		return nil, err
	}

	p.logger.Info("Push subscription registered",
		zap.String("id", sub.ID),
		zap.String("role", string(role)))
	return sub, nil
}

// List returns the registrations of a role
func (p *PushService) List(ctx context.Context, role string) ([]models.PushSubscription, error) {
	r, err := models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return p.repo.ListPushSubscriptions(ctx, r)
}
