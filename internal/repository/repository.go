// Package repository persists payment plans.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/iwvelando/mortgage-simulator/internal/models"
)

// ErrNotFound is returned when a plan id does not exist.
var ErrNotFound = errors.New("repository: plan not found")

// PlanRepository stores plans with their installments.
type PlanRepository interface {
	// Create stores the plan and its cuotas in a single transaction and sets
	// the generated ids on plan.
	Create(ctx context.Context, plan *models.PlanPago) error
	Get(ctx context.Context, id uint64) (*models.PlanPago, error)
	// ListByUser returns the user's plans without installments, newest first.
	ListByUser(ctx context.Context, userID uint64) ([]models.PlanPago, error)
	Cuotas(ctx context.Context, planID uint64) ([]models.Cuota, error)
	Delete(ctx context.Context, id uint64) error
	DeleteCreatedBefore(ctx context.Context, before time.Time) (int64, error)
	Ping(ctx context.Context) error
}
