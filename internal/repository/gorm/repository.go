// Package gormrepository stores payment plans in Postgres through gorm.
package gormrepository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/iwvelando/mortgage-simulator/internal/models"
	"github.com/iwvelando/mortgage-simulator/internal/repository"
)

// Store is a PlanRepository backed by gorm.
type Store struct {
	db *gorm.DB
}

// New returns a Store using db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ repository.PlanRepository = (*Store)(nil)

// InTx runs fn inside a transaction bound to ctx.
func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// Create inserts the plan and its cuotas atomically.
func (s *Store) Create(ctx context.Context, plan *models.PlanPago) error {
	if plan == nil {
		return errors.New("repository: nil plan")
	}
	cuotas := plan.Cuotas
	plan.Cuotas = nil
	defer func() { plan.Cuotas = cuotas }()

	return s.InTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(plan).Error; err != nil {
			return err
		}
		if len(cuotas) == 0 {
			return nil
		}
		for i := range cuotas {
			cuotas[i].PlanPagoID = plan.ID
		}
		return tx.CreateInBatches(cuotas, 200).Error
	})
}

func (s *Store) Get(ctx context.Context, id uint64) (*models.PlanPago, error) {
	var plan models.PlanPago
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *Store) ListByUser(ctx context.Context, userID uint64) ([]models.PlanPago, error) {
	var items []models.PlanPago
	if err := s.db.WithContext(ctx).
		Model(&models.PlanPago{}).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Order("id desc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) Cuotas(ctx context.Context, planID uint64) ([]models.Cuota, error) {
	if _, err := s.Get(ctx, planID); err != nil {
		return nil, err
	}
	var items []models.Cuota
	if err := s.db.WithContext(ctx).
		Model(&models.Cuota{}).
		Where("plan_pago_id = ?", planID).
		Order("numero asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) Delete(ctx context.Context, id uint64) error {
	return s.InTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("plan_pago_id = ?", id).Delete(&models.Cuota{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.PlanPago{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (s *Store) DeleteCreatedBefore(ctx context.Context, before time.Time) (int64, error) {
	var deleted int64
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		old := tx.Model(&models.PlanPago{}).Select("id").Where("created_at < ?", before)
		if err := tx.Where("plan_pago_id IN (?)", old).Delete(&models.Cuota{}).Error; err != nil {
			return err
		}
		res := tx.Where("created_at < ?", before).Delete(&models.PlanPago{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
