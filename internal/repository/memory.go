package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iwvelando/mortgage-simulator/internal/models"
)

// Memory is an in-process PlanRepository used by the CLI, tests and servers
// running without a database.
type Memory struct {
	mu     sync.RWMutex
	now    func() time.Time
	nextID uint64
	plans  map[uint64]models.PlanPago
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return NewMemoryWithClock(nil)
}

// NewMemoryWithClock returns an empty store that stamps plans with now().
func NewMemoryWithClock(now func() time.Time) *Memory {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Memory{now: now, plans: make(map[uint64]models.PlanPago)}
}

func (m *Memory) Create(ctx context.Context, plan *models.PlanPago) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if plan == nil {
		return fmt.Errorf("repository: nil plan")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	plan.ID = m.nextID
	stamp := m.now()
	plan.CreatedAt = stamp
	plan.UpdatedAt = stamp

	stored := *plan
	stored.Cuotas = make([]models.Cuota, len(plan.Cuotas))
	for i := range plan.Cuotas {
		plan.Cuotas[i].ID = uint64(i + 1)
		plan.Cuotas[i].PlanPagoID = plan.ID
		stored.Cuotas[i] = plan.Cuotas[i]
	}
	m.plans[plan.ID] = stored
	return nil
}

func (m *Memory) Get(ctx context.Context, id uint64) (*models.PlanPago, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	plan, ok := m.plans[id]
	if !ok {
		return nil, ErrNotFound
	}
	plan.Cuotas = nil
	return &plan, nil
}

func (m *Memory) ListByUser(ctx context.Context, userID uint64) ([]models.PlanPago, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]models.PlanPago, 0)
	for _, plan := range m.plans {
		if plan.UserID != userID {
			continue
		}
		plan.Cuotas = nil
		items = append(items, plan)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	return items, nil
}

func (m *Memory) Cuotas(ctx context.Context, planID uint64) ([]models.Cuota, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	plan, ok := m.plans[planID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]models.Cuota, len(plan.Cuotas))
	copy(out, plan.Cuotas)
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.plans[id]; !ok {
		return ErrNotFound
	}
	delete(m.plans, id)
	return nil
}

func (m *Memory) DeleteCreatedBefore(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, plan := range m.plans {
		if plan.CreatedAt.Before(before) {
			delete(m.plans, id)
			n++
		}
	}
	return n, nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}
